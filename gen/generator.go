// Package gen implements the generator algebra described in the spec:
// leaf generators, combinators, and the soonest-op selection used to
// compose them. Every Generator implementation here is a pure value:
// Op and Update never mutate the receiver, they return the next state.
// This lets combinators like Repeat and RepeatN hold on to an original
// Generator value and safely reuse it to "reset" a sub-generator,
// without worrying about accidental aliasing/mutation (design note in
// SPEC_FULL.md §9, "cyclic graphs").
package gen

import (
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// Outcome is the three-way result of asking a Generator for its next op.
type Outcome uint8

const (
	// Exhausted means the generator is permanently done; every
	// subsequent call must also report Exhausted.
	Exhausted Outcome = iota
	// PendingOutcome means "nothing right now, but maybe later"; the
	// caller must retry rather than treating this as exhaustion.
	PendingOutcome
	// Ready means an Op is available.
	Ready
)

// EventKind distinguishes an invocation notification from a completion
// notification passed to Generator.Update.
type EventKind uint8

const (
	// EventInvoke is delivered when the interpreter dispatches an
	// invocation (after filling in index/process/time defaults).
	EventInvoke EventKind = iota
	// EventComplete is delivered when a worker's completion has been
	// journaled.
	EventComplete
)

// Event is the notification passed to Generator.Update.
type Event struct {
	Kind EventKind
	Op   op.Op
}

// Generator is the two-method protocol every leaf and combinator
// implements (spec §4.2).
type Generator interface {
	// Op asks for the next operation. ctx.Time() is the current
	// relative time; generators must not perform I/O or block. To defer,
	// return PendingOutcome, or a Ready op whose Time is in the future.
	Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator)

	// Update informs the generator of an invocation or completion event.
	// It must not block, and must be pure relative to its inputs.
	Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator
}

// Nil is the generator that is always exhausted.
var Nil Generator = nilGen{}

type nilGen struct{}

func (nilGen) Op(*testdef.Test, *sched.Context) (Outcome, op.Op, Generator) {
	return Exhausted, op.Op{}, Nil
}

func (nilGen) Update(*testdef.Test, *sched.Context, Event) Generator {
	return Nil
}

// literal emits a single, concrete op then is exhausted.
type literal struct {
	o op.Op
}

// Literal returns a generator that emits o exactly once.
func Literal(o op.Op) Generator {
	return &literal{o: o}
}

func (l *literal) Op(*testdef.Test, *sched.Context) (Outcome, op.Op, Generator) {
	return Ready, l.o, Nil
}

func (l *literal) Update(*testdef.Test, *sched.Context, Event) Generator {
	return l
}
