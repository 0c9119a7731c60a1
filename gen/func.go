package gen

import (
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// Func lazily produces a Generator, given the test and the context at
// the moment it is first consulted.
type Func func(t *testdef.Test, ctx *sched.Context) Generator

// FromFunc wraps fn as a Generator. fn is invoked the first time Op is
// called, and the returned generator is driven to exhaustion; once it
// exhausts, fn is invoked again for a fresh sub-generator (spec §4.2.1:
// "that returned generator is exhausted before the function is invoked
// again").
func FromFunc(fn Func) Generator {
	return &funcGen{fn: fn}
}

type funcGen struct {
	fn  Func
	sub Generator // nil until first Op call
}

func (g *funcGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	sub := g.sub
	if sub == nil {
		sub = g.fn(t, ctx)
	}

	outcome, o, next := sub.Op(t, ctx)
	if outcome == Exhausted {
		// The sub-generator is spent; invoke fn again for a fresh one
		// rather than exhausting the Function leaf itself.
		return (&funcGen{fn: g.fn}).Op(t, ctx)
	}
	return outcome, o, &funcGen{fn: g.fn, sub: next}
}

func (g *funcGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	if g.sub == nil {
		// Hasn't been asked for an op yet; nothing to inform.
		return g
	}
	return &funcGen{fn: g.fn, sub: g.sub.Update(t, ctx, ev)}
}
