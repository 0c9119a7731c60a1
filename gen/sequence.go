package gen

import (
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// Sequence runs each of gs in turn: producing from the head until it
// exhausts, then the next, etc. An empty Sequence is immediately
// exhausted. To build an unbounded sequence, nest Sequence inside Repeat.
func Sequence(gs ...Generator) Generator {
	if len(gs) == 0 {
		return Nil
	}
	return &sequenceGen{gs: gs}
}

type sequenceGen struct {
	gs []Generator // gs[0] is the current head
}

func (s *sequenceGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	if len(s.gs) == 0 {
		return Exhausted, op.Op{}, Nil
	}

	outcome, o, next := s.gs[0].Op(t, ctx)
	switch outcome {
	case Ready:
		rest := append([]Generator{next}, s.gs[1:]...)
		return Ready, o, &sequenceGen{gs: rest}
	case PendingOutcome:
		rest := append([]Generator{next}, s.gs[1:]...)
		return PendingOutcome, op.Op{}, &sequenceGen{gs: rest}
	default: // Exhausted: advance to the next sub-generator
		return (&sequenceGen{gs: s.gs[1:]}).Op(t, ctx)
	}
}

func (s *sequenceGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	if len(s.gs) == 0 {
		return s
	}
	rest := append([]Generator{s.gs[0].Update(t, ctx, ev)}, s.gs[1:]...)
	return &sequenceGen{gs: rest}
}
