package gen

import (
	"github.com/jepsengo/jepsen/fifo"
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// PhaseGated wraps a "main phase" generator so it starts yielding
// Exhausted as soon as flag transitions to fifo.PhaseFinal, regardless
// of what g itself still has queued -- this is what lets Sequence (or
// any other combinator) advance into a test's final phase the moment
// the FIFO driver sees a "check" filename.
func PhaseGated(flag *fifo.PhaseFlag, g Generator) Generator {
	return &phaseGatedGen{flag: flag, sub: g}
}

type phaseGatedGen struct {
	flag *fifo.PhaseFlag
	sub  Generator
}

func (p *phaseGatedGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	if p.flag.Load() == fifo.PhaseFinal {
		return Exhausted, op.Op{}, Nil
	}
	outcome, o, next := p.sub.Op(t, ctx)
	return outcome, o, &phaseGatedGen{flag: p.flag, sub: next}
}

func (p *phaseGatedGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	return &phaseGatedGen{flag: p.flag, sub: p.sub.Update(t, ctx, ev)}
}
