package gen

import (
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// Phases runs each generator in gs to exhaustion, one at a time, and
// waits for every worker to go idle before advancing to the next phase.
// A phase is considered drained once its generator has exhausted AND
// ctx.AllIdle() holds -- so a straggling in-flight invoke can't bleed
// its completion into the next phase's ops.
func Phases(gs ...Generator) Generator {
	cp := make([]Generator, len(gs))
	copy(cp, gs)
	return &phasesGen{gs: cp}
}

type phasesGen struct {
	gs        []Generator
	idx       int
	exhausted bool // current phase's generator has returned Exhausted
}

func (p *phasesGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	if p.idx >= len(p.gs) {
		return Exhausted, op.Op{}, Nil
	}

	if p.exhausted {
		if !ctx.AllIdle() {
			return PendingOutcome, op.Op{}, p
		}
		return (&phasesGen{gs: p.gs, idx: p.idx + 1}).Op(t, ctx)
	}

	outcome, o, next := p.gs[p.idx].Op(t, ctx)
	switch outcome {
	case Ready:
		return Ready, o, &phasesGen{gs: withReplaced(p.gs, p.idx, next), idx: p.idx}
	case PendingOutcome:
		return PendingOutcome, op.Op{}, &phasesGen{gs: withReplaced(p.gs, p.idx, next), idx: p.idx}
	default:
		return (&phasesGen{gs: p.gs, idx: p.idx, exhausted: true}).Op(t, ctx)
	}
}

func withReplaced(gs []Generator, idx int, g Generator) []Generator {
	cp := make([]Generator, len(gs))
	copy(cp, gs)
	cp[idx] = g
	return cp
}

func (p *phasesGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	if p.idx >= len(p.gs) {
		return p
	}
	return &phasesGen{gs: withReplaced(p.gs, p.idx, p.gs[p.idx].Update(t, ctx, ev)), idx: p.idx, exhausted: p.exhausted}
}

// Synchronize waits until every worker is idle, then forwards to g.
func Synchronize(g Generator) Generator {
	return &synchronizeGen{sub: g}
}

type synchronizeGen struct {
	sub      Generator
	released bool
}

func (s *synchronizeGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	if !s.released {
		if !ctx.AllIdle() {
			return PendingOutcome, op.Op{}, s
		}
		return (&synchronizeGen{sub: s.sub, released: true}).Op(t, ctx)
	}
	outcome, o, next := s.sub.Op(t, ctx)
	return outcome, o, &synchronizeGen{sub: next, released: true}
}

func (s *synchronizeGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	return &synchronizeGen{sub: s.sub.Update(t, ctx, ev), released: s.released}
}
