package gen

import (
	"math/rand/v2"
	"time"

	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// Mix emits from a uniformly-chosen sub-generator, refreshing the choice
// after each op. Exhausted sub-generators are dropped from future draws;
// Mix itself exhausts once every sub-generator has.
func Mix(gs ...Generator) Generator {
	cp := make([]Generator, len(gs))
	copy(cp, gs)
	return &mixGen{gs: cp}
}

type mixGen struct {
	gs []Generator
}

func (m *mixGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	if len(m.gs) == 0 {
		return Exhausted, op.Op{}, Nil
	}

	idx := rand.IntN(len(m.gs))
	outcome, o, next := m.gs[idx].Op(t, ctx)
	switch outcome {
	case Ready:
		cp := make([]Generator, len(m.gs))
		copy(cp, m.gs)
		cp[idx] = next
		return Ready, o, &mixGen{gs: cp}
	case PendingOutcome:
		cp := make([]Generator, len(m.gs))
		copy(cp, m.gs)
		cp[idx] = next
		return PendingOutcome, op.Op{}, &mixGen{gs: cp}
	default: // Exhausted: drop idx and retry among the rest
		rest := make([]Generator, 0, len(m.gs)-1)
		rest = append(rest, m.gs[:idx]...)
		rest = append(rest, m.gs[idx+1:]...)
		if len(rest) == 0 {
			return Exhausted, op.Op{}, Nil
		}
		return (&mixGen{gs: rest}).Op(t, ctx)
	}
}

func (m *mixGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	cp := make([]Generator, len(m.gs))
	for i, g := range m.gs {
		cp[i] = g.Update(t, ctx, ev)
	}
	return &mixGen{gs: cp}
}

// Any returns the op from whichever sub-generator has the earliest op,
// per the soonest-op selection in spec §4.2.3 (equal weight per
// sub-generator).
func Any(gs ...Generator) Generator {
	cp := make([]Generator, len(gs))
	copy(cp, gs)
	return &anyGen{gs: cp}
}

type anyGen struct {
	gs []Generator
}

func (a *anyGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	if len(a.gs) == 0 {
		return Exhausted, op.Op{}, Nil
	}

	cands := pollAll(t, ctx, a.gs, nil)
	winner, pending := soonest(cands)
	next := resolved(cands, winner)

	if winner == -1 {
		if allExhausted(cands) {
			return Exhausted, op.Op{}, Nil
		}
		_ = pending
		return PendingOutcome, op.Op{}, &anyGen{gs: next}
	}

	return Ready, cands[winner].o, &anyGen{gs: next}
}

func allExhausted(cands []candidate) bool {
	for _, c := range cands {
		if c.outcome != Exhausted {
			return false
		}
	}
	return true
}

func (a *anyGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	next := make([]Generator, len(a.gs))
	for i, g := range a.gs {
		next[i] = g.Update(t, ctx, ev)
	}
	return &anyGen{gs: next}
}

// CycleTimes time-slices round-robin over gs by wall clock: generator i
// is active for a duration of ts[i] before control passes to i+1, wrapping
// around. len(ts) must equal len(gs).
func CycleTimes(ts []time.Duration, gs []Generator) Generator {
	durs := make([]time.Duration, len(ts))
	copy(durs, ts)
	subs := make([]Generator, len(gs))
	copy(subs, gs)
	return &cycleTimesGen{durs: durs, subs: subs}
}

type cycleTimesGen struct {
	durs       []time.Duration
	subs       []Generator
	idx        int
	sliceStart time.Duration
	started    bool
}

func (c *cycleTimesGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	if len(c.subs) == 0 {
		return Exhausted, op.Op{}, Nil
	}

	start := c.sliceStart
	if !c.started {
		start = ctx.Time()
	}

	if c.started && ctx.Time() >= start+c.durs[c.idx] {
		nextIdx := (c.idx + 1) % len(c.subs)
		return (&cycleTimesGen{durs: c.durs, subs: c.subs, idx: nextIdx, sliceStart: ctx.Time(), started: true}).Op(t, ctx)
	}

	outcome, o, next := c.subs[c.idx].Op(t, ctx)
	subs := make([]Generator, len(c.subs))
	copy(subs, c.subs)

	switch outcome {
	case Ready:
		subs[c.idx] = next
		return Ready, o, &cycleTimesGen{durs: c.durs, subs: subs, idx: c.idx, sliceStart: start, started: true}
	case PendingOutcome:
		subs[c.idx] = next
		return PendingOutcome, op.Op{}, &cycleTimesGen{durs: c.durs, subs: subs, idx: c.idx, sliceStart: start, started: true}
	default:
		// this slot exhausted early; advance to the next slot immediately
		nextIdx := (c.idx + 1) % len(c.subs)
		if nextIdx == 0 && allCycleExhausted(c.subs, c.idx) {
			return Exhausted, op.Op{}, Nil
		}
		return (&cycleTimesGen{durs: c.durs, subs: subs, idx: nextIdx, sliceStart: ctx.Time(), started: true}).Op(t, ctx)
	}
}

func allCycleExhausted(subs []Generator, except int) bool {
	// best-effort guard against spinning forever when every slot is done;
	// a single already-observed exhaustion at `except` plus no further
	// progress is treated conservatively as "not yet known exhausted" by
	// callers, so this only catches the simple all-Nil case.
	for i, g := range subs {
		if i == except {
			continue
		}
		if g != Nil {
			return false
		}
	}
	return true
}

func (c *cycleTimesGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	subs := make([]Generator, len(c.subs))
	for i, g := range c.subs {
		subs[i] = g.Update(t, ctx, ev)
	}
	return &cycleTimesGen{durs: c.durs, subs: subs, idx: c.idx, sliceStart: c.sliceStart, started: c.started}
}
