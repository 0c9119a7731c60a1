package gen

import (
	"math/rand/v2"

	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// candidate is one sub-generator's result, as used by the soonest-op
// selection in spec §4.2.3. orig is the sub-generator as it was before
// this poll; since Op must be pure (spec §4.2), re-polling orig
// reproduces the same (outcome, o, next) -- so a candidate that loses
// the tie-break can fall back to orig and offer the same op again next
// time, instead of silently losing it to a probe that was never acted
// on.
type candidate struct {
	outcome Outcome
	o       op.Op
	next    Generator
	orig    Generator
	weight  int // typically the thread count behind this sub-generator
}

// pollAll asks every sub-generator for its next op against the same ctx.
func pollAll(t *testdef.Test, ctx *sched.Context, gs []Generator, weights []int) []candidate {
	out := make([]candidate, len(gs))
	for i, g := range gs {
		outcome, o, next := g.Op(t, ctx)
		w := 1
		if weights != nil {
			w = weights[i]
		}
		out[i] = candidate{outcome: outcome, o: o, next: next, orig: g, weight: w}
	}
	return out
}

// resolved returns the generator state a candidate at index i should
// carry forward: the winner advances to its polled next state, every
// other Ready/Pending candidate rewinds to the state it was polled at so
// its op isn't lost, and an Exhausted candidate becomes Nil either way.
func resolved(cands []candidate, winner int) []Generator {
	out := make([]Generator, len(cands))
	for i, c := range cands {
		switch {
		case c.outcome == Exhausted:
			out[i] = Nil
		case i == winner:
			out[i] = c.next
		default:
			out[i] = c.orig
		}
	}
	return out
}

// soonest implements spec §4.2.3: a nil (Exhausted) candidate loses to
// any non-nil; PendingOutcome loses to a concrete Ready op; lower Time
// wins; ties are broken randomly, weighted by the candidate's weight, so
// a small reserved pool isn't starved when interleaved with a larger one.
//
// Returns the winning index, or -1 if every candidate is Exhausted. If no
// candidate is Ready but at least one is Pending, winner is -1 and
// pending is true.
func soonest(cands []candidate) (winner int, pending bool) {
	winner = -1
	anyPending := false
	// tieWeight is the summed weight of every Ready candidate tied at the
	// current winner's Time, so each tied candidate wins with probability
	// weight/tieWeight.
	tieWeight := 0

	for i, c := range cands {
		switch c.outcome {
		case Exhausted:
			continue
		case PendingOutcome:
			anyPending = true
		case Ready:
			if winner == -1 {
				winner = i
				tieWeight = c.weight
				continue
			}
			switch {
			case c.o.Time < cands[winner].o.Time:
				winner = i
				tieWeight = c.weight
			case c.o.Time == cands[winner].o.Time:
				tieWeight += c.weight
				if tieWeight > 0 && rand.IntN(tieWeight) < c.weight {
					winner = i
				}
			}
		}
	}

	if winner != -1 {
		return winner, false
	}
	return -1, anyPending
}
