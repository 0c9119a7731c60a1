package gen

import (
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// UntilOk forwards g's ops until an ok (op.OK) completion is delivered to
// its Update, at which point it exhausts -- regardless of whatever g still
// has queued. Any ok completion it is informed of counts, not only those
// of invokes g produced. Completions are observed via Update, so UntilOk must wrap
// a generator whose invokes actually reach the interpreter's Update call.
func UntilOk(g Generator) Generator {
	return &untilOkGen{sub: g}
}

type untilOkGen struct {
	sub  Generator
	done bool
}

func (u *untilOkGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	if u.done {
		return Exhausted, op.Op{}, Nil
	}
	outcome, o, next := u.sub.Op(t, ctx)
	if outcome == Exhausted {
		return Exhausted, op.Op{}, Nil
	}
	return outcome, o, &untilOkGen{sub: next}
}

func (u *untilOkGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	if u.done {
		return u
	}
	if ev.Kind == EventComplete && ev.Op.Type == op.OK {
		return &untilOkGen{done: true}
	}
	return &untilOkGen{sub: u.sub.Update(t, ctx, ev)}
}

// FlipFlop alternates one op at a time between a and b: a emits, then b,
// then a again, and so on. Either side exhausting ends FlipFlop (the
// remaining side is not drained on its own).
func FlipFlop(a, b Generator) Generator {
	return &flipFlopGen{a: a, b: b, aTurn: true}
}

type flipFlopGen struct {
	a, b  Generator
	aTurn bool
}

func (f *flipFlopGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	cur, other := f.a, f.b
	if !f.aTurn {
		cur, other = f.b, f.a
	}

	outcome, o, next := cur.Op(t, ctx)
	switch outcome {
	case Ready:
		if f.aTurn {
			return Ready, o, &flipFlopGen{a: next, b: other, aTurn: false}
		}
		return Ready, o, &flipFlopGen{a: other, b: next, aTurn: true}
	case PendingOutcome:
		if f.aTurn {
			return PendingOutcome, op.Op{}, &flipFlopGen{a: next, b: other, aTurn: true}
		}
		return PendingOutcome, op.Op{}, &flipFlopGen{a: other, b: next, aTurn: false}
	default:
		return Exhausted, op.Op{}, Nil
	}
}

func (f *flipFlopGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	return &flipFlopGen{a: f.a.Update(t, ctx, ev), b: f.b.Update(t, ctx, ev), aTurn: f.aTurn}
}
