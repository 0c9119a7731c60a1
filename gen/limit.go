package gen

import (
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// Limit forwards at most n ops from g, then is exhausted.
func Limit(n int, g Generator) Generator {
	if n <= 0 {
		return Nil
	}
	return &limitGen{remaining: n, sub: g}
}

type limitGen struct {
	remaining int
	sub       Generator
}

func (l *limitGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	if l.remaining <= 0 {
		return Exhausted, op.Op{}, Nil
	}
	outcome, o, next := l.sub.Op(t, ctx)
	switch outcome {
	case Ready:
		remaining := l.remaining - 1
		if remaining <= 0 {
			return Ready, o, Nil
		}
		return Ready, o, &limitGen{remaining: remaining, sub: next}
	case PendingOutcome:
		return PendingOutcome, op.Op{}, &limitGen{remaining: l.remaining, sub: next}
	default:
		return Exhausted, op.Op{}, Nil
	}
}

func (l *limitGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	return &limitGen{remaining: l.remaining, sub: l.sub.Update(t, ctx, ev)}
}

// Repeat replays g's ops indefinitely: each time g exhausts, it is reset
// to its original (unconsumed) value. To get a bounded repeat, wrap with
// Limit, or use RepeatN.
func Repeat(g Generator) Generator {
	return &repeatGen{orig: g, cur: g}
}

// RepeatN replays g's ops n times total (n-fold), then is exhausted.
func RepeatN(n int, g Generator) Generator {
	if n <= 0 {
		return Nil
	}
	return &repeatNGen{orig: g, cur: g, remaining: n}
}

type repeatNGen struct {
	orig      Generator
	cur       Generator
	remaining int // repetitions left, including the one in progress
}

func (r *repeatNGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	if r.remaining <= 0 {
		return Exhausted, op.Op{}, Nil
	}
	outcome, o, next := r.cur.Op(t, ctx)
	switch outcome {
	case Ready:
		return Ready, o, &repeatNGen{orig: r.orig, cur: next, remaining: r.remaining}
	case PendingOutcome:
		return PendingOutcome, op.Op{}, &repeatNGen{orig: r.orig, cur: next, remaining: r.remaining}
	default: // Exhausted: consume one repetition, reset if any remain
		remaining := r.remaining - 1
		if remaining <= 0 {
			return Exhausted, op.Op{}, Nil
		}
		return (&repeatNGen{orig: r.orig, cur: r.orig, remaining: remaining}).Op(t, ctx)
	}
}

func (r *repeatNGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	return &repeatNGen{orig: r.orig, cur: r.cur.Update(t, ctx, ev), remaining: r.remaining}
}

type repeatGen struct {
	orig Generator
	cur  Generator
}

func (r *repeatGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	outcome, o, next := r.cur.Op(t, ctx)
	switch outcome {
	case Ready:
		return Ready, o, &repeatGen{orig: r.orig, cur: next}
	case PendingOutcome:
		return PendingOutcome, op.Op{}, &repeatGen{orig: r.orig, cur: next}
	default: // Exhausted: reset to the original, untouched generator value
		return (&repeatGen{orig: r.orig, cur: r.orig}).Op(t, ctx)
	}
}

func (r *repeatGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	return &repeatGen{orig: r.orig, cur: r.cur.Update(t, ctx, ev)}
}
