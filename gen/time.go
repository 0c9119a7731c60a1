package gen

import (
	"math/rand/v2"
	"time"

	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// Sleep returns a generator that emits a single {Type: Sleep, Value: dt}
// directive, scheduled dt after the context's current time. Sleep/Log ops
// carry no process: the interpreter does not dispatch them to a worker,
// it simply honors the future Time via its normal scheduling delay.
func Sleep(dt time.Duration) Generator {
	return &sleepGen{dt: dt}
}

type sleepGen struct{ dt time.Duration }

func (g *sleepGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	return Ready, op.Op{Type: op.Sleep, Time: ctx.Time() + g.dt, Value: g.dt}, Nil
}

func (g *sleepGen) Update(*testdef.Test, *sched.Context, Event) Generator { return g }

// Log returns a generator that emits a single {Type: Log, Value: msg}
// annotation immediately (no scheduling delay).
func Log(msg string) Generator {
	return &logGen{msg: msg}
}

type logGen struct{ msg string }

func (g *logGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	return Ready, op.Op{Type: op.Log, Time: ctx.Time(), Value: g.msg}, Nil
}

func (g *logGen) Update(*testdef.Test, *sched.Context, Event) Generator { return g }

// TimeLimit forwards only ops from g whose Time is before the first
// observed op's Time + dt.
func TimeLimit(dt time.Duration, g Generator) Generator {
	return &timeLimitGen{dt: dt, sub: g}
}

type timeLimitGen struct {
	dt    time.Duration
	sub   Generator
	first *time.Duration
}

func (l *timeLimitGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	outcome, o, next := l.sub.Op(t, ctx)
	switch outcome {
	case Ready:
		first := l.first
		if first == nil {
			f := o.Time
			first = &f
		}
		if o.Time >= *first+l.dt {
			return Exhausted, op.Op{}, Nil
		}
		return Ready, o, &timeLimitGen{dt: l.dt, sub: next, first: first}
	case PendingOutcome:
		return PendingOutcome, op.Op{}, &timeLimitGen{dt: l.dt, sub: next, first: l.first}
	default:
		return Exhausted, op.Op{}, Nil
	}
}

func (l *timeLimitGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	return &timeLimitGen{dt: l.dt, sub: l.sub.Update(t, ctx, ev), first: l.first}
}

// Stagger schedules successive ops from g at least dt apart on average:
// each op's Time is pushed out to a running cursor, which then advances
// by a uniform random jitter in [0, 2*dt], so that over many ops the mean
// inter-op interval converges to dt (spec §8 scenario, "Stagger mean").
func Stagger(dt time.Duration, g Generator) Generator {
	return &pacedGen{interval: dt, jitter: true, sub: g}
}

// Delay forces successive ops from g to be at least dt apart, exactly
// (no jitter).
func Delay(dt time.Duration, g Generator) Generator {
	return &pacedGen{interval: dt, jitter: false, sub: g}
}

type pacedGen struct {
	interval time.Duration
	jitter   bool
	sub      Generator
	cursor   time.Duration
	started  bool
}

func (p *pacedGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	outcome, o, next := p.sub.Op(t, ctx)
	switch outcome {
	case Ready:
		start := ctx.Time()
		if p.started && p.cursor > start {
			start = p.cursor
		}
		if o.Time > start {
			start = o.Time
		}
		o.Time = start

		advance := p.interval
		if p.jitter && p.interval > 0 {
			advance = time.Duration(rand.Int64N(int64(2*p.interval) + 1))
		}

		return Ready, o, &pacedGen{
			interval: p.interval,
			jitter:   p.jitter,
			sub:      next,
			cursor:   start + advance,
			started:  true,
		}
	case PendingOutcome:
		return PendingOutcome, op.Op{}, &pacedGen{
			interval: p.interval, jitter: p.jitter, sub: next, cursor: p.cursor, started: p.started,
		}
	default:
		return Exhausted, op.Op{}, Nil
	}
}

func (p *pacedGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	return &pacedGen{
		interval: p.interval, jitter: p.jitter, sub: p.sub.Update(t, ctx, ev), cursor: p.cursor, started: p.started,
	}
}
