package gen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// S5 -- limit(3, repeat({f: inc})) under a one-thread interpreter
// produces exactly three invokes; outstanding returns to 0; the loop
// exits cleanly. Here "interpreter" is driven by hand, one Op/Update
// cycle at a time, since the scenario is about the generator's bound,
// not dispatch.
func TestScenarioLimitRepeatProducesExactlyThreeOps(t *testing.T) {
	tst := &testdef.Test{}
	ctx := sched.New(1) // one thread: process 0, plus the nemesis slot

	template := FromFunc(func(*testdef.Test, *sched.Context) Generator {
		return Literal(op.Op{Type: op.Invoke, Process: 0, F: "inc"})
	})
	g := Limit(3, Repeat(template))

	var produced []op.Op
	for {
		outcome, o, next := g.Op(tst, ctx)
		if outcome == Exhausted {
			break
		}
		require.Equal(t, Ready, outcome, "one-thread repeat never needs to report pending")
		produced = append(produced, o)
		g = next.Update(tst, ctx, Event{Kind: EventComplete, Op: o})
	}

	assert.Len(t, produced, 3)
	for _, o := range produced {
		assert.Equal(t, "inc", o.F)
	}
}

// S6 -- time_limit(dt, repeat(op)) emits only ops whose time < t0 + dt,
// where t0 is the first emitted op's time.
func TestScenarioTimeLimitBoundsEmission(t *testing.T) {
	tst := &testdef.Test{}
	ctx := sched.New(0)

	const dt = 100 * time.Millisecond
	g := TimeLimit(dt, Stagger(30*time.Millisecond, Repeat(FromFunc(func(*testdef.Test, *sched.Context) Generator {
		return Literal(op.Op{Type: op.Invoke, Process: 0, F: "tick"})
	}))))

	var t0 *time.Duration
	for i := 0; i < 50; i++ {
		outcome, o, next := g.Op(tst, ctx)
		if outcome == Exhausted {
			return
		}
		require.Equal(t, Ready, outcome)
		if t0 == nil {
			f := o.Time
			t0 = &f
		}
		assert.Less(t, o.Time, *t0+dt)
		g = next
		ctx = ctx.WithTime(o.Time)
	}
	t.Fatal("time_limit never exhausted across 50 iterations")
}
