package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

func TestOnRestrictsToPredicateThreads(t *testing.T) {
	ctx := sched.New(2) // threads 0,1 client, 2 nemesis
	g := On(func(thread, total int) bool { return thread == 1 }, Literal(op.Op{Type: op.Invoke, Process: 1, F: "x"}))

	outcome, o, _ := g.Op(&testdef.Test{}, ctx)
	require.Equal(t, Ready, outcome)
	assert.Equal(t, op.Process(1), o.Process)
}

func TestClientsExcludesNemesis(t *testing.T) {
	ctx := sched.New(1)
	g := Clients(Literal(op.Op{Type: op.Invoke, Process: 0, F: "x"}))
	outcome, _, _ := g.Op(&testdef.Test{}, ctx)
	assert.Equal(t, Ready, outcome)
}

func TestReserveRoutesToCorrectPartition(t *testing.T) {
	ctx := sched.New(3) // threads 0,1,2 client, 3 nemesis
	g := Reserve(
		Nil,
		Partition{N: 2, Gen: Literal(op.Op{Type: op.Invoke, Process: 0, F: "p0"})},
		Partition{N: 1, Gen: Literal(op.Op{Type: op.Invoke, Process: 2, F: "p1"})},
	)

	seen := map[string]bool{}
	cur := g
	for i := 0; i < 2; i++ {
		outcome, o, next := cur.Op(&testdef.Test{}, ctx)
		require.Equal(t, Ready, outcome)
		seen[o.F] = true
		cur = next
	}
	assert.True(t, seen["p0"])
	assert.True(t, seen["p1"])
}

func TestUntilOkExhaustsAfterOkCompletion(t *testing.T) {
	ctx := sched.New(1)
	g := UntilOk(Sequence(
		Literal(op.Op{Type: op.Invoke, Process: 0, F: "x"}),
		Literal(op.Op{Type: op.Invoke, Process: 0, F: "y"}),
	))

	_, o, next := g.Op(&testdef.Test{}, ctx)
	assert.Equal(t, "x", o.F)

	next = next.Update(&testdef.Test{}, ctx, Event{Kind: EventComplete, Op: op.Op{Type: op.OK, Process: 0, F: "x"}})
	outcome, _, _ := next.Op(&testdef.Test{}, ctx)
	assert.Equal(t, Exhausted, outcome)
}

func TestPhasesAdvancesOnceIdle(t *testing.T) {
	ctx := sched.New(1)
	g := Phases(
		Literal(op.Op{Type: op.Invoke, Process: 0, F: "phase1"}),
		Literal(op.Op{Type: op.Invoke, Process: 0, F: "phase2"}),
	)

	outcome, o, next := g.Op(&testdef.Test{}, ctx)
	require.Equal(t, Ready, outcome)
	assert.Equal(t, "phase1", o.F)

	// everyone idle (no busy threads yet in this fresh ctx): phase1's
	// generator is already exhausted after one op, so the next Op call
	// should advance straight to phase2.
	outcome, o, _ = next.Op(&testdef.Test{}, ctx)
	require.Equal(t, Ready, outcome)
	assert.Equal(t, "phase2", o.F)
}
