package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jepsengo/jepsen/op"
)

func TestNewContextAllFree(t *testing.T) {
	c := New(3)
	require.True(t, c.FreeThreads(Thread(0)))
	require.True(t, c.FreeThreads(Thread(1)))
	require.True(t, c.FreeThreads(Thread(2)))
	require.True(t, c.FreeThreads(NemesisThread(3)))
	assert.Equal(t, op.Process(0), c.ProcessForThread(Thread(0)))
	assert.Equal(t, op.Nemesis, c.ProcessForThread(NemesisThread(3)))
}

func TestBusyThenFreeThread(t *testing.T) {
	c := New(2)
	c2 := c.BusyThread(time.Millisecond, Thread(0))
	require.False(t, c2.FreeThreads(Thread(0)))
	require.True(t, c.FreeThreads(Thread(0)), "original context must be unmodified")

	c3 := c2.FreeThread(2*time.Millisecond, Thread(0))
	require.True(t, c3.FreeThreads(Thread(0)))
	assert.Equal(t, 2*time.Millisecond, c3.Time())
}

func TestWithNextProcessRotatesAndRetiresOld(t *testing.T) {
	c := New(2)
	before := c.ProcessForThread(Thread(0))
	c2 := c.WithNextProcess(Thread(0))
	after := c2.ProcessForThread(Thread(0))

	assert.Equal(t, op.Process(0), before)
	assert.Equal(t, op.Process(2), after) // 0 + concurrency(2)

	_, stillThere := c2.threadFor(before)
	assert.False(t, stillThere, "old process must be retired from the map")
}

func TestWithNextProcessIsNoopForNemesis(t *testing.T) {
	c := New(2)
	c2 := c.WithNextProcess(NemesisThread(2))
	assert.Equal(t, op.Nemesis, c2.ProcessForThread(NemesisThread(2)))
}

func TestSomeFreeProcessFairness(t *testing.T) {
	c := New(4)
	seen := map[op.Process]int{}
	cur := c
	for i := 0; i < 40; i++ {
		next, p, ok := cur.SomeFreeProcess()
		require.True(t, ok)
		seen[p]++
		cur = next
	}
	for p := op.Process(0); p < 4; p++ {
		assert.Greaterf(t, seen[p], 0, "process %d must not be starved", p)
	}
}

func TestSomeFreeProcessNoneFree(t *testing.T) {
	c := New(1)
	c = c.BusyThread(0, Thread(0))
	c = c.BusyThread(0, NemesisThread(1))
	_, _, ok := c.SomeFreeProcess()
	require.False(t, ok)
}

func TestRestrictIsIdempotent(t *testing.T) {
	c := New(4)
	clients := ClientThreads(4)
	r1 := c.Restrict(clients)
	r2 := r1.Restrict(clients)

	require.Equal(t, r1.all.String(), r2.all.String())
	require.Equal(t, r1.free.String(), r2.free.String())
	assert.False(t, r1.AllThreads(NemesisThread(4)))
	assert.True(t, r1.AllThreads(Thread(0)))
}

func TestEachFreeThread(t *testing.T) {
	c := New(3)
	c = c.BusyThread(0, Thread(1))
	var got []Thread
	c.EachFreeThread(func(th Thread) { got = append(got, th) })
	assert.Equal(t, []Thread{0, 2, Thread(NemesisThread(3))}, got)
}
