package gen

import (
	"sync"

	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// Promise is pending until Fulfill is called (typically from outside the
// generator call chain, e.g. by the FIFO driver on a phase transition),
// after which it behaves as its fulfilled contents.
type Promise struct {
	mu        sync.Mutex
	fulfilled bool
	gen       Generator
}

// NewPromise returns an unfulfilled Promise.
func NewPromise() *Promise {
	return &Promise{}
}

// Fulfill sets the Promise's contents. Only the first call has effect.
func (p *Promise) Fulfill(g Generator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.fulfilled {
		p.fulfilled = true
		p.gen = g
	}
}

func (p *Promise) snapshot() (bool, Generator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fulfilled, p.gen
}

// Generator returns the Generator view of p.
func (p *Promise) Generator() Generator {
	return &promiseGen{state: p}
}

type promiseGen struct {
	state *Promise
}

func (g *promiseGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	fulfilled, sub := g.state.snapshot()
	if !fulfilled {
		return PendingOutcome, op.Op{}, g
	}
	return sub.Op(t, ctx)
}

func (g *promiseGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	fulfilled, sub := g.state.snapshot()
	if !fulfilled {
		return g
	}
	return sub.Update(t, ctx, ev)
}
