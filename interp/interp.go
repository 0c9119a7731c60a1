// Package interp implements the interpreter main loop (spec §4.4): it
// drives the generator algebra against a live Context, dispatches
// invocations to worker goroutines, and prioritizes completions over
// new invocations so recorded history stays faithful to wall-clock
// order.
package interp

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jepsengo/jepsen/gen"
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
	"github.com/jepsengo/jepsen/worker"
)

// maxPendingInterval bounds how long the interpreter ever blocks on the
// completion queue when the generator reports :pending or nil-with-
// outstanding-ops -- a test-level time_limit wrapper is what actually
// ends a hung generator; this is just a responsiveness ceiling so
// cancellation is never starved.
const maxPendingInterval = 200 * time.Millisecond

// ErrCanceled is wrapped into the error Run returns when ctx is canceled
// mid-test.
var ErrCanceled = errors.New("interp: canceled")

// Interpreter owns one test run: the live context, generator state, and
// the worker pool it dispatches to.
type Interpreter struct {
	test       *testdef.Test
	gen        gen.Generator
	workers    map[sched.Thread]*worker.Worker
	completion chan worker.Completion
	log        zerolog.Logger
}

// New builds an Interpreter for test t, starting from root generator g,
// driving the given workers (keyed by thread, including the dedicated
// nemesis thread). completion must be the same channel every worker in
// workers was constructed with (see worker.New/worker.NewNemesis) --
// worker.NewPool builds both consistently.
func New(t *testdef.Test, g gen.Generator, workers map[sched.Thread]*worker.Worker, completion chan worker.Completion) *Interpreter {
	return &Interpreter{
		test:       t,
		gen:        g,
		workers:    workers,
		completion: completion,
		log:        t.Logger(),
	}
}

// Run executes the test to completion, returning the finished history.
// Worker goroutines are started here and joined before returning.
func (ip *Interpreter) Run(ctx context.Context) (*op.History, error) {
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup
	for _, w := range ip.workers {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(workerCtx)
		}()
	}
	defer wg.Wait()

	history := op.NewHistory()
	start := time.Now()
	sc := sched.New(ip.test.Concurrency)
	pollTimeout := time.Duration(0)
	outstanding := 0

	exitAll := func() {
		for _, w := range ip.workers {
			w.Exit()
		}
	}

	for {
		select {
		case <-ctx.Done():
			exitAll()
			cancelWorkers()
			return history, errors.Join(ErrCanceled, ctx.Err())
		default:
		}

		completed, ok := ip.pollCompletion(ctx, pollTimeout)
		if ok {
			relTime := time.Since(start)
			recorded := completed.Op
			recorded.Time = relTime
			recorded = history.Append(recorded)

			sc = sc.FreeThread(relTime, completed.Thread)
			if recorded.Type == op.Info {
				sc = sc.WithNextProcess(completed.Thread)
			}

			ip.gen = ip.gen.Update(ip.test, sc, gen.Event{Kind: gen.EventComplete, Op: recorded})
			outstanding--
			pollTimeout = 0
			continue
		}

		sc = sc.WithTime(time.Since(start))
		outcome, o, next := ip.gen.Op(ip.test, sc)

		switch outcome {
		case gen.Exhausted:
			ip.gen = next
			if outstanding == 0 {
				exitAll()
				cancelWorkers()
				return history, nil
			}
			pollTimeout = maxPendingInterval
		case gen.PendingOutcome:
			// Nothing ready yet; ip.gen is untouched so the next
			// iteration re-polls the same generator state rather than
			// the (unrelated) value it would have advanced to.
			pollTimeout = maxPendingInterval
		case gen.Ready:
			if o.Time > sc.Time() {
				// Deferred to the future: re-ask the same, un-advanced
				// generator once poll_timeout has elapsed (spec §4.4),
				// rather than committing next and losing this op.
				pollTimeout = o.Time - sc.Time()
				continue
			}
			ip.gen = next

			if o.Type == op.Sleep || o.Type == op.Log {
				history.Append(o)
				pollTimeout = 0
				continue
			}

			recorded := history.Append(o)
			th, onThread := threadFor(sc, o.Process)
			if !onThread {
				ip.log.Error().Interface("op", recorded).Msg("generator emitted an invoke for an unknown process")
				pollTimeout = 0
				continue
			}
			sc = sc.BusyThread(sc.Time(), th)
			ip.workers[th].Invocation(recorded)
			ip.gen = ip.gen.Update(ip.test, sc, gen.Event{Kind: gen.EventInvoke, Op: recorded})
			outstanding++
			pollTimeout = 0
		}
	}
}

func threadFor(sc *sched.Context, p op.Process) (sched.Thread, bool) {
	for t := 0; t < sc.ThreadCount(); t++ {
		if sc.ProcessForThread(sched.Thread(t)) == p {
			return sched.Thread(t), true
		}
	}
	return 0, false
}

// pollCompletion waits up to timeout for a worker completion, or returns
// immediately (ok=false) if ctx is already done.
func (ip *Interpreter) pollCompletion(ctx context.Context, timeout time.Duration) (worker.Completion, bool) {
	if timeout <= 0 {
		select {
		case c := <-ip.completion:
			return c, true
		default:
			return worker.Completion{}, false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case c := <-ip.completion:
		return c, true
	case <-timer.C:
		return worker.Completion{}, false
	case <-ctx.Done():
		return worker.Completion{}, false
	}
}
