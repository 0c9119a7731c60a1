// Package worker runs one goroutine per thread (plus the dedicated
// nemesis thread), each driving a Client or Nemesis through its
// setup/running/teardown lifecycle and reporting completions back to the
// interpreter on a shared channel. Workers never touch the generator
// directly; they only ever see the ops the interpreter hands them.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jepsengo/jepsen/catrate"
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
)

// Client is the contract a test implements for its client threads:
// Open binds to a node, Setup prepares per-client state, Invoke performs
// one operation and returns its completion, Teardown/Close release
// resources. Open/Setup/Teardown/Close may be no-ops for stateless
// clients.
type Client interface {
	Open(node string) (Client, error)
	Setup() error
	Invoke(ctx context.Context, o op.Op) op.Op
	Teardown() error
	Close() error
}

// Nemesis is the fault-injection analogue of Client: it has no node and
// every Invoke must complete as op.Info (the effect of a fault is never
// directly observable as ok/fail from the nemesis's own point of view).
type Nemesis interface {
	Setup() error
	Invoke(ctx context.Context, o op.Op) op.Op
	Teardown() error
}

// Completion is one worker's report back to the interpreter.
type Completion struct {
	Thread sched.Thread
	Op     op.Op
}

// State is a worker's lifecycle stage.
type State int

const (
	StateSetup State = iota
	StateRunning
	StateTeardown
	StateClosed
)

// Worker drives a single Client (or Nemesis, via the nemesisAdapter
// wrapper) through its lifecycle on a dedicated goroutine.
type Worker struct {
	Thread sched.Thread
	Node   string

	open     func(node string) (Client, error)
	client   Client
	inbound  chan message
	complete chan<- Completion
	log      zerolog.Logger

	// retry limits setup retry attempts after an initial failure, so a
	// persistently-down node doesn't busy-loop the worker goroutine.
	retry *catrate.Limiter

	state State
}

type message struct {
	op   op.Op
	exit bool
}

// New builds a Worker for thread th on node, with open constructing (or
// reconstructing) the Client on demand. complete is the shared
// completion channel all workers report to.
func New(th sched.Thread, node string, open func(node string) (Client, error), complete chan<- Completion, log zerolog.Logger) *Worker {
	return &Worker{
		Thread:   th,
		Node:     node,
		open:     open,
		inbound:  make(chan message, 1),
		complete: complete,
		log:      log.With().Int("thread", int(th)).Str("node", node).Logger(),
		retry:    catrate.NewLimiter(map[time.Duration]int{time.Second: 1}),
	}
}

// NewNemesis builds a Worker wrapping a Nemesis, on the dedicated
// nemesis thread. There is no node, and opening always succeeds; if the
// nemesis's Setup fails at Run, later invocations retry it on the same
// paced path client workers use.
func NewNemesis(th sched.Thread, n Nemesis, complete chan<- Completion, log zerolog.Logger) *Worker {
	return &Worker{
		Thread:   th,
		open:     func(string) (Client, error) { return nemesisAdapter{n}, nil },
		inbound:  make(chan message, 1),
		complete: complete,
		log:      log.With().Int("thread", int(th)).Str("role", "nemesis").Logger(),
		retry:    catrate.NewLimiter(map[time.Duration]int{time.Second: 1}),
	}
}

// nemesisAdapter lets a Nemesis satisfy Client, so Worker has exactly
// one lifecycle implementation. Open/Close are no-ops: nemeses have no
// node and nothing Worker.Run needs to release beyond Teardown.
type nemesisAdapter struct{ n Nemesis }

func (a nemesisAdapter) Open(string) (Client, error)             { return a, nil }
func (a nemesisAdapter) Setup() error                             { return a.n.Setup() }
func (a nemesisAdapter) Invoke(ctx context.Context, o op.Op) op.Op { return a.n.Invoke(ctx, o) }
func (a nemesisAdapter) Teardown() error                          { return a.n.Teardown() }
func (a nemesisAdapter) Close() error                             { return nil }

// Invocation queues an op for this worker to run. It never blocks past
// the worker's single-slot inbound buffer: the interpreter dispatches
// one op at a time per thread, by construction (a thread is marked busy
// until its completion arrives).
func (w *Worker) Invocation(o op.Op) {
	w.inbound <- message{op: o}
}

// Exit signals the worker to stop without draining further invocations.
// Safe to call more than once; only the first send is observed if the
// worker has already exited.
func (w *Worker) Exit() {
	select {
	case w.inbound <- message{exit: true}:
	default:
	}
}

// Run drives the worker's lifecycle until Exit is signaled or ctx is
// canceled. It is meant to run on its own goroutine; the interpreter
// does not call any other Worker method concurrently with Run except
// Invocation/Exit.
func (w *Worker) Run(ctx context.Context) {
	w.state = StateSetup
	if err := w.setupWithRetry(); err != nil {
		w.log.Warn().Err(err).Msg("worker setup failed, continuing in degraded mode")
	}

	w.state = StateRunning
	for {
		select {
		case <-ctx.Done():
			w.teardown()
			return
		case msg := <-w.inbound:
			if msg.exit {
				w.teardown()
				return
			}
			w.handle(ctx, msg.op)
		}
	}
}

func (w *Worker) setupWithRetry() error {
	if w.client == nil {
		c, err := w.open(w.Node)
		if err != nil {
			return fmt.Errorf("worker: open: %w", err)
		}
		w.client = c
	}
	if err := w.client.Setup(); err != nil {
		w.client = nil
		return fmt.Errorf("worker: setup: %w", err)
	}
	return nil
}

func (w *Worker) handle(ctx context.Context, invoke op.Op) {
	completed := w.invoke(ctx, invoke)
	w.complete <- Completion{Thread: w.Thread, Op: completed}
}

// invoke runs one op through the client, converting panics into
// synthesized info completions (spec: a worker never lets a client
// exception escape) and retrying setup if the client was never
// successfully opened.
func (w *Worker) invoke(ctx context.Context, invoke op.Op) (result op.Op) {
	if w.client == nil {
		if _, ok := w.retry.Allow(w.Thread); !ok {
			return failNoClient(invoke)
		}
		if err := w.setupWithRetry(); err != nil {
			return failNoClient(invoke)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			result = infoFromPanic(invoke, r)
		}
	}()

	completed := w.client.Invoke(ctx, invoke)
	if !completed.Matches(invoke) || !completed.Type.IsCompletion() {
		return op.Op{
			Type:    op.Info,
			Process: invoke.Process,
			F:       invoke.F,
			Error:   fmt.Sprintf("worker: client returned malformed completion: %+v", completed),
		}
	}
	return completed
}

func failNoClient(invoke op.Op) op.Op {
	return op.Op{Type: op.Fail, Process: invoke.Process, F: invoke.F, Error: "no client available"}
}

func infoFromPanic(invoke op.Op, r any) op.Op {
	return op.Op{Type: op.Info, Process: invoke.Process, F: invoke.F, Error: fmt.Sprintf("%v", r)}
}

func (w *Worker) teardown() {
	w.state = StateTeardown
	if w.client != nil {
		if err := w.client.Teardown(); err != nil {
			w.log.Warn().Err(err).Msg("teardown failed")
		}
		if err := w.client.Close(); err != nil {
			w.log.Warn().Err(err).Msg("close failed")
		}
	}
	w.state = StateClosed
}
