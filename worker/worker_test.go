package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
)

type fakeClient struct {
	openErr  error
	setupErr error
	invoke   func(op.Op) op.Op
	closed   bool
}

func (f *fakeClient) Open(string) (Client, error) { return f, f.openErr }
func (f *fakeClient) Setup() error                { return f.setupErr }
func (f *fakeClient) Invoke(ctx context.Context, o op.Op) op.Op {
	if f.invoke != nil {
		return f.invoke(o)
	}
	return op.Op{Type: op.OK, Process: o.Process, F: o.F}
}
func (f *fakeClient) Teardown() error { return nil }
func (f *fakeClient) Close() error    { f.closed = true; return nil }

func TestWorkerHappyPath(t *testing.T) {
	complete := make(chan Completion, 1)
	fc := &fakeClient{}
	w := New(sched.Thread(0), "n1", fc.Open, complete, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()

	w.Invocation(op.Op{Type: op.Invoke, Process: 0, F: "read"})

	select {
	case c := <-complete:
		assert.Equal(t, op.OK, c.Op.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for completion")
	}

	cancel()
	<-done
	assert.True(t, fc.closed)
}

func TestWorkerSynthesizesInfoOnPanic(t *testing.T) {
	complete := make(chan Completion, 1)
	fc := &fakeClient{invoke: func(op.Op) op.Op { panic("client exploded") }}
	w := New(sched.Thread(0), "n1", fc.Open, complete, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Invocation(op.Op{Type: op.Invoke, Process: 0, F: "write"})

	c := <-complete
	require.Equal(t, op.Info, c.Op.Type)
	assert.Contains(t, c.Op.Error, "client exploded")
}

func TestWorkerFailsWithoutClientWhenSetupErrors(t *testing.T) {
	complete := make(chan Completion, 1)
	fc := &fakeClient{setupErr: errors.New("down")}
	w := New(sched.Thread(0), "n1", fc.Open, complete, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Invocation(op.Op{Type: op.Invoke, Process: 0, F: "read"})
	c := <-complete
	assert.Equal(t, op.Fail, c.Op.Type)
	assert.Contains(t, c.Op.Error, "no client")
}

// TestWorkerPacesSetupRetriesAfterPersistentOpenFailure exercises the
// catrate-backed retry pacing through the worker domain directly,
// rather than re-testing catrate's own limiter in isolation: a node
// that never opens successfully should only be retried at the rate the
// Limiter allows, not once per invocation.
func TestWorkerPacesSetupRetriesAfterPersistentOpenFailure(t *testing.T) {
	complete := make(chan Completion, 2)
	opens := 0
	fc := &fakeClient{setupErr: errors.New("down")}
	open := func(node string) (Client, error) {
		opens++
		return fc, fc.openErr
	}
	w := New(sched.Thread(0), "n1", open, complete, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Invocation(op.Op{Type: op.Invoke, Process: 0, F: "read"})
	c1 := <-complete
	require.Equal(t, op.Fail, c1.Op.Type)

	w.Invocation(op.Op{Type: op.Invoke, Process: 0, F: "read"})
	c2 := <-complete
	require.Equal(t, op.Fail, c2.Op.Type)

	// Run's own initial setup attempt plus exactly one more from the
	// first invoke's retry; the second invoke's retry is paced away by
	// the Limiter since it falls inside the same one-second window.
	assert.Equal(t, 2, opens)
}

func TestWorkerMalformedCompletionBecomesInfo(t *testing.T) {
	complete := make(chan Completion, 1)
	fc := &fakeClient{invoke: func(o op.Op) op.Op {
		return op.Op{Type: op.OK, Process: o.Process, F: "different-f"}
	}}
	w := New(sched.Thread(0), "n1", fc.Open, complete, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Invocation(op.Op{Type: op.Invoke, Process: 0, F: "read"})
	c := <-complete
	assert.Equal(t, op.Info, c.Op.Type)
}
