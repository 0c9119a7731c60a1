package interp_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jepsengo/jepsen/gen"
	"github.com/jepsengo/jepsen/interp"
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/testdef"
	"github.com/jepsengo/jepsen/worker"
)

type echoClient struct{}

func (echoClient) Open(string) (worker.Client, error) { return echoClient{}, nil }
func (echoClient) Setup() error                       { return nil }
func (echoClient) Invoke(ctx context.Context, o op.Op) op.Op {
	return op.Op{Type: op.OK, Process: o.Process, F: o.F, Value: o.Value}
}
func (echoClient) Teardown() error { return nil }
func (echoClient) Close() error    { return nil }

type noopNemesis struct{}

func (noopNemesis) Setup() error { return nil }
func (noopNemesis) Invoke(ctx context.Context, o op.Op) op.Op {
	return op.Op{Type: op.Info, Process: o.Process, F: o.F}
}
func (noopNemesis) Teardown() error { return nil }

func TestInterpreterRunsSequenceToExhaustion(t *testing.T) {
	test := &testdef.Test{Name: "echo", Concurrency: 1, Log: zerolog.Nop()}

	g := gen.Clients(gen.Sequence(
		gen.Literal(op.Op{Type: op.Invoke, Process: 0, F: "read", Value: 1}),
		gen.Literal(op.Op{Type: op.Invoke, Process: 0, F: "read", Value: 2}),
	))

	pool := worker.NewPool(1, nil, func(node string) (worker.Client, error) {
		return echoClient{}, nil
	}, noopNemesis{}, zerolog.Nop())

	ip := interp.New(test, g, pool.Workers, pool.Completion)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	history, err := ip.Run(ctx)
	require.NoError(t, err)

	ops := history.Ops()
	var oks int
	for _, o := range ops {
		if o.Type == op.OK && o.F == "read" {
			oks++
		}
	}
	assert.Equal(t, 2, oks)
}
