package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/testdef"
)

// S1 -- Set, simple lost.
func TestScenarioS1SetSimpleLost(t *testing.T) {
	history := []op.Op{
		{Type: op.Invoke, Process: 0, F: "add", Value: 1},
		{Type: op.OK, Process: 0, F: "add", Value: 1},
		{Type: op.Invoke, Process: 0, F: "add", Value: 2},
		{Type: op.OK, Process: 0, F: "add", Value: 2},
		{Type: op.Invoke, Process: 1, F: "read"},
		{Type: op.OK, Process: 1, F: "read", Value: []any{1}},
	}
	r := Set("add", "read").Check(&testdef.Test{}, history, nil)
	require.Equal(t, ValidFalse, r.Valid)
	assert.ElementsMatch(t, []any{2}, r.Extra["lost"])
	assert.Empty(t, r.Extra["unexpected"])
}

// S2 -- Counter bounds: a read of 1 is out of range for an add of 3 that
// committed ok, since the lower bound (committed) and upper bound
// (committed, no indeterminate adds) are both 3.
func TestScenarioS2CounterBounds(t *testing.T) {
	history := []op.Op{
		{Type: op.Invoke, Process: 0, F: "add", Value: 3},
		{Type: op.OK, Process: 0, F: "add", Value: 3},
		{Type: op.Invoke, Process: 0, F: "read"},
		{Type: op.OK, Process: 0, F: "read", Value: 1},
	}
	r := Counter("add", "read").Check(&testdef.Test{}, history, nil)
	require.Equal(t, ValidFalse, r.Valid)
	assert.Equal(t, []int{1}, r.Extra["out-of-range"])
}

// S3 -- Unique IDs duplicated.
func TestScenarioS3UniqueIDsDuplicated(t *testing.T) {
	history := []op.Op{
		{Type: op.Invoke, Process: 0, F: "gen"},
		{Type: op.OK, Process: 0, F: "gen", Value: 1},
		{Type: op.Invoke, Process: 0, F: "gen"},
		{Type: op.OK, Process: 0, F: "gen", Value: 1},
	}
	r := UniqueIDs("gen").Check(&testdef.Test{}, history, nil)
	require.Equal(t, ValidFalse, r.Valid)
	assert.Equal(t, 1, r.Extra["duplicate-count"])
}

// S4 -- Total queue: enqueues of {a,b,c} all ok, dequeues of {a,b} ok,
// and a final successful dequeue of c. No loss, no unexpected values.
func TestScenarioS4TotalQueueAllAccountedFor(t *testing.T) {
	history := []op.Op{
		{Type: op.Invoke, Process: 0, F: "enqueue", Value: "a"},
		{Type: op.OK, Process: 0, F: "enqueue", Value: "a"},
		{Type: op.Invoke, Process: 0, F: "enqueue", Value: "b"},
		{Type: op.OK, Process: 0, F: "enqueue", Value: "b"},
		{Type: op.Invoke, Process: 0, F: "enqueue", Value: "c"},
		{Type: op.OK, Process: 0, F: "enqueue", Value: "c"},
		{Type: op.Invoke, Process: 1, F: "dequeue"},
		{Type: op.OK, Process: 1, F: "dequeue", Value: "a"},
		{Type: op.Invoke, Process: 1, F: "dequeue"},
		{Type: op.OK, Process: 1, F: "dequeue", Value: "b"},
		{Type: op.Invoke, Process: 1, F: "dequeue"},
		{Type: op.OK, Process: 1, F: "dequeue", Value: "c"},
	}
	r := TotalQueue("enqueue", "dequeue").Check(&testdef.Test{}, history, nil)
	require.Equal(t, ValidTrue, r.Valid)
	assert.Empty(t, r.Extra["lost"])
	assert.Empty(t, r.Extra["unexpected"])
}
