package op

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHistoryAppendAssignsDenseIndices(t *testing.T) {
	h := NewHistory()
	for i := 0; i < 5; i++ {
		o := h.Append(Op{Type: Invoke, Process: Process(i)})
		require.Equal(t, int64(i), o.Index)
	}
	require.Equal(t, 5, h.Len())
}

func TestCheckInvariantsHappyPath(t *testing.T) {
	ops := []Op{
		{Index: 0, Time: 0, Type: Invoke, Process: 0, F: "add", Value: 1},
		{Index: 1, Time: time.Millisecond, Type: OK, Process: 0, F: "add", Value: 1},
		{Index: 2, Time: 2 * time.Millisecond, Type: Invoke, Process: 0, F: "add", Value: 2},
		{Index: 3, Time: 3 * time.Millisecond, Type: OK, Process: 0, F: "add", Value: 2},
	}
	require.NoError(t, CheckInvariants(ops))
}

func TestCheckInvariantsCatchesDuplicateInvoke(t *testing.T) {
	ops := []Op{
		{Index: 0, Type: Invoke, Process: 0, F: "add"},
		{Index: 1, Type: Invoke, Process: 0, F: "add"},
	}
	require.Error(t, CheckInvariants(ops))
}

func TestCheckInvariantsProcessRetirement(t *testing.T) {
	ops := []Op{
		{Index: 0, Type: Invoke, Process: 0, F: "write"},
		{Index: 1, Type: Info, Process: 0, F: "write", Error: "indeterminate: timeout"},
		{Index: 2, Type: Invoke, Process: 0, F: "read"}, // process 0 is retired
	}
	require.Error(t, CheckInvariants(ops))
}

func TestCheckInvariantsIndexDensity(t *testing.T) {
	ops := []Op{
		{Index: 0, Type: Invoke, Process: 0, F: "add"},
		{Index: 2, Type: OK, Process: 0, F: "add"},
	}
	require.Error(t, CheckInvariants(ops))
}

func TestWriterJournalsOneLinePerOp(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(Op{Index: 0, Type: Invoke, Process: 1, F: "read"}))
	require.NoError(t, w.Write(Op{Index: 1, Type: OK, Process: 1, F: "read", Value: 42}))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[1], `"Value":42`)
}
