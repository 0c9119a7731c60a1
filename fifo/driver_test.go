package fifo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jepsengo/jepsen/check"
)

func TestDriverAnswersOpAndCheckFiles(t *testing.T) {
	dir := t.TempDir()
	pre := filepath.Join(dir, "stale")
	require.NoError(t, os.WriteFile(pre, []byte("x"), 0o644))

	d, err := New(dir, func(ctx context.Context) (string, error) {
		return "[0 :ok 0 read 1]", nil
	}, func(ctx context.Context) (check.Result, error) {
		return check.Result{Valid: check.ValidTrue}, nil
	}, zerolog.Nop())
	require.NoError(t, err)

	_, statErr := os.Stat(pre)
	require.True(t, os.IsNotExist(statErr), "New must empty a pre-existing directory")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	opPath := filepath.Join(dir, "op-0")
	require.NoError(t, os.WriteFile(opPath, nil, 0o644))

	require.Eventually(t, func() bool {
		b, err := os.ReadFile(opPath)
		return err == nil && len(b) > 0
	}, 2*time.Second, 10*time.Millisecond)

	checkPath := filepath.Join(dir, "check")
	require.NoError(t, os.WriteFile(checkPath, nil, 0o644))

	require.Eventually(t, func() bool {
		b, err := os.ReadFile(checkPath)
		return err == nil && string(b) == "checked"
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, PhaseFinal, d.Phase.Load())
}
