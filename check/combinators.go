package check

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/testdef"
)

// CheckSafe wraps c so a panic while checking is reported as
// {Valid: ValidUnknown, Extra: {"error": ...}} instead of crashing the
// caller. Every built-in checker is expected to run under this wrapper
// in a real test suite, per spec §4.6 ("all checkers must be safe to
// call").
func CheckSafe(c Checker) Checker {
	return Func(func(t *testdef.Test, history []op.Op, opts Options) (result Result) {
		defer func() {
			if r := recover(); r != nil {
				result = Result{Valid: ValidUnknown, Extra: map[string]any{"error": fmt.Sprintf("%v", r)}}
			}
		}()
		return c.Check(t, history, opts)
	})
}

// ConcurrencyLimit bounds how many Check calls of c run at once: every
// call of the returned Checker shares one fair-FIFO semaphore of size n
// (golang.org/x/sync/semaphore acquires in submission order, so no call
// starves behind a slow one).
func ConcurrencyLimit(n int, c Checker) Checker {
	sem := semaphore.NewWeighted(int64(n))
	return Func(func(t *testdef.Test, history []op.Op, opts Options) Result {
		ctx := context.Background()
		if err := sem.Acquire(ctx, 1); err != nil {
			return Result{Valid: ValidUnknown, Extra: map[string]any{"error": err.Error()}}
		}
		defer sem.Release(1)
		return c.Check(t, history, opts)
	})
}
