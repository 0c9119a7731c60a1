package check

import (
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/testdef"
)

// TotalQueue checks a FIFO/queue workload by multiset comparison of
// completed enqueues against completed dequeues (no ordering is
// assumed -- this is "total" in the sense of treating the queue as a
// multiset, not verifying FIFO order). EnqueueF/DequeueF default to
// "enqueue"/"dequeue".
func TotalQueue(enqueueF, dequeueF string) Checker {
	if enqueueF == "" {
		enqueueF = "enqueue"
	}
	if dequeueF == "" {
		dequeueF = "dequeue"
	}

	return Func(func(t *testdef.Test, history []op.Op, opts Options) Result {
		enqueued := map[string]int{}
		dequeued := map[string]int{}
		indeterminateEnq := map[string]any{}

		for _, o := range history {
			switch {
			case o.Type == op.OK && o.F == enqueueF:
				enqueued[key(o.Value)]++
			case o.Type == op.Info && o.F == enqueueF:
				indeterminateEnq[key(o.Value)] = o.Value
			case o.Type == op.OK && o.F == dequeueF:
				dequeued[key(o.Value)]++
			}
		}

		var lost, duplicated, recovered, unexpected []any
		seenValue := map[string]any{}
		for _, o := range history {
			if o.Value != nil {
				seenValue[key(o.Value)] = o.Value
			}
		}

		for k := range enqueued {
			if enqueued[k] > dequeued[k] {
				for i := 0; i < enqueued[k]-dequeued[k]; i++ {
					lost = append(lost, seenValue[k])
				}
			}
		}
		for k := range dequeued {
			switch {
			case dequeued[k] > enqueued[k] && indeterminateEnq[k] != nil:
				recovered = append(recovered, seenValue[k])
			case dequeued[k] > enqueued[k]:
				unexpected = append(unexpected, seenValue[k])
			}
			if dequeued[k] > 1 && enqueued[k] == 1 {
				duplicated = append(duplicated, seenValue[k])
			}
		}

		valid := ValidTrue
		if len(lost) > 0 || len(unexpected) > 0 || len(duplicated) > 0 {
			valid = ValidFalse
		}

		return Result{
			Valid: valid,
			Extra: map[string]any{
				"lost": lost, "duplicated": duplicated, "recovered": recovered, "unexpected": unexpected,
			},
		}
	})
}
