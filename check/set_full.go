package check

import (
	"sort"
	"time"

	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/testdef"
)

type elementClass string

const (
	classStable    elementClass = "stable"
	classLost      elementClass = "lost"
	classNeverRead elementClass = "never_read"
)

type elementTimeline struct {
	addedAt     time.Duration
	acknowledge bool
	lastPresent *time.Duration
	lastAbsent  *time.Duration
}

// SetFull is a richer variant of Set: rather than a single final read,
// it consumes every F("read"Key) along the way and classifies each
// acknowledged element by the reads taken after its add acknowledged:
// stable if the latest read that missed it (if any) came before the
// latest read that saw it, lost if it was seen in some read but missed
// by a read after the latest one that saw it, and never_read if no read
// ever saw it. With
// opts["linearizable?"] true, any element seen in some read and missed
// by some read after its add acknowledged invalidates the whole history
// (a stale read).
func SetFull(addF, readF string) Checker {
	if addF == "" {
		addF = "add"
	}
	if readF == "" {
		readF = "read"
	}

	return Func(func(t *testdef.Test, history []op.Op, opts Options) Result {
		timelines := map[string]*elementTimeline{}
		order := []string{}

		ensure := func(k string) *elementTimeline {
			tl, ok := timelines[k]
			if !ok {
				tl = &elementTimeline{}
				timelines[k] = tl
				order = append(order, k)
			}
			return tl
		}

		var latencies []time.Duration
		invokeAt := map[int64]time.Duration{}

		for _, o := range history {
			if o.Type == op.Invoke && o.F == addF {
				invokeAt[int64(o.Process)] = o.Time
				continue
			}
			if o.Type == op.OK && o.F == addF {
				k := key(o.Value)
				tl := ensure(k)
				tl.acknowledge = true
				tl.addedAt = o.Time
				if at, ok := invokeAt[int64(o.Process)]; ok {
					latencies = append(latencies, o.Time-at)
				}
				continue
			}
			if o.Type == op.OK && o.F == readF {
				present := map[string]bool{}
				if vs, ok := o.Value.([]any); ok {
					for _, v := range vs {
						present[key(v)] = true
					}
				}
				for k, tl := range timelines {
					tm := o.Time
					if present[k] {
						tl.lastPresent = &tm
					} else {
						tl.lastAbsent = &tm
					}
				}
			}
		}

		stale := false
		classes := map[string]elementClass{}
		var lost, neverRead []string
		assertionNames := map[string]string{}
		linearizable := opts.bool("linearizable?", false)

		for n, k := range order {
			tl := timelines[k]
			// Every element gets a stable, runtime-minted assertion name
			// (t.AssertionName), so a failure report can cite
			// "set-full-element-N" instead of the raw key.
			assertionNames[k] = t.AssertionName("set-full-element", n)
			if !tl.acknowledge {
				continue
			}
			switch {
			case tl.lastPresent == nil:
				classes[k] = classNeverRead
				neverRead = append(neverRead, k)
			case tl.lastAbsent != nil && *tl.lastAbsent > *tl.lastPresent:
				classes[k] = classLost
				lost = append(lost, k)
			default:
				classes[k] = classStable
			}
			if linearizable && tl.lastAbsent != nil && tl.addedAt < *tl.lastAbsent && tl.lastPresent != nil {
				stale = true
			}
		}

		lostAssertions := make([]string, len(lost))
		for i, k := range lost {
			lostAssertions[i] = assertionNames[k]
		}

		valid := ValidTrue
		if len(lost) > 0 || stale {
			valid = ValidFalse
		} else if len(neverRead) > 0 {
			valid = ValidUnknown
		}

		return Result{
			Valid: valid,
			Extra: map[string]any{
				"lost":              lost,
				"lost-assertions":   lostAssertions,
				"never-read":        neverRead,
				"stale":             stale,
				"latency-quantiles": quantiles(latencies, []float64{0.5, 0.9, 0.99}),
			},
		}
	})
}

func quantiles(durs []time.Duration, qs []float64) map[string]time.Duration {
	if len(durs) == 0 {
		return nil
	}
	sorted := make([]time.Duration, len(durs))
	copy(sorted, durs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := make(map[string]time.Duration, len(qs))
	for _, q := range qs {
		idx := int(q * float64(len(sorted)-1))
		out[quantileLabel(q)] = sorted[idx]
	}
	return out
}

func quantileLabel(q float64) string {
	switch q {
	case 0.5:
		return "p50"
	case 0.9:
		return "p90"
	case 0.99:
		return "p99"
	default:
		return "p"
	}
}
