package check

import (
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/testdef"
)

// Counter checks a monotone add/read counter: for every completed read,
// there must exist an interval [lower, upper] of attempted/committed
// adds such that lower <= read <= upper. lower is the sum of every add
// known to have committed (ok); upper additionally includes every add
// whose outcome is indeterminate (info), since it might still have
// taken effect. AddF/ReadF default to "add"/"read"; add Values and read
// Values must be int. Decrements are not supported: a negative add is
// summed into both bounds like any other, so the bounds are only
// meaningful for a counter that never decreases.
func Counter(addF, readF string) Checker {
	if addF == "" {
		addF = "add"
	}
	if readF == "" {
		readF = "read"
	}

	return Func(func(t *testdef.Test, history []op.Op, opts Options) Result {
		committed := 0
		pending := 0
		var reads []int
		var outOfRange []int

		for _, o := range history {
			switch {
			case o.Type == op.OK && o.F == addF:
				if n, ok := asInt(o.Value); ok {
					committed += n
					pending += n
				}
			case o.Type == op.Info && o.F == addF:
				if n, ok := asInt(o.Value); ok {
					pending += n
				}
			case o.Type == op.OK && o.F == readF:
				if n, ok := asInt(o.Value); ok {
					reads = append(reads, n)
					lower, upper := committed, pending
					if upper < lower {
						upper = lower
					}
					if n < lower || n > upper {
						outOfRange = append(outOfRange, n)
					}
				}
			}
		}

		valid := ValidTrue
		if len(outOfRange) > 0 {
			valid = ValidFalse
		} else if len(reads) == 0 {
			valid = ValidUnknown
		}

		return Result{
			Valid: valid,
			Extra: map[string]any{
				"read-count": len(reads), "reads": reads, "out-of-range": outOfRange,
				"lower-bound": committed, "upper-bound": pending,
			},
		}
	})
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
