// Package check implements Checkers: functions that consume a finished
// History and report validity, plus the combinators that compose them.
package check

import (
	"fmt"
	"sync"

	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/testdef"
)

// Valid is a tri-state validity verdict: Invalid beats Unknown beats
// Valid when combining results, per spec §4.6.
type Valid int

const (
	ValidTrue Valid = iota
	ValidUnknown
	ValidFalse
)

// String implements fmt.Stringer.
func (v Valid) String() string {
	switch v {
	case ValidTrue:
		return "true"
	case ValidFalse:
		return "false"
	default:
		return "unknown"
	}
}

// worse reports whether v is a stronger failure signal than other
// (false > unknown > true).
func (v Valid) worse(other Valid) bool { return v > other }

// Result is a Checker's report. Valid is the tri-state verdict; Extra
// carries checker-specific diagnostics (counts, offending elements,
// latency quantiles, etc).
type Result struct {
	Valid Valid
	Extra map[string]any
}

// String renders a short human-readable summary.
func (r Result) String() string {
	return fmt.Sprintf("{valid? %s, %v}", r.Valid, r.Extra)
}

// Options carries checker-specific tuning knobs, keyed by convention
// (each checker documents the keys it reads).
type Options map[string]any

func (o Options) bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func (o Options) int(key string, def int) int {
	if v, ok := o[key]; ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return def
}

// Checker consumes a finished history and returns a Result.
type Checker interface {
	Check(t *testdef.Test, history []op.Op, opts Options) Result
}

// Func adapts a plain function to Checker.
type Func func(t *testdef.Test, history []op.Op, opts Options) Result

func (f Func) Check(t *testdef.Test, history []op.Op, opts Options) Result {
	return f(t, history, opts)
}

// Noop always reports valid, ignoring the history.
var Noop Checker = Func(func(*testdef.Test, []op.Op, Options) Result {
	return Result{Valid: ValidTrue}
})

// UnbridledOptimism is an alias of Noop under the spec's name.
var UnbridledOptimism = Noop

// Compose runs every named checker over the same history, in parallel,
// and combines their verdicts: the composite is valid only if every
// sub-checker is; any false anywhere makes the composite false, else
// any unknown makes it unknown. Compose starts one goroutine per
// checker; a checker wrapped in ConcurrencyLimit bounds how many of its
// own Check calls run at once.
func Compose(checkers map[string]Checker) Checker {
	return Func(func(t *testdef.Test, history []op.Op, opts Options) Result {
		type named struct {
			name string
			r    Result
		}
		results := make(chan named, len(checkers))

		var wg sync.WaitGroup
		for name, c := range checkers {
			name, c := name, c
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- named{name: name, r: c.Check(t, history, opts)}
			}()
		}
		wg.Wait()
		close(results)

		out := make(map[string]any, len(checkers))
		worst := ValidTrue
		for n := range results {
			out[n.name] = n.r
			if n.r.Valid.worse(worst) {
				worst = n.r.Valid
			}
		}
		return Result{Valid: worst, Extra: out}
	})
}
