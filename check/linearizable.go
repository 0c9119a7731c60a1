package check

import (
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/testdef"
)

// Analysis is the abstract linearizability-checking kernel Linearizable
// delegates to (e.g. a Wing & Gong-style analyzer). It is supplied by
// the caller rather than implemented here: building a linearizability
// checker is its own project, out of scope for the orchestration core.
type Analysis func(t *testdef.Test, history []op.Op, opts Options) AnalysisResult

// AnalysisResult is what an Analysis reports.
type AnalysisResult struct {
	Valid      bool
	Configs    []any
	FinalPaths []any
}

// Linearizable adapts an external Analysis kernel to the Checker
// interface.
func Linearizable(analyze Analysis) Checker {
	return Func(func(t *testdef.Test, history []op.Op, opts Options) Result {
		r := analyze(t, history, opts)
		v := ValidFalse
		if r.Valid {
			v = ValidTrue
		}
		return Result{Valid: v, Extra: map[string]any{"configs": r.Configs, "final-paths": r.FinalPaths}}
	})
}
