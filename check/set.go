package check

import (
	"fmt"

	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/testdef"
)

// Set checks a set-add/set-read workload: clients invoke F("add"Key)
// with an element value, and a single final F("read"Key) returns the
// set of elements the server believes it holds. AddF/ReadF let callers
// name their own F symbols; they default to "add"/"read".
func Set(addF, readF string) Checker {
	if addF == "" {
		addF = "add"
	}
	if readF == "" {
		readF = "read"
	}

	return Func(func(t *testdef.Test, history []op.Op, opts Options) Result {
		attempted := map[string]any{}
		acknowledged := map[string]any{}
		indeterminate := map[string]any{}

		var finalRead []any
		haveRead := false

		for _, o := range history {
			switch {
			case o.Type == op.Invoke && o.F == addF:
				attempted[key(o.Value)] = o.Value
			case o.Type == op.OK && o.F == addF:
				acknowledged[key(o.Value)] = o.Value
			case o.Type == op.Info && o.F == addF:
				indeterminate[key(o.Value)] = o.Value
			case o.Type == op.OK && o.F == readF:
				if vs, ok := o.Value.([]any); ok {
					finalRead = vs
					haveRead = true
				}
			}
		}

		readSet := map[string]any{}
		for _, v := range finalRead {
			readSet[key(v)] = v
		}

		var lost, recovered, unexpected []any
		for k, v := range acknowledged {
			if _, present := readSet[k]; !present {
				lost = append(lost, v)
			}
		}
		for k, v := range indeterminate {
			if _, present := readSet[k]; present {
				recovered = append(recovered, v)
			}
		}
		for k, v := range readSet {
			if _, wasAttempted := attempted[k]; !wasAttempted {
				unexpected = append(unexpected, v)
			}
		}

		valid := ValidTrue
		if !haveRead {
			valid = ValidUnknown
		}
		if len(lost) > 0 || len(unexpected) > 0 {
			valid = ValidFalse
		}

		return Result{
			Valid: valid,
			Extra: map[string]any{
				"attempt-count":      len(attempted),
				"acknowledged-count": len(acknowledged),
				"ok-count":           len(readSet),
				"lost-count":         len(lost),
				"recovered-count":    len(recovered),
				"unexpected-count":   len(unexpected),
				"lost":               lost,
				"unexpected":         unexpected,
			},
		}
	})
}

func key(v any) string { return fmt.Sprintf("%#v", v) }
