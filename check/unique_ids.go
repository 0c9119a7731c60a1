package check

import (
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/testdef"
)

// UniqueIDs checks that every successful F(genF) returns a distinct
// value; genF defaults to "generate".
func UniqueIDs(genF string) Checker {
	if genF == "" {
		genF = "generate"
	}
	return Func(func(t *testdef.Test, history []op.Op, opts Options) Result {
		seen := map[string]int{}
		var duplicate []any
		count := 0
		for _, o := range history {
			if o.Type != op.OK || o.F != genF {
				continue
			}
			count++
			k := key(o.Value)
			seen[k]++
			if seen[k] == 2 {
				duplicate = append(duplicate, o.Value)
			}
		}

		valid := ValidTrue
		if len(duplicate) > 0 {
			valid = ValidFalse
		}

		return Result{
			Valid: valid,
			Extra: map[string]any{"count": count, "duplicate-count": len(duplicate), "duplicates": duplicate},
		}
	})
}
