package check

import (
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/testdef"
)

// perF tracks ok/fail/info counts for one operation family.
type perF struct {
	OK, Fail, Info int
}

// Stats counts completions by type, overall and per F, reporting
// unknown if any family never recorded a successful op.
var Stats Checker = Func(func(t *testdef.Test, history []op.Op, opts Options) Result {
	byF := make(map[string]*perF)
	var ok, fail, info int

	for _, o := range history {
		if !o.Type.IsCompletion() {
			continue
		}
		p, exists := byF[o.F]
		if !exists {
			p = &perF{}
			byF[o.F] = p
		}
		switch o.Type {
		case op.OK:
			p.OK++
			ok++
		case op.Fail:
			p.Fail++
			fail++
		case op.Info:
			p.Info++
			info++
		}
	}

	valid := ValidTrue
	byFOut := make(map[string]any, len(byF))
	for f, p := range byF {
		byFOut[f] = *p
		if p.OK == 0 {
			valid = ValidUnknown
		}
	}

	return Result{
		Valid: valid,
		Extra: map[string]any{
			"count":    len(history),
			"ok-count": ok, "fail-count": fail, "info-count": info,
			"by-f": byFOut,
		},
	}
})
