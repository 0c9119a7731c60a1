package gen

import (
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// Validate wraps g so that every op it emits is checked against the
// contract the interpreter assumes: type is one a generator may
// legitimately emit (invoke, info, sleep, log -- a generator never
// fabricates a completion other than info), an invoke names its process
// and that process's thread is currently free, and Time never precedes
// the context it was computed against. A violation is reported as a
// *GeneratorError from the next Op call rather than corrupting the
// history silently.
func Validate(g Generator) Generator {
	return &validateGen{sub: g}
}

type validateGen struct {
	sub Generator
	err error
}

func (v *validateGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	if v.err != nil {
		panic(v.err)
	}

	outcome, o, next := recoverOp(t, ctx, v.sub)
	if outcome != Ready {
		return outcome, o, &validateGen{sub: next}
	}

	if err := checkOp(ctx, o); err != nil {
		return Ready, o, &validateGen{sub: next, err: err}
	}

	return Ready, o, &validateGen{sub: next}
}

func checkOp(ctx *sched.Context, o op.Op) error {
	switch o.Type {
	case op.Invoke:
		if o.F == "" {
			return &GeneratorError{Reason: "invoke op has empty F", Ctx: ctx}
		}
		if !ctx.ProcessFree(o.Process) {
			return &GeneratorError{Reason: "invoke op assigned to a busy or unknown process", Ctx: ctx}
		}
	case op.Info, op.Sleep, op.Log:
		// legitimate for a generator to emit directly
	case op.OK, op.Fail:
		return &GeneratorError{Reason: "generator emitted a completion type only workers may produce", Ctx: ctx}
	}
	if o.Time < ctx.Time() {
		return &GeneratorError{Reason: "op Time precedes context Time", Ctx: ctx}
	}
	return nil
}

func (v *validateGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	return &validateGen{sub: v.sub.Update(t, ctx, ev), err: v.err}
}

// recoverOp calls g.Op, converting any panic into a (PendingOutcome,
// Generator) pair whose next Op call panics with a *GeneratorError
// wrapping the original panic (when it was an error) --
// this way a single bad Op call doesn't wedge the interpreter's poll
// loop, but the failure is still surfaced rather than silently
// swallowed. FriendlyExceptions below is the public wrapper for this
// behavior; Validate uses it internally so a panicking sub-generator is
// reported the same way as a contract violation.
func recoverOp(t *testdef.Test, ctx *sched.Context, g Generator) (outcome Outcome, o op.Op, next Generator) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = &GeneratorError{Reason: "generator panicked", Ctx: ctx}
			} else {
				err = &GeneratorError{Reason: "generator panicked", Ctx: ctx, Cause: err}
			}
			outcome, o, next = PendingOutcome, op.Op{}, &panickedGen{err: err}
		}
	}()
	return g.Op(t, ctx)
}

type panickedGen struct{ err error }

func (p *panickedGen) Op(*testdef.Test, *sched.Context) (Outcome, op.Op, Generator) {
	panic(p.err)
}

func (p *panickedGen) Update(*testdef.Test, *sched.Context, Event) Generator { return p }

// FriendlyExceptions wraps g so that a panic raised while computing an
// op is converted into a *GeneratorError carrying the context at the
// time of the panic; the failing call itself reports PendingOutcome.
// The error is re-raised (as a panic) on the next Op call, so callers
// running under their own recover can catch it exactly once per
// occurrence; a caller without a recover still panics.
func FriendlyExceptions(g Generator) Generator {
	return &friendlyGen{sub: g}
}

type friendlyGen struct{ sub Generator }

func (f *friendlyGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	outcome, o, next := recoverOp(t, ctx, f.sub)
	return outcome, o, &friendlyGen{sub: next}
}

func (f *friendlyGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	return &friendlyGen{sub: f.sub.Update(t, ctx, ev)}
}
