package gen

import (
	"errors"
	"fmt"

	"github.com/jepsengo/jepsen/sched"
)

// ErrInvalidOp is the sentinel wrapped by every GeneratorError that has
// no Cause, which includes every contract violation Validate detects.
var ErrInvalidOp = errors.New("gen: invalid op")

// GeneratorError reports a generator that emitted an op violating the
// contract Validate enforces, together with enough state to diagnose it
// without rerunning the test.
type GeneratorError struct {
	Reason string
	Ctx    *sched.Context
	Cause  error
}

func (e *GeneratorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gen: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("gen: %s", e.Reason)
}

func (e *GeneratorError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrInvalidOp
}
