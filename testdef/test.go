// Package testdef holds the test descriptor threaded through the
// generator, worker, interpreter and checker packages.
//
// Jepsen itself calls this value "test"; it is given a proper type here
// since every other component closes over it.
package testdef

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// NameFunc formats a runtime-generated assertion/checker name. It is
// pluggable because some downstream SDKs expect compile-time-constant
// assertion names; callers that care can supply a NameFunc that avoids
// runtime formatting altogether.
type NameFunc func(kind string, n int) string

// DefaultNameFunc is used when Test.NameFunc is nil.
func DefaultNameFunc(kind string, n int) string {
	return kind + "-" + strconv.Itoa(n)
}

// Test describes one run of the orchestration core: its name and run ID,
// how many worker threads to drive, how long to run, and which nodes to
// run against. It does not hold the generator, client or checker graph;
// those are passed to the interp, worker and check packages directly.
type Test struct {
	// Name identifies the test, e.g. for logging and the journal.
	Name string

	// RunID uniquely identifies this run, e.g. for the journal filename
	// and for correlating log lines across a distributed run. Callers
	// that don't care can leave it empty.
	RunID string

	// Concurrency is the number of client worker threads (excludes the
	// dedicated nemesis thread).
	Concurrency int

	// TimeLimit bounds the main phase, if positive. Zero means unbounded
	// (the generator itself must terminate).
	TimeLimit time.Duration

	// Nodes lists the cluster members a Client may be opened against.
	Nodes []string

	// NameFunc formats runtime-generated names; see NameFunc doc.
	NameFunc NameFunc

	// Log is the structured logger threaded through every component.
	Log zerolog.Logger

	// Extra carries arbitrary user state (mirrors spec's "arbitrary
	// extension fields").
	Extra map[string]any
}

// name formats a runtime name using Test.NameFunc, falling back to
// DefaultNameFunc.
func (t *Test) name(kind string, n int) string {
	if t == nil || t.NameFunc == nil {
		return DefaultNameFunc(kind, n)
	}
	return t.NameFunc(kind, n)
}

// AssertionName is the pluggable naming hook used by checkers that mint
// per-invocation assertion identifiers (e.g. set_full element checks).
func (t *Test) AssertionName(kind string, n int) string {
	return t.name(kind, n)
}

// Logger returns the test's logger, defaulting to a disabled logger if
// the Test is nil or its Log is the zero value.
func (t *Test) Logger() zerolog.Logger {
	if t == nil {
		return zerolog.Nop()
	}
	return t.Log
}
