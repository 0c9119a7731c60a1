package fifo

import "sync/atomic"

// Phase is the shared atomic flag the FIFO watcher, the driven
// interpreter, and the generator wrapper all observe: it flips exactly
// once, from Main to Final, when a "check" filename is seen.
type Phase int32

const (
	PhaseMain Phase = iota
	PhaseFinal
)

// PhaseFlag is an atomic Phase.
type PhaseFlag struct {
	v atomic.Int32
}

// Load returns the current phase.
func (f *PhaseFlag) Load() Phase { return Phase(f.v.Load()) }

// FlipToFinal transitions Main -> Final exactly once; subsequent calls
// are no-ops. Returns true iff this call performed the transition.
func (f *PhaseFlag) FlipToFinal() bool {
	return f.v.CompareAndSwap(int32(PhaseMain), int32(PhaseFinal))
}
