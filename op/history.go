package op

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// History is the append-only, totally-ordered sequence of Ops produced by
// one run. It is owned exclusively by the interpreter during the run;
// after the run it is handed to checkers by reference, read-only.
type History struct {
	mu   sync.RWMutex
	ops  []Op
	next int64
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{}
}

// Append assigns the next dense index to op and appends it. Only the
// interpreter (single writer) may call this.
func (h *History) Append(o Op) Op {
	h.mu.Lock()
	defer h.mu.Unlock()
	o.Index = h.next
	h.next++
	h.ops = append(h.ops, o)
	return o
}

// Len returns the number of ops recorded so far.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.ops)
}

// Ops returns a snapshot slice of the recorded ops. Safe to call
// concurrently with Append (e.g. while the interpreter is still running,
// for diagnostics), though checkers should only be run after the
// interpreter has finished.
func (h *History) Ops() []Op {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Op, len(h.ops))
	copy(out, h.ops)
	return out
}

// InvariantError describes a violation of one of the History invariants
// enumerated in spec §8.
type InvariantError struct {
	Rule string
	Op   Op
	Msg  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("history: invariant %s violated at %s: %s", e.Rule, e.Op, e.Msg)
}

// CheckInvariants validates the universal properties from spec §8:
// dense monotone indices, invoke/complete pairing, process retirement on
// info, and monotone time/index within a process.
func CheckInvariants(ops []Op) error {
	for i, o := range ops {
		if int64(i) != o.Index {
			return &InvariantError{Rule: "index-density", Op: o, Msg: fmt.Sprintf("expected index %d", i)}
		}
	}

	type pending struct {
		inv Op
		idx int
	}
	open := map[Process]pending{}
	retired := map[Process]bool{}
	lastByProcess := map[Process]Op{}

	for _, o := range ops {
		if o.Type == Sleep || o.Type == Log {
			continue
		}

		if last, ok := lastByProcess[o.Process]; ok {
			if o.Index < last.Index || o.Time < last.Time {
				return &InvariantError{Rule: "monotone-time", Op: o, Msg: "index/time went backwards for this process"}
			}
		}
		lastByProcess[o.Process] = o

		if o.Type == Invoke {
			if retired[o.Process] {
				return &InvariantError{Rule: "process-retirement", Op: o, Msg: "process reused after retirement"}
			}
			if _, ok := open[o.Process]; ok {
				return &InvariantError{Rule: "no-concurrent-invoke", Op: o, Msg: "process already has an outstanding invoke"}
			}
			open[o.Process] = pending{inv: o, idx: int(o.Index)}
			continue
		}

		if o.Type.IsCompletion() {
			p, ok := open[o.Process]
			if !ok || !o.Matches(p.inv) {
				return &InvariantError{Rule: "invoke-complete-pairing", Op: o, Msg: "completion has no matching invoke"}
			}
			delete(open, o.Process)
			if o.Type == Info {
				retired[o.Process] = true
			}
		}
	}

	return nil
}

// Writer journals ops as single-line JSON records to an underlying
// writer, in the order Write is called. Downstream tooling reads the
// result by sequential scan (spec §6).
type Writer struct {
	mu  sync.Mutex
	w   *bufio.Writer
	enc *json.Encoder
}

// NewWriter wraps w for journaling.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{w: bw, enc: json.NewEncoder(bw)}
}

// Write appends one journal record. Sleep/log ops are still journaled
// (they carry scheduling/annotation information useful for debugging)
// but callers that only want the client-visible history should filter
// on Type before consuming History.Ops.
func (w *Writer) Write(o Op) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(o)
}

// Flush flushes buffered output.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Flush()
}
