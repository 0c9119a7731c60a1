// Package sched implements the immutable Context value threaded through
// the generator algebra: current time, the free/busy thread sets, and the
// thread<->process bijection.
package sched

import (
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/jepsengo/jepsen/op"
)

// ThreadSet is a precomputed, reusable set of thread IDs, backed by a
// bitset so that Context.Restrict runs in time bounded by the set's word
// count rather than the total thread count. Generator combinators that
// restrict by a predicate (on, reserve, clients, nemesis) should build a
// ThreadSet once, the first time they see a Context, and reuse it across
// every Op call.
type ThreadSet struct {
	bits *bitset.BitSet
	n    uint
}

// NewThreadSet builds a ThreadSet of size n (thread IDs 0..n-1) from a
// predicate, given both the candidate thread and the total thread count
// (so predicates like "every thread but the last/nemesis slot" can be
// expressed without a separate closure-captured concurrency). This scans
// 0..n-1 once; it is meant to be called lazily, the first time a
// combinator sees a Context, and reused thereafter -- not on every
// Generator.Op call.
func NewThreadSet(n int, include func(thread, total int) bool) ThreadSet {
	b := bitset.New(uint(n))
	for t := 0; t < n; t++ {
		if include(t, n) {
			b.Set(uint(t))
		}
	}
	return ThreadSet{bits: b, n: uint(n)}
}

// AllThreads returns a ThreadSet containing every thread in 0..n-1 plus
// the nemesis slot (index n).
func AllThreads(concurrency int) ThreadSet {
	n := uint(concurrency + 1)
	b := bitset.New(n)
	for i := uint(0); i < n; i++ {
		b.Set(i)
	}
	return ThreadSet{bits: b, n: n}
}

// ClientThreads returns a ThreadSet of every client thread, excluding the
// nemesis slot.
func ClientThreads(concurrency int) ThreadSet {
	b := bitset.New(uint(concurrency + 1))
	for i := uint(0); i < uint(concurrency); i++ {
		b.Set(i)
	}
	return ThreadSet{bits: b, n: uint(concurrency + 1)}
}

// NemesisThreadSet returns a ThreadSet containing only the nemesis slot.
func NemesisThreadSet(concurrency int) ThreadSet {
	b := bitset.New(uint(concurrency + 1))
	b.Set(uint(concurrency))
	return ThreadSet{bits: b, n: uint(concurrency + 1)}
}

// Thread is a physical worker index. NemesisThread(concurrency) is the
// dedicated fault-injection thread's index.
type Thread int

// NemesisThread returns the thread index reserved for the nemesis, given
// a test's concurrency.
func NemesisThread(concurrency int) Thread {
	return Thread(concurrency)
}

// Context is an immutable snapshot of scheduling state: the current
// relative time, the set of all/free threads under this view, and the
// thread<->process bijection. Every mutator returns a new Context; the
// interpreter exclusively owns the authoritative context for a live run,
// generators receive (possibly restricted) views.
type Context struct {
	concurrency int
	time        time.Duration

	all  *bitset.BitSet // thread ids currently in-scope (includes nemesis slot)
	free *bitset.BitSet // subset of all that are idle

	threadToProcess []op.Process      // indexed by thread id, length concurrency+1
	processToThread map[op.Process]int

	// rotor is a fairness cursor for SomeFreeProcess: starting the scan
	// from a rotating offset instead of always bit 0 spreads selection
	// across the free set instead of starving high-numbered threads.
	rotor uint
}

// New returns a fresh Context for a test with the given concurrency, with
// every thread (including nemesis) free and processes equal to threads.
func New(concurrency int) *Context {
	n := uint(concurrency + 1)
	all := bitset.New(n)
	free := bitset.New(n)
	threadToProcess := make([]op.Process, n)
	processToThread := make(map[op.Process]int, n)

	for t := uint(0); t < n; t++ {
		all.Set(t)
		free.Set(t)
		var p op.Process
		if int(t) == concurrency {
			p = op.Nemesis
		} else {
			p = op.Process(t)
		}
		threadToProcess[t] = p
		processToThread[p] = int(t)
	}

	return &Context{
		concurrency:     concurrency,
		all:             all,
		free:            free,
		threadToProcess: threadToProcess,
		processToThread: processToThread,
	}
}

// Concurrency returns the test's client thread count (excludes nemesis).
func (c *Context) Concurrency() int { return c.concurrency }

// ThreadCount returns the total number of thread slots this Context was
// built with (concurrency + 1, for the nemesis slot), regardless of any
// Restrict applied since.
func (c *Context) ThreadCount() int { return len(c.threadToProcess) }

// AllIdle reports whether every thread in this context's all-threads view
// is currently free (used by Phases/Synchronize to detect a drained
// worker pool).
func (c *Context) AllIdle() bool {
	return c.all.Difference(c.free).None()
}

// Time returns the context's relative time.
func (c *Context) Time() time.Duration { return c.time }

// WithTime returns a copy of c with time advanced to t. Time never moves
// backwards in well-formed use, but this is not enforced here (the
// interpreter is the sole authority on monotonicity).
func (c *Context) WithTime(t time.Duration) *Context {
	cp := c.shallowCopy()
	cp.time = t
	return cp
}

func (c *Context) shallowCopy() *Context {
	cp := *c
	return &cp
}

// threadFor returns the thread owning process p, and whether it is known
// in this context's view.
func (c *Context) threadFor(p op.Process) (int, bool) {
	t, ok := c.processToThread[p]
	return t, ok
}

// ProcessForThread returns the process currently assigned to thread t.
func (c *Context) ProcessForThread(t Thread) op.Process {
	return c.threadToProcess[t]
}

// ProcessFree reports whether p names a thread known to this context and
// that thread is currently free. Used by Validate to check an invoke's
// Process against the live schedule.
func (c *Context) ProcessFree(p op.Process) bool {
	t, ok := c.threadFor(p)
	if !ok {
		return false
	}
	return c.FreeThreads(Thread(t))
}

// FreeThread marks thread as free, and advances the context's time.
func (c *Context) FreeThread(t time.Duration, thread Thread) *Context {
	cp := c.shallowCopy()
	cp.time = t
	cp.free = c.free.Clone()
	cp.free.Set(uint(thread))
	return cp
}

// BusyThread marks thread as busy, and advances the context's time.
func (c *Context) BusyThread(t time.Duration, thread Thread) *Context {
	cp := c.shallowCopy()
	cp.time = t
	cp.free = c.free.Clone()
	cp.free.Clear(uint(thread))
	return cp
}

// WithNextProcess rotates thread to a freshly minted process identifier,
// old_process + concurrency, guaranteeing every process identifier is
// unique across the life of the test. Nemesis never rotates: it is always
// its own process.
func (c *Context) WithNextProcess(thread Thread) *Context {
	old := c.threadToProcess[thread]
	if old.IsNemesis() {
		return c
	}

	next := old + op.Process(c.concurrency)

	cp := c.shallowCopy()
	threadToProcess := make([]op.Process, len(c.threadToProcess))
	copy(threadToProcess, c.threadToProcess)
	threadToProcess[thread] = next
	cp.threadToProcess = threadToProcess

	processToThread := make(map[op.Process]int, len(c.processToThread))
	for k, v := range c.processToThread {
		if k == old {
			continue
		}
		processToThread[k] = v
	}
	processToThread[next] = int(thread)
	cp.processToThread = processToThread

	return cp
}

// SomeFreeProcess returns the process for some free thread within c's
// current all/free restriction, chosen fairly (the scan starts from a
// rotating offset so no free thread is perpetually passed over in favor
// of lower-numbered ones), plus the successor Context recording the
// rotor's advance. ok is false if no thread is both in-scope and free,
// in which case the returned Context is c itself.
func (c *Context) SomeFreeProcess() (next *Context, proc op.Process, ok bool) {
	t, rotor, found := c.someFreeThread()
	if !found {
		return c, 0, false
	}
	cp := c.shallowCopy()
	cp.rotor = rotor
	return cp, c.threadToProcess[t], true
}

func (c *Context) someFreeThread() (thread uint, rotor uint, ok bool) {
	eligible := c.free.Intersection(c.all)
	capacity := eligible.Len()
	if capacity == 0 || eligible.Count() == 0 {
		return 0, c.rotor, false
	}

	start := c.rotor % capacity
	// scan from start, wrapping, for the first set bit
	if i, found := eligible.NextSet(start); found {
		return i, i + 1, true
	}
	// wrapped: first set bit in [0, start)
	if i, found := eligible.NextSet(0); found {
		return i, i + 1, true
	}
	return 0, c.rotor, false
}

// Restrict returns a Context whose all/free thread sets are intersected
// with set. This runs in time bounded by the bitset word count, not the
// total thread count, per the hot-path requirement: restrictions happen
// on (nearly) every call to Generator.Op.
func (c *Context) Restrict(set ThreadSet) *Context {
	cp := c.shallowCopy()
	cp.all = c.all.Intersection(set.bits)
	cp.free = c.free.Intersection(set.bits)
	return cp
}

// AllThreads reports whether thread is in this context's all-threads view.
func (c *Context) AllThreads(thread Thread) bool {
	return c.all.Test(uint(thread))
}

// FreeThreads reports whether thread is both in-scope and idle.
func (c *Context) FreeThreads(thread Thread) bool {
	return c.free.Test(uint(thread)) && c.all.Test(uint(thread))
}

// EachFreeThread iterates every free, in-scope thread in ascending order.
func (c *Context) EachFreeThread(fn func(Thread)) {
	eligible := c.free.Intersection(c.all)
	for i, ok := eligible.NextSet(0); ok; i, ok = eligible.NextSet(i + 1) {
		fn(Thread(i))
	}
}
