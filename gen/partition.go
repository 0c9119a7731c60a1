package gen

import (
	"github.com/jepsengo/jepsen/op"
	"github.com/jepsengo/jepsen/sched"
	"github.com/jepsengo/jepsen/testdef"
)

// On restricts g to threads for which pred(thread, totalThreads) is true.
// The ThreadSet backing the restriction is computed lazily, the first
// time a Context is seen, and reused for the rest of this generator's
// life (spec §4.1: restriction is a hot-path operation).
func On(pred func(thread, total int) bool, g Generator) Generator {
	return &onGen{pred: pred, sub: g}
}

type onGen struct {
	pred func(thread, total int) bool
	set  *sched.ThreadSet
	sub  Generator
}

func (o *onGen) ensureSet(ctx *sched.Context) sched.ThreadSet {
	if o.set != nil {
		return *o.set
	}
	return sched.NewThreadSet(ctx.ThreadCount(), o.pred)
}

func (o *onGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	set := o.ensureSet(ctx)
	restricted := ctx.Restrict(set)
	outcome, oOp, next := o.sub.Op(t, restricted)
	return outcome, oOp, &onGen{pred: o.pred, set: &set, sub: next}
}

func (o *onGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	set := o.ensureSet(ctx)
	restricted := ctx.Restrict(set)
	return &onGen{pred: o.pred, set: &set, sub: o.sub.Update(t, restricted, ev)}
}

// notNemesis is the predicate behind Clients.
func notNemesis(thread, total int) bool { return thread != total-1 }

// isNemesis is the predicate behind Nemesis.
func isNemesis(thread, total int) bool { return thread == total-1 }

// Clients restricts g to client threads, excluding the nemesis.
func Clients(g Generator) Generator { return On(notNemesis, g) }

// NemesisOnly restricts g to the dedicated nemesis thread.
func NemesisOnly(g Generator) Generator { return On(isNemesis, g) }

// Partition describes one reserved block of threads for Reserve: the
// first N client threads go to Gen, the next partition's N to its Gen,
// and so on; any thread left over (including, by default, the nemesis)
// falls through to Reserve's default generator.
type Partition struct {
	N   int
	Gen Generator
}

// Reserve partitions threads into contiguous blocks, per Partition, with
// Def handling everything left over. Each partition's generator only ever
// sees its own threads (via Context.Restrict); when more than one
// partition has a ready op at the same Time, ties are broken weighted by
// partition size, per the soonest-op selection rules.
func Reserve(def Generator, parts ...Partition) Generator {
	cp := make([]Partition, len(parts))
	copy(cp, parts)
	return &reserveGen{def: def, parts: cp}
}

type reserveGen struct {
	def   Generator
	parts []Partition
	sets  []sched.ThreadSet // parallel to parts, plus one trailing entry for def
	built bool
}

func (r *reserveGen) ensureSets(ctx *sched.Context) []sched.ThreadSet {
	if r.built {
		return r.sets
	}
	total := ctx.ThreadCount()
	sets := make([]sched.ThreadSet, len(r.parts)+1)
	cum := 0
	bounds := make([][2]int, len(r.parts))
	for i, p := range r.parts {
		bounds[i] = [2]int{cum, cum + p.N}
		cum += p.N
	}
	for i := range r.parts {
		lo, hi := bounds[i][0], bounds[i][1]
		sets[i] = sched.NewThreadSet(total, func(thread, _ int) bool {
			return thread >= lo && thread < hi
		})
	}
	reserved := cum
	sets[len(r.parts)] = sched.NewThreadSet(total, func(thread, _ int) bool {
		return thread >= reserved
	})
	return sets
}

func (r *reserveGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	sets := r.ensureSets(ctx)
	gs := make([]Generator, len(r.parts)+1)
	weights := make([]int, len(r.parts)+1)
	for i, p := range r.parts {
		gs[i] = p.Gen
		weights[i] = p.N
	}
	gs[len(r.parts)] = r.def
	weights[len(r.parts)] = ctx.ThreadCount() - sumN(r.parts)

	restrictedCands := make([]candidate, len(gs))
	for i, g := range gs {
		restricted := ctx.Restrict(sets[i])
		outcome, o, next := g.Op(t, restricted)
		restrictedCands[i] = candidate{outcome: outcome, o: o, next: next, orig: g, weight: max1(weights[i])}
	}

	winner, pending := soonest(restrictedCands)
	resolvedGs := resolved(restrictedCands, winner)

	nextParts := make([]Partition, len(r.parts))
	for i, p := range r.parts {
		nextParts[i] = Partition{N: p.N, Gen: resolvedGs[i]}
	}
	nextDef := resolvedGs[len(r.parts)]

	result := &reserveGen{def: nextDef, parts: nextParts, sets: sets, built: true}

	if winner == -1 {
		if allExhausted(restrictedCands) {
			return Exhausted, op.Op{}, Nil
		}
		_ = pending
		return PendingOutcome, op.Op{}, result
	}
	return Ready, restrictedCands[winner].o, result
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func sumN(parts []Partition) int {
	total := 0
	for _, p := range parts {
		total += p.N
	}
	return total
}

func (r *reserveGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	sets := r.ensureSets(ctx)
	nextParts := make([]Partition, len(r.parts))
	for i, p := range r.parts {
		restricted := ctx.Restrict(sets[i])
		nextParts[i] = Partition{N: p.N, Gen: p.Gen.Update(t, restricted, ev)}
	}
	restricted := ctx.Restrict(sets[len(r.parts)])
	return &reserveGen{def: r.def.Update(t, restricted, ev), parts: nextParts, sets: sets, built: true}
}

// EachThread maintains an independent copy of the template generator per
// thread (including the nemesis thread).
func EachThread(template Generator) Generator {
	return &eachThreadGen{template: template}
}

type eachThreadGen struct {
	template Generator
	perGen   map[int]Generator
}

func (e *eachThreadGen) ensure(ctx *sched.Context) map[int]Generator {
	if e.perGen != nil {
		return e.perGen
	}
	m := make(map[int]Generator, ctx.ThreadCount())
	for th := 0; th < ctx.ThreadCount(); th++ {
		m[th] = e.template
	}
	return m
}

func (e *eachThreadGen) Op(t *testdef.Test, ctx *sched.Context) (Outcome, op.Op, Generator) {
	perGen := e.ensure(ctx)
	threads := make([]int, 0, len(perGen))
	gs := make([]Generator, 0, len(perGen))
	for th, g := range perGen {
		threads = append(threads, th)
		gs = append(gs, g)
	}

	sets := make([]sched.ThreadSet, len(threads))
	for i, th := range threads {
		thCopy := th
		sets[i] = sched.NewThreadSet(ctx.ThreadCount(), func(thread, _ int) bool { return thread == thCopy })
	}

	cands := make([]candidate, len(gs))
	for i, g := range gs {
		outcome, o, next := g.Op(t, ctx.Restrict(sets[i]))
		cands[i] = candidate{outcome: outcome, o: o, next: next, orig: g, weight: 1}
	}

	winner, pending := soonest(cands)
	resolvedGs := resolved(cands, winner)

	next := make(map[int]Generator, len(perGen))
	for i, th := range threads {
		next[th] = resolvedGs[i]
	}

	result := &eachThreadGen{template: e.template, perGen: next}

	if winner == -1 {
		if allExhausted(cands) {
			return Exhausted, op.Op{}, Nil
		}
		_ = pending
		return PendingOutcome, op.Op{}, result
	}
	return Ready, cands[winner].o, result
}

func (e *eachThreadGen) Update(t *testdef.Test, ctx *sched.Context, ev Event) Generator {
	perGen := e.ensure(ctx)
	next := make(map[int]Generator, len(perGen))
	for th, g := range perGen {
		thCopy := th
		set := sched.NewThreadSet(ctx.ThreadCount(), func(thread, _ int) bool { return thread == thCopy })
		next[th] = g.Update(t, ctx.Restrict(set), ev)
	}
	return &eachThreadGen{template: e.template, perGen: next}
}
