package engine

import (
	"context"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/piwi3910/hypernest/internal/model"
)

// eliteCount is the number of best layouts carried over unchanged.
const eliteCount = 2

const unplacedSlot = model.Unplaced

// gene is the placement decision for one part instance.
type gene struct {
	instance int     // Index into problem.instances
	angle    float64 // One of the instance's allowed rotations
	slot     int     // Index into problem.slots, or unplacedSlot
	dx, dy   float64 // Translation after rotation
}

// chromosome is a candidate layout: exactly one gene per instance, in an
// order that repair and relocation use as placement priority.
type chromosome struct {
	genes  []gene
	eval   evaluation
	scored bool
}

func (c chromosome) fitness() float64 {
	return c.eval.fitness
}

// clone creates a deep copy of a chromosome. Evaluations are never mutated
// after scoring, so they are shared.
func (c chromosome) clone() chromosome {
	genes := make([]gene, len(c.genes))
	copy(genes, c.genes)
	return chromosome{genes: genes, eval: c.eval, scored: c.scored}
}

// geneticOptimizer runs the population search for one problem. It owns its
// random source; only evaluation runs concurrently.
type geneticOptimizer struct {
	prob           *problem
	eval           *evaluator
	rng            *rand.Rand
	tournamentSize int
	workers        int
}

func newGeneticOptimizer(prob *problem) *geneticOptimizer {
	return &geneticOptimizer{
		prob:           prob,
		eval:           newEvaluator(prob),
		rng:            rand.New(rand.NewSource(prob.settings.RandomSeed)),
		tournamentSize: prob.settings.TournamentSize,
		workers:        runtime.GOMAXPROCS(0),
	}
}

// searchResult is the terminal state of a run.
type searchResult struct {
	best        chromosome
	generations int
	cancelled   bool
	stalled     bool
	history     []model.GenerationStats
}

// optimize runs the genetic algorithm and returns the best layout seen.
// The context is checked between generations.
func (g *geneticOptimizer) optimize(ctx context.Context, o options) searchResult {
	s := g.prob.settings

	population := g.initPopulation()
	g.score(population, o.recorder)
	rank(population)

	res := searchResult{best: population[0].clone()}
	res.history = append(res.history, generationStats(0, population))

	stall := 0
	for gen := 1; gen <= s.Generations; gen++ {
		if ctx.Err() != nil {
			res.cancelled = true
			break
		}

		population = g.nextGeneration(population)
		g.score(population, o.recorder)
		rank(population)

		res.generations = gen
		res.history = append(res.history, generationStats(gen, population))
		if population[0].fitness() > res.best.fitness() {
			res.best = population[0].clone()
			stall = 0
		} else {
			stall++
		}
		o.recorder.ObserveGeneration(res.best.fitness())

		if o.progress != nil {
			o.progress(Progress{
				Generation:  gen,
				Generations: s.Generations,
				BestFitness: res.best.fitness(),
				Utilization: res.best.eval.utilization,
				Feasible:    res.best.eval.feasible,
				Stall:       stall,
			})
		}

		if s.StallLimit > 0 && stall >= s.StallLimit {
			res.stalled = true
			break
		}
	}
	return res
}

// score evaluates every unscored chromosome in parallel.
func (g *geneticOptimizer) score(population []chromosome, rec Recorder) {
	start := time.Now()
	var eg errgroup.Group
	eg.SetLimit(g.workers)
	for i := range population {
		if population[i].scored {
			continue
		}
		eg.Go(func() error {
			population[i].eval = g.eval.evaluate(population[i].genes)
			population[i].scored = true
			return nil
		})
	}
	_ = eg.Wait()
	rec.ObserveEvaluation(time.Since(start))
}

// rank sorts by fitness descending. The sort is stable so equal layouts keep
// their order and runs stay reproducible.
func rank(population []chromosome) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness() > population[j].fitness()
	})
}

func generationStats(gen int, population []chromosome) model.GenerationStats {
	fitness := make([]float64, len(population))
	feasible := 0
	for i, c := range population {
		fitness[i] = c.fitness()
		if c.eval.feasible {
			feasible++
		}
	}
	mean, std := stat.MeanStdDev(fitness, nil)
	if len(fitness) < 2 {
		std = 0
	}
	return model.GenerationStats{
		Generation:  gen,
		BestFitness: floats.Max(fitness),
		MeanFitness: mean,
		StdDev:      std,
		Feasible:    feasible,
	}
}

// initPopulation creates the initial random population.
func (g *geneticOptimizer) initPopulation() []chromosome {
	population := make([]chromosome, g.prob.settings.PopulationSize)
	for i := range population {
		population[i] = g.randomChromosome()
	}
	return population
}

// randomChromosome gives every instance a random allowed rotation and packs
// the instances in order.
func (g *geneticOptimizer) randomChromosome() chromosome {
	pl := newPlacer(g.prob)
	shared := make(map[int]float64)
	genes := make([]gene, 0, len(g.prob.instances))
	for inst := range g.prob.instances {
		genes = append(genes, pl.place(inst, g.pickAngle(inst, shared)))
	}
	return chromosome{genes: genes}
}

// pickAngle draws an allowed rotation. When rotations are shared the first
// draw for a part is reused for all its instances.
func (g *geneticOptimizer) pickAngle(inst int, shared map[int]float64) float64 {
	in := g.prob.instances[inst]
	if g.prob.shareRotations {
		if a, ok := shared[in.part]; ok {
			return a
		}
	}
	a := in.rotations[g.rng.Intn(len(in.rotations))]
	if g.prob.shareRotations {
		shared[in.part] = a
	}
	return a
}

// nextGeneration builds the next population from a ranked one: elite,
// then the selected parents, then offspring.
func (g *geneticOptimizer) nextGeneration(population []chromosome) []chromosome {
	size := g.prob.settings.PopulationSize
	next := make([]chromosome, 0, size+eliteCount)

	elite := min(eliteCount, len(population))
	for i := 0; i < elite; i++ {
		next = append(next, population[i].clone())
	}

	parents := g.selectParents(population)
	next = append(next, parents...)

	for len(next) < size {
		i := g.rng.Intn(len(parents))
		j := g.rng.Intn(len(parents) - 1)
		if j >= i {
			j++
		}
		child := g.crossover(parents[i], parents[j])
		g.repair(&child)
		g.mutate(&child)
		next = append(next, child)
	}
	return next[:size]
}

// selectParents runs tournaments until half the population size is
// reached, with a minimum of two parents.
func (g *geneticOptimizer) selectParents(population []chromosome) []chromosome {
	n := max(2, len(population)/2)
	parents := make([]chromosome, n)
	for i := range parents {
		parents[i] = g.tournamentSelect(population)
	}
	return parents
}

// tournamentSelect picks the best individual from a random tournament.
// Contestants are distinct within one tournament.
func (g *geneticOptimizer) tournamentSelect(population []chromosome) chromosome {
	k := min(g.tournamentSize, len(population))
	best := -1
	for _, idx := range g.rng.Perm(len(population))[:k] {
		if best < 0 || population[idx].fitness() > population[best].fitness() ||
			(population[idx].fitness() == population[best].fitness() && idx < best) {
			best = idx
		}
	}
	return population[best].clone()
}

// crossover takes a prefix of genes from a and the suffix from b. The child
// may repeat or miss instances until it is repaired.
func (g *geneticOptimizer) crossover(a, b chromosome) chromosome {
	n := len(a.genes)
	if n < 2 {
		return chromosome{genes: append([]gene(nil), a.genes...)}
	}
	cut := 1 + g.rng.Intn(n-1)
	genes := make([]gene, 0, n)
	genes = append(genes, a.genes[:cut]...)
	if cut < len(b.genes) {
		genes = append(genes, b.genes[cut:]...)
	}
	return chromosome{genes: genes}
}

// repair drops repeated instances, keeping the first occurrence, and adds
// missing ones with a random allowed rotation at a packer position. With
// shared rotations, copies that came from the other parent are turned to
// the rotation of the part's first gene.
func (g *geneticOptimizer) repair(c *chromosome) {
	seen := make([]bool, len(g.prob.instances))
	kept := c.genes[:0]
	for _, gn := range c.genes {
		if seen[gn.instance] {
			continue
		}
		seen[gn.instance] = true
		kept = append(kept, gn)
	}
	c.genes = kept
	c.scored = false

	shared := make(map[int]float64)
	for i := range c.genes {
		gn := &c.genes[i]
		part := g.prob.instances[gn.instance].part
		a, ok := shared[part]
		if !ok {
			shared[part] = gn.angle
			continue
		}
		if g.prob.shareRotations && gn.angle != a && gn.slot != unplacedSlot {
			g.reorient(gn, a)
		} else if g.prob.shareRotations {
			gn.angle = a
		}
	}
	if len(c.genes) == len(g.prob.instances) {
		return
	}

	pl := newPlacer(g.prob)
	for _, gn := range c.genes {
		pl.occupy(gn)
	}
	for inst, present := range seen {
		if !present {
			c.genes = append(c.genes, pl.place(inst, g.pickAngle(inst, shared)))
		}
	}
}

// mutate changes each gene with probability mutation_rate. Placed genes get
// another allowed rotation and a bounded offset; unplaced genes are
// relocated through the packer.
func (g *geneticOptimizer) mutate(c *chromosome) {
	rate := g.prob.settings.MutationRate
	var pl *placer
	for i := range c.genes {
		if g.rng.Float64() >= rate {
			continue
		}
		gn := &c.genes[i]
		if gn.slot == unplacedSlot {
			if pl == nil {
				pl = newPlacer(g.prob)
				for _, other := range c.genes {
					pl.occupy(other)
				}
			}
			*gn = pl.place(gn.instance, gn.angle)
			continue
		}
		g.perturb(gn)
	}
	c.scored = false
}

// perturb rotates a placed gene keeping its box corner anchored, shifts it
// by up to the slot's mutation step and clamps it into the sheet inset.
func (g *geneticOptimizer) perturb(gn *gene) {
	in := g.prob.instances[gn.instance]
	sl := g.prob.slots[gn.slot]
	old := g.prob.shape(gn.instance, gn.angle).box.Translate(gn.dx, gn.dy)

	angle := gn.angle
	if !g.prob.shareRotations && len(in.rotations) > 1 {
		angle = otherAngle(in.rotations, gn.angle, g.rng.Intn(len(in.rotations)-1))
	}
	box := g.prob.shape(gn.instance, angle).box

	x := old.Min.X + (2*g.rng.Float64()-1)*sl.step
	y := old.Min.Y + (2*g.rng.Float64()-1)*sl.step
	x = clamp(x, sl.box.Min.X, sl.box.Max.X-box.Width())
	y = clamp(y, sl.box.Min.Y, sl.box.Max.Y-box.Height())

	gn.angle = angle
	gn.dx = x - box.Min.X
	gn.dy = y - box.Min.Y
}

// otherAngle returns the k-th allowed rotation after skipping current.
func otherAngle(rotations []float64, current float64, k int) float64 {
	for _, a := range rotations {
		if a == current {
			continue
		}
		if k == 0 {
			return a
		}
		k--
	}
	return current
}

// reorient turns a placed gene to angle keeping its box corner anchored.
func (g *geneticOptimizer) reorient(gn *gene, angle float64) {
	sl := g.prob.slots[gn.slot]
	old := g.prob.shape(gn.instance, gn.angle).box.Translate(gn.dx, gn.dy)
	box := g.prob.shape(gn.instance, angle).box
	x := clamp(old.Min.X, sl.box.Min.X, sl.box.Max.X-box.Width())
	y := clamp(old.Min.Y, sl.box.Min.Y, sl.box.Max.Y-box.Height())
	gn.angle = angle
	gn.dx = x - box.Min.X
	gn.dy = y - box.Min.Y
}

// clamp limits v to [lo, hi], preferring lo when the range is empty.
func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
