package engine

import (
	"math"

	"github.com/piwi3910/hypernest/internal/geometry"
	"github.com/piwi3910/hypernest/internal/model"
)

// Fitness weights. Any feasible layout scores at least -unplacedWeight and
// any infeasible one at most 1-infeasibleStep, so feasibility always wins.
const (
	overlapWeight  = 1.0 // λ
	unplacedWeight = 2.0 // μ
	infeasibleStep = 4.0
)

// evaluation is the score of one layout.
type evaluation struct {
	feasible        bool
	overlapPenalty  float64 // Penetration and out-of-bounds area / total instance area
	unplacedPenalty float64 // Unplaced area / total instance area
	utilization     float64 // Placed area / area of used slots
	fitness         float64
	violations      []model.Violation
}

// evaluator scores layouts against fixed sheets and settings. It holds no
// mutable state and is safe for concurrent use.
type evaluator struct {
	prob      *problem
	clearance float64
}

func newEvaluator(prob *problem) *evaluator {
	return &evaluator{prob: prob, clearance: prob.settings.Spacing.PartToPart}
}

type placedShape struct {
	instance int
	poly     geometry.Polygon
}

// evaluate scores a layout. It is a pure function of the genes.
func (e *evaluator) evaluate(genes []gene) evaluation {
	var ev evaluation
	bySlot := make([][]placedShape, len(e.prob.slots))
	var unplacedArea, placedArea, penalty float64

	for _, g := range genes {
		area := e.prob.instances[g.instance].area
		if g.slot == unplacedSlot {
			unplacedArea += area
			continue
		}
		placedArea += area
		bySlot[g.slot] = append(bySlot[g.slot], placedShape{instance: g.instance, poly: e.prob.polygon(g)})
	}

	var usedArea float64
	for s, items := range bySlot {
		if len(items) == 0 {
			continue
		}
		sl := e.prob.slots[s]
		usedArea += sl.width * sl.height

		for _, it := range items {
			if out := geometry.OutsideArea(sl.inset, it.poly); out > 0 {
				penalty += out
				ev.violations = append(ev.violations, model.Violation{
					Kind:  model.ViolationOutOfBounds,
					Sheet: s,
					Parts: []model.InstanceRef{e.prob.ref(it.instance)},
					Area:  out,
				})
			}
		}
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				pen := geometry.Penetration(items[i].poly, items[j].poly, e.clearance)
				if pen <= 0 {
					continue
				}
				penalty += pen
				ev.violations = append(ev.violations, model.Violation{
					Kind:  model.ViolationOverlap,
					Sheet: s,
					Parts: []model.InstanceRef{e.prob.ref(items[i].instance), e.prob.ref(items[j].instance)},
					Area:  pen,
				})
			}
		}
	}

	ev.feasible = len(ev.violations) == 0
	ev.overlapPenalty = penalty / e.prob.totalArea
	ev.unplacedPenalty = unplacedArea / e.prob.totalArea
	if usedArea > 0 {
		ev.utilization = math.Min(placedArea/usedArea, 1)
	}
	ev.fitness = ev.utilization - overlapWeight*ev.overlapPenalty - unplacedWeight*ev.unplacedPenalty
	if !ev.feasible {
		ev.fitness -= infeasibleStep
	}
	return ev
}
