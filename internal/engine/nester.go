package engine

import (
	"context"
	"math"
	"time"

	"github.com/piwi3910/hypernest/internal/model"
)

// Run outcomes reported to the Recorder.
const (
	OutcomeCompleted = "completed" // All generations ran
	OutcomeStalled   = "stalled"   // Stopped by stall_limit
	OutcomeCancelled = "cancelled" // Context cancelled, best-so-far returned
	OutcomeError     = "error"     // Rejected before the search started
)

// Progress is reported after every generation.
type Progress struct {
	Generation  int
	Generations int
	BestFitness float64
	Utilization float64
	Feasible    bool
	Stall       int // Generations since the best layout last improved
}

// Recorder receives run measurements. internal/metrics provides a
// Prometheus implementation.
type Recorder interface {
	ObserveEvaluation(d time.Duration)
	ObserveGeneration(bestFitness float64)
	ObserveRun(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveEvaluation(time.Duration) {}
func (nopRecorder) ObserveGeneration(float64)       {}
func (nopRecorder) ObserveRun(string)               {}

type options struct {
	progress func(Progress)
	recorder Recorder
}

// Option configures a Nest call.
type Option func(*options)

// WithProgress registers a callback fired on the calling goroutine at every
// generation boundary.
func WithProgress(fn func(Progress)) Option {
	return func(o *options) { o.progress = fn }
}

// WithRecorder sends run measurements to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// Nest places the parts on the sheets and returns the best layout found.
//
// Inputs are validated before any generation runs: invalid settings,
// degenerate outlines, an empty part set and sheets without usable area are
// reported as wrapped ErrInvalidSettings, ErrDegenerateGeometry,
// ErrEmptyPartSet and ErrNoSheetCapacity. Results are deterministic for a
// given random_seed. When ctx is cancelled the best layout so far is
// returned with Cancelled set and a nil error. A result without a feasible
// layout is not an error either; check Feasible and Violations.
func Nest(ctx context.Context, parts []model.Part, sheets []model.Sheet, settings model.Settings, opts ...Option) (model.NestingResult, error) {
	o := options{recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}

	effective, err := EffectiveSettings(settings)
	if err != nil {
		o.recorder.ObserveRun(OutcomeError)
		return model.NestingResult{}, err
	}
	prob, err := newProblem(parts, sheets, effective)
	if err != nil {
		o.recorder.ObserveRun(OutcomeError)
		return model.NestingResult{}, err
	}

	res := newGeneticOptimizer(prob).optimize(ctx, o)

	switch {
	case res.cancelled:
		o.recorder.ObserveRun(OutcomeCancelled)
	case res.stalled:
		o.recorder.ObserveRun(OutcomeStalled)
	default:
		o.recorder.ObserveRun(OutcomeCompleted)
	}
	return buildResult(prob, res), nil
}

// buildResult decodes the best chromosome into placements ordered by part
// and copy, with per-slot usage.
func buildResult(prob *problem, res searchResult) model.NestingResult {
	best := res.best
	byInstance := make([]gene, len(prob.instances))
	for _, gn := range best.genes {
		byInstance[gn.instance] = gn
	}

	usage := make([]model.SheetUsage, len(prob.slots))
	for i, sl := range prob.slots {
		sheet := prob.sheets[sl.sheet]
		usage[i] = model.SheetUsage{
			Slot:    i,
			SheetID: sheet.ID,
			Name:    sheet.Name,
			Copy:    sl.copy,
			Width:   sl.width,
			Height:  sl.height,
		}
	}

	result := model.NestingResult{
		Placements:    make([]model.Placement, 0, len(byInstance)),
		UnplacedParts: make([]model.InstanceRef, 0),
		Utilization:   best.eval.utilization,
		Fitness:       best.eval.fitness,
		Feasible:      best.eval.feasible,
		Generations:   res.generations,
		Cancelled:     res.cancelled,
		Strategy:      prob.settings.Strategy,
		Seed:          prob.settings.RandomSeed,
		History:       res.history,
		Violations:    best.eval.violations,
	}

	for inst, gn := range byInstance {
		if gn.slot == unplacedSlot {
			result.UnplacedParts = append(result.UnplacedParts, prob.ref(inst))
			continue
		}
		in := prob.instances[inst]
		part := prob.parts[in.part]
		result.Placements = append(result.Placements, model.Placement{
			PartID:   part.ID,
			Label:    part.Label,
			Instance: in.copy,
			Sheet:    gn.slot,
			SheetID:  usage[gn.slot].SheetID,
			Angle:    gn.angle,
			DX:       gn.dx,
			DY:       gn.dy,
			Polygon:  prob.polygon(gn),
		})
		usage[gn.slot].PartCount++
		usage[gn.slot].UsedArea += in.area
	}

	for i := range usage {
		if ta := usage[i].TotalArea(); ta > 0 {
			usage[i].Utilization = math.Min(usage[i].UsedArea/ta, 1)
		}
	}
	result.Sheets = usage
	return result
}
