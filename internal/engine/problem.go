package engine

import (
	"fmt"
	"math"

	"github.com/piwi3910/hypernest/internal/geometry"
	"github.com/piwi3910/hypernest/internal/model"
)

const defaultTournamentSize = 3

// instance is one copy of a part.
type instance struct {
	part      int // Index into problem.parts
	copy      int // Copy index within the part's quantity
	rotations []float64
	area      float64
}

// slot is one physical copy of a stock sheet.
type slot struct {
	sheet  int // Index into problem.sheets
	copy   int
	width  float64
	height float64
	inset  geometry.Polygon // Sheet shrunk by the margin
	box    geometry.BBox    // Bounds of inset
	step   float64          // Mutation offset bound
}

// shape is a part outline rotated about its centroid, before translation.
type shape struct {
	poly geometry.Polygon
	box  geometry.BBox
}

// problem is the validated, expanded input of one run. It is read-only once
// built and shared by the evaluator, the placer and the search.
type problem struct {
	settings  model.Settings
	parts     []model.Part
	sheets    []model.Sheet
	outlines  []geometry.Polygon // Per part, simplified when requested
	instances []instance
	slots     []slot
	shapes    []map[float64]shape // Per part, keyed by allowed angle
	totalArea float64             // Sum of instance areas

	shareRotations bool // All instances of a part start with one rotation
}

// validateSettings checks the settings ranges. It fills in the tournament
// size when unset.
func validateSettings(s *model.Settings) error {
	switch {
	case s.PopulationSize <= 0:
		return fmt.Errorf("%w: population_size must be positive, got %d", ErrInvalidSettings, s.PopulationSize)
	case s.Generations <= 0:
		return fmt.Errorf("%w: generations must be positive, got %d", ErrInvalidSettings, s.Generations)
	case len(s.RotationAngles) == 0:
		return fmt.Errorf("%w: rotation_angles is empty", ErrInvalidSettings)
	case !nonNegative(s.Spacing.PartToPart):
		return fmt.Errorf("%w: spacing.part_to_part must be >= 0, got %g", ErrInvalidSettings, s.Spacing.PartToPart)
	case !nonNegative(s.Spacing.Margin):
		return fmt.Errorf("%w: spacing.margin must be >= 0, got %g", ErrInvalidSettings, s.Spacing.Margin)
	case !(s.MutationRate >= 0 && s.MutationRate <= 1):
		return fmt.Errorf("%w: mutation_rate must be within [0, 1], got %g", ErrInvalidSettings, s.MutationRate)
	case !nonNegative(s.MutationStep):
		return fmt.Errorf("%w: mutation_step must be >= 0, got %g", ErrInvalidSettings, s.MutationStep)
	case !nonNegative(s.SimplifyTolerance):
		return fmt.Errorf("%w: simplify_tolerance must be >= 0, got %g", ErrInvalidSettings, s.SimplifyTolerance)
	case s.StallLimit < 0:
		return fmt.Errorf("%w: stall_limit must be >= 0, got %d", ErrInvalidSettings, s.StallLimit)
	case s.TournamentSize == 1 || s.TournamentSize < 0:
		return fmt.Errorf("%w: tournament_size must be >= 2, got %d", ErrInvalidSettings, s.TournamentSize)
	case !s.Strategy.Valid():
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidSettings, s.Strategy)
	}
	if err := validateRotations(s.RotationAngles); err != nil {
		return fmt.Errorf("%w: rotation_angles: %v", ErrInvalidSettings, err)
	}
	if s.TournamentSize == 0 {
		s.TournamentSize = defaultTournamentSize
	}
	if s.Strategy == "" {
		s.Strategy = model.StrategyMaxEfficiency
	}
	return nil
}

func validateRotations(angles []float64) error {
	for _, a := range angles {
		if !(a >= 0 && a < 360) {
			return fmt.Errorf("angle %g outside [0, 360)", a)
		}
	}
	return nil
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// newProblem validates the input and expands quantities into instances and
// sheet slots. Settings must already be validated.
func newProblem(parts []model.Part, sheets []model.Sheet, settings model.Settings) (*problem, error) {
	p := &problem{
		settings:       settings,
		parts:          parts,
		sheets:         sheets,
		outlines:       make([]geometry.Polygon, len(parts)),
		shapes:         make([]map[float64]shape, len(parts)),
		shareRotations: settings.Strategy == model.StrategyRepeatPreferences,
	}

	for i, s := range sheets {
		if !nonNegative(s.Width) || !nonNegative(s.Height) || s.Quantity < 0 {
			return nil, fmt.Errorf("%w: sheet %q has invalid size %gx%g or quantity %d",
				ErrInvalidSettings, s.Name, s.Width, s.Height, s.Quantity)
		}
		p.addSlots(i, s)
	}

	for _, part := range parts {
		if part.Quantity < 0 {
			return nil, fmt.Errorf("%w: part %q has negative quantity %d", ErrInvalidSettings, part.Label, part.Quantity)
		}
		if err := validateRotations(part.Rotations); err != nil {
			return nil, fmt.Errorf("%w: part %q allowed_rotations: %v", ErrInvalidSettings, part.Label, err)
		}
	}

	for i, part := range parts {
		outline := part.Outline
		if outline.IsEmpty() {
			return nil, fmt.Errorf("part %q: %w: empty outline", part.Label, ErrDegenerateGeometry)
		}
		if settings.SimplifyTolerance > 0 {
			simplified, err := geometry.Simplify(outline, settings.SimplifyTolerance)
			if err != nil {
				return nil, fmt.Errorf("part %q: %w", part.Label, err)
			}
			outline = simplified
		}
		p.outlines[i] = outline

		rotations := part.AllowedRotations(settings.RotationAngles)
		p.shapes[i] = make(map[float64]shape, len(rotations))
		for _, angle := range rotations {
			rotated := geometry.Transform(outline, angle, 0, 0)
			p.shapes[i][angle] = shape{poly: rotated, box: geometry.Bounds(rotated)}
		}

		area := geometry.Area(outline)
		for c := 0; c < part.Quantity; c++ {
			p.instances = append(p.instances, instance{part: i, copy: c, rotations: rotations, area: area})
			p.totalArea += area
		}
	}

	if len(p.instances) == 0 {
		return nil, fmt.Errorf("%w: %d parts with zero total quantity", ErrEmptyPartSet, len(parts))
	}
	if len(p.slots) == 0 {
		return nil, fmt.Errorf("%w: %d sheets, margin %g", ErrNoSheetCapacity, len(sheets), settings.Spacing.Margin)
	}
	return p, nil
}

// addSlots expands one sheet by quantity. Copies whose inset has no area
// cannot hold anything and are left out.
func (p *problem) addSlots(index int, s model.Sheet) {
	m := p.settings.Spacing.Margin
	iw, ih := s.Width-2*m, s.Height-2*m
	if iw <= geometry.Zeroish || ih <= geometry.Zeroish {
		return
	}
	step := p.settings.MutationStep
	if step == 0 {
		step = 0.05 * math.Min(iw, ih)
	}
	for c := 0; c < s.Quantity; c++ {
		inset := geometry.Rect(m, m, iw, ih)
		p.slots = append(p.slots, slot{
			sheet:  index,
			copy:   c,
			width:  s.Width,
			height: s.Height,
			inset:  inset,
			box:    geometry.Bounds(inset),
			step:   step,
		})
	}
}

// shape returns the rotated outline of an instance.
func (p *problem) shape(inst int, angle float64) shape {
	return p.shapes[p.instances[inst].part][angle]
}

// polygon returns the placed outline of a gene.
func (p *problem) polygon(g gene) geometry.Polygon {
	return geometry.Translate(p.shape(g.instance, g.angle).poly, g.dx, g.dy)
}

// ref identifies an instance for results and violations.
func (p *problem) ref(inst int) model.InstanceRef {
	in := p.instances[inst]
	part := p.parts[in.part]
	return model.InstanceRef{PartID: part.ID, Label: part.Label, Instance: in.copy}
}
