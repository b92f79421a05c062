package model

import (
	"github.com/google/uuid"

	"github.com/piwi3910/hypernest/internal/geometry"
)

// Strategy selects how the settings are tuned before a nesting run.
type Strategy string

const (
	StrategyMaxEfficiency     Strategy = "max_efficiency"     // Settings used as given
	StrategyBalanced          Strategy = "balanced"           // Wider population, fewer generations
	StrategyRepeatPreferences Strategy = "repeat_preferences" // All copies of a part share one rotation
)

// Strategies lists the known strategies in display order.
func Strategies() []Strategy {
	return []Strategy{StrategyMaxEfficiency, StrategyBalanced, StrategyRepeatPreferences}
}

// Valid reports whether s is a known strategy. The empty strategy is
// treated as max_efficiency.
func (s Strategy) Valid() bool {
	switch s {
	case "", StrategyMaxEfficiency, StrategyBalanced, StrategyRepeatPreferences:
		return true
	}
	return false
}

func (s Strategy) String() string {
	switch s {
	case StrategyBalanced:
		return "Balanced"
	case StrategyRepeatPreferences:
		return "Repeat Preferences"
	case "", StrategyMaxEfficiency:
		return "Max Efficiency"
	default:
		return string(s)
	}
}

// Part represents a required piece to be cut.
type Part struct {
	ID        string           `json:"id"`
	Label     string           `json:"label"`
	Quantity  int              `json:"quantity"`
	Outline   geometry.Polygon `json:"outline"`                     // Reference outline at zero rotation, mm
	Rotations []float64        `json:"allowed_rotations,omitempty"` // Degrees; empty = settings rotation_angles
}

func NewPart(label string, outline geometry.Polygon, qty int) Part {
	return Part{
		ID:       uuid.New().String()[:8],
		Label:    label,
		Quantity: qty,
		Outline:  outline,
	}
}

// NewRectPart is a convenience for rectangular parts with the lower-left
// corner at the origin.
func NewRectPart(label string, w, h float64, qty int) Part {
	return NewPart(label, geometry.Rect(0, 0, w, h), qty)
}

// Area returns the area of a single instance.
func (p Part) Area() float64 {
	return geometry.Area(p.Outline)
}

// AllowedRotations returns the part's rotations, or defaults when the part
// does not restrict them.
func (p Part) AllowedRotations(defaults []float64) []float64 {
	if len(p.Rotations) > 0 {
		return p.Rotations
	}
	return defaults
}

// Sheet represents an available stock sheet of material to nest on.
type Sheet struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Width    float64 `json:"width"`  // mm
	Height   float64 `json:"height"` // mm
	Quantity int     `json:"quantity"`
}

func NewSheet(name string, w, h float64, qty int) Sheet {
	return Sheet{
		ID:       uuid.New().String()[:8],
		Name:     name,
		Width:    w,
		Height:   h,
		Quantity: qty,
	}
}

// Area returns the area of one copy of the sheet.
func (s Sheet) Area() float64 {
	return s.Width * s.Height
}

// Spacing holds the clearances kept around every part.
type Spacing struct {
	PartToPart float64 `json:"part_to_part" yaml:"part_to_part"` // Minimum gap between parts, mm
	Margin     float64 `json:"margin" yaml:"margin"`             // Minimum gap to the sheet edge, mm
}

// Settings holds the genetic algorithm and spacing configuration of a run.
type Settings struct {
	PopulationSize    int       `json:"population_size" yaml:"population_size"`
	Generations       int       `json:"generations" yaml:"generations"`
	RotationAngles    []float64 `json:"rotation_angles" yaml:"rotation_angles"` // Degrees in [0, 360)
	Spacing           Spacing   `json:"spacing" yaml:"spacing"`
	MutationRate      float64   `json:"mutation_rate" yaml:"mutation_rate"`           // Per-gene probability
	MutationStep      float64   `json:"mutation_step" yaml:"mutation_step"`           // mm; 0 = 5% of the shorter sheet side
	TournamentSize    int       `json:"tournament_size" yaml:"tournament_size"`       // Contestants per tournament
	StallLimit        int       `json:"stall_limit" yaml:"stall_limit"`               // Generations without improvement; 0 = disabled
	RandomSeed        int64     `json:"random_seed" yaml:"random_seed"`               // Same seed, same result
	SimplifyTolerance float64   `json:"simplify_tolerance" yaml:"simplify_tolerance"` // mm; 0 = keep outlines as given
	Strategy          Strategy  `json:"strategy" yaml:"strategy"`
}

func DefaultSettings() Settings {
	return Settings{
		PopulationSize: 30,
		Generations:    100,
		RotationAngles: []float64{0, 90, 180, 270},
		Spacing: Spacing{
			PartToPart: 2.0,
			Margin:     5.0,
		},
		MutationRate:   0.1,
		TournamentSize: 3,
		Strategy:       StrategyMaxEfficiency,
	}
}

// Unplaced is the sheet index of a placement that did not fit anywhere.
const Unplaced = -1

// Placement is the final position of one part instance.
type Placement struct {
	PartID   string           `json:"part_id"`
	Label    string           `json:"label"`
	Instance int              `json:"instance"` // Copy index within the part's quantity
	Sheet    int              `json:"sheet"`    // Index into NestingResult.Sheets, or Unplaced
	SheetID  string           `json:"sheet_id"` // ID of the stock sheet the slot was expanded from
	Angle    float64          `json:"angle"`    // Degrees counter-clockwise about the outline centroid
	DX       float64          `json:"dx"`       // Translation after rotation, mm
	DY       float64          `json:"dy"`       // Translation after rotation, mm
	Polygon  geometry.Polygon `json:"polygon"`  // Outline in sheet coordinates
}

// Placed reports whether the instance sits on a sheet.
func (p Placement) Placed() bool {
	return p.Sheet != Unplaced
}

// InstanceRef identifies one copy of a part.
type InstanceRef struct {
	PartID   string `json:"part_id"`
	Label    string `json:"label"`
	Instance int    `json:"instance"`
}

// SheetUsage describes one sheet slot (one physical copy of a stock sheet).
type SheetUsage struct {
	Slot        int     `json:"slot"`
	SheetID     string  `json:"sheet_id"`
	Name        string  `json:"name"`
	Copy        int     `json:"copy"` // Copy index within the sheet's quantity
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	PartCount   int     `json:"part_count"`
	UsedArea    float64 `json:"used_area"`   // Sum of placed part areas, mm²
	Utilization float64 `json:"utilization"` // UsedArea / sheet area, 0..1
}

// TotalArea returns the sheet area.
func (s SheetUsage) TotalArea() float64 {
	return s.Width * s.Height
}

// Used reports whether at least one part sits on the slot.
func (s SheetUsage) Used() bool {
	return s.PartCount > 0
}

// ViolationKind classifies a constraint violation.
type ViolationKind string

const (
	ViolationOverlap     ViolationKind = "overlap"       // Two parts closer than the part spacing
	ViolationOutOfBounds ViolationKind = "out_of_bounds" // Part outside the sheet inset
)

// Violation records one broken constraint in a layout.
type Violation struct {
	Kind  ViolationKind `json:"kind"`
	Sheet int           `json:"sheet"`
	Parts []InstanceRef `json:"parts"`
	Area  float64       `json:"area"` // Penetration (overlap) or area outside the inset, mm²
}

// GenerationStats summarizes the population after one generation.
type GenerationStats struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	StdDev      float64 `json:"stddev"`
	Feasible    int     `json:"feasible"` // Feasible layouts in the population
}

// NestingResult holds the full solution of a run.
type NestingResult struct {
	Placements    []Placement       `json:"placements"`
	Sheets        []SheetUsage      `json:"sheets"`
	UnplacedParts []InstanceRef     `json:"unplaced_parts"`
	Utilization   float64           `json:"utilization"` // Over the used sheets, 0..1
	Fitness       float64           `json:"fitness"`
	Feasible      bool              `json:"feasible"`
	Generations   int               `json:"generations"` // Generations actually run
	Cancelled     bool              `json:"cancelled"`
	Strategy      Strategy          `json:"strategy"`
	Seed          int64             `json:"seed"`
	History       []GenerationStats `json:"history,omitempty"`
	Violations    []Violation       `json:"violations,omitempty"`
}

// UsedSheets returns the sheet slots holding at least one part.
func (r NestingResult) UsedSheets() []SheetUsage {
	var used []SheetUsage
	for _, s := range r.Sheets {
		if s.Used() {
			used = append(used, s)
		}
	}
	return used
}

// PlacementsOn returns the placements on the given sheet slot.
func (r NestingResult) PlacementsOn(slot int) []Placement {
	var out []Placement
	for _, p := range r.Placements {
		if p.Sheet == slot {
			out = append(out, p)
		}
	}
	return out
}

// WastePercent returns the unused share of the used sheets in percent.
func (r NestingResult) WastePercent() float64 {
	if len(r.UsedSheets()) == 0 {
		return 0
	}
	return (1 - r.Utilization) * 100.0
}

// Project ties everything together for save/load.
type Project struct {
	Name     string         `json:"name"`
	Parts    []Part         `json:"parts"`
	Sheets   []Sheet        `json:"sheets"`
	Settings Settings       `json:"settings"`
	Result   *NestingResult `json:"result,omitempty"`
}

func NewProject() Project {
	return Project{
		Name:     "Untitled",
		Parts:    []Part{},
		Sheets:   []Sheet{},
		Settings: DefaultSettings(),
	}
}
