package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/hypernest/internal/geometry"
	"github.com/piwi3910/hypernest/internal/model"
)

func testSettings() model.Settings {
	s := model.DefaultSettings()
	s.PopulationSize = 12
	s.Generations = 10
	s.Spacing = model.Spacing{PartToPart: 1, Margin: 2}
	s.MutationRate = 0.2
	s.RandomSeed = 7
	return s
}

func rectPart(label string, w, h float64, qty int) model.Part {
	return model.Part{ID: label, Label: label, Quantity: qty, Outline: geometry.Rect(0, 0, w, h)}
}

func lPart(label string, qty int) model.Part {
	outline, err := geometry.NewPolygon(geometry.Ring{{X: 0, Y: 0}, {X: 30, Y: 0}, {X: 30, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 30}, {X: 0, Y: 30}})
	if err != nil {
		panic(err)
	}
	return model.Part{ID: label, Label: label, Quantity: qty, Outline: outline}
}

func mustProblem(t *testing.T, parts []model.Part, sheets []model.Sheet, settings model.Settings) *problem {
	t.Helper()
	effective, err := EffectiveSettings(settings)
	require.NoError(t, err)
	prob, err := newProblem(parts, sheets, effective)
	require.NoError(t, err)
	return prob
}

// polygonsEqual compares polygons by their rings.
var polygonsEqual = cmp.Comparer(func(a, b geometry.Polygon) bool {
	return cmp.Equal(a.Outer(), b.Outer()) && cmp.Equal(a.Holes(), b.Holes())
})

func TestNest_ScenarioA(t *testing.T) {
	settings := model.DefaultSettings()
	settings.PopulationSize = 20
	settings.Generations = 50
	settings.RotationAngles = []float64{0, 90}
	settings.Spacing = model.Spacing{PartToPart: 1, Margin: 0}
	settings.RandomSeed = 0

	parts := []model.Part{rectPart("P", 10, 5, 2)}
	sheets := []model.Sheet{{ID: "S", Name: "Sheet", Width: 30, Height: 30, Quantity: 1}}

	result, err := Nest(context.Background(), parts, sheets, settings)
	require.NoError(t, err)

	assert.Empty(t, result.UnplacedParts)
	assert.Len(t, result.Placements, 2)
	assert.True(t, result.Feasible, "violations: %+v", result.Violations)
	assert.GreaterOrEqual(t, result.Utilization, 0.111)
	assert.False(t, result.Cancelled)

	require.Len(t, result.Sheets, 1)
	assert.Equal(t, 2, result.Sheets[0].PartCount)
	assert.InDelta(t, 100.0/900.0, result.Sheets[0].Utilization, 1e-9)

	sheet := geometry.Rect(0, 0, 30, 30)
	a, b := result.Placements[0], result.Placements[1]
	assert.True(t, geometry.Contains(sheet, a.Polygon))
	assert.True(t, geometry.Contains(sheet, b.Polygon))
	assert.False(t, geometry.Overlaps(a.Polygon, b.Polygon, 1))
	for _, p := range result.Placements {
		assert.Contains(t, []float64{0, 90}, p.Angle)
		// the placement polygon is the reference outline transformed
		want := geometry.Transform(parts[0].Outline, p.Angle, p.DX, p.DY)
		assert.InDelta(t, 0, geometry.OutsideArea(want, p.Polygon), 1e-9)
	}
}

func TestNest_ScenarioB_PartLargerThanSheet(t *testing.T) {
	settings := testSettings()
	settings.Spacing = model.Spacing{}
	parts := []model.Part{rectPart("Huge", 100, 100, 1)}
	sheets := []model.Sheet{{ID: "S", Name: "Small", Width: 10, Height: 10, Quantity: 1}}

	result, err := Nest(context.Background(), parts, sheets, settings)
	require.NoError(t, err)

	assert.Empty(t, result.Placements)
	require.Len(t, result.UnplacedParts, 1)
	assert.Equal(t, model.InstanceRef{PartID: "Huge", Label: "Huge", Instance: 0}, result.UnplacedParts[0])
	assert.True(t, result.Feasible)
	assert.Zero(t, result.Utilization)
	assert.Empty(t, result.UsedSheets())
}

func TestNest_InstanceConservation(t *testing.T) {
	parts := []model.Part{
		rectPart("A", 40, 30, 3),
		rectPart("B", 20, 15, 4),
		lPart("L", 3),
		rectPart("X", 500, 500, 1),
	}
	sheets := []model.Sheet{{ID: "s", Name: "sheet", Width: 120, Height: 80, Quantity: 2}}

	result, err := Nest(context.Background(), parts, sheets, testSettings())
	require.NoError(t, err)

	seen := make(map[model.InstanceRef]int)
	for _, p := range result.Placements {
		seen[model.InstanceRef{PartID: p.PartID, Label: p.Label, Instance: p.Instance}]++
		assert.GreaterOrEqual(t, p.Sheet, 0)
		assert.Equal(t, "s", p.SheetID)
	}
	for _, u := range result.UnplacedParts {
		seen[u]++
	}
	assert.Len(t, seen, 11)
	for ref, n := range seen {
		assert.Equal(t, 1, n, "%+v", ref)
	}
	assert.Contains(t, result.UnplacedParts, model.InstanceRef{PartID: "X", Label: "X", Instance: 0})

	var used float64
	for _, s := range result.Sheets {
		used += s.UsedArea
	}
	var placed float64
	for _, p := range result.Placements {
		placed += geometry.Area(p.Polygon)
	}
	assert.InDelta(t, placed, used, 1e-6)
}

func TestNest_Deterministic(t *testing.T) {
	parts := []model.Part{rectPart("A", 40, 30, 3), lPart("L", 4)}
	sheets := []model.Sheet{{ID: "s", Name: "sheet", Width: 150, Height: 100, Quantity: 1}}
	settings := testSettings()
	settings.RotationAngles = []float64{0, 45, 90}

	first, err := Nest(context.Background(), parts, sheets, settings)
	require.NoError(t, err)
	second, err := Nest(context.Background(), parts, sheets, settings)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second, polygonsEqual); diff != "" {
		t.Errorf("same seed gave different results (-first +second):\n%s", diff)
	}
}

func TestNest_ConcurrentCallsMatchSequential(t *testing.T) {
	parts := []model.Part{rectPart("A", 40, 30, 3), lPart("L", 4)}
	sheets := []model.Sheet{{ID: "s", Name: "sheet", Width: 150, Height: 100, Quantity: 1}}
	settings := testSettings()
	settings.RotationAngles = []float64{0, 45, 90}

	want, err := Nest(context.Background(), parts, sheets, settings)
	require.NoError(t, err)

	const runs = 6
	results := make([]model.NestingResult, runs)
	errs := make([]error, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Nest(context.Background(), parts, sheets, settings)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		if diff := cmp.Diff(want, results[i], polygonsEqual); diff != "" {
			t.Errorf("concurrent run %d differs from sequential (-want +got):\n%s", i, diff)
		}
	}
}

func TestNest_EmptyRotationAngles(t *testing.T) {
	settings := testSettings()
	settings.RotationAngles = nil
	_, err := Nest(context.Background(),
		[]model.Part{rectPart("A", 10, 10, 1)},
		[]model.Sheet{{ID: "s", Width: 100, Height: 100, Quantity: 1}},
		settings)
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestNest_ValidationErrors(t *testing.T) {
	square := []model.Part{rectPart("A", 10, 10, 1)}
	sheet := []model.Sheet{{ID: "s", Width: 100, Height: 100, Quantity: 1}}

	tests := []struct {
		name   string
		parts  []model.Part
		sheets []model.Sheet
		modify func(*model.Settings)
		want   error
	}{
		{"zero population", square, sheet, func(s *model.Settings) { s.PopulationSize = 0 }, ErrInvalidSettings},
		{"zero generations", square, sheet, func(s *model.Settings) { s.Generations = 0 }, ErrInvalidSettings},
		{"angle 360", square, sheet, func(s *model.Settings) { s.RotationAngles = []float64{0, 360} }, ErrInvalidSettings},
		{"negative spacing", square, sheet, func(s *model.Settings) { s.Spacing.PartToPart = -1 }, ErrInvalidSettings},
		{"mutation rate above one", square, sheet, func(s *model.Settings) { s.MutationRate = 1.5 }, ErrInvalidSettings},
		{"tournament of one", square, sheet, func(s *model.Settings) { s.TournamentSize = 1 }, ErrInvalidSettings},
		{"unknown strategy", square, sheet, func(s *model.Settings) { s.Strategy = "fastest" }, ErrInvalidSettings},
		{"negative sheet size", square, []model.Sheet{{Width: -1, Height: 10, Quantity: 1}}, nil, ErrInvalidSettings},
		{"empty outline", []model.Part{{ID: "e", Label: "empty", Quantity: 1}}, sheet, nil, ErrDegenerateGeometry},
		{"no parts", nil, sheet, nil, ErrEmptyPartSet},
		{"zero quantity", []model.Part{rectPart("A", 10, 10, 0)}, sheet, nil, ErrEmptyPartSet},
		{"no sheets", square, nil, nil, ErrNoSheetCapacity},
		{"margin eats sheet", square, sheet, func(s *model.Settings) { s.Spacing.Margin = 50 }, ErrNoSheetCapacity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings()
			if tt.modify != nil {
				tt.modify(&settings)
			}
			_, err := Nest(context.Background(), tt.parts, tt.sheets, settings)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNest_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Nest(ctx,
		[]model.Part{rectPart("A", 10, 10, 3)},
		[]model.Sheet{{ID: "s", Width: 100, Height: 100, Quantity: 1}},
		testSettings())
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.Zero(t, result.Generations)
	assert.Len(t, result.Placements, 3, "initial best layout is returned")
}

func TestNest_CancelledAtGenerationBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settings := testSettings()
	settings.Generations = 100
	var calls int
	result, err := Nest(ctx,
		[]model.Part{rectPart("A", 10, 10, 3)},
		[]model.Sheet{{ID: "s", Width: 100, Height: 100, Quantity: 1}},
		settings,
		WithProgress(func(p Progress) {
			calls++
			if p.Generation == 3 {
				cancel()
			}
		}))
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 3, result.Generations)
	assert.Equal(t, 3, calls)
	assert.Len(t, result.History, 4)
}

func TestNest_StallLimitStopsEarly(t *testing.T) {
	settings := testSettings()
	settings.Generations = 50
	settings.StallLimit = 1

	// a single part scores the same wherever it lands
	result, err := Nest(context.Background(),
		[]model.Part{rectPart("A", 10, 10, 1)},
		[]model.Sheet{{ID: "s", Width: 100, Height: 100, Quantity: 1}},
		settings)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generations)
	assert.False(t, result.Cancelled)
}

func TestNest_ProgressReportsEveryGeneration(t *testing.T) {
	var got []int
	_, err := Nest(context.Background(),
		[]model.Part{rectPart("A", 10, 10, 2)},
		[]model.Sheet{{ID: "s", Width: 100, Height: 100, Quantity: 1}},
		testSettings(),
		WithProgress(func(p Progress) {
			got = append(got, p.Generation)
			assert.Equal(t, 10, p.Generations)
		}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got)
}

type fakeRecorder struct {
	mu          sync.Mutex
	evaluations int
	generations int
	outcomes    []string
}

func (f *fakeRecorder) ObserveEvaluation(time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evaluations++
}

func (f *fakeRecorder) ObserveGeneration(float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generations++
}

func (f *fakeRecorder) ObserveRun(outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
}

func TestNest_Recorder(t *testing.T) {
	rec := &fakeRecorder{}
	parts := []model.Part{rectPart("A", 10, 10, 2)}
	sheets := []model.Sheet{{ID: "s", Width: 100, Height: 100, Quantity: 1}}

	_, err := Nest(context.Background(), parts, sheets, testSettings(), WithRecorder(rec))
	require.NoError(t, err)
	assert.Equal(t, 11, rec.evaluations)
	assert.Equal(t, 10, rec.generations)

	bad := testSettings()
	bad.Generations = 0
	_, err = Nest(context.Background(), parts, sheets, bad, WithRecorder(rec))
	require.Error(t, err)
	assert.Equal(t, []string{OutcomeCompleted, OutcomeError}, rec.outcomes)
}

func TestNest_RepeatPreferencesSharesRotation(t *testing.T) {
	settings := testSettings()
	settings.Strategy = model.StrategyRepeatPreferences
	settings.Generations = 20

	result, err := Nest(context.Background(),
		[]model.Part{rectPart("A", 30, 10, 5), lPart("L", 4)},
		[]model.Sheet{{ID: "s", Width: 150, Height: 150, Quantity: 1}},
		settings)
	require.NoError(t, err)
	assert.Equal(t, model.StrategyRepeatPreferences, result.Strategy)

	angles := make(map[string]float64)
	for _, p := range result.Placements {
		if a, ok := angles[p.PartID]; ok {
			assert.Equal(t, a, p.Angle, "part %s", p.PartID)
		}
		angles[p.PartID] = p.Angle
	}
}

func TestNest_DoesNotMutateInput(t *testing.T) {
	parts := []model.Part{lPart("L", 2)}
	outer := parts[0].Outline.Outer()
	settings := testSettings()
	rotations := append([]float64(nil), settings.RotationAngles...)

	_, err := Nest(context.Background(), parts, []model.Sheet{{ID: "s", Width: 100, Height: 100, Quantity: 1}}, settings)
	require.NoError(t, err)
	assert.Equal(t, outer, parts[0].Outline.Outer())
	assert.Equal(t, rotations, settings.RotationAngles)
}

func TestNest_SimplifiesOutlines(t *testing.T) {
	ring := make(geometry.Ring, 0, 64)
	for i := 0; i < 64; i++ {
		// a square with every edge split into 16 collinear-ish steps
		switch side := i / 16; side {
		case 0:
			ring = append(ring, geometry.Pt(float64(i%16)*20.0/16, 0))
		case 1:
			ring = append(ring, geometry.Pt(20, float64(i%16)*20.0/16))
		case 2:
			ring = append(ring, geometry.Pt(20-float64(i%16)*20.0/16, 20))
		default:
			ring = append(ring, geometry.Pt(0, 20-float64(i%16)*20.0/16))
		}
	}
	outline, err := geometry.NewPolygon(ring)
	require.NoError(t, err)

	settings := testSettings()
	settings.SimplifyTolerance = 0.1
	result, err := Nest(context.Background(),
		[]model.Part{{ID: "p", Label: "p", Quantity: 1, Outline: outline}},
		[]model.Sheet{{ID: "s", Width: 100, Height: 100, Quantity: 1}},
		settings)
	require.NoError(t, err)
	require.Len(t, result.Placements, 1)
	assert.Less(t, result.Placements[0].Polygon.NumVertices(), outline.NumVertices())
	assert.InDelta(t, 400.0, geometry.Area(result.Placements[0].Polygon), 1e-6)
}
