package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/hypernest/internal/model"
)

func TestBuildDefaultScenarios(t *testing.T) {
	base := testSettings()
	scenarios := BuildDefaultScenarios(base)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"Current Settings",
		"Balanced Strategy",
		"Repeat Preferences Strategy",
		"No Part Spacing",
		"Seed 8",
	}, names)

	assert.Equal(t, base, scenarios[0].Settings)
	assert.Equal(t, model.StrategyBalanced, scenarios[1].Settings.Strategy)
	assert.Zero(t, scenarios[3].Settings.Spacing.PartToPart)
	assert.Equal(t, base.Spacing.Margin, scenarios[3].Settings.Spacing.Margin)
	assert.Equal(t, int64(8), scenarios[4].Settings.RandomSeed)
}

func TestBuildDefaultScenarios_NoSpacingScenarioWithoutSpacing(t *testing.T) {
	base := testSettings()
	base.Spacing.PartToPart = 0
	base.Strategy = model.StrategyBalanced
	for _, s := range BuildDefaultScenarios(base) {
		assert.NotEqual(t, "No Part Spacing", s.Name)
		assert.NotEqual(t, "Balanced Strategy", s.Name)
	}
}

func TestCompareScenarios(t *testing.T) {
	parts := []model.Part{rectPart("A", 30, 20, 4)}
	sheets := []model.Sheet{{ID: "s", Name: "sheet", Width: 100, Height: 100, Quantity: 2}}

	bad := testSettings()
	bad.PopulationSize = 0
	scenarios := append(BuildDefaultScenarios(testSettings()), ComparisonScenario{Name: "Broken", Settings: bad})

	results := CompareScenarios(context.Background(), scenarios, parts, sheets)
	require.Len(t, results, len(scenarios))

	for i, r := range results[:len(results)-1] {
		require.NoError(t, r.Err, r.Scenario.Name)
		assert.Equal(t, scenarios[i].Name, r.Scenario.Name)
		assert.Equal(t, len(r.Result.UsedSheets()), r.SheetsUsed)
		assert.Equal(t, r.Result.Utilization, r.Utilization)
		assert.Zero(t, r.UnplacedCount)
	}
	last := results[len(results)-1]
	assert.ErrorIs(t, last.Err, ErrInvalidSettings)

	b := Best(results)
	require.GreaterOrEqual(t, b, 0)
	assert.Less(t, b, len(results)-1)
	for _, r := range results[:len(results)-1] {
		assert.LessOrEqual(t, r.Result.Fitness, results[b].Result.Fitness)
	}
}

func TestCompareScenarios_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := CompareScenarios(ctx, BuildDefaultScenarios(testSettings()),
		[]model.Part{rectPart("A", 10, 10, 1)},
		[]model.Sheet{{ID: "s", Width: 50, Height: 50, Quantity: 1}})
	assert.Empty(t, results)
}

func TestBest_NoSuccessfulResults(t *testing.T) {
	assert.Equal(t, -1, Best(nil))
	assert.Equal(t, -1, Best([]ComparisonResult{{Err: ErrInvalidSettings}}))
}

func TestEffectiveSettings(t *testing.T) {
	base := testSettings()

	got, err := EffectiveSettings(base)
	require.NoError(t, err)
	assert.Equal(t, base.PopulationSize, got.PopulationSize)
	assert.Equal(t, model.StrategyMaxEfficiency, got.Strategy)

	base.Strategy = model.StrategyBalanced
	base.PopulationSize = 11
	base.Generations = 1
	got, err = EffectiveSettings(base)
	require.NoError(t, err)
	assert.Equal(t, 17, got.PopulationSize)
	assert.Equal(t, 1, got.Generations)
	assert.Equal(t, balancedStallLimit, got.StallLimit)

	base.StallLimit = 5
	got, err = EffectiveSettings(base)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StallLimit)

	base.Strategy = ""
	base.TournamentSize = 0
	got, err = EffectiveSettings(base)
	require.NoError(t, err)
	assert.Equal(t, model.StrategyMaxEfficiency, got.Strategy)
	assert.Equal(t, 3, got.TournamentSize)
}
