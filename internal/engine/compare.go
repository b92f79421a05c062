package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/hypernest/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.Settings
}

// ComparisonResult holds the nesting result and computed statistics
// for a single scenario.
type ComparisonResult struct {
	Scenario      ComparisonScenario
	Result        model.NestingResult
	Err           error // Validation error; the other fields are zero
	SheetsUsed    int
	Utilization   float64 // 0..1
	WastePercent  float64
	UnplacedCount int
}

// CompareScenarios runs a nesting for each scenario and returns the results
// in scenario order. This enables side-by-side comparison of different
// parameters (strategies, spacing, seeds). A scenario with invalid settings
// reports its error without stopping the others; cancellation stops the
// remaining scenarios.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, parts []model.Part, sheets []model.Sheet, opts ...Option) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		if ctx.Err() != nil {
			break
		}
		result, err := Nest(ctx, parts, sheets, scenario.Settings, opts...)
		if err != nil {
			results = append(results, ComparisonResult{Scenario: scenario, Err: err})
			continue
		}
		results = append(results, ComparisonResult{
			Scenario:      scenario,
			Result:        result,
			SheetsUsed:    len(result.UsedSheets()),
			Utilization:   result.Utilization,
			WastePercent:  result.WastePercent(),
			UnplacedCount: len(result.UnplacedParts),
		})
	}

	return results
}

// Best returns the index of the result with the highest fitness among the
// successful ones, or -1.
func Best(results []ComparisonResult) int {
	best := -1
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		if best < 0 || r.Result.Fitness > results[best].Result.Fitness {
			best = i
		}
	}
	return best
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(baseSettings model.Settings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: baseSettings,
		},
	}

	// Scenario: each of the other strategies
	current := baseSettings.Strategy
	if current == "" {
		current = model.StrategyMaxEfficiency
	}
	for _, st := range model.Strategies() {
		if st == current {
			continue
		}
		alt := baseSettings
		alt.Strategy = st
		scenarios = append(scenarios, ComparisonScenario{
			Name:     st.String() + " Strategy",
			Settings: alt,
		})
	}

	// Scenario: no part spacing (simulate a zero-kerf cutter)
	if baseSettings.Spacing.PartToPart > 0 {
		noGap := baseSettings
		noGap.Spacing.PartToPart = 0
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "No Part Spacing",
			Settings: noGap,
		})
	}

	// Scenario: another seed, to show the spread of the search
	reseeded := baseSettings
	reseeded.RandomSeed = baseSettings.RandomSeed + 1
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Seed %d", reseeded.RandomSeed),
		Settings: reseeded,
	})

	return scenarios
}
