package engine

import (
	"math"

	"github.com/piwi3910/hypernest/internal/model"
)

// balancedStallLimit is the stall limit the balanced strategy sets when the
// settings leave it disabled.
const balancedStallLimit = 20

// EffectiveSettings validates s and returns the settings a run actually
// uses once the strategy is applied:
//
//   - max_efficiency uses the settings as given.
//   - balanced grows the population by half (rounded up), halves the
//     generations (at least one) and stops after 20 stalled generations
//     unless a stall limit is set.
//   - repeat_preferences keeps the numbers; every copy of a part starts with
//     the rotation drawn for its first copy and keeps it under mutation.
func EffectiveSettings(s model.Settings) (model.Settings, error) {
	if err := validateSettings(&s); err != nil {
		return model.Settings{}, err
	}
	s.RotationAngles = append([]float64(nil), s.RotationAngles...)
	if s.Strategy == model.StrategyBalanced {
		s.PopulationSize = int(math.Ceil(float64(s.PopulationSize) * 1.5))
		s.Generations = max(1, s.Generations/2)
		if s.StallLimit == 0 {
			s.StallLimit = balancedStallLimit
		}
	}
	return s, nil
}
