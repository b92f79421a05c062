package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Defaults applied to new projects
	DefaultPartSpacing  float64   `json:"default_part_spacing"`
	DefaultMargin       float64   `json:"default_margin"`
	DefaultPopulation   int       `json:"default_population"`
	DefaultGenerations  int       `json:"default_generations"`
	DefaultMutationRate float64   `json:"default_mutation_rate"`
	DefaultRotations    []float64 `json:"default_rotations"`
	DefaultStrategy     Strategy  `json:"default_strategy"`

	// Application preferences
	OutputDir      string   `json:"output_dir"`     // "" = next to the project file
	ExportFormats  []string `json:"export_formats"` // Used when -formats is not given
	RecentProjects []string `json:"recent_projects"`
}

// DefaultAppConfig returns an AppConfig populated with defaults matching
// DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultPartSpacing:  defaults.Spacing.PartToPart,
		DefaultMargin:       defaults.Spacing.Margin,
		DefaultPopulation:   defaults.PopulationSize,
		DefaultGenerations:  defaults.Generations,
		DefaultMutationRate: defaults.MutationRate,
		DefaultRotations:    append([]float64(nil), defaults.RotationAngles...),
		DefaultStrategy:     defaults.Strategy,
		ExportFormats:       []string{"pdf", "csv"},
		RecentProjects:      []string{},
	}
}

// ApplyToSettings copies the default values from AppConfig into s.
// This is used when creating a new project so it inherits the user's saved defaults.
func (c AppConfig) ApplyToSettings(s *Settings) {
	s.Spacing.PartToPart = c.DefaultPartSpacing
	s.Spacing.Margin = c.DefaultMargin
	if c.DefaultPopulation > 0 {
		s.PopulationSize = c.DefaultPopulation
	}
	if c.DefaultGenerations > 0 {
		s.Generations = c.DefaultGenerations
	}
	s.MutationRate = c.DefaultMutationRate
	if len(c.DefaultRotations) > 0 {
		s.RotationAngles = append([]float64(nil), c.DefaultRotations...)
	}
	if c.DefaultStrategy != "" {
		s.Strategy = c.DefaultStrategy
	}
}

// AddRecentProject moves path to the front of the recent list, keeping at
// most limit entries.
func (c *AppConfig) AddRecentProject(path string, limit int) {
	recent := []string{path}
	for _, p := range c.RecentProjects {
		if p != path && len(recent) < limit {
			recent = append(recent, p)
		}
	}
	c.RecentProjects = recent
}
