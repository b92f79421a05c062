package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/hypernest/internal/model"
)

// Preset is a named set of nesting settings the user can reuse across
// projects.
type Preset struct {
	Name     string         `json:"name"`
	Settings model.Settings `json:"settings"`
}

// DefaultPresetsPath returns the default file path for saved presets.
func DefaultPresetsPath() string {
	return filepath.Join(DefaultConfigDir(), "presets.json")
}

// SavePresets saves presets to a JSON file.
func SavePresets(path string, presets []Preset) error {
	return writeJSON(path, presets)
}

// LoadPresets loads presets from a JSON file.
// Returns an empty slice if the file does not exist.
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Preset{}, nil
		}
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}
	presets := make([]Preset, 0, len(raw))
	for i, msg := range raw {
		// every preset starts from the defaults so partial presets work
		p := Preset{Settings: model.DefaultSettings()}
		if err := json.Unmarshal(msg, &p); err != nil {
			return nil, fmt.Errorf("parse presets %s: preset %d: %w", path, i, err)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("parse presets %s: preset %d has no name", path, i)
		}
		presets = append(presets, p)
	}
	return presets, nil
}

// FindPreset returns the preset with the given name.
func FindPreset(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// UpsertPreset replaces the preset with the same name or appends p.
func UpsertPreset(presets []Preset, p Preset) []Preset {
	for i := range presets {
		if presets[i].Name == p.Name {
			presets[i] = p
			return presets
		}
	}
	return append(presets, p)
}
