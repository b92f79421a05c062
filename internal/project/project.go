package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/hypernest/internal/model"
)

// Extension is the file extension of project files.
const Extension = ".hnest"

// ErrInvalidProject is returned when a project file parses but cannot be
// nested as is.
var ErrInvalidProject = errors.New("invalid project")

// SaveProject writes the project as JSON. The extension is added when path
// has none.
func SaveProject(path string, p model.Project) (string, error) {
	if filepath.Ext(path) == "" {
		path += Extension
	}
	if err := writeJSON(path, p); err != nil {
		return "", fmt.Errorf("save project %s: %w", path, err)
	}
	return path, nil
}

// LoadProject reads a project file. Part outlines are validated while
// decoding; settings missing from the file take their default values.
func LoadProject(path string) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Project{}, fmt.Errorf("load project: %w", err)
	}
	p := model.Project{Settings: model.DefaultSettings()}
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Project{}, fmt.Errorf("parse project %s: %w", path, err)
	}
	if err := validate(p); err != nil {
		return model.Project{}, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

func validate(p model.Project) error {
	ids := make(map[string]bool, len(p.Parts))
	for i, part := range p.Parts {
		if part.ID == "" {
			return fmt.Errorf("%w: part %d has no id", ErrInvalidProject, i)
		}
		if ids[part.ID] {
			return fmt.Errorf("%w: duplicate part id %q", ErrInvalidProject, part.ID)
		}
		ids[part.ID] = true
	}
	for i, s := range p.Sheets {
		if s.ID == "" {
			return fmt.Errorf("%w: sheet %d has no id", ErrInvalidProject, i)
		}
	}
	return nil
}
