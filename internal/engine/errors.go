package engine

import (
	"errors"

	"github.com/piwi3910/hypernest/internal/geometry"
)

// Errors returned by Nest before any generation runs. They are wrapped with
// context; test with errors.Is.
var (
	ErrEmptyPartSet    = errors.New("no part instances to nest")
	ErrNoSheetCapacity = errors.New("sheets have no usable area")
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrDegenerateGeometry is geometry.ErrDegenerateGeometry, reported for
	// parts whose outline is empty or collapses during simplification.
	ErrDegenerateGeometry = geometry.ErrDegenerateGeometry
)
