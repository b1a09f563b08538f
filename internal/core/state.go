package core

import (
	"fmt"

	"snappic/internal/algorithms"
)

// Default values for the thresholds of a fresh FilterState.
const (
	DefaultBWThreshold = 127
	DefaultBGThreshold = algorithms.DefaultBackgroundThreshold
)

// FilterState holds every global adjustment replayed on each composite.
// Selective edits live in the session's history and the crop is applied
// destructively, so neither is part of it.
type FilterState struct {
	GaussianValue    int                         `yaml:"gaussian" json:"gaussian"`
	MedianValue      int                         `yaml:"median" json:"median"`
	DarkenValue      int                         `yaml:"darken" json:"darken"`
	BrightenValue    int                         `yaml:"brighten" json:"brighten"`
	Grayscale        bool                        `yaml:"grayscale" json:"grayscale"`
	BlackWhite       bool                        `yaml:"black_white" json:"black_white"`
	BWThreshold      int                         `yaml:"bw_threshold" json:"bw_threshold"`
	BackgroundMethod algorithms.BackgroundMethod `yaml:"background" json:"background"`
	BGThreshold      int                         `yaml:"bg_threshold" json:"bg_threshold"`
	ShowBinary       bool                        `yaml:"show_binary" json:"show_binary"`
}

// Defaults returns the state of a freshly loaded image.
func Defaults() FilterState {
	return FilterState{
		BWThreshold: DefaultBWThreshold,
		BGThreshold: DefaultBGThreshold,
	}
}

// IsDefault reports whether s would leave the image unchanged, thresholds
// aside.
func (s FilterState) IsDefault() bool {
	d := Defaults()
	d.BWThreshold, d.BGThreshold = s.BWThreshold, s.BGThreshold
	return s == d
}

// Validate checks every field against its range.
func (s FilterState) Validate() error {
	for name, v := range map[string]int{
		"gaussian": s.GaussianValue,
		"median":   s.MedianValue,
		"darken":   s.DarkenValue,
		"brighten": s.BrightenValue,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s must be between 0 and 100, got %d", ErrInvalidParameter, name, v)
		}
	}
	if s.BWThreshold < 0 || s.BWThreshold > 255 {
		return fmt.Errorf("%w: black & white threshold must be between 0 and 255, got %d",
			ErrInvalidParameter, s.BWThreshold)
	}
	if s.BGThreshold < algorithms.MinBackgroundThreshold || s.BGThreshold > algorithms.MaxBackgroundThreshold {
		return fmt.Errorf("%w: background threshold must be between %d and %d, got %d",
			ErrInvalidParameter, algorithms.MinBackgroundThreshold, algorithms.MaxBackgroundThreshold, s.BGThreshold)
	}
	if s.BlackWhite && !s.Grayscale {
		return fmt.Errorf("%w: black & white requires grayscale", ErrPreconditionNotMet)
	}
	if s.BackgroundMethod != algorithms.BackgroundNone {
		if _, ok := algorithms.Get(s.BackgroundMethod); !ok {
			return fmt.Errorf("%w: unknown background method %q", ErrInvalidParameter, s.BackgroundMethod)
		}
	}
	return nil
}
