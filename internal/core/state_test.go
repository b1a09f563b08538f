package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"snappic/internal/algorithms"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.Equal(t, 127, d.BWThreshold)
	assert.Equal(t, 240, d.BGThreshold)
	assert.True(t, d.IsDefault())
	assert.NoError(t, d.Validate())

	d.BWThreshold, d.BGThreshold = 10, 250
	assert.True(t, d.IsDefault(), "thresholds alone do not change the image")

	d.ShowBinary = true
	assert.False(t, d.IsDefault())
}

func TestFilterStateValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*FilterState)
		want   error
	}{
		{"gaussian too high", func(s *FilterState) { s.GaussianValue = 101 }, ErrInvalidParameter},
		{"median negative", func(s *FilterState) { s.MedianValue = -1 }, ErrInvalidParameter},
		{"brighten too high", func(s *FilterState) { s.BrightenValue = 200 }, ErrInvalidParameter},
		{"bw threshold", func(s *FilterState) { s.BWThreshold = 256 }, ErrInvalidParameter},
		{"bg threshold low", func(s *FilterState) { s.BGThreshold = 199 }, ErrInvalidParameter},
		{"bg threshold high", func(s *FilterState) { s.BGThreshold = 256 }, ErrInvalidParameter},
		{"black white alone", func(s *FilterState) { s.BlackWhite = true }, ErrPreconditionNotMet},
		{"unknown method", func(s *FilterState) { s.BackgroundMethod = "lasso" }, ErrInvalidParameter},
		{"all at limits", func(s *FilterState) {
			s.GaussianValue, s.MedianValue, s.DarkenValue, s.BrightenValue = 100, 100, 100, 100
			s.Grayscale, s.BlackWhite = true, true
			s.BWThreshold, s.BGThreshold = 0, 255
			s.BackgroundMethod = algorithms.BackgroundGrabCut
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.modify(&s)
			err := s.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFilterStateFromYAML(t *testing.T) {
	doc := `
gaussian: 20
grayscale: true
black_white: true
bw_threshold: 100
background: simple
`
	s := Defaults()
	require.NoError(t, yaml.Unmarshal([]byte(doc), &s))
	require.NoError(t, s.Validate())

	want := Defaults()
	want.GaussianValue = 20
	want.Grayscale, want.BlackWhite = true, true
	want.BWThreshold = 100
	want.BackgroundMethod = algorithms.BackgroundSimple
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("decoded state (-want +got):\n%s", diff)
	}
}
