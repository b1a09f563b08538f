package core

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAspectCropRect(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		ratio float64
		want  image.Rectangle
	}{
		{"square from landscape", 200, 100, 1, image.Rect(50, 0, 150, 100)},
		{"square from portrait", 100, 200, 1, image.Rect(0, 50, 100, 150)},
		{"wide from landscape", 200, 100, 16.0 / 9.0, image.Rect(11, 0, 188, 100)},
		{"already square", 80, 80, 1, image.Rect(0, 0, 80, 80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AspectCropRect(tt.w, tt.h, tt.ratio)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := AspectCropRect(100, 100, 0)
	assert.ErrorIs(t, err, ErrInvalidCropRegion)
}

func TestClampCrop(t *testing.T) {
	got, err := ClampCrop(image.Rect(80, 90, 20, 10), 100, 100)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(20, 10, 80, 90), got)

	got, err = ClampCrop(image.Rect(-20, 50, 50, 150), 100, 100)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 50, 50, 100), got)

	_, err = ClampCrop(image.Rect(100, 0, 120, 50), 100, 100)
	assert.ErrorIs(t, err, ErrInvalidCropRegion)

	_, err = ClampCrop(image.Rect(10, 10, 10, 50), 100, 100)
	assert.ErrorIs(t, err, ErrInvalidCropRegion)
}

func TestPresetsAndRatios(t *testing.T) {
	presets := DefaultPresets()
	require.NotEmpty(t, presets)
	assert.Equal(t, "Instagram (1080x1080)", presets[0].String())

	ratios := DefaultAspectRatios()
	require.Len(t, ratios, 4)
	assert.InDelta(t, 16.0/9.0, ratios[2].Ratio(), 1e-9)
	assert.Equal(t, "1.50:1", AspectRatio{Width: 3, Height: 2}.String())
}
