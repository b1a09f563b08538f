package core

import (
	"fmt"
	"image"
)

// Preset is a named target size for social-media and video formats.
type Preset struct {
	Name   string `yaml:"name"`
	Label  string `yaml:"label"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

func (p Preset) String() string {
	return fmt.Sprintf("%s (%dx%d)", p.Label, p.Width, p.Height)
}

// AspectRatio is a named width:height proportion for centred crops.
type AspectRatio struct {
	Name   string  `yaml:"name"`
	Label  string  `yaml:"label"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

func (a AspectRatio) Ratio() float64 {
	return a.Width / a.Height
}

func (a AspectRatio) String() string {
	if a.Label != "" {
		return a.Label
	}
	return fmt.Sprintf("%.2f:1", a.Ratio())
}

// DefaultPresets returns the built-in resize presets.
func DefaultPresets() []Preset {
	return []Preset{
		{Name: "instagram", Label: "Instagram", Width: 1080, Height: 1080},
		{Name: "facebook", Label: "Facebook", Width: 1200, Height: 630},
		{Name: "twitter", Label: "Twitter", Width: 1200, Height: 675},
		{Name: "hd", Label: "HD", Width: 1280, Height: 720},
		{Name: "full_hd", Label: "Full HD", Width: 1920, Height: 1080},
		{Name: "4k", Label: "4K", Width: 3840, Height: 2160},
	}
}

// DefaultAspectRatios returns the built-in crop ratios.
func DefaultAspectRatios() []AspectRatio {
	return []AspectRatio{
		{Name: "1:1", Label: "1:1 (Square)", Width: 1, Height: 1},
		{Name: "4:3", Label: "4:3 (Standard)", Width: 4, Height: 3},
		{Name: "16:9", Label: "16:9 (Wide)", Width: 16, Height: 9},
		{Name: "3:2", Label: "3:2 (35mm Film)", Width: 3, Height: 2},
	}
}

// AspectCropRect returns the largest centred rectangle of a w x h image with
// the given width/height ratio.
func AspectCropRect(w, h int, ratio float64) (image.Rectangle, error) {
	if w <= 0 || h <= 0 || ratio <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: aspect crop of %dx%d to %.3f", ErrInvalidCropRegion, w, h, ratio)
	}

	if float64(w)/float64(h) > ratio {
		nw := int(float64(h) * ratio)
		x := (w - nw) / 2
		return image.Rect(x, 0, x+nw, h), nil
	}
	nh := int(float64(w) / ratio)
	y := (h - nh) / 2
	return image.Rect(0, y, w, y+nh), nil
}

// ClampCrop normalises r and clips it to a w x h image. An empty result is
// reported as ErrInvalidCropRegion.
func ClampCrop(r image.Rectangle, w, h int) (image.Rectangle, error) {
	clipped := r.Canon().Intersect(image.Rect(0, 0, w, h))
	if clipped.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: %v is outside the %dx%d image", ErrInvalidCropRegion, r, w, h)
	}
	return clipped, nil
}
