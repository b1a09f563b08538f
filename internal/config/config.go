// Configuration loaded from YAML on top of built-in defaults
package config

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"snappic/internal/core"
)

type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Preview PreviewConfig `yaml:"preview"`
	Resize  ResizeConfig  `yaml:"resize"`
	Crop    CropConfig    `yaml:"crop"`
	Image   ImageConfig   `yaml:"image"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PreviewConfig controls recomposition and the on-screen preview.
type PreviewConfig struct {
	Debounce  time.Duration `yaml:"debounce"`
	MaxWidth  int           `yaml:"max_width"`
	MaxHeight int           `yaml:"max_height"`
	Async     bool          `yaml:"async"`
}

type SizeConfig struct {
	Label  string `yaml:"label"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type ResizeConfig struct {
	Presets map[string]SizeConfig `yaml:"presets"`
}

type RatioConfig struct {
	Label  string  `yaml:"label"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type CropConfig struct {
	AspectRatios map[string]RatioConfig `yaml:"aspect_ratios"`
}

type ImageConfig struct {
	MaxDimension int `yaml:"max_dimension"`
}

// Default returns a fully populated configuration.
func Default() *Config {
	cfg := &Config{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Preview: PreviewConfig{
			Debounce:  150 * time.Millisecond,
			MaxWidth:  1600,
			MaxHeight: 1000,
			Async:     true,
		},
		Resize: ResizeConfig{Presets: make(map[string]SizeConfig)},
		Crop:   CropConfig{AspectRatios: make(map[string]RatioConfig)},
		Image:  ImageConfig{MaxDimension: core.DefaultMaxDimension},
	}
	for _, p := range core.DefaultPresets() {
		cfg.Resize.Presets[p.Name] = SizeConfig{Label: p.Label, Width: p.Width, Height: p.Height}
	}
	for _, a := range core.DefaultAspectRatios() {
		cfg.Crop.AspectRatios[a.Name] = RatioConfig{Label: a.Label, Width: a.Width, Height: a.Height}
	}
	return cfg
}

// Load reads path over the defaults. Presets and aspect ratios in the file
// are added to the built-in ones, replacing those with the same name. An
// empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	if c.Preview.Debounce < 0 {
		errs = append(errs, fmt.Errorf("preview.debounce must not be negative"))
	}
	if c.Preview.MaxWidth <= 0 || c.Preview.MaxHeight <= 0 {
		errs = append(errs, fmt.Errorf("preview.max_width and preview.max_height must be positive"))
	}
	if c.Image.MaxDimension <= 0 {
		errs = append(errs, fmt.Errorf("image.max_dimension must be positive"))
	}
	for _, name := range lo.Keys(c.Resize.Presets) {
		p := c.Resize.Presets[name]
		if p.Width <= 0 || p.Height <= 0 {
			errs = append(errs, fmt.Errorf("resize.presets.%s: width and height must be positive", name))
		} else if p.Width > c.Image.MaxDimension || p.Height > c.Image.MaxDimension {
			errs = append(errs, fmt.Errorf("resize.presets.%s: exceeds image.max_dimension", name))
		}
	}
	for _, name := range lo.Keys(c.Crop.AspectRatios) {
		a := c.Crop.AspectRatios[name]
		if a.Width <= 0 || a.Height <= 0 {
			errs = append(errs, fmt.Errorf("crop.aspect_ratios.%s: width and height must be positive", name))
		}
	}

	return errors.Join(errs...)
}

// LogLevel returns the configured level, Info when it does not parse.
func (c *Config) LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// Presets returns the resize presets sorted by name. A preset without a
// label is labelled with its name.
func (c *Config) Presets() []core.Preset {
	names := lo.Keys(c.Resize.Presets)
	slices.Sort(names)
	return lo.Map(names, func(name string, _ int) core.Preset {
		p := c.Resize.Presets[name]
		return core.Preset{
			Name:   name,
			Label:  lo.Ternary(p.Label != "", p.Label, name),
			Width:  p.Width,
			Height: p.Height,
		}
	})
}

// AspectRatios returns the crop ratios, widest last.
func (c *Config) AspectRatios() []core.AspectRatio {
	ratios := lo.MapToSlice(c.Crop.AspectRatios, func(name string, a RatioConfig) core.AspectRatio {
		return core.AspectRatio{
			Name:   name,
			Label:  lo.Ternary(a.Label != "", a.Label, name),
			Width:  a.Width,
			Height: a.Height,
		}
	})
	slices.SortFunc(ratios, func(a, b core.AspectRatio) int {
		return cmp.Or(cmp.Compare(a.Ratio(), b.Ratio()), strings.Compare(a.Name, b.Name))
	})
	return ratios
}

// SessionOptions turns the configuration into session options.
func (c *Config) SessionOptions() []core.Option {
	opts := []core.Option{
		core.WithMaxDimension(c.Image.MaxDimension),
		core.WithPresets(c.Presets()),
		core.WithAspectRatios(c.AspectRatios()),
	}
	if c.Preview.Async {
		opts = append(opts, core.WithScheduler(c.Preview.Debounce))
	}
	return opts
}
