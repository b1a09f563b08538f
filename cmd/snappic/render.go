package main

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"snappic/internal/algorithms"
	"snappic/internal/core"
	"snappic/internal/io"
	"snappic/internal/layers"
)

type renderOptions struct {
	output      string
	maskPreview string

	gaussian, median int
	darken, brighten int
	grayscale, bw    bool
	bwThreshold      int
	background       string
	bgThreshold      int
	binary           bool
	masks            []string
	crop, aspect     string
	resize, preset   string
}

// selectiveFlag is one parsed --mask value.
type selectiveFlag struct {
	spec      core.MaskSpec
	kind      layers.EditKind
	intensity int
}

func newRenderCmd(global *globalOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render INPUT",
		Short: "Apply edits to INPUT and write the result",
		Long: `Apply edits to INPUT and write the result to --output.

Geometry is applied first (crop, aspect crop, resize), then selective
areas, then the global filters. Masks use the working image's pixel
coordinates after geometry:

  --mask rectangle:10,10,200,120:gaussian:60
  --mask circle:50,50,150,150:median:40
  --mask freeform:10,10,90,15,60,80:gaussian:70`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, global, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (format from extension)")
	f.StringVar(&opts.maskPreview, "mask-preview", "", "also write the result with every --mask area tinted")
	f.IntVar(&opts.gaussian, "gaussian", 0, "gaussian blur 0-100")
	f.IntVar(&opts.median, "median", 0, "median blur 0-100")
	f.IntVar(&opts.darken, "darken", 0, "darken 0-100")
	f.IntVar(&opts.brighten, "brighten", 0, "brighten 0-100")
	f.BoolVar(&opts.grayscale, "grayscale", false, "convert to grayscale")
	f.BoolVar(&opts.bw, "bw", false, "black & white (implies --grayscale)")
	f.IntVar(&opts.bwThreshold, "bw-threshold", core.DefaultBWThreshold, "black & white threshold 0-255")
	f.StringVar(&opts.background, "background", "none", "background removal: none, grabcut, simple, edge")
	f.IntVar(&opts.bgThreshold, "bg-threshold", core.DefaultBGThreshold, "near-white threshold of the simple method")
	f.BoolVar(&opts.binary, "binary", false, "overlay the binary mask preview")
	f.StringArrayVar(&opts.masks, "mask", nil, "selective blur shape:coords:kind:intensity (repeatable)")
	f.StringVar(&opts.crop, "crop", "", "crop rectangle x1,y1,x2,y2")
	f.StringVar(&opts.aspect, "aspect", "", "centred crop to a named aspect ratio")
	f.StringVar(&opts.resize, "resize", "", "resize to WxH, Wx or xH")
	f.StringVar(&opts.preset, "preset", "", "resize to a named preset")
	_ = cmd.MarkFlagRequired("output")
	cmd.MarkFlagsMutuallyExclusive("resize", "preset")

	return cmd
}

func runRender(cmd *cobra.Command, global *globalOptions, opts *renderOptions, input string) error {
	cfg, logger, err := global.load()
	if err != nil {
		return err
	}
	cfg.Preview.Async = false

	sessionOpts := cfg.SessionOptions()
	var debugger *core.PipelineDebugger
	if global.debug {
		debugger = core.NewPipelineDebugger(logger)
		sessionOpts = append(sessionOpts, core.WithDebugger(debugger))
	}
	session := core.NewSession(logger, sessionOpts...)
	defer session.Close()

	loader := io.NewImageLoader(logger)
	mat, err := loader.LoadImage(input)
	if err != nil {
		return err
	}
	err = session.Load(mat, input)
	mat.Close()
	if err != nil {
		return err
	}

	masks, err := parseMasks(opts.masks)
	if err != nil {
		return err
	}
	steps, err := opts.steps(cmd.Flags(), session, masks)
	if err != nil {
		return err
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	processed := session.Processed()
	defer processed.Close()
	if err := loader.SaveImage(processed, opts.output); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, line := range session.Log().Lines() {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Saved: %s (%dx%d)\n", opts.output, processed.Cols(), processed.Rows())
	if opts.maskPreview != "" {
		if err := writeMaskPreview(session, loader, masks, opts.maskPreview); err != nil {
			return err
		}
		fmt.Fprintf(out, "Mask preview: %s\n", opts.maskPreview)
	}
	if debugger != nil {
		debugger.WriteStatus(cmd.ErrOrStderr())
	}

	logger.WithFields(logrus.Fields{
		"input":  input,
		"output": opts.output,
		"phase":  session.Phase().String(),
	}).Info("RENDER: Done")
	return nil
}

// steps parses every changed flag up front and returns the session calls in
// application order, so a bad flag fails before any work is done.
func (o *renderOptions) steps(flags *pflag.FlagSet, s *core.Session, masks []selectiveFlag) ([]func() error, error) {
	changed := flags.Changed
	var steps []func() error

	if o.crop != "" {
		r, err := parseRect(o.crop)
		if err != nil {
			return nil, err
		}
		steps = append(steps, func() error { return s.Crop(r) })
	}
	if o.aspect != "" {
		steps = append(steps, func() error { return s.CropToAspectName(o.aspect) })
	}
	if o.resize != "" {
		w, h, err := parseSize(o.resize)
		if err != nil {
			return nil, err
		}
		steps = append(steps, func() error { return s.Resize(w, h) })
	}
	if o.preset != "" {
		steps = append(steps, func() error { return s.ResizePreset(o.preset) })
	}

	for _, m := range masks {
		steps = append(steps, func() error { return s.AddSelectiveEdit(m.spec, m.kind, m.intensity) })
	}

	// background first: enabling a method resets the other filters
	if changed("background") {
		method, err := algorithms.ParseBackgroundMethod(o.background)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidParameter, err)
		}
		steps = append(steps, func() error { return s.SetBackgroundMethod(method) })
	}
	if changed("bg-threshold") {
		steps = append(steps, func() error { return s.SetBGThreshold(o.bgThreshold) })
	}

	for _, set := range []struct {
		flag  string
		value int
		apply func(int) error
	}{
		{"gaussian", o.gaussian, s.SetGaussian},
		{"median", o.median, s.SetMedian},
		{"darken", o.darken, s.SetDarken},
		{"brighten", o.brighten, s.SetBrighten},
		{"bw-threshold", o.bwThreshold, s.SetBWThreshold},
	} {
		if changed(set.flag) {
			steps = append(steps, func() error { return set.apply(set.value) })
		}
	}

	if o.grayscale || o.bw {
		steps = append(steps, s.ToggleGrayscale)
	}
	if o.bw {
		steps = append(steps, s.ToggleBlackWhite)
	}
	if o.binary {
		steps = append(steps, s.ToggleBinary)
	}
	return steps, nil
}

// writeMaskPreview tints each mask area on the final image, one over the other.
func writeMaskPreview(s *core.Session, loader *io.ImageLoader, masks []selectiveFlag, path string) error {
	preview := s.Processed()
	defer func() { preview.Close() }()

	for _, m := range masks {
		mask, err := core.BuildMask(m.spec, preview.Cols(), preview.Rows())
		if err != nil {
			return err
		}
		tinted, err := core.MaskPreview(preview, mask)
		mask.Close()
		if err != nil {
			return err
		}
		preview.Close()
		preview = tinted
	}
	return loader.SaveImage(preview, path)
}

func parseMasks(raw []string) ([]selectiveFlag, error) {
	masks := make([]selectiveFlag, 0, len(raw))
	for _, r := range raw {
		m, err := parseMask(r)
		if err != nil {
			return nil, err
		}
		masks = append(masks, m)
	}
	return masks, nil
}

func parseInts(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	values := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", core.ErrInvalidParameter, f)
		}
		values[i] = v
	}
	return values, nil
}

// parseRect reads "x1,y1,x2,y2"; the corners may come in any order.
func parseRect(s string) (image.Rectangle, error) {
	v, err := parseInts(s)
	if err != nil {
		return image.Rectangle{}, err
	}
	if len(v) != 4 {
		return image.Rectangle{}, fmt.Errorf("%w: rectangle needs x1,y1,x2,y2, got %q", core.ErrInvalidCropRegion, s)
	}
	return image.Rect(v[0], v[1], v[2], v[3]), nil
}

// parseSize reads "WxH", "Wx" or "xH". A missing side keeps the aspect ratio.
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok || (ws == "" && hs == "") {
		return 0, 0, fmt.Errorf("%w: size must look like WxH, got %q", core.ErrInvalidResize, s)
	}

	side := func(text string) (int, error) {
		if text == "" {
			return 0, nil
		}
		v, err := strconv.Atoi(text)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("%w: %q is not a size in pixels", core.ErrInvalidResize, text)
		}
		return v, nil
	}

	w, err := side(ws)
	if err != nil {
		return 0, 0, err
	}
	h, err := side(hs)
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

// parseMask reads "shape:coords:kind:intensity". Rectangles and circles take
// two corners x1,y1,x2,y2; freeform takes at least three x,y points.
func parseMask(s string) (selectiveFlag, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return selectiveFlag{}, fmt.Errorf("%w: mask must be shape:coords:kind:intensity, got %q", core.ErrInvalidParameter, s)
	}

	shape, err := core.ParseMaskShape(parts[0])
	if err != nil {
		return selectiveFlag{}, err
	}
	coords, err := parseInts(parts[1])
	if err != nil {
		return selectiveFlag{}, err
	}
	kind, err := layers.ParseEditKind(parts[2])
	if err != nil {
		return selectiveFlag{}, fmt.Errorf("%w: %v", core.ErrInvalidParameter, err)
	}
	intensity, err := strconv.Atoi(parts[3])
	if err != nil {
		return selectiveFlag{}, fmt.Errorf("%w: intensity %q is not an integer", core.ErrInvalidParameter, parts[3])
	}

	spec := core.MaskSpec{Shape: shape}
	switch shape {
	case core.ShapeFreeform:
		if len(coords) < 6 || len(coords)%2 != 0 {
			return selectiveFlag{}, fmt.Errorf("%w: freeform needs at least three x,y points", core.ErrInvalidParameter)
		}
		for i := 0; i < len(coords); i += 2 {
			spec.Points = append(spec.Points, image.Pt(coords[i], coords[i+1]))
		}
		spec.Start, spec.End = spec.Points[0], spec.Points[len(spec.Points)-1]
	default:
		if len(coords) != 4 {
			return selectiveFlag{}, fmt.Errorf("%w: %s needs x1,y1,x2,y2", core.ErrInvalidParameter, shape)
		}
		spec.Start = image.Pt(coords[0], coords[1])
		spec.End = image.Pt(coords[2], coords[3])
	}

	return selectiveFlag{spec: spec, kind: kind, intensity: intensity}, nil
}
