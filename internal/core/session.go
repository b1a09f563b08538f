// Editing session: the state machine every user action goes through
package core

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"snappic/internal/algorithms"
	"snappic/internal/layers"
)

// Phase is the coarse state of a session.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseLoaded
	PhaseEdited
	PhaseCropped
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseLoaded:
		return "loaded"
	case PhaseEdited:
		return "edited"
	case PhaseCropped:
		return "cropped"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Option configures a Session.
type Option func(*Session)

// WithMaxDimension bounds the size of images accepted by Load.
func WithMaxDimension(n int) Option {
	return func(s *Session) { s.maxDimension = n }
}

// WithPresets replaces the resize presets.
func WithPresets(presets []Preset) Option {
	return func(s *Session) { s.presets = presets }
}

// WithAspectRatios replaces the aspect-ratio crops.
func WithAspectRatios(ratios []AspectRatio) Option {
	return func(s *Session) { s.ratios = ratios }
}

// WithDebugger collects stage timings for every composite.
func WithDebugger(pd *PipelineDebugger) Option {
	return func(s *Session) { s.engine.SetDebugger(pd) }
}

// WithScheduler makes recomposition asynchronous: operations return as soon
// as the state is updated and the processed image follows after the debounce
// delay.
func WithScheduler(delay time.Duration) Option {
	return func(s *Session) {
		s.scheduler = NewScheduler(s.logger, delay, s.snapshot, s.composeSafely, s.publish)
		s.scheduler.SetErrorHandler(s.notifyError)
	}
}

// Session owns one loaded image and everything needed to recompute its
// display: the immutable original, the working base (the original narrowed
// by crops and resizes), the filter state and the selective-edit history.
type Session struct {
	mu     sync.Mutex
	logger *logrus.Logger
	engine *Engine

	scheduler    *Scheduler
	maxDimension int
	presets      []Preset
	ratios       []AspectRatio

	original    gocv.Mat
	base        gocv.Mat
	processed   gocv.Mat
	baseVersion uint64
	published   uint64
	metadata    ImageMetadata
	geometry    bool

	state      FilterState
	history    *layers.History
	medianUsed bool
	oplog      *OpLog
	metrics    map[string]float64

	onChange func()
	onError  func(error)
}

func NewSession(logger *logrus.Logger, opts ...Option) *Session {
	s := &Session{
		logger:       logger,
		engine:       NewEngine(logger),
		maxDimension: DefaultMaxDimension,
		presets:      DefaultPresets(),
		ratios:       DefaultAspectRatios(),
		original:     gocv.NewMat(),
		base:         gocv.NewMat(),
		processed:    gocv.NewMat(),
		state:        Defaults(),
		history:      layers.NewHistory(logger),
		oplog:        NewOpLog(),
	}
	s.history.OnRegion(func(kind layers.EditKind, region image.Rectangle) {
		s.logger.WithFields(logrus.Fields{
			"kind":   kind.String(),
			"region": region.String(),
		}).Debug("SESSION: Selective region filtered")
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers a callback run after the processed image changed. With
// a scheduler it runs on the scheduler's goroutine.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// OnError registers a callback for background composite failures.
func (s *Session) OnError(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// Load replaces the session's image and resets every edit.
func (s *Session) Load(mat gocv.Mat, name string) error {
	if err := ValidateImage(mat, s.maxDimension); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.replaceMat(&s.original, mat.Clone())
	s.replaceMat(&s.base, mat.Clone())
	s.replaceMat(&s.processed, mat.Clone())
	s.metadata = newMetadata(mat, name)
	s.geometry = false
	s.baseChangedLocked()

	s.state = Defaults()
	s.history.Clear()
	s.medianUsed = false
	s.metrics = nil

	s.oplog.Reset()
	s.oplog.Add("Loaded: %s", filepath.Base(name))

	s.logger.WithFields(logrus.Fields{
		"name":     name,
		"size":     fmt.Sprintf("%dx%d", mat.Cols(), mat.Rows()),
		"channels": mat.Channels(),
	}).Info("SESSION: Image loaded")

	return s.recomputeLocked()
}

// SetGaussian sets the global gaussian blur (0-100).
func (s *Session) SetGaussian(v int) error {
	return s.mutate(func(st *FilterState) string {
		st.GaussianValue = v
		return lo.Ternary(v > 0, fmt.Sprintf("Gaussian Blur: %d", v), "")
	})
}

// SetMedian sets the global median blur (0-100).
func (s *Session) SetMedian(v int) error {
	return s.mutate(func(st *FilterState) string {
		st.MedianValue = v
		return lo.Ternary(v > 0, fmt.Sprintf("Median Blur: %d", v), "")
	})
}

// SetDarken sets the darken amount (0-100).
func (s *Session) SetDarken(v int) error {
	return s.mutate(func(st *FilterState) string {
		st.DarkenValue = v
		return lo.Ternary(v > 0, fmt.Sprintf("Darken: %d", v), "")
	})
}

// SetBrighten sets the brighten amount (0-100).
func (s *Session) SetBrighten(v int) error {
	return s.mutate(func(st *FilterState) string {
		st.BrightenValue = v
		return lo.Ternary(v > 0, fmt.Sprintf("Brighten: %d", v), "")
	})
}

// ToggleGrayscale flips grayscale. Turning it off also turns black & white off.
func (s *Session) ToggleGrayscale() error {
	return s.mutate(func(st *FilterState) string {
		st.Grayscale = !st.Grayscale
		if !st.Grayscale {
			st.BlackWhite = false
		}
		return "Grayscale: " + onOff(st.Grayscale)
	})
}

// ToggleBlackWhite flips black & white. It fails with ErrPreconditionNotMet,
// changing nothing, while grayscale is off.
func (s *Session) ToggleBlackWhite() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireImageLocked(); err != nil {
		return err
	}
	if !s.state.Grayscale {
		s.oplog.Add("Enable Grayscale first for B&W")
		return fmt.Errorf("%w: black & white requires grayscale", ErrPreconditionNotMet)
	}
	return s.mutateLocked(func(st *FilterState) string {
		st.BlackWhite = !st.BlackWhite
		return "Black & White: " + onOff(st.BlackWhite)
	})
}

// SetBWThreshold sets the black & white cut-off (0-255).
func (s *Session) SetBWThreshold(v int) error {
	return s.mutate(func(st *FilterState) string {
		st.BWThreshold = v
		return fmt.Sprintf("B&W Threshold: %d", v)
	})
}

// SetBackgroundMethod selects a background-removal method. Enabling one
// resets every other filter to its default; the selective edits, the crop
// and the background threshold are kept.
func (s *Session) SetBackgroundMethod(m algorithms.BackgroundMethod) error {
	return s.mutate(func(st *FilterState) string {
		if m == algorithms.BackgroundNone {
			st.BackgroundMethod = algorithms.BackgroundNone
			return "Background restored"
		}

		bg := st.BGThreshold
		*st = Defaults()
		st.BGThreshold = bg
		st.BackgroundMethod = m

		switch m {
		case algorithms.BackgroundGrabCut:
			return "Background removed (GrabCut)"
		case algorithms.BackgroundSimple:
			return fmt.Sprintf("Background removed (Simple, threshold: %d)", bg)
		case algorithms.BackgroundEdge:
			return "Background removed (Edge-based)"
		default:
			return fmt.Sprintf("Background removed (%s)", m)
		}
	})
}

// SetBGThreshold sets the near-white cut-off of the simple method (200-255).
func (s *Session) SetBGThreshold(v int) error {
	return s.mutate(func(st *FilterState) string {
		st.BGThreshold = v
		return fmt.Sprintf("Background Threshold: %d", v)
	})
}

// ToggleBinary flips the binary-mask preview overlay.
func (s *Session) ToggleBinary() error {
	return s.mutate(func(st *FilterState) string {
		st.ShowBinary = !st.ShowBinary
		return "Binary Mask: " + onOff(st.ShowBinary)
	})
}

// AddSelectiveEdit rasterises spec at the working size and appends a masked
// blur. Only one median edit is allowed per session; a second one fails with
// ErrMedianBudgetExceeded and leaves the history untouched. Undo does not
// give the budget back.
func (s *Session) AddSelectiveEdit(spec MaskSpec, kind layers.EditKind, intensity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireImageLocked(); err != nil {
		return err
	}
	if intensity < 0 || intensity > 100 {
		return fmt.Errorf("%w: intensity must be between 0 and 100, got %d", ErrInvalidParameter, intensity)
	}
	if kind != layers.EditGaussian && kind != layers.EditMedian {
		return fmt.Errorf("%w: unknown edit kind %v", ErrInvalidParameter, kind)
	}
	if kind == layers.EditMedian && s.medianUsed {
		s.logger.Warn("SESSION: Median selective edit rejected, budget already used")
		return ErrMedianBudgetExceeded
	}

	mask, err := BuildMask(spec, s.base.Cols(), s.base.Rows())
	if err != nil {
		return err
	}
	if err := s.history.Append(layers.SelectiveEdit{Mask: mask, Kind: kind, Intensity: intensity}); err != nil {
		mask.Close()
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if kind == layers.EditMedian {
		s.medianUsed = true
	}
	if bounds, ok := MaskBounds(mask); ok {
		s.logger.WithFields(logrus.Fields{
			"kind":   kind.String(),
			"bounds": bounds.String(),
		}).Info("SESSION: Selective edit added")
	} else {
		s.logger.WithField("kind", kind.String()).Warn("SESSION: Selective edit covers no pixels")
	}

	s.oplog.Add("Added %s blur area (%s, intensity: %d)", spec.Shape, kind, intensity)
	return s.recomputeLocked()
}

// PreviewSelection returns the processed image with spec's area tinted,
// without changing the session. The caller owns the result.
func (s *Session) PreviewSelection(spec MaskSpec) (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireImageLocked(); err != nil {
		return gocv.NewMat(), err
	}
	mask, err := BuildMask(spec, s.processed.Cols(), s.processed.Rows())
	if err != nil {
		return gocv.NewMat(), err
	}
	defer mask.Close()
	return MaskPreview(s.processed, mask)
}

// UndoLastEdit removes the newest selective edit. It reports false when there
// was nothing to remove.
func (s *Session) UndoLastEdit() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireImageLocked(); err != nil {
		return false, err
	}
	if _, ok := s.history.RemoveLast(); !ok {
		return false, nil
	}
	s.oplog.Add("Removed last selective blur area")
	return true, s.recomputeLocked()
}

// ClearEdits removes every selective edit.
func (s *Session) ClearEdits() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireImageLocked(); err != nil {
		return err
	}
	s.history.Clear()
	s.oplog.Add("Cleared all selective blur areas")
	return s.recomputeLocked()
}

// Crop permanently narrows the working image to r, given in working-image
// pixels. r is normalised and clipped; an empty result fails with
// ErrInvalidCropRegion. Crops compound, and selective masks are cropped with
// the image.
func (s *Session) Crop(r image.Rectangle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireImageLocked(); err != nil {
		return err
	}
	clipped, err := ClampCrop(r, s.base.Cols(), s.base.Rows())
	if err != nil {
		return err
	}

	current := s.cropLocked(clipped)
	s.oplog.Add("Cropped to: %dx%d pixels", clipped.Dx(), clipped.Dy())
	return s.settleCropLocked(current)
}

// CropToAspect crops the largest centred region with the given ratio.
func (s *Session) CropToAspect(ratio AspectRatio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireImageLocked(); err != nil {
		return err
	}
	r, err := AspectCropRect(s.base.Cols(), s.base.Rows(), ratio.Ratio())
	if err != nil {
		return err
	}
	if r.Empty() {
		return fmt.Errorf("%w: %s leaves nothing of %dx%d", ErrInvalidCropRegion, ratio, s.base.Cols(), s.base.Rows())
	}

	current := s.cropLocked(r)
	s.oplog.Add("Aspect ratio crop: %s (%dx%d)", ratio, r.Dx(), r.Dy())
	return s.settleCropLocked(current)
}

// CropToAspectName crops to one of the configured ratios, by name.
func (s *Session) CropToAspectName(name string) error {
	ratio, ok := lo.Find(s.ratios, func(a AspectRatio) bool { return a.Name == name })
	if !ok {
		return fmt.Errorf("%w: unknown aspect ratio %q", ErrInvalidParameter, name)
	}
	return s.CropToAspect(ratio)
}

// cropLocked narrows the base, the processed image and the masks to r. It
// reports whether the processed image was current and could be cropped in
// place.
func (s *Session) cropLocked(r image.Rectangle) bool {
	current := s.processedCurrentLocked()
	if current {
		s.replaceMat(&s.processed, cropMat(s.processed, r))
	}
	s.replaceMat(&s.base, cropMat(s.base, r))

	s.history.Transform(func(mask gocv.Mat) (gocv.Mat, error) {
		if mask.Cols() < r.Max.X || mask.Rows() < r.Max.Y {
			return gocv.NewMat(), fmt.Errorf("mask %dx%d does not cover %v", mask.Cols(), mask.Rows(), r)
		}
		m := mask.Region(r)
		defer m.Close()
		return m.Clone(), nil
	})

	s.geometry = true
	s.baseChangedLocked()
	s.logger.WithFields(logrus.Fields{
		"rect":     r.String(),
		"in_place": current,
	}).Info("SESSION: Working image cropped")
	return current
}

// processedCurrentLocked reports whether the processed image reflects the
// current base, state and history.
func (s *Session) processedCurrentLocked() bool {
	if s.processed.Empty() || s.processed.Cols() != s.base.Cols() || s.processed.Rows() != s.base.Rows() {
		return false
	}
	return s.scheduler == nil || s.published == s.scheduler.Generation()
}

// settleCropLocked finishes a crop. A processed image cropped in place is
// kept as the user saw it and only its metrics are refreshed; otherwise a
// composite is requested on the narrowed base.
func (s *Session) settleCropLocked(current bool) error {
	if !current {
		return s.recomputeLocked()
	}
	s.metrics = s.engine.Metrics(s.base, s.processed)
	if s.onChange != nil {
		go s.onChange()
	}
	return nil
}

func cropMat(src gocv.Mat, r image.Rectangle) gocv.Mat {
	region := src.Region(r)
	defer region.Close()
	return region.Clone()
}

// Resize scales the working image. A zero width or height keeps the aspect
// ratio; selective masks are scaled with the image.
func (s *Session) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireImageLocked(); err != nil {
		return err
	}
	if err := s.resizeLocked(width, height); err != nil {
		return err
	}

	switch {
	case width > 0 && height > 0:
		s.oplog.Add("Resized to: %dx%d", width, height)
	case width > 0:
		s.oplog.Add("Resized width to: %d", width)
	default:
		s.oplog.Add("Resized height to: %d", height)
	}
	return s.recomputeLocked()
}

// ResizePreset resizes the working image to a configured preset.
func (s *Session) ResizePreset(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireImageLocked(); err != nil {
		return err
	}
	preset, ok := lo.Find(s.presets, func(p Preset) bool { return p.Name == name })
	if !ok {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalidResize, name)
	}
	if err := s.resizeLocked(preset.Width, preset.Height); err != nil {
		return err
	}

	s.oplog.Add("Resized to: %s", preset)
	return s.recomputeLocked()
}

func (s *Session) resizeLocked(width, height int) error {
	w, h, err := algorithms.ResizeDims(s.base.Cols(), s.base.Rows(), width, height)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResize, err)
	}
	if w > s.maxDimension || h > s.maxDimension {
		return fmt.Errorf("%w: %dx%d exceeds the maximum dimension %d", ErrInvalidResize, w, h, s.maxDimension)
	}

	resized, err := algorithms.Resize(s.base, w, h)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResize, err)
	}
	s.replaceMat(&s.base, resized)

	size := image.Pt(w, h)
	s.history.Transform(func(mask gocv.Mat) (gocv.Mat, error) {
		scaled := gocv.NewMat()
		gocv.Resize(mask, &scaled, size, 0, 0, gocv.InterpolationLinear)
		return scaled, nil
	})

	s.geometry = true
	s.baseChangedLocked()
	s.logger.WithField("size", fmt.Sprintf("%dx%d", w, h)).Info("SESSION: Working image resized")
	return nil
}

// ResetCrop restores the working image to the uncropped, unresized original.
// Filters are kept; selective edits are cleared since their masks were drawn
// on the narrowed image.
func (s *Session) ResetCrop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireImageLocked(); err != nil {
		return err
	}
	s.replaceMat(&s.base, s.original.Clone())
	s.history.Clear()
	s.geometry = false
	s.baseChangedLocked()

	s.oplog.Add("Crop reset")
	return s.recomputeLocked()
}

// ResetAll returns to the freshly loaded original: default filters, no
// selective edits, no crop and a fresh median budget.
func (s *Session) ResetAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireImageLocked(); err != nil {
		return err
	}
	s.state = Defaults()
	s.history.Clear()
	s.medianUsed = false
	s.replaceMat(&s.base, s.original.Clone())
	s.geometry = false
	s.baseChangedLocked()

	s.oplog.Reset()
	s.oplog.Add("All filters reset")
	return s.recomputeLocked()
}

// Processed returns a copy of the current display image. The caller owns it.
func (s *Session) Processed() gocv.Mat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed.Clone()
}

// Original returns a copy of the loaded image. The caller owns it.
func (s *Session) Original() gocv.Mat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.original.Clone()
}

func (s *Session) State() FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.original.Empty():
		return PhaseEmpty
	case s.geometry:
		return PhaseCropped
	case !s.state.IsDefault() || s.history.Len() > 0:
		return PhaseEdited
	default:
		return PhaseLoaded
	}
}

// Size returns the working image dimensions.
func (s *Session) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base.Cols(), s.base.Rows()
}

// EditKinds lists the selective edits in creation order.
func (s *Session) EditKinds() []layers.EditKind {
	return s.history.Kinds()
}

func (s *Session) HistoryLen() int {
	return s.history.Len()
}

// MedianUsed reports whether the median selective edit has been spent.
func (s *Session) MedianUsed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.medianUsed
}

func (s *Session) Log() *OpLog {
	return s.oplog
}

func (s *Session) Metadata() ImageMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metadata
}

// Metrics returns the quality metrics of the last composite against the
// working image.
func (s *Session) Metrics() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Assign(map[string]float64{}, s.metrics)
}

func (s *Session) Presets() []Preset {
	return append([]Preset(nil), s.presets...)
}

func (s *Session) AspectRatios() []AspectRatio {
	return append([]AspectRatio(nil), s.ratios...)
}

// Wait blocks until any scheduled composite has been published.
func (s *Session) Wait() {
	if s.scheduler != nil {
		s.scheduler.Wait()
	}
}

// Close stops background work and releases every buffer.
func (s *Session) Close() {
	if s.scheduler != nil {
		s.scheduler.Stop()
		s.scheduler.Wait()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.original.Close()
	s.base.Close()
	s.processed.Close()
	s.history.Close()
	s.engine.Close()
}

func (s *Session) mutate(fn func(*FilterState) string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireImageLocked(); err != nil {
		return err
	}
	return s.mutateLocked(fn)
}

// mutateLocked applies fn to a copy of the state and commits it when valid.
// fn returns the operation-log line, or "" for none.
func (s *Session) mutateLocked(fn func(*FilterState) string) error {
	next := s.state
	msg := fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}

	s.state = next
	if msg != "" {
		s.oplog.Add("%s", msg)
	}
	return s.recomputeLocked()
}

func (s *Session) requireImageLocked() error {
	if s.original.Empty() {
		return ErrNoImageLoaded
	}
	return nil
}

func (s *Session) baseChangedLocked() {
	s.baseVersion++
	s.engine.Invalidate()
}

func (s *Session) replaceMat(dst *gocv.Mat, next gocv.Mat) {
	dst.Close()
	*dst = next
}

// recomputeLocked refreshes the processed image. A failed composite keeps the
// previous image and reports the error; the state change stands.
func (s *Session) recomputeLocked() error {
	if s.scheduler != nil {
		s.scheduler.Trigger()
		return nil
	}

	res, err := s.composeSafely(context.Background(), Job{
		Base:    s.base,
		Version: s.baseVersion,
		State:   s.state,
		History: s.history,
	})
	if err != nil {
		s.logger.WithError(err).Error("SESSION: Recompute failed, keeping previous image")
		return fmt.Errorf("recompute: %w", err)
	}

	s.replaceMat(&s.processed, res.Image)
	s.metrics = res.Metrics
	if s.onChange != nil {
		go s.onChange()
	}
	return nil
}

// composeSafely turns a panic inside an operator into an error.
func (s *Session) composeSafely(ctx context.Context, job Job) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("SESSION: Panic during composite")
			res = Result{Image: gocv.NewMat()}
			err = fmt.Errorf("panic during composite: %v", r)
		}
	}()
	return s.engine.Compose(ctx, job)
}

// snapshot copies what a background composite needs.
func (s *Session) snapshot() (Job, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireImageLocked(); err != nil {
		return Job{}, func() {}, err
	}
	base := s.base.Clone()
	history := s.history.Snapshot()
	job := Job{Base: base, Version: s.baseVersion, State: s.state, History: history}
	return job, func() {
		base.Close()
		history.Close()
	}, nil
}

// publish installs a background composite unless a newer one was requested.
func (s *Session) publish(gen uint64, res Result) bool {
	s.mu.Lock()
	if gen < s.published || gen != s.scheduler.Generation() {
		s.mu.Unlock()
		return false
	}
	s.published = gen
	s.replaceMat(&s.processed, res.Image)
	s.metrics = res.Metrics
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	return true
}

func (s *Session) notifyError(err error) {
	s.mu.Lock()
	onError := s.onError
	s.mu.Unlock()

	if onError != nil {
		onError(err)
	}
}

func onOff(b bool) string {
	return lo.Ternary(b, "ON", "OFF")
}
