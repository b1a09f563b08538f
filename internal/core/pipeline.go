// Composition engine: replays the filter state over the working image
package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"snappic/internal/algorithms"
	"snappic/internal/layers"
	"snappic/internal/metrics"
)

// Stage names, in the order a composite runs them.
const (
	StageGaussian   = "gaussian"
	StageMedian     = "median"
	StageSelective  = "selective"
	StageDarken     = "darken"
	StageBrighten   = "brighten"
	StageGrayscale  = "grayscale"
	StageBlackWhite = "blackwhite"
	StageBackground = "background"
	StageBinary     = "binary"
)

// StageOrder lists every composite stage in execution order.
var StageOrder = []string{
	StageGaussian, StageMedian, StageSelective, StageDarken, StageBrighten,
	StageGrayscale, StageBlackWhite, StageBackground, StageBinary,
}

// Job is everything one composite needs. Version identifies the contents of
// Base; it must change whenever Base does.
type Job struct {
	Base    gocv.Mat
	Version uint64
	State   FilterState
	History *layers.History
}

// Result is a finished composite. The receiver owns Image.
type Result struct {
	Image    gocv.Mat
	Metrics  map[string]float64
	Duration time.Duration
}

type stage struct {
	name string
	skip bool
	run  func(gocv.Mat) (gocv.Mat, error)
}

// blurKey identifies the output of the global blur stages, which every later
// stage starts from.
type blurKey struct {
	version  uint64
	gaussian int
	median   int
}

// Engine runs composites and memoises the global blur output between them.
type Engine struct {
	mu          sync.Mutex
	logger      *logrus.Logger
	debugger    *PipelineDebugger
	metricsEval *metrics.Evaluator

	memoKey blurKey
	memo    gocv.Mat
}

func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{
		logger:      logger,
		metricsEval: metrics.NewEvaluator(),
		memo:        gocv.NewMat(),
	}
}

// SetDebugger attaches a stage-timing collector.
func (e *Engine) SetDebugger(pd *PipelineDebugger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.debugger = pd
}

// Invalidate drops the memoised blur output.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.memo.Close()
	e.memo = gocv.NewMat()
	e.memoKey = blurKey{}
}

// Metrics scores img against the base it was derived from.
func (e *Engine) Metrics(base, img gocv.Mat) map[string]float64 {
	return e.metricsEval.CalculateAll(base, img)
}

// Close releases the memo.
func (e *Engine) Close() {
	e.Invalidate()
}

// Compose recomputes the displayed image from job.Base in the fixed order:
// gaussian, median, selective edits (gaussian pass then median pass), darken,
// brighten, grayscale then black & white, background removal, binary overlay.
// ctx is checked between stages.
func (e *Engine) Compose(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	size := fmt.Sprintf("%dx%d", job.Base.Cols(), job.Base.Rows())

	if job.Base.Empty() {
		return Result{Image: gocv.NewMat()}, ErrNoImageLoaded
	}
	if err := job.State.Validate(); err != nil {
		return Result{Image: gocv.NewMat()}, err
	}

	current, err := e.blurred(ctx, job)
	if err != nil {
		e.debugger.LogComposite(size, time.Since(start), err)
		return Result{Image: gocv.NewMat()}, err
	}

	for _, st := range e.laterStages(job) {
		if err := ctx.Err(); err != nil {
			current.Close()
			return Result{Image: gocv.NewMat()}, err
		}
		if st.skip {
			e.debugger.LogStage(st.name, true, 0, nil)
			continue
		}

		t := time.Now()
		next, err := st.run(current)
		e.debugger.LogStage(st.name, false, time.Since(t), err)
		if err != nil {
			next.Close()
			current.Close()
			err = fmt.Errorf("%s stage: %w", st.name, err)
			e.debugger.LogComposite(size, time.Since(start), err)
			return Result{Image: gocv.NewMat()}, err
		}
		current.Close()
		current = next
	}

	res := Result{
		Image:    current,
		Metrics:  e.metricsEval.CalculateAll(job.Base, current),
		Duration: time.Since(start),
	}
	e.debugger.LogComposite(size, res.Duration, nil)
	e.logger.WithFields(logrus.Fields{
		"size":        size,
		"channels":    current.Channels(),
		"psnr":        res.Metrics["psnr"],
		"mse":         res.Metrics["mse"],
		"duration_ms": res.Duration.Milliseconds(),
	}).Debug("PIPELINE: Composite completed")
	return res, nil
}

// blurred returns a copy of the base after the global gaussian and median
// stages, reusing the previous output when neither the base nor the two
// values changed.
func (e *Engine) blurred(ctx context.Context, job Job) (gocv.Mat, error) {
	key := blurKey{version: job.Version, gaussian: job.State.GaussianValue, median: job.State.MedianValue}

	e.mu.Lock()
	if key == e.memoKey && !e.memo.Empty() {
		out := e.memo.Clone()
		e.mu.Unlock()
		e.debugger.LogStage(StageGaussian, true, 0, nil)
		e.debugger.LogStage(StageMedian, true, 0, nil)
		e.logger.Debug("PIPELINE: Reusing memoised blur output")
		return out, nil
	}
	e.mu.Unlock()

	current := job.Base.Clone()
	for _, st := range []stage{
		{
			name: StageGaussian,
			skip: job.State.GaussianValue == 0,
			run:  func(m gocv.Mat) (gocv.Mat, error) { return algorithms.GaussianBlur(m, job.State.GaussianValue) },
		},
		{
			name: StageMedian,
			skip: job.State.MedianValue == 0,
			run:  func(m gocv.Mat) (gocv.Mat, error) { return algorithms.MedianBlur(m, job.State.MedianValue) },
		},
	} {
		if err := ctx.Err(); err != nil {
			current.Close()
			return gocv.NewMat(), err
		}
		if st.skip {
			e.debugger.LogStage(st.name, true, 0, nil)
			continue
		}
		t := time.Now()
		next, err := st.run(current)
		e.debugger.LogStage(st.name, false, time.Since(t), err)
		if err != nil {
			next.Close()
			current.Close()
			return gocv.NewMat(), fmt.Errorf("%s stage: %w", st.name, err)
		}
		current.Close()
		current = next
	}

	if job.Version != 0 {
		e.mu.Lock()
		e.memo.Close()
		e.memo = current.Clone()
		e.memoKey = key
		e.mu.Unlock()
	}
	return current, nil
}

func (e *Engine) laterStages(job Job) []stage {
	s := job.State
	return []stage{
		{
			name: StageSelective,
			skip: job.History == nil || job.History.Len() == 0,
			run:  func(m gocv.Mat) (gocv.Mat, error) { return job.History.Apply(m) },
		},
		{
			name: StageDarken,
			skip: s.DarkenValue == 0,
			run:  func(m gocv.Mat) (gocv.Mat, error) { return algorithms.Darken(m, s.DarkenValue) },
		},
		{
			name: StageBrighten,
			skip: s.BrightenValue == 0,
			run:  func(m gocv.Mat) (gocv.Mat, error) { return algorithms.Brighten(m, s.BrightenValue) },
		},
		{
			name: StageGrayscale,
			skip: !s.Grayscale,
			run:  algorithms.Grayscale,
		},
		{
			name: StageBlackWhite,
			skip: !s.Grayscale || !s.BlackWhite,
			run:  func(m gocv.Mat) (gocv.Mat, error) { return algorithms.BlackWhite(m, s.BWThreshold) },
		},
		{
			name: StageBackground,
			skip: s.BackgroundMethod == algorithms.BackgroundNone,
			run: func(m gocv.Mat) (gocv.Mat, error) {
				return algorithms.RemoveBackground(s.BackgroundMethod, m, s.BGThreshold)
			},
		},
		{
			name: StageBinary,
			skip: !s.ShowBinary,
			run:  func(m gocv.Mat) (gocv.Mat, error) { return algorithms.BinaryMaskOverlay(m, algorithms.ThresholdOtsu) },
		},
	}
}

// Compose runs a single composite without memoisation or logging. The
// caller owns the returned Mat.
func Compose(ctx context.Context, base gocv.Mat, state FilterState, history *layers.History) (gocv.Mat, error) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	e := NewEngine(logger)
	defer e.Close()

	res, err := e.Compose(ctx, Job{Base: base, State: state, History: history})
	return res.Image, err
}
