package core

import (
	"bytes"
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"snappic/internal/algorithms"
	"snappic/internal/layers"
)

func newEngine(t *testing.T) (*Engine, *PipelineDebugger) {
	t.Helper()
	logger := nullLogger()
	pd := NewPipelineDebugger(logger)
	e := NewEngine(logger)
	e.SetDebugger(pd)
	t.Cleanup(e.Close)
	return e, pd
}

func compose(t *testing.T, e *Engine, job Job) Result {
	t.Helper()
	res, err := e.Compose(context.Background(), job)
	require.NoError(t, err)
	t.Cleanup(func() { res.Image.Close() })
	return res
}

func ranStages(records []StageRecord) []string {
	ran := lo.Filter(records, func(r StageRecord, _ int) bool { return !r.Skipped })
	return lo.Map(ran, func(r StageRecord, _ int) string { return r.Stage })
}

func TestComposeStageOrder(t *testing.T) {
	e, pd := newEngine(t)
	base := noiseImage(t, 64, 64, 20)

	h := layers.NewHistory(nullLogger())
	defer h.Close()
	mask, err := BuildMask(rectSpec(10, 10, 40, 40), 64, 64)
	require.NoError(t, err)
	require.NoError(t, h.Append(layers.SelectiveEdit{Mask: mask, Kind: layers.EditGaussian, Intensity: 30}))

	state := FilterState{
		GaussianValue:    10,
		MedianValue:      10,
		DarkenValue:      10,
		BrightenValue:    10,
		Grayscale:        true,
		BlackWhite:       true,
		BWThreshold:      DefaultBWThreshold,
		BackgroundMethod: algorithms.BackgroundEdge,
		BGThreshold:      DefaultBGThreshold,
		ShowBinary:       true,
	}
	res := compose(t, e, Job{Base: base, Version: 1, State: state, History: h})

	assert.Equal(t, StageOrder, ranStages(pd.Records()))
	assert.Equal(t, 4, res.Image.Channels())
	assert.Equal(t, 64, res.Image.Rows())
	assert.Contains(t, res.Metrics, "psnr")
}

func TestComposeSkipsDefaultStages(t *testing.T) {
	e, pd := newEngine(t)
	base := noiseImage(t, 32, 32, 21)

	res := compose(t, e, Job{Base: base, State: Defaults()})

	assert.Empty(t, ranStages(pd.Records()))
	assert.Len(t, pd.Records(), len(StageOrder))
	assert.Equal(t, base.ToBytes(), res.Image.ToBytes())
}

func TestComposeMemoisesBlur(t *testing.T) {
	e, pd := newEngine(t)
	base := noiseImage(t, 48, 48, 22)

	state := Defaults()
	state.GaussianValue = 30
	first := compose(t, e, Job{Base: base, Version: 1, State: state})
	assert.Equal(t, []string{StageGaussian}, ranStages(pd.Records()))

	// A later-stage change reuses the blurred image.
	state.DarkenValue = 20
	compose(t, e, Job{Base: base, Version: 1, State: state})
	assert.Equal(t, []string{StageGaussian, StageDarken}, ranStages(pd.Records()))

	state.DarkenValue = 0
	again := compose(t, e, Job{Base: base, Version: 1, State: state})
	assert.Equal(t, first.Image.ToBytes(), again.Image.ToBytes())

	// A new base version recomputes.
	compose(t, e, Job{Base: base, Version: 2, State: state})
	assert.Equal(t, []string{StageGaussian, StageDarken, StageGaussian}, ranStages(pd.Records()))

	e.Invalidate()
	compose(t, e, Job{Base: base, Version: 2, State: state})
	assert.Equal(t, []string{StageGaussian, StageDarken, StageGaussian, StageGaussian}, ranStages(pd.Records()))
}

func TestComposeWithoutVersionIsNotMemoised(t *testing.T) {
	e, pd := newEngine(t)
	base := noiseImage(t, 32, 32, 23)

	state := Defaults()
	state.MedianValue = 20
	compose(t, e, Job{Base: base, State: state})
	compose(t, e, Job{Base: base, State: state})
	assert.Equal(t, []string{StageMedian, StageMedian}, ranStages(pd.Records()))
}

func TestComposeErrors(t *testing.T) {
	e, pd := newEngine(t)

	empty := gocv.NewMat()
	defer empty.Close()
	res, err := e.Compose(context.Background(), Job{Base: empty, State: Defaults()})
	assert.ErrorIs(t, err, ErrNoImageLoaded)
	res.Image.Close()

	base := noiseImage(t, 16, 16, 24)
	bad := Defaults()
	bad.BlackWhite = true
	res, err = e.Compose(context.Background(), Job{Base: base, State: bad})
	assert.ErrorIs(t, err, ErrPreconditionNotMet)
	res.Image.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state := Defaults()
	state.GaussianValue = 10
	res, err = e.Compose(ctx, Job{Base: base, State: state})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.Image.Empty())
	res.Image.Close()

	var status bytes.Buffer
	pd.WriteStatus(&status)
	assert.Contains(t, status.String(), "=== PIPELINE STATUS ===")
}

func TestPipelineDebuggerStats(t *testing.T) {
	e, pd := newEngine(t)
	base := noiseImage(t, 32, 32, 25)

	state := Defaults()
	state.BrightenValue = 40
	compose(t, e, Job{Base: base, State: state})
	compose(t, e, Job{Base: base, State: state})

	stats := pd.GetStats()
	assert.Equal(t, 2*len(StageOrder), stats["total_stages"])
	assert.Equal(t, 2, stats["total_composites"])
	assert.Equal(t, 0, stats["failures"])
	assert.Contains(t, stats, "avg_brighten_time")
	assert.NotContains(t, stats, "avg_darken_time")

	var status bytes.Buffer
	pd.WriteStatus(&status)
	assert.Contains(t, status.String(), "Composites: 2 (0 failed)")
	assert.Contains(t, status.String(), "brighten")
}

func TestNilDebuggerIsSafe(t *testing.T) {
	var pd *PipelineDebugger
	assert.NotPanics(t, func() {
		pd.LogStage(StageDarken, false, 0, nil)
		pd.LogComposite("1x1", 0, nil)
	})
}
