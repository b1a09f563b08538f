package core

import (
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"snappic/internal/algorithms"
	"snappic/internal/layers"
	"snappic/internal/metrics"
)

func TestSessionWithoutImage(t *testing.T) {
	s := NewSession(nullLogger())
	defer s.Close()

	assert.Equal(t, PhaseEmpty, s.Phase())
	assert.ErrorIs(t, s.SetGaussian(10), ErrNoImageLoaded)
	assert.ErrorIs(t, s.ToggleGrayscale(), ErrNoImageLoaded)
	assert.ErrorIs(t, s.ToggleBlackWhite(), ErrNoImageLoaded)
	assert.ErrorIs(t, s.SetBackgroundMethod(algorithms.BackgroundSimple), ErrNoImageLoaded)
	assert.ErrorIs(t, s.AddSelectiveEdit(rectSpec(0, 0, 5, 5), layers.EditGaussian, 50), ErrNoImageLoaded)
	assert.ErrorIs(t, s.Crop(image.Rect(0, 0, 5, 5)), ErrNoImageLoaded)
	assert.ErrorIs(t, s.Resize(10, 10), ErrNoImageLoaded)
	assert.ErrorIs(t, s.ResetCrop(), ErrNoImageLoaded)
	assert.ErrorIs(t, s.ResetAll(), ErrNoImageLoaded)

	_, err := s.UndoLastEdit()
	assert.ErrorIs(t, err, ErrNoImageLoaded)
	assert.Zero(t, s.Log().Len())
}

func TestSessionLoadRejectsUnsupportedImages(t *testing.T) {
	s := NewSession(nullLogger(), WithMaxDimension(64))
	defer s.Close()

	gray := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC1)
	defer gray.Close()
	assert.ErrorIs(t, s.Load(gray, "gray.png"), ErrUnsupportedImage)

	assert.ErrorIs(t, s.Load(grayImage(t, 65, 10, 100), "tall.png"), ErrUnsupportedImage)
	assert.Equal(t, PhaseEmpty, s.Phase())
}

func TestSessionLoad(t *testing.T) {
	s := loadedSession(t, noiseImage(t, 40, 60, 1))

	assert.Equal(t, PhaseLoaded, s.Phase())
	w, h := s.Size()
	assert.Equal(t, 60, w)
	assert.Equal(t, 40, h)
	assert.Equal(t, ImageMetadata{Name: "photo.png", Format: "png", Width: 60, Height: 40, Channels: 3}, s.Metadata())
	assert.Equal(t, []string{"Loaded: photo.png"}, s.Log().Messages())
	assert.InDelta(t, metrics.MaxPSNR, s.Metrics()["psnr"], 1e-9)
	assert.Zero(t, s.Metrics()["mse"])
}

func TestGaussianOnUniformImage(t *testing.T) {
	s := loadedSession(t, grayImage(t, 100, 100, 128))
	require.NoError(t, s.SetGaussian(50))

	k, _ := algorithms.GaussianKernel(50)
	assert.Equal(t, 51, k)

	out := processed(t, s)
	assert.Equal(t, 100, out.Rows())
	assert.Equal(t, 100, out.Cols())
	assert.Equal(t, 3, out.Channels())
	for _, v := range out.ToBytes() {
		require.InDelta(t, 128, int(v), 1)
	}
}

func TestSetterValidation(t *testing.T) {
	s := loadedSession(t, noiseImage(t, 20, 20, 2))

	assert.ErrorIs(t, s.SetGaussian(101), ErrInvalidParameter)
	assert.ErrorIs(t, s.SetDarken(-1), ErrInvalidParameter)
	assert.ErrorIs(t, s.SetBWThreshold(256), ErrInvalidParameter)
	assert.ErrorIs(t, s.SetBGThreshold(199), ErrInvalidParameter)
	assert.ErrorIs(t, s.SetBackgroundMethod("magic"), ErrInvalidParameter)

	assert.Equal(t, Defaults(), s.State())
	assert.Equal(t, 1, s.Log().Len())
}

func TestBlackWhiteNeedsGrayscale(t *testing.T) {
	s := loadedSession(t, noiseImage(t, 20, 20, 3))

	assert.ErrorIs(t, s.ToggleBlackWhite(), ErrPreconditionNotMet)
	assert.False(t, s.State().BlackWhite)
	assert.Equal(t, "Enable Grayscale first for B&W", lastMessage(s))

	require.NoError(t, s.ToggleGrayscale())
	require.NoError(t, s.ToggleBlackWhite())
	assert.True(t, s.State().BlackWhite)

	out := processed(t, s)
	for _, v := range out.ToBytes() {
		require.True(t, v == 0 || v == 255, "black & white output must be binary, got %d", v)
	}

	// Turning grayscale off takes black & white with it.
	require.NoError(t, s.ToggleGrayscale())
	assert.False(t, s.State().Grayscale)
	assert.False(t, s.State().BlackWhite)
}

func TestBackgroundRemovalResetsOtherFilters(t *testing.T) {
	s := loadedSession(t, noiseImage(t, 60, 60, 4))

	require.NoError(t, s.SetGaussian(10))
	require.NoError(t, s.SetDarken(20))
	require.NoError(t, s.ToggleGrayscale())
	require.NoError(t, s.SetBGThreshold(230))
	require.NoError(t, s.AddSelectiveEdit(rectSpec(10, 10, 40, 40), layers.EditGaussian, 40))

	require.NoError(t, s.SetBackgroundMethod(algorithms.BackgroundSimple))

	want := Defaults()
	want.BGThreshold = 230
	want.BackgroundMethod = algorithms.BackgroundSimple
	if diff := cmp.Diff(want, s.State()); diff != "" {
		t.Errorf("state after enabling background removal (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, s.HistoryLen())
	assert.Equal(t, "Background removed (Simple, threshold: 230)", lastMessage(s))
	gotMat := processed(t, s)
	assert.Equal(t, 4, gotMat.Channels())
}

func TestMedianBudget(t *testing.T) {
	s := loadedSession(t, noiseImage(t, 80, 80, 5))

	require.NoError(t, s.AddSelectiveEdit(rectSpec(10, 10, 40, 40), layers.EditMedian, 60))
	assert.True(t, s.MedianUsed())

	assert.ErrorIs(t, s.AddSelectiveEdit(rectSpec(40, 40, 70, 70), layers.EditMedian, 60), ErrMedianBudgetExceeded)
	assert.Equal(t, 1, s.HistoryLen())

	// Gaussian edits are unlimited.
	require.NoError(t, s.AddSelectiveEdit(rectSpec(40, 40, 70, 70), layers.EditGaussian, 60))
	require.NoError(t, s.AddSelectiveEdit(rectSpec(0, 0, 20, 20), layers.EditGaussian, 30))

	// Undo does not refund the budget.
	removed, err := s.UndoLastEdit()
	require.NoError(t, err)
	assert.True(t, removed)
	require.NoError(t, s.ClearEdits())
	assert.ErrorIs(t, s.AddSelectiveEdit(rectSpec(10, 10, 40, 40), layers.EditMedian, 60), ErrMedianBudgetExceeded)

	require.NoError(t, s.ResetAll())
	assert.False(t, s.MedianUsed())
	require.NoError(t, s.AddSelectiveEdit(rectSpec(10, 10, 40, 40), layers.EditMedian, 60))
}

func TestSelectiveEditBookkeeping(t *testing.T) {
	s := loadedSession(t, noiseImage(t, 80, 80, 6))

	removed, err := s.UndoLastEdit()
	require.NoError(t, err)
	assert.False(t, removed)

	assert.ErrorIs(t, s.AddSelectiveEdit(rectSpec(0, 0, 10, 10), layers.EditGaussian, 101), ErrInvalidParameter)

	require.NoError(t, s.AddSelectiveEdit(rectSpec(5, 5, 30, 30), layers.EditGaussian, 40))
	circle := MaskSpec{Shape: ShapeCircle, Start: image.Pt(30, 30), End: image.Pt(60, 60)}
	require.NoError(t, s.AddSelectiveEdit(circle, layers.EditMedian, 50))

	assert.Equal(t, []layers.EditKind{layers.EditGaussian, layers.EditMedian}, s.EditKinds())
	assert.Equal(t, PhaseEdited, s.Phase())
	assert.Equal(t, "Added circle blur area (median, intensity: 50)", lastMessage(s))

	require.NoError(t, s.ClearEdits())
	assert.Zero(t, s.HistoryLen())
	assert.Equal(t, "Cleared all selective blur areas", lastMessage(s))
	assert.Equal(t, PhaseLoaded, s.Phase())
}

func TestSelectiveEditStaysInsideMask(t *testing.T) {
	img := noiseImage(t, 200, 200, 7)
	s := loadedSession(t, img)

	require.NoError(t, s.AddSelectiveEdit(rectSpec(90, 90, 110, 110), layers.EditGaussian, 100))
	out := processed(t, s)

	// Feathering reaches at most half the 21px kernel past the drawn box.
	inner := image.Rect(79, 79, 121, 121)
	want, got := img.ToBytes(), out.ToBytes()
	changed := 0
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			off := (y*200 + x) * 3
			same := want[off] == got[off] && want[off+1] == got[off+1] && want[off+2] == got[off+2]
			if !same {
				changed++
				require.True(t, image.Pt(x, y).In(inner), "pixel (%d,%d) outside the feathered box changed", x, y)
			}
		}
	}
	assert.Positive(t, changed)
}

func TestCrop(t *testing.T) {
	img := noiseImage(t, 100, 200, 8)
	s := loadedSession(t, img)

	require.NoError(t, s.Crop(image.Rect(110, 60, 10, 10)))
	w, h := s.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
	assert.Equal(t, PhaseCropped, s.Phase())
	assert.Equal(t, "Cropped to: 100x50 pixels", lastMessage(s))

	// Crops compound on the already cropped image.
	require.NoError(t, s.Crop(image.Rect(0, 0, 50, 50)))
	w, h = s.Size()
	assert.Equal(t, 50, w)
	assert.Equal(t, 50, h)

	region := img.Region(image.Rect(10, 10, 60, 60))
	defer region.Close()
	want := region.Clone()
	defer want.Close()
	gotMat := processed(t, s)
	assert.Equal(t, want.ToBytes(), gotMat.ToBytes())

	original := s.Original()
	defer original.Close()
	assert.Equal(t, 200, original.Cols())
}

func TestCropNarrowsWhatWasShown(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Session) error
	}{
		{"gaussian", func(s *Session) error { return s.SetGaussian(100) }},
		{"median", func(s *Session) error { return s.SetMedian(60) }},
		{"background", func(s *Session) error { return s.SetBackgroundMethod(algorithms.BackgroundSimple) }},
	}

	r := image.Rect(5, 10, 85, 70)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loadedSession(t, noiseImage(t, 80, 100, 17))
			require.NoError(t, tt.setup(s))

			before := processed(t, s)
			region := before.Region(r)
			defer region.Close()
			want := region.Clone()
			defer want.Close()

			require.NoError(t, s.Crop(r))
			got := processed(t, s)
			assert.Equal(t, want.Channels(), got.Channels())
			assert.Equal(t, want.ToBytes(), got.ToBytes())
			assert.Contains(t, s.Metrics(), "psnr")

			w, h := s.Size()
			assert.Equal(t, r.Dx(), w)
			assert.Equal(t, r.Dy(), h)
		})
	}
}

func TestAsyncCropNarrowsWhatWasShown(t *testing.T) {
	img := noiseImage(t, 80, 100, 18)
	s := NewSession(nullLogger(), WithScheduler(5*time.Millisecond))
	defer s.Close()

	require.NoError(t, s.Load(img, "async.png"))
	require.NoError(t, s.SetGaussian(100))
	s.Wait()

	r := image.Rect(20, 10, 80, 60)
	before := processed(t, s)
	region := before.Region(r)
	defer region.Close()
	want := region.Clone()
	defer want.Close()

	require.NoError(t, s.Crop(r))
	s.Wait()
	gotMat := processed(t, s)
	assert.Equal(t, want.ToBytes(), gotMat.ToBytes())

	// With a composite still pending the crop is recomputed at the new size.
	require.NoError(t, s.SetDarken(20))
	require.NoError(t, s.Crop(image.Rect(0, 0, 30, 30)))
	s.Wait()
	got := processed(t, s)
	assert.Equal(t, 30, got.Cols())
	assert.Equal(t, 30, got.Rows())
}

func TestCropOutsideImage(t *testing.T) {
	s := loadedSession(t, noiseImage(t, 50, 50, 9))

	assert.ErrorIs(t, s.Crop(image.Rect(60, 60, 80, 80)), ErrInvalidCropRegion)
	assert.ErrorIs(t, s.Crop(image.Rect(10, 10, 10, 40)), ErrInvalidCropRegion)

	w, h := s.Size()
	assert.Equal(t, 50, w)
	assert.Equal(t, 50, h)
	assert.Equal(t, PhaseLoaded, s.Phase())

	// Partly outside is clipped.
	require.NoError(t, s.Crop(image.Rect(30, -10, 90, 20)))
	w, h = s.Size()
	assert.Equal(t, 20, w)
	assert.Equal(t, 20, h)
}

func TestMasksFollowGeometry(t *testing.T) {
	s := loadedSession(t, noiseImage(t, 100, 100, 10))

	require.NoError(t, s.AddSelectiveEdit(rectSpec(20, 20, 60, 60), layers.EditGaussian, 50))
	require.NoError(t, s.Crop(image.Rect(10, 10, 90, 90)))
	assert.Equal(t, 1, s.HistoryLen())

	require.NoError(t, s.Resize(40, 0))
	assert.Equal(t, 1, s.HistoryLen())
	w, h := s.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 40, h)

	require.NoError(t, s.ResetCrop())
	assert.Zero(t, s.HistoryLen())
	w, h = s.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 100, h)
}

func TestResize(t *testing.T) {
	s := loadedSession(t, noiseImage(t, 100, 200, 11))

	require.NoError(t, s.Resize(100, 0))
	w, h := s.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
	assert.Equal(t, "Resized width to: 100", lastMessage(s))

	require.NoError(t, s.Resize(0, 25))
	w, h = s.Size()
	assert.Equal(t, 50, w)
	assert.Equal(t, 25, h)
	assert.Equal(t, "Resized height to: 25", lastMessage(s))

	assert.ErrorIs(t, s.Resize(0, 0), ErrInvalidResize)
	assert.ErrorIs(t, s.Resize(-5, 10), ErrInvalidResize)
	assert.ErrorIs(t, s.ResizePreset("poster"), ErrInvalidResize)

	require.NoError(t, s.ResizePreset("hd"))
	w, h = s.Size()
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)
	assert.Equal(t, "Resized to: HD (1280x720)", lastMessage(s))
	assert.Equal(t, PhaseCropped, s.Phase())
}

func TestCropToAspect(t *testing.T) {
	s := loadedSession(t, noiseImage(t, 100, 200, 12))

	require.NoError(t, s.CropToAspectName("1:1"))
	w, h := s.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 100, h)
	assert.Equal(t, "Aspect ratio crop: 1:1 (Square) (100x100)", lastMessage(s))

	assert.ErrorIs(t, s.CropToAspectName("5:4"), ErrInvalidParameter)
}

func TestResetAll(t *testing.T) {
	s := loadedSession(t, noiseImage(t, 60, 80, 13))

	require.NoError(t, s.SetBrighten(30))
	require.NoError(t, s.AddSelectiveEdit(rectSpec(0, 0, 30, 30), layers.EditGaussian, 20))
	require.NoError(t, s.Crop(image.Rect(0, 0, 40, 40)))

	require.NoError(t, s.ResetAll())
	assert.Equal(t, Defaults(), s.State())
	assert.Zero(t, s.HistoryLen())
	assert.Equal(t, PhaseLoaded, s.Phase())
	assert.Equal(t, []string{"All filters reset"}, s.Log().Messages())

	original := s.Original()
	defer original.Close()
	gotMat := processed(t, s)
	assert.Equal(t, original.ToBytes(), gotMat.ToBytes())
}

func TestOperationLog(t *testing.T) {
	s := loadedSession(t, noiseImage(t, 30, 30, 14))

	require.NoError(t, s.SetGaussian(30))
	require.NoError(t, s.SetGaussian(0))
	require.NoError(t, s.SetMedian(10))
	require.NoError(t, s.ToggleGrayscale())
	require.NoError(t, s.SetBWThreshold(90))
	require.NoError(t, s.ToggleBinary())
	require.NoError(t, s.SetBackgroundMethod(algorithms.BackgroundEdge))

	want := []string{
		"Loaded: photo.png",
		"Gaussian Blur: 30",
		"Median Blur: 10",
		"Grayscale: ON",
		"B&W Threshold: 90",
		"Binary Mask: ON",
		"Background removed (Edge-based)",
	}
	if diff := cmp.Diff(want, s.Log().Messages()); diff != "" {
		t.Errorf("operation log (-want +got):\n%s", diff)
	}
}

func TestSessionMatchesStandaloneCompose(t *testing.T) {
	img := noiseImage(t, 60, 60, 15)
	s := loadedSession(t, img)

	require.NoError(t, s.SetGaussian(20))
	require.NoError(t, s.SetDarken(15))
	require.NoError(t, s.ToggleGrayscale())

	want, err := Compose(t.Context(), img, s.State(), nil)
	require.NoError(t, err)
	defer want.Close()
	gotMat := processed(t, s)
	assert.Equal(t, want.ToBytes(), gotMat.ToBytes())
}

func TestAsyncSession(t *testing.T) {
	img := noiseImage(t, 80, 80, 16)
	s := NewSession(nullLogger(), WithScheduler(5*time.Millisecond))
	defer s.Close()

	var changes atomic.Int32
	s.OnChange(func() { changes.Add(1) })

	require.NoError(t, s.Load(img, "async.png"))
	for v := 10; v <= 50; v += 10 {
		require.NoError(t, s.SetGaussian(v))
	}
	require.NoError(t, s.ToggleGrayscale())
	s.Wait()

	assert.Positive(t, changes.Load())

	want, err := Compose(t.Context(), img, s.State(), nil)
	require.NoError(t, err)
	defer want.Close()
	gotMat := processed(t, s)
	assert.Equal(t, want.ToBytes(), gotMat.ToBytes())
}

func lastMessage(s *Session) string {
	msgs := s.Log().Messages()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func TestPreviewSelection(t *testing.T) {
	s := loadedSession(t, grayImage(t, 200, 200, 100))

	preview, err := s.PreviewSelection(rectSpec(80, 80, 120, 120))
	require.NoError(t, err)
	defer preview.Close()

	inside := preview.GetVecbAt(100, 100)
	assert.InDelta(t, 70, int(inside[0]), 1)
	assert.InDelta(t, 146, int(inside[1]), 1)
	assert.InDelta(t, 146, int(inside[2]), 1)

	outside := preview.GetVecbAt(10, 10)
	assert.Equal(t, uint8(100), outside[0])
	assert.Equal(t, uint8(100), outside[2])

	// nothing was committed
	assert.Equal(t, 0, s.HistoryLen())
	assert.Equal(t, PhaseLoaded, s.Phase())
	gotMat := processed(t, s)
	assert.Equal(t, uint8(100), gotMat.GetVecbAt(100, 100)[0])

	empty := NewSession(nullLogger())
	defer empty.Close()
	_, err = empty.PreviewSelection(rectSpec(0, 0, 5, 5))
	assert.ErrorIs(t, err, ErrNoImageLoaded)
}
