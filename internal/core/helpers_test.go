package core

import (
	"image"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func nullLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func grayImage(t *testing.T, rows, cols int, v float64) gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), rows, cols, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })
	return mat
}

func noiseImage(t *testing.T, rows, cols int, seed int64) gocv.Mat {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]byte, rows*cols*3)
	rng.Read(data)
	view, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC3, data)
	require.NoError(t, err)
	defer view.Close()
	mat := view.Clone()
	t.Cleanup(func() { mat.Close() })
	return mat
}

// loadedSession returns a synchronous session holding img.
func loadedSession(t *testing.T, img gocv.Mat) *Session {
	t.Helper()
	s := NewSession(nullLogger())
	t.Cleanup(s.Close)
	require.NoError(t, s.Load(img, "photo.png"))
	return s
}

func processed(t *testing.T, s *Session) gocv.Mat {
	t.Helper()
	mat := s.Processed()
	t.Cleanup(func() { mat.Close() })
	return mat
}

func rectSpec(x0, y0, x1, y1 int) MaskSpec {
	return MaskSpec{Shape: ShapeRectangle, Start: image.Pt(x0, y0), End: image.Pt(x1, y1)}
}
