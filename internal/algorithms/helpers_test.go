package algorithms

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// newMat builds a Mat from raw pixel bytes. The returned Mat owns its data.
func newMat(t *testing.T, rows, cols int, mt gocv.MatType, data []byte) gocv.Mat {
	t.Helper()
	view, err := gocv.NewMatFromBytes(rows, cols, mt, data)
	require.NoError(t, err)
	defer view.Close()
	mat := view.Clone()
	t.Cleanup(func() { mat.Close() })
	return mat
}

func channelsOf(mt gocv.MatType) int {
	switch mt {
	case gocv.MatTypeCV8UC1:
		return 1
	case gocv.MatTypeCV8UC4:
		return 4
	default:
		return 3
	}
}

// noiseMat returns a reproducible random image.
func noiseMat(t *testing.T, rows, cols int, mt gocv.MatType, seed int64) gocv.Mat {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]byte, rows*cols*channelsOf(mt))
	rng.Read(data)
	return newMat(t, rows, cols, mt, data)
}

func solidMat(t *testing.T, rows, cols int, mt gocv.MatType, s gocv.Scalar) gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(s, rows, cols, mt)
	t.Cleanup(func() { mat.Close() })
	return mat
}

// plane extracts channel c of mat as raw bytes.
func plane(t *testing.T, mat gocv.Mat, c int) []byte {
	t.Helper()
	planes := gocv.Split(mat)
	defer closeAll(planes)
	require.Less(t, c, len(planes))
	return planes[c].ToBytes()
}

// pixel returns the channel values at (x, y).
func pixel(mat gocv.Mat, x, y int) []byte {
	n := mat.Channels()
	data := mat.ToBytes()
	off := (y*mat.Cols() + x) * n
	return data[off : off+n]
}

// track returns a helper that asserts an operator succeeded and closes its
// result when the test ends: keep := track(t); out := keep(Op(in, v)).
func track(t *testing.T) func(gocv.Mat, error) gocv.Mat {
	return func(mat gocv.Mat, err error) gocv.Mat {
		t.Helper()
		require.NoError(t, err)
		t.Cleanup(func() { mat.Close() })
		return mat
	}
}
