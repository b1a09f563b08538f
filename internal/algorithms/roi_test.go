package algorithms

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestNonZeroBounds(t *testing.T) {
	mask := solidMat(t, 20, 30, gocv.MatTypeCV8UC1, gocv.NewScalar(0, 0, 0, 0))

	_, ok := NonZeroBounds(mask)
	assert.False(t, ok)

	mask.SetUCharAt(4, 7, 1)
	mask.SetUCharAt(12, 21, 200)

	bounds, ok := NonZeroBounds(mask)
	require.True(t, ok)
	assert.Equal(t, image.Rect(7, 4, 22, 13), bounds)
}

func TestBlendWithMaskWeights(t *testing.T) {
	keep := track(t)
	original := solidMat(t, 1, 3, gocv.MatTypeCV8UC3, gocv.NewScalar(100, 100, 100, 0))
	effect := solidMat(t, 1, 3, gocv.MatTypeCV8UC3, gocv.NewScalar(200, 0, 255, 0))
	mask := newMat(t, 1, 3, gocv.MatTypeCV8UC1, []byte{0, 255, 51})

	output := keep(BlendWithMask(original, effect, mask))

	assert.Equal(t, []byte{100, 100, 100}, pixel(output, 0, 0))
	assert.Equal(t, []byte{200, 0, 255}, pixel(output, 1, 0))
	assert.Equal(t, []byte{120, 80, 131}, pixel(output, 2, 0))
}

func TestBlendWithMaskRejectsMismatch(t *testing.T) {
	original := solidMat(t, 4, 4, gocv.MatTypeCV8UC3, gocv.NewScalar(0, 0, 0, 0))
	effect := solidMat(t, 4, 4, gocv.MatTypeCV8UC4, gocv.NewScalar(0, 0, 0, 0))
	mask := solidMat(t, 4, 4, gocv.MatTypeCV8UC1, gocv.NewScalar(0, 0, 0, 0))
	small := solidMat(t, 2, 2, gocv.MatTypeCV8UC1, gocv.NewScalar(0, 0, 0, 0))

	_, err := BlendWithMask(original, effect, mask)
	assert.Error(t, err)
	_, err = BlendWithMask(original, original, small)
	assert.Error(t, err)
}
