// Region masks for selective edits
package core

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"snappic/internal/algorithms"
)

// MaskShape is the outline a selective edit is drawn with.
type MaskShape int

const (
	ShapeRectangle MaskShape = iota
	ShapeCircle
	ShapeFreeform
)

const (
	featherKernelSize = 21
	featherSigma      = 10
	previewOpacity    = 0.3
)

var (
	maskOn        = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	previewYellow = gocv.NewScalar(0, 255, 255, 255)
)

func (s MaskShape) String() string {
	switch s {
	case ShapeRectangle:
		return "rectangle"
	case ShapeCircle:
		return "circle"
	case ShapeFreeform:
		return "freeform"
	default:
		return fmt.Sprintf("MaskShape(%d)", int(s))
	}
}

// ParseMaskShape accepts "rectangle", "circle" or "freeform".
func ParseMaskShape(name string) (MaskShape, error) {
	switch name {
	case "rectangle", "rect":
		return ShapeRectangle, nil
	case "circle":
		return ShapeCircle, nil
	case "freeform", "free":
		return ShapeFreeform, nil
	default:
		return 0, fmt.Errorf("%w: unknown mask shape %q", ErrInvalidParameter, name)
	}
}

// MaskSpec describes a drawn selection in screen coordinates. ScaleX and
// ScaleY convert screen pixels to image pixels; zero means 1.
type MaskSpec struct {
	Shape  MaskShape
	Start  image.Point
	End    image.Point
	Points []image.Point // freeform outline, in drawing order
	ScaleX float64
	ScaleY float64
}

func (m MaskSpec) scale(p image.Point) image.Point {
	sx, sy := m.ScaleX, m.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return image.Pt(int(float64(p.X)*sx), int(float64(p.Y)*sy))
}

// BuildMask rasterises spec into a feathered width x height coverage mask.
// A freeform outline with fewer than three points yields an all-zero mask.
// The caller owns the returned Mat.
func BuildMask(spec MaskSpec, width, height int) (gocv.Mat, error) {
	if width <= 0 || height <= 0 {
		return gocv.NewMat(), fmt.Errorf("%w: mask size %dx%d", ErrInvalidParameter, width, height)
	}

	mask := gocv.Zeros(height, width, gocv.MatTypeCV8UC1)
	start, end := spec.scale(spec.Start), spec.scale(spec.End)

	switch spec.Shape {
	case ShapeRectangle:
		r := image.Rectangle{Min: start, Max: end}.Canon()
		gocv.Rectangle(&mask, r, maskOn, -1)

	case ShapeCircle:
		center := image.Pt((start.X+end.X)/2, (start.Y+end.Y)/2)
		dist := math.Hypot(float64(end.X-start.X), float64(end.Y-start.Y))
		radius := max(int(dist)/2, 1)
		gocv.Circle(&mask, center, radius, maskOn, -1)

	case ShapeFreeform:
		if len(spec.Points) < 3 {
			return mask, nil
		}
		pts := make([]image.Point, len(spec.Points))
		for i, p := range spec.Points {
			pts[i] = spec.scale(p)
		}
		outline := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
		defer outline.Close()
		gocv.FillPoly(&mask, outline, maskOn)

	default:
		mask.Close()
		return gocv.NewMat(), fmt.Errorf("%w: unknown mask shape %d", ErrInvalidParameter, spec.Shape)
	}

	if gocv.CountNonZero(mask) == 0 {
		return mask, nil
	}
	defer mask.Close()

	feathered := gocv.NewMat()
	gocv.GaussianBlur(mask, &feathered, image.Pt(featherKernelSize, featherKernelSize),
		featherSigma, featherSigma, gocv.BorderDefault)
	return feathered, nil
}

// MaskBounds returns the tight bounding box of the non-zero mask pixels.
func MaskBounds(mask gocv.Mat) (image.Rectangle, bool) {
	return algorithms.NonZeroBounds(mask)
}

// MaskPreview tints the masked pixels of img yellow at 30% so a selection
// can be checked before it is applied. The caller owns the returned Mat.
func MaskPreview(img, mask gocv.Mat) (gocv.Mat, error) {
	if img.Empty() || mask.Empty() {
		return gocv.NewMat(), fmt.Errorf("%w: preview needs an image and a mask", ErrInvalidParameter)
	}
	if img.Rows() != mask.Rows() || img.Cols() != mask.Cols() {
		return gocv.NewMat(), fmt.Errorf("%w: mask %dx%d does not match image %dx%d",
			ErrInvalidParameter, mask.Cols(), mask.Rows(), img.Cols(), img.Rows())
	}

	tint := gocv.NewMatWithSizeFromScalar(previewYellow, img.Rows(), img.Cols(), img.Type())
	defer tint.Close()

	overlay := img.Clone()
	defer overlay.Close()
	tint.CopyToWithMask(&overlay, mask)

	preview := gocv.NewMat()
	gocv.AddWeighted(img, 1-previewOpacity, overlay, previewOpacity, 0, &preview)
	return preview, nil
}
