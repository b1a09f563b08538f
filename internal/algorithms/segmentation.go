// Foreground segmentation for background removal
package algorithms

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// GrabCutSegmenter refines a centred rectangle seed with iterative graph cuts.
type GrabCutSegmenter struct {
	// Inset is the fraction of width/height left outside the seed on each side.
	Inset      float64
	Iterations int
}

// NewGrabCutSegmenter seeds the 10%-90% interior and runs 5 iterations.
func NewGrabCutSegmenter() *GrabCutSegmenter {
	return &GrabCutSegmenter{Inset: 0.1, Iterations: 5}
}

func (g *GrabCutSegmenter) Segment(input gocv.Mat, _ int) (gocv.Mat, error) {
	w, h := input.Cols(), input.Rows()
	x, y := int(float64(w)*g.Inset), int(float64(h)*g.Inset)
	rw, rh := int(float64(w)*(1-2*g.Inset)), int(float64(h)*(1-2*g.Inset))
	if rw < 1 || rh < 1 {
		return gocv.NewMat(), fmt.Errorf("image too small for seed rectangle: %dx%d", w, h)
	}
	seed := image.Rect(x, y, x+rw, y+rh)

	labels := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC1)
	defer labels.Close()
	bgdModel := gocv.NewMat()
	defer bgdModel.Close()
	fgdModel := gocv.NewMat()
	defer fgdModel.Close()

	gocv.GrabCut(input, &labels, seed, &bgdModel, &fgdModel, g.Iterations, gocv.GCInitWithRect)

	// Labels are 0 bg, 1 fg, 2 probable bg, 3 probable fg: bit 0 marks foreground.
	one := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 0, 0, 0), h, w, gocv.MatTypeCV8UC1)
	defer one.Close()
	fg := gocv.NewMat()
	defer fg.Close()
	gocv.BitwiseAnd(labels, one, &fg)

	alpha := gocv.NewMat()
	defer alpha.Close()
	gocv.Threshold(fg, &alpha, 0, 255, gocv.ThresholdBinary)

	// Colour outside the foreground is zeroed as well as made transparent.
	foreground := gocv.Zeros(h, w, input.Type())
	defer foreground.Close()
	input.CopyToWithMask(&foreground, alpha)

	return attachAlpha(foreground, alpha)
}

func (g *GrabCutSegmenter) GetName() string {
	return "GrabCut"
}

func (g *GrabCutSegmenter) GetDescription() string {
	return "Graph-cut segmentation seeded with a centred rectangle"
}

// ThresholdSegmenter treats near-white pixels as background.
type ThresholdSegmenter struct{}

// NewThresholdSegmenter creates the simple near-white segmenter.
func NewThresholdSegmenter() *ThresholdSegmenter {
	return &ThresholdSegmenter{}
}

func (t *ThresholdSegmenter) Segment(input gocv.Mat, threshold int) (gocv.Mat, error) {
	if threshold < MinBackgroundThreshold || threshold > MaxBackgroundThreshold {
		return gocv.NewMat(), fmt.Errorf("threshold must be between %d and %d, got %d",
			MinBackgroundThreshold, MaxBackgroundThreshold, threshold)
	}

	bright, err := BinaryMask(input, threshold)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer bright.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.BitwiseNot(bright, &mask)

	cleaned := closeOpen(mask, cleanupKernelSize)
	defer cleaned.Close()

	return attachAlpha(input, cleaned)
}

func (t *ThresholdSegmenter) GetName() string {
	return "Simple"
}

func (t *ThresholdSegmenter) GetDescription() string {
	return "Inverse binary threshold isolating a near-white background"
}

// EdgeSegmenter keeps the largest closed outline found by edge detection.
type EdgeSegmenter struct {
	LowThreshold   float32
	HighThreshold  float32
	DilateRepeats  int
	BlurKernelSize int
}

// NewEdgeSegmenter uses Canny 30/100 on a 5x5 blur and two dilations.
func NewEdgeSegmenter() *EdgeSegmenter {
	return &EdgeSegmenter{
		LowThreshold:   30,
		HighThreshold:  100,
		DilateRepeats:  2,
		BlurKernelSize: 5,
	}
}

func (e *EdgeSegmenter) Segment(input gocv.Mat, _ int) (gocv.Mat, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(input, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(e.BlurKernelSize, e.BlurKernelSize), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, e.LowThreshold, e.HighThreshold)

	dilated := dilate(edges, cleanupKernelSize, e.DilateRepeats)
	defer dilated.Close()

	contours := gocv.FindContours(dilated, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	mask := gocv.Zeros(input.Rows(), input.Cols(), gocv.MatTypeCV8UC1)
	defer mask.Close()

	largest, largestArea := -1, -1.0
	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); area > largestArea {
			largest, largestArea = i, area
		}
	}
	if largest >= 0 {
		gocv.DrawContours(&mask, contours, largest, white, -1)
	}

	cleaned := closeOpen(mask, cleanupKernelSize)
	defer cleaned.Close()

	return attachAlpha(input, cleaned)
}

func (e *EdgeSegmenter) GetName() string {
	return "Edge-based"
}

func (e *EdgeSegmenter) GetDescription() string {
	return "Fills the largest outer contour found by Canny edge detection"
}

// attachAlpha merges a BGR image and a single-channel alpha into BGRA.
func attachAlpha(bgr, alpha gocv.Mat) (gocv.Mat, error) {
	planes := gocv.Split(bgr)
	defer closeAll(planes)
	if len(planes) != 3 {
		return gocv.NewMat(), fmt.Errorf("expected 3 colour planes, got %d", len(planes))
	}

	output := gocv.NewMat()
	gocv.Merge([]gocv.Mat{planes[0], planes[1], planes[2], alpha}, &output)
	return output, nil
}
