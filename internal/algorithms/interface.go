// Background-removal methods and their registry
package algorithms

import (
	"fmt"
	"sort"

	"gocv.io/x/gocv"
)

// BackgroundMethod selects one of the mutually exclusive segmentation
// operators. The zero value disables background removal.
type BackgroundMethod string

const (
	BackgroundNone    BackgroundMethod = ""
	BackgroundGrabCut BackgroundMethod = "grabcut"
	BackgroundSimple  BackgroundMethod = "simple"
	BackgroundEdge    BackgroundMethod = "edge"
)

// Threshold bounds for the simple (near-white) method.
const (
	MinBackgroundThreshold     = 200
	MaxBackgroundThreshold     = 255
	DefaultBackgroundThreshold = 240
)

// String returns the method name used in logs and flags.
func (m BackgroundMethod) String() string {
	if m == BackgroundNone {
		return "none"
	}
	return string(m)
}

// ParseBackgroundMethod accepts "none", "" or any registered method name.
func ParseBackgroundMethod(name string) (BackgroundMethod, error) {
	if name == "" || name == "none" {
		return BackgroundNone, nil
	}
	m := BackgroundMethod(name)
	if _, ok := segmenters[m]; !ok {
		return BackgroundNone, fmt.Errorf("unknown background method: %s", name)
	}
	return m, nil
}

// Segmenter separates foreground from background, returning a BGRA image
// whose alpha channel is the foreground mask.
type Segmenter interface {
	Segment(input gocv.Mat, threshold int) (gocv.Mat, error)
	GetName() string
	GetDescription() string
}

var segmenters = make(map[BackgroundMethod]Segmenter)

// Register adds or replaces the segmenter used for a method.
func Register(method BackgroundMethod, s Segmenter) {
	segmenters[method] = s
}

// Get returns the segmenter registered for method.
func Get(method BackgroundMethod) (Segmenter, bool) {
	s, ok := segmenters[method]
	return s, ok
}

// Methods lists the registered methods in name order.
func Methods() []BackgroundMethod {
	result := make([]BackgroundMethod, 0, len(segmenters))
	for m := range segmenters {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// RemoveBackground runs the segmenter registered for method. A 4-channel input
// is flattened to BGR first; the result always has 4 channels.
func RemoveBackground(method BackgroundMethod, input gocv.Mat, threshold int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	s, ok := segmenters[method]
	if !ok {
		return gocv.NewMat(), fmt.Errorf("segmenter not found: %s", method)
	}

	bgr, err := toBGR(input)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer bgr.Close()

	output, err := s.Segment(bgr, threshold)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%s: %w", s.GetName(), err)
	}
	return output, nil
}

// toBGR returns a 3-channel copy of input.
func toBGR(input gocv.Mat) (gocv.Mat, error) {
	output := gocv.NewMat()
	switch input.Channels() {
	case 1:
		gocv.CvtColor(input, &output, gocv.ColorGrayToBGR)
	case 3:
		input.CopyTo(&output)
	case 4:
		gocv.CvtColor(input, &output, gocv.ColorBGRAToBGR)
	default:
		output.Close()
		return gocv.NewMat(), fmt.Errorf("unsupported channel count: %d", input.Channels())
	}
	return output, nil
}

func init() {
	Register(BackgroundGrabCut, NewGrabCutSegmenter())
	Register(BackgroundSimple, NewThresholdSegmenter())
	Register(BackgroundEdge, NewEdgeSegmenter())
}
