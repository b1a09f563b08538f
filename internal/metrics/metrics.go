// Image-difference metrics logged after each composite
package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
	"gocv.io/x/gocv"
)

// MaxPSNR caps the PSNR reported for identical images.
const MaxPSNR = 100.0

// Metric compares a processed image with the one it was derived from.
type Metric interface {
	Calculate(original, processed gocv.Mat) (float64, error)
	GetName() string
	GetDescription() string
	GetRange() (float64, float64)
	IsHigherBetter() bool
	// GetBands returns the cut points between the close, light, visible
	// and heavy grades, ordered from the best value.
	GetBands() [3]float64
}

// Grade places a metric value on a four-step scale of how far the processed
// image moved from its source.
type Grade int

const (
	GradeClose Grade = iota
	GradeLight
	GradeVisible
	GradeHeavy
)

func (g Grade) String() string {
	switch g {
	case GradeClose:
		return "Close to original"
	case GradeLight:
		return "Light edit"
	case GradeVisible:
		return "Visible edit"
	default:
		return "Heavy edit"
	}
}

// Rate grades value against the metric's bands after clamping it to the
// metric's range.
func Rate(m Metric, value float64) Grade {
	low, high := m.GetRange()
	v := min(max(value, low), high)
	for i, band := range m.GetBands() {
		if (m.IsHigherBetter() && v > band) || (!m.IsHigherBetter() && v < band) {
			return Grade(i)
		}
	}
	return GradeHeavy
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}
	e.Register("psnr", NewPSNR())
	e.Register("mse", NewMSE())
	return e
}

func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Names lists the registered metrics in name order.
func (e *Evaluator) Names() []string {
	names := lo.Keys(e.metrics)
	sort.Strings(names)
	return names
}

// Rate grades a value of the named metric. ok is false for unknown names.
func (e *Evaluator) Rate(name string, value float64) (grade Grade, ok bool) {
	metric, exists := e.metrics[name]
	if !exists {
		return GradeHeavy, false
	}
	return Rate(metric, value), true
}

func (e *Evaluator) Calculate(name string, original, processed gocv.Mat) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}
	return metric.Calculate(original, processed)
}

// CalculateAll runs every metric, leaving out the ones that fail.
func (e *Evaluator) CalculateAll(original, processed gocv.Mat) map[string]float64 {
	results := make(map[string]float64)
	for name, metric := range e.metrics {
		if value, err := metric.Calculate(original, processed); err == nil {
			results[name] = value
		}
	}
	return results
}

func (e *Evaluator) CalculatePSNR(original, processed gocv.Mat) (float64, error) {
	return e.Calculate("psnr", original, processed)
}

func (e *Evaluator) CalculateMSE(original, processed gocv.Mat) (float64, error) {
	return e.Calculate("mse", original, processed)
}

// PSNR is the peak signal-to-noise ratio of the luminance planes, in dB.
type PSNR struct {
	mse *MSE
}

func NewPSNR() *PSNR { return &PSNR{mse: NewMSE()} }

func (p *PSNR) Calculate(original, processed gocv.Mat) (float64, error) {
	mse, err := p.mse.Calculate(original, processed)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return MaxPSNR, nil
	}
	return math.Min(MaxPSNR, 10*math.Log10(255*255/mse)), nil
}

func (p *PSNR) GetName() string              { return "PSNR" }
func (p *PSNR) GetDescription() string       { return "Peak Signal-to-Noise Ratio" }
func (p *PSNR) GetRange() (float64, float64) { return 0, MaxPSNR }
func (p *PSNR) IsHigherBetter() bool         { return true }
func (p *PSNR) GetBands() [3]float64         { return [3]float64{40, 30, 20} }

// MSE is the mean squared error of the luminance planes.
type MSE struct{}

func NewMSE() *MSE { return &MSE{} }

func (m *MSE) Calculate(original, processed gocv.Mat) (float64, error) {
	if original.Empty() || processed.Empty() {
		return 0, fmt.Errorf("empty images")
	}
	if original.Rows() != processed.Rows() || original.Cols() != processed.Cols() {
		return 0, fmt.Errorf("dimension mismatch: %dx%d vs %dx%d",
			original.Cols(), original.Rows(), processed.Cols(), processed.Rows())
	}

	gray1, err := grayFloat(original)
	if err != nil {
		return 0, err
	}
	defer gray1.Close()

	gray2, err := grayFloat(processed)
	if err != nil {
		return 0, err
	}
	defer gray2.Close()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.Subtract(gray1, gray2, &diff)

	diffSq := gocv.NewMat()
	defer diffSq.Close()
	gocv.Multiply(diff, diff, &diffSq)

	return diffSq.Mean().Val1, nil
}

func (m *MSE) GetName() string              { return "MSE" }
func (m *MSE) GetDescription() string       { return "Mean Squared Error" }
func (m *MSE) GetRange() (float64, float64) { return 0, 65025 }
func (m *MSE) IsHigherBetter() bool         { return false }
func (m *MSE) GetBands() [3]float64         { return [3]float64{100, 500, 1000} }

// grayFloat returns the luminance plane of an 8-bit image as float32 so
// squared differences do not saturate.
func grayFloat(input gocv.Mat) (gocv.Mat, error) {
	gray := gocv.NewMat()
	defer gray.Close()

	switch input.Channels() {
	case 1:
		input.CopyTo(&gray)
	case 3:
		gocv.CvtColor(input, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(input, &gray, gocv.ColorBGRAToGray)
	default:
		return gocv.NewMat(), fmt.Errorf("unsupported channel count: %d", input.Channels())
	}

	out := gocv.NewMat()
	gray.ConvertTo(&out, gocv.MatTypeCV32F)
	return out, nil
}
