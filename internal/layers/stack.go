// Layers package for masked, region-restricted blur edits
package layers

import (
	"fmt"
	"image"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"snappic/internal/algorithms"
)

// EditKind is the effect a selective edit applies inside its mask.
type EditKind int

const (
	EditGaussian EditKind = iota
	EditMedian
)

func (k EditKind) String() string {
	switch k {
	case EditGaussian:
		return "gaussian"
	case EditMedian:
		return "median"
	default:
		return fmt.Sprintf("EditKind(%d)", int(k))
	}
}

// ParseEditKind accepts "gaussian" or "median".
func ParseEditKind(name string) (EditKind, error) {
	switch name {
	case "gaussian":
		return EditGaussian, nil
	case "median":
		return EditMedian, nil
	default:
		return 0, fmt.Errorf("unknown edit kind: %s", name)
	}
}

// SelectiveEdit is one masked blur. The mask is a single-channel feathered
// coverage map sized like the image it targets. Edits are never mutated
// after being appended; the history owns and closes their masks.
type SelectiveEdit struct {
	Mask      gocv.Mat
	Kind      EditKind
	Intensity int
}

// SelectiveKernel maps an intensity (0-100) to the odd kernel size shared
// by selective gaussian and median edits.
func SelectiveKernel(intensity int) int {
	k := max(1, intensity*51/100)
	if k%2 == 0 {
		k++
	}
	return k
}

// RegionObserver is told about every region a selective pass actually
// filtered, after the minimum-size checks.
type RegionObserver func(kind EditKind, region image.Rectangle)

// History is the ordered list of selective edits replayed on every composite.
type History struct {
	mu       sync.RWMutex
	edits    []SelectiveEdit
	logger   *logrus.Logger
	observer RegionObserver
}

// NewHistory creates an empty history.
func NewHistory(logger *logrus.Logger) *History {
	return &History{
		edits:  make([]SelectiveEdit, 0),
		logger: logger,
	}
}

// OnRegion installs an observer called for each filtered region.
func (h *History) OnRegion(observer RegionObserver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observer = observer
}

// Append takes ownership of edit.Mask.
func (h *History) Append(edit SelectiveEdit) error {
	if edit.Mask.Empty() || edit.Mask.Channels() != 1 {
		return fmt.Errorf("selective edit needs a single-channel mask")
	}
	if edit.Intensity < 0 || edit.Intensity > 100 {
		return fmt.Errorf("intensity must be between 0 and 100, got %d", edit.Intensity)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.edits = append(h.edits, edit)
	return nil
}

// RemoveLast drops the newest edit. It reports false when the history is empty.
func (h *History) RemoveLast() (SelectiveEdit, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.edits) == 0 {
		return SelectiveEdit{}, false
	}
	last := h.edits[len(h.edits)-1]
	h.edits = h.edits[:len(h.edits)-1]
	kind, intensity := last.Kind, last.Intensity
	last.Mask.Close()
	return SelectiveEdit{Kind: kind, Intensity: intensity}, true
}

// Clear drops every edit.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.edits {
		h.edits[i].Mask.Close()
	}
	h.edits = h.edits[:0]
}

// Close releases all masks.
func (h *History) Close() {
	h.Clear()
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.edits)
}

// Kinds lists the kind of every edit in creation order.
func (h *History) Kinds() []EditKind {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Map(h.edits, func(e SelectiveEdit, _ int) EditKind { return e.Kind })
}

// Snapshot deep-copies the history so it can be composited on another
// goroutine while this one keeps changing. The caller closes the copy.
func (h *History) Snapshot() *History {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c := &History{
		edits:    make([]SelectiveEdit, len(h.edits)),
		logger:   h.logger,
		observer: h.observer,
	}
	for i, e := range h.edits {
		c.edits[i] = SelectiveEdit{Mask: e.Mask.Clone(), Kind: e.Kind, Intensity: e.Intensity}
	}
	return c
}

// Transform replaces every mask with fn(mask), for example after the working
// image was cropped or resized. Masks fn rejects are dropped.
func (h *History) Transform(fn func(gocv.Mat) (gocv.Mat, error)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.edits[:0]
	for _, e := range h.edits {
		next, err := fn(e.Mask)
		e.Mask.Close()
		if err != nil {
			h.logger.WithFields(logrus.Fields{
				"kind":  e.Kind.String(),
				"error": err,
			}).Warn("LAYERS: dropping selective edit that no longer fits the image")
			continue
		}
		e.Mask = next
		kept = append(kept, e)
	}
	h.edits = kept
}

// Apply runs every gaussian edit and then every median edit over input,
// regardless of the order they were created in. The caller owns the result.
func (h *History) Apply(input gocv.Mat) (gocv.Mat, error) {
	return h.applyPasses(input, EditGaussian, EditMedian)
}

func (h *History) applyPasses(input gocv.Mat, passes ...EditKind) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	result := input.Clone()
	if len(h.edits) == 0 {
		return result, nil
	}

	groups := lo.GroupBy(h.edits, func(e SelectiveEdit) EditKind { return e.Kind })
	for _, kind := range passes {
		for _, edit := range groups[kind] {
			if err := h.applyEdit(&result, edit); err != nil {
				result.Close()
				return gocv.NewMat(), err
			}
		}
	}
	return result, nil
}

// applyEdit blurs the mask's bounding box of working in place.
func (h *History) applyEdit(working *gocv.Mat, edit SelectiveEdit) error {
	if edit.Mask.Rows() != working.Rows() || edit.Mask.Cols() != working.Cols() {
		h.logger.WithFields(logrus.Fields{
			"kind":  edit.Kind.String(),
			"mask":  fmt.Sprintf("%dx%d", edit.Mask.Cols(), edit.Mask.Rows()),
			"image": fmt.Sprintf("%dx%d", working.Cols(), working.Rows()),
		}).Warn("LAYERS: skipping stale mask")
		return nil
	}

	bounds, ok := algorithms.NonZeroBounds(edit.Mask)
	if !ok {
		return nil
	}

	k := SelectiveKernel(edit.Intensity)
	minSide := 3
	if edit.Kind == EditMedian {
		minSide = k
	}
	if bounds.Dx() < minSide || bounds.Dy() < minSide {
		h.logger.WithFields(logrus.Fields{
			"kind":   edit.Kind.String(),
			"region": bounds.String(),
		}).Debug("LAYERS: region too small, skipped")
		return nil
	}

	roi := working.Region(bounds)
	defer roi.Close()
	maskROI := edit.Mask.Region(bounds)
	defer maskROI.Close()

	// Region views are not continuous; the operators want owned buffers.
	patch := roi.Clone()
	defer patch.Close()
	weights := maskROI.Clone()
	defer weights.Close()

	var blurred gocv.Mat
	var err error
	switch edit.Kind {
	case EditGaussian:
		blurred, err = algorithms.GaussianBlurSize(patch, k)
	case EditMedian:
		blurred, err = algorithms.MedianBlurSize(patch, k)
	default:
		return fmt.Errorf("unknown edit kind: %v", edit.Kind)
	}
	if err != nil {
		return fmt.Errorf("%s selective blur: %w", edit.Kind, err)
	}
	defer blurred.Close()

	blended, err := algorithms.BlendWithMask(patch, blurred, weights)
	if err != nil {
		return fmt.Errorf("%s selective blend: %w", edit.Kind, err)
	}
	defer blended.Close()

	blended.CopyTo(&roi)

	if h.observer != nil {
		h.observer(edit.Kind, bounds)
	}
	h.logger.WithFields(logrus.Fields{
		"kind":      edit.Kind.String(),
		"intensity": edit.Intensity,
		"kernel":    k,
		"region":    bounds.String(),
	}).Debug("LAYERS: selective edit applied")
	return nil
}
