// Control panel: one tab per group of edits, every change routed through the
// session
package gui

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"snappic/internal/algorithms"
	"snappic/internal/core"
	"snappic/internal/layers"
)

const noBackground = "Keep background"

var backgroundLabels = map[algorithms.BackgroundMethod]string{
	algorithms.BackgroundNone:    noBackground,
	algorithms.BackgroundGrabCut: "GrabCut",
	algorithms.BackgroundSimple:  "Simple (near-white)",
	algorithms.BackgroundEdge:    "Edge-based",
}

var shapeTools = map[string]Tool{
	"Rectangle": ToolRectangle,
	"Circle":    ToolCircle,
	"Freeform":  ToolFreeform,
}

type ControlPanel struct {
	session *core.Session
	logger  *logrus.Logger

	container *container.AppTabs

	gaussian, median   *widget.Slider
	darken, brighten   *widget.Slider
	grayscale, bw      *widget.Check
	bwThreshold        *widget.Slider
	binary             *widget.Check
	background         *widget.RadioGroup
	bgThreshold        *widget.Slider
	widthEntry         *widget.Entry
	heightEntry        *widget.Entry
	presetSelect       *widget.Select
	aspectSelect       *widget.Select
	shapeRadio         *widget.RadioGroup
	kindRadio          *widget.RadioGroup
	intensity          *widget.Slider
	previewAreas       *widget.Check
	medianBudgetNotice *widget.Label

	syncing bool

	onEdit func(error)
	onTool func(Tool)
}

func NewControlPanel(session *core.Session, logger *logrus.Logger) *ControlPanel {
	cp := &ControlPanel{
		session: session,
		logger:  logger,
	}
	cp.initializeUI()
	cp.Disable()
	return cp
}

func (cp *ControlPanel) SetCallbacks(onEdit func(error), onTool func(Tool)) {
	cp.onEdit = onEdit
	cp.onTool = onTool
}

func (cp *ControlPanel) GetContainer() fyne.CanvasObject {
	return cp.container
}

func (cp *ControlPanel) initializeUI() {
	cp.gaussian = cp.valueSlider(0, 100, cp.session.SetGaussian)
	cp.median = cp.valueSlider(0, 100, cp.session.SetMedian)
	cp.darken = cp.valueSlider(0, 100, cp.session.SetDarken)
	cp.brighten = cp.valueSlider(0, 100, cp.session.SetBrighten)
	cp.bwThreshold = cp.valueSlider(0, 255, cp.session.SetBWThreshold)
	cp.bgThreshold = cp.valueSlider(algorithms.MinBackgroundThreshold, algorithms.MaxBackgroundThreshold, cp.session.SetBGThreshold)

	cp.grayscale = cp.toggle("Grayscale", cp.session.ToggleGrayscale)
	cp.bw = cp.toggle("Black & White", cp.session.ToggleBlackWhite)
	cp.binary = cp.toggle("Show binary mask", cp.session.ToggleBinary)

	methods := append([]algorithms.BackgroundMethod{algorithms.BackgroundNone}, algorithms.Methods()...)
	cp.background = widget.NewRadioGroup(lo.Map(methods, func(m algorithms.BackgroundMethod, _ int) string {
		return backgroundLabels[m]
	}), func(label string) {
		if cp.syncing || label == "" {
			return
		}
		method, _ := lo.FindKey(backgroundLabels, label)
		cp.edit(cp.session.SetBackgroundMethod(method))
	})

	cp.widthEntry = widget.NewEntry()
	cp.widthEntry.SetPlaceHolder("width")
	cp.heightEntry = widget.NewEntry()
	cp.heightEntry.SetPlaceHolder("height")
	resizeBtn := widget.NewButton("Resize", cp.resize)

	cp.presetSelect = widget.NewSelect(lo.Map(cp.session.Presets(), func(p core.Preset, _ int) string {
		return p.String()
	}), func(label string) {
		if cp.syncing || label == "" {
			return
		}
		if p, ok := lo.Find(cp.session.Presets(), func(p core.Preset) bool { return p.String() == label }); ok {
			cp.edit(cp.session.ResizePreset(p.Name))
		}
	})
	cp.aspectSelect = widget.NewSelect(lo.Map(cp.session.AspectRatios(), func(a core.AspectRatio, _ int) string {
		return a.String()
	}), func(label string) {
		if cp.syncing || label == "" {
			return
		}
		if a, ok := lo.Find(cp.session.AspectRatios(), func(a core.AspectRatio) bool { return a.String() == label }); ok {
			cp.edit(cp.session.CropToAspect(a))
		}
	})
	cropBtn := widget.NewButton("Draw crop", func() { cp.selectTool(ToolCrop) })
	resetCropBtn := widget.NewButton("Reset crop", func() { cp.edit(cp.session.ResetCrop()) })

	cp.shapeRadio = widget.NewRadioGroup([]string{"Rectangle", "Circle", "Freeform"}, nil)
	cp.shapeRadio.SetSelected("Rectangle")
	cp.kindRadio = widget.NewRadioGroup([]string{layers.EditGaussian.String(), layers.EditMedian.String()}, nil)
	cp.kindRadio.SetSelected(layers.EditGaussian.String())
	cp.intensity = widget.NewSlider(0, 100)
	cp.intensity.Step = 1
	cp.intensity.SetValue(50)
	cp.previewAreas = widget.NewCheck("Preview before applying", nil)
	cp.medianBudgetNotice = widget.NewLabel("One median area per image")
	drawBtn := widget.NewButton("Draw area", func() { cp.selectTool(shapeTools[cp.shapeRadio.Selected]) })
	undoBtn := widget.NewButton("Undo last area", func() {
		_, err := cp.session.UndoLastEdit()
		cp.edit(err)
	})
	clearBtn := widget.NewButton("Clear areas", func() { cp.edit(cp.session.ClearEdits()) })
	resetBtn := widget.NewButton("Reset all", func() { cp.edit(cp.session.ResetAll()) })

	cp.container = container.NewAppTabs(
		container.NewTabItem("BLUR", container.NewVBox(
			labelled("Gaussian", cp.gaussian),
			labelled("Median", cp.median),
		)),
		container.NewTabItem("COLOR", container.NewVBox(
			cp.grayscale,
			cp.bw,
			labelled("B&W threshold", cp.bwThreshold),
			cp.binary,
		)),
		container.NewTabItem("LIGHT", container.NewVBox(
			labelled("Darken", cp.darken),
			labelled("Brighten", cp.brighten),
		)),
		container.NewTabItem("SEGMENT", container.NewVBox(
			cp.background,
			labelled("Background threshold (Simple)", cp.bgThreshold),
		)),
		container.NewTabItem("SIZE", container.NewVBox(
			container.NewGridWithColumns(3, cp.widthEntry, cp.heightEntry, resizeBtn),
			labelled("Preset", cp.presetSelect),
			labelled("Aspect ratio", cp.aspectSelect),
			container.NewGridWithColumns(2, cropBtn, resetCropBtn),
		)),
		container.NewTabItem("SELECTIVE", container.NewVBox(
			labelled("Shape", cp.shapeRadio),
			labelled("Blur", cp.kindRadio),
			labelled("Intensity", cp.intensity),
			cp.previewAreas,
			cp.medianBudgetNotice,
			drawBtn,
			container.NewGridWithColumns(2, undoBtn, clearBtn),
			widget.NewSeparator(),
			resetBtn,
		)),
	)
	cp.container.SetTabLocation(container.TabLocationTop)
}

// valueSlider commits on release so a drag produces one edit.
func (cp *ControlPanel) valueSlider(low, high float64, set func(int) error) *widget.Slider {
	s := widget.NewSlider(low, high)
	s.Step = 1
	s.OnChangeEnded = func(v float64) {
		if cp.syncing {
			return
		}
		cp.edit(set(int(v)))
	}
	return s
}

func (cp *ControlPanel) toggle(label string, flip func() error) *widget.Check {
	return widget.NewCheck(label, func(bool) {
		if cp.syncing {
			return
		}
		cp.edit(flip())
	})
}

func (cp *ControlPanel) resize() {
	w, err := parseDimension(cp.widthEntry.Text)
	if err != nil {
		cp.edit(err)
		return
	}
	h, err := parseDimension(cp.heightEntry.Text)
	if err != nil {
		cp.edit(err)
		return
	}
	cp.edit(cp.session.Resize(w, h))
}

// parseDimension reads an optional size; empty means "not given".
func parseDimension(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(text)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %q is not a size in pixels", core.ErrInvalidResize, text)
	}
	return v, nil
}

// AddSelective applies a drawn area with the selected blur kind and intensity.
func (cp *ControlPanel) AddSelective(spec core.MaskSpec) error {
	kind, err := layers.ParseEditKind(cp.kindRadio.Selected)
	if err != nil {
		return err
	}
	return cp.session.AddSelectiveEdit(spec, kind, int(cp.intensity.Value))
}

// PreviewAreas reports whether drawn areas are shown for confirmation first.
func (cp *ControlPanel) PreviewAreas() bool {
	return cp.previewAreas.Checked
}

func (cp *ControlPanel) selectTool(tool Tool) {
	if cp.onTool != nil {
		cp.onTool(tool)
	}
}

func (cp *ControlPanel) edit(err error) {
	if err != nil {
		cp.logger.WithError(err).Debug("CONTROLS: Edit rejected")
	}
	if cp.onEdit != nil {
		cp.onEdit(err)
	}
}

// Sync moves every widget to state without triggering edits.
func (cp *ControlPanel) Sync(state core.FilterState) {
	cp.syncing = true
	defer func() { cp.syncing = false }()

	cp.gaussian.SetValue(float64(state.GaussianValue))
	cp.median.SetValue(float64(state.MedianValue))
	cp.darken.SetValue(float64(state.DarkenValue))
	cp.brighten.SetValue(float64(state.BrightenValue))
	cp.grayscale.SetChecked(state.Grayscale)
	cp.bw.SetChecked(state.BlackWhite)
	cp.bwThreshold.SetValue(float64(state.BWThreshold))
	cp.binary.SetChecked(state.ShowBinary)
	cp.background.SetSelected(backgroundLabels[state.BackgroundMethod])
	cp.bgThreshold.SetValue(float64(state.BGThreshold))
	cp.presetSelect.ClearSelected()
	cp.aspectSelect.ClearSelected()

	if cp.session.MedianUsed() {
		cp.medianBudgetNotice.SetText("Median area already used")
	} else {
		cp.medianBudgetNotice.SetText("One median area per image")
	}
}

func (cp *ControlPanel) Enable() {
	cp.Sync(cp.session.State())
	for _, item := range cp.container.Items {
		item.Content.Show()
	}
}

func (cp *ControlPanel) Disable() {
	for _, item := range cp.container.Items {
		item.Content.Hide()
	}
}

func labelled(text string, obj fyne.CanvasObject) fyne.CanvasObject {
	return container.NewBorder(nil, nil, widget.NewLabel(text), nil, obj)
}
