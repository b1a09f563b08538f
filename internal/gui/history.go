// History panel: operation log and quality metrics
package gui

import (
	"fmt"
	"slices"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/samber/lo"

	"snappic/internal/core"
	"snappic/internal/metrics"
)

// HistoryPanel lists the operation log, newest last, and the metrics of the
// last composite.
type HistoryPanel struct {
	log       *core.OpLog
	lines     []string
	evaluator *metrics.Evaluator

	list           *widget.List
	metricsContent *fyne.Container
}

func NewHistoryPanel(log *core.OpLog) *HistoryPanel {
	hp := &HistoryPanel{log: log, evaluator: metrics.NewEvaluator()}

	hp.list = widget.NewList(
		func() int { return len(hp.lines) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(hp.lines[id])
		},
	)
	hp.metricsContent = container.NewVBox(widget.NewLabel("Metrics appear after the first edit."))
	return hp
}

func (hp *HistoryPanel) GetContainer() fyne.CanvasObject {
	return hp.list
}

func (hp *HistoryPanel) MetricsContainer() fyne.CanvasObject {
	return container.NewScroll(hp.metricsContent)
}

// Refresh reloads the log lines. It must run on the UI goroutine.
func (hp *HistoryPanel) Refresh() {
	hp.lines = hp.log.Lines()
	hp.list.Refresh()
	if len(hp.lines) > 0 {
		hp.list.ScrollToBottom()
	}
}

func (hp *HistoryPanel) UpdateMetrics(values map[string]float64) {
	hp.metricsContent.RemoveAll()

	names := lo.Keys(values)
	slices.Sort(names)
	for _, name := range names {
		hp.metricsContent.Add(metricWidget(hp.evaluator, name, values[name]))
	}
	hp.metricsContent.Refresh()
}

// metricRating grades a metric against the original working image.
func metricRating(eval *metrics.Evaluator, name string, value float64) (string, fyne.Resource) {
	grade, ok := eval.Rate(name, value)
	if !ok {
		return "", nil
	}
	switch grade {
	case metrics.GradeClose:
		return grade.String(), theme.ConfirmIcon()
	case metrics.GradeLight:
		return grade.String(), theme.InfoIcon()
	case metrics.GradeVisible:
		return grade.String(), theme.WarningIcon()
	default:
		return grade.String(), theme.ErrorIcon()
	}
}

func metricWidget(eval *metrics.Evaluator, name string, value float64) fyne.CanvasObject {
	var text string
	switch name {
	case "psnr":
		text = fmt.Sprintf("PSNR: %.2f dB", value)
	case "mse":
		text = fmt.Sprintf("MSE: %.2f", value)
	default:
		text = fmt.Sprintf("%s: %.3f", name, value)
	}

	label := widget.NewLabel(text)
	rating, icon := metricRating(eval, name, value)
	if rating == "" {
		return label
	}
	return container.NewVBox(
		label,
		container.NewHBox(widget.NewIcon(icon), widget.NewLabel(rating)),
		widget.NewSeparator(),
	)
}
