// Top toolbar: file actions, quick edits and the before/after view toggle
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

// View selects which buffer the canvas shows.
type View int

const (
	ViewEdited View = iota
	ViewOriginal
)

func (v View) String() string {
	if v == ViewOriginal {
		return "original"
	}
	return "edited"
}

type Toolbar struct {
	logger *logrus.Logger

	container *fyne.Container

	openBtn  *widget.Button
	saveBtn  *widget.Button
	undoBtn  *widget.Button
	resetBtn *widget.Button

	editedBtn   *widget.Button
	originalBtn *widget.Button

	currentView View

	onOpen        func()
	onSave        func()
	onUndo        func()
	onReset       func()
	onViewChanged func(View)
}

func NewToolbar(logger *logrus.Logger) *Toolbar {
	tb := &Toolbar{
		logger:      logger,
		currentView: ViewEdited,
	}
	tb.initializeUI()
	return tb
}

func (tb *Toolbar) initializeUI() {
	titleLabel := widget.NewLabelWithStyle("SnapPic", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	tb.openBtn = widget.NewButtonWithIcon("OPEN IMAGE", theme.FolderOpenIcon(), func() { call(tb.onOpen) })
	tb.openBtn.Importance = widget.HighImportance

	tb.saveBtn = widget.NewButtonWithIcon("SAVE IMAGE", theme.DocumentSaveIcon(), func() { call(tb.onSave) })
	tb.saveBtn.Importance = widget.HighImportance

	tb.undoBtn = widget.NewButtonWithIcon("Undo area", theme.ContentUndoIcon(), func() { call(tb.onUndo) })
	tb.resetBtn = widget.NewButtonWithIcon("Reset", theme.ViewRefreshIcon(), func() { call(tb.onReset) })

	leftSection := container.NewHBox(
		titleLabel,
		widget.NewSeparator(),
		tb.openBtn,
		tb.saveBtn,
		widget.NewSeparator(),
		tb.undoBtn,
		tb.resetBtn,
	)

	tb.editedBtn = widget.NewButton("Edited", func() { tb.setView(ViewEdited) })
	tb.originalBtn = widget.NewButton("Original", func() { tb.setView(ViewOriginal) })

	rightSection := container.NewHBox(
		widget.NewLabel("View:"),
		tb.editedBtn,
		tb.originalBtn,
	)

	tb.container = container.NewBorder(nil, nil, leftSection, rightSection)
	tb.highlightView()
	tb.DisableProcessing()
}

func (tb *Toolbar) setView(view View) {
	if view == tb.currentView {
		return
	}
	tb.currentView = view
	tb.highlightView()

	tb.logger.WithField("view", view.String()).Debug("TOOLBAR: View changed")
	if tb.onViewChanged != nil {
		tb.onViewChanged(view)
	}
}

func (tb *Toolbar) highlightView() {
	tb.editedBtn.Importance = widget.MediumImportance
	tb.originalBtn.Importance = widget.MediumImportance
	if tb.currentView == ViewOriginal {
		tb.originalBtn.Importance = widget.HighImportance
	} else {
		tb.editedBtn.Importance = widget.HighImportance
	}
	tb.editedBtn.Refresh()
	tb.originalBtn.Refresh()
}

func (tb *Toolbar) View() View {
	return tb.currentView
}

// EnableProcessing turns on the actions that need an image.
func (tb *Toolbar) EnableProcessing() {
	tb.saveBtn.Enable()
	tb.undoBtn.Enable()
	tb.resetBtn.Enable()
	tb.editedBtn.Enable()
	tb.originalBtn.Enable()
}

func (tb *Toolbar) DisableProcessing() {
	tb.saveBtn.Disable()
	tb.undoBtn.Disable()
	tb.resetBtn.Disable()
	tb.editedBtn.Disable()
	tb.originalBtn.Disable()
}

func (tb *Toolbar) GetContainer() fyne.CanvasObject {
	return tb.container
}

func (tb *Toolbar) SetCallbacks(onOpen, onSave, onUndo, onReset func(), onViewChanged func(View)) {
	tb.onOpen = onOpen
	tb.onSave = onSave
	tb.onUndo = onUndo
	tb.onReset = onReset
	tb.onViewChanged = onViewChanged
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
