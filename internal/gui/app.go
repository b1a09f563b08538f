// Main application window wiring the editing session to the widgets
package gui

import (
	"errors"
	"fmt"
	"image"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"snappic/internal/config"
	"snappic/internal/core"
	"snappic/internal/io"
)

// Application is the desktop editor: one window, one session.
type Application struct {
	app    fyne.App
	window fyne.Window
	logger *logrus.Logger
	cfg    *config.Config

	session *core.Session
	loader  *io.ImageLoader

	canvas   *EditCanvas
	controls *ControlPanel
	history  *HistoryPanel
	menu     *MenuHandler
	toolbar  *Toolbar
	status   *widget.Label

	debugger *GUIDebugger
}

func NewApplication(app fyne.App, logger *logrus.Logger, cfg *config.Config, debugMode bool) *Application {
	window := app.NewWindow("SnapPic Photo Editor")
	window.Resize(fyne.NewSize(1400, 900))
	window.CenterOnScreen()

	opts := cfg.SessionOptions()
	var debugger *GUIDebugger
	if debugMode {
		opts = append(opts, core.WithDebugger(core.NewPipelineDebugger(logger)))
		debugger = NewGUIDebugger(logger)
	}

	a := &Application{
		app:      app,
		window:   window,
		logger:   logger,
		cfg:      cfg,
		session:  core.NewSession(logger, opts...),
		loader:   io.NewImageLoader(logger),
		status:   widget.NewLabel("Open an image to start editing"),
		debugger: debugger,
	}

	a.canvas = NewEditCanvas(logger)
	a.controls = NewControlPanel(a.session, logger)
	a.history = NewHistoryPanel(a.session.Log())
	a.menu = NewMenuHandler(window, a.session, a.loader, logger)
	a.toolbar = NewToolbar(logger)

	a.setupLayout()
	a.setupCallbacks()
	return a
}

func (a *Application) setupLayout() {
	right := container.NewVSplit(
		widget.NewCard("History", "", a.history.GetContainer()),
		widget.NewCard("Quality", "", a.history.MetricsContainer()),
	)
	right.SetOffset(0.7)

	center := container.NewBorder(nil, a.status, nil, nil, container.NewPadded(a.canvas))

	centerAndRight := container.NewHSplit(center, right)
	centerAndRight.SetOffset(0.78)

	main := container.NewHSplit(a.controls.GetContainer(), centerAndRight)
	main.SetOffset(0.24)

	a.window.SetMainMenu(a.menu.GetMainMenu())
	a.window.SetContent(container.NewBorder(a.toolbar.GetContainer(), nil, nil, nil, main))
}

func (a *Application) setupCallbacks() {
	a.session.OnChange(func() {
		fyne.Do(a.refresh)
	})
	a.session.OnError(func(err error) {
		fyne.Do(func() { a.showError("Processing Error", err) })
	})

	a.menu.SetCallbacks(
		func(path string) {
			a.controls.Enable()
			a.toolbar.EnableProcessing()
			a.refresh()
			a.setStatus(fmt.Sprintf("Loaded: %s", path))
		},
		func(path string) {
			a.setStatus(fmt.Sprintf("Saved: %s", path))
		},
		func(err error) {
			a.showError("Error", err)
		},
		a.afterEdit,
	)

	a.controls.SetCallbacks(a.afterEdit, a.selectTool)

	a.toolbar.SetCallbacks(
		a.menu.openImage,
		a.menu.saveImage,
		func() {
			_, err := a.session.UndoLastEdit()
			a.afterEdit(err)
		},
		func() { a.afterEdit(a.session.ResetAll()) },
		func(View) {
			a.canvas.SetTool(ToolNone)
			a.refresh()
		},
	)

	a.canvas.SetCallbacks(
		func(spec core.MaskSpec) {
			if a.controls.PreviewAreas() {
				a.confirmSelection(spec)
				return
			}
			a.afterEdit(a.controls.AddSelective(spec))
		},
		func(r image.Rectangle) {
			a.afterEdit(a.session.Crop(r))
			a.selectTool(ToolNone)
		},
	)
}

// afterEdit refreshes the widgets after a session call made from the UI
// goroutine, reporting err if it failed.
func (a *Application) afterEdit(err error) {
	a.debugger.LogUIInteraction("Session", "edit", logrus.Fields{"error": err != nil})
	switch {
	case errors.Is(err, core.ErrPreconditionNotMet), errors.Is(err, core.ErrMedianBudgetExceeded):
		a.logger.WithError(err).Info("GUI: Edit not available")
		dialog.ShowInformation("Not Available", err.Error(), a.window)
	case err != nil:
		a.showError("Edit Failed", err)
	}
	a.controls.Sync(a.session.State())
	a.history.Refresh()
	if lines := a.session.Log().Messages(); len(lines) > 0 {
		a.setStatus(lines[len(lines)-1])
	}
}

// confirmSelection shows the drawn area tinted and applies it once the user
// agrees.
func (a *Application) confirmSelection(spec core.MaskSpec) {
	preview, err := a.session.PreviewSelection(spec)
	if err != nil {
		a.afterEdit(err)
		return
	}
	img, err := io.ToDisplayImage(preview, a.cfg.Preview.MaxWidth, a.cfg.Preview.MaxHeight)
	cols, rows := preview.Cols(), preview.Rows()
	preview.Close()
	if err != nil {
		a.showError("Display Error", err)
		return
	}
	a.canvas.SetImage(img, cols, rows)

	dialog.ShowConfirm("Apply Area", "Apply a blur to the highlighted area?", func(apply bool) {
		if apply {
			a.afterEdit(a.controls.AddSelective(spec))
		}
		a.refresh()
	}, a.window)
}

// selectTool arms a canvas tool, switching back to the edited view since
// drawings are made on the working image.
func (a *Application) selectTool(tool Tool) {
	if tool != ToolNone && a.toolbar.View() != ViewEdited {
		a.toolbar.setView(ViewEdited)
	}
	a.canvas.SetTool(tool)
}

// refresh redraws the selected view. It must run on the UI goroutine.
func (a *Application) refresh() {
	start := time.Now()

	var shown gocv.Mat
	if a.toolbar.View() == ViewOriginal {
		shown = a.session.Original()
	} else {
		shown = a.session.Processed()
	}
	defer shown.Close()

	if shown.Empty() {
		return
	}
	img, err := io.ToDisplayImage(shown, a.cfg.Preview.MaxWidth, a.cfg.Preview.MaxHeight)
	if err != nil {
		a.showError("Display Error", err)
		return
	}

	a.canvas.SetImage(img, shown.Cols(), shown.Rows())
	a.debugger.LogRender(time.Since(start), shown.Cols(), shown.Rows())
	a.history.UpdateMetrics(a.session.Metrics())
	a.history.Refresh()
}

func (a *Application) setStatus(message string) {
	a.status.SetText(message)
}

func (a *Application) ShowAndRun() {
	a.logger.Info("GUI: Showing main window")

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

// LoadImageFromPath opens path before the window is shown.
func (a *Application) LoadImageFromPath(path string) error {
	return a.menu.load(path)
}

func (a *Application) cleanup() {
	a.logger.Info("GUI: Releasing session resources")
	a.session.Close()
	a.debugger.PrintStatus()
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error("GUI: " + title)
	a.debugger.LogRuntimeError(title, err)
	dialog.ShowError(err, a.window)
	a.setStatus(fmt.Sprintf("Error: %v", err))
}
