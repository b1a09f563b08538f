// Menu handler for file and edit actions
package gui

import (
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"snappic/internal/core"
	"snappic/internal/io"
)

// MenuHandler handles menu actions
type MenuHandler struct {
	window  fyne.Window
	session *core.Session
	loader  *io.ImageLoader
	logger  *logrus.Logger

	onImageLoaded func(string)
	onImageSaved  func(string)
	onError       func(error)
	onEdit        func(error)
}

func NewMenuHandler(window fyne.Window, session *core.Session, loader *io.ImageLoader, logger *logrus.Logger) *MenuHandler {
	return &MenuHandler{
		window:  window,
		session: session,
		loader:  loader,
		logger:  logger,
	}
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mh.openImage),
		fyne.NewMenuItem("Save Image...", mh.saveImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() {
			mh.window.Close()
		}),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo Last Selective Edit", func() {
			_, err := mh.session.UndoLastEdit()
			mh.edit(err)
		}),
		fyne.NewMenuItem("Clear Selective Edits", func() {
			mh.edit(mh.session.ClearEdits())
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Reset Crop", func() {
			mh.edit(mh.session.ResetCrop())
		}),
		fyne.NewMenuItem("Reset All", func() {
			mh.edit(mh.session.ResetAll())
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	return fyne.NewMainMenu(fileMenu, editMenu, helpMenu)
}

func (mh *MenuHandler) openImage() {
	mh.logger.Debug("MENU: Opening file dialog")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.fail(err)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		if err := mh.load(reader.URI().Path()); err != nil {
			mh.fail(err)
		}
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.SupportedExtensions()))
	fileDialog.Show()
}

func (mh *MenuHandler) load(path string) error {
	mat, err := mh.loader.LoadImage(path)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	defer mat.Close()

	if err := mh.session.Load(mat, path); err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}

	mh.logger.WithField("path", path).Info("MENU: Image opened")
	if mh.onImageLoaded != nil {
		mh.onImageLoaded(path)
	}
	return nil
}

func (mh *MenuHandler) saveImage() {
	if mh.session.Phase() == core.PhaseEmpty {
		mh.fail(core.ErrNoImageLoaded)
		return
	}

	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mh.fail(err)
			return
		}
		if writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()

		mh.session.Wait()
		processed := mh.session.Processed()
		defer processed.Close()

		if err := mh.loader.SaveImage(processed, path); err != nil {
			mh.fail(fmt.Errorf("failed to save image: %w", err))
			return
		}

		if mh.onImageSaved != nil {
			mh.onImageSaved(path)
		}
	}, mh.window)

	name := mh.session.Metadata().Name
	fileDialog.SetFileName("edited_" + trimExt(filepath.Base(name)) + ".png")
	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.SupportedExtensions()))
	fileDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("SnapPic Photo Editor"),
		widget.NewSeparator(),
		widget.NewLabel("Blur, tone, black & white, background removal,"),
		widget.NewLabel("masked selective blurs, crop and resize."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go, Fyne v2.6 and OpenCV"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(400, 240))
	aboutDialog.Show()
}

func (mh *MenuHandler) edit(err error) {
	if mh.onEdit != nil {
		mh.onEdit(err)
	}
}

func (mh *MenuHandler) fail(err error) {
	if mh.onError != nil {
		mh.onError(err)
		return
	}
	mh.logger.WithError(err).Error("MENU: Action failed")
	dialog.ShowError(err, mh.window)
}

func (mh *MenuHandler) SetCallbacks(onImageLoaded, onImageSaved func(string), onError, onEdit func(error)) {
	mh.onImageLoaded = onImageLoaded
	mh.onImageSaved = onImageSaved
	mh.onError = onError
	mh.onEdit = onEdit
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
