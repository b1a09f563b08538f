// Interactive canvas: shows the processed image and turns drags into masks
// and crop rectangles
package gui

import (
	"image"
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"snappic/internal/core"
)

// Tool is what a drag on the canvas draws.
type Tool int

const (
	ToolNone Tool = iota
	ToolRectangle
	ToolCircle
	ToolFreeform
	ToolCrop
)

func (t Tool) String() string {
	switch t {
	case ToolRectangle:
		return "rectangle"
	case ToolCircle:
		return "circle"
	case ToolFreeform:
		return "freeform"
	case ToolCrop:
		return "crop"
	default:
		return "none"
	}
}

var (
	maskOutline = color.RGBA{R: 255, G: 220, B: 0, A: 200}
	cropOutline = color.RGBA{R: 0, G: 200, B: 255, A: 220}
)

// viewport maps between widget positions and image pixels for an image drawn
// with ImageFillContain.
type viewport struct {
	offsetX, offsetY float32
	scale            float32 // widget units per image pixel
}

func fitViewport(size fyne.Size, imgW, imgH int) viewport {
	if imgW <= 0 || imgH <= 0 || size.Width <= 0 || size.Height <= 0 {
		return viewport{scale: 1}
	}
	scale := min(size.Width/float32(imgW), size.Height/float32(imgH))
	return viewport{
		offsetX: (size.Width - float32(imgW)*scale) / 2,
		offsetY: (size.Height - float32(imgH)*scale) / 2,
		scale:   scale,
	}
}

// toDisplay returns p relative to the top-left corner of the drawn image, in
// widget units.
func (v viewport) toDisplay(p fyne.Position) image.Point {
	return image.Pt(int(p.X-v.offsetX), int(p.Y-v.offsetY))
}

func (v viewport) toImage(p fyne.Position) image.Point {
	return image.Pt(int((p.X-v.offsetX)/v.scale), int((p.Y-v.offsetY)/v.scale))
}

func (v viewport) toWidget(p image.Point) fyne.Position {
	return fyne.NewPos(float32(p.X)*v.scale+v.offsetX, float32(p.Y)*v.scale+v.offsetY)
}

// gestureSpec turns a finished drag into a mask description. Coordinates stay
// in display units and the scale converts them to image pixels.
func gestureSpec(tool Tool, start, end fyne.Position, path []fyne.Position, v viewport) (core.MaskSpec, bool) {
	spec := core.MaskSpec{
		Start:  v.toDisplay(start),
		End:    v.toDisplay(end),
		ScaleX: 1 / float64(v.scale),
		ScaleY: 1 / float64(v.scale),
	}

	switch tool {
	case ToolRectangle:
		spec.Shape = core.ShapeRectangle
	case ToolCircle:
		spec.Shape = core.ShapeCircle
	case ToolFreeform:
		spec.Shape = core.ShapeFreeform
		spec.Points = make([]image.Point, len(path))
		for i, p := range path {
			spec.Points[i] = v.toDisplay(p)
		}
	default:
		return core.MaskSpec{}, false
	}
	return spec, true
}

// gestureCrop turns a finished crop drag into an image rectangle.
func gestureCrop(start, end fyne.Position, v viewport) image.Rectangle {
	return image.Rectangle{Min: v.toImage(start), Max: v.toImage(end)}.Canon()
}

// EditCanvas displays the working image and collects drags for the active
// tool.
type EditCanvas struct {
	widget.BaseWidget

	logger *logrus.Logger

	display *canvas.Image
	overlay *canvas.Raster

	imgW, imgH int
	tool       Tool
	drawing    bool
	start, end fyne.Position
	path       []fyne.Position

	onMask func(core.MaskSpec)
	onCrop func(image.Rectangle)
}

func NewEditCanvas(logger *logrus.Logger) *EditCanvas {
	ec := &EditCanvas{
		logger: logger,
		tool:   ToolNone,
	}
	ec.display = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	ec.display.FillMode = canvas.ImageFillContain
	ec.overlay = canvas.NewRaster(ec.drawOverlay)

	ec.ExtendBaseWidget(ec)
	return ec
}

func (ec *EditCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &editCanvasRenderer{canvas: ec}
}

func (ec *EditCanvas) SetCallbacks(onMask func(core.MaskSpec), onCrop func(image.Rectangle)) {
	ec.onMask = onMask
	ec.onCrop = onCrop
}

// SetTool selects what the next drag draws.
func (ec *EditCanvas) SetTool(tool Tool) {
	ec.tool = tool
	ec.drawing = false
	ec.path = nil
	ec.overlay.Refresh()
	ec.logger.WithField("tool", tool.String()).Debug("CANVAS: Tool changed")
}

// SetImage shows img, a display copy of a width x height working image.
func (ec *EditCanvas) SetImage(img image.Image, width, height int) {
	ec.imgW, ec.imgH = width, height
	ec.display.Image = img
	ec.display.Refresh()
	ec.overlay.Refresh()
}

func (ec *EditCanvas) viewport() viewport {
	return fitViewport(ec.Size(), ec.imgW, ec.imgH)
}

func (ec *EditCanvas) MouseDown(event *desktop.MouseEvent) {
	if ec.tool == ToolNone || ec.imgW == 0 {
		return
	}
	ec.drawing = true
	ec.start, ec.end = event.Position, event.Position
	ec.path = []fyne.Position{event.Position}
}

func (ec *EditCanvas) MouseUp(*desktop.MouseEvent) {}

func (ec *EditCanvas) Dragged(event *fyne.DragEvent) {
	if !ec.drawing {
		return
	}
	ec.end = event.Position
	if ec.tool == ToolFreeform {
		ec.path = append(ec.path, event.Position)
	}
	ec.overlay.Refresh()
}

func (ec *EditCanvas) DragEnd() {
	if !ec.drawing {
		return
	}
	ec.drawing = false
	defer ec.overlay.Refresh()

	v := ec.viewport()
	if ec.tool == ToolCrop {
		r := gestureCrop(ec.start, ec.end, v)
		ec.logger.WithField("rect", r.String()).Debug("CANVAS: Crop drawn")
		if ec.onCrop != nil {
			ec.onCrop(r)
		}
		return
	}

	spec, ok := gestureSpec(ec.tool, ec.start, ec.end, ec.path, v)
	if !ok {
		return
	}
	ec.logger.WithFields(logrus.Fields{
		"shape":  spec.Shape.String(),
		"points": len(spec.Points),
	}).Debug("CANVAS: Selection drawn")
	if ec.onMask != nil {
		ec.onMask(spec)
	}
	ec.path = nil
}

// drawOverlay renders the outline of the drag in progress.
func (ec *EditCanvas) drawOverlay(w, h int) image.Image {
	overlay := image.NewRGBA(image.Rect(0, 0, w, h))
	if !ec.drawing || ec.Size().Width == 0 {
		return overlay
	}

	px := float32(w) / ec.Size().Width
	toPx := func(p fyne.Position) image.Point {
		return image.Pt(int(p.X*px), int(p.Y*px))
	}
	start, end := toPx(ec.start), toPx(ec.end)

	switch ec.tool {
	case ToolRectangle:
		drawRect(overlay, image.Rectangle{Min: start, Max: end}.Canon(), maskOutline)
	case ToolCrop:
		drawRect(overlay, image.Rectangle{Min: start, Max: end}.Canon(), cropOutline)
	case ToolCircle:
		center := image.Pt((start.X+end.X)/2, (start.Y+end.Y)/2)
		radius := math.Hypot(float64(end.X-start.X), float64(end.Y-start.Y)) / 2
		drawCircle(overlay, center, radius, maskOutline)
	case ToolFreeform:
		for i := 1; i < len(ec.path); i++ {
			drawLine(overlay, toPx(ec.path[i-1]), toPx(ec.path[i]), maskOutline)
		}
	}
	return overlay
}

func drawRect(img *image.RGBA, r image.Rectangle, col color.RGBA) {
	drawLine(img, r.Min, image.Pt(r.Max.X, r.Min.Y), col)
	drawLine(img, image.Pt(r.Max.X, r.Min.Y), r.Max, col)
	drawLine(img, r.Max, image.Pt(r.Min.X, r.Max.Y), col)
	drawLine(img, image.Pt(r.Min.X, r.Max.Y), r.Min, col)
}

func drawCircle(img *image.RGBA, center image.Point, radius float64, col color.RGBA) {
	const segments = 64
	prev := image.Pt(center.X+int(radius), center.Y)
	for i := 1; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		next := image.Pt(center.X+int(radius*math.Cos(a)), center.Y+int(radius*math.Sin(a)))
		drawLine(img, prev, next, col)
		prev = next
	}
}

// drawLine plots a Bresenham line, clipped to img.
func drawLine(img *image.RGBA, p1, p2 image.Point, col color.RGBA) {
	dx := abs(p2.X - p1.X)
	dy := abs(p2.Y - p1.Y)
	sx, sy := -1, -1
	if p1.X < p2.X {
		sx = 1
	}
	if p1.Y < p2.Y {
		sy = 1
	}
	err := dx - dy

	x, y := p1.X, p1.Y
	bounds := img.Bounds()
	for {
		if image.Pt(x, y).In(bounds) {
			img.SetRGBA(x, y, col)
		}
		if x == p2.X && y == p2.Y {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type editCanvasRenderer struct {
	canvas *EditCanvas
}

func (r *editCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.display.Resize(size)
	r.canvas.overlay.Resize(size)
}

func (r *editCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

func (r *editCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.display, r.canvas.overlay}
}

func (r *editCanvasRenderer) Refresh() {
	r.canvas.display.Refresh()
	r.canvas.overlay.Refresh()
}

func (r *editCanvasRenderer) Destroy() {}
