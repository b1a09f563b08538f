// Image decoding, encoding and display conversion
package io

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	xdraw "golang.org/x/image/draw"
)

var supportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

// ImageLoader reads and writes images as 8-bit BGR or BGRA Mats.
type ImageLoader struct {
	logger *logrus.Logger
}

func NewImageLoader(logger *logrus.Logger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// IsSupported reports whether path has an extension the loader handles.
func IsSupported(path string) bool {
	return slices.Contains(supportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// SupportedExtensions lists the handled extensions, dot included.
func SupportedExtensions() []string {
	return slices.Clone(supportedExtensions)
}

// LoadImage decodes the file at path. The caller owns the returned Mat.
func (il *ImageLoader) LoadImage(path string) (gocv.Mat, error) {
	il.logger.WithField("path", path).Debug("IO: Loading image")

	if !IsSupported(path) {
		return gocv.NewMat(), fmt.Errorf("unsupported image format: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("read %s: %w", path, err)
	}

	mat, err := il.Decode(data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("decode %s: %w", path, err)
	}

	il.logger.WithFields(logrus.Fields{
		"path":     path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("IO: Image loaded")

	return mat, nil
}

// Decode reads an encoded image from memory, keeping an alpha channel when
// present. Grayscale inputs are expanded to BGR. The caller owns the
// returned Mat.
func (il *ImageLoader) Decode(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), fmt.Errorf("no image data")
	}

	raw, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer raw.Close()

	if raw.Empty() {
		return gocv.NewMat(), fmt.Errorf("data is not a supported image")
	}

	return NormalizeChannels(raw)
}

// NormalizeChannels converts mat to 8-bit BGR or BGRA: single-channel images
// become BGR, 16-bit images are scaled down, three and four channels are
// kept. The caller owns the returned Mat.
func NormalizeChannels(mat gocv.Mat) (gocv.Mat, error) {
	if mat.Empty() {
		return gocv.NewMat(), fmt.Errorf("image is empty")
	}

	src := mat
	switch mat.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
	case gocv.MatTypeCV16UC1, gocv.MatTypeCV16UC3, gocv.MatTypeCV16UC4:
		scaled := gocv.NewMat()
		defer scaled.Close()
		mat.ConvertToWithParams(&scaled, gocv.MatTypeCV8U, 1.0/257, 0)
		src = scaled
	default:
		return gocv.NewMat(), fmt.Errorf("unsupported pixel type %v", mat.Type())
	}

	switch src.Channels() {
	case 1:
		bgr := gocv.NewMat()
		gocv.CvtColor(src, &bgr, gocv.ColorGrayToBGR)
		return bgr, nil
	case 3, 4:
		return src.Clone(), nil
	default:
		return gocv.NewMat(), fmt.Errorf("unsupported channel count %d", src.Channels())
	}
}

// SaveImage encodes mat in the format implied by path's extension. JPEG and
// BMP drop the alpha channel of a BGRA image.
func (il *ImageLoader) SaveImage(mat gocv.Mat, path string) error {
	il.logger.WithField("path", path).Debug("IO: Saving image")

	data, err := il.Encode(mat, filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	il.logger.WithFields(logrus.Fields{
		"path":     path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
		"bytes":    len(data),
	}).Info("IO: Image saved")

	return nil
}

// Encode returns mat encoded with the given extension (".png", "jpg", ...).
func (il *ImageLoader) Encode(mat gocv.Mat, ext string) ([]byte, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("cannot encode empty image")
	}

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if !slices.Contains(supportedExtensions, ext) {
		return nil, fmt.Errorf("unsupported image format: %s", ext)
	}

	src := mat
	if mat.Channels() == 4 && (ext == ".jpg" || ext == ".jpeg" || ext == ".bmp") {
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(mat, &bgr, gocv.ColorBGRAToBGR)
		src = bgr
		il.logger.WithField("format", ext).Debug("IO: Dropping alpha channel for format without transparency")
	}

	buf, err := gocv.IMEncode(gocv.FileExt(ext), src)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return slices.Clone(buf.GetBytes()), nil
}

// ToDisplayImage converts mat to an RGBA image no larger than maxWidth x
// maxHeight, keeping the aspect ratio. A non-positive bound is ignored.
func ToDisplayImage(mat gocv.Mat, maxWidth, maxHeight int) (image.Image, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("cannot display empty image")
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert to image: %w", err)
	}

	w, h := FitWithin(mat.Cols(), mat.Rows(), maxWidth, maxHeight)
	if w == mat.Cols() && h == mat.Rows() {
		return img, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// FitWithin scales w x h down to fit inside maxWidth x maxHeight. It never
// scales up.
func FitWithin(w, h, maxWidth, maxHeight int) (int, int) {
	scale := 1.0
	if maxWidth > 0 && w > maxWidth {
		scale = min(scale, float64(maxWidth)/float64(w))
	}
	if maxHeight > 0 && h > maxHeight {
		scale = min(scale, float64(maxHeight)/float64(h))
	}
	if scale == 1.0 {
		return w, h
	}
	return max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
}
