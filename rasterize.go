package iconpane

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/beevik/etree"
	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/openslides/iconpane/imop"
)

// maxSize bounds the edge length of a rendered bitmap.
const maxSize = 4096

// currentColor stands in for the inherited text color of markup that was left unstyled.
const currentColor = "#000000"

// ParseFormat returns the raster format registered for a file extension or format name.
func ParseFormat(name string) (imaging.Format, error) {
	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}
	f, err := imaging.FormatFromExtension(name)
	if err != nil {
		return 0, fmt.Errorf("unsupported raster format %q", strings.TrimPrefix(name, "."))
	}
	return f, nil
}

// Rasterize renders markup into a size × size PNG. When background is set
// the whole canvas is filled with it before the icon is drawn.
func Rasterize(markup string, size int, background *color.NRGBA) ([]byte, error) {
	return RasterizeFormat(markup, size, background, imaging.PNG)
}

// RasterizeFormat is Rasterize with an explicit output format.
func RasterizeFormat(markup string, size int, background *color.NRGBA, format imaging.Format) ([]byte, error) {
	img, err := RasterizeImage(markup, size, background)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", ErrRasterize, format, err)
	}
	return buf.Bytes(), nil
}

// RasterizeImage renders markup into a size × size bitmap.
func RasterizeImage(markup string, size int, background *color.NRGBA) (img *image.NRGBA, err error) {
	if size <= 0 || size > maxSize {
		return nil, fmt.Errorf("%w: invalid size %d", ErrRasterize, size)
	}
	if err := checkDocument(markup); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("%w: %v", ErrRasterize, r)
		}
	}()

	icon, err := oksvg.ReadReplacingCurrentColor(strings.NewReader(markup), currentColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}

	w := float64(size)
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.X, icon.ViewBox.Y = 0, 0
		icon.ViewBox.W, icon.ViewBox.H = w, w
	}
	icon.SetTarget(0, 0, w, w)

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, canvas, canvas.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	layer := imaging.Clone(canvas)
	if background == nil {
		return layer, nil
	}

	backdrop := imaging.New(size, size, *background)
	out := image.NewNRGBA(layer.Bounds())
	imop.InitOp().Draw(out, layer, backdrop)
	return out, nil
}

// checkDocument verifies markup is well-formed XML rooted at an svg element.
func checkDocument(markup string) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(markup); err != nil {
		return fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return fmt.Errorf("%w: markup is not an svg document", ErrRasterize)
	}
	return nil
}

// EncodeBase64 returns the text-safe form of an encoded bitmap expected by the insertion boundary.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
