package iconpane

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const halfSquare = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><rect x="0" y="0" width="12" height="12" fill="#ff0000"/></svg>`

func TestRasterize_ShouldProduceSquareBitmap(t *testing.T) {
	for _, size := range []int{16, 24, 64, 100} {
		data, err := Rasterize(halfSquare, size, nil)
		require.NoError(t, err)

		img, err := imaging.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, size, img.Bounds().Dx())
		assert.Equal(t, size, img.Bounds().Dy())
	}
}

func TestRasterize_ShouldScaleToViewBox(t *testing.T) {
	img, err := RasterizeImage(halfSquare, 48, nil)
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, img.NRGBAAt(6, 6))
	assert.Equal(t, uint8(0), img.NRGBAAt(40, 40).A)
}

func TestRasterize_ShouldPaintBackground(t *testing.T) {
	blue := color.NRGBA{B: 0xff, A: 0xff}
	img, err := RasterizeImage(halfSquare, 48, &blue)
	require.NoError(t, err)

	assert.Equal(t, blue, img.NRGBAAt(47, 47))
	assert.Equal(t, blue, img.NRGBAAt(40, 2))
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, img.NRGBAAt(6, 6))
}

func TestRasterize_ShouldFallBackToCanvasWithoutViewBox(t *testing.T) {
	img, err := RasterizeImage(`<svg><rect width="10" height="10" fill="red"/></svg>`, 20, nil)
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, img.NRGBAAt(4, 4))
	assert.Equal(t, uint8(0), img.NRGBAAt(15, 15).A)
}

func TestRasterize_ShouldReplaceCurrentColor(t *testing.T) {
	img, err := RasterizeImage(`<svg viewBox="0 0 10 10"><rect width="10" height="10" fill="currentColor"/></svg>`, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{A: 0xff}, img.NRGBAAt(5, 5))
}

func TestRasterize_ShouldRejectInvalidInput(t *testing.T) {
	cases := map[string]struct {
		markup string
		size   int
	}{
		"malformed": {`<svg><rect></svg>`, 24},
		"not svg":   {`<path d="M0 0h10v10z"/>`, 24},
		"empty":     {``, 24},
		"zero size": {halfSquare, 0},
		"too large": {halfSquare, maxSize + 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Rasterize(tc.markup, tc.size, nil)
			assert.ErrorIs(t, err, ErrRasterize)
		})
	}
}

func TestRasterize_ShouldEncodeRequestedFormat(t *testing.T) {
	for _, name := range []string{"png", "jpeg", "jpg", "gif", "bmp", "tiff"} {
		f, err := ParseFormat(name)
		require.NoError(t, err, name)

		data, err := RasterizeFormat(halfSquare, 24, nil, f)
		require.NoError(t, err, name)
		img, err := imaging.Decode(bytes.NewReader(data))
		require.NoError(t, err, name)
		assert.Equal(t, 24, img.Bounds().Dx(), name)
	}

	_, err := ParseFormat("webp")
	assert.Error(t, err)

	f, err := ParseFormat(".PNG")
	require.NoError(t, err)
	assert.Equal(t, imaging.PNG, f)
}

func TestRasterize_ShouldEncodeBase64(t *testing.T) {
	data, err := Rasterize(halfSquare, 16, nil)
	require.NoError(t, err)

	text := EncodeBase64(data)
	decoded, err := base64.StdEncoding.DecodeString(text)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
	assert.Equal(t, "iVBORw0KGgo", text[:11])
}
