package quant

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/bodgit/imago"
	"github.com/ericpauley/go-quantize/quantize"
)

// medianCut builds the palette with go-quantize and maps the pixels with
// the standard library drawers
func medianCut(rgb *imago.Pixmap, colors int, dither Dither) ([]byte, *imago.Palette) {
	w, h := rgb.Width(), rgb.Height()
	b := image.Rect(0, 0, w, h)

	m := image.NewRGBA(b)
	pix := rgb.Pixels()
	for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
		m.Pix[j+0] = pix[i+0]
		m.Pix[j+1] = pix[i+1]
		m.Pix[j+2] = pix[i+2]
		m.Pix[j+3] = 0xff
	}

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colors), m))

	var d draw.Drawer = draw.Src
	if dither == FloydSteinberg {
		d = draw.FloydSteinberg
	}
	d.Draw(pm, b, m, image.Point{})

	return pm.Pix, imago.NewPalette(pm.Palette)
}
