/*
Package quant reduces true-color pixmaps to indexed pixmaps of at most 256
colors.

The default method builds an octree over the colors of the image, merging
the least referenced leaves until no more than the requested number remain.
A median-cut method built on github.com/ericpauley/go-quantize is also
available. Either method can apply Floyd-Steinberg error diffusion when
mapping pixels to the palette.
*/
package quant

import (
	"io/ioutil"
	"log"
	"strings"

	"github.com/bodgit/imago"
	"github.com/pkg/errors"
)

const (
	// MinColors is the smallest palette that can be requested
	MinColors = 2
	// MaxColors is the largest palette that can be requested
	MaxColors = imago.PaletteSize
)

// ErrColors is returned when the requested number of colors is outside
// MinColors to MaxColors
var ErrColors = errors.New("quant: number of colors out of range")

// Dither selects how pixels are mapped to the palette
type Dither int

// Dithering modes
const (
	None Dither = iota
	FloydSteinberg
)

func (d Dither) String() string {
	switch d {
	case None:
		return "none"
	case FloydSteinberg:
		return "floyd-steinberg"
	}
	return "unknown"
}

// ParseDither returns the Dither with the given name. "fs" is accepted as
// shorthand for "floyd-steinberg".
func ParseDither(s string) (Dither, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "fs", "floyd-steinberg":
		return FloydSteinberg, nil
	}
	return None, errors.Errorf("quant: unknown dither mode %q", s)
}

// Method selects the palette building algorithm
type Method int

// Palette building methods
const (
	Octree Method = iota
	MedianCut
)

func (m Method) String() string {
	switch m {
	case Octree:
		return "octree"
	case MedianCut:
		return "median-cut"
	}
	return "unknown"
}

// ParseMethod returns the Method with the given name
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "", "octree":
		return Octree, nil
	case "median-cut", "mediancut":
		return MedianCut, nil
	}
	return Octree, errors.Errorf("quant: unknown method %q", s)
}

// Options controls a quantization
type Options struct {
	Method Method
	Dither Dither
	Logger *log.Logger
}

// Quantize reduces p to at most colors palette entries using the octree
// method. On success p becomes an imago.Idx8 pixmap carrying the new
// palette; on failure p is unchanged.
func Quantize(p *imago.Pixmap, colors int, dither Dither) error {
	return QuantizeWithOptions(p, colors, Options{Dither: dither})
}

// QuantizeWithOptions is like Quantize but allows the method and logger to
// be chosen
func QuantizeWithOptions(p *imago.Pixmap, colors int, opts Options) error {
	if colors < MinColors || colors > MaxColors {
		return errors.Wrapf(ErrColors, "quant: %d", colors)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}

	// Work on a private RGB24 copy, the dithering modifies it
	rgb, err := p.Clone()
	if err != nil {
		return err
	}
	if err := rgb.Convert(imago.RGB24); err != nil {
		return err
	}

	var (
		idx []byte
		pal *imago.Palette
	)
	switch opts.Method {
	case Octree:
		idx, pal = octreeQuantize(rgb, colors, opts.Dither, logger)
	case MedianCut:
		idx, pal = medianCut(rgb, colors, opts.Dither)
	default:
		return errors.Errorf("quant: unknown method %d", opts.Method)
	}

	dst := imago.New(imago.Idx8)
	if err := dst.SetPixels(rgb.Width(), rgb.Height(), imago.Idx8, idx); err != nil {
		return err
	}
	dst.SetPalette(pal)

	p.Replace(dst)
	return nil
}

func octreeQuantize(rgb *imago.Pixmap, colors int, dither Dither, logger *log.Logger) ([]byte, *imago.Palette) {
	t := newOctree(logger)

	pix := rgb.Pixels()
	for i := 0; i < len(pix); i += 3 {
		t.add(pix[i], pix[i+1], pix[i+2])
		for t.leaves > colors {
			if !t.reduce() {
				break
			}
		}
	}

	pal := new(imago.Palette)
	pal.Len = t.assign(0, 0, pal)

	w, h := rgb.Width(), rgb.Height()
	idx := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := pix[(y*w+x)*3:]
			i := t.lookup(s[0], s[1], s[2])
			idx[y*w+x] = uint8(i)
			if dither == FloydSteinberg {
				diffuse(pix, w, h, x, y, pal.Colors[i])
			}
		}
	}

	return idx, pal
}
