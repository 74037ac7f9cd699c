/*
Package imago is a format-agnostic in-memory pixel buffer with pluggable
file format codecs.

A Pixmap owns a pixel buffer in one of nine pixel formats and, for indexed
images, a palette. Codecs are registered in a Registry which selects a codec
by probing the content of a stream when decoding and by filename suffix when
encoding. Pixmaps can be converted between any two non-indexed formats
through a floating point intermediate.
*/
package imago

import (
	"math"

	"github.com/pkg/errors"
)

// Pixmap is an image held in memory. The pixel buffer length is always
// width * height * pixel size of the current format; operations that change
// the buffer build a new one and swap it in on success.
type Pixmap struct {
	pix     []byte
	width   int
	height  int
	format  Format
	pixSize int
	name    string
	palette *Palette
}

// New returns an empty pixmap of the given format
func New(f Format) *Pixmap {
	p := new(Pixmap)
	p.Init(f)
	return p
}

// Init resets p to an empty zero-sized pixmap of the given format
func (p *Pixmap) Init(f Format) {
	*p = Pixmap{
		format:  f,
		pixSize: f.PixelSize(),
	}
}

// Destroy releases the buffer, name and palette. The pixmap must be
// re-initialized with Init before it is used again.
func (p *Pixmap) Destroy() {
	*p = Pixmap{
		format: -1,
	}
}

// Width returns the width in pixels
func (p *Pixmap) Width() int { return p.width }

// Height returns the height in pixels
func (p *Pixmap) Height() int { return p.height }

// Format returns the pixel format
func (p *Pixmap) Format() Format { return p.format }

// PixelSize returns the number of bytes per pixel
func (p *Pixmap) PixelSize() int { return p.pixSize }

// Stride returns the number of bytes per scanline
func (p *Pixmap) Stride() int { return p.width * p.pixSize }

// Pixels returns the pixel buffer. The slice is owned by the pixmap and is
// invalidated by any operation that replaces the buffer.
func (p *Pixmap) Pixels() []byte { return p.pix }

// Name returns the display or file name, if any
func (p *Pixmap) Name() string { return p.name }

// SetName sets the display or file name
func (p *Pixmap) SetName(name string) { p.name = name }

// Palette returns the colormap of an indexed pixmap, or nil
func (p *Pixmap) Palette() *Palette { return p.palette }

// SetPalette attaches a copy of pal to the pixmap. A nil pal removes any
// palette.
func (p *Pixmap) SetPalette(pal *Palette) {
	if pal == nil {
		p.palette = nil
		return
	}
	dup := *pal
	p.palette = &dup
}

// IsFloat reports whether the pixmap uses a float pixel format
func (p *Pixmap) IsFloat() bool { return p.format.IsFloat() }

// HasAlpha reports whether the pixmap has an alpha channel
func (p *Pixmap) HasAlpha() bool { return p.format.HasAlpha() }

func bufferSize(w, h int, f Format) (int, error) {
	size := f.PixelSize()
	if w < 0 || h < 0 || size == 0 {
		return 0, ErrAlloc
	}
	if w > 0 && h > math.MaxInt32/w/size {
		return 0, ErrAlloc
	}
	return w * h * size, nil
}

// SetPixels replaces the pixel buffer with a new w by h buffer of format f.
// If data is non-nil it is copied into the new buffer, otherwise the buffer
// is zeroed. Data shorter than the buffer is an ErrFormat. On error the
// pixmap is left untouched.
func (p *Pixmap) SetPixels(w, h int, f Format, data []byte) error {
	n, err := bufferSize(w, h, f)
	if err != nil {
		return err
	}
	if data != nil && len(data) < n {
		return errors.Wrapf(ErrFormat, "imago: %d bytes of pixel data for a %d byte buffer", len(data), n)
	}

	pix := make([]byte, n)
	if data != nil {
		copy(pix, data)
	}

	p.pix = pix
	p.width = w
	p.height = h
	p.format = f
	p.pixSize = f.PixelSize()
	return nil
}

// Copy replaces the pixels of p with a copy of those in src. The palette is
// copied too; the name is not.
func (p *Pixmap) Copy(src *Pixmap) error {
	if err := p.SetPixels(src.width, src.height, src.format, src.pix); err != nil {
		return err
	}
	p.SetPalette(src.palette)
	return nil
}

// Clone returns an independent copy of p including its name
func (p *Pixmap) Clone() (*Pixmap, error) {
	dup := New(p.format)
	if err := dup.Copy(p); err != nil {
		return nil, err
	}
	dup.name = p.name
	return dup, nil
}

// Replace moves the buffer, format and palette of src into p, leaving src
// empty. The name of p is kept.
func (p *Pixmap) Replace(src *Pixmap) {
	name := p.name
	*p = *src
	p.name = name
	src.Init(src.format)
}

// VFlip reverses the order of the scanlines in place
func (p *Pixmap) VFlip() {
	stride := p.Stride()
	if stride == 0 {
		return
	}
	tmp := make([]byte, stride)
	for a, b := 0, (p.height-1)*stride; a < b; a, b = a+stride, b-stride {
		copy(tmp, p.pix[a:a+stride])
		copy(p.pix[a:a+stride], p.pix[b:b+stride])
		copy(p.pix[b:b+stride], tmp)
	}
}

// HFlip reverses the order of the pixels of each scanline in place
func (p *Pixmap) HFlip() {
	size := p.pixSize
	if size == 0 {
		return
	}
	var tmp [16]byte
	stride := p.Stride()
	for y := 0; y < p.height; y++ {
		row := p.pix[y*stride : (y+1)*stride]
		for a, b := 0, stride-size; a < b; a, b = a+size, b-size {
			copy(tmp[:size], row[a:a+size])
			copy(row[a:a+size], row[b:b+size])
			copy(row[b:b+size], tmp[:size])
		}
	}
}
