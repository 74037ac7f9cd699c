package formats

import (
	"image"
	"image/png"
	"io"

	"github.com/bodgit/imago"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// PNG is the imago.Codec for PNG files
type PNG struct {
	Compression png.CompressionLevel
}

// Name returns "png"
func (PNG) Name() string { return "png" }

// Suffixes returns ".png"
func (PNG) Suffixes() string { return ".png" }

// Match reports whether r starts with the PNG signature
func (PNG) Match(r io.ReadSeeker) bool { return matchMagic(r, pngMagic) }

// Decode reads a PNG image from r into p. Paletted images keep their
// palette as imago.Idx8.
func (PNG) Decode(p *imago.Pixmap, r io.ReadSeeker) error {
	return decode("png", p, r, png.Decode)
}

// Encode writes p to w as a PNG image
func (c PNG) Encode(p *imago.Pixmap, w io.Writer) error {
	e := png.Encoder{CompressionLevel: c.Compression}
	return encode("png", p, w, func(w io.Writer, m image.Image) error {
		return e.Encode(w, m)
	})
}

var _ imago.Codec = PNG{}
