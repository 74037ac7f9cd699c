package formats

import (
	"io"

	"github.com/bodgit/imago"
	"golang.org/x/image/bmp"
)

var bmpMagic = []byte("BM")

// BMP is the imago.Codec for Windows bitmap files
type BMP struct{}

// Name returns "bmp"
func (BMP) Name() string { return "bmp" }

// Suffixes returns ".bmp"
func (BMP) Suffixes() string { return ".bmp" }

// Match reports whether r starts with "BM"
func (BMP) Match(r io.ReadSeeker) bool { return matchMagic(r, bmpMagic) }

// Decode reads a bitmap from r into p
func (BMP) Decode(p *imago.Pixmap, r io.ReadSeeker) error {
	return decode("bmp", p, r, bmp.Decode)
}

// Encode writes p to w as an uncompressed bitmap
func (BMP) Encode(p *imago.Pixmap, w io.Writer) error {
	return encode("bmp", p, w, bmp.Encode)
}

var _ imago.Codec = BMP{}
