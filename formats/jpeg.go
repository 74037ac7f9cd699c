package formats

import (
	"image"
	"image/jpeg"
	"io"

	"github.com/bodgit/imago"
)

var jpegMagic = []byte{0xff, 0xd8, 0xff}

// JPEG is the imago.Codec for JPEG files. Quality is passed to the encoder;
// zero selects jpeg.DefaultQuality.
type JPEG struct {
	Quality int
}

// Name returns "jpeg"
func (JPEG) Name() string { return "jpeg" }

// Suffixes returns ".jpg:.jpeg"
func (JPEG) Suffixes() string { return ".jpg:.jpeg" }

// Match reports whether r starts with a JPEG start of image marker
func (JPEG) Match(r io.ReadSeeker) bool { return matchMagic(r, jpegMagic) }

// Decode reads a JPEG image from r into p. Greyscale images become
// imago.Grey8 and everything else imago.RGB24.
func (JPEG) Decode(p *imago.Pixmap, r io.ReadSeeker) error {
	return decode("jpeg", p, r, jpeg.Decode)
}

// Encode writes p to w as a JPEG image. Alpha is discarded.
func (c JPEG) Encode(p *imago.Pixmap, w io.Writer) error {
	q := c.Quality
	if q == 0 {
		q = jpeg.DefaultQuality
	}
	return encode("jpeg", p, w, func(w io.Writer, m image.Image) error {
		return jpeg.Encode(w, m, &jpeg.Options{Quality: q})
	})
}

var _ imago.Codec = JPEG{}
