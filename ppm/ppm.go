/*
Package ppm implements a Netpbm PPM decoder and encoder.

Both the binary (P6) and ASCII (P3) variants are decoded; 16-bit samples
are reduced to 8 bits. The encoder always writes binary P6 with a maximum
sample value of 255.
*/
package ppm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/bodgit/imago"
	"github.com/pkg/errors"
)

var (
	errHeader   = errors.Wrap(imago.ErrFormat, "ppm: invalid header")
	errMaxValue = errors.Wrap(imago.ErrFormat, "ppm: invalid maximum sample value")
	errSample   = errors.Wrap(imago.ErrFormat, "ppm: invalid sample")
)

// Match reports whether r starts with a P3 or P6 magic number. The read
// position is restored before returning.
func Match(r io.ReadSeeker) bool {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return false
	}
	defer r.Seek(pos, io.SeekStart)

	var id [2]byte
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return false
	}
	return id[0] == 'P' && (id[1] == '6' || id[1] == '3')
}

type decoder struct {
	r *bufio.Reader
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// token returns the next whitespace-delimited word, skipping comments
func (d *decoder) token() (string, error) {
	var b []byte
	for {
		c, err := d.r.ReadByte()
		if err != nil {
			if err == io.EOF && len(b) > 0 {
				return string(b), nil
			}
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return "", imago.NewIOError("ppm: read", err)
		}
		switch {
		case c == '#' && len(b) == 0:
			if _, err := d.r.ReadString('\n'); err != nil {
				return "", imago.NewIOError("ppm: read", err)
			}
		case isSpace(c):
			if len(b) > 0 {
				return string(b), nil
			}
		default:
			b = append(b, c)
		}
	}
}

func (d *decoder) number() (int, error) {
	s, err := d.token()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errHeader
	}
	return n, nil
}

func (d *decoder) decode(p *imago.Pixmap) error {
	magic, err := d.token()
	if err != nil {
		return err
	}
	if magic != "P6" && magic != "P3" {
		return errHeader
	}

	var hdr [3]int
	for i := range hdr {
		if hdr[i], err = d.number(); err != nil {
			return err
		}
	}
	w, h, maxval := hdr[0], hdr[1], hdr[2]
	if maxval == 0 || maxval > 0xffff {
		return errMaxValue
	}

	if err := p.SetPixels(w, h, imago.RGB24, nil); err != nil {
		return err
	}
	pix := p.Pixels()

	if magic == "P3" {
		for i := range pix {
			v, err := d.number()
			if err != nil {
				return err
			}
			if v > maxval {
				return errSample
			}
			pix[i] = uint8(v * 255 / maxval)
		}
		p.SetPalette(nil)
		return nil
	}

	// P6: single whitespace byte already consumed by token
	if maxval < 256 {
		if _, err := io.ReadFull(d.r, pix); err != nil {
			return imago.NewIOError("ppm: read pixels", err)
		}
		if maxval != 255 {
			for i, v := range pix {
				pix[i] = uint8(int(v) * 255 / maxval)
			}
		}
	} else {
		var tmp [2]byte
		for i := range pix {
			if _, err := io.ReadFull(d.r, tmp[:]); err != nil {
				return imago.NewIOError("ppm: read pixels", err)
			}
			pix[i] = uint8((int(tmp[0])<<8 | int(tmp[1])) * 255 / maxval)
		}
	}
	p.SetPalette(nil)
	return nil
}

// Decode reads a PPM image from r into p as RGB24
func Decode(p *imago.Pixmap, r io.Reader) error {
	d := decoder{r: bufio.NewReader(r)}
	return d.decode(p)
}

// Encode writes p to w as a binary PPM. Pixmaps in any format other than
// RGB24 are converted on a private copy first.
func Encode(w io.Writer, p *imago.Pixmap) error {
	m := p
	if p.Format() != imago.RGB24 {
		tmp, err := p.Clone()
		if err != nil {
			return err
		}
		if err := tmp.Convert(imago.RGB24); err != nil {
			return err
		}
		m = tmp
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P6\n# written by imago\n%d %d\n255\n", m.Width(), m.Height()); err != nil {
		return imago.NewIOError("ppm: write header", err)
	}
	if _, err := bw.Write(m.Pixels()); err != nil {
		return imago.NewIOError("ppm: write pixels", err)
	}
	return imago.NewIOError("ppm: write", bw.Flush())
}

// Codec is the imago.Codec for PPM files
type Codec struct{}

// Name returns "ppm"
func (Codec) Name() string { return "ppm" }

// Suffixes returns ".ppm"
func (Codec) Suffixes() string { return ".ppm" }

// Match reports whether r holds a PPM image
func (Codec) Match(r io.ReadSeeker) bool { return Match(r) }

// Decode reads a PPM image from r into p
func (Codec) Decode(p *imago.Pixmap, r io.ReadSeeker) error { return Decode(p, r) }

// Encode writes p to w as a PPM image
func (Codec) Encode(p *imago.Pixmap, w io.Writer) error { return Encode(w, p) }

var _ imago.Codec = Codec{}
