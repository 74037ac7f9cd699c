package tga

import (
	"encoding/binary"
	"io"

	"github.com/bodgit/imago"
	"github.com/pkg/errors"
)

var errTooLarge = errors.Wrap(imago.ErrFormat, "tga: image dimensions exceed 65535")

type encoder struct {
	w io.Writer
}

func imageType(f imago.Format) uint8 {
	switch f {
	case imago.Grey8:
		return typeGreyscale
	case imago.Idx8:
		return typeColorMap
	}
	return typeTrueColor
}

// writable returns p, or a converted private copy of p when its format
// cannot be written directly
func writable(p *imago.Pixmap) (*imago.Pixmap, error) {
	var f imago.Format
	switch p.Format() {
	case imago.GreyF, imago.RGBF, imago.RGBAF:
		f = p.Format().Integer()
	case imago.RGB565:
		f = imago.RGB24
	case imago.BGRA32:
		f = imago.RGBA32
	default:
		return p, nil
	}

	tmp, err := p.Clone()
	if err != nil {
		return nil, err
	}
	if err := tmp.Convert(f); err != nil {
		return nil, err
	}
	return tmp, nil
}

func (e *encoder) write(b []byte) error {
	_, err := e.w.Write(b)
	return imago.NewIOError("tga: write", err)
}

func (e *encoder) encode(p *imago.Pixmap) error {
	if p.Width() > 0xffff || p.Height() > 0xffff {
		return errTooLarge
	}

	hdr := header{
		ImageType:    imageType(p.Format()),
		Width:        uint16(p.Width()),
		Height:       uint16(p.Height()),
		BitsPerPixel: uint8(p.PixelSize() * 8),
		Descriptor:   descTopOrigin,
	}
	if p.HasAlpha() {
		hdr.Descriptor |= 8
	}

	pal := p.Palette()
	if p.Format() == imago.Idx8 {
		if pal == nil {
			pal = new(imago.Palette)
		}
		hdr.ColorMapType = 1
		hdr.ColorMapLen = uint16(pal.Len)
		hdr.ColorMapBits = 24
	}

	if err := binary.Write(e.w, binary.LittleEndian, &hdr); err != nil {
		return imago.NewIOError("tga: write header", err)
	}

	// Colormap entries are stored blue, green, red
	if hdr.ColorMapType == 1 {
		b := make([]byte, 0, pal.Len*3)
		for _, c := range pal.Colors[:pal.Len] {
			b = append(b, c.B, c.G, c.R)
		}
		if err := e.write(b); err != nil {
			return err
		}
	}

	pix := p.Pixels()
	switch p.Format() {
	case imago.Grey8, imago.Idx8:
		if err := e.write(pix); err != nil {
			return err
		}
	default:
		size, stride := p.PixelSize(), p.Stride()
		scanline := make([]byte, stride)
		for y := 0; y < p.Height(); y++ {
			row := pix[y*stride : (y+1)*stride]
			for x := 0; x < stride; x += size {
				scanline[x+0] = row[x+2]
				scanline[x+1] = row[x+1]
				scanline[x+2] = row[x+0]
				if size == 4 {
					scanline[x+3] = row[x+3]
				}
			}
			if err := e.write(scanline); err != nil {
				return err
			}
		}
	}

	var foot footer
	copy(foot.Signature[:], signature)
	if err := binary.Write(e.w, binary.LittleEndian, &foot); err != nil {
		return imago.NewIOError("tga: write footer", err)
	}

	return nil
}

// Encode writes the pixmap p to w in Targa format. Float, RGB565 and BGRA32
// pixmaps are converted on a private copy first; p is never modified.
func Encode(w io.Writer, p *imago.Pixmap) error {
	m, err := writable(p)
	if err != nil {
		return err
	}

	e := encoder{w: w}

	return e.encode(m)
}
