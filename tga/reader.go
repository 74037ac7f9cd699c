package tga

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/bodgit/imago"
	"github.com/pkg/errors"
)

var (
	errIndexedDepth  = errors.Wrap(imago.ErrFormat, "tga: indexed images with more than 8 bits per pixel not supported")
	errColorMapDepth = errors.Wrap(imago.ErrFormat, "tga: unsupported colormap entry size")
	errPixelDepth    = errors.Wrap(imago.ErrFormat, "tga: unsupported pixel depth")
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Match reports whether the stream ends with a Targa footer. The read
// position is restored before returning.
func Match(r io.ReadSeeker) bool {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return false
	}
	defer r.Seek(pos, io.SeekStart)

	if _, err := r.Seek(-signatureOffset, io.SeekEnd); err != nil {
		return false
	}

	var sig [len(signature)]byte
	if err := readFull(r, sig[:]); err != nil {
		return false
	}
	return string(sig[:]) == signature
}

type decoder struct {
	r io.Reader

	hdr     header
	palette imago.Palette

	format   imago.Format
	pixBytes int // bytes per pixel in memory
	disk     int // bytes per pixel on disk

	// Run-length packet state, carried across scanlines
	rle    bool
	repeat bool
	left   int
	last   [4]byte

	tmp [4]byte
}

func (d *decoder) readHeader(r io.ReadSeeker) error {
	if err := binary.Read(r, binary.LittleEndian, &d.hdr); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return imago.NewIOError("tga: read header", err)
	}

	// Skip the image ID
	if _, err := r.Seek(int64(d.hdr.IDLength), io.SeekCurrent); err != nil {
		return imago.NewIOError("tga: skip image id", err)
	}
	return nil
}

func (d *decoder) readColorMap() error {
	if d.hdr.ColorMapType != 1 {
		return nil
	}

	var size int
	switch d.hdr.ColorMapBits {
	case 15, 16:
		size = 2
	case 24:
		size = 3
	case 32:
		size = 4
	default:
		return errColorMapDepth
	}

	for i := 0; i < int(d.hdr.ColorMapLen); i++ {
		if err := readFull(d.r, d.tmp[:size]); err != nil {
			return imago.NewIOError("tga: read colormap", err)
		}

		var c imago.Color
		if size == 2 {
			v := binary.LittleEndian.Uint16(d.tmp[:])
			c.R = uint8((v & 0x7c00) >> 7)
			c.G = uint8((v & 0x03e0) >> 2)
			c.B = uint8((v & 0x001f) << 3)
		} else {
			// Blue, green, red and an ignored attribute byte
			c.R, c.G, c.B = d.tmp[2], d.tmp[1], d.tmp[0]
		}

		idx := i + int(d.hdr.ColorMapFirst)
		if idx < imago.PaletteSize {
			d.palette.Colors[idx] = c
			if d.palette.Len <= idx {
				d.palette.Len = idx + 1
			}
		}
	}
	return nil
}

func (d *decoder) pixelFormat() error {
	d.rle = isRLE(d.hdr.ImageType)

	switch d.hdr.ImageType &^ typeRLE {
	case typeColorMap:
		if d.hdr.BitsPerPixel != 8 {
			return errIndexedDepth
		}
		d.format, d.disk = imago.Idx8, 1
	case typeGreyscale:
		if d.hdr.BitsPerPixel != 8 {
			return errPixelDepth
		}
		d.format, d.disk = imago.Grey8, 1
	default:
		// Anything else is read as true-color, but only a real true-color
		// image may carry alpha
		switch d.hdr.BitsPerPixel {
		case 15, 16:
			d.disk = 2
		case 24:
			d.disk = 3
		case 32:
			d.disk = 4
		default:
			return errPixelDepth
		}
		d.format = imago.RGB24
		if d.hdr.ImageType&^typeRLE == typeTrueColor && d.hdr.Descriptor&descAlphaMask != 0 && d.disk == 4 {
			d.format = imago.RGBA32
		}
	}

	d.pixBytes = d.format.PixelSize()
	return nil
}

// readPixel reads one pixel from disk and stores it in library order
func (d *decoder) readPixel(dst []byte) error {
	if err := readFull(d.r, d.tmp[:d.disk]); err != nil {
		return imago.NewIOError("tga: read pixel", err)
	}

	switch d.disk {
	case 1:
		dst[0] = d.tmp[0]
	case 2:
		v := binary.LittleEndian.Uint16(d.tmp[:])
		dst[0] = uint8((v & 0x7c00) >> 7)
		dst[1] = uint8((v & 0x03e0) >> 2)
		dst[2] = uint8((v & 0x001f) << 3)
	default:
		dst[0], dst[1], dst[2] = d.tmp[2], d.tmp[1], d.tmp[0]
		if d.format == imago.RGBA32 {
			dst[3] = d.tmp[3]
		}
	}
	return nil
}

func (d *decoder) nextPixel(dst []byte) error {
	if !d.rle {
		return d.readPixel(dst)
	}

	if d.left == 0 {
		var b [1]byte
		if err := readFull(d.r, b[:]); err != nil {
			return imago.NewIOError("tga: read packet", err)
		}
		d.repeat = b[0]&packetRepeat != 0
		d.left = int(b[0]&packetCountMask) + 1

		if d.repeat {
			if err := d.readPixel(d.last[:d.pixBytes]); err != nil {
				return err
			}
		}
	}
	d.left--

	if d.repeat {
		copy(dst, d.last[:d.pixBytes])
		return nil
	}
	return d.readPixel(dst)
}

func (d *decoder) decode(r io.ReadSeeker, p *imago.Pixmap) error {
	if err := d.readHeader(r); err != nil {
		return err
	}
	d.r = bufio.NewReader(r)

	if err := d.readColorMap(); err != nil {
		return err
	}

	if err := d.pixelFormat(); err != nil {
		return err
	}

	w, h := int(d.hdr.Width), int(d.hdr.Height)
	if err := p.SetPixels(w, h, d.format, nil); err != nil {
		return err
	}
	pix, stride := p.Pixels(), p.Stride()

	for i := 0; i < h; i++ {
		y := h - 1 - i
		if d.hdr.Descriptor&descTopOrigin != 0 {
			y = i
		}
		row := pix[y*stride : (y+1)*stride]
		for x := 0; x < w; x++ {
			if err := d.nextPixel(row[x*d.pixBytes:]); err != nil {
				return err
			}
		}
	}

	if d.format == imago.Idx8 {
		p.SetPalette(&d.palette)
	} else {
		p.SetPalette(nil)
	}

	return nil
}

// Decode reads a Targa image from r into p
func Decode(p *imago.Pixmap, r io.ReadSeeker) error {
	var d decoder
	return d.decode(r, p)
}

// Config holds the header fields of a Targa image
type Config struct {
	Width, Height int
	Format        imago.Format
	RLE           bool
}

// DecodeConfig returns the dimensions and pixel format of a Targa image
// without decoding the pixels
func DecodeConfig(r io.ReadSeeker) (Config, error) {
	var d decoder
	if err := d.readHeader(r); err != nil {
		return Config{}, err
	}
	if err := d.pixelFormat(); err != nil {
		return Config{}, err
	}
	return Config{
		Width:  int(d.hdr.Width),
		Height: int(d.hdr.Height),
		Format: d.format,
		RLE:    d.rle,
	}, nil
}

// Codec is the imago.Codec for Targa files
type Codec struct{}

// Name returns "tga"
func (Codec) Name() string { return "tga" }

// Suffixes returns ".tga:.targa"
func (Codec) Suffixes() string { return ".tga:.targa" }

// Match reports whether r holds a Targa image
func (Codec) Match(r io.ReadSeeker) bool { return Match(r) }

// Decode reads a Targa image from r into p
func (Codec) Decode(p *imago.Pixmap, r io.ReadSeeker) error { return Decode(p, r) }

// Encode writes p to w as a Targa image
func (Codec) Encode(p *imago.Pixmap, w io.Writer) error { return Encode(w, p) }

var _ imago.Codec = Codec{}

