package tga

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/bodgit/imago"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, hdr header, body ...[]byte) []byte {
	t.Helper()

	b := new(bytes.Buffer)
	require.NoError(t, binary.Write(b, binary.LittleEndian, &hdr))
	for _, x := range body {
		b.Write(x)
	}
	var foot footer
	copy(foot.Signature[:], signature)
	require.NoError(t, binary.Write(b, binary.LittleEndian, &foot))
	return b.Bytes()
}

func sequence(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 3)
	}
	return b
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		format imago.Format
	}{
		{"grey", imago.Grey8},
		{"rgb", imago.RGB24},
		{"rgba", imago.RGBA32},
		{"indexed", imago.Idx8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := imago.New(tt.format)
			require.NoError(t, src.SetPixels(5, 3, tt.format, sequence(5*3*tt.format.PixelSize())))
			if tt.format == imago.Idx8 {
				pal := new(imago.Palette)
				for i := 0; i < 256; i++ {
					pal.Colors[i] = imago.Color{R: uint8(i), G: uint8(255 - i), B: uint8(i / 2)}
				}
				pal.Len = 256
				src.SetPalette(pal)
			}

			b := new(bytes.Buffer)
			require.NoError(t, Encode(b, src))

			r := bytes.NewReader(b.Bytes())
			assert.True(t, Match(r))

			dst := imago.New(imago.RGB24)
			require.NoError(t, Decode(dst, r))

			assert.Equal(t, tt.format, dst.Format())
			assert.Equal(t, 5, dst.Width())
			assert.Equal(t, 3, dst.Height())
			assert.Equal(t, src.Pixels(), dst.Pixels())
			if tt.format == imago.Idx8 {
				assert.Equal(t, src.Palette(), dst.Palette())
			} else {
				assert.Nil(t, dst.Palette())
			}
		})
	}
}

func TestEncodeHeader(t *testing.T) {
	src := imago.New(imago.RGBA32)
	require.NoError(t, src.SetPixels(2, 1, imago.RGBA32, []byte{1, 2, 3, 4, 5, 6, 7, 8}))

	b := new(bytes.Buffer)
	require.NoError(t, Encode(b, src))
	require.Equal(t, headerSize+8+footerSize, b.Len())

	var hdr header
	require.NoError(t, binary.Read(bytes.NewReader(b.Bytes()), binary.LittleEndian, &hdr))
	assert.Equal(t, uint8(typeTrueColor), hdr.ImageType)
	assert.Equal(t, uint8(32), hdr.BitsPerPixel)
	assert.Equal(t, uint8(descTopOrigin|8), hdr.Descriptor)

	// Blue, green, red, alpha on disk
	assert.Equal(t, []byte{3, 2, 1, 4, 7, 6, 5, 8}, b.Bytes()[headerSize:headerSize+8])
	assert.Equal(t, signature+"\x00", string(b.Bytes()[b.Len()-signatureOffset:]))
}

func TestEncodeDoesNotModify(t *testing.T) {
	tests := []struct {
		format imago.Format
		want   imago.Format
	}{
		{imago.RGBF, imago.RGB24},
		{imago.RGBAF, imago.RGBA32},
		{imago.GreyF, imago.Grey8},
		{imago.RGB565, imago.RGB24},
		{imago.BGRA32, imago.RGBA32},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			src := imago.New(tt.format)
			require.NoError(t, src.SetPixels(4, 2, tt.format, nil))
			before := append([]byte(nil), src.Pixels()...)

			b := new(bytes.Buffer)
			require.NoError(t, Encode(b, src))

			assert.Equal(t, tt.format, src.Format())
			assert.Equal(t, before, src.Pixels())

			dst := imago.New(imago.RGB24)
			require.NoError(t, Decode(dst, bytes.NewReader(b.Bytes())))
			assert.Equal(t, tt.want, dst.Format())
			assert.Equal(t, 4, dst.Width())
			assert.Equal(t, 2, dst.Height())
		})
	}
}

func TestDecodeRLE(t *testing.T) {
	hdr := header{
		ImageType:    typeTrueColor + typeRLE,
		Width:        3,
		Height:       2,
		BitsPerPixel: 24,
		Descriptor:   descTopOrigin,
	}
	body := []byte{
		// Repeat packet, 2 pixels
		0x81, 30, 20, 10,
		// Raw packet, 3 pixels, crossing the scanline boundary
		0x02, 3, 2, 1, 6, 5, 4, 9, 8, 7,
		// Repeat packet, 1 pixel
		0x80, 0, 0, 255,
	}

	p := imago.New(imago.RGB24)
	require.NoError(t, Decode(p, bytes.NewReader(build(t, hdr, body))))

	assert.Equal(t, imago.RGB24, p.Format())
	assert.Equal(t, []byte{
		10, 20, 30, 10, 20, 30, 1, 2, 3,
		4, 5, 6, 7, 8, 9, 255, 0, 0,
	}, p.Pixels())
}

func TestDecodeRLEIndexedBottomUp(t *testing.T) {
	hdr := header{
		ColorMapType: 1,
		ImageType:    typeColorMap + typeRLE,
		ColorMapLen:  2,
		ColorMapBits: 24,
		Width:        2,
		Height:       2,
		BitsPerPixel: 8,
	}
	cmap := []byte{0, 0, 255, 255, 0, 0}
	body := []byte{0x81, 1, 0x01, 0, 1}

	p := imago.New(imago.RGB24)
	require.NoError(t, Decode(p, bytes.NewReader(build(t, hdr, cmap, body))))

	assert.Equal(t, imago.Idx8, p.Format())
	// First row on disk is the bottom row
	assert.Equal(t, []byte{0, 1, 1, 1}, p.Pixels())
	require.NotNil(t, p.Palette())
	assert.Equal(t, 2, p.Palette().Len)
	assert.Equal(t, imago.Color{R: 255}, p.Palette().Colors[0])
	assert.Equal(t, imago.Color{B: 255}, p.Palette().Colors[1])
}

func TestDecodeColorMap16(t *testing.T) {
	hdr := header{
		IDLength:      3,
		ColorMapType:  1,
		ImageType:     typeColorMap,
		ColorMapFirst: 254,
		ColorMapLen:   3,
		ColorMapBits:  16,
		Width:         1,
		Height:        1,
		BitsPerPixel:  8,
		Descriptor:    descTopOrigin,
	}
	id := []byte("abc")
	cmap := []byte{0x00, 0x7c, 0xe0, 0x03, 0x1f, 0x00}

	p := imago.New(imago.RGB24)
	require.NoError(t, Decode(p, bytes.NewReader(build(t, hdr, id, cmap, []byte{255}))))

	pal := p.Palette()
	require.NotNil(t, pal)
	assert.Equal(t, 256, pal.Len)
	assert.Equal(t, imago.Color{R: 0xf8}, pal.Colors[254])
	assert.Equal(t, imago.Color{G: 0xf8}, pal.Colors[255])
}

func TestDecodeAlpha(t *testing.T) {
	hdr := header{
		ImageType:    typeTrueColor,
		Width:        1,
		Height:       1,
		BitsPerPixel: 32,
		Descriptor:   descTopOrigin | 8,
	}
	p := imago.New(imago.RGB24)
	require.NoError(t, Decode(p, bytes.NewReader(build(t, hdr, []byte{1, 2, 3, 4}))))
	assert.Equal(t, imago.RGBA32, p.Format())
	assert.Equal(t, []byte{3, 2, 1, 4}, p.Pixels())

	hdr.Descriptor = descTopOrigin
	require.NoError(t, Decode(p, bytes.NewReader(build(t, hdr, []byte{1, 2, 3, 4}))))
	assert.Equal(t, imago.RGB24, p.Format())
	assert.Equal(t, []byte{3, 2, 1}, p.Pixels())
}

func TestDecodeUnknownType(t *testing.T) {
	for _, it := range []uint8{typeNone, 4, 5, 7} {
		hdr := header{
			ImageType:    it,
			Width:        2,
			Height:       1,
			BitsPerPixel: 32,
			Descriptor:   descTopOrigin | 8,
		}
		p := imago.New(imago.RGBA32)
		require.NoError(t, Decode(p, bytes.NewReader(build(t, hdr, []byte{1, 2, 3, 4, 5, 6, 7, 8}))), "type %d", it)
		assert.Equal(t, imago.RGB24, p.Format(), "type %d", it)
		assert.Equal(t, []byte{3, 2, 1, 7, 6, 5}, p.Pixels(), "type %d", it)
	}
}

func TestDecode16Bit(t *testing.T) {
	hdr := header{
		ImageType:    typeTrueColor,
		Width:        2,
		Height:       1,
		BitsPerPixel: 16,
		Descriptor:   descTopOrigin | 1,
	}
	body := make([]byte, 4)
	binary.LittleEndian.PutUint16(body, 0x7c00)
	binary.LittleEndian.PutUint16(body[2:], 0x001f)

	p := imago.New(imago.RGB24)
	require.NoError(t, Decode(p, bytes.NewReader(build(t, hdr, body))))
	assert.Equal(t, imago.RGB24, p.Format())
	assert.Equal(t, []byte{248, 0, 0, 0, 0, 248}, p.Pixels())

	c, err := DecodeConfig(bytes.NewReader(build(t, hdr, body)))
	require.NoError(t, err)
	assert.Equal(t, imago.RGB24, c.Format)
}

func TestDecodeRLELongPacket(t *testing.T) {
	hdr := header{
		ImageType:    typeGreyscale + typeRLE,
		Width:        130,
		Height:       2,
		BitsPerPixel: 8,
		Descriptor:   descTopOrigin,
	}
	body := []byte{
		// Longest repeat packet, 128 pixels
		0xff, 9,
		// Raw packet finishing the first scanline
		0x01, 1, 2,
		// Longest raw packet, 128 pixels
		0x7f,
	}
	raw := make([]byte, 128)
	for i := range raw {
		raw[i] = byte(i + 100)
	}
	body = append(body, raw...)
	// Repeat packet finishing the second scanline
	body = append(body, 0x81, 7)

	p := imago.New(imago.RGB24)
	require.NoError(t, Decode(p, bytes.NewReader(build(t, hdr, body))))
	assert.Equal(t, imago.Grey8, p.Format())

	pix := p.Pixels()
	assert.Equal(t, bytes.Repeat([]byte{9}, 128), pix[:128])
	assert.Equal(t, []byte{1, 2}, pix[128:130])
	assert.Equal(t, raw, pix[130:258])
	assert.Equal(t, []byte{7, 7}, pix[258:])
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		hdr  header
		body []byte
		want error
	}{
		{
			name: "indexed 16bpp",
			hdr:  header{ImageType: typeColorMap, Width: 1, Height: 1, BitsPerPixel: 16},
			body: []byte{0, 0},
			want: imago.ErrFormat,
		},
		{
			name: "colormap entry size",
			hdr:  header{ColorMapType: 1, ColorMapLen: 1, ColorMapBits: 12, ImageType: typeColorMap, Width: 1, Height: 1, BitsPerPixel: 8},
			want: imago.ErrFormat,
		},
		{
			name: "pixel depth",
			hdr:  header{ImageType: typeTrueColor, Width: 1, Height: 1, BitsPerPixel: 12},
			want: imago.ErrFormat,
		},
		{
			name: "short pixels",
			hdr:  header{ImageType: typeTrueColor, Width: 64, Height: 64, BitsPerPixel: 24},
			body: []byte{1, 2, 3},
			want: imago.ErrIO,
		},
		{
			name: "short packet",
			hdr:  header{ImageType: typeTrueColor + typeRLE, Width: 64, Height: 64, BitsPerPixel: 24},
			body: []byte{0x80},
			want: imago.ErrIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := imago.New(imago.RGB24)
			err := Decode(p, bytes.NewReader(build(t, tt.hdr, tt.body)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDecodeShortHeader(t *testing.T) {
	p := imago.New(imago.RGB24)
	err := Decode(p, bytes.NewReader([]byte{0, 0, 2}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, imago.ErrIO))
}

func TestMatch(t *testing.T) {
	b := build(t, header{ImageType: typeTrueColor, BitsPerPixel: 24})

	r := bytes.NewReader(b)
	_, err := r.Seek(5, io.SeekStart)
	require.NoError(t, err)

	assert.True(t, Match(r))
	pos, _ := r.Seek(0, io.SeekCurrent)
	assert.Equal(t, int64(5), pos)

	b[len(b)-5] = 'x'
	assert.False(t, Match(r))
	pos, _ = r.Seek(0, io.SeekCurrent)
	assert.Equal(t, int64(5), pos)

	assert.False(t, Match(bytes.NewReader([]byte("short"))))
}

func TestDecodeConfig(t *testing.T) {
	b := build(t, header{ImageType: typeGreyscale + typeRLE, Width: 640, Height: 480, BitsPerPixel: 8})

	c, err := DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, Config{Width: 640, Height: 480, Format: imago.Grey8, RLE: true}, c)
}
