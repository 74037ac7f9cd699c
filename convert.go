package imago

import (
	"encoding/binary"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// pixel is the canonical intermediate representation, nominally in [0, 1]
type pixel struct {
	r, g, b, a float32
}

// Added before truncating so that v/255*255 lands back on v despite float
// rounding. A few ulps at 255, too small to move a value that is really
// below the next integer.
const packBias = 1.0 / 8192

type unpackFunc func(dst []pixel, src []byte, pal *Palette)
type packFunc func(dst []byte, src []pixel)

var unpackers = [numFormats]unpackFunc{
	Grey8:  unpackGrey8,
	RGB24:  unpackRGB24,
	RGBA32: unpackRGBA32,
	GreyF:  unpackGreyF,
	RGBF:   unpackRGBF,
	RGBAF:  unpackRGBAF,
	BGRA32: unpackBGRA32,
	RGB565: unpackRGB565,
	Idx8:   unpackIdx8,
}

var packers = [numFormats]packFunc{
	Grey8:  packGrey8,
	RGB24:  packRGB24,
	RGBA32: packRGBA32,
	GreyF:  packGreyF,
	RGBF:   packRGBF,
	RGBAF:  packRGBAF,
	BGRA32: packBGRA32,
	RGB565: packRGB565,
}

// batchSize returns the largest power of two no greater than 8 that divides
// the width
func batchSize(width int) int {
	for n := 8; n > 1; n >>= 1 {
		if width%n == 0 {
			return n
		}
	}
	return 1
}

// Convert changes the pixel format of p. Converting to the current format
// does nothing. Converting to Idx8 returns ErrUnsupported; use the quant
// package instead. On error p is left untouched.
func (p *Pixmap) Convert(f Format) error {
	if !f.Valid() {
		return errors.Wrapf(ErrFormat, "imago: convert to %d", f)
	}
	if p.format == f {
		return nil
	}
	if f == Idx8 {
		return errors.Wrap(ErrUnsupported, "imago: conversion to indexed format")
	}
	if !p.format.Valid() {
		return errors.Wrapf(ErrFormat, "imago: convert from %d", p.format)
	}

	var dst Pixmap
	dst.Init(f)
	if err := dst.SetPixels(p.width, p.height, f, nil); err != nil {
		return err
	}

	var buf [8]pixel
	n := batchSize(p.width)
	unpack, pack := unpackers[p.format], packers[f]
	ss, ds := n*p.pixSize, n*dst.pixSize
	for s, d := 0, 0; s < len(p.pix); s, d = s+ss, d+ds {
		unpack(buf[:n], p.pix[s:s+ss], p.palette)
		pack(dst.pix[d:d+ds], buf[:n])
	}

	p.Replace(&dst)
	return nil
}

// ToFloat converts an integer pixmap to the float format with the same
// channels
func (p *Pixmap) ToFloat() error {
	return p.Convert(p.format.Float())
}

// ToInteger converts a float pixmap to the 8-bit per channel format with the
// same channels
func (p *Pixmap) ToInteger() error {
	return p.Convert(p.format.Integer())
}

func unorm8(v uint8) float32 {
	return float32(v) / 255
}

// scale multiplies v by limit, truncates toward zero and clamps to
// [0, limit]
func scale(v, limit float32) uint16 {
	v = math32.Trunc(v*limit + packBias)
	if math32.IsNaN(v) || v < 0 {
		return 0
	}
	if v > limit {
		return uint16(limit)
	}
	return uint16(v)
}

func to8(v float32) uint8 {
	return uint8(scale(v, 255))
}

func getFloat(b []byte) float32 {
	return math32.Float32frombits(binary.LittleEndian.Uint32(b))
}

func putFloat(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math32.Float32bits(v))
}

func unpackGrey8(dst []pixel, src []byte, _ *Palette) {
	for i := range dst {
		v := unorm8(src[i])
		dst[i] = pixel{v, v, v, 1}
	}
}

func unpackRGB24(dst []pixel, src []byte, _ *Palette) {
	for i := range dst {
		s := src[i*3:]
		dst[i] = pixel{unorm8(s[0]), unorm8(s[1]), unorm8(s[2]), 1}
	}
}

func unpackRGBA32(dst []pixel, src []byte, _ *Palette) {
	for i := range dst {
		s := src[i*4:]
		dst[i] = pixel{unorm8(s[0]), unorm8(s[1]), unorm8(s[2]), unorm8(s[3])}
	}
}

func unpackBGRA32(dst []pixel, src []byte, _ *Palette) {
	for i := range dst {
		s := src[i*4:]
		dst[i] = pixel{unorm8(s[2]), unorm8(s[1]), unorm8(s[0]), unorm8(s[3])}
	}
}

func unpackGreyF(dst []pixel, src []byte, _ *Palette) {
	for i := range dst {
		v := getFloat(src[i*4:])
		dst[i] = pixel{v, v, v, 1}
	}
}

func unpackRGBF(dst []pixel, src []byte, _ *Palette) {
	for i := range dst {
		s := src[i*12:]
		dst[i] = pixel{getFloat(s), getFloat(s[4:]), getFloat(s[8:]), 1}
	}
}

func unpackRGBAF(dst []pixel, src []byte, _ *Palette) {
	for i := range dst {
		s := src[i*16:]
		dst[i] = pixel{getFloat(s), getFloat(s[4:]), getFloat(s[8:]), getFloat(s[12:])}
	}
}

// Expand5 widens a 5-bit field to 8 bits, filling the vacated low bits with
// the field's lowest bit
func Expand5(v uint16) uint8 {
	x := uint8(v&0x1f) << 3
	if x&8 != 0 {
		x |= 7
	}
	return x
}

// Expand6 widens a 6-bit field to 8 bits, filling the vacated low bits with
// the field's lowest bit
func Expand6(v uint16) uint8 {
	x := uint8(v&0x3f) << 2
	if x&4 != 0 {
		x |= 3
	}
	return x
}

func unpackRGB565(dst []pixel, src []byte, _ *Palette) {
	for i := range dst {
		v := binary.LittleEndian.Uint16(src[i*2:])
		dst[i] = pixel{
			unorm8(Expand5(v >> 11)),
			unorm8(Expand6(v >> 5)),
			unorm8(Expand5(v)),
			1,
		}
	}
}

func unpackIdx8(dst []pixel, src []byte, pal *Palette) {
	for i := range dst {
		c := pal.Lookup(int(src[i]))
		dst[i] = pixel{unorm8(c.R), unorm8(c.G), unorm8(c.B), 1}
	}
}

func packGrey8(dst []byte, src []pixel) {
	for i, p := range src {
		dst[i] = to8((p.r + p.g + p.b) / 3)
	}
}

func packRGB24(dst []byte, src []pixel) {
	for i, p := range src {
		d := dst[i*3:]
		d[0], d[1], d[2] = to8(p.r), to8(p.g), to8(p.b)
	}
}

func packRGBA32(dst []byte, src []pixel) {
	for i, p := range src {
		d := dst[i*4:]
		d[0], d[1], d[2], d[3] = to8(p.r), to8(p.g), to8(p.b), to8(p.a)
	}
}

func packBGRA32(dst []byte, src []pixel) {
	for i, p := range src {
		d := dst[i*4:]
		d[0], d[1], d[2], d[3] = to8(p.b), to8(p.g), to8(p.r), to8(p.a)
	}
}

func packGreyF(dst []byte, src []pixel) {
	for i, p := range src {
		putFloat(dst[i*4:], (p.r+p.g+p.b)/3)
	}
}

func packRGBF(dst []byte, src []pixel) {
	for i, p := range src {
		d := dst[i*12:]
		putFloat(d, p.r)
		putFloat(d[4:], p.g)
		putFloat(d[8:], p.b)
	}
}

func packRGBAF(dst []byte, src []pixel) {
	for i, p := range src {
		d := dst[i*16:]
		putFloat(d, p.r)
		putFloat(d[4:], p.g)
		putFloat(d[8:], p.b)
		putFloat(d[12:], p.a)
	}
}

func packRGB565(dst []byte, src []pixel) {
	for i, p := range src {
		r := scale(p.r, 31)
		g := scale(p.g, 63)
		b := scale(p.b, 31)
		binary.LittleEndian.PutUint16(dst[i*2:], r<<11|g<<5|b)
	}
}
