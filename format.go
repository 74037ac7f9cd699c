package imago

import (
	"strings"

	"github.com/pkg/errors"
)

// Format identifies the in-memory layout of a single pixel
type Format int

// Supported pixel formats. Multi-byte integer and float channels are
// stored little-endian.
const (
	Grey8  Format = iota // 8-bit luminance
	RGB24                // 8 bits each of red, green, blue
	RGBA32               // 8 bits each of red, green, blue, alpha
	GreyF                // float32 luminance
	RGBF                 // float32 red, green, blue
	RGBAF                // float32 red, green, blue, alpha
	BGRA32               // 8 bits each of blue, green, red, alpha
	RGB565               // 16-bit packed 5:6:5 red, green, blue
	Idx8                 // 8-bit index into a Palette

	numFormats
)

var formatNames = [numFormats]string{
	Grey8:  "grey8",
	RGB24:  "rgb24",
	RGBA32: "rgba32",
	GreyF:  "greyf",
	RGBF:   "rgbf",
	RGBAF:  "rgbaf",
	BGRA32: "bgra32",
	RGB565: "rgb565",
	Idx8:   "idx8",
}

var formatSizes = [numFormats]int{
	Grey8:  1,
	RGB24:  3,
	RGBA32: 4,
	GreyF:  4,
	RGBF:   12,
	RGBAF:  16,
	BGRA32: 4,
	RGB565: 2,
	Idx8:   1,
}

// Valid reports whether f is one of the supported formats
func (f Format) Valid() bool {
	return f >= 0 && f < numFormats
}

func (f Format) String() string {
	if !f.Valid() {
		return "unknown"
	}
	return formatNames[f]
}

// PixelSize returns the number of bytes used by one pixel, or zero for an
// invalid format
func (f Format) PixelSize() int {
	if !f.Valid() {
		return 0
	}
	return formatSizes[f]
}

// IsFloat reports whether the channels are stored as float32
func (f Format) IsFloat() bool {
	return f == GreyF || f == RGBF || f == RGBAF
}

// HasAlpha reports whether the format carries an alpha channel
func (f Format) HasAlpha() bool {
	return f == RGBA32 || f == RGBAF || f == BGRA32
}

// Float returns the float equivalent of an integer format. Formats without
// an equivalent are returned unchanged.
func (f Format) Float() Format {
	switch f {
	case Grey8:
		return GreyF
	case RGB24, RGB565, Idx8:
		return RGBF
	case RGBA32, BGRA32:
		return RGBAF
	}
	return f
}

// Integer returns the 8-bit per channel equivalent of a float format.
// Formats without an equivalent are returned unchanged.
func (f Format) Integer() Format {
	switch f {
	case GreyF:
		return Grey8
	case RGBF:
		return RGB24
	case RGBAF:
		return RGBA32
	}
	return f
}

// ParseFormat returns the Format with the given name, ignoring case
func ParseFormat(s string) (Format, error) {
	for i, name := range formatNames {
		if strings.EqualFold(s, name) {
			return Format(i), nil
		}
	}
	return 0, errors.Errorf("imago: unknown pixel format %q", s)
}
