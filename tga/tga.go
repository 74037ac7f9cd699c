/*
Package tga implements a Truevision Targa decoder and encoder.

Uncompressed and run-length encoded color-mapped, true-color and greyscale
images are decoded. Color-mapped images must use 8 bits per pixel and
become imago.Idx8 pixmaps with the colormap attached; greyscale images
become imago.Grey8 and true-color images become imago.RGB24, or
imago.RGBA32 when the descriptor declares alpha bits.

The encoder always writes uncompressed images with a top-left origin.
Run-length encoding is not produced.

A file is recognized by the "TRUEVISION-XFILE." signature at the end of the
26 byte footer, so files written without a footer are not detected.
*/
package tga

const (
	headerSize = 18
	footerSize = 26

	// Offset of the signature from the end of the stream
	signatureOffset = 18

	signature = "TRUEVISION-XFILE."
)

// Image types
const (
	typeNone       = 0
	typeColorMap   = 1
	typeTrueColor  = 2
	typeGreyscale  = 3
	typeRLE        = 8
	typeRLEMinimum = typeRLE + typeColorMap
)

const (
	descAlphaMask = 0x0f
	descTopOrigin = 0x20

	packetRepeat    = 0x80
	packetCountMask = 0x7f
)

type header struct {
	IDLength      uint8
	ColorMapType  uint8
	ImageType     uint8
	ColorMapFirst uint16
	ColorMapLen   uint16
	ColorMapBits  uint8
	XOrigin       uint16
	YOrigin       uint16
	Width         uint16
	Height        uint16
	BitsPerPixel  uint8
	Descriptor    uint8
}

type footer struct {
	ExtensionOffset uint32
	DeveloperOffset uint32
	Signature       [18]byte
}

func isRLE(t uint8) bool {
	return t >= typeRLEMinimum
}
