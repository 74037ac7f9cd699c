package imago

import "image/color"

// PaletteSize is the fixed capacity of a Palette
const PaletteSize = 256

// Color is a single palette entry
type Color struct {
	R, G, B uint8
}

// RGBA implements the color.Color interface
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{c.R, c.G, c.B, 0xff}.RGBA()
}

// Palette is the colormap of an indexed pixmap. Only the first Len entries
// are in use.
type Palette struct {
	Colors [PaletteSize]Color
	Len    int
}

// Lookup returns the color at index i. Indices outside the used range map
// to black.
func (p *Palette) Lookup(i int) Color {
	if p == nil || i < 0 || i >= p.Len {
		return Color{}
	}
	return p.Colors[i]
}

// ColorPalette returns the used entries as a color.Palette
func (p *Palette) ColorPalette() color.Palette {
	if p == nil {
		return nil
	}
	cp := make(color.Palette, p.Len)
	for i := range cp {
		c := p.Colors[i]
		cp[i] = color.RGBA{c.R, c.G, c.B, 0xff}
	}
	return cp
}

// NewPalette builds a Palette from the first PaletteSize entries of cp.
// Alpha is discarded.
func NewPalette(cp color.Palette) *Palette {
	p := new(Palette)
	for i, c := range cp {
		if i == PaletteSize {
			break
		}
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		p.Colors[i] = Color{n.R, n.G, n.B}
		p.Len++
	}
	return p
}
