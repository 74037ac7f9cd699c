package imago

import (
	"image"
	"image/draw"
)

// Image returns a copy of p as an image.Image. Grey8 becomes *image.Gray,
// Idx8 becomes *image.Paletted and every other format becomes
// *image.NRGBA.
func (p *Pixmap) Image() (image.Image, error) {
	r := image.Rect(0, 0, p.width, p.height)

	switch p.format {
	case Grey8:
		m := image.NewGray(r)
		copy(m.Pix, p.pix)
		return m, nil
	case Idx8:
		m := image.NewPaletted(r, p.palette.ColorPalette())
		copy(m.Pix, p.pix)
		return m, nil
	}

	tmp := New(p.format)
	if err := tmp.Copy(p); err != nil {
		return nil, err
	}
	if err := tmp.Convert(RGBA32); err != nil {
		return nil, err
	}
	m := image.NewNRGBA(r)
	copy(m.Pix, tmp.pix)
	return m, nil
}

func opaque(m image.Image) bool {
	if o, ok := m.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// SetImage replaces the pixels of p with those of m. Grey images become
// Grey8, paletted images with no more than PaletteSize colors become Idx8,
// opaque images become RGB24 and anything else RGBA32.
func (p *Pixmap) SetImage(m image.Image) error {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := m.(type) {
	case *image.Gray:
		dst := New(Grey8)
		if err := dst.SetPixels(w, h, Grey8, nil); err != nil {
			return err
		}
		for y := 0; y < h; y++ {
			copy(dst.pix[y*w:(y+1)*w], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		p.Replace(dst)
		return nil
	case *image.Paletted:
		if len(src.Palette) <= PaletteSize {
			dst := New(Idx8)
			if err := dst.SetPixels(w, h, Idx8, nil); err != nil {
				return err
			}
			for y := 0; y < h; y++ {
				copy(dst.pix[y*w:(y+1)*w], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
			}
			dst.palette = NewPalette(src.Palette)
			p.Replace(dst)
			return nil
		}
	}

	// Drawing through a premultiplied intermediate would lose the color of
	// translucent pixels, so NRGBA sources are copied as they are
	n, ok := m.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) || n.Stride != w*4 {
		n = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(n, n.Bounds(), m, b.Min, draw.Src)
	}

	dst := New(RGBA32)
	if err := dst.SetPixels(w, h, RGBA32, n.Pix); err != nil {
		return err
	}
	if opaque(m) {
		if err := dst.Convert(RGB24); err != nil {
			return err
		}
	}
	p.Replace(dst)
	return nil
}
