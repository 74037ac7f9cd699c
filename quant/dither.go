package quant

import "github.com/bodgit/imago"

func clamp(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

// addError adds share/16 of err to the pixel at dst, accumulating the
// amount added in acc. A zero share adds all of err.
func addError(dst []byte, err *[3]int, share int, acc *[3]int) {
	for i := range err {
		v := err[i]
		if share != 0 {
			v = share * err[i] >> 4
			acc[i] += v
		}
		dst[i] = clamp(int(dst[i]) + v)
	}
}

// diffuse spreads the difference between the RGB24 pixel at x, y and its
// chosen palette color c over the neighbours that have not been mapped yet.
// The pixel below and to the right receives whatever the other three shares
// did not.
func diffuse(pix []byte, w, h, x, y int, c imago.Color) {
	o := (y*w + x) * 3
	stride := w * 3

	err := [3]int{
		int(pix[o]) - int(c.R),
		int(pix[o+1]) - int(c.G),
		int(pix[o+2]) - int(c.B),
	}
	var acc [3]int

	if x < w-1 {
		addError(pix[o+3:], &err, 7, &acc)
	}
	if y < h-1 {
		if x > 0 {
			addError(pix[o+stride-3:], &err, 3, &acc)
		}
		addError(pix[o+stride:], &err, 5, &acc)
		if x < w-1 {
			for i := range err {
				err[i] -= acc[i]
			}
			addError(pix[o+stride+3:], &err, 0, nil)
		}
	}
}
