package imago

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPixelsDestroy(t *testing.T) {
	for f := Grey8; f < numFormats; f++ {
		t.Run(f.String(), func(t *testing.T) {
			p := New(f)
			for _, dim := range [][2]int{{0, 0}, {1, 1}, {7, 3}, {16, 9}} {
				require.NoError(t, p.SetPixels(dim[0], dim[1], f, nil))
				assert.Len(t, p.Pixels(), dim[0]*dim[1]*f.PixelSize())
				assert.Equal(t, dim[0]*f.PixelSize(), p.Stride())

				p.Destroy()
				assert.Nil(t, p.Pixels())
				assert.False(t, p.Format().Valid())

				p.Init(f)
				assert.Equal(t, f, p.Format())
				assert.Equal(t, 0, p.Width())
				assert.Nil(t, p.Palette())
			}
		})
	}
}

func TestSetPixelsData(t *testing.T) {
	p := New(RGB24)
	data := []byte{1, 2, 3, 4, 5, 6}
	require.NoError(t, p.SetPixels(2, 1, RGB24, data))
	assert.Equal(t, data, p.Pixels())

	data[0] = 9
	assert.Equal(t, byte(1), p.Pixels()[0])
}

func TestSetPixelsErrors(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		f    Format
		data []byte
		want error
	}{
		{"negative", -1, 1, RGB24, nil, ErrAlloc},
		{"format", 1, 1, numFormats, nil, ErrAlloc},
		{"overflow", math.MaxInt32, math.MaxInt32, RGBAF, nil, ErrAlloc},
		{"short", 2, 2, RGB24, []byte{1, 2, 3}, ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Grey8)
			require.NoError(t, p.SetPixels(1, 1, Grey8, []byte{42}))

			err := p.SetPixels(tt.w, tt.h, tt.f, tt.data)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, Grey8, p.Format())
			assert.Equal(t, []byte{42}, p.Pixels())
		})
	}
}

func TestCopyAndClone(t *testing.T) {
	src := New(Idx8)
	require.NoError(t, src.SetPixels(2, 2, Idx8, []byte{0, 1, 1, 0}))
	src.SetPalette(&Palette{Colors: [PaletteSize]Color{{R: 1}, {G: 2}}, Len: 2})
	src.SetName("src.tga")

	dst := New(RGB24)
	require.NoError(t, dst.Copy(src))
	assert.Equal(t, src.Pixels(), dst.Pixels())
	assert.Equal(t, src.Palette(), dst.Palette())
	assert.Equal(t, "", dst.Name())

	dst.Pixels()[0] = 5
	dst.Palette().Colors[0].R = 9
	assert.Equal(t, byte(0), src.Pixels()[0])
	assert.Equal(t, uint8(1), src.Palette().Colors[0].R)

	c, err := src.Clone()
	require.NoError(t, err)
	assert.Equal(t, "src.tga", c.Name())
	assert.Equal(t, Idx8, c.Format())
}

func TestReplace(t *testing.T) {
	p := New(RGB24)
	p.SetName("keep")
	src := New(Grey8)
	require.NoError(t, src.SetPixels(1, 2, Grey8, []byte{3, 4}))
	src.SetName("drop")

	p.Replace(src)
	assert.Equal(t, "keep", p.Name())
	assert.Equal(t, Grey8, p.Format())
	assert.Equal(t, []byte{3, 4}, p.Pixels())
	assert.Nil(t, src.Pixels())
	assert.Equal(t, Grey8, src.Format())
}

func TestVFlip(t *testing.T) {
	p := New(RGB24)
	require.NoError(t, p.SetPixels(1, 3, RGB24, []byte{1, 1, 1, 2, 2, 2, 3, 3, 3}))
	p.VFlip()
	assert.Equal(t, []byte{3, 3, 3, 2, 2, 2, 1, 1, 1}, p.Pixels())

	p.VFlip()
	assert.Equal(t, []byte{1, 1, 1, 2, 2, 2, 3, 3, 3}, p.Pixels())
}

func TestHFlip(t *testing.T) {
	p := New(Grey8)
	require.NoError(t, p.SetPixels(3, 2, Grey8, []byte{1, 2, 3, 4, 5, 6}))
	p.HFlip()
	assert.Equal(t, []byte{3, 2, 1, 6, 5, 4}, p.Pixels())

	q := New(RGBAF)
	pix := make([]byte, 2*16)
	for i := range pix {
		pix[i] = byte(i)
	}
	require.NoError(t, q.SetPixels(2, 1, RGBAF, pix))
	q.HFlip()
	assert.Equal(t, pix[16:], q.Pixels()[:16])
	assert.Equal(t, pix[:16], q.Pixels()[16:])
}

func TestFlipEmpty(t *testing.T) {
	p := New(RGB24)
	p.VFlip()
	p.HFlip()
	assert.Empty(t, p.Pixels())
}
