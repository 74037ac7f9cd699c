package ppm

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/bodgit/imago"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	src := imago.New(imago.RGB24)
	require.NoError(t, src.SetPixels(2, 2, imago.RGB24, []byte{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}))

	b := new(bytes.Buffer)
	require.NoError(t, Encode(b, src))
	assert.True(t, strings.HasPrefix(b.String(), "P6\n"))

	r := bytes.NewReader(b.Bytes())
	assert.True(t, Match(r))

	dst := imago.New(imago.Grey8)
	require.NoError(t, Decode(dst, r))
	assert.Equal(t, imago.RGB24, dst.Format())
	assert.Equal(t, src.Pixels(), dst.Pixels())
}

func TestEncodeConverts(t *testing.T) {
	src := imago.New(imago.Grey8)
	require.NoError(t, src.SetPixels(2, 1, imago.Grey8, []byte{0, 255}))

	b := new(bytes.Buffer)
	require.NoError(t, Encode(b, src))
	assert.Equal(t, imago.Grey8, src.Format())

	dst := imago.New(imago.RGB24)
	require.NoError(t, Decode(dst, b))
	assert.Equal(t, []byte{0, 0, 0, 255, 255, 255}, dst.Pixels())
}

func TestDecodeASCII(t *testing.T) {
	in := "P3\n# comment\n2 1\n15\n15 0 0\n0 15 0\n"

	p := imago.New(imago.RGB24)
	require.NoError(t, Decode(p, strings.NewReader(in)))
	assert.Equal(t, 2, p.Width())
	assert.Equal(t, 1, p.Height())
	assert.Equal(t, []byte{255, 0, 0, 0, 255, 0}, p.Pixels())
}

func TestDecode16Bit(t *testing.T) {
	in := append([]byte("P6 1 1 65535\n"), 0xff, 0xff, 0x00, 0x00, 0x80, 0x00)

	p := imago.New(imago.RGB24)
	require.NoError(t, Decode(p, bytes.NewReader(in)))
	assert.Equal(t, []byte{255, 0, 127}, p.Pixels())
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"magic", "P5 1 1 255\n\x00", imago.ErrFormat},
		{"width", "P6 x 1 255\n\x00", imago.ErrFormat},
		{"max", "P6 1 1 0\n\x00", imago.ErrFormat},
		{"sample", "P3 1 1 15\n16 0 0\n", imago.ErrFormat},
		{"short", "P6 2 2 255\n\x00\x00", imago.ErrIO},
		{"truncated", "P6 2", imago.ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Decode(imago.New(imago.RGB24), strings.NewReader(tt.in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestMatch(t *testing.T) {
	r := strings.NewReader("xxP6 1 1 255\n")
	_, err := r.Seek(2, io.SeekStart)
	require.NoError(t, err)
	assert.True(t, Match(r))
	pos, _ := r.Seek(0, io.SeekCurrent)
	assert.Equal(t, int64(2), pos)

	assert.False(t, Match(strings.NewReader("GIF89a")))
	assert.False(t, Match(strings.NewReader("P")))
}
