/*
Package formats adapts the standard JPEG and PNG codecs and the
golang.org/x/image BMP codec to the imago.Codec interface, and builds the
default registry of every built-in codec.
*/
package formats

import (
	"bytes"
	"image"
	"io"
	"log"

	"github.com/bodgit/imago"
	"github.com/bodgit/imago/ppm"
	"github.com/bodgit/imago/tga"
	"github.com/pkg/errors"
)

// NewRegistry returns a registry holding the built-in codecs. Targa is
// registered first so it is the default for unknown suffixes.
func NewRegistry(logger *log.Logger) *imago.Registry {
	r := imago.NewRegistry(logger)
	r.Register(tga.Codec{})
	r.Register(ppm.Codec{})
	r.Register(JPEG{})
	r.Register(PNG{})
	r.Register(BMP{})
	return r
}

// matchMagic reports whether r starts with magic, restoring the read
// position afterwards
func matchMagic(r io.ReadSeeker, magic []byte) bool {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return false
	}
	defer r.Seek(pos, io.SeekStart)

	b := make([]byte, len(magic))
	if _, err := io.ReadFull(r, b); err != nil {
		return false
	}
	return bytes.Equal(b, magic)
}

func decodeError(name string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return imago.NewIOError(name+": read", io.ErrUnexpectedEOF)
	}
	return errors.Wrapf(imago.ErrFormat, "%s: %v", name, err)
}

func decode(name string, p *imago.Pixmap, r io.Reader, fn func(io.Reader) (image.Image, error)) error {
	m, err := fn(r)
	if err != nil {
		return decodeError(name, err)
	}
	return p.SetImage(m)
}

func encode(name string, p *imago.Pixmap, w io.Writer, fn func(io.Writer, image.Image) error) error {
	m, err := p.Image()
	if err != nil {
		return err
	}
	if err := fn(w, m); err != nil {
		return imago.NewIOError(name+": write", err)
	}
	return nil
}
