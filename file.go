package imago

import (
	"bufio"
	"os"
)

// Load decodes the named file into p
func (r *Registry) Load(p *Pixmap, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return NewIOError("open", err)
	}
	defer f.Close()

	return r.Decode(p, f)
}

// Save encodes p to the named file. The codec is chosen by the suffix of
// name, which also becomes the name of p.
func (r *Registry) Save(p *Pixmap, name string) error {
	p.SetName(name)

	f, err := os.Create(name)
	if err != nil {
		return NewIOError("create", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := r.Encode(p, w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return NewIOError("write", err)
	}
	return NewIOError("close", f.Close())
}

// LoadPixels loads the named file, converts it to format f and returns the
// pixel buffer and its dimensions
func (r *Registry) LoadPixels(name string, f Format) ([]byte, int, int, error) {
	p := New(f)
	if err := r.Load(p, name); err != nil {
		return nil, 0, 0, err
	}
	if err := p.Convert(f); err != nil {
		return nil, 0, 0, err
	}
	return p.Pixels(), p.Width(), p.Height(), nil
}

// SavePixels saves a w by h buffer of format f to the named file
func (r *Registry) SavePixels(name string, pix []byte, w, h int, f Format) error {
	p := New(f)
	if err := p.SetPixels(w, h, f, pix); err != nil {
		return err
	}
	return r.Save(p, name)
}
