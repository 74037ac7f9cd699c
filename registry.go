package imago

import (
	"io"
	"io/ioutil"
	"log"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Codec decodes and encodes one file format.
//
// Match must leave the read position of r where it found it whether or not
// the stream is recognized. Decode fills p from r; on error the state of p
// is unspecified and it should be re-initialized. Encode must not modify p;
// any format conversion has to happen on a private copy.
type Codec interface {
	// Name returns a short human-readable name
	Name() string

	// Suffixes returns the filename suffixes handled by the codec as a
	// colon-separated list, for example ".tga:.targa"
	Suffixes() string

	// Match reports whether r holds data in this format
	Match(r io.ReadSeeker) bool

	Decode(p *Pixmap, r io.ReadSeeker) error
	Encode(p *Pixmap, w io.Writer) error
}

// Registry is an ordered list of codecs. Registration order decides which
// codec wins when more than one recognizes a stream, and the first codec is
// the default used for saving when no suffix matches.
//
// A Registry is not safe for concurrent registration; populate it before
// sharing it between goroutines.
type Registry struct {
	codecs []Codec
	logger *log.Logger
}

// NewRegistry returns an empty registry. A nil logger discards output.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Registry{
		logger: logger,
	}
}

// Register appends c to the registry
func (r *Registry) Register(c Codec) {
	r.codecs = append(r.codecs, c)
}

// Codecs returns the registered codecs in registration order
func (r *Registry) Codecs() []Codec {
	return append([]Codec(nil), r.codecs...)
}

// FindByContent returns the first codec that recognizes the content of rs
func (r *Registry) FindByContent(rs io.ReadSeeker) (Codec, error) {
	for _, c := range r.codecs {
		if c.Match(rs) {
			return c, nil
		}
	}
	return nil, ErrUnrecognized
}

func matchSuffix(pattern, ext string) bool {
	for _, s := range strings.Split(pattern, ":") {
		if s != "" && s == ext {
			return true
		}
	}
	return false
}

// FindBySuffix returns the codec whose suffix list contains the extension of
// name. When none does the first registered codec is returned.
func (r *Registry) FindBySuffix(name string) (Codec, error) {
	if len(r.codecs) == 0 {
		return nil, errors.New("imago: no codecs registered")
	}
	ext := filepath.Ext(name)
	for _, c := range r.codecs {
		if matchSuffix(c.Suffixes(), ext) {
			return c, nil
		}
	}
	r.logger.Printf("No codec for suffix \"%s\", using %s\n", ext, r.codecs[0].Name())
	return r.codecs[0], nil
}

// Decode reads an image from rs into p using the codec that recognizes it
func (r *Registry) Decode(p *Pixmap, rs io.ReadSeeker) error {
	c, err := r.FindByContent(rs)
	if err != nil {
		return err
	}
	return errors.Wrap(c.Decode(p, rs), c.Name())
}

// Encode writes p to w using the codec selected by the name of p
func (r *Registry) Encode(p *Pixmap, w io.Writer) error {
	c, err := r.FindBySuffix(p.name)
	if err != nil {
		return err
	}
	return errors.Wrap(c.Encode(p, w), c.Name())
}
