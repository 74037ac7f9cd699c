/*
Package catalog stores named pixmaps in a sqlite database.

Images are decoded with an imago.Registry, re-encoded as uncompressed Targa
and compressed with zstd before being stored. The pixel data is keyed by the
sha1 of the source file so importing the same file under several names
stores it once.
*/
package catalog

import (
	"bytes"
	"crypto/sha1"
	"database/sql"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/imago"
	"github.com/bodgit/imago/tga"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/pkg/errors"
)

// ErrNotFound is returned when no pixmap is stored under a name
var ErrNotFound = errors.New("catalog: not found")

// Entry describes one stored pixmap
type Entry struct {
	Name   string
	SHA1   string
	Width  int
	Height int
	Format imago.Format
	Size   int // compressed size in bytes
}

// Catalog is a pixmap store backed by a sqlite database
type Catalog struct {
	db       *sql.DB
	registry *imago.Registry
	logger   *log.Logger

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens or creates the catalog database in file. The registry is used
// to decode imported files. A nil logger discards output.
func Open(file string, registry *imago.Registry, logger *log.Logger) (*Catalog, error) {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS pixmap (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, width INTEGER NOT NULL, height INTEGER NOT NULL, format INTEGER NOT NULL, data BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS entry (id INTEGER PRIMARY KEY NOT NULL, name STRING NOT NULL UNIQUE, pixmap_id INTEGER NOT NULL, FOREIGN KEY(pixmap_id) REFERENCES pixmap(id))"); err != nil {
		db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		db.Close()
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	return &Catalog{
		db:       db,
		registry: registry,
		logger:   logger,
		enc:      enc,
		dec:      dec,
	}, nil
}

// Close closes the database
func (c *Catalog) Close() error {
	c.dec.Close()
	if err := c.enc.Close(); err != nil {
		c.db.Close()
		return err
	}
	return c.db.Close()
}

func (c *Catalog) addPixmap(src []byte) (int64, error) {
	sha := fmt.Sprintf("%X", sha1.Sum(src))

	var id int64
	switch err := c.db.QueryRow("SELECT id FROM pixmap WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		p := imago.New(imago.RGB24)
		if err := c.registry.Decode(p, bytes.NewReader(src)); err != nil {
			return 0, err
		}

		b := new(bytes.Buffer)
		if err := tga.Encode(b, p); err != nil {
			return 0, err
		}

		result, err := c.db.Exec("INSERT INTO pixmap (sha1, width, height, format, data) VALUES (?, ?, ?, ?, ?)", sha, p.Width(), p.Height(), int(p.Format()), c.enc.EncodeAll(b.Bytes(), nil))
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		c.logger.Printf("Pixmap with SHA1 \"%s\" already stored\n", sha)
		return id, nil
	default:
		return 0, err
	}
}

// Put decodes src and stores it under name, replacing any existing entry
// with that name
func (c *Catalog) Put(name string, src []byte) error {
	id, err := c.addPixmap(src)
	if err != nil {
		return errors.Wrap(err, name)
	}

	if _, err := c.db.Exec("INSERT OR REPLACE INTO entry (name, pixmap_id) VALUES (?, ?)", name, id); err != nil {
		return err
	}

	return c.prune()
}

// PutFile stores the named file using its base name without the suffix
func (c *Catalog) PutFile(file string) (string, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return "", imago.NewIOError("read", err)
	}

	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	return name, c.Put(name, b)
}

// Get decodes the pixmap stored under name into p
func (c *Catalog) Get(name string, p *imago.Pixmap) error {
	var data []byte
	switch err := c.db.QueryRow("SELECT p.data FROM entry AS e JOIN pixmap AS p ON e.pixmap_id = p.id WHERE e.name = ?", name).Scan(&data); err {
	case sql.ErrNoRows:
		return errors.Wrap(ErrNotFound, name)
	case nil:
	default:
		return err
	}

	b, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return errors.Wrap(err, name)
	}

	if err := tga.Decode(p, bytes.NewReader(b)); err != nil {
		return errors.Wrap(err, name)
	}
	p.SetName(name)

	return nil
}

// List returns every entry ordered by name
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query("SELECT e.name, p.sha1, p.width, p.height, p.format, length(p.data) FROM entry AS e JOIN pixmap AS p ON e.pixmap_id = p.id ORDER BY e.name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var f int
		if err := rows.Scan(&e.Name, &e.SHA1, &e.Width, &e.Height, &f, &e.Size); err != nil {
			return nil, err
		}
		e.Format = imago.Format(f)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Delete removes the entry called name. Pixel data no longer referenced by
// any entry is removed too.
func (c *Catalog) Delete(name string) error {
	result, err := c.db.Exec("DELETE FROM entry WHERE name = ?", name)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Wrap(ErrNotFound, name)
	}

	return c.prune()
}

func (c *Catalog) prune() error {
	if _, err := c.db.Exec("DELETE FROM pixmap WHERE id NOT IN (SELECT pixmap_id FROM entry)"); err != nil {
		return err
	}
	return nil
}
