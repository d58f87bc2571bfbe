package catalog

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/bodgit/pcx"
	"github.com/cespare/xxhash/v2"
)

// ErrNotFound is returned when a path or hash is not in the catalogue.
var ErrNotFound = errors.New("catalog: not found")

// Entry describes a catalogued file.
type Entry struct {
	Path        string
	Hash        string
	Width       int
	Height      int
	Version     uint8
	PaletteSize int
}

func hashBytes(b []byte) string {
	return fmt.Sprintf("%016X", xxhash.Sum64(b))
}

func decode(b []byte) (*image.Paletted, uint8, error) {
	d, err := pcx.NewDecoder(bytes.NewReader(b))
	if err != nil {
		return nil, 0, err
	}
	defer d.Close()

	m, err := d.Image()
	if err != nil {
		return nil, 0, err
	}

	return m, d.Version(), nil
}

func paletteBytes(p color.Palette) []byte {
	b := make([]byte, 0, len(p)*3)
	for _, c := range p {
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		b = append(b, rgba.R, rgba.G, rgba.B)
	}
	return b
}

// Add decodes file and records it in the catalogue. A file whose contents
// have already been catalogued under another path is not decoded again.
func (c *Catalog) Add(file string) (Entry, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return Entry{}, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		Path: path,
		Hash: hashBytes(b),
	}

	var id int64
	switch err := c.db.QueryRow("SELECT id, width, height, version, palette_size FROM image WHERE hash = ?", e.Hash).Scan(&id, &e.Width, &e.Height, &e.Version, &e.PaletteSize); err {
	case sql.ErrNoRows:
		m, version, err := decode(b)
		if err != nil {
			return Entry{}, fmt.Errorf("%s: %w", path, err)
		}
		e.Width, e.Height = m.Bounds().Dx(), m.Bounds().Dy()
		e.Version = version
		e.PaletteSize = len(m.Palette)

		if id, err = c.addImage(e, m); err != nil {
			return Entry{}, err
		}
		c.logger.Printf("Decoded \"%s\", %dx%d with %d colors\n", path, e.Width, e.Height, e.PaletteSize)
	case nil:
		c.logger.Printf("Reusing \"%s\" for \"%s\"\n", e.Hash, path)
	default:
		return Entry{}, err
	}

	if _, err := c.db.Exec("INSERT OR REPLACE INTO file (path, image_id) VALUES (?, ?)", path, id); err != nil {
		return Entry{}, err
	}

	return e, nil
}

func (c *Catalog) addImage(e Entry, m *image.Paletted) (int64, error) {
	pixels := c.enc.EncodeAll(m.Pix, nil)

	// Another worker may have stored the same file in the meantime
	if _, err := c.db.Exec("INSERT OR IGNORE INTO image (hash, width, height, version, palette_size, palette, pixels) VALUES (?, ?, ?, ?, ?, ?, ?)", e.Hash, e.Width, e.Height, e.Version, e.PaletteSize, paletteBytes(m.Palette), pixels); err != nil {
		return 0, err
	}

	var id int64
	if err := c.db.QueryRow("SELECT id FROM image WHERE hash = ?", e.Hash).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

const entryQuery = "SELECT f.path, i.hash, i.width, i.height, i.version, i.palette_size FROM file AS f JOIN image AS i ON f.image_id = i.id"

type scanner interface {
	Scan(...interface{}) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	err := s.Scan(&e.Path, &e.Hash, &e.Width, &e.Height, &e.Version, &e.PaletteSize)
	return e, err
}

// Lookup returns the entry for file.
func (c *Catalog) Lookup(file string) (Entry, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return Entry{}, err
	}

	switch e, err := scanEntry(c.db.QueryRow(entryQuery+" WHERE f.path = ?", path)); err {
	case sql.ErrNoRows:
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	case nil:
		return e, nil
	default:
		return Entry{}, err
	}
}

// List returns every catalogued file ordered by path.
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query(entryQuery + " ORDER BY f.path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Image rebuilds the stored image with the given hash.
func (c *Catalog) Image(hash string) (*image.Paletted, error) {
	var width, height int
	var palette, pixels []byte
	switch err := c.db.QueryRow("SELECT width, height, palette, pixels FROM image WHERE hash = ?", hash).Scan(&width, &height, &palette, &pixels); err {
	case sql.ErrNoRows:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	case nil:
	default:
		return nil, err
	}

	pix, err := c.dec.DecodeAll(pixels, nil)
	if err != nil {
		return nil, err
	}

	if len(pix) != width*height || len(palette)%3 != 0 {
		return nil, fmt.Errorf("catalog: corrupt image %s", hash)
	}

	entries := make([]pcx.PaletteEntry, len(palette)/3)
	for i := range entries {
		entries[i] = pcx.PaletteEntry{Red: palette[i*3], Green: palette[i*3+1], Blue: palette[i*3+2]}
	}

	return &image.Paletted{
		Pix:     pix,
		Stride:  width,
		Rect:    image.Rect(0, 0, width, height),
		Palette: pcx.ColorPalette(entries),
	}, nil
}
