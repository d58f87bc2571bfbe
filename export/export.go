/*
Package export writes decoded PCX images out in formats other tools
understand.

PNG, GIF and BMP are supported. Paletted images keep their palette, which can
optionally be reduced to fewer colors using median cut quantization.
*/
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/bmp"
)

// Format identifies an output image format.
type Format int

// Supported output formats.
const (
	PNG Format = iota
	GIF
	BMP
)

var formatNames = map[Format]string{
	PNG: "png",
	GIF: "gif",
	BMP: "bmp",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

var errUnknownFormat = errors.New("export: unknown format")

// ParseFormat returns the Format with the given name, for example "png".
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimPrefix(s, "."))
	for f, name := range formatNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", errUnknownFormat, s)
}

// FormatFromFilename returns the Format matching the extension of name.
func FormatFromFilename(name string) (Format, error) {
	return ParseFormat(filepath.Ext(name))
}

// Options controls how an image is written.
type Options struct {
	Format Format
	// Colors reduces the palette to at most this many colors when
	// non-zero. It must not exceed 256.
	Colors int
}

func paletted(m image.Image) *image.Paletted {
	pm, _ := m.(*image.Paletted)
	if pm == nil {
		if cp, ok := m.ColorModel().(color.Palette); ok {
			b := m.Bounds()
			pm = image.NewPaletted(b, cp)
			draw.Draw(pm, b, m, b.Min, draw.Src)
		}
	}
	return pm
}

// reduce quantizes m down to at most colors colors.
func reduce(m image.Image, colors int) *image.Paletted {
	if pm := paletted(m); pm != nil && len(pm.Palette) <= colors {
		return pm
	}

	b := m.Bounds()
	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colors), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)

	return pm
}

// Encode writes m to w.
func Encode(w io.Writer, m image.Image, o *Options) error {
	if o == nil {
		o = &Options{}
	}

	if o.Colors < 0 || o.Colors > 256 {
		return fmt.Errorf("export: cannot reduce to %d colors", o.Colors)
	}

	if o.Colors > 0 {
		m = reduce(m, o.Colors)
	}

	switch o.Format {
	case PNG:
		return png.Encode(w, m)
	case GIF:
		return gif.Encode(w, m, &gif.Options{NumColors: 256})
	case BMP:
		return bmp.Encode(w, m)
	}

	return fmt.Errorf("%w: %v", errUnknownFormat, o.Format)
}

// EncodeFile writes m to the named file, creating or truncating it.
func EncodeFile(name string, m image.Image, o *Options) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return Encode(f, m, o)
}
