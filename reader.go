package pcx

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"io/ioutil"
)

func init() {
	// Identification, any version, any encoding, 8 bits per pixel
	image.RegisterFormat("pcx", "\x0a??\x08", Decode, DecodeConfig)
}

// Image decodes the whole image from a freshly opened Decoder, leaving it
// with its palette size resolved. The palette of the returned image has
// either 16 or 256 entries.
func (d *Decoder) Image() (*image.Paletted, error) {
	if err := d.unusable("image"); err != nil {
		return nil, err
	}

	if d.state != stateOpened {
		return nil, usagef("image requires an unread decoder, %d scanlines already read", d.scanlines)
	}

	if err := d.checkPixelCount(); err != nil {
		d.state = stateFailed
		return nil, err
	}

	m := image.NewPaletted(image.Rect(0, 0, d.width, d.height), nil)
	for y := 0; y < d.height; y++ {
		if err := d.ReadScanline(m.Pix[y*m.Stride:]); err != nil {
			return nil, err
		}
	}

	p, err := d.palette()
	if err != nil {
		return nil, err
	}
	m.Palette = p

	return m, nil
}

// checkPixelCount rejects a bounding box larger than the remaining stream
// could possibly encode. A literal byte yields one pixel and a byte pair at
// most 63, so n bytes never decode to more than (63n+1)/2 pixels.
func (d *Decoder) checkPixelCount() error {
	// Nothing has been read through br yet so rs can be moved freely
	length, err := d.rs.Seek(0, io.SeekEnd)
	if err != nil {
		return readErr("pixel data", err)
	}
	if _, err := d.rs.Seek(d.pos, io.SeekStart); err != nil {
		return readErr("pixel data", err)
	}

	remaining := length - d.pos
	if remaining < 0 {
		remaining = 0
	}

	if pixels := int64(d.width) * int64(d.height); pixels > (rleMask*remaining+1)/2 {
		return invalidf("%dx%d image cannot fit in %d bytes of pixel data", d.width, d.height, remaining)
	}
	return nil
}

func (d *Decoder) palette() (color.Palette, error) {
	n, err := d.PaletteSize()
	if err != nil {
		return nil, err
	}

	entries := make([]PaletteEntry, n)
	if err := d.ReadPalette(entries); err != nil {
		return nil, err
	}

	return ColorPalette(entries), nil
}

// noCloser stops Decode and DecodeConfig from closing a caller's stream.
type noCloser struct {
	io.ReadSeeker
}

func newDecoder(r io.Reader) (*Decoder, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		// The VGA palette is found by seeking from the end
		b, err := ioutil.ReadAll(r)
		if err != nil {
			return nil, err
		}
		rs = bytes.NewReader(b)
	}
	return NewDecoder(noCloser{rs})
}

// Decode reads a PCX image from r and returns it as an image.Image. If r is
// not an io.ReadSeeker it is read fully into memory first.
func Decode(r io.Reader) (image.Image, error) {
	d, err := newDecoder(r)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	return d.Image()
}

// DecodeConfig returns the color model and dimensions of a PCX image. The
// pixel data still has to be read to find the palette.
func DecodeConfig(r io.Reader) (image.Config, error) {
	d, err := newDecoder(r)
	if err != nil {
		return image.Config{}, err
	}
	defer d.Close()

	scanline := make([]byte, d.width)
	for y := 0; y < d.height; y++ {
		if err := d.ReadScanline(scanline); err != nil {
			return image.Config{}, err
		}
	}

	p, err := d.palette()
	if err != nil {
		return image.Config{}, err
	}

	return image.Config{
		ColorModel: p,
		Width:      d.width,
		Height:     d.height,
	}, nil
}
