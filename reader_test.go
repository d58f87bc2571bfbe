package pcx

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(width, height int) [][]byte {
	scanlines := make([][]byte, height)
	for y := range scanlines {
		scanlines[y] = make([]byte, width)
		for x := range scanlines[y] {
			// Runs of varying length plus values that need escaping
			scanlines[y][x] = byte((x/3 + y*7) * 29)
		}
	}
	return scanlines
}

func TestRoundTrip(t *testing.T) {
	tables := []struct {
		name    string
		version byte
		trailer []byte
		palette int
	}{
		{"ega", 3, nil, 16},
		{"vga", 5, vgaTrailer(), 256},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			const width, height = 70, 9

			scanlines := testImage(width, height)
			f := newTestFile(width, height, table.version)
			f.data = rle(scanlines...)
			f.trailer = table.trailer
			b := f.bytes()

			m, format, err := image.Decode(bytes.NewReader(b))
			require.NoError(t, err)
			assert.Equal(t, "pcx", format)

			pm, ok := m.(*image.Paletted)
			require.True(t, ok)
			assert.Equal(t, image.Rect(0, 0, width, height), pm.Bounds())
			assert.Len(t, pm.Palette, table.palette)

			for y, s := range scanlines {
				assert.Equal(t, s, pm.Pix[y*pm.Stride:y*pm.Stride+width])
			}

			var raw []byte
			for _, c := range pm.Palette {
				rgba := c.(color.RGBA)
				raw = append(raw, rgba.R, rgba.G, rgba.B)
			}
			if table.palette == 256 {
				assert.Equal(t, table.trailer[1:], raw)
			} else {
				assert.Equal(t, b[colorMapOffset:colorMapOffset+48], raw)
			}

			config, format, err := image.DecodeConfig(bytes.NewReader(b))
			require.NoError(t, err)
			assert.Equal(t, "pcx", format)
			assert.Equal(t, width, config.Width)
			assert.Equal(t, height, config.Height)
			assert.Equal(t, pm.Palette, config.ColorModel)
		})
	}
}

func TestDecodeNonSeeker(t *testing.T) {
	f := newTestFile(4, 2, 5)
	f.data = rle([]byte{1, 2, 3, 4}, []byte{5, 5, 5, 5})
	f.trailer = vgaTrailer()

	m, err := Decode(struct{ io.Reader }{bytes.NewReader(f.bytes())})
	require.NoError(t, err)

	pm := m.(*image.Paletted)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 5, 5, 5}, pm.Pix)
	assert.Len(t, pm.Palette, 256)
}

func TestDecodeDoesNotClose(t *testing.T) {
	f := newTestFile(1, 1, 3)
	f.data = []byte{0x01}

	rc := &trackingCloser{Reader: bytes.NewReader(f.bytes())}
	_, err := Decode(rc)
	require.NoError(t, err)
	assert.Equal(t, 0, rc.closed)
}

func TestDecodeTruncated(t *testing.T) {
	f := newTestFile(4, 2, 5)
	f.data = []byte{0xc4, 0x01}

	_, err := Decode(bytes.NewReader(f.bytes()))
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = DecodeConfig(bytes.NewReader(f.bytes()))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestImageUsage(t *testing.T) {
	f := newTestFile(2, 2, 5)
	f.data = []byte{0xc2, 0x01, 0xc2, 0x02}

	d := openTestFile(t, f)
	defer d.Close()

	require.NoError(t, d.ReadScanline(make([]byte, 2)))

	_, err := d.Image()
	assert.ErrorIs(t, err, ErrUsage)
}

func TestImageTooLargeForStream(t *testing.T) {
	f := newTestFile(1, 1, 5)
	f.xmax, f.ymax = 0xffff, 0xffff
	f.data = []byte{0x00}

	d := openTestFile(t, f)
	defer d.Close()

	_, err := d.Image()
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Equal(t, stateFailed, d.state)

	_, err = Decode(bytes.NewReader(f.bytes()))
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, _, err = image.Decode(bytes.NewReader(f.bytes()))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestImageExactlyFitsStream(t *testing.T) {
	// Two bytes can hold at most 63 pixels
	f := newTestFile(63, 1, 3)
	f.data = []byte{0xff, 0x04}

	d := openTestFile(t, f)
	defer d.Close()

	m, err := d.Image()
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{4}, 63), m.Pix)

	f = newTestFile(64, 1, 3)
	f.data = []byte{0xff, 0x04}

	_, err = Decode(bytes.NewReader(f.bytes()))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestDecodeAnyEncoding(t *testing.T) {
	f := newTestFile(2, 1, 3)
	f.encoding = 0
	f.data = []byte{0x01, 0x02}

	m, format, err := image.Decode(bytes.NewReader(f.bytes()))
	require.NoError(t, err)
	assert.Equal(t, "pcx", format)
	assert.Equal(t, []byte{1, 2}, m.(*image.Paletted).Pix)
}
