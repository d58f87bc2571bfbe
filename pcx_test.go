package pcx

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testFile describes a synthetic PCX file.
type testFile struct {
	id                     byte
	version                byte
	encoding               byte
	bpp                    byte
	planes                 byte
	xmin, ymin, xmax, ymax uint16
	bytesPerLine           uint16
	colorMap               [colorMapSize]PaletteEntry
	data                   []byte
	trailer                []byte
}

func newTestFile(width, height int, version byte) *testFile {
	f := &testFile{
		id:           identification,
		version:      version,
		encoding:     1,
		bpp:          8,
		planes:       1,
		xmax:         uint16(width - 1),
		ymax:         uint16(height - 1),
		bytesPerLine: uint16(width),
	}
	for i := range f.colorMap {
		f.colorMap[i] = PaletteEntry{byte(i), byte(i * 2), byte(i * 3)}
	}
	return f
}

func (f *testFile) bytes() []byte {
	b := make([]byte, headerSize, headerSize+len(f.data)+len(f.trailer))
	b[0] = f.id
	b[1] = f.version
	b[2] = f.encoding
	b[3] = f.bpp
	binary.LittleEndian.PutUint16(b[4:], f.xmin)
	binary.LittleEndian.PutUint16(b[6:], f.ymin)
	binary.LittleEndian.PutUint16(b[8:], f.xmax)
	binary.LittleEndian.PutUint16(b[10:], f.ymax)
	binary.LittleEndian.PutUint16(b[12:], 72)
	binary.LittleEndian.PutUint16(b[14:], 72)
	for i, e := range f.colorMap {
		copy(b[colorMapOffset+i*3:], []byte{e.Red, e.Green, e.Blue})
	}
	b[65] = f.planes
	binary.LittleEndian.PutUint16(b[66:], f.bytesPerLine)
	binary.LittleEndian.PutUint16(b[68:], 1)
	b = append(b, f.data...)
	return append(b, f.trailer...)
}

// vgaTrailer returns a flagged 256 color trailer.
func vgaTrailer() []byte {
	b := make([]byte, 0, vgaTrailerSize)
	b = append(b, vgaFlag)
	for i := 0; i < vgaColors; i++ {
		b = append(b, byte(i), byte(255-i), byte(i^0x55))
	}
	return b
}

// rle encodes each scanline independently.
func rle(scanlines ...[]byte) []byte {
	var out []byte
	for _, s := range scanlines {
		for i := 0; i < len(s); {
			run := 1
			for i+run < len(s) && s[i+run] == s[i] && run < rleMask {
				run++
			}
			if run > 1 || s[i]&rleFlag == rleFlag {
				out = append(out, rleFlag|byte(run))
			}
			out = append(out, s[i])
			i += run
		}
	}
	return out
}

// trackingCloser counts Close calls on an in-memory stream.
type trackingCloser struct {
	*bytes.Reader
	closed int
}

func (t *trackingCloser) Close() error {
	t.closed++
	return nil
}

func openTestFile(t *testing.T, f *testFile) *Decoder {
	t.Helper()
	d, err := NewDecoder(bytes.NewReader(f.bytes()))
	require.NoError(t, err)
	return d
}

func writeTestFile(t *testing.T, f *testFile) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "test.pcx")
	require.NoError(t, os.WriteFile(name, f.bytes(), 0o644))
	return name
}

// readScanlines reads every scanline from d.
func readScanlines(t *testing.T, d *Decoder) [][]byte {
	t.Helper()
	var out [][]byte
	for y := 0; y < d.Height(); y++ {
		s := make([]byte, d.Width())
		require.NoError(t, d.ReadScanline(s))
		out = append(out, s)
	}
	return out
}
