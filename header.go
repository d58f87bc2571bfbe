package pcx

import (
	"encoding/binary"
	"image/color"
	"io"
)

// PaletteEntry is a single RGB palette color.
type PaletteEntry struct {
	Red, Green, Blue uint8
}

// RGBA implements the color.Color interface. Palette entries are always
// opaque.
func (e PaletteEntry) RGBA() (r, g, b, a uint32) {
	return color.RGBA{e.Red, e.Green, e.Blue, 0xff}.RGBA()
}

func readPaletteEntries(dst []PaletteEntry, b []byte) {
	for i := range dst {
		dst[i] = PaletteEntry{b[i*3], b[i*3+1], b[i*3+2]}
	}
}

// Header holds the fields of the 128 byte PCX file header.
type Header struct {
	Version      uint8
	Encoding     uint8
	BitsPerPixel uint8
	XMin         uint16
	YMin         uint16
	XMax         uint16
	YMax         uint16
	HDPI         uint16
	VDPI         uint16
	ColorMap     [colorMapSize]PaletteEntry
	Planes       uint8
	BytesPerLine uint16
	PaletteInfo  uint16
	HScreenSize  uint16
	VScreenSize  uint16
}

// Width returns the image width in pixels.
func (h *Header) Width() int {
	return int(h.XMax) - int(h.XMin) + 1
}

// Height returns the number of scanlines in the image.
func (h *Header) Height() int {
	return int(h.YMax) - int(h.YMin) + 1
}

// UnmarshalBinary parses and validates a raw header. Only the first 128
// bytes of b are used.
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) < headerSize {
		return invalidf("header is %d bytes, expecting %d", len(b), headerSize)
	}

	if b[0] != identification {
		return invalidf("bad identification byte %#02x", b[0])
	}

	le := binary.LittleEndian

	h.Version = b[1]
	h.Encoding = b[2]
	h.BitsPerPixel = b[3]
	h.XMin = le.Uint16(b[4:])
	h.YMin = le.Uint16(b[6:])
	h.XMax = le.Uint16(b[8:])
	h.YMax = le.Uint16(b[10:])
	h.HDPI = le.Uint16(b[12:])
	h.VDPI = le.Uint16(b[14:])
	readPaletteEntries(h.ColorMap[:], b[colorMapOffset:colorMapOffset+colorMapSize*3])
	// Byte 64 is reserved
	h.Planes = b[65]
	h.BytesPerLine = le.Uint16(b[66:])
	h.PaletteInfo = le.Uint16(b[68:])
	h.HScreenSize = le.Uint16(b[70:])
	h.VScreenSize = le.Uint16(b[72:])

	if h.BitsPerPixel != 8 {
		return unsupportedf("%d bits per pixel, expecting 8", h.BitsPerPixel)
	}

	if h.Planes != 1 {
		return unsupportedf("%d planes, expecting 1", h.Planes)
	}

	// An inverted bounding box would otherwise wrap to a huge image
	if h.XMax < h.XMin || h.YMax < h.YMin {
		return invalidf("bounding box (%d,%d)-(%d,%d) is inverted", h.XMin, h.YMin, h.XMax, h.YMax)
	}

	return nil
}

// readHeader parses the header from the start of rs and leaves rs
// positioned at the first byte of pixel data.
func readHeader(rs io.ReadSeeker) (Header, error) {
	var h Header

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return h, readErr("header", err)
	}

	var b [headerSize]byte
	if _, err := io.ReadFull(rs, b[:]); err != nil {
		return h, readErr("header", err)
	}

	if err := h.UnmarshalBinary(b[:]); err != nil {
		return h, err
	}

	// The header is always 128 bytes regardless of how much was used
	if _, err := rs.Seek(headerSize, io.SeekStart); err != nil {
		return h, readErr("header", err)
	}

	return h, nil
}
