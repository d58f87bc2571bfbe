package pcx

import (
	"image/color"
	"io"
)

// PaletteSize returns the number of palette entries, either 16 or 256. It
// can only be called once every scanline has been read as the VGA palette
// is located relative to the end of the pixel data.
func (d *Decoder) PaletteSize() (int, error) {
	if err := d.unusable("palette size"); err != nil {
		return 0, err
	}

	switch d.state {
	case stateSizeKnown:
		return d.paletteSize, nil
	case stateScanlinesDone:
	default:
		return 0, usagef("palette size requested after %d of %d scanlines", d.scanlines, d.height)
	}

	n, err := d.resolvePaletteSize()
	if err != nil {
		d.state = stateFailed
		return 0, err
	}

	d.paletteSize = n
	d.state = stateSizeKnown

	return n, nil
}

func (d *Decoder) resolvePaletteSize() (int, error) {
	if d.header.Version != vgaVersion {
		return colorMapSize, nil
	}

	length, err := d.rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, readErr("palette flag", err)
	}
	d.length = length

	// No room for a trailer after the pixel data
	offset := length - vgaTrailerSize
	if offset < d.pos {
		return colorMapSize, nil
	}

	if _, err := d.rs.Seek(offset, io.SeekStart); err != nil {
		return 0, readErr("palette flag", err)
	}

	var b [1]byte
	if _, err := io.ReadFull(d.rs, b[:]); err != nil {
		return 0, readErr("palette flag", err)
	}

	if b[0] == vgaFlag {
		return vgaColors, nil
	}
	return colorMapSize, nil
}

// ReadPalette reads the palette into p, which must hold at least as many
// entries as returned by PaletteSize. It may be called more than once.
func (d *Decoder) ReadPalette(p []PaletteEntry) error {
	if err := d.unusable("read palette"); err != nil {
		return err
	}

	if d.state != stateSizeKnown {
		return usagef("palette read before its size is known")
	}

	if len(p) < d.paletteSize {
		return usagef("palette buffer has %d entries, need %d", len(p), d.paletteSize)
	}

	var offset int64 = colorMapOffset
	if d.paletteSize == vgaColors {
		offset = d.length - vgaColors*3
	}

	if _, err := d.rs.Seek(offset, io.SeekStart); err != nil {
		return readErr("palette", err)
	}

	b := make([]byte, d.paletteSize*3)
	if _, err := io.ReadFull(d.rs, b); err != nil {
		return readErr("palette", err)
	}

	readPaletteEntries(p[:d.paletteSize], b)

	return nil
}

// ColorPalette converts palette entries into an opaque color.Palette.
func ColorPalette(entries []PaletteEntry) color.Palette {
	p := make(color.Palette, len(entries))
	for i, e := range entries {
		p[i] = color.RGBA{e.Red, e.Green, e.Blue, 0xff}
	}
	return p
}
