/*
Package pcx implements a decoder for 8 bits per pixel, single plane, run-length
encoded PCX images.

A PCX file starts with a fixed 128 byte header holding the image bounding box
and a 16 color map, followed by the RLE compressed scanlines. Version 5 files
may additionally carry a 256 color VGA palette in the last 769 bytes of the
file, flagged by a leading 0x0C byte.

Because the palette can only be located once the compressed pixel data has
been consumed, a Decoder must be driven in a strict order:

	d, err := pcx.Open("image.pcx")
	if err != nil {
		return err
	}
	defer d.Close()

	scanline := make([]byte, d.Width())
	for y := 0; y < d.Height(); y++ {
		if err := d.ReadScanline(scanline); err != nil {
			return err
		}
	}

	n, err := d.PaletteSize()
	if err != nil {
		return err
	}

	palette := make([]pcx.PaletteEntry, n)
	if err := d.ReadPalette(palette); err != nil {
		return err
	}

Calling any of these out of order returns an error wrapping ErrUsage.
*/
package pcx

const (
	headerSize     = 128
	identification = 10
	colorMapOffset = 16
	colorMapSize   = 16

	rleFlag = 0xc0
	rleMask = 0x3f

	vgaVersion     = 5
	vgaFlag        = 0x0c
	vgaColors      = 256
	vgaTrailerSize = 1 + vgaColors*3
)
