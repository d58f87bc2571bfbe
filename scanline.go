package pcx

// ReadScanline decodes the next scanline into p, which must hold at least
// Width bytes. It must be called exactly Height times.
//
// Each scanline is decoded independently: a run that extends beyond the
// image width is truncated and the remaining repeats are discarded. Any
// padding implied by Header.BytesPerLine is not consumed.
func (d *Decoder) ReadScanline(p []byte) error {
	if err := d.unusable("read scanline"); err != nil {
		return err
	}

	if d.state != stateOpened && d.state != stateScanlines {
		return usagef("all %d scanlines already read", d.height)
	}

	if len(p) < d.width {
		return usagef("scanline buffer is %d bytes, need %d", len(p), d.width)
	}

	if err := d.decodeScanline(p[:d.width]); err != nil {
		d.state = stateFailed
		return err
	}

	d.scanlines++
	if d.scanlines == d.height {
		d.state = stateScanlinesDone
	} else {
		d.state = stateScanlines
	}

	return nil
}

func (d *Decoder) readByte() (byte, error) {
	b, err := d.br.ReadByte()
	if err != nil {
		return 0, readErr("pixel data", err)
	}
	d.pos++
	return b, nil
}

func (d *Decoder) decodeScanline(p []byte) error {
	for n := 0; n < len(p); {
		b, err := d.readByte()
		if err != nil {
			return err
		}

		run := 1
		if b&rleFlag == rleFlag {
			run = int(b & rleMask)
			if b, err = d.readByte(); err != nil {
				return err
			}
		}

		if run > len(p)-n {
			run = len(p) - n
		}
		for end := n + run; n < end; n++ {
			p[n] = b
		}
	}

	return nil
}
