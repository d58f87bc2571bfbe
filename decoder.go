package pcx

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

type state int

const (
	stateOpened state = iota
	stateScanlines
	stateScanlinesDone
	stateSizeKnown
	stateFailed
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateOpened:
		return "opened"
	case stateScanlines:
		return "reading scanlines"
	case stateScanlinesDone:
		return "scanlines done"
	case stateSizeKnown:
		return "palette size known"
	case stateFailed:
		return "failed"
	case stateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// A Decoder reads a single PCX image from a stream. It is not safe for
// concurrent use.
type Decoder struct {
	rs io.ReadSeeker
	br *bufio.Reader

	header        Header
	width, height int

	state       state
	scanlines   int
	paletteSize int

	// Logical stream offset, br may have read ahead of it
	pos int64
	// File length, only known once the palette size is resolved
	length int64
}

// Open opens the named file and parses its header. On success the caller
// must call Close on the returned Decoder, including after any later error.
// On failure the file is released and no Decoder is returned.
func Open(name string) (*Decoder, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	d, err := NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return d, nil
}

// NewDecoder parses the header found at the start of rs. If rs implements
// io.Closer it is closed by Close. The caller keeps ownership of rs if an
// error is returned.
func NewDecoder(rs io.ReadSeeker) (*Decoder, error) {
	h, err := readHeader(rs)
	if err != nil {
		return nil, err
	}

	return &Decoder{
		rs:     rs,
		br:     bufio.NewReader(rs),
		header: h,
		width:  h.Width(),
		height: h.Height(),
		pos:    headerSize,
	}, nil
}

// Header returns the parsed file header.
func (d *Decoder) Header() Header {
	return d.header
}

// Width returns the number of pixels in each scanline.
func (d *Decoder) Width() int {
	return d.width
}

// Height returns the number of scanlines in the image.
func (d *Decoder) Height() int {
	return d.height
}

// Version returns the PCX format version byte.
func (d *Decoder) Version() uint8 {
	return d.header.Version
}

// Close releases the underlying stream. It must be called exactly once.
func (d *Decoder) Close() error {
	if d.state == stateClosed {
		return usagef("decoder already closed")
	}
	d.state = stateClosed
	d.br = nil

	if c, ok := d.rs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// unusable returns a usage error if d has failed or been closed.
func (d *Decoder) unusable(op string) error {
	switch d.state {
	case stateFailed, stateClosed:
		return usagef("%s: decoder is %s", op, d.state)
	}
	return nil
}
