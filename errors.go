package pcx

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrOpen is returned when the underlying file could not be opened.
	ErrOpen = errors.New("pcx: cannot open file")
	// ErrInvalidFormat is returned for a bad identification byte, a
	// truncated header or palette, or a truncated RLE stream.
	ErrInvalidFormat = errors.New("pcx: invalid format")
	// ErrUnsupported is returned for images that are not 8 bits per pixel
	// with a single plane.
	ErrUnsupported = errors.New("pcx: unsupported variant")
	// ErrUsage is returned when a Decoder method is called out of order.
	ErrUsage = errors.New("pcx: incorrect usage")
)

func invalidf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidFormat}, a...)...)
}

func unsupportedf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrUnsupported}, a...)...)
}

func usagef(format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrUsage}, a...)...)
}

// readErr maps a failed read of what to ErrInvalidFormat on a short read,
// otherwise the I/O error is wrapped alongside it.
func readErr(what string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return invalidf("truncated %s", what)
	}
	return fmt.Errorf("%w: reading %s: %w", ErrInvalidFormat, what, err)
}
