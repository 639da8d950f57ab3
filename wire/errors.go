package wire

import "github.com/pkg/errors"

// Sentinel codec errors. Callers distinguish them with errors.Is.
var (
	// ErrShortBuffer is returned by Decode when fewer bytes remain than the
	// format string requires.
	ErrShortBuffer = errors.New("wire: buffer too short for format")
	// ErrUnknownFormat is returned when a format string contains a
	// character other than 'B', 'I' or 'C'.
	ErrUnknownFormat = errors.New("wire: unknown format character")
	// ErrValueRange is returned by Encode when a value does not fit the
	// field width implied by its format character.
	ErrValueRange = errors.New("wire: value out of range for format")
	// ErrValueCount is returned by Encode when the number of values does
	// not match the number of format characters.
	ErrValueCount = errors.New("wire: value count does not match format")
)
