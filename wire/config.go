// Package wire implements the byte-level encoding rules of the JerryScript
// remote debugger protocol: endian-aware integer fields, compressed
// pointers of runtime-negotiated width, and the CESU-8 text encoding used
// for every string on the wire.
package wire

import "github.com/pkg/errors"

// ByteConfig captures the handshake-negotiated properties that govern how
// every subsequent frame on the wire is decoded. It is assigned exactly
// once, from the first CONFIGURATION frame (spec invariant: cpointer size
// and endianness never change within a session).
type ByteConfig struct {
	// CPointerSize is the width, in bytes, of a compressed pointer field.
	// The engine only ever negotiates 2 or 4.
	CPointerSize int
	// LittleEndian is true when multi-byte integers are little-endian.
	LittleEndian bool
}

// ErrBadPointerSize is returned when a ByteConfig names a pointer width
// other than 2 or 4 bytes.
var ErrBadPointerSize = errors.New("wire: cpointer size must be 2 or 4")

// NewByteConfig validates and builds a ByteConfig from handshake fields.
func NewByteConfig(cpointerSize int, littleEndian bool) (ByteConfig, error) {
	if cpointerSize != 2 && cpointerSize != 4 {
		return ByteConfig{}, ErrBadPointerSize
	}
	return ByteConfig{CPointerSize: cpointerSize, LittleEndian: littleEndian}, nil
}
