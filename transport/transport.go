// Package transport implements the byte-stream contract the protocol
// handler relies on: deliver complete logical frames upward, accept
// opaque byte buffers downward, and report disconnection exactly once.
// Concrete adapters wrap a WebSocket connection (gobwas/ws) or a serial
// port (daedaluz/goserial); the framing discipline itself is grounded on
// the teacher's RFC6242 transport-framing decoder, which wraps an
// io.Reader with a bufio.Scanner driven by a swappable split function.
package transport

import "github.com/pkg/errors"

// ErrClosed is returned (possibly wrapped) by NextFrame once the transport
// has been closed; Send reports false afterward.
var ErrClosed = errors.New("transport: closed")

// Transport is the abstraction the protocol layer is built against. Frame
// boundaries are the adapter's responsibility: for WebSocket, one inbound
// message is one frame; for serial, frames are the length-prefixed
// payloads described in spec §4.2.
type Transport interface {
	// NextFrame blocks until a complete logical frame is available,
	// returning ErrClosed (possibly wrapped) once the transport is closed
	// and no further frames will arrive.
	NextFrame() ([]byte, error)

	// Send writes b as a single outbound unit and reports whether the
	// transport accepted it. A false return is a hard submit failure; the
	// caller must not assume partial delivery.
	Send(b []byte) bool

	// Close disconnects the transport. It is safe to call more than once;
	// only the first call has effect and the close callback (if any) fires
	// exactly once, from whichever goroutine observes the disconnection
	// first.
	Close() error

	// OnClose registers a callback invoked exactly once when the
	// transport is closed, whether by a local Close call or a remote
	// disconnect. Must be called before the first NextFrame call.
	OnClose(func(error))
}
