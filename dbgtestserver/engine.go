// Package dbgtestserver implements an in-process fake JerryScript engine
// used to drive dbgclient end-to-end without a real target: it plays the
// role of the teacher's netconf/testserver.TestNCServer, but stands in for
// the far end of the binary debugger wire protocol instead of an SSH/XML
// NETCONF server.
package dbgtestserver

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/jerryscript-client/dbg/wire"
)

// ErrEngineClosed is returned by NextFrame once the fake engine has closed
// the session, and reported to dbgclient's disconnect callback.
var ErrEngineClosed = errors.New("dbgtestserver: engine closed")

// FakeEngine implements transport.Transport directly, so it can be handed
// straight to dbgclient.Connect in place of a real WebSocket or serial
// transport, mirroring how TestNCServer hands a real net.Conn to a netconf
// client under test.
type FakeEngine struct {
	cfg wire.ByteConfig

	mu      sync.Mutex
	inbound chan []byte
	sent    [][]byte
	closed  bool
	onClose func(error)
}

// New returns a FakeEngine configured with the given wire byte layout; most
// tests want NewDefault unless they are specifically exercising endianness
// or pointer-width variation.
func New(cfg wire.ByteConfig) *FakeEngine {
	return &FakeEngine{cfg: cfg, inbound: make(chan []byte, 64)}
}

// NewDefault returns a FakeEngine using 4-byte little-endian pointers, the
// configuration most scenario tests exercise.
func NewDefault() *FakeEngine {
	return New(wire.ByteConfig{CPointerSize: 4, LittleEndian: true})
}

// Config reports the byte layout this engine encodes with.
func (e *FakeEngine) Config() wire.ByteConfig { return e.cfg }

// NextFrame implements transport.Transport.
func (e *FakeEngine) NextFrame() ([]byte, error) {
	frame, ok := <-e.inbound
	if !ok {
		return nil, ErrEngineClosed
	}
	return frame, nil
}

// Send implements transport.Transport: it records the client's outbound
// frame for later inspection by SentFrames/LastSent.
func (e *FakeEngine) Send(b []byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	e.sent = append(e.sent, cp)
	return true
}

// Close implements transport.Transport.
func (e *FakeEngine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	cb := e.onClose
	e.mu.Unlock()

	close(e.inbound)
	if cb != nil {
		cb(ErrEngineClosed)
	}
	return nil
}

// OnClose implements transport.Transport.
func (e *FakeEngine) OnClose(f func(error)) {
	e.mu.Lock()
	e.onClose = f
	e.mu.Unlock()
}

// PushFrame delivers frame to the client as the next inbound message, as if
// the engine had sent it.
func (e *FakeEngine) PushFrame(frame []byte) { e.inbound <- frame }

// SentFrames returns every frame the client has sent so far.
func (e *FakeEngine) SentFrames() [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]byte(nil), e.sent...)
}
