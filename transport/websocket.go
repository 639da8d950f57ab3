package transport

import (
	"context"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/pkg/errors"
)

// WebSocketDialer opens the outbound connection to the engine's debugger
// WebSocket endpoint. The production implementation is DialWebSocket,
// backed by github.com/gobwas/ws; tests inject a fake net.Conn pair.
type WebSocketDialer func(ctx context.Context, url string) (net.Conn, error)

// DialWebSocket performs the WebSocket client handshake against url using
// github.com/gobwas/ws, which (unlike server-only WebSocket packages) dials
// outbound on behalf of the client.
func DialWebSocket(ctx context.Context, url string) (net.Conn, error) {
	conn, _, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "transport: websocket dial")
	}
	return conn, nil
}

// webSocketTransport adapts a gobwas/ws client connection to Transport. One
// inbound WebSocket message is one logical frame; fragmented messages are
// reassembled by wsutil before this layer ever sees them.
type webSocketTransport struct {
	conn net.Conn

	mu      sync.Mutex
	closed  bool
	onClose func(error)
}

// NewWebSocket dials url via dial and returns a Transport backed by the
// resulting connection.
func NewWebSocket(ctx context.Context, dial WebSocketDialer, url string) (Transport, error) {
	conn, err := dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return &webSocketTransport{conn: conn}, nil
}

func (t *webSocketTransport) NextFrame() ([]byte, error) {
	msg, _, err := wsutil.ReadServerData(t.conn)
	if err != nil {
		t.fail(err)
		return nil, errors.Wrap(ErrClosed, err.Error())
	}
	return msg, nil
}

func (t *webSocketTransport) Send(b []byte) bool {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return false
	}
	return wsutil.WriteClientBinary(t.conn, b) == nil
}

func (t *webSocketTransport) Close() error {
	t.fail(ErrClosed)
	return t.conn.Close()
}

func (t *webSocketTransport) OnClose(f func(error)) {
	t.mu.Lock()
	t.onClose = f
	t.mu.Unlock()
}

func (t *webSocketTransport) fail(err error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	cb := t.onClose
	t.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}
