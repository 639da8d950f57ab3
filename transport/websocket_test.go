package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gobwas/ws/wsutil"
	assert "github.com/stretchr/testify/require"
)

func pipeDialer(conn net.Conn) WebSocketDialer {
	return func(ctx context.Context, url string) (net.Conn, error) {
		return conn, nil
	}
}

func TestWebSocketTransportSendAndReceive(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	tr, err := NewWebSocket(context.Background(), pipeDialer(client), "ws://example/debug")
	assert.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		msg, _, rerr := wsutil.ReadClientData(server)
		assert.NoError(t, rerr)
		assert.Equal(t, []byte("hello"), msg)

		werr := wsutil.WriteServerBinary(server, []byte("reply"))
		assert.NoError(t, werr)
	}()

	assert.True(t, tr.Send([]byte("hello")))

	frame, err := tr.NextFrame()
	assert.NoError(t, err)
	assert.Equal(t, []byte("reply"), frame)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("server goroutine did not complete")
	}
}

func TestWebSocketTransportCloseFiresOnCloseOnce(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	tr, err := NewWebSocket(context.Background(), pipeDialer(client), "ws://example/debug")
	assert.NoError(t, err)

	var calls int
	tr.OnClose(func(error) { calls++ })

	assert.NoError(t, tr.Close())
	assert.NoError(t, tr.Close())
	assert.Equal(t, 1, calls)
	assert.False(t, tr.Send([]byte("x")))
}
