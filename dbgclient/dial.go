package dbgclient

import (
	"context"

	"github.com/jerryscript-client/dbg/transport"
)

// DialWebSocket connects to the engine's debugger WebSocket endpoint at url
// and establishes a session with default configuration, grounded on the
// teacher's NewRPCSession/createTransport split (rpcsessionfactory.go).
func DialWebSocket(ctx context.Context, url string, trace *Trace) (*Client, error) {
	return DialWebSocketWithConfig(ctx, url, trace, DefaultConfig)
}

// DialWebSocketWithConfig is DialWebSocket with an explicit Config.
func DialWebSocketWithConfig(ctx context.Context, url string, trace *Trace, cfg *Config) (*Client, error) {
	t, err := transport.NewWebSocket(ctx, transport.DialWebSocket, url)
	if err != nil {
		return nil, err
	}
	c, err := Connect(t, trace, cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DialSerial opens the serial line described by configString (the
// "port,baud,databits,parity,stopbits" grammar) and establishes a session
// with default configuration.
func DialSerial(configString string, trace *Trace) (*Client, error) {
	return DialSerialWithConfig(configString, trace, DefaultConfig)
}

// DialSerialWithConfig is DialSerial with an explicit Config.
func DialSerialWithConfig(configString string, trace *Trace, cfg *Config) (*Client, error) {
	t, err := transport.NewSerial(transport.DialSerialPort, configString)
	if err != nil {
		return nil, err
	}
	c, err := Connect(t, trace, cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}
