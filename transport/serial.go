package transport

import (
	"sync"

	"github.com/daedaluz/goserial"
	"github.com/pkg/errors"
)

// serialPort is the subset of goserial's opened-port behaviour this adapter
// depends on, kept narrow so tests can substitute a fake without pulling in
// real device I/O.
type serialPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// SerialDialer opens a configured serial port. The production implementation
// is DialSerialPort, backed by goserial; tests inject a fake.
type SerialDialer func(cfg SerialConfig) (serialPort, error)

// DialSerialPort opens cfg.Port via github.com/daedaluz/goserial using the
// negotiated line settings.
func DialSerialPort(cfg SerialConfig) (serialPort, error) {
	var parity goserial.Parity
	switch cfg.Parity {
	case ParityOdd:
		parity = goserial.ParityOdd
	case ParityEven:
		parity = goserial.ParityEven
	default:
		parity = goserial.ParityNone
	}

	stop := goserial.Stop1
	if cfg.StopBits == 2 {
		stop = goserial.Stop2
	}

	port, err := goserial.OpenPort(&goserial.Config{
		Name:     cfg.Port,
		Baud:     cfg.Baud,
		Size:     byte(cfg.DataBits),
		Parity:   parity,
		StopBits: stop,
	})
	if err != nil {
		return nil, errors.Wrap(err, "transport: open serial port")
	}
	return port, nil
}

// serialTransport adapts a length-prefix-framed serial port to Transport,
// mirroring the teacher's tImpl split between a transport's raw
// io.ReadWriteCloser and the higher-level framing wrapped around it.
type serialTransport struct {
	port   serialPort
	reader *frameReader

	mu       sync.Mutex
	closed   bool
	closeErr error
	onClose  func(error)
}

// NewSerial opens the serial line described by configString (the
// "port,baud,databits,parity,stopbits" grammar) via dial and returns a
// Transport that frames traffic per spec §4.2.
func NewSerial(dial SerialDialer, configString string) (Transport, error) {
	cfg, err := ParseSerialConfig(configString)
	if err != nil {
		return nil, err
	}

	port, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	return &serialTransport{
		port:   port,
		reader: newFrameReader(port, serialSplit, defaultFrameBufferSize),
	}, nil
}

func (t *serialTransport) NextFrame() ([]byte, error) {
	frame, err := t.reader.next()
	if err != nil {
		t.fail(err)
		return nil, errors.Wrap(ErrClosed, err.Error())
	}
	return frame, nil
}

func (t *serialTransport) Send(b []byte) bool {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return false
	}

	framed := make([]byte, len(b)+1)
	framed[0] = byte(len(b))
	copy(framed[1:], b)

	n, err := t.port.Write(framed)
	return err == nil && n == len(framed)
}

func (t *serialTransport) Close() error {
	t.fail(ErrClosed)
	return t.port.Close()
}

func (t *serialTransport) OnClose(f func(error)) {
	t.mu.Lock()
	t.onClose = f
	t.mu.Unlock()
}

func (t *serialTransport) fail(err error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.closeErr = err
	cb := t.onClose
	t.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}
