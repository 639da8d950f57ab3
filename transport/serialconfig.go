package transport

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidSerialConfig is returned when a serial configuration string
// does not match the 5-field grammar in spec §4.2.
var ErrInvalidSerialConfig = errors.New("transport: invalid serial configuration")

// Parity encodes the serial parity setting.
type Parity byte

const (
	ParityNone Parity = 'N'
	ParityOdd  Parity = 'O'
	ParityEven Parity = 'E'
)

// SerialConfig is the parsed form of the "port,baud,databits,parity,stopbits"
// configuration string.
type SerialConfig struct {
	Port     string
	Baud     int
	DataBits int
	Parity   Parity
	StopBits int
}

// ParseSerialConfig parses a comma-separated 5-field serial configuration
// string, rejecting any deviation from the grammar.
func ParseSerialConfig(s string) (SerialConfig, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 5 {
		return SerialConfig{}, errors.Wrapf(ErrInvalidSerialConfig, "expected 5 comma-separated fields, got %d", len(fields))
	}

	port := fields[0]
	if port == "" {
		return SerialConfig{}, errors.Wrap(ErrInvalidSerialConfig, "empty port")
	}

	baud, err := strconv.Atoi(fields[1])
	if err != nil || baud <= 0 {
		return SerialConfig{}, errors.Wrap(ErrInvalidSerialConfig, "invalid baud rate")
	}

	dataBits, err := strconv.Atoi(fields[2])
	if err != nil || (dataBits != 5 && dataBits != 6 && dataBits != 7 && dataBits != 8) {
		return SerialConfig{}, errors.Wrap(ErrInvalidSerialConfig, "databits must be one of 5,6,7,8")
	}

	if len(fields[3]) != 1 {
		return SerialConfig{}, errors.Wrap(ErrInvalidSerialConfig, "parity must be a single character")
	}
	parity := Parity(fields[3][0])
	if parity != ParityNone && parity != ParityOdd && parity != ParityEven {
		return SerialConfig{}, errors.Wrap(ErrInvalidSerialConfig, "parity must be one of N,O,E")
	}

	stopBits, err := strconv.Atoi(fields[4])
	if err != nil || (stopBits != 1 && stopBits != 2) {
		return SerialConfig{}, errors.Wrap(ErrInvalidSerialConfig, "stopbits must be 1 or 2")
	}

	return SerialConfig{
		Port:     port,
		Baud:     baud,
		DataBits: dataBits,
		Parity:   parity,
		StopBits: stopBits,
	}, nil
}
