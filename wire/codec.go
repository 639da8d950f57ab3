package wire

import "github.com/pkg/errors"

// Format characters recognised by Size, Encode and Decode.
const (
	// FmtByte is one unsigned byte, range [0,255].
	FmtByte = 'B'
	// FmtUint32 is four bytes, unsigned 32-bit, endian per ByteConfig.
	FmtUint32 = 'I'
	// FmtCPointer is a compressed pointer; width is cfg.CPointerSize.
	FmtCPointer = 'C'
)

func fieldWidth(c byte, cfg ByteConfig) (int, error) {
	switch c {
	case FmtByte:
		return 1, nil
	case FmtUint32:
		return 4, nil
	case FmtCPointer:
		if cfg.CPointerSize != 2 && cfg.CPointerSize != 4 {
			return 0, ErrBadPointerSize
		}
		return cfg.CPointerSize, nil
	default:
		return 0, errors.Wrapf(ErrUnknownFormat, "character %q", c)
	}
}

// Size returns the total byte count that fmt will occupy on the wire under
// cfg.
func Size(format string, cfg ByteConfig) (int, error) {
	total := 0
	for i := 0; i < len(format); i++ {
		w, err := fieldWidth(format[i], cfg)
		if err != nil {
			return 0, err
		}
		total += w
	}
	return total, nil
}

func maxForWidth(w int) uint64 {
	if w >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(8*w)) - 1
}

// Encode packs values according to format, returning a byte slice of
// exactly Size(format, cfg) bytes, preceded by prefixLen reserved (zeroed)
// bytes that the caller will fill in with a header of its own.
func Encode(format string, cfg ByteConfig, values []uint64, prefixLen int) ([]byte, error) {
	if len(values) != len(format) {
		return nil, errors.Wrapf(ErrValueCount, "format %q wants %d values, got %d", format, len(format), len(values))
	}

	size, err := Size(format, cfg)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, prefixLen+size)
	pos := prefixLen
	for i := 0; i < len(format); i++ {
		w, ferr := fieldWidth(format[i], cfg)
		if ferr != nil {
			return nil, ferr
		}
		v := values[i]
		if v > maxForWidth(w) {
			return nil, errors.Wrapf(ErrValueRange, "value %d does not fit %d-byte field %q", v, w, format[i])
		}
		putUint(buf[pos:pos+w], v, cfg.LittleEndian)
		pos += w
	}
	return buf, nil
}

// Decode unpacks values from buf, starting at offset, according to format.
// Every returned value is widened to uint64 regardless of field width.
func Decode(format string, cfg ByteConfig, buf []byte, offset int) ([]uint64, error) {
	size, err := Size(format, cfg)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset+size > len(buf) {
		return nil, errors.Wrapf(ErrShortBuffer, "need %d bytes at offset %d, have %d", size, offset, len(buf))
	}

	values := make([]uint64, len(format))
	pos := offset
	for i := 0; i < len(format); i++ {
		w, ferr := fieldWidth(format[i], cfg)
		if ferr != nil {
			return nil, ferr
		}
		values[i] = getUint(buf[pos:pos+w], cfg.LittleEndian)
		pos += w
	}
	return values, nil
}

func putUint(b []byte, v uint64, little bool) {
	n := len(b)
	if little {
		for i := 0; i < n; i++ {
			b[i] = byte(v >> uint(8*i))
		}
		return
	}
	for i := 0; i < n; i++ {
		b[n-1-i] = byte(v >> uint(8*i))
	}
}

func getUint(b []byte, little bool) uint64 {
	var v uint64
	n := len(b)
	if little {
		for i := n - 1; i >= 0; i-- {
			v = (v << 8) | uint64(b[i])
		}
		return v
	}
	for i := 0; i < n; i++ {
		v = (v << 8) | uint64(b[i])
	}
	return v
}
