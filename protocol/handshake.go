package protocol

import "github.com/jerryscript-client/dbg/wire"

// handleConfiguration validates and applies the session's one and only
// CONFIGURATION frame, per spec §4.4.1.
func (h *Handler) handleConfiguration(frame []byte) error {
	if len(frame) < 5 {
		return h.failf("CONFIGURATION frame too short: %d bytes", len(frame))
	}

	maxMessageSize := uint32(frame[1])
	cpointerSize := int(frame[2])
	littleEndian := frame[3] != 0
	version := frame[4]

	cfg, err := wire.NewByteConfig(cpointerSize, littleEndian)
	if err != nil {
		return h.failf("invalid cpointer size %d", cpointerSize)
	}
	if version != wire.ProtocolVersion {
		return h.failf("unsupported protocol version %d, want %d", version, wire.ProtocolVersion)
	}

	h.cfg = cfg
	h.cfgSet = true
	h.maxMessageSize = maxMessageSize
	return nil
}
