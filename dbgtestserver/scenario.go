package dbgtestserver

import "github.com/jerryscript-client/dbg/wire"

// Handshake builds a CONFIGURATION frame using e's negotiated byte layout
// and maxMessageSize, version pinned to the client's ProtocolVersion.
func (e *FakeEngine) Handshake(maxMessageSize byte) []byte {
	endian := byte(0)
	if e.cfg.LittleEndian {
		endian = 1
	}
	return []byte{byte(wire.TagConfiguration), maxMessageSize, byte(e.cfg.CPointerSize), endian, wire.ProtocolVersion}
}

func (e *FakeEngine) u32Frame(tag wire.Tag, v uint32) []byte {
	b, err := wire.Encode("I", e.cfg, []uint64{uint64(v)}, 1)
	if err != nil {
		panic(err)
	}
	b[0] = byte(tag)
	return b
}

func (e *FakeEngine) cpFrame(tag wire.Tag, cp uint32) []byte {
	b, err := wire.Encode("C", e.cfg, []uint64{uint64(cp)}, 1)
	if err != nil {
		panic(err)
	}
	b[0] = byte(tag)
	return b
}

// BreakpointList builds a BREAKPOINT_LIST (or, with offsets=true,
// BREAKPOINT_OFFSET_LIST) frame carrying values.
func (e *FakeEngine) BreakpointList(offsets bool, values ...uint32) []byte {
	tag := wire.TagBreakpointList
	if offsets {
		tag = wire.TagBreakpointOffsetList
	}
	buf := []byte{byte(tag)}
	for _, v := range values {
		enc, err := wire.Encode("I", e.cfg, []uint64{uint64(v)}, 0)
		if err != nil {
			panic(err)
		}
		buf = append(buf, enc...)
	}
	return buf
}

// ByteCodeCP builds a BYTE_CODE_CP frame for cp.
func (e *FakeEngine) ByteCodeCP(cp uint32) []byte { return e.cpFrame(wire.TagByteCodeCP, cp) }

// ReleaseByteCodeCP builds a RELEASE_BYTE_CODE_CP frame for cp.
func (e *FakeEngine) ReleaseByteCodeCP(cp uint32) []byte {
	return e.cpFrame(wire.TagReleaseByteCodeCP, cp)
}

// BreakpointHit builds a BREAKPOINT_HIT frame for (cp, offset).
func (e *FakeEngine) BreakpointHit(cp, offset uint32) []byte {
	return append(e.cpFrame(wire.TagBreakpointHit, cp), e.u32Tail(offset)...)
}

// ExceptionHit builds an EXCEPTION_HIT frame for (cp, offset).
func (e *FakeEngine) ExceptionHit(cp, offset uint32) []byte {
	return append(e.cpFrame(wire.TagExceptionHit, cp), e.u32Tail(offset)...)
}

func (e *FakeEngine) u32Tail(v uint32) []byte {
	b, err := wire.Encode("I", e.cfg, []uint64{uint64(v)}, 0)
	if err != nil {
		panic(err)
	}
	return b
}

// SourceCode builds a single-frame SOURCE_CODE_END carrying source as
// CESU-8 (ASCII-only sources never need fragmentation here).
func (e *FakeEngine) SourceCode(source string) []byte {
	return append([]byte{byte(wire.TagSourceCodeEnd)}, wire.EncodeCESU8(source, 0)...)
}

// EvalResult builds a single-frame EVAL_RESULT_END with the given subtype
// and reassembled value text.
func (e *FakeEngine) EvalResult(subtype wire.EvalSubtype, value string) []byte {
	buf := append([]byte{byte(wire.TagEvalResultEnd)}, wire.EncodeCESU8(value, 0)...)
	return append(buf, byte(subtype))
}

// StageSimpleFunction pushes the minimal frame sequence to stage one
// function at cp covering the given parallel line/offset lists: a
// BREAKPOINT_LIST, a BREAKPOINT_OFFSET_LIST, and the BYTE_CODE_CP that
// promotes it.
func (e *FakeEngine) StageSimpleFunction(cp uint32, lines, offsets []uint32) {
	e.PushFrame(e.BreakpointList(false, lines...))
	e.PushFrame(e.BreakpointList(true, offsets...))
	e.PushFrame(e.ByteCodeCP(cp))
}
