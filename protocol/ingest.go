package protocol

import "github.com/jerryscript-client/dbg/wire"

// handleSourceCode implements the SOURCE_CODE / SOURCE_CODE_END pair:
// accumulate raw bytes, and on END decode them as the next script's source.
func (h *Handler) handleSourceCode(tag wire.Tag, frame []byte) error {
	if h.topFrame() == nil {
		h.synthesizeTopLevelFrame()
	}

	h.sourceBytes = append(h.sourceBytes, frame[1:]...)
	h.haveSource = true

	if tag != wire.TagSourceCodeEnd {
		return nil
	}

	source, err := wire.DecodeCESU8(h.sourceBytes)
	if err != nil {
		return h.failf("malformed SOURCE_CODE payload: %v", err)
	}
	name := h.currentSourceName

	script := h.table.AddScript(name, source)
	h.trace.OnScriptParsed(script.ID, script.Name, script.LineCount())

	h.sourceBytes = nil
	h.haveSource = false
	h.currentSourceName = ""
	return nil
}

// synthesizeTopLevelFrame pushes the non-function frame representing the
// script currently being parsed, per spec §4.4.2's "If the parser stack is
// empty at first arrival, synthesize a top-level frame".
func (h *Handler) synthesizeTopLevelFrame() {
	h.parserStack = append(h.parserStack, &parserFrame{
		scriptID: h.table.NextScriptID(),
		isFunc:   false,
		line:     1,
		column:   1,
	})
}

// handleSourceCodeName implements SOURCE_CODE_NAME / _NAME_END.
func (h *Handler) handleSourceCodeName(tag wire.Tag, frame []byte) error {
	h.sourceNameBytes = append(h.sourceNameBytes, frame[1:]...)
	h.haveSourceName = true

	if tag != wire.TagSourceCodeNameEnd {
		return nil
	}

	name, err := wire.DecodeCESU8(h.sourceNameBytes)
	if err != nil {
		return h.failf("malformed SOURCE_CODE_NAME payload: %v", err)
	}
	h.currentSourceName = name
	h.sourceNameBytes = nil
	h.haveSourceName = false
	return nil
}

// handleFunctionName implements FUNCTION_NAME / _END. The decoded name is
// consumed by the next PARSE_FUNCTION frame and reset to empty on read
// regardless (spec §9's resolved ambiguity for back-to-back PARSE_FUNCTIONs
// with no intervening name).
func (h *Handler) handleFunctionName(tag wire.Tag, frame []byte) error {
	h.functionNameBytes = append(h.functionNameBytes, frame[1:]...)
	h.haveFunctionName = true

	if tag != wire.TagFunctionNameEnd {
		return nil
	}

	name, err := wire.DecodeCESU8(h.functionNameBytes)
	if err != nil {
		return h.failf("malformed FUNCTION_NAME payload: %v", err)
	}
	h.pendingFunctionName = name
	h.functionNameBytes = nil
	h.haveFunctionName = false
	return nil
}

// consumeFunctionName implements the consume-on-use/reset-on-read rule.
func (h *Handler) consumeFunctionName() string {
	name := h.pendingFunctionName
	h.pendingFunctionName = ""
	return name
}

// handleParseFunction pushes a new parser-stack frame for the function the
// engine is about to describe.
func (h *Handler) handleParseFunction(frame []byte) error {
	values, err := wire.Decode("II", h.cfg, frame, 1)
	if err != nil {
		return h.failf("malformed PARSE_FUNCTION: %v", err)
	}

	h.parserStack = append(h.parserStack, &parserFrame{
		scriptID:   h.table.NextScriptID(),
		isFunc:     true,
		line:       uint32(values[0]),
		column:     uint32(values[1]),
		name:       h.consumeFunctionName(),
		sourceName: h.currentSourceName,
	})
	return nil
}

// handleBreakpointList implements BREAKPOINT_LIST / BREAKPOINT_OFFSET_LIST:
// a tag byte followed by N little-/big-endian u32 entries, appended
// positionally to the top parser frame.
func (h *Handler) handleBreakpointList(frame []byte, offsets bool) error {
	n := len(frame) - 1
	if n == 0 || n%4 != 0 {
		return h.failf("malformed breakpoint list: %d payload bytes", n)
	}

	top := h.topFrame()
	if top == nil {
		return h.failf("breakpoint list with no active parser frame")
	}

	k := n / 4
	values := make([]uint32, k)
	for i := 0; i < k; i++ {
		v, err := wire.Decode("I", h.cfg, frame, 1+4*i)
		if err != nil {
			return h.failf("malformed breakpoint list entry %d: %v", i, err)
		}
		values[i] = uint32(v[0])
	}

	if offsets {
		top.offsets = append(top.offsets, values...)
	} else {
		top.lines = append(top.lines, values...)
	}
	return nil
}

// handleByteCodeCP implements BYTE_CODE_CP: pop the top parser frame and
// stage the finished function; promote everything staged once the parser
// stack empties.
func (h *Handler) handleByteCodeCP(frame []byte) error {
	if len(h.parserStack) == 0 {
		return h.failf("BYTE_CODE_CP with empty parser stack")
	}

	values, err := wire.Decode("C", h.cfg, frame, 1)
	if err != nil {
		return h.failf("malformed BYTE_CODE_CP: %v", err)
	}
	cp := uint32(values[0])

	top := h.parserStack[len(h.parserStack)-1]
	h.parserStack = h.parserStack[:len(h.parserStack)-1]

	if err := h.table.StageFunction(cp, top.scriptID, top.isFunc, top.line, top.column, top.name, top.sourceName, top.lines, top.offsets); err != nil {
		return h.failf("staging function %d: %v", cp, err)
	}

	if len(h.parserStack) == 0 {
		h.table.PromoteStaged()
	}
	return nil
}

// handleReleaseByteCodeCP implements RELEASE_BYTE_CODE_CP: discard a staged
// function or release a promoted one, then echo the pointer back tagged
// FREE_BYTE_CODE_CP to acknowledge it.
func (h *Handler) handleReleaseByteCodeCP(frame []byte) error {
	values, err := wire.Decode("C", h.cfg, frame, 1)
	if err != nil {
		return h.failf("malformed RELEASE_BYTE_CODE_CP: %v", err)
	}
	cp := values[0]

	if err := h.table.Release(uint32(cp)); err != nil {
		return h.failf("releasing function %d: %v", cp, err)
	}

	ack, err := wire.Encode("C", h.cfg, []uint64{cp}, 1)
	if err != nil {
		return h.failf("encoding FREE_BYTE_CODE_CP ack: %v", err)
	}
	ack[0] = byte(wire.TagFreeByteCodeCP)

	// A failed ack is a transport-level concern, not a protocol fault: the
	// session continues and the transport's own close callback (if the
	// failure reflects a dead connection) will unwind pending requests.
	_ = h.q.Fire(func() bool { return h.send(ack) })
	return nil
}
