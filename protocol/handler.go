// Package protocol implements the JerryScript remote debugger wire state
// machine: it decodes inbound frames delivered by the transport, mutates
// the breakpoint model, resolves hits, reassembles fragmented strings, and
// encodes/fragments outgoing commands. It is the reactor's business logic,
// grounded on the teacher's sesImpl message-handling loop
// (netconf/client/message.go) but adapted to a tag-dispatched binary
// protocol instead of framed XML RPCs.
package protocol

import (
	"github.com/jerryscript-client/dbg/breakpoints"
	"github.com/jerryscript-client/dbg/queue"
	"github.com/jerryscript-client/dbg/wire"
)

// parserFrame is one entry of the client-side parser stack mirroring the
// engine's nested function-parse sequence (spec Data Model: "Parser
// stack"). Pushed by PARSE_FUNCTION (or synthesized as a top-level frame on
// the first SOURCE_CODE byte), popped by BYTE_CODE_CP.
type parserFrame struct {
	scriptID   uint32
	isFunc     bool
	line       uint32
	column     uint32
	name       string
	sourceName string
	lines      []uint32
	offsets    []uint32
}

// Handler is the per-session protocol state machine. It owns no I/O: frame
// delivery and command submission are mediated entirely through send and
// HandleFrame, so it can be driven directly by tests without a real
// transport.
type Handler struct {
	table *breakpoints.Table
	q     *queue.Queue
	trace *Trace
	send  func([]byte) bool

	maxMessageSize uint32

	cfg    wire.ByteConfig
	cfgSet bool

	parserStack         []*parserFrame
	pendingFunctionName string
	currentSourceName   string

	sourceBytes       []byte
	haveSource        bool
	sourceNameBytes   []byte
	haveSourceName    bool
	functionNameBytes []byte
	haveFunctionName  bool
	exceptionBytes    []byte
	haveException     bool
	exceptionString   string
	evalResultBytes   []byte
	haveEvalResult    bool

	lastBreakpointHit *breakpoints.Breakpoint
	lastStopType      wire.Tag // zero value means "none"
	waitForSource     bool
	evalsPending      int

	backtraceAccum []BacktraceFrame

	fatal bool
}

// New returns a Handler ready to receive its handshake frame. send submits
// raw bytes to the transport; trace may be nil (treated as NoOpTrace).
func New(table *breakpoints.Table, q *queue.Queue, trace *Trace, send func([]byte) bool) *Handler {
	return &Handler{
		table: table,
		q:     q,
		trace: mergedTrace(trace),
		send:  send,
	}
}

// HandleFrame processes one complete logical frame from the transport.
// Returning a non-nil error (always a *ProtocolError) means the session is
// no longer usable; the caller must disconnect.
func (h *Handler) HandleFrame(frame []byte) error {
	if h.fatal {
		return &ProtocolError{Reason: "handler already failed"}
	}
	if len(frame) == 0 {
		return h.failf("empty frame")
	}

	tag := wire.Tag(frame[0])

	if !h.cfgSet {
		if tag != wire.TagConfiguration {
			return h.failf("first frame must be CONFIGURATION, got %s", tag)
		}
		return h.handleConfiguration(frame)
	}

	if h.evalsPending > 0 && debounced(tag) {
		return nil
	}

	switch tag {
	case wire.TagSourceCode, wire.TagSourceCodeEnd:
		return h.handleSourceCode(tag, frame)
	case wire.TagSourceCodeName, wire.TagSourceCodeNameEnd:
		return h.handleSourceCodeName(tag, frame)
	case wire.TagFunctionName, wire.TagFunctionNameEnd:
		return h.handleFunctionName(tag, frame)
	case wire.TagParseFunction:
		return h.handleParseFunction(frame)
	case wire.TagBreakpointList:
		return h.handleBreakpointList(frame, false)
	case wire.TagBreakpointOffsetList:
		return h.handleBreakpointList(frame, true)
	case wire.TagByteCodeCP:
		return h.handleByteCodeCP(frame)
	case wire.TagReleaseByteCodeCP:
		return h.handleReleaseByteCodeCP(frame)
	case wire.TagBreakpointHit:
		return h.handleHit(frame, false)
	case wire.TagExceptionHit:
		return h.handleHit(frame, true)
	case wire.TagExceptionStr, wire.TagExceptionStrEnd:
		return h.handleExceptionStr(tag, frame)
	case wire.TagBacktrace, wire.TagBacktraceEnd:
		return h.handleBacktrace(tag, frame)
	case wire.TagEvalResult, wire.TagEvalResultEnd:
		return h.handleEvalResult(tag, frame)
	case wire.TagWaitForSource:
		return h.handleWaitForSource()
	default:
		return h.failf("unknown tag %d", frame[0])
	}
}

// debounced reports whether tag is one of the four kinds the spec
// explicitly names as ignored while an eval is outstanding; see §9's
// resolved ambiguity note.
func debounced(tag wire.Tag) bool {
	switch tag {
	case wire.TagSourceCodeEnd, wire.TagBreakpointList, wire.TagByteCodeCP, wire.TagReleaseByteCodeCP:
		return true
	default:
		return false
	}
}

func (h *Handler) failf(format string, args ...interface{}) error {
	h.fatal = true
	err := fatalf(format, args...)
	h.trace.OnError(0, err.Error())
	return err
}

func (h *Handler) topFrame() *parserFrame {
	if len(h.parserStack) == 0 {
		return nil
	}
	return h.parserStack[len(h.parserStack)-1]
}
