package protocol

import (
	"github.com/jerryscript-client/dbg/queue"
	"github.com/jerryscript-client/dbg/wire"
)

// EvalResult is the value delivered through the request queue when an
// Evaluate command's result frame has been fully reassembled.
type EvalResult struct {
	Subtype wire.EvalSubtype
	Value   string
}

// stopTypeLabel maps the command that caused the current halt to its
// façade-facing label, per spec §4.4.3.
func stopTypeLabel(tag wire.Tag) string {
	switch tag {
	case wire.TagStep:
		return "step-in"
	case wire.TagNext:
		return "step"
	case wire.TagFinish:
		return "step-out"
	case wire.TagContinue:
		return "continue"
	case wire.TagStop:
		return "pause"
	default:
		return "entry"
	}
}

func (h *Handler) stopLabel() string {
	stopType := stopTypeLabel(h.lastStopType)
	label := "breakpoint (" + stopType + ")"
	// An entry stop fires whenever the engine halts at a function's first
	// statement regardless of whether a user breakpoint there is enabled, so
	// the "inactive" qualifier only applies to step/continue/pause stops.
	if stopType != "entry" && h.lastBreakpointHit != nil && !h.lastBreakpointHit.Active() {
		label = "inactive " + label
	}
	return label
}

// handleHit implements BREAKPOINT_HIT / EXCEPTION_HIT: both carry
// (byte_code_cp, offset) and resolve to a breakpoint via the same rule.
func (h *Handler) handleHit(frame []byte, isException bool) error {
	values, err := wire.Decode("CI", h.cfg, frame, 1)
	if err != nil {
		return h.failf("malformed hit frame: %v", err)
	}
	cp, offset := uint32(values[0]), uint32(values[1])

	bp, exact, err := h.table.ResolveHit(cp, offset)
	if err != nil {
		return h.failf("resolving hit cp=%d offset=%d: %v", cp, offset, err)
	}
	h.lastBreakpointHit = bp

	if isException {
		message := h.exceptionString
		h.exceptionString = ""
		h.trace.OnExceptionHit(bp, exact, message)
	} else {
		label := h.stopLabel()
		h.trace.OnBreakpointHit(bp, exact, label)
	}

	h.lastStopType = 0
	return nil
}

// handleExceptionStr implements EXCEPTION_STR / _END: the decoded message
// is held until the matching EXCEPTION_HIT consumes it.
func (h *Handler) handleExceptionStr(tag wire.Tag, frame []byte) error {
	h.exceptionBytes = append(h.exceptionBytes, frame[1:]...)
	h.haveException = true

	if tag != wire.TagExceptionStrEnd {
		return nil
	}

	s, err := wire.DecodeCESU8(h.exceptionBytes)
	if err != nil {
		return h.failf("malformed EXCEPTION_STR payload: %v", err)
	}
	h.exceptionString = s
	h.exceptionBytes = nil
	h.haveException = false
	return nil
}

// handleBacktrace implements BACKTRACE / BACKTRACE_END: each BACKTRACE
// frame carries exactly one (byte_code_cp, offset) pair, resolved and
// appended to the accumulator; BACKTRACE_END delivers the completed list.
func (h *Handler) handleBacktrace(tag wire.Tag, frame []byte) error {
	if tag == wire.TagBacktraceEnd {
		frames := h.backtraceAccum
		h.backtraceAccum = nil
		h.trace.OnBacktrace(frames)
		h.q.Complete(queue.Result{Value: frames})
		return nil
	}

	values, err := wire.Decode("CI", h.cfg, frame, 1)
	if err != nil {
		return h.failf("malformed BACKTRACE entry: %v", err)
	}
	cp, offset := uint32(values[0]), uint32(values[1])

	bp, exact, err := h.table.ResolveHit(cp, offset)
	if err != nil {
		return h.failf("resolving backtrace frame cp=%d offset=%d: %v", cp, offset, err)
	}
	h.backtraceAccum = append(h.backtraceAccum, BacktraceFrame{Breakpoint: bp, Exact: exact})
	return nil
}

// handleEvalResult implements EVAL_RESULT / _END: the accumulated payload's
// final byte is the result subtype, the rest is CESU-8 text.
func (h *Handler) handleEvalResult(tag wire.Tag, frame []byte) error {
	h.evalResultBytes = append(h.evalResultBytes, frame[1:]...)
	h.haveEvalResult = true

	if tag != wire.TagEvalResultEnd {
		return nil
	}

	if len(h.evalResultBytes) == 0 {
		return h.failf("empty EVAL_RESULT payload")
	}
	subtype := wire.EvalSubtype(h.evalResultBytes[len(h.evalResultBytes)-1])
	value, err := wire.DecodeCESU8(h.evalResultBytes[:len(h.evalResultBytes)-1])
	if err != nil {
		return h.failf("malformed EVAL_RESULT payload: %v", err)
	}

	h.evalResultBytes = nil
	h.haveEvalResult = false
	if h.evalsPending > 0 {
		h.evalsPending--
	}

	h.trace.OnEvalResult(byte(subtype), value)
	h.q.Complete(queue.Result{Value: EvalResult{Subtype: subtype, Value: value}})
	return nil
}

// handleWaitForSource implements WAIT_FOR_SOURCE.
func (h *Handler) handleWaitForSource() error {
	h.waitForSource = true
	h.trace.OnWaitForSource()
	return nil
}
