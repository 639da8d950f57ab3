package protocol

import (
	"github.com/jerryscript-client/dbg/breakpoints"
	"github.com/jerryscript-client/dbg/queue"
	"github.com/jerryscript-client/dbg/wire"
)

// resumeCommand implements the step/continue family: each requires the
// engine to be halted, clears that state locally, records the stop type
// that will label the next hit, and fires a one-byte command.
func (h *Handler) resumeCommand(name string, tag wire.Tag) error {
	if h.lastBreakpointHit == nil {
		return cmdErr(name, ErrNotHalted)
	}
	h.lastBreakpointHit = nil
	h.lastStopType = tag

	buf, err := wire.Encode("B", h.cfg, []uint64{uint64(tag)}, 0)
	if err != nil {
		return cmdErr(name, err)
	}
	if err := h.q.Fire(func() bool { return h.send(buf) }); err != nil {
		return cmdErr(name, ErrTransportSubmitFailed)
	}

	h.trace.OnResume()
	return nil
}

// StepOver issues NEXT: run to the next line in the current frame.
func (h *Handler) StepOver() error { return h.resumeCommand("step-over", wire.TagNext) }

// StepInto issues STEP: run into the next call.
func (h *Handler) StepInto() error { return h.resumeCommand("step-into", wire.TagStep) }

// StepOut issues FINISH: run until the current function returns.
func (h *Handler) StepOut() error { return h.resumeCommand("step-out", wire.TagFinish) }

// Resume issues CONTINUE: run until the next breakpoint.
func (h *Handler) Resume() error { return h.resumeCommand("resume", wire.TagContinue) }

// Pause requests a break at the engine's next opportunity; it is illegal
// while already halted.
func (h *Handler) Pause() error {
	if h.lastBreakpointHit != nil {
		return cmdErr("pause", ErrAlreadyHalted)
	}
	h.lastStopType = wire.TagStop

	buf, err := wire.Encode("B", h.cfg, []uint64{uint64(wire.TagStop)}, 0)
	if err != nil {
		return cmdErr("pause", err)
	}
	if err := h.q.Fire(func() bool { return h.send(buf) }); err != nil {
		return cmdErr("pause", ErrTransportSubmitFailed)
	}
	return nil
}

// fragment splits buf (already containing its own leading tag byte and
// header) into wire packets of at most maxMessageSize bytes: the first
// packet is buf's own first window; every later packet gets a fresh
// contTag byte in place of one payload byte, per spec §4.4.4's "EVAL then
// EVAL_PART" rule (scenario 5).
func fragment(buf []byte, contTag wire.Tag, maxMessageSize uint32) [][]byte {
	max := int(maxMessageSize)
	if max <= 1 || len(buf) <= max {
		return [][]byte{buf}
	}

	packets := [][]byte{buf[:max]}
	rest := buf[max:]
	for len(rest) > 0 {
		n := max - 1
		if n > len(rest) {
			n = len(rest)
		}
		packet := make([]byte, n+1)
		packet[0] = byte(contTag)
		copy(packet[1:], rest[:n])
		packets = append(packets, packet)
		rest = rest[n:]
	}
	return packets
}

// sendFragments sends every packet in order through h.send, returning
// false (a single submit failure) if any one fails to send. Callers submit
// the whole call to the queue as one request.
func (h *Handler) sendFragments(packets [][]byte) bool {
	for _, p := range packets {
		if !h.send(p) {
			return false
		}
	}
	return true
}

// Evaluate submits expression for evaluation, fragmenting as needed, and
// blocks for the reassembled EVAL_RESULT. scopeChainIndex is accepted for
// API parity with the façade but is not part of the wire payload (the
// engine resolves scope from the current frame).
func (h *Handler) Evaluate(expression string, scopeChainIndex uint32) (EvalResult, error) {
	if h.lastBreakpointHit == nil {
		return EvalResult{}, cmdErr("evaluate", ErrNotHalted)
	}

	header, err := wire.Encode("I", h.cfg, []uint64{uint64(1 + wire.EncodeCESU8Len(expression))}, 1)
	if err != nil {
		return EvalResult{}, cmdErr("evaluate", err)
	}
	header[0] = byte(wire.TagEval)
	buf := append(header, byte(wire.EvalEval))
	buf = append(buf, wire.EncodeCESU8(expression, 0)...)

	packets := fragment(buf, wire.TagEvalPart, h.maxMessageSize)

	// Increment before Submit, which may invoke the send synchronously: the
	// reactor must already see evals_pending > 0 before any reply can land.
	h.evalsPending++
	ch := h.q.Submit(func() bool { return h.sendFragments(packets) })
	res := <-ch
	if res.Err != nil {
		h.evalsPending--
		if res.Err == queue.ErrTransportSubmitFailed {
			return EvalResult{}, cmdErr("evaluate", ErrTransportSubmitFailed)
		}
		return EvalResult{}, cmdErr("evaluate", res.Err)
	}
	return res.Value.(EvalResult), nil
}

// SendClientSource uploads a program while the engine is waiting for one.
func (h *Handler) SendClientSource(name, source string) error {
	if !h.waitForSource {
		return cmdErr("send-client-source", ErrNotWaitingForSource)
	}
	h.waitForSource = false

	payload := append(wire.EncodeCESU8(name, 0), 0)
	payload = append(payload, wire.EncodeCESU8(source, 0)...)

	header, err := wire.Encode("I", h.cfg, []uint64{uint64(len(payload))}, 1)
	if err != nil {
		return cmdErr("send-client-source", err)
	}
	header[0] = byte(wire.TagClientSource)
	buf := append(header, payload...)

	packets := fragment(buf, wire.TagClientSourcePart, h.maxMessageSize)
	if err := h.q.Fire(func() bool { return h.sendFragments(packets) }); err != nil {
		return cmdErr("send-client-source", ErrTransportSubmitFailed)
	}
	return nil
}

// SendClientSourceControl sends NO_MORE_SOURCES or CONTEXT_RESET while the
// engine is waiting for a source upload.
func (h *Handler) SendClientSourceControl(code wire.Tag) error {
	if !h.waitForSource {
		return cmdErr("send-client-source-control", ErrNotWaitingForSource)
	}
	if code != wire.TagNoMoreSources && code != wire.TagContextReset {
		return cmdErr("send-client-source-control", ErrInvalidControlCode)
	}
	h.waitForSource = false

	buf, err := wire.Encode("B", h.cfg, []uint64{uint64(code)}, 0)
	if err != nil {
		return cmdErr("send-client-source-control", err)
	}
	if err := h.q.Fire(func() bool { return h.send(buf) }); err != nil {
		return cmdErr("send-client-source-control", ErrTransportSubmitFailed)
	}
	return nil
}

// Restart aborts the currently running program back to its start via the
// engine's eval-encoded sentinel trick; unlike Evaluate it does not count
// against evals_pending since no client is awaiting its result.
func (h *Handler) Restart() error {
	header, err := wire.Encode("I", h.cfg, []uint64{uint64(1 + wire.EncodeCESU8Len(wire.RestartSentinel))}, 1)
	if err != nil {
		return cmdErr("restart", err)
	}
	header[0] = byte(wire.TagEval)
	buf := append(header, byte(wire.EvalAbort))
	buf = append(buf, wire.EncodeCESU8(wire.RestartSentinel, 0)...)

	packets := fragment(buf, wire.TagEvalPart, h.maxMessageSize)
	if err := h.q.Fire(func() bool { return h.sendFragments(packets) }); err != nil {
		return cmdErr("restart", ErrTransportSubmitFailed)
	}
	return nil
}

// UpdateBreakpoint enables or disables bp, failing if it is already in the
// requested state.
func (h *Handler) UpdateBreakpoint(bp *breakpoints.Breakpoint, enable bool) error {
	if err := h.table.SetActive(bp, enable); err != nil {
		return cmdErr("update-breakpoint", err)
	}

	enableFlag := uint64(0)
	if enable {
		enableFlag = 1
	}
	buf, err := wire.Encode("BBCI", h.cfg, []uint64{
		uint64(wire.TagUpdateBreakpoint),
		enableFlag,
		uint64(bp.Func.ByteCodeCP),
		uint64(bp.Offset),
	}, 0)
	if err != nil {
		return cmdErr("update-breakpoint", err)
	}
	if err := h.q.Fire(func() bool { return h.send(buf) }); err != nil {
		return cmdErr("update-breakpoint", ErrTransportSubmitFailed)
	}
	return nil
}

// RequestBacktrace asks the engine for a full backtrace and blocks for its
// reassembled result; it is illegal while running.
func (h *Handler) RequestBacktrace() ([]BacktraceFrame, error) {
	if h.lastBreakpointHit == nil {
		return nil, cmdErr("request-backtrace", ErrNotHalted)
	}

	buf, err := wire.Encode("BI", h.cfg, []uint64{uint64(wire.TagGetBacktrace), 0}, 0)
	if err != nil {
		return nil, cmdErr("request-backtrace", err)
	}

	ch := h.q.Submit(func() bool { return h.send(buf) })
	res := <-ch
	if res.Err != nil {
		if res.Err == queue.ErrTransportSubmitFailed {
			return nil, cmdErr("request-backtrace", ErrTransportSubmitFailed)
		}
		return nil, cmdErr("request-backtrace", res.Err)
	}
	frames, _ := res.Value.([]BacktraceFrame)
	return frames, nil
}
