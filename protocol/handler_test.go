package protocol

import (
	"sync"
	"testing"
	"time"

	assert "github.com/stretchr/testify/require"

	"github.com/jerryscript-client/dbg/breakpoints"
	"github.com/jerryscript-client/dbg/queue"
	"github.com/jerryscript-client/dbg/wire"
)

// fakeLink captures every frame the handler tries to send, standing in for
// the transport in isolation from any real byte stream.
type fakeLink struct {
	mu      sync.Mutex
	sent    [][]byte
	sendErr bool
}

func (f *fakeLink) send(b []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr {
		return false
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	f.sent = append(f.sent, cp)
	return true
}

func (f *fakeLink) frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

func newTestHandler(t *testing.T, trace *Trace) (*Handler, *fakeLink) {
	t.Helper()
	link := &fakeLink{}
	h := New(breakpoints.NewTable(), queue.New(), trace, link.send)
	return h, link
}

func handshake(t *testing.T, h *Handler, maxMessageSize, cpointerSize byte, littleEndian bool) {
	t.Helper()
	le := byte(0)
	if littleEndian {
		le = 1
	}
	frame := []byte{byte(wire.TagConfiguration), maxMessageSize, cpointerSize, le, wire.ProtocolVersion}
	assert.NoError(t, h.HandleFrame(frame))
}

func TestFirstFrameMustBeConfiguration(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	err := h.HandleFrame([]byte{byte(wire.TagSourceCode), 'x'})
	var perr *ProtocolError
	assert.ErrorAs(t, err, &perr)
}

func TestHandshakeRejectsBadVersion(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	frame := []byte{byte(wire.TagConfiguration), 0x80, 4, 1, wire.ProtocolVersion + 1}
	err := h.HandleFrame(frame)
	var perr *ProtocolError
	assert.ErrorAs(t, err, &perr)
}

func TestHandshakeRejectsBadPointerSize(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	frame := []byte{byte(wire.TagConfiguration), 0x80, 3, 1, wire.ProtocolVersion}
	err := h.HandleFrame(frame)
	var perr *ProtocolError
	assert.ErrorAs(t, err, &perr)
}

// Scenario 1: handshake + single script, no name.
func TestScenarioHandshakeAndSingleScript(t *testing.T) {
	var parsed []string
	h, _ := newTestHandler(t, &Trace{
		OnScriptParsed: func(id uint32, name string, lineCount int) {
			parsed = append(parsed, name)
			assert.Equal(t, uint32(1), id)
			assert.Equal(t, 1, lineCount)
		},
	})
	handshake(t, h, 0x80, 2, true)

	payload := append([]byte{byte(wire.TagSourceCodeEnd)}, []byte("abc")...)
	assert.NoError(t, h.HandleFrame(payload))

	assert.Equal(t, []string{""}, parsed)
}

// Scenario 2: script name split across two frames.
func TestScenarioNameSplitAcrossFrames(t *testing.T) {
	var gotName string
	h, _ := newTestHandler(t, &Trace{
		OnScriptParsed: func(id uint32, name string, lineCount int) { gotName = name },
	})
	handshake(t, h, 0x80, 2, true)

	assert.NoError(t, h.HandleFrame(append([]byte{byte(wire.TagSourceCodeName)}, []byte("foo")...)))
	assert.NoError(t, h.HandleFrame(append([]byte{byte(wire.TagSourceCodeNameEnd)}, []byte("foo")...)))
	assert.NoError(t, h.HandleFrame(append([]byte{byte(wire.TagSourceCodeEnd)}, []byte("abc")...)))

	assert.Equal(t, "foofoo", gotName)
}

func encodeU32(cfg wire.ByteConfig, v uint32) []byte {
	b, err := wire.Encode("I", cfg, []uint64{uint64(v)}, 0)
	if err != nil {
		panic(err)
	}
	return b
}

func cpointerBytes(cfg wire.ByteConfig, v uint32) []byte {
	b, err := wire.Encode("C", cfg, []uint64{uint64(v)}, 0)
	if err != nil {
		panic(err)
	}
	return b
}

// feedSimpleFunction pushes a script plus a single function with the given
// line/offset breakpoint lists, landing it in the breakpoint table under
// cp=42. Returns the ByteConfig used, for building hit frames.
func feedSimpleFunction(t *testing.T, h *Handler, lines, offsets []uint32) wire.ByteConfig {
	t.Helper()
	handshake(t, h, 0x80, 2, true)
	cfg := h.cfg

	assert.NoError(t, h.HandleFrame(append([]byte{byte(wire.TagSourceCodeEnd)}, []byte("function f(){}")...)))

	bpList := []byte{byte(wire.TagBreakpointList)}
	for _, l := range lines {
		bpList = append(bpList, encodeU32(cfg, l)...)
	}
	assert.NoError(t, h.HandleFrame(bpList))

	offList := []byte{byte(wire.TagBreakpointOffsetList)}
	for _, o := range offsets {
		offList = append(offList, encodeU32(cfg, o)...)
	}
	assert.NoError(t, h.HandleFrame(offList))

	cpFrame := append([]byte{byte(wire.TagByteCodeCP)}, cpointerBytes(cfg, 42)...)
	assert.NoError(t, h.HandleFrame(cpFrame))

	return cfg
}

// Scenario 3: breakpoint hit with no steps, exact resolution at entry.
func TestScenarioBreakpointHitNoSteps(t *testing.T) {
	var gotLabel string
	var gotExact bool
	var gotLine uint32
	h, _ := newTestHandler(t, &Trace{
		OnBreakpointHit: func(bp *breakpoints.Breakpoint, exact bool, label string) {
			gotLine, gotExact, gotLabel = bp.Line, exact, label
		},
	})
	cfg := feedSimpleFunction(t, h, []uint32{25}, []uint32{125})

	hit := append([]byte{byte(wire.TagBreakpointHit)}, cpointerBytes(cfg, 42)...)
	hit = append(hit, encodeU32(cfg, 125)...)
	assert.NoError(t, h.HandleFrame(hit))

	assert.Equal(t, uint32(25), gotLine)
	assert.True(t, gotExact)
	assert.Equal(t, "breakpoint (entry)", gotLabel)
}

// Scenario 4: inexact resolution.
func TestScenarioInexactResolution(t *testing.T) {
	var gotOffset uint32
	var gotExact bool
	h, _ := newTestHandler(t, &Trace{
		OnBreakpointHit: func(bp *breakpoints.Breakpoint, exact bool, label string) {
			gotOffset, gotExact = bp.Offset, exact
		},
	})
	cfg := feedSimpleFunction(t, h, []uint32{10, 20}, []uint32{64, 125})

	hit := append([]byte{byte(wire.TagBreakpointHit)}, cpointerBytes(cfg, 42)...)
	hit = append(hit, encodeU32(cfg, 100)...)
	assert.NoError(t, h.HandleFrame(hit))

	assert.Equal(t, uint32(64), gotOffset)
	assert.False(t, gotExact)
}

// Scenario 5: fragmented eval.
func TestScenarioFragmentedEval(t *testing.T) {
	h, link := newTestHandler(t, nil)
	cfg := feedSimpleFunction(t, h, []uint32{1}, []uint32{0})

	hit := append([]byte{byte(wire.TagBreakpointHit)}, cpointerBytes(cfg, 42)...)
	hit = append(hit, encodeU32(cfg, 0)...)
	assert.NoError(t, h.HandleFrame(hit))

	h.maxMessageSize = 6

	done := make(chan EvalResult, 1)
	go func() {
		res, err := h.Evaluate("foobar", 0)
		assert.NoError(t, err)
		done <- res
	}()

	assert.Eventually(t, func() bool { return len(link.frames()) == 3 }, time.Second, time.Millisecond)
	frames := link.frames()
	assert.Equal(t, []byte{byte(wire.TagEval), 7, 0, 0, 0, 0}, frames[0])
	assert.Equal(t, append([]byte{byte(wire.TagEvalPart)}, []byte("fooba")...), frames[1])
	assert.Equal(t, append([]byte{byte(wire.TagEvalPart)}, []byte("r")...), frames[2])

	result := append([]byte{byte(wire.TagEvalResultEnd)}, []byte("42")...)
	result = append(result, byte(wire.EvalOK))
	assert.NoError(t, h.HandleFrame(result))

	select {
	case res := <-done:
		assert.Equal(t, "42", res.Value)
		assert.Equal(t, wire.EvalOK, res.Subtype)
	case <-time.After(time.Second):
		t.Fatal("Evaluate did not return")
	}
}

// Scenario 6: release clears the active slot and the line-list cell.
func TestScenarioReleaseClearsActiveSlot(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	cfg := feedSimpleFunction(t, h, []uint32{1, 2, 3}, []uint32{10, 20, 30})

	bp, err := h.table.FindBreakpoint(1, 1)
	assert.NoError(t, err)

	hit := append([]byte{byte(wire.TagBreakpointHit)}, cpointerBytes(cfg, 42)...)
	hit = append(hit, encodeU32(cfg, 10)...)
	assert.NoError(t, h.HandleFrame(hit))

	assert.NoError(t, h.UpdateBreakpoint(bp, true))
	assert.True(t, bp.Active())

	release := append([]byte{byte(wire.TagReleaseByteCodeCP)}, cpointerBytes(cfg, 42)...)
	assert.NoError(t, h.HandleFrame(release))

	assert.False(t, bp.Active())
	_, err = h.table.FindBreakpoint(1, 1)
	assert.ErrorIs(t, err, breakpoints.ErrNoBreakpointAtLine)
}

// I5: frames debounced during evals_pending leave state unchanged.
func TestEvalsPendingDebouncesListedFrames(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	cfg := feedSimpleFunction(t, h, []uint32{1}, []uint32{0})

	hit := append([]byte{byte(wire.TagBreakpointHit)}, cpointerBytes(cfg, 42)...)
	hit = append(hit, encodeU32(cfg, 0)...)
	assert.NoError(t, h.HandleFrame(hit))

	done := make(chan struct{})
	go func() {
		_, _ = h.Evaluate("1", 0)
		close(done)
	}()
	assert.Eventually(t, func() bool { return h.evalsPending > 0 }, time.Second, time.Millisecond)

	// While evals_pending > 0, a fresh script/function lifecycle must be a
	// no-op rather than mutating the table.
	assert.NoError(t, h.HandleFrame([]byte{byte(wire.TagSourceCodeEnd), 'z'}))
	assert.NoError(t, h.HandleFrame(append([]byte{byte(wire.TagBreakpointList)}, encodeU32(cfg, 99)...)))
	assert.NoError(t, h.HandleFrame(append([]byte{byte(wire.TagByteCodeCP)}, cpointerBytes(cfg, 999)...)))
	assert.NoError(t, h.HandleFrame(append([]byte{byte(wire.TagReleaseByteCodeCP)}, cpointerBytes(cfg, 42)...)))

	_, err := h.table.GetScript(2)
	assert.ErrorIs(t, err, breakpoints.ErrNoSuchScript)

	result := append([]byte{byte(wire.TagEvalResultEnd)}, []byte("1")...)
	result = append(result, byte(wire.EvalOK))
	assert.NoError(t, h.HandleFrame(result))
	<-done
}

func TestMalformedBreakpointListLengthIsFatal(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	handshake(t, h, 0x80, 2, true)
	assert.NoError(t, h.HandleFrame(append([]byte{byte(wire.TagSourceCodeEnd)}, []byte("x")...)))

	bad := []byte{byte(wire.TagBreakpointList), 1, 2, 3} // 3 payload bytes, not 4k
	err := h.HandleFrame(bad)
	var perr *ProtocolError
	assert.ErrorAs(t, err, &perr)
}

func TestByteCodeCPWithEmptyParserStackIsFatal(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	handshake(t, h, 0x80, 2, true)

	cp := append([]byte{byte(wire.TagByteCodeCP)}, cpointerBytes(h.cfg, 1)...)
	err := h.HandleFrame(cp)
	var perr *ProtocolError
	assert.ErrorAs(t, err, &perr)
}

func TestCommandStateErrorsDoNotEndSession(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	handshake(t, h, 0x80, 2, true)

	err := h.Resume()
	assert.ErrorIs(t, err, ErrNotHalted)

	_, err = h.Evaluate("1", 0)
	assert.ErrorIs(t, err, ErrNotHalted)

	err = h.SendClientSourceControl(wire.TagNoMoreSources)
	assert.ErrorIs(t, err, ErrNotWaitingForSource)

	// The handler must still accept frames after a command-state error.
	assert.NoError(t, h.HandleFrame(append([]byte{byte(wire.TagSourceCodeEnd)}, []byte("ok")...)))
}

func TestTransportSubmitFailureFailsOnlyThatCommand(t *testing.T) {
	h, link := newTestHandler(t, nil)
	cfg := feedSimpleFunction(t, h, []uint32{1}, []uint32{0})

	hit := append([]byte{byte(wire.TagBreakpointHit)}, cpointerBytes(cfg, 42)...)
	hit = append(hit, encodeU32(cfg, 0)...)
	assert.NoError(t, h.HandleFrame(hit))

	link.mu.Lock()
	link.sendErr = true
	link.mu.Unlock()

	err := h.Resume()
	assert.ErrorIs(t, err, ErrTransportSubmitFailed)
}

func TestEvaluateSubmitFailureDoesNotWedgeParsing(t *testing.T) {
	h, link := newTestHandler(t, nil)
	cfg := feedSimpleFunction(t, h, []uint32{1}, []uint32{0})

	hit := append([]byte{byte(wire.TagBreakpointHit)}, cpointerBytes(cfg, 42)...)
	hit = append(hit, encodeU32(cfg, 0)...)
	assert.NoError(t, h.HandleFrame(hit))

	link.mu.Lock()
	link.sendErr = true
	link.mu.Unlock()

	_, err := h.Evaluate("1", 0)
	assert.ErrorIs(t, err, ErrTransportSubmitFailed)
	assert.Equal(t, 0, h.evalsPending)

	// A failed eval must not leave evals_pending stuck above zero: a later
	// script must still be ingested rather than silently debounced.
	assert.NoError(t, h.HandleFrame(append([]byte{byte(wire.TagSourceCodeEnd)}, []byte("z")...)))
	_, err = h.table.GetScript(2)
	assert.NoError(t, err)
}

func TestPauseRejectsWhenAlreadyHalted(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	cfg := feedSimpleFunction(t, h, []uint32{1}, []uint32{0})

	hit := append([]byte{byte(wire.TagBreakpointHit)}, cpointerBytes(cfg, 42)...)
	hit = append(hit, encodeU32(cfg, 0)...)
	assert.NoError(t, h.HandleFrame(hit))

	err := h.Pause()
	assert.ErrorIs(t, err, ErrAlreadyHalted)
}

func TestUpdateBreakpointRejectsDoubleActivate(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	feedSimpleFunction(t, h, []uint32{1}, []uint32{0})
	bp, err := h.table.FindBreakpoint(1, 1)
	assert.NoError(t, err)

	assert.NoError(t, h.UpdateBreakpoint(bp, true))
	err = h.UpdateBreakpoint(bp, true)
	assert.ErrorIs(t, err, breakpoints.ErrAlreadyActive)
}
