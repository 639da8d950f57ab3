package protocol

import (
	"log"

	"github.com/imdario/mergo"

	"github.com/jerryscript-client/dbg/breakpoints"
)

// BacktraceFrame is one entry of a resolved backtrace, delivered by
// OnBacktrace.
type BacktraceFrame struct {
	Breakpoint *breakpoints.Breakpoint
	Exact      bool
}

// Trace is the optional-callback delegate surface: every field may be nil,
// in which case the corresponding event is silently dropped. Modeled on
// the teacher's ClientTrace (netconf/client/trace.go), merged over
// NoOpTrace with mergo the same way ContextClientTrace layers a
// caller-supplied trace over NoOpLoggingHooks.
type Trace struct {
	// OnScriptParsed is called once a script's source has been fully
	// reassembled and decoded.
	OnScriptParsed func(id uint32, name string, lineCount int)

	// OnBreakpointHit is called when the engine reports stopping at a
	// breakpoint (as opposed to an exception). stopLabel is the
	// human-readable reason string built from the last issued command.
	OnBreakpointHit func(bp *breakpoints.Breakpoint, exact bool, stopLabel string)

	// OnExceptionHit is called when the engine reports stopping due to an
	// uncaught exception.
	OnExceptionHit func(bp *breakpoints.Breakpoint, exact bool, message string)

	// OnBacktrace is called when a requested backtrace has been fully
	// reassembled.
	OnBacktrace func(frames []BacktraceFrame)

	// OnEvalResult is called when an evaluate request's result has been
	// fully reassembled.
	OnEvalResult func(subtype byte, value string)

	// OnWaitForSource is called when the engine enters wait-for-source mode.
	OnWaitForSource func()

	// OnResume is called after a resume-family command (step/continue) has
	// been accepted.
	OnResume func()

	// OnError is called for a fatal protocol error; the session is no
	// longer usable once this fires.
	OnError func(code int, message string)

	// ReadStart/ReadDone/WriteStart/WriteDone mirror the teacher's
	// transport-level instrumentation hooks. They are declared and
	// defaulted here only; nothing in this module invokes them.
	ReadStart func(frame []byte)
	ReadDone  func(frame []byte, err error)
	WriteStart func(frame []byte)
	WriteDone  func(frame []byte, err error)

	// ConnectionClosed is called once, however the session ended.
	ConnectionClosed func(err error)
}

// NoOpTrace provides a set of hooks that do nothing, mirroring the
// teacher's NoOpLoggingHooks (netconf/client/trace.go): every field is a
// real no-op closure rather than nil, so merging a caller's trace over it
// leaves every field callable without a nil check at the call site.
var NoOpTrace = &Trace{
	OnScriptParsed:   func(id uint32, name string, lineCount int) {},
	OnBreakpointHit:  func(bp *breakpoints.Breakpoint, exact bool, stopLabel string) {},
	OnExceptionHit:   func(bp *breakpoints.Breakpoint, exact bool, message string) {},
	OnBacktrace:      func(frames []BacktraceFrame) {},
	OnEvalResult:     func(subtype byte, value string) {},
	OnWaitForSource:  func() {},
	OnResume:         func() {},
	OnError:          func(code int, message string) {},
	ReadStart:        func(frame []byte) {},
	ReadDone:         func(frame []byte, err error) {},
	WriteStart:       func(frame []byte) {},
	WriteDone:        func(frame []byte, err error) {},
	ConnectionClosed: func(err error) {},
}

// mergedTrace returns a copy of t with every unset field filled in from
// NoOpTrace, mirroring ContextClientTrace's mergo.Merge call. A nil t
// yields NoOpTrace itself.
func mergedTrace(t *Trace) *Trace {
	if t == nil {
		return NoOpTrace
	}
	merged := *t
	_ = mergo.Merge(&merged, NoOpTrace)
	return &merged
}

// DefaultLoggingHooks logs only fatal protocol errors, the teacher-parity
// minimum for an operator who wants some visibility without writing a
// delegate.
var DefaultLoggingHooks = &Trace{
	OnError: func(code int, message string) {
		log.Printf("jerrydbg-Error code:%d message:%s\n", code, message)
	},
}

// DiagnosticLoggingHooks logs every event at an informational level; useful
// when developing against a new engine build.
var DiagnosticLoggingHooks = &Trace{
	OnScriptParsed: func(id uint32, name string, lineCount int) {
		log.Printf("jerrydbg-ScriptParsed id:%d name:%q lines:%d\n", id, name, lineCount)
	},
	OnBreakpointHit: func(bp *breakpoints.Breakpoint, exact bool, stopLabel string) {
		log.Printf("jerrydbg-BreakpointHit line:%d exact:%v label:%q\n", bp.Line, exact, stopLabel)
	},
	OnExceptionHit: func(bp *breakpoints.Breakpoint, exact bool, message string) {
		log.Printf("jerrydbg-ExceptionHit line:%d exact:%v message:%q\n", bp.Line, exact, message)
	},
	OnBacktrace: func(frames []BacktraceFrame) {
		log.Printf("jerrydbg-Backtrace depth:%d\n", len(frames))
	},
	OnEvalResult: func(subtype byte, value string) {
		log.Printf("jerrydbg-EvalResult subtype:%d value:%q\n", subtype, value)
	},
	OnWaitForSource: func() {
		log.Printf("jerrydbg-WaitForSource\n")
	},
	OnResume: func() {
		log.Printf("jerrydbg-Resume\n")
	},
	OnError: DefaultLoggingHooks.OnError,
	ConnectionClosed: func(err error) {
		log.Printf("jerrydbg-ConnectionClosed err:%v\n", err)
	},
}
