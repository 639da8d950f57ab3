package dbgclient

import "github.com/jerryscript-client/dbg/protocol"

// Trace is the optional-callback delegate surface a front-end implements to
// receive session events. It is protocol.Trace under the hood — defined
// there so the protocol handler can depend on it without an import cycle
// back to this package — re-exported here because dbgclient.Client is the
// type callers actually construct.
type Trace = protocol.Trace

// BacktraceFrame is one entry of a resolved backtrace, delivered by
// Trace.OnBacktrace.
type BacktraceFrame = protocol.BacktraceFrame

// NoOpTrace, DefaultLoggingHooks and DiagnosticLoggingHooks mirror the
// teacher's NoOpLoggingHooks / DefaultLoggingHooks / DiagnosticLoggingHooks
// trio (netconf/client/trace.go).
var (
	NoOpTrace              = protocol.NoOpTrace
	DefaultLoggingHooks    = protocol.DefaultLoggingHooks
	DiagnosticLoggingHooks = protocol.DiagnosticLoggingHooks
)
