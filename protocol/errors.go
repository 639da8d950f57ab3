package protocol

import (
	"fmt"

	"github.com/pkg/errors"
)

// Command-state sentinels: the caller violated a precondition for the
// command it invoked. The session is unaffected; only that call fails.
var (
	// ErrNotHalted is returned by commands that require the engine to be
	// stopped at a breakpoint (evaluate, the step/continue family,
	// backtrace).
	ErrNotHalted = errors.New("protocol: engine is not halted")
	// ErrNotWaitingForSource is returned by SendClientSource(Control) when
	// the engine has not asked for a source upload.
	ErrNotWaitingForSource = errors.New("protocol: engine is not waiting for source")
	// ErrInvalidControlCode is returned by SendClientSourceControl for any
	// code other than NO_MORE_SOURCES or CONTEXT_RESET.
	ErrInvalidControlCode = errors.New("protocol: invalid client source control code")
	// ErrTransportSubmitFailed is returned when the transport rejects a
	// command's bytes.
	ErrTransportSubmitFailed = errors.New("protocol: failed to submit request")
	// ErrAlreadyHalted is returned by Pause when the engine is already
	// stopped.
	ErrAlreadyHalted = errors.New("protocol: engine is already halted")
)

// ProtocolError reports a fatal, session-ending failure: malformed input
// from the engine that the handler cannot recover from. The session must
// be torn down after one is raised.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol: fatal: %s", e.Reason)
}

func fatalf(format string, args ...interface{}) error {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// CommandError wraps a command-state sentinel with the command name that
// raised it, so a caller logging the error gets both without parsing the
// message.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("protocol: %s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

func cmdErr(command string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Err: err}
}
