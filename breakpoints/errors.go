package breakpoints

import "github.com/pkg/errors"

var (
	// ErrNoSuchScript is returned for a script id of 0 or beyond the
	// highest assigned script id.
	ErrNoSuchScript = errors.New("breakpoints: no such script")
	// ErrNoBreakpointAtLine is returned when a line has no associated
	// statement boundary.
	ErrNoBreakpointAtLine = errors.New("breakpoints: no breakpoint at line")
	// ErrNoSuchFunction is returned when a compressed pointer names no
	// known (staged or promoted) function.
	ErrNoSuchFunction = errors.New("breakpoints: no such function")
	// ErrEmptyBreakpointList is returned when staging a function whose
	// line/offset lists are empty or mismatched in length.
	ErrEmptyBreakpointList = errors.New("breakpoints: line/offset lists empty or mismatched")
	// ErrAlreadyActive is returned by SetActive(true) on an already-active
	// breakpoint.
	ErrAlreadyActive = errors.New("breakpoints: breakpoint already active")
	// ErrAlreadyInactive is returned by SetActive(false) on an already
	// inactive breakpoint.
	ErrAlreadyInactive = errors.New("breakpoints: breakpoint already inactive")
)
