// Package breakpoints implements the client-side model of scripts,
// parsed functions and breakpoints described by the JerryScript debugger
// protocol: a dense function arena keyed by compressed pointer, a per-line
// index used to resolve source positions to breakpoints, and the sparse
// active-breakpoint set the engine addresses by index.
package breakpoints

// Script is immutable once created; it is destroyed only at session end.
// Index 0 is never assigned to a real script; it is a sentinel used to
// reject out-of-range lookups.
type Script struct {
	ID     uint32
	Name   string
	Source string
}

// LineCount returns the number of source lines, counting a trailing
// non-newline-terminated line as one line, matching the engine's own
// line-numbering convention (newlines + 1).
func (s *Script) LineCount() int {
	n := 1
	for _, r := range s.Source {
		if r == '\n' {
			n++
		}
	}
	return n
}

// ParsedFunction is created when the engine finishes delivering a function
// definition (BYTE_CODE_CP pops its parser-stack frame) and destroyed only
// when the engine releases its compressed pointer.
type ParsedFunction struct {
	ByteCodeCP uint32
	ScriptID   uint32
	IsFunc     bool

	// Line/Column is the function's declaration position. Column 0 means
	// "unknown", the engine's own convention, preserved here rather than
	// translated to some other sentinel.
	Line   uint32
	Column uint32

	// Name is the function name as reported by the engine; an empty name
	// is rendered "function" by presentation code, not stored that way
	// here.
	Name       string
	SourceName string

	lineBreakpoints   map[uint32]*Breakpoint
	offsetBreakpoints map[uint32]*Breakpoint

	FirstBreakpointLine   uint32
	FirstBreakpointOffset uint32
}

// Breakpoint is owned by exactly one ParsedFunction, reachable both by
// source line and by bytecode offset.
type Breakpoint struct {
	ScriptID uint32
	Func     *ParsedFunction
	Line     uint32
	Offset   uint32

	// ActiveIndex is -1 when the breakpoint is inactive, else its position
	// in the engine-visible active-breakpoint set.
	ActiveIndex int32
}

// Active reports whether the engine has acknowledged this breakpoint as
// enabled.
func (b *Breakpoint) Active() bool { return b.ActiveIndex >= 0 }

// LineBreakpoint returns the breakpoint registered at line within f, if
// any.
func (f *ParsedFunction) LineBreakpoint(line uint32) (*Breakpoint, bool) {
	bp, ok := f.lineBreakpoints[line]
	return bp, ok
}

// OffsetBreakpoint returns the breakpoint registered at offset within f, if
// any.
func (f *ParsedFunction) OffsetBreakpoint(offset uint32) (*Breakpoint, bool) {
	bp, ok := f.offsetBreakpoints[offset]
	return bp, ok
}
