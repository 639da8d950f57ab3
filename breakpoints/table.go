package breakpoints

import "sort"

// Table owns the full client-side breakpoint model for one debug session:
// the script table, the function arena (staged and promoted), the
// per-script line index, and the sparse active-breakpoint set.
type Table struct {
	scripts      map[uint32]*Script
	nextScriptID uint32

	functions map[uint32]*ParsedFunction

	stagedOrder  []uint32
	newFunctions map[uint32]*ParsedFunction

	// lineLists[scriptID][line] lists the functions covering that line,
	// innermost first (the order functions are promoted in, which mirrors
	// the order the parser stack pops them).
	lineLists map[uint32]map[uint32][]*ParsedFunction

	active []*Breakpoint // sparse; holes left by deactivation stay nil
}

// NewTable returns an empty Table, ready for script id 1.
func NewTable() *Table {
	return &Table{
		scripts:      make(map[uint32]*Script),
		nextScriptID: 1,
		functions:    make(map[uint32]*ParsedFunction),
		newFunctions: make(map[uint32]*ParsedFunction),
		lineLists:    make(map[uint32]map[uint32][]*ParsedFunction),
	}
}

// NextScriptID returns the id that AddScript will assign next.
func (t *Table) NextScriptID() uint32 { return t.nextScriptID }

// AddScript records a fully-received source under the next script id.
func (t *Table) AddScript(name, source string) *Script {
	s := &Script{ID: t.nextScriptID, Name: name, Source: source}
	t.scripts[s.ID] = s
	t.lineLists[s.ID] = make(map[uint32][]*ParsedFunction)
	t.nextScriptID++
	return s
}

// GetScript looks up a script by id, rejecting the sentinel id 0 and any id
// beyond the highest one assigned.
func (t *Table) GetScript(id uint32) (*Script, error) {
	if id == 0 || id >= t.nextScriptID {
		return nil, ErrNoSuchScript
	}
	s, ok := t.scripts[id]
	if !ok {
		return nil, ErrNoSuchScript
	}
	return s, nil
}

// StageFunction builds a ParsedFunction from a completed parser-stack frame
// and stages it for promotion once the parser stack empties. lines and
// offsets are paired positionally per spec.
func (t *Table) StageFunction(cp, scriptID uint32, isFunc bool, line, column uint32, name, sourceName string, lines, offsets []uint32) error {
	if len(lines) == 0 || len(lines) != len(offsets) {
		return ErrEmptyBreakpointList
	}

	f := &ParsedFunction{
		ByteCodeCP:        cp,
		ScriptID:          scriptID,
		IsFunc:            isFunc,
		Line:              line,
		Column:            column,
		Name:              name,
		SourceName:        sourceName,
		lineBreakpoints:   make(map[uint32]*Breakpoint, len(lines)),
		offsetBreakpoints: make(map[uint32]*Breakpoint, len(lines)),
	}

	for i := range lines {
		bp := &Breakpoint{
			ScriptID:    scriptID,
			Func:        f,
			Line:        lines[i],
			Offset:      offsets[i],
			ActiveIndex: -1,
		}
		f.lineBreakpoints[bp.Line] = bp
		f.offsetBreakpoints[bp.Offset] = bp
		if i == 0 {
			f.FirstBreakpointLine = bp.Line
			f.FirstBreakpointOffset = bp.Offset
		}
	}

	t.newFunctions[cp] = f
	t.stagedOrder = append(t.stagedOrder, cp)
	return nil
}

// IsStaged reports whether cp names a function that has been staged but
// not yet promoted.
func (t *Table) IsStaged(cp uint32) bool {
	_, ok := t.newFunctions[cp]
	return ok
}

// PromoteStaged moves every staged function into the live arena and
// appends it to its script's per-line index, then clears the staging area.
// Called when the parser stack becomes empty.
func (t *Table) PromoteStaged() {
	for _, cp := range t.stagedOrder {
		f := t.newFunctions[cp]
		t.functions[cp] = f

		lines := t.lineLists[f.ScriptID]
		if lines == nil {
			lines = make(map[uint32][]*ParsedFunction)
			t.lineLists[f.ScriptID] = lines
		}
		for line := range f.lineBreakpoints {
			lines[line] = append(lines[line], f)
		}
	}
	t.stagedOrder = nil
	t.newFunctions = make(map[uint32]*ParsedFunction)
}

// FindBreakpoint resolves (scriptID, line) to the breakpoint of the
// innermost function covering that line.
func (t *Table) FindBreakpoint(scriptID, line uint32) (*Breakpoint, error) {
	if _, err := t.GetScript(scriptID); err != nil {
		return nil, err
	}
	funcs := t.lineLists[scriptID][line]
	if len(funcs) == 0 {
		return nil, ErrNoBreakpointAtLine
	}
	bp, ok := funcs[0].LineBreakpoint(line)
	if !ok {
		return nil, ErrNoBreakpointAtLine
	}
	return bp, nil
}

// ResolveHit maps a (byteCodeCP, offset) pair reported by the engine to a
// breakpoint, per the exact/inexact resolution rule in spec §4.3.
func (t *Table) ResolveHit(cp, offset uint32) (bp *Breakpoint, exact bool, err error) {
	f, ok := t.functions[cp]
	if !ok {
		return nil, false, ErrNoSuchFunction
	}

	if bp, ok := f.OffsetBreakpoint(offset); ok {
		return bp, true, nil
	}

	if offset < f.FirstBreakpointOffset {
		bp, _ := f.OffsetBreakpoint(f.FirstBreakpointOffset)
		return bp, true, nil
	}

	// Largest stored offset <= offset.
	offsets := sortedOffsets(f)
	idx := sort.Search(len(offsets), func(i int) bool { return offsets[i] > offset })
	if idx == 0 {
		// Unreachable given the offset < FirstBreakpointOffset check above,
		// but guard against an inconsistent function anyway.
		return nil, false, ErrNoBreakpointAtLine
	}
	bp, _ = f.OffsetBreakpoint(offsets[idx-1])
	return bp, false, nil
}

func sortedOffsets(f *ParsedFunction) []uint32 {
	offsets := make([]uint32, 0, len(f.offsetBreakpoints))
	for o := range f.offsetBreakpoints {
		offsets = append(offsets, o)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets
}

// Release removes a function from the model: every line-list cell it
// appears in, every active slot its breakpoints occupy, and the function
// entry itself. It is a no-op, successfully, if cp only ever existed in
// the staging area (never promoted).
func (t *Table) Release(cp uint32) error {
	if _, staged := t.newFunctions[cp]; staged {
		delete(t.newFunctions, cp)
		t.stagedOrder = removeCP(t.stagedOrder, cp)
		return nil
	}

	f, ok := t.functions[cp]
	if !ok {
		return ErrNoSuchFunction
	}

	lines := t.lineLists[f.ScriptID]
	for line := range f.lineBreakpoints {
		lines[line] = removeFunc(lines[line], f)
	}

	for _, bp := range f.lineBreakpoints {
		if bp.ActiveIndex >= 0 {
			t.active[bp.ActiveIndex] = nil
			bp.ActiveIndex = -1
		}
	}

	delete(t.functions, cp)
	return nil
}

func removeCP(s []uint32, cp uint32) []uint32 {
	out := s[:0]
	for _, v := range s {
		if v != cp {
			out = append(out, v)
		}
	}
	return out
}

func removeFunc(s []*ParsedFunction, f *ParsedFunction) []*ParsedFunction {
	out := s[:0]
	for _, v := range s {
		if v != f {
			out = append(out, v)
		}
	}
	return out
}

// SetActive enables or disables bp, assigning or clearing its place in the
// engine-visible active-breakpoint set.
func (t *Table) SetActive(bp *Breakpoint, enable bool) error {
	if enable {
		if bp.Active() {
			return ErrAlreadyActive
		}
		bp.ActiveIndex = int32(len(t.active))
		t.active = append(t.active, bp)
		return nil
	}

	if !bp.Active() {
		return ErrAlreadyInactive
	}
	t.active[bp.ActiveIndex] = nil
	bp.ActiveIndex = -1
	return nil
}

// ActiveBreakpoint returns the breakpoint at the given active index, or nil
// if the slot is empty or out of range.
func (t *Table) ActiveBreakpoint(index int32) *Breakpoint {
	if index < 0 || int(index) >= len(t.active) {
		return nil
	}
	return t.active[index]
}
