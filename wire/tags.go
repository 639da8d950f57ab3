package wire

// Tag identifies the leading byte of a logical protocol frame. Exact
// numeric values are a compatibility surface pinned to match the engine
// and must never be renumbered.
type Tag byte

// Server-to-client tags.
const (
	TagConfiguration Tag = 1 + iota
	TagParseFunction
	TagBreakpointList
	TagBreakpointOffsetList
	TagSourceCode
	TagSourceCodeEnd
	TagSourceCodeName
	TagSourceCodeNameEnd
	TagFunctionName
	TagFunctionNameEnd
	TagByteCodeCP
	TagReleaseByteCodeCP
	TagBreakpointHit
	TagExceptionHit
	TagExceptionStr
	TagExceptionStrEnd
	TagBacktrace
	TagBacktraceEnd
	TagEvalResult
	TagEvalResultEnd
	TagWaitForSource
)

// Client-to-server tags.
const (
	TagFreeByteCodeCP Tag = 50 + iota
	TagUpdateBreakpoint
	TagExceptionConfig
	TagGetBacktrace
	TagEval
	TagEvalPart
	TagStep
	TagNext
	TagFinish
	TagContinue
	TagStop
	TagClientSource
	TagClientSourcePart
	TagNoMoreSources
	TagContextReset
)

// EvalResult subtypes: the final byte of an accumulated EVAL_RESULT message.
type EvalSubtype byte

const (
	EvalOK EvalSubtype = iota
	EvalError
	EvalErrorEval
	EvalAbort
)

// EvalEval is the request-side subtype byte carried in an outgoing EVAL
// command. It happens to share the wire value of EvalOK, but the two are
// distinct concepts (one a request kind, the other a result kind) and are
// kept as separate named constants so callers never conflate them.
const EvalEval EvalSubtype = 0

// ProtocolVersion is the compile-time version this client implements; it
// must match the CONFIGURATION frame's version byte exactly.
const ProtocolVersion = 1

// RestartSentinel is the literal payload used by the restart command, a
// magic string the engine recognises in place of a real expression.
const RestartSentinel = "r353t"

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return "unknown-tag"
}

var tagNames = map[Tag]string{
	TagConfiguration:        "CONFIGURATION",
	TagParseFunction:        "PARSE_FUNCTION",
	TagBreakpointList:       "BREAKPOINT_LIST",
	TagBreakpointOffsetList: "BREAKPOINT_OFFSET_LIST",
	TagSourceCode:           "SOURCE_CODE",
	TagSourceCodeEnd:        "SOURCE_CODE_END",
	TagSourceCodeName:       "SOURCE_CODE_NAME",
	TagSourceCodeNameEnd:    "SOURCE_CODE_NAME_END",
	TagFunctionName:         "FUNCTION_NAME",
	TagFunctionNameEnd:      "FUNCTION_NAME_END",
	TagByteCodeCP:           "BYTE_CODE_CP",
	TagReleaseByteCodeCP:    "RELEASE_BYTE_CODE_CP",
	TagBreakpointHit:        "BREAKPOINT_HIT",
	TagExceptionHit:         "EXCEPTION_HIT",
	TagExceptionStr:         "EXCEPTION_STR",
	TagExceptionStrEnd:      "EXCEPTION_STR_END",
	TagBacktrace:            "BACKTRACE",
	TagBacktraceEnd:         "BACKTRACE_END",
	TagEvalResult:           "EVAL_RESULT",
	TagEvalResultEnd:        "EVAL_RESULT_END",
	TagWaitForSource:        "WAIT_FOR_SOURCE",

	TagFreeByteCodeCP:   "FREE_BYTE_CODE_CP",
	TagUpdateBreakpoint: "UPDATE_BREAKPOINT",
	TagExceptionConfig:  "EXCEPTION_CONFIG",
	TagGetBacktrace:     "GET_BACKTRACE",
	TagEval:             "EVAL",
	TagEvalPart:         "EVAL_PART",
	TagStep:             "STEP",
	TagNext:             "NEXT",
	TagFinish:           "FINISH",
	TagContinue:         "CONTINUE",
	TagStop:             "STOP",
	TagClientSource:     "CLIENT_SOURCE",
	TagClientSourcePart: "CLIENT_SOURCE_PART",
	TagNoMoreSources:    "NO_MORE_SOURCES",
	TagContextReset:     "CONTEXT_RESET",
}
