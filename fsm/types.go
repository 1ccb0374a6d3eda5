package fsm

import "regexp"

// Well-known state indices that exist in every handler.
const (
	StateOutput = 0
	StateMore   = 1
	StateError  = 2
)

// Well-known state names for the three pre-states. Names are always
// compared case-insensitively and stored lowercase.
const (
	NameOutput = "output"
	NameMore   = "more"
	NameError  = "error"
)

// PromptGroup declares a prompt state and the anchored patterns that
// recognize it. A state may have more than one pattern (e.g. a prompt
// that differs slightly between firmware revisions).
type PromptGroup struct {
	State    string
	Patterns []string
}

// SysPromptGroup declares a prompt state whose pattern captures a
// runtime token (typically a virtual-system name) via a named group.
type SysPromptGroup struct {
	State       string
	Pattern     string
	CaptureName string
}

// InputEntry is the automatic reply for a write state.
type InputEntry struct {
	// Dynamic selects whether KeyOrLiteral names a session dynamic
	// parameter (true) or is the literal reply bytes (false).
	Dynamic      bool
	KeyOrLiteral string
	// RecordEcho, when false, means the bytes that triggered this
	// write state must be scrubbed from captured output.
	RecordEcho bool
}

// WriteGroup declares a write state: a pattern whose recognition
// triggers InputEntry as an automatic reply.
type WriteGroup struct {
	State   string
	Pattern string
	Input   InputEntry
}

// Edge is a transition edge (from_state, command, to_state, is_exit,
// needs_format). State names are normalized to lowercase at
// construction time.
type Edge struct {
	From        string
	Command     string
	To          string
	IsExit      bool
	NeedsFormat bool
}

// Config is the complete input to New: the seven FSM inputs from
// spec.md §4.1 plus initial dynamic parameters.
type Config struct {
	PromptGroups        []PromptGroup
	SysPromptGroups      []SysPromptGroup
	WriteGroups          []WriteGroup
	PaginationPatterns   []string
	ErrorPatterns        []string
	IgnoreErrorPatterns  []string
	Edges                []Edge
	InitialDynParams     map[string]string
}

// compiledPattern is one entry in the combined regex-set matcher.
type compiledPattern struct {
	re         *regexp.Regexp
	stateIndex int
	// capture, when non-nil, is the original (unwrapped) pattern for a
	// sys-prompt entry, re-run on a winning line to extract the token.
	capture     *regexp.Regexp
	captureName string
}
