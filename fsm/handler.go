// Package fsm implements the device finite-state machine: pattern-
// driven prompt/state recognition, BFS mode transitions, interactive-
// prompt auto-response, and static graph diagnostics.
//
// Grounded on original_source/src/device.rs (DeviceHandler), adapted
// to Go's lack of a first-class regex-set primitive by emulating one
// with an ordered linear scan (see matchCombined).
package fsm

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/mvandenburg/netssh/neterr"
)

// ignoreStartLine scrubs a leading control-character run (one-or-more
// \r possibly interleaved with whitespace, or one-or-more backspace)
// from a captured line before it is handed to read. Grounded on
// original_source/src/device.rs's IGNORE_START_LINE static regex.
var ignoreStartLine = regexp.MustCompile(`^(?:[\r\s]+|\x08+)`)

// ScrubLineLeading strips only the leading control-character run from
// a captured line, leaving any trailing newline intact. Exported so
// session can accumulate verbatim (modulo leading control bytes)
// output while still feeding a fully-trimmed line to Read.
func ScrubLineLeading(line string) string {
	return ignoreStartLine.ReplaceAllString(line, "")
}

// ScrubLine strips the leading control-character run from a captured
// line and right-trims the remainder. Exported so session can apply
// the identical scrub to lines read off the channel.
func ScrubLine(line string) string {
	return strings.TrimRight(ScrubLineLeading(line), " \t\r\n")
}

// Handler is a compiled device FSM instance. One Handler is built per
// template and is safe for concurrent read-only use (States()/Edges()/
// diagnostics); the mutable cursor (current state/sys/prompt/dynamic
// parameters) is guarded by mu because a session's I/O pump and any
// concurrent diagnostic caller may observe it.
type Handler struct {
	mu sync.Mutex

	states       []string       // index -> lowercase state name
	stateIndex   map[string]int // lowercase name -> index
	promptFirst  int            // first prompt state index (3, if any prompt states declared)
	promptLast   int            // last prompt state index (inclusive); 2 if none declared
	sysPrompt    map[int]bool   // state index -> is sys-prompt
	writeFirst   int            // first write state index

	combined []compiledPattern // pagination, error, prompt, sys-prompt, write, in that order

	edges           []Edge
	interactiveInput map[int]InputEntry // state index -> write reply

	ignoreError []*regexp.Regexp

	currentStateIndex int
	currentPrompt     string
	currentSys        string
	dynParams         map[string]string
}

// wrapPromptPattern applies the leading-NUL/optional-CR tolerance
// wrapper spec.md §4.1 requires of every prompt and sys-prompt pattern:
// "^\x00*\r?" followed by the user pattern with any leading "^" stripped.
func wrapPromptPattern(pattern string) string {
	return `^\x00*\r?` + strings.TrimPrefix(pattern, "^")
}

// New builds a Handler from a template's FSM inputs. Construction
// fails with *neterr.InvalidDeviceHandlerConfig if any pattern does
// not compile.
func New(cfg Config) (*Handler, error) {
	h := &Handler{
		stateIndex:        map[string]int{},
		sysPrompt:         map[int]bool{},
		interactiveInput:  map[int]InputEntry{},
		currentStateIndex: StateOutput,
		dynParams:         map[string]string{},
	}
	for k, v := range cfg.InitialDynParams {
		h.dynParams[k] = v
	}

	h.states = []string{NameOutput, NameMore, NameError}
	h.stateIndex[NameOutput] = StateOutput
	h.stateIndex[NameMore] = StateMore
	h.stateIndex[NameError] = StateError

	// Assign prompt-state indices: plain prompt groups first, then
	// sys-prompt groups, matching the declaration order spec.md §4.1
	// relies on for "first match wins" determinism.
	h.promptFirst = len(h.states)
	for _, pg := range cfg.PromptGroups {
		name := strings.ToLower(pg.State)
		if _, ok := h.stateIndex[name]; !ok {
			h.stateIndex[name] = len(h.states)
			h.states = append(h.states, name)
		}
	}
	for _, sg := range cfg.SysPromptGroups {
		name := strings.ToLower(sg.State)
		idx, ok := h.stateIndex[name]
		if !ok {
			idx = len(h.states)
			h.stateIndex[name] = idx
			h.states = append(h.states, name)
		}
		h.sysPrompt[idx] = true
	}
	h.promptLast = len(h.states) - 1
	if h.promptLast < h.promptFirst {
		h.promptLast = h.promptFirst - 1 // no prompt states declared
	}

	h.writeFirst = len(h.states)
	for _, wg := range cfg.WriteGroups {
		name := strings.ToLower(wg.State)
		idx, ok := h.stateIndex[name]
		if !ok {
			idx = len(h.states)
			h.stateIndex[name] = idx
			h.states = append(h.states, name)
		}
		h.interactiveInput[idx] = wg.Input
	}

	// Combined regex-set build order: pagination, error, prompt,
	// sys-prompt, write.
	for _, p := range cfg.PaginationPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &neterr.InvalidDeviceHandlerConfig{Msg: fmt.Sprintf("pagination pattern %q: %v", p, err)}
		}
		h.combined = append(h.combined, compiledPattern{re: re, stateIndex: StateMore})
	}
	for _, p := range cfg.ErrorPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &neterr.InvalidDeviceHandlerConfig{Msg: fmt.Sprintf("error pattern %q: %v", p, err)}
		}
		h.combined = append(h.combined, compiledPattern{re: re, stateIndex: StateError})
	}
	for _, pg := range cfg.PromptGroups {
		idx := h.stateIndex[strings.ToLower(pg.State)]
		for _, p := range pg.Patterns {
			re, err := regexp.Compile(wrapPromptPattern(p))
			if err != nil {
				return nil, &neterr.InvalidDeviceHandlerConfig{Msg: fmt.Sprintf("prompt pattern %q: %v", p, err)}
			}
			h.combined = append(h.combined, compiledPattern{re: re, stateIndex: idx})
		}
	}
	for _, sg := range cfg.SysPromptGroups {
		idx := h.stateIndex[strings.ToLower(sg.State)]
		re, err := regexp.Compile(wrapPromptPattern(sg.Pattern))
		if err != nil {
			return nil, &neterr.InvalidDeviceHandlerConfig{Msg: fmt.Sprintf("sys-prompt pattern %q: %v", sg.Pattern, err)}
		}
		capRe, err := regexp.Compile(sg.Pattern)
		if err != nil {
			return nil, &neterr.InvalidDeviceHandlerConfig{Msg: fmt.Sprintf("sys-prompt capture pattern %q: %v", sg.Pattern, err)}
		}
		h.combined = append(h.combined, compiledPattern{re: re, stateIndex: idx, capture: capRe, captureName: sg.CaptureName})
	}
	for _, wg := range cfg.WriteGroups {
		idx := h.stateIndex[strings.ToLower(wg.State)]
		re, err := regexp.Compile(wg.Pattern)
		if err != nil {
			return nil, &neterr.InvalidDeviceHandlerConfig{Msg: fmt.Sprintf("write pattern %q: %v", wg.Pattern, err)}
		}
		h.combined = append(h.combined, compiledPattern{re: re, stateIndex: idx})
	}

	for _, p := range cfg.IgnoreErrorPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &neterr.InvalidDeviceHandlerConfig{Msg: fmt.Sprintf("ignore-error pattern %q: %v", p, err)}
		}
		h.ignoreError = append(h.ignoreError, re)
	}

	// More always carries the implicit write rule (static, " ", record=false).
	h.interactiveInput[StateMore] = InputEntry{Dynamic: false, KeyOrLiteral: " ", RecordEcho: false}

	h.edges = make([]Edge, len(cfg.Edges))
	for i, e := range cfg.Edges {
		h.edges[i] = Edge{
			From:        strings.ToLower(e.From),
			Command:     e.Command,
			To:          strings.ToLower(e.To),
			IsExit:      e.IsExit,
			NeedsFormat: e.NeedsFormat,
		}
	}

	return h, nil
}

// matchCombined scans the combined pattern set in declaration order
// and returns the first matching entry. "First match wins" means
// smallest declaration index, not longest match — an ordered linear
// scan is the correct emulation of a regex-set's reported match order.
func (h *Handler) matchCombined(line string) (*compiledPattern, bool) {
	for i := range h.combined {
		if h.combined[i].re.MatchString(line) {
			return &h.combined[i], true
		}
	}
	return nil, false
}

// lineToState returns the lowercase state name matched by line, along
// with an optional captured sys token when withCapture is true and the
// winning pattern is a sys-prompt pattern.
func (h *Handler) lineToState(line string, withCapture bool) (stateIdx int, capture string, hasCapture bool) {
	m, ok := h.matchCombined(line)
	if !ok {
		return StateOutput, "", false
	}
	if withCapture && m.capture != nil {
		sub := m.capture.FindStringSubmatch(line)
		if sub != nil {
			if names := m.capture.SubexpNames(); len(names) == len(sub) {
				for i, n := range names {
					if n == m.captureName {
						return m.stateIndex, sub[i], true
					}
				}
			}
		}
	}
	return m.stateIndex, "", false
}

// StateName returns the lowercase name for a state index.
func (h *Handler) StateName(idx int) string {
	if idx < 0 || idx >= len(h.states) {
		return ""
	}
	return h.states[idx]
}

// matchesIgnoreError reports whether line matches any ignore-error
// pattern.
func (h *Handler) matchesIgnoreError(line string) bool {
	for _, re := range h.ignoreError {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// isPromptState reports whether idx falls in the declared prompt range.
func (h *Handler) isPromptState(idx int) bool {
	return idx >= h.promptFirst && idx <= h.promptLast && h.promptLast >= h.promptFirst
}

// Read feeds one line to the FSM, updating current state, and, for
// prompt states, current prompt / current sys. Ignore-error patterns
// take priority: a match resets to Output and nothing else happens.
func (h *Handler) Read(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readLocked(line)
}

func (h *Handler) readLocked(line string) {
	if h.matchesIgnoreError(line) {
		h.currentStateIndex = StateOutput
		return
	}
	idx, sys, hasSys := h.lineToState(line, true)
	h.currentStateIndex = idx
	if h.isPromptState(idx) {
		h.currentPrompt = line
		if hasSys {
			h.currentSys = sys
		}
	}
}

// CurrentState returns the current state's lowercase name.
func (h *Handler) CurrentState() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.StateName(h.currentStateIndex)
}

// CurrentSys returns the last-captured sys token.
func (h *Handler) CurrentSys() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentSys
}

// CurrentPrompt returns the last line that matched a prompt state.
func (h *Handler) CurrentPrompt() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentPrompt
}

// Error reports whether the current state is Error.
func (h *Handler) Error() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentStateIndex == StateError
}

// States returns the declared state names in index order.
func (h *Handler) States() []string {
	out := make([]string, len(h.states))
	copy(out, h.states)
	return out
}

// Edges returns the declared transition edges.
func (h *Handler) Edges() []Edge {
	out := make([]Edge, len(h.edges))
	copy(out, h.edges)
	return out
}

// SetDynParam sets a dynamic-parameter value used by write-state
// lookup (e.g. "EnablePassword").
func (h *Handler) SetDynParam(key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dynParams[key] = value
}

// MatchPrompt reports whether line matches a prompt (or sys-prompt)
// state without mutating current state.
func (h *Handler) MatchPrompt(line string) bool {
	idx, _, _ := h.lineToState(line, false)
	return h.isPromptState(idx)
}

// ReadPrompt is MatchPrompt followed by Read when it matches; it
// reports whether line was a prompt.
func (h *Handler) ReadPrompt(line string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx, _, _ := h.lineToState(line, false)
	if !h.isPromptState(idx) {
		return false
	}
	h.readLocked(line)
	return true
}

// ReadNeedWrite converts line to a state (without capture) and, if it
// names a write state, returns the resolved reply and its record-echo
// flag. ok is false when line is not a write-state match, or when a
// dynamic lookup misses the session's dynamic-parameter map.
func (h *Handler) ReadNeedWrite(line string) (reply string, recordEcho bool, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx, _, _ := h.lineToState(line, false)
	entry, has := h.interactiveInput[idx]
	if !has {
		return "", false, false
	}
	if entry.Dynamic {
		v, found := h.dynParams[entry.KeyOrLiteral]
		if !found {
			return "", false, false
		}
		return v, entry.RecordEcho, true
	}
	return entry.KeyOrLiteral, entry.RecordEcho, true
}

// FormatCmd substitutes the literal "{}" placeholder in command with
// sys, used for needs_format edges. Missing substitution (sys=="")
// yields the literal empty string per spec.md §3.
func FormatCmd(command, sys string) string {
	return strings.ReplaceAll(command, "{}", sys)
}
