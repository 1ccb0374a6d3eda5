package recording

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/mvandenburg/netssh/internal/clock"
)

// Entry pairs a recorded Event with its timestamp and the index at
// which it was originally recorded, the latter used as a stable
// tiebreaker when two entries share a millisecond timestamp.
type Entry struct {
	TsMs          int64 `json:"ts_ms"`
	OriginalIndex int   `json:"-"`
	Event
}

// Recorder accumulates Entry values in memory at a configured Level
// and can serialize them to JSONL.
//
// Grounded on original_source/src/session/recording.rs's
// SessionRecorder.
type Recorder struct {
	mu      sync.Mutex
	level   Level
	clock   clock.Clock
	entries []Entry
	next    int
}

// New creates a Recorder at the given level using the real clock.
func New(level Level) *Recorder {
	return NewWithClock(level, clock.Real{})
}

// NewWithClock creates a Recorder at the given level using an
// injected clock, for deterministic tests.
func NewWithClock(level Level, c clock.Clock) *Recorder {
	return &Recorder{level: level, clock: c}
}

// Level returns the recorder's configured granularity.
func (r *Recorder) Level() Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.level
}

// keyEventKinds records at KeyEventsOnly: connection lifecycle,
// command results and all Tx-lifecycle events, but not raw chunks or
// individual prompt/state transitions.
var keyEventKinds = map[string]bool{
	KindConnectionEstablished:   true,
	KindConnectionClosed:        true,
	KindCommandOutput:           true,
	KindTxBlockStarted:          true,
	KindTxStepSucceeded:         true,
	KindTxStepFailed:            true,
	KindTxRollbackStarted:       true,
	KindTxRollbackStepSucceeded: true,
	KindTxRollbackStepFailed:    true,
	KindTxBlockFinished:         true,
	KindTxWorkflowStarted:       true,
	KindTxWorkflowFinished:      true,
}

// RecordEvent appends ev if the recorder's level admits it: Off
// admits nothing, KeyEventsOnly admits keyEventKinds, Full admits
// everything including RawChunk and PromptChanged/StateChanged.
func (r *Recorder) RecordEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.level == Off {
		return
	}
	if r.level == KeyEventsOnly && !keyEventKinds[ev.Kind] {
		return
	}
	r.entries = append(r.entries, Entry{TsMs: r.clock.Now().UnixMilli(), OriginalIndex: r.next, Event: ev})
	r.next++
}

// RecordRawChunk is a convenience wrapper recording a RawChunk event.
func (r *Recorder) RecordRawChunk(data string) {
	r.RecordEvent(RawChunkEvent(data))
}

// Entries returns a copy of the recorded entries in recording order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Clear discards all recorded entries.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.next = 0
}

// ToJSONL serializes the recorded entries, one JSON object per line,
// in recording order.
func (r *Recorder) ToJSONL() (string, error) {
	entries := r.Entries()
	return entriesToJSONL(entries)
}

func entriesToJSONL(entries []Entry) (string, error) {
	var b strings.Builder
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return "", err
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// legacyAlias rewrites the pre-Tx-lifecycle field names
// ConnectionEstablished used in older recordings: "prompt" ->
// "prompt_after" and "state" -> "fsm_prompt_after".
func legacyAlias(raw map[string]json.RawMessage) {
	if kind, ok := raw["kind"]; ok && strings.Contains(string(kind), KindConnectionEstablished) {
		if v, ok := raw["prompt"]; ok {
			if _, exists := raw["prompt_after"]; !exists {
				raw["prompt_after"] = v
			}
			delete(raw, "prompt")
		}
		if v, ok := raw["state"]; ok {
			if _, exists := raw["fsm_prompt_after"]; !exists {
				raw["fsm_prompt_after"] = v
			}
			delete(raw, "state")
		}
	}
}

// FromJSONL parses a JSONL document into entries, applying legacy
// field aliasing for older ConnectionEstablished recordings. Blank
// lines are skipped.
func FromJSONL(data string) ([]Entry, error) {
	var entries []Entry
	for i, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, err
		}
		legacyAlias(raw)
		patched, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		var e Entry
		if err := json.Unmarshal(patched, &e); err != nil {
			return nil, err
		}
		e.OriginalIndex = i
		entries = append(entries, e)
	}
	return entries, nil
}

// NormalizeOptions controls NormalizeJSONL's filtering.
type NormalizeOptions struct {
	// KeepRawChunks, when false (the default), drops RawChunk entries.
	KeepRawChunks bool
	// KeepPromptChanged, when false (the default), drops PromptChanged
	// entries.
	KeepPromptChanged bool
	// DropStateChanged, when true, drops StateChanged entries (kept by
	// default).
	DropStateChanged bool
}

// NormalizeJSONL parses data, sorts entries by (ts_ms, original
// recording index), applies opts' filtering, and re-serializes.
//
// Grounded on original_source/src/session/recording.rs's
// normalize_jsonl, including its invariant-6 default of dropping
// RawChunk and PromptChanged while keeping StateChanged.
func NormalizeJSONL(data string, opts NormalizeOptions) (string, error) {
	entries, err := FromJSONL(data)
	if err != nil {
		return "", err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TsMs != entries[j].TsMs {
			return entries[i].TsMs < entries[j].TsMs
		}
		return entries[i].OriginalIndex < entries[j].OriginalIndex
	})
	filtered := entries[:0]
	for _, e := range entries {
		if e.Kind == KindRawChunk && !opts.KeepRawChunks {
			continue
		}
		if e.Kind == KindPromptChanged && !opts.KeepPromptChanged {
			continue
		}
		if e.Kind == KindStateChanged && opts.DropStateChanged {
			continue
		}
		filtered = append(filtered, e)
	}
	return entriesToJSONL(filtered)
}
