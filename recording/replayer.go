package recording

import (
	"fmt"
	"strings"

	"github.com/mvandenburg/netssh/neterr"
)

func replayMismatch(command, mode string) error {
	return &neterr.ReplayMismatchError{Msg: fmt.Sprintf("no recorded command output matches command %q in mode %q", command, mode)}
}

// Replayer threads a script of commands through a recorded session's
// CommandOutput entries without an SSH connection, for offline tests
// against real device transcripts.
//
// Grounded on original_source/src/session/recording.rs's
// SessionReplayer.
type Replayer struct {
	entries []Entry
	cursor  int
}

// FromEntries builds a Replayer over already-parsed entries, in the
// order given.
func FromEntries(entries []Entry) *Replayer {
	return &Replayer{entries: entries}
}

// FromRecorder builds a Replayer over a Recorder's current entries.
func FromRecorder(r *Recorder) *Replayer {
	return FromEntries(r.Entries())
}

// ReplayerFromJSONL builds a Replayer by parsing a JSONL document.
func ReplayerFromJSONL(data string) (*Replayer, error) {
	entries, err := FromJSONL(data)
	if err != nil {
		return nil, err
	}
	return FromEntries(entries), nil
}

// InitialContext returns the prompt and FSM state recorded by the
// first ConnectionEstablished entry, for seeding an offline handler
// without dialing a real connection. ok is false when no such entry
// exists.
func (p *Replayer) InitialContext() (prompt, fsmState string, ok bool) {
	for _, e := range p.entries {
		if e.Kind == KindConnectionEstablished {
			return e.PromptAfter, e.FSMPromptAfter, true
		}
	}
	return "", "", false
}

// ReplayNext returns the next recorded CommandOutput entry matching
// command exactly, scanning forward from the cursor and advancing it
// past the match. It does not constrain by mode.
func (p *Replayer) ReplayNext(command string) (Entry, error) {
	return p.ReplayNextInMode(command, "")
}

// ReplayNextInMode returns the next recorded CommandOutput entry
// matching command exactly and mode case-insensitively (mode == ""
// matches any), scanning forward from the cursor and advancing it
// past the match.
func (p *Replayer) ReplayNextInMode(command, mode string) (Entry, error) {
	for i := p.cursor; i < len(p.entries); i++ {
		e := p.entries[i]
		if e.Kind != KindCommandOutput {
			continue
		}
		if e.Command != command {
			continue
		}
		if mode != "" && !strings.EqualFold(e.Mode, mode) {
			continue
		}
		p.cursor = i + 1
		return e, nil
	}
	return Entry{}, replayMismatch(command, mode)
}

// ReplayScript replays each command in script, in mode, returning the
// matched entries in order. It stops and returns the error from the
// first command with no match.
func (p *Replayer) ReplayScript(script []string, mode string) ([]Entry, error) {
	out := make([]Entry, 0, len(script))
	for _, cmd := range script {
		e, err := p.ReplayNextInMode(cmd, mode)
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}
