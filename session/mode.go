package session

import (
	"strings"
	"time"

	"github.com/mvandenburg/netssh/recording"
)

// WriteWithMode drives the FSM to mode (via TransStateWrite), executes
// each transition command in turn, and finally executes command in the
// resulting mode. The returned Output's All field is prefixed with the
// stored prompt and every transition's captured output, so a caller
// sees the complete session transcript for this call.
//
// Grounded on original_source/src/session/client.rs's
// write_with_mode_and_timeout.
func (s *Session) WriteWithMode(command, mode string, sys *string, timeout time.Duration) (Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeWithModeLocked(command, mode, sys, timeout)
}

func (s *Session) writeWithModeLocked(command, mode string, sys *string, timeout time.Duration) (Output, error) {
	mode = strings.ToLower(mode)
	lastState := s.handler.CurrentState()

	plan, err := s.handler.TransStateWrite(mode, sys)
	if err != nil {
		return Output{}, err
	}

	var all strings.Builder
	all.WriteString(s.currentPrompt())

	for _, step := range plan {
		out, err := s.writeLocked(step.Command, timeout)
		if err != nil {
			return Output{}, err
		}
		all.WriteString(out.All)
		if !out.Success {
			out.All = all.String()
			return out, nil
		}
		if s.handler.CurrentState() != step.NextState {
			out.Success = false
			out.All = all.String()
			return out, nil
		}
		current := s.handler.CurrentState()
		if current != lastState {
			if r := s.rec(); r != nil {
				r.RecordEvent(recording.StateChangedEvent(current))
			}
		}
		lastState = current
	}

	out, err := s.writeLocked(command, timeout)
	if err != nil {
		return Output{}, err
	}
	all.WriteString(out.All)
	out.All = all.String()
	return out, nil
}
