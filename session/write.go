package session

import (
	"strings"
	"time"

	"github.com/mvandenburg/netssh/fsm"
	"github.com/mvandenburg/netssh/neterr"
	"github.com/mvandenburg/netssh/recording"
)

// DefaultTimeout is the 60-second default applied when a caller
// supplies timeout<=0.
const DefaultTimeout = 60 * time.Second

// Write sends command and blocks until the FSM recognizes the next
// prompt (success) or the command's timeout elapses.
//
// Grounded on original_source/src/session/client.rs's
// write_with_timeout.
func (s *Session) Write(command string, timeout time.Duration) (Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(command, timeout)
}

func (s *Session) writeLocked(command string, timeout time.Duration) (Output, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	promptBefore := s.currentPrompt()
	mode := s.handler.CurrentState()
	fsmPromptBefore := mode

	// 1. Drain any residual inbound bytes.
drain:
	for {
		select {
		case _, ok := <-s.inbound:
			if !ok {
				break drain
			}
		default:
			break drain
		}
	}

	// 2. Send the command.
	if err := s.sendRaw(command + "\n"); err != nil {
		return Output{}, err
	}

	// 3. Read until the prompt is seen or timeout elapses.
	deadline := s.clock.Now().Add(timeout)
	var clean strings.Builder
	var lineBuffer strings.Builder
	isError := false

	finish := func(success bool) Output {
		all := clean.String()
		content := cleanContent(all, command)
		out := Output{Success: success, Content: content, All: all, Prompt: s.handler.CurrentPrompt()}
		if r := s.rec(); r != nil {
			r.RecordEvent(recording.CommandOutputEvent(command, mode, promptBefore, s.currentPrompt(), fsmPromptBefore, s.handler.CurrentState(), success, out.Content, out.All))
		}
		return out
	}

	for {
		remaining := deadline.Sub(s.clock.Now())
		if remaining <= 0 {
			return Output{}, recordTimeoutAndReturn(s, command, mode, promptBefore, fsmPromptBefore, clean.String())
		}
		select {
		case data, ok := <-s.inbound:
			if !ok {
				return Output{}, &neterr.ChannelDisconnectError{}
			}
			if r := s.rec(); r != nil {
				r.RecordRawChunk(data)
			}
			lineBuffer.WriteString(data)

			rest := lineBuffer.String()
			for {
				idx := strings.IndexByte(rest, '\n')
				if idx < 0 {
					break
				}
				rawLine := rest[:idx+1]
				rest = rest[idx+1:]
				leadingStripped := fsm.ScrubLineLeading(rawLine)
				s.handler.Read(strings.TrimRight(leadingStripped, " \t\r\n"))
				if s.handler.Error() {
					isError = true
				}
				clean.WriteString(leadingStripped)
			}
			lineBuffer.Reset()
			lineBuffer.WriteString(rest)

			if rest != "" {
				if s.handler.MatchPrompt(rest) {
					s.handler.Read(rest)
					clean.WriteString(rest)
					prev := s.currentPrompt()
					if rest != prev {
						if r := s.rec(); r != nil {
							r.RecordEvent(recording.PromptChangedEvent(rest))
						}
					}
					s.setPrompt(rest)
					return finish(!isError), nil
				}
				if reply, recordEcho, ok := s.handler.ReadNeedWrite(rest); ok {
					s.handler.Read(rest)
					if !recordEcho {
						lineBuffer.Reset()
					}
					if err := s.sendRaw(reply); err != nil {
						return Output{}, err
					}
				}
			}
		case <-time.After(remaining):
			return Output{}, recordTimeoutAndReturn(s, command, mode, promptBefore, fsmPromptBefore, clean.String())
		}
	}
}

func recordTimeoutAndReturn(s *Session, command, mode, promptBefore, fsmPromptBefore, partial string) error {
	if r := s.rec(); r != nil {
		r.RecordEvent(recording.CommandOutputEvent(command, mode, promptBefore, s.currentPrompt(), fsmPromptBefore, s.handler.CurrentState(), false, partial, partial))
	}
	return &neterr.ExecTimeout{Partial: partial}
}

// cleanContent strips a leading echo of command (plus any trailing
// "\n\r") and everything from the last newline onward (the trailing
// prompt), leaving the command's clean output.
//
// Grounded on spec.md §4.2 "Output cleaning".
func cleanContent(all, command string) string {
	content := all
	if command != "" && strings.HasPrefix(content, command) {
		content = strings.TrimLeft(strings.TrimPrefix(content, command), "\n\r")
	}
	if idx := strings.LastIndexByte(content, '\n'); idx >= 0 {
		return content[:idx]
	}
	return ""
}
