package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvandenburg/netssh/fsm"
	"github.com/mvandenburg/netssh/internal/clock"
	"github.com/mvandenburg/netssh/neterr"
	"github.com/mvandenburg/netssh/recording"
)

// scriptedWriter stands in for the SSH channel's stdin: whenever the
// session writes a command, it immediately feeds the canned response
// for that exact command (including the trailing "\n") onto the
// session's inbound queue, exactly as a real device would echo and
// respond before the next Write call drains anything. This keeps the
// harness deterministic without sleeps or goroutine races.
type scriptedWriter struct {
	inbound   chan<- string
	responses map[string][]string
	writes    []string
}

func (w *scriptedWriter) Write(p []byte) (int, error) {
	w.writes = append(w.writes, string(p))
	for _, chunk := range w.responses[string(p)] {
		w.inbound <- chunk
	}
	return len(p), nil
}

func (w *scriptedWriter) Close() error { return nil }

func testHandler(t *testing.T) *fsm.Handler {
	t.Helper()
	h, err := fsm.New(fsm.Config{
		PromptGroups: []fsm.PromptGroup{
			{State: "Config", Patterns: []string{`^\S+\(\S+\)#\s*$`}},
			{State: "Enable", Patterns: []string{`^[^\s#]+#\s*$`}},
			{State: "Login", Patterns: []string{`^[^\s<]+>\s*$`}},
		},
		ErrorPatterns: []string{`^ERROR: .+$`},
		Edges: []fsm.Edge{
			{From: "Login", Command: "enable", To: "Enable"},
			{From: "Enable", Command: "configure terminal", To: "Config"},
			{From: "Config", Command: "exit", To: "Enable", IsExit: true},
		},
	})
	require.NoError(t, err)
	return h
}

// harness builds a Session with no live SSH transport, wired to a
// scriptedWriter so command writes deterministically feed back
// pre-scripted device output.
func harness(t *testing.T, h *fsm.Handler, responses map[string][]string) *Session {
	t.Helper()
	inbound := make(chan string, 64)
	w := &scriptedWriter{inbound: inbound, responses: responses}
	s := &Session{
		deviceAddr: "admin@dev1:22",
		stdin:      w,
		handler:    h,
		clock:      clock.Real{},
		inbound:    inbound,
		pumpErr:    make(chan error, 1),
		recorder:   recording.New(recording.Full),
	}
	s.connected = 1
	return s
}

func TestWrite_SuccessOnPrompt(t *testing.T) {
	h := testHandler(t)
	h.Read("dev1>") // seed Login state
	s := harness(t, h, map[string][]string{
		"terminal length 0\n": {"terminal length 0\r\nVersion 1.0\r\n", "dev1>"},
	})

	out, err := s.Write("terminal length 0", time.Second)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Contains(t, out.All, "Version 1.0")
	assert.Contains(t, out.Content, "Version 1.0")
	assert.NotEmpty(t, out.Content)
	assert.Equal(t, "dev1>", s.currentPrompt())
}

func TestWrite_ErrorLineFlagsFailure(t *testing.T) {
	h := testHandler(t)
	h.Read("dev1>")
	s := harness(t, h, map[string][]string{
		"bogus command\n": {"bogus command\r\nERROR: invalid input\r\n", "dev1>"},
	})

	out, err := s.Write("bogus command", time.Second)
	require.NoError(t, err)
	assert.False(t, out.Success)
}

func TestWrite_TimeoutReturnsPartialOutput(t *testing.T) {
	h := testHandler(t)
	h.Read("dev1>")
	s := harness(t, h, map[string][]string{
		"show version\n": {"show version\r\nsome partial text\r\n"}, // prompt never arrives
	})

	_, err := s.Write("show version", 30*time.Millisecond)
	require.Error(t, err)
	var timeoutErr *neterr.ExecTimeout
	require.ErrorAs(t, err, &timeoutErr)
	assert.Contains(t, timeoutErr.Partial, "some partial text")
}

func TestWrite_ChannelDisconnectSurfacesError(t *testing.T) {
	h := testHandler(t)
	h.Read("dev1>")
	s := harness(t, h, nil)
	close(s.inbound)

	_, err := s.Write("show version", time.Second)
	require.Error(t, err)
}

func TestWriteWithMode_RunsTransitionsBeforeCommand(t *testing.T) {
	h := testHandler(t)
	h.Read("dev1>") // Login
	s := harness(t, h, map[string][]string{
		"enable\n":             {"enable\r\n", "dev1#"},
		"configure terminal\n": {"\r\nconfigure terminal\r\n", "dev1(config)#"},
		"hostname foo\n":       {"\r\nhostname foo\r\n", "dev1(config)#"},
	})

	out, err := s.WriteWithMode("hostname foo", "config", nil, time.Second)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "config", h.CurrentState())
}

func TestMatchesConnectionParams(t *testing.T) {
	h1 := testHandler(t)
	h2 := testHandler(t)
	s := &Session{passwordHash: hashPassword("secret"), handler: h1}
	assert.True(t, s.MatchesConnectionParams("secret", nil, h2, s.securityOpts))
	assert.False(t, s.MatchesConnectionParams("wrong", nil, h2, s.securityOpts))
}

func TestCleanContent_StripsEchoAndTrailingPrompt(t *testing.T) {
	all := "show version\r\nVersion 1.0\r\ndev1#"
	got := cleanContent(all, "show version")
	assert.Equal(t, "Version 1.0\r", got)
}
