// Package session implements the interactive command-level pump that
// bridges an SSH shell channel to prompt-aware request/response
// semantics, cooperating with the device FSM to auto-transition modes
// and detect command-level errors.
//
// Grounded on original_source/src/session.rs (SharedSshClient) and
// original_source/src/session/client.rs, adapted onto
// golang.org/x/crypto/ssh in place of async-ssh2-tokio: the channel's
// StdinPipe/StdoutPipe take the place of the original's mpsc sender/
// receiver pair, and a single reader goroutine feeding the inbound
// queue takes the place of the tokio::select! pump task; writes go
// straight to the stdin pipe from the calling goroutine.
package session

import (
	"bufio"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/mvandenburg/netssh/fsm"
	"github.com/mvandenburg/netssh/internal/clock"
	"github.com/mvandenburg/netssh/neterr"
	"github.com/mvandenburg/netssh/recording"
	"github.com/mvandenburg/netssh/security"
)

// Output is the result of a single command execution.
type Output struct {
	Success bool
	Content string
	All     string
	Prompt  string
}

// Params describes how to dial and authenticate a new session.
type Params struct {
	User           string
	Host           string
	Port           int
	Password       string
	EnablePassword *string
	Handler        *fsm.Handler
	Security       security.Options
	KnownHostsPath string
	Recorder       *recording.Recorder
	Clock          clock.Clock
}

// Session owns a live SSH shell channel plus the FSM instance driving
// it. It is not safe for concurrent command execution — spec.md's
// non-goals strictly serialize commands per session — but Close/
// IsConnected/MatchesConnectionParams may be called from another
// goroutine while a command is in flight.
type Session struct {
	mu sync.Mutex // serializes Write/WriteWithMode/execute*

	deviceAddr string
	client     *ssh.Client
	sshSession *ssh.Session
	stdin      io.WriteCloser

	handler *fsm.Handler
	clock   clock.Clock

	passwordHash       [32]byte
	hasEnablePassword  bool
	enablePasswordHash [32]byte
	securityOpts       security.Options

	promptMu   sync.Mutex
	prompt     string
	slogLogger *slog.Logger

	recorderMu sync.RWMutex
	recorder   *recording.Recorder

	inbound chan string
	pumpErr chan error

	connected int32 // atomic bool

	onInvalidate func(deviceAddr string)
}

func hashPassword(s string) [32]byte { return sha256.Sum256([]byte(s)) }

// DeviceAddr returns the "user@host:port" cache key this session was
// dialed for.
func (s *Session) DeviceAddr() string { return s.deviceAddr }

// IsConnected reports whether the session's I/O pump is still alive.
func (s *Session) IsConnected() bool { return atomic.LoadInt32(&s.connected) == 1 }

// SetRecorder attaches (or replaces) the session's recorder. Used by
// the pool to attach a recorder to an already-cached session on
// request, per spec.md §4.3.
func (s *Session) SetRecorder(r *recording.Recorder) {
	s.recorderMu.Lock()
	defer s.recorderMu.Unlock()
	s.recorder = r
}

// Recorder returns the session's currently attached recorder, or nil
// if none has been set.
func (s *Session) Recorder() *recording.Recorder {
	return s.rec()
}

func (s *Session) rec() *recording.Recorder {
	s.recorderMu.RLock()
	defer s.recorderMu.RUnlock()
	return s.recorder
}

func (s *Session) currentPrompt() string {
	s.promptMu.Lock()
	defer s.promptMu.Unlock()
	return s.prompt
}

func (s *Session) setPrompt(p string) {
	s.promptMu.Lock()
	defer s.promptMu.Unlock()
	s.prompt = p
}

// MatchesConnectionParams reports whether a cached session can be
// reused for a new request carrying the same credentials, handler and
// security options.
//
// Grounded on original_source/src/session/client.rs's
// matches_connection_params: password and enable-password are
// compared by SHA-256 hash (never held in clear text in long-lived
// session state), the handler by structural equivalence, and security
// options by level only (security.Options.Equal).
func (s *Session) MatchesConnectionParams(password string, enablePassword *string, handler *fsm.Handler, opts security.Options) bool {
	if hashPassword(password) != s.passwordHash {
		return false
	}
	hasEnable := enablePassword != nil
	if hasEnable != s.hasEnablePassword {
		return false
	}
	if hasEnable && hashPassword(*enablePassword) != s.enablePasswordHash {
		return false
	}
	if !s.handler.Equivalent(handler) {
		return false
	}
	return s.securityOpts.Equal(opts)
}

// New dials the device, opens a PTY shell channel and waits for the
// initial prompt. onInvalidate, if non-nil, is called from the pump
// goroutine when the channel dies so a cache owner can drop this
// session.
//
// Grounded on original_source/src/session/client.rs's
// SharedSshClient::new.
func New(p Params, onInvalidate func(deviceAddr string)) (*Session, error) {
	if p.Clock == nil {
		p.Clock = clock.Real{}
	}
	deviceAddr := fmt.Sprintf("%s@%s:%d", p.User, p.Host, p.Port)

	cfg, err := security.BuildClientConfig(p.User, p.Password, p.Security, p.KnownHostsPath)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(p.Host, fmt.Sprintf("%d", p.Port))
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, err
	}

	sshSession, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, err
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := sshSession.RequestPty("xterm", 600, 800, modes); err != nil {
		sshSession.Close()
		client.Close()
		return nil, err
	}

	stdin, err := sshSession.StdinPipe()
	if err != nil {
		sshSession.Close()
		client.Close()
		return nil, err
	}
	stdout, err := sshSession.StdoutPipe()
	if err != nil {
		sshSession.Close()
		client.Close()
		return nil, err
	}
	if err := sshSession.Shell(); err != nil {
		sshSession.Close()
		client.Close()
		return nil, err
	}

	s := &Session{
		deviceAddr:   deviceAddr,
		client:       client,
		sshSession:   sshSession,
		stdin:        stdin,
		handler:      p.Handler,
		clock:        p.Clock,
		passwordHash: hashPassword(p.Password),
		securityOpts: p.Security,
		recorder:     p.Recorder,
		inbound:      make(chan string, 256),
		pumpErr:      make(chan error, 1),
		onInvalidate: onInvalidate,
	}
	if p.EnablePassword != nil {
		s.hasEnablePassword = true
		s.enablePasswordHash = hashPassword(*p.EnablePassword)
		p.Handler.SetDynParam("EnablePassword", *p.EnablePassword+"\n")
	}
	atomic.StoreInt32(&s.connected, 1)

	go s.pumpReader(stdout)

	if err := s.handshake(); err != nil {
		s.teardown()
		return nil, err
	}

	if r := s.rec(); r != nil {
		r.RecordEvent(recording.ConnectionEstablished(deviceAddr, s.currentPrompt(), s.handler.CurrentState()))
	}
	s.logDebug("session established", "state", s.handler.CurrentState())

	return s, nil
}

// pumpReader is the inbound half of the I/O pump: it forwards raw
// bytes from the channel to the inbound queue, one chunk per read
// without waiting for a newline, so a partial trailing prompt can
// still be probed.
func (s *Session) pumpReader(stdout io.Reader) {
	r := bufio.NewReaderSize(stdout, 4096)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			select {
			case s.inbound <- string(buf[:n]):
			default:
				// Slow consumer: block rather than drop data, since a
				// dropped chunk could hide a prompt.
				s.inbound <- string(buf[:n])
			}
		}
		if err != nil {
			atomic.StoreInt32(&s.connected, 0)
			close(s.inbound)
			if s.onInvalidate != nil {
				s.onInvalidate(s.deviceAddr)
			}
			return
		}
	}
}

func (s *Session) sendRaw(data string) error {
	if _, err := io.WriteString(s.stdin, data); err != nil {
		return &neterr.SendDataError{Cause: err}
	}
	return nil
}

// handshake seeds the handler's dynamic parameters (done by the
// caller before calling New's handshake step) and reads inbound bytes
// under a 60-second overall budget until a prompt is recognized.
//
// Grounded on original_source/src/session/client.rs's init_result
// block.
func (s *Session) handshake() error {
	deadline := s.clock.Now().Add(60 * time.Second)
	var buffer strings.Builder
	var initialOutput strings.Builder

	for {
		remaining := deadline.Sub(s.clock.Now())
		if remaining <= 0 {
			return &neterr.InitTimeout{Partial: firstNonEmpty(initialOutput.String(), "waiting for initial prompt")}
		}
		select {
		case data, ok := <-s.inbound:
			if !ok {
				return &neterr.ChannelDisconnectError{}
			}
			buffer.WriteString(data)
			initialOutput.WriteString(data)

			rest := buffer.String()
			for {
				idx := strings.IndexByte(rest, '\n')
				if idx < 0 {
					break
				}
				line := rest[:idx]
				rest = rest[idx+1:]
				s.handler.Read(strings.TrimRight(line, " \t\r"))
			}
			buffer.Reset()
			buffer.WriteString(rest)

			if rest != "" {
				if s.handler.MatchPrompt(rest) {
					s.handler.Read(rest)
					s.setPrompt(rest)
					return nil
				}
				if reply, _, ok := s.handler.ReadNeedWrite(rest); ok {
					s.handler.Read(rest)
					if err := s.sendRaw(reply); err != nil {
						return err
					}
				}
			}
		case <-time.After(remaining):
			return &neterr.InitTimeout{Partial: firstNonEmpty(initialOutput.String(), "waiting for initial prompt")}
		}
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// teardown releases local resources without attempting a graceful
// device-side exit (used when handshake fails).
func (s *Session) teardown() {
	s.sshSession.Close()
	s.client.Close()
}

// Close safely tears down the session: best-effort "exit\n", a brief
// grace delay, then releases the transport. Safe to call more than
// once.
//
// Grounded on original_source/src/session/client.rs's close.
func (s *Session) Close() error {
	if r := s.rec(); r != nil {
		r.RecordEvent(recording.ConnectionClosed("client_close_called", s.currentPrompt(), s.handler.CurrentState()))
	}
	s.logDebug("closing session")
	if s.IsConnected() {
		_ = s.sendRaw("exit\n")
		time.Sleep(100 * time.Millisecond)
	}
	atomic.StoreInt32(&s.connected, 0)
	s.sshSession.Close()
	return s.client.Close()
}
