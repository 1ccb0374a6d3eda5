package session

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	nlog "github.com/mvandenburg/netssh/internal/log"
)

const (
	defaultLogMaxSizeBytes = 100 * 1024 * 1024
	defaultLogMaxBackups   = 3
)

// SetSlogLogger attaches a structured logger to the session; attribute
// values under sensitive keys (password, enable_password, dynparam,
// ...) are redacted before reaching the underlying handler.
//
// Grounded on client/client.go's SetSlogLogger.
func (s *Session) SetSlogLogger(logger *slog.Logger) {
	s.promptMu.Lock()
	defer s.promptMu.Unlock()
	s.slogLogger = slog.New(nlog.NewRedactingHandler(logger.Handler())).With("component", "session", "device_addr", s.deviceAddr)
}

func (s *Session) logDebug(msg string, args ...any) {
	s.promptMu.Lock()
	logger := s.slogLogger
	s.promptMu.Unlock()
	if logger == nil {
		logger = ensureDefaultLogger()
	}
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// ensureDefaultLogger builds a redacting logger from
// NETSSH_LOG_LEVEL/NETSSH_DEBUG when the caller hasn't set one
// explicitly, mirroring client/client.go's ensureLogger. When
// NETSSH_LOG_FILE is set, output goes to a size-rotated file instead
// of stderr. Otherwise, when slog.Default() already handles the level,
// its handler is wrapped in the redacting handler and used instead.
func ensureDefaultLogger() *slog.Logger {
	var level slog.Level
	envLevel := os.Getenv("NETSSH_LOG_LEVEL")
	envDebug := os.Getenv("NETSSH_DEBUG")

	switch {
	case envLevel != "":
		switch strings.ToLower(envLevel) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			if envDebug == "" {
				return nil
			}
			level = slog.LevelDebug
		}
	case envDebug != "":
		level = slog.LevelDebug
	default:
		return nil
	}

	defaultLogger := slog.Default()
	if os.Getenv("NETSSH_LOG_FILE") == "" && defaultLogger.Enabled(context.Background(), level) {
		return slog.New(nlog.NewRedactingHandler(defaultLogger.Handler()))
	}

	var w io.Writer = os.Stderr
	if path := os.Getenv("NETSSH_LOG_FILE"); path != "" {
		rf, err := nlog.NewRotatingFile(path, logFileMaxSize(), logFileMaxBackups())
		if err == nil {
			w = rf
		}
	}

	handler := nlog.NewRedactingHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return slog.New(handler)
}

func logFileMaxSize() int64 {
	if v := os.Getenv("NETSSH_LOG_FILE_MAX_MB"); v != "" {
		if mb, err := strconv.ParseInt(v, 10, 64); err == nil && mb > 0 {
			return mb * 1024 * 1024
		}
	}
	return defaultLogMaxSizeBytes
}

func logFileMaxBackups() int {
	if v := os.Getenv("NETSSH_LOG_FILE_MAX_BACKUPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultLogMaxBackups
}
