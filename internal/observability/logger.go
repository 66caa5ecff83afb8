package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// attribute keys whose values never reach the log output
var redactedKeys = map[string]struct{}{
	"password":      {},
	"access_token":  {},
	"refresh_token": {},
	"token":         {},
	"authorization": {},
}

func NewLogger(env, service string) *slog.Logger {
	return newLogger(os.Stdout, env, service)
}

func newLogger(w io.Writer, env, service string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	})

	log := slog.New(NewTraceHandler(handler))

	if service != "" {
		log = log.With("service", service)
	}

	return log
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, "[REDACTED]")
	}
	return a
}
