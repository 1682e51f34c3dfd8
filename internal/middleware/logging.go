package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"terra/internal/logging"
)

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	// Enabled turns request logging on or off entirely
	Enabled bool

	// SkipPaths are path prefixes that are never logged
	SkipPaths []string

	// LogHealthChecks includes /health and /livez
	LogHealthChecks bool

	// SlowRequest tags requests that take at least this long; 0 disables
	SlowRequest time.Duration
}

// DefaultLoggingConfig returns the bridge defaults: everything except
// health checks, with scans over two seconds tagged slow.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Enabled:     true,
		SlowRequest: 2 * time.Second,
	}
}

var healthCheckPaths = map[string]bool{
	"/health": true,
	"/livez":  true,
}

// Logger returns middleware that writes one access line per bridge call.
// Server errors log at warn level.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled || shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			line := accessLine(r, rec, time.Since(start), config.SlowRequest)
			if rec.status >= http.StatusInternalServerError {
				logging.Warn("%s", line)
			} else {
				logging.Info("%s", line)
			}
		})
	}
}

// accessLine formats "bridge METHOD path[?query] status bytes duration [slow]".
// Request-controlled fields are sanitized.
func accessLine(r *http.Request, rec *statusRecorder, elapsed, slow time.Duration) string {
	target := sanitizeLogField(r.URL.Path)
	if r.URL.RawQuery != "" {
		target += "?" + sanitizeLogField(r.URL.RawQuery)
	}

	line := fmt.Sprintf("bridge %s %s %d %dB %v",
		sanitizeLogField(r.Method),
		target,
		rec.status,
		rec.bytes,
		elapsed.Round(time.Millisecond),
	)
	if slow > 0 && elapsed >= slow {
		line += " slow"
	}
	return line
}

// sanitizeLogField removes control characters that could forge log lines
// or inject terminal escapes. Newlines become spaces; tabs are kept.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r == '\t':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func shouldSkip(path string, config LoggingConfig) bool {
	if !config.LogHealthChecks && healthCheckPaths[path] {
		return true
	}
	for _, prefix := range config.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
