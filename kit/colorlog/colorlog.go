// Package colorlog creates labeled slog loggers. On a terminal, records are
// written as text with a colored "[label]" prefix; otherwise as JSON with a
// "logger" attribute so they can be shipped as-is.
package colorlog

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	reset = "\033[0m"
	bold  = "\033[1m"
)

var palette = []string{
	"\033[36m", // cyan
	"\033[35m", // magenta
	"\033[33m", // yellow
	"\033[32m", // green
	"\033[34m", // blue
}

var level = new(slog.LevelVar)

// SetLevel sets the minimum level for every logger created by this package,
// including loggers created before the call.
func SetLevel(l slog.Level) { level.Set(l) }

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func New(label string) *slog.Logger {
	return NewWithWriter(label, os.Stderr, isTerminal(os.Stderr))
}

// NewWithWriter is New with an explicit destination. When color is false the
// output is JSON.
func NewWithWriter(label string, w io.Writer, color bool) *slog.Logger {
	if !color {
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
		return slog.New(h).With("logger", label)
	}
	pw := &prefixWriter{w: w, prefix: colorFor(label) + bold + "[" + label + "]" + reset + " "}
	h := slog.NewTextHandler(pw, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(h)
}

// The text handler issues exactly one Write per record.
type prefixWriter struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

func (p *prefixWriter) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := io.WriteString(p.w, p.prefix); err != nil {
		return 0, err
	}
	return p.w.Write(b)
}

func colorFor(label string) string {
	var sum int
	for _, r := range label {
		sum += int(r)
	}
	return palette[sum%len(palette)]
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
