// Package logging provides the structured logger shared by every
// component that needs diagnostic (non-protocol) output.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Store(l)
}

// L returns the current global logger.
func L() *slog.Logger { return logger.Load() }

// Set replaces the global logger.
func Set(l *slog.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

// New builds a logger at the given level, in "text" or "json" format,
// writing to w (stderr if nil).
func New(format string, level slog.Leveler, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var h slog.Handler
	switch format {
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(h)
}

// ForLink returns a child logger carrying the link's index and remote
// address as structured fields, so every line it emits is attributable
// without the caller repeating the attributes at each call site.
func ForLink(index int, remoteAddr string) *slog.Logger {
	return L().With("link", index, "remote", remoteAddr)
}
