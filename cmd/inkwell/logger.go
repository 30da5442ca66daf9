// ABOUTME: Logger setup for the inkwell CLI
// ABOUTME: JSON handler for machines, colorized handler for terminals

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/inkwell-notes/inkwell/internal/config"
)

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(&ttyHandler{level: level})
}

// levelTag returns the colorized three-letter level marker.
func levelTag(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return color.MagentaString("DBG ")
	case slog.LevelInfo:
		return color.CyanString("INF ")
	case slog.LevelWarn:
		return color.YellowString("WRN ")
	case slog.LevelError:
		return color.New(color.FgRed, color.Bold).Sprint("ERR ")
	default:
		return "??? "
	}
}

// ttyHandler writes compact colorized log lines for interactive use.
type ttyHandler struct {
	mu    sync.Mutex
	level slog.Level
	attrs []slog.Attr
}

func (h *ttyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *ttyHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))
	buf.WriteString(levelTag(r.Level))
	buf.WriteString(r.Message)

	// Handler-level attrs (from WithAttrs) come before record attrs.
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *ttyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(merged, h.attrs)
	merged = append(merged, attrs...)
	return &ttyHandler{level: h.level, attrs: merged}
}

// WithGroup is accepted but flattened: inkwell's log lines are shallow
// and grouping would only add noise on a terminal.
func (h *ttyHandler) WithGroup(string) slog.Handler {
	return h
}
