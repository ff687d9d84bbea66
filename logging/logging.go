// Package logging builds the process-wide slog logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"tasklist/config"
)

// New returns a logger writing to stdout in the configured format.
func New(cfg config.LoggingConfig) *slog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Level)

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(&colorHandler{
		mu:    &sync.Mutex{},
		out:   w,
		level: level,
	})
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch {
	case r.Level >= slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	case r.Level >= slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case r.Level >= slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	default:
		buf.WriteString(color.MagentaString("DBG "))
	}

	buf.WriteString(r.Message)

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	for _, a := range h.attrs {
		writeAttr(&buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, prefix, a)
		return true
	})

	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprint(h.out, buf.String())
	return err
}

func writeAttr(buf *strings.Builder, prefix string, a slog.Attr) {
	buf.WriteString(color.HiBlackString(" " + prefix + a.Key + "="))
	buf.WriteString(a.Value.String())
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, a := range attrs {
		newAttrs = append(newAttrs, slog.Attr{Key: prefix + a.Key, Value: a.Value})
	}
	return &colorHandler{
		mu:     h.mu,
		out:    h.out,
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		mu:     h.mu,
		out:    h.out,
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
