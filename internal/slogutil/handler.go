// Package slogutil provides the slog handlers and logger constructors used by depflat.
package slogutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TextHandler formats records as a single human readable line:
// TIMESTAMP [level] Message | key=value key=value
type TextHandler struct {
	w      io.Writer
	level  slog.Leveler
	noTime bool
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

// TextOptions configures a TextHandler.
type TextOptions struct {
	Level slog.Leveler
	// OmitTime drops the leading timestamp, which keeps golden output stable.
	OmitTime bool
}

// NewTextHandler creates a new line-oriented handler.
func NewTextHandler(w io.Writer, opts *TextOptions) *TextHandler {
	var level slog.Leveler = slog.LevelInfo
	noTime := false
	if opts != nil {
		if opts.Level != nil {
			level = opts.Level
		}
		noTime = opts.OmitTime
	}
	return &TextHandler{
		w:      w,
		level:  level,
		noTime: noTime,
		mu:     &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *TextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the log record.
func (h *TextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !h.noTime {
		buf.WriteString(r.Time.UTC().Format(time.RFC3339))
		buf.WriteByte(' ')
	}
	buf.WriteByte('[')
	buf.WriteString(levelString(r.Level))
	buf.WriteString("] ")
	buf.WriteString(r.Message)

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.resolveAttr(a))
		return true
	})

	sep := " | "
	for _, a := range attrs {
		if a.Key == "" {
			continue
		}
		buf.WriteString(sep)
		sep = " "
		buf.WriteString(a.Key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(a.Value))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new handler with the given attributes added.
func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, a := range attrs {
		newAttrs = append(newAttrs, h.resolveAttr(a))
	}

	clone := *h
	clone.attrs = newAttrs
	return &clone
}

// WithGroup returns a new handler with the given group name added.
func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name

	clone := *h
	clone.groups = newGroups
	return &clone
}

// resolveAttr applies group prefixes to attribute keys.
func (h *TextHandler) resolveAttr(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	return slog.Attr{Key: strings.Join(h.groups, ".") + "." + a.Key, Value: a.Value}
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

// formatValue renders a value, quoting strings that contain spaces.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	default:
		return fmt.Sprint(v.Any())
	}
}
