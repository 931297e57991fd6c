// Package logbuf keeps recent log records in memory while the terminal is
// owned by the graphics stream, and replays them once it is released.
package logbuf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Entry is a single log message with metadata.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

// Buffer is a thread-safe circular buffer of log entries.
type Buffer struct {
	entries []Entry
	size    int
	index   int
	count   int
	dropped int
	mutex   sync.RWMutex
}

// New creates a buffer holding the last size entries.
func New(size int) *Buffer {
	if size < 1 {
		size = 1
	}
	return &Buffer{
		entries: make([]Entry, size),
		size:    size,
	}
}

// Add inserts an entry, overwriting the oldest one when full.
func (b *Buffer) Add(entry Entry) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.entries[b.index] = entry
	b.index = (b.index + 1) % b.size
	if b.count < b.size {
		b.count++
	} else {
		b.dropped++
	}
}

// Len returns the number of entries held.
func (b *Buffer) Len() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.count
}

// Recent returns up to maxCount of the most recent entries, newest first.
// A maxCount of zero or less returns everything held.
func (b *Buffer) Recent(maxCount int) []Entry {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	if b.count == 0 {
		return nil
	}

	count := b.count
	if maxCount > 0 && maxCount < count {
		count = maxCount
	}

	result := make([]Entry, count)
	for i := 0; i < count; i++ {
		result[i] = b.entries[(b.index-1-i+b.size)%b.size]
	}
	return result
}

// Replay writes every held entry to w, oldest first, and empties the buffer.
func (b *Buffer) Replay(w io.Writer) error {
	entries := b.Recent(0)

	b.mutex.Lock()
	dropped := b.dropped
	b.count, b.index, b.dropped = 0, 0, 0
	b.mutex.Unlock()

	if dropped > 0 {
		if _, err := fmt.Fprintf(w, "... %d earlier log entries dropped\n", dropped); err != nil {
			return err
		}
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if _, err := fmt.Fprintln(w, Format(entries[i])); err != nil {
			return err
		}
	}
	return nil
}

// Handler is a slog.Handler that captures records into a Buffer.
type Handler struct {
	buffer *Buffer
	level  slog.Leveler
	prefix string
	attrs  string
}

// NewHandler creates a handler writing records at or above level to buffer.
func NewHandler(buffer *Buffer, level slog.Leveler) *Handler {
	return &Handler{
		buffer: buffer,
		level:  level,
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Message)
	sb.WriteString(h.attrs)
	record.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, h.prefix, a)
		return true
	})

	h.buffer.Add(Entry{
		Time:    record.Time,
		Level:   record.Level,
		Message: sb.String(),
	})
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&sb, h.prefix, a)
	}

	clone := *h
	clone.attrs = sb.String()
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(sb, p, ga)
		}
		return
	}
	fmt.Fprintf(sb, " %s%s=%v", prefix, a.Key, a.Value)
}

// Format renders an entry as a single line.
func Format(entry Entry) string {
	var levelStr string
	switch entry.Level {
	case slog.LevelDebug:
		levelStr = "DBG"
	case slog.LevelInfo:
		levelStr = "INF"
	case slog.LevelWarn:
		levelStr = "WRN"
	case slog.LevelError:
		levelStr = "ERR"
	default:
		levelStr = "???"
	}

	return fmt.Sprintf("%s [%s] %s", entry.Time.Format("15:04:05"), levelStr, entry.Message)
}
