package sessionlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"
)

// Entry is the captured form of one slog record.
type Entry struct {
	Time    time.Time         `json:"ts"`
	Level   string            `json:"level"`
	Message string            `json:"msg"`
	Group   string            `json:"group,omitempty"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// EntryCallback receives every record at or above the capture threshold.
type EntryCallback func(Entry)

// TeeHandler forwards all records to base and copies records at or above
// minLevel to a callback.
type TeeHandler struct {
	base     slog.Handler
	callback EntryCallback
	minLevel slog.Level
	group    string
	attrs    []slog.Attr
}

// NewTeeHandler wraps base. A nil callback makes the handler a plain
// pass-through.
func NewTeeHandler(base slog.Handler, minLevel slog.Level, callback EntryCallback) *TeeHandler {
	return &TeeHandler{
		base:     base,
		callback: callback,
		minLevel: minLevel,
	}
}

// Enabled defers to the base handler; minLevel gates only the callback.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle writes the record to base and then invokes the callback. The base
// error is returned so slog reports it on its own fallback path.
func (h *TeeHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.base.Handle(ctx, record)

	if h.callback != nil && record.Level >= h.minLevel {
		entry := h.entry(record)
		func() {
			defer func() {
				if r := recover(); r != nil {
					// stderr, not slog: logging here would re-enter this handler.
					fmt.Fprintf(os.Stderr, "[session-log] callback panicked: %v\n%s\n", r, debug.Stack())
				}
			}()
			h.callback(entry)
		}()
	}

	return err
}

func (h *TeeHandler) entry(record slog.Record) Entry {
	entry := Entry{
		Time:    record.Time,
		Level:   record.Level.String(),
		Message: record.Message,
		Group:   h.group,
	}
	n := len(h.attrs) + record.NumAttrs()
	if n == 0 {
		return entry
	}
	entry.Attrs = make(map[string]string, n)
	for _, a := range h.attrs {
		flattenAttr(entry.Attrs, "", a)
	}
	record.Attrs(func(a slog.Attr) bool {
		flattenAttr(entry.Attrs, "", a)
		return true
	})
	return entry
}

func flattenAttr(dst map[string]string, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		// Inline groups (empty key) merge into the parent.
		if a.Key == "" {
			key = prefix
		}
		for _, child := range a.Value.Group() {
			flattenAttr(dst, key, child)
		}
		return
	}
	dst[key] = a.Value.String()
}

// WithAttrs applies attrs to the base handler and remembers them for the
// captured entries.
func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &TeeHandler{
		base:     h.base.WithAttrs(attrs),
		callback: h.callback,
		minLevel: h.minLevel,
		group:    h.group,
		attrs:    merged,
	}
}

// WithGroup nests the base handler and extends the dot-separated group name.
func (h *TeeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroup := name
	if h.group != "" {
		newGroup = h.group + "." + name
	}

	return &TeeHandler{
		base:     h.base.WithGroup(name),
		callback: h.callback,
		minLevel: h.minLevel,
		group:    newGroup,
		attrs:    h.attrs,
	}
}
