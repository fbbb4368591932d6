package logging

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// JournalHandler is a slog.Handler that sends records to the systemd
// journal with structured fields.
type JournalHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level}
}

// Enabled implements slog.Handler.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle sends the record to the journal.
func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	priority := levelToPriority(r.Level)

	fields := map[string]string{
		"SYSLOG_IDENTIFIER": "scenecast",
	}
	for _, attr := range h.attrs {
		attrToField(fields, attr, h.groups)
	}
	r.Attrs(func(attr slog.Attr) bool {
		attrToField(fields, attr, h.groups)
		return true
	})

	return journal.Send(r.Message, priority, fields)
}

// WithAttrs implements slog.Handler.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &JournalHandler{
		level:  h.level,
		attrs:  append(slices.Clone(h.attrs), attrs...),
		groups: h.groups,
	}
}

// WithGroup implements slog.Handler.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &JournalHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: append(slices.Clone(h.groups), name),
	}
}

func levelToPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// attrToField flattens one attribute into journal field convention
// (uppercase, group-prefixed).
func attrToField(fields map[string]string, attr slog.Attr, groups []string) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, "_") + "_" + key
	}
	key = strings.ToUpper(key)

	if attr.Value.Kind() == slog.KindGroup {
		nested := append(slices.Clone(groups), key)
		for _, a := range attr.Value.Group() {
			attrToField(fields, a, nested)
		}
		return
	}
	fields[key] = fmt.Sprint(attr.Value.Any())
}

// IsJournalAvailable reports whether a journald socket is listening.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
