package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

const syslogIdentifier = "pi-streaming-setup"

// journalHandler is a slog.Handler that forwards records to systemd journald
// with structured fields, so installs are filterable by MODULE etc.
type journalHandler struct {
	level slog.Leveler
	attrs []slog.Attr
}

func newJournalHandler(level slog.Leveler) *journalHandler {
	return &journalHandler{level: level}
}

func journalAvailable() bool {
	return journal.Enabled()
}

func (h *journalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *journalHandler) Handle(_ context.Context, r slog.Record) error {
	priority := journal.PriInfo
	switch {
	case r.Level >= slog.LevelError:
		priority = journal.PriErr
	case r.Level >= slog.LevelWarn:
		priority = journal.PriWarning
	case r.Level < slog.LevelInfo:
		priority = journal.PriDebug
	}

	fields := map[string]string{
		"SYSLOG_IDENTIFIER": syslogIdentifier,
	}
	for _, attr := range h.attrs {
		fields[fieldKey(attr.Key)] = attr.Value.String()
	}
	r.Attrs(func(attr slog.Attr) bool {
		fields[fieldKey(attr.Key)] = attr.Value.String()
		return true
	})

	return journal.Send(r.Message, priority, fields)
}

func (h *journalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &journalHandler{level: h.level, attrs: merged}
}

func (h *journalHandler) WithGroup(name string) slog.Handler {
	// Groups are flattened; journald field names are a single namespace.
	return h
}

// fieldKey converts an attribute key to the journald field convention.
// Journald rejects fields that do not start with an ASCII letter.
func fieldKey(key string) string {
	key = strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if key == "" || key[0] < 'A' || key[0] > 'Z' {
		key = "X_" + key
	}
	return key
}

// teeHandler fans a record out to every child handler that accepts its level.
type teeHandler struct {
	children []slog.Handler
}

func newTeeHandler(children ...slog.Handler) *teeHandler {
	return &teeHandler{children: children}
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.children {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t.children {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("log handler: %w", err)
		}
	}
	return firstErr
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	children := make([]slog.Handler, len(t.children))
	for i, h := range t.children {
		children[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{children: children}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	children := make([]slog.Handler, len(t.children))
	for i, h := range t.children {
		children[i] = h.WithGroup(name)
	}
	return &teeHandler{children: children}
}
