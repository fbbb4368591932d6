package logging

import (
	"context"
	"log/slog"
)

// teeHandler duplicates records to the stdout handler and the journal
// handler. Each side keeps its own level; a record is handled by whichever
// sides have it enabled.
type teeHandler struct {
	stdout  slog.Handler
	journal slog.Handler
}

func newTeeHandler(stdout, journal slog.Handler) *teeHandler {
	return &teeHandler{stdout: stdout, journal: journal}
}

// Enabled implements slog.Handler.
func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return t.stdout.Enabled(ctx, level) || t.journal.Enabled(ctx, level)
}

// Handle implements slog.Handler. Journal delivery failures are dropped;
// the stdout side must not be lost because journald is unhappy.
func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if t.stdout.Enabled(ctx, r.Level) {
		err = t.stdout.Handle(ctx, r.Clone())
	}
	if t.journal.Enabled(ctx, r.Level) {
		_ = t.journal.Handle(ctx, r.Clone())
	}
	return err
}

// WithAttrs implements slog.Handler.
func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{
		stdout:  t.stdout.WithAttrs(attrs),
		journal: t.journal.WithAttrs(attrs),
	}
}

// WithGroup implements slog.Handler.
func (t *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{
		stdout:  t.stdout.WithGroup(name),
		journal: t.journal.WithGroup(name),
	}
}
