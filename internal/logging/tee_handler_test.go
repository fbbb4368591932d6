package logging

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

// recordingHandler captures handled records for inspection.
type recordingHandler struct {
	level   slog.Level
	records []slog.Record
	attrs   []slog.Attr
}

func (h *recordingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.attrs = append(h.attrs, attrs...)
	return h
}

func (h *recordingHandler) WithGroup(_ string) slog.Handler { return h }

func TestTeeHandlerDeliversToBothSides(t *testing.T) {
	stdout := &recordingHandler{level: slog.LevelInfo}
	journal := &recordingHandler{level: slog.LevelInfo}
	tee := newTeeHandler(stdout, journal)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "scene activated", 0)
	if err := tee.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if len(stdout.records) != 1 {
		t.Errorf("stdout records = %d, want 1", len(stdout.records))
	}
	if len(journal.records) != 1 {
		t.Errorf("journal records = %d, want 1", len(journal.records))
	}
}

func TestTeeHandlerRespectsPerSideLevels(t *testing.T) {
	stdout := &recordingHandler{level: slog.LevelInfo}
	journal := &recordingHandler{level: slog.LevelError}
	tee := newTeeHandler(stdout, journal)

	if !tee.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Expected tee enabled when one side accepts the level")
	}

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "fade started", 0)
	if err := tee.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if len(stdout.records) != 1 {
		t.Errorf("stdout records = %d, want 1", len(stdout.records))
	}
	if len(journal.records) != 0 {
		t.Errorf("journal records = %d, want 0 below its level", len(journal.records))
	}
}

func TestTeeHandlerPropagatesAttrs(t *testing.T) {
	stdout := &recordingHandler{level: slog.LevelInfo}
	journal := &recordingHandler{level: slog.LevelInfo}
	tee := newTeeHandler(stdout, journal)

	tee.WithAttrs([]slog.Attr{slog.String("module", "scenes")})

	if len(stdout.attrs) != 1 || len(journal.attrs) != 1 {
		t.Errorf("attrs propagated to stdout=%d journal=%d, want 1 each",
			len(stdout.attrs), len(journal.attrs))
	}
}
