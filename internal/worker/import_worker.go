package worker

import (
	"context"
	"log/slog"
	"time"

	"orbit/internal/bank"
	"orbit/internal/services"
)

// ImportWorker runs the periodic bank import followed by auto-matching.
// Each cycle is independent; a failed cycle is logged and the next tick
// tries again.
type ImportWorker struct {
	importer *bank.Importer
	matcher  *services.AutoMatcher
	interval time.Duration
}

func NewImportWorker(importer *bank.Importer, matcher *services.AutoMatcher, interval time.Duration) *ImportWorker {
	return &ImportWorker{
		importer: importer,
		matcher:  matcher,
		interval: interval,
	}
}

// Run loops until ctx is done. A cycle executes immediately on start so
// a freshly deployed worker does not wait a full interval.
func (w *ImportWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Import worker started", "interval", w.interval)

	w.cycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Import worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			w.cycle(ctx)
		}
	}
}

func (w *ImportWorker) cycle(ctx context.Context) {
	start := time.Now()

	imported, err := w.importer.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Import cycle failed", "error", err)
		return
	}

	matched, err := w.matcher.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Auto-match cycle failed", "error", err)
		return
	}

	slog.InfoContext(ctx, "Import cycle finished",
		"imported", imported,
		"matched", matched,
		"duration_ms", time.Since(start).Milliseconds())
}
