package bank

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"orbit/internal/core"
)

// Source is a bank feed the importer can pull from.
type Source interface {
	Name() string
	FetchTransactions(ctx context.Context, since time.Time) ([]core.Transaction, error)
}

// ImportStore persists imported transactions. InsertTransactionIfNew
// reports whether the row was inserted, so re-imports of the same
// window are harmless.
type ImportStore interface {
	InsertTransactionIfNew(ctx context.Context, t core.Transaction) (bool, error)
}

// ImportNotifier announces newly imported transactions.
type ImportNotifier interface {
	TransactionImported(ctx context.Context, t core.Transaction) error
}

// Importer pulls recent transactions from every configured bank source
// and stores the ones not seen before.
type Importer struct {
	sources  []Source
	store    ImportStore
	notifier ImportNotifier
	window   time.Duration
	now      func() time.Time
}

func NewImporter(sources []Source, store ImportStore, notifier ImportNotifier, window time.Duration) *Importer {
	return &Importer{
		sources:  sources,
		store:    store,
		notifier: notifier,
		window:   window,
		now:      time.Now,
	}
}

// Run executes one import cycle and returns the number of transactions
// inserted. A source that fails is logged and skipped; the other
// sources still run, so one bank being down never blocks the rest.
func (i *Importer) Run(ctx context.Context) (int, error) {
	since := i.now().Add(-i.window)
	inserted := 0

	for _, src := range i.sources {
		txns, err := src.FetchTransactions(ctx, since)
		if err != nil {
			slog.ErrorContext(ctx, "Bank fetch failed, skipping source this cycle",
				"source", src.Name(), "error", err)
			continue
		}

		for _, t := range txns {
			if err := t.Validate(); err != nil {
				slog.WarnContext(ctx, "Skipping invalid transaction",
					"source", src.Name(), "transaction_id", t.ID, "error", err)
				continue
			}

			ok, err := i.store.InsertTransactionIfNew(ctx, t)
			if err != nil {
				return inserted, fmt.Errorf("insert transaction %s: %w", t.ID, err)
			}
			if !ok {
				continue
			}
			inserted++

			if i.notifier != nil {
				if err := i.notifier.TransactionImported(ctx, t); err != nil {
					slog.WarnContext(ctx, "Failed to publish import notification",
						"transaction_id", t.ID, "error", err)
				}
			}
		}

		slog.InfoContext(ctx, "Bank import cycle finished for source",
			"source", src.Name(), "fetched", len(txns))
	}

	return inserted, nil
}
