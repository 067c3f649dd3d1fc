package sheets

import (
	"context"

	"orbit/internal/core"
)

// Ports for outbound adapters.
type (
	// SnapshotWriter archives a closed month to an external spreadsheet.
	SnapshotWriter interface {
		AppendMonth(ctx context.Context, month core.HistoricMonth, spending []core.SpendingPotSnapshot, savings []core.SavingsPotSnapshot) (rowRef string, err error)
	}
)
