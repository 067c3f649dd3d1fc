package memory

import (
	"context"
	"fmt"
	"sync"

	"orbit/internal/core"
)

// Store is an in-memory SnapshotWriter used in tests and when no
// spreadsheet is configured.
type Store struct {
	mu    sync.Mutex
	items []ArchivedMonth
}

type ArchivedMonth struct {
	Month    core.HistoricMonth
	Spending []core.SpendingPotSnapshot
	Savings  []core.SavingsPotSnapshot
}

func New() *Store {
	return &Store{}
}

// AppendMonth stores the month and returns a synthetic row reference.
func (s *Store) AppendMonth(_ context.Context, month core.HistoricMonth, spending []core.SpendingPotSnapshot, savings []core.SavingsPotSnapshot) (string, error) {
	if month.EndDate == nil {
		return "", fmt.Errorf("month is still open")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, ArchivedMonth{Month: month, Spending: spending, Savings: savings})
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Archived returns a copy of everything appended so far.
func (s *Store) Archived() []ArchivedMonth {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ArchivedMonth(nil), s.items...)
}
