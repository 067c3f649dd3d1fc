package services

import (
	"context"
	"fmt"
	"time"

	"orbit/internal/core"
)

// fakeStore is an in-memory stand-in for the SQLite repository, applying
// writes with the same semantics the real ApplyRollover/ApplyMatch use.
type fakeStore struct {
	current  *core.HistoricMonth
	closed   []core.HistoricMonth
	spending []core.SpendingPot
	savings  []core.SavingsPot
	subs     []core.Subscription
	rules    []core.AutomaticTransaction
	txns     []core.Transaction

	appliedPlan *core.RolloverPlan
}

func (f *fakeStore) CurrentMonth(context.Context) (*core.HistoricMonth, error) {
	return f.current, nil
}

func (f *fakeStore) ListSpendingPots(context.Context) ([]core.SpendingPot, error) {
	return append([]core.SpendingPot{}, f.spending...), nil
}

func (f *fakeStore) ListSavingsPots(context.Context) ([]core.SavingsPot, error) {
	return append([]core.SavingsPot{}, f.savings...), nil
}

func (f *fakeStore) ListSubscriptions(context.Context) ([]core.Subscription, error) {
	return append([]core.Subscription{}, f.subs...), nil
}

func (f *fakeStore) ApplyRollover(_ context.Context, plan core.RolloverPlan) error {
	f.appliedPlan = &plan
	if plan.ClosedMonth != nil {
		f.closed = append(f.closed, *plan.ClosedMonth)
	}
	newMonth := plan.NewMonth
	newMonth.ID = int64(len(f.closed) + 1)
	f.current = &newMonth
	f.spending = append([]core.SpendingPot{}, plan.SpendingPots...)
	f.savings = append([]core.SavingsPot{}, plan.SavingsPots...)
	return nil
}

func (f *fakeStore) ListUnprocessedTransactions(context.Context) ([]core.Transaction, error) {
	out := []core.Transaction{}
	for _, t := range f.txns {
		if !t.Processed {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) ListRules(context.Context) ([]core.AutomaticTransaction, error) {
	return append([]core.AutomaticTransaction{}, f.rules...), nil
}

func (f *fakeStore) ApplyMatch(_ context.Context, txnID string, potID *int64, isSubscription bool, amount core.Money) error {
	for i := range f.txns {
		if f.txns[i].ID != txnID {
			continue
		}
		if f.txns[i].Processed {
			return fmt.Errorf("transaction %s: %w", txnID, core.ErrNotFound)
		}
		f.txns[i].Processed = true
		f.txns[i].PotID = potID
		f.txns[i].IsSubscription = isSubscription
		if potID != nil {
			for j := range f.spending {
				if f.spending[j].ID == *potID {
					f.spending[j].ApplySpend(amount)
				}
			}
		}
		return nil
	}
	return fmt.Errorf("transaction %s: %w", txnID, core.ErrNotFound)
}

func (f *fakeStore) ClosedMonths(context.Context) ([]core.HistoricMonth, error) {
	out := append([]core.HistoricMonth{}, f.closed...)
	// Newest first, matching the repository ordering.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (f *fakeStore) MonthByID(_ context.Context, id int64) (*core.HistoricMonth, error) {
	for _, m := range f.closed {
		if m.ID == id && m.EndDate != nil {
			month := m
			return &month, nil
		}
	}
	return nil, fmt.Errorf("historic month %d: %w", id, core.ErrNotFound)
}

func (f *fakeStore) LastClosedMonths(_ context.Context, n int) ([]core.HistoricMonth, error) {
	out := append([]core.HistoricMonth{}, f.closed...)
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

func (f *fakeStore) TransactionsBetween(_ context.Context, start, end time.Time) ([]core.Transaction, error) {
	out := []core.Transaction{}
	for _, t := range f.txns {
		if !t.Date.Before(start) && !t.Date.After(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

// fakeNotifier records published events.
type fakeNotifier struct {
	processed []core.Transaction
}

func (f *fakeNotifier) TransactionProcessed(_ context.Context, t core.Transaction) error {
	f.processed = append(f.processed, t)
	return nil
}
