package http

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"orbit/internal/core"
)

var errBoom = errors.New("boom")

// fakeStore backs the handler tests with in-memory state. It implements
// Store plus the rollover and historic service interfaces so one fake
// can drive a fully wired server.
type fakeStore struct {
	mu sync.Mutex

	nextID     int64
	spending   []core.SpendingPot
	savings    []core.SavingsPot
	current    *core.HistoricMonth
	closed     []core.HistoricMonth
	txns       []core.Transaction
	rules      []core.AutomaticTransaction
	subs       []core.Subscription
	events     []core.CalendarEvent
	exceptions []core.EventException

	failWith error
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateSpendingPot(_ context.Context, pot core.SpendingPot) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	for _, p := range f.spending {
		if p.Name == pot.Name {
			return 0, fmt.Errorf("pot %q: %w", pot.Name, core.ErrConflict)
		}
	}
	pot.ID = f.id()
	f.spending = append(f.spending, pot)
	return pot.ID, nil
}

func (f *fakeStore) GetSpendingPot(_ context.Context, id int64) (*core.SpendingPot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.spending {
		if p.ID == id {
			pot := p
			return &pot, nil
		}
	}
	return nil, fmt.Errorf("spending pot %d: %w", id, core.ErrNotFound)
}

func (f *fakeStore) ListSpendingPots(context.Context) ([]core.SpendingPot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.SpendingPot{}, f.spending...), nil
}

func (f *fakeStore) CreateSavingsPot(_ context.Context, pot core.SavingsPot) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pot.ID = f.id()
	f.savings = append(f.savings, pot)
	return pot.ID, nil
}

func (f *fakeStore) ListSavingsPots(context.Context) ([]core.SavingsPot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.SavingsPot{}, f.savings...), nil
}

func (f *fakeStore) ListTransactions(context.Context) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Transaction{}, f.txns...), nil
}

func (f *fakeStore) ListUnprocessedTransactions(context.Context) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []core.Transaction{}
	for _, t := range f.txns {
		if !t.Processed {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) ApplyMatch(_ context.Context, txnID string, potID *int64, isSubscription bool, amount core.Money) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.txns {
		if f.txns[i].ID != txnID || f.txns[i].Processed {
			continue
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

func (f *fakeStore) CreateRule(_ context.Context, rule core.AutomaticTransaction) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule.ID = f.id()
	f.rules = append(f.rules, rule)
	return rule.ID, nil
}

func (f *fakeStore) ListRules(context.Context) ([]core.AutomaticTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.AutomaticTransaction{}, f.rules...), nil
}

func (f *fakeStore) DeleteRule(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rules {
		if r.ID == id {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("rule %d: %w", id, core.ErrNotFound)
}

func (f *fakeStore) CreateSubscription(_ context.Context, sub core.Subscription) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub.ID = f.id()
	f.subs = append(f.subs, sub)
	return sub.ID, nil
}

func (f *fakeStore) ListSubscriptions(context.Context) ([]core.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Subscription{}, f.subs...), nil
}

func (f *fakeStore) DeleteSubscription(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs {
		if s.ID == id {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("subscription %d: %w", id, core.ErrNotFound)
}

func (f *fakeStore) CreateEvent(_ context.Context, ev core.CalendarEvent) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev.ID = f.id()
	f.events = append(f.events, ev)
	return ev.ID, nil
}

func (f *fakeStore) GetEvent(_ context.Context, id int64) (*core.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.events {
		if ev.ID == id {
			event := ev
			return &event, nil
		}
	}
	return nil, fmt.Errorf("event %d: %w", id, core.ErrNotFound)
}

func (f *fakeStore) ListEvents(context.Context) ([]core.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.CalendarEvent{}, f.events...), nil
}

func (f *fakeStore) UpdateEventRule(_ context.Context, id int64, rule string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.events {
		if f.events[i].ID == id {
			f.events[i].RecurrenceRule = rule
			return nil
		}
	}
	return fmt.Errorf("event %d: %w", id, core.ErrNotFound)
}

func (f *fakeStore) DeleteEvent(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, ev := range f.events {
		if ev.ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			kept := f.exceptions[:0]
			for _, ex := range f.exceptions {
				if ex.EventID != id {
					kept = append(kept, ex)
				}
			}
			f.exceptions = kept
			return nil
		}
	}
	return fmt.Errorf("event %d: %w", id, core.ErrNotFound)
}

func (f *fakeStore) AddEventException(_ context.Context, eventID int64, date time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exceptions = append(f.exceptions, core.EventException{EventID: eventID, Date: date})
	return nil
}

func (f *fakeStore) ListEventExceptions(context.Context) ([]core.EventException, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.EventException{}, f.exceptions...), nil
}

// Rollover and historic store surfaces.

func (f *fakeStore) CurrentMonth(context.Context) (*core.HistoricMonth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *fakeStore) ApplyRollover(_ context.Context, plan core.RolloverPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if plan.ClosedMonth != nil {
		f.closed = append(f.closed, *plan.ClosedMonth)
	}
	newMonth := plan.NewMonth
	newMonth.ID = f.id()
	f.current = &newMonth
	f.spending = append([]core.SpendingPot{}, plan.SpendingPots...)
	f.savings = append([]core.SavingsPot{}, plan.SavingsPots...)
	return nil
}

func (f *fakeStore) ClosedMonths(context.Context) ([]core.HistoricMonth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]core.HistoricMonth{}, f.closed...)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (f *fakeStore) MonthByID(_ context.Context, id int64) (*core.HistoricMonth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.closed {
		if m.ID == id && m.EndDate != nil {
			month := m
			return &month, nil
		}
	}
	return nil, fmt.Errorf("historic month %d: %w", id, core.ErrNotFound)
}

func (f *fakeStore) LastClosedMonths(_ context.Context, n int) ([]core.HistoricMonth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]core.HistoricMonth{}, f.closed...)
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

func (f *fakeStore) TransactionsBetween(_ context.Context, start, end time.Time) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []core.Transaction{}
	for _, t := range f.txns {
		if !t.Date.Before(start) && !t.Date.After(end) {
			out = append(out, t)
		}
	}
	return out, nil
}
