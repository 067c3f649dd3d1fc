package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"orbit/internal/core"
)

// RolloverStore is the storage surface the rollover needs. ApplyRollover
// must execute the whole plan in one database transaction.
type RolloverStore interface {
	CurrentMonth(ctx context.Context) (*core.HistoricMonth, error)
	ListSpendingPots(ctx context.Context) ([]core.SpendingPot, error)
	ListSavingsPots(ctx context.Context) ([]core.SavingsPot, error)
	ListSubscriptions(ctx context.Context) ([]core.Subscription, error)
	ApplyRollover(ctx context.Context, plan core.RolloverPlan) error
}

// PotAllocation assigns a new month's amount to one pot.
type PotAllocation struct {
	PotID  int64
	Amount core.Money
}

// RolloverService starts a new financial month: it archives the current
// month's pot state into historic snapshots, then resets or rolls over
// each pot. This is the only operation that mutates pot balances in bulk.
type RolloverService struct {
	store RolloverStore
	now   func() time.Time
}

func NewRolloverService(store RolloverStore) *RolloverService {
	return &RolloverService{store: store, now: time.Now}
}

// AddNewMonth closes the open month (if any) and opens a new one.
//
// Spending pots whose id appears in rolloverIDs carry their unspent
// balance forward on top of the new allocation; all others reset to the
// allocation. Spent always resets to zero. Savings pots add their
// allocation to the cumulative balance.
func (s *RolloverService) AddNewMonth(ctx context.Context, income core.Money, spendingAllocs, savingsAllocs []PotAllocation, rolloverIDs []int64) (core.RolloverPlan, error) {
	if income.Pence < 0 {
		return core.RolloverPlan{}, fmt.Errorf("income: %w", core.ErrInvalidAmount)
	}
	for _, a := range append(append([]PotAllocation{}, spendingAllocs...), savingsAllocs...) {
		if a.Amount.Pence < 0 {
			return core.RolloverPlan{}, fmt.Errorf("allocation for pot %d: %w", a.PotID, core.ErrInvalidAmount)
		}
	}

	spendingPots, err := s.store.ListSpendingPots(ctx)
	if err != nil {
		return core.RolloverPlan{}, fmt.Errorf("list spending pots: %w", err)
	}
	savingsPots, err := s.store.ListSavingsPots(ctx)
	if err != nil {
		return core.RolloverPlan{}, fmt.Errorf("list savings pots: %w", err)
	}
	subs, err := s.store.ListSubscriptions(ctx)
	if err != nil {
		return core.RolloverPlan{}, fmt.Errorf("list subscriptions: %w", err)
	}
	current, err := s.store.CurrentMonth(ctx)
	if err != nil {
		return core.RolloverPlan{}, fmt.Errorf("get current month: %w", err)
	}

	if err := validateAllocations(spendingAllocs, spendingPots); err != nil {
		return core.RolloverPlan{}, err
	}
	if err := validateSavingsAllocations(savingsAllocs, savingsPots); err != nil {
		return core.RolloverPlan{}, err
	}

	plan := buildRolloverPlan(s.now(), income, subs, current, spendingPots, savingsPots, spendingAllocs, savingsAllocs, rolloverIDs)

	if err := s.store.ApplyRollover(ctx, plan); err != nil {
		return core.RolloverPlan{}, fmt.Errorf("apply rollover: %w", err)
	}

	slog.InfoContext(ctx, "New month started",
		"income_pence", income.Pence,
		"spending_pots", len(plan.SpendingPots),
		"savings_pots", len(plan.SavingsPots),
		"rolled_over", len(rolloverIDs))

	return plan, nil
}

// buildRolloverPlan computes every write the rollover performs. Pure so
// the month arithmetic can be tested without a database.
func buildRolloverPlan(now time.Time, income core.Money, subs []core.Subscription, current *core.HistoricMonth, spendingPots []core.SpendingPot, savingsPots []core.SavingsPot, spendingAllocs, savingsAllocs []PotAllocation, rolloverIDs []int64) core.RolloverPlan {
	var plan core.RolloverPlan
	subCost := core.SubscriptionCost(subs)

	if current != nil {
		closed := *current
		end := now
		closed.EndDate = &end
		closed.SubscriptionCost = subCost
		for _, p := range spendingPots {
			closed.AmountSpent.Pence += p.AmountSpent.Pence
			closed.AmountLeftOver.Pence += p.AmountLeft.Pence
			plan.SpendingSnapshots = append(plan.SpendingSnapshots, p.Snapshot(closed.ID))
		}
		for _, p := range savingsPots {
			closed.AmountSaved.Pence += p.LastContribution.Pence
			plan.SavingsSnapshots = append(plan.SavingsSnapshots, p.Snapshot(closed.ID))
		}
		plan.ClosedMonth = &closed
	}

	plan.NewMonth = core.HistoricMonth{
		StartDate:        now,
		Income:           income,
		SubscriptionCost: subCost,
	}

	spendingAllocByPot := allocationsByPot(spendingAllocs)
	savingsAllocByPot := allocationsByPot(savingsAllocs)
	rollover := make(map[int64]bool, len(rolloverIDs))
	for _, id := range rolloverIDs {
		rollover[id] = true
	}

	for _, p := range spendingPots {
		p.ResetForMonth(spendingAllocByPot[p.ID], rollover[p.ID])
		plan.SpendingPots = append(plan.SpendingPots, p)
	}
	for _, p := range savingsPots {
		p.Contribute(savingsAllocByPot[p.ID])
		plan.SavingsPots = append(plan.SavingsPots, p)
	}

	return plan
}

func allocationsByPot(allocs []PotAllocation) map[int64]core.Money {
	m := make(map[int64]core.Money, len(allocs))
	for _, a := range allocs {
		m[a.PotID] = a.Amount
	}
	return m
}

func validateAllocations(allocs []PotAllocation, pots []core.SpendingPot) error {
	known := make(map[int64]bool, len(pots))
	for _, p := range pots {
		known[p.ID] = true
	}
	for _, a := range allocs {
		if !known[a.PotID] {
			return fmt.Errorf("spending pot %d: %w", a.PotID, core.ErrNotFound)
		}
	}
	return nil
}

func validateSavingsAllocations(allocs []PotAllocation, pots []core.SavingsPot) error {
	known := make(map[int64]bool, len(pots))
	for _, p := range pots {
		known[p.ID] = true
	}
	for _, a := range allocs {
		if !known[a.PotID] {
			return fmt.Errorf("savings pot %d: %w", a.PotID, core.ErrNotFound)
		}
	}
	return nil
}
