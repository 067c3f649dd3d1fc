package core

// Ledger arithmetic for pots. These helpers are the only places pot
// balances move; services call them inside a database transaction so the
// stored row always matches the computed state.

// ApplySpend records money leaving a spending pot: spent goes up, left
// goes down. Left may go negative when a pot is overspent; the rollover
// carries the deficit forward unless the pot resets.
func (p *SpendingPot) ApplySpend(amount Money) {
	p.AmountSpent.Pence += amount.Pence
	p.AmountLeft.Pence -= amount.Pence
}

// ResetForMonth applies a new month's allocation. With rollover the
// unspent balance carries forward on top of the allocation; without it
// the pot starts the month at exactly the allocation. Spent always
// resets to zero.
func (p *SpendingPot) ResetForMonth(allocation Money, rollover bool) {
	if rollover {
		p.AmountLeft.Pence += allocation.Pence
	} else {
		p.AmountLeft = allocation
	}
	p.AmountSpent = Money{}
	p.AmountToAdd = allocation
}

// Contribute adds a month's contribution to a savings pot. The last
// contribution is overwritten, not summed.
func (p *SavingsPot) Contribute(amount Money) {
	p.Balance.Pence += amount.Pence
	p.LastContribution = amount
}

// SubscriptionCost sums the monthly-normalized cost of all subscriptions.
func SubscriptionCost(subs []Subscription) Money {
	var total Money
	for _, s := range subs {
		total.Pence += s.MonthlyAmount().Pence
	}
	return total
}

// Snapshot freezes a spending pot's current state for a closed month.
func (p SpendingPot) Snapshot(monthID int64) SpendingPotSnapshot {
	return SpendingPotSnapshot{
		MonthID:     monthID,
		PotID:       p.ID,
		Name:        p.Name,
		AmountToAdd: p.AmountToAdd,
		AmountSpent: p.AmountSpent,
		AmountLeft:  p.AmountLeft,
	}
}

// RolloverPlan is the full set of writes a month rollover performs.
// The plan is computed up front from live state and applied in a single
// database transaction so a snapshot and a pot reset can never be
// partially applied.
type RolloverPlan struct {
	// ClosedMonth is the previously open month with EndDate and
	// aggregates filled in. Nil on the very first rollover.
	ClosedMonth       *HistoricMonth
	SpendingSnapshots []SpendingPotSnapshot
	SavingsSnapshots  []SavingsPotSnapshot

	// NewMonth is the next open month (EndDate nil).
	NewMonth HistoricMonth

	// Post-reset pot states.
	SpendingPots []SpendingPot
	SavingsPots  []SavingsPot
}

// Snapshot freezes a savings pot's current state for a closed month.
func (p SavingsPot) Snapshot(monthID int64) SavingsPotSnapshot {
	return SavingsPotSnapshot{
		MonthID:          monthID,
		PotID:            p.ID,
		Name:             p.Name,
		Balance:          p.Balance,
		LastContribution: p.LastContribution,
	}
}
