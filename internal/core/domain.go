package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Monthly BillingFrequency = "monthly"
	Yearly  BillingFrequency = "yearly"
)

type (
	BillingFrequency string

	// Money is an amount in integer minor currency units (pence).
	// All ledger arithmetic stays in pence; decimal conversion happens
	// only at the API boundary.
	Money struct {
		Pence int64
	}

	// SpendingPot is a budget envelope: a monthly allocation with a
	// running spent/left balance.
	SpendingPot struct {
		ID              int64
		Name            string
		AmountToAdd     Money // allocation applied at each rollover
		AmountSpent     Money
		AmountLeft      Money
		RolloverDefault bool
	}

	// SavingsPot accumulates contributions across months.
	SavingsPot struct {
		ID               int64
		Name             string
		Balance          Money
		LastContribution Money
	}

	// HistoricMonth is one row of the monthly ledger. Exactly one row has
	// a nil EndDate at any time: the currently open month. Closing a month
	// sets EndDate and freezes its aggregates.
	HistoricMonth struct {
		ID               int64
		StartDate        time.Time
		EndDate          *time.Time
		Income           Money
		AmountSaved      Money
		AmountSpent      Money
		AmountLeftOver   Money
		SubscriptionCost Money
	}

	// SpendingPotSnapshot captures a spending pot's pre-reset state at
	// month close. Immutable once written.
	SpendingPotSnapshot struct {
		ID          int64
		MonthID     int64
		PotID       int64
		Name        string
		AmountToAdd Money
		AmountSpent Money
		AmountLeft  Money
	}

	// SavingsPotSnapshot captures a savings pot's balance at month close.
	SavingsPotSnapshot struct {
		ID               int64
		MonthID          int64
		PotID            int64
		Name             string
		Balance          Money
		LastContribution Money
	}

	// Transaction is an imported bank transaction. ID is the bank's
	// external transaction id and doubles as the dedup key. Amount is
	// normalized so positive means money out.
	Transaction struct {
		ID             string
		MerchantName   string
		Amount         Money
		Date           time.Time
		Processed      bool
		PotID          *int64
		IsSubscription bool
	}

	// AutomaticTransaction routes incoming transactions to a pot when
	// MerchantKey is a case-insensitive substring of the merchant name.
	AutomaticTransaction struct {
		ID             int64
		MerchantKey    string
		PotID          *int64
		IsSubscription bool
	}

	Subscription struct {
		ID               int64
		Name             string
		Amount           Money
		BillingFrequency BillingFrequency
		BillingDay       int
		BillingMonth     int // yearly subscriptions only
	}

	// CalendarEvent is a base event; RecurrenceRule holds an iCal RRULE
	// string, empty for one-off events.
	CalendarEvent struct {
		ID             int64
		Name           string
		Start          time.Time
		End            time.Time
		AllDay         bool
		RecurrenceRule string
		TypeID         int64
	}

	// EventException marks one occurrence of a recurring event as deleted.
	// The base event and its rule are never mutated for single-occurrence
	// deletes.
	EventException struct {
		EventID int64
		Date    time.Time
	}
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("already exists")
	ErrEmptyName     = errors.New("empty name")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRule   = errors.New("invalid recurrence rule")
)

func (m Money) Validate() error {
	if m.Pence <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Pounds returns the amount as a float64 for display only.
func (m Money) Pounds() float64 {
	return float64(m.Pence) / 100.0
}

func (p SpendingPot) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.AmountToAdd.Pence < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (p SavingsPot) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (a AutomaticTransaction) Validate() error {
	if strings.TrimSpace(a.MerchantKey) == "" {
		return ErrEmptyName
	}
	return nil
}

// Matches reports whether the rule applies to the given merchant name.
// Matching is case-insensitive substring containment.
func (a AutomaticTransaction) Matches(merchantName string) bool {
	return strings.Contains(strings.ToLower(merchantName), strings.ToLower(a.MerchantKey))
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("transaction id required")
	}
	if strings.TrimSpace(t.MerchantName) == "" {
		return ErrEmptyName
	}
	return t.Amount.Validate()
}

func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	switch s.BillingFrequency {
	case Monthly:
	case Yearly:
		if s.BillingMonth < 1 || s.BillingMonth > 12 {
			return errors.New("invalid billing month")
		}
	default:
		return errors.New("invalid billing frequency")
	}
	if s.BillingDay < 1 || s.BillingDay > 31 {
		return errors.New("invalid billing day")
	}
	return nil
}

// MonthlyAmount normalizes the subscription cost to a per-month figure
// regardless of billing frequency. Yearly amounts divide by 12 with
// half-up rounding.
func (s Subscription) MonthlyAmount() Money {
	if s.BillingFrequency == Yearly {
		return Money{Pence: (s.Amount.Pence + 6) / 12}
	}
	return s.Amount
}

func (e CalendarEvent) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if e.Start.IsZero() {
		return errors.New("start time required")
	}
	if !e.End.IsZero() && e.End.Before(e.Start) {
		return errors.New("end time before start time")
	}
	return nil
}

// IsRecurring reports whether the event carries a recurrence rule.
func (e CalendarEvent) IsRecurring() bool {
	return strings.TrimSpace(e.RecurrenceRule) != ""
}
