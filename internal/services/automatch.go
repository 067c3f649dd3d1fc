package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"orbit/internal/core"
)

// MatchStore is the storage surface auto-matching needs. ApplyMatch must
// update the transaction row and the pot balances in one database
// transaction.
type MatchStore interface {
	ListUnprocessedTransactions(ctx context.Context) ([]core.Transaction, error)
	ListRules(ctx context.Context) ([]core.AutomaticTransaction, error)
	ApplyMatch(ctx context.Context, txnID string, potID *int64, isSubscription bool, amount core.Money) error
}

// Notifier delivers push-notification events for transaction activity.
type Notifier interface {
	TransactionProcessed(ctx context.Context, t core.Transaction) error
}

// AutoMatcher routes unprocessed bank transactions to pots using
// merchant-name rules. Already-processed transactions are never touched.
type AutoMatcher struct {
	store    MatchStore
	notifier Notifier
}

func NewAutoMatcher(store MatchStore, notifier Notifier) *AutoMatcher {
	return &AutoMatcher{store: store, notifier: notifier}
}

// Run evaluates every unprocessed transaction against the rule set and
// returns the number of transactions matched. First match wins; rule
// precedence is explicit (see SortRules) rather than table order.
func (m *AutoMatcher) Run(ctx context.Context) (int, error) {
	txns, err := m.store.ListUnprocessedTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unprocessed transactions: %w", err)
	}
	if len(txns) == 0 {
		return 0, nil
	}

	rules, err := m.store.ListRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("list rules: %w", err)
	}
	SortRules(rules)

	matched := 0
	for _, t := range txns {
		rule, ok := firstMatch(rules, t.MerchantName)
		if !ok {
			continue
		}

		if err := m.store.ApplyMatch(ctx, t.ID, rule.PotID, rule.IsSubscription, t.Amount); err != nil {
			slog.ErrorContext(ctx, "Failed to apply match",
				"transaction_id", t.ID,
				"rule_id", rule.ID,
				"error", err)
			continue
		}
		matched++

		t.Processed = true
		t.PotID = rule.PotID
		t.IsSubscription = rule.IsSubscription
		if m.notifier != nil {
			if err := m.notifier.TransactionProcessed(ctx, t); err != nil {
				slog.WarnContext(ctx, "Failed to publish processed notification",
					"transaction_id", t.ID, "error", err)
			}
		}

		slog.InfoContext(ctx, "Transaction auto-matched",
			"transaction_id", t.ID,
			"merchant", t.MerchantName,
			"rule_id", rule.ID,
			"amount_pence", t.Amount.Pence)
	}

	return matched, nil
}

// SortRules orders rules by descending merchant-key length, ties broken
// by ascending id. The most specific rule wins deterministically when
// several keys match the same merchant name.
func SortRules(rules []core.AutomaticTransaction) {
	sort.SliceStable(rules, func(i, j int) bool {
		if len(rules[i].MerchantKey) != len(rules[j].MerchantKey) {
			return len(rules[i].MerchantKey) > len(rules[j].MerchantKey)
		}
		return rules[i].ID < rules[j].ID
	})
}

func firstMatch(rules []core.AutomaticTransaction, merchantName string) (core.AutomaticTransaction, bool) {
	for _, r := range rules {
		if r.Matches(merchantName) {
			return r, true
		}
	}
	return core.AutomaticTransaction{}, false
}
