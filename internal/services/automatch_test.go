package services

import (
	"context"
	"testing"
	"time"

	"orbit/internal/core"
)

func ptr(v int64) *int64 { return &v }

func TestAutoMatcherRoutesTransaction(t *testing.T) {
	store := &fakeStore{
		spending: []core.SpendingPot{
			{ID: 4, Name: "Entertainment", AmountLeft: core.Money{Pence: 5000}},
		},
		rules: []core.AutomaticTransaction{
			{ID: 1, MerchantKey: "netflix", PotID: ptr(4), IsSubscription: true},
		},
		txns: []core.Transaction{
			{ID: "tx_1", MerchantName: "Netflix", Amount: core.Money{Pence: 999}, Date: time.Now()},
		},
	}
	notifier := &fakeNotifier{}
	matcher := NewAutoMatcher(store, notifier)

	matched, err := matcher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if matched != 1 {
		t.Fatalf("matched = %d, want 1", matched)
	}

	txn := store.txns[0]
	if !txn.Processed {
		t.Error("transaction should be marked processed")
	}
	if txn.PotID == nil || *txn.PotID != 4 {
		t.Errorf("transaction pot = %v, want 4", txn.PotID)
	}
	if !txn.IsSubscription {
		t.Error("transaction should be flagged as subscription")
	}

	pot := store.spending[0]
	if pot.AmountSpent.Pence != 999 {
		t.Errorf("pot spent = %d, want 999", pot.AmountSpent.Pence)
	}
	if pot.AmountLeft.Pence != 4001 {
		t.Errorf("pot left = %d, want 4001", pot.AmountLeft.Pence)
	}

	if len(notifier.processed) != 1 || notifier.processed[0].ID != "tx_1" {
		t.Errorf("notifier calls = %v, want one for tx_1", notifier.processed)
	}
}

func TestAutoMatcherSkipsProcessedAndUnmatched(t *testing.T) {
	store := &fakeStore{
		rules: []core.AutomaticTransaction{
			{ID: 1, MerchantKey: "tesco", PotID: ptr(1)},
		},
		txns: []core.Transaction{
			{ID: "tx_done", MerchantName: "Tesco", Amount: core.Money{Pence: 500}, Processed: true},
			{ID: "tx_other", MerchantName: "Unknown Shop", Amount: core.Money{Pence: 700}},
		},
	}
	matcher := NewAutoMatcher(store, nil)

	matched, err := matcher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if matched != 0 {
		t.Errorf("matched = %d, want 0", matched)
	}
	if store.txns[1].Processed {
		t.Error("unmatched transaction must stay unprocessed")
	}
}

func TestAutoMatcherNoRules(t *testing.T) {
	store := &fakeStore{
		txns: []core.Transaction{
			{ID: "tx_1", MerchantName: "Netflix", Amount: core.Money{Pence: 999}},
		},
	}
	matcher := NewAutoMatcher(store, nil)

	matched, err := matcher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if matched != 0 {
		t.Errorf("matched = %d, want 0", matched)
	}
}

func TestSortRulesPrecedence(t *testing.T) {
	rules := []core.AutomaticTransaction{
		{ID: 3, MerchantKey: "a"},
		{ID: 1, MerchantKey: "amazon prime"},
		{ID: 2, MerchantKey: "amazon"},
		{ID: 4, MerchantKey: "a"},
	}
	SortRules(rules)

	wantOrder := []int64{1, 2, 3, 4}
	for i, want := range wantOrder {
		if rules[i].ID != want {
			t.Fatalf("rules[%d].ID = %d, want %d (order %v)", i, rules[i].ID, want, rules)
		}
	}
}

func TestFirstMatchLongestKeyWins(t *testing.T) {
	rules := []core.AutomaticTransaction{
		{ID: 1, MerchantKey: "amazon prime", PotID: ptr(10)},
		{ID: 2, MerchantKey: "amazon", PotID: ptr(20)},
	}
	SortRules(rules)

	rule, ok := firstMatch(rules, "AMAZON PRIME VIDEO")
	if !ok {
		t.Fatal("expected a match")
	}
	if rule.ID != 1 {
		t.Errorf("matched rule id = %d, want 1", rule.ID)
	}

	rule, ok = firstMatch(rules, "Amazon Marketplace")
	if !ok {
		t.Fatal("expected a match")
	}
	if rule.ID != 2 {
		t.Errorf("matched rule id = %d, want 2", rule.ID)
	}
}
