package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"orbit/internal/core"
)

func closedMonth(id int64, start, end time.Time) core.HistoricMonth {
	return core.HistoricMonth{
		ID:             id,
		StartDate:      start,
		EndDate:        &end,
		AmountSpent:    core.Money{Pence: id * 1000},
		AmountLeftOver: core.Money{Pence: id * 100},
		AmountSaved:    core.Money{Pence: id * 10},
	}
}

func TestMonthsDropdownValuesEmpty(t *testing.T) {
	svc := NewHistoricService(&fakeStore{})

	options, err := svc.MonthsDropdownValues(context.Background())
	if err != nil {
		t.Fatalf("MonthsDropdownValues returned error: %v", err)
	}
	if options == nil {
		t.Fatal("options must be an empty slice, not nil")
	}
	if len(options) != 0 {
		t.Errorf("options length = %d, want 0", len(options))
	}
}

func TestMonthsDropdownValuesNewestFirst(t *testing.T) {
	jan := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		closed: []core.HistoricMonth{
			closedMonth(1, jan, feb),
			closedMonth(2, feb, mar),
		},
	}
	svc := NewHistoricService(store)

	options, err := svc.MonthsDropdownValues(context.Background())
	if err != nil {
		t.Fatalf("MonthsDropdownValues returned error: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("options length = %d, want 2", len(options))
	}
	if options[0].ID != 2 || options[1].ID != 1 {
		t.Errorf("option order = [%d %d], want [2 1]", options[0].ID, options[1].ID)
	}
	if !options[0].EndDate.Equal(mar) {
		t.Errorf("option end date = %v, want %v", options[0].EndDate, mar)
	}
}

func TestMonthDataNotFound(t *testing.T) {
	svc := NewHistoricService(&fakeStore{})

	_, err := svc.MonthData(context.Background(), 42)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "Historic month data not found") {
		t.Errorf("error message = %q, want it to contain %q", err.Error(), "Historic month data not found")
	}
}

func TestMonthDataBreakdown(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		closed: []core.HistoricMonth{closedMonth(1, start, end)},
		txns: []core.Transaction{
			{ID: "a", MerchantName: "Tesco", Amount: core.Money{Pence: 2500}, Date: start},
			{ID: "b", MerchantName: "Tesco", Amount: core.Money{Pence: 1500}, Date: start.AddDate(0, 0, 2)},
			{ID: "c", MerchantName: "Netflix", Amount: core.Money{Pence: 999}, Date: start.AddDate(0, 0, 2)},
			// Outside the month, must be ignored.
			{ID: "d", MerchantName: "Tesco", Amount: core.Money{Pence: 9999}, Date: end.AddDate(0, 0, 5)},
		},
	}
	svc := NewHistoricService(store)

	data, err := svc.MonthData(context.Background(), 1)
	if err != nil {
		t.Fatalf("MonthData returned error: %v", err)
	}

	if len(data.TopTransactions) != 3 {
		t.Fatalf("top transactions = %d, want 3", len(data.TopTransactions))
	}
	if data.TopTransactions[0].ID != "a" {
		t.Errorf("largest transaction = %s, want a", data.TopTransactions[0].ID)
	}

	if len(data.TopMerchants) != 2 {
		t.Fatalf("merchants = %d, want 2", len(data.TopMerchants))
	}
	if data.TopMerchants[0].Name != "Tesco" || data.TopMerchants[0].Total != 4000 || data.TopMerchants[0].Count != 2 {
		t.Errorf("top merchant = %+v, want Tesco total 4000 count 2", data.TopMerchants[0])
	}

	if len(data.DailySpend) != 3 {
		t.Fatalf("daily totals = %d, want 3 (one per day incl. zero days)", len(data.DailySpend))
	}
	if data.DailySpend[0].Total != 2500 {
		t.Errorf("day 1 total = %d, want 2500", data.DailySpend[0].Total)
	}
	if data.DailySpend[1].Total != 0 {
		t.Errorf("day 2 total = %d, want 0", data.DailySpend[1].Total)
	}
	if data.DailySpend[2].Total != 2499 {
		t.Errorf("day 3 total = %d, want 2499", data.DailySpend[2].Total)
	}
}

func TestMonthDataTopTransactionLimit(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		closed: []core.HistoricMonth{closedMonth(1, start, end)},
	}
	for i := 0; i < 8; i++ {
		store.txns = append(store.txns, core.Transaction{
			ID:           string(rune('a' + i)),
			MerchantName: "Shop",
			Amount:       core.Money{Pence: int64(100 * (i + 1))},
			Date:         start,
		})
	}
	svc := NewHistoricService(store)

	data, err := svc.MonthData(context.Background(), 1)
	if err != nil {
		t.Fatalf("MonthData returned error: %v", err)
	}
	if len(data.TopTransactions) != topTransactionLimit {
		t.Fatalf("top transactions = %d, want %d", len(data.TopTransactions), topTransactionLimit)
	}
	if data.TopTransactions[0].Amount.Pence != 800 {
		t.Errorf("largest amount = %d, want 800", data.TopTransactions[0].Amount.Pence)
	}
}

func TestYearlyDataEmpty(t *testing.T) {
	svc := NewHistoricService(&fakeStore{})

	series, err := svc.YearlyData(context.Background())
	if err != nil {
		t.Fatalf("YearlyData returned error: %v", err)
	}
	if series.Labels == nil || series.Spent == nil || series.LeftOver == nil || series.Saved == nil {
		t.Fatal("series slices must be empty, not nil")
	}
	if len(series.Labels) != 0 {
		t.Errorf("labels = %d, want 0", len(series.Labels))
	}
}

func TestYearlyDataSeries(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 14; i++ {
		start := time.Date(2025, time.Month(i%12+1), 1, 0, 0, 0, 0, time.UTC).AddDate(i/12, 0, 0)
		store.closed = append(store.closed, closedMonth(int64(i+1), start, start.AddDate(0, 1, 0)))
	}
	svc := NewHistoricService(store)

	series, err := svc.YearlyData(context.Background())
	if err != nil {
		t.Fatalf("YearlyData returned error: %v", err)
	}
	if len(series.Labels) != 12 {
		t.Fatalf("labels = %d, want 12 (capped at a year)", len(series.Labels))
	}
	// Oldest of the window first, so charts read left to right.
	if series.Spent[0] != 3000 {
		t.Errorf("first spent = %d, want 3000", series.Spent[0])
	}
	if series.Spent[11] != 14000 {
		t.Errorf("last spent = %d, want 14000", series.Spent[11])
	}
}
