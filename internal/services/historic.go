package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"orbit/internal/core"
)

// HistoricStore is the read-only storage surface for archive queries.
type HistoricStore interface {
	ClosedMonths(ctx context.Context) ([]core.HistoricMonth, error)
	MonthByID(ctx context.Context, id int64) (*core.HistoricMonth, error)
	LastClosedMonths(ctx context.Context, n int) ([]core.HistoricMonth, error)
	TransactionsBetween(ctx context.Context, start, end time.Time) ([]core.Transaction, error)
}

type (
	// MonthOption is one entry of the historic month dropdown.
	MonthOption struct {
		ID        int64     `json:"id"`
		StartDate time.Time `json:"startDate"`
		EndDate   time.Time `json:"endDate"`
	}

	// MerchantSummary groups a month's spend by merchant.
	MerchantSummary struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
		Total int64  `json:"total"`
	}

	// DailyTotal is the spend total for one day of a month.
	DailyTotal struct {
		Date  string `json:"date"`
		Total int64  `json:"total"`
	}

	// MonthData is the per-month breakdown backing the history screen.
	MonthData struct {
		Month           core.HistoricMonth `json:"month"`
		TopTransactions []core.Transaction `json:"topTransactions"`
		TopMerchants    []MerchantSummary  `json:"topMerchants"`
		DailySpend      []DailyTotal       `json:"dailySpend"`
	}

	// YearlySeries holds parallel series for trend charts.
	YearlySeries struct {
		Labels   []string `json:"labels"`
		Spent    []int64  `json:"spent"`
		LeftOver []int64  `json:"leftOver"`
		Saved    []int64  `json:"saved"`
	}
)

const topTransactionLimit = 5

// HistoricService answers read-only queries over archived months.
type HistoricService struct {
	store HistoricStore
}

func NewHistoricService(store HistoricStore) *HistoricService {
	return &HistoricService{store: store}
}

// MonthsDropdownValues returns all closed months, newest first. Always a
// slice, never nil.
func (s *HistoricService) MonthsDropdownValues(ctx context.Context) ([]MonthOption, error) {
	months, err := s.store.ClosedMonths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list closed months: %w", err)
	}

	options := make([]MonthOption, 0, len(months))
	for _, m := range months {
		opt := MonthOption{ID: m.ID, StartDate: m.StartDate}
		if m.EndDate != nil {
			opt.EndDate = *m.EndDate
		}
		options = append(options, opt)
	}
	return options, nil
}

// MonthData computes the breakdown for one closed month: top
// transactions by amount, merchant groupings and per-day spend totals.
func (s *HistoricService) MonthData(ctx context.Context, monthID int64) (*MonthData, error) {
	month, err := s.store.MonthByID(ctx, monthID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("Historic month data not found: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("get month: %w", err)
	}

	txns, err := s.store.TransactionsBetween(ctx, month.StartDate, *month.EndDate)
	if err != nil {
		return nil, fmt.Errorf("list month transactions: %w", err)
	}

	return &MonthData{
		Month:           *month,
		TopTransactions: topTransactions(txns, topTransactionLimit),
		TopMerchants:    merchantSummaries(txns),
		DailySpend:      dailyTotals(txns, month.StartDate, *month.EndDate),
	}, nil
}

// YearlyData maps the last 12 closed months to parallel chart series.
// Returns empty slices, never nil, when no history exists.
func (s *HistoricService) YearlyData(ctx context.Context) (*YearlySeries, error) {
	months, err := s.store.LastClosedMonths(ctx, 12)
	if err != nil {
		return nil, fmt.Errorf("list last months: %w", err)
	}

	series := &YearlySeries{
		Labels:   []string{},
		Spent:    []int64{},
		LeftOver: []int64{},
		Saved:    []int64{},
	}
	for _, m := range months {
		series.Labels = append(series.Labels, m.StartDate.Format("Jan 2006"))
		series.Spent = append(series.Spent, m.AmountSpent.Pence)
		series.LeftOver = append(series.LeftOver, m.AmountLeftOver.Pence)
		series.Saved = append(series.Saved, m.AmountSaved.Pence)
	}
	return series, nil
}

func topTransactions(txns []core.Transaction, limit int) []core.Transaction {
	sorted := make([]core.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.Pence > sorted[j].Amount.Pence
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func merchantSummaries(txns []core.Transaction) []MerchantSummary {
	byName := make(map[string]*MerchantSummary)
	for _, t := range txns {
		s, ok := byName[t.MerchantName]
		if !ok {
			s = &MerchantSummary{Name: t.MerchantName}
			byName[t.MerchantName] = s
		}
		s.Count++
		s.Total += t.Amount.Pence
	}

	summaries := make([]MerchantSummary, 0, len(byName))
	for _, s := range byName {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Total != summaries[j].Total {
			return summaries[i].Total > summaries[j].Total
		}
		return summaries[i].Name < summaries[j].Name
	})
	return summaries
}

// dailyTotals produces one entry per calendar day of the month range,
// including zero-spend days, so charts have a continuous x-axis.
func dailyTotals(txns []core.Transaction, start, end time.Time) []DailyTotal {
	byDay := make(map[string]int64)
	for _, t := range txns {
		byDay[t.Date.Format("2006-01-02")] += t.Amount.Pence
	}

	totals := []DailyTotal{}
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for !day.After(last) {
		key := day.Format("2006-01-02")
		totals = append(totals, DailyTotal{Date: key, Total: byDay[key]})
		day = day.AddDate(0, 0, 1)
	}
	return totals
}
