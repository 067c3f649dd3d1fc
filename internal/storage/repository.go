package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"orbit/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository owns all reads and writes against the Orbit database.
// Multi-row mutations (rollover, auto-match) run inside a single
// transaction.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Foreign keys are per connection in SQLite, so the pragma goes in
	// the DSN where it applies to every pooled connection. Exception
	// rows cascade from event deletes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// === Spending pots ===

func (r *SQLiteRepository) CreateSpendingPot(ctx context.Context, pot core.SpendingPot) (int64, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM spending_pots WHERE name = ?", pot.Name).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check pot name: %w", err)
	}
	if exists > 0 {
		return 0, fmt.Errorf("spending pot %q: %w", pot.Name, core.ErrConflict)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO spending_pots (name, amount_to_add, amount_spent, amount_left, rollover_default)
		VALUES (?, ?, ?, ?, ?)`,
		pot.Name, pot.AmountToAdd.Pence, pot.AmountSpent.Pence, pot.AmountLeft.Pence, pot.RolloverDefault)
	if err != nil {
		return 0, fmt.Errorf("insert spending pot: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListSpendingPots(ctx context.Context) ([]core.SpendingPot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount_to_add, amount_spent, amount_left, rollover_default
		FROM spending_pots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query spending pots: %w", err)
	}
	defer rows.Close()

	pots := []core.SpendingPot{}
	for rows.Next() {
		var p core.SpendingPot
		if err := rows.Scan(&p.ID, &p.Name, &p.AmountToAdd.Pence, &p.AmountSpent.Pence, &p.AmountLeft.Pence, &p.RolloverDefault); err != nil {
			return nil, fmt.Errorf("scan spending pot: %w", err)
		}
		pots = append(pots, p)
	}
	return pots, rows.Err()
}

func (r *SQLiteRepository) GetSpendingPot(ctx context.Context, id int64) (*core.SpendingPot, error) {
	var p core.SpendingPot
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, amount_to_add, amount_spent, amount_left, rollover_default
		FROM spending_pots WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.AmountToAdd.Pence, &p.AmountSpent.Pence, &p.AmountLeft.Pence, &p.RolloverDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("spending pot %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get spending pot: %w", err)
	}
	return &p, nil
}

// === Savings pots ===

func (r *SQLiteRepository) CreateSavingsPot(ctx context.Context, pot core.SavingsPot) (int64, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM savings_pots WHERE name = ?", pot.Name).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check pot name: %w", err)
	}
	if exists > 0 {
		return 0, fmt.Errorf("savings pot %q: %w", pot.Name, core.ErrConflict)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO savings_pots (name, balance, last_contribution) VALUES (?, ?, ?)`,
		pot.Name, pot.Balance.Pence, pot.LastContribution.Pence)
	if err != nil {
		return 0, fmt.Errorf("insert savings pot: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListSavingsPots(ctx context.Context) ([]core.SavingsPot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, balance, last_contribution FROM savings_pots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query savings pots: %w", err)
	}
	defer rows.Close()

	pots := []core.SavingsPot{}
	for rows.Next() {
		var p core.SavingsPot
		if err := rows.Scan(&p.ID, &p.Name, &p.Balance.Pence, &p.LastContribution.Pence); err != nil {
			return nil, fmt.Errorf("scan savings pot: %w", err)
		}
		pots = append(pots, p)
	}
	return pots, rows.Err()
}

// === Months ===

// CurrentMonth returns the open month (end_date null), or nil when no
// rollover has ever run.
func (r *SQLiteRepository) CurrentMonth(ctx context.Context) (*core.HistoricMonth, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, start_date, end_date, income, amount_saved, amount_spent, amount_left_over, subscription_cost
		FROM historic_months WHERE end_date IS NULL`)
	m, err := scanMonth(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current month: %w", err)
	}
	return m, nil
}

// ClosedMonths returns all closed months, newest first.
func (r *SQLiteRepository) ClosedMonths(ctx context.Context) ([]core.HistoricMonth, error) {
	return r.queryMonths(ctx, `
		SELECT id, start_date, end_date, income, amount_saved, amount_spent, amount_left_over, subscription_cost
		FROM historic_months WHERE end_date IS NOT NULL ORDER BY start_date DESC`)
}

// LastClosedMonths returns up to n closed months, oldest of the window
// first, for trend charting.
func (r *SQLiteRepository) LastClosedMonths(ctx context.Context, n int) ([]core.HistoricMonth, error) {
	months, err := r.queryMonths(ctx, `
		SELECT id, start_date, end_date, income, amount_saved, amount_spent, amount_left_over, subscription_cost
		FROM historic_months WHERE end_date IS NOT NULL ORDER BY start_date DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(months)-1; i < j; i, j = i+1, j-1 {
		months[i], months[j] = months[j], months[i]
	}
	return months, nil
}

// MonthByID returns a closed month. Open or unknown months are not found.
func (r *SQLiteRepository) MonthByID(ctx context.Context, id int64) (*core.HistoricMonth, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, start_date, end_date, income, amount_saved, amount_spent, amount_left_over, subscription_cost
		FROM historic_months WHERE id = ? AND end_date IS NOT NULL`, id)
	m, err := scanMonth(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("historic month %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get month: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) queryMonths(ctx context.Context, query string, args ...any) ([]core.HistoricMonth, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query months: %w", err)
	}
	defer rows.Close()

	months := []core.HistoricMonth{}
	for rows.Next() {
		m, err := scanMonth(rows)
		if err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		months = append(months, *m)
	}
	return months, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMonth(row rowScanner) (*core.HistoricMonth, error) {
	var m core.HistoricMonth
	var end sql.NullTime
	err := row.Scan(&m.ID, &m.StartDate, &end, &m.Income.Pence, &m.AmountSaved.Pence,
		&m.AmountSpent.Pence, &m.AmountLeftOver.Pence, &m.SubscriptionCost.Pence)
	if err != nil {
		return nil, err
	}
	if end.Valid {
		t := end.Time
		m.EndDate = &t
	}
	return &m, nil
}

// ApplyRollover executes a rollover plan atomically: close the old month,
// write its pot snapshots, open the new month and reset every pot.
func (r *SQLiteRepository) ApplyRollover(ctx context.Context, plan core.RolloverPlan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if plan.ClosedMonth != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE historic_months
			SET end_date = ?, amount_saved = ?, amount_spent = ?, amount_left_over = ?, subscription_cost = ?
			WHERE id = ? AND end_date IS NULL`,
			plan.ClosedMonth.EndDate, plan.ClosedMonth.AmountSaved.Pence, plan.ClosedMonth.AmountSpent.Pence,
			plan.ClosedMonth.AmountLeftOver.Pence, plan.ClosedMonth.SubscriptionCost.Pence, plan.ClosedMonth.ID)
		if err != nil {
			return fmt.Errorf("close month: %w", err)
		}

		for _, s := range plan.SpendingSnapshots {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO historic_spending_pots (month_id, pot_id, name, amount_to_add, amount_spent, amount_left)
				VALUES (?, ?, ?, ?, ?, ?)`,
				s.MonthID, s.PotID, s.Name, s.AmountToAdd.Pence, s.AmountSpent.Pence, s.AmountLeft.Pence)
			if err != nil {
				return fmt.Errorf("snapshot spending pot %d: %w", s.PotID, err)
			}
		}
		for _, s := range plan.SavingsSnapshots {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO historic_savings_pots (month_id, pot_id, name, balance, last_contribution)
				VALUES (?, ?, ?, ?, ?)`,
				s.MonthID, s.PotID, s.Name, s.Balance.Pence, s.LastContribution.Pence)
			if err != nil {
				return fmt.Errorf("snapshot savings pot %d: %w", s.PotID, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO historic_months (start_date, end_date, income, subscription_cost)
		VALUES (?, NULL, ?, ?)`,
		plan.NewMonth.StartDate, plan.NewMonth.Income.Pence, plan.NewMonth.SubscriptionCost.Pence)
	if err != nil {
		return fmt.Errorf("open new month: %w", err)
	}

	for _, p := range plan.SpendingPots {
		_, err = tx.ExecContext(ctx, `
			UPDATE spending_pots SET amount_to_add = ?, amount_spent = ?, amount_left = ? WHERE id = ?`,
			p.AmountToAdd.Pence, p.AmountSpent.Pence, p.AmountLeft.Pence, p.ID)
		if err != nil {
			return fmt.Errorf("reset spending pot %d: %w", p.ID, err)
		}
	}
	for _, p := range plan.SavingsPots {
		_, err = tx.ExecContext(ctx, `
			UPDATE savings_pots SET balance = ?, last_contribution = ? WHERE id = ?`,
			p.Balance.Pence, p.LastContribution.Pence, p.ID)
		if err != nil {
			return fmt.Errorf("update savings pot %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rollover: %w", err)
	}

	slog.InfoContext(ctx, "Rollover applied",
		"spending_pots", len(plan.SpendingPots),
		"savings_pots", len(plan.SavingsPots),
		"closed_month", plan.ClosedMonth != nil)
	return nil
}

// === Transactions ===

// InsertTransactionIfNew stores an imported transaction unless its
// external id is already present. Returns true when a row was inserted.
func (r *SQLiteRepository) InsertTransactionIfNew(ctx context.Context, t core.Transaction) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, merchant_name, amount, transaction_date, processed, pot_id, is_subscription)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		t.ID, t.MerchantName, t.Amount.Pence, t.Date, t.Processed, t.PotID, t.IsSubscription)
	if err != nil {
		return false, fmt.Errorf("insert transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListUnprocessedTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT id, merchant_name, amount, transaction_date, processed, pot_id, is_subscription
		FROM transactions WHERE processed = 0 ORDER BY transaction_date`)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT id, merchant_name, amount, transaction_date, processed, pot_id, is_subscription
		FROM transactions ORDER BY transaction_date DESC`)
}

// TransactionsBetween returns transactions with a date in [start, end].
func (r *SQLiteRepository) TransactionsBetween(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT id, merchant_name, amount, transaction_date, processed, pot_id, is_subscription
		FROM transactions WHERE transaction_date >= ? AND transaction_date <= ?
		ORDER BY transaction_date`, start, end)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txns := []core.Transaction{}
	for rows.Next() {
		var t core.Transaction
		var potID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.MerchantName, &t.Amount.Pence, &t.Date, &t.Processed, &potID, &t.IsSubscription); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if potID.Valid {
			id := potID.Int64
			t.PotID = &id
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// ApplyMatch marks a transaction processed, routes it to a pot and moves
// the pot balances, all in one transaction. A nil potID marks the
// transaction processed without touching any pot.
func (r *SQLiteRepository) ApplyMatch(ctx context.Context, txnID string, potID *int64, isSubscription bool, amount core.Money) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE transactions SET processed = 1, pot_id = ?, is_subscription = ?
		WHERE id = ? AND processed = 0`,
		potID, isSubscription, txnID)
	if err != nil {
		return fmt.Errorf("mark transaction processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Already processed or unknown id; either way the match is a no-op.
		return fmt.Errorf("transaction %s: %w", txnID, core.ErrNotFound)
	}

	if potID != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE spending_pots
			SET amount_spent = amount_spent + ?, amount_left = amount_left - ?
			WHERE id = ?`, amount.Pence, amount.Pence, *potID)
		if err != nil {
			return fmt.Errorf("apply spend to pot %d: %w", *potID, err)
		}
	}

	return tx.Commit()
}

// === Automatic transaction rules ===

func (r *SQLiteRepository) CreateRule(ctx context.Context, rule core.AutomaticTransaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO automatic_transactions (merchant_key, pot_id, is_subscription) VALUES (?, ?, ?)`,
		rule.MerchantKey, rule.PotID, rule.IsSubscription)
	if err != nil {
		return 0, fmt.Errorf("insert rule: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListRules(ctx context.Context) ([]core.AutomaticTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, merchant_key, pot_id, is_subscription FROM automatic_transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	rules := []core.AutomaticTransaction{}
	for rows.Next() {
		var rule core.AutomaticTransaction
		var potID sql.NullInt64
		if err := rows.Scan(&rule.ID, &rule.MerchantKey, &potID, &rule.IsSubscription); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if potID.Valid {
			id := potID.Int64
			rule.PotID = &id
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *SQLiteRepository) DeleteRule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM automatic_transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("rule %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// === Subscriptions ===

func (r *SQLiteRepository) CreateSubscription(ctx context.Context, sub core.Subscription) (int64, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM subscriptions WHERE name = ?", sub.Name).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check subscription name: %w", err)
	}
	if exists > 0 {
		return 0, fmt.Errorf("subscription %q: %w", sub.Name, core.ErrConflict)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (name, amount, billing_frequency, billing_day, billing_month)
		VALUES (?, ?, ?, ?, ?)`,
		sub.Name, sub.Amount.Pence, string(sub.BillingFrequency), sub.BillingDay, sub.BillingMonth)
	if err != nil {
		return 0, fmt.Errorf("insert subscription: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount, billing_frequency, billing_day, billing_month
		FROM subscriptions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []core.Subscription{}
	for rows.Next() {
		var s core.Subscription
		var freq string
		if err := rows.Scan(&s.ID, &s.Name, &s.Amount.Pence, &freq, &s.BillingDay, &s.BillingMonth); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		s.BillingFrequency = core.BillingFrequency(freq)
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subscription %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// === Calendar ===

func (r *SQLiteRepository) CreateEvent(ctx context.Context, ev core.CalendarEvent) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO calendar_events (name, start_time, end_time, all_day, recurrence_rule, type_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.Name, ev.Start, ev.End, ev.AllDay, ev.RecurrenceRule, ev.TypeID)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetEvent(ctx context.Context, id int64) (*core.CalendarEvent, error) {
	var ev core.CalendarEvent
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, start_time, end_time, all_day, recurrence_rule, type_id
		FROM calendar_events WHERE id = ?`, id).
		Scan(&ev.ID, &ev.Name, &ev.Start, &ev.End, &ev.AllDay, &ev.RecurrenceRule, &ev.TypeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &ev, nil
}

func (r *SQLiteRepository) ListEvents(ctx context.Context) ([]core.CalendarEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, start_time, end_time, all_day, recurrence_rule, type_id
		FROM calendar_events ORDER BY start_time`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []core.CalendarEvent{}
	for rows.Next() {
		var ev core.CalendarEvent
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.Start, &ev.End, &ev.AllDay, &ev.RecurrenceRule, &ev.TypeID); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// UpdateEventRule rewrites the base recurrence rule, affecting the whole
// series.
func (r *SQLiteRepository) UpdateEventRule(ctx context.Context, id int64, rule string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE calendar_events SET recurrence_rule = ? WHERE id = ?`, rule, id)
	if err != nil {
		return fmt.Errorf("update event rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// DeleteEvent removes the base event; exception rows cascade.
func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM calendar_events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// AddEventException suppresses a single occurrence of a recurring event.
// Adding the same exception twice is a no-op.
func (r *SQLiteRepository) AddEventException(ctx context.Context, eventID int64, date time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calendar_event_exceptions (event_id, exception_date) VALUES (?, ?)
		ON CONFLICT (event_id, exception_date) DO NOTHING`,
		eventID, date.Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("insert event exception: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListEventExceptions(ctx context.Context) ([]core.EventException, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, exception_date FROM calendar_event_exceptions`)
	if err != nil {
		return nil, fmt.Errorf("query event exceptions: %w", err)
	}
	defer rows.Close()

	excs := []core.EventException{}
	for rows.Next() {
		var eventID int64
		var dateStr string
		if err := rows.Scan(&eventID, &dateStr); err != nil {
			return nil, fmt.Errorf("scan event exception: %w", err)
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse exception date %q: %w", dateStr, err)
		}
		excs = append(excs, core.EventException{EventID: eventID, Date: date})
	}
	return excs, rows.Err()
}
