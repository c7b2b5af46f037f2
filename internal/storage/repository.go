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

	"github.com/shopspring/decimal"

	"github.com/brianschroeder/finance-tracker-sub001/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist. Missing pay
// settings in particular are an expected state on a fresh install; callers
// decide how to default.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
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

// GetPaySettings returns the single pay-settings row, or ErrNotFound when
// the user has not configured one yet.
func (r *SQLiteRepository) GetPaySettings(ctx context.Context) (core.PaySettings, error) {
	var (
		lastPay   string
		frequency string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT last_pay_date, frequency FROM pay_settings WHERE id = 1`,
	).Scan(&lastPay, &frequency)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PaySettings{}, ErrNotFound
	}
	if err != nil {
		return core.PaySettings{}, fmt.Errorf("get pay settings: %w", err)
	}

	date, err := core.ParseDate(lastPay)
	if err != nil {
		return core.PaySettings{}, fmt.Errorf("parse stored last pay date: %w", err)
	}

	return core.PaySettings{LastPayDate: date, Frequency: core.Frequency(frequency)}, nil
}

// SavePaySettings upserts the single pay-settings row.
func (r *SQLiteRepository) SavePaySettings(ctx context.Context, settings core.PaySettings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pay_settings (id, last_pay_date, frequency, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			last_pay_date = excluded.last_pay_date,
			frequency = excluded.frequency,
			updated_at = CURRENT_TIMESTAMP`,
		settings.LastPayDate.String(), string(settings.Frequency))
	if err != nil {
		return fmt.Errorf("save pay settings: %w", err)
	}

	slog.InfoContext(ctx, "Pay settings saved",
		"last_pay_date", settings.LastPayDate.String(),
		"frequency", string(settings.Frequency))
	return nil
}

// CreateCategory inserts a budget category and returns its ID.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.BudgetCategory) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_categories (name, monthly_allocated, color, kind, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.MonthlyAllocated.String(), c.Color, string(c.Kind), boolToInt(c.IsActive))
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category insert id: %w", err)
	}
	return id, nil
}

// UpdateCategory updates an existing category in place.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.BudgetCategory) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budget_categories
		SET name = ?, monthly_allocated = ?, color = ?, kind = ?, is_active = ?
		WHERE id = ?`,
		c.Name, c.MonthlyAllocated.String(), c.Color, string(c.Kind), boolToInt(c.IsActive), c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update category rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCategories returns all categories; when activeOnly is set, inactive
// ones are filtered out.
func (r *SQLiteRepository) ListCategories(ctx context.Context, activeOnly bool) ([]core.BudgetCategory, error) {
	query := `SELECT id, name, monthly_allocated, color, kind, is_active
		FROM budget_categories`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.BudgetCategory
	for rows.Next() {
		var (
			c         core.BudgetCategory
			allocated string
			kind      string
			active    int
		)
		if err := rows.Scan(&c.ID, &c.Name, &allocated, &c.Color, &kind, &active); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.MonthlyAllocated, err = decimal.NewFromString(allocated)
		if err != nil {
			return nil, fmt.Errorf("parse category allocation %q: %w", allocated, err)
		}
		c.Kind = core.CategoryKind(kind)
		c.IsActive = active != 0
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// DeleteCategory removes a category. Its transactions keep their category_id
// and fall out of budget reporting.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budget_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateTransaction inserts a transaction in the pending export state and
// returns its ID.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(category_id, date, description, amount, tip_amount, cash_back,
			 pending, cashback_posted, credit_card_pending)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableID(t.CategoryID), t.Date.String(), t.Description,
		t.Amount.String(), t.TipAmount.String(), t.CashBack.String(),
		boolToInt(t.Pending), boolToInt(t.CashbackPosted), boolToInt(t.CreditCardPending))
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"description", t.Description,
		"amount", t.Amount.String(),
		"date", t.Date.String())
	return id, nil
}

// GetTransaction fetches one transaction by ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(category_id, 0), date, description, amount,
		       tip_amount, cash_back, pending, cashback_posted, credit_card_pending
		FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// ListTransactions returns all transactions whose date falls inside the
// inclusive range. Dates are stored as YYYY-MM-DD so string comparison
// orders correctly.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, COALESCE(category_id, 0), date, description, amount,
		       tip_amount, cash_back, pending, cashback_posted, credit_card_pending
		FROM transactions
		WHERE date >= ? AND date <= ?
		ORDER BY date, id`,
		start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// DeleteTransaction removes a transaction by ID.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PendingExport describes a transaction still waiting for export.
type PendingExport struct {
	ID        int64
	CreatedAt time.Time
}

// PendingExportTransactions returns up to limit transactions that have not
// been exported yet, oldest first. Used by the worker's reconciler for rows
// whose queue message was lost.
func (r *SQLiteRepository) PendingExportTransactions(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at FROM transactions
		WHERE export_state = 'pending'
		ORDER BY created_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending export transactions: %w", err)
	}
	defer rows.Close()

	var pending []PendingExport
	for rows.Next() {
		var p PendingExport
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkExported records a successful export.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if err := r.setExportState(ctx, id, "exported"); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id)
	return nil
}

// MarkExportError records a failed export so the reconciler can retry.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	if err := r.setExportState(ctx, id, "error"); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

func (r *SQLiteRepository) setExportState(ctx context.Context, id int64, state string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_state = ? WHERE id = ?`, state, id)
	if err != nil {
		return fmt.Errorf("set export state %s: %w", state, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                          core.Transaction
		amount, tip, cashBack      string
		pending, posted, ccPending int
		date                       string
	)
	if err := row.Scan(&t.ID, &t.CategoryID, &date, &t.Description,
		&amount, &tip, &cashBack, &pending, &posted, &ccPending); err != nil {
		return core.Transaction{}, err
	}

	var err error
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	if t.TipAmount, err = decimal.NewFromString(tip); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored tip %q: %w", tip, err)
	}
	if t.CashBack, err = decimal.NewFromString(cashBack); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored cashback %q: %w", cashBack, err)
	}
	t.Pending = pending != 0
	t.CashbackPosted = posted != 0
	t.CreditCardPending = ccPending != 0
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
