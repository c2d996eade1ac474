package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

// SumsByKind returns total income and expense cents for a date range.
func (r *Repository) SumsByKind(ctx context.Context, userID int64, from, to core.Date) (income, expense core.Money, err error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount_cents ELSE 0 END), 0)
		FROM entries
		WHERE user_id = ? AND occurred_on >= ? AND occurred_on <= ?`,
		userID, from.String(), to.String())
	if err := row.Scan(&income.Cents, &expense.Cents); err != nil {
		return core.Money{}, core.Money{}, fmt.Errorf("sums by kind: %w", err)
	}
	return income, expense, nil
}

// CategoryTotals sums amounts per category label for a date range. Entries
// without a category are reported under "Uncategorized".
func (r *Repository) CategoryTotals(ctx context.Context, userID int64, from, to core.Date) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT CASE WHEN category = '' THEN 'Uncategorized' ELSE category END AS name,
			SUM(amount_cents)
		FROM entries
		WHERE user_id = ? AND occurred_on >= ? AND occurred_on <= ?
		GROUP BY name
		ORDER BY name ASC`,
		userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var t core.CategoryTotal
		if err := rows.Scan(&t.Name, &t.Total.Cents); err != nil {
			return nil, fmt.Errorf("category totals: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	return totals, nil
}

// TrendPoints returns per-day, per-kind sums in a range, the raw series the
// report builder folds into buckets.
func (r *Repository) TrendPoints(ctx context.Context, userID int64, from, to core.Date) ([]core.TrendPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT occurred_on, kind, SUM(amount_cents)
		FROM entries
		WHERE user_id = ? AND occurred_on >= ? AND occurred_on <= ?
		GROUP BY occurred_on, kind
		ORDER BY occurred_on ASC`,
		userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("trend points: %w", err)
	}
	defer rows.Close()

	var points []core.TrendPoint
	for rows.Next() {
		var occurredOn string
		var p core.TrendPoint
		if err := rows.Scan(&occurredOn, &p.Kind, &p.Amount.Cents); err != nil {
			return nil, fmt.Errorf("trend points: %w", err)
		}
		d, err := core.ParseDate(occurredOn)
		if err != nil {
			return nil, fmt.Errorf("trend points: parse occurred_on %q: %w", occurredOn, err)
		}
		p.Date = d
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trend points: %w", err)
	}
	return points, nil
}

// HistoryBounds returns the earliest and latest entry dates for a user. ok is
// false when the ledger is empty.
func (r *Repository) HistoryBounds(ctx context.Context, userID int64) (first, last core.Date, ok bool, err error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT MIN(occurred_on), MAX(occurred_on) FROM entries WHERE user_id = ?`, userID)
	var minDate, maxDate sql.NullString
	if err := row.Scan(&minDate, &maxDate); err != nil {
		return core.Date{}, core.Date{}, false, fmt.Errorf("history bounds: %w", err)
	}
	if !minDate.Valid || !maxDate.Valid {
		return core.Date{}, core.Date{}, false, nil
	}
	first, err = core.ParseDate(minDate.String)
	if err != nil {
		return core.Date{}, core.Date{}, false, fmt.Errorf("history bounds: %w", err)
	}
	last, err = core.ParseDate(maxDate.String)
	if err != nil {
		return core.Date{}, core.Date{}, false, fmt.Errorf("history bounds: %w", err)
	}
	return first, last, true, nil
}

// CountExports returns how many exports the user has generated in total.
func (r *Repository) CountExports(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM export_logs WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count exports: %w", err)
	}
	return n, nil
}

// RecordExport appends an audit row for a generated export file.
func (r *Repository) RecordExport(ctx context.Context, log core.ExportLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO export_logs (user_id, format, reference, rows)
		VALUES (?, ?, ?, ?)`,
		log.UserID, log.Format, log.Reference, log.Rows)
	if err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	return nil
}
