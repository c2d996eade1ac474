package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

const ruleColumns = `id, user_id, title, kind, amount_cents, category,
	frequency, day_of_month, month, currency, next_run, created_at, updated_at`

func scanRule(scan func(dest ...any) error) (core.RecurrenceRule, error) {
	var rule core.RecurrenceRule
	var nextRun, createdAt, updatedAt string
	err := scan(&rule.ID, &rule.UserID, &rule.Title, &rule.Kind, &rule.Amount.Cents,
		&rule.Category, &rule.Frequency, &rule.DayOfMonth, &rule.Month,
		&rule.Currency, &nextRun, &createdAt, &updatedAt)
	if err != nil {
		return core.RecurrenceRule{}, err
	}
	d, err := core.ParseDate(nextRun)
	if err != nil {
		return core.RecurrenceRule{}, fmt.Errorf("parse next_run %q: %w", nextRun, err)
	}
	rule.NextRun = d
	rule.CreatedAt = parseTimestamp(createdAt)
	rule.UpdatedAt = parseTimestamp(updatedAt)
	return rule, nil
}

func (r *Repository) CreateRule(ctx context.Context, rule core.RecurrenceRule) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO rules (user_id, title, kind, amount_cents, category,
			frequency, day_of_month, month, currency, next_run)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.UserID, rule.Title, rule.Kind, rule.Amount.Cents, rule.Category,
		rule.Frequency, rule.DayOfMonth, rule.Month, rule.Currency,
		rule.NextRun.String())
	if err != nil {
		return 0, fmt.Errorf("create rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create rule id: %w", err)
	}
	return id, nil
}

func (r *Repository) GetRule(ctx context.Context, userID, id int64) (core.RecurrenceRule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+ruleColumns+` FROM rules WHERE id = ? AND user_id = ?`, id, userID)
	rule, err := scanRule(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurrenceRule{}, core.ErrNotFound
	}
	if err != nil {
		return core.RecurrenceRule{}, fmt.Errorf("get rule: %w", err)
	}
	return rule, nil
}

func (r *Repository) ListRules(ctx context.Context, userID int64) ([]core.RecurrenceRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ruleColumns+` FROM rules
		WHERE user_id = ? ORDER BY next_run ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()
	return collectRules(rows, "list rules")
}

// UpcomingRules lists the user's rules firing inside [from, to] inclusive.
func (r *Repository) UpcomingRules(ctx context.Context, userID int64, from, to core.Date) ([]core.RecurrenceRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ruleColumns+` FROM rules
		WHERE user_id = ? AND next_run >= ? AND next_run <= ?
		ORDER BY next_run ASC, id ASC`, userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("upcoming rules: %w", err)
	}
	defer rows.Close()
	return collectRules(rows, "upcoming rules")
}

// DueRules returns every rule across all users with next_run on or before the
// given date, the materializer's work set for one batch.
func (r *Repository) DueRules(ctx context.Context, now core.Date) ([]core.RecurrenceRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ruleColumns+` FROM rules
		WHERE next_run <= ? ORDER BY id ASC`, now.String())
	if err != nil {
		return nil, fmt.Errorf("due rules: %w", err)
	}
	defer rows.Close()
	return collectRules(rows, "due rules")
}

func collectRules(rows *sql.Rows, op string) ([]core.RecurrenceRule, error) {
	var rules []core.RecurrenceRule
	for rows.Next() {
		rule, err := scanRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rules, nil
}

func (r *Repository) CountRules(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rules WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count rules: %w", err)
	}
	return n, nil
}

func (r *Repository) UpdateRule(ctx context.Context, rule core.RecurrenceRule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rules SET title = ?, kind = ?, amount_cents = ?, category = ?,
			frequency = ?, day_of_month = ?, month = ?, currency = ?,
			next_run = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`,
		rule.Title, rule.Kind, rule.Amount.Cents, rule.Category,
		rule.Frequency, rule.DayOfMonth, rule.Month, rule.Currency,
		rule.NextRun.String(), rule.ID, rule.UserID)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return requireRow(res, "update rule")
}

// UpdateRuleNextRun is the materializer's advancement write. It touches only
// next_run so a concurrent edit to the rule body is never clobbered.
func (r *Repository) UpdateRuleNextRun(ctx context.Context, id int64, nextRun core.Date) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rules SET next_run = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, nextRun.String(), id)
	if err != nil {
		return fmt.Errorf("update rule next run: %w", err)
	}
	return requireRow(res, "update rule next run")
}

func (r *Repository) DeleteRule(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM rules WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return requireRow(res, "delete rule")
}
