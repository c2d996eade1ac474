package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

const entryColumns = `id, user_id, kind, category, amount_cents, occurred_on,
	description, currency, receipt IS NOT NULL, created_at, updated_at`

func scanEntry(scan func(dest ...any) error) (core.LedgerEntry, error) {
	var e core.LedgerEntry
	var occurredOn, createdAt, updatedAt string
	var hasReceipt int
	err := scan(&e.ID, &e.UserID, &e.Kind, &e.Category, &e.Amount.Cents,
		&occurredOn, &e.Description, &e.Currency, &hasReceipt, &createdAt, &updatedAt)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	d, err := core.ParseDate(occurredOn)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse occurred_on %q: %w", occurredOn, err)
	}
	e.OccurredOn = d
	e.HasReceipt = hasReceipt != 0
	e.CreatedAt = parseTimestamp(createdAt)
	e.UpdatedAt = parseTimestamp(updatedAt)
	return e, nil
}

// CreateEntry inserts an entry and its optional receipt blob, returning the
// new row id.
func (r *Repository) CreateEntry(ctx context.Context, e core.LedgerEntry, receipt *core.Receipt) (int64, error) {
	var data []byte
	var contentType string
	if receipt != nil {
		data = receipt.Data
		contentType = receipt.ContentType
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (user_id, kind, category, amount_cents, occurred_on,
			description, currency, receipt, receipt_content_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Kind, e.Category, e.Amount.Cents, e.OccurredOn.String(),
		e.Description, e.Currency, data, contentType)
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create entry id: %w", err)
	}
	return id, nil
}

func (r *Repository) GetEntry(ctx context.Context, userID, id int64) (core.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM entries WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, core.ErrNotFound
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// ListEntries returns a user's entries newest first.
func (r *Repository) ListEntries(ctx context.Context, userID int64) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE user_id = ?
		ORDER BY occurred_on DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// EntriesInRange returns entries with occurred_on in [from, to], oldest first.
// Dates are stored as YYYY-MM-DD text so string comparison is date order.
func (r *Repository) EntriesInRange(ctx context.Context, userID int64, from, to core.Date) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE user_id = ? AND occurred_on >= ? AND occurred_on <= ?
		ORDER BY occurred_on ASC, id ASC`, userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("entries in range: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("entries in range: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("entries in range: %w", err)
	}
	return entries, nil
}

func (r *Repository) CountEntries(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// CountEntriesSince counts the user's entries dated on or after the given day.
func (r *Repository) CountEntriesSince(ctx context.Context, userID int64, from core.Date) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE user_id = ? AND occurred_on >= ?`,
		userID, from.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries since: %w", err)
	}
	return n, nil
}

// UpdateEntry rewrites the editable fields of an entry. A nil receipt leaves
// the stored blob untouched.
func (r *Repository) UpdateEntry(ctx context.Context, e core.LedgerEntry, receipt *core.Receipt) error {
	var res sql.Result
	var err error
	if receipt != nil {
		res, err = r.db.ExecContext(ctx, `
			UPDATE entries SET kind = ?, category = ?, amount_cents = ?,
				occurred_on = ?, description = ?, currency = ?,
				receipt = ?, receipt_content_type = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND user_id = ?`,
			e.Kind, e.Category, e.Amount.Cents, e.OccurredOn.String(),
			e.Description, e.Currency, receipt.Data, receipt.ContentType,
			e.ID, e.UserID)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE entries SET kind = ?, category = ?, amount_cents = ?,
				occurred_on = ?, description = ?, currency = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND user_id = ?`,
			e.Kind, e.Category, e.Amount.Cents, e.OccurredOn.String(),
			e.Description, e.Currency, e.ID, e.UserID)
	}
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireRow(res, "update entry")
}

func (r *Repository) DeleteEntry(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRow(res, "delete entry")
}

func (r *Repository) GetReceipt(ctx context.Context, userID, entryID int64) (*core.Receipt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT receipt, receipt_content_type FROM entries
		WHERE id = ? AND user_id = ?`, entryID, userID)
	var data []byte
	var contentType string
	err := row.Scan(&data, &contentType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	if len(data) == 0 {
		return nil, core.ErrNotFound
	}
	return &core.Receipt{Data: data, ContentType: contentType}, nil
}

// DeleteEntriesByCategory removes every entry of the user labeled with a
// deleted category name.
func (r *Repository) DeleteEntriesByCategory(ctx context.Context, userID int64, name string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM entries WHERE user_id = ? AND category = ?`, userID, name)
	if err != nil {
		return fmt.Errorf("delete entries by category: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
