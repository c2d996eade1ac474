package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the single persistence layer: users, OTP codes, categories,
// ledger entries, recurrence rules and export logs all live in one SQLite
// database. The database is also the only concurrency control in the system;
// there are no in-process locks above it.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
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

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// parseTimestamp parses SQLite DATETIME text. Zero time on failure; the
// stored timestamps are informational, not load-bearing.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ---- users ----

func (r *Repository) CreateUser(ctx context.Context, u *core.User) error {
	if u.Role == "" {
		u.Role = core.RoleUser
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, full_name, business_name, avatar_url, role)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.FullName, u.BusinessName, u.AvatarURL, u.Role)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user id: %w", err)
	}
	return nil
}

func (r *Repository) scanUser(row *sql.Row) (*core.User, error) {
	u := &core.User{}
	var premium, twoFactor int
	var createdAt, updatedAt string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.BusinessName,
		&u.AvatarURL, &premium, &u.Role, &twoFactor, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.IsPremium = premium != 0
	u.TwoFactorEnabled = twoFactor != 0
	u.CreatedAt = parseTimestamp(createdAt)
	u.UpdatedAt = parseTimestamp(updatedAt)
	return u, nil
}

const userColumns = `id, email, password_hash, full_name, business_name,
	avatar_url, is_premium, role, two_factor_enabled, created_at, updated_at`

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *Repository) UpdateUserProfile(ctx context.Context, id int64, fullName, businessName, avatarURL string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET full_name = ?, business_name = ?, avatar_url = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, fullName, businessName, avatarURL, id)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}

func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return nil
}

func (r *Repository) SetUserPremium(ctx context.Context, id int64, premium bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_premium = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, boolInt(premium), id)
	if err != nil {
		return fmt.Errorf("set user premium: %w", err)
	}
	return nil
}

func (r *Repository) SetUserTwoFactor(ctx context.Context, id int64, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET two_factor_enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, boolInt(enabled), id)
	if err != nil {
		return fmt.Errorf("set user two factor: %w", err)
	}
	return nil
}

// ---- otp codes ----

// OTPCode is a one-time email verification code.
type OTPCode struct {
	ID        int64
	Email     string
	Code      string
	Verified  bool
	ExpiresAt time.Time
}

func (r *Repository) CreateOTP(ctx context.Context, email, code string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO otp_codes (email, code, expires_at) VALUES (?, ?, ?)`,
		email, code, expiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("create otp: %w", err)
	}
	return nil
}

func (r *Repository) GetOTP(ctx context.Context, email, code string) (*OTPCode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, code, verified, expires_at
		FROM otp_codes WHERE email = ? AND code = ?
		ORDER BY id DESC LIMIT 1`, email, code)

	otp := &OTPCode{}
	var verified int
	var expiresAt string
	err := row.Scan(&otp.ID, &otp.Email, &otp.Code, &verified, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get otp: %w", err)
	}
	otp.Verified = verified != 0
	if t, err := time.Parse(time.RFC3339, expiresAt); err == nil {
		otp.ExpiresAt = t
	}
	return otp, nil
}

func (r *Repository) MarkOTPVerified(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE otp_codes SET verified = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark otp verified: %w", err)
	}
	return nil
}

// HasVerifiedOTP reports whether the most recent code for the email was
// verified, gating registration the way the signup flow requires.
func (r *Repository) HasVerifiedOTP(ctx context.Context, email string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT verified FROM otp_codes WHERE email = ? ORDER BY id DESC LIMIT 1`, email)
	var verified int
	err := row.Scan(&verified)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check verified otp: %w", err)
	}
	return verified != 0, nil
}

func (r *Repository) DeleteOTPs(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("delete otps: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
