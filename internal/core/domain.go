package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  EntryKind = "income"
	Expense EntryKind = "expense"
)

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// DefaultCurrency is applied when a rule or entry omits its currency code.
const DefaultCurrency = "USD"

type (
	EntryKind string

	Frequency string

	// Date is a calendar date at day granularity. The embedded time is
	// always midnight UTC; all dueness comparisons ignore time-of-day.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID               int64
		Email            string
		PasswordHash     string
		FullName         string
		BusinessName     string
		AvatarURL        string
		IsPremium        bool
		Role             string
		TwoFactorEnabled bool
		CreatedAt        time.Time
		UpdatedAt        time.Time
	}

	Category struct {
		ID        int64
		UserID    int64
		Name      string
		Kind      EntryKind
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// LedgerEntry is a realized, dated income or expense record. Entries are
	// created directly by their owner or by the recurrence materializer on a
	// rule's behalf; they hold no reference back to the originating rule.
	LedgerEntry struct {
		ID          int64
		UserID      int64
		Kind        EntryKind
		Category    string
		Amount      Money
		OccurredOn  Date
		Description string
		Currency    string
		HasReceipt  bool
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Receipt is an attachment blob stored alongside an entry.
	Receipt struct {
		Data        []byte
		ContentType string
	}

	// RecurrenceRule is a user-defined recurring income or expense template.
	// The materializer reads it and rewrites NextRun after each firing; the
	// owner edits everything else through CRUD.
	RecurrenceRule struct {
		ID         int64
		UserID     int64
		Title      string
		Kind       EntryKind
		Amount     Money
		Category   string
		Frequency  Frequency
		DayOfMonth int
		// Month is 1..12 and only meaningful for yearly rules. It is stored
		// but ignored for monthly rules, matching the persisted shape.
		Month     int
		Currency  string
		NextRun   Date
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	ExportLog struct {
		ID        int64
		UserID    int64
		Format    string
		Reference string
		Rows      int
		CreatedAt time.Time
	}
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid kind")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidDay       = errors.New("day of month out of range")
	ErrInvalidMonth     = errors.New("month out of range")
	ErrEmptyTitle       = errors.New("empty title")
	ErrYearOutOfRange   = errors.New("next run year out of range")
	ErrNotFound         = errors.New("not found")
)

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// BeforeDay reports whether d falls on an earlier calendar day than other,
// ignoring time-of-day entirely.
func (d Date) BeforeDay(other Date) bool {
	if d.Year() != other.Year() {
		return d.Year() < other.Year()
	}
	if d.Month() != other.Month() {
		return d.Month() < other.Month()
	}
	return d.Day() < other.Day()
}

func (k EntryKind) Valid() bool {
	return k == Income || k == Expense
}

func (f Frequency) Valid() bool {
	return f == Monthly || f == Yearly
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e LedgerEntry) Validate() error {
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.OccurredOn.IsZero() {
		return errors.New("missing date")
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("empty category name")
	}
	if len(c.Name) > 64 {
		return errors.New("category name too long (max 64 characters)")
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// Validate checks every rule parameter at write time. The next-run calculator
// assumes an already-validated rule and has no error path of its own.
func (r RecurrenceRule) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	if len(r.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if !r.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if !r.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	if r.Frequency == Yearly && (r.Month < 1 || r.Month > 12) {
		return ErrInvalidMonth
	}
	if !r.NextRun.IsZero() {
		if y := r.NextRun.Year(); y < 0 || y > 9999 {
			return ErrYearOutOfRange
		}
	}
	return nil
}
