package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps domain errors to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrFreeLimitReached):
		writeError(w, http.StatusForbidden, "free plan limit reached, upgrade to premium")
	case errors.Is(err, services.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrEmailNotVerified):
		writeError(w, http.StatusForbidden, "email not verified")
	case errors.Is(err, services.ErrInvalidOTP):
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidKind,
		core.ErrInvalidFrequency,
		core.ErrInvalidDay,
		core.ErrInvalidMonth,
		core.ErrEmptyTitle,
		core.ErrYearOutOfRange,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// ---- JSON shapes ----

type userJSON struct {
	ID               int64  `json:"id"`
	Email            string `json:"email"`
	FullName         string `json:"fullName"`
	BusinessName     string `json:"businessName,omitempty"`
	AvatarURL        string `json:"avatarUrl,omitempty"`
	IsPremium        bool   `json:"isPremium"`
	Role             string `json:"role"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
}

func toUserJSON(u *core.User) userJSON {
	return userJSON{
		ID:               u.ID,
		Email:            u.Email,
		FullName:         u.FullName,
		BusinessName:     u.BusinessName,
		AvatarURL:        u.AvatarURL,
		IsPremium:        u.IsPremium,
		Role:             u.Role,
		TwoFactorEnabled: u.TwoFactorEnabled,
	}
}

type entryJSON struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amountCents"`
	Amount      string `json:"amount"`
	OccurredOn  string `json:"occurredOn"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
	HasReceipt  bool   `json:"hasReceipt"`
}

func toEntryJSON(e core.LedgerEntry) entryJSON {
	return entryJSON{
		ID:          e.ID,
		Kind:        string(e.Kind),
		Category:    e.Category,
		AmountCents: e.Amount.Cents,
		Amount:      e.Amount.Decimal(),
		OccurredOn:  e.OccurredOn.String(),
		Description: e.Description,
		Currency:    e.Currency,
		HasReceipt:  e.HasReceipt,
	}
}

type categoryJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Kind: string(c.Kind)}
}

type ruleJSON struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Kind        string `json:"kind"`
	AmountCents int64  `json:"amountCents"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Frequency   string `json:"frequency"`
	DayOfMonth  int    `json:"dayOfMonth"`
	Month       int    `json:"month,omitempty"`
	Currency    string `json:"currency"`
	NextRun     string `json:"nextRun"`
}

func toRuleJSON(r core.RecurrenceRule) ruleJSON {
	return ruleJSON{
		ID:          r.ID,
		Title:       r.Title,
		Kind:        string(r.Kind),
		AmountCents: r.Amount.Cents,
		Amount:      r.Amount.Decimal(),
		Category:    r.Category,
		Frequency:   string(r.Frequency),
		DayOfMonth:  r.DayOfMonth,
		Month:       r.Month,
		Currency:    r.Currency,
		NextRun:     r.NextRun.String(),
	}
}

type notificationJSON struct {
	Message string `json:"message"`
	Read    bool   `json:"read"`
}

type trendBucketJSON struct {
	Period       string `json:"period"`
	IncomeCents  int64  `json:"incomeCents"`
	ExpenseCents int64  `json:"expenseCents"`
}

type categoryTotalJSON struct {
	Name       string `json:"name"`
	TotalCents int64  `json:"totalCents"`
}

type reportJSON struct {
	Start        string              `json:"start"`
	End          string              `json:"end"`
	Granularity  string              `json:"granularity"`
	IncomeCents  int64               `json:"incomeCents"`
	ExpenseCents int64               `json:"expenseCents"`
	BalanceCents int64               `json:"balanceCents"`
	ByCategory   []categoryTotalJSON `json:"byCategory"`
	Trend        []trendBucketJSON   `json:"trend"`
}

func toReportJSON(r core.Report) reportJSON {
	out := reportJSON{
		Start:        r.Start.String(),
		End:          r.End.String(),
		Granularity:  string(r.Granularity),
		IncomeCents:  r.TotalIncome.Cents,
		ExpenseCents: r.TotalExpenses.Cents,
		BalanceCents: r.Balance.Cents,
		ByCategory:   make([]categoryTotalJSON, 0, len(r.ByCategory)),
		Trend:        make([]trendBucketJSON, 0, len(r.Trend)),
	}
	for _, ct := range r.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryTotalJSON{Name: ct.Name, TotalCents: ct.Total.Cents})
	}
	for _, b := range r.Trend {
		out.Trend = append(out.Trend, trendBucketJSON{
			Period:       b.Period,
			IncomeCents:  b.Income.Cents,
			ExpenseCents: b.Expense.Cents,
		})
	}
	return out
}
