package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", core.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("get entry: %w", core.ErrNotFound), http.StatusNotFound},
		{"free limit", services.ErrFreeLimitReached, http.StatusForbidden},
		{"email taken", services.ErrEmailTaken, http.StatusConflict},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unverified email", services.ErrEmailNotVerified, http.StatusForbidden},
		{"bad otp", services.ErrInvalidOTP, http.StatusUnauthorized},
		{"invalid amount", core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{"invalid kind", core.ErrInvalidKind, http.StatusUnprocessableEntity},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeServiceError(w, tt.err)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body["error"] == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestWriteServiceErrorHidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	writeServiceError(w, errors.New("sqlite: database locked at /var/db"))

	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "internal error" {
		t.Errorf("error = %q, internal detail leaked", body["error"])
	}
}

func TestEntryJSONAmount(t *testing.T) {
	entry := core.LedgerEntry{
		ID:         7,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 123456},
		Currency:   "EUR",
		OccurredOn: core.NewDate(2024, 3, 1),
	}
	j := toEntryJSON(entry)
	if j.AmountCents != 123456 {
		t.Errorf("AmountCents = %d, want 123456", j.AmountCents)
	}
	if j.Amount != "1234.56" {
		t.Errorf("Amount = %q, want %q", j.Amount, "1234.56")
	}
	if j.OccurredOn != "2024-03-01" {
		t.Errorf("OccurredOn = %q", j.OccurredOn)
	}
}
