package http

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestEntryRequestToEntry(t *testing.T) {
	tests := []struct {
		name    string
		req     entryRequest
		wantErr bool
	}{
		{
			name: "valid expense",
			req: entryRequest{
				Kind: "expense", Amount: "12.34", OccurredOn: "2024-03-01",
				Description: "Lunch", Currency: "usd",
			},
		},
		{
			name: "comma decimal amount",
			req: entryRequest{
				Kind: "income", Amount: "1200,50", OccurredOn: "2024-03-01",
			},
		},
		{
			name:    "bad amount",
			req:     entryRequest{Kind: "expense", Amount: "abc", OccurredOn: "2024-03-01"},
			wantErr: true,
		},
		{
			name:    "bad date",
			req:     entryRequest{Kind: "expense", Amount: "10", OccurredOn: "03/01/2024"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := tt.req.toEntry()
			if tt.wantErr {
				if err == nil {
					t.Error("toEntry() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("toEntry() error = %v", err)
			}
			if entry.Currency != "" && entry.Currency != strings.ToUpper(entry.Currency) {
				t.Errorf("Currency = %q, want uppercase", entry.Currency)
			}
		})
	}
}

func TestEntryRequestAmountParsing(t *testing.T) {
	req := entryRequest{Kind: "expense", Amount: "1200,50", OccurredOn: "2024-03-01"}
	entry, err := req.toEntry()
	if err != nil {
		t.Fatalf("toEntry() error = %v", err)
	}
	if entry.Amount.Cents != 120050 {
		t.Errorf("Cents = %d, want 120050", entry.Amount.Cents)
	}
}

func TestParseEntryRequestJSON(t *testing.T) {
	body := `{"kind":"expense","amount":"10.00","occurredOn":"2024-03-01","description":"Taxi"}`
	r := httptest.NewRequest("POST", "/api/entries", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	entry, receipt, err := parseEntryRequest(r)
	if err != nil {
		t.Fatalf("parseEntryRequest() error = %v", err)
	}
	if receipt != nil {
		t.Error("JSON request produced a receipt")
	}
	if entry.Amount.Cents != 1000 || entry.Description != "Taxi" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestParseEntryRequestMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("kind", "expense")
	_ = mw.WriteField("amount", "25.00")
	_ = mw.WriteField("occurredOn", "2024-03-02")
	_ = mw.WriteField("description", "Groceries")
	part, _ := mw.CreateFormFile("receipt", "receipt.pdf")
	_, _ = part.Write([]byte("pdf-bytes"))
	mw.Close()

	r := httptest.NewRequest("POST", "/api/entries", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	entry, receipt, err := parseEntryRequest(r)
	if err != nil {
		t.Fatalf("parseEntryRequest() error = %v", err)
	}
	if entry.Amount.Cents != 2500 {
		t.Errorf("Cents = %d, want 2500", entry.Amount.Cents)
	}
	if receipt == nil {
		t.Fatal("multipart request with file produced no receipt")
	}
	if string(receipt.Data) != "pdf-bytes" {
		t.Errorf("receipt data = %q", receipt.Data)
	}
}

func TestParseEntryRequestMultipartWithoutFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("kind", "income")
	_ = mw.WriteField("amount", "5.00")
	_ = mw.WriteField("occurredOn", "2024-03-02")
	mw.Close()

	r := httptest.NewRequest("POST", "/api/entries", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	_, receipt, err := parseEntryRequest(r)
	if err != nil {
		t.Fatalf("parseEntryRequest() error = %v", err)
	}
	if receipt != nil {
		t.Error("multipart without file produced a receipt")
	}
}

func TestRuleRequestToRule(t *testing.T) {
	req := ruleRequest{
		Title: "Salary", Kind: "income", Amount: "5000.00",
		Frequency: "monthly", DayOfMonth: 27,
	}
	rule, err := req.toRule()
	if err != nil {
		t.Fatalf("toRule() error = %v", err)
	}
	if rule.Amount.Cents != 500000 {
		t.Errorf("Cents = %d, want 500000", rule.Amount.Cents)
	}
	if rule.Frequency != core.Monthly {
		t.Errorf("Frequency = %s", rule.Frequency)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  hello  ", "hello"},
		{"with\x00null", "withnull"},
		{"keep\ttabs", "keep\ttabs"},
		{"strip\x1bescape", "stripescape"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.expected {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestIDParam(t *testing.T) {
	tests := []struct {
		query   string
		want    int64
		wantErr bool
	}{
		{"id=42", 42, false},
		{"id=0", 0, true},
		{"id=-1", 0, true},
		{"id=abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/api/entries/item?"+tt.query, nil)
		got, err := idParam(r)
		if tt.wantErr {
			if err == nil {
				t.Errorf("idParam(%q) succeeded, want error", tt.query)
			}
			continue
		}
		if err != nil {
			t.Errorf("idParam(%q) error = %v", tt.query, err)
			continue
		}
		if got != tt.want {
			t.Errorf("idParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestDateParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/reports?start=2024-01-15", nil)
	d, err := dateParam(r, "start")
	if err != nil {
		t.Fatalf("dateParam() error = %v", err)
	}
	if d == nil || d.String() != "2024-01-15" {
		t.Errorf("dateParam() = %v", d)
	}

	r = httptest.NewRequest("GET", "/api/reports", nil)
	d, err = dateParam(r, "start")
	if err != nil || d != nil {
		t.Errorf("dateParam(absent) = %v, %v, want nil, nil", d, err)
	}

	r = httptest.NewRequest("GET", "/api/reports?start=junk", nil)
	if _, err := dateParam(r, "start"); err == nil {
		t.Error("dateParam(junk) succeeded, want error")
	}
}
