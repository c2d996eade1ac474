package http

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

const maxReceiptSize = 5 << 20 // 5 MiB

// decodeJSON parses a JSON request body into dst with unknown fields rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// entryRequest is the JSON or multipart form shape for entry writes.
type entryRequest struct {
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	OccurredOn  string `json:"occurredOn"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

func (req entryRequest) toEntry() (core.LedgerEntry, error) {
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("invalid amount %q: %w", req.Amount, core.ErrInvalidAmount)
	}
	occurredOn, err := core.ParseDate(strings.TrimSpace(req.OccurredOn))
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("invalid date %q", req.OccurredOn)
	}
	return core.LedgerEntry{
		Kind:        core.EntryKind(strings.TrimSpace(req.Kind)),
		Category:    sanitizeInput(req.Category),
		Amount:      core.Money{Cents: cents},
		OccurredOn:  occurredOn,
		Description: sanitizeInput(req.Description),
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
	}, nil
}

// parseEntryRequest accepts either a JSON body or a multipart form with an
// optional receipt file part.
func parseEntryRequest(r *http.Request) (core.LedgerEntry, *core.Receipt, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
			return core.LedgerEntry{}, nil, fmt.Errorf("parse multipart form: %w", err)
		}
		req := entryRequest{
			Kind:        r.FormValue("kind"),
			Category:    r.FormValue("category"),
			Amount:      r.FormValue("amount"),
			OccurredOn:  r.FormValue("occurredOn"),
			Description: r.FormValue("description"),
			Currency:    r.FormValue("currency"),
		}
		entry, err := req.toEntry()
		if err != nil {
			return core.LedgerEntry{}, nil, err
		}

		receipt, err := receiptFromForm(r)
		if err != nil {
			return core.LedgerEntry{}, nil, err
		}
		return entry, receipt, nil
	}

	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		return core.LedgerEntry{}, nil, err
	}
	entry, err := req.toEntry()
	return entry, nil, err
}

func receiptFromForm(r *http.Request) (*core.Receipt, error) {
	file, header, err := r.FormFile("receipt")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read receipt part: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxReceiptSize+1))
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	if len(data) > maxReceiptSize {
		return nil, fmt.Errorf("receipt larger than %d bytes", maxReceiptSize)
	}

	return &core.Receipt{
		Data:        data,
		ContentType: receiptContentType(header),
	}, nil
}

func receiptContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// ruleRequest is the JSON shape for rule writes.
type ruleRequest struct {
	Title      string `json:"title"`
	Kind       string `json:"kind"`
	Amount     string `json:"amount"`
	Category   string `json:"category"`
	Frequency  string `json:"frequency"`
	DayOfMonth int    `json:"dayOfMonth"`
	Month      int    `json:"month"`
	Currency   string `json:"currency"`
}

func (req ruleRequest) toRule() (core.RecurrenceRule, error) {
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		return core.RecurrenceRule{}, fmt.Errorf("invalid amount %q: %w", req.Amount, core.ErrInvalidAmount)
	}
	return core.RecurrenceRule{
		Title:      sanitizeInput(req.Title),
		Kind:       core.EntryKind(strings.TrimSpace(req.Kind)),
		Amount:     core.Money{Cents: cents},
		Category:   sanitizeInput(req.Category),
		Frequency:  core.Frequency(strings.TrimSpace(req.Frequency)),
		DayOfMonth: req.DayOfMonth,
		Month:      req.Month,
		Currency:   strings.ToUpper(strings.TrimSpace(req.Currency)),
	}, nil
}

// categoryRequest is the JSON shape for category writes.
type categoryRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (req categoryRequest) toCategory() core.Category {
	return core.Category{
		Name: sanitizeInput(req.Name),
		Kind: core.EntryKind(strings.TrimSpace(req.Kind)),
	}
}
