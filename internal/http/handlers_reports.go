package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	start, err := dateParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := dateParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if start != nil && end != nil && end.BeforeDay(*start) {
		writeError(w, http.StatusBadRequest, "end date before start date")
		return
	}

	report, err := s.reports.Build(r.Context(), user.ID, start, end)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "build report failed",
			log.FieldUserID, user.ID, log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportJSON(report))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := currentUser(r)
	start, err := dateParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := dateParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Full history when the range is omitted.
	from, to := core.NewDate(0, 1, 1), core.NewDate(9999, 12, 31)
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = services.FormatCSV
	}

	file, err := s.exports.Export(r.Context(), user, from, to, format)
	if errors.Is(err, services.ErrFreeLimitReached) {
		writeServiceError(w, err)
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "export failed",
			log.FieldUserID, user.ID, log.FieldFormat, format, log.FieldError, err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// handleRates returns the cached EUR-based reference rate table.
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.rates == nil {
		writeError(w, http.StatusNotImplemented, "rates not configured")
		return
	}

	rates, err := s.rates.Rates(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "rate fetch failed", log.FieldError, err)
		writeError(w, http.StatusBadGateway, "rates unavailable")
		return
	}

	out := make(map[string]string, len(rates))
	for currency, rate := range rates {
		out[currency] = rate.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{"base": "EUR", "rates": out})
}

// handleConvert converts an amount between currencies using the daily
// reference rates.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.rates == nil {
		writeError(w, http.StatusNotImplemented, "rates not configured")
		return
	}

	amountStr := strings.TrimSpace(r.URL.Query().Get("amount"))
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if amountStr == "" || from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "amount, from and to parameters are required")
		return
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	converted, err := s.rates.Convert(r.Context(), amount, from, to)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"amount":    amount.String(),
		"from":      strings.ToUpper(from),
		"to":        strings.ToUpper(to),
		"converted": converted.StringFixed(2),
	})
}
