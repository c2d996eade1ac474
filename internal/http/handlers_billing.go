package http

import (
	"io"
	"net/http"

	"fintrack/internal/log"
)

// handleCheckout starts a Stripe subscription checkout for the premium plan.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.billing == nil {
		writeError(w, http.StatusNotImplemented, "billing not configured")
		return
	}

	user := currentUser(r)
	if user.IsPremium {
		writeError(w, http.StatusConflict, "already premium")
		return
	}

	customerID, err := s.billing.GetOrCreateCustomer(user.Email, user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "stripe customer lookup failed",
			log.FieldUserID, user.ID, log.FieldError, err)
		writeError(w, http.StatusBadGateway, "billing unavailable")
		return
	}

	result, err := s.billing.CreateCheckoutSession(customerID, user.ID,
		s.frontendURL+"/billing/success", s.frontendURL+"/billing/cancel")
	if err != nil {
		s.logger.ErrorContext(r.Context(), "checkout session failed",
			log.FieldUserID, user.ID, log.FieldError, err)
		writeError(w, http.StatusBadGateway, "billing unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"url":       result.URL,
		"sessionId": result.SessionID,
	})
}

// handleWebhook receives Stripe events. Signature verification inside the
// webhook handler is the authentication here.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.webhook == nil {
		writeError(w, http.StatusNotImplemented, "billing not configured")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if err := s.webhook.HandleEvent(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		s.logger.ErrorContext(r.Context(), "webhook rejected", log.FieldError, err)
		writeError(w, http.StatusBadRequest, "webhook rejected")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
