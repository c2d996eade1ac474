package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"fintrack/internal/log"
)

// UserStore is the slice of storage the webhook needs.
type UserStore interface {
	SetUserPremium(ctx context.Context, id int64, premium bool) error
}

// WebhookHandler verifies and applies Stripe webhook events.
type WebhookHandler struct {
	store         UserStore
	webhookSecret string
	logger        *log.Logger
}

func NewWebhookHandler(store UserStore, webhookSecret string, logger *log.Logger) *WebhookHandler {
	return &WebhookHandler{
		store:         store,
		webhookSecret: webhookSecret,
		logger:        logger.WithComponent(log.ComponentBilling),
	}
}

// HandleEvent verifies the payload signature and applies the event. The
// caller returns 200 on nil error so Stripe stops retrying.
func (h *WebhookHandler) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, h.webhookSecret)
	if err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	switch event.Type {
	case "checkout.session.completed":
		return h.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.deleted":
		return h.handleSubscriptionDeleted(ctx, event)
	default:
		h.logger.InfoContext(ctx, "unhandled stripe event", "type", event.Type)
		return nil
	}
}

func (h *WebhookHandler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session struct {
		Customer string            `json:"customer"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("parse checkout.session.completed: %w", err)
	}

	userID, err := userIDFromMetadata(session.Metadata)
	if err != nil {
		h.logger.WarnContext(ctx, "checkout completed without usable metadata", log.FieldError, err)
		return nil
	}

	if err := h.store.SetUserPremium(ctx, userID, true); err != nil {
		return fmt.Errorf("upgrade user %d: %w", userID, err)
	}
	h.logger.InfoContext(ctx, "user upgraded to premium",
		log.FieldUserID, userID, "customer", session.Customer)
	return nil
}

func (h *WebhookHandler) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub struct {
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("parse customer.subscription.deleted: %w", err)
	}

	userID, err := userIDFromMetadata(sub.Metadata)
	if err != nil {
		h.logger.WarnContext(ctx, "subscription deleted without usable metadata", log.FieldError, err)
		return nil
	}

	if err := h.store.SetUserPremium(ctx, userID, false); err != nil {
		return fmt.Errorf("downgrade user %d: %w", userID, err)
	}
	h.logger.InfoContext(ctx, "user downgraded from premium", log.FieldUserID, userID)
	return nil
}

func userIDFromMetadata(metadata map[string]string) (int64, error) {
	raw := metadata["fintrack_user_id"]
	if raw == "" {
		return 0, fmt.Errorf("missing fintrack_user_id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse fintrack_user_id %q: %w", raw, err)
	}
	return id, nil
}
