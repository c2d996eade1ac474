package worker

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// UserStore looks up message recipients.
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*core.User, error)
}

// Emailer delivers the notification.
type Emailer interface {
	SendEntryNotification(user *core.User, entry core.LedgerEntry, title string) error
}

// NotifyWorker consumes entry-created messages and emails the owner. Handler
// errors requeue the delivery, so transient SMTP failures retry.
type NotifyWorker struct {
	store   UserStore
	emailer Emailer
	logger  *log.Logger
}

func NewNotifyWorker(store UserStore, emailer Emailer, logger *log.Logger) *NotifyWorker {
	return &NotifyWorker{
		store:   store,
		emailer: emailer,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEntryCreated processes one message.
func (w *NotifyWorker) HandleEntryCreated(ctx context.Context, msg *amqp.EntryCreatedMessage) error {
	user, err := w.store.GetUserByID(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", msg.UserID, err)
	}

	occurredOn, err := core.ParseDate(msg.OccurredOn)
	if err != nil {
		return fmt.Errorf("parse occurred on %q: %w", msg.OccurredOn, err)
	}

	entry := core.LedgerEntry{
		ID:         msg.EntryID,
		UserID:     msg.UserID,
		Kind:       core.EntryKind(msg.Kind),
		Amount:     core.Money{Cents: msg.AmountCents},
		Currency:   msg.Currency,
		OccurredOn: occurredOn,
	}

	title := msg.Title
	if title == "" {
		title = string(entry.Kind)
	}

	if err := w.emailer.SendEntryNotification(user, entry, title); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	w.logger.InfoContext(ctx, "entry notification delivered",
		log.FieldEntryID, msg.EntryID, log.FieldUserID, msg.UserID)
	return nil
}
