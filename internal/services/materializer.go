package services

import (
	"context"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// RuleStore is the slice of storage the materializer reads and advances.
type RuleStore interface {
	DueRules(ctx context.Context, now core.Date) ([]core.RecurrenceRule, error)
	UpdateRuleNextRun(ctx context.Context, id int64, nextRun core.Date) error
}

// EntryStore writes the materialized entries.
type EntryStore interface {
	CreateEntry(ctx context.Context, e core.LedgerEntry, receipt *core.Receipt) (int64, error)
}

// Publisher pushes entry-created notifications. Optional; nil disables it.
type Publisher interface {
	PublishEntryCreated(ctx context.Context, msg *amqp.EntryCreatedMessage) error
}

// Materializer turns due recurrence rules into dated ledger entries. One Run
// is one daily batch: every rule with NextRun on or before today fires once,
// the entry is dated to the rule's scheduled NextRun, and NextRun advances by
// one period from the fired occurrence.
//
// The entry write and the NextRun advancement are separate statements, so a
// crash between them re-fires the rule on the next batch. Duplicate entries
// are preferred over silently skipped money.
type Materializer struct {
	rules     RuleStore
	entries   EntryStore
	publisher Publisher
	logger    *log.Logger
}

func NewMaterializer(rules RuleStore, entries EntryStore, publisher Publisher, logger *log.Logger) *Materializer {
	return &Materializer{
		rules:     rules,
		entries:   entries,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentMaterializer),
	}
}

// Result summarizes one batch.
type Result struct {
	Processed int
	Failed    int
}

// Run processes every due rule once. A failure on one rule is logged and
// counted but never aborts the batch; the failed rule stays due and is
// retried on the next run.
func (m *Materializer) Run(ctx context.Context, now time.Time) (Result, error) {
	today := core.DateOf(now)

	due, err := m.rules.DueRules(ctx, today)
	if err != nil {
		return Result{}, err
	}

	m.logger.InfoContext(ctx, "processing due recurrence rules",
		"due", len(due), "batch_date", today.String())

	var result Result
	for _, rule := range due {
		if err := m.materialize(ctx, rule); err != nil {
			m.logger.ErrorContext(ctx, "failed to materialize rule",
				log.FieldRuleID, rule.ID,
				log.FieldUserID, rule.UserID,
				log.FieldError, err)
			result.Failed++
			continue
		}
		result.Processed++
	}

	m.logger.InfoContext(ctx, "recurrence batch complete",
		"processed", result.Processed, "failed", result.Failed)
	return result, nil
}

func (m *Materializer) materialize(ctx context.Context, rule core.RecurrenceRule) error {
	fired := rule.NextRun

	entry := core.LedgerEntry{
		UserID:      rule.UserID,
		Kind:        rule.Kind,
		Category:    rule.Category,
		Amount:      rule.Amount,
		OccurredOn:  fired,
		Description: rule.Title,
		Currency:    rule.Currency,
	}

	entryID, err := m.entries.CreateEntry(ctx, entry, nil)
	if err != nil {
		return err
	}

	next := rule.Advance(fired)
	if err := m.rules.UpdateRuleNextRun(ctx, rule.ID, next); err != nil {
		// Entry exists but the rule still looks due; the next batch will
		// fire it again.
		return err
	}

	m.logger.InfoContext(ctx, "materialized entry from rule",
		log.FieldRuleID, rule.ID,
		log.FieldEntryID, entryID,
		log.FieldUserID, rule.UserID,
		log.FieldAmount, rule.Amount.Cents,
		log.FieldOccurredOn, fired.String(),
		log.FieldNextRun, next.String())

	if m.publisher != nil {
		msg := amqp.NewEntryCreatedMessage(entryID, rule.UserID, rule.Title,
			string(rule.Kind), rule.Amount.Cents, rule.Currency, fired.String())
		if err := m.publisher.PublishEntryCreated(ctx, msg); err != nil {
			// Notification is best effort, the ledger write already happened.
			m.logger.WarnContext(ctx, "failed to publish entry notification",
				log.FieldEntryID, entryID, log.FieldError, err)
		}
	}

	return nil
}
