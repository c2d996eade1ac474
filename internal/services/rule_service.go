package services

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// RuleService manages recurrence rule CRUD. Every create or edit recomputes
// the rule's next run from the current clock; only the materializer advances
// it afterwards.
type RuleService struct {
	store  *storage.Repository
	logger *log.Logger
	now    func() time.Time
}

func NewRuleService(store *storage.Repository, logger *log.Logger) *RuleService {
	return &RuleService{
		store:  store,
		logger: logger.WithComponent(log.ComponentApp),
		now:    time.Now,
	}
}

func (s *RuleService) Create(ctx context.Context, user *core.User, rule core.RecurrenceRule) (core.RecurrenceRule, error) {
	rule.UserID = user.ID
	if rule.Currency == "" {
		rule.Currency = core.DefaultCurrency
	}
	if err := rule.Validate(); err != nil {
		return core.RecurrenceRule{}, err
	}

	if onFreePlan(user) {
		count, err := s.store.CountRules(ctx, user.ID)
		if err != nil {
			return core.RecurrenceRule{}, err
		}
		if count >= FreeRuleLimit {
			return core.RecurrenceRule{}, ErrFreeLimitReached
		}
	}

	rule.NextRun = core.NextOccurrence(rule.Frequency, rule.DayOfMonth, rule.Month, s.now())

	id, err := s.store.CreateRule(ctx, rule)
	if err != nil {
		return core.RecurrenceRule{}, err
	}
	rule.ID = id

	s.logger.InfoContext(ctx, "rule created",
		log.FieldRuleID, id,
		log.FieldUserID, user.ID,
		log.FieldNextRun, rule.NextRun.String())
	return rule, nil
}

func (s *RuleService) Get(ctx context.Context, userID, id int64) (core.RecurrenceRule, error) {
	return s.store.GetRule(ctx, userID, id)
}

func (s *RuleService) List(ctx context.Context, userID int64) ([]core.RecurrenceRule, error) {
	return s.store.ListRules(ctx, userID)
}

func (s *RuleService) Update(ctx context.Context, userID int64, rule core.RecurrenceRule) (core.RecurrenceRule, error) {
	rule.UserID = userID
	if rule.Currency == "" {
		rule.Currency = core.DefaultCurrency
	}
	if err := rule.Validate(); err != nil {
		return core.RecurrenceRule{}, err
	}

	// Schedule parameters may have changed, so the next run is recomputed
	// rather than carried over.
	rule.NextRun = core.NextOccurrence(rule.Frequency, rule.DayOfMonth, rule.Month, s.now())

	if err := s.store.UpdateRule(ctx, rule); err != nil {
		return core.RecurrenceRule{}, err
	}

	s.logger.InfoContext(ctx, "rule updated",
		log.FieldRuleID, rule.ID,
		log.FieldUserID, userID,
		log.FieldNextRun, rule.NextRun.String())
	return s.store.GetRule(ctx, userID, rule.ID)
}

func (s *RuleService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteRule(ctx, userID, id)
}
