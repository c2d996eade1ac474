package services

import (
	"context"
	"errors"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Free-plan ceilings. Premium and admin accounts are unlimited.
const (
	FreeEntryLimit    = 5
	FreeCategoryLimit = 5
	FreeRuleLimit     = 2
	FreeExportLimit   = 5
)

var ErrFreeLimitReached = errors.New("free plan limit reached")

// onFreePlan reports whether the free-tier ceilings apply to this account.
func onFreePlan(user *core.User) bool {
	return !user.IsPremium && user.Role != core.RoleAdmin
}

// EntryService orchestrates ledger entry CRUD: validation, free-plan limits,
// persistence and the entry-created notification.
type EntryService struct {
	store     *storage.Repository
	publisher Publisher
	logger    *log.Logger
}

func NewEntryService(store *storage.Repository, publisher Publisher, logger *log.Logger) *EntryService {
	return &EntryService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentApp),
	}
}

func (s *EntryService) Create(ctx context.Context, user *core.User, entry core.LedgerEntry, receipt *core.Receipt) (core.LedgerEntry, error) {
	entry.UserID = user.ID
	if entry.Currency == "" {
		entry.Currency = core.DefaultCurrency
	}
	if err := entry.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	if onFreePlan(user) {
		count, err := s.store.CountEntries(ctx, user.ID)
		if err != nil {
			return core.LedgerEntry{}, err
		}
		if count >= FreeEntryLimit {
			return core.LedgerEntry{}, ErrFreeLimitReached
		}
	}

	id, err := s.store.CreateEntry(ctx, entry, receipt)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	entry.ID = id
	entry.HasReceipt = receipt != nil

	s.logger.InfoContext(ctx, "entry created",
		log.FieldEntryID, id,
		log.FieldUserID, user.ID,
		log.FieldAmount, entry.Amount.Cents,
		log.FieldOccurredOn, entry.OccurredOn.String())

	if s.publisher != nil {
		msg := amqp.NewEntryCreatedMessage(id, user.ID, entry.Description,
			string(entry.Kind), entry.Amount.Cents, entry.Currency, entry.OccurredOn.String())
		if err := s.publisher.PublishEntryCreated(ctx, msg); err != nil {
			s.logger.WarnContext(ctx, "failed to publish entry notification",
				log.FieldEntryID, id, log.FieldError, err)
		}
	}

	return entry, nil
}

func (s *EntryService) Get(ctx context.Context, userID, id int64) (core.LedgerEntry, error) {
	return s.store.GetEntry(ctx, userID, id)
}

func (s *EntryService) List(ctx context.Context, userID int64) ([]core.LedgerEntry, error) {
	return s.store.ListEntries(ctx, userID)
}

func (s *EntryService) Update(ctx context.Context, userID int64, entry core.LedgerEntry, receipt *core.Receipt) (core.LedgerEntry, error) {
	entry.UserID = userID
	if entry.Currency == "" {
		entry.Currency = core.DefaultCurrency
	}
	if err := entry.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	if err := s.store.UpdateEntry(ctx, entry, receipt); err != nil {
		return core.LedgerEntry{}, err
	}
	return s.store.GetEntry(ctx, userID, entry.ID)
}

func (s *EntryService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteEntry(ctx, userID, id)
}

func (s *EntryService) Receipt(ctx context.Context, userID, entryID int64) (*core.Receipt, error) {
	return s.store.GetReceipt(ctx, userID, entryID)
}
