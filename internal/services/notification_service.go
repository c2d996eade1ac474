package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// upcomingRuleWindow is how far ahead the feed looks for scheduled firings.
const upcomingRuleWindow = 3

// Notification is one item of the in-app feed.
type Notification struct {
	Message string
	Read    bool
}

// NotificationService assembles the in-app notification feed: rules firing
// soon, the free-plan export warning, and a nudge when the past week has no
// ledger activity.
type NotificationService struct {
	store  *storage.Repository
	logger *log.Logger
	now    func() time.Time
}

func NewNotificationService(store *storage.Repository, logger *log.Logger) *NotificationService {
	return &NotificationService{
		store:  store,
		logger: logger.WithComponent(log.ComponentApp),
		now:    time.Now,
	}
}

func (s *NotificationService) Notifications(ctx context.Context, user *core.User) ([]Notification, error) {
	now := s.now().UTC()
	today := core.DateOf(now)
	horizon := core.DateOf(now.AddDate(0, 0, upcomingRuleWindow))

	notifications := []Notification{}

	upcoming, err := s.store.UpcomingRules(ctx, user.ID, today, horizon)
	if err != nil {
		return nil, err
	}
	for _, rule := range upcoming {
		notifications = append(notifications, Notification{
			Message: fmt.Sprintf("Upcoming %s of %s on %s",
				rule.Kind, rule.Amount.Decimal(), rule.NextRun.Format("02 Jan")),
		})
	}

	if onFreePlan(user) {
		count, err := s.store.CountExports(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if count >= FreeExportLimit-1 {
			notifications = append(notifications, Notification{
				Message: fmt.Sprintf("You have used %d/%d free exports. Upgrade to unlock more.",
					count, FreeExportLimit),
			})
		}
	}

	weekAgo := core.DateOf(now.AddDate(0, 0, -7))
	recent, err := s.store.CountEntriesSince(ctx, user.ID, weekAgo)
	if err != nil {
		return nil, err
	}
	if recent == 0 {
		notifications = append(notifications, Notification{
			Message: "No entries logged in the past week. Don't forget to add them.",
		})
	}

	s.logger.DebugContext(ctx, "notifications built",
		log.FieldUserID, user.ID, "count", len(notifications))
	return notifications, nil
}
