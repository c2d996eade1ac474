package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

type fakeRuleStore struct {
	due        []core.RecurrenceRule
	dueErr     error
	advanced   map[int64]core.Date
	advanceErr map[int64]error
}

func (f *fakeRuleStore) DueRules(ctx context.Context, now core.Date) ([]core.RecurrenceRule, error) {
	return f.due, f.dueErr
}

func (f *fakeRuleStore) UpdateRuleNextRun(ctx context.Context, id int64, nextRun core.Date) error {
	if err := f.advanceErr[id]; err != nil {
		return err
	}
	if f.advanced == nil {
		f.advanced = make(map[int64]core.Date)
	}
	f.advanced[id] = nextRun
	return nil
}

type fakeEntryStore struct {
	created   []core.LedgerEntry
	createErr map[int64]error // keyed by rule user id for targeting
	nextID    int64
}

func (f *fakeEntryStore) CreateEntry(ctx context.Context, e core.LedgerEntry, receipt *core.Receipt) (int64, error) {
	if err := f.createErr[e.UserID]; err != nil {
		return 0, err
	}
	f.created = append(f.created, e)
	f.nextID++
	return f.nextID, nil
}

type fakePublisher struct {
	published []*amqp.EntryCreatedMessage
	err       error
}

func (f *fakePublisher) PublishEntryCreated(ctx context.Context, msg *amqp.EntryCreatedMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

func monthlyRule(id, userID int64, day int, nextRun core.Date) core.RecurrenceRule {
	return core.RecurrenceRule{
		ID:         id,
		UserID:     userID,
		Title:      "Rent",
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 120000},
		Frequency:  core.Monthly,
		DayOfMonth: day,
		Currency:   "USD",
		NextRun:    nextRun,
	}
}

func TestRunMaterializesDueRules(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 5, 0, 0, time.UTC)
	rules := &fakeRuleStore{due: []core.RecurrenceRule{
		monthlyRule(1, 10, 15, core.NewDate(2024, 3, 15)),
		monthlyRule(2, 11, 1, core.NewDate(2024, 3, 1)), // overdue, fires once
	}}
	entries := &fakeEntryStore{}
	pub := &fakePublisher{}

	m := NewMaterializer(rules, entries, pub, testLogger())
	result, err := m.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Processed != 2 || result.Failed != 0 {
		t.Errorf("Run() = %+v, want 2 processed, 0 failed", result)
	}
	if len(entries.created) != 2 {
		t.Fatalf("created %d entries, want 2", len(entries.created))
	}

	// Entries are dated to the rule's scheduled occurrence, not the batch day.
	if got := entries.created[0].OccurredOn.String(); got != "2024-03-15" {
		t.Errorf("entry 0 occurred on %s, want 2024-03-15", got)
	}
	if got := entries.created[1].OccurredOn.String(); got != "2024-03-01" {
		t.Errorf("entry 1 occurred on %s, want 2024-03-01", got)
	}

	if got := rules.advanced[1].String(); got != "2024-04-15" {
		t.Errorf("rule 1 advanced to %s, want 2024-04-15", got)
	}
	if got := rules.advanced[2].String(); got != "2024-04-01" {
		t.Errorf("rule 2 advanced to %s, want 2024-04-01", got)
	}

	if len(pub.published) != 2 {
		t.Errorf("published %d messages, want 2", len(pub.published))
	}
}

func TestRunNothingDue(t *testing.T) {
	rules := &fakeRuleStore{}
	entries := &fakeEntryStore{}

	m := NewMaterializer(rules, entries, nil, testLogger())
	result, err := m.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Processed != 0 || result.Failed != 0 {
		t.Errorf("Run() = %+v, want empty result", result)
	}
	if len(entries.created) != 0 {
		t.Errorf("created %d entries, want 0", len(entries.created))
	}
	if len(rules.advanced) != 0 {
		t.Errorf("advanced %d rules, want 0", len(rules.advanced))
	}
}

func TestRunEntryCreateFailureLeavesRuleDue(t *testing.T) {
	rules := &fakeRuleStore{due: []core.RecurrenceRule{
		monthlyRule(1, 10, 15, core.NewDate(2024, 3, 15)),
		monthlyRule(2, 11, 15, core.NewDate(2024, 3, 15)),
	}}
	entries := &fakeEntryStore{createErr: map[int64]error{10: errors.New("disk full")}}

	m := NewMaterializer(rules, entries, nil, testLogger())
	result, err := m.Run(context.Background(), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Processed != 1 || result.Failed != 1 {
		t.Errorf("Run() = %+v, want 1 processed, 1 failed", result)
	}
	// The failed rule was not advanced; the healthy one was.
	if _, ok := rules.advanced[1]; ok {
		t.Error("failed rule was advanced, want it left due")
	}
	if _, ok := rules.advanced[2]; !ok {
		t.Error("healthy rule was not advanced")
	}
}

func TestRunAdvanceFailureKeepsEntry(t *testing.T) {
	rules := &fakeRuleStore{
		due:        []core.RecurrenceRule{monthlyRule(1, 10, 15, core.NewDate(2024, 3, 15))},
		advanceErr: map[int64]error{1: errors.New("locked")},
	}
	entries := &fakeEntryStore{}

	m := NewMaterializer(rules, entries, nil, testLogger())
	result, err := m.Run(context.Background(), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The entry exists even though advancement failed; the rule will fire
	// again on the next batch.
	if result.Failed != 1 {
		t.Errorf("Run() = %+v, want 1 failed", result)
	}
	if len(entries.created) != 1 {
		t.Errorf("created %d entries, want 1", len(entries.created))
	}
}

func TestRunPublishFailureDoesNotFailRule(t *testing.T) {
	rules := &fakeRuleStore{due: []core.RecurrenceRule{
		monthlyRule(1, 10, 15, core.NewDate(2024, 3, 15)),
	}}
	entries := &fakeEntryStore{}
	pub := &fakePublisher{err: errors.New("broker down")}

	m := NewMaterializer(rules, entries, pub, testLogger())
	result, err := m.Run(context.Background(), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Processed != 1 || result.Failed != 0 {
		t.Errorf("Run() = %+v, want 1 processed, 0 failed", result)
	}
	if _, ok := rules.advanced[1]; !ok {
		t.Error("rule was not advanced after publish failure")
	}
}

func TestRunDueQueryError(t *testing.T) {
	rules := &fakeRuleStore{dueErr: errors.New("db closed")}
	m := NewMaterializer(rules, &fakeEntryStore{}, nil, testLogger())

	if _, err := m.Run(context.Background(), time.Now()); err == nil {
		t.Error("Run() with failing due query succeeded, want error")
	}
}
