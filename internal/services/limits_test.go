package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"fintrack/internal/core"
)

func TestFreeEntryLimit(t *testing.T) {
	repo, u := seededRepo(t)
	svc := NewEntryService(repo, nil, testLogger())
	ctx := context.Background()

	for i := 0; i < FreeEntryLimit; i++ {
		_, err := svc.Create(ctx, u, core.LedgerEntry{
			Kind: core.Expense, Amount: core.Money{Cents: 100},
			OccurredOn: core.NewDate(2024, 1, i+1),
		}, nil)
		if err != nil {
			t.Fatalf("Create() #%d error = %v", i, err)
		}
	}

	_, err := svc.Create(ctx, u, core.LedgerEntry{
		Kind: core.Expense, Amount: core.Money{Cents: 100},
		OccurredOn: core.NewDate(2024, 2, 1),
	}, nil)
	if !errors.Is(err, ErrFreeLimitReached) {
		t.Errorf("Create() over limit error = %v, want ErrFreeLimitReached", err)
	}

	// Premium lifts the ceiling.
	u.IsPremium = true
	if _, err := svc.Create(ctx, u, core.LedgerEntry{
		Kind: core.Expense, Amount: core.Money{Cents: 100},
		OccurredOn: core.NewDate(2024, 2, 1),
	}, nil); err != nil {
		t.Errorf("premium Create() error = %v", err)
	}
}

func TestFreeRuleLimit(t *testing.T) {
	repo, u := seededRepo(t)
	svc := NewRuleService(repo, testLogger())
	ctx := context.Background()

	for i := 0; i < FreeRuleLimit; i++ {
		_, err := svc.Create(ctx, u, core.RecurrenceRule{
			Title: fmt.Sprintf("Rule %d", i), Kind: core.Expense,
			Amount: core.Money{Cents: 100}, Frequency: core.Monthly, DayOfMonth: 1,
		})
		if err != nil {
			t.Fatalf("Create() #%d error = %v", i, err)
		}
	}

	_, err := svc.Create(ctx, u, core.RecurrenceRule{
		Title: "One too many", Kind: core.Expense,
		Amount: core.Money{Cents: 100}, Frequency: core.Monthly, DayOfMonth: 1,
	})
	if !errors.Is(err, ErrFreeLimitReached) {
		t.Errorf("Create() over limit error = %v, want ErrFreeLimitReached", err)
	}
}

func TestFreeCategoryLimit(t *testing.T) {
	repo, u := seededRepo(t)
	svc := NewCategoryService(repo, testLogger())
	ctx := context.Background()

	for i := 0; i < FreeCategoryLimit; i++ {
		_, err := svc.Create(ctx, u, core.Category{
			Name: fmt.Sprintf("Category %d", i), Kind: core.Expense,
		})
		if err != nil {
			t.Fatalf("Create() #%d error = %v", i, err)
		}
	}

	_, err := svc.Create(ctx, u, core.Category{Name: "Overflow", Kind: core.Expense})
	if !errors.Is(err, ErrFreeLimitReached) {
		t.Errorf("Create() over limit error = %v, want ErrFreeLimitReached", err)
	}
}

func TestAdminExemptFromFreeLimits(t *testing.T) {
	repo, _ := seededRepo(t)
	ctx := context.Background()

	admin := &core.User{Email: "admin@example.com", PasswordHash: "x", Role: core.RoleAdmin}
	if err := repo.CreateUser(ctx, admin); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	entries := NewEntryService(repo, nil, testLogger())
	for i := 0; i < FreeEntryLimit+1; i++ {
		_, err := entries.Create(ctx, admin, core.LedgerEntry{
			Kind: core.Expense, Amount: core.Money{Cents: 100},
			OccurredOn: core.NewDate(2024, 1, i+1),
		}, nil)
		if err != nil {
			t.Fatalf("admin entry Create() #%d error = %v", i+1, err)
		}
	}

	rules := NewRuleService(repo, testLogger())
	for i := 0; i < FreeRuleLimit+1; i++ {
		_, err := rules.Create(ctx, admin, core.RecurrenceRule{
			Title: fmt.Sprintf("Rule %d", i), Kind: core.Expense,
			Amount: core.Money{Cents: 100}, Frequency: core.Monthly, DayOfMonth: 1,
		})
		if err != nil {
			t.Fatalf("admin rule Create() #%d error = %v", i+1, err)
		}
	}

	categories := NewCategoryService(repo, testLogger())
	for i := 0; i < FreeCategoryLimit+1; i++ {
		_, err := categories.Create(ctx, admin, core.Category{
			Name: fmt.Sprintf("Category %d", i), Kind: core.Expense,
		})
		if err != nil {
			t.Fatalf("admin category Create() #%d error = %v", i+1, err)
		}
	}
}

func TestRuleCreateComputesNextRun(t *testing.T) {
	repo, u := seededRepo(t)
	svc := NewRuleService(repo, testLogger())
	u.IsPremium = true

	rule, err := svc.Create(context.Background(), u, core.RecurrenceRule{
		Title: "Salary", Kind: core.Income,
		Amount: core.Money{Cents: 500000}, Frequency: core.Monthly, DayOfMonth: 27,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rule.NextRun.IsZero() {
		t.Error("NextRun not computed on create")
	}
	if rule.NextRun.Day() > 27 {
		t.Errorf("NextRun day = %d, want at most 27", rule.NextRun.Day())
	}
}
