package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
)

func TestCategoryDeleteCascadesToEntries(t *testing.T) {
	repo, u := seededRepo(t)
	ctx := context.Background()

	categories := NewCategoryService(repo, testLogger())
	entries := NewEntryService(repo, nil, testLogger())

	cat, err := categories.Create(ctx, u, core.Category{Name: "Food", Kind: core.Expense})
	if err != nil {
		t.Fatalf("Create() category error = %v", err)
	}

	food, err := entries.Create(ctx, u, core.LedgerEntry{
		Kind: core.Expense, Category: "Food",
		Amount: core.Money{Cents: 1500}, OccurredOn: core.NewDate(2024, 1, 1),
	}, nil)
	if err != nil {
		t.Fatalf("Create() food entry error = %v", err)
	}
	rent, err := entries.Create(ctx, u, core.LedgerEntry{
		Kind: core.Expense, Category: "Rent",
		Amount: core.Money{Cents: 90000}, OccurredOn: core.NewDate(2024, 1, 2),
	}, nil)
	if err != nil {
		t.Fatalf("Create() rent entry error = %v", err)
	}

	if err := categories.Delete(ctx, u.ID, cat.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := entries.Get(ctx, u.ID, food.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() cascaded entry error = %v, want ErrNotFound", err)
	}
	if _, err := entries.Get(ctx, u.ID, rent.ID); err != nil {
		t.Errorf("Get() unrelated entry error = %v, want kept", err)
	}
}

func TestCategoryDeleteUnknownID(t *testing.T) {
	repo, u := seededRepo(t)
	categories := NewCategoryService(repo, testLogger())

	err := categories.Delete(context.Background(), u.ID, 9999)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete(unknown) error = %v, want ErrNotFound", err)
	}
}
