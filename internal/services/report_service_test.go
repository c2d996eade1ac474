package services

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func seededRepo(t *testing.T) (*storage.Repository, *core.User) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	u := &core.User{Email: "user@example.com", PasswordHash: "x"}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return repo, u
}

func TestBuildReport(t *testing.T) {
	repo, u := seededRepo(t)
	ctx := context.Background()

	seed := []struct {
		kind  core.EntryKind
		cents int64
		date  core.Date
	}{
		{core.Income, 500000, core.NewDate(2024, 1, 5)},
		{core.Expense, 120000, core.NewDate(2024, 1, 5)},
		{core.Expense, 4000, core.NewDate(2024, 1, 20)},
	}
	for _, s := range seed {
		_, err := repo.CreateEntry(ctx, core.LedgerEntry{
			UserID: u.ID, Kind: s.kind, Category: "General",
			Amount: core.Money{Cents: s.cents}, OccurredOn: s.date, Currency: "USD",
		}, nil)
		if err != nil {
			t.Fatalf("CreateEntry() error = %v", err)
		}
	}

	svc := NewReportService(repo, testLogger())

	start := core.NewDate(2024, 1, 1)
	end := core.NewDate(2024, 1, 31)
	report, err := svc.Build(ctx, u.ID, &start, &end)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if report.TotalIncome.Cents != 500000 {
		t.Errorf("TotalIncome = %d, want 500000", report.TotalIncome.Cents)
	}
	if report.TotalExpenses.Cents != 124000 {
		t.Errorf("TotalExpenses = %d, want 124000", report.TotalExpenses.Cents)
	}
	if report.Balance.Cents != 376000 {
		t.Errorf("Balance = %d, want 376000", report.Balance.Cents)
	}

	// A 30-day span buckets by day.
	if report.Granularity != core.ByDay {
		t.Errorf("Granularity = %s, want day", report.Granularity)
	}
	if len(report.Trend) != 2 {
		t.Fatalf("Trend has %d buckets, want 2", len(report.Trend))
	}
	if report.Trend[0].Period != "2024-01-05" || report.Trend[0].Income.Cents != 500000 || report.Trend[0].Expense.Cents != 120000 {
		t.Errorf("Trend[0] = %+v", report.Trend[0])
	}
}

func TestBuildReportDefaultsToHistoryBounds(t *testing.T) {
	repo, u := seededRepo(t)
	ctx := context.Background()

	for _, d := range []core.Date{core.NewDate(2023, 6, 1), core.NewDate(2024, 2, 1)} {
		_, err := repo.CreateEntry(ctx, core.LedgerEntry{
			UserID: u.ID, Kind: core.Expense, Amount: core.Money{Cents: 100},
			OccurredOn: d, Currency: "USD",
		}, nil)
		if err != nil {
			t.Fatalf("CreateEntry() error = %v", err)
		}
	}

	svc := NewReportService(repo, testLogger())
	report, err := svc.Build(ctx, u.ID, nil, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if report.Start.String() != "2023-06-01" || report.End.String() != "2024-02-01" {
		t.Errorf("bounds = %s..%s, want full history", report.Start, report.End)
	}
	// An eight-month span buckets by month.
	if report.Granularity != core.ByMonth {
		t.Errorf("Granularity = %s, want month", report.Granularity)
	}
}

func TestBuildReportEmptyLedger(t *testing.T) {
	repo, u := seededRepo(t)

	svc := NewReportService(repo, testLogger())
	report, err := svc.Build(context.Background(), u.ID, nil, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if report.Start != report.End {
		t.Errorf("empty ledger bounds = %s..%s, want a single day", report.Start, report.End)
	}
	if report.TotalIncome.Cents != 0 || report.TotalExpenses.Cents != 0 {
		t.Errorf("empty ledger totals = %+v", report)
	}
	if len(report.Trend) != 0 {
		t.Errorf("empty ledger trend has %d buckets, want 0", len(report.Trend))
	}
}

func TestBuildReportEmptyLedgerKeepsRequestedBound(t *testing.T) {
	repo, u := seededRepo(t)
	svc := NewReportService(repo, testLogger())

	start := core.NewDate(2024, 1, 1)
	report, err := svc.Build(context.Background(), u.ID, &start, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if report.Start.String() != "2024-01-01" {
		t.Errorf("Start = %s, want requested 2024-01-01", report.Start)
	}
	today := core.DateOf(nowUTC())
	if report.End.String() != today.String() {
		t.Errorf("End = %s, want defaulted %s", report.End, today)
	}

	end := core.NewDate(2024, 6, 30)
	report, err = svc.Build(context.Background(), u.ID, nil, &end)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if report.End.String() != "2024-06-30" {
		t.Errorf("End = %s, want requested 2024-06-30", report.End)
	}
}
