package core

import "testing"

func TestTrendGranularity(t *testing.T) {
	tests := []struct {
		name  string
		start Date
		end   Date
		want  Granularity
	}{
		{"single day", NewDate(2024, 5, 1), NewDate(2024, 5, 1), ByDay},
		{"exactly 30 days", NewDate(2024, 5, 1), NewDate(2024, 5, 31), ByDay},
		{"31 days", NewDate(2024, 5, 1), NewDate(2024, 6, 1), ByWeek},
		{"90 days", NewDate(2024, 1, 1), NewDate(2024, 3, 31), ByWeek},
		{"91 days", NewDate(2024, 1, 1), NewDate(2024, 4, 1), ByMonth},
		{"a full year", NewDate(2023, 1, 1), NewDate(2023, 12, 31), ByMonth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrendGranularity(tt.start, tt.end); got != tt.want {
				t.Errorf("TrendGranularity(%s, %s) = %s, want %s", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestPeriodKey(t *testing.T) {
	tests := []struct {
		name string
		d    Date
		g    Granularity
		want string
	}{
		{"day key", NewDate(2024, 3, 7), ByDay, "2024-03-07"},
		{"month key", NewDate(2024, 3, 7), ByMonth, "2024-03"},
		{"iso week mid-year", NewDate(2024, 3, 7), ByWeek, "2024-W10"},
		// Jan 1st 2023 belongs to ISO week 52 of 2022.
		{"iso week year boundary", NewDate(2023, 1, 1), ByWeek, "2022-W52"},
		{"iso week single digit pads", NewDate(2024, 1, 10), ByWeek, "2024-W02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodKey(tt.d, tt.g); got != tt.want {
				t.Errorf("PeriodKey(%s, %s) = %q, want %q", tt.d, tt.g, got, tt.want)
			}
		})
	}
}

func TestBuildTrend(t *testing.T) {
	points := []TrendPoint{
		{Date: NewDate(2024, 5, 3), Kind: Income, Amount: Money{Cents: 10000}},
		{Date: NewDate(2024, 5, 3), Kind: Expense, Amount: Money{Cents: 4000}},
		{Date: NewDate(2024, 5, 10), Kind: Expense, Amount: Money{Cents: 2500}},
	}

	buckets := BuildTrend(points, ByDay)
	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(buckets))
	}
	first := buckets[0]
	if first.Period != "2024-05-03" {
		t.Errorf("first bucket period = %q, want 2024-05-03", first.Period)
	}
	if first.Income.Cents != 10000 || first.Expense.Cents != 4000 {
		t.Errorf("first bucket = income %d / expense %d, want 10000 / 4000",
			first.Income.Cents, first.Expense.Cents)
	}
	if buckets[1].Period != "2024-05-10" {
		t.Errorf("buckets not sorted ascending: second = %q", buckets[1].Period)
	}
}

func TestBuildTrendMonthlyMerges(t *testing.T) {
	points := []TrendPoint{
		{Date: NewDate(2024, 5, 3), Kind: Income, Amount: Money{Cents: 100}},
		{Date: NewDate(2024, 5, 28), Kind: Income, Amount: Money{Cents: 200}},
		{Date: NewDate(2024, 6, 1), Kind: Income, Amount: Money{Cents: 400}},
	}

	buckets := BuildTrend(points, ByMonth)
	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(buckets))
	}
	if buckets[0].Income.Cents != 300 {
		t.Errorf("may bucket income = %d, want 300", buckets[0].Income.Cents)
	}
}
