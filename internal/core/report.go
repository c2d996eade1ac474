package core

import (
	"fmt"
	"sort"
)

// Trend granularity is a design rule, not a display default: the span in days
// between the earliest and latest relevant date picks the bucket size.
type Granularity string

const (
	ByDay   Granularity = "day"
	ByWeek  Granularity = "week"
	ByMonth Granularity = "month"
)

// TrendBucket is one aggregation period in the reporting time series, with
// separate income and expense sums.
type TrendBucket struct {
	Period  string
	Income  Money
	Expense Money
}

// CategoryTotal is the summed amount for one category label.
type CategoryTotal struct {
	Name  string
	Total Money
}

// Report is the aggregate view over an owner's ledger for a date range.
type Report struct {
	Start         Date
	End           Date
	Granularity   Granularity
	TotalIncome   Money
	TotalExpenses Money
	Balance       Money
	ByCategory    []CategoryTotal
	Trend         []TrendBucket
}

// TrendGranularity picks the bucket size for a span: up to 30 days by
// calendar day, 31..90 by ISO week, anything longer by calendar month.
func TrendGranularity(start, end Date) Granularity {
	spanDays := int(end.Time.Sub(start.Time).Hours() / 24)
	switch {
	case spanDays <= 30:
		return ByDay
	case spanDays <= 90:
		return ByWeek
	default:
		return ByMonth
	}
}

// PeriodKey maps a date to its bucket key for the given granularity. Keys are
// zero-padded so that lexicographic order equals chronological order.
func PeriodKey(d Date, g Granularity) string {
	switch g {
	case ByWeek:
		year, week := d.Time.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case ByMonth:
		return d.Format("2006-01")
	default:
		return d.Format("2006-01-02")
	}
}

// BuildTrend folds dated kind/amount observations into sorted buckets.
func BuildTrend(points []TrendPoint, g Granularity) []TrendBucket {
	byKey := make(map[string]*TrendBucket)
	for _, p := range points {
		key := PeriodKey(p.Date, g)
		b, ok := byKey[key]
		if !ok {
			b = &TrendBucket{Period: key}
			byKey[key] = b
		}
		switch p.Kind {
		case Income:
			b.Income.Cents += p.Amount.Cents
		case Expense:
			b.Expense.Cents += p.Amount.Cents
		}
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buckets := make([]TrendBucket, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, *byKey[k])
	}
	return buckets
}

// TrendPoint is a single dated observation feeding the trend series.
type TrendPoint struct {
	Date   Date
	Kind   EntryKind
	Amount Money
}
