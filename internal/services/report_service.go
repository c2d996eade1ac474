package services

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

func nowUTC() time.Time { return time.Now().UTC() }

// ReportService builds aggregate views over a user's ledger.
type ReportService struct {
	store  *storage.Repository
	logger *log.Logger
}

func NewReportService(store *storage.Repository, logger *log.Logger) *ReportService {
	return &ReportService{
		store:  store,
		logger: logger.WithComponent(log.ComponentReports),
	}
}

// Build assembles a report for [start, end]. When either bound is nil the
// range defaults to the user's full entry history; on an empty ledger a
// missing bound defaults to today, so the report is well formed rather than
// an error and a supplied bound is never discarded.
func (s *ReportService) Build(ctx context.Context, userID int64, start, end *core.Date) (core.Report, error) {
	from, to, err := s.resolveBounds(ctx, userID, start, end)
	if err != nil {
		return core.Report{}, err
	}

	income, expense, err := s.store.SumsByKind(ctx, userID, from, to)
	if err != nil {
		return core.Report{}, err
	}

	byCategory, err := s.store.CategoryTotals(ctx, userID, from, to)
	if err != nil {
		return core.Report{}, err
	}

	points, err := s.store.TrendPoints(ctx, userID, from, to)
	if err != nil {
		return core.Report{}, err
	}

	granularity := core.TrendGranularity(from, to)

	report := core.Report{
		Start:         from,
		End:           to,
		Granularity:   granularity,
		TotalIncome:   income,
		TotalExpenses: expense,
		Balance:       core.Money{Cents: income.Cents - expense.Cents},
		ByCategory:    byCategory,
		Trend:         core.BuildTrend(points, granularity),
	}

	s.logger.DebugContext(ctx, "report built",
		log.FieldUserID, userID,
		"start", from.String(), "end", to.String(),
		"granularity", string(granularity))
	return report, nil
}

func (s *ReportService) resolveBounds(ctx context.Context, userID int64, start, end *core.Date) (core.Date, core.Date, error) {
	if start != nil && end != nil {
		return *start, *end, nil
	}

	first, last, ok, err := s.store.HistoryBounds(ctx, userID)
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	if !ok {
		// Empty ledger: default only the missing side to today.
		today := core.DateOf(nowUTC())
		first, last = today, today
	}

	from, to := first, last
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}
	return from, to, nil
}
