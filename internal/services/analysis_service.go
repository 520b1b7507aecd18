package services

import (
	"context"
	"strings"

	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/storage"
)

// Dimensions for expense breakdowns.
const (
	DimensionCategory = "category"
	DimensionAccount  = "account"
)

// Periods for expense trends.
const (
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// AnalysisService answers read-only questions about the ledger. Transfer
// legs are internal movements and are excluded from income and expense
// aggregates.
type AnalysisService struct {
	store  *storage.Store
	logger *log.Logger
}

func NewAnalysisService(store *storage.Store, logger *log.Logger) *AnalysisService {
	return &AnalysisService{
		store:  store,
		logger: logger.WithComponent(log.ComponentAnalysis),
	}
}

// normalizeRange fills open range ends: an empty from reaches back to the
// epoch, an empty to ends today.
func normalizeRange(from, to core.Date) (core.Date, core.Date) {
	if from.IsZero() {
		from = core.NewDate(1970, 1, 1)
	}
	if to.IsZero() {
		to = core.Today()
	}
	return from, to
}

// Summary totals income and expense over the date range.
func (s *AnalysisService) Summary(ctx context.Context, from, to core.Date) (core.Summary, error) {
	income, err := s.store.SumByKind(ctx, s.store.Reader(), []core.TransactionKind{core.KindIncome}, from, to)
	if err != nil {
		return core.Summary{}, err
	}
	expense, err := s.store.SumByKind(ctx, s.store.Reader(), []core.TransactionKind{core.KindExpense}, from, to)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summary{
		Income:  income,
		Expense: expense,
		Net:     core.Money{Cents: income.Cents - expense.Cents},
	}, nil
}

// Breakdown groups expense totals by category or account, largest first.
func (s *AnalysisService) Breakdown(ctx context.Context, dimension string, from, to core.Date) ([]core.BreakdownRow, error) {
	switch dimension {
	case DimensionCategory, DimensionAccount:
	default:
		return nil, core.Validationf("unknown dimension %q, want category or account", dimension)
	}
	from, to = normalizeRange(from, to)
	return s.store.ExpenseBreakdown(ctx, s.store.Reader(), dimension, from, to)
}

// TopCategories returns the n largest expense categories in the range.
func (s *AnalysisService) TopCategories(ctx context.Context, from, to core.Date, n int) ([]core.BreakdownRow, error) {
	if n <= 0 {
		return nil, core.Validationf("top category count must be positive")
	}
	from, to = normalizeRange(from, to)
	rows, err := s.store.ExpenseBreakdown(ctx, s.store.Reader(), DimensionCategory, from, to)
	if err != nil {
		return nil, err
	}
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

// Trend returns per-period expense totals for a category, oldest first.
func (s *AnalysisService) Trend(ctx context.Context, category, period string, from, to core.Date) ([]core.BreakdownRow, error) {
	switch period {
	case PeriodMonthly, PeriodYearly:
	default:
		return nil, core.Validationf("unknown period %q, want monthly or yearly", period)
	}
	if strings.TrimSpace(category) == "" {
		return nil, core.Validationf("category is empty")
	}
	layout := "%Y-%m"
	if period == PeriodYearly {
		layout = "%Y"
	}
	from, to = normalizeRange(from, to)
	return s.store.ExpenseTrend(ctx, s.store.Reader(), category, layout, from, to)
}

// Search finds transactions whose note contains the keyword, newest first.
// Matching is case-insensitive.
func (s *AnalysisService) Search(ctx context.Context, keyword string, limit int) ([]core.Transaction, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, core.Validationf("search keyword is empty")
	}
	var out []core.Transaction
	for t, err := range s.store.QueryTransactions(ctx, s.store.Reader(), core.TransactionFilter{NoteKeyword: keyword}) {
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
