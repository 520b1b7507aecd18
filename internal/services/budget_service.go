package services

import (
	"context"

	"financeflow/internal/categories"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/storage"
)

// BudgetService manages monthly category limits. Spend is computed from the
// ledger at read time, so a budget's status is always current.
type BudgetService struct {
	store   *storage.Store
	catalog *categories.Catalog
	logger  *log.Logger
}

func NewBudgetService(store *storage.Store, catalog *categories.Catalog, logger *log.Logger) *BudgetService {
	return &BudgetService{
		store:   store,
		catalog: catalog,
		logger:  logger.WithComponent(log.ComponentBudget),
	}
}

// Set creates or replaces the limit for a category and month.
func (s *BudgetService) Set(ctx context.Context, category, month string, limit core.Money) (core.Budget, error) {
	if err := limit.Validate(); err != nil {
		return core.Budget{}, err
	}
	if s.catalog != nil {
		if _, ok := s.catalog.Lookup(category); !ok {
			return core.Budget{}, core.Validationf("unknown category %q", category)
		}
	}
	if _, _, err := core.ParseMonth(month); err != nil {
		return core.Budget{}, err
	}
	var budget core.Budget
	err := s.store.WithTx(ctx, func(tx storage.Querier) error {
		if err := s.store.UpsertBudget(ctx, tx, category, month, limit); err != nil {
			return err
		}
		var err error
		budget, err = s.store.GetBudget(ctx, tx, category, month)
		return err
	})
	if err != nil {
		return core.Budget{}, err
	}
	s.logger.InfoContext(ctx, "budget set", "category", category, "month", month, "limit", limit.String())
	return budget, nil
}

// Status returns the live state of one budget: its limit against the
// category's expense total for the month.
func (s *BudgetService) Status(ctx context.Context, category, month string) (core.BudgetStatus, error) {
	budget, err := s.store.GetBudget(ctx, s.store.Reader(), category, month)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return s.status(ctx, budget)
}

// StatusAll returns the live state of every budget defined for the month.
func (s *BudgetService) StatusAll(ctx context.Context, month string) ([]core.BudgetStatus, error) {
	if _, _, err := core.ParseMonth(month); err != nil {
		return nil, err
	}
	budgets, err := s.store.ListBudgetsByMonth(ctx, s.store.Reader(), month)
	if err != nil {
		return nil, err
	}
	statuses := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st, err := s.status(ctx, b)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (s *BudgetService) status(ctx context.Context, b core.Budget) (core.BudgetStatus, error) {
	first, last, err := core.ParseMonth(b.Month)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	spent, err := s.store.ExpenseSum(ctx, s.store.Reader(), b.Category, first, last)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return core.BudgetStatus{
		Category:   b.Category,
		Month:      b.Month,
		Limit:      b.Limit,
		Spent:      spent,
		Remaining:  core.Money{Cents: b.Limit.Cents - spent.Cents},
		OverBudget: spent.Cents > b.Limit.Cents,
	}, nil
}
