package storage

import (
	"context"
	"database/sql"
	"errors"

	"financeflow/internal/core"
)

// UpsertBudget sets the limit for a (category, month), replacing any prior
// value. Uniqueness is enforced by the schema.
func (s *Store) UpsertBudget(ctx context.Context, q Querier, category, month string, limit core.Money) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO budgets (category, month, limit_cents) VALUES (?, ?, ?)
		ON CONFLICT (category, month) DO UPDATE SET limit_cents = excluded.limit_cents`,
		category, month, limit.Cents)
	return err
}

// GetBudget loads one budget row.
func (s *Store) GetBudget(ctx context.Context, q Querier, category, month string) (core.Budget, error) {
	var b core.Budget
	err := q.QueryRowContext(ctx, `
		SELECT id, category, month, limit_cents FROM budgets
		WHERE category = ? AND month = ?`, category, month).
		Scan(&b.ID, &b.Category, &b.Month, &b.Limit.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.NotFoundf("no budget for %s in %s", category, month)
	}
	if err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

// ListBudgetsByMonth returns all budgets of a month ordered by category.
func (s *Store) ListBudgetsByMonth(ctx context.Context, q Querier, month string) ([]core.Budget, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, category, month, limit_cents FROM budgets
		WHERE month = ? ORDER BY category ASC`, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.Category, &b.Month, &b.Limit.Cents); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}
