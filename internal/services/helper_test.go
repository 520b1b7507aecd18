package services

import (
	"context"
	"path/filepath"
	"testing"

	"financeflow/internal/categories"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/storage"
)

type testEnv struct {
	store     *storage.Store
	accounts  *AccountService
	ledger    *LedgerService
	budgets   *BudgetService
	recurring *RecurringService
	analysis  *AnalysisService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	catalog := categories.New(map[string][]string{
		"groceries": {"food", "household"},
		"rent":      nil,
		"utilities": nil,
		"salary":    nil,
	})
	logger := log.New(log.DefaultConfig())

	ledger := NewLedgerService(store, catalog, nil, logger)
	return &testEnv{
		store:     store,
		accounts:  NewAccountService(store, ledger, logger),
		ledger:    ledger,
		budgets:   NewBudgetService(store, catalog, logger),
		recurring: NewRecurringService(store, ledger, logger),
		analysis:  NewAnalysisService(store, logger),
	}
}

func (e *testEnv) mustAccount(t *testing.T, name string, openingCents int64) core.Account {
	t.Helper()
	a, err := e.accounts.Create(context.Background(), name, core.AccountBank, core.Money{Cents: openingCents})
	if err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	return a
}

func (e *testEnv) mustPost(t *testing.T, in PostingInput) core.Transaction {
	t.Helper()
	tx, err := e.ledger.Post(context.Background(), in)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return tx
}

func cents(n int64) core.Money { return core.Money{Cents: n} }
