package mcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"financeflow/internal/categories"
	"financeflow/internal/log"
	"financeflow/internal/services"
	"financeflow/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	catalog := categories.New(map[string][]string{
		"groceries": {"food"},
		"rent":      nil,
		"salary":    nil,
	})
	logger := log.New(log.DefaultConfig())
	ledger := services.NewLedgerService(store, catalog, nil, logger)
	return NewServer(
		services.NewAccountService(store, ledger, logger),
		ledger,
		services.NewBudgetService(store, catalog, logger),
		services.NewRecurringService(store, ledger, logger),
		services.NewAnalysisService(store, logger),
		catalog,
		logger,
	)
}

func TestBuildRegistersTools(t *testing.T) {
	s := newTestServer(t)
	if s.Build() == nil {
		t.Fatal("Build returned nil server")
	}
}

func TestAccountAndPostingFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, created, err := s.accountCreate(ctx, nil, AccountCreateInput{
		Name: "Checking", Type: "bank", OpeningBalance: "500.00",
	})
	if err != nil {
		t.Fatalf("account_create: %v", err)
	}
	if created.Account.Balance != "500.00" {
		t.Errorf("balance = %s, want 500.00", created.Account.Balance)
	}

	_, posted, err := s.transactionAdd(ctx, nil, TransactionAddInput{
		Account: "checking", Kind: "expense", Amount: "42.50",
		Category: "groceries", Subcategory: "food", Date: "2025-03-10",
	})
	if err != nil {
		t.Fatalf("transaction_add: %v", err)
	}
	if posted.Transaction.Amount != "42.50" || posted.Transaction.Account != "Checking" {
		t.Errorf("posted = %+v", posted.Transaction)
	}

	_, list, err := s.accountList(ctx, nil, AccountListInput{})
	if err != nil {
		t.Fatalf("account_list: %v", err)
	}
	if len(list.Accounts) != 1 || list.Accounts[0].Balance != "457.50" {
		t.Errorf("accounts = %+v", list.Accounts)
	}
}

func TestTransferFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	if _, _, err := s.accountCreate(ctx, nil, AccountCreateInput{Name: "Checking", Type: "bank", OpeningBalance: "100.00"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := s.accountCreate(ctx, nil, AccountCreateInput{Name: "Savings", Type: "bank"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, res, err := s.transferAdd(ctx, nil, TransferAddInput{
		FromAccount: "Checking", ToAccount: "Savings", Amount: "25.00", Date: "2025-03-15",
	})
	if err != nil {
		t.Fatalf("transfer_add: %v", err)
	}
	if res.OutLeg.Kind != "transfer_out" || res.OutLeg.TransferPeer == nil {
		t.Errorf("out leg = %+v", res.OutLeg)
	}
}

func TestToolErrorsCarryKind(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, _, err := s.transactionAdd(ctx, nil, TransactionAddInput{
		Account: "Nowhere", Kind: "expense", Amount: "10.00", Category: "rent",
	})
	if err == nil {
		t.Fatal("expected error for unknown account")
	}
	if !strings.HasPrefix(err.Error(), "validation:") {
		t.Errorf("error = %q, want validation prefix", err)
	}

	if _, _, err := s.accountCreate(ctx, nil, AccountCreateInput{Name: "Checking", Type: "vault"}); err == nil ||
		!strings.HasPrefix(err.Error(), "validation:") {
		t.Errorf("error = %v, want validation prefix", err)
	}
}

func TestAccountNamePlaceholderWhenLookupFails(t *testing.T) {
	s := newTestServer(t)

	if got := s.accountName(context.Background(), 9999); got != "account#9999" {
		t.Errorf("accountName = %q, want account#9999", got)
	}
}

func TestBudgetAndAnalysisTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	if _, _, err := s.accountCreate(ctx, nil, AccountCreateInput{Name: "Checking", Type: "bank", OpeningBalance: "1000.00"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := s.transactionAdd(ctx, nil, TransactionAddInput{
		Account: "Checking", Kind: "expense", Amount: "80.00", Category: "groceries", Date: "2025-03-05",
	}); err != nil {
		t.Fatalf("post: %v", err)
	}

	_, budget, err := s.budgetSet(ctx, nil, BudgetSetInput{Category: "groceries", Month: "2025-03", Limit: "200.00"})
	if err != nil {
		t.Fatalf("budget_set: %v", err)
	}
	if budget.Budget.Spent != "80.00" || budget.Budget.Remaining != "120.00" {
		t.Errorf("budget = %+v", budget.Budget)
	}

	_, sum, err := s.summary(ctx, nil, SummaryInput{From: "2025-03-01", To: "2025-03-31"})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Expense != "80.00" {
		t.Errorf("summary = %+v", sum)
	}

	_, cats, err := s.categoryList(ctx, nil, CategoryListInput{})
	if err != nil {
		t.Fatalf("category_list: %v", err)
	}
	if _, ok := cats.Categories["groceries"]; !ok {
		t.Errorf("categories = %+v", cats.Categories)
	}
}
