package services

import (
	"context"
	"testing"

	"financeflow/internal/core"
)

func TestCreateAccountWithOpeningBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.mustAccount(t, "Checking", 500_00)
	if a.Balance.Cents != 500_00 {
		t.Errorf("balance = %d, want 50000", a.Balance.Cents)
	}

	// The opening balance is a real posting, not a stored number.
	txs, err := env.ledger.List(ctx, core.TransactionFilter{AccountID: a.ID}, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if txs[0].Category != core.CategoryOpeningBalance || txs[0].Kind != core.KindIncome {
		t.Errorf("opening posting = %s/%s", txs[0].Kind, txs[0].Category)
	}

	balance, err := env.accounts.Balance(ctx, a.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cents != 500_00 {
		t.Errorf("Balance = %d, want 50000", balance.Cents)
	}

	if _, err := env.accounts.Balance(ctx, 9999); core.KindOf(err) != core.KindNotFound {
		t.Errorf("Balance for missing account = %v, want not_found", err)
	}
}

func TestCreateAccountZeroOpeningPostsNothing(t *testing.T) {
	env := newTestEnv(t)
	a := env.mustAccount(t, "Cash", 0)
	txs, err := env.ledger.List(context.Background(), core.TransactionFilter{AccountID: a.ID}, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("got %d transactions, want none", len(txs))
	}
}

func TestCreateAccountNameConflictIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	env.mustAccount(t, "Checking", 0)
	_, err := env.accounts.Create(context.Background(), "CHECKING", core.AccountCash, cents(0))
	if core.KindOf(err) != core.KindValidation {
		t.Errorf("error kind = %v, want validation (%v)", core.KindOf(err), err)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tests := []struct {
		name    string
		account string
		typ     core.AccountType
		opening core.Money
	}{
		{"empty name", "  ", core.AccountBank, cents(0)},
		{"bad type", "Brokerage", "stocks", cents(0)},
		{"negative opening", "Loans", core.AccountBank, cents(-100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.accounts.Create(ctx, tt.account, tt.typ, tt.opening)
			if core.KindOf(err) != core.KindValidation {
				t.Errorf("error kind = %v, want validation (%v)", core.KindOf(err), err)
			}
		})
	}
}

func TestRenameAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAccount(t, "Checking", 0)
	env.mustAccount(t, "Savings", 0)

	renamed, err := env.accounts.Rename(ctx, a.ID, "Main Checking")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Name != "Main Checking" {
		t.Errorf("name = %q", renamed.Name)
	}

	if _, err := env.accounts.Rename(ctx, a.ID, "savings"); core.KindOf(err) != core.KindValidation {
		t.Errorf("rename onto existing name: kind = %v, want validation", core.KindOf(err))
	}

	// Renaming to its own name, or a case variant of it, is allowed.
	if _, err := env.accounts.Rename(ctx, a.ID, "MAIN CHECKING"); err != nil {
		t.Errorf("case-only rename: %v", err)
	}
}

func TestDeactivateRequiresCascadeForHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAccount(t, "Checking", 100_00)

	err := env.accounts.Deactivate(ctx, a.ID, false)
	if core.KindOf(err) != core.KindConflict {
		t.Fatalf("error kind = %v, want conflict (%v)", core.KindOf(err), err)
	}

	if err := env.accounts.Deactivate(ctx, a.ID, true); err != nil {
		t.Fatalf("cascade deactivate: %v", err)
	}
	got, err := env.accounts.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Active {
		t.Error("account still active")
	}
	if got.Balance.Cents != 0 {
		t.Errorf("balance = %d, want 0 after cascade", got.Balance.Cents)
	}
}

func TestDeactivateCascadeRemovesTransferPeers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAccount(t, "Checking", 100_00)
	b := env.mustAccount(t, "Savings", 0)
	if _, err := env.ledger.Transfer(ctx, TransferInput{
		FromAccountID: a.ID, ToAccountID: b.ID, Amount: cents(40_00), Date: date(2025, 6, 1),
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if err := env.accounts.Deactivate(ctx, a.ID, true); err != nil {
		t.Fatalf("cascade deactivate: %v", err)
	}
	// The incoming leg on the surviving account must be gone too, or its
	// balance would count money from a deleted source.
	gotB, _ := env.accounts.Get(ctx, b.ID)
	if gotB.Balance.Cents != 0 {
		t.Errorf("surviving account balance = %d, want 0", gotB.Balance.Cents)
	}
}

func TestListAccounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustAccount(t, "Savings", 0)
	a := env.mustAccount(t, "Checking", 0)
	if err := env.accounts.Deactivate(ctx, a.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := env.accounts.List(ctx, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].Name != "Savings" {
		t.Errorf("active list = %+v", active)
	}

	all, err := env.accounts.List(ctx, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d accounts, want 2", len(all))
	}
	if all[0].Name != "Checking" {
		t.Errorf("list not ordered by name: %+v", all)
	}
}

func TestFindByName(t *testing.T) {
	env := newTestEnv(t)
	a := env.mustAccount(t, "Checking", 0)
	got, err := env.accounts.FindByName(context.Background(), "  checking ")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != a.ID {
		t.Errorf("found id %d, want %d", got.ID, a.ID)
	}
}
