package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"financeflow/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenRunsMigrations(t *testing.T) {
	store := newTestStore(t)
	// The schema is in place when the accounts table accepts a row.
	ctx := context.Background()
	err := store.WithTx(ctx, func(tx Querier) error {
		_, err := store.CreateAccount(ctx, tx, "Checking", core.AccountBank)
		return err
	})
	if err != nil {
		t.Fatalf("insert after migrations: %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx Querier) error {
		if _, err := store.CreateAccount(ctx, tx, "Checking", core.AccountBank); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	_, err = store.FindActiveAccountByName(ctx, store.Reader(), "Checking")
	if core.KindOf(err) != core.KindNotFound {
		t.Errorf("account survived the rollback: %v", err)
	}
}

func TestActiveNameUniquenessAllowsReuseAfterDeactivate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var id int64
	err := store.WithTx(ctx, func(tx Querier) error {
		var err error
		id, err = store.CreateAccount(ctx, tx, "Checking", core.AccountBank)
		return err
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.WithTx(ctx, func(tx Querier) error {
		return store.DeactivateAccount(ctx, tx, id)
	}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// The partial unique index only guards active accounts.
	err = store.WithTx(ctx, func(tx Querier) error {
		_, err := store.CreateAccount(ctx, tx, "Checking", core.AccountBank)
		return err
	})
	if err != nil {
		t.Errorf("reusing a deactivated account's name: %v", err)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"50%", `50\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQueryTransactionsIsRestartable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var accountID int64
	err := store.WithTx(ctx, func(tx Querier) error {
		var err error
		accountID, err = store.CreateAccount(ctx, tx, "Checking", core.AccountBank)
		if err != nil {
			return err
		}
		for _, day := range []int{1, 2, 3} {
			_, err = store.InsertTransaction(ctx, tx, core.Transaction{
				AccountID: accountID,
				Kind:      core.KindExpense,
				Amount:    core.Money{Cents: 100},
				Category:  "rent",
				Date:      core.NewDate(2025, 3, day),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	seq := store.QueryTransactions(ctx, store.Reader(), core.TransactionFilter{AccountID: accountID})
	for range 2 {
		n := 0
		for _, err := range seq {
			if err != nil {
				t.Fatalf("iterate: %v", err)
			}
			n++
		}
		if n != 3 {
			t.Fatalf("got %d rows, want 3", n)
		}
	}
}
