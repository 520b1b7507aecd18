package services

import (
	"context"
	"testing"

	"financeflow/internal/core"
)

func TestBudgetStatusComputedFromLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAccount(t, "Checking", 1000_00)

	if _, err := env.budgets.Set(ctx, "groceries", "2025-03", cents(200_00)); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	env.mustPost(t, PostingInput{AccountID: a.ID, Kind: core.KindExpense, Amount: cents(80_00), Category: "groceries", Date: date(2025, 3, 5)})
	env.mustPost(t, PostingInput{AccountID: a.ID, Kind: core.KindExpense, Amount: cents(50_00), Category: "groceries", Date: date(2025, 3, 20)})
	// Outside the month and outside the category: not counted.
	env.mustPost(t, PostingInput{AccountID: a.ID, Kind: core.KindExpense, Amount: cents(40_00), Category: "groceries", Date: date(2025, 4, 1)})
	env.mustPost(t, PostingInput{AccountID: a.ID, Kind: core.KindExpense, Amount: cents(40_00), Category: "rent", Date: date(2025, 3, 10)})

	st, err := env.budgets.Status(ctx, "groceries", "2025-03")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Spent.Cents != 130_00 {
		t.Errorf("spent = %d, want 13000", st.Spent.Cents)
	}
	if st.Remaining.Cents != 70_00 {
		t.Errorf("remaining = %d, want 7000", st.Remaining.Cents)
	}
	if st.OverBudget {
		t.Error("not over budget yet")
	}

	env.mustPost(t, PostingInput{AccountID: a.ID, Kind: core.KindExpense, Amount: cents(100_00), Category: "groceries", Date: date(2025, 3, 28)})
	st, err = env.budgets.Status(ctx, "groceries", "2025-03")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.OverBudget || st.Remaining.Cents != -30_00 {
		t.Errorf("over = %v remaining = %d, want true, -3000", st.OverBudget, st.Remaining.Cents)
	}
}

func TestBudgetSetReplacesLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.budgets.Set(ctx, "rent", "2025-05", cents(900_00)); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, err := env.budgets.Set(ctx, "rent", "2025-05", cents(950_00))
	if err != nil {
		t.Fatalf("set again: %v", err)
	}
	if b.Limit.Cents != 950_00 {
		t.Errorf("limit = %d, want 95000", b.Limit.Cents)
	}
	all, err := env.budgets.StatusAll(ctx, "2025-05")
	if err != nil {
		t.Fatalf("status all: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d budgets, want the upsert to replace", len(all))
	}
}

func TestBudgetValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tests := []struct {
		name     string
		category string
		month    string
		limit    core.Money
		kind     core.ErrorKind
	}{
		{"unknown category", "yachts", "2025-03", cents(100), core.KindValidation},
		{"bad month", "rent", "March 2025", cents(100), core.KindValidation},
		{"zero limit", "rent", "2025-03", cents(0), core.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.budgets.Set(ctx, tt.category, tt.month, tt.limit)
			if core.KindOf(err) != tt.kind {
				t.Errorf("error kind = %v, want %v (%v)", core.KindOf(err), tt.kind, err)
			}
		})
	}
}

func TestBudgetStatusNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.budgets.Status(context.Background(), "rent", "2025-03")
	if core.KindOf(err) != core.KindNotFound {
		t.Errorf("error kind = %v, want not found", core.KindOf(err))
	}
}
