package services

import (
	"context"
	"testing"

	"financeflow/internal/core"
)

func monthlyExpenseRule(accountID int64, amount core.Money, day int) core.RecurringRule {
	return core.RecurringRule{
		Kind:      core.KindExpense,
		AccountID: accountID,
		Amount:    amount,
		Category:  "rent",
		Note:      "Monthly rent",
		Frequency: core.Monthly,
		Day:       day,
	}
}

func TestCreateRuleSetsFirstDue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAccount(t, "Checking", 0)

	tests := []struct {
		name    string
		rule    core.RecurringRule
		start   core.Date
		wantDue core.Date
	}{
		{"monthly later this month", monthlyExpenseRule(a.ID, cents(900_00), 15), date(2025, 3, 10), date(2025, 3, 15)},
		{"monthly day passed", monthlyExpenseRule(a.ID, cents(900_00), 5), date(2025, 3, 10), date(2025, 4, 5)},
		{"start on the day itself", monthlyExpenseRule(a.ID, cents(900_00), 10), date(2025, 3, 10), date(2025, 3, 10)},
		{
			"weekly derives day from start",
			core.RecurringRule{Kind: core.KindIncome, AccountID: a.ID, Amount: cents(50_00), Category: "salary", Frequency: core.Weekly},
			date(2025, 3, 14), // friday
			date(2025, 3, 14),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := env.recurring.Create(ctx, tt.rule, tt.start)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if !created.NextDue.Equal(tt.wantDue) {
				t.Errorf("next due = %s, want %s", created.NextDue, tt.wantDue)
			}
			if created.Status != core.RuleScheduled {
				t.Errorf("status = %s", created.Status)
			}
			if !created.LastProcessed.IsZero() {
				t.Errorf("last processed should start empty")
			}
		})
	}
}

func TestProcessDuePostsAndAdvances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAccount(t, "Checking", 2000_00)
	rule, err := env.recurring.Create(ctx, monthlyExpenseRule(a.ID, cents(900_00), 1), date(2025, 3, 1))
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	n, err := env.recurring.ProcessDue(ctx, date(2025, 3, 1))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != 1 {
		t.Fatalf("posted %d, want 1", n)
	}

	got, _ := env.recurring.Get(ctx, rule.ID)
	if !got.NextDue.Equal(date(2025, 4, 1)) {
		t.Errorf("next due = %s, want 2025-04-01", got.NextDue)
	}
	if !got.LastProcessed.Equal(date(2025, 3, 1)) {
		t.Errorf("last processed = %s, want 2025-03-01", got.LastProcessed)
	}
	txs, _ := env.ledger.List(ctx, core.TransactionFilter{Category: "rent"}, 0)
	if len(txs) != 1 || !txs[0].Date.Equal(date(2025, 3, 1)) {
		t.Errorf("posting = %+v", txs)
	}
}

func TestProcessDueIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAccount(t, "Checking", 2000_00)
	if _, err := env.recurring.Create(ctx, monthlyExpenseRule(a.ID, cents(900_00), 1), date(2025, 3, 1)); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	if _, err := env.recurring.ProcessDue(ctx, date(2025, 3, 1)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	n, err := env.recurring.ProcessDue(ctx, date(2025, 3, 1))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if n != 0 {
		t.Errorf("second run posted %d, want 0", n)
	}
	txs, _ := env.ledger.List(ctx, core.TransactionFilter{Category: "rent"}, 0)
	if len(txs) != 1 {
		t.Errorf("got %d postings, want exactly 1", len(txs))
	}
}

func TestProcessDueCatchesUpPerPeriod(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAccount(t, "Checking", 5000_00)
	// Day-31 anchor across short months: the overdue run must post one
	// occurrence per period, each dated on its own clamped due date.
	if _, err := env.recurring.Create(ctx, monthlyExpenseRule(a.ID, cents(100_00), 31), date(2025, 1, 31)); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	n, err := env.recurring.ProcessDue(ctx, date(2025, 4, 30))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != 4 {
		t.Fatalf("posted %d, want 4", n)
	}
	txs, _ := env.ledger.List(ctx, core.TransactionFilter{Category: "rent"}, 0)
	var got []string
	for _, tx := range txs {
		got = append(got, tx.Date.String())
	}
	want := []string{"2025-04-30", "2025-03-31", "2025-02-28", "2025-01-31"} // newest first
	if len(got) != len(want) {
		t.Fatalf("dates = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("date[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestProcessDueCatchUpResumesFromCommittedPrefix(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAccount(t, "Checking", 5000_00)
	r, err := env.recurring.Create(ctx, monthlyExpenseRule(a.ID, cents(100_00), 1), date(2025, 1, 1))
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	// Each catch-up period commits on its own, so stopping after two of
	// three periods is the state a crash mid catch-up would leave behind.
	n, err := env.recurring.ProcessDue(ctx, date(2025, 2, 1))
	if err != nil {
		t.Fatalf("partial run: %v", err)
	}
	if n != 2 {
		t.Fatalf("partial run posted %d, want 2", n)
	}
	mid, err := env.recurring.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if mid.NextDue.String() != "2025-03-01" || mid.LastProcessed.String() != "2025-02-01" {
		t.Fatalf("prefix state = next %s, last %s", mid.NextDue, mid.LastProcessed)
	}

	n, err = env.recurring.ProcessDue(ctx, date(2025, 3, 1))
	if err != nil {
		t.Fatalf("resumed run: %v", err)
	}
	if n != 1 {
		t.Errorf("resumed run posted %d, want 1", n)
	}
	txs, _ := env.ledger.List(ctx, core.TransactionFilter{Category: "rent"}, 0)
	if len(txs) != 3 {
		t.Fatalf("got %d postings, want 3 with no duplicates", len(txs))
	}
}

func TestProcessDueFailedStepCommitsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAccount(t, "Checking", 0)
	r, err := env.recurring.Create(ctx, monthlyExpenseRule(a.ID, cents(100_00), 1), date(2025, 3, 1))
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if err := env.accounts.Deactivate(ctx, a.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	n, err := env.recurring.ProcessDue(ctx, date(2025, 3, 1))
	if err == nil {
		t.Fatal("processing against a deactivated account should fail")
	}
	if n != 0 {
		t.Errorf("posted %d, want 0", n)
	}
	got, err := env.recurring.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if got.NextDue.String() != "2025-03-01" || !got.LastProcessed.IsZero() {
		t.Errorf("rule advanced despite the failure: next %s, last %s", got.NextDue, got.LastProcessed)
	}
	txs, _ := env.ledger.List(ctx, core.TransactionFilter{Category: "rent"}, 0)
	if len(txs) != 0 {
		t.Errorf("got %d postings, want 0", len(txs))
	}
}

func TestProcessDueTransferRule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	src := env.mustAccount(t, "Checking", 1000_00)
	dst := env.mustAccount(t, "Savings", 0)
	rule := core.RecurringRule{
		Kind:          core.KindTransferOut,
		AccountID:     src.ID,
		PeerAccountID: &dst.ID,
		Amount:        cents(200_00),
		Note:          "Monthly savings",
		Frequency:     core.Monthly,
		Day:           1,
	}
	if _, err := env.recurring.Create(ctx, rule, date(2025, 3, 1)); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	if _, err := env.recurring.ProcessDue(ctx, date(2025, 3, 1)); err != nil {
		t.Fatalf("process: %v", err)
	}
	gotSrc, _ := env.accounts.Get(ctx, src.ID)
	gotDst, _ := env.accounts.Get(ctx, dst.ID)
	if gotSrc.Balance.Cents != 800_00 || gotDst.Balance.Cents != 200_00 {
		t.Errorf("balances = %d, %d, want 80000, 20000", gotSrc.Balance.Cents, gotDst.Balance.Cents)
	}
}

func TestInactiveRuleIsSkipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAccount(t, "Checking", 1000_00)
	rule, err := env.recurring.Create(ctx, monthlyExpenseRule(a.ID, cents(100_00), 1), date(2025, 3, 1))
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if err := env.recurring.Deactivate(ctx, rule.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	n, err := env.recurring.ProcessDue(ctx, date(2025, 6, 1))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != 0 {
		t.Errorf("posted %d from an inactive rule", n)
	}
}

func TestRuleUpdateNextDueOnlyForward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAccount(t, "Checking", 0)
	rule, err := env.recurring.Create(ctx, monthlyExpenseRule(a.ID, cents(100_00), 15), date(2025, 3, 1))
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	back := date(2025, 3, 1)
	_, err = env.recurring.Update(ctx, rule.ID, core.RuleUpdate{NextDue: &back})
	if core.KindOf(err) != core.KindConflict {
		t.Errorf("backward move: kind = %v, want conflict (%v)", core.KindOf(err), err)
	}

	forward := date(2025, 5, 15)
	updated, err := env.recurring.Update(ctx, rule.ID, core.RuleUpdate{NextDue: &forward})
	if err != nil {
		t.Fatalf("forward move: %v", err)
	}
	if !updated.NextDue.Equal(forward) {
		t.Errorf("next due = %s", updated.NextDue)
	}
}

func TestDeleteRuleOnlyBeforeFirstPosting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mustAccount(t, "Checking", 1000_00)
	rule, err := env.recurring.Create(ctx, monthlyExpenseRule(a.ID, cents(100_00), 1), date(2025, 3, 1))
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	if _, err := env.recurring.ProcessDue(ctx, date(2025, 3, 1)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := env.recurring.Delete(ctx, rule.ID); core.KindOf(err) != core.KindConflict {
		t.Errorf("delete after posting: kind = %v, want conflict", core.KindOf(err))
	}

	fresh, err := env.recurring.Create(ctx, monthlyExpenseRule(a.ID, cents(100_00), 1), date(2025, 9, 1))
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if err := env.recurring.Delete(ctx, fresh.ID); err != nil {
		t.Errorf("delete unprocessed rule: %v", err)
	}
}
