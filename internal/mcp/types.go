// Package mcp exposes the ledger engine as Model Context Protocol tools over
// stdio. Tool inputs carry amounts as decimal strings and dates as
// YYYY-MM-DD; accounts are referenced by name, case-insensitively.
package mcp

import (
	"context"
	"fmt"

	"financeflow/internal/core"
)

// AccountView is the wire form of an account.
type AccountView struct {
	ID      int64  `json:"id" jsonschema:"account identifier"`
	Name    string `json:"name" jsonschema:"account name"`
	Type    string `json:"type" jsonschema:"account type (bank, credit, or cash)"`
	Active  bool   `json:"active" jsonschema:"whether the account accepts postings"`
	Balance string `json:"balance" jsonschema:"current balance as a decimal string"`
}

// TransactionView is the wire form of a ledger entry.
type TransactionView struct {
	ID           int64  `json:"id" jsonschema:"transaction identifier"`
	Account      string `json:"account" jsonschema:"account name"`
	Kind         string `json:"kind" jsonschema:"income, expense, transfer_out, or transfer_in"`
	Amount       string `json:"amount" jsonschema:"amount as a decimal string"`
	Category     string `json:"category" jsonschema:"category name"`
	Subcategory  string `json:"subcategory,omitempty" jsonschema:"subcategory name"`
	Note         string `json:"note,omitempty" jsonschema:"free-form note"`
	Date         string `json:"date" jsonschema:"posting date YYYY-MM-DD"`
	TransferPeer *int64 `json:"transfer_peer_id,omitempty" jsonschema:"id of the linked transfer leg"`
}

// RuleView is the wire form of a recurring rule.
type RuleView struct {
	ID            int64  `json:"id" jsonschema:"rule identifier"`
	Kind          string `json:"kind" jsonschema:"income, expense, or transfer_out"`
	Account       string `json:"account" jsonschema:"source account name"`
	PeerAccount   string `json:"peer_account,omitempty" jsonschema:"destination account for transfer rules"`
	Amount        string `json:"amount" jsonschema:"amount as a decimal string"`
	Category      string `json:"category,omitempty" jsonschema:"category name"`
	Subcategory   string `json:"subcategory,omitempty" jsonschema:"subcategory name"`
	Note          string `json:"note,omitempty" jsonschema:"free-form note"`
	Frequency     string `json:"frequency" jsonschema:"daily, weekly, or monthly"`
	Day           int    `json:"day" jsonschema:"weekday 0-6 for weekly, day of month 1-31 for monthly"`
	NextDue       string `json:"next_due" jsonschema:"next occurrence date YYYY-MM-DD"`
	LastProcessed string `json:"last_processed,omitempty" jsonschema:"date of the last posted occurrence"`
	Status        string `json:"status" jsonschema:"scheduled or inactive"`
}

// BudgetStatusView is the wire form of a budget with its live spend.
type BudgetStatusView struct {
	Category   string `json:"category" jsonschema:"budgeted category"`
	Month      string `json:"month" jsonschema:"budget month YYYY-MM"`
	Limit      string `json:"limit" jsonschema:"monthly limit as a decimal string"`
	Spent      string `json:"spent" jsonschema:"amount spent so far"`
	Remaining  string `json:"remaining" jsonschema:"limit minus spent, negative when over"`
	OverBudget bool   `json:"over_budget" jsonschema:"whether spending exceeds the limit"`
}

// BreakdownView is one aggregated row of a breakdown or trend.
type BreakdownView struct {
	Value string `json:"value" jsonschema:"group value (category, account, or period)"`
	Total string `json:"total" jsonschema:"aggregated amount as a decimal string"`
}

func accountView(a core.Account) AccountView {
	return AccountView{
		ID:      a.ID,
		Name:    a.Name,
		Type:    string(a.Type),
		Active:  a.Active,
		Balance: a.Balance.String(),
	}
}

func transactionView(t core.Transaction) TransactionView {
	return TransactionView{
		ID:           t.ID,
		Account:      t.AccountName,
		Kind:         string(t.Kind),
		Amount:       t.Amount.String(),
		Category:     t.Category,
		Subcategory:  t.Subcategory,
		Note:         t.Note,
		Date:         t.Date.String(),
		TransferPeer: t.TransferPeerID,
	}
}

func transactionViews(ts []core.Transaction) []TransactionView {
	out := make([]TransactionView, len(ts))
	for i, t := range ts {
		out[i] = transactionView(t)
	}
	return out
}

func (s *Server) ruleView(ctx context.Context, r core.RecurringRule) RuleView {
	v := RuleView{
		ID:          r.ID,
		Kind:        string(r.Kind),
		Amount:      r.Amount.String(),
		Category:    r.Category,
		Subcategory: r.Subcategory,
		Note:        r.Note,
		Frequency:   string(r.Frequency),
		Day:         r.Day,
		NextDue:     r.NextDue.String(),
		Status:      string(r.Status),
	}
	if !r.LastProcessed.IsZero() {
		v.LastProcessed = r.LastProcessed.String()
	}
	v.Account = s.accountName(ctx, r.AccountID)
	if r.PeerAccountID != nil {
		v.PeerAccount = s.accountName(ctx, *r.PeerAccountID)
	}
	return v
}

// accountName resolves an account id for display, falling back to a
// placeholder when the lookup fails so a rule never renders blank.
func (s *Server) accountName(ctx context.Context, id int64) string {
	a, err := s.accounts.Get(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "rule account lookup failed", "account_id", id, "error", err)
		return fmt.Sprintf("account#%d", id)
	}
	return a.Name
}

func budgetStatusView(st core.BudgetStatus) BudgetStatusView {
	return BudgetStatusView{
		Category:   st.Category,
		Month:      st.Month,
		Limit:      st.Limit.String(),
		Spent:      st.Spent.String(),
		Remaining:  st.Remaining.String(),
		OverBudget: st.OverBudget,
	}
}

func breakdownViews(rows []core.BreakdownRow) []BreakdownView {
	out := make([]BreakdownView, len(rows))
	for i, r := range rows {
		out[i] = BreakdownView{Value: r.Value, Total: r.Total.String()}
	}
	return out
}
