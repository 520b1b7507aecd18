package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"financeflow/internal/core"
)

// isZeroAmount reports whether s spells zero, e.g. "0" or "0.00". A zero
// opening balance means no opening posting.
func isZeroAmount(s string) bool {
	s = strings.TrimSpace(s)
	seenDigit := false
	for _, r := range s {
		switch r {
		case '0':
			seenDigit = true
		case '.', ',':
		default:
			return false
		}
	}
	return seenDigit
}

type AccountCreateInput struct {
	Name           string `json:"name" jsonschema:"account name, unique among active accounts"`
	Type           string `json:"type" jsonschema:"account type: bank, credit, or cash"`
	OpeningBalance string `json:"opening_balance,omitempty" jsonschema:"optional starting balance as a decimal string"`
}

type AccountCreateResult struct {
	Account AccountView `json:"account" jsonschema:"the created account"`
}

func accountCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "account_create",
		Description: "Creates a ledger account, optionally seeded with an opening balance",
	}
}

func (s *Server) accountCreate(ctx context.Context, _ *mcp.CallToolRequest, in AccountCreateInput) (*mcp.CallToolResult, AccountCreateResult, error) {
	opening := core.Money{}
	if in.OpeningBalance != "" && !isZeroAmount(in.OpeningBalance) {
		var err error
		opening, err = core.ParseAmount(in.OpeningBalance)
		if err != nil {
			return nil, AccountCreateResult{}, toolErr(err)
		}
	}
	account, err := s.accounts.Create(ctx, in.Name, core.AccountType(in.Type), opening)
	if err != nil {
		return nil, AccountCreateResult{}, toolErr(err)
	}
	return nil, AccountCreateResult{Account: accountView(account)}, nil
}

type AccountRenameInput struct {
	Name    string `json:"name" jsonschema:"current account name"`
	NewName string `json:"new_name" jsonschema:"new account name"`
}

type AccountRenameResult struct {
	Account AccountView `json:"account" jsonschema:"the renamed account"`
}

func accountRenameTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "account_rename",
		Description: "Renames an account; its history stays attached",
	}
}

func (s *Server) accountRename(ctx context.Context, _ *mcp.CallToolRequest, in AccountRenameInput) (*mcp.CallToolResult, AccountRenameResult, error) {
	account, err := s.resolveAccount(ctx, in.Name)
	if err != nil {
		return nil, AccountRenameResult{}, toolErr(err)
	}
	renamed, err := s.accounts.Rename(ctx, account.ID, in.NewName)
	if err != nil {
		return nil, AccountRenameResult{}, toolErr(err)
	}
	return nil, AccountRenameResult{Account: accountView(renamed)}, nil
}

type AccountDeactivateInput struct {
	Name    string `json:"name" jsonschema:"account name"`
	Cascade bool   `json:"cascade,omitempty" jsonschema:"delete the account's transactions, including linked transfer legs"`
}

type AccountDeactivateResult struct {
	Deactivated bool `json:"deactivated" jsonschema:"whether the account was deactivated"`
}

func accountDeactivateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "account_deactivate",
		Description: "Deactivates an account; requires cascade if it has transactions",
	}
}

func (s *Server) accountDeactivate(ctx context.Context, _ *mcp.CallToolRequest, in AccountDeactivateInput) (*mcp.CallToolResult, AccountDeactivateResult, error) {
	account, err := s.resolveAccount(ctx, in.Name)
	if err != nil {
		return nil, AccountDeactivateResult{}, toolErr(err)
	}
	if err := s.accounts.Deactivate(ctx, account.ID, in.Cascade); err != nil {
		return nil, AccountDeactivateResult{}, toolErr(err)
	}
	return nil, AccountDeactivateResult{Deactivated: true}, nil
}

type AccountListInput struct {
	IncludeInactive bool `json:"include_inactive,omitempty" jsonschema:"include deactivated accounts"`
}

type AccountListResult struct {
	Accounts []AccountView `json:"accounts" jsonschema:"accounts ordered by name, with derived balances"`
}

func accountListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "account_list",
		Description: "Lists accounts with their current balances",
	}
}

func (s *Server) accountList(ctx context.Context, _ *mcp.CallToolRequest, in AccountListInput) (*mcp.CallToolResult, AccountListResult, error) {
	accounts, err := s.accounts.List(ctx, !in.IncludeInactive)
	if err != nil {
		return nil, AccountListResult{}, toolErr(err)
	}
	views := make([]AccountView, len(accounts))
	for i, a := range accounts {
		views[i] = accountView(a)
	}
	return nil, AccountListResult{Accounts: views}, nil
}
