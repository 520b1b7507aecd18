package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"financeflow/internal/core"
)

type BudgetSetInput struct {
	Category string `json:"category" jsonschema:"category to budget"`
	Month    string `json:"month" jsonschema:"budget month YYYY-MM"`
	Limit    string `json:"limit" jsonschema:"monthly limit as a decimal string"`
}

type BudgetSetResult struct {
	Budget BudgetStatusView `json:"budget" jsonschema:"the budget with its current spend"`
}

func budgetSetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "budget_set",
		Description: "Sets or replaces the monthly spending limit for a category",
	}
}

func (s *Server) budgetSet(ctx context.Context, _ *mcp.CallToolRequest, in BudgetSetInput) (*mcp.CallToolResult, BudgetSetResult, error) {
	limit, err := core.ParseAmount(in.Limit)
	if err != nil {
		return nil, BudgetSetResult{}, toolErr(err)
	}
	budget, err := s.budgets.Set(ctx, in.Category, in.Month, limit)
	if err != nil {
		return nil, BudgetSetResult{}, toolErr(err)
	}
	st, err := s.budgets.Status(ctx, budget.Category, budget.Month)
	if err != nil {
		return nil, BudgetSetResult{}, toolErr(err)
	}
	return nil, BudgetSetResult{Budget: budgetStatusView(st)}, nil
}

type BudgetStatusInput struct {
	Month    string `json:"month" jsonschema:"budget month YYYY-MM"`
	Category string `json:"category,omitempty" jsonschema:"one category; omit for every budget of the month"`
}

type BudgetStatusResult struct {
	Budgets []BudgetStatusView `json:"budgets" jsonschema:"budgets with spend computed from the ledger"`
}

func budgetStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "budget_status",
		Description: "Reports budget limits against actual spending for a month",
	}
}

func (s *Server) budgetStatus(ctx context.Context, _ *mcp.CallToolRequest, in BudgetStatusInput) (*mcp.CallToolResult, BudgetStatusResult, error) {
	if in.Category != "" {
		st, err := s.budgets.Status(ctx, in.Category, in.Month)
		if err != nil {
			return nil, BudgetStatusResult{}, toolErr(err)
		}
		return nil, BudgetStatusResult{Budgets: []BudgetStatusView{budgetStatusView(st)}}, nil
	}
	statuses, err := s.budgets.StatusAll(ctx, in.Month)
	if err != nil {
		return nil, BudgetStatusResult{}, toolErr(err)
	}
	views := make([]BudgetStatusView, len(statuses))
	for i, st := range statuses {
		views[i] = budgetStatusView(st)
	}
	return nil, BudgetStatusResult{Budgets: views}, nil
}
