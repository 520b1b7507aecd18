package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"financeflow/internal/core"
)

type RecurringCreateInput struct {
	Kind        string `json:"kind" jsonschema:"income, expense, or transfer_out"`
	Account     string `json:"account" jsonschema:"source account name"`
	PeerAccount string `json:"peer_account,omitempty" jsonschema:"destination account for transfer rules"`
	Amount      string `json:"amount" jsonschema:"positive amount as a decimal string"`
	Category    string `json:"category,omitempty" jsonschema:"category name; ignored for transfer rules"`
	Subcategory string `json:"subcategory,omitempty" jsonschema:"optional subcategory"`
	Note        string `json:"note,omitempty" jsonschema:"note applied to each occurrence"`
	Frequency   string `json:"frequency" jsonschema:"daily, weekly, or monthly"`
	Day         int    `json:"day,omitempty" jsonschema:"weekday 0-6 for weekly, day of month 1-31 for monthly; derived from start when omitted"`
	Start       string `json:"start,omitempty" jsonschema:"schedule start date YYYY-MM-DD, defaults to today"`
}

type RecurringCreateResult struct {
	Rule RuleView `json:"rule" jsonschema:"the created rule with its first due date"`
}

func recurringCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "recurring_create",
		Description: "Creates an automation rule that posts on a schedule",
	}
}

func (s *Server) recurringCreate(ctx context.Context, _ *mcp.CallToolRequest, in RecurringCreateInput) (*mcp.CallToolResult, RecurringCreateResult, error) {
	account, err := s.resolveAccount(ctx, in.Account)
	if err != nil {
		return nil, RecurringCreateResult{}, toolErr(err)
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return nil, RecurringCreateResult{}, toolErr(err)
	}
	start, err := parseOptionalDate(in.Start)
	if err != nil {
		return nil, RecurringCreateResult{}, toolErr(err)
	}
	rule := core.RecurringRule{
		Kind:        core.TransactionKind(in.Kind),
		AccountID:   account.ID,
		Amount:      amount,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Note:        in.Note,
		Frequency:   core.Frequency(in.Frequency),
		Day:         in.Day,
	}
	if in.PeerAccount != "" {
		peer, err := s.resolveAccount(ctx, in.PeerAccount)
		if err != nil {
			return nil, RecurringCreateResult{}, toolErr(err)
		}
		rule.PeerAccountID = &peer.ID
	}
	created, err := s.recurring.Create(ctx, rule, start)
	if err != nil {
		return nil, RecurringCreateResult{}, toolErr(err)
	}
	return nil, RecurringCreateResult{Rule: s.ruleView(ctx, created)}, nil
}

type RecurringUpdateInput struct {
	ID      int64   `json:"id" jsonschema:"rule identifier"`
	Amount  *string `json:"amount,omitempty" jsonschema:"new amount as a decimal string"`
	NextDue *string `json:"next_due,omitempty" jsonschema:"new next due date YYYY-MM-DD, may only move forward"`
	Account *string `json:"account,omitempty" jsonschema:"new source account name"`
	Note    *string `json:"note,omitempty" jsonschema:"new note"`
}

type RecurringUpdateResult struct {
	Rule RuleView `json:"rule" jsonschema:"the updated rule"`
}

func recurringUpdateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "recurring_update",
		Description: "Edits a rule's amount, account, note, or next due date",
	}
}

func (s *Server) recurringUpdate(ctx context.Context, _ *mcp.CallToolRequest, in RecurringUpdateInput) (*mcp.CallToolResult, RecurringUpdateResult, error) {
	var u core.RuleUpdate
	if in.Amount != nil {
		amount, err := core.ParseAmount(*in.Amount)
		if err != nil {
			return nil, RecurringUpdateResult{}, toolErr(err)
		}
		u.Amount = &amount
	}
	if in.NextDue != nil {
		next, err := core.ParseDate(*in.NextDue)
		if err != nil {
			return nil, RecurringUpdateResult{}, toolErr(err)
		}
		u.NextDue = &next
	}
	if in.Account != nil {
		account, err := s.resolveAccount(ctx, *in.Account)
		if err != nil {
			return nil, RecurringUpdateResult{}, toolErr(err)
		}
		u.AccountID = &account.ID
	}
	u.Note = in.Note

	updated, err := s.recurring.Update(ctx, in.ID, u)
	if err != nil {
		return nil, RecurringUpdateResult{}, toolErr(err)
	}
	return nil, RecurringUpdateResult{Rule: s.ruleView(ctx, updated)}, nil
}

type RecurringDeactivateInput struct {
	ID int64 `json:"id" jsonschema:"rule identifier"`
}

type RecurringDeactivateResult struct {
	Deactivated bool `json:"deactivated" jsonschema:"whether the rule was deactivated"`
}

func recurringDeactivateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "recurring_deactivate",
		Description: "Stops a rule from producing further occurrences; its history stays",
	}
}

func (s *Server) recurringDeactivate(ctx context.Context, _ *mcp.CallToolRequest, in RecurringDeactivateInput) (*mcp.CallToolResult, RecurringDeactivateResult, error) {
	if err := s.recurring.Deactivate(ctx, in.ID); err != nil {
		return nil, RecurringDeactivateResult{}, toolErr(err)
	}
	return nil, RecurringDeactivateResult{Deactivated: true}, nil
}

type RecurringDeleteInput struct {
	ID int64 `json:"id" jsonschema:"rule identifier"`
}

type RecurringDeleteResult struct {
	Deleted bool `json:"deleted" jsonschema:"whether the rule was removed"`
}

func recurringDeleteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "recurring_delete",
		Description: "Removes a rule that has never posted; processed rules must be deactivated",
	}
}

func (s *Server) recurringDelete(ctx context.Context, _ *mcp.CallToolRequest, in RecurringDeleteInput) (*mcp.CallToolResult, RecurringDeleteResult, error) {
	if err := s.recurring.Delete(ctx, in.ID); err != nil {
		return nil, RecurringDeleteResult{}, toolErr(err)
	}
	return nil, RecurringDeleteResult{Deleted: true}, nil
}

type RecurringListInput struct{}

type RecurringListResult struct {
	Rules []RuleView `json:"rules" jsonschema:"all rules ordered by next due date"`
}

func recurringListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "recurring_list",
		Description: "Lists recurring rules with their schedules",
	}
}

func (s *Server) recurringList(ctx context.Context, _ *mcp.CallToolRequest, _ RecurringListInput) (*mcp.CallToolResult, RecurringListResult, error) {
	rules, err := s.recurring.List(ctx)
	if err != nil {
		return nil, RecurringListResult{}, toolErr(err)
	}
	views := make([]RuleView, len(rules))
	for i, r := range rules {
		views[i] = s.ruleView(ctx, r)
	}
	return nil, RecurringListResult{Rules: views}, nil
}

type RecurringProcessInput struct {
	AsOf string `json:"as_of,omitempty" jsonschema:"process occurrences due on or before this date, defaults to today"`
}

type RecurringProcessResult struct {
	Posted int `json:"posted" jsonschema:"number of occurrences materialized"`
}

func recurringProcessTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "recurring_process",
		Description: "Posts every due occurrence; overdue rules catch up one posting per period",
	}
}

func (s *Server) recurringProcess(ctx context.Context, _ *mcp.CallToolRequest, in RecurringProcessInput) (*mcp.CallToolResult, RecurringProcessResult, error) {
	asOf, err := parseOptionalDate(in.AsOf)
	if err != nil {
		return nil, RecurringProcessResult{}, toolErr(err)
	}
	posted, err := s.recurring.ProcessDue(ctx, asOf)
	if err != nil {
		return nil, RecurringProcessResult{Posted: posted}, toolErr(err)
	}
	return nil, RecurringProcessResult{Posted: posted}, nil
}
