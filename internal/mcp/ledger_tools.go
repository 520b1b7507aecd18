package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"financeflow/internal/core"
	"financeflow/internal/services"
)

type TransactionAddInput struct {
	Account     string `json:"account" jsonschema:"account name"`
	Kind        string `json:"kind" jsonschema:"income or expense"`
	Amount      string `json:"amount" jsonschema:"positive amount as a decimal string"`
	Category    string `json:"category" jsonschema:"category name from the configured catalog"`
	Subcategory string `json:"subcategory,omitempty" jsonschema:"optional subcategory"`
	Note        string `json:"note,omitempty" jsonschema:"optional free-form note"`
	Date        string `json:"date,omitempty" jsonschema:"posting date YYYY-MM-DD, defaults to today"`
}

type TransactionAddResult struct {
	Transaction TransactionView `json:"transaction" jsonschema:"the posted transaction"`
}

func transactionAddTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "transaction_add",
		Description: "Posts an income or expense to an account",
	}
}

func (s *Server) transactionAdd(ctx context.Context, _ *mcp.CallToolRequest, in TransactionAddInput) (*mcp.CallToolResult, TransactionAddResult, error) {
	account, err := s.resolveAccount(ctx, in.Account)
	if err != nil {
		return nil, TransactionAddResult{}, toolErr(err)
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return nil, TransactionAddResult{}, toolErr(err)
	}
	date, err := parseOptionalDate(in.Date)
	if err != nil {
		return nil, TransactionAddResult{}, toolErr(err)
	}
	posted, err := s.ledger.Post(ctx, services.PostingInput{
		AccountID:   account.ID,
		Kind:        core.TransactionKind(in.Kind),
		Amount:      amount,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Note:        in.Note,
		Date:        date,
	})
	if err != nil {
		return nil, TransactionAddResult{}, toolErr(err)
	}
	return nil, TransactionAddResult{Transaction: transactionView(posted)}, nil
}

type TransferAddInput struct {
	FromAccount string `json:"from_account" jsonschema:"source account name"`
	ToAccount   string `json:"to_account" jsonschema:"destination account name"`
	Amount      string `json:"amount" jsonschema:"positive amount as a decimal string"`
	Note        string `json:"note,omitempty" jsonschema:"optional note applied to both legs"`
	Date        string `json:"date,omitempty" jsonschema:"posting date YYYY-MM-DD, defaults to today"`
}

type TransferAddResult struct {
	OutLeg TransactionView `json:"out_leg" jsonschema:"the outgoing transfer leg"`
}

func transferAddTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "transfer_add",
		Description: "Moves money between two accounts as a linked pair of entries",
	}
}

func (s *Server) transferAdd(ctx context.Context, _ *mcp.CallToolRequest, in TransferAddInput) (*mcp.CallToolResult, TransferAddResult, error) {
	src, err := s.resolveAccount(ctx, in.FromAccount)
	if err != nil {
		return nil, TransferAddResult{}, toolErr(err)
	}
	dst, err := s.resolveAccount(ctx, in.ToAccount)
	if err != nil {
		return nil, TransferAddResult{}, toolErr(err)
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return nil, TransferAddResult{}, toolErr(err)
	}
	date, err := parseOptionalDate(in.Date)
	if err != nil {
		return nil, TransferAddResult{}, toolErr(err)
	}
	out, err := s.ledger.Transfer(ctx, services.TransferInput{
		FromAccountID: src.ID,
		ToAccountID:   dst.ID,
		Amount:        amount,
		Note:          in.Note,
		Date:          date,
	})
	if err != nil {
		return nil, TransferAddResult{}, toolErr(err)
	}
	return nil, TransferAddResult{OutLeg: transactionView(out)}, nil
}

type TransactionUpdateInput struct {
	ID          int64   `json:"id" jsonschema:"transaction identifier"`
	Account     *string `json:"account,omitempty" jsonschema:"move the entry to this account"`
	Amount      *string `json:"amount,omitempty" jsonschema:"new amount as a decimal string"`
	Category    *string `json:"category,omitempty" jsonschema:"new category"`
	Subcategory *string `json:"subcategory,omitempty" jsonschema:"new subcategory"`
	Note        *string `json:"note,omitempty" jsonschema:"new note"`
	Date        *string `json:"date,omitempty" jsonschema:"new posting date YYYY-MM-DD"`
}

type TransactionUpdateResult struct {
	Transaction TransactionView `json:"transaction" jsonschema:"the updated transaction"`
}

func transactionUpdateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "transaction_update",
		Description: "Edits a posted transaction; amount and date changes on a transfer leg apply to both legs",
	}
}

func (s *Server) transactionUpdate(ctx context.Context, _ *mcp.CallToolRequest, in TransactionUpdateInput) (*mcp.CallToolResult, TransactionUpdateResult, error) {
	var u core.TransactionUpdate
	if in.Account != nil {
		account, err := s.resolveAccount(ctx, *in.Account)
		if err != nil {
			return nil, TransactionUpdateResult{}, toolErr(err)
		}
		u.AccountID = &account.ID
	}
	if in.Amount != nil {
		amount, err := core.ParseAmount(*in.Amount)
		if err != nil {
			return nil, TransactionUpdateResult{}, toolErr(err)
		}
		u.Amount = &amount
	}
	if in.Date != nil {
		date, err := core.ParseDate(*in.Date)
		if err != nil {
			return nil, TransactionUpdateResult{}, toolErr(err)
		}
		u.Date = &date
	}
	u.Category = in.Category
	u.Subcategory = in.Subcategory
	u.Note = in.Note

	updated, err := s.ledger.Update(ctx, in.ID, u)
	if err != nil {
		return nil, TransactionUpdateResult{}, toolErr(err)
	}
	return nil, TransactionUpdateResult{Transaction: transactionView(updated)}, nil
}

type TransactionDeleteInput struct {
	ID int64 `json:"id" jsonschema:"transaction identifier"`
}

type TransactionDeleteResult struct {
	Deleted bool `json:"deleted" jsonschema:"whether the transaction was removed"`
}

func transactionDeleteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "transaction_delete",
		Description: "Deletes a transaction; deleting either transfer leg removes both",
	}
}

func (s *Server) transactionDelete(ctx context.Context, _ *mcp.CallToolRequest, in TransactionDeleteInput) (*mcp.CallToolResult, TransactionDeleteResult, error) {
	if err := s.ledger.Delete(ctx, in.ID); err != nil {
		return nil, TransactionDeleteResult{}, toolErr(err)
	}
	return nil, TransactionDeleteResult{Deleted: true}, nil
}

type TransactionListInput struct {
	Account  string `json:"account,omitempty" jsonschema:"filter by account name"`
	Category string `json:"category,omitempty" jsonschema:"filter by category"`
	From     string `json:"from,omitempty" jsonschema:"inclusive start date YYYY-MM-DD"`
	To       string `json:"to,omitempty" jsonschema:"inclusive end date YYYY-MM-DD"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum rows to return, default 50"`
}

type TransactionListResult struct {
	Transactions []TransactionView `json:"transactions" jsonschema:"matching transactions, newest first"`
}

func transactionListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "transaction_list",
		Description: "Lists transactions filtered by account, category, and date range",
	}
}

func (s *Server) transactionList(ctx context.Context, _ *mcp.CallToolRequest, in TransactionListInput) (*mcp.CallToolResult, TransactionListResult, error) {
	filter := core.TransactionFilter{Category: in.Category}
	if in.Account != "" {
		account, err := s.resolveAccount(ctx, in.Account)
		if err != nil {
			return nil, TransactionListResult{}, toolErr(err)
		}
		filter.AccountID = account.ID
	}
	from, to, err := parseRange(in.From, in.To)
	if err != nil {
		return nil, TransactionListResult{}, toolErr(err)
	}
	filter.From, filter.To = from, to

	limit := in.Limit
	if limit <= 0 {
		limit = 50
	}
	txs, err := s.ledger.List(ctx, filter, limit)
	if err != nil {
		return nil, TransactionListResult{}, toolErr(err)
	}
	return nil, TransactionListResult{Transactions: transactionViews(txs)}, nil
}
