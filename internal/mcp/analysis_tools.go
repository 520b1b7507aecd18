package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SummaryInput struct {
	From string `json:"from,omitempty" jsonschema:"inclusive start date YYYY-MM-DD"`
	To   string `json:"to,omitempty" jsonschema:"inclusive end date YYYY-MM-DD"`
}

type SummaryResult struct {
	Income  string `json:"income" jsonschema:"total income in the range"`
	Expense string `json:"expense" jsonschema:"total expenses in the range"`
	Net     string `json:"net" jsonschema:"income minus expenses"`
}

func summaryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "summary",
		Description: "Totals income and expenses over a date range; transfers are excluded",
	}
}

func (s *Server) summary(ctx context.Context, _ *mcp.CallToolRequest, in SummaryInput) (*mcp.CallToolResult, SummaryResult, error) {
	from, to, err := parseRange(in.From, in.To)
	if err != nil {
		return nil, SummaryResult{}, toolErr(err)
	}
	sum, err := s.analysis.Summary(ctx, from, to)
	if err != nil {
		return nil, SummaryResult{}, toolErr(err)
	}
	return nil, SummaryResult{
		Income:  sum.Income.String(),
		Expense: sum.Expense.String(),
		Net:     sum.Net.String(),
	}, nil
}

type BreakdownInput struct {
	Dimension string `json:"dimension" jsonschema:"group by category or account"`
	From      string `json:"from,omitempty" jsonschema:"inclusive start date YYYY-MM-DD"`
	To        string `json:"to,omitempty" jsonschema:"inclusive end date YYYY-MM-DD"`
}

type BreakdownResult struct {
	Rows []BreakdownView `json:"rows" jsonschema:"expense totals, largest first"`
}

func breakdownTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "spending_breakdown",
		Description: "Groups expense totals by category or account",
	}
}

func (s *Server) breakdown(ctx context.Context, _ *mcp.CallToolRequest, in BreakdownInput) (*mcp.CallToolResult, BreakdownResult, error) {
	from, to, err := parseRange(in.From, in.To)
	if err != nil {
		return nil, BreakdownResult{}, toolErr(err)
	}
	rows, err := s.analysis.Breakdown(ctx, in.Dimension, from, to)
	if err != nil {
		return nil, BreakdownResult{}, toolErr(err)
	}
	return nil, BreakdownResult{Rows: breakdownViews(rows)}, nil
}

type TrendInput struct {
	Category string `json:"category" jsonschema:"expense category to trend"`
	Period   string `json:"period" jsonschema:"monthly or yearly buckets"`
	From     string `json:"from,omitempty" jsonschema:"inclusive start date YYYY-MM-DD"`
	To       string `json:"to,omitempty" jsonschema:"inclusive end date YYYY-MM-DD"`
}

type TrendResult struct {
	Rows []BreakdownView `json:"rows" jsonschema:"per-period totals, oldest first"`
}

func trendTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "spending_trend",
		Description: "Shows how spending in one category changes over time",
	}
}

func (s *Server) trend(ctx context.Context, _ *mcp.CallToolRequest, in TrendInput) (*mcp.CallToolResult, TrendResult, error) {
	from, to, err := parseRange(in.From, in.To)
	if err != nil {
		return nil, TrendResult{}, toolErr(err)
	}
	rows, err := s.analysis.Trend(ctx, in.Category, in.Period, from, to)
	if err != nil {
		return nil, TrendResult{}, toolErr(err)
	}
	return nil, TrendResult{Rows: breakdownViews(rows)}, nil
}

type TopCategoriesInput struct {
	Count int    `json:"count,omitempty" jsonschema:"number of categories to return, default 5"`
	From  string `json:"from,omitempty" jsonschema:"inclusive start date YYYY-MM-DD"`
	To    string `json:"to,omitempty" jsonschema:"inclusive end date YYYY-MM-DD"`
}

type TopCategoriesResult struct {
	Rows []BreakdownView `json:"rows" jsonschema:"largest expense categories first"`
}

func topCategoriesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "top_categories",
		Description: "Returns the largest expense categories in a date range",
	}
}

func (s *Server) topCategories(ctx context.Context, _ *mcp.CallToolRequest, in TopCategoriesInput) (*mcp.CallToolResult, TopCategoriesResult, error) {
	from, to, err := parseRange(in.From, in.To)
	if err != nil {
		return nil, TopCategoriesResult{}, toolErr(err)
	}
	count := in.Count
	if count <= 0 {
		count = 5
	}
	rows, err := s.analysis.TopCategories(ctx, from, to, count)
	if err != nil {
		return nil, TopCategoriesResult{}, toolErr(err)
	}
	return nil, TopCategoriesResult{Rows: breakdownViews(rows)}, nil
}

type SearchInput struct {
	Keyword string `json:"keyword" jsonschema:"text to look for in transaction notes, case-insensitive"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum rows to return, default 50"`
}

type SearchResult struct {
	Transactions []TransactionView `json:"transactions" jsonschema:"matching transactions, newest first"`
}

func searchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_transactions",
		Description: "Finds transactions whose note contains a keyword",
	}
}

func (s *Server) search(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchResult, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 50
	}
	hits, err := s.analysis.Search(ctx, in.Keyword, limit)
	if err != nil {
		return nil, SearchResult{}, toolErr(err)
	}
	return nil, SearchResult{Transactions: transactionViews(hits)}, nil
}

type CategoryListInput struct{}

type CategoryListResult struct {
	Categories map[string][]string `json:"categories" jsonschema:"category names mapped to their subcategories"`
}

func categoryListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "category_list",
		Description: "Lists the configured categories and their subcategories",
	}
}

func (s *Server) categoryList(_ context.Context, _ *mcp.CallToolRequest, _ CategoryListInput) (*mcp.CallToolResult, CategoryListResult, error) {
	out := make(map[string][]string)
	if s.catalog != nil {
		for _, name := range s.catalog.Names() {
			subs, _ := s.catalog.Lookup(name)
			out[name] = subs
		}
	}
	return nil, CategoryListResult{Categories: out}, nil
}
