package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"financeflow/internal/categories"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/services"
)

const (
	serverName    = "financeflow"
	serverVersion = "1.0.0"
)

// Server wires the ledger services into an MCP server.
type Server struct {
	accounts  *services.AccountService
	ledger    *services.LedgerService
	budgets   *services.BudgetService
	recurring *services.RecurringService
	analysis  *services.AnalysisService
	catalog   *categories.Catalog
	logger    *log.Logger
}

func NewServer(
	accounts *services.AccountService,
	ledger *services.LedgerService,
	budgets *services.BudgetService,
	recurring *services.RecurringService,
	analysis *services.AnalysisService,
	catalog *categories.Catalog,
	logger *log.Logger,
) *Server {
	return &Server{
		accounts:  accounts,
		ledger:    ledger,
		budgets:   budgets,
		recurring: recurring,
		analysis:  analysis,
		catalog:   catalog,
		logger:    logger.WithComponent(log.ComponentMCP),
	}
}

// Build registers every tool on a fresh MCP server.
func (s *Server) Build() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(server, accountCreateTool(), s.accountCreate)
	mcp.AddTool(server, accountRenameTool(), s.accountRename)
	mcp.AddTool(server, accountDeactivateTool(), s.accountDeactivate)
	mcp.AddTool(server, accountListTool(), s.accountList)

	mcp.AddTool(server, transactionAddTool(), s.transactionAdd)
	mcp.AddTool(server, transferAddTool(), s.transferAdd)
	mcp.AddTool(server, transactionUpdateTool(), s.transactionUpdate)
	mcp.AddTool(server, transactionDeleteTool(), s.transactionDelete)
	mcp.AddTool(server, transactionListTool(), s.transactionList)

	mcp.AddTool(server, budgetSetTool(), s.budgetSet)
	mcp.AddTool(server, budgetStatusTool(), s.budgetStatus)

	mcp.AddTool(server, recurringCreateTool(), s.recurringCreate)
	mcp.AddTool(server, recurringUpdateTool(), s.recurringUpdate)
	mcp.AddTool(server, recurringDeactivateTool(), s.recurringDeactivate)
	mcp.AddTool(server, recurringDeleteTool(), s.recurringDelete)
	mcp.AddTool(server, recurringListTool(), s.recurringList)
	mcp.AddTool(server, recurringProcessTool(), s.recurringProcess)

	mcp.AddTool(server, summaryTool(), s.summary)
	mcp.AddTool(server, breakdownTool(), s.breakdown)
	mcp.AddTool(server, trendTool(), s.trend)
	mcp.AddTool(server, topCategoriesTool(), s.topCategories)
	mcp.AddTool(server, searchTool(), s.search)

	mcp.AddTool(server, categoryListTool(), s.categoryList)

	return server
}

// Run serves the tools over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "mcp server starting", "name", serverName, "version", serverVersion)
	return s.Build().Run(ctx, &mcp.StdioTransport{})
}

// toolErr prefixes errors with their kind so conversational clients can
// relay what went wrong.
func toolErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", core.KindOf(err), err)
}

// resolveAccount maps a tool's account name to the stored account.
// Unknown names surface as validation errors, not not-found.
func (s *Server) resolveAccount(ctx context.Context, name string) (core.Account, error) {
	if name == "" {
		return core.Account{}, core.Validationf("account name is required")
	}
	account, err := s.accounts.FindByName(ctx, name)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return core.Account{}, core.Validationf("unknown account %q", name)
		}
		return core.Account{}, err
	}
	return account, nil
}

// parseOptionalDate returns today when the tool omits the date.
func parseOptionalDate(s string) (core.Date, error) {
	if s == "" {
		return core.Today(), nil
	}
	return core.ParseDate(s)
}

// parseRange parses optional from/to bounds.
func parseRange(fromStr, toStr string) (from, to core.Date, err error) {
	if fromStr != "" {
		if from, err = core.ParseDate(fromStr); err != nil {
			return
		}
	}
	if toStr != "" {
		if to, err = core.ParseDate(toStr); err != nil {
			return
		}
	}
	return
}
