// Package worker consumes posting events from AMQP and writes an audit
// trail. Deployments that want a durable record of every mutation outside
// the database run this next to the MCP server.
package worker

import (
	"context"
	"fmt"

	"financeflow/internal/amqp"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/storage"
)

// AuditWorker resolves each posting event against the ledger and logs the
// full entry. Events for transactions that have since been deleted are
// logged as such, not treated as failures.
type AuditWorker struct {
	store  *storage.Store
	events *amqp.Client
	logger *log.Logger
}

func NewAuditWorker(store *storage.Store, events *amqp.Client, logger *log.Logger) *AuditWorker {
	return &AuditWorker{
		store:  store,
		events: events,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Run consumes posting events until the context is cancelled.
func (w *AuditWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "audit worker starting")
	return w.events.ConsumePostings(ctx, func(event *amqp.PostingEvent) error {
		return w.handle(ctx, event)
	})
}

func (w *AuditWorker) handle(ctx context.Context, event *amqp.PostingEvent) error {
	t, err := w.store.GetTransaction(ctx, w.store.Reader(), event.TransactionID)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			w.logger.InfoContext(ctx, "audit: transaction no longer exists",
				"transaction_id", event.TransactionID,
				"kind", event.Kind,
				"posted_at", event.Timestamp)
			return nil
		}
		return fmt.Errorf("resolve transaction %d: %w", event.TransactionID, err)
	}
	w.logger.InfoContext(ctx, "audit: posting",
		"transaction_id", t.ID,
		"account", t.AccountName,
		"kind", t.Kind,
		"amount", t.Amount.String(),
		"category", t.Category,
		"date", t.Date.String(),
		"posted_at", event.Timestamp)
	return nil
}
