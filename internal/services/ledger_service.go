package services

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"financeflow/internal/amqp"
	"financeflow/internal/categories"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/storage"
)

// LedgerService posts, edits, and queries transactions. All mutations run in
// a single write transaction so the derived-balance view is never observed
// mid-change.
type LedgerService struct {
	store   *storage.Store
	catalog *categories.Catalog
	events  *amqp.Client
	logger  *log.Logger
}

// NewLedgerService creates a ledger service. events may be nil; posting then
// skips event publication.
func NewLedgerService(store *storage.Store, catalog *categories.Catalog, events *amqp.Client, logger *log.Logger) *LedgerService {
	return &LedgerService{
		store:   store,
		catalog: catalog,
		events:  events,
		logger:  logger.WithComponent(log.ComponentLedger),
	}
}

// PostingInput is the template of a single ledger entry.
type PostingInput struct {
	AccountID   int64
	Kind        core.TransactionKind
	Amount      core.Money
	Category    string
	Subcategory string
	Note        string
	Date        core.Date
}

// Post records one income or expense entry and returns the stored
// transaction.
func (s *LedgerService) Post(ctx context.Context, in PostingInput) (core.Transaction, error) {
	if in.Kind != core.KindIncome && in.Kind != core.KindExpense {
		return core.Transaction{}, core.Validationf("kind must be income or expense, got %q", in.Kind)
	}
	var posted core.Transaction
	err := s.store.WithTx(ctx, func(tx storage.Querier) error {
		id, err := s.PostInTx(ctx, tx, in)
		if err != nil {
			return err
		}
		posted, err = s.store.GetTransaction(ctx, tx, id)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "transaction posted",
		"transaction_id", posted.ID, "kind", posted.Kind, "account_id", posted.AccountID, "amount", posted.Amount.String())
	s.publishPosted(ctx, posted.ID, posted.AccountID, posted.Kind)
	return posted, nil
}

// PostInTx validates and inserts one entry inside an open transaction. It is
// the shared write path for direct posts, opening balances, transfer legs,
// and recurring materializations.
func (s *LedgerService) PostInTx(ctx context.Context, tx storage.Querier, in PostingInput) (int64, error) {
	t := core.Transaction{
		AccountID:   in.AccountID,
		Kind:        in.Kind,
		Amount:      in.Amount,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Note:        in.Note,
		Date:        in.Date,
	}
	if err := t.Validate(); err != nil {
		return 0, err
	}
	if err := s.checkCategory(t.Category, t.Subcategory); err != nil {
		return 0, err
	}
	account, err := s.store.GetAccount(ctx, tx, t.AccountID)
	if err != nil {
		return 0, err
	}
	if !account.Active {
		return 0, core.Validationf("account %q is deactivated", account.Name)
	}
	return s.store.InsertTransaction(ctx, tx, t)
}

// checkCategory enforces catalog membership. The engine's own reserved
// categories always pass.
func (s *LedgerService) checkCategory(category, subcategory string) error {
	if category == core.CategoryOpeningBalance || category == core.CategoryTransfer {
		return nil
	}
	if s.catalog == nil {
		return nil
	}
	if _, ok := s.catalog.Lookup(category); !ok {
		return core.Validationf("unknown category %q", category)
	}
	if !s.catalog.HasSubcategory(category, subcategory) {
		return core.Validationf("unknown subcategory %q for category %q", subcategory, category)
	}
	return nil
}

// TransferInput moves money between two accounts.
type TransferInput struct {
	FromAccountID int64
	ToAccountID   int64
	Amount        core.Money
	Note          string
	Date          core.Date
}

// Transfer posts the outgoing and incoming legs atomically and links them.
// It returns the outgoing leg.
func (s *LedgerService) Transfer(ctx context.Context, in TransferInput) (core.Transaction, error) {
	var out core.Transaction
	err := s.store.WithTx(ctx, func(tx storage.Querier) error {
		outID, _, err := s.TransferInTx(ctx, tx, in)
		if err != nil {
			return err
		}
		out, err = s.store.GetTransaction(ctx, tx, outID)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "transfer posted",
		"transaction_id", out.ID, "from_account_id", in.FromAccountID, "to_account_id", in.ToAccountID, "amount", in.Amount.String())
	s.publishPosted(ctx, out.ID, out.AccountID, out.Kind)
	return out, nil
}

// TransferInTx posts both legs of a transfer inside an open transaction and
// returns their ids.
func (s *LedgerService) TransferInTx(ctx context.Context, tx storage.Querier, in TransferInput) (outID, inID int64, err error) {
	if in.FromAccountID == in.ToAccountID {
		return 0, 0, core.Validationf("cannot transfer an account to itself")
	}
	src, err := s.store.GetAccount(ctx, tx, in.FromAccountID)
	if err != nil {
		return 0, 0, err
	}
	dst, err := s.store.GetAccount(ctx, tx, in.ToAccountID)
	if err != nil {
		return 0, 0, err
	}
	if !src.Active {
		return 0, 0, core.Validationf("account %q is deactivated", src.Name)
	}
	if !dst.Active {
		return 0, 0, core.Validationf("account %q is deactivated", dst.Name)
	}

	outNote := in.Note
	inNote := in.Note
	if strings.TrimSpace(in.Note) == "" {
		outNote = fmt.Sprintf("Transfer to %s", dst.Name)
		inNote = fmt.Sprintf("Transfer from %s", src.Name)
	}
	outID, err = s.PostInTx(ctx, tx, PostingInput{
		AccountID: in.FromAccountID,
		Kind:      core.KindTransferOut,
		Amount:    in.Amount,
		Category:  core.CategoryTransfer,
		Note:      outNote,
		Date:      in.Date,
	})
	if err != nil {
		return 0, 0, err
	}
	inID, err = s.PostInTx(ctx, tx, PostingInput{
		AccountID: in.ToAccountID,
		Kind:      core.KindTransferIn,
		Amount:    in.Amount,
		Category:  core.CategoryTransfer,
		Note:      inNote,
		Date:      in.Date,
	})
	if err != nil {
		return 0, 0, err
	}
	if err := s.store.LinkTransferPeers(ctx, tx, outID, inID); err != nil {
		return 0, 0, err
	}
	return outID, inID, nil
}

// Update edits a posted transaction. The row rewrite happens in one write
// transaction, so the derived balance reflects only the new values. Editing
// one leg of a transfer keeps the pair balanced: amount and date changes
// apply to both legs, category changes are rejected.
func (s *LedgerService) Update(ctx context.Context, id int64, u core.TransactionUpdate) (core.Transaction, error) {
	if u.Empty() {
		return core.Transaction{}, core.Validationf("no fields to update")
	}
	var updated core.Transaction
	err := s.store.WithTx(ctx, func(tx storage.Querier) error {
		t, err := s.store.GetTransaction(ctx, tx, id)
		if err != nil {
			return err
		}
		if t.Kind.IsTransfer() {
			err = s.updateTransferLeg(ctx, tx, t, u)
		} else {
			err = s.updateSingle(ctx, tx, t, u)
		}
		if err != nil {
			return err
		}
		updated, err = s.store.GetTransaction(ctx, tx, id)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "transaction updated", "transaction_id", id)
	return updated, nil
}

func (s *LedgerService) updateSingle(ctx context.Context, tx storage.Querier, t core.Transaction, u core.TransactionUpdate) error {
	if u.AccountID != nil {
		account, err := s.store.GetAccount(ctx, tx, *u.AccountID)
		if err != nil {
			return err
		}
		if !account.Active {
			return core.Validationf("account %q is deactivated", account.Name)
		}
		t.AccountID = *u.AccountID
	}
	if u.Amount != nil {
		t.Amount = *u.Amount
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.Subcategory != nil {
		t.Subcategory = *u.Subcategory
	}
	if u.Note != nil {
		t.Note = *u.Note
	}
	if u.Date != nil {
		t.Date = *u.Date
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if u.Category != nil || u.Subcategory != nil {
		if err := s.checkCategory(t.Category, t.Subcategory); err != nil {
			return err
		}
	}
	return s.store.UpdateTransactionRow(ctx, tx, t)
}

func (s *LedgerService) updateTransferLeg(ctx context.Context, tx storage.Querier, t core.Transaction, u core.TransactionUpdate) error {
	if u.Category != nil || u.Subcategory != nil {
		return core.Conflictf("transfer legs cannot change category")
	}
	if t.TransferPeerID == nil {
		return core.Integrity("transfer leg has no linked peer", nil)
	}
	peer, err := s.store.GetTransaction(ctx, tx, *t.TransferPeerID)
	if err != nil {
		return err
	}
	if u.AccountID != nil {
		if *u.AccountID == peer.AccountID {
			return core.Validationf("cannot transfer an account to itself")
		}
		account, err := s.store.GetAccount(ctx, tx, *u.AccountID)
		if err != nil {
			return err
		}
		if !account.Active {
			return core.Validationf("account %q is deactivated", account.Name)
		}
		t.AccountID = *u.AccountID
	}
	if u.Note != nil {
		t.Note = *u.Note
	}
	// Amount and date stay equal on both legs.
	if u.Amount != nil {
		t.Amount = *u.Amount
		peer.Amount = *u.Amount
	}
	if u.Date != nil {
		t.Date = *u.Date
		peer.Date = *u.Date
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateTransactionRow(ctx, tx, t); err != nil {
		return err
	}
	if u.Amount != nil || u.Date != nil {
		return s.store.UpdateTransactionRow(ctx, tx, peer)
	}
	return nil
}

// Delete removes a transaction. Deleting either leg of a transfer removes
// both legs.
func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx storage.Querier) error {
		t, err := s.store.GetTransaction(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.store.DeleteTransactionPair(ctx, tx, t.ID, t.TransferPeerID)
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "transaction deleted", "transaction_id", id)
	return nil
}

// Get returns one transaction by id.
func (s *LedgerService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, s.store.Reader(), id)
}

// Query streams transactions matching the filter, newest first.
func (s *LedgerService) Query(ctx context.Context, f core.TransactionFilter) iter.Seq2[core.Transaction, error] {
	return s.store.QueryTransactions(ctx, s.store.Reader(), f)
}

// List collects matching transactions up to limit. A limit of zero means
// no cap.
func (s *LedgerService) List(ctx context.Context, f core.TransactionFilter, limit int) ([]core.Transaction, error) {
	var out []core.Transaction
	for t, err := range s.Query(ctx, f) {
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *LedgerService) publishPosted(ctx context.Context, transactionID, accountID int64, kind core.TransactionKind) {
	if s.events == nil {
		return
	}
	event := amqp.NewPostingEvent(transactionID, accountID, string(kind))
	if err := s.events.PublishPosting(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish posting event", "transaction_id", transactionID, "error", err)
	}
}
