package services

import (
	"context"
	"fmt"

	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/storage"
)

// RecurringService manages rules and materializes their due occurrences.
// Each occurrence is posted and the rule advanced in one write transaction,
// so a crash mid-run leaves a resumable prefix and never a double posting.
type RecurringService struct {
	store  *storage.Store
	ledger *LedgerService
	logger *log.Logger
}

func NewRecurringService(store *storage.Store, ledger *LedgerService, logger *log.Logger) *RecurringService {
	return &RecurringService{
		store:  store,
		ledger: ledger,
		logger: logger.WithComponent(log.ComponentRecurring),
	}
}

// Create registers a rule. The first due date is the first schedule match on
// or after start; a rule starting on its own day is due that same day.
func (s *RecurringService) Create(ctx context.Context, r core.RecurringRule, start core.Date) (core.RecurringRule, error) {
	if start.IsZero() {
		start = core.Today()
	}
	if r.Frequency == core.Monthly && r.Day == 0 {
		r.Day = start.Day()
	}
	if r.Frequency == core.Weekly && r.Day == 0 {
		r.Day = int(start.Weekday())
	}
	if r.Kind == core.KindTransferOut {
		r.Category = core.CategoryTransfer
	}
	if err := r.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	if err := s.ledger.checkCategory(r.Category, r.Subcategory); err != nil {
		return core.RecurringRule{}, err
	}
	r.Status = core.RuleScheduled
	r.NextDue = FirstOccurrence(r.Frequency, r.Day, start)
	r.LastProcessed = core.Date{}

	var created core.RecurringRule
	err := s.store.WithTx(ctx, func(tx storage.Querier) error {
		if err := s.checkRuleAccounts(ctx, tx, r); err != nil {
			return err
		}
		id, err := s.store.InsertRule(ctx, tx, r)
		if err != nil {
			return err
		}
		created, err = s.store.GetRule(ctx, tx, id)
		return err
	})
	if err != nil {
		return core.RecurringRule{}, err
	}
	s.logger.InfoContext(ctx, "recurring rule created",
		"rule_id", created.ID, "kind", created.Kind, "frequency", created.Frequency, "next_due", created.NextDue.String())
	return created, nil
}

func (s *RecurringService) checkRuleAccounts(ctx context.Context, tx storage.Querier, r core.RecurringRule) error {
	account, err := s.store.GetAccount(ctx, tx, r.AccountID)
	if err != nil {
		return err
	}
	if !account.Active {
		return core.Validationf("account %q is deactivated", account.Name)
	}
	if r.PeerAccountID != nil {
		peer, err := s.store.GetAccount(ctx, tx, *r.PeerAccountID)
		if err != nil {
			return err
		}
		if !peer.Active {
			return core.Validationf("account %q is deactivated", peer.Name)
		}
	}
	return nil
}

// Update edits a rule's amount, account, note, or next due date. The next
// due date can only move forward; moving it backwards would replay periods
// already materialized.
func (s *RecurringService) Update(ctx context.Context, id int64, u core.RuleUpdate) (core.RecurringRule, error) {
	if u.Empty() {
		return core.RecurringRule{}, core.Validationf("no fields to update")
	}
	var updated core.RecurringRule
	err := s.store.WithTx(ctx, func(tx storage.Querier) error {
		r, err := s.store.GetRule(ctx, tx, id)
		if err != nil {
			return err
		}
		if u.Amount != nil {
			if err := u.Amount.Validate(); err != nil {
				return err
			}
			r.Amount = *u.Amount
		}
		if u.NextDue != nil {
			if u.NextDue.Before(r.NextDue) {
				return core.Conflictf("next due date %s cannot move before %s", u.NextDue, r.NextDue)
			}
			r.NextDue = *u.NextDue
		}
		if u.AccountID != nil {
			if r.PeerAccountID != nil && *u.AccountID == *r.PeerAccountID {
				return core.Validationf("transfer rule cannot target its own account")
			}
			account, err := s.store.GetAccount(ctx, tx, *u.AccountID)
			if err != nil {
				return err
			}
			if !account.Active {
				return core.Validationf("account %q is deactivated", account.Name)
			}
			r.AccountID = *u.AccountID
		}
		if u.Note != nil {
			r.Note = *u.Note
		}
		if err := s.store.UpdateRule(ctx, tx, r); err != nil {
			return err
		}
		updated, err = s.store.GetRule(ctx, tx, id)
		return err
	})
	if err != nil {
		return core.RecurringRule{}, err
	}
	s.logger.InfoContext(ctx, "recurring rule updated", "rule_id", id)
	return updated, nil
}

// Deactivate stops a rule from producing further occurrences. Its posted
// history stays in the ledger.
func (s *RecurringService) Deactivate(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx storage.Querier) error {
		r, err := s.store.GetRule(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.Status == core.RuleInactive {
			return core.Conflictf("recurring rule %d is already inactive", id)
		}
		return s.store.SetRuleStatus(ctx, tx, id, core.RuleInactive)
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "recurring rule deactivated", "rule_id", id)
	return nil
}

// Delete removes a rule that has never produced a posting. Processed rules
// must be deactivated instead so their history stays explainable.
func (s *RecurringService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx storage.Querier) error {
		r, err := s.store.GetRule(ctx, tx, id)
		if err != nil {
			return err
		}
		if !r.LastProcessed.IsZero() {
			return core.Conflictf("recurring rule %d has posted occurrences, deactivate it instead", id)
		}
		return s.store.DeleteRule(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "recurring rule deleted", "rule_id", id)
	return nil
}

// Get returns one rule by id.
func (s *RecurringService) Get(ctx context.Context, id int64) (core.RecurringRule, error) {
	return s.store.GetRule(ctx, s.store.Reader(), id)
}

// List returns all rules ordered by next due date.
func (s *RecurringService) List(ctx context.Context) ([]core.RecurringRule, error) {
	return s.store.ListRules(ctx, s.store.Reader())
}

// ProcessDue materializes every scheduled occurrence with a due date on or
// before asOf and returns the number of postings made. A rule overdue by
// several periods catches up one occurrence per period, each dated on its
// own due date. Re-running with the same asOf is a no-op.
func (s *RecurringService) ProcessDue(ctx context.Context, asOf core.Date) (int, error) {
	if asOf.IsZero() {
		asOf = core.Today()
	}
	due, err := s.store.ListDueRules(ctx, s.store.Reader(), asOf)
	if err != nil {
		return 0, err
	}
	posted := 0
	for _, r := range due {
		n, err := s.processRule(ctx, r, asOf)
		posted += n
		if err != nil {
			return posted, fmt.Errorf("rule %d: %w", r.ID, err)
		}
	}
	if posted > 0 {
		s.logger.InfoContext(ctx, "recurring rules processed", "as_of", asOf.String(), "postings", posted)
	}
	return posted, nil
}

// processRule walks one rule forward period by period. Each step is its own
// transaction: posting plus schedule advance commit together or not at all.
func (s *RecurringService) processRule(ctx context.Context, r core.RecurringRule, asOf core.Date) (int, error) {
	posted := 0
	for !r.NextDue.After(asOf) {
		occurrence := r.NextDue
		if !r.LastProcessed.IsZero() && !occurrence.After(r.LastProcessed) {
			// Already materialized; advance the schedule only.
			r.NextDue = NextOccurrence(r.Frequency, r.Day, occurrence)
			err := s.store.WithTx(ctx, func(tx storage.Querier) error {
				return s.store.AdvanceRule(ctx, tx, r.ID, r.NextDue, r.LastProcessed)
			})
			if err != nil {
				return posted, err
			}
			continue
		}
		next := NextOccurrence(r.Frequency, r.Day, occurrence)
		err := s.store.WithTx(ctx, func(tx storage.Querier) error {
			if err := s.postOccurrence(ctx, tx, r, occurrence); err != nil {
				return err
			}
			return s.store.AdvanceRule(ctx, tx, r.ID, next, occurrence)
		})
		if err != nil {
			return posted, err
		}
		posted++
		r.NextDue = next
		r.LastProcessed = occurrence
	}
	return posted, nil
}

func (s *RecurringService) postOccurrence(ctx context.Context, tx storage.Querier, r core.RecurringRule, on core.Date) error {
	if r.Kind == core.KindTransferOut {
		_, _, err := s.ledger.TransferInTx(ctx, tx, TransferInput{
			FromAccountID: r.AccountID,
			ToAccountID:   *r.PeerAccountID,
			Amount:        r.Amount,
			Note:          r.Note,
			Date:          on,
		})
		return err
	}
	_, err := s.ledger.PostInTx(ctx, tx, PostingInput{
		AccountID:   r.AccountID,
		Kind:        r.Kind,
		Amount:      r.Amount,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		Note:        r.Note,
		Date:        on,
	})
	return err
}
