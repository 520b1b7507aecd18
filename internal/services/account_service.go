package services

import (
	"context"
	"strings"

	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/storage"
)

// AccountService manages account lifecycle. Opening balances go through the
// ledger as real postings, so an account's balance is always the sum of its
// entries.
type AccountService struct {
	store  *storage.Store
	ledger *LedgerService
	logger *log.Logger
}

func NewAccountService(store *storage.Store, ledger *LedgerService, logger *log.Logger) *AccountService {
	return &AccountService{
		store:  store,
		ledger: ledger,
		logger: logger.WithComponent(log.ComponentAccounts),
	}
}

// Create opens a new account. A non-zero opening balance is recorded as an
// income posting in the reserved opening_balance category.
func (s *AccountService) Create(ctx context.Context, name string, typ core.AccountType, opening core.Money) (core.Account, error) {
	name = strings.TrimSpace(name)
	if err := core.ValidateAccountName(name); err != nil {
		return core.Account{}, err
	}
	if err := typ.Validate(); err != nil {
		return core.Account{}, err
	}
	if opening.Cents < 0 {
		return core.Account{}, core.Validationf("opening balance cannot be negative")
	}
	var account core.Account
	err := s.store.WithTx(ctx, func(tx storage.Querier) error {
		_, err := s.store.FindActiveAccountByName(ctx, tx, name)
		if err == nil {
			return core.Validationf("an account named %q already exists", name)
		}
		if core.KindOf(err) != core.KindNotFound {
			return err
		}
		id, err := s.store.CreateAccount(ctx, tx, name, typ)
		if err != nil {
			return err
		}
		if opening.Cents > 0 {
			_, err = s.ledger.PostInTx(ctx, tx, PostingInput{
				AccountID: id,
				Kind:      core.KindIncome,
				Amount:    opening,
				Category:  core.CategoryOpeningBalance,
				Note:      "Opening balance",
				Date:      core.Today(),
			})
			if err != nil {
				return err
			}
		}
		account, err = s.store.GetAccount(ctx, tx, id)
		return err
	})
	if err != nil {
		return core.Account{}, err
	}
	s.logger.InfoContext(ctx, "account created", "account_id", account.ID, "name", account.Name, "type", account.Type)
	return account, nil
}

// Rename changes an account's display name. The new name must not collide
// with another active account, case-insensitively.
func (s *AccountService) Rename(ctx context.Context, id int64, newName string) (core.Account, error) {
	newName = strings.TrimSpace(newName)
	if err := core.ValidateAccountName(newName); err != nil {
		return core.Account{}, err
	}
	var account core.Account
	err := s.store.WithTx(ctx, func(tx storage.Querier) error {
		current, err := s.store.GetAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		existing, err := s.store.FindActiveAccountByName(ctx, tx, newName)
		if err == nil && existing.ID != current.ID {
			return core.Validationf("an account named %q already exists", newName)
		}
		if err != nil && core.KindOf(err) != core.KindNotFound {
			return err
		}
		if err := s.store.RenameAccount(ctx, tx, id, newName); err != nil {
			return err
		}
		account, err = s.store.GetAccount(ctx, tx, id)
		return err
	})
	if err != nil {
		return core.Account{}, err
	}
	s.logger.InfoContext(ctx, "account renamed", "account_id", id, "name", newName)
	return account, nil
}

// Deactivate retires an account. Without cascade the account must have no
// transactions; with cascade its history is removed first, including the
// peer legs of its transfers.
func (s *AccountService) Deactivate(ctx context.Context, id int64, cascade bool) error {
	err := s.store.WithTx(ctx, func(tx storage.Querier) error {
		account, err := s.store.GetAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		if !account.Active {
			return core.Conflictf("account %q is already deactivated", account.Name)
		}
		n, err := s.store.CountAccountTransactions(ctx, tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			if !cascade {
				return core.Conflictf("account %q has %d transactions, pass cascade to delete them", account.Name, n)
			}
			if err := s.store.DeleteAccountTransactions(ctx, tx, id); err != nil {
				return err
			}
		}
		return s.store.DeactivateAccount(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "account deactivated", "account_id", id, "cascade", cascade)
	return nil
}

// Get returns one account with its derived balance.
func (s *AccountService) Get(ctx context.Context, id int64) (core.Account, error) {
	return s.store.GetAccount(ctx, s.store.Reader(), id)
}

// Balance returns the account's derived balance, the signed sum of its
// posted transactions.
func (s *AccountService) Balance(ctx context.Context, id int64) (core.Money, error) {
	account, err := s.store.GetAccount(ctx, s.store.Reader(), id)
	if err != nil {
		return core.Money{}, err
	}
	return account.Balance, nil
}

// FindByName resolves an active account by case-insensitive name.
func (s *AccountService) FindByName(ctx context.Context, name string) (core.Account, error) {
	return s.store.FindActiveAccountByName(ctx, s.store.Reader(), strings.TrimSpace(name))
}

// List returns accounts ordered by name, each with its derived balance.
func (s *AccountService) List(ctx context.Context, activeOnly bool) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, s.store.Reader(), activeOnly)
}
