package storage

import (
	"context"
	"database/sql"
	"errors"

	"financeflow/internal/core"
)

// signedSum is the balance expression: inbound kinds count positive,
// outbound kinds negative.
const signedSum = `COALESCE(SUM(CASE WHEN kind IN ('income', 'transfer_in') THEN amount_cents ELSE -amount_cents END), 0)`

// CreateAccount inserts an account row and returns its id.
func (s *Store) CreateAccount(ctx context.Context, q Querier, name string, typ core.AccountType) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO accounts (name, type, active) VALUES (?, ?, 1)`, name, string(typ))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetAccount loads one account with its derived balance.
func (s *Store) GetAccount(ctx context.Context, q Querier, id int64) (core.Account, error) {
	row := q.QueryRowContext(ctx, `
		SELECT a.id, a.name, a.type, a.active,
		       (SELECT `+signedSum+` FROM transactions t WHERE t.account_id = a.id)
		FROM accounts a WHERE a.id = ?`, id)
	return scanAccount(row)
}

// FindActiveAccountByName resolves a name case-insensitively among active
// accounts.
func (s *Store) FindActiveAccountByName(ctx context.Context, q Querier, name string) (core.Account, error) {
	row := q.QueryRowContext(ctx, `
		SELECT a.id, a.name, a.type, a.active,
		       (SELECT `+signedSum+` FROM transactions t WHERE t.account_id = a.id)
		FROM accounts a WHERE a.name = ? COLLATE NOCASE AND a.active = 1`, name)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (core.Account, error) {
	var a core.Account
	var typ string
	var active int
	if err := row.Scan(&a.ID, &a.Name, &typ, &active, &a.Balance.Cents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Account{}, core.NotFoundf("account not found")
		}
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.Active = active == 1
	return a, nil
}

// ListAccounts returns accounts ordered by name, each with its derived
// balance.
func (s *Store) ListAccounts(ctx context.Context, q Querier, activeOnly bool) ([]core.Account, error) {
	query := `
		SELECT a.id, a.name, a.type, a.active,
		       (SELECT ` + signedSum + ` FROM transactions t WHERE t.account_id = a.id)
		FROM accounts a`
	if activeOnly {
		query += ` WHERE a.active = 1`
	}
	query += ` ORDER BY a.name ASC`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var typ string
		var active int
		if err := rows.Scan(&a.ID, &a.Name, &typ, &active, &a.Balance.Cents); err != nil {
			return nil, err
		}
		a.Type = core.AccountType(typ)
		a.Active = active == 1
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// RenameAccount updates the name; the caller has already checked for
// collisions inside the same unit of work.
func (s *Store) RenameAccount(ctx context.Context, q Querier, id int64, newName string) error {
	res, err := q.ExecContext(ctx, `UPDATE accounts SET name = ? WHERE id = ?`, newName, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.NotFoundf("account not found")
	}
	return nil
}

// DeactivateAccount flips the active flag, keeping history intact.
func (s *Store) DeactivateAccount(ctx context.Context, q Querier, id int64) error {
	res, err := q.ExecContext(ctx, `UPDATE accounts SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.NotFoundf("account not found")
	}
	return nil
}

// CountAccountTransactions returns how many postings reference the account.
func (s *Store) CountAccountTransactions(ctx context.Context, q Querier, id int64) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = ?`, id).Scan(&n)
	return n, err
}

// DeleteAccountTransactions removes all postings of an account together with
// the peer legs of its transfers. Used only by the cascading deactivate.
func (s *Store) DeleteAccountTransactions(ctx context.Context, q Querier, id int64) error {
	// capture peer legs living in other accounts before links are cleared
	rows, err := q.QueryContext(ctx, `
		SELECT transfer_peer_id FROM transactions
		WHERE account_id = ? AND transfer_peer_id IS NOT NULL`, id)
	if err != nil {
		return err
	}
	var peerIDs []int64
	for rows.Next() {
		var peerID int64
		if err := rows.Scan(&peerID); err != nil {
			rows.Close()
			return err
		}
		peerIDs = append(peerIDs, peerID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// clear the self-referencing links, then delete both sides
	args := make([]any, 0, len(peerIDs)+1)
	args = append(args, id)
	cond := `account_id = ?`
	for _, peerID := range peerIDs {
		cond += ` OR id = ?`
		args = append(args, peerID)
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE transactions SET transfer_peer_id = NULL WHERE `+cond, args...); err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `DELETE FROM transactions WHERE `+cond, args...)
	return err
}
