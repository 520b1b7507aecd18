package storage

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"strings"

	"financeflow/internal/core"
)

const transactionColumns = `t.id, t.account_id, a.name, t.kind, t.amount_cents,
	t.category, t.subcategory, t.note, t.date, t.transfer_peer_id`

// InsertTransaction posts one row and returns its id. The caller supplies the
// unit of work; balance needs no separate write because it is derived.
func (s *Store) InsertTransaction(ctx context.Context, q Querier, t core.Transaction) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO transactions (account_id, kind, amount_cents, category, subcategory, note, date, transfer_peer_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.AccountID, string(t.Kind), t.Amount.Cents, t.Category, t.Subcategory,
		t.Note, t.Date.String(), t.TransferPeerID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LinkTransferPeers sets the mutual references of a transfer pair.
func (s *Store) LinkTransferPeers(ctx context.Context, q Querier, outID, inID int64) error {
	if _, err := q.ExecContext(ctx,
		`UPDATE transactions SET transfer_peer_id = ? WHERE id = ?`, inID, outID); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx,
		`UPDATE transactions SET transfer_peer_id = ? WHERE id = ?`, outID, inID)
	return err
}

// GetTransaction loads one posting.
func (s *Store) GetTransaction(ctx context.Context, q Querier, id int64) (core.Transaction, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t JOIN accounts a ON t.account_id = a.id
		WHERE t.id = ?`, id)
	t, err := scanTransactionRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.NotFoundf("transaction not found")
		}
		return core.Transaction{}, err
	}
	return t, nil
}

// UpdateTransactionRow rewrites the mutable columns of one posting.
func (s *Store) UpdateTransactionRow(ctx context.Context, q Querier, t core.Transaction) error {
	_, err := q.ExecContext(ctx, `
		UPDATE transactions
		SET account_id = ?, amount_cents = ?, category = ?, subcategory = ?, note = ?, date = ?
		WHERE id = ?`,
		t.AccountID, t.Amount.Cents, t.Category, t.Subcategory, t.Note, t.Date.String(), t.ID)
	return err
}

// DeleteTransactionPair removes a posting and, when linked, its peer leg.
func (s *Store) DeleteTransactionPair(ctx context.Context, q Querier, id int64, peerID *int64) error {
	if peerID != nil {
		// break the mutual reference before deleting either side
		if _, err := q.ExecContext(ctx,
			`UPDATE transactions SET transfer_peer_id = NULL WHERE id IN (?, ?)`, id, *peerID); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx,
			`DELETE FROM transactions WHERE id = ?`, *peerID); err != nil {
			return err
		}
	}
	_, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

func scanTransactionRow(scan func(...any) error) (core.Transaction, error) {
	var t core.Transaction
	var kind, date string
	var peer sql.NullInt64
	err := scan(&t.ID, &t.AccountID, &t.AccountName, &kind, &t.Amount.Cents,
		&t.Category, &t.Subcategory, &t.Note, &date, &peer)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.TransactionKind(kind)
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date = d
	if peer.Valid {
		t.TransferPeerID = &peer.Int64
	}
	return t, nil
}

// QueryTransactions returns a lazy sequence of postings matching the filter,
// newest first. Each range over the sequence reruns the query, so it is
// restartable and always reflects committed state.
func (s *Store) QueryTransactions(ctx context.Context, q Querier, f core.TransactionFilter) iter.Seq2[core.Transaction, error] {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t JOIN accounts a ON t.account_id = a.id`
	var conds []string
	var args []any
	if f.AccountID != 0 {
		conds = append(conds, `t.account_id = ?`)
		args = append(args, f.AccountID)
	}
	if f.Category != "" {
		conds = append(conds, `t.category = ?`)
		args = append(args, f.Category)
	}
	if !f.From.IsZero() {
		conds = append(conds, `t.date >= ?`)
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		conds = append(conds, `t.date <= ?`)
		args = append(args, f.To.String())
	}
	if f.NoteKeyword != "" {
		conds = append(conds, `t.note LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.NoteKeyword)+"%")
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY t.date DESC, t.id DESC`

	return func(yield func(core.Transaction, error) bool) {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			yield(core.Transaction{}, err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			t, err := scanTransactionRow(rows.Scan)
			if err != nil {
				yield(core.Transaction{}, err)
				return
			}
			if !yield(t, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(core.Transaction{}, err)
		}
	}
}

// escapeLike protects user keywords from acting as LIKE wildcards.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SumByKind totals the given kinds within an inclusive date range.
func (s *Store) SumByKind(ctx context.Context, q Querier, kinds []core.TransactionKind, from, to core.Date) (core.Money, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(kinds)), ", ")
	args := make([]any, 0, len(kinds)+2)
	for _, k := range kinds {
		args = append(args, string(k))
	}
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE kind IN (` + placeholders + `)`
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, from.String())
	}
	if !to.IsZero() {
		query += ` AND date <= ?`
		args = append(args, to.String())
	}
	var total core.Money
	err := q.QueryRowContext(ctx, query, args...).Scan(&total.Cents)
	return total, err
}

// ExpenseSum totals expense postings for one category within a date range.
// Budget spend is always computed through here, never cached.
func (s *Store) ExpenseSum(ctx context.Context, q Querier, category string, from, to core.Date) (core.Money, error) {
	var total core.Money
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		WHERE kind = 'expense' AND category = ? AND date >= ? AND date <= ?`,
		category, from.String(), to.String()).Scan(&total.Cents)
	return total, err
}

// ExpenseBreakdown groups expense totals by category or account name,
// largest first.
func (s *Store) ExpenseBreakdown(ctx context.Context, q Querier, dimension string, from, to core.Date) ([]core.BreakdownRow, error) {
	var group string
	switch dimension {
	case "category":
		group = `t.category`
	case "account":
		group = `a.name`
	default:
		return nil, core.Validationf("unknown breakdown dimension %q, want category or account", dimension)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT `+group+`, SUM(t.amount_cents) AS total
		FROM transactions t JOIN accounts a ON t.account_id = a.id
		WHERE t.kind = 'expense' AND t.date >= ? AND t.date <= ?
		GROUP BY `+group+`
		ORDER BY total DESC`, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.BreakdownRow
	for rows.Next() {
		var r core.BreakdownRow
		if err := rows.Scan(&r.Value, &r.Total.Cents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ExpenseTrend groups one category's expense totals by month or year,
// oldest first. period is a strftime layout: %Y-%m or %Y.
func (s *Store) ExpenseTrend(ctx context.Context, q Querier, category, period string, from, to core.Date) ([]core.BreakdownRow, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT strftime(?, date) AS period, SUM(amount_cents) AS total
		FROM transactions
		WHERE kind = 'expense' AND category = ? AND date >= ? AND date <= ?
		GROUP BY period
		ORDER BY period ASC`, period, category, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.BreakdownRow
	for rows.Next() {
		var r core.BreakdownRow
		if err := rows.Scan(&r.Value, &r.Total.Cents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
