package storage

import (
	"context"
	"database/sql"
	"errors"

	"financeflow/internal/core"
)

const ruleColumns = `id, kind, account_id, peer_account_id, amount_cents,
	category, subcategory, note, frequency, day, next_due, last_processed, status`

// InsertRule persists a validated rule and returns its id.
func (s *Store) InsertRule(ctx context.Context, q Querier, r core.RecurringRule) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO recurring_rules
			(kind, account_id, peer_account_id, amount_cents, category, subcategory,
			 note, frequency, day, next_due, last_processed, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		string(r.Kind), r.AccountID, r.PeerAccountID, r.Amount.Cents, r.Category,
		r.Subcategory, r.Note, string(r.Frequency), r.Day, r.NextDue.String(),
		string(r.Status))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetRule loads one rule.
func (s *Store) GetRule(ctx context.Context, q Querier, id int64) (core.RecurringRule, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM recurring_rules WHERE id = ?`, id)
	r, err := scanRule(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.RecurringRule{}, core.NotFoundf("recurring rule not found")
		}
		return core.RecurringRule{}, err
	}
	return r, nil
}

// ListRules returns every rule ordered by next due date.
func (s *Store) ListRules(ctx context.Context, q Querier) ([]core.RecurringRule, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM recurring_rules ORDER BY next_due ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

// ListDueRules returns scheduled rules whose next due date is on or before
// asOf, ordered by next due date.
func (s *Store) ListDueRules(ctx context.Context, q Querier, asOf core.Date) ([]core.RecurringRule, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+ruleColumns+` FROM recurring_rules
		WHERE status = 'scheduled' AND next_due <= ?
		ORDER BY next_due ASC, id ASC`, asOf.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

func collectRules(rows *sql.Rows) ([]core.RecurringRule, error) {
	var rules []core.RecurringRule
	for rows.Next() {
		r, err := scanRule(rows.Scan)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func scanRule(scan func(...any) error) (core.RecurringRule, error) {
	var r core.RecurringRule
	var kind, frequency, status, nextDue string
	var peer sql.NullInt64
	var lastProcessed sql.NullString
	err := scan(&r.ID, &kind, &r.AccountID, &peer, &r.Amount.Cents, &r.Category,
		&r.Subcategory, &r.Note, &frequency, &r.Day, &nextDue, &lastProcessed, &status)
	if err != nil {
		return core.RecurringRule{}, err
	}
	r.Kind = core.TransactionKind(kind)
	r.Frequency = core.Frequency(frequency)
	r.Status = core.RuleStatus(status)
	if peer.Valid {
		r.PeerAccountID = &peer.Int64
	}
	d, err := core.ParseDate(nextDue)
	if err != nil {
		return core.RecurringRule{}, err
	}
	r.NextDue = d
	if lastProcessed.Valid {
		if d, err = core.ParseDate(lastProcessed.String); err != nil {
			return core.RecurringRule{}, err
		}
		r.LastProcessed = d
	}
	return r, nil
}

// AdvanceRule moves a rule's schedule forward after one materialized
// occurrence. It runs in the same unit of work as the posting so a crash
// can never replay the occurrence.
func (s *Store) AdvanceRule(ctx context.Context, q Querier, id int64, nextDue, processed core.Date) error {
	_, err := q.ExecContext(ctx, `
		UPDATE recurring_rules SET next_due = ?, last_processed = ? WHERE id = ?`,
		nextDue.String(), processed.String(), id)
	return err
}

// UpdateRule rewrites the editable columns of a rule.
func (s *Store) UpdateRule(ctx context.Context, q Querier, r core.RecurringRule) error {
	_, err := q.ExecContext(ctx, `
		UPDATE recurring_rules
		SET amount_cents = ?, account_id = ?, note = ?, next_due = ?
		WHERE id = ?`,
		r.Amount.Cents, r.AccountID, r.Note, r.NextDue.String(), r.ID)
	return err
}

// SetRuleStatus transitions a rule between scheduled and inactive.
func (s *Store) SetRuleStatus(ctx context.Context, q Querier, id int64, status core.RuleStatus) error {
	res, err := q.ExecContext(ctx,
		`UPDATE recurring_rules SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.NotFoundf("recurring rule not found")
	}
	return nil
}

// DeleteRule removes a rule outright. The service layer only allows this for
// rules that never produced a posting; processed rules are deactivated.
func (s *Store) DeleteRule(ctx context.Context, q Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM recurring_rules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.NotFoundf("recurring rule not found")
	}
	return nil
}
