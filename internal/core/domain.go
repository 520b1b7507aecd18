package core

import "strings"

// AccountType classifies an account.
type AccountType string

const (
	AccountBank   AccountType = "bank"
	AccountCredit AccountType = "credit"
	AccountCash   AccountType = "cash"
)

// TransactionKind is the posting direction of a ledger entry.
type TransactionKind string

const (
	KindIncome      TransactionKind = "income"
	KindExpense     TransactionKind = "expense"
	KindTransferOut TransactionKind = "transfer_out"
	KindTransferIn  TransactionKind = "transfer_in"
)

// Frequency is the cadence of a recurring rule.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// RuleStatus is the persisted state of a recurring rule. Due and processed
// are transient states of a processing run; only these two are stored.
type RuleStatus string

const (
	RuleScheduled RuleStatus = "scheduled"
	RuleInactive  RuleStatus = "inactive"
)

// Categories reserved for postings the engine creates itself. They bypass the
// configured category catalog.
const (
	CategoryOpeningBalance = "opening_balance"
	CategoryTransfer       = "internal_transfer"
)

type (
	// Account is a ledger account. Balance is derived from posted
	// transactions, never stored.
	Account struct {
		ID      int64
		Name    string
		Type    AccountType
		Active  bool
		Balance Money
	}

	// Transaction is one posted ledger entry. A transfer is two linked
	// entries referencing each other through TransferPeerID.
	Transaction struct {
		ID             int64
		AccountID      int64
		AccountName    string
		Kind           TransactionKind
		Amount         Money
		Category       string
		Subcategory    string
		Note           string
		Date           Date
		TransferPeerID *int64
	}

	// Budget is a monthly spending limit for one category.
	Budget struct {
		ID       int64
		Category string
		Month    string // YYYY-MM
		Limit    Money
	}

	// RecurringRule is a posting template with a schedule. PeerAccountID is
	// set only for transfer rules.
	RecurringRule struct {
		ID            int64
		Kind          TransactionKind
		AccountID     int64
		PeerAccountID *int64
		Amount        Money
		Category      string
		Subcategory   string
		Note          string
		Frequency     Frequency
		Day           int
		NextDue       Date
		LastProcessed Date
		Status        RuleStatus
	}
)

// Signed returns the balance effect multiplier of the kind: +1 for money
// entering the account, -1 for money leaving it.
func (k TransactionKind) Signed() int64 {
	switch k {
	case KindIncome, KindTransferIn:
		return 1
	default:
		return -1
	}
}

// IsTransfer reports whether the kind is one leg of a transfer.
func (k TransactionKind) IsTransfer() bool {
	return k == KindTransferOut || k == KindTransferIn
}

func (k TransactionKind) Validate() error {
	switch k {
	case KindIncome, KindExpense, KindTransferOut, KindTransferIn:
		return nil
	}
	return Validationf("unknown transaction kind %q", k)
}

func (t AccountType) Validate() error {
	switch t {
	case AccountBank, AccountCredit, AccountCash:
		return nil
	}
	return Validationf("unknown account type %q, want bank, credit, or cash", t)
}

// ValidateAccountName rejects empty and over-long names.
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Validationf("account name is empty")
	}
	if len(name) > 100 {
		return Validationf("account name too long (max 100 characters)")
	}
	return nil
}

// Validate checks the fields of a transaction before posting. Category
// membership is checked by the ledger against the injected catalog.
func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return Validationf("transaction date is required")
	}
	if strings.TrimSpace(t.Category) == "" {
		return Validationf("category is empty")
	}
	if len(t.Note) > 500 {
		return Validationf("note too long (max 500 characters)")
	}
	return nil
}

// Validate checks a rule's template and schedule parameters.
func (r RecurringRule) Validate() error {
	switch r.Kind {
	case KindIncome, KindExpense:
		if r.PeerAccountID != nil {
			return Validationf("peer account is only valid for transfer rules")
		}
	case KindTransferOut:
		if r.PeerAccountID == nil {
			return Validationf("transfer rule requires a destination account")
		}
		if *r.PeerAccountID == r.AccountID {
			return Validationf("transfer rule cannot target its own account")
		}
	default:
		return Validationf("recurring rule kind must be income, expense, or transfer_out")
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if r.Kind != KindTransferOut && strings.TrimSpace(r.Category) == "" {
		return Validationf("category is empty")
	}
	switch r.Frequency {
	case Daily:
		// day parameter ignored
	case Weekly:
		if r.Day < 0 || r.Day > 6 {
			return Validationf("weekly rule day must be a weekday 0 (Sunday) to 6")
		}
	case Monthly:
		if r.Day < 1 || r.Day > 31 {
			return Validationf("monthly rule day must be between 1 and 31")
		}
	default:
		return Validationf("unknown frequency %q, want daily, weekly, or monthly", r.Frequency)
	}
	return nil
}

// TransactionFilter selects transactions for Query. Zero fields match all.
type TransactionFilter struct {
	AccountID   int64
	Category    string
	From        Date
	To          Date
	NoteKeyword string
}

// TransactionUpdate carries the changed fields of an edit. Nil fields keep
// their current value.
type TransactionUpdate struct {
	AccountID   *int64
	Amount      *Money
	Category    *string
	Subcategory *string
	Note        *string
	Date        *Date
}

// Empty reports whether the update changes nothing.
func (u TransactionUpdate) Empty() bool {
	return u.AccountID == nil && u.Amount == nil && u.Category == nil &&
		u.Subcategory == nil && u.Note == nil && u.Date == nil
}

// RuleUpdate carries the editable fields of a recurring rule.
type RuleUpdate struct {
	Amount    *Money
	NextDue   *Date
	AccountID *int64
	Note      *string
}

func (u RuleUpdate) Empty() bool {
	return u.Amount == nil && u.NextDue == nil && u.AccountID == nil && u.Note == nil
}

// Summary is the aggregate of a date range.
type Summary struct {
	Income  Money
	Expense Money
	Net     Money
}

// BreakdownRow is one dimension value with its aggregated spend.
type BreakdownRow struct {
	Value string
	Total Money
}

// BudgetStatus is the live state of one budget.
type BudgetStatus struct {
	Category   string
	Month      string
	Limit      Money
	Spent      Money
	Remaining  Money
	OverBudget bool
}
