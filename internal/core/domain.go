package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// KindBudget categories carry a monthly allocation and participate in
	// remaining-budget math.
	KindBudget CategoryKind = "budget"
	// KindTracking categories (big purchases and the like) contribute to
	// grand spend totals but never to the allocated total.
	KindTracking CategoryKind = "tracking"
)

type (
	CategoryKind string

	// PaySettings is the anchor every pay period is derived from. It is
	// mutated only by an explicit user update and is read-only to the
	// calculation core.
	PaySettings struct {
		LastPayDate Date      `json:"lastPayDate"`
		Frequency   Frequency `json:"frequency"`
	}

	// BudgetCategory holds a full-month allocation; any other period's
	// allocation is a derived projection, never persisted.
	BudgetCategory struct {
		ID               int64           `json:"id"`
		Name             string          `json:"name"`
		MonthlyAllocated decimal.Decimal `json:"monthlyAllocated"`
		Color            string          `json:"color"`
		IsActive         bool            `json:"isActive"`
		Kind             CategoryKind    `json:"kind"`
	}

	// Transaction is a single recorded purchase. The three pending flags
	// are independent and may all be set on one transaction.
	Transaction struct {
		ID          int64           `json:"id"`
		CategoryID  int64           `json:"categoryId"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		TipAmount   decimal.Decimal `json:"tipAmount"`
		CashBack    decimal.Decimal `json:"cashBack"`

		// Pending marks a transaction whose tip has not posted yet.
		Pending bool `json:"pending"`
		// CashbackPosted marks cashback already credited to the account.
		CashbackPosted bool `json:"cashbackPosted"`
		// CreditCardPending marks a charge not yet paid from checking.
		CreditCardPending bool `json:"creditCardPending"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty category name")
	ErrInvalidKind      = errors.New("invalid category kind")
)

func (k CategoryKind) Validate() error {
	switch k {
	case KindBudget, KindTracking:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (s PaySettings) Validate() error {
	if err := s.LastPayDate.Validate(); err != nil {
		return err
	}
	return s.Frequency.Validate()
}

func (c BudgetCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	if c.MonthlyAllocated.IsNegative() {
		return ErrInvalidAmount
	}
	return c.Kind.Validate()
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.TipAmount.IsNegative() || t.CashBack.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
