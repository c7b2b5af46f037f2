package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPaySettingsValidate(t *testing.T) {
	tests := []struct {
		name     string
		settings PaySettings
		wantErr  error
	}{
		{
			name:     "valid biweekly",
			settings: PaySettings{LastPayDate: NewDate(2024, 1, 5), Frequency: Biweekly},
		},
		{
			name:     "valid weekly",
			settings: PaySettings{LastPayDate: NewDate(2024, 1, 5), Frequency: Weekly},
		},
		{
			name:     "zero date",
			settings: PaySettings{Frequency: Biweekly},
			wantErr:  ErrInvalidDate,
		},
		{
			name:     "unknown frequency",
			settings: PaySettings{LastPayDate: NewDate(2024, 1, 5), Frequency: Frequency("monthly")},
			wantErr:  ErrInvalidFrequency,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetCategoryValidate(t *testing.T) {
	valid := BudgetCategory{Name: "Groceries", MonthlyAllocated: decimal.NewFromInt(400), Kind: KindBudget}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid category rejected: %v", err)
	}

	tracking := BudgetCategory{Name: "Big Purchases", Kind: KindTracking}
	if err := tracking.Validate(); err != nil {
		t.Fatalf("tracking category rejected: %v", err)
	}

	tests := []struct {
		name     string
		category BudgetCategory
		wantErr  error
	}{
		{"empty name", BudgetCategory{Name: "  ", Kind: KindBudget}, ErrEmptyName},
		{"negative allocation", BudgetCategory{Name: "x", MonthlyAllocated: decimal.NewFromInt(-1), Kind: KindBudget}, ErrInvalidAmount},
		{"bad kind", BudgetCategory{Name: "x", Kind: CategoryKind("savings")}, ErrInvalidKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.category.Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	long := BudgetCategory{Name: strings.Repeat("a", 101), Kind: KindBudget}
	if err := long.Validate(); err == nil {
		t.Fatalf("101-char name accepted")
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Date:        NewDate(2024, 2, 1),
		Description: "coffee",
		Amount:      decimal.RequireFromString("4.50"),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	// A refund is a negative amount and is allowed.
	refund := valid
	refund.Amount = decimal.RequireFromString("-4.50")
	if err := refund.Validate(); err != nil {
		t.Fatalf("refund rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"zero date", func(t *Transaction) { t.Date = Date{} }, ErrInvalidDate},
		{"blank description", func(t *Transaction) { t.Description = " \t" }, ErrEmptyDescription},
		{"negative tip", func(t *Transaction) { t.TipAmount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{"negative cashback", func(t *Transaction) { t.CashBack = decimal.NewFromInt(-1) }, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategoryKindValidate(t *testing.T) {
	for _, k := range []CategoryKind{KindBudget, KindTracking} {
		if err := k.Validate(); err != nil {
			t.Fatalf("%q rejected: %v", k, err)
		}
	}
	if err := CategoryKind("").Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("empty kind accepted")
	}
}
