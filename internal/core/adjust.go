package core

import "github.com/shopspring/decimal"

type (
	// CategorySpend is the raw spend aggregate for one category over a
	// date range. Derived per request, never persisted.
	CategorySpend struct {
		CategoryID        int64
		RawSpent          decimal.Decimal
		CashBack          decimal.Decimal
		PendingTip        decimal.Decimal
		PendingCashback   decimal.Decimal
		CreditCardPending decimal.Decimal
	}

	// AdjustedFigures are the final per-category budget numbers.
	AdjustedFigures struct {
		Spent         decimal.Decimal
		AdjustedSpent decimal.Decimal
		Remaining     decimal.Decimal
	}

	// CategoryResult pairs a category with its prorated allocation and
	// adjusted spend for the resolved period.
	CategoryResult struct {
		Category  BudgetCategory
		FullMonth decimal.Decimal
		Allocated decimal.Decimal
		Spend     CategorySpend
		Figures   AdjustedFigures
	}

	// SummaryTotals are the portfolio-wide sums across all categories.
	// Tracking-category spend joins the spent/adjusted totals but never
	// TotalAllocated.
	SummaryTotals struct {
		TotalAllocated         decimal.Decimal
		TotalSpent             decimal.Decimal
		TotalAdjustedSpent     decimal.Decimal
		TotalRemaining         decimal.Decimal
		TotalCashBack          decimal.Decimal
		TotalPendingTips       decimal.Decimal
		TotalPendingCashback   decimal.Decimal
		TotalCreditCardPending decimal.Decimal
	}
)

// Spent is net spend after posted cashback.
func (c CategorySpend) Spent() decimal.Decimal {
	return c.RawSpent.Sub(c.CashBack)
}

// AdjustedSpent layers the pending amounts onto net spend: pending tips add,
// unposted cashback subtracts, credit-card-pending charges add. A negative
// result (pending cashback exceeding spend plus tips) is a valid state.
func (c CategorySpend) AdjustedSpent() decimal.Decimal {
	return c.Spent().Add(c.PendingTip).Sub(c.PendingCashback).Add(c.CreditCardPending)
}

func (c CategorySpend) add(o CategorySpend) CategorySpend {
	return CategorySpend{
		CategoryID:        c.CategoryID,
		RawSpent:          c.RawSpent.Add(o.RawSpent),
		CashBack:          c.CashBack.Add(o.CashBack),
		PendingTip:        c.PendingTip.Add(o.PendingTip),
		PendingCashback:   c.PendingCashback.Add(o.PendingCashback),
		CreditCardPending: c.CreditCardPending.Add(o.CreditCardPending),
	}
}

// Adjust computes the final figures for one category given its already
// prorated allocation. Remaining may be negative when over budget.
func Adjust(raw CategorySpend, allocated decimal.Decimal) AdjustedFigures {
	spent := raw.Spent()
	adjusted := raw.AdjustedSpent()
	return AdjustedFigures{
		Spent:         spent,
		AdjustedSpent: adjusted,
		Remaining:     allocated.Sub(adjusted),
	}
}

// Classify maps one transaction onto the spend buckets:
//
//   - its absolute amount always counts toward RawSpent
//   - cashback counts toward CashBack only once posted, and toward
//     PendingCashback while positive and unposted
//   - the tip counts toward PendingTip only while the transaction is pending
//   - the full amount additionally counts toward CreditCardPending while the
//     charge has not been paid from checking
//
// The flags are independent; one transaction may hit several buckets.
func Classify(t Transaction) CategorySpend {
	spend := CategorySpend{CategoryID: t.CategoryID, RawSpent: t.Amount.Abs()}
	if t.CashbackPosted {
		spend.CashBack = t.CashBack
	} else if t.CashBack.IsPositive() {
		spend.PendingCashback = t.CashBack
	}
	if t.Pending {
		spend.PendingTip = t.TipAmount
	}
	if t.CreditCardPending {
		spend.CreditCardPending = t.Amount
	}
	return spend
}

// AggregateByCategory folds transactions into per-category spend aggregates.
func AggregateByCategory(transactions []Transaction) map[int64]CategorySpend {
	byCategory := make(map[int64]CategorySpend)
	for _, t := range transactions {
		agg, ok := byCategory[t.CategoryID]
		if !ok {
			agg = CategorySpend{CategoryID: t.CategoryID}
		}
		byCategory[t.CategoryID] = agg.add(Classify(t))
	}
	return byCategory
}

// Summarize sums category results elementwise and layers in tracking-category
// spend, which affects the grand spend totals but not TotalAllocated.
func Summarize(results []CategoryResult, tracking CategorySpend) SummaryTotals {
	var s SummaryTotals
	for _, r := range results {
		s.TotalAllocated = s.TotalAllocated.Add(r.Allocated)
		s.TotalSpent = s.TotalSpent.Add(r.Figures.Spent)
		s.TotalAdjustedSpent = s.TotalAdjustedSpent.Add(r.Figures.AdjustedSpent)
		s.TotalRemaining = s.TotalRemaining.Add(r.Figures.Remaining)
		s.TotalCashBack = s.TotalCashBack.Add(r.Spend.CashBack)
		s.TotalPendingTips = s.TotalPendingTips.Add(r.Spend.PendingTip)
		s.TotalPendingCashback = s.TotalPendingCashback.Add(r.Spend.PendingCashback)
		s.TotalCreditCardPending = s.TotalCreditCardPending.Add(r.Spend.CreditCardPending)
	}
	s.TotalSpent = s.TotalSpent.Add(tracking.Spent())
	s.TotalAdjustedSpent = s.TotalAdjustedSpent.Add(tracking.AdjustedSpent())
	s.TotalCashBack = s.TotalCashBack.Add(tracking.CashBack)
	s.TotalPendingTips = s.TotalPendingTips.Add(tracking.PendingTip)
	s.TotalPendingCashback = s.TotalPendingCashback.Add(tracking.PendingCashback)
	s.TotalCreditCardPending = s.TotalCreditCardPending.Add(tracking.CreditCardPending)
	return s
}
