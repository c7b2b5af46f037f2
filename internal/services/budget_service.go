// Package services provides business logic and orchestration over storage.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brianschroeder/finance-tracker-sub001/internal/core"
	"github.com/brianschroeder/finance-tracker-sub001/internal/storage"
)

// BudgetStore is the slice of the repository the budget service reads.
type BudgetStore interface {
	GetPaySettings(ctx context.Context) (core.PaySettings, error)
	SavePaySettings(ctx context.Context, settings core.PaySettings) error
	ListCategories(ctx context.Context, activeOnly bool) ([]core.BudgetCategory, error)
	ListTransactions(ctx context.Context, start, end core.Date) ([]core.Transaction, error)
}

// BudgetSummary is the full dashboard payload for one resolved period.
type BudgetSummary struct {
	Period       core.Period
	PeriodType   core.PeriodType
	DaysInPeriod int
	Categories   []core.CategoryResult
	Tracking     core.CategorySpend
	Totals       core.SummaryTotals
}

// BudgetService derives budget figures for a period. All period math takes
// an explicit "today" so behavior is reproducible in tests; the clock is
// read once at the HTTP boundary.
type BudgetService struct {
	store BudgetStore
}

func NewBudgetService(store BudgetStore) *BudgetService {
	return &BudgetService{store: store}
}

// Settings returns the stored pay settings, substituting the documented
// default (anchor today, biweekly) when none are configured yet.
func (s *BudgetService) Settings(ctx context.Context, today core.Date) (core.PaySettings, error) {
	settings, err := s.store.GetPaySettings(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		slog.InfoContext(ctx, "No pay settings configured, using default",
			"last_pay_date", today.String(), "frequency", string(core.Biweekly))
		return core.PaySettings{LastPayDate: today, Frequency: core.Biweekly}, nil
	}
	if err != nil {
		return core.PaySettings{}, fmt.Errorf("load pay settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings validates and persists new pay settings.
func (s *BudgetService) UpdateSettings(ctx context.Context, settings core.PaySettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validate pay settings: %w", err)
	}
	return s.store.SavePaySettings(ctx, settings)
}

// MissedPayday reports whether the stored anchor is stale by at least one
// full pay period, along with the anchor it would advance to.
func (s *BudgetService) MissedPayday(ctx context.Context, today core.Date) (missed bool, nextAnchor core.Date, err error) {
	settings, err := s.Settings(ctx, today)
	if err != nil {
		return false, core.Date{}, err
	}
	missed, err = core.DidMissPayday(settings.LastPayDate, settings.Frequency, today)
	if err != nil {
		return false, core.Date{}, err
	}
	if !missed {
		return false, settings.LastPayDate, nil
	}
	nextAnchor, err = core.AdvanceAnchor(settings.LastPayDate, settings.Frequency, today)
	if err != nil {
		return false, core.Date{}, err
	}
	return true, nextAnchor, nil
}

// AdvanceAnchor rolls the stored anchor forward to the most recent payday
// and persists it. Only runs when the user asks to catch up.
func (s *BudgetService) AdvanceAnchor(ctx context.Context, today core.Date) (core.PaySettings, error) {
	settings, err := s.Settings(ctx, today)
	if err != nil {
		return core.PaySettings{}, err
	}
	anchor, err := core.AdvanceAnchor(settings.LastPayDate, settings.Frequency, today)
	if err != nil {
		return core.PaySettings{}, err
	}
	settings.LastPayDate = anchor
	if err := s.store.SavePaySettings(ctx, settings); err != nil {
		return core.PaySettings{}, err
	}
	return settings, nil
}

// ResolvePeriod maps a period type (plus an optional explicit range for
// custom periods) onto concrete start/end dates.
func (s *BudgetService) ResolvePeriod(ctx context.Context, periodType core.PeriodType, custom *core.Period, today core.Date) (core.Period, error) {
	if err := periodType.Validate(); err != nil {
		return core.Period{}, err
	}
	switch periodType {
	case core.PeriodMonth:
		start := core.NewDate(today.Year, today.Month, 1)
		end := core.NewDate(today.Year, today.Month, core.DaysInMonth(today.Year, today.Month))
		return core.Period{Start: start, End: end}, nil
	case core.PeriodBiweekly:
		settings, err := s.Settings(ctx, today)
		if err != nil {
			return core.Period{}, err
		}
		return core.ResolveCurrentPeriod(settings.LastPayDate, settings.Frequency, today)
	case core.PeriodCustom:
		if custom == nil {
			return core.Period{}, fmt.Errorf("%w: custom period requires explicit start and end", core.ErrInvalidRange)
		}
		if custom.End.Before(custom.Start) {
			return core.Period{}, fmt.Errorf("%w (%s > %s)", core.ErrInvalidRange, custom.Start, custom.End)
		}
		return *custom, nil
	default:
		return core.Period{}, core.ErrInvalidPeriodType
	}
}

// Summary assembles the budget dashboard for the resolved period: prorated
// allocations per active budget category, adjusted spend, and portfolio
// totals. Tracking categories join the grand totals only.
func (s *BudgetService) Summary(ctx context.Context, periodType core.PeriodType, custom *core.Period, today core.Date) (BudgetSummary, error) {
	period, err := s.ResolvePeriod(ctx, periodType, custom, today)
	if err != nil {
		return BudgetSummary{}, err
	}

	categories, err := s.store.ListCategories(ctx, true)
	if err != nil {
		return BudgetSummary{}, fmt.Errorf("list categories: %w", err)
	}

	transactions, err := s.store.ListTransactions(ctx, period.Start, period.End)
	if err != nil {
		return BudgetSummary{}, fmt.Errorf("list transactions: %w", err)
	}

	spendByCategory := core.AggregateByCategory(transactions)

	budgetIDs := make(map[int64]bool, len(categories))
	var results []core.CategoryResult
	for _, c := range categories {
		if c.Kind != core.KindBudget {
			continue
		}
		budgetIDs[c.ID] = true

		allocated, err := core.ProratedAllocation(c.MonthlyAllocated, periodType, period)
		if err != nil {
			return BudgetSummary{}, fmt.Errorf("prorate category %q: %w", c.Name, err)
		}

		spend := spendByCategory[c.ID]
		spend.CategoryID = c.ID
		results = append(results, core.CategoryResult{
			Category:  c,
			FullMonth: c.MonthlyAllocated,
			Allocated: allocated,
			Spend:     spend,
			Figures:   core.Adjust(spend, allocated),
		})
	}

	// Everything outside the active budget categories (tracking categories,
	// uncategorized rows, inactive categories) rolls into the tracking
	// bucket: it counts toward the grand totals but never the allocation.
	var tracking core.CategorySpend
	for id, spend := range spendByCategory {
		if !budgetIDs[id] {
			tracking = core.CategorySpend{
				RawSpent:          tracking.RawSpent.Add(spend.RawSpent),
				CashBack:          tracking.CashBack.Add(spend.CashBack),
				PendingTip:        tracking.PendingTip.Add(spend.PendingTip),
				PendingCashback:   tracking.PendingCashback.Add(spend.PendingCashback),
				CreditCardPending: tracking.CreditCardPending.Add(spend.CreditCardPending),
			}
		}
	}

	summary := BudgetSummary{
		Period:       period,
		PeriodType:   periodType,
		DaysInPeriod: period.Days(),
		Categories:   results,
		Tracking:     tracking,
		Totals:       core.Summarize(results, tracking),
	}

	slog.DebugContext(ctx, "Budget summary computed",
		"period_type", string(periodType),
		"start", period.Start.String(),
		"end", period.End.String(),
		"categories", len(results),
		"transactions", len(transactions))

	return summary, nil
}
