package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	PeriodMonth    PeriodType = "month"
	PeriodBiweekly PeriodType = "biweekly"
	PeriodCustom   PeriodType = "custom"
)

// PeriodType selects how a monthly budget allocation is scaled to the
// reporting window.
type PeriodType string

var (
	ErrInvalidPeriodType = errors.New("invalid period type")
	ErrInvalidRange      = errors.New("invalid date range: end before start")

	two = decimal.NewFromInt(2)
)

func (pt PeriodType) Validate() error {
	switch pt {
	case PeriodMonth, PeriodBiweekly, PeriodCustom:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPeriodType, string(pt))
	}
}

// InclusiveDayCount returns the number of days from start through end,
// counting both endpoints. Errors when end is before start.
func InclusiveDayCount(start, end Date) (int, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("%w (%s > %s)", ErrInvalidRange, start, end)
	}
	return start.DaysUntil(end) + 1, nil
}

// ProratedAllocation scales a full-month budget amount to the given period.
//
// Month periods pass the amount through unchanged. Biweekly periods use an
// exact half-month split regardless of the month's length; budgets stay
// stable across short and long months, trading day-level accuracy for
// predictability. Custom periods are day-proportional against the calendar
// month containing period.Start, even when the range crosses into the next
// month.
func ProratedAllocation(monthlyAmount decimal.Decimal, periodType PeriodType, period Period) (decimal.Decimal, error) {
	switch periodType {
	case PeriodMonth:
		return monthlyAmount, nil
	case PeriodBiweekly:
		return monthlyAmount.Div(two), nil
	case PeriodCustom:
		days, err := InclusiveDayCount(period.Start, period.End)
		if err != nil {
			return decimal.Zero, err
		}
		inMonth := DaysInMonth(period.Start.Year, period.Start.Month)
		return monthlyAmount.Mul(decimal.NewFromInt(int64(days))).Div(decimal.NewFromInt(int64(inMonth))), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPeriodType, string(periodType))
	}
}
