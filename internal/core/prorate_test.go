package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestProratedAllocationMonth(t *testing.T) {
	monthly := decimal.RequireFromString("1234.56")
	got, err := ProratedAllocation(monthly, PeriodMonth, Period{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(monthly) {
		t.Fatalf("month proration = %s, want %s", got, monthly)
	}
}

func TestProratedAllocationBiweeklyExactHalf(t *testing.T) {
	// Fixed 0.5 multiplier regardless of the month's length.
	periods := []Period{
		{Start: NewDate(2024, 2, 2), End: NewDate(2024, 2, 15)},  // 29-day month
		{Start: NewDate(2024, 1, 19), End: NewDate(2024, 2, 1)},  // 31-day month
		{Start: NewDate(2023, 2, 3), End: NewDate(2023, 2, 16)},  // 28-day month
	}
	for i, p := range periods {
		got, err := ProratedAllocation(decimal.NewFromInt(1000), PeriodBiweekly, p)
		if err != nil {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
		if !got.Equal(decimal.NewFromInt(500)) {
			t.Fatalf("case %d: biweekly proration = %s, want 500", i, got)
		}
	}
}

func TestProratedAllocationCustom(t *testing.T) {
	// 10 days out of February 2024's 29: 300 * 10 / 29.
	period := Period{Start: NewDate(2024, 2, 10), End: NewDate(2024, 2, 19)}
	got, err := ProratedAllocation(decimal.NewFromInt(300), PeriodCustom, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := decimal.NewFromInt(3000).Div(decimal.NewFromInt(29))
	if !got.Equal(want) {
		t.Fatalf("custom proration = %s, want %s", got, want)
	}
	if got.Round(2).String() != "103.45" {
		t.Fatalf("rounded proration = %s, want 103.45", got.Round(2))
	}
}

func TestProratedAllocationCustomFullMonthRoundTrip(t *testing.T) {
	// A custom range spanning the whole month reduces to the monthly amount.
	months := []struct {
		year, month int
	}{
		{2024, 1}, {2024, 2}, {2023, 2}, {2024, 4},
	}
	monthly := decimal.RequireFromString("871.33")
	for _, m := range months {
		period := Period{
			Start: NewDate(m.year, m.month, 1),
			End:   NewDate(m.year, m.month, DaysInMonth(m.year, m.month)),
		}
		got, err := ProratedAllocation(monthly, PeriodCustom, period)
		if err != nil {
			t.Fatalf("%d-%d: unexpected error %v", m.year, m.month, err)
		}
		if !got.Equal(monthly) {
			t.Fatalf("%d-%d: full-month proration = %s, want %s", m.year, m.month, got, monthly)
		}
	}
}

func TestProratedAllocationCustomSpansMonthBoundary(t *testing.T) {
	// Divisor is fixed to the month containing the start date.
	period := Period{Start: NewDate(2024, 1, 25), End: NewDate(2024, 2, 3)}
	got, err := ProratedAllocation(decimal.NewFromInt(310), PeriodCustom, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := decimal.NewFromInt(100) // 310 * 10 / 31
	if !got.Equal(want) {
		t.Fatalf("boundary proration = %s, want %s", got, want)
	}
}

func TestProratedAllocationErrors(t *testing.T) {
	_, err := ProratedAllocation(decimal.NewFromInt(100), PeriodType("quarterly"), Period{})
	if !errors.Is(err, ErrInvalidPeriodType) {
		t.Fatalf("expected ErrInvalidPeriodType, got %v", err)
	}

	backwards := Period{Start: NewDate(2024, 2, 19), End: NewDate(2024, 2, 10)}
	_, err = ProratedAllocation(decimal.NewFromInt(100), PeriodCustom, backwards)
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestInclusiveDayCount(t *testing.T) {
	cases := []struct {
		start, end Date
		want       int
	}{
		{NewDate(2024, 2, 10), NewDate(2024, 2, 19), 10},
		{NewDate(2024, 2, 10), NewDate(2024, 2, 10), 1},
		{NewDate(2024, 1, 19), NewDate(2024, 2, 1), 14},
	}
	for i, tc := range cases {
		got, err := InclusiveDayCount(tc.start, tc.end)
		if err != nil {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
		if got != tc.want {
			t.Fatalf("case %d: day count = %d, want %d", i, got, tc.want)
		}
	}
	if _, err := InclusiveDayCount(NewDate(2024, 2, 2), NewDate(2024, 2, 1)); err == nil {
		t.Fatalf("expected error for end before start")
	}
}
