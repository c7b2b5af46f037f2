package core

import (
	"errors"
	"fmt"
)

const (
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
)

type (
	// Frequency is how often a paycheck arrives.
	Frequency string

	// Period is an inclusive calendar date range, End >= Start.
	Period struct {
		Start Date `json:"start"`
		End   Date `json:"end"`
	}
)

var ErrInvalidFrequency = errors.New("invalid pay frequency")

func (f Frequency) Validate() error {
	switch f {
	case Weekly, Biweekly:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, string(f))
	}
}

// StepDays returns the period length in days for the frequency.
func (f Frequency) StepDays() (int, error) {
	switch f {
	case Weekly:
		return 7, nil
	case Biweekly:
		return 14, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, string(f))
	}
}

// Days returns the inclusive day count of the period.
func (p Period) Days() int {
	return p.Start.DaysUntil(p.End) + 1
}

// Contains reports whether d falls within the period, boundaries included.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// ResolveCurrentPeriod determines the pay period containing today, derived
// from the last-pay anchor date and the pay frequency. The anchor may be
// arbitrarily stale (periods are walked forward) or stored in the future
// (periods are walked backward until the start is on or before today).
func ResolveCurrentPeriod(lastPayDate Date, frequency Frequency, today Date) (Period, error) {
	step, err := frequency.StepDays()
	if err != nil {
		return Period{}, err
	}
	if err := lastPayDate.Validate(); err != nil {
		return Period{}, fmt.Errorf("last pay date: %w", err)
	}
	if err := today.Validate(); err != nil {
		return Period{}, fmt.Errorf("today: %w", err)
	}

	start := lastPayDate
	for start.After(today) {
		start = start.AddDays(-step)
	}
	for {
		next := start.AddDays(step)
		if today.Before(next) {
			break
		}
		start = next
	}

	return Period{Start: start, End: start.AddDays(step - 1)}, nil
}

// DidMissPayday reports whether the anchor is stale by at least one full
// period, i.e. a single advance from lastPayDate already lands on or before
// today. Used to prompt the user to update their pay settings.
func DidMissPayday(lastPayDate Date, frequency Frequency, today Date) (bool, error) {
	step, err := frequency.StepDays()
	if err != nil {
		return false, err
	}
	next := lastPayDate.AddDays(step)
	return !next.After(today), nil
}

// AdvanceAnchor rolls lastPayDate forward one step at a time while the
// advanced date is still on or before today, returning the most recent
// payday not after today. Invoked only when the user chooses to catch up a
// stale anchor, never automatically.
func AdvanceAnchor(lastPayDate Date, frequency Frequency, today Date) (Date, error) {
	step, err := frequency.StepDays()
	if err != nil {
		return Date{}, err
	}
	anchor := lastPayDate
	for {
		next := anchor.AddDays(step)
		if next.After(today) {
			return anchor, nil
		}
		anchor = next
	}
}
