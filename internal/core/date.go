package core

import (
	"errors"
	"fmt"
	"time"
)

// Date is a timezone-naive calendar date. All pay-period and proration
// arithmetic works on whole calendar days; keeping year/month/day integers
// (instead of a time.Time instant) rules out the off-by-one-day shifts that
// come from parsing date-only strings as UTC timestamps.
type Date struct {
	Year  int
	Month int
	Day   int
}

var (
	ErrInvalidDate = errors.New("invalid date")
	ErrInvalidDay  = errors.New("invalid day")
	ErrInvalidMonth = errors.New("invalid month")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a YYYY-MM-DD string into a Date. The string must carry
// no time or zone component.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidDate)
	}
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

// Today is the current calendar date in local time. Callers pass it down
// explicitly so all period math stays reproducible.
func Today() Date {
	return fromTime(time.Now())
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if d.Month < 1 || d.Month > 12 {
		return ErrInvalidMonth
	}
	if d.Day < 1 || d.Day > DaysInMonth(d.Year, d.Month) {
		return ErrInvalidDay
	}
	return nil
}

// asTime converts to a UTC-midnight time.Time purely so the standard
// library can do the calendar normalization. The instant never leaves this
// package.
func (d Date) asTime() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func fromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// AddDays returns the date n calendar days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return fromTime(d.asTime().AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool {
	return d.asTime().Before(o.asTime())
}

func (d Date) After(o Date) bool {
	return d.asTime().After(o.asTime())
}

func (d Date) Equal(o Date) bool {
	return d.Year == o.Year && d.Month == o.Month && d.Day == o.Day
}

// DaysUntil returns the number of whole days from d to o. Negative when o
// is before d.
func (d Date) DaysUntil(o Date) int {
	return int(o.asTime().Sub(d.asTime()) / (24 * time.Hour))
}

// DaysInMonth returns the number of days in the given calendar month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MarshalJSON encodes the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
