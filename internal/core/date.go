package core

import (
	"fmt"
	"time"
)

// DateFormat is the ISO-8601 layout used for stored and wire dates.
const DateFormat = "2006-01-02"

// MonthFormat is the layout for budget month keys.
const MonthFormat = "2006-01"

// Date is a calendar date with day granularity. The zero value is "no date".
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date for the given year, month, and day.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	y, m, d := t.Date()
	return Date{y, m, d}
}

// Today returns the current date in UTC.
func Today() Date { return NewDate(time.Now().UTC().Date()) }

// ParseDate parses an ISO-8601 date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, Validationf("invalid date %q, want %s", s, DateFormat)
	}
	return NewDate(t.Date()), nil
}

func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

func (d Date) Year() int          { return d.y }
func (d Date) Month() time.Month  { return d.m }
func (d Date) Day() int           { return d.d }
func (d Date) Weekday() time.Weekday { return d.time().Weekday() }

func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }

func (d Date) String() string { return d.time().Format(DateFormat) }

func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }
func (d Date) After(x Date) bool  { return d.time().After(x.time()) }
func (d Date) Equal(x Date) bool  { return d == x }

// AddDays returns the date i days after d.
func (d Date) AddDays(i int) Date { return NewDate(d.y, d.m, d.d+i) }

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return NewDate(year, month+1, 0).Day()
}

// AddMonthsClamped moves n months forward and lands on anchorDay, clamped to
// the last day of the target month. The anchor is preserved across short
// months: a day-31 anchor yields Jan 31, Feb 28, Mar 31.
func (d Date) AddMonthsClamped(n, anchorDay int) Date {
	y, m := d.y, d.m+time.Month(n)
	// normalize month overflow before clamping the day
	t := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	y, m = t.Year(), t.Month()
	day := anchorDay
	if last := DaysInMonth(y, m); day > last {
		day = last
	}
	return NewDate(y, m, day)
}

// ParseMonth validates a YYYY-MM month key and returns its first and last day.
func ParseMonth(s string) (first, last Date, err error) {
	t, perr := time.Parse(MonthFormat, s)
	if perr != nil {
		return Date{}, Date{}, Validationf("invalid month %q, want %s", s, MonthFormat)
	}
	first = NewDate(t.Year(), t.Month(), 1)
	last = NewDate(t.Year(), t.Month(), DaysInMonth(t.Year(), t.Month()))
	return first, last, nil
}

// MonthKey returns the YYYY-MM key of the date's month.
func (d Date) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", d.y, int(d.m))
}
