package model

import (
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the storage and wire format of a business date
const DateLayout = "2006-01-02"

// Date is a calendar day in the restaurant's time zone
type Date string

// DateOf returns the calendar day of t in loc
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Date(t.In(loc).Format(DateLayout))
}

// ParseDate validates s and returns it as a Date
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", errors.Wrapf(err, "invalid date %q", s)
	}
	return Date(t.Format(DateLayout)), nil
}

// AddDays returns the date n days after d. A malformed d is returned unchanged.
func (d Date) AddDays(n int) Date {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return d
	}
	return Date(t.AddDate(0, 0, n).Format(DateLayout))
}

func (d Date) String() string {
	return string(d)
}

// LastDays returns the n days ending at d, oldest first
func (d Date) LastDays(n int) []Date {
	days := make([]Date, 0, n)
	for i := n - 1; i >= 0; i-- {
		days = append(days, d.AddDays(-i))
	}
	return days
}
