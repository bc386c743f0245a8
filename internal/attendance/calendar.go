package attendance

import (
	"fmt"
	"time"
)

// DayLayout is the calendar-day format used by the API and in report names.
const DayLayout = "2006-01-02"

// Day is one calendar day in the reporting timezone, covering [Start, End).
type Day struct {
	Date  string
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls on the day.
func (d Day) Contains(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End)
}

func (d Day) String() string { return d.Date }

// Calendar maps instants to calendar days in a fixed location.
type Calendar struct {
	loc *time.Location
}

// NewCalendar creates a calendar for the named IANA zone ("Local" and "UTC" included).
func NewCalendar(tz string) (Calendar, error) {
	if tz == "" {
		tz = "Local"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Calendar{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return Calendar{loc: loc}, nil
}

// CalendarIn creates a calendar for an already loaded location.
func CalendarIn(loc *time.Location) Calendar {
	return Calendar{loc: loc}
}

// Location returns the reporting location.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// DayOf returns the calendar day t falls on.
func (c Calendar) DayOf(t time.Time) Day {
	lt := t.In(c.Location())
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, c.Location())
	return Day{
		Date:  start.Format(DayLayout),
		Start: start,
		End:   start.AddDate(0, 0, 1),
	}
}

// ParseDay parses a YYYY-MM-DD date into a day.
func (c Calendar) ParseDay(s string) (Day, error) {
	t, err := time.ParseInLocation(DayLayout, s, c.Location())
	if err != nil {
		return Day{}, &ValidationError{Field: "date", Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s)}
	}
	return c.DayOf(t), nil
}
