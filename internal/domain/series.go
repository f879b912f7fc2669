package domain

import "time"

// PricePoint is a single daily sample of a pair's price series.
type PricePoint struct {
	Date  time.Time // UTC midnight
	Price float64
}

// PriceSeries is a time-ordered sequence of daily price samples.
type PriceSeries []PricePoint

// IndexOf returns the index of the bar matching the given calendar date.
// A missing bar is reported via ok=false, it is not an error.
func (s PriceSeries) IndexOf(date time.Time) (int, bool) {
	day := Day(date)
	for i := range s {
		if s[i].Date.Equal(day) {
			return i, true
		}
	}
	return 0, false
}

// Dates returns the calendar dates of every bar in the series.
func (s PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s))
	for i := range s {
		dates[i] = s[i].Date
	}
	return dates
}

// Day truncates a timestamp to UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole-day calendar distance from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
