package shared

import (
	"strings"
	"time"
)

// Period names a reporting window.
type Period string

// Supported reporting periods.
const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodCustom  Period = "custom"
)

// DateLayout is the calendar-day format used for range filters.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// FromDate returns the start day formatted for storage comparisons.
func (r DateRange) FromDate() string { return r.From.Format(DateLayout) }

// ToDate returns the end day formatted for storage comparisons.
func (r DateRange) ToDate() string { return r.To.Format(DateLayout) }

// Key identifies the range in cache keys.
func (r DateRange) Key() string { return r.FromDate() + ":" + r.ToDate() }

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	day := t.UTC().Format(DateLayout)
	return day >= r.FromDate() && day <= r.ToDate()
}

// ParsePeriod normalises a period name, defaulting to daily.
func ParsePeriod(raw string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PeriodDaily, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodCustom:
		return p, nil
	default:
		return "", NewValidationError("period", "must be one of daily, weekly, monthly, custom")
	}
}

// ResolveRange turns a period into concrete calendar days relative to now.
// Days are evaluated in UTC, matching how timestamps are stored.
func ResolveRange(period Period, from, to time.Time, now time.Time) (DateRange, error) {
	today := truncateDay(now.UTC())
	switch period {
	case PeriodDaily, "":
		return DateRange{From: today, To: today}, nil
	case PeriodWeekly:
		offset := (int(today.Weekday()) + 6) % 7
		return DateRange{From: today.AddDate(0, 0, -offset), To: today}, nil
	case PeriodMonthly:
		return DateRange{From: time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC), To: today}, nil
	case PeriodCustom:
		if from.IsZero() || to.IsZero() {
			return DateRange{}, NewValidationError("range", "custom period requires from and to dates")
		}
		start, end := truncateDay(from.UTC()), truncateDay(to.UTC())
		if end.Before(start) {
			return DateRange{}, NewValidationError("range", "to date must not be before from date")
		}
		return DateRange{From: start, To: end}, nil
	default:
		return DateRange{}, NewValidationError("period", "unknown period "+string(period))
	}
}

// ParseDay parses a YYYY-MM-DD string; empty input yields the zero time.
func ParseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, NewValidationError("date", "expected YYYY-MM-DD")
	}
	return t, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
