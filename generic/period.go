package generic

import "time"

// =============================================================================
// PERIOD - Reporting window
// =============================================================================

// Period is an inclusive range of calendar days used by reports.
//
// Examples:
//   - This week: Week.Period()
//   - This month: first of month through today
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the date is within the period [Start, End]
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns all days in the period.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Len is the number of days in the period.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Valid reports whether the period runs forward.
func (p Period) Valid() bool { return !p.End.Before(p.Start) }

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// MonthToDate returns the first of d's month through d.
func MonthToDate(d Date) Period {
	return Period{Start: StartOfMonth(d.Year(), d.Month()), End: d}
}

// AllTime covers every date a timesheet can carry.
func AllTime() Period {
	return Period{Start: NewDate(1, time.January, 1), End: NewDate(9999, time.December, 31)}
}
