package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar day (this IS a calendar-grid system)
// =============================================================================

// Date is a calendar day at UTC midnight. Hours within the day are not tracked.
type Date struct {
	Time time.Time
}

const DateLayout = "2006-01-02"

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date { return NewDate(t.Year(), t.Month(), t.Day()) }

func Today() Date { return DateOf(time.Now()) }

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) Equal(other Date) bool { return d.Time.Equal(other.Time) }
func (d Date) After(other Date) bool { return d.Time.After(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.Time.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateOf(d.Time.AddDate(0, n, 0)) }

// Properties
func (d Date) Year() int { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool { return d.Time.IsZero() }
func (d Date) String() string { return d.Time.Format(DateLayout) }
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// =============================================================================
// WEEK - Seven consecutive days starting on a configured weekday
// =============================================================================

// Week is the displayed timesheet week. Start is always a WeekStart weekday.
type Week struct {
	Start Date
}

// WeekOf returns the week containing d for weeks beginning on start.
func WeekOf(d Date, start time.Weekday) Week {
	offset := (int(d.Weekday()) - int(start) + 7) % 7
	return Week{Start: d.AddDays(-offset)}
}

func (w Week) End() Date { return w.Start.AddDays(6) }
func (w Week) Next() Week { return Week{Start: w.Start.AddDays(7)} }
func (w Week) Prev() Week { return Week{Start: w.Start.AddDays(-7)} }

// Days returns the seven dates of the week in display order.
func (w Week) Days() []Date {
	days := make([]Date, 7)
	for i := range days {
		days[i] = w.Start.AddDays(i)
	}
	return days
}

// DateFor returns the date of the given weekday inside the week.
func (w Week) DateFor(wd time.Weekday) Date {
	offset := (int(wd) - int(w.Start.Weekday()) + 7) % 7
	return w.Start.AddDays(offset)
}

func (w Week) Contains(d Date) bool {
	return d.AfterOrEqual(w.Start) && d.BeforeOrEqual(w.End())
}

// Number returns the ISO-8601 week number of the week's Thursday-anchored year.
// For Sunday-first weeks the Monday that follows Start decides the number.
func (w Week) Number() (year, week int) {
	return w.DateFor(time.Monday).Time.ISOWeek()
}

// Range formats the week as "DD/MM/YYYY - DD/MM/YYYY".
func (w Week) Range() string {
	return w.Start.Time.Format("02/01/2006") + " - " + w.End().Time.Format("02/01/2006")
}

func (w Week) Period() Period { return Period{Start: w.Start, End: w.End()} }

func (w Week) String() string { return w.Start.String() }

// =============================================================================
// HOLIDAY CALENDAR - Public holidays
// =============================================================================

// Holiday represents a public holiday that freezes the day on fresh timesheets.
type Holiday struct {
	ID        string
	Date      Date
	Name      string
	Recurring bool // true = same month/day every year
}

// OccursOn reports whether the holiday falls on d.
func (h Holiday) OccursOn(d Date) bool {
	if h.Recurring {
		return h.Date.Month() == d.Month() && h.Date.Day() == d.Day()
	}
	return h.Date.Equal(d)
}

// HolidayCalendar provides holiday lookup functionality.
type HolidayCalendar interface {
	// HolidaysBetween returns holidays (recurring ones projected onto the
	// range) falling on days in [from, to].
	HolidaysBetween(from, to Date) []Holiday
}

// NoHolidays is a no-op calendar for when holidays are disabled.
type NoHolidays struct{}

func (NoHolidays) HolidaysBetween(from, to Date) []Holiday { return nil }

// ExpandHolidays projects holidays onto each day of [from, to].
func ExpandHolidays(all []Holiday, from, to Date) []Holiday {
	var out []Holiday
	for d := from; d.BeforeOrEqual(to); d = d.AddDays(1) {
		for _, h := range all {
			if h.OccursOn(d) {
				hh := h
				hh.Date = d
				out = append(out, hh)
			}
		}
	}
	return out
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to Date) int { return int(to.Time.Sub(from.Time).Hours() / 24) }

func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }

func EndOfMonth(year int, month time.Month) Date {
	return StartOfMonth(year, month).AddMonths(1).AddDays(-1)
}
