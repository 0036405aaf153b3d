package generic

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHours_FreeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"7.5", "7.50"},
		{" 3 ", "3.00"},
		{"", "0.00"},
		{"abc", "0.00"},
		{"-2", "0.00"},
		{"0.25", "0.25"},
		{"2.499", "2.50"},
		{"1e3", "0.00"},
		{"1e-10000000", "0.00"},
		{"+4", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseHours(tt.in).String())
		})
	}
}

func TestHours_ExactDecimalSums(t *testing.T) {
	// 0.1 + 0.2 must be exactly 0.3 on the grid
	sum := SumHours(MustParseHours("0.1"), MustParseHours("0.2"))
	assert.True(t, sum.Equal(MustParseHours("0.3")))
	assert.True(t, NewHours(2).Sub(NewHours(5)).FloorZero().IsZero())
}

func TestWeekOf_MondayAndSundayStarts(t *testing.T) {
	// GIVEN: Wednesday 12 March 2025
	wed := NewDate(2025, time.March, 12)

	// WHEN/THEN: Monday-first weeks start on the 10th
	monday := WeekOf(wed, time.Monday)
	assert.Equal(t, "2025-03-10", monday.Start.String())
	assert.Equal(t, "2025-03-16", monday.End().String())
	assert.Equal(t, "10/03/2025 - 16/03/2025", monday.Range())
	assert.Equal(t, "2025-03-14", monday.DateFor(time.Friday).String())
	assert.Equal(t, "2025-03-16", monday.DateFor(time.Sunday).String())

	// AND: Sunday-first weeks start on the 9th
	sunday := WeekOf(wed, time.Sunday)
	assert.Equal(t, "2025-03-09", sunday.Start.String())
	assert.Equal(t, "2025-03-10", sunday.DateFor(time.Monday).String())

	// A date that is itself a week start maps onto itself
	assert.True(t, WeekOf(monday.Start, time.Monday).Start.Equal(monday.Start))
	assert.Equal(t, "2025-03-03", monday.Prev().Start.String())
}

func TestWeek_NumberCrossesYear(t *testing.T) {
	// 29 Dec 2025 is a Monday in ISO week 1 of 2026
	w := WeekOf(NewDate(2025, time.December, 31), time.Monday)
	year, week := w.Number()
	assert.Equal(t, 2026, year)
	assert.Equal(t, 1, week)
}

func TestExpandHolidays_ProjectsRecurring(t *testing.T) {
	holidays := []Holiday{
		{ID: "xmas", Date: NewDate(2020, time.December, 25), Name: "Christmas Day", Recurring: true},
		{ID: "once", Date: NewDate(2024, time.December, 26), Name: "One-off"},
	}

	got := ExpandHolidays(holidays, NewDate(2025, time.December, 22), NewDate(2025, time.December, 28))

	require.Len(t, got, 1)
	assert.Equal(t, "xmas", got[0].ID)
	assert.Equal(t, "2025-12-25", got[0].Date.String())
}

func TestMonthToDate(t *testing.T) {
	p := MonthToDate(NewDate(2025, time.March, 12))
	assert.Equal(t, 12, p.Len())
	assert.True(t, p.Contains(NewDate(2025, time.March, 1)))
	assert.False(t, p.Contains(NewDate(2025, time.March, 13)))
	assert.Equal(t, "2025-02-28", EndOfMonth(2025, time.February).String())
}

func TestPersistence_KeepsClientErrors(t *testing.T) {
	cause := errors.New("database is locked")

	err := Persistence("save timesheet", cause)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save timesheet: database is locked", err.Error())

	// Client-facing errors pass through untouched
	locked := fmt.Errorf("%w: timesheet is submitted", ErrWeekLocked)
	assert.Same(t, locked, Persistence("save timesheet", locked))
	assert.Equal(t, ErrNotFound, Persistence("fetch", ErrNotFound))
	assert.Nil(t, Persistence("noop", nil))

	// Wrapping twice does not nest
	assert.Same(t, err, Persistence("retry", err))
}

func TestRejectionError_IsValidationRejected(t *testing.T) {
	err := error(&RejectionError{
		Reason:    ReasonDailyLimit,
		Day:       "Mon",
		Cap:       NewHoursFromInt(8),
		Current:   NewHoursFromInt(6),
		Remaining: NewHoursFromInt(2),
	})

	assert.ErrorIs(t, err, ErrValidationRejected)
	assert.True(t, IsClientError(err))
	assert.Contains(t, err.Error(), "maximum you can add 2.00")
}

func TestWeekSnapshot_Totals(t *testing.T) {
	snap := WeekSnapshot{Entries: []Entry{
		{Category: "web", Date: NewDate(2025, time.March, 11), Hours: NewHoursFromInt(5)},
		{Category: LeaveCategory, Date: NewDate(2025, time.March, 10), Hours: NewHoursFromInt(8), IsLeave: true, LeaveKind: LeaveFullDay},
	}}

	assert.Equal(t, "13.00", snap.Total().String())
	assert.Equal(t, "5.00", snap.ProjectHours().String())

	snap.SortEntries()
	assert.Equal(t, LeaveCategory, snap.Entries[0].Category)

	assert.True(t, StatusSubmitted.Locked())
	assert.False(t, StatusRejected.Locked())
	assert.True(t, LeaveHoliday.Blocks())
	assert.False(t, LeaveHalfDay.Blocks())
}
