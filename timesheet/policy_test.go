package timesheet_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

func TestWeeklyTargetByLeaveCount(t *testing.T) {
	policy := timesheet.DefaultPolicy()

	tests := []struct {
		leave int
		want  float64
	}{
		{0, 40},
		{1, 40},
		{2, 40},
		{3, 32},
		{4, 24},
		{5, 16},
		{6, 8},
		{7, 0},
		{9, 0},
	}
	for _, tt := range tests {
		assertHours(t, tt.want, policy.WeeklyTarget(tt.leave), "leave days: %d", tt.leave)
	}
}

func TestWeeklyTargetFromSheetLeave(t *testing.T) {
	// GIVEN: Three full days of leave and one half day
	sheet := newSheet(projectA)
	require.NoError(t, sheet.SetLeave(timesheet.Mon, generic.LeaveFullDay))
	require.NoError(t, sheet.SetLeave(timesheet.Tue, generic.LeaveFullDay))
	require.NoError(t, sheet.SetLeave(timesheet.Wed, generic.LeaveFullDay))
	assertHours(t, 32, sheet.WeeklyTarget())

	// WHEN: A half day is added
	require.NoError(t, sheet.SetLeave(timesheet.Thu, generic.LeaveHalfDay))

	// THEN: It counts as a fourth leave day
	assert.Equal(t, 4, sheet.LeaveCount())
	assertHours(t, 24, sheet.WeeklyTarget())
	assertHours(t, 28, sheet.WeekTotal())
	assert.True(t, sheet.CanSubmit())
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, timesheet.DefaultPolicy().Validate())

	tests := []struct {
		name   string
		mutate func(p *timesheet.Policy)
	}{
		{"wednesday start", func(p *timesheet.Policy) { p.WeekStart = time.Wednesday }},
		{"zero daily cap", func(p *timesheet.Policy) { p.DailyCap = generic.Hours{} }},
		{"half day above daily", func(p *timesheet.Policy) { p.HalfDayCap = hours(9) }},
		{"negative half day", func(p *timesheet.Policy) { p.HalfDayCap = hours(-1) }},
		{"negative weekly cap", func(p *timesheet.Policy) { p.WeeklyCap = hours(-40) }},
		{"grace too large", func(p *timesheet.Policy) { p.GraceLeaveDays = 8 }},
		{"unknown mode", func(p *timesheet.Policy) { p.WeeklyCapMode = "daily" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := timesheet.DefaultPolicy()
			tt.mutate(&p)
			assert.True(t, errors.Is(p.Validate(), generic.ErrInvalidPolicy))
		})
	}
}

func TestLeaveHoursAndDayCap(t *testing.T) {
	p := timesheet.DefaultPolicy()
	assertHours(t, 8, p.LeaveHours(generic.LeaveFullDay))
	assertHours(t, 8, p.LeaveHours(generic.LeaveHoliday))
	assertHours(t, 4, p.LeaveHours(generic.LeaveHalfDay))
	assertHours(t, 0, p.LeaveHours(generic.LeaveNone))

	assertHours(t, 8, p.DayCap(generic.LeaveNone))
	assertHours(t, 4, p.DayCap(generic.LeaveHalfDay))

	p.HalfDayCap = hours(5)
	assertHours(t, 3, p.LeaveHours(generic.LeaveHalfDay))
}

func TestParseDay(t *testing.T) {
	for in, want := range map[string]timesheet.Day{
		"mon":       timesheet.Mon,
		"Tue":       timesheet.Tue,
		"WEDNESDAY": timesheet.Wed,
		" sunday ":  timesheet.Sun,
	} {
		got, err := timesheet.ParseDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := timesheet.ParseDay("funday")
	assert.Error(t, err)
}

func TestWeekDaysOrder(t *testing.T) {
	mon := timesheet.WeekDays(time.Monday)
	assert.Equal(t, []timesheet.Day{timesheet.Mon, timesheet.Tue, timesheet.Wed, timesheet.Thu, timesheet.Fri, timesheet.Sat, timesheet.Sun}, mon)

	sun := timesheet.WeekDays(time.Sunday)
	assert.Equal(t, timesheet.Sun, sun[0])
	assert.Equal(t, timesheet.Sat, sun[6])
}
