package factory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

func TestParseRules_EmptyIsDefault(t *testing.T) {
	f := NewPolicyFactory()
	p, err := f.ParseRules("  ")
	require.NoError(t, err)
	assert.Equal(t, timesheet.DefaultPolicy(), p)
}

func TestParseRules_OverlaysDefaults(t *testing.T) {
	// GIVEN: A document that only changes the week start and the cap mode
	f := NewPolicyFactory()
	p, err := f.ParseRules(`{"week_start": "Sunday", "weekly_cap_mode": "EDIT", "half_day_cap": 5}`)

	// THEN: Other fields keep their defaults
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, p.WeekStart)
	assert.Equal(t, timesheet.WeeklyCapOnEdit, p.WeeklyCapMode)
	assert.True(t, p.HalfDayCap.Equal(generic.NewHours(5)))
	assert.True(t, p.DailyCap.Equal(generic.NewHoursFromInt(8)))
	assert.True(t, p.WeeklyCap.Equal(generic.NewHoursFromInt(40)))
	assert.Equal(t, 2, p.GraceLeaveDays)
}

func TestParseRules_Invalid(t *testing.T) {
	f := NewPolicyFactory()
	for name, doc := range map[string]string{
		"malformed":        `{"daily_cap": `,
		"tuesday":          `{"week_start": "tuesday"}`,
		"half above daily": `{"daily_cap": 6, "half_day_cap": 7}`,
		"negative grace":   `{"grace_leave_days": -1}`,
		"unknown cap mode": `{"weekly_cap_mode": "monthly"}`,
		"zero daily cap":   `{"daily_cap": 0}`,
		"negative weekly":  `{"weekly_cap": -1}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.ParseRules(doc)
			assert.True(t, errors.Is(err, generic.ErrInvalidPolicy), "got %v", err)
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	f := NewPolicyFactory()
	p := timesheet.DefaultPolicy()
	p.WeekStart = time.Sunday
	p.DailyCap = generic.NewHours(7.5)
	p.HalfDayCap = generic.NewHours(3.5)
	p.WeeklyCap = generic.NewHours(37.5)
	p.GraceLeaveDays = 1

	doc, err := f.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, doc, `"week_start":"sunday"`)

	back, err := f.ParseRules(doc)
	require.NoError(t, err)
	assert.Equal(t, p.WeekStart, back.WeekStart)
	assert.True(t, back.DailyCap.Equal(p.DailyCap))
	assert.True(t, back.HalfDayCap.Equal(p.HalfDayCap))
	assert.True(t, back.WeeklyCap.Equal(p.WeeklyCap))
	assert.Equal(t, 1, back.GraceLeaveDays)
}
