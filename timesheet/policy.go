// Package timesheet implements the weekly timesheet hours model: the time
// matrix, the leave/holiday tracker, aggregation, per-edit validation and the
// submit gate, plus the service that opens, saves, submits and reviews weeks.
package timesheet

import (
	"fmt"
	"time"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// POLICY - The parameters every rule is computed from
// =============================================================================

// WeeklyCapMode decides where the weekly cap bites.
type WeeklyCapMode string

const (
	// WeeklyCapOnSubmit only blocks submission when the week is under target.
	WeeklyCapOnSubmit WeeklyCapMode = "submit"

	// WeeklyCapOnEdit additionally rejects any cell edit that would push the
	// week total over WeeklyCap.
	WeeklyCapOnEdit WeeklyCapMode = "edit"
)

// Policy holds the caps and conventions of the week grid.
type Policy struct {
	WeekStart      time.Weekday
	DailyCap       generic.Hours
	HalfDayCap     generic.Hours // project-hour ceiling on a half-day leave day
	WeeklyCap      generic.Hours
	GraceLeaveDays int // leave days per week that do not reduce the target
	WeeklyCapMode  WeeklyCapMode
}

// DefaultPolicy is the 8h/day, 40h/week, Monday-first grid with two grace
// leave days and a 4h half-day ceiling.
func DefaultPolicy() Policy {
	return Policy{
		WeekStart:      time.Monday,
		DailyCap:       generic.NewHoursFromInt(8),
		HalfDayCap:     generic.NewHoursFromInt(4),
		WeeklyCap:      generic.NewHoursFromInt(40),
		GraceLeaveDays: 2,
		WeeklyCapMode:  WeeklyCapOnSubmit,
	}
}

// Validate rejects inconsistent rules.
func (p Policy) Validate() error {
	switch {
	case p.WeekStart != time.Monday && p.WeekStart != time.Sunday:
		return fmt.Errorf("%w: week must start on Monday or Sunday, got %s", generic.ErrInvalidPolicy, p.WeekStart)
	case !p.DailyCap.IsPositive():
		return fmt.Errorf("%w: daily cap must be positive", generic.ErrInvalidPolicy)
	case p.HalfDayCap.IsNegative() || p.HalfDayCap.GreaterThan(p.DailyCap):
		return fmt.Errorf("%w: half-day cap must be between 0 and the daily cap", generic.ErrInvalidPolicy)
	case p.WeeklyCap.IsNegative():
		return fmt.Errorf("%w: weekly cap must not be negative", generic.ErrInvalidPolicy)
	case p.GraceLeaveDays < 0 || p.GraceLeaveDays > 7:
		return fmt.Errorf("%w: grace leave days must be between 0 and 7", generic.ErrInvalidPolicy)
	case p.WeeklyCapMode != WeeklyCapOnSubmit && p.WeeklyCapMode != WeeklyCapOnEdit:
		return fmt.Errorf("%w: unknown weekly cap mode %q", generic.ErrInvalidPolicy, p.WeeklyCapMode)
	}
	return nil
}

// DayCap is the project-hour ceiling for a day with the given leave state.
// Blocked days have no ceiling because they take no entries at all.
func (p Policy) DayCap(kind generic.LeaveKind) generic.Hours {
	if kind == generic.LeaveHalfDay {
		return p.HalfDayCap
	}
	return p.DailyCap
}

// LeaveHours is the fixed value a leave day contributes to the week total.
func (p Policy) LeaveHours(kind generic.LeaveKind) generic.Hours {
	switch kind {
	case generic.LeaveFullDay, generic.LeaveHoliday:
		return p.DailyCap
	case generic.LeaveHalfDay:
		return p.DailyCap.Sub(p.HalfDayCap).FloorZero()
	}
	return generic.Hours{}
}

// WeeklyTarget is WeeklyCap reduced by one DailyCap for every leave day
// beyond the grace allowance, floored at zero.
func (p Policy) WeeklyTarget(leaveCount int) generic.Hours {
	excess := leaveCount - p.GraceLeaveDays
	if excess <= 0 {
		return p.WeeklyCap
	}
	return p.WeeklyCap.Sub(p.DailyCap.Mul(excess)).FloorZero()
}

// WeekOf normalises any date onto the start of its week.
func (p Policy) WeekOf(d generic.Date) generic.Week {
	return generic.WeekOf(d, p.WeekStart)
}
