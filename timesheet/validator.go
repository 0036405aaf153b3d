package timesheet

import "github.com/warp/timesheet-engine/generic"

// =============================================================================
// VALIDATOR - Runs once per cell edit
// =============================================================================

// Edit is a proposed cell value.
type Edit struct {
	Category generic.Category
	Day      Day
	Hours    generic.Hours
}

// Validator checks a proposed edit against the current grid. It never
// mutates; a nil result means the edit may be committed.
type Validator struct {
	Policy Policy
}

// Check applies the rules in order: known category, frozen day, daily cap,
// then (edit mode only) the weekly cap.
func (v Validator) Check(agg Aggregator, known map[generic.Category]bool, e Edit) error {
	if e.Category.IsLeave() || !known[e.Category] {
		return &generic.RejectionError{
			Reason:   generic.ReasonUnknownCategory,
			Category: e.Category,
			Day:      e.Day.String(),
		}
	}

	kind := agg.Leave.Variant(e.Day)
	if kind.Blocks() {
		return &generic.RejectionError{
			Reason:    generic.ReasonDayFrozen,
			Category:  e.Category,
			Day:       e.Day.String(),
			Requested: e.Hours,
		}
	}

	other := agg.Matrix.DayHours(e.Day, e.Category)
	dayCap := v.Policy.DayCap(kind)
	if other.Add(e.Hours).GreaterThan(dayCap) {
		return &generic.RejectionError{
			Reason:    generic.ReasonDailyLimit,
			Category:  e.Category,
			Day:       e.Day.String(),
			Cap:       dayCap,
			Current:   other,
			Requested: e.Hours,
			Remaining: dayCap.Sub(other).FloorZero(),
		}
	}

	if v.Policy.WeeklyCapMode == WeeklyCapOnEdit {
		rest := agg.WeekTotal().Sub(agg.Matrix.Get(e.Category, e.Day))
		if rest.Add(e.Hours).GreaterThan(v.Policy.WeeklyCap) {
			return &generic.RejectionError{
				Reason:    generic.ReasonWeeklyLimit,
				Category:  e.Category,
				Day:       e.Day.String(),
				Cap:       v.Policy.WeeklyCap,
				Current:   rest,
				Requested: e.Hours,
				Remaining: v.Policy.WeeklyCap.Sub(rest).FloorZero(),
			}
		}
	}

	return nil
}
