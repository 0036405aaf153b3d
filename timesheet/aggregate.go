package timesheet

import "github.com/warp/timesheet-engine/generic"

// =============================================================================
// DAY TOTAL - Numeric hours or a frozen day, never both
// =============================================================================

// FrozenReason says why a day takes no project hours.
type FrozenReason string

const (
	FrozenLeave   FrozenReason = "leave"
	FrozenHoliday FrozenReason = "holiday"
)

// DayTotal is the per-day footer of the grid. A frozen day has no numeric
// total; callers must unwrap with Hours() and check the flag before doing
// arithmetic.
type DayTotal struct {
	frozen bool
	hours  generic.Hours
	reason FrozenReason
}

func Numeric(h generic.Hours) DayTotal { return DayTotal{hours: h} }

func Frozen(r FrozenReason) DayTotal { return DayTotal{frozen: true, reason: r} }

func (t DayTotal) IsFrozen() bool { return t.frozen }

// Hours returns the numeric total; ok is false for frozen days.
func (t DayTotal) Hours() (h generic.Hours, ok bool) {
	if t.frozen {
		return generic.Hours{}, false
	}
	return t.hours, true
}

// Reason returns why the day is frozen; ok is false for numeric days.
func (t DayTotal) Reason() (r FrozenReason, ok bool) {
	if !t.frozen {
		return "", false
	}
	return t.reason, true
}

func (t DayTotal) String() string {
	if t.frozen {
		return "Frozen(" + string(t.reason) + ")"
	}
	return t.hours.String()
}

// =============================================================================
// AGGREGATOR - Derived totals over matrix + leave
// =============================================================================

// Aggregator is a read-only view computing totals. It holds no state of its
// own, so it is always consistent with the matrix and tracker it wraps.
type Aggregator struct {
	Policy Policy
	Matrix *Matrix
	Leave  *LeaveTracker
}

// DayTotal returns the project hours on d, or Frozen for blocked days.
func (a Aggregator) DayTotal(d Day) DayTotal {
	switch a.Leave.Variant(d) {
	case generic.LeaveFullDay:
		return Frozen(FrozenLeave)
	case generic.LeaveHoliday:
		return Frozen(FrozenHoliday)
	}
	return Numeric(a.Matrix.DayHours(d, ""))
}

// CategoryTotal sums a category across the week.
func (a Aggregator) CategoryTotal(c generic.Category) generic.Hours {
	return a.Matrix.CategoryTotal(c)
}

// ProjectHours sums every project cell.
func (a Aggregator) ProjectHours() generic.Hours {
	return a.Matrix.Total()
}

// LeaveHours sums the fixed values of every leave day.
func (a Aggregator) LeaveHours() generic.Hours {
	total := generic.Hours{}
	for _, kind := range a.Leave.days {
		total = total.Add(a.Policy.LeaveHours(kind))
	}
	return total
}

// WeekTotal is project hours plus leave hours.
func (a Aggregator) WeekTotal() generic.Hours {
	return a.ProjectHours().Add(a.LeaveHours())
}

// LeaveCount is the number of days with a leave state.
func (a Aggregator) LeaveCount() int {
	return a.Leave.Count()
}

// WeeklyTarget is the hour total required to submit.
func (a Aggregator) WeeklyTarget() generic.Hours {
	return a.Policy.WeeklyTarget(a.Leave.Count())
}

// Shortfall is how far the week is under target, zero when at or over.
func (a Aggregator) Shortfall() generic.Hours {
	return a.WeeklyTarget().Sub(a.WeekTotal()).FloorZero()
}
