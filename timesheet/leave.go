package timesheet

import "github.com/warp/timesheet-engine/generic"

// =============================================================================
// LEAVE TRACKER - Per-day leave/holiday state
// =============================================================================

// LeaveTracker records which days of the week are consumed by leave or a
// public holiday. Days never set read as generic.LeaveNone.
type LeaveTracker struct {
	days map[Day]generic.LeaveKind
}

func NewLeaveTracker() *LeaveTracker {
	return &LeaveTracker{days: make(map[Day]generic.LeaveKind)}
}

func (l *LeaveTracker) set(d Day, kind generic.LeaveKind) {
	if kind == generic.LeaveNone || kind == "" {
		delete(l.days, d)
		return
	}
	l.days[d] = kind
}

// Variant returns the day's leave state.
func (l *LeaveTracker) Variant(d Day) generic.LeaveKind {
	if k, ok := l.days[d]; ok {
		return k
	}
	return generic.LeaveNone
}

// IsBlocked reports whether the day is frozen for project hours.
func (l *LeaveTracker) IsBlocked(d Day) bool {
	return l.Variant(d).Blocks()
}

// Count is the number of days with any leave state, half days included.
func (l *LeaveTracker) Count() int {
	return len(l.days)
}

// Days returns a copy of the flagged days.
func (l *LeaveTracker) Days() map[Day]generic.LeaveKind {
	out := make(map[Day]generic.LeaveKind, len(l.days))
	for d, k := range l.days {
		out[d] = k
	}
	return out
}

func (l *LeaveTracker) Clone() *LeaveTracker {
	return &LeaveTracker{days: l.Days()}
}
