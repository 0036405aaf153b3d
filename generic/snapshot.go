/*
snapshot.go - The week snapshot handed to persistence

PURPOSE:
  A WeekSnapshot is the only thing the timesheet core hands to storage.
  It is produced at Save (status draft) or Submit (status submitted) and
  is written verbatim; the store never recomputes totals from it.

SHAPE:
  - UserID + WeekStart identify the week (WeekStart is the first day of
    the displayed week as a calendar date)
  - Entries hold one row per non-zero project cell and one row per leave day
  - Comment is capped at MaxCommentLength characters
  - Status tags the lifecycle stage

LIFECYCLE:
  draft -> submitted -> approved
                     -> rejected -> (edited) -> draft | submitted

SEE ALSO:
  - timesheet/sheet.go: Builds snapshots from the in-memory grid
  - store.go: TimesheetStore persists them
*/
package generic

import (
	"sort"
	"time"
)

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Locked reports whether a week in this status may no longer be replaced.
func (s Status) Locked() bool { return s == StatusSubmitted || s == StatusApproved }

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// =============================================================================
// LEAVE KIND
// =============================================================================

// LeaveKind is the per-day leave/holiday state.
type LeaveKind string

const (
	LeaveNone    LeaveKind = "none"
	LeaveHalfDay LeaveKind = "half_day"
	LeaveFullDay LeaveKind = "full_day"
	LeaveHoliday LeaveKind = "holiday"
)

func (k LeaveKind) Valid() bool {
	switch k {
	case LeaveNone, LeaveHalfDay, LeaveFullDay, LeaveHoliday:
		return true
	}
	return false
}

// Blocks reports whether the day is frozen for project hours.
func (k LeaveKind) Blocks() bool { return k == LeaveFullDay || k == LeaveHoliday }

// =============================================================================
// SNAPSHOT
// =============================================================================

// Entry is one persisted (category, day) cell.
type Entry struct {
	Category  Category
	Date      Date
	Hours     Hours
	IsLeave   bool
	LeaveKind LeaveKind // LeaveNone for project rows
}

// WeekSnapshot is a validated copy of one user's week.
type WeekSnapshot struct {
	UserID    UserID
	WeekStart Date
	Status    Status
	Comment   string
	Entries   []Entry

	// Review fields, set by the approval workflow
	ReviewedBy   UserID
	ReviewReason string
	SubmittedAt  time.Time
	UpdatedAt    time.Time
}

// Total sums every entry, leave rows included.
func (s *WeekSnapshot) Total() Hours {
	total := Hours{}
	for _, e := range s.Entries {
		total = total.Add(e.Hours)
	}
	return total
}

// ProjectHours sums entries that are not leave rows.
func (s *WeekSnapshot) ProjectHours() Hours {
	total := Hours{}
	for _, e := range s.Entries {
		if !e.IsLeave {
			total = total.Add(e.Hours)
		}
	}
	return total
}

// SortEntries orders entries by date then category for stable output.
func (s *WeekSnapshot) SortEntries() {
	sort.SliceStable(s.Entries, func(i, j int) bool {
		a, b := s.Entries[i], s.Entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Category < b.Category
	})
}
