package timesheet

import "github.com/warp/timesheet-engine/generic"

// View is an immutable copy of a sheet's state and derived totals, safe to
// hand out after the session lock is released.
type View struct {
	UserID       generic.UserID
	Week         generic.Week
	WeekYear     int
	WeekNumber   int
	Status       generic.Status
	Comment      string
	Editable     bool
	Days         []DayView
	Rows         []RowView
	LeaveCount   int
	LeaveHours   generic.Hours
	ProjectHours generic.Hours
	WeekTotal    generic.Hours
	WeeklyTarget generic.Hours
	CanSubmit    bool
	Shortfall    generic.Hours
	DailyCap     generic.Hours
}

type DayView struct {
	Day   Day
	Date  generic.Date
	Leave generic.LeaveKind
	Total DayTotal
}

type RowView struct {
	Project generic.Project
	Cells   map[Day]generic.Hours
	Total   generic.Hours
}

// View snapshots the sheet for display.
func (s *Sheet) View() View {
	agg := s.Aggregator()
	year, week := s.Week.Number()
	v := View{
		UserID:       s.UserID,
		Week:         s.Week,
		WeekYear:     year,
		WeekNumber:   week,
		Status:       s.Status,
		Comment:      s.Comment,
		Editable:     s.Editable(),
		LeaveCount:   agg.LeaveCount(),
		LeaveHours:   agg.LeaveHours(),
		ProjectHours: agg.ProjectHours(),
		WeekTotal:    agg.WeekTotal(),
		WeeklyTarget: agg.WeeklyTarget(),
		CanSubmit:    s.CanSubmit(),
		Shortfall:    agg.Shortfall(),
		DailyCap:     s.Policy.DailyCap,
	}
	for _, d := range s.Days() {
		v.Days = append(v.Days, DayView{
			Day:   d,
			Date:  s.DateOf(d),
			Leave: s.leave.Variant(d),
			Total: agg.DayTotal(d),
		})
	}
	for _, p := range s.projects {
		c := generic.CategoryOf(p.ID)
		v.Rows = append(v.Rows, RowView{
			Project: p,
			Cells:   s.matrix.Row(c),
			Total:   s.matrix.CategoryTotal(c),
		})
	}
	return v
}
