package timesheet

import (
	"context"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// REPORTS - Read-only rollups over stored timesheets
// =============================================================================

// Reporter answers the summary, dashboard and project-usage questions. It
// reads stored snapshots only; unsaved session edits never show up here.
// Leave rows are excluded: reports count project hours.
type Reporter struct {
	Profiles   generic.ProfileStore
	Projects   generic.ProjectDirectory
	Timesheets generic.TimesheetStore

	// WeekOf places a date on the configured week.
	WeekOf func(generic.Date) generic.Week
}

// Summary is the hours rollup shown on the reports page.
type Summary struct {
	TotalHours   generic.Hours
	WeekHours    generic.Hours
	MonthHours   generic.Hours
	AverageDaily generic.Hours // month hours / day of month
}

// Dashboard is the landing page counters.
type Dashboard struct {
	Employees         int
	ActiveProjects    int
	CompletedProjects int
	PendingTimesheets int
	WeekHours         generic.Hours
}

// ProjectUsage compares logged hours with a project's allocation.
type ProjectUsage struct {
	Project   generic.Project
	Logged    generic.Hours
	Remaining generic.Hours // negative when over allocation
}

// Percent is the share of the allocation already logged.
func (u ProjectUsage) Percent() float64 {
	if u.Project.AllocatedHours.IsZero() {
		return 0
	}
	return u.Logged.Float64() / u.Project.AllocatedHours.Float64() * 100
}

// Summary totals project hours for one user, or for everyone when user is nil.
func (r Reporter) Summary(ctx context.Context, user *generic.UserID, today generic.Date) (Summary, error) {
	entries, err := r.Timesheets.EntriesBetween(ctx, generic.EntryFilter{UserID: user, Period: generic.AllTime()})
	if err != nil {
		return Summary{}, generic.Persistence("fetch time entries", err)
	}

	week := r.weekOf(today).Period()
	month := generic.MonthToDate(today)

	var s Summary
	for _, e := range entries {
		if e.IsLeave || e.Category.IsLeave() {
			continue
		}
		s.TotalHours = s.TotalHours.Add(e.Hours)
		if week.Contains(e.Date) {
			s.WeekHours = s.WeekHours.Add(e.Hours)
		}
		if month.Contains(e.Date) {
			s.MonthHours = s.MonthHours.Add(e.Hours)
		}
	}
	s.AverageDaily = generic.Hours{Value: s.MonthHours.Div(today.Day()).Value.Round(2)}
	return s, nil
}

// Dashboard counts employees, projects by status and pending reviews, plus
// the caller's hours for the current week.
func (r Reporter) Dashboard(ctx context.Context, user generic.UserID, today generic.Date) (Dashboard, error) {
	var d Dashboard

	profiles, err := r.Profiles.ListProfiles(ctx)
	if err != nil {
		return d, generic.Persistence("list profiles", err)
	}
	for _, p := range profiles {
		if p.Role == generic.RoleEmployee {
			d.Employees++
		}
	}

	projects, err := r.Projects.ListProjects(ctx)
	if err != nil {
		return d, generic.Persistence("list projects", err)
	}
	for _, p := range projects {
		switch p.Status {
		case generic.ProjectActive:
			d.ActiveProjects++
		case generic.ProjectCompleted:
			d.CompletedProjects++
		}
	}

	pending, err := r.Timesheets.ListByStatus(ctx, generic.StatusSubmitted)
	if err != nil {
		return d, generic.Persistence("list pending timesheets", err)
	}
	d.PendingTimesheets = len(pending)

	entries, err := r.Timesheets.EntriesBetween(ctx, generic.EntryFilter{UserID: &user, Period: r.weekOf(today).Period()})
	if err != nil {
		return d, generic.Persistence("fetch time entries", err)
	}
	for _, e := range entries {
		if !e.IsLeave {
			d.WeekHours = d.WeekHours.Add(e.Hours)
		}
	}
	return d, nil
}

// ProjectUsage reports logged against allocated hours for every project.
func (r Reporter) ProjectUsage(ctx context.Context) ([]ProjectUsage, error) {
	projects, err := r.Projects.ListProjects(ctx)
	if err != nil {
		return nil, generic.Persistence("list projects", err)
	}
	entries, err := r.Timesheets.EntriesBetween(ctx, generic.EntryFilter{Period: generic.AllTime()})
	if err != nil {
		return nil, generic.Persistence("fetch time entries", err)
	}

	logged := make(map[generic.Category]generic.Hours)
	for _, e := range entries {
		if e.IsLeave {
			continue
		}
		logged[e.Category] = logged[e.Category].Add(e.Hours)
	}

	out := make([]ProjectUsage, 0, len(projects))
	for _, p := range projects {
		h := logged[generic.CategoryOf(p.ID)]
		out = append(out, ProjectUsage{
			Project:   p,
			Logged:    h,
			Remaining: p.AllocatedHours.Sub(h),
		})
	}
	return out, nil
}

func (r Reporter) weekOf(d generic.Date) generic.Week {
	if r.WeekOf == nil {
		return DefaultPolicy().WeekOf(d)
	}
	return r.WeekOf(d)
}
