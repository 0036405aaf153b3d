package timesheet_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/generic/store"
	"github.com/warp/timesheet-engine/timesheet"
)

func entry(c generic.Category, d generic.Date, h float64) generic.Entry {
	return generic.Entry{Category: c, Date: d, Hours: hours(h), LeaveKind: generic.LeaveNone}
}

func leaveEntry(d generic.Date) generic.Entry {
	return generic.Entry{Category: generic.LeaveCategory, Date: d, Hours: hours(8), IsLeave: true, LeaveKind: generic.LeaveFullDay}
}

func seedReports(t *testing.T) (*store.Memory, timesheet.Reporter) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	a := project(projectA)
	a.AllocatedHours = hours(100)
	require.NoError(t, mem.SaveProject(ctx, a))
	b := project(projectB)
	b.Status = generic.ProjectCompleted
	require.NoError(t, mem.SaveProject(ctx, b))
	c := project("proj-c")
	c.AssignedTo = "bob"
	require.NoError(t, mem.SaveProject(ctx, c))

	for _, p := range []generic.Profile{
		{ID: alice, EmployeeCode: "EMP001", FullName: "Alice", Role: generic.RoleEmployee},
		{ID: "bob", EmployeeCode: "EMP002", FullName: "Bob", Role: generic.RoleEmployee},
		{ID: admin, EmployeeCode: "ADM001", FullName: "Admin", Role: generic.RoleAdmin},
	} {
		require.NoError(t, mem.SaveProfile(ctx, p))
	}

	feb24 := generic.NewDate(2025, time.February, 24)
	mar3 := generic.NewDate(2025, time.March, 3)

	weeks := []generic.WeekSnapshot{
		{UserID: alice, WeekStart: feb24, Status: generic.StatusApproved, Entries: []generic.Entry{
			entry(projectA, feb24, 4),
		}},
		{UserID: alice, WeekStart: mar3, Status: generic.StatusSubmitted, Entries: []generic.Entry{
			entry(projectA, mar3, 5),
		}},
		{UserID: alice, WeekStart: monday10March, Status: generic.StatusDraft, Entries: []generic.Entry{
			entry(projectA, monday10March, 8),
			entry(projectA, monday10March.AddDays(1), 6),
			leaveEntry(monday10March.AddDays(2)),
		}},
		{UserID: "bob", WeekStart: monday10March, Status: generic.StatusDraft, Entries: []generic.Entry{
			entry("proj-c", monday10March, 7),
		}},
	}
	for _, w := range weeks {
		require.NoError(t, mem.ReplaceWeek(ctx, w))
	}

	return mem, timesheet.Reporter{
		Profiles:   mem,
		Projects:   mem,
		Timesheets: mem,
		WeekOf:     timesheet.DefaultPolicy().WeekOf,
	}
}

func TestReporterSummaryForUser(t *testing.T) {
	_, r := seedReports(t)
	today := generic.NewDate(2025, time.March, 12)
	user := alice

	s, err := r.Summary(context.Background(), &user, today)
	require.NoError(t, err)

	// Leave rows never count as worked hours.
	assertHours(t, 23, s.TotalHours)
	assertHours(t, 14, s.WeekHours)
	assertHours(t, 19, s.MonthHours)
	assertHours(t, 1.58, s.AverageDaily)
}

func TestReporterSummaryForEveryone(t *testing.T) {
	_, r := seedReports(t)
	s, err := r.Summary(context.Background(), nil, generic.NewDate(2025, time.March, 12))
	require.NoError(t, err)
	assertHours(t, 30, s.TotalHours)
	assertHours(t, 21, s.WeekHours)
}

func TestReporterDashboard(t *testing.T) {
	_, r := seedReports(t)
	d, err := r.Dashboard(context.Background(), alice, generic.NewDate(2025, time.March, 14))
	require.NoError(t, err)

	assert.Equal(t, 2, d.Employees)
	assert.Equal(t, 2, d.ActiveProjects)
	assert.Equal(t, 1, d.CompletedProjects)
	assert.Equal(t, 1, d.PendingTimesheets)
	assertHours(t, 14, d.WeekHours)
}

func TestReporterProjectUsage(t *testing.T) {
	_, r := seedReports(t)
	usage, err := r.ProjectUsage(context.Background())
	require.NoError(t, err)
	require.Len(t, usage, 3)

	byID := make(map[generic.ProjectID]timesheet.ProjectUsage)
	for _, u := range usage {
		byID[u.Project.ID] = u
	}
	a := byID[generic.ProjectID(projectA)]
	assertHours(t, 23, a.Logged)
	assertHours(t, 77, a.Remaining)
	assert.InDelta(t, 23.0, a.Percent(), 0.0001)

	assertHours(t, 7, byID["proj-c"].Logged)
	assert.Zero(t, byID[generic.ProjectID(projectB)].Percent())
}
