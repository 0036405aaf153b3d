package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
)

var monday = generic.NewDate(2025, time.March, 10)

func TestMemory_ReplaceWeekRefusesLockedWeeks(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	// GIVEN: A submitted week
	snap := generic.WeekSnapshot{
		UserID:    "alice",
		WeekStart: monday,
		Status:    generic.StatusSubmitted,
		Entries: []generic.Entry{
			{Category: "web", Date: monday, Hours: generic.NewHoursFromInt(8)},
		},
	}
	require.NoError(t, m.ReplaceWeek(ctx, snap))

	stored, err := m.LoadWeek(ctx, "alice", monday)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.SubmittedAt.IsZero())

	// WHEN: Replacing it again
	snap.Status = generic.StatusDraft
	err = m.ReplaceWeek(ctx, snap)

	// THEN: It is locked
	assert.ErrorIs(t, err, generic.ErrWeekLocked)

	// AND: A rejection unlocks it
	require.NoError(t, m.SetStatus(ctx, generic.StatusChange{
		UserID: "alice", WeekStart: monday, To: generic.StatusRejected, ReviewedBy: "admin", Reason: "split it",
	}))
	assert.NoError(t, m.ReplaceWeek(ctx, snap))
}

func TestMemory_SetStatusGuardsOnCurrentStatus(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	// GIVEN: A submitted week
	require.NoError(t, m.ReplaceWeek(ctx, generic.WeekSnapshot{
		UserID: "alice", WeekStart: monday, Status: generic.StatusSubmitted,
	}))
	approve := generic.StatusChange{
		UserID: "alice", WeekStart: monday, From: generic.StatusSubmitted, To: generic.StatusApproved, ReviewedBy: "admin",
	}
	reject := approve
	reject.To = generic.StatusRejected
	reject.ReviewedBy = "other-admin"

	// WHEN: Two reviewers decide on the same submitted week
	require.NoError(t, m.SetStatus(ctx, approve))
	err := m.SetStatus(ctx, reject)

	// THEN: Only the first decision lands
	assert.ErrorIs(t, err, generic.ErrInvalidTransition)
	stored, err := m.LoadWeek(ctx, "alice", monday)
	require.NoError(t, err)
	assert.Equal(t, generic.StatusApproved, stored.Status)
	assert.Equal(t, generic.UserID("admin"), stored.ReviewedBy)

	// AND: A missing week is still not found
	reject.UserID = "bob"
	assert.ErrorIs(t, m.SetStatus(ctx, reject), generic.ErrNotFound)
}

func TestMemory_LoadWeekCopiesEntries(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.ReplaceWeek(ctx, generic.WeekSnapshot{
		UserID: "alice", WeekStart: monday, Status: generic.StatusDraft,
		Entries: []generic.Entry{{Category: "web", Date: monday, Hours: generic.NewHoursFromInt(4)}},
	}))

	first, err := m.LoadWeek(ctx, "alice", monday)
	require.NoError(t, err)
	first.Entries[0].Hours = generic.NewHoursFromInt(99)

	second, err := m.LoadWeek(ctx, "alice", monday)
	require.NoError(t, err)
	assert.Equal(t, "4.00", second.Entries[0].Hours.String())

	missing, err := m.LoadWeek(ctx, "bob", monday)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemory_ProfilesAndProjects(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.SaveProfile(ctx, generic.Profile{ID: "alice", EmployeeCode: "EMP001", FullName: "Alice"}))
	assert.ErrorIs(t, m.SaveProfile(ctx, generic.Profile{ID: "eve", EmployeeCode: "emp001"}), generic.ErrDuplicate)

	p, err := m.GetProfileByEmployeeCode(ctx, "Emp001")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, generic.UserID("alice"), p.ID)

	require.NoError(t, m.SaveProject(ctx, generic.Project{ID: "b", Name: "Beta", AssignedTo: "alice", Status: generic.ProjectActive}))
	require.NoError(t, m.SaveProject(ctx, generic.Project{ID: "a", Name: "Alpha", AssignedTo: "alice", Status: generic.ProjectActive}))
	require.NoError(t, m.SaveProject(ctx, generic.Project{ID: "c", Name: "Gamma", AssignedTo: "alice", Status: generic.ProjectOnHold}))

	active, err := m.AssignedProjects(ctx, "alice", generic.ProjectActive)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Alpha", active[0].Name)

	assert.ErrorIs(t, m.SetProjectStatus(ctx, "zzz", generic.ProjectCompleted), generic.ErrNotFound)
}

func TestMemory_EntriesBetweenFiltersUserAndPeriod(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, user := range []generic.UserID{"alice", "bob"} {
		require.NoError(t, m.ReplaceWeek(ctx, generic.WeekSnapshot{
			UserID: user, WeekStart: monday, Status: generic.StatusDraft,
			Entries: []generic.Entry{
				{Category: "web", Date: monday, Hours: generic.NewHoursFromInt(3)},
				{Category: "web", Date: monday.AddDays(4), Hours: generic.NewHoursFromInt(5)},
			},
		}))
	}

	alice := generic.UserID("alice")
	got, err := m.EntriesBetween(ctx, generic.EntryFilter{
		UserID: &alice,
		Period: generic.Period{Start: monday, End: monday.AddDays(2)},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, alice, got[0].UserID)

	all, err := m.EntriesBetween(ctx, generic.EntryFilter{Period: generic.AllTime()})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestMemory_HolidaysAndReset(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.SaveHoliday(ctx, generic.Holiday{ID: "h1", Date: monday, Name: "Founders Day"}))
	assert.ErrorIs(t, m.SaveHoliday(ctx, generic.Holiday{ID: "h2", Date: monday, Name: "Founders Day"}), generic.ErrDuplicate)
	assert.Len(t, m.HolidaysBetween(monday, monday.AddDays(6)), 1)

	require.NoError(t, m.SaveRules(ctx, `{"weekly_cap":30}`))
	require.NoError(t, m.Reset(ctx))

	assert.Empty(t, m.HolidaysBetween(monday, monday.AddDays(6)))
	doc, err := m.LoadRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc)
	assert.ErrorIs(t, m.DeleteHoliday(ctx, "h1"), generic.ErrNotFound)
}
