package timesheet_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/generic/store"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const admin = generic.UserID("admin")

type recordingNotifier struct {
	mu     sync.Mutex
	events []timesheet.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev timesheet.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) types() []timesheet.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []timesheet.EventType
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// flakyStore fails every ReplaceWeek while broken is set.
type flakyStore struct {
	*store.Memory
	broken bool
}

func (f *flakyStore) ReplaceWeek(ctx context.Context, snap generic.WeekSnapshot) error {
	if f.broken {
		return errors.New("connection reset by peer")
	}
	return f.Memory.ReplaceWeek(ctx, snap)
}

type fixture struct {
	ctx      context.Context
	mem      *store.Memory
	svc      *timesheet.Service
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	for _, id := range []generic.Category{projectA, projectB} {
		require.NoError(t, mem.SaveProject(ctx, project(id)))
	}
	notifier := &recordingNotifier{}
	svc, err := timesheet.NewService(timesheet.Deps{
		Projects:   mem,
		Timesheets: mem,
		Holidays:   mem,
		Notifier:   notifier,
		Logger:     zerolog.Nop(),
	}, timesheet.DefaultPolicy())
	require.NoError(t, err)
	return &fixture{ctx: ctx, mem: mem, svc: svc, notifier: notifier}
}

func (f *fixture) fillWeek(t *testing.T, user generic.UserID) {
	t.Helper()
	for _, d := range weekdays() {
		_, err := f.svc.SetHours(f.ctx, user, monday10March, generic.ProjectID(projectA), d, "8")
		require.NoError(t, err)
	}
}

// =============================================================================
// OPEN / EDIT
// =============================================================================

func TestServiceOpenShowsAssignedActiveProjects(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mem.SetProjectStatus(f.ctx, generic.ProjectID(projectB), generic.ProjectCompleted))

	view, err := f.svc.Open(f.ctx, alice, monday10March.AddDays(3))
	require.NoError(t, err)

	require.Len(t, view.Rows, 1)
	assert.Equal(t, generic.ProjectID(projectA), view.Rows[0].Project.ID)
	assert.Equal(t, monday10March, view.Week.Start)
	assert.True(t, view.Editable)
	assert.Equal(t, generic.StatusDraft, view.Status)
}

func TestServiceEditsPersistAcrossRequests(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Mon, "6")
	require.NoError(t, err)

	// Any date inside the week resolves to the same session.
	view, err := f.svc.SetHours(f.ctx, alice, monday10March.AddDays(5), generic.ProjectID(projectB), timesheet.Mon, "2")
	require.NoError(t, err)
	assertHours(t, 8, view.WeekTotal)
}

func TestServiceRejectedEditReturnsUnchangedView(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectB), timesheet.Tue, "4")
	require.NoError(t, err)

	view, err := f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Tue, "5")
	assert.True(t, errors.Is(err, generic.ErrValidationRejected))
	assertHours(t, 4, view.WeekTotal)
}

func TestServiceOpeningAnotherWeekDiscardsUnsavedEdits(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Mon, "6")
	require.NoError(t, err)

	next := monday10March.AddDays(7)
	_, err = f.svc.Open(f.ctx, alice, next)
	require.NoError(t, err)
	assert.True(t, f.svc.Sessions().Open(alice, f.svc.WeekOf(next)))

	view, err := f.svc.Open(f.ctx, alice, monday10March)
	require.NoError(t, err)
	assert.True(t, view.WeekTotal.IsZero())
}

func TestServiceDiscard(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Mon, "6")
	require.NoError(t, err)
	assert.Equal(t, 1, f.svc.Sessions().Len())

	f.svc.Discard(alice)
	assert.Equal(t, 0, f.svc.Sessions().Len())

	view, err := f.svc.Open(f.ctx, alice, monday10March)
	require.NoError(t, err)
	assert.True(t, view.WeekTotal.IsZero())
}

func TestServiceFreshWeekPreflagsHolidays(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mem.SaveHoliday(f.ctx, generic.Holiday{
		ID:        "new-year",
		Date:      generic.NewDate(2020, time.March, 13),
		Name:      "Company Day",
		Recurring: true,
	}))

	view, err := f.svc.Open(f.ctx, alice, monday10March)
	require.NoError(t, err)
	assert.Equal(t, generic.LeaveHoliday, view.Days[3].Leave)
	assert.True(t, view.Days[3].Total.IsFrozen())

	_, err = f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Thu, "1")
	var rej *generic.RejectionError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, generic.ReasonDayFrozen, rej.Reason)
}

func TestServiceStoredWeekIgnoresNewHolidays(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Thu, "3")
	require.NoError(t, err)
	_, err = f.svc.Save(f.ctx, alice, monday10March)
	require.NoError(t, err)
	f.svc.Discard(alice)

	require.NoError(t, f.mem.SaveHoliday(f.ctx, generic.Holiday{ID: "h", Date: generic.NewDate(2025, time.March, 13), Name: "Late"}))

	view, err := f.svc.Open(f.ctx, alice, monday10March)
	require.NoError(t, err)
	assert.Equal(t, generic.LeaveNone, view.Days[3].Leave)
	assertHours(t, 3, view.WeekTotal)
}

func TestServiceConcurrentEditsAreSerialised(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for _, d := range weekdays() {
		for _, c := range []generic.Category{projectA, projectB} {
			wg.Add(1)
			go func(d timesheet.Day, c generic.Category) {
				defer wg.Done()
				_, _ = f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(c), d, "4")
			}(d, c)
		}
	}
	wg.Wait()

	view, err := f.svc.Open(f.ctx, alice, monday10March)
	require.NoError(t, err)
	assertHours(t, 40, view.WeekTotal)
	assert.True(t, view.CanSubmit)
}

// =============================================================================
// SAVE / SUBMIT
// =============================================================================

func TestServiceSaveStoresDraft(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Mon, "6")
	require.NoError(t, err)
	_, err = f.svc.SetComment(f.ctx, alice, monday10March, "partial")
	require.NoError(t, err)

	_, err = f.svc.Save(f.ctx, alice, monday10March)
	require.NoError(t, err)

	snap, err := f.mem.LoadWeek(f.ctx, alice, monday10March)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, generic.StatusDraft, snap.Status)
	assert.Equal(t, "partial", snap.Comment)
	assertHours(t, 6, snap.Total())
	assert.Empty(t, f.notifier.types())
}

func TestServiceSaveFailureKeepsEdits(t *testing.T) {
	// GIVEN: A store that fails writes
	ctx := context.Background()
	flaky := &flakyStore{Memory: store.NewMemory(), broken: true}
	require.NoError(t, flaky.SaveProject(ctx, project(projectA)))
	svc, err := timesheet.NewService(timesheet.Deps{Projects: flaky, Timesheets: flaky, Logger: zerolog.Nop()}, timesheet.DefaultPolicy())
	require.NoError(t, err)

	_, err = svc.SetHours(ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Mon, "6")
	require.NoError(t, err)

	// WHEN: Saving
	view, err := svc.Save(ctx, alice, monday10March)

	// THEN: A persistence error, the edits are still in the session
	assert.True(t, errors.Is(err, generic.ErrPersistence))
	assertHours(t, 6, view.WeekTotal)

	// AND: The retry succeeds once the store recovers
	flaky.broken = false
	_, err = svc.Save(ctx, alice, monday10March)
	require.NoError(t, err)
	snap, err := flaky.LoadWeek(ctx, alice, monday10March)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assertHours(t, 6, snap.Total())
}

func TestServiceSubmitUnderTargetIsBlocked(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Mon, "8")
	require.NoError(t, err)

	_, err = f.svc.Submit(f.ctx, alice, monday10March)
	var blocked *generic.SubmitBlockedError
	require.True(t, errors.As(err, &blocked))
	assertHours(t, 32, blocked.Shortfall)

	snap, err := f.mem.LoadWeek(f.ctx, alice, monday10March)
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.Empty(t, f.notifier.types())
}

func TestServiceSubmitLocksWeek(t *testing.T) {
	f := newFixture(t)
	f.fillWeek(t, alice)

	view, err := f.svc.Submit(f.ctx, alice, monday10March)
	require.NoError(t, err)
	assert.Equal(t, generic.StatusSubmitted, view.Status)
	assert.False(t, view.Editable)
	assert.Equal(t, []timesheet.EventType{timesheet.EventSubmitted}, f.notifier.types())

	_, err = f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Sat, "1")
	assert.True(t, errors.Is(err, generic.ErrWeekLocked))
	_, err = f.svc.Save(f.ctx, alice, monday10March)
	assert.True(t, errors.Is(err, generic.ErrWeekLocked))

	pending, err := f.svc.Pending(f.ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, alice, pending[0].UserID)
}

// =============================================================================
// REVIEW
// =============================================================================

func TestServiceApprove(t *testing.T) {
	f := newFixture(t)
	f.fillWeek(t, alice)
	_, err := f.svc.Submit(f.ctx, alice, monday10March)
	require.NoError(t, err)

	snap, err := f.svc.Approve(f.ctx, admin, alice, monday10March.AddDays(2))
	require.NoError(t, err)
	assert.Equal(t, generic.StatusApproved, snap.Status)
	assert.Equal(t, admin, snap.ReviewedBy)

	view, err := f.svc.Open(f.ctx, alice, monday10March)
	require.NoError(t, err)
	assert.Equal(t, generic.StatusApproved, view.Status)
	assert.False(t, view.Editable)
	assert.Equal(t, []timesheet.EventType{timesheet.EventSubmitted, timesheet.EventApproved}, f.notifier.types())

	// A second decision is not allowed.
	_, err = f.svc.Reject(f.ctx, admin, alice, monday10March, "late")
	assert.True(t, errors.Is(err, generic.ErrInvalidTransition))
}

func TestServiceRejectReopensWeek(t *testing.T) {
	f := newFixture(t)
	f.fillWeek(t, alice)
	_, err := f.svc.Submit(f.ctx, alice, monday10March)
	require.NoError(t, err)

	snap, err := f.svc.Reject(f.ctx, admin, alice, monday10March, "split hours by project")
	require.NoError(t, err)
	assert.Equal(t, "split hours by project", snap.ReviewReason)

	view, err := f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Mon, "4")
	require.NoError(t, err)
	assert.Equal(t, generic.StatusRejected, view.Status)
	assertHours(t, 36, view.WeekTotal)

	_, err = f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectB), timesheet.Mon, "4")
	require.NoError(t, err)
	_, err = f.svc.Submit(f.ctx, alice, monday10March)
	require.NoError(t, err)
}

func TestServiceReviewErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(f.ctx, admin, alice, monday10March)
	assert.True(t, errors.Is(err, generic.ErrNotFound))

	_, err = f.svc.Save(f.ctx, alice, monday10March)
	require.NoError(t, err)
	_, err = f.svc.Approve(f.ctx, admin, alice, monday10March)
	assert.True(t, errors.Is(err, generic.ErrInvalidTransition))
}

// staleReadStore reports every stored week as still submitted, as a
// reviewer who loaded the week before another reviewer decided would see it.
type staleReadStore struct {
	*store.Memory
}

func (s staleReadStore) LoadWeek(ctx context.Context, user generic.UserID, weekStart generic.Date) (*generic.WeekSnapshot, error) {
	snap, err := s.Memory.LoadWeek(ctx, user, weekStart)
	if snap != nil {
		snap.Status = generic.StatusSubmitted
	}
	return snap, err
}

func TestServiceConcurrentReviewsOnlyOneWins(t *testing.T) {
	// GIVEN: A submitted week and two reviewers working from the same read
	f := newFixture(t)
	f.fillWeek(t, alice)
	_, err := f.svc.Submit(f.ctx, alice, monday10March)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	reviewers, err := timesheet.NewService(timesheet.Deps{
		Projects:   f.mem,
		Timesheets: staleReadStore{Memory: f.mem},
		Holidays:   f.mem,
		Notifier:   notifier,
		Logger:     zerolog.Nop(),
	}, timesheet.DefaultPolicy())
	require.NoError(t, err)

	// WHEN: One approves and the other rejects
	_, err = reviewers.Approve(f.ctx, admin, alice, monday10March)
	require.NoError(t, err)
	_, err = reviewers.Reject(f.ctx, "other-admin", alice, monday10March, "late")

	// THEN: The second decision is refused and only one event goes out
	assert.True(t, errors.Is(err, generic.ErrInvalidTransition))
	assert.Equal(t, []timesheet.EventType{timesheet.EventApproved}, notifier.types())

	stored, err := f.mem.LoadWeek(f.ctx, alice, monday10March)
	require.NoError(t, err)
	assert.Equal(t, generic.StatusApproved, stored.Status)
	assert.Equal(t, admin, stored.ReviewedBy)
}

func TestServiceInspectIsReadOnly(t *testing.T) {
	f := newFixture(t)
	f.fillWeek(t, alice)
	_, err := f.svc.Save(f.ctx, alice, monday10March)
	require.NoError(t, err)

	view, err := f.svc.Inspect(f.ctx, alice, monday10March)
	require.NoError(t, err)
	assert.False(t, view.Editable)
	assertHours(t, 40, view.WeekTotal)
	assert.Equal(t, 1, f.svc.Sessions().Len())
}

func TestServicePolicyChangeAppliesToNewSessions(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Open(f.ctx, alice, monday10March)
	require.NoError(t, err)

	p := timesheet.DefaultPolicy()
	p.DailyCap = hours(10)
	require.NoError(t, f.svc.SetPolicy(p))

	// The open sheet keeps the old cap.
	_, err = f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Mon, "9")
	assert.True(t, errors.Is(err, generic.ErrValidationRejected))

	f.svc.Discard(alice)
	view, err := f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Mon, "9")
	require.NoError(t, err)
	assertHours(t, 10, view.DailyCap)

	bad := p
	bad.GraceLeaveDays = -1
	assert.True(t, errors.Is(f.svc.SetPolicy(bad), generic.ErrInvalidPolicy))
}

func TestSessionsEvictIdle(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetHours(f.ctx, alice, monday10March, generic.ProjectID(projectA), timesheet.Mon, "6")
	require.NoError(t, err)

	// GIVEN: A sheet used just now
	// WHEN: Sweeping with a cutoff in the past
	// THEN: It survives
	assert.Equal(t, 0, f.svc.Sessions().EvictIdle(time.Now().Add(-time.Hour)))
	assert.Equal(t, 1, f.svc.Sessions().Len())

	// WHEN: The cutoff passes the last use
	// THEN: The sheet and its unsaved edits are dropped
	assert.Equal(t, 1, f.svc.Sessions().EvictIdle(time.Now().Add(time.Second)))
	assert.Equal(t, 0, f.svc.Sessions().Len())

	view, err := f.svc.Open(f.ctx, alice, monday10March)
	require.NoError(t, err)
	assert.True(t, view.WeekTotal.IsZero())
}
