package timesheet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// SERVICE - Session lifecycle and the save/submit hand-off
// =============================================================================

// Service opens sheets from storage, routes edits to the user's session and
// hands validated snapshots to the TimesheetStore at Save and Submit.
//
// Storage failures never touch the in-memory sheet: the session keeps every
// edit so the caller can retry without re-entering data. The service itself
// never retries.
type Service struct {
	projects generic.ProjectDirectory
	sheets   generic.TimesheetStore
	holidays generic.HolidayCalendar
	notifier Notifier
	sessions *Sessions
	log      zerolog.Logger

	mu     sync.RWMutex
	policy Policy
}

// Deps are the collaborators of a Service. Holidays and Notifier are optional.
type Deps struct {
	Projects   generic.ProjectDirectory
	Timesheets generic.TimesheetStore
	Holidays   generic.HolidayCalendar
	Notifier   Notifier
	Logger     zerolog.Logger
}

func NewService(deps Deps, policy Policy) (*Service, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if deps.Projects == nil || deps.Timesheets == nil {
		return nil, fmt.Errorf("timesheet service requires a project directory and a timesheet store")
	}
	s := &Service{
		projects: deps.Projects,
		sheets:   deps.Timesheets,
		holidays: deps.Holidays,
		notifier: deps.Notifier,
		sessions: NewSessions(),
		log:      deps.Logger.With().Str("component", "timesheet").Logger(),
		policy:   policy,
	}
	if s.holidays == nil {
		s.holidays = generic.NoHolidays{}
	}
	if s.notifier == nil {
		s.notifier = NopNotifier{}
	}
	return s, nil
}

func (s *Service) Policy() Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// SetPolicy swaps the rules. Sheets already open keep the rules they were
// opened with until the user opens another week.
func (s *Service) SetPolicy(p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.policy = p
	s.mu.Unlock()
	s.log.Info().
		Str("week_start", p.WeekStart.String()).
		Str("daily_cap", p.DailyCap.String()).
		Str("half_day_cap", p.HalfDayCap.String()).
		Str("weekly_cap", p.WeeklyCap.String()).
		Str("weekly_cap_mode", string(p.WeeklyCapMode)).
		Msg("timesheet policy updated")
	return nil
}

func (s *Service) Sessions() *Sessions { return s.sessions }

// WeekOf normalises a date onto the configured week.
func (s *Service) WeekOf(d generic.Date) generic.Week { return s.Policy().WeekOf(d) }

// withSheet runs fn against the user's sheet for the week containing date,
// opening it from storage if the user has a different week (or none) open.
// The returned view reflects the sheet after fn, whether or not fn failed.
func (s *Service) withSheet(ctx context.Context, user generic.UserID, date generic.Date, fn func(*Sheet) error) (View, error) {
	policy := s.Policy()
	week := policy.WeekOf(date)

	sess := s.sessions.lock(user)
	defer sess.mu.Unlock()

	if sess.sheet == nil || !sess.sheet.Week.Start.Equal(week.Start) {
		sheet, err := s.load(ctx, user, week, policy)
		if err != nil {
			return View{}, err
		}
		sess.sheet = sheet
	}

	var err error
	if fn != nil {
		err = fn(sess.sheet)
	}
	return sess.sheet.View(), err
}

// load builds a sheet from the user's active projects and any stored
// snapshot. Fresh weeks get public holidays pre-flagged.
func (s *Service) load(ctx context.Context, user generic.UserID, week generic.Week, policy Policy) (*Sheet, error) {
	projects, err := s.projects.AssignedProjects(ctx, user, generic.ProjectActive)
	if err != nil {
		return nil, generic.Persistence("fetch assigned projects", err)
	}
	snap, err := s.sheets.LoadWeek(ctx, user, week.Start)
	if err != nil {
		return nil, generic.Persistence("fetch timesheet", err)
	}

	sheet := NewSheet(user, week, policy, projects)
	if snap != nil {
		sheet.Load(snap)
	} else {
		sheet.ApplyHolidays(s.holidays.HolidaysBetween(week.Start, week.End()))
	}
	return sheet, nil
}

// =============================================================================
// EDITING
// =============================================================================

// Open shows the week containing date, resuming unsaved edits if the user
// already has that week open.
func (s *Service) Open(ctx context.Context, user generic.UserID, date generic.Date) (View, error) {
	return s.withSheet(ctx, user, date, nil)
}

func (s *Service) SetHours(ctx context.Context, user generic.UserID, date generic.Date, project generic.ProjectID, day Day, text string) (View, error) {
	return s.withSheet(ctx, user, date, func(sheet *Sheet) error {
		return sheet.SetHours(generic.CategoryOf(project), day, text)
	})
}

func (s *Service) SetLeave(ctx context.Context, user generic.UserID, date generic.Date, day Day, kind generic.LeaveKind) (View, error) {
	return s.withSheet(ctx, user, date, func(sheet *Sheet) error {
		return sheet.SetLeave(day, kind)
	})
}

func (s *Service) SetComment(ctx context.Context, user generic.UserID, date generic.Date, comment string) (View, error) {
	return s.withSheet(ctx, user, date, func(sheet *Sheet) error {
		return sheet.SetComment(comment)
	})
}

// Discard throws away the user's open sheet and its unsaved edits.
func (s *Service) Discard(user generic.UserID) {
	s.sessions.Discard(user)
}

// =============================================================================
// SAVE / SUBMIT
// =============================================================================

// Save stores the sheet as a draft. It has no eligibility condition beyond
// the week not being locked.
func (s *Service) Save(ctx context.Context, user generic.UserID, date generic.Date) (View, error) {
	return s.withSheet(ctx, user, date, func(sheet *Sheet) error {
		if err := sheet.CheckEditable(); err != nil {
			return err
		}
		snap := sheet.Snapshot(generic.StatusDraft)
		if err := s.sheets.ReplaceWeek(ctx, snap); err != nil {
			s.log.Error().Err(err).
				Str("user_id", string(user)).
				Str("week", sheet.Week.String()).
				Msg("failed to save timesheet")
			return generic.Persistence("save timesheet", err)
		}
		sheet.Status = generic.StatusDraft
		s.log.Info().
			Str("user_id", string(user)).
			Str("week", sheet.Week.String()).
			Str("total", snap.Total().String()).
			Msg("timesheet saved as draft")
		return nil
	})
}

// Submit stores the sheet for approval. It is refused with the exact
// shortfall when the week is under its target.
func (s *Service) Submit(ctx context.Context, user generic.UserID, date generic.Date) (View, error) {
	var event *Event
	view, err := s.withSheet(ctx, user, date, func(sheet *Sheet) error {
		if err := sheet.CheckEditable(); err != nil {
			return err
		}
		if err := sheet.CheckSubmit(); err != nil {
			return err
		}
		snap := sheet.Snapshot(generic.StatusSubmitted)
		if err := s.sheets.ReplaceWeek(ctx, snap); err != nil {
			s.log.Error().Err(err).
				Str("user_id", string(user)).
				Str("week", sheet.Week.String()).
				Msg("failed to submit timesheet")
			return generic.Persistence("submit timesheet", err)
		}
		sheet.Status = generic.StatusSubmitted
		s.log.Info().
			Str("user_id", string(user)).
			Str("week", sheet.Week.String()).
			Str("total", snap.Total().String()).
			Msg("timesheet submitted for approval")
		event = &Event{
			Type:      EventSubmitted,
			UserID:    user,
			WeekStart: sheet.Week.Start,
			Total:     snap.Total(),
			Target:    sheet.WeeklyTarget(),
			At:        time.Now().UTC(),
		}
		return nil
	})
	if event != nil {
		s.notifier.Notify(ctx, *event)
	}
	return view, err
}

// =============================================================================
// REVIEW
// =============================================================================

// Pending lists every submitted week awaiting review.
func (s *Service) Pending(ctx context.Context) ([]generic.WeekSnapshot, error) {
	weeks, err := s.sheets.ListByStatus(ctx, generic.StatusSubmitted)
	if err != nil {
		return nil, generic.Persistence("list pending timesheets", err)
	}
	return weeks, nil
}

// Approve marks a submitted week approved.
func (s *Service) Approve(ctx context.Context, reviewer, user generic.UserID, date generic.Date) (*generic.WeekSnapshot, error) {
	return s.review(ctx, reviewer, user, date, generic.StatusApproved, "")
}

// Reject sends a submitted week back to the employee; it becomes editable again.
func (s *Service) Reject(ctx context.Context, reviewer, user generic.UserID, date generic.Date, reason string) (*generic.WeekSnapshot, error) {
	return s.review(ctx, reviewer, user, date, generic.StatusRejected, reason)
}

func (s *Service) review(ctx context.Context, reviewer, user generic.UserID, date generic.Date, to generic.Status, reason string) (*generic.WeekSnapshot, error) {
	week := s.WeekOf(date)
	snap, err := s.sheets.LoadWeek(ctx, user, week.Start)
	if err != nil {
		return nil, generic.Persistence("fetch timesheet", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("timesheet %s for %s: %w", week, user, generic.ErrNotFound)
	}
	if snap.Status != generic.StatusSubmitted {
		return nil, fmt.Errorf("%w: cannot move %s timesheet to %s", generic.ErrInvalidTransition, snap.Status, to)
	}

	change := generic.StatusChange{
		UserID:     user,
		WeekStart:  week.Start,
		From:       generic.StatusSubmitted,
		To:         to,
		ReviewedBy: reviewer,
		Reason:     reason,
	}
	if err := s.sheets.SetStatus(ctx, change); err != nil {
		if errors.Is(err, generic.ErrInvalidTransition) || errors.Is(err, generic.ErrNotFound) {
			return nil, err
		}
		s.log.Error().Err(err).Str("user_id", string(user)).Str("week", week.String()).Msg("failed to record review")
		return nil, generic.Persistence("record review", err)
	}

	// The owner's open sheet still carries the old status.
	s.sessions.DiscardWeek(user, week)

	snap.Status = to
	snap.ReviewedBy = reviewer
	snap.ReviewReason = reason

	eventType := EventApproved
	if to == generic.StatusRejected {
		eventType = EventRejected
	}
	s.notifier.Notify(ctx, Event{
		Type:       eventType,
		UserID:     user,
		WeekStart:  week.Start,
		Total:      snap.Total(),
		ReviewedBy: reviewer,
		Reason:     reason,
		At:         time.Now().UTC(),
	})
	s.log.Info().
		Str("user_id", string(user)).
		Str("week", week.String()).
		Str("reviewer", string(reviewer)).
		Str("status", string(to)).
		Msg("timesheet reviewed")
	return snap, nil
}

// Inspect builds a read-only view of a stored week without touching the
// owner's session. Admins use it to look at an employee's timesheet.
func (s *Service) Inspect(ctx context.Context, user generic.UserID, date generic.Date) (View, error) {
	policy := s.Policy()
	sheet, err := s.load(ctx, user, policy.WeekOf(date), policy)
	if err != nil {
		return View{}, err
	}
	sheet.ReadOnly = true
	return sheet.View(), nil
}
