package timesheet

import (
	"fmt"
	"unicode/utf8"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// SHEET - One user's displayed week
// =============================================================================

// Sheet is the editing session for one (user, week). It is single-writer:
// callers that share a Sheet across goroutines must serialise access, which
// Sessions does for the HTTP layer.
//
// Every mutation is validated first; a rejected mutation leaves the sheet
// exactly as it was.
type Sheet struct {
	UserID   generic.UserID
	Week     generic.Week
	Policy   Policy
	Status   generic.Status
	Comment  string
	ReadOnly bool // review views never accept edits

	projects []generic.Project
	known    map[generic.Category]bool
	matrix   *Matrix
	leave    *LeaveTracker
}

// NewSheet creates an empty sheet whose rows are the given projects.
func NewSheet(user generic.UserID, week generic.Week, policy Policy, projects []generic.Project) *Sheet {
	s := &Sheet{
		UserID: user,
		Week:   week,
		Policy: policy,
		Status: generic.StatusDraft,
		known:  make(map[generic.Category]bool, len(projects)),
		matrix: NewMatrix(),
		leave:  NewLeaveTracker(),
	}
	for _, p := range projects {
		s.addProject(p)
	}
	return s
}

func (s *Sheet) addProject(p generic.Project) {
	c := generic.CategoryOf(p.ID)
	if s.known[c] {
		return
	}
	s.known[c] = true
	s.projects = append(s.projects, p)
}

// Projects returns the grid rows in display order.
func (s *Sheet) Projects() []generic.Project {
	return append([]generic.Project(nil), s.projects...)
}

// Days returns the seven columns in display order.
func (s *Sheet) Days() []Day { return WeekDays(s.Policy.WeekStart) }

// DateOf returns the calendar date of a column.
func (s *Sheet) DateOf(d Day) generic.Date { return s.Week.DateFor(d.Weekday()) }

func (s *Sheet) Aggregator() Aggregator {
	return Aggregator{Policy: s.Policy, Matrix: s.matrix, Leave: s.leave}
}

// Editable reports whether the sheet accepts edits in its current status.
func (s *Sheet) Editable() bool {
	return !s.ReadOnly && !s.Status.Locked()
}

// CheckEditable returns nil when the sheet accepts edits. Submitted and
// approved weeks report ErrWeekLocked; review views report a read-only
// rejection.
func (s *Sheet) CheckEditable() error {
	if s.ReadOnly {
		return &generic.RejectionError{Reason: generic.ReasonReadOnly}
	}
	if s.Status.Locked() {
		return fmt.Errorf("%w: timesheet is %s", generic.ErrWeekLocked, s.Status)
	}
	return nil
}

func (s *Sheet) readOnlyError(d Day) error {
	if s.ReadOnly {
		return &generic.RejectionError{Reason: generic.ReasonReadOnly, Day: d.String()}
	}
	return s.CheckEditable()
}

// =============================================================================
// MUTATIONS
// =============================================================================

// SetHours parses free-text hours and commits them if the validator accepts.
// Invalid, empty or negative text is read as zero.
func (s *Sheet) SetHours(c generic.Category, d Day, text string) error {
	return s.SetHoursValue(c, d, generic.ParseHours(text))
}

// SetHoursValue is SetHours for an already-parsed quantity.
func (s *Sheet) SetHoursValue(c generic.Category, d Day, h generic.Hours) error {
	if !s.Editable() {
		return s.readOnlyError(d)
	}
	h = h.FloorZero()
	v := Validator{Policy: s.Policy}
	if err := v.Check(s.Aggregator(), s.known, Edit{Category: c, Day: d, Hours: h}); err != nil {
		return err
	}
	s.matrix.set(c, d, h)
	return nil
}

// SetLeave changes a day's leave state. Full-day leave and holidays discard
// any project hours already entered on that day; half-day leave keeps them.
func (s *Sheet) SetLeave(d Day, kind generic.LeaveKind) error {
	if !s.Editable() {
		return s.readOnlyError(d)
	}
	if kind == "" {
		kind = generic.LeaveNone
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown leave variant %q", generic.ErrValidationRejected, kind)
	}
	if !d.Valid() {
		return fmt.Errorf("%w: unknown day %d", generic.ErrValidationRejected, int(d))
	}
	s.leave.set(d, kind)
	if kind.Blocks() {
		s.matrix.ClearDay(d)
	}
	return nil
}

// SetComment replaces the week comment; it is capped at MaxCommentLength characters.
func (s *Sheet) SetComment(text string) error {
	if err := s.CheckEditable(); err != nil {
		return err
	}
	if n := utf8.RuneCountInString(text); n > generic.MaxCommentLength {
		return fmt.Errorf("%w: %d characters, maximum %d", generic.ErrCommentTooLong, n, generic.MaxCommentLength)
	}
	s.Comment = text
	return nil
}

// ApplyHolidays flags each holiday inside the week as a frozen day.
func (s *Sheet) ApplyHolidays(holidays []generic.Holiday) {
	for _, h := range holidays {
		if !s.Week.Contains(h.Date) {
			continue
		}
		d := Day(h.Date.Weekday())
		s.leave.set(d, generic.LeaveHoliday)
		s.matrix.ClearDay(d)
	}
}

// =============================================================================
// QUERIES
// =============================================================================

func (s *Sheet) Hours(c generic.Category, d Day) generic.Hours { return s.matrix.Get(c, d) }

func (s *Sheet) Leave(d Day) generic.LeaveKind { return s.leave.Variant(d) }

func (s *Sheet) IsBlocked(d Day) bool { return s.leave.IsBlocked(d) }

func (s *Sheet) CategoryTotal(c generic.Category) generic.Hours {
	return s.matrix.CategoryTotal(c)
}

func (s *Sheet) DayTotal(d Day) DayTotal { return s.Aggregator().DayTotal(d) }

func (s *Sheet) WeekTotal() generic.Hours { return s.Aggregator().WeekTotal() }

func (s *Sheet) WeeklyTarget() generic.Hours { return s.Aggregator().WeeklyTarget() }

func (s *Sheet) LeaveCount() int { return s.leave.Count() }

// CanSubmit is true when the week total has reached the weekly target.
func (s *Sheet) CanSubmit() bool {
	return s.WeekTotal().AtLeast(s.WeeklyTarget())
}

// CheckSubmit returns a SubmitBlockedError carrying the shortfall when the
// week is under target.
func (s *Sheet) CheckSubmit() error {
	agg := s.Aggregator()
	total, target := agg.WeekTotal(), agg.WeeklyTarget()
	if total.AtLeast(target) {
		return nil
	}
	return &generic.SubmitBlockedError{
		Target:    target,
		Total:     total,
		Shortfall: target.Sub(total),
	}
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// Snapshot copies the sheet into the persistence contract: one entry per
// non-zero project cell and one leave row per flagged day.
func (s *Sheet) Snapshot(status generic.Status) generic.WeekSnapshot {
	snap := generic.WeekSnapshot{
		UserID:    s.UserID,
		WeekStart: s.Week.Start,
		Status:    status,
		Comment:   s.Comment,
	}
	for _, d := range s.Days() {
		date := s.DateOf(d)
		for _, c := range s.matrix.Categories() {
			h := s.matrix.Get(c, d)
			if h.IsZero() {
				continue
			}
			snap.Entries = append(snap.Entries, generic.Entry{
				Category:  c,
				Date:      date,
				Hours:     h,
				LeaveKind: generic.LeaveNone,
			})
		}
		if kind := s.leave.Variant(d); kind != generic.LeaveNone {
			snap.Entries = append(snap.Entries, generic.Entry{
				Category:  generic.LeaveCategory,
				Date:      date,
				Hours:     s.Policy.LeaveHours(kind),
				IsLeave:   true,
				LeaveKind: kind,
			})
		}
	}
	return snap
}

// Load rehydrates the sheet from a stored snapshot. Stored cells are trusted
// as they were validated when saved; categories no longer assigned are kept
// as rows so their hours are not silently dropped.
func (s *Sheet) Load(snap *generic.WeekSnapshot) {
	if snap == nil {
		return
	}
	s.Status = snap.Status
	s.Comment = snap.Comment
	for _, e := range snap.Entries {
		if !s.Week.Contains(e.Date) {
			continue
		}
		d := Day(e.Date.Weekday())
		if e.IsLeave {
			s.leave.set(d, e.LeaveKind)
			continue
		}
		if !s.known[e.Category] {
			s.addProject(generic.Project{ID: generic.ProjectID(e.Category), Name: string(e.Category)})
		}
		s.matrix.set(e.Category, d, e.Hours)
	}
	for d, kind := range s.leave.Days() {
		if kind.Blocks() {
			s.matrix.ClearDay(d)
		}
	}
}
