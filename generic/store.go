/*
store.go - Persistence interfaces for profiles, projects and timesheets

PURPOSE:
  Defines the boundary between the timesheet core and the hosted data
  layer. The core never talks SQL; it asks these interfaces for the
  projects assigned to a user and hands them finished week snapshots.

KEY INTERFACES:
  ProfileStore:     Employee/admin profiles (identity is resolved elsewhere)
  ProjectDirectory: Projects and their assignment to employees
  TimesheetStore:   Week snapshots (load, replace, review status)
  HolidayStore:     Public holiday calendar
  RulesStore:       Persisted timesheet rules document
  Backend:          Everything above, as served by one database

REPLACE SEMANTICS:
  ReplaceWeek() swaps the whole week atomically: all previous entries
  for (user, week) are removed and the snapshot's entries written in a
  single transaction. A week whose stored status is submitted or
  approved is locked and ReplaceWeek returns ErrWeekLocked.

NOT FOUND:
  Getters return (nil, nil) when the record does not exist, leaving the
  caller to decide whether absence is an error.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - snapshot.go: WeekSnapshot
  - timesheet/service.go: The only writer of timesheets
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// RECORDS
// =============================================================================

// Profile is an employee or administrator.
type Profile struct {
	ID           UserID
	EmployeeCode string // human-facing id admins use to assign projects
	FullName     string
	Email        string
	Role         Role
	CreatedAt    time.Time
}

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

// Project is an assignable row of the week grid.
type Project struct {
	ID             ProjectID
	Name           string
	Description    string
	AllocatedHours Hours
	StartDate      Date
	EndDate        Date
	AssignedTo     UserID
	AssignedBy     UserID
	Status         ProjectStatus
	CreatedAt      time.Time
}

// StatusChange records a review decision on a submitted week. When From is
// set the change only applies while the stored week still has that status;
// otherwise the store returns ErrInvalidTransition.
type StatusChange struct {
	UserID     UserID
	WeekStart  Date
	From       Status
	To         Status
	ReviewedBy UserID
	Reason     string
}

// UserEntry is an entry tagged with its owner, used by reports.
type UserEntry struct {
	UserID UserID
	Status Status
	Entry
}

// EntryFilter narrows EntriesBetween. A nil UserID means every user.
type EntryFilter struct {
	UserID *UserID
	Period Period
}

// =============================================================================
// INTERFACES
// =============================================================================

type ProfileStore interface {
	SaveProfile(ctx context.Context, p Profile) error
	GetProfile(ctx context.Context, id UserID) (*Profile, error)
	GetProfileByEmployeeCode(ctx context.Context, code string) (*Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
}

type ProjectDirectory interface {
	// AssignedProjects returns the user's projects in the given status, by name.
	// An empty status matches every status.
	AssignedProjects(ctx context.Context, user UserID, status ProjectStatus) ([]Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id ProjectID) (*Project, error)
	SaveProject(ctx context.Context, p Project) error
	SetProjectStatus(ctx context.Context, id ProjectID, status ProjectStatus) error
}

type TimesheetStore interface {
	// LoadWeek returns the stored snapshot, or nil if the week was never saved.
	LoadWeek(ctx context.Context, user UserID, weekStart Date) (*WeekSnapshot, error)

	// ReplaceWeek atomically replaces the stored week with snap.
	ReplaceWeek(ctx context.Context, snap WeekSnapshot) error

	// ListByStatus returns every week in the given status, oldest first.
	ListByStatus(ctx context.Context, status Status) ([]WeekSnapshot, error)

	// SetStatus records a review decision without touching entries.
	SetStatus(ctx context.Context, change StatusChange) error

	// EntriesBetween returns stored entries in the filter's period.
	EntriesBetween(ctx context.Context, filter EntryFilter) ([]UserEntry, error)
}

type HolidayStore interface {
	HolidayCalendar
	SaveHoliday(ctx context.Context, h Holiday) error
	DeleteHoliday(ctx context.Context, id string) error
	ListHolidays(ctx context.Context) ([]Holiday, error)
}

// RulesStore persists the timesheet rules as a JSON document.
type RulesStore interface {
	SaveRules(ctx context.Context, doc string) error
	// LoadRules returns "" when no rules were ever saved.
	LoadRules(ctx context.Context) (string, error)
}

// Backend is the full data layer behind the API.
type Backend interface {
	ProfileStore
	ProjectDirectory
	TimesheetStore
	HolidayStore
	RulesStore

	// Reset clears every table. Demo scenarios only.
	Reset(ctx context.Context) error
}
