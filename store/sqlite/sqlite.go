/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.Backend (profiles, projects, timesheets, holidays and
  the rules document) using SQLite. In production, the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  generic.ProfileStore:     Employee and admin profiles
  generic.ProjectDirectory: Projects and their assignment
  generic.TimesheetStore:   Week snapshots and review status
  generic.HolidayStore:     Public holiday calendar
  generic.RulesStore:       Timesheet rules JSON document

REPLACE SEMANTICS:
  ReplaceWeek runs in one SQL transaction: the lock check, the header
  upsert, the delete of old entries and the insert of new ones either all
  happen or none do. A reader never sees a half-written week.

KEY TABLES:
  profiles:     One row per user; employee_code is unique, case-insensitive
  projects:     Assignable rows of the week grid
  timesheets:   One header per (user_id, week_start) with status and comment
  time_entries: The non-zero cells and leave rows of each week
  holidays:     Public holidays, optionally recurring every year
  rules:        Single-row table holding the rules JSON

DECIMALS:
  Hours are stored as TEXT and parsed back with shopspring/decimal, so a
  value round-trips exactly.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/timesheets.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/timesheet-engine/generic"
)

// Store implements generic.Backend using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ generic.Backend = (*Store)(nil)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Profiles
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		employee_code TEXT UNIQUE COLLATE NOCASE,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'employee',
		created_at TEXT NOT NULL
	);

	-- Projects (assigned to exactly one employee)
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		allocated_hours TEXT NOT NULL DEFAULT '0',
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		assigned_to TEXT NOT NULL,
		assigned_by TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_assignee_status
		ON projects(assigned_to, status);

	-- Timesheet headers, one per user and week
	CREATE TABLE IF NOT EXISTS timesheets (
		user_id TEXT NOT NULL,
		week_start TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		comment TEXT NOT NULL DEFAULT '',
		reviewed_by TEXT NOT NULL DEFAULT '',
		review_reason TEXT NOT NULL DEFAULT '',
		submitted_at TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, week_start)
	);

	CREATE INDEX IF NOT EXISTS idx_timesheets_status
		ON timesheets(status, week_start);

	-- Time entries (cells and leave rows)
	CREATE TABLE IF NOT EXISTS time_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		week_start TEXT NOT NULL,
		category TEXT NOT NULL,
		date TEXT NOT NULL,
		hours TEXT NOT NULL,
		is_leave BOOLEAN NOT NULL DEFAULT FALSE,
		leave_kind TEXT NOT NULL DEFAULT 'none',
		FOREIGN KEY (user_id, week_start)
			REFERENCES timesheets(user_id, week_start) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_time_entries_week
		ON time_entries(user_id, week_start);
	CREATE INDEX IF NOT EXISTS idx_time_entries_date
		ON time_entries(date);

	-- Holidays
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(date, name);

	-- Rules document (single row)
	CREATE TABLE IF NOT EXISTS rules (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		doc TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PROFILES (generic.ProfileStore interface)
// =============================================================================

// SaveProfile inserts or updates a profile.
func (s *Store) SaveProfile(ctx context.Context, p generic.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO profiles (id, employee_code, full_name, email, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_code = excluded.employee_code,
			full_name = excluded.full_name,
			email = excluded.email,
			role = excluded.role
	`

	_, err := s.db.ExecContext(ctx, query,
		string(p.ID),
		nullString(p.EmployeeCode),
		p.FullName,
		p.Email,
		string(p.Role),
		createdAt.Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("employee code %q: %w", p.EmployeeCode, generic.ErrDuplicate)
	}
	return err
}

// GetProfile retrieves a profile by ID.
func (s *Store) GetProfile(ctx context.Context, id generic.UserID) (*generic.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getProfile(ctx, "id = ?", string(id))
}

// GetProfileByEmployeeCode retrieves a profile by its employee code, ignoring case.
func (s *Store) GetProfileByEmployeeCode(ctx context.Context, code string) (*generic.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getProfile(ctx, "employee_code = ?", strings.TrimSpace(code))
}

func (s *Store) getProfile(ctx context.Context, where string, arg any) (*generic.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, employee_code, full_name, email, role, created_at FROM profiles WHERE "+where,
		arg,
	)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProfiles returns all profiles by name.
func (s *Store) ListProfiles(ctx context.Context) ([]generic.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, employee_code, full_name, email, role, created_at FROM profiles ORDER BY full_name, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []generic.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (generic.Profile, error) {
	var p generic.Profile
	var id, role, createdAt string
	var code sql.NullString
	if err := row.Scan(&id, &code, &p.FullName, &p.Email, &role, &createdAt); err != nil {
		return p, err
	}
	p.ID = generic.UserID(id)
	p.EmployeeCode = code.String
	p.Role = generic.Role(role)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return p, nil
}

// =============================================================================
// PROJECTS (generic.ProjectDirectory interface)
// =============================================================================

const projectColumns = `id, name, description, allocated_hours, start_date, end_date,
	assigned_to, assigned_by, status, created_at`

// SaveProject inserts or updates a project.
func (s *Store) SaveProject(ctx context.Context, p generic.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	status := p.Status
	if status == "" {
		status = generic.ProjectActive
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			allocated_hours = excluded.allocated_hours,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			assigned_to = excluded.assigned_to,
			assigned_by = excluded.assigned_by,
			status = excluded.status
	`

	_, err := s.db.ExecContext(ctx, query,
		string(p.ID),
		p.Name,
		p.Description,
		p.AllocatedHours.Value.String(),
		formatDate(p.StartDate),
		formatDate(p.EndDate),
		string(p.AssignedTo),
		string(p.AssignedBy),
		string(status),
		createdAt.Format(time.RFC3339),
	)
	return err
}

// GetProject retrieves a project by ID.
func (s *Store) GetProject(ctx context.Context, id generic.ProjectID) (*generic.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", string(id))
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AssignedProjects returns the user's projects in the given status, by name;
// an empty status matches every status.
func (s *Store) AssignedProjects(ctx context.Context, user generic.UserID, status generic.ProjectStatus) ([]generic.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status == "" {
		return s.queryProjects(ctx,
			"SELECT "+projectColumns+" FROM projects WHERE assigned_to = ? ORDER BY name, id",
			string(user),
		)
	}
	return s.queryProjects(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE assigned_to = ? AND status = ? ORDER BY name, id",
		string(user), string(status),
	)
}

// ListProjects returns every project, by name.
func (s *Store) ListProjects(ctx context.Context) ([]generic.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryProjects(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY name, id")
}

// SetProjectStatus changes a project's status.
func (s *Store) SetProjectStatus(ctx context.Context, id generic.ProjectID, status generic.ProjectStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE projects SET status = ? WHERE id = ?", string(status), string(id))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]generic.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []generic.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanProject(row scanner) (generic.Project, error) {
	var p generic.Project
	var id, allocated, start, end, assignedTo, assignedBy, status, createdAt string
	err := row.Scan(&id, &p.Name, &p.Description, &allocated, &start, &end,
		&assignedTo, &assignedBy, &status, &createdAt)
	if err != nil {
		return p, err
	}
	p.ID = generic.ProjectID(id)
	p.AllocatedHours = generic.MustParseHours(allocated)
	p.StartDate = parseDate(start)
	p.EndDate = parseDate(end)
	p.AssignedTo = generic.UserID(assignedTo)
	p.AssignedBy = generic.UserID(assignedBy)
	p.Status = generic.ProjectStatus(status)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return p, nil
}

// =============================================================================
// TIMESHEETS (generic.TimesheetStore interface)
// =============================================================================

const timesheetColumns = `user_id, week_start, status, comment, reviewed_by, review_reason,
	submitted_at, updated_at`

// LoadWeek returns the stored week, or nil if it was never saved.
func (s *Store) LoadWeek(ctx context.Context, user generic.UserID, weekStart generic.Date) (*generic.WeekSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+timesheetColumns+" FROM timesheets WHERE user_id = ? AND week_start = ?",
		string(user), weekStart.String(),
	)
	snap, err := scanTimesheet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load timesheet: %w", err)
	}

	snap.Entries, err = loadEntries(ctx, s.db, snap.UserID, snap.WeekStart)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ReplaceWeek atomically swaps the stored week for snap.
func (s *Store) ReplaceWeek(ctx context.Context, snap generic.WeekSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, week := string(snap.UserID), snap.WeekStart.String()

	var current string
	err = tx.QueryRowContext(ctx,
		"SELECT status FROM timesheets WHERE user_id = ? AND week_start = ?", user, week,
	).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("failed to read timesheet status: %w", err)
	case generic.Status(current).Locked():
		return fmt.Errorf("%w: timesheet is %s", generic.ErrWeekLocked, current)
	}

	now := time.Now().UTC()
	submittedAt := sql.NullString{}
	if snap.Status == generic.StatusSubmitted {
		at := snap.SubmittedAt
		if at.IsZero() {
			at = now
		}
		submittedAt = sql.NullString{String: at.Format(time.RFC3339), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO timesheets (`+timesheetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, week_start) DO UPDATE SET
			status = excluded.status,
			comment = excluded.comment,
			reviewed_by = excluded.reviewed_by,
			review_reason = excluded.review_reason,
			submitted_at = excluded.submitted_at,
			updated_at = excluded.updated_at
	`,
		user, week,
		string(snap.Status),
		snap.Comment,
		string(snap.ReviewedBy),
		snap.ReviewReason,
		submittedAt,
		now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write timesheet: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM time_entries WHERE user_id = ? AND week_start = ?", user, week); err != nil {
		return fmt.Errorf("failed to clear time entries: %w", err)
	}

	insert := `
		INSERT INTO time_entries (user_id, week_start, category, date, hours, is_leave, leave_kind)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, e := range snap.Entries {
		kind := e.LeaveKind
		if kind == "" {
			kind = generic.LeaveNone
		}
		_, err := tx.ExecContext(ctx, insert,
			user, week,
			string(e.Category),
			e.Date.String(),
			e.Hours.Value.String(),
			e.IsLeave,
			string(kind),
		)
		if err != nil {
			return fmt.Errorf("failed to write time entry: %w", err)
		}
	}

	return tx.Commit()
}

// ListByStatus returns every week in the given status, oldest first.
func (s *Store) ListByStatus(ctx context.Context, status generic.Status) ([]generic.WeekSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+timesheetColumns+" FROM timesheets WHERE status = ? ORDER BY week_start, user_id",
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query timesheets: %w", err)
	}

	var weeks []generic.WeekSnapshot
	for rows.Next() {
		snap, err := scanTimesheet(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		weeks = append(weeks, snap)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Entries are read after the header cursor is closed; an in-memory
	// database only has one connection.
	for i := range weeks {
		weeks[i].Entries, err = loadEntries(ctx, s.db, weeks[i].UserID, weeks[i].WeekStart)
		if err != nil {
			return nil, err
		}
	}
	return weeks, nil
}

// SetStatus records a review decision without touching entries. A non-empty
// From guards the update so two concurrent reviews cannot both succeed.
func (s *Store) SetStatus(ctx context.Context, change generic.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE timesheets
		SET status = ?, reviewed_by = ?, review_reason = ?, updated_at = ?
		WHERE user_id = ? AND week_start = ?
	`
	args := []any{
		string(change.To),
		string(change.ReviewedBy),
		change.Reason,
		time.Now().UTC().Format(time.RFC3339),
		string(change.UserID),
		change.WeekStart.String(),
	}
	if change.From != "" {
		query += " AND status = ?"
		args = append(args, string(change.From))
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update timesheet status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx,
		`SELECT status FROM timesheets WHERE user_id = ? AND week_start = ?`,
		string(change.UserID), change.WeekStart.String(),
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read timesheet status: %w", err)
	}
	return fmt.Errorf("%w: timesheet is %s, not %s", generic.ErrInvalidTransition, current, change.From)
}

// EntriesBetween returns stored entries dated inside the filter's period.
func (s *Store) EntriesBetween(ctx context.Context, filter generic.EntryFilter) ([]generic.UserEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT e.user_id, t.status, e.category, e.date, e.hours, e.is_leave, e.leave_kind
		FROM time_entries e
		JOIN timesheets t ON t.user_id = e.user_id AND t.week_start = e.week_start
		WHERE e.date >= ? AND e.date <= ?
	`
	args := []any{filter.Period.Start.String(), filter.Period.End.String()}
	if filter.UserID != nil {
		query += " AND e.user_id = ?"
		args = append(args, string(*filter.UserID))
	}
	query += " ORDER BY e.date, e.user_id, e.category"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var out []generic.UserEntry
	for rows.Next() {
		var ue generic.UserEntry
		var user, status, category, date, h, kind string
		if err := rows.Scan(&user, &status, &category, &date, &h, &ue.IsLeave, &kind); err != nil {
			return nil, err
		}
		ue.UserID = generic.UserID(user)
		ue.Status = generic.Status(status)
		ue.Category = generic.Category(category)
		ue.Date = parseDate(date)
		ue.Hours = generic.MustParseHours(h)
		ue.LeaveKind = generic.LeaveKind(kind)
		out = append(out, ue)
	}
	return out, rows.Err()
}

func loadEntries(ctx context.Context, q querier, user generic.UserID, weekStart generic.Date) ([]generic.Entry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT category, date, hours, is_leave, leave_kind
		FROM time_entries
		WHERE user_id = ? AND week_start = ?
		ORDER BY date, is_leave, category
	`, string(user), weekStart.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var entries []generic.Entry
	for rows.Next() {
		var e generic.Entry
		var category, date, h, kind string
		if err := rows.Scan(&category, &date, &h, &e.IsLeave, &kind); err != nil {
			return nil, err
		}
		e.Category = generic.Category(category)
		e.Date = parseDate(date)
		e.Hours = generic.MustParseHours(h)
		e.LeaveKind = generic.LeaveKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanTimesheet(row scanner) (generic.WeekSnapshot, error) {
	var snap generic.WeekSnapshot
	var user, week, status, reviewedBy, updatedAt string
	var submittedAt sql.NullString
	err := row.Scan(&user, &week, &status, &snap.Comment, &reviewedBy, &snap.ReviewReason,
		&submittedAt, &updatedAt)
	if err != nil {
		return snap, err
	}
	snap.UserID = generic.UserID(user)
	snap.WeekStart = parseDate(week)
	snap.Status = generic.Status(status)
	snap.ReviewedBy = generic.UserID(reviewedBy)
	if submittedAt.Valid {
		snap.SubmittedAt, _ = time.Parse(time.RFC3339, submittedAt.String)
	}
	snap.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return snap, nil
}

// =============================================================================
// HOLIDAYS (generic.HolidayStore interface)
// =============================================================================

// SaveHoliday inserts or updates a holiday.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			name = excluded.name,
			recurring = excluded.recurring
	`

	_, err := s.db.ExecContext(ctx, query,
		h.ID,
		h.Date.String(),
		h.Name,
		h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("holiday %s on %s: %w", h.Name, h.Date, generic.ErrDuplicate)
	}
	return err
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListHolidays returns every holiday by date.
func (s *Store) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listHolidays(ctx)
}

// HolidaysBetween projects stored holidays onto [from, to]. Lookup failures
// yield no holidays; a fresh week then simply opens without pre-flags.
func (s *Store) HolidaysBetween(from, to generic.Date) []generic.Holiday {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.listHolidays(context.Background())
	if err != nil {
		return nil
	}
	return generic.ExpandHolidays(all, from, to)
}

func (s *Store) listHolidays(ctx context.Context) ([]generic.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, date, name, recurring FROM holidays ORDER BY date ASC, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var h generic.Holiday
		var date string
		if err := rows.Scan(&h.ID, &date, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date = parseDate(date)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// RULES (generic.RulesStore interface)
// =============================================================================

// SaveRules stores the rules document.
func (s *Store) SaveRules(ctx context.Context, doc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rules (id, doc, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at
	`, doc, time.Now().UTC().Format(time.RFC3339))
	return err
}

// LoadRules returns the rules document, or "" if none was saved.
func (s *Store) LoadRules(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT doc FROM rules WHERE id = 1").Scan(&doc)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return doc, err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"time_entries", "timesheets", "projects", "profiles", "holidays", "rules"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatDate(d generic.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseDate(s string) generic.Date {
	if s == "" {
		return generic.Date{}
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		return generic.Date{}
	}
	return d
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrNotFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
