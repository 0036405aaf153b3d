// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	profiles map[generic.UserID]generic.Profile
	projects map[generic.ProjectID]generic.Project
	weeks    map[weekKey]generic.WeekSnapshot
	holidays map[string]generic.Holiday
	rules    string
}

type weekKey struct {
	UserID    generic.UserID
	WeekStart string
}

func keyOf(user generic.UserID, start generic.Date) weekKey {
	return weekKey{UserID: user, WeekStart: start.String()}
}

func NewMemory() *Memory {
	m := &Memory{}
	m.resetLocked()
	return m
}

var _ generic.Backend = (*Memory)(nil)

func (m *Memory) resetLocked() {
	m.profiles = make(map[generic.UserID]generic.Profile)
	m.projects = make(map[generic.ProjectID]generic.Project)
	m.weeks = make(map[weekKey]generic.WeekSnapshot)
	m.holidays = make(map[string]generic.Holiday)
	m.rules = ""
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}

// =============================================================================
// PROFILES
// =============================================================================

func (m *Memory) SaveProfile(_ context.Context, p generic.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.EmployeeCode != "" {
		for id, other := range m.profiles {
			if id != p.ID && strings.EqualFold(other.EmployeeCode, p.EmployeeCode) {
				return generic.ErrDuplicate
			}
		}
	}
	if existing, ok := m.profiles[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.profiles[p.ID] = p
	return nil
}

func (m *Memory) GetProfile(_ context.Context, id generic.UserID) (*generic.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) GetProfileByEmployeeCode(_ context.Context, code string) (*generic.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.profiles {
		if strings.EqualFold(p.EmployeeCode, code) {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListProfiles(_ context.Context) ([]generic.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]generic.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// =============================================================================
// PROJECTS
// =============================================================================

func (m *Memory) AssignedProjects(_ context.Context, user generic.UserID, status generic.ProjectStatus) ([]generic.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []generic.Project
	for _, p := range m.projects {
		if p.AssignedTo == user && (status == "" || p.Status == status) {
			out = append(out, p)
		}
	}
	sortProjects(out)
	return out, nil
}

func (m *Memory) ListProjects(_ context.Context) ([]generic.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]generic.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sortProjects(out)
	return out, nil
}

func (m *Memory) GetProject(_ context.Context, id generic.ProjectID) (*generic.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) SaveProject(_ context.Context, p generic.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.projects[p.ID] = p
	return nil
}

func (m *Memory) SetProjectStatus(_ context.Context, id generic.ProjectID, status generic.ProjectStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return generic.ErrNotFound
	}
	p.Status = status
	m.projects[id] = p
	return nil
}

func sortProjects(ps []generic.Project) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Name != ps[j].Name {
			return ps[i].Name < ps[j].Name
		}
		return ps[i].ID < ps[j].ID
	})
}

// =============================================================================
// TIMESHEETS
// =============================================================================

func (m *Memory) LoadWeek(_ context.Context, user generic.UserID, weekStart generic.Date) (*generic.WeekSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.weeks[keyOf(user, weekStart)]
	if !ok {
		return nil, nil
	}
	snap.Entries = append([]generic.Entry(nil), snap.Entries...)
	return &snap, nil
}

func (m *Memory) ReplaceWeek(_ context.Context, snap generic.WeekSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyOf(snap.UserID, snap.WeekStart)
	if existing, ok := m.weeks[k]; ok && existing.Status.Locked() {
		return generic.ErrWeekLocked
	}
	snap.Entries = append([]generic.Entry(nil), snap.Entries...)
	snap.UpdatedAt = time.Now().UTC()
	if snap.Status == generic.StatusSubmitted && snap.SubmittedAt.IsZero() {
		snap.SubmittedAt = snap.UpdatedAt
	}
	m.weeks[k] = snap
	return nil
}

func (m *Memory) ListByStatus(_ context.Context, status generic.Status) ([]generic.WeekSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []generic.WeekSnapshot
	for _, snap := range m.weeks {
		if snap.Status == status {
			snap.Entries = append([]generic.Entry(nil), snap.Entries...)
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WeekStart.Equal(out[j].WeekStart) {
			return out[i].WeekStart.Before(out[j].WeekStart)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (m *Memory) SetStatus(_ context.Context, change generic.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyOf(change.UserID, change.WeekStart)
	snap, ok := m.weeks[k]
	if !ok {
		return generic.ErrNotFound
	}
	if change.From != "" && snap.Status != change.From {
		return fmt.Errorf("%w: timesheet is %s, not %s", generic.ErrInvalidTransition, snap.Status, change.From)
	}
	snap.Status = change.To
	snap.ReviewedBy = change.ReviewedBy
	snap.ReviewReason = change.Reason
	snap.UpdatedAt = time.Now().UTC()
	m.weeks[k] = snap
	return nil
}

func (m *Memory) EntriesBetween(_ context.Context, filter generic.EntryFilter) ([]generic.UserEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []generic.UserEntry
	for k, snap := range m.weeks {
		if filter.UserID != nil && k.UserID != *filter.UserID {
			continue
		}
		for _, e := range snap.Entries {
			if filter.Period.Contains(e.Date) {
				out = append(out, generic.UserEntry{UserID: snap.UserID, Status: snap.Status, Entry: e})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) SaveHoliday(_ context.Context, h generic.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, other := range m.holidays {
		if id != h.ID && other.Date.Equal(h.Date) && other.Name == h.Name {
			return generic.ErrDuplicate
		}
	}
	m.holidays[h.ID] = h
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.holidays[id]; !ok {
		return generic.ErrNotFound
	}
	delete(m.holidays, id)
	return nil
}

func (m *Memory) ListHolidays(_ context.Context) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedHolidaysLocked(), nil
}

func (m *Memory) HolidaysBetween(from, to generic.Date) []generic.Holiday {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return generic.ExpandHolidays(m.sortedHolidaysLocked(), from, to)
}

func (m *Memory) sortedHolidaysLocked() []generic.Holiday {
	out := make([]generic.Holiday, 0, len(m.holidays))
	for _, h := range m.holidays {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// =============================================================================
// RULES
// =============================================================================

func (m *Memory) SaveRules(_ context.Context, doc string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = doc
	return nil
}

func (m *Memory) LoadRules(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rules, nil
}
