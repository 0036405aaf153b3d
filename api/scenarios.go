/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates profiles, projects, holidays and
	timesheets relative to today, so the data always lands on the weeks the
	UI shows first.

AVAILABLE SCENARIOS:

	team-week:    Admin + two employees, last week submitted and drafted
	holiday-week: One employee whose current week contains a public holiday
	leave-week:   One employee with leave days and a reduced target

HOW SCENARIOS WORK:
 1. Reset database (clear all data) and drop open sheets
 2. Create profiles and assign projects
 3. Fill timesheets through the timesheet service, so every cap applies
 4. Add holidays

USAGE VIA API:

	POST /api/admin/scenarios/load
	{"scenario_id": "team-week"}

USAGE VIA CLI:

	timesheet seed --scenario team-week

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Shared handler context
  - cmd/server/main.go: seed command
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "team-week",
		Name:        "Team Week",
		Description: "Two employees on Website and Web Page; last week submitted by one, drafted by the other",
	},
	{
		ID:          "holiday-week",
		Name:        "Holiday Week",
		Description: "A public holiday on this week's Wednesday is pre-flagged when the week is opened",
	},
	{
		ID:          "leave-week",
		Name:        "Leave Week",
		Description: "Three leave days this week reduce the submit target below 40 hours",
	},
}

// Demo identities. The admin id is what `timesheet token --user admin` signs.
const (
	demoAdmin = generic.UserID("admin")
	demoAlice = generic.UserID("alice")
	demoBob   = generic.UserID("bob")
)

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// LoadScenarioByID resets the store and loads the named scenario.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	var load func(context.Context) error
	switch id {
	case "team-week":
		load = h.loadTeamWeekScenario
	case "holiday-week":
		load = h.loadHolidayWeekScenario
	case "leave-week":
		load = h.loadLeaveWeekScenario
	default:
		return fmt.Errorf("scenario %q: %w", id, generic.ErrNotFound)
	}

	if err := h.Store.Reset(ctx); err != nil {
		return generic.Persistence("reset database", err)
	}
	h.Service.Sessions().Clear()

	if err := load(ctx); err != nil {
		return fmt.Errorf("failed to load scenario %s: %w", id, err)
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadTeamWeekScenario(ctx context.Context) error {
	if err := h.seedPeople(ctx, demoAlice, demoBob); err != nil {
		return err
	}

	today := h.Today()
	start := today.AddMonths(-1)
	website, err := h.seedProject(ctx, "Website", "Marketing site rebuild", 120, start, demoAlice)
	if err != nil {
		return err
	}
	webPage, err := h.seedProject(ctx, "Web Page", "Landing page for the spring campaign", 30, start, demoAlice)
	if err != nil {
		return err
	}
	mobile, err := h.seedProject(ctx, "Mobile App", "Companion app", 200, start, demoBob)
	if err != nil {
		return err
	}
	archived, err := h.seedProject(ctx, "Intranet", "Finished last quarter", 80, start.AddMonths(-3), demoBob)
	if err != nil {
		return err
	}
	if err := h.Store.SetProjectStatus(ctx, archived, generic.ProjectCompleted); err != nil {
		return err
	}

	lastWeek := h.Service.WeekOf(today).Prev().Start

	// Alice: 5h Website + 3h Web Page every weekday, submitted.
	for _, d := range workdays() {
		if _, err := h.Service.SetHours(ctx, demoAlice, lastWeek, website, d, "5"); err != nil {
			return err
		}
		if _, err := h.Service.SetHours(ctx, demoAlice, lastWeek, webPage, d, "3"); err != nil {
			return err
		}
	}
	if _, err := h.Service.SetComment(ctx, demoAlice, lastWeek, "Homepage hero and pricing table"); err != nil {
		return err
	}
	if _, err := h.Service.Submit(ctx, demoAlice, lastWeek); err != nil {
		return err
	}

	// Bob: a short draft, not yet submittable.
	for _, d := range workdays()[:3] {
		if _, err := h.Service.SetHours(ctx, demoBob, lastWeek, mobile, d, "7.5"); err != nil {
			return err
		}
	}
	if _, err := h.Service.Save(ctx, demoBob, lastWeek); err != nil {
		return err
	}
	h.Service.Sessions().Clear()

	// Added after the weeks above are stored, which never pick up new holidays.
	for _, hol := range []generic.Holiday{
		{ID: "new-year", Date: generic.NewDate(today.Year(), time.January, 1), Name: "New Year's Day", Recurring: true},
		{ID: "christmas", Date: generic.NewDate(today.Year(), time.December, 25), Name: "Christmas Day", Recurring: true},
	} {
		if err := h.Store.SaveHoliday(ctx, hol); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadHolidayWeekScenario(ctx context.Context) error {
	if err := h.seedPeople(ctx, demoAlice); err != nil {
		return err
	}
	today := h.Today()
	if _, err := h.seedProject(ctx, "Website", "Marketing site rebuild", 120, today.AddMonths(-1), demoAlice); err != nil {
		return err
	}

	wednesday := h.Service.WeekOf(today).DateFor(time.Wednesday)
	return h.Store.SaveHoliday(ctx, generic.Holiday{
		ID:   "company-day",
		Date: wednesday,
		Name: "Company Day",
	})
}

func (h *Handler) loadLeaveWeekScenario(ctx context.Context) error {
	if err := h.seedPeople(ctx, demoAlice); err != nil {
		return err
	}
	today := h.Today()
	website, err := h.seedProject(ctx, "Website", "Marketing site rebuild", 120, today.AddMonths(-1), demoAlice)
	if err != nil {
		return err
	}

	week := h.Service.WeekOf(today).Start
	leave := map[timesheet.Day]generic.LeaveKind{
		timesheet.Mon: generic.LeaveFullDay,
		timesheet.Tue: generic.LeaveFullDay,
		timesheet.Wed: generic.LeaveFullDay,
	}
	for d, kind := range leave {
		if _, err := h.Service.SetLeave(ctx, demoAlice, week, d, kind); err != nil {
			return err
		}
	}
	for _, d := range []timesheet.Day{timesheet.Thu, timesheet.Fri} {
		if _, err := h.Service.SetHours(ctx, demoAlice, week, website, d, "8"); err != nil {
			return err
		}
	}
	if _, err := h.Service.Save(ctx, demoAlice, week); err != nil {
		return err
	}
	h.Service.Sessions().Clear()
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) seedPeople(ctx context.Context, employees ...generic.UserID) error {
	now := time.Now().UTC()
	if err := h.Store.SaveProfile(ctx, generic.Profile{
		ID:        demoAdmin,
		FullName:  "Avery Admin",
		Email:     "admin@example.com",
		Role:      generic.RoleAdmin,
		CreatedAt: now,
	}); err != nil {
		return err
	}

	people := map[generic.UserID]generic.Profile{
		demoAlice: {ID: demoAlice, EmployeeCode: "EMP001", FullName: "Alice Martin", Email: "alice@example.com"},
		demoBob:   {ID: demoBob, EmployeeCode: "EMP002", FullName: "Bob Singh", Email: "bob@example.com"},
	}
	for _, id := range employees {
		p := people[id]
		p.Role = generic.RoleEmployee
		p.CreatedAt = now
		if err := h.Store.SaveProfile(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) seedProject(ctx context.Context, name, description string, allocated int, start generic.Date, owner generic.UserID) (generic.ProjectID, error) {
	id := generic.ProjectID(fmt.Sprintf("%s-%s", owner, slug(name)))
	err := h.Store.SaveProject(ctx, generic.Project{
		ID:             id,
		Name:           name,
		Description:    description,
		AllocatedHours: generic.NewHoursFromInt(allocated),
		StartDate:      start,
		AssignedTo:     owner,
		AssignedBy:     demoAdmin,
		Status:         generic.ProjectActive,
		CreatedAt:      time.Now().UTC(),
	})
	return id, err
}

func workdays() []timesheet.Day {
	return []timesheet.Day{timesheet.Mon, timesheet.Tue, timesheet.Wed, timesheet.Thu, timesheet.Fri}
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+'a'-'A')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r == ' ' || r == '-':
			out = append(out, '-')
		}
	}
	return string(out)
}
