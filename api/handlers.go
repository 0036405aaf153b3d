/*
handlers.go - HTTP API handlers for the weekly timesheet engine

PURPOSE:
  Exposes the timesheet service via REST API. Handles HTTP request and
  response, JSON serialization, and delegates every rule to the
  timesheet package.

ENDPOINTS:
  Employee:
    GET    /api/me                          Current profile
    PUT    /api/me                          Edit own name and employee code
    GET    /api/projects                    Assigned projects (?status=, default active)
    GET    /api/timesheets/{week}           Open or resume the week's sheet
    PUT    /api/timesheets/{week}/hours     Edit one cell
    PUT    /api/timesheets/{week}/leave     Flag a day as leave
    PUT    /api/timesheets/{week}/comment   Replace the week comment
    POST   /api/timesheets/{week}/save      Store as draft
    POST   /api/timesheets/{week}/submit    Store for approval
    DELETE /api/timesheets/{week}           Discard unsaved edits
    GET    /api/reports/summary             Hours rollup
    GET    /api/dashboard                   Landing page counters
    GET    /api/holidays                    Holiday calendar
    GET    /api/policy                      Current rules

  Admin:
    GET/POST /api/admin/employees           Profiles
    POST   /api/admin/projects              Assign a project by employee code
    PUT    /api/admin/projects/{id}/status  Activate, complete or hold
    GET    /api/admin/projects/usage        Logged vs allocated hours
    GET    /api/admin/timesheets/pending    Weeks awaiting review
    GET    /api/admin/employees/{id}/timesheets/{week}   Read-only view
    POST   /api/admin/timesheets/{user}/{week}/approve
    POST   /api/admin/timesheets/{user}/{week}/reject
    POST   /api/admin/holidays, DELETE /api/admin/holidays/{id}
    PUT    /api/admin/policy                Replace the rules
    GET    /api/admin/scenarios, POST /api/admin/scenarios/load

WEEK PARAMETER:
  {week} is any YYYY-MM-DD date inside the week, or "current". The
  service normalises it onto the configured first weekday.

ERROR HANDLING:
  Errors are returned as JSON {error, code, details} with:
  - 400: Malformed body or parameters
  - 401: Missing or invalid token
  - 403: Admin-only route, read-only sheet
  - 404: Unknown profile, project or week
  - 409: Week locked, invalid review transition, duplicate
  - 422: Edit refused by a business rule, submit blocked, bad rules
  - 502: Storage failure (the open sheet keeps its edits)
  - 500: Anything else
  A refused edit also returns the unchanged sheet under "timesheet".

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/timesheet-engine/factory"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         generic.Backend
	Service       *timesheet.Service
	Reports       timesheet.Reporter
	PolicyFactory *factory.PolicyFactory

	// Today is the reference date for "current" weeks and reports.
	Today func() generic.Date

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler over the given store and service.
func NewHandler(store generic.Backend, svc *timesheet.Service) *Handler {
	return &Handler{
		Store:   store,
		Service: svc,
		Reports: timesheet.Reporter{
			Profiles:   store,
			Projects:   store,
			Timesheets: store,
			WeekOf:     svc.WeekOf,
		},
		PolicyFactory: factory.NewPolicyFactory(),
		Today:         generic.Today,
	}
}

// Health reports liveness and, when the store supports it, database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Database unreachable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// PROFILE & PROJECT HANDLERS
// =============================================================================

// Me returns the caller's profile.
// GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := caller(r)
	p, err := h.Store.GetProfile(r.Context(), id.UserID)
	if err != nil {
		writeDomainError(w, r, generic.Persistence("fetch profile", err))
		return
	}
	if p == nil {
		writeDomainError(w, r, fmt.Errorf("profile %s: %w", id.UserID, generic.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(*p))
}

// UpdateMe lets the caller change their own name and employee code.
// PUT /api/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	id := caller(r)
	p, err := h.Store.GetProfile(r.Context(), id.UserID)
	if err != nil {
		writeDomainError(w, r, generic.Persistence("fetch profile", err))
		return
	}
	if p == nil {
		writeDomainError(w, r, fmt.Errorf("profile %s: %w", id.UserID, generic.ErrNotFound))
		return
	}

	p.EmployeeCode = strings.TrimSpace(req.EmployeeCode)
	p.FullName = strings.TrimSpace(req.FullName)
	if err := h.Store.SaveProfile(r.Context(), *p); err != nil {
		writeDomainError(w, r, generic.Persistence("save profile", err))
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(*p))
}

// ListProjects returns the projects assigned to the caller, every project for
// admins. ?status= narrows the list to one status and "all" keeps every
// status. Employees see only active projects when no status is given.
// GET /api/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	id := caller(r)

	status := generic.ProjectStatus(r.URL.Query().Get("status"))
	switch {
	case status == "" && !id.Role.IsAdmin():
		status = generic.ProjectActive
	case status == "all":
		status = ""
	case status != "" && !status.Valid():
		writeDomainError(w, r, badRequest("unknown project status %q", status))
		return
	}

	var (
		projects []generic.Project
		err      error
	)
	if id.Role.IsAdmin() {
		projects, err = h.Store.ListProjects(r.Context())
	} else {
		projects, err = h.Store.AssignedProjects(r.Context(), id.UserID, status)
	}
	if err != nil {
		writeDomainError(w, r, generic.Persistence("list projects", err))
		return
	}

	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		if status != "" && p.Status != status {
			continue
		}
		dtos = append(dtos, toProjectDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// TIMESHEET HANDLERS
// =============================================================================

// GetTimesheet opens the week, resuming unsaved edits if it is already open.
// GET /api/timesheets/{week}
func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	date, err := h.weekParam(r, "week")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	view, err := h.Service.Open(r.Context(), caller(r).UserID, date)
	respondSheet(w, r, view, err)
}

// SetHours edits one (project, day) cell.
// PUT /api/timesheets/{week}/hours
func (h *Handler) SetHours(w http.ResponseWriter, r *http.Request) {
	date, err := h.weekParam(r, "week")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req SetHoursRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	day, err := timesheet.ParseDay(req.Day)
	if err != nil {
		writeDomainError(w, r, badRequest("%v", err))
		return
	}

	view, err := h.Service.SetHours(r.Context(), caller(r).UserID, date, generic.ProjectID(req.ProjectID), day, string(req.Hours))
	respondSheet(w, r, view, err)
}

// SetLeave flags a day as leave or clears the flag.
// PUT /api/timesheets/{week}/leave
func (h *Handler) SetLeave(w http.ResponseWriter, r *http.Request) {
	date, err := h.weekParam(r, "week")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req SetLeaveRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	day, err := timesheet.ParseDay(req.Day)
	if err != nil {
		writeDomainError(w, r, badRequest("%v", err))
		return
	}

	view, err := h.Service.SetLeave(r.Context(), caller(r).UserID, date, day, generic.LeaveKind(req.Variant))
	respondSheet(w, r, view, err)
}

// SetComment replaces the week comment.
// PUT /api/timesheets/{week}/comment
func (h *Handler) SetComment(w http.ResponseWriter, r *http.Request) {
	date, err := h.weekParam(r, "week")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req CommentRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	view, err := h.Service.SetComment(r.Context(), caller(r).UserID, date, req.Comment)
	respondSheet(w, r, view, err)
}

// SaveTimesheet stores the open sheet as a draft.
// POST /api/timesheets/{week}/save
func (h *Handler) SaveTimesheet(w http.ResponseWriter, r *http.Request) {
	date, err := h.weekParam(r, "week")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	view, err := h.Service.Save(r.Context(), caller(r).UserID, date)
	respondSheet(w, r, view, err)
}

// SubmitTimesheet stores the open sheet for approval.
// POST /api/timesheets/{week}/submit
func (h *Handler) SubmitTimesheet(w http.ResponseWriter, r *http.Request) {
	date, err := h.weekParam(r, "week")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	view, err := h.Service.Submit(r.Context(), caller(r).UserID, date)
	respondSheet(w, r, view, err)
}

// DiscardTimesheet drops the caller's open sheet and its unsaved edits.
// DELETE /api/timesheets/{week}
func (h *Handler) DiscardTimesheet(w http.ResponseWriter, r *http.Request) {
	h.Service.Discard(caller(r).UserID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// Summary returns the hours rollup for the caller. Admins get everyone's
// hours, or one user's with ?user_id=.
// GET /api/reports/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	id := caller(r)

	var scope *generic.UserID
	if !id.Role.IsAdmin() {
		scope = &id.UserID
	} else if q := r.URL.Query().Get("user_id"); q != "" {
		u := generic.UserID(q)
		scope = &u
	}

	s, err := h.Reports.Summary(r.Context(), scope, h.Today())
	if err != nil {
		writeDomainError(w, r, generic.Persistence("build summary", err))
		return
	}
	writeJSON(w, http.StatusOK, SummaryDTO{
		TotalHours:   s.TotalHours.Float64(),
		WeekHours:    s.WeekHours.Float64(),
		MonthHours:   s.MonthHours.Float64(),
		AverageDaily: s.AverageDaily.Float64(),
	})
}

// Dashboard returns the landing page counters.
// GET /api/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Reports.Dashboard(r.Context(), caller(r).UserID, h.Today())
	if err != nil {
		writeDomainError(w, r, generic.Persistence("build dashboard", err))
		return
	}
	writeJSON(w, http.StatusOK, DashboardDTO{
		Employees:         d.Employees,
		ActiveProjects:    d.ActiveProjects,
		CompletedProjects: d.CompletedProjects,
		PendingTimesheets: d.PendingTimesheets,
		WeekHours:         d.WeekHours.Float64(),
	})
}

// =============================================================================
// HOLIDAY & POLICY HANDLERS
// =============================================================================

// ListHolidays returns the calendar, or the holidays falling in
// [?from, ?to] with recurring ones projected onto that range.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var holidays []generic.Holiday
	if q.Get("from") != "" || q.Get("to") != "" {
		from, err := generic.ParseDate(q.Get("from"))
		if err != nil {
			writeDomainError(w, r, badRequest("%v", err))
			return
		}
		to, err := generic.ParseDate(q.Get("to"))
		if err != nil {
			writeDomainError(w, r, badRequest("%v", err))
			return
		}
		if to.Before(from) {
			writeDomainError(w, r, badRequest("to must not be before from"))
			return
		}
		holidays = h.Store.HolidaysBetween(from, to)
	} else {
		var err error
		holidays, err = h.Store.ListHolidays(r.Context())
		if err != nil {
			writeDomainError(w, r, generic.Persistence("list holidays", err))
			return
		}
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": dtos})
}

// CreateHoliday adds a holiday. Weeks opened fresh afterwards get the day
// pre-flagged; stored weeks are left alone.
// POST /api/admin/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeDomainError(w, r, badRequest("%v", err))
		return
	}

	holiday := generic.Holiday{
		ID:        uuid.NewString(),
		Date:      date,
		Name:      strings.TrimSpace(req.Name),
		Recurring: req.Recurring,
	}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		writeDomainError(w, r, generic.Persistence("save holiday", err))
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// DeleteHoliday removes a holiday.
// DELETE /api/admin/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, generic.Persistence("delete holiday", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetPolicy returns the rules in effect for newly opened weeks.
// GET /api/policy
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.PolicyFactory.ToJSON(h.Service.Policy()))
}

// UpdatePolicy replaces the rules. The document overlays the defaults, is
// stored, and applies to sheets opened from now on.
// PUT /api/admin/policy
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var req factory.RulesJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, r, badRequest("invalid request body: %v", err))
		return
	}

	policy, err := h.PolicyFactory.FromJSON(req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	doc, err := h.PolicyFactory.Marshal(policy)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Store.SaveRules(r.Context(), doc); err != nil {
		writeDomainError(w, r, generic.Persistence("save rules", err))
		return
	}
	if err := h.Service.SetPolicy(policy); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.PolicyFactory.ToJSON(policy))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ListEmployees returns every profile.
// GET /api/admin/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Store.ListProfiles(r.Context())
	if err != nil {
		writeDomainError(w, r, generic.Persistence("list profiles", err))
		return
	}
	dtos := make([]ProfileDTO, len(profiles))
	for i, p := range profiles {
		dtos[i] = toProfileDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates a profile.
// POST /api/admin/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	p := generic.Profile{
		ID:           generic.UserID(req.ID),
		EmployeeCode: strings.TrimSpace(req.EmployeeCode),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        req.Email,
		Role:         generic.Role(req.Role),
		CreatedAt:    time.Now().UTC(),
	}
	if p.ID == "" {
		p.ID = generic.UserID(uuid.NewString())
	}
	if p.Role == "" {
		p.Role = generic.RoleEmployee
	}

	if err := h.Store.SaveProfile(r.Context(), p); err != nil {
		writeDomainError(w, r, generic.Persistence("save profile", err))
		return
	}
	writeJSON(w, http.StatusCreated, toProfileDTO(p))
}

// CreateProject assigns a new active project to an employee found by code.
// POST /api/admin/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	var start, end generic.Date
	var err error
	if req.StartDate != "" {
		if start, err = generic.ParseDate(req.StartDate); err != nil {
			writeDomainError(w, r, badRequest("%v", err))
			return
		}
	}
	if req.EndDate != "" {
		if end, err = generic.ParseDate(req.EndDate); err != nil {
			writeDomainError(w, r, badRequest("%v", err))
			return
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		writeDomainError(w, r, badRequest("end_date must not be before start_date"))
		return
	}

	employee, err := h.Store.GetProfileByEmployeeCode(r.Context(), req.EmployeeCode)
	if err != nil {
		writeDomainError(w, r, generic.Persistence("fetch profile", err))
		return
	}
	if employee == nil {
		writeDomainError(w, r, fmt.Errorf("no employee with code %q: %w", req.EmployeeCode, generic.ErrNotFound))
		return
	}

	project := generic.Project{
		ID:             generic.ProjectID(uuid.NewString()),
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		AllocatedHours: generic.NewHours(req.AllocatedHours),
		StartDate:      start,
		EndDate:        end,
		AssignedTo:     employee.ID,
		AssignedBy:     caller(r).UserID,
		Status:         generic.ProjectActive,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.Store.SaveProject(r.Context(), project); err != nil {
		writeDomainError(w, r, generic.Persistence("save project", err))
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(project))
}

// SetProjectStatus moves a project between active, completed and on hold.
// Only active projects appear on timesheets opened afterwards.
// PUT /api/admin/projects/{id}/status
func (h *Handler) SetProjectStatus(w http.ResponseWriter, r *http.Request) {
	var req ProjectStatusRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	id := generic.ProjectID(chi.URLParam(r, "id"))
	if err := h.Store.SetProjectStatus(r.Context(), id, generic.ProjectStatus(req.Status)); err != nil {
		writeDomainError(w, r, generic.Persistence("update project status", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": string(id), "status": req.Status})
}

// ProjectUsage compares logged hours with each project's allocation.
// GET /api/admin/projects/usage
func (h *Handler) ProjectUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.Reports.ProjectUsage(r.Context())
	if err != nil {
		writeDomainError(w, r, generic.Persistence("build project usage", err))
		return
	}
	dtos := make([]ProjectUsageDTO, len(usage))
	for i, u := range usage {
		dtos[i] = ProjectUsageDTO{
			Project:   toProjectDTO(u.Project),
			Logged:    u.Logged.Float64(),
			Remaining: u.Remaining.Float64(),
			Percent:   u.Percent(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListPendingTimesheets returns submitted weeks awaiting review.
// GET /api/admin/timesheets/pending
func (h *Handler) ListPendingTimesheets(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.Service.Pending(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	names, err := h.profileNames(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dtos := make([]WeekSnapshotDTO, len(weeks))
	for i, wk := range weeks {
		dtos[i] = toWeekSnapshotDTO(wk, names[wk.UserID])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// InspectTimesheet shows an employee's week read-only.
// GET /api/admin/employees/{id}/timesheets/{week}
func (h *Handler) InspectTimesheet(w http.ResponseWriter, r *http.Request) {
	date, err := h.weekParam(r, "week")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	view, err := h.Service.Inspect(r.Context(), generic.UserID(chi.URLParam(r, "id")), date)
	respondSheet(w, r, view, err)
}

// ApproveTimesheet approves a submitted week.
// POST /api/admin/timesheets/{user}/{week}/approve
func (h *Handler) ApproveTimesheet(w http.ResponseWriter, r *http.Request) {
	date, err := h.weekParam(r, "week")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	snap, err := h.Service.Approve(r.Context(), caller(r).UserID, generic.UserID(chi.URLParam(r, "user")), date)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekSnapshotDTO(*snap, ""))
}

// RejectTimesheet sends a submitted week back to its owner.
// POST /api/admin/timesheets/{user}/{week}/reject
func (h *Handler) RejectTimesheet(w http.ResponseWriter, r *http.Request) {
	date, err := h.weekParam(r, "week")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req RejectRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	snap, err := h.Service.Reject(r.Context(), caller(r).UserID, generic.UserID(chi.URLParam(r, "user")), date, req.Reason)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekSnapshotDTO(*snap, ""))
}

// =============================================================================
// HELPERS
// =============================================================================

func caller(r *http.Request) Identity {
	id, _ := IdentityFrom(r.Context())
	return id
}

// weekParam reads a date URL parameter; "current" means today.
func (h *Handler) weekParam(r *http.Request, name string) (generic.Date, error) {
	raw := chi.URLParam(r, name)
	if raw == "" || strings.EqualFold(raw, "current") {
		return h.Today(), nil
	}
	d, err := generic.ParseDate(raw)
	if err != nil {
		return generic.Date{}, badRequest("%v", err)
	}
	return d, nil
}

func (h *Handler) profileNames(ctx context.Context) (map[generic.UserID]string, error) {
	profiles, err := h.Store.ListProfiles(ctx)
	if err != nil {
		return nil, generic.Persistence("list profiles", err)
	}
	names := make(map[generic.UserID]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.FullName
	}
	return names, nil
}

// respondSheet writes the sheet, or the error together with the sheet as it
// still stands when the service got far enough to load one.
func respondSheet(w http.ResponseWriter, r *http.Request, view timesheet.View, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, toTimesheetDTO(view))
		return
	}
	status, resp := classifyError(err)
	if !view.Week.Start.IsZero() {
		resp.Timesheet = toTimesheetDTO(view)
	}
	logFailure(r, status, err)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps err onto a status code and error body.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := classifyError(err)
	logFailure(r, status, err)
	writeJSON(w, status, resp)
}

func logFailure(r *http.Request, status int, err error) {
	if status < http.StatusInternalServerError {
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("request failed")
}

func classifyError(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Error: err.Error()}

	var (
		reqErr  *RequestError
		reject  *generic.RejectionError
		blocked *generic.SubmitBlockedError
	)
	switch {
	case errors.As(err, &reqErr):
		resp.Code = "invalid_request"
		if len(reqErr.Fields) > 0 {
			resp.Error = reqErr.Message
			resp.Details = reqErr.Fields
		}
		return http.StatusBadRequest, resp

	case errors.As(err, &reject):
		resp.Code = string(reject.Reason)
		resp.Details = rejectionDetails(reject)
		if reject.Reason == generic.ReasonReadOnly {
			return http.StatusForbidden, resp
		}
		return http.StatusUnprocessableEntity, resp

	case errors.As(err, &blocked):
		resp.Code = "submit_blocked"
		resp.Details = map[string]float64{
			"target":    blocked.Target.Float64(),
			"total":     blocked.Total.Float64(),
			"shortfall": blocked.Shortfall.Float64(),
		}
		return http.StatusUnprocessableEntity, resp

	case errors.Is(err, generic.ErrValidationRejected):
		resp.Code = "validation_rejected"
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, generic.ErrCommentTooLong):
		resp.Code = "comment_too_long"
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, generic.ErrInvalidPolicy):
		resp.Code = "invalid_policy"
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, generic.ErrWeekLocked):
		resp.Code = "week_locked"
		return http.StatusConflict, resp
	case errors.Is(err, generic.ErrInvalidTransition):
		resp.Code = "invalid_transition"
		return http.StatusConflict, resp
	case errors.Is(err, generic.ErrDuplicate):
		resp.Code = "duplicate"
		return http.StatusConflict, resp
	case errors.Is(err, generic.ErrNotFound):
		resp.Code = "not_found"
		return http.StatusNotFound, resp
	case errors.Is(err, generic.ErrForbidden):
		resp.Code = "forbidden"
		return http.StatusForbidden, resp
	case errors.Is(err, generic.ErrPersistence):
		resp.Code = "persistence_failure"
		resp.Error = "Storage unavailable, unsaved edits are kept; retry later"
		resp.Details = err.Error()
		return http.StatusBadGateway, resp
	}

	resp.Code = "internal"
	resp.Error = "Internal server error"
	resp.Details = err.Error()
	return http.StatusInternalServerError, resp
}

func rejectionDetails(e *generic.RejectionError) map[string]any {
	d := map[string]any{}
	if e.Category != "" {
		d["category"] = string(e.Category)
	}
	if e.Day != "" {
		d["day"] = e.Day
	}
	switch e.Reason {
	case generic.ReasonDailyLimit, generic.ReasonWeeklyLimit:
		d["cap"] = e.Cap.Float64()
		d["current"] = e.Current.Float64()
		d["requested"] = e.Requested.Float64()
		d["remaining"] = e.Remaining.Float64()
	}
	return d
}
