/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model (decimal hours, typed ids, calendar dates) from
  the external API contract (numbers and YYYY-MM-DD strings).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  People:     ProfileDTO, CreateEmployeeRequest, UpdateProfileRequest
  Projects:   ProjectDTO, CreateProjectRequest, ProjectStatusRequest, ProjectUsageDTO
  Timesheets: TimesheetDTO, DayDTO, RowDTO, WeekSnapshotDTO, EntryDTO,
              SetHoursRequest, HoursInput, SetLeaveRequest, CommentRequest,
              RejectRequest
  Reports:    SummaryDTO, DashboardDTO
  Holidays:   HolidayDTO, CreateHolidayRequest
  Scenarios:  ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Request types carry go-playground/validator tags; decodeRequest checks
  them before a handler sees the body. Business rules (caps, frozen days,
  comment length) stay in the timesheet package.

SEE ALSO:
  - handlers.go: Uses these types
  - validation.go: Tag checking and field messages
*/
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// PEOPLE
// =============================================================================

// ProfileDTO represents an employee or admin in API responses.
type ProfileDTO struct {
	ID           string `json:"id"`
	EmployeeCode string `json:"employee_code,omitempty"`
	FullName     string `json:"full_name"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create a profile.
type CreateEmployeeRequest struct {
	ID           string `json:"id" validate:"omitempty,max=64"`
	EmployeeCode string `json:"employee_code" validate:"required,max=32"`
	FullName     string `json:"full_name" validate:"required,max=200"`
	Email        string `json:"email" validate:"omitempty,email"`
	Role         string `json:"role" validate:"omitempty,oneof=employee admin super_admin"`
}

// UpdateProfileRequest is the caller's own profile edit. Id and role are
// never taken from the body.
type UpdateProfileRequest struct {
	EmployeeCode string `json:"employee_code" validate:"required,max=32"`
	FullName     string `json:"full_name" validate:"required,max=200"`
}

// =============================================================================
// PROJECTS
// =============================================================================

// ProjectDTO represents a project in API responses.
type ProjectDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	AllocatedHours float64 `json:"allocated_hours"`
	StartDate      string  `json:"start_date,omitempty"`
	EndDate        string  `json:"end_date,omitempty"`
	AssignedTo     string  `json:"assigned_to"`
	AssignedBy     string  `json:"assigned_by,omitempty"`
	Status         string  `json:"status"`
}

// CreateProjectRequest assigns a new project to the employee with the given code.
type CreateProjectRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Description    string  `json:"description" validate:"max=2000"`
	AllocatedHours float64 `json:"allocated_hours" validate:"gte=0"`
	StartDate      string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	EmployeeCode   string  `json:"employee_code" validate:"required"`
}

// ProjectStatusRequest moves a project between active, completed and on hold.
type ProjectStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active completed on_hold"`
}

// ProjectUsageDTO compares logged with allocated hours.
type ProjectUsageDTO struct {
	Project   ProjectDTO `json:"project"`
	Logged    float64    `json:"logged_hours"`
	Remaining float64    `json:"remaining_hours"`
	Percent   float64    `json:"percent_used"`
}

// =============================================================================
// TIMESHEETS
// =============================================================================

// TimesheetDTO is the editable week grid.
type TimesheetDTO struct {
	UserID       string   `json:"user_id"`
	WeekStart    string   `json:"week_start"`
	WeekEnd      string   `json:"week_end"`
	WeekRange    string   `json:"week_range"`
	WeekYear     int      `json:"week_year"`
	WeekNumber   int      `json:"week_number"`
	Status       string   `json:"status"`
	Comment      string   `json:"comment"`
	Editable     bool     `json:"editable"`
	Days         []DayDTO `json:"days"`
	Rows         []RowDTO `json:"rows"`
	LeaveCount   int      `json:"leave_count"`
	LeaveHours   float64  `json:"leave_hours"`
	ProjectHours float64  `json:"project_hours"`
	WeekTotal    float64  `json:"week_total"`
	WeeklyTarget float64  `json:"weekly_target"`
	CanSubmit    bool     `json:"can_submit"`
	Shortfall    float64  `json:"shortfall"`
	DailyCap     float64  `json:"daily_cap"`
}

// DayDTO is one column footer. Total is null on frozen days, with Frozen
// saying why.
type DayDTO struct {
	Day    string   `json:"day"`
	Date   string   `json:"date"`
	Leave  string   `json:"leave"`
	Total  *float64 `json:"total"`
	Frozen string   `json:"frozen,omitempty"`
}

// RowDTO is one project row keyed by day code.
type RowDTO struct {
	ProjectID   string             `json:"project_id"`
	ProjectName string             `json:"project_name"`
	Cells       map[string]float64 `json:"cells"`
	Total       float64            `json:"total"`
}

// SetHoursRequest edits one cell. Hours is free text: blank, negative or
// unparsable input is stored as zero.
type SetHoursRequest struct {
	ProjectID string     `json:"project_id" validate:"required"`
	Day       string     `json:"day" validate:"required"`
	Hours     HoursInput `json:"hours"`
}

// HoursInput accepts a cell value sent either as a JSON string or a number.
type HoursInput string

func (h *HoursInput) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*h = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = HoursInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("hours must be a number or a string: %w", err)
	}
	*h = HoursInput(n.String())
	return nil
}

// SetLeaveRequest changes a day's leave state.
type SetLeaveRequest struct {
	Day     string `json:"day" validate:"required"`
	Variant string `json:"variant" validate:"required,oneof=none half_day full_day holiday"`
}

// CommentRequest replaces the week comment.
type CommentRequest struct {
	Comment string `json:"comment"`
}

// RejectRequest sends a week back with a reason.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// EntryDTO is one stored cell.
type EntryDTO struct {
	Category  string  `json:"category"`
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
	IsLeave   bool    `json:"is_leave"`
	LeaveKind string  `json:"leave_kind,omitempty"`
}

// WeekSnapshotDTO is a stored week as the review screens see it.
type WeekSnapshotDTO struct {
	UserID       string     `json:"user_id"`
	FullName     string     `json:"full_name,omitempty"`
	WeekStart    string     `json:"week_start"`
	Status       string     `json:"status"`
	Comment      string     `json:"comment,omitempty"`
	TotalHours   float64    `json:"total_hours"`
	ProjectHours float64    `json:"project_hours"`
	ReviewedBy   string     `json:"reviewed_by,omitempty"`
	ReviewReason string     `json:"review_reason,omitempty"`
	SubmittedAt  string     `json:"submitted_at,omitempty"`
	UpdatedAt    string     `json:"updated_at,omitempty"`
	Entries      []EntryDTO `json:"entries"`
}

// =============================================================================
// REPORTS
// =============================================================================

type SummaryDTO struct {
	TotalHours   float64 `json:"total_hours"`
	WeekHours    float64 `json:"week_hours"`
	MonthHours   float64 `json:"month_hours"`
	AverageDaily float64 `json:"average_daily"`
}

type DashboardDTO struct {
	Employees         int     `json:"employees"`
	ActiveProjects    int     `json:"active_projects"`
	CompletedProjects int     `json:"completed_projects"`
	PendingTimesheets int     `json:"pending_timesheets"`
	WeekHours         float64 `json:"week_hours"`
}

// =============================================================================
// HOLIDAYS / SCENARIOS / ERRORS
// =============================================================================

type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

type CreateHolidayRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"required,max=200"`
	Recurring bool   `json:"recurring"`
}

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the body of every non-2xx response. Timesheet is set
// when an edit was refused, showing the sheet as it still stands.
type ErrorResponse struct {
	Error     string        `json:"error"`
	Code      string        `json:"code,omitempty"`
	Details   any           `json:"details,omitempty"`
	Timesheet *TimesheetDTO `json:"timesheet,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func formatDate(d generic.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toProfileDTO(p generic.Profile) ProfileDTO {
	return ProfileDTO{
		ID:           string(p.ID),
		EmployeeCode: p.EmployeeCode,
		FullName:     p.FullName,
		Email:        p.Email,
		Role:         string(p.Role),
		CreatedAt:    formatTime(p.CreatedAt),
	}
}

func toProjectDTO(p generic.Project) ProjectDTO {
	return ProjectDTO{
		ID:             string(p.ID),
		Name:           p.Name,
		Description:    p.Description,
		AllocatedHours: p.AllocatedHours.Float64(),
		StartDate:      formatDate(p.StartDate),
		EndDate:        formatDate(p.EndDate),
		AssignedTo:     string(p.AssignedTo),
		AssignedBy:     string(p.AssignedBy),
		Status:         string(p.Status),
	}
}

func toTimesheetDTO(v timesheet.View) *TimesheetDTO {
	dto := &TimesheetDTO{
		UserID:       string(v.UserID),
		WeekStart:    formatDate(v.Week.Start),
		WeekEnd:      formatDate(v.Week.End()),
		WeekRange:    v.Week.Range(),
		WeekYear:     v.WeekYear,
		WeekNumber:   v.WeekNumber,
		Status:       string(v.Status),
		Comment:      v.Comment,
		Editable:     v.Editable,
		Days:         make([]DayDTO, 0, len(v.Days)),
		Rows:         make([]RowDTO, 0, len(v.Rows)),
		LeaveCount:   v.LeaveCount,
		LeaveHours:   v.LeaveHours.Float64(),
		ProjectHours: v.ProjectHours.Float64(),
		WeekTotal:    v.WeekTotal.Float64(),
		WeeklyTarget: v.WeeklyTarget.Float64(),
		CanSubmit:    v.CanSubmit,
		Shortfall:    v.Shortfall.Float64(),
		DailyCap:     v.DailyCap.Float64(),
	}
	for _, d := range v.Days {
		day := DayDTO{
			Day:   d.Day.String(),
			Date:  formatDate(d.Date),
			Leave: string(d.Leave),
		}
		if h, ok := d.Total.Hours(); ok {
			f := h.Float64()
			day.Total = &f
		} else if reason, ok := d.Total.Reason(); ok {
			day.Frozen = string(reason)
		}
		dto.Days = append(dto.Days, day)
	}
	for _, r := range v.Rows {
		row := RowDTO{
			ProjectID:   string(r.Project.ID),
			ProjectName: r.Project.Name,
			Cells:       make(map[string]float64, len(r.Cells)),
			Total:       r.Total.Float64(),
		}
		for d, h := range r.Cells {
			row.Cells[d.String()] = h.Float64()
		}
		dto.Rows = append(dto.Rows, row)
	}
	return dto
}

func toWeekSnapshotDTO(s generic.WeekSnapshot, fullName string) WeekSnapshotDTO {
	dto := WeekSnapshotDTO{
		UserID:       string(s.UserID),
		FullName:     fullName,
		WeekStart:    formatDate(s.WeekStart),
		Status:       string(s.Status),
		Comment:      s.Comment,
		TotalHours:   s.Total().Float64(),
		ProjectHours: s.ProjectHours().Float64(),
		ReviewedBy:   string(s.ReviewedBy),
		ReviewReason: s.ReviewReason,
		SubmittedAt:  formatTime(s.SubmittedAt),
		UpdatedAt:    formatTime(s.UpdatedAt),
		Entries:      make([]EntryDTO, 0, len(s.Entries)),
	}
	for _, e := range s.Entries {
		entry := EntryDTO{
			Category: string(e.Category),
			Date:     formatDate(e.Date),
			Hours:    e.Hours.Float64(),
			IsLeave:  e.IsLeave,
		}
		if e.IsLeave {
			entry.LeaveKind = string(e.LeaveKind)
		}
		dto.Entries = append(dto.Entries, entry)
	}
	return dto
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		Date:      formatDate(h.Date),
		Name:      h.Name,
		Recurring: h.Recurring,
	}
}
