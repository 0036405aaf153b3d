/*
Package factory provides JSON to Go timesheet rules conversion.

PURPOSE:
  Converts the JSON rules document into a timesheet.Policy. This lets an
  administrator change caps and conventions without code changes: the
  document is stored by the RulesStore, edited through the admin API and
  can also be supplied in the service configuration file.

JSON SCHEMA:
  {
    "week_start": "monday",
    "daily_cap": 8,
    "half_day_cap": 4,
    "weekly_cap": 40,
    "grace_leave_days": 2,
    "weekly_cap_mode": "submit"
  }

DEFAULTS:
  Every field is optional. Missing fields take the value from
  timesheet.DefaultPolicy(); the result is always validated.

USAGE:
  factory := NewPolicyFactory()

  // From JSON string
  policy, err := factory.ParseRules(jsonString)

  // Back to JSON for storage
  doc, err := factory.Marshal(policy)

SEE ALSO:
  - timesheet/policy.go: Policy type definition
  - config/config.go: Rules section of the service configuration
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RulesJSON is the JSON representation of the timesheet rules. The same
// struct is decoded from the configuration file, hence the mapstructure tags.
type RulesJSON struct {
	WeekStart      string   `json:"week_start,omitempty" mapstructure:"week_start"`
	DailyCap       *float64 `json:"daily_cap,omitempty" mapstructure:"daily_cap"`
	HalfDayCap     *float64 `json:"half_day_cap,omitempty" mapstructure:"half_day_cap"`
	WeeklyCap      *float64 `json:"weekly_cap,omitempty" mapstructure:"weekly_cap"`
	GraceLeaveDays *int     `json:"grace_leave_days,omitempty" mapstructure:"grace_leave_days"`
	WeeklyCapMode  string   `json:"weekly_cap_mode,omitempty" mapstructure:"weekly_cap_mode"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts JSON rules to policies.
type PolicyFactory struct{}

// NewPolicyFactory creates a new policy factory.
func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// ParseRules parses a JSON string into a validated Policy. An empty document
// yields the default policy.
func (f *PolicyFactory) ParseRules(jsonStr string) (timesheet.Policy, error) {
	if strings.TrimSpace(jsonStr) == "" {
		return timesheet.DefaultPolicy(), nil
	}
	var rj RulesJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return timesheet.Policy{}, fmt.Errorf("%w: failed to parse rules JSON: %v", generic.ErrInvalidPolicy, err)
	}
	return f.FromJSON(rj)
}

// FromJSON overlays the document on the default policy and validates it.
func (f *PolicyFactory) FromJSON(rj RulesJSON) (timesheet.Policy, error) {
	p := timesheet.DefaultPolicy()

	if rj.WeekStart != "" {
		wd, err := parseWeekStart(rj.WeekStart)
		if err != nil {
			return timesheet.Policy{}, err
		}
		p.WeekStart = wd
	}
	if rj.DailyCap != nil {
		p.DailyCap = generic.NewHours(*rj.DailyCap)
	}
	if rj.HalfDayCap != nil {
		p.HalfDayCap = generic.NewHours(*rj.HalfDayCap)
	}
	if rj.WeeklyCap != nil {
		p.WeeklyCap = generic.NewHours(*rj.WeeklyCap)
	}
	if rj.GraceLeaveDays != nil {
		p.GraceLeaveDays = *rj.GraceLeaveDays
	}
	if rj.WeeklyCapMode != "" {
		p.WeeklyCapMode = timesheet.WeeklyCapMode(strings.ToLower(rj.WeeklyCapMode))
	}

	if err := p.Validate(); err != nil {
		return timesheet.Policy{}, err
	}
	return p, nil
}

// ToJSON converts a Policy to RulesJSON with every field set.
func (f *PolicyFactory) ToJSON(p timesheet.Policy) RulesJSON {
	daily := p.DailyCap.Float64()
	half := p.HalfDayCap.Float64()
	weekly := p.WeeklyCap.Float64()
	grace := p.GraceLeaveDays
	return RulesJSON{
		WeekStart:      strings.ToLower(p.WeekStart.String()),
		DailyCap:       &daily,
		HalfDayCap:     &half,
		WeeklyCap:      &weekly,
		GraceLeaveDays: &grace,
		WeeklyCapMode:  string(p.WeeklyCapMode),
	}
}

// Marshal renders a policy as the stored rules document.
func (f *PolicyFactory) Marshal(p timesheet.Policy) (string, error) {
	b, err := json.Marshal(f.ToJSON(p))
	if err != nil {
		return "", fmt.Errorf("failed to encode rules: %w", err)
	}
	return string(b), nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseWeekStart(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monday", "mon":
		return time.Monday, nil
	case "sunday", "sun":
		return time.Sunday, nil
	default:
		return 0, fmt.Errorf("%w: week_start must be monday or sunday, got %q", generic.ErrInvalidPolicy, s)
	}
}
