/*
Package generic provides the domain-agnostic building blocks of the timesheet engine.

PURPOSE:
  This package contains the primitive types every other package speaks:
  hour quantities, identifiers, calendar dates and weeks, the error
  taxonomy, and the persistence contracts. It knows nothing about caps,
  leave rules or HTTP.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: A decimal quantity of worked or leave hours
  - UserID / ProjectID / Category: Type-safe identifiers
  - Role: Who may edit and who may only review

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so 0.1 + 0.2 sums stay exact on the grid
  2. Type Safety: Strong typing keeps user ids and project ids apart
  3. Zero value is useful: Hours{} is zero hours

USAGE:
  h := generic.NewHours(7.5)
  total := h.Add(generic.MustParseHours("0.5"))  // 8

SEE ALSO:
  - time.go: Dates, weeks and the holiday calendar
  - snapshot.go: The week snapshot handed to persistence
  - store.go: Persistence interfaces
*/
package generic

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - Decimal quantity of time
// =============================================================================

type Hours struct {
	Value decimal.Decimal
}

func NewHours(value float64) Hours { return Hours{Value: decimal.NewFromFloat(value)} }

func NewHoursFromInt(value int) Hours { return Hours{Value: decimal.NewFromInt(int64(value))} }

// hoursPattern is the only shape free-text hours may take: plain digits with
// an optional fraction. Exponent notation is refused.
var hoursPattern = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

// maxHoursInput bounds the length of a free-text cell value.
const maxHoursInput = 12

// ParseHours reads free-text user input, rounded to two places. Empty,
// malformed and negative input all read as zero hours.
func ParseHours(s string) Hours {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxHoursInput || !hoursPattern.MatchString(s) {
		return Hours{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Hours{}
	}
	return Hours{Value: d.Round(2)}
}

func MustParseHours(s string) Hours {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Hours{}
	}
	return Hours{Value: d}
}

func (h Hours) Add(o Hours) Hours { return Hours{Value: h.Value.Add(o.Value)} }
func (h Hours) Sub(o Hours) Hours { return Hours{Value: h.Value.Sub(o.Value)} }
func (h Hours) Mul(n int) Hours { return Hours{Value: h.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (h Hours) Div(n int) Hours { return Hours{Value: h.Value.Div(decimal.NewFromInt(int64(n)))} }
func (h Hours) IsZero() bool { return h.Value.IsZero() }
func (h Hours) IsNegative() bool { return h.Value.IsNegative() }
func (h Hours) IsPositive() bool { return h.Value.IsPositive() }
func (h Hours) Equal(o Hours) bool { return h.Value.Equal(o.Value) }
func (h Hours) GreaterThan(o Hours) bool { return h.Value.GreaterThan(o.Value) }
func (h Hours) LessThan(o Hours) bool { return h.Value.LessThan(o.Value) }
func (h Hours) AtLeast(o Hours) bool { return h.Value.GreaterThanOrEqual(o.Value) }
func (h Hours) Float64() float64 { return h.Value.InexactFloat64() }
func (h Hours) String() string { return h.Value.StringFixed(2) }

func (h Hours) Min(o Hours) Hours {
	if h.LessThan(o) {
		return h
	}
	return o
}

func (h Hours) Max(o Hours) Hours {
	if h.GreaterThan(o) {
		return h
	}
	return o
}

// FloorZero clamps negative quantities to zero.
func (h Hours) FloorZero() Hours { return h.Max(Hours{}) }

// SumHours adds a list of quantities.
func SumHours(hs ...Hours) Hours {
	total := Hours{}
	for _, h := range hs {
		total = total.Add(h)
	}
	return total
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type ProjectID string

// Category is a row key in the week grid: a project id or the leave row.
type Category string

// LeaveCategory is the pseudo-project used for leave and holiday rows in
// snapshots. It can never be assigned project hours.
const LeaveCategory Category = "Leave/Holiday"

func (c Category) IsLeave() bool { return c == LeaveCategory }

// CategoryOf returns the grid row key for a project.
func CategoryOf(id ProjectID) Category { return Category(id) }

// =============================================================================
// ROLES
// =============================================================================

type Role string

const (
	RoleEmployee   Role = "employee"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// IsAdmin reports whether the role gets the review (read-only) views.
func (r Role) IsAdmin() bool { return r == RoleAdmin || r == RoleSuperAdmin }

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
