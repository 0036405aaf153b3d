package timesheet

import (
	"sort"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// MATRIX - Hours per (category, day)
// =============================================================================

// Matrix holds the hours of one displayed week. Absent cells read as zero and
// writing zero removes the cell, so two matrices with the same non-zero cells
// compare equal.
//
// Matrix does no validation of its own; edits go through Sheet.SetHours.
type Matrix struct {
	cells map[generic.Category]map[Day]generic.Hours
}

func NewMatrix() *Matrix {
	return &Matrix{cells: make(map[generic.Category]map[Day]generic.Hours)}
}

func (m *Matrix) Get(c generic.Category, d Day) generic.Hours {
	return m.cells[c][d]
}

func (m *Matrix) set(c generic.Category, d Day, h generic.Hours) {
	if h.IsZero() {
		if row, ok := m.cells[c]; ok {
			delete(row, d)
			if len(row) == 0 {
				delete(m.cells, c)
			}
		}
		return
	}
	row, ok := m.cells[c]
	if !ok {
		row = make(map[Day]generic.Hours)
		m.cells[c] = row
	}
	row[d] = h
}

// CategoryTotal sums a category across all seven days.
func (m *Matrix) CategoryTotal(c generic.Category) generic.Hours {
	total := generic.Hours{}
	for _, h := range m.cells[c] {
		total = total.Add(h)
	}
	return total
}

// DayHours sums every category on a day, skipping except when it is non-empty.
func (m *Matrix) DayHours(d Day, except generic.Category) generic.Hours {
	total := generic.Hours{}
	for c, row := range m.cells {
		if except != "" && c == except {
			continue
		}
		total = total.Add(row[d])
	}
	return total
}

// Total sums every cell.
func (m *Matrix) Total() generic.Hours {
	total := generic.Hours{}
	for c := range m.cells {
		total = total.Add(m.CategoryTotal(c))
	}
	return total
}

// ClearDay drops every category's hours on d.
func (m *Matrix) ClearDay(d Day) {
	for c := range m.cells {
		m.set(c, d, generic.Hours{})
	}
}

// Categories returns the categories holding at least one non-zero cell, sorted.
func (m *Matrix) Categories() []generic.Category {
	out := make([]generic.Category, 0, len(m.cells))
	for c := range m.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Row returns a copy of one category's cells.
func (m *Matrix) Row(c generic.Category) map[Day]generic.Hours {
	out := make(map[Day]generic.Hours, len(m.cells[c]))
	for d, h := range m.cells[c] {
		out[d] = h
	}
	return out
}

func (m *Matrix) Clone() *Matrix {
	out := NewMatrix()
	for c := range m.cells {
		out.cells[c] = m.Row(c)
	}
	return out
}
