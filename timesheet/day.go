package timesheet

import (
	"fmt"
	"strings"
	"time"
)

// Day is a weekday column of the grid.
type Day time.Weekday

const (
	Sun = Day(time.Sunday)
	Mon = Day(time.Monday)
	Tue = Day(time.Tuesday)
	Wed = Day(time.Wednesday)
	Thu = Day(time.Thursday)
	Fri = Day(time.Friday)
	Sat = Day(time.Saturday)
)

var dayCodes = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func (d Day) String() string {
	if d < 0 || int(d) >= len(dayCodes) {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayCodes[d]
}

func (d Day) Weekday() time.Weekday { return time.Weekday(d) }

func (d Day) Valid() bool { return d >= Sun && d <= Sat }

// ParseDay accepts three-letter codes and full English names, any case.
func ParseDay(s string) (Day, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, code := range dayCodes {
		c := strings.ToLower(code)
		if s == c || s == strings.ToLower(time.Weekday(i).String()) {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// WeekDays lists the seven columns in display order for a week starting on start.
func WeekDays(start time.Weekday) []Day {
	days := make([]Day, 7)
	for i := range days {
		days[i] = Day((int(start) + i) % 7)
	}
	return days
}
