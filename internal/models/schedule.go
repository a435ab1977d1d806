package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// EmptySlot marks a period with no subject assigned.
	EmptySlot = "--"
	// PeriodsPerDay is the fixed number of teaching periods in a day.
	PeriodsPerDay = 5
)

// Weekday names one teaching day of the week.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
)

// Weekdays lists the teaching days in display order.
var Weekdays = [...]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// PeriodLabels are the column headings of the weekly grid.
var PeriodLabels = [PeriodsPerDay]string{"I", "II", "III", "IV", "V"}

// ParseWeekday accepts a weekday name in any letter case.
func ParseWeekday(raw string) (Weekday, bool) {
	day := Weekday(strings.ToLower(strings.TrimSpace(raw)))
	for _, d := range Weekdays {
		if d == day {
			return d, true
		}
	}
	return "", false
}

// Label returns the capitalised day name.
func (d Weekday) Label() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// Periods holds the slot values of one day.
type Periods [PeriodsPerDay]string

func emptyPeriods() Periods {
	var p Periods
	for i := range p {
		p[i] = EmptySlot
	}
	return p
}

// Schedule is a user's weekly grid. Every slot always holds either EmptySlot
// or a paper name.
type Schedule struct {
	Monday    Periods `json:"monday"`
	Tuesday   Periods `json:"tuesday"`
	Wednesday Periods `json:"wednesday"`
	Thursday  Periods `json:"thursday"`
	Friday    Periods `json:"friday"`
}

// DefaultSchedule returns the all-empty grid.
func DefaultSchedule() Schedule {
	return Schedule{
		Monday:    emptyPeriods(),
		Tuesday:   emptyPeriods(),
		Wednesday: emptyPeriods(),
		Thursday:  emptyPeriods(),
		Friday:    emptyPeriods(),
	}
}

func (s *Schedule) day(d Weekday) *Periods {
	switch d {
	case Monday:
		return &s.Monday
	case Tuesday:
		return &s.Tuesday
	case Wednesday:
		return &s.Wednesday
	case Thursday:
		return &s.Thursday
	case Friday:
		return &s.Friday
	default:
		return nil
	}
}

// Slot returns the value at (d, index).
func (s Schedule) Slot(d Weekday, index int) (string, bool) {
	p := s.day(d)
	if p == nil || index < 0 || index >= PeriodsPerDay {
		return "", false
	}
	return p[index], true
}

// WithSlot returns a copy of s where only (d, index) holds value.
func (s Schedule) WithSlot(d Weekday, index int, value string) (Schedule, error) {
	p := s.day(d)
	if p == nil {
		return s, fmt.Errorf("unknown weekday %q", d)
	}
	if index < 0 || index >= PeriodsPerDay {
		return s, fmt.Errorf("period index %d out of range", index)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		value = EmptySlot
	}
	p[index] = value
	return s, nil
}

// DayRow pairs a weekday with its periods for ordered iteration.
type DayRow struct {
	Day     Weekday
	Periods Periods
}

// Rows returns the grid in weekday order.
func (s Schedule) Rows() []DayRow {
	rows := make([]DayRow, 0, len(Weekdays))
	for _, d := range Weekdays {
		rows = append(rows, DayRow{Day: d, Periods: *s.day(d)})
	}
	return rows
}

// UnmarshalJSON enforces five entries per weekday. Absent weekdays and null
// or blank entries become EmptySlot.
func (s *Schedule) UnmarshalJSON(data []byte) error {
	var raw map[string][]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := DefaultSchedule()
	for key, values := range raw {
		day, ok := ParseWeekday(key)
		if !ok {
			continue
		}
		if len(values) != PeriodsPerDay {
			return fmt.Errorf("schedule %s has %d periods, want %d", day, len(values), PeriodsPerDay)
		}
		p := out.day(day)
		for i, v := range values {
			if v != nil && strings.TrimSpace(*v) != "" {
				p[i] = strings.TrimSpace(*v)
			}
		}
	}
	*s = out
	return nil
}

// ScheduleRecord is the stored schedule as the backend returns it.
type ScheduleRecord struct {
	ID       string   `json:"_id"`
	User     string   `json:"user,omitempty"`
	Schedule Schedule `json:"schedule"`
}

// SchedulePayload is the create/update body sent to the backend.
type SchedulePayload struct {
	User     string   `json:"user" validate:"required"`
	Schedule Schedule `json:"schedule"`
}

// MutationResult is the backend answer to create, update and delete calls.
type MutationResult struct {
	Message string `json:"message"`
	ID      string `json:"_id,omitempty"`
}
