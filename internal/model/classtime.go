package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTimeFormat   = errors.New("time must be in HH:MM format")
	ErrTimeOrder           = errors.New("start time must come before end time")
	ErrInvalidWeekday      = errors.New("invalid day of week")
	ErrInvalidTermDuration = errors.New("invalid term duration")
	ErrInvalidWeekSchedule = errors.New("invalid week schedule")
)

// Weekday is a teaching day. The zero value means "no day".
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
)

var weekdayNames = map[Weekday]string{
	Monday:    "Mon",
	Tuesday:   "Tue",
	Wednesday: "Wed",
	Thursday:  "Thu",
	Friday:    "Fri",
}

// ParseWeekday parses the catalog short form ("Mon".."Fri").
func ParseWeekday(s string) (Weekday, error) {
	for d, name := range weekdayNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Friday
}

func (d Weekday) String() string {
	if name, ok := weekdayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Weekday(%d)", int(d))
}

// TermDuration is the portion of the term a meeting runs in.
type TermDuration int

const (
	FullTerm TermDuration = iota + 1
	EarlyTerm
	LateTerm
)

var termDurationNames = map[TermDuration]string{
	FullTerm:  "Full Term",
	EarlyTerm: "Early Term",
	LateTerm:  "Late Term",
}

func ParseTermDuration(s string) (TermDuration, error) {
	for t, name := range termDurationNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTermDuration, s)
}

func (t TermDuration) Valid() bool {
	return t >= FullTerm && t <= LateTerm
}

func (t TermDuration) String() string {
	if name, ok := termDurationNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TermDuration(%d)", int(t))
}

// WeekSchedule tells whether a meeting happens every week or on alternating weeks.
type WeekSchedule int

const (
	EveryWeek WeekSchedule = iota
	EvenWeek
	OddWeek
)

var weekScheduleNames = map[WeekSchedule]string{
	EveryWeek: "Every Week",
	EvenWeek:  "Even Week",
	OddWeek:   "Odd Week",
}

// ParseWeekSchedule parses the catalog value; an empty string means every week.
func ParseWeekSchedule(s string) (WeekSchedule, error) {
	if s == "" {
		return EveryWeek, nil
	}
	for w, name := range weekScheduleNames {
		if name == s {
			return w, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekSchedule, s)
}

func (w WeekSchedule) String() string {
	if name, ok := weekScheduleNames[w]; ok {
		return name
	}
	return fmt.Sprintf("WeekSchedule(%d)", int(w))
}

// TimeOfDay is a validated 24-hour "HH:MM" clock time.
type TimeOfDay struct {
	hour   int
	minute int
}

// ParseTimeOfDay validates s digit by digit: the hour tens digit is 0-2,
// the hour ones digit is at most 3 when the tens digit is 2, the minute
// tens digit is 0-5.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if !isValidTime(s) {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	return TimeOfDay{hour: hour, minute: minute}, nil
}

// MustParseTimeOfDay is ParseTimeOfDay for literals known to be valid.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func isValidTime(s string) bool {
	if len(s) != 5 {
		return false
	}
	isDigit := func(c byte) bool { return c >= '0' && c <= '9' }
	return isDigit(s[0]) && s[0] <= '2' &&
		isDigit(s[1]) && (s[0] == '0' || s[0] == '1' || s[1] <= '3') &&
		s[2] == ':' &&
		isDigit(s[3]) && s[3] <= '5' &&
		isDigit(s[4])
}

// Sortable packs the time as hour + minute/100 (09:30 -> 9.30).
// This is not minutes since midnight; comparisons elsewhere depend on it.
func (t TimeOfDay) Sortable() float64 {
	return float64(t.hour) + float64(t.minute)/100
}

func (t TimeOfDay) Hour() int   { return t.hour }
func (t TimeOfDay) Minute() int { return t.minute }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.hour, t.minute)
}

// ClassTime is one weekly meeting of a section.
type ClassTime struct {
	Day   Weekday
	Term  TermDuration
	Start TimeOfDay
	End   TimeOfDay
	Week  WeekSchedule
}

// NewClassTime builds a meeting that happens every week.
func NewClassTime(day Weekday, term TermDuration, start, end string) (ClassTime, error) {
	return NewClassTimeWithWeek(day, term, start, end, EveryWeek)
}

func NewClassTimeWithWeek(day Weekday, term TermDuration, start, end string, week WeekSchedule) (ClassTime, error) {
	if !day.Valid() {
		return ClassTime{}, fmt.Errorf("%w: %d", ErrInvalidWeekday, int(day))
	}
	if !term.Valid() {
		return ClassTime{}, fmt.Errorf("%w: %d", ErrInvalidTermDuration, int(term))
	}
	startTime, err := ParseTimeOfDay(start)
	if err != nil {
		return ClassTime{}, fmt.Errorf("start time: %w", err)
	}
	endTime, err := ParseTimeOfDay(end)
	if err != nil {
		return ClassTime{}, fmt.Errorf("end time: %w", err)
	}
	if startTime.Sortable() >= endTime.Sortable() {
		return ClassTime{}, fmt.Errorf("%w: %s-%s", ErrTimeOrder, start, end)
	}
	return ClassTime{Day: day, Term: term, Start: startTime, End: endTime, Week: week}, nil
}

// Overlaps reports whether two meetings can collide.
// Intervals are half-open, so back-to-back meetings do not overlap.
func (c ClassTime) Overlaps(other ClassTime) bool {
	if c.Day != other.Day {
		return false
	}
	if !termsCoincide(c.Term, other.Term) {
		return false
	}
	return c.Start.Sortable() < other.End.Sortable() && other.Start.Sortable() < c.End.Sortable()
}

// Early and late term halves are disjoint; full term meets both.
func termsCoincide(a, b TermDuration) bool {
	switch a {
	case EarlyTerm:
		return b != LateTerm
	case LateTerm:
		return b != EarlyTerm
	case FullTerm:
		return true
	default:
		return true
	}
}

func (c ClassTime) String() string {
	return fmt.Sprintf("%s %s-%s (%s)", c.Day, c.Start, c.End, c.Term)
}
