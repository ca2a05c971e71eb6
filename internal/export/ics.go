package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"coursesched/internal/model"

	ics "github.com/arran4/golang-ical"
)

const (
	dateLayout  = "2006-01-02"
	untilLayout = "20060102T150405Z"
	productID   = "-//coursesched//schedule export//EN"
)

var ErrInvalidDate = errors.New("section date must be in YYYY-MM-DD format")

type ICSOptions struct {
	// Location the meeting clock times are in. Defaults to UTC.
	Location *time.Location
	// Now stamps DTSTAMP. Defaults to time.Now.
	Now func() time.Time
}

// WriteICS writes one recurring VEVENT per meeting.
//
// The first occurrence is the first matching weekday on or after the
// section start date; alternating-week meetings recur every second week,
// with even-week meetings shifted one week later than odd-week ones.
// Sections without meetings or dates produce no events.
func WriteICS(w io.Writer, schedule model.Schedule, opts ICSOptions) error {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	stamp := now()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, s := range schedule {
		if len(s.Times) == 0 || s.StartDate == "" || s.EndDate == "" {
			continue
		}
		start, err := time.ParseInLocation(dateLayout, s.StartDate, loc)
		if err != nil {
			return fmt.Errorf("%w: %s %s start %q", ErrInvalidDate, s.CourseCode, s.SectionID, s.StartDate)
		}
		end, err := time.ParseInLocation(dateLayout, s.EndDate, loc)
		if err != nil {
			return fmt.Errorf("%w: %s %s end %q", ErrInvalidDate, s.CourseCode, s.SectionID, s.EndDate)
		}
		until := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, loc)

		for i, t := range s.Times {
			day := firstOnOrAfter(start, t.Day)
			if t.Week == model.EvenWeek {
				day = day.AddDate(0, 0, 7)
			}
			if day.After(until) {
				continue
			}

			event := cal.AddEvent(eventID(s, i))
			event.SetDtStampTime(stamp)
			event.SetStartAt(atClock(day, t.Start))
			event.SetEndAt(atClock(day, t.End))
			event.SetSummary(s.CourseCode + " " + s.SectionID)
			event.SetDescription(description(s))
			event.AddProperty(ics.ComponentPropertyRrule, rrule(t.Week, until))
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	return nil
}

func firstOnOrAfter(date time.Time, day model.Weekday) time.Time {
	// model.Monday == time.Monday == 1 through Friday
	diff := (int(day) - int(date.Weekday()) + 7) % 7
	return date.AddDate(0, 0, diff)
}

func atClock(day time.Time, t model.TimeOfDay) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location())
}

func rrule(week model.WeekSchedule, until time.Time) string {
	rule := "FREQ=WEEKLY"
	if week == model.EvenWeek || week == model.OddWeek {
		rule += ";INTERVAL=2"
	}
	return rule + ";UNTIL=" + until.UTC().Format(untilLayout)
}

func eventID(s *model.Section, i int) string {
	id := strings.ReplaceAll(s.CourseCode, " ", "")
	return fmt.Sprintf("%s-%s-%s-%d@coursesched", id, s.SectionID, s.CRN, i)
}

func description(s *model.Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CRN: %s", s.CRN)
	if s.Instructor != "" {
		fmt.Fprintf(&b, "\nInstructor: %s", s.Instructor)
	}
	if s.Status != "" {
		fmt.Fprintf(&b, "\nStatus: %s", s.Status)
	}
	return b.String()
}
