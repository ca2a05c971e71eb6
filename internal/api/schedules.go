package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"coursesched/internal/catalog"
	"coursesched/internal/metrics"
	"coursesched/internal/model"
)

// ScheduleRequest is the body of POST /api/schedules.
type ScheduleRequest struct {
	Term    string          `json:"Term"`
	Courses []CourseRequest `json:"Courses"`
	Filters *FiltersRequest `json:"Filters,omitempty"`
}

type CourseRequest struct {
	Name          string `json:"Name"`
	SectionFilter string `json:"SectionFilter,omitempty"` // lecture section id to pin
}

// FiltersRequest carries clock times as "HH:MM" and days as "Mon".."Fri".
type FiltersRequest struct {
	BeforeTime   *string         `json:"BeforeTime,omitempty"`
	AfterTime    *string         `json:"AfterTime,omitempty"`
	DayOfWeek    *string         `json:"DayOfWeek,omitempty"`
	BetweenTimes []BlackoutEntry `json:"BetweenTimes,omitempty"`
}

type BlackoutEntry struct {
	DayOfWeek string `json:"DayOfWeek"`
	StartTime string `json:"StartTime"`
	EndTime   string `json:"EndTime"`
}

type MeetingResponse struct {
	DayOfWeek    string `json:"DayOfWeek"`
	TermDuration string `json:"TermDuration"`
	WeekSchedule string `json:"WeekSchedule"`
	StartTime    string `json:"StartTime"`
	EndTime      string `json:"EndTime"`
}

// ScheduledSection is a section as it appears in a generated schedule.
type ScheduledSection struct {
	CourseCode string            `json:"CourseCode"`
	SectionID  string            `json:"SectionID"`
	CRN        string            `json:"CRN"`
	Instructor string            `json:"Instructor"`
	Times      []MeetingResponse `json:"Times"`
	Status     string            `json:"Status"`
	StartDate  string            `json:"StartDate"`
	EndDate    string            `json:"EndDate"`
}

type SchedulesResponse struct {
	Envelope
	Schedules    [][]ScheduledSection `json:"Schedules"`
	LimitReached bool                 `json:"LimitReached"`
}

var errBadFilter = errors.New("malformed filter")

// handleSchedules generates every conflict-free schedule for the requested courses.
// POST /api/schedules
func (s *HTTPServer) handleSchedules(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedules")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "The body of the request must contain JSON!")
		return
	}

	term := strings.TrimSpace(req.Term)
	if term == "" {
		writeError(w, http.StatusBadRequest, "The JSON was missing the Term!")
		return
	}
	if req.Courses == nil {
		writeError(w, http.StatusBadRequest, "The JSON was missing the Courses!")
		return
	}

	ctx := r.Context()
	courses := make([]*model.Course, 0, len(req.Courses))
	for _, c := range req.Courses {
		course, err := s.catalog.GetCourse(ctx, strings.TrimSpace(c.Name), term)
		if errors.Is(err, catalog.ErrCourseNotFound) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("One or more courses do not exist for term %s!", term))
			return
		}
		if err != nil {
			s.writeCatalogError(w, err)
			return
		}
		course.SectionIDFilter = strings.TrimSpace(c.SectionFilter)
		courses = append(courses, course)
	}

	filter, err := buildFilter(req.Filters)
	if err == nil {
		err = model.FilterAll(courses, filter)
	}
	if err != nil {
		s.logger.Debug().Err(err).Msg("rejected filters")
		writeError(w, http.StatusBadRequest, "One or more of the filters are formatted incorrectly!")
		return
	}

	start := time.Now()
	schedules, capped := s.generator.Generate(courses)
	took := time.Since(start)
	metrics.ObserveSearch(len(schedules), capped, took)

	s.logger.Info().
		Str("term", term).
		Int("courses", len(courses)).
		Int("schedules", len(schedules)).
		Bool("limit_reached", capped).
		Dur("took", took).
		Msg("schedules generated")

	resp := SchedulesResponse{
		Schedules:    make([][]ScheduledSection, 0, len(schedules)),
		LimitReached: capped,
	}
	for _, schedule := range schedules {
		out := make([]ScheduledSection, 0, len(schedule))
		for _, section := range schedule {
			out = append(out, scheduledSectionFrom(section))
		}
		resp.Schedules = append(resp.Schedules, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

// buildFilter converts the request filters. Blackout windows apply to the full term.
func buildFilter(req *FiltersRequest) (*model.Filter, error) {
	f := &model.Filter{}
	if req == nil {
		return f, nil
	}

	if req.BeforeTime != nil {
		t, err := model.ParseTimeOfDay(*req.BeforeTime)
		if err != nil {
			return nil, fmt.Errorf("%w: before time: %w", errBadFilter, err)
		}
		f.BeforeTime = &t
	}
	if req.AfterTime != nil {
		t, err := model.ParseTimeOfDay(*req.AfterTime)
		if err != nil {
			return nil, fmt.Errorf("%w: after time: %w", errBadFilter, err)
		}
		f.AfterTime = &t
	}
	if req.DayOfWeek != nil {
		d, err := model.ParseWeekday(*req.DayOfWeek)
		if err != nil {
			return nil, fmt.Errorf("%w: day off: %w", errBadFilter, err)
		}
		f.DayOff = &d
	}
	for _, b := range req.BetweenTimes {
		d, err := model.ParseWeekday(b.DayOfWeek)
		if err != nil {
			return nil, fmt.Errorf("%w: between times: %w", errBadFilter, err)
		}
		window, err := model.NewClassTime(d, model.FullTerm, b.StartTime, b.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%w: between times: %w", errBadFilter, err)
		}
		f.BetweenTimes = append(f.BetweenTimes, window)
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadFilter, err)
	}
	return f, nil
}

func scheduledSectionFrom(s *model.Section) ScheduledSection {
	out := ScheduledSection{
		CourseCode: s.CourseCode,
		SectionID:  s.SectionID,
		CRN:        s.CRN,
		Instructor: s.Instructor,
		Times:      make([]MeetingResponse, 0, len(s.Times)),
		Status:     s.Status,
		StartDate:  s.StartDate,
		EndDate:    s.EndDate,
	}
	for _, t := range s.Times {
		out.Times = append(out.Times, MeetingResponse{
			DayOfWeek:    t.Day.String(),
			TermDuration: t.Term.String(),
			WeekSchedule: t.Week.String(),
			StartTime:    t.Start.String(),
			EndTime:      t.End.String(),
		})
	}
	return out
}

// Record converts the section back into the stored catalog shape. The term
// duration and week schedule of the first meeting apply to the whole section.
func (s ScheduledSection) Record() catalog.SectionRecord {
	rec := catalog.SectionRecord{
		SectionID:    s.SectionID,
		CRN:          s.CRN,
		Status:       s.Status,
		Instructor:   s.Instructor,
		TermDuration: model.FullTerm.String(),
		MeetingDates: make([]catalog.MeetingRecord, 0, len(s.Times)),
		StartDate:    s.StartDate,
		EndDate:      s.EndDate,
	}
	if len(s.Times) > 0 {
		rec.TermDuration = s.Times[0].TermDuration
		if s.Times[0].WeekSchedule != model.EveryWeek.String() {
			rec.WeekSchedule = s.Times[0].WeekSchedule
		}
	}
	for _, t := range s.Times {
		rec.MeetingDates = append(rec.MeetingDates, catalog.MeetingRecord{
			DayOfWeek: t.DayOfWeek,
			StartTime: t.StartTime,
			EndTime:   t.EndTime,
		})
	}
	return rec
}

func (s ScheduledSection) Section() (*model.Section, error) {
	rec := s.Record()
	return rec.ToSection(s.CourseCode)
}
