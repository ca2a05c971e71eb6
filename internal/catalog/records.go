package catalog

import (
	"fmt"

	"coursesched/internal/model"
)

// CourseRecord is a course as the scraper stores it. Field names are the
// stored attribute names and must not change.
type CourseRecord struct {
	Subject         string          `json:"Subject" dynamodbav:"Subject"`
	Term            string          `json:"Term" dynamodbav:"Term"`
	Title           string          `json:"Title" dynamodbav:"Title"`
	Prerequisite    string          `json:"Prerequisite" dynamodbav:"Prerequisite"`
	LectureSections []SectionRecord `json:"LectureSections" dynamodbav:"LectureSections"`
	LabSections     []SectionRecord `json:"LabSections" dynamodbav:"LabSections"`
}

type SectionRecord struct {
	SectionID    string          `json:"SectionID" dynamodbav:"SectionID"`
	CRN          string          `json:"CRN" dynamodbav:"CRN"`
	Status       string          `json:"Status" dynamodbav:"Status"`
	Instructor   string          `json:"Instructor" dynamodbav:"Instructor"`
	TermDuration string          `json:"TermDuration" dynamodbav:"TermDuration"`
	WeekSchedule string          `json:"WeekSchedule,omitempty" dynamodbav:"WeekSchedule,omitempty"`
	MeetingDates []MeetingRecord `json:"MeetingDates" dynamodbav:"MeetingDates"`
	AlsoRegister [][]string      `json:"AlsoRegister" dynamodbav:"AlsoRegister"`
	StartDate    string          `json:"StartDate" dynamodbav:"StartDate"`
	EndDate      string          `json:"EndDate" dynamodbav:"EndDate"`
}

type MeetingRecord struct {
	DayOfWeek string `json:"DayOfWeek" dynamodbav:"DayOfWeek"`
	StartTime string `json:"StartTime" dynamodbav:"StartTime"`
	EndTime   string `json:"EndTime" dynamodbav:"EndTime"`
}

// SnapshotKey is the key of a course inside a catalog snapshot.
func SnapshotKey(code, term string) string {
	return code + "-" + term
}

// ToCourse converts the record into a fresh Course graph.
func (r *CourseRecord) ToCourse() (*model.Course, error) {
	lectures, err := toSections(r.Subject, r.LectureSections)
	if err != nil {
		return nil, fmt.Errorf("lecture sections: %w", err)
	}
	labs, err := toSections(r.Subject, r.LabSections)
	if err != nil {
		return nil, fmt.Errorf("lab sections: %w", err)
	}
	return &model.Course{
		Code:            r.Subject,
		Title:           r.Title,
		Term:            r.Term,
		Prerequisite:    r.Prerequisite,
		LectureSections: lectures,
		LabSections:     labs,
	}, nil
}

func toSections(courseCode string, records []SectionRecord) ([]*model.Section, error) {
	sections := make([]*model.Section, 0, len(records))
	for i := range records {
		s, err := records[i].ToSection(courseCode)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", records[i].SectionID, err)
		}
		sections = append(sections, s)
	}
	return sections, nil
}

// ToSection converts one section. The term duration and week schedule are
// stored per section and apply to every meeting.
func (r *SectionRecord) ToSection(courseCode string) (*model.Section, error) {
	term, err := model.ParseTermDuration(r.TermDuration)
	if err != nil {
		return nil, err
	}
	week, err := model.ParseWeekSchedule(r.WeekSchedule)
	if err != nil {
		return nil, err
	}

	times := make([]model.ClassTime, 0, len(r.MeetingDates))
	for _, m := range r.MeetingDates {
		day, err := model.ParseWeekday(m.DayOfWeek)
		if err != nil {
			return nil, err
		}
		ct, err := model.NewClassTimeWithWeek(day, term, m.StartTime, m.EndTime, week)
		if err != nil {
			return nil, err
		}
		times = append(times, ct)
	}

	related := r.AlsoRegister
	if related == nil {
		related = [][]string{}
	}

	return &model.Section{
		CourseCode:        courseCode,
		SectionID:         r.SectionID,
		CRN:               r.CRN,
		Instructor:        r.Instructor,
		Times:             times,
		Status:            r.Status,
		RelatedSectionIDs: related,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
	}, nil
}

// SectionRecordFrom is the reverse of ToSection. A section without meetings
// is recorded as full term.
func SectionRecordFrom(s *model.Section) SectionRecord {
	rec := SectionRecord{
		SectionID:    s.SectionID,
		CRN:          s.CRN,
		Status:       s.Status,
		Instructor:   s.Instructor,
		TermDuration: model.FullTerm.String(),
		MeetingDates: make([]MeetingRecord, 0, len(s.Times)),
		AlsoRegister: s.RelatedSectionIDs,
		StartDate:    s.StartDate,
		EndDate:      s.EndDate,
	}
	if len(s.Times) > 0 {
		rec.TermDuration = s.Times[0].Term.String()
		if s.Times[0].Week != model.EveryWeek {
			rec.WeekSchedule = s.Times[0].Week.String()
		}
	}
	for _, t := range s.Times {
		rec.MeetingDates = append(rec.MeetingDates, MeetingRecord{
			DayOfWeek: t.Day.String(),
			StartTime: t.Start.String(),
			EndTime:   t.End.String(),
		})
	}
	return rec
}
