package export

import (
	"coursesched/internal/model"
)

// Row is one meeting of one section, flattened for tabular formats.
// A section without meetings still gets a row with the time columns empty.
type Row struct {
	CourseCode   string `csv:"CourseCode"`
	SectionID    string `csv:"SectionID"`
	CRN          string `csv:"CRN"`
	Instructor   string `csv:"Instructor"`
	Status       string `csv:"Status"`
	DayOfWeek    string `csv:"DayOfWeek"`
	TermDuration string `csv:"TermDuration"`
	WeekSchedule string `csv:"WeekSchedule"`
	StartTime    string `csv:"StartTime"`
	EndTime      string `csv:"EndTime"`
	StartDate    string `csv:"StartDate"`
	EndDate      string `csv:"EndDate"`
}

var rowHeader = []string{
	"CourseCode", "SectionID", "CRN", "Instructor", "Status", "DayOfWeek",
	"TermDuration", "WeekSchedule", "StartTime", "EndTime", "StartDate", "EndDate",
}

func (r Row) values() []interface{} {
	return []interface{}{
		r.CourseCode, r.SectionID, r.CRN, r.Instructor, r.Status, r.DayOfWeek,
		r.TermDuration, r.WeekSchedule, r.StartTime, r.EndTime, r.StartDate, r.EndDate,
	}
}

func Rows(schedule model.Schedule) []Row {
	var rows []Row
	for _, s := range schedule {
		base := Row{
			CourseCode: s.CourseCode,
			SectionID:  s.SectionID,
			CRN:        s.CRN,
			Instructor: s.Instructor,
			Status:     s.Status,
			StartDate:  s.StartDate,
			EndDate:    s.EndDate,
		}
		if len(s.Times) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, t := range s.Times {
			row := base
			row.DayOfWeek = t.Day.String()
			row.TermDuration = t.Term.String()
			row.WeekSchedule = t.Week.String()
			row.StartTime = t.Start.String()
			row.EndTime = t.End.String()
			rows = append(rows, row)
		}
	}
	return rows
}
