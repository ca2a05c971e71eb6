package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"coursesched/internal/model"

	ics "github.com/arran4/golang-ical"
	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func meeting(t *testing.T, day model.Weekday, start, end string, week model.WeekSchedule) model.ClassTime {
	t.Helper()
	ct, err := model.NewClassTimeWithWeek(day, model.FullTerm, start, end, week)
	require.NoError(t, err)
	return ct
}

func sampleSchedule(t *testing.T) model.Schedule {
	return model.Schedule{
		{
			CourseCode: "COMP 1405",
			SectionID:  "A",
			CRN:        "31000",
			Instructor: "Ada Lovelace",
			Status:     "Open",
			Times: []model.ClassTime{
				meeting(t, model.Monday, "08:35", "09:55", model.EveryWeek),
				meeting(t, model.Wednesday, "08:35", "09:55", model.EveryWeek),
			},
			StartDate: "2023-09-06",
			EndDate:   "2023-12-08",
		},
		{
			CourseCode: "COMP 1405",
			SectionID:  "L1",
			CRN:        "31001",
			Status:     "Full, No Waitlist",
			Times:      []model.ClassTime{meeting(t, model.Tuesday, "14:35", "17:25", model.EvenWeek)},
			StartDate:  "2023-09-06",
			EndDate:    "2023-12-08",
		},
		{
			CourseCode: "COMP 1405",
			SectionID:  "ETU",
			CRN:        "31002",
			StartDate:  "2023-09-06",
			EndDate:    "2023-12-08",
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleSchedule(t))
	require.Len(t, rows, 4)

	assert.Equal(t, "Mon", rows[0].DayOfWeek)
	assert.Equal(t, "Wed", rows[1].DayOfWeek)
	assert.Equal(t, "08:35", rows[1].StartTime)
	assert.Equal(t, "Full Term", rows[1].TermDuration)
	assert.Equal(t, "Even Week", rows[2].WeekSchedule)
	assert.Equal(t, "L1", rows[2].SectionID)

	// async section keeps a row without times
	assert.Equal(t, "ETU", rows[3].SectionID)
	assert.Empty(t, rows[3].DayOfWeek)
	assert.Empty(t, rows[3].StartTime)

	assert.Nil(t, Rows(nil))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSchedule(t)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, strings.Join(rowHeader, ","), lines[0])

	var back []Row
	require.NoError(t, gocsv.UnmarshalString(buf.String(), &back))
	assert.Equal(t, Rows(sampleSchedule(t)), back)
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, strings.Join(rowHeader, ","), strings.TrimSpace(buf.String()))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleSchedule(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, rowHeader, rows[0])
	assert.Equal(t, []string{
		"COMP 1405", "A", "31000", "Ada Lovelace", "Open", "Mon",
		"Full Term", "Every Week", "08:35", "09:55", "2023-09-06", "2023-12-08",
	}, rows[1])
	assert.Equal(t, "ETU", rows[4][1])
}

func TestSheetWriter_NoSheet(t *testing.T) {
	w := newSheetWriter()
	defer w.Close()

	assert.Error(t, w.WriteHeader([]string{"a"}))
	assert.Error(t, w.WriteRow([]interface{}{"a"}))

	require.NoError(t, w.AddSheet(strings.Repeat("x", 40)))
	assert.Len(t, w.currentSheet, 31)
}

func TestWriteICS(t *testing.T) {
	stamp := time.Date(2023, 8, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, sampleSchedule(t), ICSOptions{Now: func() time.Time { return stamp }}))
	out := buf.String()

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 3)

	tests := []struct {
		name    string
		summary string
		start   string
		end     string
	}{
		// 2023-09-06 is a Wednesday
		{"monday lecture starts the following week", "COMP 1405 A", "20230911T083500Z", "20230911T095500Z"},
		{"wednesday lecture starts on the start date", "COMP 1405 A", "20230906T083500Z", "20230906T095500Z"},
		{"even week lab is shifted a week", "COMP 1405 L1", "20230919T143500Z", "20230919T172500Z"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := events[i]
			assert.Equal(t, tt.summary, e.GetProperty(ics.ComponentPropertySummary).Value)
			assert.Equal(t, tt.start, e.GetProperty(ics.ComponentPropertyDtStart).Value)
			assert.Equal(t, tt.end, e.GetProperty(ics.ComponentPropertyDtEnd).Value)
			assert.NotNil(t, e.GetProperty(ics.ComponentPropertyRrule))
		})
	}

	assert.Contains(t, events[0].GetProperty(ics.ComponentPropertyDescription).Value, "31000")
	assert.NotEqual(t, events[0].Id(), events[1].Id())

	assert.Contains(t, out, "UNTIL=20231208T235959Z")
	assert.Equal(t, 1, strings.Count(out, "INTERVAL=2"))
	assert.NotContains(t, out, "ETU")
}

func TestWriteICS_Location(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, sampleSchedule(t)[:1], ICSOptions{Location: loc}))

	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.NotEmpty(t, cal.Events())
	assert.Equal(t, "20230911T133500Z", cal.Events()[0].GetProperty(ics.ComponentPropertyDtStart).Value)
}

func TestWriteICS_InvalidDate(t *testing.T) {
	schedule := sampleSchedule(t)[:1]
	schedule[0].StartDate = "09/06/2023"

	var buf bytes.Buffer
	err := WriteICS(&buf, schedule, ICSOptions{})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestFirstOnOrAfter(t *testing.T) {
	wed := time.Date(2023, 9, 6, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		day  model.Weekday
		want int
	}{
		{model.Monday, 11},
		{model.Tuesday, 12},
		{model.Wednesday, 6},
		{model.Thursday, 7},
		{model.Friday, 8},
	}
	for _, tt := range tests {
		t.Run(tt.day.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, firstOnOrAfter(wed, tt.day).Day())
		})
	}
}
