package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSection(t *testing.T, course, id string, times ...ClassTime) *Section {
	t.Helper()
	return &Section{
		CourseCode: course,
		SectionID:  id,
		CRN:        "11111",
		Instructor: "JON",
		Times:      times,
		Status:     "OPEN",
		StartDate:  "2023-09-06",
		EndDate:    "2023-12-08",
	}
}

func timePtr(s string) *TimeOfDay {
	tod := MustParseTimeOfDay(s)
	return &tod
}

func dayPtr(d Weekday) *Weekday {
	return &d
}

func code1000(t *testing.T, pin string) (*Course, *Section, *Section) {
	a := newSection(t, "CODE1000", "A", mustClassTime(t, Monday, FullTerm, "09:00", "12:00"))
	b := newSection(t, "CODE1000", "B", mustClassTime(t, Tuesday, FullTerm, "15:00", "18:00"))
	return &Course{
		Code:            "CODE1000",
		Title:           "CLASS NAME",
		Term:            "FALL",
		Prerequisite:    "N/A",
		LectureSections: []*Section{a, b},
		SectionIDFilter: pin,
	}, a, b
}

func TestApplyFilter_Rules(t *testing.T) {
	t.Run("before time", func(t *testing.T) {
		course, _, b := code1000(t, "")
		require.NoError(t, course.ApplyFilter(&Filter{BeforeTime: timePtr("13:00")}))
		assert.Equal(t, []*Section{b}, course.LectureSections)
	})

	t.Run("after time", func(t *testing.T) {
		course, a, _ := code1000(t, "")
		require.NoError(t, course.ApplyFilter(&Filter{AfterTime: timePtr("13:00")}))
		assert.Equal(t, []*Section{a}, course.LectureSections)
	})

	t.Run("day off", func(t *testing.T) {
		course, _, b := code1000(t, "")
		require.NoError(t, course.ApplyFilter(&Filter{DayOff: dayPtr(Monday)}))
		assert.Equal(t, []*Section{b}, course.LectureSections)
	})

	t.Run("blackout window", func(t *testing.T) {
		course, a, _ := code1000(t, "")
		window := mustClassTime(t, Tuesday, FullTerm, "17:00", "19:00")
		require.NoError(t, course.ApplyFilter(&Filter{BetweenTimes: []ClassTime{window}}))
		assert.Equal(t, []*Section{a}, course.LectureSections)
	})

	t.Run("touching blackout keeps section", func(t *testing.T) {
		course, a, b := code1000(t, "")
		window := mustClassTime(t, Monday, FullTerm, "12:00", "13:00")
		require.NoError(t, course.ApplyFilter(&Filter{BetweenTimes: []ClassTime{window}}))
		assert.Equal(t, []*Section{a, b}, course.LectureSections)
	})

	t.Run("section pin", func(t *testing.T) {
		course, _, b := code1000(t, "B")
		require.NoError(t, course.ApplyFilter(&Filter{}))
		assert.Equal(t, []*Section{b}, course.LectureSections)
	})

	t.Run("pin does not touch labs", func(t *testing.T) {
		course, _, b := code1000(t, "B")
		lab := newSection(t, "CODE1000", "L1", mustClassTime(t, Friday, FullTerm, "09:00", "10:00"))
		course.LabSections = []*Section{lab}
		require.NoError(t, course.ApplyFilter(&Filter{}))
		assert.Equal(t, []*Section{b}, course.LectureSections)
		assert.Equal(t, []*Section{lab}, course.LabSections)
	})
}

func TestApplyFilter_EmptyIsNoop(t *testing.T) {
	course, a, b := code1000(t, "")
	f := &Filter{}
	assert.True(t, f.IsEmpty())
	require.NoError(t, course.ApplyFilter(f))
	assert.Equal(t, []*Section{a, b}, course.LectureSections)
}

func TestApplyFilter_AdjacentRemovals(t *testing.T) {
	// consecutive violating sections must all go
	early1 := newSection(t, "C", "1", mustClassTime(t, Monday, FullTerm, "08:00", "09:00"))
	early2 := newSection(t, "C", "2", mustClassTime(t, Tuesday, FullTerm, "07:00", "09:00"))
	late := newSection(t, "C", "3", mustClassTime(t, Monday, FullTerm, "10:00", "11:00"))
	early3 := newSection(t, "C", "4",
		mustClassTime(t, Wednesday, FullTerm, "12:00", "13:00"),
		mustClassTime(t, Thursday, FullTerm, "08:30", "09:30"),
	)
	course := &Course{Code: "C", LectureSections: []*Section{early1, early2, late, early3}}

	require.NoError(t, course.ApplyFilter(&Filter{BeforeTime: timePtr("10:00")}))
	assert.Equal(t, []*Section{late}, course.LectureSections)
}

func TestApplyFilter_Invalid(t *testing.T) {
	course, a, b := code1000(t, "")

	err := course.ApplyFilter(nil)
	assert.ErrorIs(t, err, ErrNilFilter)

	err = course.ApplyFilter(&Filter{BeforeTime: timePtr("08:00"), DayOff: dayPtr(Weekday(7))})
	assert.ErrorIs(t, err, ErrInvalidWeekday)

	err = course.ApplyFilter(&Filter{BetweenTimes: []ClassTime{{Day: Monday}}})
	assert.ErrorIs(t, err, ErrInvalidTermDuration)

	// nothing was pruned by the rejected filters
	assert.Equal(t, []*Section{a, b}, course.LectureSections)
}

func TestApplyFilter_MonotonicAndIdempotent(t *testing.T) {
	filters := map[string]*Filter{
		"before":   {BeforeTime: timePtr("10:00")},
		"after":    {AfterTime: timePtr("17:00")},
		"day off":  {DayOff: dayPtr(Tuesday)},
		"combined": {BeforeTime: timePtr("09:00"), AfterTime: timePtr("18:00"), DayOff: dayPtr(Friday)},
	}

	for name, f := range filters {
		t.Run(name, func(t *testing.T) {
			course, _, _ := code1000(t, "")
			course.LabSections = []*Section{
				newSection(t, "CODE1000", "L1", mustClassTime(t, Friday, FullTerm, "09:00", "10:00")),
				newSection(t, "CODE1000", "L2", mustClassTime(t, Tuesday, FullTerm, "17:30", "18:30")),
			}
			lecturesBefore, labsBefore := len(course.LectureSections), len(course.LabSections)

			require.NoError(t, course.ApplyFilter(f))
			assert.LessOrEqual(t, len(course.LectureSections), lecturesBefore)
			assert.LessOrEqual(t, len(course.LabSections), labsBefore)

			lectures := append([]*Section{}, course.LectureSections...)
			labs := append([]*Section{}, course.LabSections...)
			require.NoError(t, course.ApplyFilter(f))
			assert.Equal(t, lectures, course.LectureSections)
			assert.Equal(t, labs, course.LabSections)
		})
	}
}

func TestFilterAll(t *testing.T) {
	s1 := newSection(t, "CODE1000", "A", mustClassTime(t, Monday, FullTerm, "09:00", "12:00"))
	s2 := newSection(t, "CODE1000", "B", mustClassTime(t, Tuesday, FullTerm, "09:00", "12:00"))
	s3 := newSection(t, "CODE2000", "A", mustClassTime(t, Wednesday, FullTerm, "07:00", "12:00"))
	s4 := newSection(t, "CODE2000", "B", mustClassTime(t, Friday, FullTerm, "09:00", "12:00"))
	course1 := &Course{Code: "CODE1000", LectureSections: []*Section{s1, s2}, SectionIDFilter: "B"}
	course2 := &Course{Code: "CODE2000", LectureSections: []*Section{s3}, LabSections: []*Section{s4}}

	f := &Filter{BeforeTime: timePtr("08:00"), DayOff: dayPtr(Monday), AfterTime: timePtr("22:00")}
	require.NoError(t, FilterAll([]*Course{course1, course2}, f))

	assert.Equal(t, []*Section{s2}, course1.LectureSections)
	assert.Empty(t, course2.LectureSections)
	assert.Equal(t, []*Section{s4}, course2.LabSections)

	assert.ErrorIs(t, FilterAll(nil, nil), ErrNilFilter)
}
