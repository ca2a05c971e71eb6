package model

import (
	"errors"
	"fmt"
)

var ErrNilFilter = errors.New("filter cannot be nil")

// Filter holds the user's time preferences. Unset fields are nil.
type Filter struct {
	// BeforeTime drops sections with a meeting starting earlier than it.
	BeforeTime *TimeOfDay
	// AfterTime drops sections with a meeting ending later than it.
	AfterTime *TimeOfDay
	// DayOff drops sections with a meeting on that day.
	DayOff *Weekday
	// BetweenTimes are blackout windows; sections meeting inside any of them are dropped.
	BetweenTimes []ClassTime
}

// Validate rejects values that could only come from a badly built filter.
func (f *Filter) Validate() error {
	if f == nil {
		return ErrNilFilter
	}
	if f.DayOff != nil && !f.DayOff.Valid() {
		return fmt.Errorf("day off: %w: %d", ErrInvalidWeekday, int(*f.DayOff))
	}
	for i, window := range f.BetweenTimes {
		if !window.Day.Valid() {
			return fmt.Errorf("between time %d: %w: %d", i, ErrInvalidWeekday, int(window.Day))
		}
		if !window.Term.Valid() {
			return fmt.Errorf("between time %d: %w: %d", i, ErrInvalidTermDuration, int(window.Term))
		}
		if window.Start.Sortable() >= window.End.Sortable() {
			return fmt.Errorf("between time %d: %w: %s-%s", i, ErrTimeOrder, window.Start, window.End)
		}
	}
	return nil
}

// IsEmpty reports whether the filter carries no clause at all.
func (f *Filter) IsEmpty() bool {
	return f.BeforeTime == nil && f.AfterTime == nil && f.DayOff == nil && len(f.BetweenTimes) == 0
}

// ApplyFilter removes every section that has at least one meeting violating
// the filter, then applies the course's own section pin. Rules run one after
// another over the lecture and lab lists. Nothing is touched if the filter
// is invalid.
func (c *Course) ApplyFilter(f *Filter) error {
	if err := f.Validate(); err != nil {
		return err
	}

	if f.BeforeTime != nil {
		limit := f.BeforeTime.Sortable()
		c.dropSections(func(t ClassTime) bool { return t.Start.Sortable() < limit })
	}
	if f.AfterTime != nil {
		limit := f.AfterTime.Sortable()
		c.dropSections(func(t ClassTime) bool { return t.End.Sortable() > limit })
	}
	if f.DayOff != nil {
		day := *f.DayOff
		c.dropSections(func(t ClassTime) bool { return t.Day == day })
	}
	for _, window := range f.BetweenTimes {
		c.dropSections(window.Overlaps)
	}
	if c.SectionIDFilter != "" {
		c.LectureSections = keepSections(c.LectureSections, func(s *Section) bool {
			return s.SectionID == c.SectionIDFilter
		})
	}
	return nil
}

// FilterAll applies f to every course.
func FilterAll(courses []*Course, f *Filter) error {
	if err := f.Validate(); err != nil {
		return err
	}
	for _, c := range courses {
		if err := c.ApplyFilter(f); err != nil {
			return fmt.Errorf("filter %s: %w", c.Code, err)
		}
	}
	return nil
}

func (c *Course) dropSections(violates func(ClassTime) bool) {
	keep := func(s *Section) bool {
		for _, t := range s.Times {
			if violates(t) {
				return false
			}
		}
		return true
	}
	c.LectureSections = keepSections(c.LectureSections, keep)
	c.LabSections = keepSections(c.LabSections, keep)
}

func keepSections(sections []*Section, keep func(*Section) bool) []*Section {
	kept := make([]*Section, 0, len(sections))
	for _, s := range sections {
		if keep(s) {
			kept = append(kept, s)
		}
	}
	return kept
}
