package scheduler

import (
	"errors"

	"coursesched/internal/model"
)

// DefaultMaxSchedules keeps responses small enough for a person to browse.
const DefaultMaxSchedules = 25

var (
	ErrNilCourse         = errors.New("course cannot be nil")
	ErrNilSection        = errors.New("lecture section cannot be nil")
	ErrNoRelatedSections = errors.New("lecture section has no related sections")
)

// Generator enumerates non-conflicting schedules for a set of filtered courses.
type Generator struct {
	maxSchedules int
}

func NewGenerator(maxSchedules int) *Generator {
	if maxSchedules <= 0 {
		maxSchedules = DefaultMaxSchedules
	}
	return &Generator{maxSchedules: maxSchedules}
}

func (g *Generator) MaxSchedules() int {
	return g.maxSchedules
}

// Generate returns every schedule that picks one lecture (plus the companions
// it requires) from each course without any two meetings colliding. The bool
// reports that the cap cut the search short somewhere in the tree.
//
// Courses are consumed from the end of the slice, so the first sections of a
// schedule belong to the last course. The cap is checked per recursion level
// against the schedules gathered at that level, which makes it a throttle
// rather than an exact bound on the total.
func (g *Generator) Generate(courses []*model.Course) ([]model.Schedule, bool) {
	return g.GenerateFrom(courses, nil)
}

// GenerateFrom is Generate seeded with sections the student already holds.
// Every returned schedule starts with the seed.
func (g *Generator) GenerateFrom(courses []*model.Course, seed model.Schedule) ([]model.Schedule, bool) {
	partial := make(model.Schedule, len(seed), len(seed)+2*len(courses))
	copy(partial, seed)
	return g.generate(courses, partial)
}

func (g *Generator) generate(courses []*model.Course, partial model.Schedule) ([]model.Schedule, bool) {
	if len(courses) == 0 {
		done := make(model.Schedule, len(partial))
		copy(done, partial)
		return []model.Schedule{done}, false
	}

	course := courses[len(courses)-1]
	rest := courses[:len(courses)-1]

	var (
		results []model.Schedule
		capped  bool
	)
	descend := func(partial model.Schedule) {
		schedules, childCapped := g.generate(rest, partial)
		results = append(results, schedules...)
		capped = capped || childCapped
	}

	for _, lecture := range course.LectureSections {
		if IsSectionSchedulable(lecture, partial) {
			partial = append(partial, lecture)

			if lecture.HasRelatedSections() {
				// Preconditions hold here, so the error is always nil.
				combinations, _ := RelatedSectionCombinations(course, lecture)
				for _, related := range combinations {
					if !isViable(related, partial) {
						continue
					}
					partial = append(partial, related...)
					descend(partial)
					partial = partial[:len(partial)-len(related)]
				}
			} else {
				descend(partial)
			}

			partial = partial[:len(partial)-1]
		}

		if len(results) >= g.maxSchedules {
			return results, true
		}
	}

	return results, capped
}

// isViable accepts a companion tuple only when every id resolved, the
// companions don't clash with each other and none clashes with the schedule.
func isViable(related []*model.Section, partial model.Schedule) bool {
	for _, s := range related {
		if s == nil {
			return false
		}
	}
	return !DoSectionTimesOverlap(related) && AreSectionsSchedulable(related, partial)
}

// IsSectionSchedulable reports whether section fits next to everything in
// schedule. A section without meetings always fits.
func IsSectionSchedulable(section *model.Section, schedule model.Schedule) bool {
	for _, scheduled := range schedule {
		if section.Overlaps(scheduled) {
			return false
		}
	}
	return true
}

func AreSectionsSchedulable(sections []*model.Section, schedule model.Schedule) bool {
	for _, s := range sections {
		if !IsSectionSchedulable(s, schedule) {
			return false
		}
	}
	return true
}

// DoSectionTimesOverlap reports whether any two of the given sections clash.
func DoSectionTimesOverlap(sections []*model.Section) bool {
	for i := range sections {
		for j := i + 1; j < len(sections); j++ {
			if sections[i].Overlaps(sections[j]) {
				return true
			}
		}
	}
	return false
}

// CanTakeTogether reports whether lab is named in any of lecture's companion groups.
func CanTakeTogether(lecture, lab *model.Section) bool {
	for _, group := range lecture.RelatedSectionIDs {
		for _, id := range group {
			if id == lab.SectionID {
				return true
			}
		}
	}
	return false
}

// RelatedSectionCombinations expands the lecture's AND-of-OR companion groups
// into every concrete tuple, one id per group, with the last group varying
// fastest. Ids that don't resolve to a lab section of course come back as nil.
func RelatedSectionCombinations(course *model.Course, lecture *model.Section) ([][]*model.Section, error) {
	if course == nil {
		return nil, ErrNilCourse
	}
	if lecture == nil {
		return nil, ErrNilSection
	}
	if !lecture.HasRelatedSections() {
		return nil, ErrNoRelatedSections
	}

	combinations := [][]*model.Section{{}}
	for _, group := range lecture.RelatedSectionIDs {
		resolved := make([]*model.Section, len(group))
		for i, id := range group {
			resolved[i] = course.GetLabSection(id)
		}

		next := make([][]*model.Section, 0, len(combinations)*len(group))
		for _, prefix := range combinations {
			for _, s := range resolved {
				tuple := make([]*model.Section, len(prefix), len(prefix)+1)
				copy(tuple, prefix)
				next = append(next, append(tuple, s))
			}
		}
		combinations = next
	}
	return combinations, nil
}
