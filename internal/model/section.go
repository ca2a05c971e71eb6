package model

// Section is one offered section of a course: a lecture, a lab or a tutorial.
type Section struct {
	CourseCode string
	SectionID  string
	CRN        string
	Instructor string
	Times      []ClassTime
	Status     string
	// RelatedSectionIDs lists the companion sections a student must also
	// register in. Groups are AND-ed, ids inside a group are OR-ed:
	// [["ETU"], ["L1", "L2"]] reads ETU and (L1 or L2).
	RelatedSectionIDs [][]string
	StartDate         string
	EndDate           string
}

// HasRelatedSections reports whether picking this section drags companions along.
func (s *Section) HasRelatedSections() bool {
	return len(s.RelatedSectionIDs) > 0
}

// Overlaps reports whether any meeting of s collides with any meeting of other.
func (s *Section) Overlaps(other *Section) bool {
	for _, a := range s.Times {
		for _, b := range other.Times {
			if a.Overlaps(b) {
				return true
			}
		}
	}
	return false
}

// Schedule is one complete pick of sections, one lecture (plus companions) per course.
type Schedule []*Section
