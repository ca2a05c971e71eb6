package model

import (
	"github.com/rs/zerolog/log"
)

// Course owns the lecture and lab sections offered for one course in one term.
// Filtering prunes both lists.
type Course struct {
	Code            string
	Title           string
	Term            string
	Prerequisite    string
	LectureSections []*Section
	LabSections     []*Section
	// SectionIDFilter pins the lecture list to a single section id when set.
	SectionIDFilter string
}

// GetLectureSection returns the first lecture section with the given id, or
// nil when it does not exist or was filtered out.
func (c *Course) GetLectureSection(id string) *Section {
	if s := findSection(c.LectureSections, id); s != nil {
		return s
	}
	log.Info().
		Str("course", c.Code).
		Str("section_id", id).
		Msg("No lecture section with this id (it may have been filtered out)")
	return nil
}

// GetLabSection is GetLectureSection for labs and tutorials.
func (c *Course) GetLabSection(id string) *Section {
	if s := findSection(c.LabSections, id); s != nil {
		return s
	}
	log.Info().
		Str("course", c.Code).
		Str("section_id", id).
		Msg("No lab section with this id (it may have been filtered out)")
	return nil
}

func findSection(sections []*Section, id string) *Section {
	for _, s := range sections {
		if s.SectionID == id {
			return s
		}
	}
	return nil
}
