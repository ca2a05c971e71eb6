package api

import (
	"net/http"
	"strings"

	"coursesched/internal/metrics"
)

type TermsResponse struct {
	Envelope
	Terms []string `json:"Terms"`
}

type CoursesResponse struct {
	Envelope
	Courses []string `json:"Courses"`
}

// handleTerms lists the terms the catalog knows about.
// GET /api/terms
func (s *HTTPServer) handleTerms(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("terms")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	terms, err := s.catalog.GetTerms(r.Context())
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	if terms == nil {
		terms = []string{}
	}
	writeJSON(w, http.StatusOK, TermsResponse{Terms: terms})
}

// handleCourses lists course codes and "code section" pairs for a term.
// GET /api/courses?Term=Fall%202023
func (s *HTTPServer) handleCourses(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("courses")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	term := q.Get("Term")
	if term == "" {
		term = q.Get("term")
	}
	term = strings.TrimSpace(term)
	if term == "" {
		writeError(w, http.StatusBadRequest, "The Term must be included in the query string!")
		return
	}

	codes, err := s.catalog.GetCourseCodeAndSectionList(r.Context(), term)
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	writeJSON(w, http.StatusOK, CoursesResponse{Courses: codes})
}
