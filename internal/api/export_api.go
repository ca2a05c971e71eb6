package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"coursesched/internal/export"
	"coursesched/internal/metrics"
	"coursesched/internal/model"
)

type ExportRequest struct {
	Schedule []ScheduledSection `json:"Schedule"`
}

type exportFormat struct {
	contentType string
	extension   string
	write       func(buf *bytes.Buffer, schedule model.Schedule) error
}

var exportFormats = map[string]exportFormat{
	"ics": {
		contentType: "text/calendar; charset=utf-8",
		extension:   "ics",
		write: func(buf *bytes.Buffer, schedule model.Schedule) error {
			return export.WriteICS(buf, schedule, export.ICSOptions{})
		},
	},
	"xlsx": {
		contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		extension:   "xlsx",
		write: func(buf *bytes.Buffer, schedule model.Schedule) error {
			return export.WriteXLSX(buf, schedule)
		},
	},
	"csv": {
		contentType: "text/csv; charset=utf-8",
		extension:   "csv",
		write: func(buf *bytes.Buffer, schedule model.Schedule) error {
			return export.WriteCSV(buf, schedule)
		},
	},
}

// handleExport turns one generated schedule into a downloadable file.
// POST /api/schedules/export?format=ics|xlsx|csv
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	name := strings.ToLower(r.URL.Query().Get("format"))
	if name == "" {
		name = "ics"
	}
	format, ok := exportFormats[name]
	if !ok {
		writeError(w, http.StatusBadRequest, "The export format must be one of ics, xlsx or csv!")
		return
	}

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "The body of the request must contain JSON!")
		return
	}
	if len(req.Schedule) == 0 {
		writeError(w, http.StatusBadRequest, "The JSON was missing the Schedule!")
		return
	}

	schedule := make(model.Schedule, 0, len(req.Schedule))
	for _, entry := range req.Schedule {
		section, err := entry.Section()
		if err != nil {
			s.logger.Debug().Err(err).Str("course", entry.CourseCode).Str("section", entry.SectionID).Msg("rejected export section")
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Section %s %s is formatted incorrectly!", entry.CourseCode, entry.SectionID))
			return
		}
		schedule = append(schedule, section)
	}

	var buf bytes.Buffer
	if err := format.write(&buf, schedule); err != nil {
		if errors.Is(err, export.ErrInvalidDate) {
			writeError(w, http.StatusBadRequest, "One or more section dates are formatted incorrectly!")
			return
		}
		s.logger.Error().Err(err).Str("format", name).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "The schedule could not be exported!")
		return
	}

	w.Header().Set("Content-Type", format.contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="schedule.%s"`, format.extension))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
