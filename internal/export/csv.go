package export

import (
	"fmt"
	"io"

	"coursesched/internal/model"

	"github.com/gocarina/gocsv"
)

// WriteCSV writes one row per meeting with a header line.
func WriteCSV(w io.Writer, schedule model.Schedule) error {
	rows := Rows(schedule)
	if rows == nil {
		rows = []Row{}
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("marshal csv: %w", err)
	}
	return nil
}
