package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVColumn pairs a fixed header with a projection of one row.
type CSVColumn[T any] struct {
	Header string
	Value  func(T) string
}

// WriteCSV materializes the full filtered (non-paginated) set as CSV with a
// fixed header row.
func WriteCSV[T any](w io.Writer, columns []CSVColumn[T], rows []T) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Header
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = col.Value(row)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
