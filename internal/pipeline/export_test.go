package pipeline

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteCSV(t *testing.T) {
	columns := []CSVColumn[row]{
		{Header: "name", Value: func(r row) string { return r.Name }},
		{Header: "status", Value: func(r row) string { return r.Status }},
	}
	rows := []row{
		{Name: "row-0", Status: "done"},
		{Name: "has,comma", Status: "open"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, columns, rows); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "name,status" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[2] != `"has,comma",open` {
		t.Errorf("embedded commas should be quoted, got %q", lines[2])
	}
}
