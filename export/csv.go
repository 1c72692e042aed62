// Package export encodes subscriptions and snapshots to CSV and JSON and
// parses import files back into channel lists.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table is a parsed CSV file. Row values are keyed by header name; blank
// header cells get positional "col_N" names so no column is lost.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// WriteCSV writes a header row and data rows with every field quoted and
// embedded quotes doubled, so commas, quotes, and newlines survive a
// round-trip through any spreadsheet tool.
func WriteCSV(w io.Writer, headers []string, rows [][]string) error {
	writeRow := func(fields []string) error {
		quoted := make([]string, len(fields))
		for i, f := range fields {
			quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		}
		_, err := io.WriteString(w, strings.Join(quoted, ",")+"\r\n")
		return err
	}

	if err := writeRow(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range rows {
		if err := writeRow(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	return nil
}

// ParseCSV reads a CSV file leniently: ragged rows are accepted, stray
// quotes do not abort the parse, and rows wider than the header get
// positional column names.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("col_%d", i)
		}
		headers[i] = h
	}

	t := &Table{Headers: headers}
	for _, rec := range records[1:] {
		row := make(map[string]string, len(rec))
		for i, v := range rec {
			key := fmt.Sprintf("col_%d", i)
			if i < len(headers) {
				key = headers[i]
			}
			row[key] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Column returns the header matching any of the given names,
// case-insensitively, or "" when none is present.
func (t *Table) Column(names ...string) string {
	for _, h := range t.Headers {
		for _, n := range names {
			if strings.EqualFold(h, n) {
				return h
			}
		}
	}
	return ""
}
