// Package table holds raw spreadsheet-exported tables. Rows and columns are
// 1-based so row numbers in messages match what a user sees in the sheet.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Table struct {
	Path string
	rows [][]string
}

func New(rows [][]string) *Table {
	return &Table{rows: rows}
}

// Read decodes CSV, honoring a UTF-8 or UTF-16 byte order mark as written by
// spreadsheet exporters.
func Read(r io.Reader) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return &Table{rows: rows}, nil
}

func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	t.Path = path
	return t, nil
}

func (t *Table) NumRows() int {
	return len(t.rows)
}

// Text returns the trimmed cell text, or "" outside the table.
func (t *Table) Text(row, col int) string {
	if row < 1 || row > len(t.rows) {
		return ""
	}
	r := t.rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return strings.TrimSpace(r[col-1])
}

// Raw is Text without trimming.
func (t *Table) Raw(row, col int) string {
	if row < 1 || row > len(t.rows) {
		return ""
	}
	r := t.rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}

// Set grows the row as needed.
func (t *Table) Set(row, col int, value string) {
	for len(t.rows) < row {
		t.rows = append(t.rows, nil)
	}
	r := t.rows[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = value
	t.rows[row-1] = r
}

func (t *Table) Clone() *Table {
	rows := make([][]string, len(t.rows))
	for i, r := range t.rows {
		rows[i] = append([]string(nil), r...)
	}
	return &Table{Path: t.Path, rows: rows}
}

func (t *Table) Records() [][]string {
	return t.rows
}

func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.rows); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
