package score

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jsphweid/perfgrade/table"
)

var (
	ErrMissingSentinel = errors.New("no END row below the last line number")
	ErrNoEntries       = errors.New("the score has no entries")
)

// HeaderError lists every header cell that does not match the expected layout.
type HeaderError struct {
	Bad      []string
	Columns  []int
	Expected []string
}

func (e *HeaderError) Error() string {
	parts := make([]string, len(e.Bad))
	for i := range e.Bad {
		parts[i] = fmt.Sprintf("column %d is %q, expected %q", e.Columns[i], e.Bad[i], e.Expected[i])
	}
	return "the score sheet headers are incorrect: " + strings.Join(parts, "; ")
}

// StructuralError is fatal to the run. Row is the 1-based sheet row.
type StructuralError struct {
	Row     int
	Column  string
	Message string
	Err     error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("invalid value in the %s column, at row %d.\n%s", e.Column, e.Row, e.Message)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// RepairNotice is returned when the last entry's TL and Art flags had to be
// reset. Table holds the corrected sheet; the caller should validate again.
type RepairNotice struct {
	Row       int
	Table     *table.Table
	Persisted bool
}

func (n *RepairNotice) Error() string {
	return fmt.Sprintf("the last values in the Include TL and Include Art columns (row %d) must be N, "+
		"since those metrics cannot be generated for the last note. They have been changed to N; "+
		"please run the analysis again", n.Row)
}
