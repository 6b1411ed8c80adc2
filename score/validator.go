package score

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jsphweid/perfgrade/constants"
	"github.com/jsphweid/perfgrade/logger"
	"github.com/jsphweid/perfgrade/model"
	"github.com/jsphweid/perfgrade/pitch"
	"github.com/jsphweid/perfgrade/table"
)

const firstDataRow = 2

// Persister stores a corrected score table.
type Persister interface {
	Persist(t *table.Table) error
}

type PersistFunc func(t *table.Table) error

func (f PersistFunc) Persist(t *table.Table) error { return f(t) }

// FilePersister writes the table back to where it was loaded from.
type FilePersister struct{}

func (FilePersister) Persist(t *table.Table) error {
	if t.Path == "" {
		return fmt.Errorf("score table has no path to save to")
	}
	return t.Save(t.Path)
}

type Validator struct {
	persister Persister
	log       logger.Interface
}

type Option func(*Validator)

func WithPersister(p Persister) Option {
	return func(v *Validator) {
		v.persister = p
	}
}

func WithLogger(l logger.Interface) Option {
	return func(v *Validator) {
		v.log = l
	}
}

func NewValidator(opts ...Option) *Validator {
	v := &Validator{log: logger.Nop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// CheckHeaders returns the text of every header cell that does not match.
func (v *Validator) CheckHeaders(t *table.Table) []string {
	if err := checkHeaders(t); err != nil {
		return err.Bad
	}
	return nil
}

func checkHeaders(t *table.Table) *HeaderError {
	var he HeaderError
	for i, want := range constants.ScoreHeaders {
		got := t.Text(1, i+1)
		if got != want {
			he.Bad = append(he.Bad, t.Raw(1, i+1))
			he.Columns = append(he.Columns, i+1)
			he.Expected = append(he.Expected, want)
		}
	}
	if len(he.Bad) == 0 {
		return nil
	}
	return &he
}

// Validate runs every check in order and stops at the first failure. The
// only check with a side effect is the last-entry flag repair, which
// corrects t in place, persists it and returns a *RepairNotice.
func (v *Validator) Validate(t *table.Table) (*model.Score, error) {
	if he := checkHeaders(t); he != nil {
		return nil, he
	}

	sentinel, err := checkLineNumbers(t)
	if err != nil {
		return nil, err
	}
	last := sentinel - 1

	checks := []func(*table.Table, int) error{
		checkNotes,
		checkDurations,
		checkIncludes,
	}
	for _, check := range checks {
		if err := check(t, last); err != nil {
			return nil, err
		}
	}

	if notice := v.repairLastEntry(t, last); notice != nil {
		if v.persister != nil {
			if err := v.persister.Persist(t); err != nil {
				return nil, fmt.Errorf("saving corrected score: %w", err)
			}
			notice.Persisted = true
		}
		v.log.Warnf("score row %d: reset Include TL and Include Art to N", last)
		return nil, notice
	}

	if err := checkSpacing(t, last); err != nil {
		return nil, err
	}
	widths, err := checkScalars(t)
	if err != nil {
		return nil, err
	}

	sc := build(t, last)
	sc.GraphWidth, sc.VelocityGraphWidth, sc.XAxisLimit = widths[0], widths[1], widths[2]
	v.log.Debugf("score %q validated with %d entries", sc.Name, sc.NumEntries())
	return sc, nil
}

func isDigitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isSentinel(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), constants.SentinelText)
}

// checkLineNumbers returns the row of the END sentinel.
func checkLineNumbers(t *table.Table) (int, error) {
	const col = "Line Number"
	row := firstDataRow
	for ; row <= t.NumRows(); row++ {
		text := t.Text(row, constants.LineNumberCol)
		if isSentinel(text) {
			break
		}
		n, err := strconv.Atoi(text)
		if !isDigitsOnly(text) || err != nil || n < 1 {
			return 0, &StructuralError{Row: row, Column: col, Message: "Please only provide a positive whole number " +
				"as the values for the line numbers.\nOnce the last line number has been placed, input the word END " +
				"in the cell directly below it."}
		}
		if n != row-firstDataRow+1 {
			return 0, &StructuralError{Row: row, Column: col, Message: fmt.Sprintf("Line numbers must start at 1 and "+
				"increase by 1 on every row; expected %d but found %d.", row-firstDataRow+1, n)}
		}
	}
	if row > t.NumRows() {
		return 0, &StructuralError{Row: row, Column: col, Message: "Once the last line number has been placed, " +
			"input the word END in the cell directly below it.", Err: ErrMissingSentinel}
	}
	if row == firstDataRow {
		return 0, &StructuralError{Row: row, Column: col, Message: "Please provide at least one note above the END row.",
			Err: ErrNoEntries}
	}
	return row, nil
}

func checkNotes(t *table.Table, last int) error {
	for row := firstDataRow; row <= last; row++ {
		if !pitch.Valid(t.Text(row, constants.NoteCol)) {
			return &StructuralError{Row: row, Column: "Note", Message: "Please make sure the notes have the following " +
				"structure:\nLetter - Number - # (optional sharp)\nPlease make sure a note value is present for every " +
				"number in the line number column."}
		}
	}
	return nil
}

func parsePositiveReal(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

// ParseDuration accepts a positive decimal or a fraction like 1/8.
func ParseDuration(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		if f, ok := parsePositiveReal(s); ok {
			return f, nil
		}
		return 0, fmt.Errorf("duration %q is not positive", s)
	}
	if strings.Contains(s, "-") {
		return 0, fmt.Errorf("duration %q is not positive", s)
	}
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, fmt.Errorf("duration %q is not a number or fraction", s)
	}
	num, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	den, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, fmt.Errorf("duration %q is not a number or fraction", s)
	}
	if den == 0 {
		return 0, fmt.Errorf("duration %q has a zero denominator", s)
	}
	if num <= 0 || den < 0 {
		return 0, fmt.Errorf("duration %q is not positive", s)
	}
	return float64(num) / float64(den), nil
}

func checkDurations(t *table.Table, last int) error {
	for row := firstDataRow; row <= last; row++ {
		text := t.Text(row, constants.DurationCol)
		if _, err := ParseDuration(text); err != nil {
			msg := "Please only provide a positive number as the values for the durations. These can be " +
				"fractional numbers or whole numbers."
			if strings.Contains(err.Error(), "zero denominator") {
				msg += " Please make sure that the denominators are not 0."
			}
			return &StructuralError{Row: row, Column: "Duration", Message: msg, Err: err}
		}
	}
	return nil
}

var includeCols = []struct {
	col  int
	name string
}{
	{constants.IncludeCol, "first Include (column D)"},
	{constants.IncludeTLCol, "second Include (column E)"},
	{constants.IncludeDynCol, "third Include (column F)"},
	{constants.IncludeArtCol, "fourth Include (column G)"},
	{constants.IncludeNDCol, "fifth Include (column H)"},
}

func parseYN(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y":
		return true, true
	case "n":
		return false, true
	}
	return false, false
}

func checkIncludes(t *table.Table, last int) error {
	for row := firstDataRow; row <= last; row++ {
		for _, ic := range includeCols {
			if _, ok := parseYN(t.Text(row, ic.col)); !ok {
				return &StructuralError{Row: row, Column: ic.name, Message: "Please make sure there are only Y and N " +
					"values in the column (it is not case sensitive)."}
			}
		}
	}
	return nil
}

func (v *Validator) repairLastEntry(t *table.Table, last int) *RepairNotice {
	tl, _ := parseYN(t.Text(last, constants.IncludeTLCol))
	art, _ := parseYN(t.Text(last, constants.IncludeArtCol))
	if !tl && !art {
		return nil
	}
	t.Set(last, constants.IncludeTLCol, "N")
	t.Set(last, constants.IncludeArtCol, "N")
	return &RepairNotice{Row: last, Table: t}
}

func checkSpacing(t *table.Table, last int) error {
	for row := firstDataRow; row <= last; row++ {
		if _, ok := parsePositiveReal(t.Text(row, constants.SpaceBarlineCol)); !ok {
			return &StructuralError{Row: row, Column: "Space for Barline", Message: "Please only provide a positive " +
				"number as the values for the space for barline."}
		}
	}
	return nil
}

func checkScalars(t *table.Table) ([3]int, error) {
	var res [3]int
	scalars := []struct {
		col  int
		name string
	}{
		{constants.GraphWidthCol, "Graph Width (column J)"},
		{constants.VelGraphWidthCol, "Velocity Graph Width (column K)"},
		{constants.XAxisLimitCol, "X-axis limit (column L)"},
	}
	for i, s := range scalars {
		text := t.Text(firstDataRow, s.col)
		n, err := strconv.Atoi(text)
		if !isDigitsOnly(text) || err != nil || n < 1 {
			return res, &StructuralError{Row: firstDataRow, Column: s.name, Message: "Please only provide a positive " +
				"whole number as the value.\nNote that only the first number below the column header is considered."}
		}
		res[i] = n
	}
	return res, nil
}

// build assumes every check passed.
func build(t *table.Table, last int) *model.Score {
	sc := &model.Score{Name: strings.TrimSuffix(filepath.Base(t.Path), filepath.Ext(t.Path))}
	if t.Path == "" {
		sc.Name = ""
	}
	for row := firstDataRow; row <= last; row++ {
		dur, _ := ParseDuration(t.Text(row, constants.DurationCol))
		spacing, _ := parsePositiveReal(t.Text(row, constants.SpaceBarlineCol))
		inc, _ := parseYN(t.Text(row, constants.IncludeCol))
		tl, _ := parseYN(t.Text(row, constants.IncludeTLCol))
		dyn, _ := parseYN(t.Text(row, constants.IncludeDynCol))
		art, _ := parseYN(t.Text(row, constants.IncludeArtCol))
		nd, _ := parseYN(t.Text(row, constants.IncludeNDCol))
		sc.Rows = append(sc.Rows, model.ScoreEntry{
			Kind:                   model.DataRow,
			LineNumber:             row - firstDataRow + 1,
			Pitch:                  pitch.Normalize(t.Text(row, constants.NoteCol)),
			DurationBeats:          dur,
			IncludeGeneral:         inc,
			IncludeToneLengthening: tl,
			IncludeDynamics:        dyn,
			IncludeArticulation:    art,
			IncludeNoteDuration:    nd,
			BarlineSpacing:         spacing,
		})
	}
	sc.Rows = append(sc.Rows, model.ScoreEntry{Kind: model.SentinelRow})
	return sc
}
