package model

type NoteName string

type RowKind uint8

const (
	DataRow RowKind = iota
	SentinelRow
)

type ScoreEntry struct {
	Kind          RowKind
	LineNumber    int
	Pitch         NoteName
	DurationBeats float64

	IncludeGeneral         bool
	IncludeToneLengthening bool
	IncludeDynamics        bool
	IncludeArticulation    bool
	IncludeNoteDuration    bool

	BarlineSpacing float64
}

func (e ScoreEntry) IsSentinel() bool {
	return e.Kind == SentinelRow
}

// Score is built once by the validator and never mutated afterwards.
// Rows always ends with exactly one sentinel row.
type Score struct {
	Name string
	Rows []ScoreEntry

	// read once, from the first data row
	GraphWidth         int
	VelocityGraphWidth int
	XAxisLimit         int
}

func (s *Score) NumEntries() int {
	return len(s.Rows) - 1
}

// Entry looks up an entry by its line number.
func (s *Score) Entry(lineNumber int) (ScoreEntry, bool) {
	if lineNumber < 1 || lineNumber > s.NumEntries() {
		return ScoreEntry{}, false
	}
	return s.Rows[lineNumber-1], true
}
