// Package take reads performance takes from the converted tabular layout
// and derives the timing values the deviation metrics use.
package take

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jsphweid/perfgrade/constants"
	"github.com/jsphweid/perfgrade/model"
	"github.com/jsphweid/perfgrade/pitch"
	"github.com/jsphweid/perfgrade/table"
)

type ParseError struct {
	Row    int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d, %s: %v", e.Row, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func kindOf(s string) model.EventKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "note_on_c":
		return model.NoteOn
	case "note_off_c":
		return model.NoteOff
	case "end_of_file":
		return model.EndOfStream
	case "start_track":
		return model.StartOfStream
	}
	return model.Other
}

func Load(path string, headerRows int) (model.Take, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Take{}, fmt.Errorf("opening take: %w", err)
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Read(name, f, headerRows)
}

// Read parses a take, skipping headerRows leading rows, and stops at the
// first end_of_file row. A missing end_of_file is appended.
func Read(name string, r io.Reader, headerRows int) (model.Take, error) {
	t, err := table.Read(r)
	if err != nil {
		return model.Take{}, err
	}
	return FromTable(name, t, headerRows)
}

func FromTable(name string, t *table.Table, headerRows int) (model.Take, error) {
	if headerRows < 0 {
		headerRows = constants.TakeHeaderRows
	}
	tk := model.Take{Name: name}
	for row := headerRows + 1; row <= t.NumRows(); row++ {
		typ := t.Text(row, constants.TakeTypeCol)
		if typ == "" {
			continue
		}
		ev, err := parseEvent(t, row, kindOf(typ))
		if err != nil {
			return model.Take{}, err
		}
		tk.Events = append(tk.Events, ev)
		if ev.Kind == model.EndOfStream {
			break
		}
	}
	if len(tk.Events) == 0 || tk.Events[len(tk.Events)-1].Kind != model.EndOfStream {
		eos := model.PerformanceEvent{Kind: model.EndOfStream, Row: t.NumRows() + 1}
		if n := len(tk.Events); n > 0 {
			eos.TimestampTicks = tk.Events[n-1].TimestampTicks
			eos.TimestampMillis = tk.Events[n-1].TimestampMillis
		}
		tk.Events = append(tk.Events, eos)
	}
	Derive(&tk)
	return tk, nil
}

func parseEvent(t *table.Table, row int, kind model.EventKind) (model.PerformanceEvent, error) {
	ev := model.PerformanceEvent{Row: row, Kind: kind}
	isNote := kind == model.NoteOn || kind == model.NoteOff

	ticks, err := intCell(t, row, constants.TakeTicksCol, isNote)
	if err != nil {
		return ev, &ParseError{Row: row, Column: "ticks", Err: err}
	}
	ev.TimestampTicks = int64(ticks)

	if text := t.Text(row, constants.TakeMillisCol); text != "" {
		ms, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return ev, &ParseError{Row: row, Column: "milliseconds", Err: err}
		}
		ev.TimestampMillis = ms
	} else if isNote {
		return ev, &ParseError{Row: row, Column: "milliseconds", Err: fmt.Errorf("missing value")}
	}

	if !isNote {
		return ev, nil
	}

	channel, err := intCell(t, row, constants.TakeChannelCol, false)
	if err != nil || channel < 0 || channel > 15 {
		return ev, &ParseError{Row: row, Column: "channel", Err: fmt.Errorf("invalid channel %q", t.Text(row, constants.TakeChannelCol))}
	}
	ev.Channel = uint8(channel)

	key, err := intCell(t, row, constants.TakeKeyCol, false)
	if err != nil || key < 0 || key > 127 {
		return ev, &ParseError{Row: row, Column: "note", Err: fmt.Errorf("invalid key %q", t.Text(row, constants.TakeKeyCol))}
	}
	ev.Key = uint8(key)

	if letter := t.Text(row, constants.TakeLetterNoteCol); letter != "" {
		ev.Pitch = pitch.Normalize(letter)
	} else if t.Text(row, constants.TakeKeyCol) != "" {
		ev.Pitch = pitch.FromKey(ev.Key)
	} else {
		return ev, &ParseError{Row: row, Column: "note", Err: fmt.Errorf("missing note")}
	}

	vel, err := intCell(t, row, constants.TakeVelocityCol, kind == model.NoteOn)
	if err != nil || vel < 0 || vel > 127 {
		return ev, &ParseError{Row: row, Column: "velocity", Err: fmt.Errorf("invalid velocity %q", t.Text(row, constants.TakeVelocityCol))}
	}
	ev.Velocity = vel
	return ev, nil
}

func intCell(t *table.Table, row, col int, required bool) (int, error) {
	text := t.Text(row, col)
	if text == "" {
		if required {
			return 0, fmt.Errorf("missing value")
		}
		return 0, nil
	}
	return strconv.Atoi(text)
}
