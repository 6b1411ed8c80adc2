package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jsphweid/perfgrade/model"
	"github.com/jsphweid/perfgrade/pitch"
	"github.com/jsphweid/perfgrade/take"
	"gitlab.com/gomidi/midi/v2/smf"
)

func IsMidiPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".mid" || ext == ".midi"
}

func ReadMidiFile(filepath string) (*smf.SMF, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading midi file: %w", err)
	}
	return decode(bytes.NewReader(dat))
}

func decode(r io.Reader) (s *smf.SMF, e error) {
	// the decoder can panic on malformed input
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if rec := recover(); rec != nil {
			s = nil
			e = errors.New(fmt.Sprint(rec))
		}
	}()

	res, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("parsing midi file: %w", err)
	}
	return res, nil
}

func LoadTake(path string) (model.Take, error) {
	s, err := ReadMidiFile(path)
	if err != nil {
		return model.Take{}, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ToTake(name, s), nil
}

func ParseTake(name string, r io.Reader) (model.Take, error) {
	s, err := decode(r)
	if err != nil {
		return model.Take{}, err
	}
	return ToTake(name, s), nil
}

type absEvent struct {
	ticks int64
	event model.PerformanceEvent
}

// ToTake merges all tracks by absolute tick into one event stream framed by
// StartOfStream and EndOfStream, and derives the timing columns.
func ToTake(name string, s *smf.SMF) model.Take {
	var merged []absEvent
	for _, track := range s.Tracks {
		var absTicks int64
		for _, ev := range track {
			absTicks += int64(ev.Delta)
			var channel, key, velocity uint8
			pe := model.PerformanceEvent{Kind: model.Other}
			switch {
			case ev.Message.GetNoteOn(&channel, &key, &velocity):
				pe.Kind = model.NoteOn
				pe.Channel, pe.Key, pe.Velocity = channel, key, int(velocity)
				pe.Pitch = pitch.FromKey(key)
			case ev.Message.GetNoteOff(&channel, &key, &velocity):
				pe.Kind = model.NoteOff
				pe.Channel, pe.Key, pe.Velocity = channel, key, int(velocity)
				pe.Pitch = pitch.FromKey(key)
			}
			merged = append(merged, absEvent{ticks: absTicks, event: pe})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ticks < merged[j].ticks
	})

	tk := model.Take{Name: name}
	tk.Events = append(tk.Events, model.PerformanceEvent{Kind: model.StartOfStream})
	var last absEvent
	for _, ae := range merged {
		ae.event.TimestampTicks = ae.ticks
		ae.event.TimestampMillis = float64(s.TimeAt(ae.ticks)) / 1000
		tk.Events = append(tk.Events, ae.event)
		last = ae
	}
	tk.Events = append(tk.Events, model.PerformanceEvent{
		Kind:            model.EndOfStream,
		TimestampTicks:  last.ticks,
		TimestampMillis: last.event.TimestampMillis,
	})
	for i := range tk.Events {
		tk.Events[i].Row = i
	}

	take.Derive(&tk)
	return tk
}
