package align

import (
	"testing"

	"github.com/jsphweid/perfgrade/model"
	"github.com/stretchr/testify/assert"
)

func makeScore(pitches ...string) *model.Score {
	sc := &model.Score{}
	for i, p := range pitches {
		sc.Rows = append(sc.Rows, model.ScoreEntry{
			LineNumber:     i + 1,
			Pitch:          model.NoteName(p),
			DurationBeats:  0.25,
			IncludeGeneral: i%2 == 0,
		})
	}
	sc.Rows = append(sc.Rows, model.ScoreEntry{Kind: model.SentinelRow})
	return sc
}

// makeTake frames the pitches with start/end events and puts a non-note
// event between every note.
func makeTake(pitches ...string) model.Take {
	tk := model.Take{Name: "take"}
	tk.Events = append(tk.Events, model.PerformanceEvent{Kind: model.StartOfStream})
	for i, p := range pitches {
		tk.Events = append(tk.Events,
			model.PerformanceEvent{Kind: model.NoteOn, Pitch: model.NoteName(p), Velocity: 64, TimestampMillis: float64(i * 500)},
			model.PerformanceEvent{Kind: model.Other},
		)
	}
	tk.Events = append(tk.Events, model.PerformanceEvent{Kind: model.EndOfStream})
	for i := range tk.Events {
		tk.Events[i].Row = i
	}
	return tk
}

func sounding(tk model.Take) []model.PerformanceEvent {
	var res []model.PerformanceEvent
	for _, e := range tk.Events {
		if e.IsSounding() {
			res = append(res, e)
		}
	}
	return res
}

func TestIdenticalTakeMatchesEveryNote(t *testing.T) {
	sc := makeScore("C4", "D4", "E4", "F4", "G4")
	res := Align(makeTake("c4", "D4", "e4", "F4", "G4"), sc)

	assert := assert.New(t)
	assert.True(res.Success)
	assert.False(res.UsedBackwardPass)
	assert.Equal(0, res.ErrorCount())
	for i, e := range sounding(res.Take) {
		assert.True(e.Annotation.Matched)
		assert.Equal(i+1, e.Annotation.MatchedLineNumber)
		assert.Equal(0.25, e.Annotation.MatchedDurationBeats)
		assert.Equal(i%2 == 0, e.Annotation.IncludeFlag)
	}
}

func TestAlignDoesNotModifyInput(t *testing.T) {
	tk := makeTake("C4", "X4")
	Align(tk, makeScore("C4", "D4"))
	for _, e := range tk.Events {
		assert.Equal(t, model.Annotation{}, e.Annotation)
	}
}

func TestSingleSubstitutionRecovers(t *testing.T) {
	sc := makeScore("C4", "D4", "E4", "F4", "G4")
	res := Align(makeTake("C4", "D4", "A4", "F4", "G4"), sc)

	assert := assert.New(t)
	assert.True(res.Success)
	assert.True(res.UsedBackwardPass)
	assert.Equal(1, res.ErrorCount())

	notes := sounding(res.Take)
	assert.True(notes[2].Annotation.Error)
	assert.False(notes[2].Annotation.Matched)
	for _, i := range []int{0, 1, 3, 4} {
		assert.True(notes[i].Annotation.Matched, "note %d", i)
		assert.Equal(i+1, notes[i].Annotation.MatchedLineNumber)
		assert.False(notes[i].Annotation.Error)
	}
}

func TestTwoSeparatedErrorsFail(t *testing.T) {
	sc := makeScore("C4", "D4", "E4", "F4", "G4")
	res := Align(makeTake("C4", "A4", "E4", "B4", "G4"), sc)

	assert := assert.New(t)
	assert.False(res.Success)
	assert.Equal(2, res.ErrorCount())
	assert.Equal(res.Take.Events[res.ForwardMismatch].Pitch, model.NoteName("A4"))
	assert.Equal(res.Take.Events[res.BackwardMismatch].Pitch, model.NoteName("B4"))

	// partial annotations stay for inspection
	notes := sounding(res.Take)
	assert.Equal(1, notes[0].Annotation.MatchedLineNumber)
	assert.Equal(5, notes[4].Annotation.MatchedLineNumber)
	assert.False(notes[2].Annotation.Matched)
}

func TestExtraNoteRecovers(t *testing.T) {
	sc := makeScore("C4", "D4", "E4", "F4")
	res := Align(makeTake("C4", "D4", "A4", "E4", "F4"), sc)

	assert := assert.New(t)
	assert.True(res.Success)
	notes := sounding(res.Take)
	assert.True(notes[2].Annotation.Error)
	assert.Equal(3, notes[3].Annotation.MatchedLineNumber)
	assert.Equal(4, notes[4].Annotation.MatchedLineNumber)
}

func TestMissingNoteRecovers(t *testing.T) {
	sc := makeScore("C4", "D4", "E4", "F4")
	res := Align(makeTake("C4", "D4", "F4"), sc)

	assert := assert.New(t)
	assert.True(res.Success)
	notes := sounding(res.Take)
	// F4 was the forward mismatch and was then matched from the end
	assert.True(notes[2].Annotation.Error)
	assert.True(notes[2].Annotation.Matched)
	assert.Equal(4, notes[2].Annotation.MatchedLineNumber)
	assert.Equal(2, notes[1].Annotation.MatchedLineNumber)
}

func TestZeroVelocityNoteOnIsSkipped(t *testing.T) {
	sc := makeScore("C4", "D4")
	tk := makeTake("C4", "D4")
	// a release of C4 between the two notes
	tk.Events[2] = model.PerformanceEvent{Row: 2, Kind: model.NoteOn, Pitch: "C4", Velocity: 0}

	res := Align(tk, sc)
	assert.True(t, res.Success)
	assert.False(t, res.Take.Events[2].Annotation.Matched)
	assert.Equal(t, 2, res.Take.Events[3].Annotation.MatchedLineNumber)
}

func TestRepeatedAttemptsResetTheScore(t *testing.T) {
	sc := makeScore("C4", "D4", "E4")
	res := Align(makeTake("C4", "D4", "E4", "C4", "D4", "E4"), sc)

	assert := assert.New(t)
	assert.True(res.Success)
	var lines []int
	for _, e := range sounding(res.Take) {
		lines = append(lines, e.Annotation.MatchedLineNumber)
	}
	assert.Equal([]int{1, 2, 3, 1, 2, 3}, lines)
}

func TestBackwardPassWrapsAcrossAttempts(t *testing.T) {
	sc := makeScore("C4", "D4", "E4")
	// the first attempt breaks off, the second is clean
	res := Align(makeTake("C4", "G4", "C4", "D4", "E4", "C4", "D4", "E4"), sc)

	assert := assert.New(t)
	assert.True(res.Success)
	notes := sounding(res.Take)
	assert.True(notes[1].Annotation.Error)
	assert.Equal(3, notes[4].Annotation.MatchedLineNumber)
	assert.Equal(1, notes[2].Annotation.MatchedLineNumber)
}

func TestEventsAfterEndOfStreamAreIgnored(t *testing.T) {
	sc := makeScore("C4")
	tk := makeTake("C4")
	tk.Events = append(tk.Events, model.PerformanceEvent{Kind: model.NoteOn, Pitch: "B4", Velocity: 50})
	res := Align(tk, sc)
	assert.True(t, res.Success)
	assert.False(t, res.UsedBackwardPass)
}

func TestScoreWithoutEntriesFails(t *testing.T) {
	sc := &model.Score{Rows: []model.ScoreEntry{{Kind: model.SentinelRow}}}
	res := Align(makeTake("C4", "D4"), sc)
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.ErrorCount())
	assert.Equal(t, -1, res.ForwardMismatch)
}

func TestBackwardPassSkipsReleases(t *testing.T) {
	sc := makeScore("C4", "D4", "E4", "F4")
	tk := makeTake("C4", "A4", "E4", "F4")
	// release of F4 after the last onset, then a release of E4 in between
	last := len(tk.Events) - 1
	tk.Events[last-1] = model.PerformanceEvent{Row: last - 1, Kind: model.NoteOn, Pitch: "F4", Velocity: 0}
	tk.Events[last-3] = model.PerformanceEvent{Row: last - 3, Kind: model.NoteOn, Pitch: "E4", Velocity: 0}

	res := Align(tk, sc)

	assert := assert.New(t)
	assert.True(res.Success)
	assert.True(res.UsedBackwardPass)
	assert.Equal(1, res.ErrorCount())
	assert.False(res.Take.Events[last-1].Annotation.Matched)
	assert.False(res.Take.Events[last-3].Annotation.Matched)
	notes := sounding(res.Take)
	assert.Equal(4, notes[3].Annotation.MatchedLineNumber)
	assert.Equal(3, notes[2].Annotation.MatchedLineNumber)
	assert.True(notes[1].Annotation.Error)
}
