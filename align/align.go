// Package align matches a take's sounding notes against the score.
//
// Matching runs forward from the first event until the first wrong pitch.
// It then restarts from the end of the take and the end of the score and
// runs backward until it meets the forward divergence point. Everything
// between the two fronts is the single tolerated error region; a second
// mismatch before the fronts meet fails the take.
package align

import (
	"github.com/jsphweid/perfgrade/logger"
	"github.com/jsphweid/perfgrade/model"
	"github.com/jsphweid/perfgrade/pitch"
)

type config struct {
	log logger.Interface
}

type Option func(*config)

func WithLogger(l logger.Interface) Option {
	return func(c *config) {
		c.log = l
	}
}

// Align never modifies tk; the annotated copy is in the result. Annotations
// written before a failure are kept. A score without entries fails every take.
func Align(tk model.Take, sc *model.Score, opts ...Option) model.AlignmentResult {
	cfg := config{log: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	res := model.AlignmentResult{
		Take:             tk.Clone(),
		ForwardMismatch:  -1,
		BackwardMismatch: -1,
	}
	events := res.Take.Events
	if sc.NumEntries() < 1 {
		cfg.log.Warnf("%s: score has no entries", tk.Name)
		return res
	}

	mismatch, ok := forward(events, sc, cfg.log)
	if ok {
		res.Success = true
		return res
	}
	res.ForwardMismatch = mismatch
	res.UsedBackwardPass = true
	cfg.log.Debugf("%s: forward mismatch at event %d (%s), matching backward", tk.Name, events[mismatch].Row, events[mismatch].Pitch)

	second, ok := backward(events, sc, mismatch)
	if !ok {
		res.BackwardMismatch = second
		cfg.log.Debugf("%s: second mismatch at event %d (%s)", tk.Name, events[second].Row, events[second].Pitch)
		return res
	}
	res.Success = true
	return res
}

func annotate(e *model.PerformanceEvent, entry model.ScoreEntry) {
	e.Annotation.Matched = true
	e.Annotation.IncludeFlag = entry.IncludeGeneral
	e.Annotation.MatchedLineNumber = entry.LineNumber
	e.Annotation.MatchedDurationBeats = entry.DurationBeats
}

// forward returns the index of the first mismatching event, or ok when the
// end of the stream was reached without one.
func forward(events []model.PerformanceEvent, sc *model.Score, log logger.Interface) (int, bool) {
	cursor := 0
	for i := range events {
		e := &events[i]
		if e.Kind == model.EndOfStream {
			return -1, true
		}
		if e.Kind == model.NoteOn && e.Velocity == 0 {
			log.Debugf("note_on velocity 0 at event %d", e.Row)
			continue
		}
		if !e.IsSounding() {
			continue
		}
		// another attempt starts after the last entry
		if sc.Rows[cursor].IsSentinel() {
			cursor = 0
		}
		entry := sc.Rows[cursor]
		if !pitch.Equal(e.Pitch, entry.Pitch) {
			e.Annotation.Error = true
			return i, false
		}
		annotate(e, entry)
		cursor++
	}
	return -1, true
}

// backward matches from the end of the take down to the forward mismatch.
// It returns the index of a second mismatch, or ok.
func backward(events []model.PerformanceEvent, sc *model.Score, divergence int) (int, bool) {
	sentinel := len(sc.Rows) - 1
	score := sentinel - 1
	last := len(events) - 1
	for i := divergence; i < len(events); i++ {
		if events[i].Kind == model.EndOfStream {
			last = i
			break
		}
	}
	for t := last; t >= divergence; {
		e := &events[t]
		if e.Kind == model.StartOfStream {
			return -1, true
		}
		if !e.IsSounding() {
			t--
			continue
		}
		if score < 0 {
			// mirror of the forward reset: an earlier attempt ends here
			score = sentinel
		}
		entry := sc.Rows[score]
		if entry.IsSentinel() {
			score--
			continue
		}
		if !pitch.Equal(e.Pitch, entry.Pitch) {
			if t == divergence {
				// the fronts met at the same wrong note
				return -1, true
			}
			e.Annotation.Error = true
			return t, false
		}
		annotate(e, entry)
		score--
		t--
	}
	return -1, true
}
