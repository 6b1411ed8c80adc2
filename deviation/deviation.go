// Package deviation computes per-note timing, dynamics and articulation
// values for aligned takes.
package deviation

import (
	"errors"
	"fmt"

	"github.com/jsphweid/perfgrade/model"
	"github.com/jsphweid/perfgrade/util"
)

var (
	ErrNoData       = errors.New("no matched notes included for this metric")
	ErrInvalidTempo = errors.New("target bpm must be a positive number")
	ErrNotAligned   = errors.New("take failed alignment")
)

const (
	// mean-relative IOI works in eighth notes, target-relative in quarter notes
	meanBeatFactor   = 8
	targetBeatFactor = 4
)

type Options struct {
	TargetBPM *float64
	// Model enables the model-relative metrics
	Model *ModelReference
}

// note is a matched, sounding event together with its score entry.
type note struct {
	event *model.PerformanceEvent
	entry model.ScoreEntry
}

func included(n note, m model.Metric) bool {
	if !n.event.Annotation.IncludeFlag {
		return false
	}
	switch m {
	case model.ToneLengthening:
		return n.entry.IncludeToneLengthening
	case model.Dynamics:
		return n.entry.IncludeDynamics
	case model.Articulation:
		return n.entry.IncludeArticulation
	case model.NoteDuration:
		return n.entry.IncludeNoteDuration
	}
	return false
}

func matchedNotes(tk model.Take, sc *model.Score) []note {
	var res []note
	for i := range tk.Events {
		e := &tk.Events[i]
		if !e.IsSounding() || !e.Annotation.Matched {
			continue
		}
		entry, ok := sc.Entry(e.Annotation.MatchedLineNumber)
		if !ok || entry.IsSentinel() {
			continue
		}
		res = append(res, note{event: e, entry: entry})
	}
	return res
}

func selectNotes(tk model.Take, sc *model.Score, m model.Metric) []note {
	var res []note
	for _, n := range matchedNotes(tk, sc) {
		if included(n, m) {
			res = append(res, n)
		}
	}
	return res
}

func ioiNotes(tk model.Take, sc *model.Score) []note {
	var res []note
	for _, n := range selectNotes(tk, sc, model.ToneLengthening) {
		if n.event.HasIOI {
			res = append(res, n)
		}
	}
	return res
}

// MeanIOI is the total inter-onset time of the included notes divided by
// their expected length in eighth notes.
func MeanIOI(tk model.Take, sc *model.Score) (float64, error) {
	notes := ioiNotes(tk, sc)
	if len(notes) == 0 {
		return 0, ErrNoData
	}
	var total, beats float64
	for _, n := range notes {
		total += n.event.IOIMillis
		beats += n.entry.DurationBeats
	}
	if beats == 0 {
		return 0, ErrNoData
	}
	return total / (beats * meanBeatFactor), nil
}

// TargetIOI is the milliseconds per beat at bpm.
func TargetIOI(bpm float64) (float64, error) {
	if bpm <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTempo, bpm)
	}
	return 60000 / bpm, nil
}

func ioiDeviation(baseline, sample, noteBeats float64) float64 {
	expected := baseline * noteBeats
	return (sample - expected) / expected * 100
}

func MeanIOIDeviation(meanIOI, sampleIOI, durationBeats float64) float64 {
	return ioiDeviation(meanIOI, sampleIOI, durationBeats*meanBeatFactor)
}

func TargetIOIDeviation(targetIOI, sampleIOI, durationBeats float64) float64 {
	return ioiDeviation(targetIOI, sampleIOI, durationBeats*targetBeatFactor)
}

func MeanVelocity(tk model.Take, sc *model.Score) (float64, error) {
	notes := selectNotes(tk, sc, model.Dynamics)
	velocities := make([]int, 0, len(notes))
	for _, n := range notes {
		velocities = append(velocities, n.event.Velocity)
	}
	mean, ok := util.Mean(velocities)
	if !ok || mean == 0 {
		return 0, ErrNoData
	}
	return mean, nil
}

func VelocityDeviation(meanVelocity, sampleVelocity float64) float64 {
	if sampleVelocity == meanVelocity {
		return 0
	}
	return (sampleVelocity - meanVelocity) / meanVelocity * 100
}

func point(n note, value float64) model.DeviationPoint {
	return model.DeviationPoint{
		LineNumber:      n.entry.LineNumber,
		TimestampTicks:  n.event.TimestampTicks,
		TimestampMillis: n.event.TimestampMillis,
		Value:           value,
		BarlineSpacing:  n.entry.BarlineSpacing,
	}
}

func unavailable(m model.Metric, err error) model.MetricResult {
	return model.MetricResult{Metric: m, Reason: err.Error(), Points: []model.DeviationPoint{}}
}

func toneLengthening(tk model.Take, sc *model.Score, opts Options) model.MetricResult {
	notes := ioiNotes(tk, sc)
	if len(notes) == 0 {
		return unavailable(model.ToneLengthening, ErrNoData)
	}

	res := model.MetricResult{Metric: model.ToneLengthening, Available: true}
	deviate := MeanIOIDeviation
	if opts.TargetBPM != nil {
		target, err := TargetIOI(*opts.TargetBPM)
		if err != nil {
			return unavailable(model.ToneLengthening, err)
		}
		res.Mode, res.Baseline = model.TargetBaseline, target
		deviate = TargetIOIDeviation
	} else {
		mean, err := MeanIOI(tk, sc)
		if err != nil {
			return unavailable(model.ToneLengthening, err)
		}
		res.Mode, res.Baseline = model.MeanBaseline, mean
	}

	for _, n := range notes {
		p := point(n, n.event.IOIMillis)
		d := deviate(res.Baseline, n.event.IOIMillis, n.entry.DurationBeats)
		p.Deviation = &d
		res.Points = append(res.Points, p)
	}
	return res
}

func dynamics(tk model.Take, sc *model.Score) model.MetricResult {
	mean, err := MeanVelocity(tk, sc)
	if err != nil {
		return unavailable(model.Dynamics, err)
	}
	res := model.MetricResult{Metric: model.Dynamics, Available: true, Mode: model.MeanBaseline, Baseline: mean}
	for _, n := range selectNotes(tk, sc, model.Dynamics) {
		p := point(n, float64(n.event.Velocity))
		d := VelocityDeviation(mean, float64(n.event.Velocity))
		p.Deviation = &d
		res.Points = append(res.Points, p)
	}
	return res
}

// passThrough reports the derived value of every included note that has one.
func passThrough(tk model.Take, sc *model.Score, m model.Metric) model.MetricResult {
	res := model.MetricResult{Metric: m, Available: true}
	for _, n := range selectNotes(tk, sc, m) {
		switch {
		case m == model.Articulation && n.event.HasArticulation:
			res.Points = append(res.Points, point(n, n.event.ArticulationMillis))
		case m == model.NoteDuration && n.event.HasRelease:
			res.Points = append(res.Points, point(n, n.event.NoteDurationMillis))
		}
	}
	if len(res.Points) == 0 {
		return unavailable(m, ErrNoData)
	}
	return res
}

// Calculate computes every metric for one aligned take. Failed alignments
// yield no data for any metric, the model metrics need opts.Model.
func Calculate(res model.AlignmentResult, sc *model.Score, opts Options) model.TakeDeviations {
	out := model.TakeDeviations{TakeName: res.Take.Name}
	if !res.Success {
		out.ToneLength = unavailable(model.ToneLengthening, ErrNotAligned)
		out.Dynamics = unavailable(model.Dynamics, ErrNotAligned)
		out.Articulation = unavailable(model.Articulation, ErrNotAligned)
		out.NoteDuration = unavailable(model.NoteDuration, ErrNotAligned)
		out.ModelToneLength = unavailable(model.ModelToneLengthening, ErrNotAligned)
		out.ModelDynamics = unavailable(model.ModelDynamics, ErrNotAligned)
		return out
	}
	out.ToneLength = toneLengthening(res.Take, sc, opts)
	out.Dynamics = dynamics(res.Take, sc)
	out.Articulation = passThrough(res.Take, sc, model.Articulation)
	out.NoteDuration = passThrough(res.Take, sc, model.NoteDuration)
	out.ModelToneLength, out.ModelDynamics = modelMetrics(res.Take, sc, opts.Model)
	return out
}
