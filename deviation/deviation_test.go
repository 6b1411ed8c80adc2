package deviation

import (
	"testing"

	"github.com/jsphweid/perfgrade/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(line int, p string, dur float64) model.ScoreEntry {
	return model.ScoreEntry{
		LineNumber:             line,
		Pitch:                  model.NoteName(p),
		DurationBeats:          dur,
		IncludeGeneral:         true,
		IncludeToneLengthening: true,
		IncludeDynamics:        true,
		IncludeArticulation:    true,
		IncludeNoteDuration:    true,
		BarlineSpacing:         1,
	}
}

func scoreOf(entries ...model.ScoreEntry) *model.Score {
	return &model.Score{Rows: append(entries, model.ScoreEntry{Kind: model.SentinelRow})}
}

func matched(line int, dur float64, vel int, ioi float64) model.PerformanceEvent {
	return model.PerformanceEvent{
		Kind:      model.NoteOn,
		Velocity:  vel,
		HasIOI:    ioi > 0,
		IOIMillis: ioi,
		Annotation: model.Annotation{
			Matched:              true,
			IncludeFlag:          true,
			MatchedLineNumber:    line,
			MatchedDurationBeats: dur,
		},
	}
}

func TestMeanIOIDeviationExample(t *testing.T) {
	assert.InDelta(t, -45.0, MeanIOIDeviation(500, 550, 0.25), 1e-9)
}

func TestTargetIOIDeviationExample(t *testing.T) {
	target, err := TargetIOI(120)
	require.NoError(t, err)
	assert.Equal(t, 500.0, target)
	assert.InDelta(t, 20.0, TargetIOIDeviation(target, 600, 0.25), 1e-9)
}

func TestTargetIOIRejectsNonPositiveTempo(t *testing.T) {
	for _, bpm := range []float64{0, -60} {
		_, err := TargetIOI(bpm)
		assert.ErrorIs(t, err, ErrInvalidTempo)
	}
}

func TestVelocityDeviation(t *testing.T) {
	assert.InDelta(t, 25.0, VelocityDeviation(64, 80), 1e-9)
	assert.Equal(t, 0.0, VelocityDeviation(64, 64))
	assert.InDelta(t, -50.0, VelocityDeviation(64, 32), 1e-9)
}

func TestMeanIOI(t *testing.T) {
	sc := scoreOf(entry(1, "C4", 0.25), entry(2, "D4", 0.5), entry(3, "E4", 0.25))
	tk := model.Take{Events: []model.PerformanceEvent{
		matched(1, 0.25, 64, 500),
		matched(2, 0.5, 64, 1000),
		matched(3, 0.25, 64, 0), // last note has no IOI
	}}
	mean, err := MeanIOI(tk, sc)
	require.NoError(t, err)
	// 1500ms over (0.25+0.5)*8 eighths
	assert.InDelta(t, 250.0, mean, 1e-9)
}

func TestMeanOfEmptySetIsNoData(t *testing.T) {
	sc := scoreOf(entry(1, "C4", 0.25))
	_, err := MeanIOI(model.Take{}, sc)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = MeanVelocity(model.Take{}, sc)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRoundTripIsZero(t *testing.T) {
	durations := []float64{0.25, 0.5, 0.125, 1}
	var entries []model.ScoreEntry
	var events []model.PerformanceEvent
	const mean = 125.0
	for i, d := range durations {
		entries = append(entries, entry(i+1, "C4", d))
		events = append(events, matched(i+1, d, 70, mean*d*8))
	}
	res := model.AlignmentResult{Success: true, Take: model.Take{Events: events}}
	devs := Calculate(res, scoreOf(entries...), Options{})

	require.True(t, devs.ToneLength.Available)
	assert.InDelta(t, mean, devs.ToneLength.Baseline, 1e-9)
	require.Len(t, devs.ToneLength.Points, len(durations))
	for _, p := range devs.ToneLength.Points {
		assert.InDelta(t, 0, *p.Deviation, 1e-9)
	}
	for _, p := range devs.Dynamics.Points {
		assert.Equal(t, 0.0, *p.Deviation)
	}
}

func TestCalculateGatesEachMetricIndependently(t *testing.T) {
	noTL := entry(1, "C4", 0.25)
	noTL.IncludeToneLengthening = false
	noDyn := entry(2, "D4", 0.25)
	noDyn.IncludeDynamics = false
	excluded := entry(3, "E4", 0.25)
	excluded.IncludeGeneral = false
	sc := scoreOf(noTL, noDyn, excluded)

	events := []model.PerformanceEvent{
		matched(1, 0.25, 60, 500),
		matched(2, 0.25, 90, 500),
		matched(3, 0.25, 100, 500),
	}
	events[2].Annotation.IncludeFlag = false
	for i := range events {
		events[i].HasArticulation, events[i].ArticulationMillis = true, 20
		events[i].HasRelease, events[i].NoteDurationMillis = true, 480
	}
	res := model.AlignmentResult{Success: true, Take: model.Take{Name: "t", Events: events}}
	devs := Calculate(res, sc, Options{})

	assert := assert.New(t)
	assert.Equal("t", devs.TakeName)
	lines := func(r model.MetricResult) []int {
		var l []int
		for _, p := range r.Points {
			l = append(l, p.LineNumber)
		}
		return l
	}
	assert.Equal([]int{2}, lines(devs.ToneLength))
	assert.Equal([]int{1}, lines(devs.Dynamics))
	assert.Equal(60.0, devs.Dynamics.Baseline)
	assert.Equal([]int{1, 2}, lines(devs.Articulation))
	assert.Equal([]int{1, 2}, lines(devs.NoteDuration))
	assert.Equal(20.0, devs.Articulation.Points[0].Value)
	assert.Nil(devs.Articulation.Points[0].Deviation)
	assert.Equal(480.0, devs.NoteDuration.Points[1].Value)
	assert.Equal(1.0, devs.NoteDuration.Points[1].BarlineSpacing)
}

func TestCalculateWithTargetTempo(t *testing.T) {
	sc := scoreOf(entry(1, "C4", 0.25), entry(2, "D4", 0.25))
	res := model.AlignmentResult{Success: true, Take: model.Take{Events: []model.PerformanceEvent{
		matched(1, 0.25, 64, 600),
		matched(2, 0.25, 64, 0),
	}}}
	bpm := 120.0
	devs := Calculate(res, sc, Options{TargetBPM: &bpm})

	assert := assert.New(t)
	assert.Equal(model.TargetBaseline, devs.ToneLength.Mode)
	assert.Equal(500.0, devs.ToneLength.Baseline)
	assert.Len(devs.ToneLength.Points, 1)
	assert.InDelta(20.0, *devs.ToneLength.Points[0].Deviation, 1e-9)
}

func TestCalculateFailedTakeHasNoData(t *testing.T) {
	sc := scoreOf(entry(1, "C4", 0.25))
	res := model.AlignmentResult{Take: model.Take{Events: []model.PerformanceEvent{matched(1, 0.25, 64, 500)}}}
	devs := Calculate(res, sc, Options{})
	for _, r := range []model.MetricResult{devs.ToneLength, devs.Dynamics, devs.Articulation, devs.NoteDuration} {
		assert.False(t, r.Available)
		assert.Equal(t, ErrNotAligned.Error(), r.Reason)
	}
}

func TestUnmatchedEventsAreIgnored(t *testing.T) {
	sc := scoreOf(entry(1, "C4", 0.25))
	wrong := matched(1, 0.25, 127, 500)
	wrong.Annotation = model.Annotation{Error: true}
	res := model.AlignmentResult{Success: true, Take: model.Take{Events: []model.PerformanceEvent{
		wrong,
		matched(1, 0.25, 50, 500),
	}}}
	devs := Calculate(res, sc, Options{})
	assert.Equal(t, 50.0, devs.Dynamics.Baseline)
	assert.Len(t, devs.Dynamics.Points, 1)
}

func TestModelDeviations(t *testing.T) {
	assert := assert.New(t)
	assert.InDelta(10.0, ModelIOIDeviation(500, 550), 1e-9)
	assert.InDelta(-25.0, ModelVelocityDeviation(80, 60), 1e-9)
	assert.Equal(0.0, ModelIOIDeviation(333.3, 333.3))
	assert.Equal(0.0, ModelVelocityDeviation(64, 64))
}

func modelScore() *model.Score {
	return scoreOf(entry(1, "C4", 0.25), entry(2, "D4", 0.25), entry(3, "E4", 0.25))
}

func TestModelReferenceKeysByLine(t *testing.T) {
	res := model.AlignmentResult{Success: true, Take: model.Take{Name: "ref", Events: []model.PerformanceEvent{
		matched(1, 0.25, 70, 480),
		matched(2, 0.25, 80, 0),
		// a second attempt does not replace the first
		matched(1, 0.25, 10, 999),
	}}}
	ref, err := NewModelReference(res, modelScore())
	require.NoError(t, err)
	assert.Equal(t, "ref", ref.Take)
	assert.Equal(t, map[int]float64{1: 480}, ref.IOI)
	assert.Equal(t, map[int]float64{1: 70, 2: 80}, ref.Velocity)
}

func TestModelReferenceNeedsAlignedModel(t *testing.T) {
	_, err := NewModelReference(model.AlignmentResult{}, modelScore())
	assert.ErrorIs(t, err, ErrNotAligned)
}

func TestCalculateRelativeToModel(t *testing.T) {
	ref := &ModelReference{
		IOI:      map[int]float64{1: 500, 2: 400},
		Velocity: map[int]float64{1: 80, 3: 50},
	}
	res := model.AlignmentResult{Success: true, Take: model.Take{Events: []model.PerformanceEvent{
		matched(1, 0.25, 80, 500),
		matched(2, 0.25, 90, 500),
		matched(3, 0.25, 60, 500),
	}}}
	devs := Calculate(res, modelScore(), Options{Model: ref})

	assert := assert.New(t)
	tl := devs.ModelToneLength
	require.True(t, tl.Available)
	assert.Equal(model.ModelBaseline, tl.Mode)
	require.Len(t, tl.Points, 3)
	assert.Equal(0.0, *tl.Points[0].Deviation)
	assert.InDelta(25.0, *tl.Points[1].Deviation, 1e-9)
	// the model has no IOI for line 3
	assert.Nil(tl.Points[2].Deviation)
	assert.Equal(500.0, tl.Points[2].Value)

	dyn := devs.ModelDynamics
	require.True(t, dyn.Available)
	assert.Equal(0.0, *dyn.Points[0].Deviation)
	assert.Nil(dyn.Points[1].Deviation)
	assert.InDelta(20.0, *dyn.Points[2].Deviation, 1e-9)

	// own-mean metrics are computed the same as without a model
	plain := Calculate(res, modelScore(), Options{})
	assert.Equal(plain.ToneLength, devs.ToneLength)
	assert.Equal(plain.Dynamics, devs.Dynamics)
}

func TestModelMetricsWithoutData(t *testing.T) {
	res := model.AlignmentResult{Success: true, Take: model.Take{Events: []model.PerformanceEvent{
		matched(1, 0.25, 80, 500),
	}}}

	devs := Calculate(res, modelScore(), Options{})
	assert.False(t, devs.ModelToneLength.Available)
	assert.Equal(t, ErrNoModel.Error(), devs.ModelDynamics.Reason)

	devs = Calculate(res, modelScore(), Options{Model: &ModelReference{IOI: map[int]float64{2: 500}, Velocity: map[int]float64{}}})
	assert.False(t, devs.ModelToneLength.Available)
	assert.Equal(t, ErrNoData.Error(), devs.ModelToneLength.Reason)
	assert.False(t, devs.ModelDynamics.Available)

	res.Take.IsModel = true
	devs = Calculate(res, modelScore(), Options{Model: &ModelReference{IOI: map[int]float64{1: 500}}})
	assert.Equal(t, ErrModelTake.Error(), devs.ModelToneLength.Reason)
}
