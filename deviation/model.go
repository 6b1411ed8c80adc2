package deviation

import (
	"errors"

	"github.com/jsphweid/perfgrade/model"
)

var (
	ErrNoModel   = errors.New("no aligned model take")
	ErrModelTake = errors.New("the model take is the reference")
)

// ModelReference holds the model take's IOI and velocity per score line.
// When a line was played more than once the first attempt counts.
type ModelReference struct {
	Take     string
	IOI      map[int]float64
	Velocity map[int]float64
}

func NewModelReference(res model.AlignmentResult, sc *model.Score) (*ModelReference, error) {
	if !res.Success {
		return nil, ErrNotAligned
	}
	ref := &ModelReference{
		Take:     res.Take.Name,
		IOI:      make(map[int]float64),
		Velocity: make(map[int]float64),
	}
	for _, n := range matchedNotes(res.Take, sc) {
		line := n.entry.LineNumber
		if _, ok := ref.IOI[line]; !ok && n.event.HasIOI {
			ref.IOI[line] = n.event.IOIMillis
		}
		if _, ok := ref.Velocity[line]; !ok {
			ref.Velocity[line] = float64(n.event.Velocity)
		}
	}
	return ref, nil
}

func modelDeviation(modelValue, sample float64) float64 {
	if sample == modelValue {
		return 0
	}
	return (sample/modelValue - 1) * 100
}

func ModelIOIDeviation(modelIOI, sampleIOI float64) float64 {
	return modelDeviation(modelIOI, sampleIOI)
}

func ModelVelocityDeviation(modelVelocity, sampleVelocity float64) float64 {
	return modelDeviation(modelVelocity, sampleVelocity)
}

// relativeToModel compares every included note with the model's value for
// the same line. Lines the model has no value for keep a nil deviation.
func relativeToModel(m model.Metric, notes []note, value func(note) float64, reference map[int]float64,
	deviate func(float64, float64) float64) model.MetricResult {
	res := model.MetricResult{Metric: m, Available: true, Mode: model.ModelBaseline}
	var compared int
	for _, n := range notes {
		v := value(n)
		p := point(n, v)
		if ref, ok := reference[n.entry.LineNumber]; ok && ref != 0 {
			d := deviate(ref, v)
			p.Deviation = &d
			compared++
		}
		res.Points = append(res.Points, p)
	}
	if compared == 0 {
		return unavailable(m, ErrNoData)
	}
	return res
}

func modelMetrics(tk model.Take, sc *model.Score, ref *ModelReference) (model.MetricResult, model.MetricResult) {
	if ref == nil {
		return unavailable(model.ModelToneLengthening, ErrNoModel), unavailable(model.ModelDynamics, ErrNoModel)
	}
	if tk.IsModel {
		return unavailable(model.ModelToneLengthening, ErrModelTake), unavailable(model.ModelDynamics, ErrModelTake)
	}
	tl := relativeToModel(model.ModelToneLengthening, ioiNotes(tk, sc),
		func(n note) float64 { return n.event.IOIMillis }, ref.IOI, ModelIOIDeviation)
	dyn := relativeToModel(model.ModelDynamics, selectNotes(tk, sc, model.Dynamics),
		func(n note) float64 { return float64(n.event.Velocity) }, ref.Velocity, ModelVelocityDeviation)
	return tl, dyn
}
