package model

type Metric string

const (
	ToneLengthening Metric = "tone_lengthening"
	Dynamics        Metric = "dynamics"
	Articulation    Metric = "articulation"
	NoteDuration    Metric = "note_duration"

	// relative to the model take, line by line
	ModelToneLengthening Metric = "model_tone_lengthening"
	ModelDynamics        Metric = "model_dynamics"
)

type BaselineMode string

const (
	MeanBaseline   BaselineMode = "mean"
	TargetBaseline BaselineMode = "target"
	ModelBaseline  BaselineMode = "model"
)

type DeviationPoint struct {
	LineNumber      int     `json:"line_number"`
	TimestampTicks  int64   `json:"timestamp_ticks"`
	TimestampMillis float64 `json:"timestamp_millis"`
	// Value is the raw sample (IOI ms, velocity, articulation ms, duration ms)
	Value float64 `json:"value"`
	// Deviation is a percentage, only set for tone lengthening and dynamics.
	// Model metrics leave it unset where the model has no value for the line.
	Deviation      *float64 `json:"deviation,omitempty"`
	BarlineSpacing float64  `json:"barline_spacing"`
}

type MetricResult struct {
	Metric    Metric           `json:"metric"`
	Available bool             `json:"available"`
	Reason    string           `json:"reason,omitempty"`
	Mode      BaselineMode     `json:"mode,omitempty"`
	Baseline  float64          `json:"baseline,omitempty"`
	Points    []DeviationPoint `json:"points"`
}

type TakeDeviations struct {
	TakeName     string       `json:"take"`
	ToneLength   MetricResult `json:"tone_lengthening"`
	Dynamics     MetricResult `json:"dynamics"`
	Articulation MetricResult `json:"articulation"`
	NoteDuration MetricResult `json:"note_duration"`

	ModelToneLength MetricResult `json:"model_tone_lengthening"`
	ModelDynamics   MetricResult `json:"model_dynamics"`
}

// Metrics returns pointers to every metric, in report order.
func (d *TakeDeviations) Metrics() []*MetricResult {
	return []*MetricResult{&d.ToneLength, &d.Dynamics, &d.Articulation, &d.NoteDuration,
		&d.ModelToneLength, &d.ModelDynamics}
}
