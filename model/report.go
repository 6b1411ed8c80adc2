package model

import "time"

type TakeReport struct {
	Name       string          `json:"name"`
	IsModel    bool            `json:"is_model"`
	Success    bool            `json:"success"`
	Errors     int             `json:"errors"`
	Alignment  AlignmentResult `json:"-"`
	Deviations *TakeDeviations `json:"deviations,omitempty"`
}

type Report struct {
	ID                 string       `json:"id"`
	CreatedAt          time.Time    `json:"created_at"`
	ScoreName          string       `json:"score"`
	TargetBPM          *float64     `json:"target_bpm,omitempty"`
	GraphWidth         int          `json:"graph_width"`
	VelocityGraphWidth int          `json:"velocity_graph_width"`
	XAxisLimit         int          `json:"x_axis_limit"`
	BadTakes           []string     `json:"bad_takes"`
	Takes              []TakeReport `json:"takes"`
}
