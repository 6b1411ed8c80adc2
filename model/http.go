package model

type TakeInput struct {
	Name string `json:"name"`
	CSV  string `json:"csv"`
}

type ValidateRequestBody struct {
	Score string `json:"score"`
}

type ValidateResponse struct {
	Valid      bool     `json:"valid"`
	Entries    int      `json:"entries,omitempty"`
	BadHeaders []string `json:"bad_headers,omitempty"`
	Message    string   `json:"message,omitempty"`
	Corrected  bool     `json:"corrected,omitempty"`
}

type AnalyzeRequestBody struct {
	ScoreName string      `json:"score_name"`
	Score     string      `json:"score"`
	Takes     []TakeInput `json:"takes"`
	Model     *TakeInput  `json:"model,omitempty"`
	TargetBPM *float64    `json:"target_bpm,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
