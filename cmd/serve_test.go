package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jsphweid/perfgrade/config"
	"github.com/jsphweid/perfgrade/constants"
	"github.com/jsphweid/perfgrade/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoreCSV = `Line number,Note,Duration,Include? (Y/N),Include TL,Include Dyn.,Include Art.,Include N.D.,Space for barline,Graph Width,Vel. Graph Width,X-axis limit
1,C4,0.25,Y,Y,Y,Y,Y,1,600,500,20
2,D4,0.25,Y,Y,Y,Y,Y,1
3,E4,0.25,Y,N,Y,N,Y,1
END
`

func takeCSV(notes ...string) string {
	var b strings.Builder
	for i := 0; i < constants.TakeHeaderRows; i++ {
		b.WriteString("0,0,0,Header,,,,\n")
	}
	b.WriteString("1,0,0,Start_track,,,,\n")
	ms := 0
	for _, n := range notes {
		b.WriteString("1,0," + strconv.Itoa(ms) + ",Note_on_c,0,60," + n + ",80\n")
		b.WriteString("1,0," + strconv.Itoa(ms+400) + ",Note_off_c,0,60," + n + ",0\n")
		ms += 500
	}
	b.WriteString("0,0," + strconv.Itoa(ms) + ",End_of_file,,,,\n")
	return b.String()
}

func post(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func setupStore(t *testing.T) {
	t.Helper()
	c := config.Default()
	c.DBPath = filepath.Join(t.TempDir(), "runs.sqlite3")
	require.NoError(t, LoadServeFiles(c))
	t.Cleanup(func() {
		runStore.Close()
		runStore = nil
	})
}

func TestHandleValidate(t *testing.T) {
	w := post(t, HandleValidate, model.ValidateRequestBody{Score: scoreCSV})
	require.Equal(t, http.StatusOK, w.Code)
	var res model.ValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Valid)
	assert.Equal(t, 3, res.Entries)
}

func TestHandleValidateReportsBadHeaders(t *testing.T) {
	bad := strings.Replace(scoreCSV, "Include TL", "TL", 1)
	w := post(t, HandleValidate, model.ValidateRequestBody{Score: bad})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var res model.ValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"TL"}, res.BadHeaders)
}

func TestHandleValidateCorrectsLastEntry(t *testing.T) {
	bad := strings.Replace(scoreCSV, "3,E4,0.25,Y,N,Y,N,Y,1", "3,E4,0.25,Y,Y,Y,N,Y,1", 1)
	w := post(t, HandleValidate, model.ValidateRequestBody{Score: bad})
	require.Equal(t, http.StatusOK, w.Code)
	var res model.ValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Corrected)
	assert.True(t, res.Valid)
}

func TestHandleAnalyzeSavesRun(t *testing.T) {
	setupStore(t)

	w := post(t, HandleAnalyze, model.AnalyzeRequestBody{
		ScoreName: "etude",
		Score:     scoreCSV,
		Takes: []model.TakeInput{
			{Name: "good", CSV: takeCSV("C4", "D4", "E4")},
			{Name: "bad", CSV: takeCSV("C4", "A4", "E4", "B4")},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep model.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, "etude", rep.ScoreName)
	assert.Equal(t, []string{"bad"}, rep.BadTakes)
	require.Len(t, rep.Takes, 2)
	require.NotNil(t, rep.Takes[0].Deviations)
	assert.Equal(t, model.MeanBaseline, rep.Takes[0].Deviations.ToneLength.Mode)

	req := httptest.NewRequest(http.MethodGet, "/runs/"+rep.ID, nil)
	rec := httptest.NewRecorder()
	NewRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/runs", nil)
	rec = httptest.NewRecorder()
	NewRouter().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), rep.ID)
}

func TestHandleAnalyzeRejectsBadScore(t *testing.T) {
	bad := strings.Replace(scoreCSV, "2,D4,0.25", "2,H4,0.25", 1)
	w := post(t, HandleAnalyze, model.AnalyzeRequestBody{
		Score: bad,
		Takes: []model.TakeInput{{Name: "t", CSV: takeCSV("C4")}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var res model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res.Error, "row 3")
}

func TestHandleAnalyzeRejectsBadTempo(t *testing.T) {
	bpm := -1.0
	w := post(t, HandleAnalyze, model.AnalyzeRequestBody{
		Score:     scoreCSV,
		Takes:     []model.TakeInput{{Name: "t", CSV: takeCSV("C4")}},
		TargetBPM: &bpm,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetMissingRun(t *testing.T) {
	setupStore(t)
	req := httptest.NewRequest(http.MethodGet, "/runs/nope", nil)
	rec := httptest.NewRecorder()
	NewRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChanged(t *testing.T) {
	now := time.Now()
	prev := map[string]time.Time{"a": now, "b": {}}
	assert.False(t, changed(prev, map[string]time.Time{"a": now, "b": {}}))
	assert.True(t, changed(prev, map[string]time.Time{"a": now.Add(time.Second), "b": {}}))
	assert.True(t, changed(prev, map[string]time.Time{"a": now, "b": now}))
}

func TestHandleAnalyzeWithModel(t *testing.T) {
	w := post(t, HandleAnalyze, model.AnalyzeRequestBody{
		ScoreName: "etude",
		Score:     scoreCSV,
		Takes:     []model.TakeInput{{Name: "good", CSV: takeCSV("C4", "D4", "E4")}},
		Model:     &model.TakeInput{CSV: takeCSV("C4", "D4", "E4")},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep model.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	require.Len(t, rep.Takes, 2)
	assert.Equal(t, "model", rep.Takes[1].Name)
	assert.True(t, rep.Takes[1].IsModel)
	dyn := rep.Takes[0].Deviations.ModelDynamics
	require.True(t, dyn.Available)
	assert.Equal(t, 0.0, *dyn.Points[0].Deviation)
}
