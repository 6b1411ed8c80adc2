package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/jsphweid/perfgrade/analysis"
	"github.com/jsphweid/perfgrade/config"
	"github.com/jsphweid/perfgrade/file"
	"github.com/jsphweid/perfgrade/logger"
	"github.com/jsphweid/perfgrade/model"
	"github.com/jsphweid/perfgrade/report"
	"github.com/jsphweid/perfgrade/score"
	"github.com/jsphweid/perfgrade/store"
	"github.com/jsphweid/perfgrade/table"
	"github.com/jsphweid/perfgrade/take"
)

var runStore *store.Store

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the grading API",
	Long:  `Serves POST /validate, POST /analyze, GET /runs and GET /runs/{id}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := LoadServeFiles(cfg); err != nil {
			return err
		}
		defer runStore.Close()
		logger.GetLogger().Infof("listening on %v", cfg.ListenAddr)
		return http.ListenAndServe(cfg.ListenAddr, NewRouter())
	},
}

// LoadServeFiles opens the run history the handlers read and write.
func LoadServeFiles(c *config.Config) error {
	cfg = c
	s, err := store.Open(c.DBPath)
	if err != nil {
		return err
	}
	runStore = s
	return nil
}

func NewRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/validate", HandleValidate).Methods("POST")
	router.HandleFunc("/analyze", HandleAnalyze).Methods("POST")
	router.HandleFunc("/runs", HandleListRuns).Methods("GET")
	router.HandleFunc("/runs/{id}", HandleGetRun).Methods("GET")
	return handlers.LoggingHandler(os.Stderr, cors.Default().Handler(router))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("could not decode request body: %w", err)
	}
	return nil
}

func scoreStatus(err error) int {
	var he *score.HeaderError
	var se *score.StructuralError
	switch {
	case errors.As(err, &he), errors.As(err, &se), errors.Is(err, score.ErrMissingSentinel), errors.Is(err, score.ErrNoEntries):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func HandleValidate(w http.ResponseWriter, r *http.Request) {
	var input model.ValidateRequestBody
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tbl, err := table.Read(strings.NewReader(input.Score))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	v := score.NewValidator(score.WithLogger(logger.GetLogger()))
	res := model.ValidateResponse{BadHeaders: v.CheckHeaders(tbl)}
	sc, err := v.Validate(tbl)
	var notice *score.RepairNotice
	if errors.As(err, &notice) {
		res.Corrected = true
		sc, err = v.Validate(tbl)
	}
	if err != nil {
		res.Message = err.Error()
		writeJSON(w, scoreStatus(err), res)
		return
	}
	res.Valid = true
	res.Entries = sc.NumEntries()
	writeJSON(w, http.StatusOK, res)
}

func HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var input model.AnalyzeRequestBody
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(input.Takes) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("at least one take is required"))
		return
	}

	c := *cfg
	if input.TargetBPM != nil {
		c.TargetBPM = input.TargetBPM
	}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tbl, err := table.Read(strings.NewReader(input.Score))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tbl.Path = input.ScoreName

	takes := make([]model.Take, 0, len(input.Takes))
	for i, ti := range input.Takes {
		name := ti.Name
		if name == "" {
			name = fmt.Sprintf("take %d", i+1)
		}
		tk, err := take.Read(name, strings.NewReader(ti.CSV), c.HeaderRows)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("take %v: %w", name, err))
			return
		}
		takes = append(takes, tk)
	}
	if input.Model != nil {
		name := input.Model.Name
		if name == "" {
			name = file.ModelTakeName
		}
		tk, err := take.Read(name, strings.NewReader(input.Model.CSV), c.HeaderRows)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("model take: %w", err))
			return
		}
		tk.IsModel = true
		takes = append(takes, tk)
	}

	log := logger.GetLogger()
	a := analyzerFor(&c, log, nil)
	rep, _, err := runWithRepair(r.Context(), a, analysis.Input{Score: tbl, Takes: takes}, log)
	if err != nil {
		writeError(w, scoreStatus(err), err)
		return
	}
	if runStore != nil {
		if err := runStore.SaveReport(rep); err != nil {
			log.Errorf("saving run %v: %v", rep.ID, err)
		}
	}
	writeJSON(w, http.StatusOK, report.Round(rep))
}

func HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if runStore == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("run history is not available"))
		return
	}
	runs, err := runStore.ListRuns(0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func HandleGetRun(w http.ResponseWriter, r *http.Request) {
	if runStore == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("run history is not available"))
		return
	}
	rep, err := runStore.GetRun(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Round(rep))
}
