// Package store keeps the history of analysis runs in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jsphweid/perfgrade/model"
)

var ErrNotFound = errors.New("run not found")

type Run struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt   time.Time `gorm:"index:idx_run_created"`
	ScoreName   string    `gorm:"index:idx_run_score"`
	TargetBPM   *float64
	TakeCount   int
	FailedCount int
	// Report is the full report as JSON, per-note values included
	Report string
	Takes  []TakeResult `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TakeResult holds the per-take aggregates so runs can be compared without
// decoding every report.
type TakeResult struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	RunID        string `gorm:"type:varchar(36);index:idx_take_run"`
	Name         string
	IsModel      bool
	Success      bool
	Errors       int
	IOIBaseline  *float64
	MeanVelocity *float64
}

type RunSummary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ScoreName   string    `json:"score"`
	TargetBPM   *float64  `json:"target_bpm,omitempty"`
	TakeCount   int       `json:"takes"`
	FailedCount int       `json:"failed"`
}

type Store struct {
	DB *gorm.DB
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	// sqlite allows one writer
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Run{}, &TakeResult{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Store{DB: db, db: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func metricBaseline(m model.MetricResult) *float64 {
	if !m.Available {
		return nil
	}
	b := m.Baseline
	return &b
}

func (s *Store) SaveReport(rep *model.Report) error {
	b, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	run := Run{
		ID:          rep.ID,
		CreatedAt:   rep.CreatedAt,
		ScoreName:   rep.ScoreName,
		TargetBPM:   rep.TargetBPM,
		TakeCount:   len(rep.Takes),
		FailedCount: len(rep.BadTakes),
		Report:      string(b),
	}
	for _, tr := range rep.Takes {
		res := TakeResult{Name: tr.Name, IsModel: tr.IsModel, Success: tr.Success, Errors: tr.Errors}
		if tr.Deviations != nil {
			res.IOIBaseline = metricBaseline(tr.Deviations.ToneLength)
			res.MeanVelocity = metricBaseline(tr.Deviations.Dynamics)
		}
		run.Takes = append(run.Takes, res)
	}
	if err := s.DB.Create(&run).Error; err != nil {
		return fmt.Errorf("saving run %v: %w", rep.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first, at most limit of them when
// limit is positive.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	var runs []Run
	q := s.DB.Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	res := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		res = append(res, RunSummary{
			ID:          r.ID,
			CreatedAt:   r.CreatedAt,
			ScoreName:   r.ScoreName,
			TargetBPM:   r.TargetBPM,
			TakeCount:   r.TakeCount,
			FailedCount: r.FailedCount,
		})
	}
	return res, nil
}

func (s *Store) GetRun(id string) (*model.Report, error) {
	var run Run
	err := s.DB.Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching run %v: %w", id, err)
	}
	var rep model.Report
	if err := json.Unmarshal([]byte(run.Report), &rep); err != nil {
		return nil, fmt.Errorf("decoding run %v: %w", id, err)
	}
	return &rep, nil
}

func (s *Store) TakeResults(runID string) ([]TakeResult, error) {
	var res []TakeResult
	if err := s.DB.Where("run_id = ?", runID).Order("id").Find(&res).Error; err != nil {
		return nil, fmt.Errorf("fetching takes of run %v: %w", runID, err)
	}
	return res, nil
}
