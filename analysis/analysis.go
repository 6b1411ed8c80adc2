// Package analysis runs a full grading pass: validate the score, align
// every take and compute deviations for the takes that aligned.
package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jsphweid/perfgrade/align"
	"github.com/jsphweid/perfgrade/constants"
	"github.com/jsphweid/perfgrade/deviation"
	"github.com/jsphweid/perfgrade/logger"
	"github.com/jsphweid/perfgrade/model"
	"github.com/jsphweid/perfgrade/score"
	"github.com/jsphweid/perfgrade/table"
)

type Input struct {
	Score *table.Table
	Takes []model.Take
}

type Analyzer struct {
	validator *score.Validator
	log       logger.Interface
	workers   int
	targetBPM *float64
	now       func() time.Time
}

type Option func(*Analyzer)

func WithLogger(l logger.Interface) Option {
	return func(a *Analyzer) { a.log = l }
}

func WithValidator(v *score.Validator) Option {
	return func(a *Analyzer) { a.validator = v }
}

func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithTargetBPM switches tone lengthening to the target tempo baseline.
func WithTargetBPM(bpm float64) Option {
	return func(a *Analyzer) { a.targetBPM = &bpm }
}

func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		log:     logger.Nop(),
		workers: constants.DefaultWorkers,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.validator == nil {
		a.validator = score.NewValidator(score.WithLogger(a.log))
	}
	return a
}

// Run validates the score table and grades every take against it. Any
// validation error, including a *score.RepairNotice, stops the run before
// alignment.
func (a *Analyzer) Run(ctx context.Context, in Input) (*model.Report, error) {
	if a.targetBPM != nil {
		if _, err := deviation.TargetIOI(*a.targetBPM); err != nil {
			return nil, err
		}
	}
	sc, err := a.validator.Validate(in.Score)
	if err != nil {
		return nil, err
	}

	ref := a.modelReference(sc, in.Takes)
	takes, err := a.grade(ctx, sc, in.Takes, ref)
	if err != nil {
		return nil, err
	}

	rep := &model.Report{
		ID:                 uuid.NewString(),
		CreatedAt:          a.now().UTC(),
		ScoreName:          sc.Name,
		TargetBPM:          a.targetBPM,
		GraphWidth:         sc.GraphWidth,
		VelocityGraphWidth: sc.VelocityGraphWidth,
		XAxisLimit:         sc.XAxisLimit,
		BadTakes:           []string{},
		Takes:              takes,
	}
	for _, tr := range takes {
		if !tr.Success {
			rep.BadTakes = append(rep.BadTakes, tr.Name)
		}
	}
	a.log.Infof("run %v: %d takes, %d failed alignment", rep.ID, len(takes), len(rep.BadTakes))
	return rep, nil
}

// modelReference aligns the first model take, if any. Without one, or when
// it fails to align, the model metrics report no data.
func (a *Analyzer) modelReference(sc *model.Score, takes []model.Take) *deviation.ModelReference {
	for _, tk := range takes {
		if !tk.IsModel {
			continue
		}
		ref, err := deviation.NewModelReference(align.Align(tk, sc), sc)
		if err != nil {
			a.log.Warnf("model take %v: %v, model comparison disabled", tk.Name, err)
			return nil
		}
		return ref
	}
	return nil
}

func (a *Analyzer) gradeTake(sc *model.Score, tk model.Take, ref *deviation.ModelReference) model.TakeReport {
	res := align.Align(tk, sc, align.WithLogger(a.log))
	tr := model.TakeReport{
		Name:      tk.Name,
		IsModel:   tk.IsModel,
		Success:   res.Success,
		Errors:    res.ErrorCount(),
		Alignment: res,
	}
	if !res.Success {
		a.log.Warnf("take %v failed alignment at events %d and %d", tk.Name, res.ForwardMismatch, res.BackwardMismatch)
		return tr
	}
	devs := deviation.Calculate(res, sc, deviation.Options{TargetBPM: a.targetBPM, Model: ref})
	tr.Deviations = &devs
	return tr
}

// grade fans the takes out over the worker pool. The score and the model
// reference are shared read-only and every result lands in its own slot.
func (a *Analyzer) grade(ctx context.Context, sc *model.Score, takes []model.Take, ref *deviation.ModelReference) ([]model.TakeReport, error) {
	res := make([]model.TakeReport, len(takes))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res[i] = a.gradeTake(sc, takes[i], ref)
			}
		}()
	}

	var err error
feed:
	for i := range takes {
		if err = ctx.Err(); err != nil {
			break
		}
		a.log.Debugf("Processing %v of %v takes", i+1, len(takes))
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, fmt.Errorf("grading takes: %w", err)
	}
	return res, nil
}
