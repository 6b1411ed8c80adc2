package cmd

import (
	"context"
	"errors"
	"fmt"

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
)

var analyzeFlags struct {
	model   string
	bpm     float64
	out     string
	workers int
	noStore bool
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.model, "model", "", "reference performance analysed alongside the takes")
	f.Float64Var(&analyzeFlags.bpm, "bpm", 0, "target tempo, switches tone lengthening to the target baseline")
	f.StringVar(&analyzeFlags.out, "out", "", "output directory")
	f.IntVar(&analyzeFlags.workers, "workers", 0, "number of takes graded in parallel")
	f.BoolVar(&analyzeFlags.noStore, "no-store", false, "do not save the run to the history database")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [score] [takes...]",
	Short: "Grades takes against a score",
	Long: `Validates the score sheet, aligns every take to it and writes the deviation
tables to the output directory. Score and takes may also come from the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *cfg
		if len(args) > 0 {
			c.Score, c.Takes = args[0], args[1:]
		}
		flags := cmd.Flags()
		if flags.Changed("model") {
			c.Model = analyzeFlags.model
		}
		if flags.Changed("bpm") {
			bpm := analyzeFlags.bpm
			c.TargetBPM = &bpm
		}
		if flags.Changed("out") {
			c.OutDir = analyzeFlags.out
		}
		if flags.Changed("workers") {
			c.Workers = analyzeFlags.workers
		}
		if err := c.Validate(); err != nil {
			return err
		}

		rep, err := Analyze(cmd.Context(), &c, logger.GetLogger())
		if err != nil {
			return err
		}
		printReport(cmd, rep)

		paths, err := report.Write(c.OutDir, rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %v files to %v\n", len(paths), c.OutDir)

		if analyzeFlags.noStore {
			return nil
		}
		s, err := store.Open(c.DBPath)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.SaveReport(rep)
	},
}

func analyzerFor(c *config.Config, log logger.Interface, persister score.Persister) *analysis.Analyzer {
	opts := []analysis.Option{
		analysis.WithLogger(log),
		analysis.WithWorkers(c.Workers),
		analysis.WithValidator(score.NewValidator(score.WithPersister(persister), score.WithLogger(log))),
	}
	if c.TargetBPM != nil {
		opts = append(opts, analysis.WithTargetBPM(*c.TargetBPM))
	}
	return analysis.New(opts...)
}

// runWithRepair runs the pipeline and, when the validator corrected the
// score, runs it once more on the corrected table.
func runWithRepair(ctx context.Context, a *analysis.Analyzer, in analysis.Input, log logger.Interface) (*model.Report, *score.RepairNotice, error) {
	rep, err := a.Run(ctx, in)
	var notice *score.RepairNotice
	if !errors.As(err, &notice) {
		return rep, nil, err
	}
	log.Warnf("%v", notice)
	rep, err = a.Run(ctx, in)
	return rep, notice, err
}

// Analyze loads the score and takes named by c and grades them.
func Analyze(ctx context.Context, c *config.Config, log logger.Interface) (*model.Report, error) {
	if c.Score == "" {
		return nil, errors.New("no score given")
	}
	tbl, err := table.Load(c.Score)
	if err != nil {
		return nil, err
	}
	takes, err := file.LoadTakes(c.Takes, c.Model, c.HeaderRows)
	if err != nil {
		return nil, err
	}
	log.Infof("Grading %v takes against %v", len(takes), c.Score)

	a := analyzerFor(c, log, score.FilePersister{})
	rep, _, err := runWithRepair(ctx, a, analysis.Input{Score: tbl, Takes: takes}, log)
	return rep, err
}

func printReport(cmd *cobra.Command, rep *model.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %v, score %v\n", rep.ID, rep.ScoreName)
	for _, tr := range rep.Takes {
		status := "ok"
		if !tr.Success {
			status = "FAILED"
		}
		label := tr.Name
		if tr.IsModel {
			label += " (model)"
		}
		fmt.Fprintf(out, "  %-24v %-6v errors: %v\n", label, status, tr.Errors)
	}
	if len(rep.BadTakes) > 0 {
		fmt.Fprintf(out, "Takes that could not be aligned: %v\n", rep.BadTakes)
	}
}
