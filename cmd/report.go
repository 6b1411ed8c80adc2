package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsphweid/perfgrade/store"
)

var reportLimit int

func init() {
	reportCmd.Flags().IntVar(&reportLimit, "limit", 20, "number of runs to list")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Lists past runs or prints one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			rep, err := s.GetRun(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}

		runs, err := s.ListRuns(reportLimit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			bpm := "mean"
			if r.TargetBPM != nil {
				bpm = fmt.Sprintf("%v bpm", *r.TargetBPM)
			}
			fmt.Fprintf(out, "%v  %v  %-20v takes: %v, failed: %v, baseline: %v\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.ScoreName, r.TakeCount, r.FailedCount, bpm)
		}
		return nil
	},
}
