package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsphweid/perfgrade/align"
	"github.com/jsphweid/perfgrade/file"
	"github.com/jsphweid/perfgrade/logger"
	"github.com/jsphweid/perfgrade/score"
	"github.com/jsphweid/perfgrade/table"
	"github.com/jsphweid/perfgrade/take"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <score> <take>",
	Short: "Prints an annotated take",
	Long: `Aligns a single take to the score and prints every event with its matched
line number, include flag and error marker as CSV.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(cmd, args[0], args[1])
	},
}

func inspect(cmd *cobra.Command, scorePath, takePath string) error {
	tbl, err := table.Load(scorePath)
	if err != nil {
		return err
	}
	log := logger.GetLogger()
	sc, err := score.NewValidator(score.WithLogger(log)).Validate(tbl)
	if err != nil {
		return err
	}
	tk, err := file.LoadTake(file.TakeName(takePath), takePath, cfg.HeaderRows)
	if err != nil {
		return err
	}

	res := align.Align(tk, sc, align.WithLogger(log))
	if err := take.WriteAnnotated(cmd.OutOrStdout(), res.Take); err != nil {
		return err
	}
	status := "aligned"
	if !res.Success {
		status = "failed to align"
	}
	fmt.Fprintf(os.Stderr, "%v %v with %v error(s)\n", tk.Name, status, res.ErrorCount())
	return nil
}
