package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsphweid/perfgrade/logger"
	"github.com/jsphweid/perfgrade/score"
	"github.com/jsphweid/perfgrade/table"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <score>",
	Short: "Checks a score sheet",
	Long: `Checks the score sheet layout and values. When only the last entry's TL and
Art flags are wrong they are corrected and the sheet is saved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, err := table.Load(args[0])
		if err != nil {
			return err
		}
		v := score.NewValidator(score.WithPersister(score.FilePersister{}), score.WithLogger(logger.GetLogger()))
		sc, err := v.Validate(tbl)
		var notice *score.RepairNotice
		if errors.As(err, &notice) {
			fmt.Fprintln(cmd.OutOrStdout(), notice.Error())
			sc, err = v.Validate(tbl)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%v: %v entries, graph width %v, velocity graph width %v, x-axis limit %v\n",
			sc.Name, sc.NumEntries(), sc.GraphWidth, sc.VelocityGraphWidth, sc.XAxisLimit)
		return nil
	},
}
