package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jsphweid/perfgrade/config"
	"github.com/jsphweid/perfgrade/logger"
)

var (
	cfgFile string
	cfg     = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "perfgrade",
	Short: "Grades recorded performances against a score",
	Long: `perfgrade aligns recorded takes (MIDI files or converted take sheets) to a
score sheet and reports tone lengthening, dynamics, articulation and note
duration for every matched note.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
}

func loadConfig() error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	logger.GetLogger().SetLevel(c.Level())
	return nil
}

func Execute() {
	cobra.CheckErr(rootCmd.ExecuteContext(context.Background()))
}
