package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/bep/debounce"
	"github.com/spf13/cobra"

	"github.com/jsphweid/perfgrade/config"
	"github.com/jsphweid/perfgrade/logger"
	"github.com/jsphweid/perfgrade/report"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [score] [takes...]",
	Short: "Re-runs the analysis whenever the score or a take changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *cfg
		if len(args) > 0 {
			c.Score, c.Takes = args[0], args[1:]
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return watch(ctx, &c, cmd.OutOrStdout())
	},
}

func watchedPaths(c *config.Config) []string {
	paths := append([]string{c.Score}, c.Takes...)
	if c.Model != "" {
		paths = append(paths, c.Model)
	}
	return paths
}

// modTimes stats every path. Missing files get the zero time so that their
// reappearance counts as a change.
func modTimes(paths []string) map[string]time.Time {
	res := make(map[string]time.Time, len(paths))
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil {
			res[p] = fi.ModTime()
		} else {
			res[p] = time.Time{}
		}
	}
	return res
}

func changed(prev, cur map[string]time.Time) bool {
	for p, t := range cur {
		if !prev[p].Equal(t) {
			return true
		}
	}
	return false
}

func watch(ctx context.Context, c *config.Config, out io.Writer) error {
	log := logger.GetLogger()
	paths := watchedPaths(c)

	runOnce := func() {
		rep, err := Analyze(ctx, c, log)
		if err != nil {
			log.Errorf("analysis failed: %v", err)
			return
		}
		if _, err := report.Write(c.OutDir, rep); err != nil {
			log.Errorf("writing report: %v", err)
			return
		}
		fmt.Fprintf(out, "Run %v written to %v, %d of %d takes failed\n", rep.ID, c.OutDir, len(rep.BadTakes), len(rep.Takes))
	}

	// the debounced callback only signals, analysis runs on this goroutine
	pending := make(chan struct{}, 1)
	signalRun := func() {
		select {
		case pending <- struct{}{}:
		default:
		}
	}
	debounced := debounce.New(c.Debounce)

	last := modTimes(paths)
	runOnce()

	ticker := time.NewTicker(c.WatchInterval)
	defer ticker.Stop()
	log.Infof("watching %d files", len(paths))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cur := modTimes(paths)
			if changed(last, cur) {
				last = cur
				debounced(signalRun)
			}
		case <-pending:
			runOnce()
		}
	}
}
