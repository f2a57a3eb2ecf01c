package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var watchSchedule string

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep a directory indexed",
	Long: `Index every supported file under a directory, then follow changes:
new and modified files are re-indexed, deleted files removed.

A full rescan also runs on a cron schedule (default from watch.rescan_schedule,
for example "@every 15m" or "0 * * * *") to catch missed events. Pass
--schedule "" to disable it. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron schedule for full rescans")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if newWatcher == nil {
		return notConfigured("watch")
	}

	dir, schedule := "", watchSchedule
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			dir = s.Watch.Dir
			if !cmd.Flags().Changed("schedule") {
				schedule = s.Watch.RescanSchedule
			}
		}
	}
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return errors.New("no directory to watch: pass one or set watch.dir")
	}

	w, err := newWatcher(dir, schedule)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl-C to stop)\n", dir)
	return w.Run(cmd.Context())
}
