package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Exit after the first wake")
	watchCmd.Flags().Uint64Var(&watchThreshold, "threshold", 0, "Interrupt delta that counts as activity (overrides config)")
	watchCmd.Flags().StringVar(&watchInterval, "interval", "", "Sampling interval, e.g. 2s (overrides config)")
	rootCmd.AddCommand(watchCmd)
}

var (
	watchOnce      bool
	watchThreshold uint64
	watchInterval  string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stop the running widget on USB or HID input activity",
	Long: `Sample /proc/interrupts and stop the running widget as soon as the
USB and HID interrupt counters move by more than the threshold. Useful when
the widget itself cannot see keyboard or mouse input.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	if watchThreshold > 0 {
		d.Config.Watch.Threshold = watchThreshold
	}
	if watchInterval != "" {
		d.Config.Watch.Interval = watchInterval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Watching input activity (interval %s, threshold %d)\n",
		d.Config.WatchInterval(), d.Config.Watch.Threshold)
	if err := d.WatchActivity(ctx, watchOnce); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
