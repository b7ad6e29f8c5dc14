package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidekick-screensaver/sidekick/internal/app/launcher"
)

func init() {
	rootCmd.AddCommand(launchCmd)
}

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Stop any running widget and start the selected one",
	Long: `Kill every running widget, wait briefly, then start the widget the
settings file selects. Nothing is started when the screensaver is disabled,
there is no display, or the session is remote and physical_only is set.`,
	Args: cobra.NoArgs,
	RunE: runLaunch,
}

func runLaunch(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.Launcher.Run(cmd.Context())
	if err != nil {
		return err
	}

	if res.Terminated > 0 {
		fmt.Printf("Stopped %d running widget%s\n", res.Terminated, plural(res.Terminated))
	}
	switch res.Outcome {
	case launcher.OutcomeLaunched:
		fmt.Printf("Launched %s (pid %d)\n", res.Resolution.Widget, res.PID)
	case launcher.OutcomeDisabled:
		fmt.Println("Screensaver disabled, nothing launched.")
	case launcher.OutcomeNoDisplay:
		fmt.Println("No display available, nothing launched.")
	case launcher.OutcomeRemote:
		fmt.Println("Remote session, nothing launched (physical_only is set).")
	}
	return nil
}
