package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
)

func init() {
	rootCmd.AddCommand(stopCmd)
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop every running screensaver widget",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	n, err := d.Launcher.Stop(cmd.Context())
	if errors.Is(err, domain.ErrNoWidgetActive) {
		fmt.Println("No widget running.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Stopped %d widget%s\n", n, plural(n))
	return nil
}
