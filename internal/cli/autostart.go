package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
)

func init() {
	autostartStatusCmd.Flags().BoolVar(&autostartJSON, "json", false, "Output the status as JSON")
	autostartCmd.AddCommand(autostartEnableCmd, autostartDisableCmd, autostartSyncCmd, autostartStatusCmd)
	rootCmd.AddCommand(autostartCmd)
}

var autostartJSON bool

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Manage the desktop autostart entry for the idle timeline",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Install the autostart entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAutostart(cmd, true)
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the autostart entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAutostart(cmd, false)
	},
}

var autostartSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Install or remove the entry to match start_on_boot",
	Args:  cobra.NoArgs,
	RunE:  runAutostartSync,
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the autostart entry is installed",
	Args:  cobra.NoArgs,
	RunE:  runAutostartStatus,
}

// setAutostart writes the entry and keeps start_on_boot in agreement, as
// the preferences application's checkbox does.
func setAutostart(cmd *cobra.Command, on bool) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Autostart.Sync(on); err != nil {
		return err
	}
	if _, err := d.Store.Update(func(s *domain.Settings) error {
		s.StartOnBoot = on
		return nil
	}); err != nil {
		return err
	}

	if on {
		fmt.Printf("Autostart enabled: %s\n", d.Autostart.Path())
	} else {
		fmt.Println("Autostart disabled.")
	}
	return nil
}

func runAutostartSync(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	on := d.Store.Load().StartOnBoot
	if err := d.Autostart.Sync(on); err != nil {
		return err
	}
	state := "disabled"
	if on {
		state = "enabled"
	}
	fmt.Printf("Autostart %s (start_on_boot=%t)\n", state, on)
	return nil
}

func runAutostartStatus(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	st, err := d.Autostart.Status()
	if err != nil {
		return err
	}
	if autostartJSON {
		return printJSON(st)
	}

	fmt.Printf("Path:      %s\n", st.Path)
	fmt.Printf("Installed: %s\n", yesNo(st.Installed))
	if !st.Installed {
		return nil
	}
	fmt.Printf("Enabled:   %s\n", yesNo(st.Enabled))
	fmt.Printf("Exec:      %s\n", st.Exec)
	if st.Stale {
		fmt.Println("Warning: entry points at a different command; run 'sidekick autostart enable' to refresh it.")
	}
	return nil
}
