package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sidekick-screensaver/sidekick/internal/daemon"
	"github.com/sidekick-screensaver/sidekick/internal/domain"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the selected widget, scripts, running widgets and recent activity",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()
	ctx := cmd.Context()

	res := domain.Resolve(d.Store.Load())
	settingsState := "defaults (no file)"
	if d.Store.Exists() {
		settingsState = d.Store.Path()
	}
	fmt.Printf("Settings:  %s\n", settingsState)
	fmt.Printf("Widget:    %s (%s)\n", res.Widget, res.Rule)

	if d.DB != nil {
		scripts, err := d.DB.GetState(ctx, daemon.StateScriptWidget)
		if err != nil {
			return err
		}
		switch {
		case scripts == "":
			fmt.Println("Scripts:   never generated by sidekick")
		case scripts != res.Widget.String():
			fmt.Printf("Scripts:   generated for %s, run 'sidekick autolock' to update\n", scripts)
		default:
			fmt.Printf("Scripts:   up to date (%s)\n", d.Config.Paths.Autolock)
		}
	}

	running, err := d.Launcher.Running(ctx)
	if err != nil {
		return err
	}
	if len(running) == 0 {
		fmt.Println("Running:   none")
	}
	for _, p := range running {
		fmt.Printf("Running:   %s (pid %d)\n", p.Program, p.PID)
	}

	if st, err := d.Autostart.Status(); err == nil {
		fmt.Printf("Autostart: %s\n", yesNo(st.Installed && st.Enabled))
	}

	if d.DB == nil {
		return nil
	}
	for _, kind := range []domain.EventKind{domain.EventLaunch, domain.EventWake} {
		ev, err := d.DB.LastEvent(ctx, kind)
		if err != nil {
			return err
		}
		label := fmt.Sprintf("Last %s:", kind)
		if ev == nil {
			fmt.Printf("%-12s never\n", label)
			continue
		}
		fmt.Printf("%-12s %s ago %s\n", label, time.Since(ev.CreatedAt).Round(time.Second), orDash(ev.Widget))
	}
	return nil
}
