package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sidekick-screensaver/sidekick/internal/daemon"
	"github.com/sidekick-screensaver/sidekick/internal/domain"
	"github.com/sidekick-screensaver/sidekick/internal/infra/settingsfile"
)

func init() {
	settingsShowCmd.Flags().BoolVar(&settingsJSON, "json", false, "Print the record as JSON")
	for _, c := range []*cobra.Command{settingsSetCmd, settingsSelectCmd, settingsResetCmd} {
		c.Flags().BoolVar(&settingsApply, "apply", false, "Regenerate the scripts after saving")
	}
	settingsCmd.AddCommand(settingsShowCmd, settingsGetCmd, settingsSetCmd,
		settingsSelectCmd, settingsResetCmd, settingsPathCmd)
	rootCmd.AddCommand(settingsCmd)
}

var (
	settingsJSON  bool
	settingsApply bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or edit the screensaver preferences file",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every setting, with defaults filled in",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one setting and save the file",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsSelectCmd = &cobra.Command{
	Use:   "select WIDGET",
	Short: "Select a widget (Matrix, Mystify, Videos, Slideshow or None)",
	Long: `Select a widget the way the preferences application does: set
screensaver_type and mirror the choice into the legacy mode flags.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsSelect,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Overwrite the settings file with the defaults",
	Args:  cobra.NoArgs,
	RunE:  runSettingsReset,
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(cfg.Paths.Settings)
		return nil
	},
}

// settingsStore opens the store without the rest of the runtime.
func settingsStore() *settingsfile.Store {
	return settingsfile.New(cfg.Paths.Settings, domain.DefaultSettings(cfg.Paths.MediaRoot))
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	s := settingsStore().Load()
	if settingsJSON {
		return printJSON(s)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	for _, k := range settingsfile.Keys(s) {
		v, err := settingsfile.Get(s, k)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%v\n", k, v)
	}
	return w.Flush()
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	v, err := settingsfile.Get(settingsStore().Load(), args[0])
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	if _, err := settingsStore().Update(func(s *domain.Settings) error {
		return settingsfile.Set(s, key, raw)
	}); err != nil {
		return err
	}
	fmt.Printf("Set %s = %s\n", key, raw)
	return applyIfRequested(cmd)
}

func runSettingsSelect(cmd *cobra.Command, args []string) error {
	id, err := domain.ParseWidget(args[0])
	if err != nil {
		return err
	}
	if _, err := settingsStore().Update(func(s *domain.Settings) error {
		s.SelectWidget(id)
		return nil
	}); err != nil {
		return err
	}
	fmt.Printf("Selected %s\n", id)
	return applyIfRequested(cmd)
}

func runSettingsReset(cmd *cobra.Command, args []string) error {
	st := settingsStore()
	if err := st.Reset(); err != nil {
		return err
	}
	fmt.Printf("Reset %s to defaults\n", st.Path())
	return applyIfRequested(cmd)
}

// applyIfRequested regenerates the scripts and syncs the autostart entry
// when --apply was given, as the preferences application's Apply does.
func applyIfRequested(cmd *cobra.Command) error {
	if !settingsApply {
		return nil
	}
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()
	return apply(cmd, d)
}

func apply(cmd *cobra.Command, d *daemon.Daemon) error {
	res, err := d.Regenerate(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Scripts regenerated for %s\n", res.Widget)
	if err := d.Autostart.Sync(d.Store.Load().StartOnBoot); err != nil {
		return err
	}
	return nil
}
