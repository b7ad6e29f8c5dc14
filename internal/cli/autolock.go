package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	autolockCmd.Flags().BoolVar(&autolockPrint, "print", false, "Print the scripts instead of writing them")
	autolockCmd.Flags().BoolVar(&autolockJSON, "json", false, "Output the result as JSON")
	rootCmd.AddCommand(autolockCmd)
}

var (
	autolockPrint bool
	autolockJSON  bool
)

var autolockCmd = &cobra.Command{
	Use:   "autolock",
	Short: "Regenerate the autolock and idle scripts from the settings file",
	Long: `Read settings.json, select the widget and rewrite the autolock launcher
script and the swayidle timeline. Run this after the preferences change.`,
	Args: cobra.NoArgs,
	RunE: runAutolock,
}

func runAutolock(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	if autolockPrint {
		s := d.Store.Load()
		script, res := d.Generator.Render(s)
		if res.Warning != "" {
			fmt.Fprintln(os.Stderr, "Warning:", res.Warning)
		}
		fmt.Printf("# ─── %s ───\n", d.Config.Paths.Autolock)
		os.Stdout.Write(script)
		fmt.Printf("\n# ─── %s ───\n", d.Config.Paths.IdleScript)
		os.Stdout.Write(d.Generator.RenderIdle(s))
		return nil
	}

	res, err := d.Regenerate(cmd.Context())
	if err != nil {
		return err
	}
	if autolockJSON {
		return printJSON(res)
	}

	fmt.Printf("Widget: %s (%s)\n", res.Widget, res.Rule)
	if res.Warning != "" {
		fmt.Printf("Warning: %s\n", res.Warning)
	}
	fmt.Printf("Autolock script %s: %s\n", changedState(res.AutolockChanged), res.AutolockPath)
	if res.IdlePath != "" {
		fmt.Printf("Idle script %s: %s\n", changedState(res.IdleChanged), res.IdlePath)
	}
	return nil
}

func changedState(changed bool) string {
	if changed {
		return "updated"
	}
	return "unchanged"
}
