package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(psCmd)
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List running screensaver widgets",
	Args:  cobra.NoArgs,
	RunE:  runPs,
}

func runPs(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	running, err := d.Launcher.Running(cmd.Context())
	if err != nil {
		return err
	}
	if len(running) == 0 {
		fmt.Println("No widgets running.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tPROGRAM\tCOMMAND")
	for _, p := range running {
		fmt.Fprintf(w, "%d\t%s\t%s\n", p.PID, p.Program, p.Cmdline)
	}
	return w.Flush()
}
