package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidekick-screensaver/sidekick/internal/app/autolock"
	"github.com/sidekick-screensaver/sidekick/internal/domain"
)

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Output the resolution as JSON")
	rootCmd.AddCommand(resolveCmd)
}

var resolveJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show which widget the settings file selects, and why",
	Args:  cobra.NoArgs,
	RunE:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	res := domain.Resolve(d.Store.Load())
	if resolveJSON {
		return printJSON(res)
	}

	fmt.Printf("Widget:  %s\n", res.Widget)
	fmt.Printf("Rule:    %s\n", res.Rule)
	if prog, ok := autolock.Program(res.Widget); ok {
		fmt.Printf("Program: %s\n", prog)
	}
	if res.Warning != "" {
		fmt.Printf("Warning: %s\n", res.Warning)
	}
	return nil
}
