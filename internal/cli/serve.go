package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not regenerate scripts when the settings file changes")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost    string
	servePort    int
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local preferences API",
	Long: `Serve the settings, apply, launch and history endpoints on
localhost:7788 and keep the generated scripts in step with the settings
file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	// Override config from flags
	if serveHost != "" {
		d.Config.API.Host = serveHost
	}
	if servePort > 0 {
		d.Config.API.Port = servePort
	}
	if serveNoWatch {
		d.Config.API.Watch = false
	}
	d.Server.SetVersion(rootCmd.Version)

	return d.Serve(cmd.Context())
}
