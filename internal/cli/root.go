// Package cli implements the sidekick command-line interface using Cobra.
// Each subcommand maps to one screensaver operation (autolock, launch,
// stop, watch, etc.).
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidekick-screensaver/sidekick/internal/daemon"
	"github.com/sidekick-screensaver/sidekick/internal/logging"
)

var (
	configPath string
	verbose    bool

	// cfg is loaded once per invocation by the root pre-run hook.
	cfg       daemon.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "sidekick",
	Short: "Screensaver settings, autolock and launcher",
	Long: `sidekick keeps the screensaver's generated scripts in step with the
preferences file and starts or stops the selected widget.

The preferences application writes settings.json; sidekick reads it,
selects one widget, regenerates the autolock and idle scripts, and
launches the widget when the session goes idle.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to sidekick.toml (default "+daemon.ConfigPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := daemon.LoadConfigFile(effectiveConfigPath())
	if err != nil {
		return err
	}
	if verbose {
		c.Logging.Level = "debug"
	}
	cfg = c

	closer, err := logging.Setup(logging.Options{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	logCloser = closer
	if err != nil {
		// File logging is optional; stderr still works.
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}
	return nil
}
