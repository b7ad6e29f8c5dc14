package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/sidekick-screensaver/sidekick/internal/daemon"
)

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configShowCmd, configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the sidekick.toml tool configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return toml.NewEncoder(os.Stdout).Encode(cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(effectiveConfigPath())
		return nil
	},
}

func effectiveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return daemon.ConfigPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := effectiveConfigPath()
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := daemon.SaveConfig(path, daemon.DefaultConfig()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
