// Package daemon loads the sidekick tool configuration and wires the
// settings store, generator, launcher and history into one runtime.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the tool configuration. User preferences are not here; they
// live in the JSON settings file that Paths.Settings points at.
type Config struct {
	Paths    PathsConfig    `toml:"paths"`
	Launcher LauncherConfig `toml:"launcher"`
	Watch    WatchConfig    `toml:"watch"`
	API      APIConfig      `toml:"api"`
	Logging  LoggingConfig  `toml:"logging"`
}

// PathsConfig locates every file sidekick reads or writes.
type PathsConfig struct {
	Settings   string `toml:"settings"`    // JSON preferences record
	BinDir     string `toml:"bin_dir"`     // installed widget programs
	Autolock   string `toml:"autolock"`    // generated launcher script
	IdleScript string `toml:"idle_script"` // generated swayidle timeline
	PIDFile    string `toml:"pid_file"`    // pid of the running widget
	MediaRoot  string `toml:"media_root"`  // default slideshow/video folders
	Autostart  string `toml:"autostart"`   // XDG autostart directory
	StateDir   string `toml:"state_dir"`   // history database
}

// LauncherConfig controls how widgets are started and stopped.
type LauncherConfig struct {
	Interpreter    string `toml:"interpreter"`     // empty runs the program directly
	SettleDelay    string `toml:"settle_delay"`    // pause between kill and spawn
	TerminateGrace string `toml:"terminate_grace"` // SIGTERM → SIGKILL window
	Display        string `toml:"display"`         // DISPLAY exported when unset
	WaylandDisplay string `toml:"wayland_display"` // WAYLAND_DISPLAY exported when unset
}

// WatchConfig tunes the USB/HID wake watcher.
type WatchConfig struct {
	Interval  string `toml:"interval"`
	Grace     string `toml:"grace"`
	Threshold uint64 `toml:"threshold"`
}

// APIConfig controls the local preferences API.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
	Watch   bool   `toml:"watch"` // regenerate scripts when the settings file changes
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level     string `toml:"level"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

// DefaultConfig returns the layout used by the installer on Raspberry Pi OS.
func DefaultConfig() Config {
	home := userHome()
	return Config{
		Paths: PathsConfig{
			Settings:   filepath.Join(home, ".config", "screensaver", "settings.json"),
			BinDir:     filepath.Join(home, ".local", "bin"),
			Autolock:   filepath.Join(home, ".local", "bin", "sidekick_autolock.sh"),
			IdleScript: filepath.Join(home, ".local", "bin", "sidekick_idle.sh"),
			PIDFile:    filepath.Join(os.TempDir(), "sidekick_screensaver.pid"),
			MediaRoot:  filepath.Join(home, "screensaver-media"),
			Autostart:  filepath.Join(home, ".config", "autostart"),
			StateDir:   sidekickHome(),
		},
		Launcher: LauncherConfig{
			Interpreter:    "python3",
			SettleDelay:    "500ms",
			TerminateGrace: "2s",
			Display:        ":0",
			WaylandDisplay: "wayland-0",
		},
		Watch: WatchConfig{
			Interval:  "2s",
			Grace:     "10s",
			Threshold: 50,
		},
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    7788,
			Metrics: true,
			Watch:   true,
		},
		Logging: LoggingConfig{
			Level:     "info",
			File:      filepath.Join(sidekickHome(), "sidekick.log"),
			MaxSizeMB: 10,
			MaxFiles:  2,
		},
	}
}

// ConfigPath returns the location of sidekick.toml.
func ConfigPath() string {
	return filepath.Join(sidekickHome(), "sidekick.toml")
}

// LoadConfig reads sidekick.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	return LoadConfigFile(ConfigPath())
}

// LoadConfigFile reads the given TOML file over the defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet, use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to path.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// SettleDelay is the parsed launcher settle delay.
func (c Config) SettleDelay() time.Duration {
	return parseDuration(c.Launcher.SettleDelay, 500*time.Millisecond)
}

// TerminateGrace is the parsed SIGTERM grace period.
func (c Config) TerminateGrace() time.Duration {
	return parseDuration(c.Launcher.TerminateGrace, 2*time.Second)
}

// WatchInterval is the parsed wake watcher sampling interval.
func (c Config) WatchInterval() time.Duration {
	return parseDuration(c.Watch.Interval, 2*time.Second)
}

// WatchGrace is the parsed wake watcher startup grace period.
func (c Config) WatchGrace() time.Duration {
	return parseDuration(c.Watch.Grace, 10*time.Second)
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// sidekickHome returns the sidekick tool directory.
func sidekickHome() string {
	if env := os.Getenv("SIDEKICK_HOME"); env != "" {
		return env
	}
	return filepath.Join(userHome(), ".config", "sidekick")
}

// SidekickHome is exported for use by other packages.
func SidekickHome() string {
	return sidekickHome()
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
