package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/sidekick-screensaver/sidekick/internal/daemon"
)

// openDaemon wires the runtime from the loaded configuration.
func openDaemon() (*daemon.Daemon, error) {
	return daemon.NewWithConfig(cfg)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// yesNo renders a boolean for human-readable tables.
func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// orDash renders an empty string as "-".
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// plural returns "s" unless n is 1.
func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
