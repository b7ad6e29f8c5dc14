package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
	"github.com/sidekick-screensaver/sidekick/internal/infra/fsutil"
)

// ─── Check Implementations ──────────────────────────────────────────────────

// Binary checks that name is on PATH.
func Binary(name, purpose string, advisory bool) Check {
	return Check{
		Name:     "binary:" + name,
		Advisory: advisory,
		CheckFn: func(context.Context) error {
			if _, err := exec.LookPath(name); err != nil {
				return fmt.Errorf("%s not found (%s)", name, purpose)
			}
			return nil
		},
	}
}

// Display checks for a graphical session.
func Display(sess domain.SessionDetector) Check {
	return Check{
		Name: "display",
		CheckFn: func(context.Context) error {
			if !sess.HasDisplay() {
				return domain.ErrNoDisplay
			}
			return nil
		},
	}
}

// SettingsFile checks that the settings file parses cleanly. A missing
// file is healthy: defaults apply.
func SettingsFile(check func() error) Check {
	return Check{
		Name:    "settings_file",
		CheckFn: func(context.Context) error { return check() },
	}
}

// Widgets checks that every widget program is installed in binDir.
func Widgets(binDir string, programs []string) Check {
	return Check{
		Name: "widgets",
		CheckFn: func(context.Context) error {
			var missing []error
			for _, p := range programs {
				if _, err := os.Stat(filepath.Join(binDir, p)); err != nil {
					missing = append(missing, fmt.Errorf("%w: %s", domain.ErrWidgetMissing, p))
				}
			}
			return errors.Join(missing...)
		},
	}
}

// Script checks that the file at path holds exactly what render produces
// now, and rewrites it through regenerate when it does not.
func Script(name, path string, render func() []byte, regenerate func(ctx context.Context) error) Check {
	return Check{
		Name: name,
		CheckFn: func(context.Context) error {
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if !fsutil.SameContent(path, render()) {
				return fmt.Errorf("%s is out of date with the settings file", path)
			}
			return nil
		},
		RecoverFn: regenerate,
	}
}

// Pinger checks a dependency with a Ping method, such as the history DB.
func Pinger(name string, ping func() error) Check {
	return Check{
		Name:     name,
		Advisory: true,
		CheckFn:  func(context.Context) error { return ping() },
	}
}
