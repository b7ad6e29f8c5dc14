// Package autostart manages the XDG autostart entry that starts the
// screensaver idle timeline when the desktop session begins.
package autostart

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
	"github.com/sidekick-screensaver/sidekick/internal/infra/fsutil"
)

// FileName is the entry's name inside the autostart directory.
const FileName = "sidekick-screensaver.desktop"

const section = "Desktop Entry"

func init() {
	// Desktop entries are Key=Value with no padding.
	ini.PrettyFormat = false
}

// Status describes the installed entry.
type Status struct {
	Path      string `json:"path"`
	Installed bool   `json:"installed"`
	Enabled   bool   `json:"enabled"`
	Exec      string `json:"exec,omitempty"`
	Stale     bool   `json:"stale"` // Exec no longer matches what sidekick would write
}

// Manager writes and removes the autostart entry.
type Manager struct {
	dir  string
	exec string
}

// New creates a Manager for the autostart directory dir. exec is the
// command line the entry starts.
func New(dir, exec string) *Manager {
	return &Manager{dir: dir, exec: exec}
}

// Path returns the entry's location.
func (m *Manager) Path() string { return filepath.Join(m.dir, FileName) }

// Render produces the desktop entry.
func (m *Manager) Render() ([]byte, error) {
	f := ini.Empty(ini.LoadOptions{IgnoreInlineComment: true})
	sec, err := f.NewSection(section)
	if err != nil {
		return nil, fmt.Errorf("create section: %w", err)
	}

	for _, kv := range [][2]string{
		{"Type", "Application"},
		{"Name", "Sidekick Screensaver"},
		{"Comment", "Start the screensaver idle timeline"},
		{"Exec", m.exec},
		{"Icon", "preferences-desktop-screensaver"},
		{"Terminal", "false"},
		{"Categories", "Settings;System;"},
		{"X-GNOME-Autostart-enabled", "true"},
		{"StartupNotify", "false"},
	} {
		if _, err := sec.NewKey(kv[0], kv[1]); err != nil {
			return nil, fmt.Errorf("set %s: %w", kv[0], err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Enable writes the entry, replacing any previous one.
func (m *Manager) Enable() error {
	data, err := m.Render()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAutostartWrite, err)
	}
	if err := fsutil.WriteFileAtomic(m.Path(), data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrAutostartWrite, m.Path(), err)
	}
	return nil
}

// Disable removes the entry. A missing entry is not an error.
func (m *Manager) Disable() error {
	if err := os.Remove(m.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", domain.ErrAutostartWrite, err)
	}
	return nil
}

// Sync makes the entry match the start_on_boot preference.
func (m *Manager) Sync(startOnBoot bool) error {
	if startOnBoot {
		return m.Enable()
	}
	return m.Disable()
}

// Status reads the installed entry.
func (m *Manager) Status() (Status, error) {
	st := Status{Path: m.Path()}
	if _, err := os.Stat(m.Path()); os.IsNotExist(err) {
		return st, nil
	}
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, m.Path())
	if err != nil {
		return st, fmt.Errorf("read %s: %w", m.Path(), err)
	}

	sec := f.Section(section)
	st.Installed = true
	st.Exec = sec.Key("Exec").String()
	st.Stale = st.Exec != m.exec
	hidden, _ := sec.Key("Hidden").Bool()
	st.Enabled = !hidden && sec.Key("X-GNOME-Autostart-enabled").MustBool(true)
	return st, nil
}
