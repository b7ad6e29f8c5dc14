package autostart

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
)

const idleScript = "/home/pi/.local/bin/sidekick_idle.sh"

func TestRender(t *testing.T) {
	data, err := New(t.TempDir(), idleScript).Render()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[Desktop Entry]\n"))
	assert.Contains(t, string(data), "Exec="+idleScript+"\n")

	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	require.NoError(t, err)
	sec := f.Section("Desktop Entry")
	assert.Equal(t, "Application", sec.Key("Type").String())
	assert.Equal(t, "Settings;System;", sec.Key("Categories").String())
	assert.Equal(t, "true", sec.Key("X-GNOME-Autostart-enabled").String())
}

func TestEnableDisable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "autostart")
	m := New(dir, idleScript)

	st, err := m.Status()
	require.NoError(t, err)
	assert.False(t, st.Installed)

	require.NoError(t, m.Enable())
	st, err = m.Status()
	require.NoError(t, err)
	assert.True(t, st.Installed)
	assert.True(t, st.Enabled)
	assert.False(t, st.Stale)
	assert.Equal(t, idleScript, st.Exec)

	require.NoError(t, m.Disable())
	require.NoError(t, m.Disable())
	_, err = os.Stat(m.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestStatus_StaleAndHidden(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, idleScript)
	body := "[Desktop Entry]\nType=Application\nExec=/old/wayland_sidekick_autolock.sh\nHidden=true\n"
	require.NoError(t, os.WriteFile(m.Path(), []byte(body), 0o644))

	st, err := m.Status()
	require.NoError(t, err)
	assert.True(t, st.Installed)
	assert.True(t, st.Stale)
	assert.False(t, st.Enabled)
}

func TestSync(t *testing.T) {
	m := New(t.TempDir(), idleScript)

	require.NoError(t, m.Sync(true))
	_, err := os.Stat(m.Path())
	require.NoError(t, err)

	require.NoError(t, m.Sync(false))
	_, err = os.Stat(m.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestEnable_WriteFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := New(blocker, idleScript).Enable()
	assert.ErrorIs(t, err, domain.ErrAutostartWrite)
}
