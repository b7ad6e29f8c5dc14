package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("SIDEKICK_HOME", "/tmp/sidekick-home")
	cfg := DefaultConfig()

	assert.Equal(t, "127.0.0.1", cfg.API.Host)
	assert.Equal(t, 7788, cfg.API.Port)
	assert.Equal(t, "python3", cfg.Launcher.Interpreter)
	assert.Equal(t, uint64(50), cfg.Watch.Threshold)
	assert.Equal(t, "/tmp/sidekick-home", cfg.Paths.StateDir)
	assert.Equal(t, "settings.json", filepath.Base(cfg.Paths.Settings))
	assert.Equal(t, "screensaver", filepath.Base(filepath.Dir(cfg.Paths.Settings)))
}

func TestLoadConfigFile_MissingUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFile_OverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sidekick.toml")
	body := `
[paths]
bin_dir = "/opt/sidekick"

[launcher]
settle_delay = "1s"
interpreter = ""

[watch]
threshold = 80
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/sidekick", cfg.Paths.BinDir)
	assert.Equal(t, time.Second, cfg.SettleDelay())
	assert.Empty(t, cfg.Launcher.Interpreter)
	assert.Equal(t, uint64(80), cfg.Watch.Threshold)
	assert.Equal(t, DefaultConfig().Paths.Settings, cfg.Paths.Settings)
}

func TestLoadConfigFile_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sidekick.toml")
	require.NoError(t, os.WriteFile(path, []byte("[paths\nbroken"), 0o644))

	_, err := LoadConfigFile(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sidekick.toml")
	cfg := DefaultConfig()
	cfg.API.Port = 9000

	require.NoError(t, SaveConfig(path, cfg))
	got, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"250ms", 250 * time.Millisecond},
		{"3s", 3 * time.Second},
		{"", time.Minute},
		{"soon", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDuration(tt.input, time.Minute))
		})
	}
}
