package settingsfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "screensaver", "settings.json"), domain.DefaultSettings("/media"))
}

func writeRaw(t *testing.T, s *Store, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte(body), 0o644))
}

// ─── Load ───────────────────────────────────────────────────────────────────

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, s.Defaults(), s.Load())
	assert.False(t, s.Exists())
}

func TestLoad_CorruptFileYieldsDefaults(t *testing.T) {
	for name, body := range map[string]string{
		"truncated": `{"enabled": false, "screensaver_type": "Myst`,
		"garbage":   "not json at all",
		"empty":     "",
		"array":     `[1, 2, 3]`,
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			writeRaw(t, s, body)
			assert.Equal(t, s.Defaults(), s.Load())
			assert.Error(t, s.Check())
		})
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	s := newTestStore(t)
	writeRaw(t, s, `{"enabled": true, "screensaver_type": "Mystify", "speed": 40}`)

	got := s.Load()
	want := s.Defaults()
	want.ScreensaverType = "Mystify"
	want.Speed = 40
	assert.Equal(t, want, got)
}

func TestLoad_IgnoresUnknownKeys(t *testing.T) {
	s := newTestStore(t)
	writeRaw(t, s, `{"effect": "matrix", "legacy_thing": [1,2], "color": "blue"}`)

	got := s.Load()
	assert.Equal(t, "blue", got.Color)
	assert.NoError(t, s.Check())
}

func TestLoad_WrongTypeKeepsDefaultForThatKey(t *testing.T) {
	s := newTestStore(t)
	writeRaw(t, s, `{"speed": "fast", "color": "red"}`)

	got := s.Load()
	assert.Equal(t, s.Defaults().Speed, got.Speed)
	assert.Equal(t, "red", got.Color)
	assert.Error(t, s.Check())
}

// ─── Save ───────────────────────────────────────────────────────────────────

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	r := s.Defaults()
	r.SelectWidget(domain.WidgetVideos)
	r.VideoFolder = "/mnt/usb/videos"
	r.LockTimeout = 120
	r.VideoPlaybackSpeed = 1.5

	require.NoError(t, s.Save(r))
	assert.Equal(t, r, s.Load())
}

func TestSave_PartialRecordRoundTripsAsMerge(t *testing.T) {
	s := newTestStore(t)
	writeRaw(t, s, `{"enabled": false}`)

	loaded := s.Load()
	require.NoError(t, s.Save(loaded))

	want := s.Defaults()
	want.Enabled = false
	assert.Equal(t, want, s.Load())
}

func TestSave_KeepsForeignKeys(t *testing.T) {
	s := newTestStore(t)
	writeRaw(t, s, `{"effect": "matrix", "legacy_thing": [1, 2], "color": "blue", "screensaver_type": "Mystify"}`)

	_, err := s.Update(func(cfg *domain.Settings) error {
		cfg.SelectWidget(domain.WidgetVideos)
		cfg.Color = "red"
		return nil
	})
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "matrix", raw["effect"])
	assert.Equal(t, []any{1.0, 2.0}, raw["legacy_thing"])
	assert.Equal(t, "red", raw["color"])
	assert.Equal(t, "Videos", raw["screensaver_type"])

	assert.Equal(t, "Videos", s.Load().ScreensaverType)
}

func TestSave_DropsClearedScreensaverType(t *testing.T) {
	s := newTestStore(t)
	writeRaw(t, s, `{"screensaver_type": "Mystify", "effect": "matrix"}`)

	require.NoError(t, s.Save(s.Defaults()))

	got := s.Load()
	assert.Empty(t, got.ScreensaverType, "a cleared type must not be resurrected from the old file")
}

func TestUpdate_UnknownStoredTypeDoesNotBlockEdits(t *testing.T) {
	s := newTestStore(t)
	writeRaw(t, s, `{"enabled": true, "screensaver_type": "Banana"}`)

	got, err := s.Update(func(cfg *domain.Settings) error {
		return Merge(cfg, []byte(`{"speed": 30}`))
	})
	require.NoError(t, err)
	assert.Equal(t, 30, got.Speed)
	assert.Equal(t, domain.WidgetMatrix, domain.Resolve(got).Widget)
}

func TestSave_WritesIndentedJSONAndLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(s.Defaults()))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"enabled\": true")

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestSave_UnwritableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	ro := filepath.Join(dir, "ro")
	require.NoError(t, os.Mkdir(ro, 0o500))
	s := New(filepath.Join(ro, "settings.json"), domain.DefaultSettings(""))

	err := s.Save(s.Defaults())
	assert.ErrorIs(t, err, domain.ErrSettingsWrite)
}

func TestSave_ConcurrentReadersNeverSeeTornRecords(t *testing.T) {
	s := newTestStore(t)

	a := s.Defaults()
	a.SelectWidget(domain.WidgetMystify)
	a.Color, a.Speed, a.MystifyShapes = "red", 10, 2

	b := s.Defaults()
	b.SelectWidget(domain.WidgetSlideshow)
	b.Color, b.Speed, b.MystifyShapes = "blue", 45, 7

	require.NoError(t, s.Save(a))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			rec := a
			if i%2 == 1 {
				rec = b
			}
			if err := s.Save(rec); err != nil {
				t.Errorf("Save: %v", err)
				return
			}
		}
		close(stop)
	}()

	reads := 0
	for done := false; !done; {
		select {
		case <-stop:
			done = true
		default:
		}
		got := s.Load()
		if got != a && got != b {
			t.Fatalf("observed torn record: %+v", got)
		}
		reads++
	}
	wg.Wait()
	assert.Positive(t, reads)
}

// ─── Lifecycle ──────────────────────────────────────────────────────────────

func TestEnsureDefaults(t *testing.T) {
	s := newTestStore(t)

	created, err := s.EnsureDefaults()
	require.NoError(t, err)
	assert.True(t, created)

	var onDisk map[string]any
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, true, onDisk["enabled"])

	created, err = s.EnsureDefaults()
	require.NoError(t, err)
	assert.False(t, created)
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Update(func(cfg *domain.Settings) error {
		cfg.SelectWidget(domain.WidgetSlideshow)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Slideshow", got.ScreensaverType)
	assert.Equal(t, got, s.Load())
}

func TestUpdate_CallbackErrorSkipsSave(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Update(func(cfg *domain.Settings) error {
		cfg.Color = "red"
		return domain.ErrInvalidValue
	})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	assert.False(t, s.Exists())
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	writeRaw(t, s, `{"enabled": false, "color": "red"}`)
	require.NoError(t, s.Reset())
	assert.Equal(t, s.Defaults(), s.Load())
}
