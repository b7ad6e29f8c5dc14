package autolock

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) RecordEvent(_ context.Context, ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func newTestGenerator(t *testing.T, rec domain.EventRecorder) *Generator {
	t.Helper()
	dir := t.TempDir()
	return New(Options{
		BinDir:       "/home/pi/.local/bin",
		Interpreter:  "python3",
		PIDFile:      "/tmp/sidekick_screensaver.pid",
		AutolockPath: filepath.Join(dir, "sidekick_autolock.sh"),
		IdlePath:     filepath.Join(dir, "sidekick_idle.sh"),
	}, rec)
}

func settingsWith(fn func(*domain.Settings)) domain.Settings {
	s := domain.DefaultSettings("/home/pi/screensaver-media")
	fn(&s)
	return s
}

// ─── Render ─────────────────────────────────────────────────────────────────

func TestRender_Mystify(t *testing.T) {
	g := newTestGenerator(t, nil)
	script, res := g.Render(settingsWith(func(s *domain.Settings) { s.ScreensaverType = "Mystify" }))

	assert.Equal(t, domain.WidgetMystify, res.Widget)
	body := string(script)
	assert.True(t, strings.HasPrefix(body, "#!/bin/bash\n"))
	assert.Contains(t, body, "cd /home/pi/.local/bin || exit 1\n")
	assert.Contains(t, body, "nohup python3 mystify_widget.py >/dev/null 2>&1 &\n")
	assert.Contains(t, body, "echo $! > /tmp/sidekick_screensaver.pid\n")
	assert.Contains(t, body, `export DISPLAY="${DISPLAY:-:0}"`)
	assert.Contains(t, body, `export WAYLAND_DISPLAY="${WAYLAND_DISPLAY:-wayland-0}"`)
	assert.NotContains(t, body, "sidekick_widget.py")
}

func TestRender_EachWidgetUsesItsProgram(t *testing.T) {
	g := newTestGenerator(t, nil)
	for _, id := range domain.Widgets() {
		prog, ok := Program(id)
		require.True(t, ok)
		script, res := g.Render(settingsWith(func(s *domain.Settings) { s.SelectWidget(id) }))
		assert.Equal(t, id, res.Widget)
		assert.Contains(t, string(script), "python3 "+prog, id.String())
	}
}

func TestRender_UnknownTypeFallsBackToMatrix(t *testing.T) {
	g := newTestGenerator(t, nil)
	script, res := g.Render(settingsWith(func(s *domain.Settings) { s.ScreensaverType = "Banana" }))

	assert.Equal(t, domain.WidgetMatrix, res.Widget)
	assert.NotEmpty(t, res.Warning)
	assert.Contains(t, string(script), "python3 sidekick_widget.py")
	assert.Contains(t, string(script), "# Warning: ")
}

func TestRender_DisabledExitsImmediately(t *testing.T) {
	g := newTestGenerator(t, nil)
	script, res := g.Render(settingsWith(func(s *domain.Settings) { s.Enabled = false }))

	assert.Equal(t, domain.WidgetNone, res.Widget)
	assert.Contains(t, string(script), "\nexit 0\n")
	assert.NotContains(t, string(script), "nohup")
}

func TestRender_DisplayTarget(t *testing.T) {
	g := newTestGenerator(t, nil)

	script, _ := g.Render(settingsWith(func(s *domain.Settings) { s.DisplayTarget = "display0" }))
	assert.Contains(t, string(script), "export DISPLAY=:0\n")

	script, _ = g.Render(settingsWith(func(s *domain.Settings) { s.DisplayTarget = "display1" }))
	assert.Contains(t, string(script), "export DISPLAY=:1\n")
}

func TestRender_NoInterpreterRunsProgramDirectly(t *testing.T) {
	g := New(Options{BinDir: "/opt/widgets", PIDFile: "/tmp/w.pid"}, nil)
	script, _ := g.Render(domain.DefaultSettings(""))
	assert.Contains(t, string(script), "nohup ./sidekick_widget.py ")
}

func TestRender_QuotesPaths(t *testing.T) {
	g := New(Options{BinDir: "/home/pi/my widgets", Interpreter: "python3", PIDFile: "/tmp/it's.pid"}, nil)
	script, _ := g.Render(domain.DefaultSettings(""))
	assert.Contains(t, string(script), "cd '/home/pi/my widgets' || exit 1")
	assert.Contains(t, string(script), `echo $! > '/tmp/it'\''s.pid'`)
}

func TestRender_Deterministic(t *testing.T) {
	g := newTestGenerator(t, nil)
	s := settingsWith(func(s *domain.Settings) { s.ScreensaverType = "Videos" })

	a, _ := g.Render(s)
	b, _ := g.Render(s)
	assert.Equal(t, a, b)
	assert.Equal(t, g.RenderIdle(s), g.RenderIdle(s))
}

// ─── RenderIdle ─────────────────────────────────────────────────────────────

func TestRenderIdle_Timeline(t *testing.T) {
	g := newTestGenerator(t, nil)
	body := string(g.RenderIdle(domain.DefaultSettings("")))

	assert.Contains(t, body, "exec swayidle -w \\\n")
	assert.Contains(t, body, "    timeout 300 \""+g.opts.AutolockPath+"\" \\\n")
	assert.Contains(t, body, "    timeout 600 \"pkill -f sidekick_widget.py; pkill -f mystify_widget.py; pkill -f video_widget.py; pkill -f slideshow_widget.py; wlopm --off '*'")
	assert.Contains(t, body, "    resume \"pkill -f sidekick_widget.py;")
	assert.Contains(t, body, "wlopm --on '*' 2>/dev/null || xset dpms force on\" \\\n")
	assert.Contains(t, body, "    before-sleep \"pkill")
	assert.True(t, strings.HasSuffix(body, "xset dpms force off\"\n"))
}

func TestRenderIdle_Display1(t *testing.T) {
	g := newTestGenerator(t, nil)
	body := string(g.RenderIdle(settingsWith(func(s *domain.Settings) { s.DisplayTarget = "display1" })))

	assert.Contains(t, body, "# Target: Display 1 (HDMI-A-2)")
	assert.Contains(t, body, "wlopm --off HDMI-A-2 2>/dev/null || xset -display :1 dpms force off")
	assert.NotContains(t, body, "HDMI-A-1")
}

func TestRenderIdle_DisabledKeepsPowerManagement(t *testing.T) {
	g := newTestGenerator(t, nil)
	body := string(g.RenderIdle(settingsWith(func(s *domain.Settings) { s.Enabled = false })))

	assert.NotContains(t, body, "timeout 300")
	assert.Contains(t, body, "timeout 600")
}

func TestRenderIdle_LaunchCommand(t *testing.T) {
	g := New(Options{AutolockPath: "/x/autolock.sh", LaunchArgs: []string{"/usr/bin/sidekick", "launch"}}, nil)
	body := string(g.RenderIdle(domain.DefaultSettings("")))
	assert.Contains(t, body, `timeout 300 "/usr/bin/sidekick launch" \`)
}

func TestRenderIdle_ShutdownStepsOnlyWhenEnabled(t *testing.T) {
	g := newTestGenerator(t, nil)
	body := string(g.RenderIdle(settingsWith(func(s *domain.Settings) {
		s.ShutdownTimeout = 60
		s.DisplayShutdownTimeout = 30
	})))

	assert.NotContains(t, body, "timeout 1800")
	assert.NotContains(t, body, "timeout 3600")
	assert.NotContains(t, body, "shutdown -h now")
}

func TestRenderIdle_DisplayShutdown(t *testing.T) {
	g := newTestGenerator(t, nil)
	body := string(g.RenderIdle(settingsWith(func(s *domain.Settings) {
		s.DisplayShutdown = true
		s.DisplayShutdownTimeout = 30
	})))

	assert.Contains(t, body, "#   1800s: displays shut down\n")
	assert.Contains(t, body, "    timeout 1800 \"pkill -f sidekick_widget.py;")
	assert.NotContains(t, body, "shutdown -h now")
}

func TestRenderIdle_AutoShutdown(t *testing.T) {
	g := newTestGenerator(t, nil)
	body := string(g.RenderIdle(settingsWith(func(s *domain.Settings) {
		s.AutoShutdown = true
		s.ShutdownTimeout = 45
	})))

	assert.Contains(t, body, "#   2700s: power off\n")
	assert.Contains(t, body, "    timeout 2700 \"shutdown -h now\" \\\n")
	assert.True(t, strings.HasSuffix(body, "xset dpms force off\"\n"))
}

func TestRenderIdle_ZeroShutdownTimeoutSkipsStep(t *testing.T) {
	g := newTestGenerator(t, nil)
	body := string(g.RenderIdle(settingsWith(func(s *domain.Settings) {
		s.AutoShutdown = true
		s.ShutdownTimeout = 0
	})))

	assert.NotContains(t, body, "shutdown -h now")
}

// ─── Regenerate ─────────────────────────────────────────────────────────────

func TestRegenerate_WritesExecutableScripts(t *testing.T) {
	rec := &recorder{}
	g := newTestGenerator(t, rec)
	ctx := context.Background()
	s := settingsWith(func(s *domain.Settings) { s.ScreensaverType = "Slideshow" })

	res, err := g.Regenerate(ctx, s)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, domain.WidgetSlideshow, res.Widget)

	for _, p := range []string{g.opts.AutolockPath, g.opts.IdlePath} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm(), p)
	}

	want, _ := g.Render(s)
	got, err := os.ReadFile(g.opts.AutolockPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.Len(t, rec.events, 1)
	assert.Equal(t, domain.EventRegenerate, rec.events[0].Kind)
	assert.Equal(t, "Slideshow", rec.events[0].Widget)
}

func TestRegenerate_Idempotent(t *testing.T) {
	g := newTestGenerator(t, nil)
	ctx := context.Background()
	s := domain.DefaultSettings("")

	_, err := g.Regenerate(ctx, s)
	require.NoError(t, err)
	first, err := os.ReadFile(g.opts.AutolockPath)
	require.NoError(t, err)

	res, err := g.Regenerate(ctx, s)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	second, err := os.ReadFile(g.opts.AutolockPath)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRegenerate_ReportsChangePerScript(t *testing.T) {
	g := newTestGenerator(t, nil)
	ctx := context.Background()

	_, err := g.Regenerate(ctx, settingsWith(func(s *domain.Settings) { s.LockTimeout = 300 }))
	require.NoError(t, err)

	res, err := g.Regenerate(ctx, settingsWith(func(s *domain.Settings) { s.LockTimeout = 120 }))
	require.NoError(t, err)
	assert.False(t, res.AutolockChanged)
	assert.True(t, res.IdleChanged)
	assert.True(t, res.Changed)

	res, err = g.Regenerate(ctx, settingsWith(func(s *domain.Settings) {
		s.LockTimeout = 120
		s.ScreensaverType = "Mystify"
	}))
	require.NoError(t, err)
	assert.True(t, res.AutolockChanged)
	assert.False(t, res.IdleChanged)
}

func TestRegenerate_ReplacesPreviousWidget(t *testing.T) {
	g := newTestGenerator(t, nil)
	ctx := context.Background()

	_, err := g.Regenerate(ctx, settingsWith(func(s *domain.Settings) { s.ScreensaverType = "Matrix" }))
	require.NoError(t, err)
	res, err := g.Regenerate(ctx, settingsWith(func(s *domain.Settings) { s.ScreensaverType = "Videos" }))
	require.NoError(t, err)
	assert.True(t, res.Changed)

	got, err := os.ReadFile(g.opts.AutolockPath)
	require.NoError(t, err)
	assert.Contains(t, string(got), "video_widget.py")
	assert.NotContains(t, string(got), "sidekick_widget.py")
}

func TestRegenerate_WriteFailure(t *testing.T) {
	rec := &recorder{}
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	g := New(Options{AutolockPath: filepath.Join(blocker, "autolock.sh")}, rec)
	_, err := g.Regenerate(context.Background(), domain.DefaultSettings(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrScriptWrite)

	require.Len(t, rec.events, 1)
	assert.Equal(t, domain.EventFailure, rec.events[0].Kind)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func TestShellQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "''"},
		{"/usr/bin/python3", "/usr/bin/python3"},
		{"a b", "'a b'"},
		{"it's", `'it'\''s'`},
		{"$HOME", "'$HOME'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shellQuote(tt.in), tt.in)
	}
}

func TestDoubleQuote(t *testing.T) {
	assert.Equal(t, `"a \"b\" \$c"`, doubleQuote(`a "b" $c`))
}

func TestPrograms(t *testing.T) {
	assert.Equal(t, []string{"sidekick_widget.py", "mystify_widget.py", "video_widget.py", "slideshow_widget.py"}, Programs())
	_, ok := Program(domain.WidgetNone)
	assert.False(t, ok)
}
