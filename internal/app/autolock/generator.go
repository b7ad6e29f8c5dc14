// Package autolock renders the scripts that start the selected screensaver
// widget. The autolock script launches exactly one widget and records its
// PID; the idle script drives the swayidle timeline around it.
//
// Rendering is deterministic: the same settings record always produces the
// same bytes, so regenerating is idempotent.
package autolock

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
	"github.com/sidekick-screensaver/sidekick/internal/infra/fsutil"
	"github.com/sidekick-screensaver/sidekick/internal/infra/metrics"
)

// poweroffCommand runs at shutdown_timeout when auto_shutdown is set.
const poweroffCommand = "shutdown -h now"

// Options locates the generated scripts and what they run.
type Options struct {
	BinDir         string // directory holding the widget programs
	Interpreter    string // e.g. python3; empty runs the program directly
	PIDFile        string // where the autolock script records the widget PID
	AutolockPath   string
	IdlePath       string
	LaunchArgs     []string // run by swayidle at lock_timeout; defaults to AutolockPath
	Display        string   // DISPLAY used when the environment has none
	WaylandDisplay string   // WAYLAND_DISPLAY used when the environment has none
}

// Generator renders and writes the autolock and idle scripts.
type Generator struct {
	opts   Options
	events domain.EventRecorder
}

// Result describes one regeneration.
type Result struct {
	domain.Resolution
	AutolockPath string `json:"autolock_path"`
	IdlePath     string `json:"idle_path,omitempty"`
	// Changed is set when either script's content differs from what was on disk.
	Changed         bool `json:"changed"`
	AutolockChanged bool `json:"autolock_changed"`
	IdleChanged     bool `json:"idle_changed"`
}

// New creates a Generator. events may be nil.
func New(opts Options, events domain.EventRecorder) *Generator {
	if opts.Display == "" {
		opts.Display = ":0"
	}
	if opts.WaylandDisplay == "" {
		opts.WaylandDisplay = "wayland-0"
	}
	return &Generator{opts: opts, events: events}
}

// Options returns the generator's options.
func (g *Generator) Options() Options { return g.opts }

// Render produces the autolock script for s and the resolution behind it.
func (g *Generator) Render(s domain.Settings) ([]byte, domain.Resolution) {
	res := domain.Resolve(s)

	data := autolockData{
		Widget:   res.Widget.String(),
		Rule:     res.Rule,
		Warning:  res.Warning,
		Disabled: res.Widget == domain.WidgetNone,
		PIDFile:  shellQuote(g.opts.PIDFile),
		BinDir:   shellQuote(g.opts.BinDir),
		Wayland:  `"${WAYLAND_DISPLAY:-` + escapeDouble(g.opts.WaylandDisplay) + `}"`,
	}
	switch s.DisplayTarget {
	case "display0":
		data.Display = ":0"
	case "display1":
		data.Display = ":1"
	default:
		data.Display = `"${DISPLAY:-` + escapeDouble(g.opts.Display) + `}"`
	}
	if prog, ok := Program(res.Widget); ok {
		data.Command = g.command(prog)
	}

	var buf bytes.Buffer
	if err := autolockTmpl.Execute(&buf, data); err != nil {
		// The template and its data are fixed; a failure here is a bug.
		panic(fmt.Sprintf("render autolock script: %v", err))
	}
	return buf.Bytes(), res
}

// RenderIdle produces the swayidle timeline script for s. A disabled
// screensaver still gets display power management, only the lock_timeout
// step is dropped. display_shutdown and auto_shutdown add their own steps,
// converted from minutes, when set.
func (g *Generator) RenderIdle(s domain.Settings) []byte {
	res := domain.Resolve(s)
	out := displayPower(s.DisplayTarget)
	kill := g.killCommand()

	data := idleData{
		Target:         out.desc,
		DisplayTimeout: max(s.DisplayTimeout, 0),
		Off:            doubleQuote(kill + "; " + out.off),
		On:             doubleQuote(kill + "; " + out.on),
	}
	if res.Widget != domain.WidgetNone && s.LockTimeout > 0 {
		data.LockTimeout = s.LockTimeout
		data.Launch = doubleQuote(g.launchCommand())
	}
	if s.DisplayShutdown && s.DisplayShutdownTimeout > 0 {
		data.DisplayShutdown = s.DisplayShutdownTimeout * 60
	}
	if s.AutoShutdown && s.ShutdownTimeout > 0 {
		data.Shutdown = s.ShutdownTimeout * 60
		data.Poweroff = doubleQuote(poweroffCommand)
	}

	var buf bytes.Buffer
	if err := idleTmpl.Execute(&buf, data); err != nil {
		panic(fmt.Sprintf("render idle script: %v", err))
	}
	return buf.Bytes()
}

// Regenerate renders both scripts for s and replaces them on disk. It is
// safe while a widget is running; only future launches are affected.
func (g *Generator) Regenerate(ctx context.Context, s domain.Settings) (Result, error) {
	script, res := g.Render(s)
	if res.Warning != "" {
		log.Printf("[autolock] WARNING: %s", res.Warning)
		metrics.ResolutionFallbacks.Inc()
	}

	result := Result{Resolution: res, AutolockPath: g.opts.AutolockPath}
	result.AutolockChanged = !fsutil.SameContent(g.opts.AutolockPath, script)
	result.Changed = result.AutolockChanged
	if err := fsutil.WriteFileAtomic(g.opts.AutolockPath, script, 0o755); err != nil {
		g.record(ctx, domain.Event{Kind: domain.EventFailure, Widget: res.Widget.String(), Detail: err.Error()})
		return result, fmt.Errorf("%w: %s: %w", domain.ErrScriptWrite, g.opts.AutolockPath, err)
	}

	if g.opts.IdlePath != "" {
		idle := g.RenderIdle(s)
		result.IdlePath = g.opts.IdlePath
		result.IdleChanged = !fsutil.SameContent(g.opts.IdlePath, idle)
		result.Changed = result.Changed || result.IdleChanged
		if err := fsutil.WriteFileAtomic(g.opts.IdlePath, idle, 0o755); err != nil {
			g.record(ctx, domain.Event{Kind: domain.EventFailure, Widget: res.Widget.String(), Detail: err.Error()})
			return result, fmt.Errorf("%w: %s: %w", domain.ErrScriptWrite, g.opts.IdlePath, err)
		}
	}

	metrics.Regenerations.WithLabelValues(res.Widget.String()).Inc()
	log.Printf("[autolock] Wrote %s for %s (rule %s, changed=%v)", g.opts.AutolockPath, res.Widget, res.Rule, result.Changed)
	g.record(ctx, domain.Event{
		Kind:   domain.EventRegenerate,
		Widget: res.Widget.String(),
		Detail: res.Rule,
	})
	return result, nil
}

func (g *Generator) record(ctx context.Context, ev domain.Event) {
	if g.events == nil {
		return
	}
	if err := g.events.RecordEvent(ctx, ev); err != nil {
		log.Printf("[autolock] WARNING: record %s event: %v", ev.Kind, err)
	}
}

// command builds the shell command line that starts prog.
func (g *Generator) command(prog string) string {
	if g.opts.Interpreter == "" {
		return shellQuote("./" + prog)
	}
	return shellQuote(g.opts.Interpreter) + " " + shellQuote(prog)
}

func (g *Generator) launchCommand() string {
	if len(g.opts.LaunchArgs) == 0 {
		return shellQuote(g.opts.AutolockPath)
	}
	quoted := make([]string, len(g.opts.LaunchArgs))
	for i, a := range g.opts.LaunchArgs {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

func (g *Generator) killCommand() string {
	progs := Programs()
	parts := make([]string, len(progs))
	for i, p := range progs {
		parts[i] = "pkill -f " + shellQuote(p)
	}
	return strings.Join(parts, "; ")
}

// ─── Display power ──────────────────────────────────────────────────────────

type powerCommands struct {
	desc string
	off  string
	on   string
}

// displayPower maps display_target to wlopm commands with an xset fallback
// for X11 sessions. HDMI-A-1 is display 0 and HDMI-A-2 display 1 on a Pi.
func displayPower(target string) powerCommands {
	switch target {
	case "display0":
		return powerCommands{
			desc: "Display 0 (HDMI-A-1)",
			off:  "wlopm --off HDMI-A-1 2>/dev/null || xset -display :0 dpms force off",
			on:   "wlopm --on HDMI-A-1 2>/dev/null || xset -display :0 dpms force on",
		}
	case "display1":
		return powerCommands{
			desc: "Display 1 (HDMI-A-2)",
			off:  "wlopm --off HDMI-A-2 2>/dev/null || xset -display :1 dpms force off",
			on:   "wlopm --on HDMI-A-2 2>/dev/null || xset -display :1 dpms force on",
		}
	default:
		return powerCommands{
			desc: "All displays",
			off:  "wlopm --off '*' 2>/dev/null || xset dpms force off",
			on:   "wlopm --on '*' 2>/dev/null || xset dpms force on",
		}
	}
}
