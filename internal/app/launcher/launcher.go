// Package launcher starts exactly one screensaver widget. Each run kills
// whatever widget is already on screen, waits for the display to settle,
// checks the session and spawns the widget the settings record selects.
//
// Kill, settle and spawn are not a lock: two launchers racing may briefly
// overlap widgets. The next run cleans up.
package launcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/sidekick-screensaver/sidekick/internal/app/autolock"
	"github.com/sidekick-screensaver/sidekick/internal/domain"
	"github.com/sidekick-screensaver/sidekick/internal/infra/metrics"
	"github.com/sidekick-screensaver/sidekick/internal/infra/procs"
)

// Outcome is how a launcher run ended. Every outcome is a normal exit.
type Outcome string

const (
	OutcomeLaunched  Outcome = "launched"
	OutcomeDisabled  Outcome = "disabled"
	OutcomeNoDisplay Outcome = "no_display"
	OutcomeRemote    Outcome = "remote"
)

// Result describes one launcher run.
type Result struct {
	Outcome    Outcome            `json:"outcome"`
	Resolution *domain.Resolution `json:"resolution,omitempty"`
	PID        int                `json:"pid,omitempty"`
	Terminated int                `json:"terminated"`
}

// Options controls where widgets live and how they are started.
type Options struct {
	BinDir      string
	Interpreter string // empty runs the program directly
	PIDFile     string
	SettleDelay time.Duration
}

// spawnFunc starts a detached process and returns its pid.
type spawnFunc func(name string, args []string, dir string, env []string) (int, error)

// Launcher runs the kill → settle → check → spawn sequence.
type Launcher struct {
	store   domain.SettingsStore
	procs   domain.ProcessController
	session domain.SessionDetector
	events  domain.EventRecorder
	opts    Options
	spawn   spawnFunc
}

// New creates a Launcher. events may be nil.
func New(store domain.SettingsStore, pc domain.ProcessController, sess domain.SessionDetector, events domain.EventRecorder, opts Options) *Launcher {
	return &Launcher{
		store:   store,
		procs:   pc,
		session: sess,
		events:  events,
		opts:    opts,
		spawn:   startDetached,
	}
}

// Run starts the selected widget. Errors are returned only when the widget
// cannot be started or its PID cannot be recorded.
func (l *Launcher) Run(ctx context.Context) (Result, error) {
	start := time.Now()

	// 1. Clear the screen of any widget, ours or a stray one.
	terminated, _ := l.Stop(ctx)
	result := Result{Terminated: terminated}

	// 2. Let the compositor release the previous window.
	if err := sleepCtx(ctx, l.opts.SettleDelay); err != nil {
		return result, err
	}

	// 3. Session checks.
	if !l.session.HasDisplay() {
		log.Printf("[launcher] No DISPLAY or WAYLAND_DISPLAY, not launching")
		return l.skip(ctx, result, OutcomeNoDisplay, ""), nil
	}
	cfg := l.store.Load()
	if cfg.PhysicalOnly && l.session.IsRemote(ctx) {
		log.Printf("[launcher] Remote session and physical_only is set, not launching")
		return l.skip(ctx, result, OutcomeRemote, ""), nil
	}

	// 4. Selection.
	res := domain.Resolve(cfg)
	result.Resolution = &res
	if res.Warning != "" {
		log.Printf("[launcher] WARNING: %s", res.Warning)
		metrics.ResolutionFallbacks.Inc()
	}
	if res.Widget == domain.WidgetNone {
		log.Printf("[launcher] Screensaver disabled (%s)", res.Rule)
		return l.skip(ctx, result, OutcomeDisabled, res.Widget.String()), nil
	}

	// 5. Spawn.
	pid, err := l.start(res.Widget, cfg.DisplayTarget)
	if err != nil {
		l.record(ctx, domain.Event{Kind: domain.EventFailure, Widget: res.Widget.String(), Detail: err.Error()})
		return result, err
	}
	result.Outcome = OutcomeLaunched
	result.PID = pid
	log.Printf("[launcher] Started %s (pid %d)", res.Widget, pid)

	if err := procs.WritePIDFile(l.opts.PIDFile, pid); err != nil {
		l.record(ctx, domain.Event{Kind: domain.EventFailure, Widget: res.Widget.String(), PID: pid, Detail: err.Error()})
		return result, err
	}

	metrics.Launches.WithLabelValues(string(OutcomeLaunched), res.Widget.String()).Inc()
	metrics.LaunchLatency.Observe(time.Since(start).Seconds())
	l.record(ctx, domain.Event{Kind: domain.EventLaunch, Widget: res.Widget.String(), PID: pid, Detail: res.Rule})
	return result, nil
}

// Stop terminates every running widget and the process recorded in the
// PID file, if that process is still a widget. Failures are logged and
// skipped; the count of terminated processes is returned.
func (l *Launcher) Stop(ctx context.Context) (int, error) {
	found, err := l.procs.FindWidgets(ctx, autolock.Programs())
	if err != nil {
		log.Printf("[launcher] WARNING: %v", err)
	}

	pids := make([]int32, 0, len(found)+1)
	seen := make(map[int32]bool)
	for _, p := range found {
		if !seen[p.PID] {
			seen[p.PID] = true
			pids = append(pids, p.PID)
		}
	}
	if pid, err := procs.ReadPIDFile(l.opts.PIDFile); err != nil {
		log.Printf("[launcher] WARNING: %v", err)
	} else if pid > 0 && !seen[pid] {
		if _, ok := l.procs.WidgetProgram(ctx, pid, autolock.Programs()); ok {
			pids = append(pids, pid)
		} else {
			log.Printf("[launcher] Stale pid file (pid %d is not a widget), removing it", pid)
		}
	}

	terminated := 0
	for _, pid := range pids {
		if err := l.procs.Terminate(ctx, pid); err != nil {
			log.Printf("[launcher] WARNING: terminate widget %d: %v", pid, err)
			continue
		}
		terminated++
	}
	if err := procs.RemovePIDFile(l.opts.PIDFile); err != nil {
		log.Printf("[launcher] WARNING: remove pid file: %v", err)
	}

	if terminated > 0 {
		metrics.WidgetsTerminated.Add(float64(terminated))
		log.Printf("[launcher] Terminated %d widget process(es)", terminated)
	}
	if len(pids) == 0 {
		return 0, domain.ErrNoWidgetActive
	}
	return terminated, nil
}

// Running lists widget processes currently on screen.
func (l *Launcher) Running(ctx context.Context) ([]domain.ProcessInfo, error) {
	return l.procs.FindWidgets(ctx, autolock.Programs())
}

func (l *Launcher) start(id domain.WidgetID, target string) (int, error) {
	prog, ok := autolock.Program(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrWidgetMissing, id)
	}
	path := filepath.Join(l.opts.BinDir, prog)
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrWidgetMissing, path)
	}

	name, args := "./"+prog, []string(nil)
	if l.opts.Interpreter != "" {
		name, args = l.opts.Interpreter, []string{prog}
	}

	env := os.Environ()
	switch target {
	case "display0":
		env = append(env, "DISPLAY=:0")
	case "display1":
		env = append(env, "DISPLAY=:1")
	}

	pid, err := l.spawn(name, args, l.opts.BinDir, env)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrSpawnFailed, prog, err)
	}
	return pid, nil
}

func (l *Launcher) skip(ctx context.Context, result Result, outcome Outcome, widget string) Result {
	result.Outcome = outcome
	metrics.Launches.WithLabelValues(string(outcome), widget).Inc()
	l.record(ctx, domain.Event{Kind: domain.EventSkip, Widget: widget, Detail: string(outcome)})
	return result
}

func (l *Launcher) record(ctx context.Context, ev domain.Event) {
	if l.events == nil {
		return
	}
	if err := l.events.RecordEvent(ctx, ev); err != nil {
		log.Printf("[launcher] WARNING: record %s event: %v", ev.Kind, err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
