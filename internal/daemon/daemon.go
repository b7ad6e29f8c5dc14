package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sidekick-screensaver/sidekick/internal/api"
	"github.com/sidekick-screensaver/sidekick/internal/app/autolock"
	"github.com/sidekick-screensaver/sidekick/internal/app/autostart"
	"github.com/sidekick-screensaver/sidekick/internal/app/launcher"
	"github.com/sidekick-screensaver/sidekick/internal/domain"
	"github.com/sidekick-screensaver/sidekick/internal/health"
	"github.com/sidekick-screensaver/sidekick/internal/infra/procs"
	"github.com/sidekick-screensaver/sidekick/internal/infra/session"
	"github.com/sidekick-screensaver/sidekick/internal/infra/settingsfile"
	"github.com/sidekick-screensaver/sidekick/internal/infra/sqlite"
)

// Daemon is the sidekick runtime. It wires together all services; the
// short-lived commands (autolock, launch, stop) use the same wiring as the
// long-running serve command.
type Daemon struct {
	Config    Config
	DB        *sqlite.DB // nil when the history database cannot be opened
	Store     *settingsfile.Store
	Generator *autolock.Generator
	Procs     *procs.Controller
	Session   *session.Detector
	Launcher  *launcher.Launcher
	Autostart *autostart.Manager
	Health    *health.Checker
	Server    *api.Server

	events domain.EventRecorder
	cancel context.CancelFunc
}

// New creates and initializes a Daemon from sidekick.toml.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration. A history
// database that cannot be opened is logged and skipped: launching and
// regenerating must keep working without it.
func NewWithConfig(cfg Config) (*Daemon, error) {
	d := &Daemon{Config: cfg}

	db, err := sqlite.Open(cfg.Paths.StateDir)
	if err != nil {
		log.Printf("[daemon] WARNING: history disabled: %v", err)
	} else {
		d.DB = db
		d.events = db
	}

	d.Store = settingsfile.New(cfg.Paths.Settings, domain.DefaultSettings(cfg.Paths.MediaRoot))

	d.Generator = autolock.New(autolock.Options{
		BinDir:         cfg.Paths.BinDir,
		Interpreter:    cfg.Launcher.Interpreter,
		PIDFile:        cfg.Paths.PIDFile,
		AutolockPath:   cfg.Paths.Autolock,
		IdlePath:       cfg.Paths.IdleScript,
		LaunchArgs:     launchArgs(),
		Display:        cfg.Launcher.Display,
		WaylandDisplay: cfg.Launcher.WaylandDisplay,
	}, d.events)

	d.Procs = procs.New(cfg.TerminateGrace())
	d.Session = session.New(session.SystemLogind{})
	d.Launcher = launcher.New(d.Store, d.Procs, d.Session, d.events, launcher.Options{
		BinDir:      cfg.Paths.BinDir,
		Interpreter: cfg.Launcher.Interpreter,
		PIDFile:     cfg.Paths.PIDFile,
		SettleDelay: cfg.SettleDelay(),
	})

	d.Autostart = autostart.New(cfg.Paths.Autostart, cfg.Paths.IdleScript)
	d.Health = health.NewChecker(60*time.Second, d.Checks(true)...)

	// Initialize API server
	var history api.History
	if d.DB != nil {
		history = d.DB
	}
	d.Server = api.NewServer(d.Store, scriptWriter{d}, d.Launcher, history)
	d.Server.SetAutostart(d.Autostart)
	d.Server.SetHealth(d.Health)
	if cfg.API.Metrics {
		d.Server.EnableMetrics()
	}

	return d, nil
}

// Regenerate rewrites the autolock and idle scripts from the current
// settings file.
func (d *Daemon) Regenerate(ctx context.Context) (autolock.Result, error) {
	return d.regenerate(ctx, d.Store.Load())
}

func (d *Daemon) regenerate(ctx context.Context, s domain.Settings) (autolock.Result, error) {
	res, err := d.Generator.Regenerate(ctx, s)
	if err != nil || d.DB == nil {
		return res, err
	}
	if err := d.DB.SetState(ctx, StateScriptWidget, res.Widget.String()); err != nil {
		log.Printf("[daemon] WARNING: remember generated widget: %v", err)
	}
	return res, nil
}

// StateScriptWidget is the state key holding the widget the scripts on
// disk were last generated for.
const StateScriptWidget = "script_widget"

// scriptWriter hands the API a regenerator that also updates the
// generated-widget marker.
type scriptWriter struct{ d *Daemon }

func (w scriptWriter) Regenerate(ctx context.Context, s domain.Settings) (autolock.Result, error) {
	return w.d.regenerate(ctx, s)
}

// Record appends an event to the history, if there is one.
func (d *Daemon) Record(ctx context.Context, ev domain.Event) {
	if d.events == nil {
		return
	}
	if err := d.events.RecordEvent(ctx, ev); err != nil {
		log.Printf("[daemon] WARNING: record %s event: %v", ev.Kind, err)
	}
}

// Checks lists the diagnostics run by doctor and the serve health loop.
// With fix unset, out-of-date scripts are reported but not rewritten.
func (d *Daemon) Checks(fix bool) []health.Check {
	regenerate := d.regenerateCheck
	if !fix {
		regenerate = nil
	}
	checks := []health.Check{
		health.Display(d.Session),
		health.SettingsFile(d.Store.Check),
		health.Widgets(d.Config.Paths.BinDir, autolock.Programs()),
		health.Script("autolock_script", d.Config.Paths.Autolock,
			func() []byte { b, _ := d.Generator.Render(d.Store.Load()); return b },
			regenerate),
		health.Script("idle_script", d.Config.Paths.IdleScript,
			func() []byte { return d.Generator.RenderIdle(d.Store.Load()) },
			regenerate),
	}
	if d.Config.Launcher.Interpreter != "" {
		checks = append(checks, health.Binary(d.Config.Launcher.Interpreter, "runs the widgets", false))
	}
	checks = append(checks,
		health.Binary("swayidle", "Wayland idle detection", true),
		health.Binary("wlopm", "Wayland display power", true),
		health.Binary("xset", "X11 display power", true),
		health.Binary("wmctrl", "window management", true),
		health.Binary("xdotool", "window focus", true),
	)
	if d.DB != nil {
		checks = append(checks, health.Pinger("history_db", d.DB.Ping))
	}
	return checks
}

func (d *Daemon) regenerateCheck(ctx context.Context) error {
	_, err := d.Regenerate(ctx)
	return err
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if created, err := d.Store.EnsureDefaults(); err != nil {
		log.Printf("[daemon] WARNING: %v", err)
	} else if created {
		if _, err := d.Regenerate(ctx); err != nil {
			log.Printf("[daemon] WARNING: %v", err)
		}
	}

	// Health checker (always runs)
	go d.Health.Run(ctx)

	if d.Config.API.Watch {
		go func() {
			if err := d.WatchSettings(ctx); err != nil {
				log.Printf("[daemon] settings watcher stopped: %v", err)
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Printf("sidekick serving on http://%s\n", addr)
	fmt.Printf("  Settings: %s\n", d.Store.Path())
	if d.Config.API.Metrics {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// launchArgs is the command swayidle runs at lock_timeout: this binary's
// launch subcommand, or the plain autolock script when the executable
// cannot be located.
func launchArgs() []string {
	exe, err := os.Executable()
	if err != nil {
		return nil
	}
	return []string{exe, "launch"}
}
