package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
	"github.com/sidekick-screensaver/sidekick/internal/infra/activity"
	"github.com/sidekick-screensaver/sidekick/internal/infra/metrics"
	"github.com/sidekick-screensaver/sidekick/internal/logging"
)

// settingsDebounce coalesces the burst of events one save produces.
const settingsDebounce = 250 * time.Millisecond

// WatchSettings regenerates the scripts whenever the settings file is
// rewritten, by this process or another one such as the preferences
// window. Blocks until ctx is done.
func (d *Daemon) WatchSettings(ctx context.Context) error {
	w, err := d.openSettingsWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	return d.settingsLoop(ctx, w)
}

// openSettingsWatcher watches the settings directory rather than the
// file: atomic saves replace the file, which would drop a file watch.
func (d *Daemon) openSettingsWatcher() (*fsnotify.Watcher, error) {
	dir := filepath.Dir(d.Store.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Printf("[watch] Watching %s", d.Store.Path())
	return w, nil
}

func (d *Daemon) settingsLoop(ctx context.Context, w *fsnotify.Watcher) error {
	target := filepath.Clean(d.Store.Path())

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				logging.Debugf("[watch] ignoring %s", ev)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(settingsDebounce)
			} else {
				timer.Reset(settingsDebounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("[watch] WARNING: %v", err)

		case <-fire:
			fire = nil
			res, err := d.Regenerate(ctx)
			if err != nil {
				log.Printf("[watch] ERROR: %v", err)
				continue
			}
			log.Printf("[watch] Settings changed, scripts regenerated for %s", res.Widget)
		}
	}
}

// WatchActivity stops the running widget whenever USB/HID input activity
// is seen. With once set it returns after the first wake. Activity while
// no widget is running is ignored.
func (d *Daemon) WatchActivity(ctx context.Context, once bool) error {
	w := activity.NewWatcher(activity.DefaultPath, d.Config.WatchInterval(), d.Config.WatchGrace(), d.Config.Watch.Threshold)
	return d.wakeLoop(ctx, w, once)
}

func (d *Daemon) wakeLoop(ctx context.Context, w *activity.Watcher, once bool) error {
	for {
		delta, err := w.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		n, err := d.Launcher.Stop(ctx)
		if errors.Is(err, domain.ErrNoWidgetActive) {
			continue
		}
		metrics.WakeEvents.Inc()
		log.Printf("[watch] Input activity (+%d interrupts), stopped %d widget(s)", delta, n)
		d.Record(ctx, domain.Event{Kind: domain.EventWake, Detail: fmt.Sprintf("+%d interrupts", delta)})
		if once {
			return nil
		}
	}
}
