package activity

import (
	"context"
	"log"
	"time"

	"github.com/sidekick-screensaver/sidekick/internal/infra/metrics"
	"github.com/sidekick-screensaver/sidekick/internal/logging"
)

// Watcher samples interrupt counts and reports bursts of input activity.
type Watcher struct {
	Interval  time.Duration // between samples
	Grace     time.Duration // ignored startup window while the widget settles
	Threshold uint64        // delta that counts as activity

	read func() (Counts, error)
}

// NewWatcher creates a Watcher over the interrupt table at path.
func NewWatcher(path string, interval, grace time.Duration, threshold uint64) *Watcher {
	if path == "" {
		path = DefaultPath
	}
	return NewFuncWatcher(func() (Counts, error) { return ReadInterrupts(path) }, interval, grace, threshold)
}

// NewFuncWatcher creates a Watcher sampling counts from read.
func NewFuncWatcher(read func() (Counts, error), interval, grace time.Duration, threshold uint64) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{
		Interval:  interval,
		Grace:     grace,
		Threshold: threshold,
		read:      read,
	}
}

// Wait blocks until the interrupt delta between two samples exceeds the
// threshold and returns that delta. The baseline is re-armed after every
// sample, so slow background traffic never accumulates into a wake.
func (w *Watcher) Wait(ctx context.Context) (uint64, error) {
	if w.Grace > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(w.Grace):
		}
	}

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	var baseline uint64
	armed := false
	for {
		c, err := w.read()
		if err != nil {
			log.Printf("[activity] WARNING: read interrupts: %v", err)
			armed = false
		} else {
			total := c.Total()
			if armed {
				var delta uint64
				if total > baseline {
					delta = total - baseline
				}
				metrics.InterruptDelta.Observe(float64(delta))
				logging.Debugf("[activity] usb=%d hid=%d delta=%d", c.USB, c.HID, delta)
				if delta > w.Threshold {
					return delta, nil
				}
			}
			baseline, armed = total, true
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}
