// Package health runs diagnostics over the screensaver installation. The
// doctor command runs them once; serve runs them periodically and lets
// recoverable checks repair themselves (a stale autolock script is
// regenerated).
package health

import (
	"context"
	"sync"
	"time"
)

// Check defines a single health check with optional recovery action.
type Check struct {
	Name string
	// Advisory checks report problems without making the whole run
	// unhealthy, e.g. optional tools like wmctrl.
	Advisory  bool
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Advisory  bool      `json:"advisory,omitempty"`
	Error     string    `json:"error,omitempty"`
	Recovered bool      `json:"recovered,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks with auto-recovery.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
}

// NewChecker creates a checker that runs checks every interval.
func NewChecker(interval time.Duration, checks ...Check) *Checker {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Checker{interval: interval, checks: checks}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce runs every check, attempts recovery of failed ones and returns
// the results.
func (c *Checker) RunOnce(ctx context.Context) []Status {
	c.mu.RLock()
	checks := append([]Check(nil), c.checks...)
	c.mu.RUnlock()

	statuses := make([]Status, len(checks))
	for i, check := range checks {
		s := Status{
			Name:      check.Name,
			Advisory:  check.Advisory,
			CheckedAt: time.Now(),
		}
		if err := check.CheckFn(ctx); err != nil {
			s.Error = err.Error()
			// Attempt recovery, then confirm it took.
			if check.RecoverFn != nil && check.RecoverFn(ctx) == nil && check.CheckFn(ctx) == nil {
				s.Healthy = true
				s.Recovered = true
			}
		} else {
			s.Healthy = true
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
	return statuses
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all non-advisory checks pass.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy && !s.Advisory {
			return false
		}
	}
	return true
}
