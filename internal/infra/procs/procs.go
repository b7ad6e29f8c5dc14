// Package procs finds and terminates running widget processes using
// gopsutil, so no pkill binary is needed at runtime.
package procs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
)

// Controller implements domain.ProcessController on the local process table.
type Controller struct {
	grace time.Duration // SIGTERM → SIGKILL window
	poll  time.Duration
	self  int32
}

// New creates a Controller that waits grace for a terminated process to
// exit before killing it.
func New(grace time.Duration) *Controller {
	if grace <= 0 {
		grace = 2 * time.Second
	}
	return &Controller{
		grace: grace,
		poll:  50 * time.Millisecond,
		self:  int32(os.Getpid()),
	}
}

// FindWidgets returns the running processes executing one of programs,
// either directly or through an interpreter.
func (c *Controller) FindWidgets(ctx context.Context, programs []string) ([]domain.ProcessInfo, error) {
	all, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var found []domain.ProcessInfo
	for _, p := range all {
		if p.Pid == c.self {
			continue
		}
		args, err := p.CmdlineSliceWithContext(ctx)
		if err != nil || len(args) == 0 {
			continue // exited or not ours to read
		}
		prog := MatchProgram(args, programs)
		if prog == "" {
			continue
		}
		found = append(found, domain.ProcessInfo{
			PID:     p.Pid,
			Program: prog,
			Cmdline: strings.Join(args, " "),
		})
	}
	return found, nil
}

// WidgetProgram reports the widget program pid is executing. A recorded
// pid whose widget has exited may since belong to an unrelated process;
// only a live process with a matching command line counts.
func (c *Controller) WidgetProgram(ctx context.Context, pid int32, programs []string) (string, bool) {
	if pid <= 0 || pid == c.self || !c.Alive(ctx, pid) {
		return "", false
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", false
	}
	args, err := p.CmdlineSliceWithContext(ctx)
	if err != nil {
		return "", false
	}
	prog := MatchProgram(args, programs)
	return prog, prog != ""
}

// Terminate sends SIGTERM, waits for the grace period and falls back to
// SIGKILL. A process that is already gone is not an error.
func (c *Controller) Terminate(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil
		}
		return fmt.Errorf("open process %d: %w", pid, err)
	}

	if err := p.TerminateWithContext(ctx); err != nil {
		if !c.alive(ctx, p) {
			return nil
		}
		return fmt.Errorf("terminate %d: %w", pid, err)
	}

	deadline := time.Now().Add(c.grace)
	for time.Now().Before(deadline) {
		if !c.alive(ctx, p) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.poll):
		}
	}

	if err := p.KillWithContext(ctx); err != nil && c.alive(ctx, p) {
		return fmt.Errorf("kill %d: %w", pid, err)
	}
	return nil
}

// Alive reports whether pid names a running, non-zombie process.
func (c *Controller) Alive(ctx context.Context, pid int32) bool {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return false
	}
	return c.alive(ctx, p)
}

func (c *Controller) alive(ctx context.Context, p *process.Process) bool {
	running, err := p.IsRunningWithContext(ctx)
	if err != nil || !running {
		return false
	}
	status, err := p.StatusWithContext(ctx)
	if err != nil {
		return true
	}
	return !slices.Contains(status, process.Zombie)
}

// MatchProgram returns the widget program args executes, or "". The
// program must be the executable itself or the script handed to an
// interpreter; "pkill -f sidekick_widget.py" does not match.
func MatchProgram(args, programs []string) string {
	if len(args) == 0 {
		return ""
	}
	exe := filepath.Base(args[0])
	if slices.Contains(programs, exe) {
		return exe
	}
	if !isInterpreter(exe) {
		return ""
	}
	for _, a := range args[1:] {
		if strings.HasPrefix(a, "-") {
			continue
		}
		base := filepath.Base(a)
		if slices.Contains(programs, base) {
			return base
		}
		return "" // first positional argument is the script
	}
	return ""
}

func isInterpreter(exe string) bool {
	return strings.HasPrefix(exe, "python") || exe == "sh" || exe == "bash"
}
