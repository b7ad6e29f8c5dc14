// Package session reports whether sidekick runs inside a physical,
// graphical login. The screensaver is skipped over SSH, VNC and text
// consoles when physical_only is set.
package session

import (
	"context"
	"log"
	"os"
	"time"
)

// Info is a snapshot of the session, used by diagnostics.
type Info struct {
	Display        string         `json:"display,omitempty"`
	WaylandDisplay string         `json:"wayland_display,omitempty"`
	SessionType    string         `json:"session_type,omitempty"`
	Desktop        string         `json:"desktop,omitempty"`
	SSH            bool           `json:"ssh"`
	VNC            bool           `json:"vnc"`
	Logind         *LogindSession `json:"logind,omitempty"`
	LogindError    string         `json:"logind_error,omitempty"`
	Remote         bool           `json:"remote"`
}

// LogindSession is the subset of org.freedesktop.login1.Session sidekick
// looks at.
type LogindSession struct {
	Path   string `json:"path"`
	Type   string `json:"type"`
	Class  string `json:"class"`
	Remote bool   `json:"remote"`

	// Idle and lock hints as maintained by the desktop environment.
	Idle      bool      `json:"idle"`
	Locked    bool      `json:"locked"`
	IdleSince time.Time `json:"idle_since,omitzero"`
}

// Logind looks up the login session of the current process.
type Logind interface {
	CurrentSession(ctx context.Context) (LogindSession, error)
}

// Detector implements domain.SessionDetector from the environment and logind.
type Detector struct {
	getenv  func(string) string
	logind  Logind
	timeout time.Duration
}

// New creates a Detector reading the process environment. logind may be nil,
// in which case only environment checks are made.
func New(logind Logind) *Detector {
	return &Detector{getenv: os.Getenv, logind: logind, timeout: 2 * time.Second}
}

// HasDisplay reports whether DISPLAY or WAYLAND_DISPLAY is set.
func (p *Detector) HasDisplay() bool {
	return p.getenv("DISPLAY") != "" || p.getenv("WAYLAND_DISPLAY") != ""
}

// IsRemote reports whether the session is not on a physical seat: SSH or
// VNC environment, a tty session type, or logind marking it remote.
// logind failures are logged and treated as local.
func (p *Detector) IsRemote(ctx context.Context) bool {
	if p.envRemote() {
		return true
	}
	if p.logind == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	s, err := p.logind.CurrentSession(ctx)
	if err != nil {
		log.Printf("[session] logind lookup failed: %v", err)
		return false
	}
	return s.Remote
}

// Describe gathers everything the detector knows about the session.
func (p *Detector) Describe(ctx context.Context) Info {
	info := Info{
		Display:        p.getenv("DISPLAY"),
		WaylandDisplay: p.getenv("WAYLAND_DISPLAY"),
		SessionType:    p.getenv("XDG_SESSION_TYPE"),
		Desktop:        p.getenv("XDG_CURRENT_DESKTOP"),
		SSH:            p.ssh(),
		VNC:            p.getenv("VNCDESKTOP") != "",
	}
	info.Remote = p.envRemote()
	if p.logind != nil {
		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		s, err := p.logind.CurrentSession(ctx)
		if err != nil {
			info.LogindError = err.Error()
		} else {
			info.Logind = &s
			info.Remote = info.Remote || s.Remote
		}
	}
	return info
}

func (p *Detector) envRemote() bool {
	return p.ssh() || p.getenv("VNCDESKTOP") != "" || p.getenv("XDG_SESSION_TYPE") == "tty"
}

func (p *Detector) ssh() bool {
	return p.getenv("SSH_CONNECTION") != "" || p.getenv("SSH_CLIENT") != "" || p.getenv("SSH_TTY") != ""
}
