package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLogind struct {
	s   LogindSession
	err error
}

func (f fakeLogind) CurrentSession(context.Context) (LogindSession, error) { return f.s, f.err }

func newDetector(env map[string]string, logind Logind) *Detector {
	p := New(logind)
	p.getenv = func(k string) string { return env[k] }
	return p
}

func TestHasDisplay(t *testing.T) {
	assert.False(t, newDetector(nil, nil).HasDisplay())
	assert.True(t, newDetector(map[string]string{"DISPLAY": ":0"}, nil).HasDisplay())
	assert.True(t, newDetector(map[string]string{"WAYLAND_DISPLAY": "wayland-0"}, nil).HasDisplay())
}

func TestIsRemote_Environment(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"local wayland", map[string]string{"WAYLAND_DISPLAY": "wayland-0", "XDG_SESSION_TYPE": "wayland"}, false},
		{"ssh connection", map[string]string{"SSH_CONNECTION": "10.0.0.2 5555 10.0.0.1 22"}, true},
		{"ssh tty", map[string]string{"SSH_TTY": "/dev/pts/0"}, true},
		{"vnc", map[string]string{"VNCDESKTOP": "pi:1"}, true},
		{"text console", map[string]string{"XDG_SESSION_TYPE": "tty"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newDetector(tt.env, nil).IsRemote(context.Background()))
		})
	}
}

func TestIsRemote_Logind(t *testing.T) {
	ctx := context.Background()
	env := map[string]string{"DISPLAY": ":0"}

	assert.True(t, newDetector(env, fakeLogind{s: LogindSession{Remote: true}}).IsRemote(ctx))
	assert.False(t, newDetector(env, fakeLogind{s: LogindSession{Remote: false}}).IsRemote(ctx))
	assert.False(t, newDetector(env, fakeLogind{err: errors.New("no bus")}).IsRemote(ctx))
}

func TestDescribe(t *testing.T) {
	env := map[string]string{
		"WAYLAND_DISPLAY":     "wayland-1",
		"XDG_SESSION_TYPE":    "wayland",
		"XDG_CURRENT_DESKTOP": "LXDE-pi-labwc",
	}
	info := newDetector(env, fakeLogind{s: LogindSession{Path: "/org/freedesktop/login1/session/_31", Type: "wayland", Class: "user"}}).
		Describe(context.Background())

	assert.Equal(t, "wayland-1", info.WaylandDisplay)
	assert.Equal(t, "LXDE-pi-labwc", info.Desktop)
	assert.False(t, info.Remote)
	if assert.NotNil(t, info.Logind) {
		assert.Equal(t, "user", info.Logind.Class)
	}

	info = newDetector(env, fakeLogind{err: errors.New("no bus")}).Describe(context.Background())
	assert.Nil(t, info.Logind)
	assert.Equal(t, "no bus", info.LogindError)
}
