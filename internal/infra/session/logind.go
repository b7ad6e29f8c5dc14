package session

import (
	"context"
	"fmt"
	"os"
	"time"

	godbus "github.com/godbus/dbus/v5"
)

const (
	login1Dest    = "org.freedesktop.login1"
	login1Path    = "/org/freedesktop/login1"
	login1Manager = "org.freedesktop.login1.Manager"
	login1Session = "org.freedesktop.login1.Session"
)

// SystemLogind queries systemd-logind over the system bus.
type SystemLogind struct{}

// CurrentSession resolves the session owning this process and reads its
// Remote property, plus the type, class and idle hints.
func (SystemLogind) CurrentSession(ctx context.Context) (LogindSession, error) {
	conn, err := godbus.ConnectSystemBus(godbus.WithContext(ctx))
	if err != nil {
		return LogindSession{}, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	var path godbus.ObjectPath
	manager := conn.Object(login1Dest, login1Path)
	if id := os.Getenv("XDG_SESSION_ID"); id != "" {
		err = manager.CallWithContext(ctx, login1Manager+".GetSession", 0, id).Store(&path)
	} else {
		err = manager.CallWithContext(ctx, login1Manager+".GetSessionByPID", 0, uint32(os.Getpid())).Store(&path)
	}
	if err != nil {
		return LogindSession{}, fmt.Errorf("failed to find login session: %w", err)
	}

	obj := conn.Object(login1Dest, path)
	s := LogindSession{Path: string(path)}
	if err := getProperty(ctx, obj, "Remote", &s.Remote); err != nil {
		return s, err
	}
	// The rest is informational.
	_ = getProperty(ctx, obj, "Type", &s.Type)
	_ = getProperty(ctx, obj, "Class", &s.Class)
	_ = getProperty(ctx, obj, "IdleHint", &s.Idle)
	_ = getProperty(ctx, obj, "LockedHint", &s.Locked)
	var since uint64 // µs since the epoch
	if getProperty(ctx, obj, "IdleSinceHint", &since) == nil && since > 0 {
		s.IdleSince = time.UnixMicro(int64(since))
	}
	return s, nil
}

func getProperty(ctx context.Context, obj godbus.BusObject, name string, dst any) error {
	var v godbus.Variant
	err := obj.CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, login1Session, name).Store(&v)
	if err != nil {
		return fmt.Errorf("failed to read session %s: %w", name, err)
	}
	if err := v.Store(dst); err != nil {
		return fmt.Errorf("session %s: %w", name, err)
	}
	return nil
}
