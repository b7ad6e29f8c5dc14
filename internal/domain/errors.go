package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency.

var (
	// Settings errors
	ErrUnknownWidget  = errors.New("unknown screensaver type")
	ErrUnknownSetting = errors.New("unknown setting key")
	ErrInvalidValue   = errors.New("invalid setting value")

	// Write errors. These are the only failures surfaced to the user.
	ErrSettingsWrite = errors.New("cannot write settings file")
	ErrScriptWrite   = errors.New("cannot write autolock script")
	ErrPIDWrite      = errors.New("cannot write widget pid file")

	// Launch errors
	ErrNoDisplay      = errors.New("no graphical session")
	ErrRemoteSession  = errors.New("session is not on a physical display")
	ErrWidgetMissing  = errors.New("widget program not installed")
	ErrSpawnFailed    = errors.New("widget process failed to start")
	ErrNoWidgetActive = errors.New("no screensaver widget is running")

	// Desktop integration errors
	ErrAutostartWrite = errors.New("cannot write autostart entry")
)
