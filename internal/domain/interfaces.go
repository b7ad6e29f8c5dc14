package domain

import "context"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// SettingsStore abstracts the persisted settings record.
// Implemented by infra/settingsfile.Store.
type SettingsStore interface {
	// Load returns the stored record merged over defaults. It never fails;
	// unreadable or corrupt files yield the defaults.
	Load() Settings

	// Save replaces the stored record atomically.
	Save(s Settings) error

	// Path returns the location of the backing file.
	Path() string
}

// EventRecorder persists launcher and generator activity.
// Implemented by infra/sqlite.DB.
type EventRecorder interface {
	RecordEvent(ctx context.Context, ev Event) error
}

// ProcessController finds and terminates widget processes.
// Implemented by infra/procs.Controller.
type ProcessController interface {
	// FindWidgets returns running processes whose command line names one of
	// the given programs.
	FindWidgets(ctx context.Context, programs []string) ([]ProcessInfo, error)

	// WidgetProgram returns which of programs the live process pid is
	// running. ok is false for exited processes and for any other command.
	WidgetProgram(ctx context.Context, pid int32, programs []string) (prog string, ok bool)

	// Terminate asks the process to exit and kills it if it lingers.
	Terminate(ctx context.Context, pid int32) error
}

// SessionDetector reports whether a graphical, physical session is present.
// Implemented by infra/session.Detector.
type SessionDetector interface {
	HasDisplay() bool
	IsRemote(ctx context.Context) bool
}
