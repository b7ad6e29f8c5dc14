// Package settingsfile persists the screensaver settings record as a JSON
// file. Loads never fail (defaults fill every gap) and saves replace the
// file atomically so a concurrent reader sees either the old or the new
// record in full.
package settingsfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
	"github.com/sidekick-screensaver/sidekick/internal/infra/fsutil"
	"github.com/sidekick-screensaver/sidekick/internal/infra/metrics"
)

// Store is the file-backed settings store. It holds no cached record:
// every Load reads the file, so the file stays the only source of truth.
type Store struct {
	path     string
	defaults domain.Settings

	// mu serialises this process's own read-modify-write cycles. It does
	// not protect against other processes; across processes the last
	// writer wins.
	mu sync.Mutex
}

// New creates a store for the file at path. defaults is the record that
// fills in absent keys.
func New(path string, defaults domain.Settings) *Store {
	return &Store{path: path, defaults: defaults}
}

// Path returns the settings file location.
func (s *Store) Path() string { return s.path }

// Defaults returns a copy of the default record.
func (s *Store) Defaults() domain.Settings { return s.defaults }

// Exists reports whether the settings file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load returns the stored record merged over the defaults.
// A missing, unreadable or malformed file yields the defaults.
func (s *Store) Load() domain.Settings {
	cfg, err := s.read()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[settings] WARNING: %v (using defaults)", err)
	}
	return cfg
}

// read decodes the file over the defaults. The returned record is always
// usable, even alongside a non-nil error.
func (s *Store) read() (domain.Settings, error) {
	cfg := s.defaults

	data, err := os.ReadFile(s.path)
	if err != nil {
		return cfg, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, fmt.Errorf("settings file %s is empty", s.path)
	}

	// Syntax errors abandon the file entirely. Type mismatches only skip
	// the offending key: encoding/json keeps decoding the rest.
	if !json.Valid(data) {
		return s.defaults, fmt.Errorf("settings file %s is not valid JSON", s.path)
	}

	decoded := s.defaults
	if err := json.Unmarshal(data, &decoded); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return decoded, fmt.Errorf("settings file %s: key %q has the wrong type, keeping its default", s.path, typeErr.Field)
		}
		return s.defaults, fmt.Errorf("decode settings %s: %w", s.path, err)
	}
	return decoded, nil
}

// Save writes the record to disk via a temp file and rename.
// Keys sidekick does not model, written by other readers of the file, are
// carried over from the current file.
func (s *Store) Save(cfg domain.Settings) error {
	data, err := s.encode(cfg)
	if err != nil {
		metrics.SettingsWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: encode: %v", domain.ErrSettingsWrite, err)
	}
	data = append(data, '\n')

	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		metrics.SettingsWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %v", domain.ErrSettingsWrite, err)
	}
	metrics.SettingsWrites.WithLabelValues("ok").Inc()
	return nil
}

// encode renders cfg plus any foreign keys found in the current file.
func (s *Store) encode(cfg domain.Settings) ([]byte, error) {
	foreign := s.foreignKeys()
	if len(foreign) == 0 {
		return json.MarshalIndent(cfg, "", "  ")
	}
	m, err := toMap(cfg)
	if err != nil {
		return nil, err
	}
	for k, v := range foreign {
		m[k] = v
	}
	return json.MarshalIndent(m, "", "  ")
}

// foreignKeys returns the entries of the current file that are not
// settings keys. An unreadable or malformed file has none.
func (s *Store) foreignKeys() map[string]json.RawMessage {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var raw map[string]json.RawMessage
	if json.Unmarshal(data, &raw) != nil {
		return nil
	}
	known := make(map[string]bool)
	for _, k := range Keys(s.defaults) {
		known[k] = true
	}
	for k := range raw {
		if known[k] {
			delete(raw, k)
		}
	}
	return raw
}

// Update loads the record, applies fn and saves the result. Updates from
// the same process never interleave.
func (s *Store) Update(fn func(*domain.Settings) error) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.Load()
	if err := fn(&cfg); err != nil {
		return cfg, err
	}
	if err := s.Save(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// EnsureDefaults writes the default record when no settings file exists.
// It reports whether a file was created.
func (s *Store) EnsureDefaults() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Exists() {
		return false, nil
	}
	if err := s.Save(s.defaults); err != nil {
		return false, err
	}
	log.Printf("[settings] created %s with defaults", s.path)
	return true, nil
}

// Reset overwrites the file with the defaults.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Save(s.defaults)
}

// Check reads the file and reports why it would fall back to defaults,
// if it would. A missing file is not an error.
func (s *Store) Check() error {
	_, err := s.read()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
