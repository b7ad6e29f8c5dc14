package settingsfile

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sidekick-screensaver/sidekick/internal/domain"
)

// Keys returns every settings key in sorted order.
func Keys(cfg domain.Settings) []string {
	m, err := toMap(cfg)
	if err != nil {
		return nil
	}
	// screensaver_type is omitted from JSON while empty.
	if _, ok := m["screensaver_type"]; !ok {
		m["screensaver_type"] = ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under key.
func Get(cfg domain.Settings, key string) (any, error) {
	m, err := toMap(cfg)
	if err != nil {
		return nil, err
	}
	if key == "screensaver_type" {
		return cfg.ScreensaverType, nil
	}
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSetting, key)
	}
	return v, nil
}

// Set parses raw according to the current type of key and stores it.
// Booleans accept strconv.ParseBool forms; numbers must parse as floats and,
// for integer keys, be whole.
func Set(cfg *domain.Settings, key, raw string) error {
	m, err := toMap(*cfg)
	if err != nil {
		return err
	}
	if key == "screensaver_type" {
		if raw != "" {
			if _, err := domain.ParseWidget(raw); err != nil {
				return err
			}
		}
		cfg.ScreensaverType = raw
		return nil
	}

	cur, ok := m[key]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownSetting, key)
	}

	var val any
	switch cur.(type) {
	case bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w: %s wants a boolean, got %q", domain.ErrInvalidValue, key, raw)
		}
		val = b
	case float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("%w: %s wants a number, got %q", domain.ErrInvalidValue, key, raw)
		}
		val = f
	default:
		val = raw
	}
	m[key] = val

	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	next := *cfg
	if err := json.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidValue, key, err)
	}
	*cfg = next
	return nil
}

// Merge applies a partial JSON object onto cfg. Keys not present in patch
// keep their current values; unknown keys are rejected.
func Merge(cfg *domain.Settings, patch []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidValue, err)
	}
	known, err := toMap(*cfg)
	if err != nil {
		return err
	}
	for k := range fields {
		if _, ok := known[k]; !ok && k != "screensaver_type" {
			return fmt.Errorf("%w: %s", domain.ErrUnknownSetting, k)
		}
	}
	next := *cfg
	if err := json.Unmarshal(patch, &next); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidValue, err)
	}
	// Only the patch is validated: an unknown type already in the file
	// resolves to the fallback and must not block unrelated edits.
	if _, ok := fields["screensaver_type"]; ok && next.ScreensaverType != "" {
		if _, err := domain.ParseWidget(next.ScreensaverType); err != nil {
			return err
		}
	}
	*cfg = next
	return nil
}

func toMap(cfg domain.Settings) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
