package domain

import "fmt"

// WidgetID identifies one screensaver visual mode.
type WidgetID int

const (
	WidgetMatrix WidgetID = iota
	WidgetMystify
	WidgetVideos
	WidgetSlideshow
	WidgetNone    // screensaver disabled, nothing is launched
	WidgetUnknown // unrecognised screensaver_type, never launched as-is
)

// String returns the literal stored in screensaver_type.
func (w WidgetID) String() string {
	switch w {
	case WidgetMatrix:
		return "Matrix"
	case WidgetMystify:
		return "Mystify"
	case WidgetVideos:
		return "Videos"
	case WidgetSlideshow:
		return "Slideshow"
	case WidgetNone:
		return "None"
	default:
		return "Unknown"
	}
}

// MarshalText lets WidgetID appear as its literal in JSON output.
func (w WidgetID) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText accepts the literals MarshalText produces.
func (w *WidgetID) UnmarshalText(b []byte) error {
	if string(b) == "Unknown" {
		*w = WidgetUnknown
		return nil
	}
	id, err := ParseWidget(string(b))
	if err != nil {
		return err
	}
	*w = id
	return nil
}

// ParseWidget maps a screensaver_type literal to a WidgetID. Matching is
// exact, as written by the preferences application.
func ParseWidget(s string) (WidgetID, error) {
	switch s {
	case "Matrix":
		return WidgetMatrix, nil
	case "Mystify":
		return WidgetMystify, nil
	case "Videos":
		return WidgetVideos, nil
	case "Slideshow":
		return WidgetSlideshow, nil
	case "None":
		return WidgetNone, nil
	}
	return WidgetUnknown, fmt.Errorf("%w: %q", ErrUnknownWidget, s)
}

// Widgets lists the launchable widgets in display order.
func Widgets() []WidgetID {
	return []WidgetID{WidgetMatrix, WidgetMystify, WidgetVideos, WidgetSlideshow}
}

// ─── Resolution ─────────────────────────────────────────────────────────────

// Resolution is the outcome of selecting a widget from a settings record.
type Resolution struct {
	Widget    WidgetID `json:"widget"`
	Rule      string   `json:"rule"`                // name of the rule that matched
	Requested string   `json:"requested,omitempty"` // raw screensaver_type when it was not usable
	Warning   string   `json:"warning,omitempty"`
}

// rule is one row of the selection table. match reports whether the row
// applies and, if so, the widget it selects.
type rule struct {
	name  string
	match func(s Settings) (WidgetID, bool)
}

// selectionRules is evaluated top to bottom; the first matching row wins.
// The legacy-flag order (video, slideshow, mystify, matrix) reproduces what
// the original launcher script did and is kept as observed.
var selectionRules = []rule{
	{"disabled", func(s Settings) (WidgetID, bool) {
		return WidgetNone, !s.Enabled
	}},
	{"screensaver_type", func(s Settings) (WidgetID, bool) {
		if s.ScreensaverType == "" {
			return 0, false
		}
		id, err := ParseWidget(s.ScreensaverType)
		if err != nil {
			return WidgetUnknown, true
		}
		return id, true
	}},
	{"video_mode", legacyFlag(WidgetVideos, func(s Settings) bool { return s.VideoMode })},
	{"slideshow_mode", legacyFlag(WidgetSlideshow, func(s Settings) bool { return s.SlideshowMode })},
	{"mystify_mode", legacyFlag(WidgetMystify, func(s Settings) bool { return s.MystifyMode })},
	{"matrix_mode", legacyFlag(WidgetMatrix, func(s Settings) bool { return s.MatrixMode })},
	{"default", func(Settings) (WidgetID, bool) {
		return WidgetMatrix, true
	}},
}

func legacyFlag(id WidgetID, flag func(Settings) bool) func(Settings) (WidgetID, bool) {
	return func(s Settings) (WidgetID, bool) {
		return id, flag(s)
	}
}

// Resolve picks the single widget a settings record selects. It never
// fails: an unrecognised screensaver_type falls back to Matrix and the
// returned Resolution carries a Warning for the caller to log.
func Resolve(s Settings) Resolution {
	for _, r := range selectionRules {
		id, ok := r.match(s)
		if !ok {
			continue
		}
		if id == WidgetUnknown {
			return Resolution{
				Widget:    WidgetMatrix,
				Rule:      r.name,
				Requested: s.ScreensaverType,
				Warning:   fmt.Sprintf("unknown screensaver_type %q, falling back to %s", s.ScreensaverType, WidgetMatrix),
			}
		}
		return Resolution{Widget: id, Rule: r.name}
	}
	// Unreachable: the default row always matches.
	return Resolution{Widget: WidgetMatrix, Rule: "default"}
}
