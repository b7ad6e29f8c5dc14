package autolock

import "github.com/sidekick-screensaver/sidekick/internal/domain"

// programs is the fixed widget → program table. Program files live in the
// installed-binaries directory.
var programs = map[domain.WidgetID]string{
	domain.WidgetMatrix:    "sidekick_widget.py",
	domain.WidgetMystify:   "mystify_widget.py",
	domain.WidgetSlideshow: "slideshow_widget.py",
	domain.WidgetVideos:    "video_widget.py",
}

// Program returns the program file for a launchable widget.
func Program(id domain.WidgetID) (string, bool) {
	p, ok := programs[id]
	return p, ok
}

// Programs lists every widget program in display order. Used to find and
// kill running widgets regardless of which one is selected.
func Programs() []string {
	out := make([]string, 0, len(programs))
	for _, id := range domain.Widgets() {
		out = append(out, programs[id])
	}
	return out
}
