// Package domain holds the screensaver settings record, widget selection
// and the boundaries between layers. Domain code is pure: no file, process
// or network access happens here.
package domain

import "path"

// Settings is the user preference record persisted as a single flat JSON
// object. Every consumer reads the same record; the widgets interpret the
// per-mode groups, the selector only looks at the mode fields.
type Settings struct {
	Enabled         bool   `json:"enabled"`
	ScreensaverType string `json:"screensaver_type,omitempty"`

	// Legacy mode flags. Only consulted while screensaver_type is absent.
	MatrixMode    bool `json:"matrix_mode"`
	MystifyMode   bool `json:"mystify_mode"`
	VideoMode     bool `json:"video_mode"`
	SlideshowMode bool `json:"slideshow_mode"`

	// Timers, in seconds unless noted.
	LockTimeout            int  `json:"lock_timeout"`
	DisplayTimeout         int  `json:"display_timeout"`
	AutoShutdown           bool `json:"auto_shutdown"`
	ShutdownTimeout        int  `json:"shutdown_timeout"` // minutes
	DisplayShutdown        bool `json:"display_shutdown"`
	DisplayShutdownTimeout int  `json:"display_shutdown_timeout"` // minutes

	// Display targeting.
	DisplayTarget string `json:"display_target"` // both | display0 | display1
	PhysicalOnly  bool   `json:"physical_only"`
	TargetFPS     int    `json:"target_fps"`
	AutoCPULimit  bool   `json:"auto_cpu_limit"`
	ShowStats     bool   `json:"show_stats"`
	StatsDrift    bool   `json:"stats_drift"`

	// Matrix rain.
	Color       string `json:"color"`
	RainbowMode bool   `json:"rainbow_mode"`
	Speed       int    `json:"speed"`
	BoldText    bool   `json:"bold_text"`
	AsyncScroll bool   `json:"async_scroll"`
	UseKatakana bool   `json:"use_katakana"`
	FontSize    int    `json:"font_size"`

	// Mystify.
	MystifyShapes      int    `json:"mystify_shapes"`
	MystifyTrailLength int    `json:"mystify_trail_length"`
	MystifyComplexity  int    `json:"mystify_complexity"`
	MystifySpeed       int    `json:"mystify_speed"`
	MystifyColorMode   string `json:"mystify_color_mode"` // rainbow | single | duo
	MystifyFill        bool   `json:"mystify_fill"`
	MystifyColorHue    int    `json:"mystify_color_hue"`
	MystifyColorHue1   int    `json:"mystify_color_hue1"`
	MystifyColorHue2   int    `json:"mystify_color_hue2"`

	// Slideshow.
	SlideshowFolder  string  `json:"slideshow_folder"`
	SlideDuration    float64 `json:"slide_duration"`
	SlideshowRandom  bool    `json:"slideshow_random"`
	SlideshowFitMode string  `json:"slideshow_fit_mode"` // contain | cover | stretch

	// Videos.
	VideoFolder        string  `json:"video_folder"`
	VideoRandom        bool    `json:"video_random"`
	VideoPlaybackSpeed float64 `json:"video_playback_speed"`
	VideoMute          bool    `json:"video_mute"`

	// Preferences application.
	DarkMode             bool   `json:"dark_mode"`
	StartOnBoot          bool   `json:"start_on_boot"`
	ShowTaskbarIcon      bool   `json:"show_taskbar_icon"`
	StartMaximized       bool   `json:"start_maximized"`
	EnableTouchUI        bool   `json:"enable_touch_ui"`
	AutoUpdateCheck      bool   `json:"auto_update_check"`
	UpdateNotification   bool   `json:"update_notification"`
	UpdateCheckFrequency int    `json:"update_check_frequency"` // days
	LastUpdateCheck      string `json:"last_update_check"`
}

// DefaultSettings returns the record used when no settings file exists and
// the fallback value for every key missing from the file.
//
// mediaRoot is the directory holding the images/ and videos/ folders,
// normally ~/screensaver-media.
func DefaultSettings(mediaRoot string) Settings {
	return Settings{
		Enabled:    true,
		MatrixMode: true,

		LockTimeout:            300,
		DisplayTimeout:         600,
		ShutdownTimeout:        60,
		DisplayShutdownTimeout: 30,

		DisplayTarget: "both",
		PhysicalOnly:  true,
		TargetFPS:     15,
		StatsDrift:    true,

		Color:       "green",
		Speed:       25,
		BoldText:    true,
		AsyncScroll: true,
		UseKatakana: true,
		FontSize:    14,

		MystifyShapes:      3,
		MystifyTrailLength: 50,
		MystifyComplexity:  6,
		MystifySpeed:       2,
		MystifyColorMode:   "rainbow",
		MystifyColorHue:    240,
		MystifyColorHue1:   240,
		MystifyColorHue2:   60,

		SlideshowFolder:  joinMedia(mediaRoot, "images"),
		SlideDuration:    5.0,
		SlideshowRandom:  true,
		SlideshowFitMode: "contain",

		VideoFolder:        joinMedia(mediaRoot, "videos"),
		VideoRandom:        true,
		VideoPlaybackSpeed: 1.0,
		VideoMute:          true,

		DarkMode:             true,
		ShowTaskbarIcon:      true,
		AutoUpdateCheck:      true,
		UpdateNotification:   true,
		UpdateCheckFrequency: 30,
	}
}

// SelectWidget makes id the explicit selection and mirrors it into the
// legacy flags so older readers of the file agree with newer ones.
func (s *Settings) SelectWidget(id WidgetID) {
	s.Enabled = id != WidgetNone
	s.ScreensaverType = id.String()
	s.MatrixMode = id == WidgetMatrix
	s.MystifyMode = id == WidgetMystify
	s.VideoMode = id == WidgetVideos
	s.SlideshowMode = id == WidgetSlideshow
}

func joinMedia(root, dir string) string {
	if root == "" {
		return ""
	}
	return path.Join(root, dir)
}
