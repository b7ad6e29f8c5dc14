// Package logging routes the standard logger to stderr and a size-rotated
// file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options mirrors the [logging] section of sidekick.toml.
type Options struct {
	Level     string
	File      string
	MaxSizeMB int
	MaxFiles  int
}

var debugEnabled atomic.Bool

// Setup points the standard logger at stderr and, when File is set, at a
// rotating log file. It returns the file writer so callers can close it.
func Setup(opts Options) (io.Closer, error) {
	debugEnabled.Store(strings.EqualFold(opts.Level, "debug"))
	log.SetFlags(log.Ldate | log.Ltime)

	if opts.File == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil), fmt.Errorf("create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    max(opts.MaxSizeMB, 1), // MB
		MaxBackups: opts.MaxFiles,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator, nil
}

// Debugf logs with a [DEBUG] prefix when the level is "debug".
func Debugf(format string, v ...any) {
	if !debugEnabled.Load() {
		return
	}
	log.Output(2, "[DEBUG] "+fmt.Sprintf(format, v...))
}

// DebugEnabled reports whether debug logging is on.
func DebugEnabled() bool {
	return debugEnabled.Load()
}
