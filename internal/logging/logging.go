// Package logging builds courier's slog logger from the configured level name.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// LevelCritical sits above slog.LevelError for messages logged at CRITICAL.
const LevelCritical = slog.Level(12)

var levels = map[string]slog.Level{
	"NOTSET":   slog.LevelDebug,
	"DEBUG":    slog.LevelDebug,
	"INFO":     slog.LevelInfo,
	"WARNING":  slog.LevelWarn,
	"WARN":     slog.LevelWarn,
	"ERROR":    slog.LevelError,
	"CRITICAL": LevelCritical,
}

// ParseLevel maps a level name onto a slog level. Unknown names are INFO,
// reported through ok.
func ParseLevel(name string) (level slog.Level, ok bool) {
	level, ok = levels[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return slog.LevelInfo, false
	}
	return level, true
}

// New returns a text logger on w at the named level.
func New(w io.Writer, levelName string) *slog.Logger {
	level, ok := ParseLevel(levelName)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, isLevel := a.Value.Any().(slog.Level); isLevel && lvl == LevelCritical {
					a.Value = slog.StringValue("CRITICAL")
				}
			}
			return a
		},
	}))
	if !ok && strings.TrimSpace(levelName) != "" {
		logger.Warn("unknown log level, using INFO", "level", levelName)
	}
	return logger
}
