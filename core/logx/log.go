// Package logx centralizes zerolog setup. Subsystems log through
// component-tagged child loggers obtained from Component rather than sharing
// the bare root logger.
package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Log is the root logger. Prefer Component for anything that runs past
// startup so every line carries its subsystem tag.
var Log = newRoot(os.Stderr)

// Configure sets the global log level and rebuilds the root logger.
// LOG_FORMAT=json switches from console output to raw JSON lines.
func Configure(level string) {
	zerolog.SetGlobalLevel(parseLevel(level))
	Log = newRoot(os.Stderr)
}

// Component returns a child logger tagged with the subsystem name.
func Component(name string) zerolog.Logger {
	return Log.With().Str("component", name).Logger()
}

func newRoot(out io.Writer) zerolog.Logger {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "json") {
		return zerolog.New(out).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
}

var levelNames = map[string]zerolog.Level{
	"all":      zerolog.TraceLevel,
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"fatal":    zerolog.FatalLevel,
	"none":     zerolog.Disabled,
	"off":      zerolog.Disabled,
	"disabled": zerolog.Disabled,
}

// parseLevel maps a level name to a zerolog level, tolerating case and
// common synonyms. Unknown values default to info.
func parseLevel(level string) zerolog.Level {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return zerolog.InfoLevel
}

func init() {
	zerolog.SetGlobalLevel(parseLevel(os.Getenv("LOG_LEVEL")))
}
