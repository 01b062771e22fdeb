package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Pretty output goes through ConsoleWriter,
// otherwise one JSON object per line is written to out.
func New(level string, pretty bool, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a config level to zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Component returns a child logger tagged with the component name.
func Component(logger *zerolog.Logger, name string) *zerolog.Logger {
	l := logger.With().Str("component", name).Logger()
	return &l
}

// ReminderLogger adapts zerolog to the key/value logger used by the
// reminder scheduler and alert sender.
type ReminderLogger struct {
	log *zerolog.Logger
}

// NewReminderLogger wraps logger.
func NewReminderLogger(logger *zerolog.Logger) *ReminderLogger {
	return &ReminderLogger{log: logger}
}

func (l *ReminderLogger) Info(msg string, fields ...interface{}) {
	l.log.Info().Fields(normalize(fields)).Msg(msg)
}

func (l *ReminderLogger) Error(msg string, fields ...interface{}) {
	l.log.Error().Fields(normalize(fields)).Msg(msg)
}

func (l *ReminderLogger) Debug(msg string, fields ...interface{}) {
	l.log.Debug().Fields(normalize(fields)).Msg(msg)
}

// normalize drops a dangling key so zerolog never sees an odd-length list.
func normalize(fields []interface{}) []interface{} {
	if len(fields)%2 != 0 {
		return fields[:len(fields)-1]
	}
	return fields
}
