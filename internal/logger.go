package internal

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"paylink/entity"
	"paylink/services"
)

// Logger is a zerolog-backed services.LogHandler. Warnings and errors are
// also written to the database log collection when a database is set.
type Logger struct {
	category string
	database services.Database
	log      zerolog.Logger
}

func NewLogger(category string, debug bool, database services.Database) *Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	l := &Logger{
		category: category,
		database: database,
	}
	l.log = newZerolog(os.Stdout, "json", category).Level(level)
	return l
}

// SetOutput redirects the logger; format "console" or "text" gives
// human-readable lines, anything else JSON.
func (l *Logger) SetOutput(w io.Writer, format string) {
	level := l.log.GetLevel()
	l.log = newZerolog(w, format, l.category).Level(level)
}

// SetLevel applies a textual level such as "warn"; unknown levels are ignored.
func (l *Logger) SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return
	}
	l.log = l.log.Level(lvl)
}

func newZerolog(w io.Writer, format, category string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	out := w
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "text":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Str("category", category).Logger()
}

func (l *Logger) Debug(text string) {
	l.log.Debug().Msg(text)
}

func (l *Logger) Info(text string) {
	l.log.Info().Msg(text)
}

func (l *Logger) Warn(text string) {
	l.log.Warn().Msg(text)
	l.store(zerolog.WarnLevel, text, nil)
}

func (l *Logger) Error(text string, err error) {
	l.log.Error().Err(err).Msg(text)
	l.store(zerolog.ErrorLevel, text, err)
}

func (l *Logger) store(level zerolog.Level, text string, err error) {
	if l.database == nil {
		return
	}
	message := &entity.LogMessage{
		Time:     time.Now(),
		Level:    level.String(),
		Category: l.category,
		Text:     text,
	}
	if err != nil {
		message.Error = err.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if e := l.database.WriteLogMessage(ctx, message); e != nil {
		l.log.Debug().Err(e).Msg("write log message")
	}
}
