package logger

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// Init initializes the default logger with a console writer on os.Stderr.
// It ensures that the logger is initialized only once.
func Init() {
	once.Do(func() {
		out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
		defaultLogger = zerolog.New(out).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	})
}

// Get returns the initialized default logger.
// It calls Init() to ensure the logger is ready before returning it.
func Get() *zerolog.Logger {
	Init()
	return &defaultLogger
}

// Info logs an informational message using the default logger.
func Info(msg string, fields map[string]any) {
	Get().Info().Fields(fields).Msg(msg)
}

// Warn logs a warning message using the default logger.
func Warn(msg string, fields map[string]any) {
	Get().Warn().Fields(fields).Msg(msg)
}

// Error logs an error message using the default logger.
func Error(msg string, err error, fields map[string]any) {
	Get().Error().Err(err).Fields(fields).Msg(msg)
}

// Debug logs a debug message using the default logger.
func Debug(msg string, fields map[string]any) {
	Get().Debug().Fields(fields).Msg(msg)
}
