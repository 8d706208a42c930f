package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// SetLogLevel sets the global logging level from its configured name.
func SetLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown log level '%s', defaulting to info", level)
	}
}

// GetLogLevel returns the current global log level as a string.
func GetLogLevel() string {
	return zerolog.GlobalLevel().String()
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	log.Debug().Msgf(format, v...)
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	log.Info().Msgf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	log.Warn().Msgf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	log.Error().Msgf(format, v...)
}

// Fatal logs a fatal message and exits.
func Fatal(format string, v ...interface{}) {
	log.Fatal().Msgf(format, v...)
}
