package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Field name conventions shared by the engine's components. Every long-lived
// component logs under "component"; account actors additionally carry the id
// of the account they own, storage slots their slot index.
const (
	FieldComponent = "component"
	FieldAccount   = "account_id"
	FieldSlot      = "slot"
)

// New creates the process logger from config.
// level: debug, info, warn, error. pretty: human-readable console output.
func New(level string, pretty bool) zerolog.Logger {
	var w io.Writer = os.Stdout

	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Caller().
		Logger()
}

// NewWithWriter creates a logger writing to a custom writer (useful for testing).
func NewWithWriter(level string, w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// ForComponent returns a child logger tagged with a component name, e.g.
// "rates", "storage_pool", "account_registry".
func ForComponent(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str(FieldComponent, name).Logger()
}

// ForAccount returns a child logger tagged with the owning account id. Used
// by account actors so every line they emit is attributable to one account.
func ForAccount(log zerolog.Logger, accountID int64) zerolog.Logger {
	return log.With().Int64(FieldAccount, accountID).Logger()
}

// ForSlot returns a child logger tagged with a storage pool slot index.
func ForSlot(log zerolog.Logger, slot int) zerolog.Logger {
	return log.With().Int(FieldSlot, slot).Logger()
}

// ParseLevel maps a config level string to a zerolog level. Unknown values
// default to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
