package movenet

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the console logger the commands share. verbose turns on
// debug events.
func NewLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
