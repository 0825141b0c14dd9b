package cliconfig

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/morsebridge/pkg/log"
)

// Logger returns the CLI logger: zerolog console output on stderr at info
// level. Call SetLevel after configuration is resolved.
func Logger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
}

// SetLevel returns l filtered at the named level.
func SetLevel(l zerolog.Logger, level string) zerolog.Logger {
	return l.Level(log.ParseLevel(level))
}
