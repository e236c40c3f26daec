// Package logging configures the zerolog logger shared by the API server,
// the migration tool and the reservation event consumer.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/theatre-booking/internal/config"
)

// New builds a logger for cfg.  Format "text" selects the human friendly
// console writer; anything else produces JSON lines.  Unknown levels fall
// back to info.
func New(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if cfg.Format == "text" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Setup builds the logger, installs it as the global zerolog logger and
// as the default context logger, and returns it.
func Setup(cfg config.LogConfig) zerolog.Logger {
	logger := New(cfg, os.Stdout)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger
}
