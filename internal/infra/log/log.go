package log

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/PeleiaDePelego/BotBinance/internal/config"
)

type Logger = zerolog.Logger

// NewLogger builds the process logger. Logs go to stderr; stdout belongs to
// the console report.
func NewLogger(cfg config.Config) Logger { return newLogger(cfg, os.Stderr) }

func newLogger(cfg config.Config, w io.Writer) Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Logging.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Logging.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}
	return zerolog.New(w).With().Timestamp().Str("svc", "arbitr").Logger()
}

// Component tags l with the emitting subsystem.
func Component(l Logger, name string) Logger {
	return l.With().Str("component", name).Logger()
}

// Nop discards everything; handy in tests.
func Nop() Logger { return zerolog.New(io.Discard) }
