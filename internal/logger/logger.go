package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// New logs everything it is given; filtering follows the global level that
// config.Load sets from LOG_LEVEL.
func New() zerolog.Logger {
	return SetLevel(zerolog.TraceLevel)
}

func SetLevel(level zerolog.Level) zerolog.Logger {
	return newWithWriter(os.Stdout, level)
}

// Console is the human readable variant used by one-shot CLI commands.
func Console(level zerolog.Level) zerolog.Logger {
	return newWithWriter(zerolog.ConsoleWriter{Out: os.Stderr}, level)
}

func newWithWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Logger()

	return logger.Level(level)
}

var Module = fx.Provide(New)
