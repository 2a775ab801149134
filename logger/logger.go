package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger at debug level when debug is set, and a JSON
// logger at info level otherwise.
func New(debug bool) zerolog.Logger {
	return NewWithWriter(os.Stdout, debug)
}

func NewWithWriter(w io.Writer, debug bool) zerolog.Logger {
	if debug {
		output := zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
		return zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	}
	return zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}
