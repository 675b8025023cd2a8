package config

import (
	"io"

	"github.com/rs/zerolog"
)

// LogOptions controls NewLogger.
type LogOptions struct {
	Verbose bool
	ANSI    bool
}

// NewLogger returns a console logger writing to w: level and message only,
// no timestamps. Debug messages are shown when Verbose is set.
func NewLogger(w io.Writer, opts LogOptions) zerolog.Logger {
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      !opts.ANSI,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}

	return zerolog.New(consoleWriter).Level(level)
}
