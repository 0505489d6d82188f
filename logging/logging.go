/*
Package logging configures the application logger.
*/
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w. Quiet runs surface only
// warnings and errors; child process output never goes through here.
func New(w io.Writer, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if quiet {
		level = zerolog.WarnLevel
	}

	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}
