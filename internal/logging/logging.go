// ABOUTME: Structured logging setup
// ABOUTME: Routes zerolog output to a file, the console, or both
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultFile is used when the TUI owns the terminal and no file is configured
const DefaultFile = "ringplay.log"

// Options controls where logs go
type Options struct {
	Level zerolog.Level
	// File is appended to when set
	File string
	// Console receives human-readable output when set
	Console io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger writing JSON lines to every writer, tagged with a
// fresh session id
func New(level zerolog.Level, writers ...io.Writer) zerolog.Logger {
	var w io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		w = writers[0]
	default:
		w = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("session", uuid.NewString()).
		Logger()
}

// Setup installs the global logger. The returned closer releases the log file.
func Setup(opts Options) (io.Closer, error) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}
	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: time.TimeOnly})
	}

	log.Logger = New(opts.Level, writers...)
	zerolog.DefaultContextLogger = &log.Logger

	// libraries logging through the standard logger (ffmpeg-go) follow the same routing
	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
	return closer, nil
}
