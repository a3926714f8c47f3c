package log

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation settings of the log file.
const (
	logFileMaxSizeMB  = 50
	logFileMaxBackups = 5
	logFileMaxAgeDays = 28
)

// Options selects the format and destinations of a logger.
type Options struct {
	// Level is the minimum level written.
	Level slog.Level

	// JSON switches from text to JSON lines.
	JSON bool

	// File, when set, also writes logs to this path with size-based rotation.
	File string
}

// Level maps the --verbose and --quiet flags to a level.
// Info is the default so progress lines are visible.
func Level(verbose, quiet bool) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// New returns a secure logger writing to w and, if opts.File is set, to a
// rotated file. The returned closer releases the file and must be closed
// when logging ends.
func New(w io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return nil, nil, err
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
			MaxAge:     logFileMaxAgeDays,
			Compress:   true,
		}
		if w == nil {
			w = lj
		} else {
			w = io.MultiWriter(w, lj)
		}
		closer = lj
	}
	if w == nil {
		return nil, nil, errors.New("no log destination")
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var base slog.Handler
	if opts.JSON {
		base = slog.NewJSONHandler(w, handlerOpts)
	} else {
		base = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(NewSecureHandler(base)), closer, nil
}

// NewSecureLogger returns a text logger on w at Debug when verbose and Warn
// otherwise.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
