// Package logging builds the process logger.
//
// The interactive TUI owns the terminal, so logs must never go to stdout/stderr while
// it runs: they go to a file when one is configured and are discarded otherwise.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

type Options struct {
	// Path is a log file to append to. Empty means no file.
	Path string
	// Stderr receives logs when Path is empty. Nil discards them.
	Stderr io.Writer
	Debug  bool
}

// New returns a configured logger and a closer for any file it opened.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	l.SetLevel(logrus.InfoLevel)
	if opts.Debug {
		l.SetLevel(logrus.DebugLevel)
	}

	path := strings.TrimSpace(opts.Path)
	switch {
	case path != "":
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		l.SetOutput(f)
		return l, f, nil
	case opts.Stderr != nil:
		l.SetOutput(opts.Stderr)
	default:
		l.SetOutput(io.Discard)
	}
	return l, nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
