// Package logging builds the process logger: human-readable lines on
// stderr, mirrored into a monthly rotating file so unattended runs leave
// a trail.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Options controls logger construction.
type Options struct {
	// Dir receives the monthly log file, created on demand.
	Dir string

	// Debug and Trace raise verbosity; Trace wins.
	Debug bool
	Trace bool

	// DisableFile keeps logging on stderr only.
	DisableFile bool

	// Out overrides the console writer. Defaults to stderr.
	Out io.Writer

	// Fs is the filesystem the log file is created on. Defaults to the
	// OS filesystem.
	Fs afero.Fs
}

func (o Options) level() logrus.Level {
	switch {
	case o.Trace:
		return logrus.TraceLevel
	case o.Debug:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// FileName returns the log file name for the month of now.
func FileName(now time.Time) string {
	return fmt.Sprintf("coinclaw.%s.log", now.Format("2006-01"))
}

// New builds the logger. The returned close function flushes and closes
// the log file; it is non-nil even when file logging is off.
func New(opts Options) (*logrus.Logger, func() error, error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	logger := &logrus.Logger{
		Out: out,
		Formatter: &logrus.TextFormatter{
			FullTimestamp: true,
		},
		Hooks: make(logrus.LevelHooks),
		Level: opts.level(),
	}

	if opts.DisableFile {
		return logger, func() error { return nil }, nil
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir %s: %w", opts.Dir, err)
	}
	path := filepath.Join(opts.Dir, FileName(time.Now()))
	file, err := fs.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	logger.SetOutput(io.MultiWriter(out, file))
	return logger, file.Close, nil
}
