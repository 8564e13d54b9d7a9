// Package logging configures the structured logger shared by every pacdeck package.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// switchWriter lets package-level loggers created at init time pick up the
// writer configured later by Setup.
type switchWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

var (
	out  = &switchWriter{w: os.Stderr}
	root = zerolog.New(out).With().Timestamp().Logger()
)

func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

// Options controls where and how much pacdeck logs.
type Options struct {
	Level   string // trace, debug, info, warn, error
	Verbose bool   // forces at least debug level and adds caller info
	File    string // optional log file, appended to
	NoColor bool
}

// Setup configures the global logger. It returns a closer for the log file,
// which is nil when no file was opened.
func Setup(opts Options) (io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor,
	}

	writers := []io.Writer{console}
	var file *os.File
	var fileErr error
	if opts.File != "" {
		file, fileErr = openLogFile(opts.File)
		if fileErr == nil {
			writers = append(writers, file)
		}
	}
	out.set(io.MultiWriter(writers...))

	if fileErr != nil {
		root.Warn().Err(fileErr).Str("path", opts.File).Msg("Failed to open log file, logging to console only")
	}

	if file == nil {
		return nil, nil
	}
	return file, nil
}

// SetOutput redirects every logger to w. Intended for tests.
func SetOutput(w io.Writer) {
	out.set(w)
}

// ParseLevel maps a level name to a zerolog level. An empty name means warn.
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// GetLogger returns a logger tagged with the given component name.
func GetLogger(component string) zerolog.Logger {
	return root.With().Str("component", component).Logger()
}

// LogDuration logs the duration of an operation at debug level.
func LogDuration(logger zerolog.Logger, start time.Time, operation string) {
	logger.Debug().
		Str("operation", operation).
		Dur("duration", time.Since(start)).
		Msg("Operation completed")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
