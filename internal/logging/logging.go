// Package logging builds the process logger, writing to stderr or to a
// rotating log file.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/menta2k/smartcrop/internal/config"
)

// New returns a logger for cfg. Without a file the logger writes to stderr.
// The returned closer releases the log file and is never nil.
func New(cfg config.LogConfig) (*log.Logger, io.Closer, error) {
	if cfg.File == "" {
		return log.New(os.Stderr, "smartcrop: ", log.Ltime), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, nil, err
	}

	w := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays, // days
		Compress:   cfg.Compress,
	}
	return log.New(w, "", log.Ldate|log.Ltime|log.Lshortfile), w, nil
}

// Debug returns l when verbose output is on, otherwise a logger that discards
func Debug(l *log.Logger, verbose bool) *log.Logger {
	if verbose {
		return l
	}
	return log.New(io.Discard, "", 0)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
