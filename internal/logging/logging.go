// Package logging builds the logrus logger used for one run: a debug-level
// file log plus a console hook whose level depends on --verbose.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	LogFileName = "report.log"
	maxLogBytes = 5 * 1024 * 1024
)

type Options struct {
	Dir     string
	Verbose bool
	Console io.Writer
}

// New opens <Dir>/report.log, archiving it first when it exceeds 5 MB.
// The returned closer releases the file.
func New(opts Options) (*log.Logger, io.Closer, error) {
	if opts.Dir == "" {
		opts.Dir = "./logs"
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(opts.Dir, LogFileName)
	if err := rotate(path, time.Now()); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	formatter := &log.TextFormatter{
		DisableQuote:    true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
	logger := log.New()
	logger.SetOutput(f)
	logger.SetFormatter(formatter)
	logger.SetLevel(log.DebugLevel)

	consoleLevel := log.WarnLevel
	if opts.Verbose {
		consoleLevel = log.DebugLevel
	}
	logger.AddHook(&consoleHook{out: opts.Console, level: consoleLevel, formatter: formatter})

	return logger, f, nil
}

// Discard returns a logger that drops everything; handy for tests.
func Discard() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func rotate(path string, now time.Time) error {
	info, err := os.Stat(path)
	if err != nil || info.Size() <= maxLogBytes {
		return nil
	}
	archived := filepath.Join(filepath.Dir(path), fmt.Sprintf("report.%s.log", now.Format("2006-01-02-150405")))
	if err := os.Rename(path, archived); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	return nil
}

type consoleHook struct {
	out       io.Writer
	level     log.Level
	formatter log.Formatter
}

func (h *consoleHook) Levels() []log.Level {
	var levels []log.Level
	for _, l := range log.AllLevels {
		if l <= h.level {
			levels = append(levels, l)
		}
	}
	return levels
}

func (h *consoleHook) Fire(entry *log.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.out.Write(line)
	return err
}
