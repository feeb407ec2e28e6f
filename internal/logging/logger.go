package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Level       string
	Format      string
	Environment string
	Output      io.Writer
}

// NewLogger builds the process logger. Format defaults to text in
// development and JSON everywhere else.
func NewLogger(cfg Config) *logrus.Logger {
	logger := logrus.New()

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	format := cfg.Format
	if format == "" {
		format = "json"
		if cfg.Environment == "development" {
			format = "text"
		}
	}
	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// Discard returns a logger that drops everything; handy for tests and
// for components constructed without a logger.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *logrus.Logger) *logrus.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
