// Package logging configures the process-wide logrus logger and hands out
// component-scoped entries.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	base     = logrus.New()
	initOnce sync.Once
)

// Options controls logger output
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// Init applies level, format and output to the shared logger
func Init(opts Options) {
	// keep NewLogger from resetting the formatter later
	initOnce.Do(func() {})

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	if strings.EqualFold(opts.Format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.Output != nil {
		base.SetOutput(opts.Output)
	} else {
		base.SetOutput(os.Stderr)
	}
}

// NewLogger returns an entry tagged with the component name
func NewLogger(component string) *logrus.Entry {
	initOnce.Do(func() {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	})
	return base.WithField("component", component)
}

// Logger exposes the shared logger, mainly for tests that swap the output
func Logger() *logrus.Logger {
	return base
}
