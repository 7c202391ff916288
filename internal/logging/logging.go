package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options selects the level, format and destination of a logger.
type Options struct {
	Level  string    // trace, debug, info, warn, error
	Format string    // text or json
	Output io.Writer // defaults to os.Stderr
}

// New returns a logger configured from opts.
func New(opts Options) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if opts.Output != nil {
		l.SetOutput(opts.Output)
	}

	level := logrus.InfoLevel
	if opts.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(opts.Level); err != nil {
			return nil, errors.Wrap(err, "log level")
		}
	}
	l.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, errors.Errorf("unknown log format %q", opts.Format)
	}
	return l, nil
}

// Component returns an entry tagged with the component name.
func Component(l *logrus.Logger, name string) *logrus.Entry {
	return l.WithField("component", name)
}

// Discard returns an entry that drops everything.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}
