// Package logging configures the structured logger shared by the
// namespace core and the FUSE bridge. Grounded on rclone's logrus
// setup: a text formatter by default, full timestamps, optional file
// output so a daemon process does not contend with the FUSE debug
// stream on stdout.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options configures New.
type Options struct {
	Debug   bool
	LogFile string
}

// New builds a logrus.Logger per opts. If opts.LogFile is set, output
// goes there instead of stderr.
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if opts.Debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	var out io.Writer = os.Stderr
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		out = f
	}
	log.SetOutput(out)

	return log, nil
}
