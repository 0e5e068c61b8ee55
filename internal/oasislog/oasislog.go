// Package oasislog gives the CLI and the core engine packages one shared
// logger shape: a package-level *logrus.Logger configured once by the CLI
// entry point and read by library code through Logger().
//
// One optional log-file redirect set up at startup, structured logging
// calls everywhere else -- logrus in place of plain log.Printf, so
// warnings can carry sector/LBA/owner fields instead of formatted text.
package oasislog

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
}

// Setup configures the shared logger's level and, if file is non-empty,
// redirects output to that file (creating parent directories as needed).
func Setup(level string, file string) error {
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return err
		}
		log.SetLevel(parsed)
	}

	if file == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	log.SetOutput(f)
	return nil
}

// Logger returns the shared logger instance. Library packages use this for
// warnings they can't surface as returned errors (a DEB with an
// unrecognized format byte kept during directory load, a bad sector flagged
// on an IMD track); they never call Fatal.
func Logger() *logrus.Logger { return log }

// SetOutput is exposed directly for tests that want to capture log output
// without touching the filesystem.
func SetOutput(w io.Writer) { log.SetOutput(w) }
