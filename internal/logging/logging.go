// Package logging configures apex/log for the CLI.
package logging

import (
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
)

// Setup installs the cli handler writing to w at the given level (debug,
// info, warn, error, fatal) and returns the root logger.
func Setup(level string, w io.Writer) (log.Interface, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	logger := &log.Logger{Handler: cli.New(w), Level: lvl}
	log.SetHandler(logger.Handler)
	log.SetLevel(lvl)
	return logger, nil
}
