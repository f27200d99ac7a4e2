// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// newLogger returns the stderr logger used for status lines. Debug lines
// only appear when verbose is set.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Level: log.InfoLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	styles := log.DefaultStyles()
	styles.Levels[log.DebugLevel] = debugLevelStyle
	styles.Levels[log.InfoLevel] = infoLevelStyle
	styles.Levels[log.WarnLevel] = warnLevelStyle
	styles.Levels[log.ErrorLevel] = errorLevelStyle
	styles.Levels[log.FatalLevel] = fatalLevelStyle
	logger.SetStyles(styles)
	return logger
}

// installLogger makes logger the slog default so the library packages,
// which log through slog, share its format and level.
func installLogger(logger *log.Logger) {
	slog.SetDefault(slog.New(logger))
}
