package backend

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// NewLogger builds the application logger from the config. When LogFile is
// set, output is appended to that file; the returned closer must then be
// closed on shutdown. Otherwise it writes to stderr.
func NewLogger(fsys afero.Fs, cfg AppConfig) (*log.Logger, io.Closer, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = io.NopCloser(nil)
	if cfg.LogFile != "" {
		f, err := fsys.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           level,
	})
	if cfg.LogFile != "" {
		logger.SetTimeFormat(time.RFC3339)
	}
	log.SetDefault(logger)
	return logger, closer, nil
}
