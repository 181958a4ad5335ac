// Package logging builds the node's structured logger.
package logging

import (
	"fmt"
	"io"
	"time"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
)

// New returns a logger writing to w at the given level ("debug", "info",
// "error", ...). format is "json" or "console"; "" means console.
func New(w io.Writer, level, format string) (log.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(level); err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
	}

	opts := []log.Option{log.LevelOption(lvl), log.TimeFormatOption(time.RFC3339)}
	switch format {
	case "json":
		opts = append(opts, log.OutputJSONOption())
	case "", "console":
		opts = append(opts, log.ColorOption(false))
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return log.NewLogger(w, opts...), nil
}
