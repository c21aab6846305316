package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is text or json.
	Format string
}

// SetupLogger installs the default slog logger described by c.
func SetupLogger(c LogConfig) error {
	l, err := NewLogger(os.Stderr, c)
	if err != nil {
		return err
	}

	slog.SetDefault(l)
	return nil
}

func NewLogger(w io.Writer, c LogConfig) (*slog.Logger, error) {
	var lvl slog.Level
	if c.Level != "" {
		if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", c.Level, err)
		}
	}

	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(c.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", c.Format)
	}
}
