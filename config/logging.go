package config

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// LogConfig contains logging configuration.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // json | console
	Output    string `yaml:"output"` // stdout | stderr
	NoColor   bool   `yaml:"no_color"`
	Timestamp bool   `yaml:"timestamp"`
}

// ApplyDefaults fills empty fields.
func (c *LogConfig) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

// Validate validates logging configuration.
func (c *LogConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil || c.Level == "" {
		return fmt.Errorf("log.level: invalid level %q", c.Level)
	}
	validFormats := []string{"json", "console"}
	if !slices.Contains(validFormats, strings.ToLower(c.Format)) {
		return fmt.Errorf("log.format must be one of %v (got: %s)", validFormats, c.Format)
	}
	return nil
}

// NewLogger builds a zerolog logger from c, writing to w. A nil w selects
// c.Output.
func (c LogConfig) NewLogger(w io.Writer) zerolog.Logger {
	c.ApplyDefaults()
	if w == nil {
		w = outputWriter(c.Output)
	}
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if strings.ToLower(c.Format) == "console" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: c.NoColor, TimeFormat: "15:04:05"}
	}
	zl := zerolog.New(w).Level(level)
	if c.Timestamp {
		zl = zl.With().Timestamp().Logger()
	}
	return zl
}

func outputWriter(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout
	default:
		return os.Stderr
	}
}
