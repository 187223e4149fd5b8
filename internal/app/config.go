package app

import (
	"io"
	"time"

	"orgctl/internal/config"
)

// Config holds the application configuration
type Config struct {
	// ConfigPath is an explicit config file layered over the defaults.
	ConfigPath string

	// Debug forces debug logging regardless of the configured level.
	Debug bool

	// Interactive selects the terminal login view over plain output.
	Interactive bool

	// AuthTimeout overrides the configured login timeout when positive.
	AuthTimeout time.Duration

	// LogOutput receives text log records. Defaults to stderr.
	LogOutput io.Writer

	// OrgctlConfig is filled in by NewApplication.
	OrgctlConfig *config.OrgctlConfig
}

// NewConfig creates a new application configuration
func NewConfig(configPath string, debug bool) *Config {
	return &Config{
		ConfigPath: configPath,
		Debug:      debug,
	}
}
