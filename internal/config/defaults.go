package config

import (
	"path/filepath"
	"time"
)

const (
	DefaultCLIPath            = "/usr/local/bin/sf"
	DefaultPortLookupPath     = "/usr/sbin/lsof"
	DefaultCallbackPort       = 1717
	DefaultAuthTimeout        = 120 * time.Second
	DefaultProductionLoginURL = "https://login.salesforce.com"
	DefaultSandboxLoginURL    = "https://test.salesforce.com"
	DefaultBrowser            = "default"
	DefaultSelfUpdateRepo     = "orgctl/orgctl"

	settingsFileName = "settings.json"
)

// DefaultLimitsCommand is the limits subcommand of current CLI releases.
var DefaultLimitsCommand = []string{"org", "list", "limits"}

// GetDefaultConfig returns the built-in configuration. SettingsPath is left
// empty here and resolved against the user config dir by LoadConfig.
func GetDefaultConfig() OrgctlConfig {
	launch := false
	return OrgctlConfig{
		CLIPath:            DefaultCLIPath,
		PortLookupPath:     DefaultPortLookupPath,
		CallbackPort:       DefaultCallbackPort,
		AuthTimeout:        DefaultAuthTimeout,
		LimitsCommand:      append([]string(nil), DefaultLimitsCommand...),
		ProductionLoginURL: DefaultProductionLoginURL,
		SandboxLoginURL:    DefaultSandboxLoginURL,
		DefaultBrowser:     DefaultBrowser,
		LaunchAtLogin:      &launch,
		LogLevel:           "warn",
		SelfUpdateRepo:     DefaultSelfUpdateRepo,
	}
}

// DefaultSettingsPath returns the settings document path inside dir.
func DefaultSettingsPath(dir string) string {
	return filepath.Join(dir, settingsFileName)
}
