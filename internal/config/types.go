package config

import "time"

// OrgctlConfig is the top-level configuration structure for orgctl.
type OrgctlConfig struct {
	// CLIPath is the external platform CLI binary.
	CLIPath string `yaml:"cliPath,omitempty"`
	// PortLookupPath is the utility used to find the process bound to the callback port.
	PortLookupPath string `yaml:"portLookupPath,omitempty"`
	// CallbackPort is the local OAuth callback port the external CLI listens on during web login.
	CallbackPort int `yaml:"callbackPort,omitempty"`
	// AuthTimeout bounds a single interactive login attempt.
	AuthTimeout time.Duration `yaml:"authTimeout,omitempty"`
	// LimitsCommand is the subcommand (without target and --json) used to fetch org limits.
	LimitsCommand []string `yaml:"limitsCommand,omitempty"`

	ProductionLoginURL string `yaml:"productionLoginURL,omitempty"`
	SandboxLoginURL    string `yaml:"sandboxLoginURL,omitempty"`

	// DefaultBrowser is used when an organization has no preferred browser.
	DefaultBrowser string `yaml:"defaultBrowser,omitempty"`
	// SettingsPath is the settings document holding persisted organizations.
	SettingsPath string `yaml:"settingsPath,omitempty"`
	// LaunchAtLogin is kept for the desktop shell; orgctl only persists it.
	LaunchAtLogin *bool `yaml:"launchAtLogin,omitempty"`

	LogLevel string `yaml:"logLevel,omitempty"`
	LogFile  string `yaml:"logFile,omitempty"`

	// SelfUpdateRepo is the owner/name slug checked by `orgctl self-update`.
	SelfUpdateRepo string `yaml:"selfUpdateRepo,omitempty"`
}
