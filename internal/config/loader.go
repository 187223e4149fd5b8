package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/orgctl"
	projectConfigDir = ".orgctl"
	configFileName   = "config.yaml"
)

// LoadConfig loads the orgctl configuration by layering default, user, and
// project settings. An explicit path, when non-empty, is merged last and must exist.
func LoadConfig(explicitPath string) (OrgctlConfig, error) {
	// 1. Start with the default configuration
	config := GetDefaultConfig()

	// 2. User-specific configuration
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// Log this error but don't fail; user config is optional
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
		userConfig, err := loadConfigFromFile(userConfigPath)
		if err != nil {
			return OrgctlConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
		}
		config = mergeConfigs(config, userConfig)
	}

	// 3. Project-specific configuration
	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
		projectConfig, err := loadConfigFromFile(projectConfigPath)
		if err != nil {
			return OrgctlConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
		}
		config = mergeConfigs(config, projectConfig)
	}

	// 4. Explicit --config file
	if explicitPath != "" {
		explicitConfig, err := loadConfigFromFile(explicitPath)
		if err != nil {
			return OrgctlConfig{}, fmt.Errorf("error loading config from %s: %w", explicitPath, err)
		}
		config = mergeConfigs(config, explicitConfig)
	}

	if config.SettingsPath == "" {
		dir, err := GetUserConfigDir()
		if err != nil {
			return OrgctlConfig{}, fmt.Errorf("cannot resolve settings path: %w", err)
		}
		config.SettingsPath = DefaultSettingsPath(dir)
	}
	config.SettingsPath = expandHome(config.SettingsPath)
	config.LogFile = expandHome(config.LogFile)

	if err := Validate(config); err != nil {
		return OrgctlConfig{}, err
	}
	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads an OrgctlConfig from a YAML file.
func loadConfigFromFile(filePath string) (OrgctlConfig, error) {
	var config OrgctlConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return OrgctlConfig{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return OrgctlConfig{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config.
func mergeConfigs(base, overlay OrgctlConfig) OrgctlConfig {
	merged := base

	if overlay.CLIPath != "" {
		merged.CLIPath = overlay.CLIPath
	}
	if overlay.PortLookupPath != "" {
		merged.PortLookupPath = overlay.PortLookupPath
	}
	if overlay.CallbackPort != 0 {
		merged.CallbackPort = overlay.CallbackPort
	}
	if overlay.AuthTimeout != 0 {
		merged.AuthTimeout = overlay.AuthTimeout
	}
	if len(overlay.LimitsCommand) > 0 {
		merged.LimitsCommand = append([]string(nil), overlay.LimitsCommand...)
	}
	if overlay.ProductionLoginURL != "" {
		merged.ProductionLoginURL = overlay.ProductionLoginURL
	}
	if overlay.SandboxLoginURL != "" {
		merged.SandboxLoginURL = overlay.SandboxLoginURL
	}
	if overlay.DefaultBrowser != "" {
		merged.DefaultBrowser = overlay.DefaultBrowser
	}
	if overlay.SettingsPath != "" {
		merged.SettingsPath = overlay.SettingsPath
	}
	// Merge LaunchAtLogin only if explicitly set in overlay
	if overlay.LaunchAtLogin != nil {
		v := *overlay.LaunchAtLogin
		merged.LaunchAtLogin = &v
	}
	if overlay.LogLevel != "" {
		merged.LogLevel = overlay.LogLevel
	}
	if overlay.LogFile != "" {
		merged.LogFile = overlay.LogFile
	}
	if overlay.SelfUpdateRepo != "" {
		merged.SelfUpdateRepo = overlay.SelfUpdateRepo
	}

	return merged
}

// Validate checks values that would otherwise fail late inside a CLI call.
func Validate(c OrgctlConfig) error {
	if c.CallbackPort <= 0 || c.CallbackPort > 65535 {
		return fmt.Errorf("callbackPort %d out of range", c.CallbackPort)
	}
	if c.AuthTimeout < 0 {
		return fmt.Errorf("authTimeout must not be negative")
	}
	if len(c.LimitsCommand) == 0 {
		return fmt.Errorf("limitsCommand must not be empty")
	}
	return nil
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := osUserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
