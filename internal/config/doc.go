// Package config provides configuration management for orgctl.
//
// Configuration is loaded from YAML files and merged in order, later sources
// overriding earlier ones:
//
//  1. Default configuration (compiled in)
//  2. User configuration (~/.config/orgctl/config.yaml)
//  3. Project configuration (./.orgctl/config.yaml)
//  4. An explicit file passed with --config
//
// # Configuration Structure
//
//	cliPath: /usr/local/bin/sf
//	portLookupPath: /usr/sbin/lsof
//	callbackPort: 1717
//	authTimeout: 2m
//	limitsCommand: ["org", "list", "limits"]
//	defaultBrowser: chrome
//	settingsPath: ~/.config/orgctl/settings.json
//	logLevel: info
//
// Only non-zero values in an overlay replace the base value.
package config
