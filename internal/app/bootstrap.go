package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"orgctl/internal/auth"
	"orgctl/internal/config"
	"orgctl/internal/runner"
	"orgctl/internal/store"
	"orgctl/pkg/logging"
)

// Application is the main application structure that bootstraps orgctl
type Application struct {
	config   *Config
	services *Services
	logFile  io.Closer
}

// For mocking in tests
var (
	newRunner   func() runner.Runner
	newSettings func(path string) store.SettingsStore
)

// NewApplication loads configuration, sets up logging and initializes services.
func NewApplication(cfg *Config) (*Application, error) {
	orgctlCfg, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load orgctl configuration")
		return nil, fmt.Errorf("failed to load orgctl configuration: %w", err)
	}
	if cfg.AuthTimeout > 0 {
		orgctlCfg.AuthTimeout = cfg.AuthTimeout
	}
	cfg.OrgctlConfig = &orgctlCfg

	a := &Application{config: cfg}
	if err := a.initLogging(); err != nil {
		return nil, err
	}
	logging.Debug("Bootstrap", "Using settings at %s", orgctlCfg.SettingsPath)

	var r runner.Runner
	if newRunner != nil {
		r = newRunner()
	}
	var settings store.SettingsStore
	if newSettings != nil {
		settings = newSettings(orgctlCfg.SettingsPath)
	}

	services, err := InitializeServices(orgctlCfg, r, settings)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		a.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	a.services = services
	return a, nil
}

func (a *Application) logLevel() logging.LogLevel {
	if a.config.Debug {
		return logging.LevelDebug
	}
	return logging.ParseLevel(a.config.OrgctlConfig.LogLevel)
}

// initLogging sends text records to LogOutput. The interactive view owns the
// terminal, so in that mode records only go to the log file, if any.
func (a *Application) initLogging() error {
	output := a.config.LogOutput
	if output == nil {
		output = os.Stderr
	}
	if a.config.Interactive {
		output = io.Discard
	}

	level := a.logLevel()
	if path := a.config.OrgctlConfig.LogFile; path != "" {
		closer, err := logging.InitWithFile(level, output, path)
		if err != nil {
			return err
		}
		a.logFile = closer
		return nil
	}
	logging.Init(level, output)
	return nil
}

// NewWithServices wraps already initialized services, for embedding and tests.
func NewWithServices(cfg config.OrgctlConfig, services *Services) *Application {
	return &Application{
		config:   &Config{OrgctlConfig: &cfg},
		services: services,
	}
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Config returns the resolved orgctl configuration.
func (a *Application) Config() config.OrgctlConfig {
	return *a.config.OrgctlConfig
}

// Login runs one login in the appropriate mode
func (a *Application) Login(ctx context.Context, req auth.Request) (auth.Result, error) {
	if a.config.Interactive {
		return runInteractiveLogin(ctx, a.services, req)
	}
	return runPlainLogin(ctx, a.services, req)
}

// Close releases the log file and event subscriptions.
func (a *Application) Close() {
	if a.services != nil {
		a.services.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}
