package app

import (
	"fmt"

	"golang.org/x/sync/semaphore"

	"orgctl/internal/auth"
	"orgctl/internal/config"
	"orgctl/internal/events"
	"orgctl/internal/orgcli"
	"orgctl/internal/runner"
	"orgctl/internal/store"
)

// Services holds all the initialized components.
type Services struct {
	Config  config.OrgctlConfig
	Bus     *events.DefaultBus
	Runner  runner.Runner
	Gateway *orgcli.Gateway
	Store   *store.OrgStore
	Auth    *auth.Orchestrator
	// AuthLock guards the callback port across every login path.
	AuthLock *semaphore.Weighted
}

// InitializeServices wires the components together. A nil runner or settings
// store falls back to the real process runner and the settings file.
func InitializeServices(cfg config.OrgctlConfig, r runner.Runner, settings store.SettingsStore) (*Services, error) {
	if r == nil {
		r = runner.New()
	}
	if settings == nil {
		settings = store.NewFileSettings(cfg.SettingsPath)
	}

	bus := events.NewBus()

	orgStore, err := store.New(settings, bus)
	if err != nil {
		return nil, fmt.Errorf("failed to load organizations: %w", err)
	}

	gateway := orgcli.New(r, orgcli.OptionsFromConfig(cfg), bus)
	lock := semaphore.NewWeighted(1)

	// The orchestrator publishes its own richer completion event.
	orch := auth.New(gateway.WithoutEvents(), orgStore, bus, auth.OptionsFromConfig(cfg, lock))

	return &Services{
		Config:   cfg,
		Bus:      bus,
		Runner:   r,
		Gateway:  gateway,
		Store:    orgStore,
		Auth:     orch,
		AuthLock: lock,
	}, nil
}

// Close releases subscriptions held by the services.
func (s *Services) Close() {
	s.Store.Close()
}
