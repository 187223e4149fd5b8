// Package auth drives the interactive login workflow for one organization:
// validation, the CLI call raced against a timeout, and the completion event
// that turns a successful login into a store entry.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"orgctl/internal/config"
	"orgctl/internal/events"
	"orgctl/internal/orgcli"
	"orgctl/internal/store"
	"orgctl/pkg/logging"
)

// Gateway is the subset of the CLI gateway used for logins.
type Gateway interface {
	Authenticate(alias, instanceURL, orgType string) bool
	FetchDetails(alias string) *orgcli.OrgDetails
	KillListener(port int)
	CallbackPort() int
}

// OrgStore is the subset of the organization store used for validation and edits.
type OrgStore interface {
	AliasTaker
	Get(id string) (store.Organization, bool)
	Mutate(id string, fn func(*store.Organization)) bool
}

// Options configures an Orchestrator.
type Options struct {
	Timeout            time.Duration
	ProductionLoginURL string
	SandboxLoginURL    string
	// Lock serializes logins. Orchestrators that share a callback port must
	// share a lock. Nil gives the orchestrator its own.
	Lock *semaphore.Weighted
}

// OptionsFromConfig builds Options from the loaded configuration.
func OptionsFromConfig(cfg config.OrgctlConfig, lock *semaphore.Weighted) Options {
	return Options{
		Timeout:            cfg.AuthTimeout,
		ProductionLoginURL: cfg.ProductionLoginURL,
		SandboxLoginURL:    cfg.SandboxLoginURL,
		Lock:               lock,
	}
}

// Result describes how an attempt ended.
type Result struct {
	State       State
	Alias       string
	Label       string
	InstanceURL string
	OrgID       string
}

// Orchestrator runs one login at a time.
type Orchestrator struct {
	gateway Gateway
	store   OrgStore
	bus     events.Bus
	opts    Options
	lock    *semaphore.Weighted

	mu       sync.Mutex
	state    State
	last     *Request
	cancel   context.CancelFunc
	observer Observer
}

// New creates an Orchestrator. The gateway should not publish its own
// completion events (see orgcli.Gateway.WithoutEvents).
func New(gw Gateway, st OrgStore, bus events.Bus, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultAuthTimeout
	}
	if opts.ProductionLoginURL == "" {
		opts.ProductionLoginURL = config.DefaultProductionLoginURL
	}
	if opts.SandboxLoginURL == "" {
		opts.SandboxLoginURL = config.DefaultSandboxLoginURL
	}
	lock := opts.Lock
	if lock == nil {
		lock = semaphore.NewWeighted(1)
	}
	return &Orchestrator{
		gateway: gw,
		store:   st,
		bus:     bus,
		opts:    opts,
		lock:    lock,
	}
}

// SetObserver registers fn to be called on every transition.
func (o *Orchestrator) SetObserver(fn Observer) {
	o.mu.Lock()
	o.observer = fn
	o.mu.Unlock()
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Timeout returns the configured attempt timeout.
func (o *Orchestrator) Timeout() time.Duration {
	return o.opts.Timeout
}

func (o *Orchestrator) transition(s State) {
	o.mu.Lock()
	o.state = s
	obs := o.observer
	o.mu.Unlock()

	logging.Debug("AuthOrchestrator", "State -> %s", s)
	if obs != nil {
		obs(s)
	}
}

// Run validates req and performs the login. It blocks until the CLI returns,
// the timeout fires, or ctx is cancelled. A timed out attempt can be resumed
// with Retry or abandoned with Cancel.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	if !o.lock.TryAcquire(1) {
		return Result{State: o.State()}, ErrAttemptInProgress
	}
	defer o.lock.Release(1)

	saved := req
	o.mu.Lock()
	o.last = &saved
	o.mu.Unlock()

	o.transition(StateValidating)
	v, err := o.validate(req)
	if err != nil {
		logging.Warn("AuthOrchestrator", "Login input rejected: %v", err)
		o.transition(StateIdle)
		return Result{State: StateIdle, Alias: v.alias, Label: v.label}, err
	}

	return o.attempt(ctx, v)
}

// Retry re-runs the last attempt with the same input after a timeout or failure.
func (o *Orchestrator) Retry(ctx context.Context) (Result, error) {
	o.mu.Lock()
	state, last := o.state, o.last
	o.mu.Unlock()

	if last == nil || (state != StateTimedOut && state != StateFailed) {
		return Result{State: state}, ErrNothingToRetry
	}
	logging.Info("AuthOrchestrator", "Retrying login for %q", last.Label)
	return o.Run(ctx, *last)
}

// Cancel aborts an attempt in flight or closes a timed out one. An attempt in
// flight kills the callback listener on its way out.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	state, cancel := o.state, o.cancel
	o.mu.Unlock()

	if cancel != nil {
		cancel()
		return
	}
	if state == StateTimedOut {
		o.transition(StateCancelled)
	}
}

func (o *Orchestrator) abort(res Result) (Result, error) {
	logging.Info("AuthOrchestrator", "Login for %s cancelled", res.Alias)
	o.gateway.KillListener(o.gateway.CallbackPort())
	res.State = StateCancelled
	o.transition(StateCancelled)
	return res, ErrCancelled
}

func (o *Orchestrator) attempt(ctx context.Context, v validated) (Result, error) {
	res := Result{Alias: v.alias, Label: v.label, InstanceURL: v.instanceURL}

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.cancel = nil
		o.mu.Unlock()
	}()

	o.transition(StateRunning)
	if attemptCtx.Err() != nil {
		return o.abort(res)
	}
	logging.Info("AuthOrchestrator", "Starting login for %s against %s", v.alias, v.instanceURL)

	// Buffered so the CLI goroutine can finish after losing the race.
	done := make(chan bool, 1)
	go func() {
		done <- o.gateway.Authenticate(v.alias, v.instanceURL, string(v.orgType))
	}()

	timer := time.NewTimer(o.opts.Timeout)
	defer timer.Stop()

	select {
	case ok := <-done:
		if !ok {
			res.State = StateFailed
			o.transition(StateFailed)
			return res, fmt.Errorf("%w for %s", ErrAuthFailed, v.alias)
		}
	case <-timer.C:
		logging.Warn("AuthOrchestrator", "Login for %s timed out after %s", v.alias, o.opts.Timeout)
		o.gateway.KillListener(o.gateway.CallbackPort())
		res.State = StateTimedOut
		o.transition(StateTimedOut)
		return res, ErrTimedOut
	case <-attemptCtx.Done():
		return o.abort(res)
	}

	payload := events.Payload{
		events.KeyAlias:       v.alias,
		events.KeyLabel:       v.label,
		events.KeyOrgType:     string(v.orgType),
		events.KeyInstanceURL: v.instanceURL,
		events.KeyOrgID:       events.Unknown,
		events.KeyUsername:    events.Unknown,
		events.KeyFavorite:    strconv.FormatBool(v.favorite),
	}
	if details := o.gateway.FetchDetails(v.alias); details != nil {
		payload[events.KeyOrgID] = events.OrUnknown(details.ID)
		payload[events.KeyUsername] = events.OrUnknown(details.Username)
		res.OrgID = details.ID
	}
	if o.bus != nil {
		o.bus.Publish(events.AuthCompleted, payload)
	}

	res.State = StateSucceeded
	o.transition(StateSucceeded)
	logging.Info("AuthOrchestrator", "Login for %s succeeded", v.alias)
	return res, nil
}
