// Package store keeps the authoritative list of known organizations and
// persists it as a single snapshot in a SettingsStore.
package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"

	"orgctl/internal/events"
	"orgctl/pkg/logging"
)

// SettingsKey is the settings key holding the organization snapshot.
const SettingsKey = "authenticatedOrgs"

const (
	flushInitialInterval = 50 * time.Millisecond
	flushMaxElapsed      = time.Second
)

// OrgStore is the in-memory list of organizations. Every mutation reloads the
// persisted snapshot under the settings lock, applies the change, re-sorts and
// rewrites the full snapshot. Readers see the list as of the last load or
// mutation; long-lived callers Reload before reading.
type OrgStore struct {
	mu       sync.RWMutex
	orgs     []Organization
	settings SettingsStore

	bus  events.Bus
	subs []*events.Subscription

	flushMaxElapsed time.Duration
}

// New loads the stored organizations from settings. If bus is non-nil the
// store subscribes to authentication events.
func New(settings SettingsStore, bus events.Bus) (*OrgStore, error) {
	s := &OrgStore{
		settings:        settings,
		bus:             bus,
		flushMaxElapsed: flushMaxElapsed,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	if bus != nil {
		s.subs = append(s.subs,
			bus.Subscribe(events.AuthCompleted, s.handleAuthCompleted),
			bus.Subscribe(events.AuthLoggedOut, s.handleLoggedOut),
		)
	}
	return s, nil
}

// Close drops the event subscriptions.
func (s *OrgStore) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		s.bus.Unsubscribe(sub)
	}
}

// Reload replaces the in-memory list with the persisted snapshot.
func (s *OrgStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked()
}

// refreshLocked re-reads the snapshot. Caller holds s.mu for writing. Entries
// stored without an id keep the id already assigned to their alias in memory.
func (s *OrgStore) refreshLocked() error {
	data, ok, err := s.settings.Get(SettingsKey)
	if err != nil {
		return fmt.Errorf("failed to read organizations: %w", err)
	}

	var loaded []Organization
	if ok && len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &loaded); err != nil {
			return fmt.Errorf("failed to decode organizations: %w", err)
		}
	}

	for i := range loaded {
		if loaded[i].ID != "" {
			continue
		}
		for _, known := range s.orgs {
			if known.Alias == loaded[i].Alias {
				loaded[i].ID = known.ID
				break
			}
		}
	}

	orgs := sanitizeLoaded(loaded)
	sortOrgs(orgs)
	s.orgs = orgs

	logging.Debug("OrgStore", "Loaded %d organizations", len(orgs))
	return nil
}

// beginMutation locks the shared settings, if the backend supports it, and
// reloads the snapshot so the change applies on top of what other processes
// wrote. Caller holds s.mu for writing and must call the returned unlock.
func (s *OrgStore) beginMutation() (func(), bool) {
	unlock := func() {}
	if l, ok := s.settings.(Locker); ok {
		u, err := l.Lock()
		if err != nil {
			logging.Error("OrgStore", err, "Could not lock settings")
			return unlock, false
		}
		unlock = u
	}
	if err := s.refreshLocked(); err != nil {
		logging.Error("OrgStore", err, "Refusing to overwrite organizations that could not be read")
		unlock()
		return func() {}, false
	}
	return unlock, true
}

// sanitizeLoaded repairs snapshots written by older releases: legacy org types,
// missing ids, duplicate aliases and more than one default.
func sanitizeLoaded(loaded []Organization) []Organization {
	orgs := make([]Organization, 0, len(loaded))
	aliases := make(map[string]bool, len(loaded))
	haveDefault := false

	for _, org := range loaded {
		if org.Alias == "" {
			logging.Warn("OrgStore", "Dropping stored organization %q without alias", org.Label)
			continue
		}
		if aliases[org.Alias] {
			logging.Warn("OrgStore", "Dropping duplicate stored alias %s", org.Alias)
			continue
		}
		aliases[org.Alias] = true

		if t, ok := ParseOrgType(string(org.OrgType)); ok {
			org.OrgType = t
		} else {
			org.OrgType = OrgTypeProduction
		}
		if org.ID == "" {
			org.ID = NewID()
		}
		if org.IsDefault {
			if haveDefault {
				org.IsDefault = false
			}
			haveDefault = true
		}
		orgs = append(orgs, org)
	}
	return orgs
}

func sortOrgs(orgs []Organization) {
	sort.SliceStable(orgs, func(i, j int) bool {
		li, lj := strings.ToLower(orgs[i].Label), strings.ToLower(orgs[j].Label)
		if li != lj {
			return li < lj
		}
		return orgs[i].Alias < orgs[j].Alias
	})
}

// commit re-sorts and flushes. Caller holds s.mu for writing.
func (s *OrgStore) commit() {
	sortOrgs(s.orgs)
	if err := s.flush(); err != nil {
		logging.Error("OrgStore", err, "Failed to persist %d organizations", len(s.orgs))
	}
}

func (s *OrgStore) flush() error {
	data, err := json.Marshal(s.orgs)
	if err != nil {
		return fmt.Errorf("failed to encode organizations: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = flushInitialInterval
	bo.MaxElapsedTime = s.flushMaxElapsed

	return backoff.RetryNotify(func() error {
		return s.settings.Set(SettingsKey, data)
	}, bo, func(err error, next time.Duration) {
		logging.Warn("OrgStore", "Write failed, retrying in %s: %v", next, err)
	})
}

func (s *OrgStore) indexOf(id string) int {
	for i := range s.orgs {
		if s.orgs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *OrgStore) aliasTaken(alias, excludingID string) bool {
	for _, org := range s.orgs {
		if org.Alias == alias && org.ID != excludingID {
			return true
		}
	}
	return false
}

// clearDefaults unsets the default flag on every org except keepID.
func (s *OrgStore) clearDefaults(keepID string) {
	for i := range s.orgs {
		if s.orgs[i].ID != keepID {
			s.orgs[i].IsDefault = false
		}
	}
}

// Add inserts org. It returns false when the alias is empty or already present.
// An empty ID is filled in.
func (s *OrgStore) Add(org Organization) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, ok := s.beginMutation()
	if !ok {
		return false
	}
	defer unlock()

	if org.Alias == "" {
		logging.Warn("OrgStore", "Refusing to add organization %q without alias", org.Label)
		return false
	}
	if s.aliasTaken(org.Alias, "") {
		logging.Warn("OrgStore", "Alias %s already exists", org.Alias)
		return false
	}
	if org.ID == "" || s.indexOf(org.ID) >= 0 {
		org.ID = NewID()
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}
	if org.IsDefault {
		s.clearDefaults(org.ID)
	}

	s.orgs = append(s.orgs, org)
	s.commit()
	logging.Info("OrgStore", "Added organization %s (%s)", org.Alias, org.Label)
	return true
}

// Remove deletes the organization with id.
func (s *OrgStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, ok := s.beginMutation()
	if !ok {
		return false
	}
	defer unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	alias := s.orgs[i].Alias
	s.orgs = append(s.orgs[:i], s.orgs[i+1:]...)
	s.commit()
	logging.Info("OrgStore", "Removed organization %s", alias)
	return true
}

// Update replaces the stored organization with the same ID. onComplete, if
// set, is called with the stored value after the snapshot is flushed and the
// lock released.
func (s *OrgStore) Update(org Organization, onComplete func(Organization)) bool {
	s.mu.Lock()
	unlock, ok := s.beginMutation()
	if ok {
		ok = s.replaceLocked(org)
	}
	unlock()
	s.mu.Unlock()

	if ok && onComplete != nil {
		onComplete(org)
	}
	return ok
}

// Mutate applies fn to a copy of the organization with id and stores the
// result. The id cannot be changed by fn.
func (s *OrgStore) Mutate(id string, fn func(*Organization)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, ok := s.beginMutation()
	if !ok {
		return false
	}
	defer unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	updated := s.orgs[i]
	fn(&updated)
	updated.ID = id
	return s.replaceLocked(updated)
}

func (s *OrgStore) replaceLocked(org Organization) bool {
	i := s.indexOf(org.ID)
	if i < 0 {
		logging.Warn("OrgStore", "No organization with id %s", org.ID)
		return false
	}
	if org.Alias == "" || s.aliasTaken(org.Alias, org.ID) {
		logging.Warn("OrgStore", "Cannot rename %s to alias %q", s.orgs[i].Alias, org.Alias)
		return false
	}
	if org.IsDefault {
		s.clearDefaults(org.ID)
	}
	s.orgs[i] = org
	s.commit()
	return true
}

// SetDefault makes id the only default organization. Unknown ids change nothing.
func (s *OrgStore) SetDefault(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, ok := s.beginMutation()
	if !ok {
		return false
	}
	defer unlock()

	i := s.indexOf(id)
	if i < 0 {
		logging.Warn("OrgStore", "Cannot set default: no organization with id %s", id)
		return false
	}
	s.clearDefaults(id)
	s.orgs[i].IsDefault = true
	s.commit()
	logging.Info("OrgStore", "Default organization is now %s", s.orgs[i].Alias)
	return true
}

// ImportMany adds every org whose alias is not already present. Existing
// entries are never overwritten. An imported default flag is dropped when the
// store already has a default.
func (s *OrgStore) ImportMany(orgs []Organization) (added, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, ok := s.beginMutation()
	if !ok {
		return 0, len(orgs)
	}
	defer unlock()

	haveDefault := false
	for _, org := range s.orgs {
		if org.IsDefault {
			haveDefault = true
			break
		}
	}

	for _, org := range orgs {
		if org.Alias == "" || s.aliasTaken(org.Alias, "") {
			skipped++
			continue
		}
		if org.ID == "" || s.indexOf(org.ID) >= 0 {
			org.ID = NewID()
		}
		if t, ok := ParseOrgType(string(org.OrgType)); ok {
			org.OrgType = t
		} else {
			org.OrgType = OrgTypeProduction
		}
		if org.CreatedAt.IsZero() {
			org.CreatedAt = time.Now().UTC()
		}
		if org.IsDefault {
			if haveDefault {
				org.IsDefault = false
			}
			haveDefault = true
		}
		s.orgs = append(s.orgs, org)
		added++
	}

	if added > 0 {
		s.commit()
	}
	logging.Info("OrgStore", "Imported %d organizations, skipped %d", added, skipped)
	return added, skipped
}

// IsAliasTaken reports whether another organization than excludingID uses alias.
func (s *OrgStore) IsAliasTaken(alias, excludingID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aliasTaken(alias, excludingID)
}

// Get returns the organization with id.
func (s *OrgStore) Get(id string) (Organization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.orgs[i], true
	}
	return Organization{}, false
}

// FindByAlias returns the organization with alias.
func (s *OrgStore) FindByAlias(alias string) (Organization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, org := range s.orgs {
		if org.Alias == alias {
			return org, true
		}
	}
	return Organization{}, false
}

// List returns a copy of all organizations in display order.
func (s *OrgStore) List() []Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Organization(nil), s.orgs...)
}

// Favorites returns the favorite organizations in display order.
func (s *OrgStore) Favorites() []Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var favs []Organization
	for _, org := range s.orgs {
		if org.IsFavorite {
			favs = append(favs, org)
		}
	}
	return favs
}

// Default returns the default organization, if any.
func (s *OrgStore) Default() (Organization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, org := range s.orgs {
		if org.IsDefault {
			return org, true
		}
	}
	return Organization{}, false
}

// Len returns the number of stored organizations.
func (s *OrgStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orgs)
}

func (s *OrgStore) handleAuthCompleted(_ string, p events.Payload) {
	org := FromPayload(p)
	if org.Alias == "" {
		logging.Warn("OrgStore", "Ignoring %s event without alias", events.AuthCompleted)
		return
	}
	if s.Add(org) {
		return
	}

	// Re-authenticating a known alias only refreshes what the CLI reported.
	existing, ok := s.FindByAlias(org.Alias)
	if !ok {
		return
	}
	s.Mutate(existing.ID, func(o *Organization) {
		if org.OrgID != "" {
			o.OrgID = org.OrgID
		}
		if org.InstanceURL != "" {
			o.InstanceURL = org.InstanceURL
		}
		if org.Username != "" {
			o.Username = org.Username
		}
	})
	logging.Info("OrgStore", "Refreshed session metadata for %s", org.Alias)
}

func (s *OrgStore) handleLoggedOut(_ string, p events.Payload) {
	logging.Info("OrgStore", "Session closed for %s", p.Get(events.KeyAlias))
}
