package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgctl/internal/events"
)

func newTestStore(t *testing.T) (*OrgStore, *MemorySettings) {
	t.Helper()
	settings := NewMemorySettings()
	s, err := New(settings, nil)
	require.NoError(t, err)
	s.flushMaxElapsed = 200 * time.Millisecond
	return s, settings
}

func org(label, alias string) Organization {
	return Organization{Label: label, Alias: alias, OrgType: OrgTypeProduction}
}

func persisted(t *testing.T, settings SettingsStore) []Organization {
	t.Helper()
	data, ok, err := settings.Get(SettingsKey)
	require.NoError(t, err)
	require.True(t, ok)
	var orgs []Organization
	require.NoError(t, json.Unmarshal(data, &orgs))
	return orgs
}

func TestAdd_DuplicateAliasRejected(t *testing.T) {
	s, _ := newTestStore(t)

	assert.True(t, s.Add(org("Acme Prod", "acme-prod")))
	assert.False(t, s.Add(org("Acme Prod Dup", "acme-prod")))

	assert.Equal(t, 1, s.Len())
	got, ok := s.FindByAlias("acme-prod")
	require.True(t, ok)
	assert.Equal(t, "Acme Prod", got.Label)
	assert.NotEmpty(t, got.ID)
}

func TestAdd_AliasIsCaseSensitive(t *testing.T) {
	s, _ := newTestStore(t)

	assert.True(t, s.Add(org("One", "acme")))
	assert.True(t, s.Add(org("Two", "Acme")))
	assert.False(t, s.Add(org("", "")))
	assert.Equal(t, 2, s.Len())
}

func TestSetDefault_Exclusive(t *testing.T) {
	s, settings := newTestStore(t)

	a := org("A", "a")
	a.IsDefault = true
	require.True(t, s.Add(a))
	require.True(t, s.Add(org("B", "b")))
	require.True(t, s.Add(org("C", "c")))

	c, _ := s.FindByAlias("c")
	require.True(t, s.SetDefault(c.ID))

	for _, o := range s.List() {
		assert.Equal(t, o.Alias == "c", o.IsDefault, o.Alias)
	}
	for _, o := range persisted(t, settings) {
		assert.Equal(t, o.Alias == "c", o.IsDefault, o.Alias)
	}
}

func TestSetDefault_UnknownIDChangesNothing(t *testing.T) {
	s, settings := newTestStore(t)

	a := org("A", "a")
	a.IsDefault = true
	require.True(t, s.Add(a))
	require.True(t, s.Add(org("B", "b")))
	writes := settings.Writes
	before := s.List()

	assert.False(t, s.SetDefault("does-not-exist"))
	assert.Equal(t, before, s.List())
	assert.Equal(t, writes, settings.Writes, "no flush for a no-op")
}

func TestAdd_DefaultClearsOthers(t *testing.T) {
	s, _ := newTestStore(t)

	first := org("First", "first")
	first.IsDefault = true
	second := org("Second", "second")
	second.IsDefault = true
	require.True(t, s.Add(first))
	require.True(t, s.Add(second))

	def, ok := s.Default()
	require.True(t, ok)
	assert.Equal(t, "second", def.Alias)

	count := 0
	for _, o := range s.List() {
		if o.IsDefault {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestImportMany_SkipsCollisions(t *testing.T) {
	s, _ := newTestStore(t)

	original := org("Original X", "x")
	require.True(t, s.Add(original))

	added, skipped := s.ImportMany([]Organization{org("Imported X", "x"), org("Y", "y")})
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, skipped)

	assert.Equal(t, 2, s.Len())
	x, _ := s.FindByAlias("x")
	assert.Equal(t, "Original X", x.Label, "existing entries are never overwritten")
	_, ok := s.FindByAlias("y")
	assert.True(t, ok)
}

func TestImportMany_WithinBatchAndDefaults(t *testing.T) {
	s, _ := newTestStore(t)

	existing := org("Existing", "existing")
	existing.IsDefault = true
	require.True(t, s.Add(existing))

	incoming := org("Incoming", "incoming")
	incoming.IsDefault = true
	incoming.OrgType = "Desarrollo"
	added, skipped := s.ImportMany([]Organization{incoming, org("Again", "incoming"), org("No alias", "")})
	assert.Equal(t, 1, added)
	assert.Equal(t, 2, skipped)

	got, _ := s.FindByAlias("incoming")
	assert.False(t, got.IsDefault, "store already had a default")
	assert.Equal(t, OrgTypeDevelopment, got.OrgType)
	assert.NotEmpty(t, got.ID)

	def, _ := s.Default()
	assert.Equal(t, "existing", def.Alias)
}

func TestImportMany_NothingAddedDoesNotFlush(t *testing.T) {
	s, settings := newTestStore(t)
	require.True(t, s.Add(org("X", "x")))
	writes := settings.Writes

	added, skipped := s.ImportMany([]Organization{org("X again", "x")})
	assert.Equal(t, 0, added)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, writes, settings.Writes)
}

func TestSortInvariant(t *testing.T) {
	s, settings := newTestStore(t)

	require.True(t, s.Add(org("zeta", "z")))
	require.True(t, s.Add(org("Alpha", "a")))
	require.True(t, s.Add(org("beta", "b")))
	require.True(t, s.Add(org("ALPHA", "a2")))

	assert.True(t, isSortedNonStrict(s.List()))
	assert.Equal(t, []string{"a", "a2", "b", "z"}, aliases(s.List()))

	b, _ := s.FindByAlias("b")
	require.True(t, s.Mutate(b.ID, func(o *Organization) { o.Label = "Zulu" }))
	assert.Equal(t, []string{"a", "a2", "z", "b"}, aliases(s.List()))
	assert.True(t, isSortedNonStrict(s.List()))
	assert.Equal(t, aliases(s.List()), aliases(persisted(t, settings)))
}

func isSortedNonStrict(orgs []Organization) bool {
	for i := 1; i < len(orgs); i++ {
		if strings.ToLower(orgs[i-1].Label) > strings.ToLower(orgs[i].Label) {
			return false
		}
	}
	return true
}

func aliases(orgs []Organization) []string {
	out := make([]string, len(orgs))
	for i, o := range orgs {
		out[i] = o.Alias
	}
	return out
}

func TestUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.Add(org("One", "one")))
	require.True(t, s.Add(org("Two", "two")))

	one, _ := s.FindByAlias("one")
	one.Label = "Uno"
	one.IsFavorite = true

	var completed Organization
	assert.True(t, s.Update(one, func(o Organization) { completed = o }))
	assert.Equal(t, "Uno", completed.Label)

	got, _ := s.Get(one.ID)
	assert.True(t, got.IsFavorite)

	// Renaming onto another alias would break uniqueness.
	one.Alias = "two"
	called := false
	assert.False(t, s.Update(one, func(Organization) { called = true }))
	assert.False(t, called)
	got, _ = s.Get(one.ID)
	assert.Equal(t, "one", got.Alias)

	assert.False(t, s.Update(Organization{ID: "missing", Alias: "m"}, nil))
}

func TestMutate_CannotChangeID(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.Add(org("One", "one")))
	one, _ := s.FindByAlias("one")

	assert.True(t, s.Mutate(one.ID, func(o *Organization) {
		o.ID = "hijacked"
		o.PreferredBrowser = "firefox"
	}))
	got, ok := s.Get(one.ID)
	require.True(t, ok)
	assert.Equal(t, "firefox", got.PreferredBrowser)
	assert.Equal(t, "firefox", got.Browser("chrome"))
	assert.False(t, s.Mutate("missing", func(*Organization) {}))
}

func TestRemove(t *testing.T) {
	s, settings := newTestStore(t)
	require.True(t, s.Add(org("One", "one")))
	one, _ := s.FindByAlias("one")

	assert.True(t, s.Remove(one.ID))
	assert.False(t, s.Remove(one.ID))
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, persisted(t, settings))
}

func TestFavorites(t *testing.T) {
	s, _ := newTestStore(t)
	fav := org("Fav", "fav")
	fav.IsFavorite = true
	require.True(t, s.Add(fav))
	require.True(t, s.Add(org("Other", "other")))

	favs := s.Favorites()
	require.Len(t, favs, 1)
	assert.Equal(t, "fav", favs[0].Alias)
}

func TestRoundTripPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	settings := NewFileSettings(path)

	s, err := New(settings, nil)
	require.NoError(t, err)

	a := Organization{
		Label: "Acme", Alias: "acme", OrgType: OrgTypeSandbox,
		OrgID: "00D000000000001", InstanceURL: "https://acme.my.example.com", Username: "ops@acme.test",
		IsFavorite: true, IsDefault: true, PreferredBrowser: "firefox",
	}
	require.True(t, s.Add(a))
	require.True(t, s.Add(org("Beta", "beta")))

	reloaded, err := New(NewFileSettings(path), nil)
	require.NoError(t, err)

	want := s.List()
	got := reloaded.List()
	require.Len(t, got, len(want))
	byID := make(map[string]Organization)
	for _, o := range got {
		byID[o.ID] = o
	}
	for _, o := range want {
		r, ok := byID[o.ID]
		require.True(t, ok, o.Alias)
		assert.True(t, o.CreatedAt.Equal(r.CreatedAt))
		o.CreatedAt, r.CreatedAt = time.Time{}, time.Time{}
		assert.Equal(t, o, r)
	}
}

func TestReload_SanitizesLegacySnapshot(t *testing.T) {
	settings := NewMemorySettings()
	legacy := `[
		{"alias":"prod","label":"Prod","orgType":"Producción","isDefault":true},
		{"id":"x1","alias":"dev","label":"dev","orgType":"Desarrollo","isDefault":true},
		{"id":"x2","alias":"dev","label":"dup","orgType":"Sandbox"}
	]`
	require.NoError(t, settings.Set(SettingsKey, []byte(legacy)))

	s, err := New(settings, nil)
	require.NoError(t, err)

	orgs := s.List()
	require.Len(t, orgs, 2)
	assert.Equal(t, []string{"dev", "prod"}, aliases(orgs))
	assert.Equal(t, OrgTypeDevelopment, orgs[0].OrgType)
	assert.Equal(t, OrgTypeProduction, orgs[1].OrgType)
	assert.NotEmpty(t, orgs[1].ID)

	defaults := 0
	for _, o := range orgs {
		if o.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestNew_CorruptSnapshot(t *testing.T) {
	settings := NewMemorySettings()
	require.NoError(t, settings.Set(SettingsKey, []byte(`{"not":"a list"}`)))

	_, err := New(settings, nil)
	assert.Error(t, err)
}

func TestFlush_RetriesTransientFailures(t *testing.T) {
	s, settings := newTestStore(t)
	s.flushMaxElapsed = time.Second
	settings.FailWrites = 2

	require.True(t, s.Add(org("One", "one")))
	assert.Len(t, persisted(t, settings), 1)
}

func TestFlush_FailureKeepsMemoryState(t *testing.T) {
	s, settings := newTestStore(t)
	s.flushMaxElapsed = 20 * time.Millisecond
	settings.FailWrites = 1000

	assert.True(t, s.Add(org("One", "one")))
	assert.Equal(t, 1, s.Len())
	_, ok, _ := settings.Get(SettingsKey)
	assert.False(t, ok)
}

func TestAuthCompletedEventAddsOrganization(t *testing.T) {
	bus := events.NewBus()
	s, err := New(NewMemorySettings(), bus)
	require.NoError(t, err)
	defer s.Close()

	bus.Publish(events.AuthCompleted, events.Payload{
		events.KeyAlias:       "acme",
		events.KeyLabel:       "Acme Corp",
		events.KeyOrgType:     "Sandbox",
		events.KeyOrgID:       events.Unknown,
		events.KeyInstanceURL: "https://test.example.com",
		events.KeyFavorite:    "true",
	})

	got, ok := s.FindByAlias("acme")
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", got.Label)
	assert.Equal(t, OrgTypeSandbox, got.OrgType)
	assert.Equal(t, "", got.OrgID, "unknown sentinel is not stored")
	assert.Equal(t, "https://test.example.com", got.InstanceURL)
	assert.True(t, got.IsFavorite)

	// A second login for the same alias refreshes metadata but never duplicates.
	bus.Publish(events.AuthCompleted, events.Payload{
		events.KeyAlias: "acme",
		events.KeyLabel: "acme",
		events.KeyOrgID: "00D1",
	})
	assert.Equal(t, 1, s.Len())
	got, _ = s.FindByAlias("acme")
	assert.Equal(t, "Acme Corp", got.Label)
	assert.Equal(t, "00D1", got.OrgID)

	s.Close()
	bus.Publish(events.AuthCompleted, events.Payload{events.KeyAlias: "other"})
	assert.Equal(t, 1, s.Len())
}

func TestExportImportFile(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.Add(org("One", "one")))
	require.True(t, s.Add(org("Two", "two")))

	path := filepath.Join(t.TempDir(), "export", "orgs.json")
	n, err := s.ExportFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {"), "export is pretty-printed")

	other, _ := newTestStore(t)
	require.True(t, other.Add(org("Local One", "one")))
	added, skipped, err := other.ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, skipped)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o600))
	_, _, err = other.ImportFile(bad)
	assert.Error(t, err)
}

func TestParseOrgType(t *testing.T) {
	tests := []struct {
		in   string
		want OrgType
		ok   bool
	}{
		{"Production", OrgTypeProduction, true},
		{"prod", OrgTypeProduction, true},
		{"Producción", OrgTypeProduction, true},
		{"sandbox", OrgTypeSandbox, true},
		{" Development ", OrgTypeDevelopment, true},
		{"Desarrollo", OrgTypeDevelopment, true},
		{"scratch", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseOrgType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileSettings_PreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	fs := NewFileSettings(path)

	_, ok, err := fs.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Set("launchAtLogin", []byte("true")))
	require.NoError(t, fs.Set(SettingsKey, []byte("[]")))
	assert.Error(t, fs.Set("broken", []byte("{")))

	v, ok, err := fs.Get("launchAtLogin")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "true", string(v))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestMutations_KeepChangesFromOtherProcesses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	longLived, err := New(NewFileSettings(path), nil)
	require.NoError(t, err)
	require.True(t, longLived.Add(org("Alpha", "alpha")))
	alpha, ok := longLived.FindByAlias("alpha")
	require.True(t, ok)

	// A second command on the same settings file adds and edits meanwhile.
	other, err := New(NewFileSettings(path), nil)
	require.NoError(t, err)
	require.True(t, other.Add(org("Beta", "beta")))
	require.True(t, other.Mutate(alpha.ID, func(o *Organization) { o.IsFavorite = true }))

	require.True(t, longLived.SetDefault(alpha.ID))

	fresh, err := New(NewFileSettings(path), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta"}, aliases(fresh.List()))
	got, _ := fresh.FindByAlias("alpha")
	assert.True(t, got.IsDefault)
	assert.True(t, got.IsFavorite, "edit from the other command survives")

	// The long-lived store now sees beta too, and its alias is taken.
	assert.True(t, longLived.IsAliasTaken("beta", ""))
	assert.False(t, longLived.Add(org("Beta again", "beta")))
}

func TestMutations_RefuseToOverwriteUnreadableSnapshot(t *testing.T) {
	s, settings := newTestStore(t)
	require.True(t, s.Add(org("One", "one")))

	require.NoError(t, settings.Set(SettingsKey, []byte(`{"not":"a list"}`)))
	assert.False(t, s.Add(org("Two", "two")))

	data, _, err := settings.Get(SettingsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"not":"a list"}`, string(data))
}

func TestReload_KeepsIDsOfEntriesStoredWithoutID(t *testing.T) {
	settings := NewMemorySettings()
	require.NoError(t, settings.Set(SettingsKey, []byte(`[{"alias":"legacy","label":"Legacy","orgType":"Sandbox"}]`)))

	s, err := New(settings, nil)
	require.NoError(t, err)
	before, _ := s.FindByAlias("legacy")
	require.NoError(t, s.Reload())
	after, _ := s.FindByAlias("legacy")
	assert.Equal(t, before.ID, after.ID)
}

func TestFileSettings_Lock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	fs := NewFileSettings(path)

	unlock, err := fs.Lock()
	require.NoError(t, err)
	_, err = os.Stat(path + ".lock")
	assert.NoError(t, err)
	unlock()

	// Released locks can be taken again.
	unlock, err = fs.Lock()
	require.NoError(t, err)
	unlock()
}
