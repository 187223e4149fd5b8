package orgcli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgctl/internal/events"
	"orgctl/internal/runner"
)

const detailsJSON = `{
  "status": 0,
  "result": {
    "id": "00D5g000000ABCDEAA",
    "alias": "acme-prod",
    "apiVersion": "60.0",
    "username": "admin@acme.com",
    "instanceUrl": "https://acme.my.salesforce.com",
    "clientId": "PlatformCLI",
    "connectedStatus": "Connected"
  }
}`

const lsofOutput = `COMMAND   PID USER   FD   TYPE DEVICE SIZE/OFF NODE NAME
node    48213 dev   23u  IPv4 0x1234      0t0  TCP localhost:1717 (LISTEN)
`

type recorder struct {
	names    []string
	payloads []events.Payload
}

func (r *recorder) subscribe(bus events.Bus, name string) {
	bus.Subscribe(name, func(n string, p events.Payload) {
		r.names = append(r.names, n)
		r.payloads = append(r.payloads, p)
	})
}

func stubKill(t *testing.T) *[]int {
	t.Helper()
	var killed []int
	original := killProcess
	killProcess = func(pid int) error {
		killed = append(killed, pid)
		return nil
	}
	t.Cleanup(func() { killProcess = original })
	return &killed
}

func newGateway(fake *runner.Fake, bus events.Bus) *Gateway {
	return New(fake, Options{CLIPath: "/usr/local/bin/sf", PortLookupPath: "lsof", CallbackPort: 1717}, bus)
}

func TestAuthenticate_SuccessPublishesDecodedDetails(t *testing.T) {
	killed := stubKill(t)
	fake := runner.NewFake().
		On("-i :1717", runner.Result{Output: lsofOutput}).
		On("org login web", runner.Result{Output: "Successfully authorized"}).
		On("org display", runner.Result{Output: detailsJSON})
	bus := events.NewBus()
	rec := &recorder{}
	rec.subscribe(bus, events.AuthCompleted)

	ok := newGateway(fake, bus).Authenticate("acme-prod", "https://login.salesforce.com", "Production")

	require.True(t, ok)
	require.Len(t, rec.payloads, 1)
	p := rec.payloads[0]
	assert.Equal(t, "acme-prod", p.Get(events.KeyAlias))
	assert.Equal(t, "00D5g000000ABCDEAA", p.Get(events.KeyOrgID))
	assert.Equal(t, "https://acme.my.salesforce.com", p.Get(events.KeyInstanceURL))
	assert.Equal(t, "admin@acme.com", p.Get(events.KeyUsername))
	assert.Equal(t, "Production", p.Get(events.KeyOrgType))

	assert.Equal(t, []int{48213}, *killed, "stale listener must be killed before login")
	calls := fake.Calls()
	require.GreaterOrEqual(t, len(calls), 2)
	assert.Equal(t, "lsof", calls[0].Executable)
	assert.Equal(t, []string{"org", "login", "web", "--alias", "acme-prod", "--instance-url", "https://login.salesforce.com"}, calls[1].Args)
}

func TestAuthenticate_FailureDoesNotPublish(t *testing.T) {
	stubKill(t)
	fake := runner.NewFake().
		On("-i", runner.Result{ExitCode: 1}).
		On("org login web", runner.Result{ExitCode: 1, Output: "Error: user denied"})
	bus := events.NewBus()
	rec := &recorder{}
	rec.subscribe(bus, events.AuthCompleted)

	ok := newGateway(fake, bus).Authenticate("acme-prod", "", "Production")

	assert.False(t, ok)
	assert.Empty(t, rec.payloads)
	assert.Equal(t, 0, fake.Count("org display"))
}

func TestAuthenticate_DetailsUnavailableUsesUnknownSentinel(t *testing.T) {
	stubKill(t)
	fake := runner.NewFake().
		On("-i", runner.Result{ExitCode: 1}).
		On("org login web", runner.Result{}).
		On("org display", runner.Result{Output: "this is not json"})
	bus := events.NewBus()
	rec := &recorder{}
	rec.subscribe(bus, events.AuthCompleted)

	ok := newGateway(fake, bus).Authenticate("dev1", "", "")

	require.True(t, ok, "details failure must not fail the login")
	require.Len(t, rec.payloads, 1)
	p := rec.payloads[0]
	assert.Equal(t, events.Unknown, p.Get(events.KeyOrgID))
	assert.Equal(t, events.Unknown, p.Get(events.KeyInstanceURL))
	assert.Equal(t, events.Unknown, p.Get(events.KeyUsername))
	assert.Equal(t, events.Unknown, p.Get(events.KeyOrgType))
	assert.Equal(t, []string{"org", "login", "web", "--alias", "dev1"}, fake.Calls()[1].Args, "no --instance-url when empty")
}

func TestWithoutEvents(t *testing.T) {
	stubKill(t)
	fake := runner.NewFake().
		On("-i", runner.Result{ExitCode: 1}).
		On("org login web", runner.Result{})
	bus := events.NewBus()
	rec := &recorder{}
	rec.subscribe(bus, events.AuthCompleted)

	gw := newGateway(fake, bus).WithoutEvents()
	assert.True(t, gw.Authenticate("quiet", "", "Sandbox"))
	assert.Empty(t, rec.payloads)
	assert.Equal(t, 0, fake.Count("org display"), "no details fetch when nobody listens")
}

func TestLogout(t *testing.T) {
	fake := runner.NewFake().
		On("org logout", runner.Result{}).
		On("org display", runner.Result{ExitCode: 1, Output: "No authorization information found"})
	bus := events.NewBus()
	rec := &recorder{}
	rec.subscribe(bus, events.AuthLoggedOut)

	assert.True(t, newGateway(fake, bus).Logout("acme-prod"))
	require.Len(t, rec.payloads, 1)
	assert.Equal(t, "acme-prod", rec.payloads[0].Get(events.KeyAlias))
	assert.Equal(t, events.Unknown, rec.payloads[0].Get(events.KeyOrgID))
	assert.Equal(t, []string{"org", "logout", "--target-org", "acme-prod", "--no-prompt"}, fake.Calls()[0].Args)

	failing := runner.NewFake().On("org logout", runner.Result{ExitCode: 1})
	assert.False(t, newGateway(failing, bus).Logout("acme-prod"))
	assert.Len(t, rec.payloads, 1)
}

func TestSimpleCommands(t *testing.T) {
	fake := runner.NewFake().
		On("org delete", runner.Result{}).
		On("config set target-org", runner.Result{}).
		On("update", runner.Result{ExitCode: 2})
	gw := newGateway(fake, nil)

	assert.True(t, gw.Delete("old"))
	assert.True(t, gw.SetDefault("main"))
	assert.False(t, gw.Update())

	calls := fake.Calls()
	assert.Equal(t, []string{"org", "delete", "--target-org", "old", "--no-prompt"}, calls[0].Args)
	assert.Equal(t, []string{"config", "set", "target-org", "main", "--global"}, calls[1].Args)
	assert.Equal(t, "/usr/local/bin/sf", calls[0].Executable)
}

func TestLaunchFailureIsAbsorbed(t *testing.T) {
	fake := runner.NewFake().On("", runner.Result{ExitCode: runner.LaunchFailureCode, LaunchErr: errors.New("no such file")})
	gw := newGateway(fake, nil)

	assert.False(t, gw.Delete("x"))
	assert.Nil(t, gw.FetchDetails("x"))
	assert.Nil(t, gw.FetchLimits("x"))
	assert.Nil(t, gw.Version())
}

func TestFetchDetails_SkipsWarningPreamble(t *testing.T) {
	fake := runner.NewFake().On("org display", runner.Result{Output: "Warning: update available\n" + detailsJSON})

	d := newGateway(fake, nil).FetchDetails("acme-prod")

	require.NotNil(t, d)
	assert.Equal(t, "00D5g000000ABCDEAA", d.ID)
	assert.Equal(t, "Connected", d.ConnectedStatus)
}

func TestFetchDetails_MissingResult(t *testing.T) {
	fake := runner.NewFake().On("org display", runner.Result{Output: `{"status":0}`})
	assert.Nil(t, newGateway(fake, nil).FetchDetails("x"))
}

func TestFetchLimits(t *testing.T) {
	fake := runner.NewFake().On("org list limits", runner.Result{Output: `{
  "status": 0,
  "result": [
    {"name": "DailyApiRequests", "max": 15000, "remaining": 14000},
    {"name": "DataStorageMB", "max": 5, "remaining": 5}
  ],
  "warnings": ["The command has been renamed"]
}`})

	limits := newGateway(fake, nil).FetchLimits("acme-prod")

	require.Len(t, limits, 2)
	assert.Equal(t, "DailyApiRequests", limits[0].Name)
	assert.Equal(t, int64(1000), limits[0].Used())
	assert.InDelta(t, 6.666, limits[0].UsagePercent(), 0.01)
	assert.Equal(t, []string{"org", "list", "limits", "--target-org", "acme-prod", "--json"}, fake.Calls()[0].Args)
}

func TestFetchLimits_ConfigurableCommand(t *testing.T) {
	fake := runner.NewFake().On("org limits", runner.Result{Output: `{"status":0,"result":[]}`})
	gw := New(fake, Options{LimitsCommand: []string{"org", "limits"}}, nil)

	limits := gw.FetchLimits("acme")
	assert.NotNil(t, limits)
	assert.Empty(t, limits)
	assert.Equal(t, "/usr/local/bin/sf", fake.Calls()[0].Executable, "default binary path")
}

func TestVersion_BothShapes(t *testing.T) {
	wrapped := runner.NewFake().On("version", runner.Result{Output: `{"result":{"architecture":"darwin-arm64","cliVersion":"@salesforce/cli/2.40.7","nodeVersion":"v20.11.0"}}`})
	v := newGateway(wrapped, nil).Version()
	require.NotNil(t, v)
	assert.Equal(t, "@salesforce/cli/2.40.7", v.CLIVersion)

	flat := runner.NewFake().On("version", runner.Result{Output: `{"architecture":"linux-x64","cliVersion":"@salesforce/cli/2.50.0","nodeVersion":"v22.1.0"}`})
	v = newGateway(flat, nil).Version()
	require.NotNil(t, v)
	assert.Equal(t, "linux-x64", v.Architecture)

	empty := runner.NewFake().On("version", runner.Result{Output: `{}`})
	assert.Nil(t, newGateway(empty, nil).Version())
}

func TestOpen_ArgumentGrammar(t *testing.T) {
	tests := []struct {
		name string
		opts OpenOptions
		want []string
	}{
		{"plain", OpenOptions{}, []string{"org", "open", "--target-org", "a"}},
		{"path", OpenOptions{Path: PathSetup}, []string{"org", "open", "--target-org", "a", "--path", PathSetup}},
		{"browser", OpenOptions{Browser: "firefox"}, []string{"org", "open", "--target-org", "a", "--browser", "firefox"}},
		{"default browser omitted", OpenOptions{Browser: "default"}, []string{"org", "open", "--target-org", "a"}},
		{"incognito wins over browser", OpenOptions{Incognito: true, Browser: "chrome"}, []string{"org", "open", "--target-org", "a", "--private"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := runner.NewFake().On("org open", runner.Result{})
			assert.True(t, newGateway(fake, nil).Open("a", tt.opts))
			assert.Equal(t, tt.want, fake.Calls()[0].Args)
		})
	}
}

func TestParseListenerPID(t *testing.T) {
	pid, ok := ParseListenerPID(lsofOutput)
	assert.True(t, ok)
	assert.Equal(t, 48213, pid)

	_, ok = ParseListenerPID("")
	assert.False(t, ok)
	_, ok = ParseListenerPID("COMMAND PID USER\n")
	assert.False(t, ok)
	_, ok = ParseListenerPID("COMMAND PID\nnode notapid\n")
	assert.False(t, ok)
	_, ok = ParseListenerPID("COMMAND PID\nnode\n")
	assert.False(t, ok)
}

func TestKillListener(t *testing.T) {
	killed := stubKill(t)

	fake := runner.NewFake().On("-i :1717", runner.Result{ExitCode: 1})
	newGateway(fake, nil).KillListener(1717)
	assert.Empty(t, *killed, "nothing bound means nothing killed")

	fake = runner.NewFake().On("-i :1717", runner.Result{Output: lsofOutput})
	newGateway(fake, nil).KillListener(1717)
	assert.Equal(t, []int{48213}, *killed)

	fake = runner.NewFake().On("-i", runner.Result{ExitCode: -1, LaunchErr: errors.New("missing lsof")})
	assert.NotPanics(t, func() { newGateway(fake, nil).KillListener(1717) })
}

func TestCallbackPortDefault(t *testing.T) {
	assert.Equal(t, 1717, New(runner.NewFake(), Options{}, nil).CallbackPort())
	assert.Equal(t, 2020, New(runner.NewFake(), Options{CallbackPort: 2020}, nil).CallbackPort())
}
