// Package orgcli is the typed façade over the external platform CLI.
//
// Every method runs the CLI through a runner.Runner and converts the outcome
// into a boolean or an optional value. Launch failures, non-zero exits and
// malformed JSON are logged here and never returned as errors.
package orgcli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"orgctl/internal/config"
	"orgctl/internal/events"
	"orgctl/internal/runner"
	"orgctl/pkg/logging"
)

// Options configures the gateway. Zero values fall back to the config defaults.
type Options struct {
	CLIPath        string
	PortLookupPath string
	CallbackPort   int
	LimitsCommand  []string
}

// OptionsFromConfig extracts gateway options from the loaded configuration.
func OptionsFromConfig(cfg config.OrgctlConfig) Options {
	return Options{
		CLIPath:        cfg.CLIPath,
		PortLookupPath: cfg.PortLookupPath,
		CallbackPort:   cfg.CallbackPort,
		LimitsCommand:  cfg.LimitsCommand,
	}
}

// Gateway runs domain operations against the external CLI.
type Gateway struct {
	runner runner.Runner
	opts   Options
	bus    events.Bus
}

// New creates a gateway. bus may be nil, in which case no events are published.
func New(r runner.Runner, opts Options, bus events.Bus) *Gateway {
	return &Gateway{runner: r, opts: opts, bus: bus}
}

// WithoutEvents returns a copy that never publishes. Callers that publish their
// own richer completion event (the login orchestrator) use it so the store sees
// exactly one event per login.
func (g *Gateway) WithoutEvents() *Gateway {
	cp := *g
	cp.bus = nil
	return &cp
}

// CallbackPort returns the configured OAuth callback port.
func (g *Gateway) CallbackPort() int {
	if g.opts.CallbackPort > 0 {
		return g.opts.CallbackPort
	}
	return config.DefaultCallbackPort
}

func (g *Gateway) cliPath() string {
	if g.opts.CLIPath != "" {
		return g.opts.CLIPath
	}
	return config.DefaultCLIPath
}

func (g *Gateway) portLookupPath() string {
	if g.opts.PortLookupPath != "" {
		return g.opts.PortLookupPath
	}
	return config.DefaultPortLookupPath
}

func (g *Gateway) limitsCommand() []string {
	if len(g.opts.LimitsCommand) > 0 {
		return g.opts.LimitsCommand
	}
	return config.DefaultLimitsCommand
}

// run executes the CLI and logs failures together with the captured output.
func (g *Gateway) run(args ...string) runner.Result {
	path := g.cliPath()
	logging.Debug("CLIGateway", "Running %s", runner.Describe(path, args))

	res := g.runner.Run(path, args)
	switch {
	case res.LaunchErr != nil:
		logging.Error("CLIGateway", res.LaunchErr, "Could not launch %s", path)
	case res.ExitCode != 0:
		logging.Error("CLIGateway", fmt.Errorf("exit status %d", res.ExitCode),
			"%s failed. Output: %s", runner.Describe(path, args), strings.TrimSpace(res.Output))
	}
	return res
}

// Authenticate runs the interactive web login for alias. instanceURL may be
// empty to use the CLI's default login host.
func (g *Gateway) Authenticate(alias, instanceURL, orgType string) bool {
	g.KillListener(g.CallbackPort())

	args := []string{"org", "login", "web", "--alias", alias}
	if instanceURL != "" {
		args = append(args, "--instance-url", instanceURL)
	}
	if !g.run(args...).Success() {
		return false
	}
	logging.Info("CLIGateway", "Successfully authenticated org with alias %s", alias)

	if g.bus != nil {
		payload := g.sessionPayload(alias, instanceURL)
		payload[events.KeyLabel] = alias
		payload[events.KeyOrgType] = events.OrUnknown(orgType)
		g.bus.Publish(events.AuthCompleted, payload)
	}
	return true
}

// Logout closes the CLI session for alias.
func (g *Gateway) Logout(alias string) bool {
	if !g.run("org", "logout", "--target-org", alias, "--no-prompt").Success() {
		return false
	}
	logging.Info("CLIGateway", "Logged out org with alias %s", alias)

	if g.bus != nil {
		g.bus.Publish(events.AuthLoggedOut, g.sessionPayload(alias, ""))
	}
	return true
}

// sessionPayload fetches details best-effort; missing fields carry events.Unknown.
func (g *Gateway) sessionPayload(alias, instanceURL string) events.Payload {
	payload := events.Payload{
		events.KeyAlias:       alias,
		events.KeyOrgID:       events.Unknown,
		events.KeyInstanceURL: events.OrUnknown(instanceURL),
		events.KeyUsername:    events.Unknown,
	}
	if details := g.FetchDetails(alias); details != nil {
		payload[events.KeyOrgID] = events.OrUnknown(details.ID)
		payload[events.KeyUsername] = events.OrUnknown(details.Username)
		if details.InstanceURL != "" {
			payload[events.KeyInstanceURL] = details.InstanceURL
		}
	}
	return payload
}

// Delete removes the org (scratch orgs and sandboxes) and its local auth.
func (g *Gateway) Delete(alias string) bool {
	return g.run("org", "delete", "--target-org", alias, "--no-prompt").Success()
}

// SetDefault makes alias the CLI's global target org.
func (g *Gateway) SetDefault(alias string) bool {
	return g.run("config", "set", "target-org", alias, "--global").Success()
}

// Update updates the external CLI itself.
func (g *Gateway) Update() bool {
	return g.run("update").Success()
}

// FetchDetails returns the org display result, or nil when unavailable.
func (g *Gateway) FetchDetails(alias string) *OrgDetails {
	res := g.run("org", "display", "--target-org", alias, "--json")
	if !res.Success() {
		return nil
	}
	var resp detailsResponse
	if err := decodeJSON(res.Output, &resp); err != nil {
		logging.Error("CLIGateway", err, "Could not decode org details for %s", alias)
		return nil
	}
	if resp.Result == nil {
		logging.Warn("CLIGateway", "Org details for %s had no result", alias)
		return nil
	}
	return resp.Result
}

// FetchLimits returns the org limits, or nil when unavailable.
func (g *Gateway) FetchLimits(alias string) []LimitItem {
	args := append(append([]string(nil), g.limitsCommand()...), "--target-org", alias, "--json")
	res := g.run(args...)
	if !res.Success() {
		return nil
	}
	var resp limitsResponse
	if err := decodeJSON(res.Output, &resp); err != nil {
		logging.Error("CLIGateway", err, "Could not decode limits for %s", alias)
		return nil
	}
	for _, w := range resp.Warnings {
		logging.Warn("CLIGateway", "Limits for %s: %s", alias, w)
	}
	if resp.Result == nil {
		return []LimitItem{}
	}
	return resp.Result
}

// Version returns the installed CLI version, or nil when unavailable.
func (g *Gateway) Version() *VersionInfo {
	res := g.run("version", "--json")
	if !res.Success() {
		return nil
	}
	var resp versionResponse
	if err := decodeJSON(res.Output, &resp); err != nil {
		logging.Error("CLIGateway", err, "Could not decode CLI version")
		return nil
	}
	if resp.Result != nil {
		return resp.Result
	}
	if resp.VersionInfo.CLIVersion == "" {
		logging.Warn("CLIGateway", "CLI version output had no cliVersion")
		return nil
	}
	v := resp.VersionInfo
	return &v
}

// Open opens the org in a browser.
func (g *Gateway) Open(alias string, opts OpenOptions) bool {
	args := []string{"org", "open", "--target-org", alias}
	if opts.Path != "" {
		args = append(args, "--path", opts.Path)
	}
	// --private and --browser are mutually exclusive for the CLI; private wins.
	if opts.Incognito {
		args = append(args, "--private")
	} else if opts.Browser != "" && opts.Browser != config.DefaultBrowser {
		args = append(args, "--browser", opts.Browser)
	}
	return g.run(args...).Success()
}

// decodeJSON decodes the JSON object embedded in output. The CLI writes
// warnings to stderr, which share the buffer, so text around the object is skipped.
func decodeJSON(output string, v interface{}) error {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in output (%s)", strconv.Quote(truncate(output, 120)))
	}
	if err := json.Unmarshal([]byte(output[start:end+1]), v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
