package orgcli

// OrgDetails is the `result` object of `org display --json`.
type OrgDetails struct {
	ID              string `json:"id"`
	Alias           string `json:"alias"`
	APIVersion      string `json:"apiVersion"`
	Username        string `json:"username"`
	InstanceURL     string `json:"instanceUrl"`
	ClientID        string `json:"clientId"`
	ConnectedStatus string `json:"connectedStatus"`
}

// LimitItem is one entry of the org limits listing.
type LimitItem struct {
	Name      string `json:"name"`
	Max       int64  `json:"max"`
	Remaining int64  `json:"remaining"`
}

// Used returns how much of the limit has been consumed.
func (l LimitItem) Used() int64 {
	return l.Max - l.Remaining
}

// UsagePercent returns consumption as a percentage of Max, 0 when Max is 0.
func (l LimitItem) UsagePercent() float64 {
	if l.Max <= 0 {
		return 0
	}
	return float64(l.Used()) * 100 / float64(l.Max)
}

// VersionInfo describes the installed external CLI.
type VersionInfo struct {
	Architecture string `json:"architecture"`
	CLIVersion   string `json:"cliVersion"`
	NodeVersion  string `json:"nodeVersion"`
}

// OpenOptions controls `org open`.
type OpenOptions struct {
	// Path is a path inside the org, e.g. PathSetup.
	Path string
	// Incognito opens a private window; it takes precedence over Browser.
	Incognito bool
	// Browser names the browser to use; "" or "default" leaves the choice to the CLI.
	Browser string
}

// Well-known paths inside an org.
const (
	PathSetup            = "/lightning/setup/SetupOneHome/home"
	PathObjectManager    = "/lightning/setup/ObjectManager/home"
	PathSchemaBuilder    = "/lightning/setup/SchemaBuilder/home"
	PathFlows            = "/lightning/setup/Flows/home"
	PathDeveloperConsole = "/_ui/common/apex/debug/ApexCSIPage"
	PathCodeBuilder      = "/runtime_developerplatform_codebuilder/codebuilder.app?launch=true"
)

// NamedPaths maps short names accepted by the CLI front end to org paths.
var NamedPaths = map[string]string{
	"setup":          PathSetup,
	"object-manager": PathObjectManager,
	"schema-builder": PathSchemaBuilder,
	"flows":          PathFlows,
	"dev-console":    PathDeveloperConsole,
	"code-builder":   PathCodeBuilder,
}

type detailsResponse struct {
	Status int         `json:"status"`
	Result *OrgDetails `json:"result"`
}

type limitsResponse struct {
	Status   int         `json:"status"`
	Result   []LimitItem `json:"result"`
	Warnings []string    `json:"warnings,omitempty"`
}

// versionResponse accepts both the wrapped and the flat `version --json` shapes.
type versionResponse struct {
	Result *VersionInfo `json:"result"`
	VersionInfo
}
