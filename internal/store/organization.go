package store

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"orgctl/internal/events"
)

// OrgType classifies an organization.
type OrgType string

const (
	OrgTypeProduction  OrgType = "Production"
	OrgTypeSandbox     OrgType = "Sandbox"
	OrgTypeDevelopment OrgType = "Development"
)

// OrgTypes lists the accepted org types in display order.
var OrgTypes = []OrgType{OrgTypeProduction, OrgTypeSandbox, OrgTypeDevelopment}

// ParseOrgType maps user input and legacy persisted values onto an OrgType.
// The second result is false for unrecognized input.
func ParseOrgType(s string) (OrgType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod", "producción", "produccion":
		return OrgTypeProduction, true
	case "sandbox", "sb":
		return OrgTypeSandbox, true
	case "development", "dev", "desarrollo":
		return OrgTypeDevelopment, true
	}
	return "", false
}

// IsProduction reports whether logins should go to the production login host.
func (t OrgType) IsProduction() bool {
	return t == OrgTypeProduction
}

// Organization is a remote tenant the user can authenticate against.
type Organization struct {
	ID          string  `json:"id"`
	Alias       string  `json:"alias"`
	Label       string  `json:"label"`
	OrgType     OrgType `json:"orgType"`
	OrgID       string  `json:"orgId,omitempty"`
	InstanceURL string  `json:"instanceUrl,omitempty"`
	Username    string  `json:"username,omitempty"`
	IsFavorite  bool    `json:"isFavorite"`
	IsDefault   bool    `json:"isDefault"`
	// PreferredBrowser overrides the global default browser when non-empty.
	PreferredBrowser string    `json:"preferredBrowser,omitempty"`
	CreatedAt        time.Time `json:"createdAt,omitempty"`
}

// NewID returns a fresh organization identifier.
func NewID() string {
	return uuid.NewString()
}

// Browser returns the browser to open this org with.
func (o Organization) Browser(globalDefault string) string {
	if o.PreferredBrowser != "" {
		return o.PreferredBrowser
	}
	return globalDefault
}

// FromPayload builds a new Organization from an auth.completed payload.
// Unknown sentinels become empty fields.
func FromPayload(p events.Payload) Organization {
	label := p.Known(events.KeyLabel)
	alias := p.Known(events.KeyAlias)
	if label == "" {
		label = alias
	}
	orgType, ok := ParseOrgType(p.Known(events.KeyOrgType))
	if !ok {
		orgType = OrgTypeProduction
	}
	return Organization{
		ID:          NewID(),
		Alias:       alias,
		Label:       label,
		OrgType:     orgType,
		OrgID:       p.Known(events.KeyOrgID),
		InstanceURL: p.Known(events.KeyInstanceURL),
		Username:    p.Known(events.KeyUsername),
		IsFavorite:  p.Bool(events.KeyFavorite),
		CreatedAt:   time.Now().UTC(),
	}
}
