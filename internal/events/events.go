package events

import "strconv"

// Event names published on the bus.
const (
	// AuthCompleted is published once per successful interactive login.
	AuthCompleted = "auth.completed"
	// AuthLoggedOut is published after the external session of an org was closed.
	AuthLoggedOut = "auth.loggedOut"
)

// Payload keys.
const (
	KeyAlias       = "alias"
	KeyLabel       = "label"
	KeyOrgType     = "orgType"
	KeyOrgID       = "orgId"
	KeyInstanceURL = "instanceUrl"
	KeyUsername    = "username"
	KeyFavorite    = "favorite"
)

// Unknown marks a payload field that could not be obtained, as opposed to one
// that was obtained and is empty.
const Unknown = "unknown"

// Payload is the structured body of an event.
type Payload map[string]string

// Get returns the value for key, or "" when absent.
func (p Payload) Get(key string) string {
	return p[key]
}

// Known returns the value for key with the Unknown sentinel mapped to "".
func (p Payload) Known(key string) string {
	v := p[key]
	if v == Unknown {
		return ""
	}
	return v
}

// Bool parses key as a boolean; anything unparsable is false.
func (p Payload) Bool(key string) bool {
	b, err := strconv.ParseBool(p[key])
	return err == nil && b
}

// OrUnknown returns v, or Unknown when v is empty.
func OrUnknown(v string) string {
	if v == "" {
		return Unknown
	}
	return v
}
