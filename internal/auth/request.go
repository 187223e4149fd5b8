package auth

import (
	"errors"
	"strings"

	"orgctl/internal/store"
)

var (
	ErrEmptyLabel        = errors.New("label must not be empty")
	ErrEmptyAlias        = errors.New("alias must not be empty")
	ErrInvalidAlias      = errors.New("alias may only contain lowercase letters, digits and hyphens")
	ErrEmptyInstanceURL  = errors.New("custom instance URL must not be empty")
	ErrAliasTaken        = errors.New("alias is already in use")
	ErrUnknownOrgType    = errors.New("unknown org type")
	ErrAttemptInProgress = errors.New("another login is already in progress")
	ErrAuthFailed        = errors.New("login failed")
	ErrTimedOut          = errors.New("login timed out")
	ErrCancelled         = errors.New("login cancelled")
	ErrNothingToRetry    = errors.New("no timed out or failed login to retry")
	ErrOrgNotFound       = errors.New("organization not found")
)

// Request holds the user input for a new login.
type Request struct {
	Label string
	// Alias is used only when AliasPinned is set; otherwise it is derived from Label.
	Alias        string
	AliasPinned  bool
	OrgType      store.OrgType
	UseCustomURL bool
	CustomURL    string
	Favorite     bool
}

// validated is a Request after trimming and alias derivation.
type validated struct {
	label       string
	alias       string
	orgType     store.OrgType
	instanceURL string
	favorite    bool
}

// AliasTaker is the part of the store validation needs.
type AliasTaker interface {
	IsAliasTaken(alias, excludingID string) bool
}

// Validate checks r before anything is sent to the CLI. It returns the alias
// that would be used.
func (o *Orchestrator) Validate(r Request) (string, error) {
	v, err := o.validate(r)
	return v.alias, err
}

func (o *Orchestrator) validate(r Request) (validated, error) {
	v := validated{
		label:    strings.TrimSpace(r.Label),
		favorite: r.Favorite,
	}
	if v.label == "" {
		return v, ErrEmptyLabel
	}

	if r.AliasPinned {
		v.alias = strings.TrimSpace(r.Alias)
	} else {
		v.alias = DeriveAlias(v.label)
	}
	if v.alias == "" {
		return v, ErrEmptyAlias
	}
	if !ValidAlias(v.alias) {
		return v, ErrInvalidAlias
	}

	v.orgType = r.OrgType
	if v.orgType == "" {
		v.orgType = store.OrgTypeProduction
	} else if t, ok := store.ParseOrgType(string(v.orgType)); ok {
		v.orgType = t
	} else {
		return v, ErrUnknownOrgType
	}

	switch {
	case r.UseCustomURL:
		v.instanceURL = strings.TrimSpace(r.CustomURL)
		if v.instanceURL == "" {
			return v, ErrEmptyInstanceURL
		}
	case v.orgType.IsProduction():
		v.instanceURL = o.opts.ProductionLoginURL
	default:
		v.instanceURL = o.opts.SandboxLoginURL
	}

	if o.store != nil && o.store.IsAliasTaken(v.alias, "") {
		return v, ErrAliasTaken
	}
	return v, nil
}
