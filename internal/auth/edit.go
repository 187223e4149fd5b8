package auth

import (
	"fmt"
	"strings"

	"orgctl/internal/store"
	"orgctl/pkg/logging"
)

// EditRequest changes an existing organization. Nil fields are left alone.
// The alias is fixed once the organization exists.
type EditRequest struct {
	Label            *string
	OrgType          *store.OrgType
	Favorite         *bool
	PreferredBrowser *string
	InstanceURL      *string
}

// Edit applies req to the organization with id.
func (o *Orchestrator) Edit(id string, req EditRequest) (store.Organization, error) {
	if o.store == nil {
		return store.Organization{}, ErrOrgNotFound
	}
	if _, ok := o.store.Get(id); !ok {
		return store.Organization{}, ErrOrgNotFound
	}

	var label string
	if req.Label != nil {
		label = strings.TrimSpace(*req.Label)
		if label == "" {
			return store.Organization{}, ErrEmptyLabel
		}
	}
	var orgType store.OrgType
	if req.OrgType != nil {
		t, ok := store.ParseOrgType(string(*req.OrgType))
		if !ok {
			return store.Organization{}, fmt.Errorf("%w: %s", ErrUnknownOrgType, *req.OrgType)
		}
		orgType = t
	}

	ok := o.store.Mutate(id, func(org *store.Organization) {
		if req.Label != nil {
			org.Label = label
		}
		if req.OrgType != nil {
			org.OrgType = orgType
		}
		if req.Favorite != nil {
			org.IsFavorite = *req.Favorite
		}
		if req.PreferredBrowser != nil {
			org.PreferredBrowser = strings.TrimSpace(*req.PreferredBrowser)
		}
		if req.InstanceURL != nil {
			org.InstanceURL = strings.TrimSpace(*req.InstanceURL)
		}
	})
	if !ok {
		return store.Organization{}, fmt.Errorf("failed to update organization %s", id)
	}

	updated, _ := o.store.Get(id)
	logging.Info("AuthOrchestrator", "Updated organization %s", updated.Alias)
	return updated, nil
}
