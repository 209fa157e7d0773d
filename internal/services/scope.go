package services

import (
	"errors"

	"github.com/yukikurage/athlete-performance-api/internal/access"
)

var (
	ErrAccessDenied         = errors.New("access denied")
	ErrOrganizationRequired = errors.New("organization_id is required")
)

// organizationFor picks the organization a write acts on. Org-scoped users
// always write into their own organization; a site admin outside an
// organization context must name one. Deactivated organizations take no
// writes.
func organizationFor(scope access.Scope, requested *uint64) (uint64, error) {
	if scope.ReadOnly {
		return 0, ErrAccessDenied
	}
	if orgID, ok := scope.OrganizationFilter(); ok {
		if requested != nil && *requested != orgID {
			return 0, ErrAccessDenied
		}
		return orgID, nil
	}

	if scope.Kind == access.KindSiteAdminGlobal {
		if requested == nil || *requested == 0 {
			return 0, ErrOrganizationRequired
		}
		return *requested, nil
	}

	return 0, ErrAccessDenied
}

// organizationFilterFor narrows a read. nil means every organization, which
// only a site admin outside an organization context gets.
func organizationFilterFor(scope access.Scope, requested *uint64) (*uint64, error) {
	if orgID, ok := scope.OrganizationFilter(); ok {
		if requested != nil && *requested != orgID {
			return nil, ErrAccessDenied
		}
		return &orgID, nil
	}

	if scope.Kind == access.KindSiteAdminGlobal {
		return requested, nil
	}

	return nil, ErrAccessDenied
}
