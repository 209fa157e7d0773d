// Package access resolves what a signed-in user may see: their effective
// role, the organization they act in, and which resources are reachable.
package access

import "fmt"

// Role is a user's global role.
type Role string

const (
	RoleAthlete   Role = "athlete"
	RoleCoach     Role = "coach"
	RoleOrgAdmin  Role = "org_admin"
	RoleSiteAdmin Role = "site_admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAthlete, RoleCoach, RoleOrgAdmin, RoleSiteAdmin:
		return true
	}
	return false
}

// Kind tags a Scope variant.
type Kind string

const (
	KindUnauthenticated       Kind = "unauthenticated"
	KindAthleteSelf           Kind = "athlete_self"
	KindCoach                 Kind = "coach"
	KindOrgAdmin              Kind = "org_admin"
	KindSiteAdminGlobal       Kind = "site_admin_global"
	KindSiteAdminAsOrg        Kind = "site_admin_as_org"
	KindOrganizationSelection Kind = "organization_selection"
)

// Scope is the resolved access level. Only the fields that belong to Kind
// are set: OrganizationID for Coach, OrgAdmin and SiteAdminAsOrg;
// AthleteID for AthleteSelf; Choices for OrganizationSelection.
// ReadOnly marks a coach or org admin scope whose organization is
// deactivated; it keeps read access and loses every write.
type Scope struct {
	Kind           Kind
	UserID         uint64
	OrganizationID uint64
	AthleteID      uint64
	Choices        []uint64
	ReadOnly       bool
}

func Unauthenticated() Scope { return Scope{Kind: KindUnauthenticated} }

func AthleteSelf(userID, athleteID uint64) Scope {
	return Scope{Kind: KindAthleteSelf, UserID: userID, AthleteID: athleteID}
}

func Coach(userID, orgID uint64) Scope {
	return Scope{Kind: KindCoach, UserID: userID, OrganizationID: orgID}
}

func OrgAdmin(userID, orgID uint64) Scope {
	return Scope{Kind: KindOrgAdmin, UserID: userID, OrganizationID: orgID}
}

func SiteAdminGlobal(userID uint64) Scope {
	return Scope{Kind: KindSiteAdminGlobal, UserID: userID}
}

func SiteAdminAsOrg(userID, orgID uint64) Scope {
	return Scope{Kind: KindSiteAdminAsOrg, UserID: userID, OrganizationID: orgID}
}

func OrganizationSelection(userID uint64, choices []uint64) Scope {
	return Scope{Kind: KindOrganizationSelection, UserID: userID, Choices: choices}
}

func (s Scope) String() string {
	switch s.Kind {
	case KindAthleteSelf:
		return fmt.Sprintf("%s(%d)", s.Kind, s.AthleteID)
	case KindCoach, KindOrgAdmin, KindSiteAdminAsOrg:
		return fmt.Sprintf("%s(%d)", s.Kind, s.OrganizationID)
	}
	return string(s.Kind)
}

// Authenticated reports whether the scope belongs to a signed-in user.
func (s Scope) Authenticated() bool {
	return s.Kind != KindUnauthenticated
}

// IsSiteAdmin reports whether the scope carries site-admin rights.
func (s Scope) IsSiteAdmin() bool {
	return s.Kind == KindSiteAdminGlobal || s.Kind == KindSiteAdminAsOrg
}

// IsOrgScoped reports whether the scope acts inside a single organization.
func (s Scope) IsOrgScoped() bool {
	switch s.Kind {
	case KindCoach, KindOrgAdmin, KindSiteAdminAsOrg:
		return true
	}
	return false
}

// CanReturnToSite reports whether the "return to site" affordance applies.
func (s Scope) CanReturnToSite() bool {
	return s.Kind == KindSiteAdminAsOrg
}
