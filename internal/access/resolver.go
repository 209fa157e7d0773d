package access

// Membership is a user's role inside one organization.
// Inactive is set when the organization has been deactivated.
type Membership struct {
	OrganizationID uint64
	Role           Role
	Inactive       bool
}

// Principal is the signed-in user as the resolver sees it.
type Principal struct {
	UserID      uint64
	Role        Role
	IsSiteAdmin bool
	AthleteID   *uint64
	Memberships []Membership
}

// Input bundles a principal with the session's organization selections.
// OrganizationContext is only honored for site admins. ActiveOrganization
// picks among several memberships.
type Input struct {
	Principal           *Principal
	OrganizationContext *uint64
	ActiveOrganization  *uint64
}

// Resolve maps every input to exactly one Scope.
func Resolve(in Input) Scope {
	p := in.Principal
	if p == nil || p.UserID == 0 {
		return Unauthenticated()
	}

	if p.IsSiteAdmin || p.Role == RoleSiteAdmin {
		if in.OrganizationContext != nil && *in.OrganizationContext != 0 {
			return SiteAdminAsOrg(p.UserID, *in.OrganizationContext)
		}
		return SiteAdminGlobal(p.UserID)
	}

	switch p.Role {
	case RoleAthlete:
		var athleteID uint64
		if p.AthleteID != nil {
			athleteID = *p.AthleteID
		}
		return AthleteSelf(p.UserID, athleteID)
	case RoleOrgAdmin, RoleCoach:
		return resolveOrganizationRole(p, in.ActiveOrganization)
	}

	return Unauthenticated()
}

func resolveOrganizationRole(p *Principal, active *uint64) Scope {
	newScope := Coach
	if p.Role == RoleOrgAdmin {
		newScope = OrgAdmin
	}
	build := func(m Membership) Scope {
		s := newScope(p.UserID, m.OrganizationID)
		s.ReadOnly = m.Inactive
		return s
	}

	if active != nil {
		for _, m := range p.Memberships {
			if m.OrganizationID == *active {
				return build(m)
			}
		}
	}

	switch len(p.Memberships) {
	case 0:
		return Unauthenticated()
	case 1:
		return build(p.Memberships[0])
	}

	choices := make([]uint64, len(p.Memberships))
	for i, m := range p.Memberships {
		choices[i] = m.OrganizationID
	}
	return OrganizationSelection(p.UserID, choices)
}
