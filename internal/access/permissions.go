package access

// CanAccessOrganization reports whether orgID may be viewed in this scope.
func (s Scope) CanAccessOrganization(orgID uint64) bool {
	switch s.Kind {
	case KindSiteAdminGlobal:
		return true
	case KindSiteAdminAsOrg, KindCoach, KindOrgAdmin:
		return s.OrganizationID == orgID
	}
	return false
}

// CanAccessAthlete reports whether an athlete record in athleteOrgID may be viewed.
func (s Scope) CanAccessAthlete(athleteID, athleteOrgID uint64) bool {
	if s.Kind == KindAthleteSelf {
		return s.AthleteID != 0 && s.AthleteID == athleteID
	}
	return s.CanAccessOrganization(athleteOrgID)
}

// CanManageMeasurements reports whether measurements may be edited or deleted.
func (s Scope) CanManageMeasurements() bool {
	if s.ReadOnly {
		return false
	}
	switch s.Kind {
	case KindCoach, KindOrgAdmin, KindSiteAdminAsOrg, KindSiteAdminGlobal:
		return true
	}
	return false
}

// CanManageRoster reports whether teams and athletes may be changed.
func (s Scope) CanManageRoster() bool {
	return s.CanManageMeasurements()
}

// CanManageOrganization reports whether orgID's profile, members, and
// invitations may be changed.
func (s Scope) CanManageOrganization(orgID uint64) bool {
	if s.ReadOnly {
		return false
	}
	switch s.Kind {
	case KindSiteAdminGlobal:
		return true
	case KindSiteAdminAsOrg, KindOrgAdmin:
		return s.OrganizationID == orgID
	}
	return false
}

// CanManageUsers reports whether site-wide user management is available.
func (s Scope) CanManageUsers() bool {
	return s.IsSiteAdmin()
}

// OrganizationFilter returns the organization the scope is pinned to.
// ok is false for site-wide and athlete scopes.
func (s Scope) OrganizationFilter() (uint64, bool) {
	if s.IsOrgScoped() {
		return s.OrganizationID, true
	}
	return 0, false
}
