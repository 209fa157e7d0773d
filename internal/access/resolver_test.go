package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v uint64) *uint64 { return &v }

func TestResolve_AthleteIgnoresContext(t *testing.T) {
	p := &Principal{
		UserID:      7,
		Role:        RoleAthlete,
		AthleteID:   ptr(99),
		Memberships: []Membership{{OrganizationID: 1, Role: RoleAthlete}, {OrganizationID: 2, Role: RoleAthlete}},
	}

	testCases := []struct {
		name    string
		context *uint64
	}{
		{"no context", nil},
		{"context set", ptr(42)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := Resolve(Input{Principal: p, OrganizationContext: tc.context})
			assert.Equal(t, KindAthleteSelf, s.Kind)
			assert.Equal(t, uint64(99), s.AthleteID)
		})
	}
}

func TestResolve_SiteAdminContextToggle(t *testing.T) {
	p := &Principal{UserID: 1, Role: RoleCoach, IsSiteAdmin: true}

	s := Resolve(Input{Principal: p})
	assert.Equal(t, SiteAdminGlobal(1), s)

	s = Resolve(Input{Principal: p, OrganizationContext: ptr(42)})
	assert.Equal(t, SiteAdminAsOrg(1, 42), s)
	assert.True(t, s.CanReturnToSite())

	s = Resolve(Input{Principal: p, OrganizationContext: nil})
	assert.Equal(t, KindSiteAdminGlobal, s.Kind)
}

func TestResolve_SiteAdminRoleWithoutFlag(t *testing.T) {
	s := Resolve(Input{Principal: &Principal{UserID: 3, Role: RoleSiteAdmin}})
	assert.Equal(t, KindSiteAdminGlobal, s.Kind)
}

func TestResolve_OrganizationRoles(t *testing.T) {
	testCases := []struct {
		name   string
		role   Role
		active *uint64
		orgs   []uint64
		want   Scope
	}{
		{"org admin single", RoleOrgAdmin, nil, []uint64{5}, OrgAdmin(2, 5)},
		{"coach single", RoleCoach, nil, []uint64{5}, Coach(2, 5)},
		{"coach picks active", RoleCoach, ptr(6), []uint64{5, 6}, Coach(2, 6)},
		{"org admin active not a member", RoleOrgAdmin, ptr(9), []uint64{5}, OrgAdmin(2, 5)},
		{"org admin needs selection", RoleOrgAdmin, nil, []uint64{5, 6}, OrganizationSelection(2, []uint64{5, 6})},
		{"coach without organization", RoleCoach, nil, nil, Unauthenticated()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Principal{UserID: 2, Role: tc.role}
			for _, id := range tc.orgs {
				p.Memberships = append(p.Memberships, Membership{OrganizationID: id, Role: tc.role})
			}
			assert.Equal(t, tc.want, Resolve(Input{Principal: p, ActiveOrganization: tc.active}))
		})
	}
}

func TestResolve_InactiveOrganizationIsReadOnly(t *testing.T) {
	p := &Principal{
		UserID: 2,
		Role:   RoleOrgAdmin,
		Memberships: []Membership{
			{OrganizationID: 5, Role: RoleOrgAdmin, Inactive: true},
			{OrganizationID: 6, Role: RoleOrgAdmin},
		},
	}

	s := Resolve(Input{Principal: p, ActiveOrganization: ptr(5)})
	assert.Equal(t, KindOrgAdmin, s.Kind)
	assert.True(t, s.ReadOnly)
	assert.True(t, s.CanAccessOrganization(5))
	assert.False(t, s.CanManageMeasurements())
	assert.False(t, s.CanManageRoster())
	assert.False(t, s.CanManageOrganization(5))

	s = Resolve(Input{Principal: p, ActiveOrganization: ptr(6)})
	assert.Equal(t, OrgAdmin(2, 6), s)
	assert.True(t, s.CanManageMeasurements())

	// site admins are never limited by the flag
	admin := &Principal{UserID: 1, Role: RoleSiteAdmin, IsSiteAdmin: true}
	assert.Equal(t, SiteAdminAsOrg(1, 5), Resolve(Input{Principal: admin, OrganizationContext: ptr(5)}))
}

func TestResolve_NonSiteAdminCannotUseContext(t *testing.T) {
	p := &Principal{UserID: 2, Role: RoleOrgAdmin, Memberships: []Membership{{OrganizationID: 5, Role: RoleOrgAdmin}}}

	s := Resolve(Input{Principal: p, OrganizationContext: ptr(42)})

	assert.Equal(t, OrgAdmin(2, 5), s)
}

func TestResolve_Unauthenticated(t *testing.T) {
	assert.Equal(t, Unauthenticated(), Resolve(Input{}))
	assert.Equal(t, Unauthenticated(), Resolve(Input{Principal: &Principal{UserID: 4, Role: Role("guest")}}))
	assert.Equal(t, Unauthenticated(), Resolve(Input{Principal: &Principal{Role: RoleCoach}}))
}

func TestScopePermissions(t *testing.T) {
	coach := Coach(1, 5)
	assert.True(t, coach.CanAccessOrganization(5))
	assert.False(t, coach.CanAccessOrganization(6))
	assert.True(t, coach.CanManageMeasurements())
	assert.False(t, coach.CanManageOrganization(5))
	assert.False(t, coach.CanManageUsers())

	admin := OrgAdmin(1, 5)
	assert.True(t, admin.CanManageOrganization(5))
	assert.False(t, admin.CanManageOrganization(6))

	athlete := AthleteSelf(1, 9)
	assert.True(t, athlete.CanAccessAthlete(9, 5))
	assert.False(t, athlete.CanAccessAthlete(10, 5))
	assert.False(t, athlete.CanManageMeasurements())
	assert.False(t, AthleteSelf(1, 0).CanAccessAthlete(0, 5))

	global := SiteAdminGlobal(1)
	assert.True(t, global.CanAccessOrganization(123))
	assert.True(t, global.CanManageUsers())
	_, pinned := global.OrganizationFilter()
	assert.False(t, pinned)

	asOrg := SiteAdminAsOrg(1, 7)
	orgID, pinned := asOrg.OrganizationFilter()
	assert.True(t, pinned)
	assert.Equal(t, uint64(7), orgID)
	assert.False(t, asOrg.CanAccessOrganization(8))

	assert.False(t, Unauthenticated().CanAccessOrganization(1))
	assert.False(t, OrganizationSelection(1, []uint64{1, 2}).CanAccessOrganization(1))
}
