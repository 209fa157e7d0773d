package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/models"
)

// OrganizationServiceTestSuite runs each test against a fresh in-memory database.
type OrganizationServiceTestSuite struct {
	suite.Suite
	env testEnv
	svc *OrganizationService
}

// SetupTest runs before each test
func (s *OrganizationServiceTestSuite) SetupTest() {
	s.env = setupTestEnv(s.T())
	s.svc = NewOrganizationService(s.env.orgs, s.env.users)
}

func TestOrganizationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrganizationServiceTestSuite))
}

func (s *OrganizationServiceTestSuite) TestCreateOrganization() {
	t := s.T()
	env, svc := s.env, s.svc
	admin := env.createUser(t, "admin", models.RoleOrgAdmin)

	_, _, err := svc.CreateOrganization(access.OrgAdmin(admin.ID, 1), CreateOrganizationInput{Name: "Nope"})
	s.ErrorIs(err, ErrAccessDenied)

	_, _, err = svc.CreateOrganization(access.SiteAdminGlobal(1), CreateOrganizationInput{Name: "  "})
	s.ErrorIs(err, ErrInvalidOrganizationName)

	missing := uint64(999)
	_, _, err = svc.CreateOrganization(access.SiteAdminGlobal(1), CreateOrganizationInput{Name: "Ghost", AdminUserID: &missing})
	s.ErrorIs(err, ErrUserNotFound)
	orgs, err := svc.ListOrganizations(access.SiteAdminGlobal(1))
	s.Require().NoError(err)
	s.Empty(orgs)

	org, affected, err := svc.CreateOrganization(access.SiteAdminGlobal(1), CreateOrganizationInput{
		Name:        " Northside Athletics ",
		AdminUserID: &admin.ID,
	})
	s.Require().NoError(err)
	s.Equal("Northside Athletics", org.Name)
	s.True(org.IsActive)
	s.Equal(Affected{KeyOrganizations, KeyUsers}, affected)

	member, err := env.orgs.FindMember(org.ID, admin.ID)
	s.Require().NoError(err)
	s.Equal(models.RoleOrgAdmin, member.Role)
}

func (s *OrganizationServiceTestSuite) TestListOrganizations() {
	t := s.T()
	env, svc := s.env, s.svc

	coach := env.createUser(t, "coach", models.RoleCoach)
	mine := env.createOrg(t, "Mine")
	env.createOrg(t, "Other")
	env.addMember(t, mine.ID, coach.ID, models.RoleCoach)

	orgs, err := svc.ListOrganizations(access.Coach(coach.ID, mine.ID))
	s.Require().NoError(err)
	s.Require().Len(orgs, 1)
	s.Equal(mine.ID, orgs[0].ID)

	orgs, err = svc.ListOrganizations(access.SiteAdminGlobal(1))
	s.Require().NoError(err)
	s.Len(orgs, 2)

	_, err = svc.ListOrganizations(access.Unauthenticated())
	s.ErrorIs(err, ErrAccessDenied)
}

func (s *OrganizationServiceTestSuite) TestUpdateAndStatus() {
	t := s.T()
	env, svc := s.env, s.svc
	org := env.createOrg(t, "Northside")

	_, _, err := svc.UpdateOrganization(access.Coach(5, org.ID), org.ID, UpdateOrganizationInput{Name: ptr("X")})
	s.ErrorIs(err, ErrAccessDenied)

	updated, affected, err := svc.UpdateOrganization(access.OrgAdmin(5, org.ID), org.ID, UpdateOrganizationInput{
		Description: ptr("Track and field"),
	})
	s.Require().NoError(err)
	s.Equal("Northside", updated.Name)
	s.Equal("Track and field", updated.Description)
	s.Contains(affected, organizationKey(org.ID))

	_, _, err = svc.SetStatus(access.OrgAdmin(5, org.ID), org.ID, false)
	s.ErrorIs(err, ErrAccessDenied)

	previous, _, err := svc.SetStatus(access.SiteAdminGlobal(1), org.ID, false)
	s.Require().NoError(err)
	s.True(previous)

	previous, _, err = svc.SetStatus(access.SiteAdminGlobal(1), org.ID, true)
	s.Require().NoError(err)
	s.False(previous)

	_, _, err = svc.SetStatus(access.SiteAdminGlobal(1), 999, true)
	s.ErrorIs(err, ErrOrganizationNotFound)
}

func (s *OrganizationServiceTestSuite) TestRemoveMember() {
	t := s.T()
	env, svc := s.env, s.svc
	org := env.createOrg(t, "Northside")
	admin := env.createUser(t, "admin", models.RoleOrgAdmin)
	coach := env.createUser(t, "coach", models.RoleCoach)
	env.addMember(t, org.ID, admin.ID, models.RoleOrgAdmin)
	env.addMember(t, org.ID, coach.ID, models.RoleCoach)

	scope := access.OrgAdmin(admin.ID, org.ID)

	_, err := svc.RemoveMember(scope, org.ID, admin.ID)
	s.ErrorIs(err, ErrCannotRemoveYourself)

	_, err = svc.RemoveMember(access.Coach(coach.ID, org.ID), org.ID, admin.ID)
	s.ErrorIs(err, ErrAccessDenied)

	_, err = svc.RemoveMember(scope, org.ID, coach.ID)
	s.Require().NoError(err)

	_, err = svc.RemoveMember(scope, org.ID, coach.ID)
	s.ErrorIs(err, ErrOrganizationMemberNotFound)

	members, err := svc.ListMembers(scope, org.ID)
	s.Require().NoError(err)
	s.Require().Len(members, 1)
	s.Equal(admin.ID, members[0].UserID)
}

func (s *OrganizationServiceTestSuite) TestDeleteOrganization() {
	t := s.T()
	env, svc := s.env, s.svc
	org := env.createOrg(t, "Northside")
	team := env.createTeam(t, org.ID, "Varsity")
	athlete := env.createAthlete(t, org.ID, "Ava", "Lopez", *team)
	env.record(t, athlete, "FLY10_TIME", 1.21, day(2025, 3, 1))

	_, err := svc.DeleteOrganization(access.OrgAdmin(1, org.ID), org.ID)
	s.ErrorIs(err, ErrAccessDenied)

	affected, err := svc.DeleteOrganization(access.SiteAdminGlobal(1), org.ID)
	s.Require().NoError(err)
	s.Contains(affected, KeyMeasurements)

	_, err = svc.GetOrganization(access.SiteAdminGlobal(1), org.ID)
	s.ErrorIs(err, ErrOrganizationNotFound)

	count, err := env.athletes.Count(&org.ID)
	s.Require().NoError(err)
	s.Zero(count)
}
