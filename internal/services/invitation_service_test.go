package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/models"
)

func newInvitationService(env testEnv) *InvitationService {
	return NewInvitationService(env.invitations, env.orgs, env.users, env.athletes, 72*time.Hour, env.log)
}

func TestInvitationService_CreateInvitation(t *testing.T) {
	env := setupTestEnv(t)
	svc := newInvitationService(env)
	org := env.createOrg(t, "Northside")
	admin := access.OrgAdmin(1, org.ID)

	inv, affected, err := svc.CreateInvitation(admin, CreateInvitationInput{
		Email: "Coach@Example.com",
		Role:  models.RoleCoach,
	})
	require.NoError(t, err)
	assert.Equal(t, "coach@example.com", inv.Email)
	assert.Len(t, inv.Token, 32)
	assert.Equal(t, org.ID, inv.OrganizationID)
	assert.Equal(t, Affected{KeyInvitations}, affected)

	_, _, err = svc.CreateInvitation(admin, CreateInvitationInput{Email: "coach@example.com", Role: models.RoleCoach})
	assert.ErrorIs(t, err, ErrInvitationPending)

	_, _, err = svc.CreateInvitation(admin, CreateInvitationInput{Email: "boss@example.com", Role: models.RoleSiteAdmin})
	assert.ErrorIs(t, err, ErrInvitationRole)

	_, _, err = svc.CreateInvitation(admin, CreateInvitationInput{Email: "nope", Role: models.RoleCoach})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, _, err = svc.CreateInvitation(access.Coach(2, org.ID), CreateInvitationInput{Email: "x@example.com", Role: models.RoleAthlete})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, _, err = svc.CreateInvitation(access.SiteAdminGlobal(1), CreateInvitationInput{Email: "x@example.com", Role: models.RoleAthlete})
	assert.ErrorIs(t, err, ErrOrganizationRequired)

	other := env.createOrg(t, "Southside")
	foreign := env.createAthlete(t, other.ID, "Cal", "Reyes")
	_, _, err = svc.CreateInvitation(admin, CreateInvitationInput{Email: "cal@example.com", Role: models.RoleAthlete, AthleteID: &foreign.ID})
	assert.ErrorIs(t, err, ErrAthleteNotFound)

	list, err := svc.ListInvitations(admin, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInvitationService_RejectsExistingMember(t *testing.T) {
	env := setupTestEnv(t)
	svc := newInvitationService(env)
	org := env.createOrg(t, "Northside")
	coach := env.createUser(t, "coach", models.RoleCoach)
	env.addMember(t, org.ID, coach.ID, models.RoleCoach)

	_, _, err := svc.CreateInvitation(access.OrgAdmin(1, org.ID), CreateInvitationInput{
		Email: coach.Email,
		Role:  models.RoleOrgAdmin,
	})
	assert.ErrorIs(t, err, ErrAlreadyOrganizationMember)
}

func TestInvitationService_AcceptInvitation(t *testing.T) {
	env := setupTestEnv(t)
	svc := newInvitationService(env)
	first := env.createOrg(t, "Northside")
	second := env.createOrg(t, "Southside")
	user := env.createUser(t, "riley", models.RoleOrgAdmin)
	env.addMember(t, first.ID, user.ID, models.RoleOrgAdmin)

	inv, _, err := svc.CreateInvitation(access.OrgAdmin(1, second.ID), CreateInvitationInput{
		Email: user.Email,
		Role:  models.RoleCoach,
	})
	require.NoError(t, err)

	_, _, err = svc.AcceptInvitation(user.ID, "wrong-token")
	assert.ErrorIs(t, err, ErrInvitationNotFound)

	accepted, affected, err := svc.AcceptInvitation(user.ID, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, second.ID, accepted.OrganizationID)
	assert.Contains(t, affected, organizationKey(second.ID))

	reloaded, err := env.users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOrgAdmin, reloaded.Role, "accepting a coach invitation must not demote an org admin")

	member, err := env.orgs.FindMember(second.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCoach, member.Role)

	_, _, err = svc.AcceptInvitation(user.ID, inv.Token)
	assert.ErrorIs(t, err, ErrInvitationExpired)
}

func TestInvitationService_AcceptExpiredOrMismatched(t *testing.T) {
	env := setupTestEnv(t)
	svc := newInvitationService(env)
	org := env.createOrg(t, "Northside")
	user := env.createUser(t, "casey", models.RoleAthlete)
	admin := access.OrgAdmin(1, org.ID)

	inv, _, err := svc.CreateInvitation(admin, CreateInvitationInput{Email: "someone@example.com", Role: models.RoleCoach})
	require.NoError(t, err)
	_, _, err = svc.AcceptInvitation(user.ID, inv.Token)
	assert.ErrorIs(t, err, ErrInvitationEmailMismatch)

	expired, _, err := svc.CreateInvitation(admin, CreateInvitationInput{Email: user.Email, Role: models.RoleCoach})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(73 * time.Hour) }
	_, _, err = svc.AcceptInvitation(user.ID, expired.Token)
	assert.ErrorIs(t, err, ErrInvitationExpired)
}

func TestInvitationService_DeleteInvitation(t *testing.T) {
	env := setupTestEnv(t)
	svc := newInvitationService(env)
	org := env.createOrg(t, "Northside")

	inv, _, err := svc.CreateInvitation(access.OrgAdmin(1, org.ID), CreateInvitationInput{Email: "a@example.com", Role: models.RoleAthlete})
	require.NoError(t, err)

	_, err = svc.DeleteInvitation(access.OrgAdmin(1, org.ID+1), inv.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.DeleteInvitation(access.OrgAdmin(1, org.ID), inv.ID)
	require.NoError(t, err)

	_, err = svc.DeleteInvitation(access.OrgAdmin(1, org.ID), inv.ID)
	assert.ErrorIs(t, err, ErrInvitationNotFound)
}
