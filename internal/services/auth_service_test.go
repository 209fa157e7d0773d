package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/models"
)

func TestAuthService_SignupWithoutInvitation(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewAuthService(env.users, env.invitations)

	user, err := svc.Signup(SignupInput{
		Username: "runner",
		Email:    " Runner@Example.com ",
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAthlete, user.Role)
	assert.Equal(t, "runner@example.com", user.Email)
	assert.NotEqual(t, "supersecret", user.PasswordHash)

	_, err = svc.Signup(SignupInput{Username: "runner", Email: "other@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Signup(SignupInput{Username: "other", Email: "runner@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_SignupValidation(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewAuthService(env.users, env.invitations)

	cases := []struct {
		name  string
		input SignupInput
		want  error
	}{
		{"missing username", SignupInput{Email: "a@example.com", Password: "supersecret"}, ErrUsernameRequired},
		{"bad email", SignupInput{Username: "a", Email: "not-an-email", Password: "supersecret"}, ErrInvalidEmail},
		{"short password", SignupInput{Username: "a", Email: "a@example.com", Password: "short"}, ErrPasswordTooShort},
		{"unknown token", SignupInput{Username: "a", Email: "a@example.com", Password: "supersecret", InvitationToken: "nope"}, ErrInvitationNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAuthService_SignupWithInvitation(t *testing.T) {
	env := setupTestEnv(t)
	org := env.createOrg(t, "Northside")
	athlete := env.createAthlete(t, org.ID, "Ava", "Lopez")

	invites := NewInvitationService(env.invitations, env.orgs, env.users, env.athletes, time.Hour, env.log)
	inv, _, err := invites.CreateInvitation(access.OrgAdmin(99, org.ID), CreateInvitationInput{
		Email:     "ava@example.com",
		Role:      models.RoleAthlete,
		AthleteID: &athlete.ID,
	})
	require.NoError(t, err)

	svc := NewAuthService(env.users, env.invitations)

	_, err = svc.Signup(SignupInput{Username: "ava", Email: "someone@example.com", Password: "supersecret", InvitationToken: inv.Token})
	assert.ErrorIs(t, err, ErrInvitationEmailMismatch)

	user, err := svc.Signup(SignupInput{Username: "ava", Email: "ava@example.com", Password: "supersecret", InvitationToken: inv.Token})
	require.NoError(t, err)
	require.NotNil(t, user.AthleteID)
	assert.Equal(t, athlete.ID, *user.AthleteID)

	member, err := env.orgs.FindMember(org.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAthlete, member.Role)

	_, err = svc.Signup(SignupInput{Username: "ava2", Email: "ava@example.com", Password: "supersecret", InvitationToken: inv.Token})
	assert.ErrorIs(t, err, ErrEmailTaken)

	stored, err := env.invitations.FindByID(inv.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.AcceptedAt)
}

func TestAuthService_Login(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewAuthService(env.users, env.invitations)

	_, err := svc.Signup(SignupInput{Username: "existing", Email: "existing@example.com", Password: "supersecret"})
	require.NoError(t, err)

	user, err := svc.Login(LoginInput{Username: "existing", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, "existing", user.Username)

	user, err = svc.Login(LoginInput{Username: "existing@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, "existing", user.Username)

	_, err = svc.Login(LoginInput{Username: "existing", Password: "wrongpassword"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(LoginInput{Username: "missing", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_BuildPrincipal(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewAuthService(env.users, env.invitations)

	coach := env.createUser(t, "coach", models.RoleCoach)
	first := env.createOrg(t, "First")
	second := env.createOrg(t, "Second")
	env.addMember(t, first.ID, coach.ID, models.RoleCoach)
	env.addMember(t, second.ID, coach.ID, models.RoleCoach)

	_, p, err := svc.BuildPrincipal(coach.ID)
	require.NoError(t, err)
	assert.Equal(t, access.RoleCoach, p.Role)
	require.Len(t, p.Memberships, 2)

	scope := access.Resolve(access.Input{Principal: p})
	assert.Equal(t, access.KindOrganizationSelection, scope.Kind)

	scope = access.Resolve(access.Input{Principal: p, ActiveOrganization: &second.ID})
	assert.Equal(t, access.Coach(coach.ID, second.ID), scope)

	_, _, err = svc.BuildPrincipal(12345)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
