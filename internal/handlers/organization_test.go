package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/athlete-performance-api/internal/dto"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/models"
)

func TestOrganizationHandler_CreateOrganization(t *testing.T) {
	env := setupAPITestEnv(t)
	env.createUser(t, "root", models.RoleSiteAdmin)
	admin := env.createUser(t, "orgadmin", models.RoleOrgAdmin)

	w := env.login(t, "root").do(t, http.MethodPost, "/api/organizations", map[string]interface{}{
		"name":          "New Org",
		"description":   "Sprint club",
		"admin_user_id": admin.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	response := decode[dto.MutationResponse[dto.OrganizationDTO]](t, w)
	assert.Equal(t, "New Org", response.Data.Name)
	assert.True(t, response.Data.IsActive)
	assert.Equal(t, []string{"organizations", "users"}, response.Affected)

	_, err := env.orgs.FindMember(response.Data.ID, admin.ID)
	require.NoError(t, err)
}

func TestOrganizationHandler_CreateOrganizationRequiresSiteAdmin(t *testing.T) {
	env := setupAPITestEnv(t)
	env.createUser(t, "coach", models.RoleCoach)

	w := env.login(t, "coach").do(t, http.MethodPost, "/api/organizations", map[string]string{"name": "Nope"})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apierrors.ErrCodeAccessDenied, decode[errorBody](t, w).Code)
}

func TestOrganizationHandler_ListOrganizations(t *testing.T) {
	env := setupAPITestEnv(t)
	mine := env.createOrg(t, "Org One")
	env.createOrg(t, "Org Two")
	coach := env.createUser(t, "member", models.RoleCoach)
	env.addMember(t, mine.ID, coach.ID, models.RoleCoach)
	env.createUser(t, "root", models.RoleSiteAdmin)

	w := env.login(t, "member").do(t, http.MethodGet, "/api/organizations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	orgs := decode[map[string][]dto.OrganizationDTO](t, w)["organizations"]
	require.Len(t, orgs, 1)
	assert.Equal(t, "Org One", orgs[0].Name)

	w = env.login(t, "root").do(t, http.MethodGet, "/api/organizations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]dto.OrganizationDTO](t, w)["organizations"], 2)
}

func TestOrganizationHandler_GetOrganization(t *testing.T) {
	env := setupAPITestEnv(t)
	mine := env.createOrg(t, "Mine")
	theirs := env.createOrg(t, "Theirs")
	coach := env.createUser(t, "coach", models.RoleCoach)
	env.addMember(t, mine.ID, coach.ID, models.RoleCoach)
	cl := env.login(t, "coach")

	w := cl.do(t, http.MethodGet, fmt.Sprintf("/api/organizations/%d", mine.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[dto.OrganizationDetailDTO](t, w)
	assert.Equal(t, "Mine", detail.Name)
	require.Len(t, detail.Members, 1)
	assert.Equal(t, "coach", detail.Members[0].User.Username)

	w = cl.do(t, http.MethodGet, fmt.Sprintf("/api/organizations/%d", theirs.ID), nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apierrors.ErrCodeAccessDenied, decode[errorBody](t, w).Code)

	w = cl.do(t, http.MethodGet, "/api/organizations/999", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = cl.do(t, http.MethodGet, "/api/organizations/abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrganizationHandler_UpdateOrganization(t *testing.T) {
	env := setupAPITestEnv(t)
	org := env.createOrg(t, "Old Name")
	admin := env.createUser(t, "orgadmin", models.RoleOrgAdmin)
	env.addMember(t, org.ID, admin.ID, models.RoleOrgAdmin)
	coach := env.createUser(t, "coach", models.RoleCoach)
	env.addMember(t, org.ID, coach.ID, models.RoleCoach)
	path := fmt.Sprintf("/api/organizations/%d", org.ID)

	w := env.login(t, "coach").do(t, http.MethodPut, path, map[string]string{"name": "Coach Name"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.login(t, "orgadmin").do(t, http.MethodPut, path, map[string]string{"name": "New Name"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	response := decode[dto.MutationResponse[dto.OrganizationDTO]](t, w)
	assert.Equal(t, "New Name", response.Data.Name)
	assert.Contains(t, response.Affected, fmt.Sprintf("organizations/%d", org.ID))
}

func TestOrganizationHandler_SetStatus(t *testing.T) {
	env := setupAPITestEnv(t)
	org := env.createOrg(t, "Falcons")
	env.createUser(t, "root", models.RoleSiteAdmin)
	cl := env.login(t, "root")
	path := fmt.Sprintf("/api/organizations/%d/status", org.ID)

	w := cl.do(t, http.MethodPatch, path, map[string]bool{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	status := decode[dto.OrganizationStatusDTO](t, w)
	assert.False(t, status.IsActive)
	assert.True(t, status.Previous)

	w = cl.do(t, http.MethodPatch, path, map[string]bool{"is_active": true})
	status = decode[dto.OrganizationStatusDTO](t, w)
	assert.True(t, status.IsActive)
	assert.False(t, status.Previous)

	w = cl.do(t, http.MethodPatch, path, map[string]string{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrganizationHandler_DeleteOrganization(t *testing.T) {
	env := setupAPITestEnv(t)
	org := env.createOrg(t, "Falcons")
	admin := env.createUser(t, "orgadmin", models.RoleOrgAdmin)
	env.addMember(t, org.ID, admin.ID, models.RoleOrgAdmin)
	env.createUser(t, "root", models.RoleSiteAdmin)
	path := fmt.Sprintf("/api/organizations/%d", org.ID)

	w := env.login(t, "orgadmin").do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.login(t, "root").do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[dto.AffectedResponse](t, w).Affected, "organizations")

	_, err := env.orgs.FindByID(org.ID)
	require.Error(t, err)
}

func TestOrganizationHandler_RemoveMember(t *testing.T) {
	env := setupAPITestEnv(t)
	org := env.createOrg(t, "Falcons")
	admin := env.createUser(t, "orgadmin", models.RoleOrgAdmin)
	env.addMember(t, org.ID, admin.ID, models.RoleOrgAdmin)
	coach := env.createUser(t, "coach", models.RoleCoach)
	env.addMember(t, org.ID, coach.ID, models.RoleCoach)
	cl := env.login(t, "orgadmin")

	w := cl.do(t, http.MethodDelete, fmt.Sprintf("/api/organizations/%d/members/%d", org.ID, admin.ID), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = cl.do(t, http.MethodDelete, fmt.Sprintf("/api/organizations/%d/members/%d", org.ID, coach.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = cl.do(t, http.MethodGet, fmt.Sprintf("/api/organizations/%d/members", org.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]dto.OrganizationMemberDTO](t, w)["members"], 1)
}
