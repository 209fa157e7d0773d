package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/athlete-performance-api/internal/dto"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"github.com/yukikurage/athlete-performance-api/internal/stats"
)

const rosterUpload = `firstName,lastName,gender,teamName,competitiveLevel
Ada,Lane,Female,Varsity,2
Ben,,Male,Varsity,2
Cal,Reyes,Male,,
`

func postCSV(t *testing.T, cl *client, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")
	return cl.send(req)
}

func TestImportHandler_ImportAthletes(t *testing.T) {
	env := setupAPITestEnv(t)
	org := env.createOrg(t, "Falcons")
	coach := env.createUser(t, "coach", models.RoleCoach)
	env.addMember(t, org.ID, coach.ID, models.RoleCoach)
	cl := env.login(t, "coach")

	w := postCSV(t, cl, "/api/import/athletes", rosterUpload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decode[dto.ImportResultDTO](t, w)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Created)
	assert.False(t, result.DryRun)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Contains(t, result.Affected, "athletes")
	assert.Contains(t, result.Affected, "teams")

	athletes, total, err := env.athletes.List(repository.AthleteFilter{OrganizationID: &org.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, athletes, 2)

	// a second run finds both athletes already on the roster
	w = postCSV(t, cl, "/api/import/athletes", rosterUpload)
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[dto.ImportResultDTO](t, w)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 2, again.Skipped)
	assert.Empty(t, again.Affected)
}

func TestImportHandler_DryRun(t *testing.T) {
	env := setupAPITestEnv(t)
	org := env.createOrg(t, "Falcons")
	coach := env.createUser(t, "coach", models.RoleCoach)
	env.addMember(t, org.ID, coach.ID, models.RoleCoach)
	cl := env.login(t, "coach")

	w := postCSV(t, cl, "/api/import/athletes?dry_run=true", rosterUpload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decode[dto.ImportResultDTO](t, w)
	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.Created)

	count, err := env.athletes.Count(&org.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	w = postCSV(t, cl, "/api/import/athletes?dry_run=maybe", rosterUpload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportHandler_MultipartUpload(t *testing.T) {
	env := setupAPITestEnv(t)
	org := env.createOrg(t, "Falcons")
	coach := env.createUser(t, "coach", models.RoleCoach)
	env.addMember(t, org.ID, coach.ID, models.RoleCoach)
	env.createAthlete(t, org.ID, "Ada", "Lane")
	cl := env.login(t, "coach")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "session.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("firstName,lastName,date,metric,value\n" +
		"Ada,Lane,2024-03-01,FLY10_TIME,1.41\n" +
		"Ada,Lane,2024-03-02,VERTICAL_JUMP,abc\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import/measurements", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := cl.send(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decode[dto.ImportResultDTO](t, w)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)

	ms, _, err := env.measurements.List(repository.MeasurementFilter{OrganizationID: &org.ID})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, stats.MetricFly10Time, ms[0].Metric)

	// multipart without the file field
	body.Reset()
	mw = multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	req = httptest.NewRequest(http.MethodPost, "/api/import/measurements", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = cl.send(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportHandler_RejectsBadFiles(t *testing.T) {
	env := setupAPITestEnv(t)
	org := env.createOrg(t, "Falcons")
	coach := env.createUser(t, "coach", models.RoleCoach)
	env.addMember(t, org.ID, coach.ID, models.RoleCoach)
	athleteUser := env.createUser(t, "runner", models.RoleAthlete)
	env.addMember(t, org.ID, athleteUser.ID, models.RoleAthlete)

	cl := env.login(t, "coach")
	w := postCSV(t, cl, "/api/import/athletes", "firstName,gender\nAda,Female\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postCSV(t, cl, "/api/import/athletes", "firstName,lastName\n\"Ada,Lane\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postCSV(t, env.login(t, "runner"), "/api/import/athletes", rosterUpload)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apierrors.ErrCodeAccessDenied, decode[errorBody](t, w).Code)

	w = postCSV(t, env.anonymous(), "/api/import/athletes", rosterUpload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestImportHandler_Export(t *testing.T) {
	env := setupAPITestEnv(t)
	org := env.createOrg(t, "Falcons")
	coach := env.createUser(t, "coach", models.RoleCoach)
	env.addMember(t, org.ID, coach.ID, models.RoleCoach)
	ada := env.createAthlete(t, org.ID, "Ada", "Lane")
	env.record(t, ada, stats.MetricFly10Time, 1.41, day(2024, 3, 1))
	cl := env.login(t, "coach")

	w := cl.do(t, http.MethodGet, "/api/export/athletes", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="athletes-\d{8}\.csv"$`, w.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "firstName,lastName,birthDate"))
	assert.True(t, strings.HasPrefix(lines[1], "Ada,Lane,2008-06-15"))

	w = cl.do(t, http.MethodGet, "/api/export/measurements?metric=FLY10_TIME", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "measurements-")
	assert.Contains(t, w.Body.String(), "2024-03-01")
	assert.Contains(t, w.Body.String(), "1.41")

	w = cl.do(t, http.MethodGet, "/api/export/measurements?date_from=03/01/2024", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
