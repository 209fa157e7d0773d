package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/constants"
	"github.com/yukikurage/athlete-performance-api/internal/dto"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"github.com/yukikurage/athlete-performance-api/internal/stats"
	"go.uber.org/zap"
)

// respondServiceError maps service sentinel errors to API errors. Anything
// unrecognized is logged and reported as a 500.
func respondServiceError(c *gin.Context, log *zap.Logger, err error) {
	var parseErr *stats.ParseError
	switch {
	case errors.As(err, &parseErr):
		apierrors.InvalidValue(c, parseErr.Error())

	case errors.Is(err, services.ErrAccessDenied):
		apierrors.AccessDenied(c, "resource")
	case errors.Is(err, services.ErrInvitationEmailMismatch):
		apierrors.Forbidden(c, err.Error())

	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())

	case errors.Is(err, services.ErrAthleteNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrMeasurementNotFound),
		errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, services.ErrOrganizationMemberNotFound),
		errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())

	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrTeamNameTaken),
		errors.Is(err, services.ErrAlreadyOrganizationMember),
		errors.Is(err, services.ErrInvitationPending):
		apierrors.Conflict(c, err.Error())

	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrUsernameRequired),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrAthleteNameRequired),
		errors.Is(err, services.ErrTeamOutsideOrg),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrInvalidMetric),
		errors.Is(err, services.ErrDateRequired),
		errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrInvalidOrganizationName),
		errors.Is(err, services.ErrCannotRemoveYourself),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrCannotDemoteYourself),
		errors.Is(err, services.ErrOrganizationRequired),
		errors.Is(err, services.ErrInvitationRole),
		errors.Is(err, services.ErrInvitationExpired),
		errors.Is(err, services.ErrImportEmpty),
		errors.Is(err, services.ErrImportMissingColumn),
		errors.Is(err, services.ErrImportMalformed):
		apierrors.BadRequest(c, err.Error())

	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())

	default:
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		apierrors.InternalError(c, "")
	}
}

func parseIDParam(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+label+" ID")
		return 0, false
	}
	return id, true
}

// queryID reads an optional positive integer query parameter.
func queryID(c *gin.Context, name string) (*uint64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &id, nil
}

func queryDate(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s, expected YYYY-MM-DD", name)
	}
	return &t, nil
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// filterQuery is the set of filters shared by measurement lists, exports
// and analytics.
type filterQuery struct {
	OrganizationID *uint64
	TeamID         *uint64
	AthleteID      *uint64
	Metric         string
	DateFrom       *time.Time
	DateTo         *time.Time
}

func bindFilterQuery(c *gin.Context) (filterQuery, bool) {
	q := filterQuery{Metric: strings.TrimSpace(c.Query("metric"))}

	ids := []struct {
		name string
		dst  **uint64
	}{
		{"organization_id", &q.OrganizationID},
		{"team_id", &q.TeamID},
		{"athlete_id", &q.AthleteID},
	}
	for _, p := range ids {
		id, err := queryID(c, p.name)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return q, false
		}
		*p.dst = id
	}

	var err error
	if q.DateFrom, err = queryDate(c, "date_from"); err != nil {
		apierrors.BadRequest(c, err.Error())
		return q, false
	}
	if q.DateTo, err = queryDate(c, "date_to"); err != nil {
		apierrors.BadRequest(c, err.Error())
		return q, false
	}
	return q, true
}

func (q filterQuery) listInput() services.ListMeasurementsInput {
	return services.ListMeasurementsInput{
		OrganizationID: q.OrganizationID,
		TeamID:         q.TeamID,
		AthleteID:      q.AthleteID,
		Metric:         q.Metric,
		DateFrom:       q.DateFrom,
		DateTo:         q.DateTo,
	}
}

func (q filterQuery) analyticsQuery() services.AnalyticsQuery {
	return services.AnalyticsQuery{
		OrganizationID: q.OrganizationID,
		TeamID:         q.TeamID,
		Metric:         q.Metric,
		DateFrom:       q.DateFrom,
		DateTo:         q.DateTo,
	}
}
