package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/dto"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/middleware"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"github.com/yukikurage/athlete-performance-api/internal/stats"
	"go.uber.org/zap"
)

// AnalyticsHandler serves dashboard cards, percentiles, leaderboards and
// athlete profiles.
type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
	log              *zap.Logger
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		log:              log,
	}
}

func (h *AnalyticsHandler) DashboardStats(c *gin.Context) {
	q, ok := bindFilterQuery(c)
	if !ok {
		return
	}

	out, err := h.analyticsService.DashboardStats(middleware.GetScope(c), q.analyticsQuery())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDashboardStatsDTO(*out))
}

// Percentiles returns p25/p50/p75/p90 for ?metric=. Cut points are null
// when nothing was measured.
func (h *AnalyticsHandler) Percentiles(c *gin.Context) {
	q, ok := bindFilterQuery(c)
	if !ok {
		return
	}
	if q.Metric == "" {
		apierrors.BadRequest(c, "metric is required")
		return
	}

	out, err := h.analyticsService.Percentiles(middleware.GetScope(c), q.analyticsQuery())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPercentilesResponse(*out))
}

func (h *AnalyticsHandler) Leaderboard(c *gin.Context) {
	q, ok := bindFilterQuery(c)
	if !ok {
		return
	}
	if q.Metric == "" {
		apierrors.BadRequest(c, "metric is required")
		return
	}

	query := q.analyticsQuery()
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			apierrors.BadRequest(c, "limit must be a positive integer")
			return
		}
		query.Limit = limit
	}

	rows, err := h.analyticsService.Leaderboard(middleware.GetScope(c), query)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	// metric already validated by the service
	metric, _ := stats.ParseMetric(q.Metric)
	c.JSON(http.StatusOK, dto.ToLeaderboardResponse(metric, rows))
}

func (h *AnalyticsHandler) AthleteProfile(c *gin.Context) {
	athleteID, ok := parseIDParam(c, "id", "athlete")
	if !ok {
		return
	}

	profile, err := h.analyticsService.AthleteProfile(middleware.GetScope(c), athleteID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAthleteProfileDTO(*profile))
}

// AthleteSummary asks the language model for a short narrative. 503 when
// no API key is configured.
func (h *AnalyticsHandler) AthleteSummary(c *gin.Context) {
	athleteID, ok := parseIDParam(c, "id", "athlete")
	if !ok {
		return
	}

	summary, err := h.analyticsService.AthleteSummary(c.Request.Context(), middleware.GetScope(c), athleteID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.AthleteSummaryResponse{
		AthleteID: athleteID,
		Summary:   summary,
	})
}
