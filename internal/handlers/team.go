package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/dto"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/middleware"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"go.uber.org/zap"
)

type TeamHandler struct {
	teamService *services.TeamService
	log         *zap.Logger
}

func NewTeamHandler(teamService *services.TeamService, log *zap.Logger) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
		log:         log,
	}
}

type teamRequest struct {
	OrganizationID *uint64 `json:"organization_id"`
	Name           string  `json:"name" binding:"required,max=100"`
	Level          string  `json:"level"`
	Season         string  `json:"season"`
	Notes          string  `json:"notes"`
}

func (r teamRequest) input() services.TeamInput {
	return services.TeamInput{
		OrganizationID: r.OrganizationID,
		Name:           r.Name,
		Level:          r.Level,
		Season:         r.Season,
		Notes:          r.Notes,
	}
}

func (h *TeamHandler) ListTeams(c *gin.Context) {
	orgID, err := queryID(c, "organization_id")
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	teams, err := h.teamService.ListTeams(middleware.GetScope(c), orgID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"teams": dto.ToTeamDTOs(teams),
	})
}

func (h *TeamHandler) GetTeam(c *gin.Context) {
	teamID, ok := parseIDParam(c, "id", "team")
	if !ok {
		return
	}

	team, err := h.teamService.GetTeam(middleware.GetScope(c), teamID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team))
}

func (h *TeamHandler) CreateTeam(c *gin.Context) {
	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, affected, err := h.teamService.CreateTeam(middleware.GetScope(c), req.input())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewMutationResponse(dto.ToTeamDTO(*team), affected))
}

func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	teamID, ok := parseIDParam(c, "id", "team")
	if !ok {
		return
	}

	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, affected, err := h.teamService.UpdateTeam(middleware.GetScope(c), teamID, req.input())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMutationResponse(dto.ToTeamDTO(*team), affected))
}

func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	teamID, ok := parseIDParam(c, "id", "team")
	if !ok {
		return
	}

	affected, err := h.teamService.DeleteTeam(middleware.GetScope(c), teamID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAffectedResponse(affected))
}
