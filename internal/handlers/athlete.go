package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/dto"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/middleware"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"github.com/yukikurage/athlete-performance-api/internal/utils"
	"go.uber.org/zap"
)

type AthleteHandler struct {
	athleteService *services.AthleteService
	log            *zap.Logger
}

func NewAthleteHandler(athleteService *services.AthleteService, log *zap.Logger) *AthleteHandler {
	return &AthleteHandler{
		athleteService: athleteService,
		log:            log,
	}
}

type athleteRequest struct {
	OrganizationID *uint64  `json:"organization_id"`
	FirstName      string   `json:"first_name" binding:"required,max=100"`
	LastName       string   `json:"last_name" binding:"required,max=100"`
	BirthDate      string   `json:"birth_date"`
	BirthYear      *int     `json:"birth_year"`
	GraduationYear *int     `json:"graduation_year"`
	Gender         string   `json:"gender"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	School         string   `json:"school"`
	Sports         string   `json:"sports"`
	Height         *float64 `json:"height"`
	Weight         *float64 `json:"weight"`
	TeamIDs        []uint64 `json:"team_ids"`
}

func (r athleteRequest) input() (services.AthleteInput, error) {
	birth, err := parseDate(r.BirthDate)
	if err != nil {
		return services.AthleteInput{}, err
	}
	return services.AthleteInput{
		OrganizationID: r.OrganizationID,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		BirthDate:      birth,
		BirthYear:      r.BirthYear,
		GraduationYear: r.GraduationYear,
		Gender:         r.Gender,
		Email:          r.Email,
		Phone:          r.Phone,
		School:         r.School,
		Sports:         r.Sports,
		Height:         r.Height,
		Weight:         r.Weight,
		TeamIDs:        r.TeamIDs,
	}, nil
}

// ListAthletes returns one page of athletes. Athletes only see themselves.
func (h *AthleteHandler) ListAthletes(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	orgID, err := queryID(c, "organization_id")
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	teamID, err := queryID(c, "team_id")
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	athletes, total, err := h.athleteService.ListAthletes(middleware.GetScope(c), services.ListAthletesInput{
		OrganizationID: orgID,
		TeamID:         teamID,
		Search:         strings.TrimSpace(c.Query("search")),
		Page:           params.Page,
		PageSize:       params.Limit,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.AthleteListResponse{
		Athletes: dto.ToAthleteDTOs(athletes),
		Pagination: dto.PaginationDTO{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetAthlete returns the athlete loaded by RequireAthleteAccess
func (h *AthleteHandler) GetAthlete(c *gin.Context) {
	athlete, ok := middleware.GetAthlete(c)
	if !ok {
		apierrors.InternalError(c, "Athlete not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToAthleteDTO(athlete))
}

func (h *AthleteHandler) CreateAthlete(c *gin.Context) {
	var req athleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	input, err := req.input()
	if err != nil {
		apierrors.BadRequest(c, "birth_date must be YYYY-MM-DD")
		return
	}

	athlete, affected, err := h.athleteService.CreateAthlete(middleware.GetScope(c), input)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewMutationResponse(dto.ToAthleteDTO(*athlete), affected))
}

func (h *AthleteHandler) UpdateAthlete(c *gin.Context) {
	athleteID, ok := parseIDParam(c, "id", "athlete")
	if !ok {
		return
	}

	var req athleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	input, err := req.input()
	if err != nil {
		apierrors.BadRequest(c, "birth_date must be YYYY-MM-DD")
		return
	}

	athlete, affected, err := h.athleteService.UpdateAthlete(middleware.GetScope(c), athleteID, input)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMutationResponse(dto.ToAthleteDTO(*athlete), affected))
}

func (h *AthleteHandler) DeleteAthlete(c *gin.Context) {
	athleteID, ok := parseIDParam(c, "id", "athlete")
	if !ok {
		return
	}

	affected, err := h.athleteService.DeleteAthlete(middleware.GetScope(c), athleteID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAffectedResponse(affected))
}
