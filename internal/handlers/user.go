package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/dto"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/middleware"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"github.com/yukikurage/athlete-performance-api/internal/utils"
	"go.uber.org/zap"
)

// UserHandler serves site-wide user management.
type UserHandler struct {
	userService *services.UserService
	log         *zap.Logger
}

func NewUserHandler(userService *services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log,
	}
}

// ListUsers returns one page of users, optionally filtered by search
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	users, total, err := h.userService.ListUsers(middleware.GetScope(c), services.ListUsersInput{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     params.Page,
		PageSize: params.Limit,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserListResponse{
		Users: dto.ToUserDTOs(users),
		Pagination: dto.PaginationDTO{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// UpdateUser changes a user's role, site admin flag or athlete link
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	type UpdateUserRequest struct {
		Role         *models.Role `json:"role"`
		IsSiteAdmin  *bool        `json:"is_site_admin"`
		AthleteID    *uint64      `json:"athlete_id"`
		ClearAthlete bool         `json:"clear_athlete"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, affected, err := h.userService.UpdateUser(middleware.GetScope(c), userID, services.UpdateUserInput{
		Role:         req.Role,
		IsSiteAdmin:  req.IsSiteAdmin,
		AthleteID:    req.AthleteID,
		ClearAthlete: req.ClearAthlete,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMutationResponse(dto.ToUserDTO(*user), affected))
}
