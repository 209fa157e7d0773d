package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/dto"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/middleware"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"go.uber.org/zap"
)

type InvitationHandler struct {
	invitationService *services.InvitationService
	log               *zap.Logger
}

func NewInvitationHandler(invitationService *services.InvitationService, log *zap.Logger) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
		log:               log,
	}
}

// CreateInvitation issues an invitation. The token is only ever returned here.
func (h *InvitationHandler) CreateInvitation(c *gin.Context) {
	type CreateInvitationRequest struct {
		OrganizationID *uint64     `json:"organization_id"`
		Email          string      `json:"email" binding:"required"`
		Role           models.Role `json:"role" binding:"required"`
		AthleteID      *uint64     `json:"athlete_id"`
	}

	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	inv, affected, err := h.invitationService.CreateInvitation(middleware.GetScope(c), services.CreateInvitationInput{
		OrganizationID: req.OrganizationID,
		Email:          req.Email,
		Role:           req.Role,
		AthleteID:      req.AthleteID,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	out := dto.ToInvitationDTO(*inv, time.Now())
	out.Token = inv.Token
	c.JSON(http.StatusCreated, dto.NewMutationResponse(out, affected))
}

func (h *InvitationHandler) ListInvitations(c *gin.Context) {
	orgID, err := queryID(c, "organization_id")
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	invs, err := h.invitationService.ListInvitations(middleware.GetScope(c), orgID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invitations": dto.ToInvitationDTOs(invs, time.Now()),
	})
}

func (h *InvitationHandler) DeleteInvitation(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invitation")
	if !ok {
		return
	}

	affected, err := h.invitationService.DeleteInvitation(middleware.GetScope(c), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAffectedResponse(affected))
}

// AcceptInvitation joins the signed-in user to the inviting organization
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		apierrors.BadRequest(c, "Invitation token is required")
		return
	}

	inv, affected, err := h.invitationService.AcceptInvitation(userID, token)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMutationResponse(dto.ToInvitationDTO(*inv, time.Now()), affected))
}
