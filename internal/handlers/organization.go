package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/constants"
	"github.com/yukikurage/athlete-performance-api/internal/dto"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/middleware"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"go.uber.org/zap"
)

type OrganizationHandler struct {
	orgService *services.OrganizationService
	log        *zap.Logger
}

func NewOrganizationHandler(orgService *services.OrganizationService, log *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
		log:        log,
	}
}

// CreateOrganization creates a new organization
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	type CreateOrgRequest struct {
		Name        string  `json:"name" binding:"required"`
		Description string  `json:"description"`
		AdminUserID *uint64 `json:"admin_user_id"`
	}

	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, affected, err := h.orgService.CreateOrganization(middleware.GetScope(c), services.CreateOrganizationInput{
		Name:        req.Name,
		Description: req.Description,
		AdminUserID: req.AdminUserID,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewMutationResponse(dto.ToOrganizationDTO(*org), affected))
}

// ListOrganizations returns every organization for site admins and the
// caller's own organizations otherwise
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	orgs, err := h.orgService.ListOrganizations(middleware.GetScope(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": dto.ToOrganizationDTOs(orgs),
	})
}

// GetOrganization returns organization details
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	// Organization is already loaded by RequireOrganizationAccess middleware
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}

	members, err := h.orgService.ListMembers(middleware.GetScope(c), org.ID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDetailDTO(org, members))
}

// UpdateOrganization updates the organization profile
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}

	type UpdateOrgRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}

	var req UpdateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, affected, err := h.orgService.UpdateOrganization(middleware.GetScope(c), org.ID, services.UpdateOrganizationInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMutationResponse(dto.ToOrganizationDTO(*updated), affected))
}

// SetOrganizationStatus activates or deactivates an organization. The
// previous state is returned so the client can undo an optimistic toggle.
func (h *OrganizationHandler) SetOrganizationStatus(c *gin.Context) {
	orgID, ok := parseIDParam(c, "id", "organization")
	if !ok {
		return
	}

	type StatusRequest struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	previous, affected, err := h.orgService.SetStatus(middleware.GetScope(c), orgID, *req.IsActive)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.OrganizationStatusDTO{
		ID:       orgID,
		IsActive: *req.IsActive,
		Previous: previous,
		Affected: dto.NewAffectedResponse(affected).Affected,
	})
}

// DeleteOrganization deletes an organization and everything in it
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	orgID, ok := parseIDParam(c, "id", "organization")
	if !ok {
		return
	}

	affected, err := h.orgService.DeleteOrganization(middleware.GetScope(c), orgID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	// leave the deleted organization's view
	if ctx := middleware.SessionOrganizationContext(c); ctx != nil && *ctx == orgID {
		session := sessions.Default(c)
		session.Delete(constants.SessionKeyOrganizationContext)
		if err := session.Save(); err != nil {
			h.log.Warn("failed to clear organization context", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, dto.NewAffectedResponse(affected))
}

// ListMembers returns the organization's members
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}

	members, err := h.orgService.ListMembers(middleware.GetScope(c), org.ID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members": dto.ToOrganizationMemberDTOs(members),
	})
}

// RemoveMember removes a member from the organization
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}

	targetID, ok := parseIDParam(c, "user_id", "user")
	if !ok {
		return
	}

	affected, err := h.orgService.RemoveMember(middleware.GetScope(c), org.ID, targetID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAffectedResponse(affected))
}
