package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/constants"
	"github.com/yukikurage/athlete-performance-api/internal/dto"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/middleware"
	"github.com/yukikurage/athlete-performance-api/internal/navigation"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"go.uber.org/zap"
)

// SessionHandler exposes the resolved scope and lets users switch the
// organization they act in.
type SessionHandler struct {
	authService *services.AuthService
	orgService  *services.OrganizationService
	log         *zap.Logger
}

func NewSessionHandler(authService *services.AuthService, orgService *services.OrganizationService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{
		authService: authService,
		orgService:  orgService,
		log:         log,
	}
}

type organizationSelection struct {
	OrganizationID uint64 `json:"organization_id" binding:"required"`
}

// GetSession returns the user, scope and navigation in one payload.
// Unauthenticated callers get a navigation that redirects to login.
func (h *SessionHandler) GetSession(c *gin.Context) {
	h.respondSession(c, middleware.GetScope(c))
}

// GetNavigation returns the ordered navigation entries for the scope.
func (h *SessionHandler) GetNavigation(c *gin.Context) {
	c.JSON(http.StatusOK, navigation.Build(middleware.GetScope(c)))
}

// SetOrganizationContext lets a site admin act inside one organization.
func (h *SessionHandler) SetOrganizationContext(c *gin.Context) {
	scope := middleware.GetScope(c)
	if !scope.IsSiteAdmin() {
		apierrors.Forbidden(c, "Only site admins can switch organization context")
		return
	}

	var req organizationSelection
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.orgService.Exists(req.OrganizationID); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.SessionKeyOrganizationContext, req.OrganizationID)
	if err := session.Save(); err != nil {
		h.log.Error("failed to save session", zap.Error(err))
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	h.log.Info("organization context set",
		zap.Uint64("user_id", scope.UserID),
		zap.Uint64("organization_id", req.OrganizationID),
	)
	h.respondSession(c, access.SiteAdminAsOrg(scope.UserID, req.OrganizationID))
}

// ClearOrganizationContext returns a site admin to the site-wide view.
func (h *SessionHandler) ClearOrganizationContext(c *gin.Context) {
	scope := middleware.GetScope(c)
	if !scope.IsSiteAdmin() {
		apierrors.Forbidden(c, "Only site admins can switch organization context")
		return
	}

	session := sessions.Default(c)
	session.Delete(constants.SessionKeyOrganizationContext)
	if err := session.Save(); err != nil {
		h.log.Error("failed to save session", zap.Error(err))
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	h.respondSession(c, access.SiteAdminGlobal(scope.UserID))
}

// SetActiveOrganization picks which of the caller's organizations is used
// when they belong to several.
func (h *SessionHandler) SetActiveOrganization(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req organizationSelection
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	_, principal, err := h.authService.BuildPrincipal(userID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	member := false
	for _, m := range principal.Memberships {
		if m.OrganizationID == req.OrganizationID {
			member = true
			break
		}
	}
	if !member {
		apierrors.AccessDenied(c, "organization")
		return
	}

	session := sessions.Default(c)
	session.Set(constants.SessionKeyActiveOrganization, req.OrganizationID)
	if err := session.Save(); err != nil {
		h.log.Error("failed to save session", zap.Error(err))
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	active := req.OrganizationID
	h.respondSession(c, access.Resolve(access.Input{
		Principal:           principal,
		OrganizationContext: middleware.SessionOrganizationContext(c),
		ActiveOrganization:  &active,
	}))
}

func (h *SessionHandler) respondSession(c *gin.Context, scope access.Scope) {
	resp := dto.SessionDTO{
		Scope:         dto.ToScopeDTO(scope),
		Navigation:    navigation.Build(scope),
		Organizations: []dto.OrganizationDTO{},
	}

	if user, ok := middleware.GetCurrentUser(c); ok {
		u := dto.ToUserDTO(*user)
		resp.User = &u
	}

	if scope.Authenticated() {
		orgs, err := h.orgService.ListOrganizations(scope)
		if err != nil {
			respondServiceError(c, h.log, err)
			return
		}
		resp.Organizations = dto.ToOrganizationDTOs(orgs)
	}

	c.JSON(http.StatusOK, resp)
}
