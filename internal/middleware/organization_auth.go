package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/constants"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequireOrganizationAccess checks that the organization in :id exists and
// is visible in the caller's scope. Must run after LoadScope.
func RequireOrganizationAccess(orgRepo repository.OrganizationRepository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			c.Abort()
			return
		}

		org, err := orgRepo.FindByID(orgID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Organization not found")
			} else {
				log.Error("failed to load organization", zap.Uint64("organization_id", orgID), zap.Error(err))
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		if !GetScope(c).CanAccessOrganization(org.ID) {
			apierrors.AccessDenied(c, "organization")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyOrganization, *org)
		c.Next()
	}
}

// RequireOrganizationManager checks that the caller may change the
// organization loaded by RequireOrganizationAccess.
func RequireOrganizationManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		org, ok := GetOrganization(c)
		if !ok {
			apierrors.Forbidden(c, "Organization access required")
			c.Abort()
			return
		}

		if !GetScope(c).CanManageOrganization(org.ID) {
			apierrors.Forbidden(c, "Only organization admins can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetOrganization returns the organization loaded by RequireOrganizationAccess.
func GetOrganization(c *gin.Context) (models.Organization, bool) {
	v, exists := c.Get(constants.ContextKeyOrganization)
	if !exists {
		return models.Organization{}, false
	}
	org, ok := v.(models.Organization)
	return org, ok
}
