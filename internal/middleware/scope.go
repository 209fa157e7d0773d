package middleware

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/constants"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"go.uber.org/zap"
)

// PrincipalLoader loads a user and the facts the scope resolver needs.
type PrincipalLoader interface {
	BuildPrincipal(userID uint64) (*models.User, *access.Principal, error)
}

// OrganizationChecker confirms an organization still exists.
type OrganizationChecker interface {
	Exists(orgID uint64) error
}

// LoadScope resolves the caller's scope from the session on every request.
// Requests without a session get the Unauthenticated scope. An organization
// context naming a deleted organization is dropped from the session.
func LoadScope(loader PrincipalLoader, orgs OrganizationChecker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		scope := access.Unauthenticated()

		if userID, ok := toUint64(session.Get(constants.ContextKeyUserID)); ok && userID != 0 {
			user, principal, err := loader.BuildPrincipal(userID)
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				// account removed since login
				session.Clear()
				if err := session.Save(); err != nil {
					log.Warn("failed to clear stale session", zap.Error(err))
				}
			case err != nil:
				log.Error("failed to load principal", zap.Uint64("user_id", userID), zap.Error(err))
				apierrors.InternalError(c, "")
				c.Abort()
				return
			default:
				orgContext, err := liveOrganizationContext(session, orgs, log)
				if err != nil {
					log.Error("failed to check organization context", zap.Uint64("user_id", userID), zap.Error(err))
					apierrors.InternalError(c, "")
					c.Abort()
					return
				}
				scope = access.Resolve(access.Input{
					Principal:           principal,
					OrganizationContext: orgContext,
					ActiveOrganization:  optionalID(session.Get(constants.SessionKeyActiveOrganization)),
				})
				c.Set(constants.ContextKeyPrincipal, user)
			}
		}

		c.Set(constants.ContextKeyScope, scope)
		c.Next()
	}
}

func liveOrganizationContext(session sessions.Session, orgs OrganizationChecker, log *zap.Logger) (*uint64, error) {
	orgID := optionalID(session.Get(constants.SessionKeyOrganizationContext))
	if orgID == nil {
		return nil, nil
	}
	err := orgs.Exists(*orgID)
	if errors.Is(err, services.ErrOrganizationNotFound) {
		session.Delete(constants.SessionKeyOrganizationContext)
		if err := session.Save(); err != nil {
			log.Warn("failed to clear stale organization context", zap.Error(err))
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return orgID, nil
}

// GetScope returns the scope set by LoadScope, or Unauthenticated.
func GetScope(c *gin.Context) access.Scope {
	v, exists := c.Get(constants.ContextKeyScope)
	if !exists {
		return access.Unauthenticated()
	}
	scope, ok := v.(access.Scope)
	if !ok {
		return access.Unauthenticated()
	}
	return scope
}

// GetCurrentUser returns the signed-in user loaded by LoadScope.
func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// RequireSiteAdmin rejects requests whose scope lacks site-admin rights.
func RequireSiteAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetScope(c).IsSiteAdmin() {
			apierrors.AccessDenied(c, "page")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionOrganizationContext returns the organization a site admin chose to
// act in, or nil.
func SessionOrganizationContext(c *gin.Context) *uint64 {
	return optionalID(sessions.Default(c).Get(constants.SessionKeyOrganizationContext))
}

func optionalID(v interface{}) *uint64 {
	id, ok := toUint64(v)
	if !ok || id == 0 {
		return nil
	}
	return &id
}
