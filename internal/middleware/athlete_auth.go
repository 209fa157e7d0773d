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

// RequireAthleteAccess checks that the athlete in :id exists and is visible
// in the caller's scope. Athletes may only reach their own record.
func RequireAthleteAccess(athleteRepo repository.AthleteRepository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		athleteID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid athlete ID")
			c.Abort()
			return
		}

		athlete, err := athleteRepo.FindByID(athleteID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Athlete not found")
			} else {
				log.Error("failed to load athlete", zap.Uint64("athlete_id", athleteID), zap.Error(err))
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		if !GetScope(c).CanAccessAthlete(athlete.ID, athlete.OrganizationID) {
			apierrors.AccessDenied(c, "athlete")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyAthlete, *athlete)
		c.Next()
	}
}

// GetAthlete returns the athlete loaded by RequireAthleteAccess.
func GetAthlete(c *gin.Context) (models.Athlete, bool) {
	v, exists := c.Get(constants.ContextKeyAthlete)
	if !exists {
		return models.Athlete{}, false
	}
	athlete, ok := v.(models.Athlete)
	return athlete, ok
}
