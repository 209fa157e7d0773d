package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/middleware"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"go.uber.org/zap"
)

// Dependencies holds what the API routes are built from.
type Dependencies struct {
	OrganizationRepo repository.OrganizationRepository
	AthleteRepo      repository.AthleteRepository

	AuthService         *services.AuthService
	OrganizationService *services.OrganizationService
	UserService         *services.UserService
	TeamService         *services.TeamService
	AthleteService      *services.AthleteService
	MeasurementService  *services.MeasurementService
	InvitationService   *services.InvitationService
	AnalyticsService    *services.AnalyticsService
	ImportService       *services.ImportService

	Log *zap.Logger
}

// RegisterRoutes mounts the health check and every /api route. The session
// middleware must already be installed on r.
func RegisterRoutes(r *gin.Engine, d Dependencies) {
	authHandler := NewAuthHandler(d.AuthService, d.Log)
	sessionHandler := NewSessionHandler(d.AuthService, d.OrganizationService, d.Log)
	orgHandler := NewOrganizationHandler(d.OrganizationService, d.Log)
	userHandler := NewUserHandler(d.UserService, d.Log)
	teamHandler := NewTeamHandler(d.TeamService, d.Log)
	athleteHandler := NewAthleteHandler(d.AthleteService, d.Log)
	measurementHandler := NewMeasurementHandler(d.MeasurementService, d.Log)
	invitationHandler := NewInvitationHandler(d.InvitationService, d.Log)
	analyticsHandler := NewAnalyticsHandler(d.AnalyticsService, d.Log)
	importHandler := NewImportHandler(d.ImportService, d.Log)

	orgAccess := middleware.RequireOrganizationAccess(d.OrganizationRepo, d.Log)
	athleteAccess := middleware.RequireAthleteAccess(d.AthleteRepo, d.Log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Athlete Performance API is running",
		})
	})

	api := r.Group("/api")
	api.Use(middleware.LoadScope(d.AuthService, d.OrganizationService, d.Log))
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Session and navigation resolve for anonymous callers too
		api.GET("/session", sessionHandler.GetSession)
		api.GET("/navigation", sessionHandler.GetNavigation)

		protected := api.Group("")
		protected.Use(middleware.RequireAuth())

		session := protected.Group("/session")
		{
			session.PUT("/organization-context", sessionHandler.SetOrganizationContext)
			session.DELETE("/organization-context", sessionHandler.ClearOrganizationContext)
			session.PUT("/active-organization", sessionHandler.SetActiveOrganization)
		}

		orgs := protected.Group("/organizations")
		{
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("", orgHandler.ListOrganizations)
			orgs.GET("/:id", orgAccess, orgHandler.GetOrganization)
			orgs.PUT("/:id", orgAccess, middleware.RequireOrganizationManager(), orgHandler.UpdateOrganization)
			orgs.PATCH("/:id/status", middleware.RequireSiteAdmin(), orgHandler.SetOrganizationStatus)
			orgs.DELETE("/:id", middleware.RequireSiteAdmin(), orgHandler.DeleteOrganization)
			orgs.GET("/:id/members", orgAccess, orgHandler.ListMembers)
			orgs.DELETE("/:id/members/:user_id", orgAccess, middleware.RequireOrganizationManager(), orgHandler.RemoveMember)
		}

		users := protected.Group("/users")
		users.Use(middleware.RequireSiteAdmin())
		{
			users.GET("", userHandler.ListUsers)
			users.PATCH("/:id", userHandler.UpdateUser)
		}

		teams := protected.Group("/teams")
		{
			teams.GET("", teamHandler.ListTeams)
			teams.POST("", teamHandler.CreateTeam)
			teams.GET("/:id", teamHandler.GetTeam)
			teams.PUT("/:id", teamHandler.UpdateTeam)
			teams.DELETE("/:id", teamHandler.DeleteTeam)
		}

		athletes := protected.Group("/athletes")
		{
			athletes.GET("", athleteHandler.ListAthletes)
			athletes.POST("", athleteHandler.CreateAthlete)
			athletes.GET("/:id", athleteAccess, athleteHandler.GetAthlete)
			athletes.PUT("/:id", athleteHandler.UpdateAthlete)
			athletes.DELETE("/:id", athleteHandler.DeleteAthlete)
		}

		measurements := protected.Group("/measurements")
		{
			measurements.GET("", measurementHandler.ListMeasurements)
			measurements.POST("", measurementHandler.CreateMeasurement)
			measurements.PUT("/:id", measurementHandler.UpdateMeasurement)
			measurements.DELETE("/:id", measurementHandler.DeleteMeasurement)
		}

		invitations := protected.Group("/invitations")
		{
			invitations.POST("", invitationHandler.CreateInvitation)
			invitations.GET("", invitationHandler.ListInvitations)
			invitations.DELETE("/:id", invitationHandler.DeleteInvitation)
			invitations.POST("/:token/accept", invitationHandler.AcceptInvitation)
		}

		protected.GET("/dashboard/stats", analyticsHandler.DashboardStats)
		analytics := protected.Group("/analytics")
		{
			analytics.GET("/percentiles", analyticsHandler.Percentiles)
			analytics.GET("/leaderboard", analyticsHandler.Leaderboard)
			analytics.GET("/athletes/:id", analyticsHandler.AthleteProfile)
			analytics.POST("/athletes/:id/summary", analyticsHandler.AthleteSummary)
		}

		protected.POST("/import/athletes", importHandler.ImportAthletes)
		protected.POST("/import/measurements", importHandler.ImportMeasurements)
		protected.GET("/export/measurements", importHandler.ExportMeasurements)
		protected.GET("/export/athletes", importHandler.ExportAthletes)
	}
}
