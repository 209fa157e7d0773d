package constants

import "time"

// Session and gin context keys
const (
	ContextKeyUserID              = "user_id"
	ContextKeyScope               = "scope"
	ContextKeyPrincipal           = "principal"
	ContextKeyOrganization        = "organization"
	ContextKeyAthlete             = "athlete"
	SessionKeyOrganizationContext = "organization_context"
	SessionKeyActiveOrganization  = "active_organization"
	SessionName                   = "performance_session"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Auth
const (
	MinPasswordLength = 8
)

// Invitations
const (
	DefaultInvitationTTL = 7 * 24 * time.Hour
)

// Leaderboards
const (
	DefaultLeaderboardLimit = 25
)
