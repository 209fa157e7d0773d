// Package navigation builds the ordered sidebar entries for a resolved scope.
package navigation

import (
	"fmt"

	"github.com/yukikurage/athlete-performance-api/internal/access"
)

// Entry is one navigation link.
type Entry struct {
	Label   string `json:"label"`
	Route   string `json:"route"`
	IconKey string `json:"icon_key"`
}

// View is the navigation model rendered by the dashboard shell.
type View struct {
	Scope        access.Kind `json:"scope"`
	Entries      []Entry     `json:"entries"`
	ReturnToSite bool        `json:"return_to_site"`
	RedirectTo   string      `json:"redirect_to,omitempty"`
}

var (
	dashboard     = Entry{Label: "Dashboard", Route: "/", IconKey: "home"}
	teams         = Entry{Label: "Teams", Route: "/teams", IconKey: "users"}
	athletes      = Entry{Label: "Athletes", Route: "/athletes", IconKey: "user"}
	dataEntry     = Entry{Label: "Data Entry", Route: "/data-entry", IconKey: "plus-circle"}
	analytics     = Entry{Label: "Analytics", Route: "/analytics", IconKey: "bar-chart"}
	publish       = Entry{Label: "Publish", Route: "/publish", IconKey: "share"}
	importExport  = Entry{Label: "Import/Export", Route: "/import-export", IconKey: "file-text"}
	organizations = Entry{Label: "Organizations", Route: "/organizations", IconKey: "building"}
	userMgmt      = Entry{Label: "User Management", Route: "/user-management", IconKey: "shield"}
	selectOrg     = Entry{Label: "Select Organization", Route: "/select-organization", IconKey: "building"}
)

// LoginRoute is where unauthenticated users are sent instead of rendering nav.
const LoginRoute = "/login"

func baseEntries() []Entry {
	return []Entry{dashboard, teams, athletes, dataEntry, analytics, publish, importExport}
}

// Build maps a scope to its ordered entries. It reads nothing but the scope.
func Build(s access.Scope) View {
	v := View{Scope: s.Kind, Entries: []Entry{}}

	switch s.Kind {
	case access.KindAthleteSelf:
		profile := Entry{Label: "My Profile", Route: "/profile", IconKey: "user"}
		if s.AthleteID != 0 {
			profile.Route = fmt.Sprintf("/athletes/%d", s.AthleteID)
		}
		v.Entries = []Entry{profile, analytics}
	case access.KindSiteAdminAsOrg:
		v.Entries = baseEntries()
		v.ReturnToSite = true
	case access.KindSiteAdminGlobal:
		v.Entries = []Entry{dashboard, analytics, organizations, userMgmt}
	case access.KindOrgAdmin:
		v.Entries = append(baseEntries(), Entry{
			Label:   "My Organization",
			Route:   fmt.Sprintf("/organizations/%d", s.OrganizationID),
			IconKey: "building",
		})
	case access.KindCoach:
		v.Entries = baseEntries()
	case access.KindOrganizationSelection:
		v.Entries = []Entry{selectOrg}
	default:
		v.RedirectTo = LoginRoute
	}

	return v
}
