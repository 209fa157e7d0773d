package services

import (
	"fmt"
	"sort"

	"github.com/yukikurage/athlete-performance-api/internal/stats"
)

// Resource keys returned by mutations. Clients refetch exactly these.
const (
	KeyDashboardStats = "dashboard-stats"
	KeyMeasurements   = "measurements"
	KeyTeams          = "teams"
	KeyAthletes       = "athletes"
	KeyOrganizations  = "organizations"
	KeyInvitations    = "invitations"
	KeyUsers          = "users"
)

func athleteKey(id uint64) string      { return fmt.Sprintf("athletes/%d", id) }
func teamKey(id uint64) string         { return fmt.Sprintf("teams/%d", id) }
func organizationKey(id uint64) string { return fmt.Sprintf("organizations/%d", id) }
func leaderboardKey(m stats.Metric) string {
	return "leaderboard/" + string(m)
}
func percentilesKey(m stats.Metric) string {
	return "percentiles/" + string(m)
}

// Affected is a deduplicated, sorted set of resource keys.
type Affected []string

func newAffected(keys ...string) Affected {
	var a Affected
	return a.add(keys...)
}

func (a Affected) add(keys ...string) Affected {
	seen := make(map[string]struct{}, len(a)+len(keys))
	out := make(Affected, 0, len(a)+len(keys))
	for _, k := range append(append([]string{}, a...), keys...) {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
