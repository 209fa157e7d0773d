package stats

import (
	"sort"
	"time"
)

// Entry is one measurement as seen by the calculator.
type Entry struct {
	ID        uint64
	AthleteID uint64
	Metric    Metric
	Value     float64
	Date      time.Time
}

// Values extracts the numeric values of entries in order.
func Values(entries []Entry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

// BestPerAthlete keeps the most favorable entry per athlete for metric.
// Entries recorded for other metrics are skipped.
func BestPerAthlete(entries []Entry, metric Metric) map[uint64]Entry {
	best := make(map[uint64]Entry)
	for _, e := range entries {
		if e.Metric != metric {
			continue
		}
		current, seen := best[e.AthleteID]
		if !seen || metric.Better(e.Value, current.Value) {
			best[e.AthleteID] = e
		}
	}
	return best
}

// RankMeasurements orders entries best-first for metric: ascending for
// time-based metrics, descending otherwise. Ties keep input order.
func RankMeasurements(entries []Entry, metric Metric) []Entry {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return metric.Better(ranked[i].Value, ranked[j].Value)
	})
	return ranked
}

// LeaderboardRow is a ranked best entry.
type LeaderboardRow struct {
	Rank  int
	Entry Entry
}

// Leaderboard ranks the best entry of every athlete. limit <= 0 means no limit.
// Athletes with equal values are ordered by the date of their best, then id.
func Leaderboard(entries []Entry, metric Metric, limit int) []LeaderboardRow {
	bests := BestPerAthlete(entries, metric)

	list := make([]Entry, 0, len(bests))
	for _, e := range bests {
		list = append(list, e)
	}
	// Map iteration is random; give the stable ranking a deterministic input.
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].AthleteID < list[j].AthleteID
	})

	ranked := RankMeasurements(list, metric)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	rows := make([]LeaderboardRow, len(ranked))
	for i, e := range ranked {
		rows[i] = LeaderboardRow{Rank: i + 1, Entry: e}
	}
	return rows
}
