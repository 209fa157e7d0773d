package dto

import (
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"github.com/yukikurage/athlete-performance-api/internal/stats"
)

// PercentilesDTO renders cut points. Every field is null when there was no data.
type PercentilesDTO struct {
	P25 *float64 `json:"p25"`
	P50 *float64 `json:"p50"`
	P75 *float64 `json:"p75"`
	P90 *float64 `json:"p90"`
}

// SummaryDTO is count/min/max/mean; the numbers are null for an empty set
type SummaryDTO struct {
	Count int      `json:"count"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Mean  *float64 `json:"mean"`
}

// LeaderboardRowDTO is one ranked athlete best
type LeaderboardRowDTO struct {
	Rank           int     `json:"rank"`
	AthleteID      uint64  `json:"athlete_id"`
	AthleteName    string  `json:"athlete_name"`
	MeasurementID  uint64  `json:"measurement_id"`
	Value          float64 `json:"value"`
	Date           string  `json:"date"`
	PercentileRank float64 `json:"percentile_rank"`
}

// MetricStatsDTO is one dashboard card
type MetricStatsDTO struct {
	Metric      stats.Metric       `json:"metric"`
	Label       string             `json:"label"`
	Units       string             `json:"units"`
	Summary     SummaryDTO         `json:"summary"`
	Percentiles PercentilesDTO     `json:"percentiles"`
	Leader      *LeaderboardRowDTO `json:"leader"`
}

// DashboardStatsDTO is the dashboard header response
type DashboardStatsDTO struct {
	Athletes           int64            `json:"athletes"`
	Teams              int64            `json:"teams"`
	Measurements       int64            `json:"measurements"`
	MeasurementsRecent int64            `json:"measurements_recent"`
	Metrics            []MetricStatsDTO `json:"metrics"`
}

// PercentilesResponse describes one metric's distribution
type PercentilesResponse struct {
	Metric      stats.Metric   `json:"metric"`
	Units       string         `json:"units"`
	Percentiles PercentilesDTO `json:"percentiles"`
	Summary     SummaryDTO     `json:"summary"`
	Athletes    int            `json:"athletes"`
}

// LeaderboardResponse is a ranked list for one metric
type LeaderboardResponse struct {
	Metric stats.Metric        `json:"metric"`
	Units  string              `json:"units"`
	Rows   []LeaderboardRowDTO `json:"rows"`
}

// MetricBestDTO is an athlete's best for one metric
type MetricBestDTO struct {
	Metric         stats.Metric `json:"metric"`
	Label          string       `json:"label"`
	Units          string       `json:"units"`
	Best           float64      `json:"best"`
	BestDate       string       `json:"best_date"`
	Latest         float64      `json:"latest"`
	LatestDate     string       `json:"latest_date"`
	Count          int          `json:"count"`
	PercentileRank *float64     `json:"percentile_rank"`
}

// AthleteProfileDTO is the per-athlete analytics page
type AthleteProfileDTO struct {
	Athlete AthleteDTO       `json:"athlete"`
	Bests   []MetricBestDTO  `json:"bests"`
	Recent  []MeasurementDTO `json:"recent"`
}

// AthleteSummaryResponse carries the generated narrative
type AthleteSummaryResponse struct {
	AthleteID uint64 `json:"athlete_id"`
	Summary   string `json:"summary"`
}

// ToPercentilesDTO nulls out the cut points when nothing was measured
func ToPercentilesDTO(p stats.Percentiles) PercentilesDTO {
	if !p.HasData() {
		return PercentilesDTO{}
	}
	return PercentilesDTO{P25: &p.P25, P50: &p.P50, P75: &p.P75, P90: &p.P90}
}

func ToSummaryDTO(s stats.Summary) SummaryDTO {
	if s.Count == 0 {
		return SummaryDTO{}
	}
	return SummaryDTO{Count: s.Count, Min: &s.Min, Max: &s.Max, Mean: &s.Mean}
}

func ToLeaderboardRowDTO(row services.LeaderboardRow) LeaderboardRowDTO {
	return LeaderboardRowDTO{
		Rank:           row.Rank,
		AthleteID:      row.AthleteID,
		AthleteName:    row.AthleteName,
		MeasurementID:  row.MeasurementID,
		Value:          row.Value,
		Date:           row.Date.Format(DateLayout),
		PercentileRank: row.PercentileRank,
	}
}

func ToLeaderboardResponse(metric stats.Metric, rows []services.LeaderboardRow) LeaderboardResponse {
	out := LeaderboardResponse{
		Metric: metric,
		Units:  metric.Units(),
		Rows:   make([]LeaderboardRowDTO, len(rows)),
	}
	for i, row := range rows {
		out.Rows[i] = ToLeaderboardRowDTO(row)
	}
	return out
}

func ToDashboardStatsDTO(d services.DashboardStats) DashboardStatsDTO {
	out := DashboardStatsDTO{
		Athletes:           d.Athletes,
		Teams:              d.Teams,
		Measurements:       d.Measurements,
		MeasurementsRecent: d.MeasurementsRecent,
		Metrics:            make([]MetricStatsDTO, len(d.Metrics)),
	}
	for i, card := range d.Metrics {
		dto := MetricStatsDTO{
			Metric:      card.Metric,
			Label:       card.Metric.Label(),
			Units:       card.Metric.Units(),
			Summary:     ToSummaryDTO(card.Summary),
			Percentiles: ToPercentilesDTO(card.Percentiles),
		}
		if card.Leader != nil {
			leader := ToLeaderboardRowDTO(*card.Leader)
			dto.Leader = &leader
		}
		out.Metrics[i] = dto
	}
	return out
}

func ToPercentilesResponse(r services.PercentilesResult) PercentilesResponse {
	return PercentilesResponse{
		Metric:      r.Metric,
		Units:       r.Units,
		Percentiles: ToPercentilesDTO(r.Percentiles),
		Summary:     ToSummaryDTO(r.Summary),
		Athletes:    r.Athletes,
	}
}

func ToAthleteProfileDTO(p services.AthleteProfile) AthleteProfileDTO {
	out := AthleteProfileDTO{
		Athlete: ToAthleteDTO(p.Athlete),
		Bests:   make([]MetricBestDTO, len(p.Bests)),
		Recent:  ToMeasurementDTOs(p.Recent),
	}
	for i, mb := range p.Bests {
		out.Bests[i] = MetricBestDTO{
			Metric:         mb.Metric,
			Label:          mb.Metric.Label(),
			Units:          mb.Units,
			Best:           mb.Best.Value,
			BestDate:       mb.Best.Date.Format(DateLayout),
			Latest:         mb.Latest.Value,
			LatestDate:     mb.Latest.Date.Format(DateLayout),
			Count:          mb.Count,
			PercentileRank: mb.PercentileRank,
		}
	}
	return out
}
