package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/constants"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"github.com/yukikurage/athlete-performance-api/internal/stats"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AnalyticsService computes dashboard cards, percentiles and leaderboards
// from stored measurements.
type AnalyticsService struct {
	measurementRepo repository.MeasurementRepository
	athleteRepo     repository.AthleteRepository
	teamRepo        repository.TeamRepository
	summarizer      AthleteSummarizer
	log             *zap.Logger
	now             func() time.Time
}

// NewAnalyticsService creates an AnalyticsService. summarizer may be nil.
func NewAnalyticsService(
	measurementRepo repository.MeasurementRepository,
	athleteRepo repository.AthleteRepository,
	teamRepo repository.TeamRepository,
	summarizer AthleteSummarizer,
	log *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		measurementRepo: measurementRepo,
		athleteRepo:     athleteRepo,
		teamRepo:        teamRepo,
		summarizer:      summarizer,
		log:             log,
		now:             time.Now,
	}
}

// AnalyticsQuery narrows the measurements an analysis looks at.
type AnalyticsQuery struct {
	OrganizationID *uint64
	TeamID         *uint64
	Metric         string
	DateFrom       *time.Time
	DateTo         *time.Time
	Limit          int
}

func (q AnalyticsQuery) listInput() ListMeasurementsInput {
	return ListMeasurementsInput{
		OrganizationID: q.OrganizationID,
		TeamID:         q.TeamID,
		Metric:         q.Metric,
		DateFrom:       q.DateFrom,
		DateTo:         q.DateTo,
	}
}

// MetricStats is one dashboard card.
type MetricStats struct {
	Metric      stats.Metric
	Summary     stats.Summary
	Percentiles stats.Percentiles
	Leader      *LeaderboardRow
}

// DashboardStats is the dashboard header data.
type DashboardStats struct {
	Athletes           int64
	Teams              int64
	Measurements       int64
	MeasurementsRecent int64
	Metrics            []MetricStats
}

// DashboardStats counts what the scope can see and summarizes each metric.
func (s *AnalyticsService) DashboardStats(scope access.Scope, q AnalyticsQuery) (*DashboardStats, error) {
	q.Metric = ""
	filter, empty, err := measurementFilterFor(scope, q.listInput())
	if err != nil {
		return nil, err
	}

	out := &DashboardStats{Metrics: []MetricStats{}}
	if empty {
		return out, nil
	}

	if scope.Kind == access.KindAthleteSelf {
		athlete, err := s.athleteRepo.FindByID(scope.AthleteID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return nil, fmt.Errorf("failed to find athlete: %w", err)
		default:
			out.Athletes = 1
			out.Teams = int64(len(athlete.Teams))
		}
	} else {
		if out.Athletes, err = s.athleteRepo.Count(filter.OrganizationID); err != nil {
			return nil, fmt.Errorf("failed to count athletes: %w", err)
		}
		if out.Teams, err = s.teamRepo.Count(filter.OrganizationID); err != nil {
			return nil, fmt.Errorf("failed to count teams: %w", err)
		}
	}

	ms, total, err := s.measurementRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load measurements: %w", err)
	}
	out.Measurements = total

	cutoff := s.now().AddDate(0, 0, -30)
	byMetric := make(map[stats.Metric][]stats.Entry)
	for _, m := range ms {
		if !m.Date.Before(cutoff) {
			out.MeasurementsRecent++
		}
		byMetric[m.Metric] = append(byMetric[m.Metric], m.Entry())
	}

	for _, metric := range stats.Metrics() {
		entries := byMetric[metric]
		if len(entries) == 0 {
			continue
		}
		values := stats.Values(entries)
		card := MetricStats{
			Metric:      metric,
			Summary:     stats.Summarize(values),
			Percentiles: stats.CalculatePercentiles(values),
		}
		rows, err := s.leaderboardRows(entries, metric, 1)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			card.Leader = &rows[0]
		}
		out.Metrics = append(out.Metrics, card)
	}

	return out, nil
}

// PercentilesResult describes the distribution of one metric.
type PercentilesResult struct {
	Metric      stats.Metric
	Units       string
	Percentiles stats.Percentiles
	Summary     stats.Summary
	Athletes    int
}

// Percentiles computes cut points over every measurement of the metric in
// scope. An empty set yields percentiles without data.
func (s *AnalyticsService) Percentiles(scope access.Scope, q AnalyticsQuery) (*PercentilesResult, error) {
	metric, err := stats.ParseMetric(q.Metric)
	if err != nil {
		return nil, ErrInvalidMetric
	}

	entries, err := s.entries(scope, q)
	if err != nil {
		return nil, err
	}

	values := stats.Values(entries)
	return &PercentilesResult{
		Metric:      metric,
		Units:       metric.Units(),
		Percentiles: stats.CalculatePercentiles(values),
		Summary:     stats.Summarize(values),
		Athletes:    len(stats.BestPerAthlete(entries, metric)),
	}, nil
}

// LeaderboardRow is a ranked athlete best with display data.
type LeaderboardRow struct {
	Rank           int
	AthleteID      uint64
	AthleteName    string
	MeasurementID  uint64
	Value          float64
	Date           time.Time
	PercentileRank float64
}

// Leaderboard ranks every athlete's best result for the metric.
func (s *AnalyticsService) Leaderboard(scope access.Scope, q AnalyticsQuery) ([]LeaderboardRow, error) {
	metric, err := stats.ParseMetric(q.Metric)
	if err != nil {
		return nil, ErrInvalidMetric
	}

	entries, err := s.entries(scope, q)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = constants.DefaultLeaderboardLimit
	}
	return s.leaderboardRows(entries, metric, limit)
}

func (s *AnalyticsService) leaderboardRows(entries []stats.Entry, metric stats.Metric, limit int) ([]LeaderboardRow, error) {
	board := stats.Leaderboard(entries, metric, limit)
	if len(board) == 0 {
		return []LeaderboardRow{}, nil
	}

	bests := stats.BestPerAthlete(entries, metric)
	bestValues := make([]float64, 0, len(bests))
	for _, e := range bests {
		bestValues = append(bestValues, e.Value)
	}

	ids := make([]uint64, len(board))
	for i, row := range board {
		ids[i] = row.Entry.AthleteID
	}
	athletes, err := s.athleteRepo.ListByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load athletes: %w", err)
	}

	rows := make([]LeaderboardRow, len(board))
	for i, row := range board {
		rows[i] = LeaderboardRow{
			Rank:           row.Rank,
			AthleteID:      row.Entry.AthleteID,
			AthleteName:    athletes[row.Entry.AthleteID].FullName(),
			MeasurementID:  row.Entry.ID,
			Value:          row.Entry.Value,
			Date:           row.Entry.Date,
			PercentileRank: stats.PercentileRank(bestValues, row.Entry.Value, metric),
		}
	}
	return rows, nil
}

// MetricBest is an athlete's best for one metric.
type MetricBest struct {
	Metric stats.Metric
	Units  string
	Best   stats.Entry
	Latest stats.Entry
	Count  int
	// PercentileRank compares the best against the bests of the athlete's
	// organization. Nil when the caller cannot see the organization.
	PercentileRank *float64
}

// AthleteProfile is the per-athlete analytics page.
type AthleteProfile struct {
	Athlete models.Athlete
	Bests   []MetricBest
	Recent  []models.Measurement
}

// AthleteProfile collects an athlete's bests, peer standing and recent tests.
func (s *AnalyticsService) AthleteProfile(scope access.Scope, athleteID uint64) (*AthleteProfile, error) {
	athlete, err := s.athleteRepo.FindByID(athleteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, fmt.Errorf("failed to find athlete: %w", err)
	}
	if !scope.CanAccessAthlete(athlete.ID, athlete.OrganizationID) {
		return nil, ErrAccessDenied
	}

	own, _, err := s.measurementRepo.List(repository.MeasurementFilter{AthleteID: &athlete.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load measurements: %w", err)
	}

	var peers []stats.Entry
	if scope.CanAccessOrganization(athlete.OrganizationID) {
		all, _, err := s.measurementRepo.List(repository.MeasurementFilter{OrganizationID: &athlete.OrganizationID})
		if err != nil {
			return nil, fmt.Errorf("failed to load organization measurements: %w", err)
		}
		peers = make([]stats.Entry, len(all))
		for i, m := range all {
			peers[i] = m.Entry()
		}
	}

	entries := make([]stats.Entry, len(own))
	for i, m := range own {
		entries[i] = m.Entry()
	}

	profile := &AthleteProfile{Athlete: *athlete, Bests: []MetricBest{}}
	for _, metric := range stats.Metrics() {
		best, ok := stats.BestPerAthlete(entries, metric)[athlete.ID]
		if !ok {
			continue
		}
		mb := MetricBest{Metric: metric, Units: metric.Units(), Best: best}
		for _, e := range entries {
			if e.Metric != metric {
				continue
			}
			mb.Count++
			// own is newest first
			if mb.Latest.ID == 0 {
				mb.Latest = e
			}
		}
		if peers != nil {
			peerBests := stats.Values(bestList(stats.BestPerAthlete(peers, metric)))
			rank := stats.PercentileRank(peerBests, best.Value, metric)
			mb.PercentileRank = &rank
		}
		profile.Bests = append(profile.Bests, mb)
	}

	recent := own
	if len(recent) > 10 {
		recent = recent[:10]
	}
	profile.Recent = recent

	return profile, nil
}

// AthleteSummary asks the configured summarizer for a narrative.
func (s *AnalyticsService) AthleteSummary(ctx context.Context, scope access.Scope, athleteID uint64) (string, error) {
	if s.summarizer == nil {
		return "", ErrAIServiceNotConfigured
	}

	profile, err := s.AthleteProfile(scope, athleteID)
	if err != nil {
		return "", err
	}

	summary, err := s.summarizer.SummarizeAthlete(ctx, *profile)
	if err != nil {
		s.log.Warn("athlete summary failed", zap.Uint64("athlete_id", athleteID), zap.Error(err))
		return "", fmt.Errorf("failed to summarize athlete: %w", err)
	}
	return summary, nil
}

func (s *AnalyticsService) entries(scope access.Scope, q AnalyticsQuery) ([]stats.Entry, error) {
	filter, empty, err := measurementFilterFor(scope, q.listInput())
	if err != nil {
		return nil, err
	}
	if empty {
		return []stats.Entry{}, nil
	}

	ms, _, err := s.measurementRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load measurements: %w", err)
	}

	entries := make([]stats.Entry, len(ms))
	for i, m := range ms {
		entries[i] = m.Entry()
	}
	return entries, nil
}

func bestList(bests map[uint64]stats.Entry) []stats.Entry {
	out := make([]stats.Entry, 0, len(bests))
	for _, e := range bests {
		out = append(out, e)
	}
	return out
}
