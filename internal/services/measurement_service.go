package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"github.com/yukikurage/athlete-performance-api/internal/stats"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMeasurementNotFound = errors.New("measurement not found")
	ErrInvalidMetric       = errors.New("metric is not recognized")
	ErrDateRequired        = errors.New("date is required")
	ErrInvalidDateRange    = errors.New("date_from must be before date_to")
)

// MeasurementService records and lists performance measurements.
type MeasurementService struct {
	measurementRepo repository.MeasurementRepository
	athleteRepo     repository.AthleteRepository
	log             *zap.Logger
}

func NewMeasurementService(measurementRepo repository.MeasurementRepository, athleteRepo repository.AthleteRepository, log *zap.Logger) *MeasurementService {
	return &MeasurementService{
		measurementRepo: measurementRepo,
		athleteRepo:     athleteRepo,
		log:             log,
	}
}

// ListMeasurementsInput filters measurement reads. Metric is the raw name.
type ListMeasurementsInput struct {
	OrganizationID *uint64
	TeamID         *uint64
	AthleteID      *uint64
	Metric         string
	DateFrom       *time.Time
	DateTo         *time.Time
	Page           int
	PageSize       int
}

// ListMeasurements returns one page of measurements visible in scope,
// newest first, with their athletes.
func (s *MeasurementService) ListMeasurements(scope access.Scope, input ListMeasurementsInput) ([]models.Measurement, int64, error) {
	filter, empty, err := measurementFilterFor(scope, input)
	if err != nil {
		return nil, 0, err
	}
	if empty {
		return []models.Measurement{}, 0, nil
	}
	filter.WithAthlete = true
	filter.Page = input.Page
	filter.PageSize = input.PageSize

	ms, total, err := s.measurementRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list measurements: %w", err)
	}
	return ms, total, nil
}

// measurementFilterFor narrows a read to what scope may see. empty is true
// when the scope can see nothing at all (an athlete with no linked record).
func measurementFilterFor(scope access.Scope, input ListMeasurementsInput) (repository.MeasurementFilter, bool, error) {
	var filter repository.MeasurementFilter

	if input.Metric != "" {
		m, err := stats.ParseMetric(input.Metric)
		if err != nil {
			return filter, false, ErrInvalidMetric
		}
		filter.Metric = &m
	}
	if input.DateFrom != nil && input.DateTo != nil && !input.DateFrom.Before(*input.DateTo) {
		return filter, false, ErrInvalidDateRange
	}
	filter.DateFrom = input.DateFrom
	filter.DateTo = input.DateTo
	filter.TeamID = input.TeamID

	if scope.Kind == access.KindAthleteSelf {
		if scope.AthleteID == 0 {
			return filter, true, nil
		}
		if input.AthleteID != nil && *input.AthleteID != scope.AthleteID {
			return filter, false, ErrAccessDenied
		}
		id := scope.AthleteID
		filter.AthleteID = &id
		return filter, false, nil
	}

	orgFilter, err := organizationFilterFor(scope, input.OrganizationID)
	if err != nil {
		return filter, false, err
	}
	filter.OrganizationID = orgFilter
	filter.AthleteID = input.AthleteID
	return filter, false, nil
}

// CreateMeasurementInput is a new measurement. Value is the raw submitted
// value and is validated before anything is stored.
type CreateMeasurementInput struct {
	AthleteID     uint64
	Metric        string
	Value         string
	Units         string
	Date          time.Time
	FlyInDistance *float64
	Notes         string
}

func (s *MeasurementService) CreateMeasurement(scope access.Scope, input CreateMeasurementInput) (*models.Measurement, Affected, error) {
	if !scope.CanManageMeasurements() {
		return nil, nil, ErrAccessDenied
	}

	athlete, err := s.findAthlete(input.AthleteID)
	if err != nil {
		return nil, nil, err
	}
	if !scope.CanAccessAthlete(athlete.ID, athlete.OrganizationID) {
		return nil, nil, ErrAccessDenied
	}

	metric, err := stats.ParseMetric(input.Metric)
	if err != nil {
		return nil, nil, ErrInvalidMetric
	}
	value, err := stats.ParseValue(input.Value)
	if err != nil {
		return nil, nil, err
	}
	if input.Date.IsZero() {
		return nil, nil, ErrDateRequired
	}

	m := &models.Measurement{
		AthleteID:      athlete.ID,
		OrganizationID: athlete.OrganizationID,
		Metric:         metric,
		Value:          value,
		Units:          unitsOrDefault(input.Units, metric),
		Date:           input.Date,
		Age:            athlete.AgeOn(input.Date),
		FlyInDistance:  input.FlyInDistance,
		Notes:          strings.TrimSpace(input.Notes),
		SubmittedByID:  scope.UserID,
	}
	if err := s.measurementRepo.Create(m); err != nil {
		return nil, nil, fmt.Errorf("failed to create measurement: %w", err)
	}
	m.Athlete = *athlete

	s.log.Info("measurement recorded",
		zap.Uint64("measurement_id", m.ID),
		zap.Uint64("athlete_id", m.AthleteID),
		zap.String("metric", string(m.Metric)),
		zap.Uint64("submitted_by", m.SubmittedByID),
	)

	return m, measurementAffected(*athlete, metric), nil
}

// UpdateMeasurementInput carries optional changes; nil fields are kept.
type UpdateMeasurementInput struct {
	Metric        *string
	Value         *string
	Units         *string
	Date          *time.Time
	FlyInDistance *float64
	Notes         *string
}

func (s *MeasurementService) UpdateMeasurement(scope access.Scope, id uint64, input UpdateMeasurementInput) (*models.Measurement, Affected, error) {
	m, err := s.findVisible(scope, id)
	if err != nil {
		return nil, nil, err
	}
	if !scope.CanManageMeasurements() {
		return nil, nil, ErrAccessDenied
	}

	previousMetric := m.Metric
	if input.Metric != nil {
		metric, err := stats.ParseMetric(*input.Metric)
		if err != nil {
			return nil, nil, ErrInvalidMetric
		}
		m.Metric = metric
		if input.Units == nil && metric != previousMetric {
			m.Units = metric.Units()
		}
	}
	if input.Value != nil {
		value, err := stats.ParseValue(*input.Value)
		if err != nil {
			return nil, nil, err
		}
		m.Value = value
	}
	if input.Units != nil {
		m.Units = unitsOrDefault(*input.Units, m.Metric)
	}
	if input.Date != nil {
		if input.Date.IsZero() {
			return nil, nil, ErrDateRequired
		}
		m.Date = *input.Date
		m.Age = m.Athlete.AgeOn(m.Date)
	}
	if input.FlyInDistance != nil {
		m.FlyInDistance = input.FlyInDistance
	}
	if input.Notes != nil {
		m.Notes = strings.TrimSpace(*input.Notes)
	}

	if err := s.measurementRepo.Update(m); err != nil {
		return nil, nil, fmt.Errorf("failed to update measurement: %w", err)
	}

	affected := measurementAffected(m.Athlete, m.Metric)
	if previousMetric != m.Metric {
		affected = affected.add(leaderboardKey(previousMetric), percentilesKey(previousMetric))
	}
	return m, affected, nil
}

func (s *MeasurementService) DeleteMeasurement(scope access.Scope, id uint64) (Affected, error) {
	m, err := s.findVisible(scope, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanManageMeasurements() {
		return nil, ErrAccessDenied
	}

	if err := s.measurementRepo.Delete(id); err != nil {
		return nil, fmt.Errorf("failed to delete measurement: %w", err)
	}

	return measurementAffected(m.Athlete, m.Metric), nil
}

func (s *MeasurementService) findVisible(scope access.Scope, id uint64) (*models.Measurement, error) {
	m, err := s.measurementRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeasurementNotFound
		}
		return nil, fmt.Errorf("failed to find measurement: %w", err)
	}
	if !scope.CanAccessAthlete(m.AthleteID, m.OrganizationID) {
		return nil, ErrAccessDenied
	}

	// Athlete carries no teams here; reload it for affected keys.
	athlete, err := s.findAthlete(m.AthleteID)
	if err != nil {
		return nil, err
	}
	m.Athlete = *athlete
	return m, nil
}

func (s *MeasurementService) findAthlete(id uint64) (*models.Athlete, error) {
	athlete, err := s.athleteRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, fmt.Errorf("failed to find athlete: %w", err)
	}
	return athlete, nil
}

func measurementAffected(athlete models.Athlete, metric stats.Metric) Affected {
	affected := newAffected(
		KeyMeasurements,
		KeyDashboardStats,
		athleteKey(athlete.ID),
		leaderboardKey(metric),
		percentilesKey(metric),
	)
	for _, t := range athlete.Teams {
		affected = affected.add(teamKey(t.ID))
	}
	return affected
}

func unitsOrDefault(units string, metric stats.Metric) string {
	if u := strings.TrimSpace(units); u != "" {
		return u
	}
	return metric.Units()
}
