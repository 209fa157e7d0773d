package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/datagen"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"github.com/yukikurage/athlete-performance-api/internal/stats"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrImportEmpty         = errors.New("file has no header row")
	ErrImportMissingColumn = errors.New("file is missing a required column")
	ErrImportMalformed     = errors.New("file is not valid CSV")
)

// ImportService loads rosters and measurement sessions from CSV files and
// writes them back out in the same layout.
type ImportService struct {
	athleteRepo     repository.AthleteRepository
	teamRepo        repository.TeamRepository
	measurementRepo repository.MeasurementRepository
	log             *zap.Logger
}

func NewImportService(
	athleteRepo repository.AthleteRepository,
	teamRepo repository.TeamRepository,
	measurementRepo repository.MeasurementRepository,
	log *zap.Logger,
) *ImportService {
	return &ImportService{
		athleteRepo:     athleteRepo,
		teamRepo:        teamRepo,
		measurementRepo: measurementRepo,
		log:             log,
	}
}

// ImportInput is one uploaded file.
type ImportInput struct {
	Reader         io.Reader
	OrganizationID *uint64
	DryRun         bool
}

// RowError reports a rejected row. Row counts the header as row 1.
type RowError struct {
	Row     int
	Message string
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Total    int
	Created  int
	Skipped  int
	Errors   []RowError
	DryRun   bool
	Unknown  []string
	Affected Affected
}

type csvTable struct {
	index   map[string]int
	rows    [][]string
	unknown []string
}

func (t csvTable) get(row []string, column string) string {
	i, ok := t.index[strings.ToLower(column)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readTable(r io.Reader, known, required []string) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportMalformed, err)
	}
	if len(records) == 0 {
		return nil, ErrImportEmpty
	}

	knownSet := make(map[string]struct{}, len(known))
	for _, k := range known {
		knownSet[strings.ToLower(k)] = struct{}{}
	}

	t := &csvTable{index: make(map[string]int), rows: records[1:]}
	for i, h := range records[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if key == "" {
			continue
		}
		if _, ok := knownSet[key]; !ok {
			t.unknown = append(t.unknown, strings.TrimSpace(h))
			continue
		}
		t.index[key] = i
	}

	for _, col := range required {
		if _, ok := t.index[strings.ToLower(col)]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrImportMissingColumn, col)
		}
	}
	return t, nil
}

// ImportAthletes creates roster rows that do not exist yet. Athletes are
// matched by first and last name within the organization. A named team is
// created when missing.
func (s *ImportService) ImportAthletes(scope access.Scope, input ImportInput) (*ImportResult, error) {
	if !scope.CanManageRoster() {
		return nil, ErrAccessDenied
	}
	orgID, err := organizationFor(scope, input.OrganizationID)
	if err != nil {
		return nil, err
	}

	table, err := readTable(input.Reader, datagen.RosterHeaders, []string{"firstName", "lastName"})
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Total:    len(table.rows),
		DryRun:   input.DryRun,
		Unknown:  table.unknown,
		Errors:   []RowError{},
		Affected: Affected{},
	}
	teams := make(map[string]*models.Team)
	seen := make(map[string]struct{})

	for i, row := range table.rows {
		rowNum := i + 2
		athleteInput, teamName, level, err := athleteRow(table, row)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}

		key := strings.ToLower(athleteInput.FirstName + "|" + athleteInput.LastName)
		if _, dup := seen[key]; dup {
			result.Skipped++
			continue
		}
		seen[key] = struct{}{}

		if _, err := s.athleteRepo.FindByName(orgID, athleteInput.FirstName, athleteInput.LastName); err == nil {
			result.Skipped++
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up athlete: %w", err)
		}

		if input.DryRun {
			result.Created++
			continue
		}

		athlete := &models.Athlete{OrganizationID: orgID}
		if err := applyAthleteInput(athlete, athleteInput); err != nil {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if err := s.athleteRepo.Create(athlete); err != nil {
			return nil, fmt.Errorf("failed to create athlete on row %d: %w", rowNum, err)
		}

		if teamName != "" {
			team, err := s.findOrCreateTeam(teams, orgID, teamName, level)
			if err != nil {
				return nil, err
			}
			if err := s.athleteRepo.ReplaceTeams(athlete, []models.Team{*team}); err != nil {
				return nil, fmt.Errorf("failed to assign team on row %d: %w", rowNum, err)
			}
			result.Affected = result.Affected.add(teamKey(team.ID))
		}
		result.Created++
	}

	if result.Created > 0 && !input.DryRun {
		result.Affected = result.Affected.add(KeyAthletes, KeyDashboardStats)
		if len(teams) > 0 {
			result.Affected = result.Affected.add(KeyTeams)
		}
	}

	s.log.Info("roster imported",
		zap.Uint64("organization_id", orgID),
		zap.Int("total", result.Total),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
		zap.Bool("dry_run", input.DryRun),
	)
	return result, nil
}

func athleteRow(table *csvTable, row []string) (AthleteInput, string, int, error) {
	in := AthleteInput{
		FirstName: table.get(row, "firstName"),
		LastName:  table.get(row, "lastName"),
		Gender:    table.get(row, "gender"),
		Email:     firstListed(table.get(row, "emails")),
		Phone:     firstListed(table.get(row, "phoneNumbers")),
		Sports:    table.get(row, "sports"),
		School:    table.get(row, "school"),
	}
	if in.FirstName == "" || in.LastName == "" {
		return in, "", 0, ErrAthleteNameRequired
	}

	var err error
	if in.BirthDate, err = optionalDate(table.get(row, "birthDate"), "birthDate"); err != nil {
		return in, "", 0, err
	}
	if in.BirthYear, err = optionalInt(table.get(row, "birthYear"), "birthYear"); err != nil {
		return in, "", 0, err
	}
	if in.GraduationYear, err = optionalInt(table.get(row, "graduationYear"), "graduationYear"); err != nil {
		return in, "", 0, err
	}
	if in.Height, err = optionalFloat(table.get(row, "height"), "height"); err != nil {
		return in, "", 0, err
	}
	if in.Weight, err = optionalFloat(table.get(row, "weight"), "weight"); err != nil {
		return in, "", 0, err
	}

	level := 0
	if raw := table.get(row, "competitiveLevel"); raw != "" {
		l, ok := datagen.ParseCompetitiveLevel(raw)
		if !ok {
			return in, "", 0, fmt.Errorf("competitiveLevel %q is not recognized", raw)
		}
		level = l
	}
	return in, table.get(row, "teamName"), level, nil
}

func (s *ImportService) findOrCreateTeam(cache map[string]*models.Team, orgID uint64, name string, level int) (*models.Team, error) {
	key := strings.ToLower(name)
	if team, ok := cache[key]; ok {
		return team, nil
	}

	team, err := s.teamRepo.FindByName(orgID, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		team = &models.Team{
			OrganizationID: orgID,
			Name:           name,
			Level:          datagen.CompetitiveLevelName(level),
		}
		if err := s.teamRepo.Create(team); err != nil {
			return nil, fmt.Errorf("failed to create team %q: %w", name, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to find team %q: %w", name, err)
	}

	team.Athletes = nil
	cache[key] = team
	return team, nil
}

// ImportMeasurements records a measurement session. Each row names its
// athlete by first and last name; unknown athletes are reported per row.
// Valid rows are stored in one transaction.
func (s *ImportService) ImportMeasurements(scope access.Scope, input ImportInput) (*ImportResult, error) {
	if !scope.CanManageMeasurements() {
		return nil, ErrAccessDenied
	}
	orgID, err := organizationFor(scope, input.OrganizationID)
	if err != nil {
		return nil, err
	}

	table, err := readTable(input.Reader, datagen.MeasurementHeaders,
		[]string{"firstName", "lastName", "date", "metric", "value"})
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Total:    len(table.rows),
		DryRun:   input.DryRun,
		Unknown:  table.unknown,
		Errors:   []RowError{},
		Affected: Affected{},
	}
	athletes := make(map[string]*models.Athlete)
	batch := make([]models.Measurement, 0, len(table.rows))
	touched := make(map[uint64]models.Athlete)
	metrics := make(map[stats.Metric]struct{})

	for i, row := range table.rows {
		rowNum := i + 2
		first, last := table.get(row, "firstName"), table.get(row, "lastName")
		if first == "" || last == "" {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: ErrAthleteNameRequired.Error()})
			continue
		}

		athlete, err := s.athleteByName(athletes, orgID, first, last)
		if err != nil {
			if errors.Is(err, ErrAthleteNotFound) {
				result.Errors = append(result.Errors, RowError{Row: rowNum, Message: fmt.Sprintf("athlete %s %s not found", first, last)})
				continue
			}
			return nil, err
		}

		m, err := measurementRow(table, row, athlete)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		m.SubmittedByID = scope.UserID

		batch = append(batch, m)
		touched[athlete.ID] = *athlete
		metrics[m.Metric] = struct{}{}
	}

	result.Created = len(batch)
	if input.DryRun || len(batch) == 0 {
		return result, nil
	}

	if err := s.measurementRepo.CreateBatch(batch); err != nil {
		return nil, fmt.Errorf("failed to store measurements: %w", err)
	}

	for metric := range metrics {
		for _, athlete := range touched {
			result.Affected = result.Affected.add(measurementAffected(athlete, metric)...)
		}
	}

	s.log.Info("measurements imported",
		zap.Uint64("organization_id", orgID),
		zap.Int("total", result.Total),
		zap.Int("created", result.Created),
		zap.Int("errors", len(result.Errors)),
		zap.Uint64("submitted_by", scope.UserID),
	)
	return result, nil
}

func (s *ImportService) athleteByName(cache map[string]*models.Athlete, orgID uint64, first, last string) (*models.Athlete, error) {
	key := strings.ToLower(first + "|" + last)
	if a, ok := cache[key]; ok {
		if a == nil {
			return nil, ErrAthleteNotFound
		}
		return a, nil
	}

	athlete, err := s.athleteRepo.FindByName(orgID, first, last)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cache[key] = nil
			return nil, ErrAthleteNotFound
		}
		return nil, fmt.Errorf("failed to find athlete: %w", err)
	}
	if full, err := s.athleteRepo.FindByID(athlete.ID); err == nil {
		athlete = full
	}
	cache[key] = athlete
	return athlete, nil
}

func measurementRow(table *csvTable, row []string, athlete *models.Athlete) (models.Measurement, error) {
	var m models.Measurement

	metric, err := stats.ParseMetric(table.get(row, "metric"))
	if err != nil {
		return m, fmt.Errorf("metric %q is not recognized", table.get(row, "metric"))
	}
	value, err := stats.ParseValue(table.get(row, "value"))
	if err != nil {
		return m, err
	}
	date, err := optionalDate(table.get(row, "date"), "date")
	if err != nil {
		return m, err
	}
	if date == nil {
		return m, ErrDateRequired
	}
	flyIn, err := optionalFloat(table.get(row, "flyInDistance"), "flyInDistance")
	if err != nil {
		return m, err
	}

	age := athlete.AgeOn(*date)
	if age == nil {
		if age, err = optionalInt(table.get(row, "age"), "age"); err != nil {
			return m, err
		}
	}

	return models.Measurement{
		AthleteID:      athlete.ID,
		OrganizationID: athlete.OrganizationID,
		Metric:         metric,
		Value:          value,
		Units:          unitsOrDefault(table.get(row, "units"), metric),
		Date:           *date,
		Age:            age,
		FlyInDistance:  flyIn,
		Notes:          table.get(row, "notes"),
	}, nil
}

// ExportMeasurements writes the measurements visible in scope as CSV in the
// import layout, newest first.
func (s *ImportService) ExportMeasurements(scope access.Scope, input ListMeasurementsInput, w io.Writer) error {
	filter, empty, err := measurementFilterFor(scope, input)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(datagen.MeasurementHeaders); err != nil {
		return err
	}
	if empty {
		writer.Flush()
		return writer.Error()
	}

	filter.WithAthlete = true
	ms, _, err := s.measurementRepo.List(filter)
	if err != nil {
		return fmt.Errorf("failed to list measurements: %w", err)
	}

	for _, m := range ms {
		flyIn := ""
		if m.FlyInDistance != nil {
			flyIn = strconv.FormatFloat(*m.FlyInDistance, 'f', -1, 64)
		}
		age := ""
		if m.Age != nil {
			age = strconv.Itoa(*m.Age)
		}
		record := []string{
			m.Athlete.FirstName,
			m.Athlete.LastName,
			m.Athlete.Gender,
			firstTeamName(m.Athlete.Teams),
			m.Date.Format(datagen.DateLayout),
			age,
			string(m.Metric),
			strconv.FormatFloat(m.Value, 'f', -1, 64),
			m.Units,
			flyIn,
			m.Notes,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportAthletes writes the roster visible in scope as CSV.
func (s *ImportService) ExportAthletes(scope access.Scope, organizationID *uint64, w io.Writer) error {
	var athletes []models.Athlete
	switch {
	case scope.Kind == access.KindAthleteSelf:
		if scope.AthleteID != 0 {
			if a, err := s.athleteRepo.FindByID(scope.AthleteID); err == nil {
				athletes = []models.Athlete{*a}
			}
		}
	default:
		orgFilter, err := organizationFilterFor(scope, organizationID)
		if err != nil {
			return err
		}
		list, _, err := s.athleteRepo.List(repository.AthleteFilter{OrganizationID: orgFilter})
		if err != nil {
			return fmt.Errorf("failed to list athletes: %w", err)
		}
		athletes = list
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(datagen.RosterHeaders); err != nil {
		return err
	}
	for _, a := range athletes {
		level := ""
		if len(a.Teams) > 0 {
			if l, ok := datagen.ParseCompetitiveLevel(a.Teams[0].Level); ok {
				level = strconv.Itoa(l)
			}
		}
		birthDate := ""
		if a.BirthDate != nil {
			birthDate = a.BirthDate.Format(datagen.DateLayout)
		}
		record := []string{
			a.FirstName,
			a.LastName,
			birthDate,
			intString(a.BirthYear),
			intString(a.GraduationYear),
			a.Gender,
			a.Email,
			a.Phone,
			a.Sports,
			floatString(a.Height),
			floatString(a.Weight),
			a.School,
			firstTeamName(a.Teams),
			level,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func firstTeamName(teams []models.Team) string {
	if len(teams) == 0 {
		return ""
	}
	return teams[0].Name
}

// firstListed takes the first entry of a comma or semicolon separated cell.
func firstListed(raw string) string {
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' }) {
		if p := strings.TrimSpace(part); p != "" {
			return p
		}
	}
	return ""
}

func optionalDate(raw, column string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(datagen.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%s %q must be YYYY-MM-DD", column, raw)
	}
	return &t, nil
}

func optionalInt(raw, column string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s %q is not a whole number", column, raw)
	}
	return &v, nil
}

func optionalFloat(raw, column string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := stats.ParseValue(raw)
	if err != nil {
		return nil, fmt.Errorf("%s %q is not a number", column, raw)
	}
	return &v, nil
}

func intString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatString(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
