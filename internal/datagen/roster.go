package datagen

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// AgeGroup picks the birth-year window of a generated roster.
type AgeGroup string

const (
	AgeGroupMiddleSchool AgeGroup = "middle_school"
	AgeGroupHighSchool   AgeGroup = "high_school"
	AgeGroupCollege      AgeGroup = "college"
	AgeGroupPro          AgeGroup = "pro"
)

// AgeGroups lists the groups in the order they are drawn from.
func AgeGroups() []AgeGroup {
	return []AgeGroup{AgeGroupMiddleSchool, AgeGroupHighSchool, AgeGroupCollege, AgeGroupPro}
}

var ageRanges = map[AgeGroup][2]int{
	AgeGroupMiddleSchool: {11, 14},
	AgeGroupHighSchool:   {14, 18},
	AgeGroupCollege:      {18, 22},
	AgeGroupPro:          {22, 35},
}

// ParseAgeGroup validates a group name.
func ParseAgeGroup(raw string) (AgeGroup, error) {
	g := AgeGroup(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := ageRanges[g]; !ok {
		return "", fmt.Errorf("unknown age group %q", raw)
	}
	return g, nil
}

// BirthYears returns the inclusive birth-year window for athletes of the
// group in currentYear.
func (g AgeGroup) BirthYears(currentYear int) (int, int) {
	r := ageRanges[g]
	return currentYear - r[1], currentYear - r[0]
}

// levelWeights is the chance of levels 1 through 5 per age group. Pro
// rosters are always elite.
var levelWeights = map[AgeGroup][5]float64{
	AgeGroupMiddleSchool: {0.05, 0.05, 0.30, 0.35, 0.25},
	AgeGroupHighSchool:   {0.20, 0.20, 0.20, 0.25, 0.15},
	AgeGroupCollege:      {0.30, 0.30, 0.30, 0.07, 0.03},
	AgeGroupPro:          {1, 0, 0, 0, 0},
}

// DefaultCompetitiveLevel is used when neither a level nor an age group is given.
const DefaultCompetitiveLevel = 3

var (
	firstNamesMale = []string{"Ethan", "Liam", "Noah", "Mason", "Jacob", "Aiden", "James", "Elijah", "Benjamin", "Lucas",
		"Alexander", "Daniel", "Matthew", "Henry", "Sebastian", "Jack", "Owen", "Samuel", "David", "Joseph"}
	firstNamesFemale = []string{"Mia", "Ava", "Sophia", "Isabella", "Charlotte", "Amelia", "Evelyn", "Abigail", "Emily", "Elizabeth",
		"Sofia", "Avery", "Ella", "Scarlett", "Grace", "Chloe", "Victoria", "Riley", "Nora", "Lily"}
	lastNames = []string{"Martinez", "Johnson", "Garcia", "Hernandez", "Lopez", "Rodriguez", "Perez", "Sanchez", "Ramirez", "Torres",
		"Flores", "Rivera", "Gonzalez", "Morales", "Diaz", "Castillo", "Gomez", "Santos", "Reyes", "Nguyen", "Patel", "Kim"}
	schools      = []string{"Westlake HS", "Lake Travis HS", "Anderson HS", "Bowie HS", "McCallum HS", "Austin HS", "Reagan HS", "Cedar Park HS"}
	emailDomains = []string{"email.com", "school.edu", "mail.com", "inbox.com"}

	teamPrefixes = map[int][]string{
		1: {"Elite", "Premier", "Select", "Apex", "United"},
		2: {"Competitive", "Advanced", "Club", "Academy", "Select"},
		3: {"Academy", "Club", "Team", "United", "FC"},
		4: {"Rec", "Community", "Local", "League", "Squad"},
		5: {"Beginner", "Development", "Youth", "Intro", "Starter"},
	}
	teamSuffixes = map[int][]string{
		1: {"Thunder", "Storm", "Lightning", "Blaze", "Force"},
		2: {"Lightning", "Blaze", "Phoenix", "Strikers", "Hawks"},
		3: {"Phoenix", "United", "FC", "Stars", "Wanderers"},
		4: {"Stars", "Strikers", "Rovers", "Kickers", "United"},
		5: {"Dragons", "Squad", "Team", "Club", "United"},
	}
)

// RosterOptions configures GenerateRoster. Zero values pick defaults: a
// random gender and age group, Soccer, and an auto-named team.
type RosterOptions struct {
	Count            int
	Gender           string
	Sport            string
	AgeGroup         AgeGroup
	BirthYearMin     int
	BirthYearMax     int
	TeamName         string
	CompetitiveLevel int
	Seed             uint64
	// CurrentYear anchors age groups; defaults to 2024.
	CurrentYear int
}

// RosterRow is one generated athlete.
type RosterRow struct {
	FirstName        string
	LastName         string
	BirthDate        time.Time
	BirthYear        int
	GraduationYear   int
	Gender           string
	Email            string
	Phone            string
	Sport            string
	Height           int
	Weight           int
	School           string
	TeamName         string
	CompetitiveLevel int
}

// Record renders the row in RosterHeaders order.
func (r RosterRow) Record() []string {
	birthDate := ""
	if !r.BirthDate.IsZero() {
		birthDate = r.BirthDate.Format(DateLayout)
	}
	return []string{
		r.FirstName,
		r.LastName,
		birthDate,
		itoaOrEmpty(r.BirthYear),
		itoaOrEmpty(r.GraduationYear),
		r.Gender,
		r.Email,
		r.Phone,
		r.Sport,
		itoaOrEmpty(r.Height),
		itoaOrEmpty(r.Weight),
		r.School,
		r.TeamName,
		itoaOrEmpty(r.CompetitiveLevel),
	}
}

// Roster is a generated team and the settings it was drawn with.
type Roster struct {
	TeamName         string
	Gender           string
	Sport            string
	AgeGroup         AgeGroup
	BirthYearMin     int
	BirthYearMax     int
	CompetitiveLevel int
	Rows             []RosterRow
}

var ErrInvalidCount = errors.New("count must be positive")

// GenerateRoster draws a single-team roster. The same options always yield
// the same roster.
func GenerateRoster(opts RosterOptions) (*Roster, error) {
	if opts.Count <= 0 {
		return nil, ErrInvalidCount
	}
	if opts.CompetitiveLevel != 0 && CompetitiveLevelName(opts.CompetitiveLevel) == "" {
		return nil, fmt.Errorf("competitive level must be 1-5, got %d", opts.CompetitiveLevel)
	}
	switch opts.Gender {
	case "", "Male", "Female", "Not Specified":
	default:
		return nil, fmt.Errorf("gender must be Male, Female or Not Specified, got %q", opts.Gender)
	}

	rng := newRand(opts.Seed)
	currentYear := opts.CurrentYear
	if currentYear == 0 {
		currentYear = 2024
	}

	out := &Roster{Gender: opts.Gender, Sport: opts.Sport}
	if out.Gender == "" {
		out.Gender = pick(rng, []string{"Male", "Female"})
	}
	if out.Sport == "" {
		out.Sport = "Soccer"
	}

	switch {
	case opts.BirthYearMin != 0 && opts.BirthYearMax != 0:
		out.BirthYearMin, out.BirthYearMax = opts.BirthYearMin, opts.BirthYearMax
	case opts.AgeGroup != "":
		if _, ok := ageRanges[opts.AgeGroup]; !ok {
			return nil, fmt.Errorf("unknown age group %q", opts.AgeGroup)
		}
		out.AgeGroup = opts.AgeGroup
	default:
		out.AgeGroup = pick(rng, AgeGroups())
	}
	if out.AgeGroup != "" {
		out.BirthYearMin, out.BirthYearMax = out.AgeGroup.BirthYears(currentYear)
	}
	if out.BirthYearMin > out.BirthYearMax {
		out.BirthYearMin, out.BirthYearMax = out.BirthYearMax, out.BirthYearMin
	}

	switch {
	case opts.CompetitiveLevel != 0:
		out.CompetitiveLevel = opts.CompetitiveLevel
	case out.AgeGroup != "":
		out.CompetitiveLevel = drawLevel(rng, out.AgeGroup)
	default:
		out.CompetitiveLevel = DefaultCompetitiveLevel
	}

	out.TeamName = opts.TeamName
	if out.TeamName == "" {
		cohort := between(rng, out.BirthYearMin, out.BirthYearMax)
		out.TeamName = fmt.Sprintf("%s %s %d%s",
			pick(rng, teamPrefixes[out.CompetitiveLevel]),
			pick(rng, teamSuffixes[out.CompetitiveLevel]),
			cohort, genderLetter(out.Gender))
	}

	used := make(map[string]struct{}, opts.Count)
	out.Rows = make([]RosterRow, 0, opts.Count)
	for range opts.Count {
		var first, last string
		// a few collisions are fine once the name pool runs dry
		for range 100 {
			first, last = firstName(rng, out.Gender), pick(rng, lastNames)
			if _, dup := used[first+" "+last]; !dup {
				break
			}
		}
		used[first+" "+last] = struct{}{}

		birthYear := between(rng, out.BirthYearMin, out.BirthYearMax)
		height := heightInches(rng, out.Gender)
		out.Rows = append(out.Rows, RosterRow{
			FirstName:        first,
			LastName:         last,
			BirthDate:        dayInYear(rng, birthYear),
			BirthYear:        birthYear,
			GraduationYear:   birthYear + 18,
			Gender:           out.Gender,
			Email:            fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), between(rng, 10, 99), pick(rng, emailDomains)),
			Phone:            fmt.Sprintf("512-555-%d", between(rng, 1000, 9999)),
			Sport:            out.Sport,
			Height:           height,
			Weight:           weightPounds(rng, height, out.Gender),
			School:           pick(rng, schools),
			TeamName:         out.TeamName,
			CompetitiveLevel: out.CompetitiveLevel,
		})
	}

	return out, nil
}

// WriteRoster writes rows as a roster CSV with a header line.
func WriteRoster(w io.Writer, rows []RosterRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RosterHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRoster parses a roster CSV. Only the name columns are required;
// unparseable optional values are left empty.
func ReadRoster(r io.Reader) ([]RosterRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("roster is empty")
	}

	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range []string{"firstName", "lastName"} {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("roster is missing column %s", col)
		}
	}
	get := func(rec []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	rows := make([]RosterRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := RosterRow{
			FirstName: get(rec, "firstName"),
			LastName:  get(rec, "lastName"),
			Gender:    get(rec, "gender"),
			Sport:     get(rec, "sports"),
			School:    get(rec, "school"),
			TeamName:  get(rec, "teamName"),
		}
		if row.FirstName == "" && row.LastName == "" {
			continue
		}
		if d, err := time.Parse(DateLayout, get(rec, "birthDate")); err == nil {
			row.BirthDate = d
		}
		row.BirthYear, _ = strconv.Atoi(get(rec, "birthYear"))
		row.CompetitiveLevel, _ = ParseCompetitiveLevel(get(rec, "competitiveLevel"))
		rows = append(rows, row)
	}
	return rows, nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func pick[T any](rng *rand.Rand, from []T) T {
	return from[rng.IntN(len(from))]
}

// between draws uniformly from [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

func drawLevel(rng *rand.Rand, g AgeGroup) int {
	weights := levelWeights[g]
	x := rng.Float64()
	for i, w := range weights {
		if x < w {
			return i + 1
		}
		x -= w
	}
	return len(weights)
}

func firstName(rng *rand.Rand, gender string) string {
	switch gender {
	case "Female":
		return pick(rng, firstNamesFemale)
	case "Male":
		return pick(rng, firstNamesMale)
	}
	if rng.IntN(2) == 0 {
		return pick(rng, firstNamesMale)
	}
	return pick(rng, firstNamesFemale)
}

func genderLetter(gender string) string {
	switch gender {
	case "Male":
		return "B"
	case "Female":
		return "G"
	}
	return "X"
}

func dayInYear(rng *rand.Rand, year int) time.Time {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).Sub(start).Hours() / 24
	return start.AddDate(0, 0, rng.IntN(int(days)))
}

func heightInches(rng *rand.Rand, gender string) int {
	switch gender {
	case "Female":
		return between(rng, 60, 70)
	case "Male":
		return between(rng, 64, 74)
	}
	return between(rng, 62, 72)
}

// weightPounds draws a BMI around 21 (22 for men) and clamps to 110-190 lb.
func weightPounds(rng *rand.Rand, heightIn int, gender string) int {
	mean := 21.0
	if gender == "Male" {
		mean = 22
	}
	bmi := rng.NormFloat64()*2 + mean
	meters := float64(heightIn) * 0.0254
	lb := bmi * meters * meters / 0.453592
	return int(math.Round(clamp(lb, 110, 190)))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func itoaOrEmpty(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
