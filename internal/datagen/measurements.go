package datagen

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/stats"
)

// metricModel describes how a metric is drawn. Center and SD are for a
// college-aged male; min and max cover every age and gender.
type metricModel struct {
	center         float64
	sd             float64
	driftPerDay    float64
	progressPerDay float64
	min            float64
	max            float64
	flyInDistance  string
}

var metricModels = map[stats.Metric]metricModel{
	stats.MetricFly10Time:    {center: 1.22, sd: 0.06, driftPerDay: -0.0004, progressPerDay: -0.0012, min: 1.00, max: 1.70, flyInDistance: "20"},
	stats.MetricVerticalJump: {center: 23.5, sd: 2.0, driftPerDay: 0.006, progressPerDay: 0.12, min: 12.0, max: 32.0},
	stats.MetricAgility505:   {center: 2.55, sd: 0.07, driftPerDay: -0.0005, progressPerDay: -0.0016, min: 2.1, max: 3.5},
	stats.MetricRSI:          {center: 2.4, sd: 0.25, driftPerDay: 0.001, progressPerDay: 0.02, min: 1.0, max: 4.5},
	stats.MetricTTest:        {center: 9.8, sd: 0.4, driftPerDay: -0.0008, progressPerDay: -0.0025, min: 7.5, max: 13.5},
}

// GeneratedMetrics lists the metrics the generator produces, in output order.
func GeneratedMetrics() []stats.Metric {
	return []stats.Metric{
		stats.MetricFly10Time,
		stats.MetricVerticalJump,
		stats.MetricAgility505,
		stats.MetricRSI,
		stats.MetricTTest,
	}
}

// Bounds returns the clamp range of a generated metric.
func Bounds(m stats.Metric) (lo, hi float64, ok bool) {
	model, ok := metricModels[m]
	return model.min, model.max, ok
}

// Bracket groups ages that share performance multipliers.
type Bracket string

const (
	BracketMiddleSchool Bracket = "middle_school"
	BracketYoungHS      Bracket = "young_hs"
	BracketOlderHS      Bracket = "older_hs"
	BracketCollegePlus  Bracket = "college_plus"
)

const (
	ageMiddleSchoolMax = 14
	ageYoungHSMax      = 16
	ageOlderHSMax      = 18
	ageMaxValid        = 100
)

var bracketMultipliers = map[Bracket]map[stats.Metric]float64{
	BracketMiddleSchool: {
		stats.MetricFly10Time: 1.15, stats.MetricVerticalJump: 0.65, stats.MetricAgility505: 1.12, stats.MetricRSI: 0.60, stats.MetricTTest: 1.14,
	},
	BracketYoungHS: {
		stats.MetricFly10Time: 1.10, stats.MetricVerticalJump: 0.75, stats.MetricAgility505: 1.07, stats.MetricRSI: 0.72, stats.MetricTTest: 1.08,
	},
	BracketOlderHS: {
		stats.MetricFly10Time: 1.06, stats.MetricVerticalJump: 0.85, stats.MetricAgility505: 1.04, stats.MetricRSI: 0.82, stats.MetricTTest: 1.05,
	},
	BracketCollegePlus: {},
}

// femaleMultipliers scale the male baseline; other genders use 1.
var femaleMultipliers = map[stats.Metric]float64{
	stats.MetricFly10Time:    1.08,
	stats.MetricVerticalJump: 0.75,
	stats.MetricAgility505:   1.05,
	stats.MetricRSI:          0.85,
	stats.MetricTTest:        1.08,
}

// AgeBracket maps an age to its bracket. Unknown or implausible ages
// (nil, negative, over 100) use the adult baseline.
func AgeBracket(age *int) Bracket {
	if age == nil || *age < 0 || *age > ageMaxValid {
		return BracketCollegePlus
	}
	switch a := *age; {
	case a < ageMiddleSchoolMax:
		return BracketMiddleSchool
	case a < ageYoungHSMax:
		return BracketYoungHS
	case a < ageOlderHSMax:
		return BracketOlderHS
	}
	return BracketCollegePlus
}

// AdjustmentFactor is the multiplier applied to a metric's baseline center
// for an athlete of the given age and gender.
func AdjustmentFactor(m stats.Metric, age *int, gender string) float64 {
	factor := 1.0
	if mult, ok := bracketMultipliers[AgeBracket(age)][m]; ok {
		factor *= mult
	}
	if gender == "Female" {
		if mult, ok := femaleMultipliers[m]; ok {
			factor *= mult
		}
	}
	return factor
}

// MeasurementOptions configures GenerateMeasurements. Without Dates,
// RandomDates distinct days are drawn from [RandomStart, RandomEnd].
type MeasurementOptions struct {
	Trials      int
	Dates       []time.Time
	RandomDates int
	RandomStart time.Time
	RandomEnd   time.Time
	Seed        uint64
}

// MeasurementRow is one generated trial in MeasurementHeaders layout.
type MeasurementRow struct {
	FirstName     string
	LastName      string
	Gender        string
	TeamName      string
	Date          time.Time
	Age           *int
	Metric        stats.Metric
	Value         float64
	Units         string
	FlyInDistance string
	Notes         string
}

// Record renders the row in MeasurementHeaders order.
func (r MeasurementRow) Record() []string {
	age := ""
	if r.Age != nil {
		age = strconv.Itoa(*r.Age)
	}
	return []string{
		r.FirstName,
		r.LastName,
		r.Gender,
		r.TeamName,
		r.Date.Format(DateLayout),
		age,
		string(r.Metric),
		strconv.FormatFloat(r.Value, 'f', -1, 64),
		r.Units,
		r.FlyInDistance,
		r.Notes,
	}
}

var (
	ErrEmptyRoster     = errors.New("no roster rows found")
	ErrInvalidTrials   = errors.New("trials must be positive")
	ErrInvalidDateSpan = errors.New("random date window is empty or too small")
)

// GenerateMeasurements produces trials for every roster row, metric and
// test date. Each athlete keeps a stable offset per metric, and each later
// date improves on the previous one by at least the metric's daily progress.
// It returns the rows and the sorted dates used.
func GenerateMeasurements(roster []RosterRow, opts MeasurementOptions) ([]MeasurementRow, []time.Time, error) {
	if len(roster) == 0 {
		return nil, nil, ErrEmptyRoster
	}
	if opts.Trials <= 0 {
		return nil, nil, ErrInvalidTrials
	}

	rng := newRand(opts.Seed)

	dates := slices.Clone(opts.Dates)
	if len(dates) == 0 {
		var err error
		if dates, err = randomDates(rng, opts.RandomDates, opts.RandomStart, opts.RandomEnd); err != nil {
			return nil, nil, err
		}
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	metrics := GeneratedMetrics()
	offsets := make([]map[stats.Metric]float64, len(roster))
	for i := range roster {
		offsets[i] = make(map[stats.Metric]float64, len(metrics))
		for _, m := range metrics {
			offsets[i][m] = rng.NormFloat64() * metricModels[m].sd * 0.5
		}
	}

	rows := make([]MeasurementRow, 0, len(roster)*len(dates)*len(metrics)*opts.Trials)
	for i, a := range roster {
		athlete := models.Athlete{}
		if !a.BirthDate.IsZero() {
			birth := a.BirthDate
			athlete.BirthDate = &birth
		}

		type progress struct {
			anchor float64
			date   time.Time
			set    bool
		}
		state := make(map[stats.Metric]progress, len(metrics))

		for _, d := range dates {
			age := athlete.AgeOn(d)
			sinceStart := daysBetween(dates[0], d)

			for _, m := range metrics {
				model := metricModels[m]
				prev := state[m]
				sincePrev := sinceStart
				if prev.set {
					sincePrev = daysBetween(prev.date, d)
				}
				requiredDelta := model.progressPerDay * float64(max(1, sincePrev))

				center := model.center * AdjustmentFactor(m, age, a.Gender)
				anchor := rng.NormFloat64()*model.sd*0.2 + center + offsets[i][m] + model.driftPerDay*float64(sinceStart)
				if prev.set {
					anchor = progressAnchor(m, anchor, prev.anchor, requiredDelta)
				}
				anchor = clamp(anchor, model.min, model.max)
				state[m] = progress{anchor: anchor, date: d, set: true}

				for range opts.Trials {
					v := rng.NormFloat64()*model.sd*0.4 + anchor
					if prev.set {
						v = limitTrial(m, v, prev.anchor, requiredDelta)
					}
					row := MeasurementRow{
						FirstName: a.FirstName,
						LastName:  a.LastName,
						Gender:    a.Gender,
						TeamName:  a.TeamName,
						Date:      d,
						Age:       age,
						Metric:    m,
						Value:     round3(clamp(v, model.min, model.max)),
						Units:     m.Units(),
						Notes:     "Auto-generated",
					}
					if m == stats.MetricFly10Time {
						row.FlyInDistance = model.flyInDistance
					}
					rows = append(rows, row)
				}
			}
		}
	}

	return rows, dates, nil
}

// progressAnchor pulls an anchor that fails to beat the previous one by
// requiredDelta back past that mark. requiredDelta carries the metric's sign.
func progressAnchor(m stats.Metric, anchor, previous, requiredDelta float64) float64 {
	target := previous + requiredDelta
	if m.IsTimeBased() {
		if anchor > target {
			return target - math.Abs(requiredDelta)*0.3
		}
		return anchor
	}
	if anchor < target {
		return target + math.Abs(requiredDelta)*0.3
	}
	return anchor
}

// limitTrial caps a trial at half the required improvement over the
// previous anchor.
func limitTrial(m stats.Metric, v, previous, requiredDelta float64) float64 {
	worst := previous + requiredDelta*0.5
	if m.IsTimeBased() {
		return math.Min(v, worst)
	}
	return math.Max(v, worst)
}

// WriteMeasurements writes rows as a measurement CSV with a header line.
func WriteMeasurements(w io.Writer, rows []MeasurementRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MeasurementHeaders); err != nil {
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

func randomDates(rng *rand.Rand, n int, start, end time.Time) ([]time.Time, error) {
	if n <= 0 {
		n = 1
	}
	span := daysBetween(start, end)
	if start.IsZero() || end.IsZero() || span < 0 || span+1 < n {
		return nil, ErrInvalidDateSpan
	}

	seen := make(map[int]struct{}, n)
	out := make([]time.Time, 0, n)
	for len(out) < n {
		offset := rng.IntN(span + 1)
		if _, dup := seen[offset]; dup {
			continue
		}
		seen[offset] = struct{}{}
		out = append(out, start.AddDate(0, 0, offset))
	}
	return out, nil
}

func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
