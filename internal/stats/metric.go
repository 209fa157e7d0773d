// Package stats derives percentiles, bests, and leaderboard ordering from
// performance measurements. Every function here is pure.
package stats

import (
	"fmt"
	"strings"
)

// Metric identifies a performance test.
type Metric string

const (
	MetricFly10Time    Metric = "FLY10_TIME"
	MetricVerticalJump Metric = "VERTICAL_JUMP"
	MetricAgility505   Metric = "AGILITY_505"
	MetricAgility5105  Metric = "AGILITY_5105"
	MetricTTest        Metric = "T_TEST"
	MetricDash40Yd     Metric = "DASH_40YD"
	MetricRSI          Metric = "RSI"
)

// Direction tells whether a lower or higher value is the better performance.
type Direction int

const (
	LowerIsBetter Direction = iota + 1
	HigherIsBetter
)

type metricInfo struct {
	label     string
	units     string
	direction Direction
}

// catalog is closed: a new metric must be added here with its direction.
var catalog = map[Metric]metricInfo{
	MetricFly10Time:    {label: "10m Fly Time", units: "s", direction: LowerIsBetter},
	MetricVerticalJump: {label: "Vertical Jump", units: "in", direction: HigherIsBetter},
	MetricAgility505:   {label: "5-0-5 Agility", units: "s", direction: LowerIsBetter},
	MetricAgility5105:  {label: "5-10-5 Agility", units: "s", direction: LowerIsBetter},
	MetricTTest:        {label: "T-Test", units: "s", direction: LowerIsBetter},
	MetricDash40Yd:     {label: "40 Yard Dash", units: "s", direction: LowerIsBetter},
	MetricRSI:          {label: "Reactive Strength Index", units: "", direction: HigherIsBetter},
}

// Metrics lists every known metric in display order.
func Metrics() []Metric {
	return []Metric{
		MetricFly10Time,
		MetricVerticalJump,
		MetricAgility505,
		MetricAgility5105,
		MetricTTest,
		MetricDash40Yd,
		MetricRSI,
	}
}

// ParseMetric converts a raw metric name, ignoring case and surrounding space.
func ParseMetric(raw string) (Metric, error) {
	m := Metric(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := catalog[m]; !ok {
		return "", fmt.Errorf("unknown metric %q", raw)
	}
	return m, nil
}

// Valid reports whether m is part of the catalog.
func (m Metric) Valid() bool {
	_, ok := catalog[m]
	return ok
}

// Direction returns the better-direction of m. ok is false for unknown metrics.
func (m Metric) Direction() (Direction, bool) {
	info, ok := catalog[m]
	return info.direction, ok
}

// IsTimeBased reports whether lower values win for m.
func (m Metric) IsTimeBased() bool {
	return catalog[m].direction == LowerIsBetter
}

// Units returns the canonical unit string for m ("s", "in", or empty).
func (m Metric) Units() string {
	return catalog[m].units
}

// Label returns a human readable name for m.
func (m Metric) Label() string {
	if info, ok := catalog[m]; ok {
		return info.label
	}
	return string(m)
}

// Better reports whether a is a strictly better value than b for m.
func (m Metric) Better(a, b float64) bool {
	if m.IsTimeBased() {
		return a < b
	}
	return a > b
}
