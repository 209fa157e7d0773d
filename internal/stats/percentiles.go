package stats

import (
	"math"
	"sort"
)

// Percentiles holds the quartile cut points shown on leaderboards.
// Count is zero when there was no data; the cut points are then zero and
// must not be read as real values.
type Percentiles struct {
	P25   float64
	P50   float64
	P75   float64
	P90   float64
	Count int
}

// HasData reports whether the cut points were computed from at least one value.
func (p Percentiles) HasData() bool {
	return p.Count > 0
}

// CalculatePercentiles returns p25/p50/p75/p90 using the nearest-rank index
// ceil(p/100*n)-1 over the ascending values.
func CalculatePercentiles(values []float64) Percentiles {
	n := len(values)
	if n == 0 {
		return Percentiles{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return Percentiles{
		P25:   sorted[percentileIndex(25, n)],
		P50:   sorted[percentileIndex(50, n)],
		P75:   sorted[percentileIndex(75, n)],
		P90:   sorted[percentileIndex(90, n)],
		Count: n,
	}
}

func percentileIndex(p float64, n int) int {
	idx := int(math.Ceil(p/100*float64(n))) - 1
	return max(0, min(idx, n-1))
}

// PercentileRank returns the share (0-100) of values that v is at least as
// good as under m's direction. Zero when values is empty.
func PercentileRank(values []float64, v float64, m Metric) float64 {
	if len(values) == 0 {
		return 0
	}
	var atOrBelow int
	for _, other := range values {
		if !m.Better(other, v) {
			atOrBelow++
		}
	}
	return float64(atOrBelow) / float64(len(values)) * 100
}

// Summary is the card data shown on dashboards.
type Summary struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
}

// Summarize computes count, min, max, and mean. Zero Summary for no values.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(values), Min: values[0], Max: values[0]}
	var total float64
	for _, v := range values {
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
		total += v
	}
	s.Mean = total / float64(len(values))
	return s
}
