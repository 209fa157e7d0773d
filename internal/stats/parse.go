package stats

import (
	"math"
	"strconv"
	"strings"
)

// ParseError is returned when a raw measurement value is not a finite number.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return "invalid measurement value " + strconv.Quote(e.Raw) + ": " + e.Reason
}

// ParseValue validates a raw value before it can enter ranking.
func ParseValue(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, &ParseError{Raw: raw, Reason: "value is empty"}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ParseError{Raw: raw, Reason: "not a number"}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Raw: raw, Reason: "value must be finite"}
	}

	return v, nil
}

// CheckFinite rejects NaN and infinities for values that arrived already typed.
func CheckFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ParseError{Raw: strconv.FormatFloat(v, 'g', -1, 64), Reason: "value must be finite"}
	}
	return nil
}
