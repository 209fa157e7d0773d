// Package datagen generates synthetic rosters and measurement sessions in
// the same CSV layout the import endpoints accept.
package datagen

import "strings"

// DateLayout is the date format used in every CSV column holding a day.
const DateLayout = "2006-01-02"

// Roster CSV columns, in file order.
var RosterHeaders = []string{
	"firstName", "lastName", "birthDate", "birthYear", "graduationYear", "gender",
	"emails", "phoneNumbers", "sports", "height", "weight", "school", "teamName", "competitiveLevel",
}

// Measurement CSV columns, in file order.
var MeasurementHeaders = []string{
	"firstName", "lastName", "gender", "teamName", "date", "age",
	"metric", "value", "units", "flyInDistance", "notes",
}

var levelNames = map[int]string{
	1: "Elite",
	2: "Advanced",
	3: "Intermediate",
	4: "Recreational",
	5: "Beginner",
}

// CompetitiveLevelName maps 1 (Elite) through 5 (Beginner) to its label.
func CompetitiveLevelName(level int) string {
	return levelNames[level]
}

// ParseCompetitiveLevel accepts either the number or the label.
func ParseCompetitiveLevel(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	for level, name := range levelNames {
		if strings.EqualFold(raw, name) || raw == string(rune('0'+level)) {
			return level, true
		}
	}
	return 0, false
}
