package collect

import (
	"regexp"
	"strings"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

var usStateNames = []string{
	"alabama", "alaska", "arizona", "arkansas", "california", "colorado",
	"connecticut", "delaware", "florida", "georgia", "hawaii", "idaho",
	"illinois", "indiana", "iowa", "kansas", "kentucky", "louisiana",
	"maine", "maryland", "massachusetts", "michigan", "minnesota",
	"mississippi", "missouri", "montana", "nebraska", "nevada",
	"new hampshire", "new jersey", "new mexico", "new york",
	"north carolina", "north dakota", "ohio", "oklahoma", "oregon",
	"pennsylvania", "rhode island", "south carolina", "south dakota",
	"tennessee", "texas", "utah", "vermont", "virginia", "washington",
	"west virginia", "wisconsin", "wyoming", "district of columbia",
}

var (
	usaRe         = regexp.MustCompile(`\busa\b|\bu\.s\.a\.?\b|\bu\.s\.?\b|\bus\b`)
	stateAbbrevRe = regexp.MustCompile(`(?i)\b(AL|AK|AZ|AR|CA|CO|CT|DE|FL|GA|HI|ID|IL|IN|IA|KS|KY|LA|ME|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|OH|OK|OR|PA|RI|SC|SD|TN|TX|UT|VT|VA|WA|WV|WI|WY|DC)\b`)
)

// IsUSLocation reports whether a free-form location string points at the
// United States. Matches country names/abbreviations, state names and
// two-letter state codes.
func IsUSLocation(location string) bool {
	normalized := strings.ToLower(strings.TrimSpace(location))
	if normalized == "" {
		return false
	}
	if strings.Contains(normalized, "united states") {
		return true
	}
	if usaRe.MatchString(normalized) {
		return true
	}
	for _, state := range usStateNames {
		if strings.Contains(normalized, state) {
			return true
		}
	}
	return stateAbbrevRe.MatchString(location)
}
