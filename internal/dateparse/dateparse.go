// Package dateparse normalizes the publish-date strings the Tunisian listing
// sites emit: absolute dd/mm/yyyy dates, French relative phrases ("Il y a 3
// jours"), and "Month, Year" forms.
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// French month abbreviations as tunisietravail renders them.
var frenchMonths = map[string]time.Month{
	"jan":  time.January,
	"fev":  time.February,
	"fév":  time.February,
	"mar":  time.March,
	"avr":  time.April,
	"mai":  time.May,
	"juin": time.June,
	"juil": time.July,
	"août": time.August,
	"aou":  time.August,
	"sep":  time.September,
	"oct":  time.October,
	"nov":  time.November,
	"dec":  time.December,
	"déc":  time.December,
}

var (
	relativeRe  = regexp.MustCompile(`(?i)il y a\s+(\d+)\s*(jour|heure|minute|semaine|mois)`)
	monthYearRe = regexp.MustCompile(`(?i)^([\p{L}]+)\.?,?\s*(\d{4})$`)
)

// Parse interprets raw as a calendar date relative to now. Unparseable input
// falls back to now's date rather than failing the candidate.
func Parse(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return dateOnly(now)
	}

	if t, err := time.Parse("02/01/2006", raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}

	switch strings.ToLower(raw) {
	case "aujourd'hui", "aujourd’hui":
		return dateOnly(now)
	case "hier":
		return dateOnly(now.AddDate(0, 0, -1))
	}

	if m := relativeRe.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			switch strings.ToLower(m[2]) {
			case "jour":
				return dateOnly(now.AddDate(0, 0, -n))
			case "semaine":
				return dateOnly(now.AddDate(0, 0, -7*n))
			case "mois":
				return dateOnly(now.AddDate(0, -n, 0))
			case "heure":
				return dateOnly(now.Add(-time.Duration(n) * time.Hour))
			case "minute":
				return dateOnly(now.Add(-time.Duration(n) * time.Minute))
			}
		}
	}

	if m := monthYearRe.FindStringSubmatch(raw); m != nil {
		year, err := strconv.Atoi(m[2])
		if err == nil {
			if month, ok := lookupMonth(m[1]); ok {
				return time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
			}
		}
	}

	return dateOnly(now)
}

func lookupMonth(name string) (time.Month, bool) {
	key := strings.ToLower(name)
	if m, ok := frenchMonths[key]; ok {
		return m, true
	}
	// Longer forms ("janvier", "décembre") resolve through their prefix.
	for abbr, m := range frenchMonths {
		if strings.HasPrefix(key, abbr) {
			return m, true
		}
	}
	return 0, false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
