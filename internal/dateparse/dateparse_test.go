package dateparse

import (
	"testing"
	"time"
)

var now = time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"absolute dd/mm/yyyy", "03/02/2025", day(2025, time.February, 3)},
		{"iso date", "2025-01-20", day(2025, time.January, 20)},
		{"relative days", "Il y a 3 jours", day(2025, time.March, 12)},
		{"relative hours same day", "il y a 5 heures", day(2025, time.March, 15)},
		{"relative minutes", "Il y a 12 minutes", day(2025, time.March, 15)},
		{"relative weeks", "il y a 2 semaines", day(2025, time.March, 1)},
		{"today", "Aujourd'hui", day(2025, time.March, 15)},
		{"yesterday", "Hier", day(2025, time.March, 14)},
		{"month year abbreviated", "Déc, 2024", day(2024, time.December, 1)},
		{"month year full", "Janvier 2025", day(2025, time.January, 1)},
		{"unparseable falls back to today", "bientôt disponible", day(2025, time.March, 15)},
		{"empty falls back to today", "", day(2025, time.March, 15)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Parse(c.raw, now)
			if !got.Equal(c.want) {
				t.Errorf("Parse(%q) = %v, want %v", c.raw, got, c.want)
			}
		})
	}
}

func TestParseDeterministicForFixedNow(t *testing.T) {
	a := Parse("Il y a 4 jours", now)
	b := Parse("Il y a 4 jours", now)
	if !a.Equal(b) {
		t.Errorf("expected identical output for identical input: %v vs %v", a, b)
	}
}
