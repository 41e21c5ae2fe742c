package ingest

import (
	"strings"
	"testing"
)

func TestScoreMergedSources(t *testing.T) {
	// WHAT: Each signal contributes its fixed weight; the source component
	// caps at 60 and the total clamps to [0,100].
	loc := istanbulLocale()
	long := strings.Repeat("venue content ", 40) // > 500 chars, no markers

	cases := []struct {
		name     string
		sources  int
		combined string
		want     int
	}{
		{"no sources, no content", 0, "", 0},
		{"one source", 1, "short", 15},
		{"source cap at four", 4, "short", 60},
		{"source cap beyond four", 9, "short", 60},
		{"length bonus", 1, long, 30},
		{"locale bonus", 1, "visit Istanbul today", 25},
		{"country counts as locale", 1, "anywhere in turkey", 25},
		{"rating marker", 1, "rated 4.5/5 by visitors", 25},
		{"currency marker", 1, "entry ₺450", 20},
		{"everything clamps to 100", 9, long + " Istanbul rating 4.5/5 price $20", 100},
	}
	for _, tc := range cases {
		if got := scoreMergedSources(tc.sources, tc.combined, loc); got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestScoreMergedSources_Bounds(t *testing.T) {
	// WHAT: The score never leaves [0,100] for any input.
	loc := istanbulLocale()
	for sources := 0; sources <= 12; sources++ {
		for _, combined := range []string{"", "x", strings.Repeat("Istanbul rated $ ", 100)} {
			got := scoreMergedSources(sources, combined, loc)
			if got < 0 || got > 100 {
				t.Fatalf("sources=%d combined=%q: score %d out of range", sources, combined, got)
			}
		}
	}
}
