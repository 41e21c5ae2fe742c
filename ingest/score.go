package ingest

import (
	"regexp"
	"strings"
)

// Content markers used by the merged-source scorer.
var (
	ratingMarkerRe   = regexp.MustCompile(`(?i)\b(?:rating|rated|stars?|reviews?)\b|\b\d(?:\.\d)?\s*/\s*5\b`)
	currencyMarkerRe = regexp.MustCompile(`[$€£₺]|\b(?:TL|lira|USD|EUR|price)\b`)
)

// scoreMergedSources scores content fused from multiple raw sources instead
// of a single structured lookup:
//
//	min(100, min(15×sources, 60)
//	          + 15 if combined length > 500
//	          + 10 if a locale keyword is present
//	          + 10 if a rating/review marker is present
//	          + 5  if a currency/price marker is present)
//
// The result is always within [0, 100].
func scoreMergedSources(sourceCount int, combined string, loc LocaleConfig) int {
	score := sourceCount * 15
	if score > 60 {
		score = 60
	}
	if len(combined) > 500 {
		score += 15
	}
	low := strings.ToLower(combined)
	if (loc.City != "" && strings.Contains(low, strings.ToLower(loc.City))) ||
		(loc.Country != "" && strings.Contains(low, strings.ToLower(loc.Country))) {
		score += 10
	}
	if ratingMarkerRe.MatchString(combined) {
		score += 10
	}
	if currencyMarkerRe.MatchString(combined) {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
