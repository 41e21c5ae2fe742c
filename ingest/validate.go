package ingest

import (
	"fmt"
	"strings"

	"github.com/venuery/venuery/ingest/internal/places"
)

// validateRecord accepts or rejects a candidate record for a search term.
// All four checks must pass:
//
//  1. the first token of the term appears in the title, or the first token
//     of the title appears in the term (case-insensitive);
//  2. location or address mentions the target locale (city or country);
//  3. title is longer than 3 characters and description longer than 20;
//  4. the title contains no wrong-locale denylist keyword.
//
// A rejection wraps ErrValidation with the failing check's reason.
func validateRecord(term string, rec *places.Record, loc LocaleConfig) error {
	title := strings.ToLower(strings.TrimSpace(rec.Title))
	lowTerm := strings.ToLower(strings.TrimSpace(term))

	if len(rec.Title) <= 3 || len(rec.Description) <= 20 {
		return fmt.Errorf("%w: incomplete record (title %d chars, description %d chars)",
			ErrValidation, len(rec.Title), len(rec.Description))
	}

	if !tokenRelates(lowTerm, title) {
		return fmt.Errorf("%w: title %q does not relate to term %q",
			ErrValidation, rec.Title, term)
	}

	if !mentionsLocale(rec, loc) {
		return fmt.Errorf("%w: record does not reference %s/%s",
			ErrValidation, loc.City, loc.Country)
	}

	for _, bad := range loc.Denylist {
		if strings.Contains(title, strings.ToLower(bad)) {
			return fmt.Errorf("%w: title contains wrong-locale keyword %q",
				ErrValidation, bad)
		}
	}
	return nil
}

// tokenRelates checks the first-token cross-substring heuristic between a
// lowercased term and title.
func tokenRelates(term, title string) bool {
	termTok := firstToken(term)
	titleTok := firstToken(title)
	if termTok == "" || titleTok == "" {
		return false
	}
	return strings.Contains(title, termTok) || strings.Contains(term, titleTok)
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func mentionsLocale(rec *places.Record, loc LocaleConfig) bool {
	haystack := strings.ToLower(rec.Location + " " + rec.Address)
	if loc.City != "" && strings.Contains(haystack, strings.ToLower(loc.City)) {
		return true
	}
	if loc.Country != "" && strings.Contains(haystack, strings.ToLower(loc.Country)) {
		return true
	}
	return false
}
