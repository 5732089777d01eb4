package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Literal date-like substrings recognized in report text. Qualifier phrases
// ("on or about March 7, 2024") are captured whole so the raw match stays a
// verbatim substring of the source.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:on or about|on or around|approximately)\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}`),
	regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{4}\b`),
}

var months = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

var (
	monthNameRe = regexp.MustCompile(`(?i)(January|February|March|April|May|June|July|August|September|October|November|December)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})`)
	isoRe       = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	numericRe   = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
)

// hit is one raw match with its position in the scanned text.
type hit struct {
	pos int
	raw string
}

// ExtractDates scans text for literal date-like substrings and returns the
// raw matches, deduplicated, in order of first appearance.
func ExtractDates(text string) []string {
	seen := make(map[string]struct{})
	var hits []hit
	for _, re := range patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			raw := text[loc[0]:loc[1]]
			if _, ok := seen[raw]; ok {
				continue
			}
			if covered(hits, loc[0], raw) {
				continue
			}
			seen[raw] = struct{}{}
			hits = append(hits, hit{pos: loc[0], raw: raw})
		}
	}
	sortHits := func() {
		for i := 1; i < len(hits); i++ {
			for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
				hits[j], hits[j-1] = hits[j-1], hits[j]
			}
		}
	}
	sortHits()
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.raw)
	}
	return out
}

// covered drops a match fully contained in an earlier, longer match (the
// qualifier pattern subsumes the bare month-name pattern).
func covered(hits []hit, pos int, raw string) bool {
	for _, h := range hits {
		if pos >= h.pos && pos+len(raw) <= h.pos+len(h.raw) {
			return true
		}
	}
	return false
}

// ParseDate normalizes a raw date match to ISO-8601 (YYYY-MM-DD). Ambiguous
// or unparseable input yields ok=false, never an error: a missing date means
// "event timing unknown", not failure. Numeric forms are read month-first.
func ParseDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if m := isoRe.FindStringSubmatch(s); m != nil {
		return buildISO(m[1], m[2], m[3])
	}
	if m := monthNameRe.FindStringSubmatch(s); m != nil {
		month, ok := months[strings.ToLower(m[1])]
		if !ok {
			return "", false
		}
		return buildISO(m[3], strconv.Itoa(month), m[2])
	}
	if m := numericRe.FindStringSubmatch(s); m != nil {
		return buildISO(m[3], m[1], m[2])
	}
	return "", false
}

func buildISO(yearStr, monthStr, dayStr string) (string, bool) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1000 || year > 9999 {
		return "", false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return "", false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > daysIn(month, year) {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func daysIn(month, year int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	default:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	}
}
