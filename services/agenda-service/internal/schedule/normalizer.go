package schedule

import (
	"fmt"
	"strings"
	"time"
)

// preferredDateTime arrives in whatever shape the producing entry point used
// at the time the record was written. These are the shapes observed in
// production data, most specific first. Layouts without an offset are
// interpreted in the configured location.
var parseLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parsePreferred attempts the known layouts in order. ok is false when none
// of them fit; callers then fall back to substring matching.
func parsePreferred(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range parseLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// Canonical rewrites parseable preferredDateTime text as RFC 3339 so new
// writes converge on one shape. Unparseable text is returned untouched with
// ok=false: the substring tier still understands it, and rewriting it would
// destroy whatever date the fallback could have found.
func Canonical(raw string, loc *time.Location) (string, bool) {
	t, ok := parsePreferred(raw, loc)
	if !ok {
		return raw, false
	}
	return t.Format(time.RFC3339), true
}

// MatchesSlot reports whether the raw preferredDateTime text lands on the
// given calendar hour. It never fails: text that neither parses nor contains
// the expected substrings simply does not match, so broken records leave
// slots available instead of blocking them.
//
// Matching is two-tier. The parse tier compares calendar components in loc,
// which keeps offset-carrying instants correct. The substring tier catches
// free-form text (voice transcripts, hand-edited rows) that still embeds a
// recognizable "YYYY-MM-DD" date and "HH:mm" time. Both tiers are load-
// bearing: dropping the fallback loses real bookings written in non-ISO
// shapes, dropping the parser loses hour precision on offset instants.
func MatchesSlot(raw string, year int, month time.Month, day, hour int, loc *time.Location) bool {
	if t, ok := parsePreferred(raw, loc); ok {
		return t.Year() == year && t.Month() == month && t.Day() == day && t.Hour() == hour
	}
	datePart := fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
	hourPart := fmt.Sprintf("%02d:00", hour)
	return strings.Contains(raw, datePart) && strings.Contains(raw, hourPart)
}

// MatchesDay is the hour-agnostic variant used for per-day counts.
func MatchesDay(raw string, year int, month time.Month, day int, loc *time.Location) bool {
	if t, ok := parsePreferred(raw, loc); ok {
		return t.Year() == year && t.Month() == month && t.Day() == day
	}
	datePart := fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
	return strings.Contains(raw, datePart)
}
