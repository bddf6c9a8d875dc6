// Package parser extracts booking data from free-text chat messages.
// Everything here is a heuristic, not a guarantee: the conversation
// layer re-asks for any field left empty.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"mietbot/internal/models"
)

// dateRangeRe matches "15.03. - 20.03.2026", "1.6.-5.6.26", "15.03 20.03"
// and similar: day and month 1-2 digits, optional trailing dot, optional
// dash separator, optional 2- or 4-digit year.
var (
	dateRangeRe = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.?\s*(?:-\s*)?(\d{1,2})\.(\d{1,2})\.?(?:\s*(\d{2,4}))?`)
	dateHintRe  = regexp.MustCompile(`\d{1,2}\.\d{1,2}\.`)
)

// ParseDateRange extracts the first arrival/departure pair from text.
// Newlines are flattened to spaces before matching. A two-digit year is
// expanded to 20YY; a missing year defaults to the current calendar year.
// ok is false when no range is found, which is not an error: it means
// "still missing" to the caller.
func ParseDateRange(text string) (arrival, departure time.Time, ok bool) {
	flat := strings.ReplaceAll(text, "\n", " ")
	m := dateRangeRe.FindStringSubmatch(flat)
	if m == nil {
		return time.Time{}, time.Time{}, false
	}

	d1, _ := strconv.Atoi(m[1])
	m1, _ := strconv.Atoi(m[2])
	d2, _ := strconv.Atoi(m[3])
	m2, _ := strconv.Atoi(m[4])

	year := time.Now().Year()
	if m[5] != "" {
		y, _ := strconv.Atoi(m[5])
		if len(m[5]) == 2 {
			y += 2000
		}
		year = y
	}

	arrival = time.Date(year, time.Month(m1), d1, 0, 0, 0, 0, time.UTC)
	departure = time.Date(year, time.Month(m2), d2, 0, 0, 0, 0, time.UTC)
	return arrival, departure, true
}

// ContainsDateFragment reports whether text holds a "D.M." fragment.
// Used to treat unsolicited messages as invoice attempts.
func ContainsDateFragment(text string) bool {
	return dateHintRe.MatchString(text)
}

// ParseBookingText applies the name/address heuristics to a whole
// message and returns a partial request.
//
// Guest name: first non-empty line, unless it mentions "rechnung",
// then the second line. Address: every remaining line that is not the
// name line, does not mention "rechnung" and holds no date fragment.
func ParseBookingText(text string) models.BookingRequest {
	var req models.BookingRequest

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return req
	}

	if !strings.Contains(strings.ToLower(lines[0]), "rechnung") {
		req.GuestName = lines[0]
	} else if len(lines) > 1 {
		req.GuestName = lines[1]
	}

	if arrival, departure, ok := ParseDateRange(text); ok {
		req.Arrival = arrival
		req.Departure = departure
	}

	var addressLines []string
	for _, l := range lines {
		if l == req.GuestName {
			continue
		}
		if strings.Contains(strings.ToLower(l), "rechnung") {
			continue
		}
		if dateHintRe.MatchString(l) {
			continue
		}
		addressLines = append(addressLines, l)
	}
	req.GuestAddress = strings.Join(addressLines, "\n")

	return req
}

var pinRe = regexp.MustCompile(`(?i)pin`)

// StripPinKeyword removes the first "pin" occurrence so the remainder
// can be parsed as a plain booking text.
func StripPinKeyword(text string) string {
	if loc := pinRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]] + text[loc[1]:]
	}
	return strings.TrimSpace(text)
}
