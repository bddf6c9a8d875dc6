package parser

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		input     string
		arrival   string
		departure string
	}{
		{"15.03. - 20.03.2026", "2026-03-15", "2026-03-20"},
		{"15.03.-20.03.2026", "2026-03-15", "2026-03-20"},
		{"15.03. 20.03.2026", "2026-03-15", "2026-03-20"},
		{"1.6.-5.6.2026", "2026-06-01", "2026-06-05"},
		{"15.03. - 20.03.26", "2026-03-15", "2026-03-20"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			arrival, departure, ok := ParseDateRange(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.arrival, arrival.Format("2006-01-02"))
			assert.Equal(t, tt.departure, departure.Format("2006-01-02"))
			assert.False(t, departure.Before(arrival))
		})
	}
}

func TestParseDateRangeMissingYear(t *testing.T) {
	arrival, departure, ok := ParseDateRange("01.06.-05.06.")
	require.True(t, ok)

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("%d-06-01", year), arrival.Format("2006-01-02"))
	assert.Equal(t, fmt.Sprintf("%d-06-05", year), departure.Format("2006-01-02"))
}

// Wörter zwischen den beiden Daten schlagen nicht als Bereich an: der
// Treffer degradiert auf das hintere Datum allein und liefert keinen
// brauchbaren Zeitraum.
func TestParseDateRangeWordsBetweenDates(t *testing.T) {
	arrival, departure, ok := ParseDateRange("Anreise 15.03. Abreise 20.03.2026")
	require.True(t, ok)
	assert.NotEqual(t, "2026-03-15", arrival.Format("2006-01-02"))
	assert.NotEqual(t, "2026-03-20", departure.Format("2006-01-02"))
}

func TestParseDateRangeAcrossNewlines(t *testing.T) {
	_, _, ok := ParseDateRange("Max Mustermann\n15.03. -\n20.03.2026")
	assert.True(t, ok)
}

func TestParseDateRangeNoMatch(t *testing.T) {
	for _, input := range []string{"", "Hallo", "Rechnung für Max", "am 15. März"} {
		arrival, departure, ok := ParseDateRange(input)
		assert.False(t, ok, "input %q", input)
		assert.True(t, arrival.IsZero())
		assert.True(t, departure.IsZero())
	}
}

func TestParseDateRangeFirstMatchWins(t *testing.T) {
	arrival, _, ok := ParseDateRange("15.03. - 20.03.2026 oder 01.04. - 05.04.2026")
	require.True(t, ok)
	assert.Equal(t, "2026-03-15", arrival.Format("2006-01-02"))
}

func TestParseDateRangeIdempotent(t *testing.T) {
	const input = "Max\n15.03. - 20.03.2026"
	a1, d1, ok1 := ParseDateRange(input)
	a2, d2, ok2 := ParseDateRange(input)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, a1, a2)
	assert.Equal(t, d1, d2)
}

func TestParseBookingTextFull(t *testing.T) {
	req := ParseBookingText("Max Mustermann\nHauptstr. 1, 12345 Berlin\n15.03. - 20.03.2026")

	assert.Equal(t, "Max Mustermann", req.GuestName)
	assert.Equal(t, "Hauptstr. 1, 12345 Berlin", req.GuestAddress)
	assert.Equal(t, "2026-03-15", req.Arrival.Format("2006-01-02"))
	assert.Equal(t, "2026-03-20", req.Departure.Format("2006-01-02"))
	assert.True(t, req.CompleteForInvoice())
}

func TestParseBookingTextRechnungHeader(t *testing.T) {
	req := ParseBookingText("Rechnung bitte\nAnna Beispiel\nMusterweg 2\n10115 Berlin")

	assert.Equal(t, "Anna Beispiel", req.GuestName)
	assert.Equal(t, "Musterweg 2\n10115 Berlin", req.GuestAddress)
	assert.False(t, req.HasDates())
}

func TestParseBookingTextOnlyCommandWord(t *testing.T) {
	req := ParseBookingText("Rechnung")

	assert.Empty(t, req.GuestName)
	assert.Empty(t, req.GuestAddress)
	assert.False(t, req.HasDates())
}

func TestParseBookingTextMultilineAddress(t *testing.T) {
	req := ParseBookingText("Erika Musterfrau\nLindenallee 5\n80331 München\n01.06. - 05.06.2026")

	assert.Equal(t, "Erika Musterfrau", req.GuestName)
	assert.Equal(t, "Lindenallee 5\n80331 München", req.GuestAddress)
}

func TestContainsDateFragment(t *testing.T) {
	assert.True(t, ContainsDateFragment("15.03. kommt der Gast"))
	assert.True(t, ContainsDateFragment("1.6."))
	assert.False(t, ContainsDateFragment("kein Datum hier"))
}

func TestStripPinKeyword(t *testing.T) {
	assert.Equal(t, "Anna 15.03. - 20.03.", StripPinKeyword("Pin Anna 15.03. - 20.03."))
	assert.Equal(t, "Anna", StripPinKeyword("PIN Anna"))
	assert.Equal(t, "ohne Schlüsselwort", StripPinKeyword("ohne Schlüsselwort"))
}
