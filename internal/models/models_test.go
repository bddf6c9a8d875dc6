package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingRequestCompleteness(t *testing.T) {
	arrival := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	departure := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		req     BookingRequest
		invoice bool
		pin     bool
	}{
		{
			name:    "empty",
			req:     BookingRequest{},
			invoice: false,
			pin:     false,
		},
		{
			name:    "name and dates only",
			req:     BookingRequest{GuestName: "Max Mustermann", Arrival: arrival, Departure: departure},
			invoice: false,
			pin:     true,
		},
		{
			name: "all fields",
			req: BookingRequest{
				GuestName:    "Max Mustermann",
				GuestAddress: "Hauptstr. 1, 12345 Berlin",
				Arrival:      arrival,
				Departure:    departure,
			},
			invoice: true,
			pin:     true,
		},
		{
			name:    "whitespace name does not count",
			req:     BookingRequest{GuestName: "   ", Arrival: arrival, Departure: departure},
			invoice: false,
			pin:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.invoice, tt.req.CompleteForInvoice())
			assert.Equal(t, tt.pin, tt.req.CompleteForPin())
		})
	}
}

func TestInvoiceDataTotals(t *testing.T) {
	data := InvoiceData{
		MwstSatz: 7,
		Positions: []Position{
			{Description: "Übernachtung", Quantity: 5, UnitPrice: 85},
			{Description: "Endreinigung", Quantity: 1, UnitPrice: 50},
		},
	}

	assert.InDelta(t, 475.0, data.Netto(), 0.001)
	assert.InDelta(t, 33.25, data.Mwst(), 0.001)
	assert.InDelta(t, 508.25, data.Total(), 0.001)
}

func TestInvoiceDataKleinunternehmer(t *testing.T) {
	data := InvoiceData{
		MwstSatz:         19,
		Kleinunternehmer: true,
		Positions:        []Position{{Description: "Übernachtung", Quantity: 2, UnitPrice: 100}},
	}

	assert.Equal(t, 0.0, data.Mwst())
	assert.Equal(t, data.Netto(), data.Total())
}
