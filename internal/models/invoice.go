package models

import "time"

// Position is a single invoice line item.
type Position struct {
	Description string  `json:"desc"`
	Quantity    int     `json:"qty"`
	UnitPrice   float64 `json:"price"`
}

// InvoiceData is the full render/persistence payload for one invoice.
// Field prefixes follow the document layout: v = Vermieter, g = Gast,
// r = Rechnung, a = Aufenthalt, z = Zahlung, b = Bank.
type InvoiceData struct {
	VName     string `json:"v_name"`
	VAdresse  string `json:"v_adresse"`
	VTelefon  string `json:"v_telefon"`
	VEmail    string `json:"v_email"`
	VSteuernr string `json:"v_steuernr"`

	GName    string `json:"g_name"`
	GAdresse string `json:"g_adresse"`
	GEmail   string `json:"g_email,omitempty"`

	RNummer string `json:"r_nummer"`
	RDatum  string `json:"r_datum"`

	AAnreise string `json:"a_anreise"`
	AAbreise string `json:"a_abreise"`

	MwstSatz         float64 `json:"mwst_satz"`
	Kleinunternehmer bool    `json:"kleinunternehmer"`

	ZBezahlt  bool   `json:"z_bezahlt"`
	ZMethode  string `json:"z_methode"`
	ZDatum    string `json:"z_datum"`
	ZShowBank bool   `json:"z_show_bank"`

	BInhaber string `json:"b_inhaber"`
	BIban    string `json:"b_iban"`
	BBic     string `json:"b_bic"`
	BBank    string `json:"b_bank"`

	LockPIN   string     `json:"nuki_pin,omitempty"`
	Positions []Position `json:"positions"`
	Branding  Branding   `json:"branding"`
}

// Netto sums all positions before tax.
func (d *InvoiceData) Netto() float64 {
	var sum float64
	for _, p := range d.Positions {
		sum += float64(p.Quantity) * p.UnitPrice
	}
	return sum
}

// Mwst returns the tax amount. Kleinunternehmer (§19 UStG) invoices
// carry no tax regardless of the configured rate.
func (d *InvoiceData) Mwst() float64 {
	if d.Kleinunternehmer {
		return 0
	}
	return d.Netto() * d.MwstSatz / 100
}

func (d *InvoiceData) Total() float64 {
	return d.Netto() + d.Mwst()
}

// Invoice is the persisted invoice row. Data holds the full InvoiceData
// snapshot as JSON; the remaining columns are extracted for querying.
type Invoice struct {
	ID            int64     `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	GuestID       int64     `json:"guest_id"`
	GuestName     string    `json:"guest_name"`
	InvoiceDate   string    `json:"invoice_date"`
	Arrival       string    `json:"arrival"`
	Departure     string    `json:"departure"`
	TotalAmount   float64   `json:"total_amount"`
	IsPaid        bool      `json:"is_paid"`
	PaymentMethod string    `json:"payment_method"`
	PaymentDate   string    `json:"payment_date"`
	Data          string    `json:"data"`
	CreatedAt     time.Time `json:"created_at"`
}
