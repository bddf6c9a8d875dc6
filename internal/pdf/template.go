// Package pdf renders invoices: an HTML template mirroring the
// dashboard layout and a client for the external HTML-to-PDF service.
package pdf

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"mietbot/internal/models"
)

// invoiceTmpl mirrors the dashboard invoice page: header with branding,
// recipient, meta block, positions table, summary, payment status,
// optional door-code box, bank details and the §19 UStG note.
var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"nl2br": nl2br,
	"date":  formatDate,
	"euro":  formatEuro,
	"mul": func(qty int, price float64) float64 {
		return float64(qty) * price
	},
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="de">
<head>
<meta charset="UTF-8">
<style>
body { background: white; margin: 0; padding: 40px; font-family: 'Inter', 'Helvetica Neue', sans-serif; color: #1f2937; font-size: 13px; }
.inv-header { display: flex; justify-content: space-between; margin-bottom: 40px; }
.inv-sender { text-align: right; }
.inv-label { font-size: 10px; text-transform: uppercase; letter-spacing: 0.05em; color: #6b7280; margin-bottom: 4px; }
.inv-recipient { margin-bottom: 30px; }
.inv-meta { display: flex; gap: 40px; margin-bottom: 30px; }
.inv-title { color: {{.PrimaryColor}}; font-size: 24px; margin-bottom: 20px; }
.inv-table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
.inv-table th { text-align: left; border-bottom: 2px solid {{.PrimaryColor}}; padding: 8px 4px; font-size: 11px; text-transform: uppercase; }
.inv-table td { padding: 8px 4px; border-bottom: 1px solid #e5e7eb; }
.text-right { text-align: right; }
.inv-summary { margin-left: auto; width: 260px; }
.inv-summary-line { display: flex; justify-content: space-between; padding: 4px 0; }
.inv-summary-total { border-top: 2px solid {{.PrimaryColor}}; font-weight: 700; font-size: 15px; }
.inv-paid-badge { display: inline-block; padding: 6px 12px; border-radius: 6px; margin: 20px 0; font-weight: 600; }
.inv-paid-badge.paid { background: #dcfce7; color: #166534; }
.inv-paid-badge.unpaid { background: #fef3c7; color: #92400e; }
.inv-nuki-pin { border: 2px dashed {{.PrimaryColor}}; border-radius: 8px; padding: 14px; margin: 20px 0; }
.inv-nuki-code { font-size: 20px; font-weight: 700; letter-spacing: 0.2em; display: block; }
.inv-bank-grid { display: grid; grid-template-columns: 120px 1fr; gap: 2px 10px; }
.inv-footer { margin-top: 40px; font-size: 11px; color: #6b7280; }
.inv-legal-notice { margin-bottom: 10px; }
</style>
</head>
<body>
<div class="inv-header">
  <div class="inv-logo">{{if .Data.Branding.LogoBase64}}<img src="{{.Data.Branding.LogoBase64}}" style="max-height: 80px;">{{end}}</div>
  <div class="inv-sender">
    <strong>{{.Data.VName}}</strong>
    <div class="inv-addr">{{nl2br .Data.VAdresse}}</div>
    <div class="inv-contact"><span>{{.Data.VTelefon}}</span> <span>{{.Data.VEmail}}</span></div>
    {{if .Data.VSteuernr}}<div class="inv-tax">St.-Nr.: {{.Data.VSteuernr}}</div>{{end}}
  </div>
</div>

<div class="inv-recipient">
  <div class="inv-label">Rechnung an</div>
  <strong>{{.Data.GName}}</strong>
  <div class="inv-addr">{{nl2br .Data.GAdresse}}</div>
</div>

<div class="inv-meta">
  <div class="inv-meta-item">
    <div class="inv-label">Rechnungs-Nr.</div>
    <span>{{.Data.RNummer}}</span>
  </div>
  <div class="inv-meta-item">
    <div class="inv-label">Datum</div>
    <span>{{date .Data.RDatum}}</span>
  </div>
  <div class="inv-meta-item">
    <div class="inv-label">Aufenthalt</div>
    <span>{{.StayText}}</span>
  </div>
</div>

<h2 class="inv-title">Rechnung</h2>

<table class="inv-table">
  <thead>
    <tr><th>Pos.</th><th>Bezeichnung</th><th class="text-right">Anzahl</th><th class="text-right">Einzelpreis</th><th class="text-right">Gesamt</th></tr>
  </thead>
  <tbody>
    {{range $i, $p := .Data.Positions}}
    <tr>
      <td>{{inc $i}}</td>
      <td>{{$p.Description}}</td>
      <td class="text-right">{{$p.Quantity}}</td>
      <td class="text-right">{{euro $p.UnitPrice}}</td>
      <td class="text-right">{{euro (mul $p.Quantity $p.UnitPrice)}}</td>
    </tr>
    {{else}}
    <tr class="inv-empty-row"><td colspan="5">Keine Positionen</td></tr>
    {{end}}
  </tbody>
</table>

<div class="inv-summary">
  {{if not .Data.Kleinunternehmer}}
  <div class="inv-summary-line"><span>Nettobetrag</span><span>{{euro .Data.Netto}}</span></div>
  <div class="inv-summary-line"><span>MwSt. {{.MwstRate}}%</span><span>{{euro .Data.Mwst}}</span></div>
  {{end}}
  <div class="inv-summary-line inv-summary-total"><span>Gesamtbetrag</span><span>{{euro .Data.Total}}</span></div>
</div>

<div class="inv-payment-status">
  {{if .Data.ZBezahlt}}
  <div class="inv-paid-badge paid">Bezahlt via {{.Data.ZMethode}}{{if .Data.ZDatum}} am {{date .Data.ZDatum}}{{end}}</div>
  {{else}}
  <div class="inv-paid-badge unpaid">Offen – noch nicht bezahlt</div>
  {{end}}
</div>

{{if .Data.LockPIN}}
<div class="inv-nuki-pin">
  <span class="inv-nuki-label">Ihr Zugangscode:</span>
  <span class="inv-nuki-code">{{.Data.LockPIN}}</span>
  <span class="inv-nuki-period">Gültig: {{date .Data.AAnreise}} bis {{date .Data.AAbreise}}</span>
</div>
{{end}}

{{if .Data.ZShowBank}}
<div class="inv-payment">
  <div class="inv-label">Bankverbindung</div>
  <div class="inv-bank-grid">
    <span>Kontoinhaber:</span><span>{{.Data.BInhaber}}</span>
    <span>IBAN:</span><span>{{.Data.BIban}}</span>
    <span>BIC:</span><span>{{.Data.BBic}}</span>
    <span>Bank:</span><span>{{.Data.BBank}}</span>
  </div>
</div>
{{end}}

<div class="inv-footer">
  {{if .Data.Kleinunternehmer}}
  <div class="inv-legal-notice">Kleinunternehmer (MwSt.-Befreiung nach § 19 UStG) — Der Rechnungsbetrag enthält gemäß § 19 UStG keine Umsatzsteuer.</div>
  {{end}}
  <div class="inv-footer-text">
    {{if .Data.ZBezahlt}}Betrag wurde bezahlt via {{.Data.ZMethode}}. Vielen Dank!{{else if .Data.ZShowBank}}Bitte überweisen Sie den Betrag innerhalb von 14 Tagen auf das angegebene Konto.{{else}}Vielen Dank für Ihren Aufenthalt!{{end}}
  </div>
</div>
</body>
</html>
`))

const defaultPrimaryColor = "#6366f1"

type invoiceView struct {
	Data         *models.InvoiceData
	StayText     string
	MwstRate     string
	PrimaryColor string
}

// RenderInvoiceHTML produces the full self-contained invoice HTML for
// the external renderer.
func RenderInvoiceHTML(data *models.InvoiceData) (string, error) {
	view := invoiceView{
		Data:         data,
		StayText:     stayText(data),
		MwstRate:     trimRate(data.MwstSatz),
		PrimaryColor: data.Branding.PrimaryColor,
	}
	if view.PrimaryColor == "" {
		view.PrimaryColor = defaultPrimaryColor
	}

	var b strings.Builder
	if err := invoiceTmpl.Execute(&b, view); err != nil {
		return "", fmt.Errorf("execute invoice template: %w", err)
	}
	return b.String(), nil
}

func stayText(data *models.InvoiceData) string {
	if data.AAnreise == "" || data.AAbreise == "" {
		return "—"
	}

	nights := 0
	if arrival, err1 := time.Parse("2006-01-02", data.AAnreise); err1 == nil {
		if departure, err2 := time.Parse("2006-01-02", data.AAbreise); err2 == nil {
			nights = int(departure.Sub(arrival).Hours() / 24)
			if nights < 0 {
				nights = 0
			}
		}
	}

	plural := "e"
	if nights == 1 {
		plural = ""
	}
	return fmt.Sprintf("%s – %s (%d Nacht%s)", formatDate(data.AAnreise), formatDate(data.AAbreise), nights, plural)
}

// formatDate turns an ISO date into the German notation; anything
// unparseable is passed through unchanged.
func formatDate(iso string) string {
	if iso == "" {
		return "—"
	}
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02.01.2006")
}

// formatEuro renders 1234.5 as "1.234,50 €".
func formatEuro(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	parts := strings.SplitN(s, ".", 2)
	intPart, frac := parts[0], parts[1]

	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ".") + "," + frac + " €"
	if neg {
		out = "-" + out
	}
	return out
}

func trimRate(rate float64) string {
	s := fmt.Sprintf("%g", rate)
	return s
}

func nl2br(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
