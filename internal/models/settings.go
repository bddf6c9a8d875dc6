package models

// Settings are stored as JSON values in the settings table, one key per
// block, and edited through the web dashboard (outside this process).

type Vermieter struct {
	Name     string `json:"name"`
	Adresse  string `json:"adresse"`
	Telefon  string `json:"telefon"`
	Email    string `json:"email"`
	Steuernr string `json:"steuernr"`
}

type Bank struct {
	Inhaber string `json:"inhaber"`
	Iban    string `json:"iban"`
	Bic     string `json:"bic"`
	Name    string `json:"name"`
}

type Pricing struct {
	PricePerNight    float64 `json:"price_per_night"`
	CleaningFee      float64 `json:"cleaning_fee"`
	MwstRate         float64 `json:"mwst_rate"`
	Kleinunternehmer bool    `json:"kleinunternehmer"`
}

// DefaultPricing mirrors the dashboard defaults used when no pricing
// block has been saved yet.
func DefaultPricing() Pricing {
	return Pricing{PricePerNight: 85, CleaningFee: 50, MwstRate: 7}
}

type SMTP struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Secure   bool   `json:"secure"`
	User     string `json:"user"`
	Password string `json:"password"`
	From     string `json:"from"`
}

func (s SMTP) Configured() bool {
	return s.Host != "" && s.From != ""
}

type Nuki struct {
	Token  string `json:"token"`
	LockID string `json:"lockId"`
}

type Branding struct {
	LogoBase64   string `json:"logo_base64"`
	PrimaryColor string `json:"primary_color"`
}

// Settings bundles every block the orchestrator needs per flow.
type Settings struct {
	Vermieter    Vermieter
	Bank         Bank
	Pricing      Pricing
	SMTP         SMTP
	Nuki         Nuki
	Branding     Branding
	BookingIcal  string
	TelegramIDs  []string
	ReminderDays int
}
