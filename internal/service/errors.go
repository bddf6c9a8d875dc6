package service

import (
	"errors"
	"strings"
)

var (
	// ErrSettingsUnavailable прерывает весь поток: без настроек нет счёта.
	ErrSettingsUnavailable = errors.New("settings unavailable")

	// ErrLockFailed фатально только для потока "pin".
	ErrLockFailed = errors.New("lock provider failed")

	ErrRenderFailed  = errors.New("pdf render failed")
	ErrPersistFailed = errors.New("invoice persistence failed")
)

// ErrorMessage maps an orchestration error to the short German line the
// sender sees in the chat. Raw error text never leaks, except the lock
// provider detail which names what went wrong with the PIN.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrSettingsUnavailable):
		return "❌ Fehler: Einstellungen konnten nicht geladen werden."
	case errors.Is(err, ErrLockFailed):
		detail := strings.TrimPrefix(err.Error(), ErrLockFailed.Error())
		detail = strings.TrimPrefix(detail, ": ")
		if detail == "" || detail == ErrLockFailed.Error() {
			detail = "Unbekannt"
		}
		return "❌ Nuki Fehler: " + detail
	case errors.Is(err, ErrRenderFailed):
		return "❌ Fehler: PDF konnte nicht erstellt werden."
	case errors.Is(err, ErrPersistFailed):
		return "❌ Fehler: Rechnung konnte nicht gespeichert werden."
	default:
		return "❌ Fehler: Vorgang fehlgeschlagen. Bitte später erneut versuchen."
	}
}
