// Package mailer sends invoice PDFs over SMTP. The connection data
// comes from the settings table per send, not from the config file.
package mailer

import (
	"crypto/tls"
	"fmt"

	"mietbot/internal/models"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"
)

type Mailer struct {
	logger *zerolog.Logger
}

func New(logger *zerolog.Logger) *Mailer {
	return &Mailer{logger: logger}
}

// SendInvoice mails the invoice PDF as attachment.
func (m *Mailer) SendInvoice(smtp models.SMTP, to, subject, body, attachmentPath string) error {
	if !smtp.Configured() {
		return fmt.Errorf("smtp is not configured")
	}

	port := smtp.Port
	if port == 0 {
		port = 587
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", smtp.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.Attach(attachmentPath)

	dialer := gomail.NewDialer(smtp.Host, port, smtp.User, smtp.Password)
	dialer.SSL = smtp.Secure
	dialer.TLSConfig = &tls.Config{ServerName: smtp.Host}

	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	m.logger.Info().Str("to", to).Str("subject", subject).Msg("mail sent")
	return nil
}
