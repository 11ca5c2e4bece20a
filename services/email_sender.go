package services

import (
	"fmt"
	"io"
	"strconv"

	"gopkg.in/gomail.v2"

	"enrollment-portal/config"
	"enrollment-portal/logger"
)

// Attachment is an in-memory file attached to an outgoing email.
type Attachment struct {
	Name string
	Data []byte
}

// dialAndSend is swapped in tests.
var dialAndSend = func(host string, port int, user, pass string, m *gomail.Message) error {
	return gomail.NewDialer(host, port, user, pass).DialAndSend(m)
}

// SendEmailDirect sends an HTML email via SMTP.
// Called by the receipt handler after a payment.captured event.
func SendEmailDirect(to, subject, body string, attachments ...Attachment) error {
	logger.Info("[EMAIL] sending via SMTP - Recipient: %s", to)

	cfg := config.AppConfig
	from := cfg.EmailFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	if from == "" {
		logger.Error("[EMAIL] configuration error: sender not configured")
		return fmt.Errorf("email sender not configured (set EMAIL_FROM or SMTP_USER)")
	}
	if cfg.SMTPUser == "" || cfg.SMTPPass == "" {
		logger.Error("[EMAIL] configuration error: SMTP credentials not configured")
		return fmt.Errorf("smtp credentials not configured (set SMTP_USER and SMTP_PASS)")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	for _, a := range attachments {
		data := a.Data
		m.Attach(a.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}

	port := 587
	if v, err := strconv.Atoi(cfg.SMTPPort); err == nil {
		port = v
	}

	if err := dialAndSend(cfg.SMTPHost, port, cfg.SMTPUser, cfg.SMTPPass, m); err != nil {
		logger.Error("[EMAIL] failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("[EMAIL] sent to: %s", to)
	return nil
}
