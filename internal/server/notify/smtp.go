package notify

import (
	"context"

	"gopkg.in/gomail.v2"
)

// dialAndSend is a seam for tests.
var dialAndSend = func(d *gomail.Dialer, m ...*gomail.Message) error {
	return d.DialAndSend(m...)
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer uses implicit TLS on port 465 and STARTTLS elsewhere.
func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	d := gomail.NewDialer(host, port, user, pass)
	d.SSL = port == 465
	return &SMTPMailer{dialer: d, from: from}
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Text)

	return dialAndSend(s.dialer, msg)
}
