// Package mail delivers one-time codes over SMTP. Delivery is
// fire-and-forget from the auth flow's perspective: a failure is
// returned to the caller once and never retried here.
package mail

import (
	"fmt"
	"net/smtp"

	"github.com/openclaw/bountyboard/internal/config"
)

// Sender delivers a one-time code to a recipient address.
type Sender interface {
	SendOTP(to, code string) error
}

// SMTPSender sends through a plain-auth SMTP relay (gmail-style
// host/port/user/app-password configuration).
type SMTPSender struct {
	host string
	port string
	user string
	pass string
}

func NewSMTPSender(cfg config.Config) *SMTPSender {
	return &SMTPSender{host: cfg.SMTPHost, port: cfg.SMTPPort, user: cfg.SMTPUser, pass: cfg.SMTPPass}
}

// SendOTP emails the code. When no SMTP host is configured the send
// fails so the caller can report that the flow is unavailable.
func (s *SMTPSender) SendOTP(to, code string) error {
	if s.host == "" {
		return fmt.Errorf("smtp not configured")
	}
	msg := []byte("From: " + s.user + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: Your password reset code\r\n" +
		"\r\n" +
		"Your one-time code is " + code + ". It expires shortly; if you did not request a reset, ignore this message.\r\n")
	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	return smtp.SendMail(s.host+":"+s.port, auth, s.user, []string{to}, msg)
}
