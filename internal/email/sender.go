// Package email composes and delivers outgoing mail. Delivery sits behind
// the Sender interface so the queue consumer can be tested without a mail
// server and the transport can be swapped without touching callers.
package email

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/iliyamo/contact-book/internal/config"
)

// Message is a fully composed outgoing email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a composed message. Implementations must be safe for
// concurrent use; the consumer may process deliveries in parallel.
type Sender interface {
	Send(msg Message) error
}

// ConfirmationMessage builds the account confirmation email. The link
// points back at the public API so following it flips the confirmed flag.
func ConfirmationMessage(to, username, baseURL, token string) Message {
	link := fmt.Sprintf("%s/api/auth/confirmed_email/%s", strings.TrimRight(baseURL, "/"), token)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nConfirm your email address by opening the link below:\r\n\r\n%s\r\n\r\nIf you did not sign up, ignore this message.\r\n",
		username, link)
	return Message{To: to, Subject: "Confirm your email", Body: body}
}

// smtpSender delivers mail over plain SMTP with optional AUTH.
type smtpSender struct {
	cfg config.SMTPConfig
}

// NewSMTPSender builds a Sender from the SMTP configuration. When no host
// is configured the returned sender only logs the would-be delivery, which
// keeps local development working without a mail server.
func NewSMTPSender(cfg config.SMTPConfig) Sender {
	if cfg.Host == "" {
		return noopSender{}
	}
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(msg Message) error {
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	data := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		s.cfg.From, msg.To, msg.Subject, msg.Body)
	addr := s.cfg.Host + ":" + s.cfg.Port
	return smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, []byte(data))
}

// noopSender logs instead of delivering. Used when SMTP is not configured.
type noopSender struct{}

func (noopSender) Send(msg Message) error {
	log.Printf("email: SMTP not configured, skipping delivery to %s (%q)", msg.To, msg.Subject)
	return nil
}
