package mailer

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
)

// Sender delivers a message to an out-of-band address. Implementations
// report synchronous success or failure only; no delivery receipts.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail over implicit TLS (port 465)
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host, port, username, pass string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: pass,
	}
}

// Send sends an HTML mail message
func (s *SMTPSender) Send(to, subject, body string) error {
	msg := []byte(
		fmt.Sprintf("From: %s\r\n", s.username) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	conn, err := tls.Dial("tcp", s.host+":"+s.port, &tls.Config{ServerName: s.host})
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(s.username); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}
