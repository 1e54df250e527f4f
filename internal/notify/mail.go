package notify

import (
	"context"
	"fmt"
	"net/smtp"
)

// SmtpMailer — доставка писем через обычный SMTP (gmail и совместимые).
type SmtpMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSmtpMailer(host string, port int, username, password, from string) *SmtpMailer {
	return &SmtpMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *SmtpMailer) Send(_ context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	msg := []byte("From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	return smtp.SendMail(addr, auth, m.from, []string{to}, msg)
}
