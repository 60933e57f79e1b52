package services

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"

	"github.com/reset-corp/reset-backend/internal/config"
	"github.com/reset-corp/reset-backend/internal/models"
)

// EmailService delivers transactional email through an SMTP relay.
// When SMTP is not configured sends are logged and skipped so the rest
// of the request still succeeds.
type EmailService struct {
	host       string
	port       string
	username   string
	password   string
	from       string
	adminEmail string
}

// NewEmailService constructs an EmailService from config.
func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host:       cfg.SMTPHost,
		port:       cfg.SMTPPort,
		username:   cfg.SMTPUsername,
		password:   cfg.SMTPPassword,
		from:       cfg.SMTPFrom,
		adminEmail: cfg.AdminEmail,
	}
}

// Send delivers a single HTML message. One attempt, no retry.
func (s *EmailService) Send(to, subject, body string) error {
	if s.host == "" {
		log.Printf("[email] SMTP not configured, skipping %q to %s", subject, to)
		return nil
	}

	from := s.from
	if from == "" {
		from = s.username
	}

	msg := []byte(
		fmt.Sprintf("From: %s\r\n", from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	serverAddr := s.host + ":" + s.port

	// Implicit TLS, port 465.
	conn, err := tls.Dial("tcp", serverAddr, &tls.Config{ServerName: s.host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return err
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := client.Auth(auth); err != nil {
		return err
	}

	if err := client.Mail(from); err != nil {
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

// SendToAdmin delivers a message to the configured admin inbox.
func (s *EmailService) SendToAdmin(subject, body string) error {
	if s.adminEmail == "" {
		log.Printf("[email] admin email not configured, skipping %q", subject)
		return nil
	}
	return s.Send(s.adminEmail, subject, body)
}

// NotifyOrderConfirmation sends the order confirmation to the customer.
// Errors are logged, not propagated: a failed email must not fail checkout.
func (s *EmailService) NotifyOrderConfirmation(to string, order *models.Order) {
	if to == "" {
		return
	}
	if err := s.Send(to, fmt.Sprintf("Order %s confirmed", order.OrderNumber), OrderConfirmationBody(order)); err != nil {
		log.Printf("[email] order confirmation for %s failed: %v", order.OrderNumber, err)
	}
}

// NotifyOrderStatus sends a status-update email to the customer.
func (s *EmailService) NotifyOrderStatus(to string, order *models.Order) {
	if to == "" {
		return
	}
	if err := s.Send(to, fmt.Sprintf("Order %s update", order.OrderNumber), OrderStatusBody(order)); err != nil {
		log.Printf("[email] status update for %s failed: %v", order.OrderNumber, err)
	}
}
