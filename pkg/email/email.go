package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"portfolio-contact-backend/config"
	"portfolio-contact-backend/internal/domain"
)

// defaultTimeout bounds the SMTP exchange when no relay timeout is configured
const defaultTimeout = 30 * time.Second

// EmailService delivers contact messages over SMTP
type EmailService struct {
	host          string
	port          string
	username      string
	password      string
	fromEmail     string
	toEmail       string
	recipientName string
	timeout       time.Duration
}

// ContactEmailData holds the data for contact form emails
type ContactEmailData struct {
	SenderName    string
	SenderEmail   string
	Subject       string
	Message       string
	RecipientName string
}

// NewEmailService creates a new email service from the SMTP configuration
func NewEmailService(cfg *config.Config) *EmailService {
	from := cfg.SMTPFromEmail
	if from == "" {
		from = cfg.SMTPUsername
	}
	to := cfg.ContactRecipientEmail
	if to == "" {
		to = from
	}
	return &EmailService{
		host:          cfg.SMTPHost,
		port:          cfg.SMTPPort,
		username:      cfg.SMTPUsername,
		password:      cfg.SMTPPassword,
		fromEmail:     from,
		toEmail:       to,
		recipientName: cfg.ContactRecipientName,
		timeout:       cfg.RelayTimeout,
	}
}

var contactEmailTemplate = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Contact Form Submission</title>
</head>
<body>
    <p>Hi {{.RecipientName}},</p>
    <p><strong>From:</strong> {{.SenderName}} ({{.SenderEmail}})</p>
    <p><strong>Subject:</strong> {{.Subject}}</p>
    <blockquote style="border-left: 4px solid #7928CA; padding-left: 12px;">{{.Message}}</blockquote>
    <p style="color: #888; font-size: 12px;">Sent from the portfolio contact form. Reply to: {{.SenderEmail}}</p>
</body>
</html>`))

// IsConfigured checks if the email service has valid SMTP configuration
func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.username != "" && s.password != ""
}

// BuildMessage renders the MIME message for a contact submission
func (s *EmailService) BuildMessage(data ContactEmailData) ([]byte, error) {
	var body bytes.Buffer
	if err := contactEmailTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to execute email template: %w", err)
	}

	msg := fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Reply-To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		s.fromEmail,
		s.toEmail,
		headerSafe(data.SenderEmail),
		headerSafe("Contact Form: "+data.Subject),
		body.String(),
	)
	return []byte(msg), nil
}

// Send relays a validated contact message to the configured recipient.
// Failures come back as *domain.DeliveryError.
func (s *EmailService) Send(ctx context.Context, msg domain.ValidatedMessage) error {
	if !s.IsConfigured() {
		return &domain.DeliveryError{Kind: domain.DeliveryConfiguration, Reason: "missing SMTP_HOST, SMTP_USERNAME or SMTP_PASSWORD"}
	}

	raw, err := s.BuildMessage(ContactEmailData{
		SenderName:    msg.Name(),
		SenderEmail:   msg.Email(),
		Subject:       msg.Subject(),
		Message:       msg.Message(),
		RecipientName: s.recipientName,
	})
	if err != nil {
		return &domain.DeliveryError{Kind: domain.DeliveryTransport, Reason: "render message", Err: err}
	}

	timeout := s.timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}

	// The exchange runs in this goroutine under connection deadlines, so the
	// returned outcome is what the server actually saw.
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(s.host, s.port))
	if err != nil {
		return classifySMTPError(err)
	}
	_ = conn.SetDeadline(time.Now().Add(timeout))

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return classifySMTPError(err)
	}
	defer client.Close()
	client.CommandTimeout = timeout
	client.SubmissionTimeout = timeout

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return classifySMTPError(err)
		}
	}
	if ok, _ := client.Extension("AUTH"); ok {
		if err := client.Auth(sasl.NewPlainClient("", s.username, s.password)); err != nil {
			return classifySMTPError(err)
		}
	}

	if err := client.SendMail(s.fromEmail, []string{s.toEmail}, bytes.NewReader(raw)); err != nil {
		return classifySMTPError(err)
	}
	// The server has accepted the message; a failed QUIT changes nothing
	_ = client.Quit()
	return nil
}

func classifySMTPError(err error) error {
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		return &domain.DeliveryError{
			Kind:   domain.DeliveryRejected,
			Reason: fmt.Sprintf("smtp %d: %s", smtpErr.Code, smtpErr.Message),
			Err:    err,
		}
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &domain.DeliveryError{Kind: domain.DeliveryTimeout, Reason: "timeout", Err: err}
	}
	return &domain.DeliveryError{Kind: domain.DeliveryTransport, Reason: "failed to send email", Err: err}
}

// headerSafe drops CR/LF so user text cannot inject extra headers
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
