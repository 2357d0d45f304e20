// Package relay delivers contact messages through the EmailJS REST API.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"portfolio-contact-backend/config"
	"portfolio-contact-backend/internal/domain"
)

// maxReasonBytes caps how much of a relay error body ends up in a diagnostic.
const maxReasonBytes = 512

// Client sends validated contact messages to an EmailJS template.
type Client struct {
	apiURL         string
	serviceID      string
	templateID     string
	publicKey      string
	privateKey     string
	recipientName  string
	recipientEmail string
	timeout        time.Duration
	httpClient     *http.Client
	sanitizer      *bluemonday.Policy
}

// Payload is the JSON body accepted by the EmailJS send endpoint.
type Payload struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	AccessToken    string         `json:"accessToken,omitempty"`
	TemplateParams TemplateParams `json:"template_params"`
}

// TemplateParams are the variables available inside the EmailJS template.
type TemplateParams struct {
	FromName    string `json:"from_name"`
	FromEmail   string `json:"from_email"`
	ReplyTo     string `json:"reply_to"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`
	MessageHTML string `json:"message_html"`
	ToName      string `json:"to_name"`
	ToEmail     string `json:"to_email,omitempty"`
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a relay client from config. Missing credentials are not an
// error here; Send reports them as configuration failures.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		apiURL:         cfg.EmailJSAPIURL,
		serviceID:      cfg.EmailJSServiceID,
		templateID:     cfg.EmailJSTemplateID,
		publicKey:      cfg.EmailJSPublicKey,
		privateKey:     cfg.EmailJSPrivateKey,
		recipientName:  cfg.ContactRecipientName,
		recipientEmail: cfg.ContactRecipientEmail,
		timeout:        cfg.RelayTimeout,
		httpClient:     &http.Client{},
		sanitizer:      bluemonday.UGCPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConfigured checks the three values the relay requires.
func (c *Client) IsConfigured() bool {
	return c.serviceID != "" && c.templateID != "" && c.publicKey != ""
}

func (c *Client) missingSettings() []string {
	var missing []string
	if c.serviceID == "" {
		missing = append(missing, "EMAILJS_SERVICE_ID")
	}
	if c.templateID == "" {
		missing = append(missing, "EMAILJS_TEMPLATE_ID")
	}
	if c.publicKey == "" {
		missing = append(missing, "EMAILJS_PUBLIC_KEY")
	}
	return missing
}

// BuildPayload maps a validated message onto the relay payload.
func (c *Client) BuildPayload(msg domain.ValidatedMessage) Payload {
	return Payload{
		ServiceID:   c.serviceID,
		TemplateID:  c.templateID,
		UserID:      c.publicKey,
		AccessToken: c.privateKey,
		TemplateParams: TemplateParams{
			FromName:    msg.Name(),
			FromEmail:   msg.Email(),
			ReplyTo:     msg.Email(),
			Subject:     msg.Subject(),
			Message:     msg.Message(),
			MessageHTML: c.sanitizer.Sanitize(msg.Message()),
			ToName:      c.recipientName,
			ToEmail:     c.recipientEmail,
		},
	}
}

// Send posts the message to the relay and waits for its answer.
func (c *Client) Send(ctx context.Context, msg domain.ValidatedMessage) error {
	if !c.IsConfigured() {
		return &domain.DeliveryError{
			Kind:   domain.DeliveryConfiguration,
			Reason: "missing " + strings.Join(c.missingSettings(), ", "),
		}
	}

	body, err := json.Marshal(c.BuildPayload(msg))
	if err != nil {
		return &domain.DeliveryError{Kind: domain.DeliveryTransport, Reason: "encode payload", Err: err}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return &domain.DeliveryError{Kind: domain.DeliveryConfiguration, Reason: "invalid relay URL", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return &domain.DeliveryError{Kind: domain.DeliveryTimeout, Reason: "timeout", Err: err}
		}
		return &domain.DeliveryError{Kind: domain.DeliveryTransport, Reason: "relay request failed", Err: err}
	}
	defer resp.Body.Close()

	text, _ := io.ReadAll(io.LimitReader(resp.Body, maxReasonBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.DeliveryError{
			Kind:   domain.DeliveryRejected,
			Reason: fmt.Sprintf("relay responded %d: %s", resp.StatusCode, strings.TrimSpace(string(text))),
		}
	}

	return nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
