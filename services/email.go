package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/saqr-syn/portfolio-backend/config"
	"github.com/saqr-syn/portfolio-backend/models"
)

const resendEndpoint = "https://api.resend.com/emails"

var ErrMailerDisabled = errors.New("mailer not configured")

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
}

// Mailer sends mail through the Resend API.
type Mailer struct {
	apiKey     string
	from       string
	recipients []string
	endpoint   string
	client     *http.Client
	logger     zerolog.Logger
}

// NewMailer reads RESEND_API_KEY, RESEND_FROM_EMAIL and CONTACT_RECIPIENTS (falling back to ADMIN_EMAIL).
func NewMailer(c map[string]string) *Mailer {
	recipients := config.GetStrings(c, "CONTACT_RECIPIENTS", nil)
	if len(recipients) == 0 {
		if admin := config.GetString(c, "ADMIN_EMAIL", ""); admin != "" {
			recipients = []string{admin}
		}
	}
	return &Mailer{
		apiKey:     config.GetString(c, "RESEND_API_KEY", ""),
		from:       config.GetString(c, "RESEND_FROM_EMAIL", ""),
		recipients: recipients,
		endpoint:   config.GetString(c, "RESEND_ENDPOINT", resendEndpoint),
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     log.With().Str("component", "mailer").Logger(),
	}
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.apiKey != "" && m.from != "" && len(m.recipients) > 0
}

// SendEmail sends an HTML email to recipients.
func (m *Mailer) SendEmail(ctx context.Context, subject, body string, recipients []string, replyTo string) error {
	if !m.Enabled() {
		return ErrMailerDisabled
	}
	if len(recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	jsonPayload, err := json.Marshal(ResendEmailRequest{
		From:    m.from,
		To:      recipients,
		Subject: subject,
		Html:    body,
		ReplyTo: replyTo,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create Resend API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to Resend API: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Resend API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ResendErrorResponse
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Message != "" {
			return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, errorResp.Message)
		}
		return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var emailResponse ResendEmailResponse
	if err := json.Unmarshal(bodyBytes, &emailResponse); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to parse Resend email response, but email was sent")
	} else {
		m.logger.Info().Str("emailId", emailResponse.ID).Msg("Successfully sent email via Resend")
	}
	return nil
}

// NotifyContact forwards a contact form submission to the site owner.
func (m *Mailer) NotifyContact(ctx context.Context, msg *models.ContactMessage) error {
	subject := fmt.Sprintf("New message from %s", msg.Name)
	return m.SendEmail(ctx, subject, ContactEmailBody(msg), m.recipients, msg.Email)
}

// ContactEmailBody renders the notification with every user-supplied value escaped.
func ContactEmailBody(msg *models.ContactMessage) string {
	var b strings.Builder
	b.WriteString("<h2>New contact form message</h2>")
	fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>", html.EscapeString(msg.Name))
	fmt.Fprintf(&b, "<p><strong>Email:</strong> %s</p>", html.EscapeString(msg.Email))
	fmt.Fprintf(&b, "<p>%s</p>", strings.ReplaceAll(html.EscapeString(msg.Message), "\n", "<br>"))
	return b.String()
}
