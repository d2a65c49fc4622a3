// Package email provides the email client for sending critical alert emails.
package email

import (
	"fmt"
	"time"

	"github.com/resendlabs/resend-go"

	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/email/templates"
	"github.com/AtRiskMedia/cmi-charts/pkg/config"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendCriticalAlert(job string, cause error, occurredAt time.Time) error
	Enabled() bool
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	send        func(*resend.SendEmailRequest) error
	fromEmail   string
	toEmail     string
	displayName string
}

// NewService creates a new email service client, returning the Service interface.
// Without RESEND_API_KEY or ALERT_MAIL_TO the service silently drops alerts.
func NewService(cfg *config.Config) Service {
	if cfg.ResendAPIKey == "" || cfg.AlertMailTo == "" {
		return disabledService{}
	}

	client := resend.NewClient(cfg.ResendAPIKey)
	return newResendClient(func(req *resend.SendEmailRequest) error {
		_, err := client.Emails.Send(req)
		return err
	}, cfg)
}

func newResendClient(send func(*resend.SendEmailRequest) error, cfg *config.Config) *ResendClient {
	return &ResendClient{
		send:        send,
		fromEmail:   cfg.AdminMail,
		toEmail:     cfg.AlertMailTo,
		displayName: cfg.DisplayName,
	}
}

// Subject returns the subject line of critical alert mails.
func Subject(displayName string) string {
	return displayName + " - ERRORE CRITICO"
}

// SendCriticalAlert composes and sends the critical alert email.
func (c *ResendClient) SendCriticalAlert(job string, cause error, occurredAt time.Time) error {
	content := templates.GetCriticalAlertContent(templates.CriticalAlertProps{
		DisplayName: c.displayName,
		Job:         job,
		Error:       cause.Error(),
		OccurredAt:  occurredAt.Format(time.RFC3339),
	})

	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Title:     Subject(c.displayName),
		Preheader: fmt.Sprintf("Errore nel processo %s", job),
		Content:   content,
	})

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.displayName, c.fromEmail),
		To:      []string{c.toEmail},
		Subject: Subject(c.displayName),
		Html:    htmlContent,
	}

	if err := c.send(params); err != nil {
		return fmt.Errorf("failed to send critical alert via Resend: %w", err)
	}
	return nil
}

// Enabled reports whether alerts are delivered.
func (c *ResendClient) Enabled() bool { return true }

type disabledService struct{}

func (disabledService) SendCriticalAlert(string, error, time.Time) error { return nil }
func (disabledService) Enabled() bool                                    { return false }
