package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/storage"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service delivers notifications via email, webhook, and in-app rows.
type Service struct {
	config *config.Config
	store  storage.NotificationStore
	client *resty.Client
}

// Ensure Service implements Notifier
var _ Notifier = (*Service)(nil)

// webhookMessage is the JSON payload posted to the configured webhook.
type webhookMessage struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config, store storage.NotificationStore) *Service {
	return &Service{
		config: cfg,
		store:  store,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// Send delivers title/body to the owner on each enabled channel. Channel
// failures are collected so a broken SMTP host never blocks the in-app row,
// and vice versa. The webhook, when configured, fires for every delivery.
func (s *Service) Send(ctx context.Context, owner, title, body string, channels models.Channels) error {
	var errors []string

	if channels.InApp {
		if err := s.saveInApp(ctx, owner, title, body); err != nil {
			logrus.Errorf("Failed to save in-app notification: %v", err)
			errors = append(errors, fmt.Sprintf("in-app: %v", err))
		} else {
			logrus.Debugf("Saved in-app notification for %s", owner)
		}
	}

	if channels.Email && s.config.EmailConfigured() {
		if err := s.sendEmail(title, body); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("email: %v", err))
		} else {
			logrus.Infof("Sent email notification to %s", s.config.EmailTo)
		}
	}

	if s.config.WebhookURL != "" {
		if err := s.sendWebhook(ctx, title, body); err != nil {
			logrus.Errorf("Failed to send webhook notification: %v", err)
			errors = append(errors, fmt.Sprintf("webhook: %v", err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) saveInApp(ctx context.Context, owner, title, body string) error {
	return s.store.SaveNotification(ctx, &models.Notification{
		ID:        uuid.NewString(),
		Owner:     owner,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *Service) sendEmail(title, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.EmailTo)
	m.SetHeader("Subject", title)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) sendWebhook(ctx context.Context, title, body string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(&webhookMessage{Title: title, Text: body}).
		Post(s.config.WebhookURL)

	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

// ChangeEventContent renders the notification title and body for a change
// event.
func ChangeEventContent(event *models.ChangeEvent) (title, body string) {
	arrow := "risen"
	if event.Direction == models.DirectionDown {
		arrow = "dropped"
	}

	title = fmt.Sprintf("Sentiment alert: %s", event.Subject)
	body = fmt.Sprintf("Positive sentiment for %s has %s from %d%% to %d%% (change of %d points).",
		event.Subject, arrow, event.PreviousScore, event.CurrentScore, event.Magnitude)
	return title, body
}
