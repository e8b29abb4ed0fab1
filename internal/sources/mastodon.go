package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// MastodonSource searches the public timeline of a Mastodon instance
type MastodonSource struct {
	instance string
	client   *resty.Client
	limit    int
}

type mastodonSearchResponse struct {
	Statuses []mastodonStatus `json:"statuses"`
}

type mastodonStatus struct {
	ID      string `json:"id"`
	Content string `json:"content"` // HTML
	URL     string `json:"url"`
	Account struct {
		Acct string `json:"acct"`
	} `json:"account"`
}

// NewMastodonSource creates a new Mastodon source for the given instance
func NewMastodonSource(instance string, limit int) *MastodonSource {
	return &MastodonSource{
		instance: instance,
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", "BrandPulse-Bot/1.0"),
		limit: limit,
	}
}

func (m *MastodonSource) GetName() string {
	return "mastodon"
}

func (m *MastodonSource) Platform() models.Platform {
	return models.PlatformMastodon
}

func (m *MastodonSource) IsEnabled() bool {
	return m.instance != ""
}

func (m *MastodonSource) Search(ctx context.Context, subject string) ([]models.Snippet, error) {
	if !m.IsEnabled() {
		logrus.Debug("Mastodon source disabled - no instance configured")
		return nil, nil
	}

	searchURL := fmt.Sprintf("https://%s/api/v2/search", m.instance)

	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     subject,
			"type":  "statuses",
			"limit": fmt.Sprintf("%d", m.limit),
		}).
		Get(searchURL)

	if err != nil {
		return nil, fmt.Errorf("mastodon search failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("mastodon API returned status %d", resp.StatusCode())
	}

	var searchResp mastodonSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("mastodon response decode failed: %w", err)
	}

	var snippets []models.Snippet
	for _, status := range searchResp.Statuses {
		text := htmlToText(status.Content)
		if text == "" {
			continue
		}

		snippets = append(snippets, models.Snippet{
			Text:        text,
			SourceLabel: m.instance,
			Author:      status.Account.Acct,
			URL:         status.URL,
			Platform:    models.PlatformMastodon,
		})
	}

	logrus.Debugf("Mastodon returned %d snippets for %q", len(snippets), subject)
	return snippets, nil
}

// htmlToText strips status HTML down to whitespace-normalized plain text.
func htmlToText(input string) string {
	plain := tagPattern.ReplaceAllString(input, " ")
	plain = urlPattern.ReplaceAllString(plain, "")
	return strings.Join(strings.Fields(plain), " ")
}
