package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// HackerNewsSource implements the Hacker News Algolia search source
type HackerNewsSource struct {
	client *resty.Client
	limit  int
}

type hnSearchResponse struct {
	Hits []hnHit `json:"hits"`
}

type hnHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	StoryTitle  string `json:"story_title"`
	CommentText string `json:"comment_text"`
	StoryText   string `json:"story_text"`
	Author      string `json:"author"`
	URL         string `json:"url"`
}

// NewHackerNewsSource creates a new Hacker News source
func NewHackerNewsSource(limit int) *HackerNewsSource {
	return &HackerNewsSource{
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", "BrandPulse-Bot/1.0"),
		limit: limit,
	}
}

func (h *HackerNewsSource) GetName() string {
	return "hackernews"
}

func (h *HackerNewsSource) Platform() models.Platform {
	return models.PlatformHackerNews
}

func (h *HackerNewsSource) IsEnabled() bool {
	return true // Algolia search API doesn't require authentication
}

func (h *HackerNewsSource) Search(ctx context.Context, subject string) ([]models.Snippet, error) {
	query := url.QueryEscape(subject)
	searchURL := fmt.Sprintf("https://hn.algolia.com/api/v1/search_by_date?query=%s&tags=(story,comment)&hitsPerPage=%d", query, h.limit)

	resp, err := h.client.R().
		SetContext(ctx).
		Get(searchURL)

	if err != nil {
		return nil, fmt.Errorf("hacker news search failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("hacker news API returned status %d", resp.StatusCode())
	}

	var searchResp hnSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("hacker news response decode failed: %w", err)
	}

	var snippets []models.Snippet
	for _, hit := range searchResp.Hits {
		text := hit.Title
		switch {
		case hit.CommentText != "":
			text = markdownToText(hit.CommentText)
		case hit.StoryText != "":
			text = hit.Title + ". " + markdownToText(hit.StoryText)
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		itemURL := hit.URL
		if itemURL == "" {
			itemURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%s", hit.ObjectID)
		}

		snippets = append(snippets, models.Snippet{
			Text:        text,
			SourceLabel: "Hacker News",
			Author:      hit.Author,
			URL:         itemURL,
			Platform:    models.PlatformHackerNews,
		})
	}

	logrus.Debugf("Hacker News returned %d snippets for %q", len(snippets), subject)
	return snippets, nil
}
