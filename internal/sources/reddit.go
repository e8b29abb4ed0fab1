package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/russross/blackfriday/v2"
	"github.com/sirupsen/logrus"
)

// RedditSource implements the Reddit public search API source
type RedditSource struct {
	client *resty.Client
	limit  int
}

type redditSearchResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	Created     float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

// NewRedditSource creates a new Reddit source
func NewRedditSource(limit int) *RedditSource {
	return &RedditSource{
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", "BrandPulse-Bot/1.0"),
		limit: limit,
	}
}

func (r *RedditSource) GetName() string {
	return "reddit"
}

func (r *RedditSource) Platform() models.Platform {
	return models.PlatformReddit
}

func (r *RedditSource) IsEnabled() bool {
	return true // public search endpoint requires no credentials
}

func (r *RedditSource) Search(ctx context.Context, subject string) ([]models.Snippet, error) {
	query := url.QueryEscape(subject)
	searchURL := fmt.Sprintf("https://www.reddit.com/search.json?q=%s&sort=new&limit=%d", query, r.limit)

	resp, err := r.client.R().
		SetContext(ctx).
		Get(searchURL)

	if err != nil {
		return nil, fmt.Errorf("reddit search failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var searchResp redditSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("reddit response decode failed: %w", err)
	}

	var snippets []models.Snippet
	subjectLower := strings.ToLower(subject)

	for _, child := range searchResp.Data.Children {
		post := child.Data

		text := post.Title
		if post.Selftext != "" {
			text = post.Title + ". " + markdownToText(post.Selftext)
		}

		// Reddit search matches are fuzzy; keep only posts that actually
		// mention the subject.
		if !strings.Contains(strings.ToLower(text), subjectLower) {
			continue
		}

		snippets = append(snippets, models.Snippet{
			Text:        text,
			SourceLabel: fmt.Sprintf("r/%s", post.Subreddit),
			Author:      post.Author,
			URL:         fmt.Sprintf("https://reddit.com%s", post.Permalink),
			Platform:    models.PlatformReddit,
		})
	}

	logrus.Debugf("Reddit returned %d snippets for %q", len(snippets), subject)
	return snippets, nil
}

var (
	mdLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?://[^\s\)]+)\)`)
	urlPattern    = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern    = regexp.MustCompile(`<[^>]+>`)
)

// markdownToText renders Reddit markdown to plain text so the classifier
// never sees link syntax or formatting noise.
func markdownToText(input string) string {
	input = mdLinkPattern.ReplaceAllString(input, "$1")

	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plain := tagPattern.ReplaceAllString(string(output), " ")
	plain = urlPattern.ReplaceAllString(plain, "")

	return strings.Join(strings.Fields(plain), " ")
}
