package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a canned batch or a canned error.
type fakeSource struct {
	name     string
	platform models.Platform
	snippets []models.Snippet
	err      error
}

func (f *fakeSource) GetName() string           { return f.name }
func (f *fakeSource) Platform() models.Platform { return f.platform }
func (f *fakeSource) IsEnabled() bool           { return true }

func (f *fakeSource) Search(ctx context.Context, subject string) ([]models.Snippet, error) {
	return f.snippets, f.err
}

func redditSnippet(text string) models.Snippet {
	return models.Snippet{Text: text, SourceLabel: "r/gadgets", Platform: models.PlatformReddit}
}

func hnSnippet(text string) models.Snippet {
	return models.Snippet{Text: text, SourceLabel: "Hacker News", Platform: models.PlatformHackerNews}
}

func newService(t *testing.T, srcs ...*fakeSource) *Service {
	t.Helper()

	converted := make([]sources.Source, 0, len(srcs))
	for _, src := range srcs {
		converted = append(converted, src)
	}

	classifier := &FallbackChain{Fallback: NewLocalClassifier()}
	return NewService(converted, classifier, 200)
}

func TestService_Analyze(t *testing.T) {
	reddit := &fakeSource{
		name:     "reddit",
		platform: models.PlatformReddit,
		snippets: []models.Snippet{
			redditSnippet("The widget works great, love it so much"),
			redditSnippet("the widget WORKS great, love it so much"), // dedup victim
			redditSnippet("Terrible battery, broken after two weeks"),
		},
	}
	hn := &fakeSource{
		name:     "hackernews",
		platform: models.PlatformHackerNews,
		snippets: []models.Snippet{
			hnSnippet("Evaluated the widget at work, nothing remarkable"),
		},
	}

	service := newService(t, reddit, hn)
	summary, err := service.Analyze(context.Background(), "widget")

	require.NoError(t, err)
	assert.Equal(t, "widget", summary.Subject)
	assert.NotEmpty(t, summary.ID)
	assert.False(t, summary.GeneratedAt.IsZero())

	// Breakdown counts raw retrieval volume, before dedup collapses the
	// duplicated reddit snippet; TotalAnalyzed counts dedup survivors.
	assert.Equal(t, 3, summary.SourceBreakdown[models.PlatformReddit])
	assert.Equal(t, 1, summary.SourceBreakdown[models.PlatformHackerNews])
	assert.Equal(t, 3, summary.TotalAnalyzed)

	assert.Equal(t, 100, summary.PositiveRatio+summary.NegativeRatio+summary.NeutralRatio)
}

func TestService_Analyze_FailingSourceIsExcluded(t *testing.T) {
	healthy := &fakeSource{
		name:     "reddit",
		platform: models.PlatformReddit,
		snippets: []models.Snippet{
			redditSnippet("The widget works great, highly recommend it"),
		},
	}
	broken := &fakeSource{
		name:     "hackernews",
		platform: models.PlatformHackerNews,
		err:      errors.New("connection refused"),
	}

	service := newService(t, healthy, broken)
	summary, err := service.Analyze(context.Background(), "widget")

	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalAnalyzed)
	assert.NotContains(t, summary.SourceBreakdown, models.PlatformHackerNews)
}

func TestService_Analyze_NoData(t *testing.T) {
	empty := &fakeSource{name: "reddit", platform: models.PlatformReddit}
	failing := &fakeSource{name: "hackernews", platform: models.PlatformHackerNews, err: errors.New("boom")}

	service := newService(t, empty, failing)
	_, err := service.Analyze(context.Background(), "widget")

	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestService_Analyze_ShortSnippetsOnlyIsNoData(t *testing.T) {
	source := &fakeSource{
		name:     "reddit",
		platform: models.PlatformReddit,
		snippets: []models.Snippet{redditSnippet("nice"), redditSnippet("meh")},
	}

	service := newService(t, source)
	_, err := service.Analyze(context.Background(), "widget")

	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestService_ValidateSubject(t *testing.T) {
	service := newService(t)

	tests := []struct {
		name    string
		subject string
		wantErr bool
	}{
		{"valid", "Acme Widget", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("x", 201), true},
		{"exactly at limit", strings.Repeat("x", 200), false},
		{"multi-byte under limit", strings.Repeat("製品", 35), false}, // 70 chars, 210 bytes
		{"multi-byte over limit", strings.Repeat("製品", 101), true},  // 202 chars
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidateSubject(tt.subject)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
