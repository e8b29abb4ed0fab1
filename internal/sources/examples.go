package sources

import (
	"context"
	"fmt"

	"github.com/brandpulse/brandpulse/internal/models"
)

// ExampleSource serves a fixed built-in snippet set. It stands in for live
// sources in development and demos, where outbound API access is either
// unavailable or unwanted.
type ExampleSource struct {
	platform models.Platform
}

// NewExampleSource creates an example source tagged with the given platform
func NewExampleSource(platform models.Platform) *ExampleSource {
	return &ExampleSource{platform: platform}
}

func (e *ExampleSource) GetName() string {
	return fmt.Sprintf("examples-%s", e.platform)
}

func (e *ExampleSource) Platform() models.Platform {
	return e.platform
}

func (e *ExampleSource) IsEnabled() bool {
	return true
}

func (e *ExampleSource) Search(ctx context.Context, subject string) ([]models.Snippet, error) {
	templates, ok := exampleTexts[e.platform]
	if !ok {
		templates = exampleTexts[models.PlatformWeb]
	}

	snippets := make([]models.Snippet, 0, len(templates))
	for _, tmpl := range templates {
		snippets = append(snippets, models.Snippet{
			Text:        fmt.Sprintf(tmpl, subject),
			SourceLabel: string(e.platform) + " (sample)",
			Author:      "sample_user",
			Platform:    e.platform,
		})
	}

	return snippets, nil
}

// One %s per template, filled with the subject. Mixed sentiment on purpose
// so sample runs exercise every bucket.
var exampleTexts = map[models.Platform][]string{
	models.PlatformReddit: {
		"Been using %s for about three months now and honestly it works great, no complaints at all.",
		"Is anyone else having problems with %s lately? Mine keeps failing after the latest update.",
		"Just picked up %s yesterday, still setting everything up so no opinion yet.",
		"%s support was super helpful when my unit arrived damaged, replacement shipped same day. Excellent service.",
	},
	models.PlatformHackerNews: {
		"We evaluated %s for our team and the results were impressive, rollout went smoothly.",
		"The %s pricing change is terrible. We're actively looking for alternatives after this bug-ridden release.",
		"Does %s have a public API? Looking at the docs now, seems fairly standard.",
	},
	models.PlatformMastodon: {
		"Really love what the %s team shipped this week, fantastic update!",
		"My %s subscription renewed at a higher price with zero notice. Awful experience, cancelling.",
		"Comparing %s with a few competitors this weekend, will post notes later.",
	},
	models.PlatformWeb: {
		"Review roundup: %s scores well on reliability, though shipping times disappoint some buyers.",
		"%s announced a new product line this quarter according to several industry outlets.",
	},
}
