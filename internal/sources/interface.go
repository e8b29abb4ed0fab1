package sources

import (
	"context"

	"github.com/brandpulse/brandpulse/internal/models"
)

// Source interface defines the contract for all retrieval collaborators.
// A source turns a subject name into a batch of raw text snippets.
type Source interface {
	GetName() string
	Platform() models.Platform
	Search(ctx context.Context, subject string) ([]models.Snippet, error)
	IsEnabled() bool
}
