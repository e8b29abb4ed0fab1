package notifications

import (
	"context"

	"github.com/brandpulse/brandpulse/internal/models"
)

// Notifier delivers a notification to an owner over the selected channels.
// Delivery is fire-and-forget from the caller's perspective.
type Notifier interface {
	Send(ctx context.Context, owner, title, body string, channels models.Channels) error
}
