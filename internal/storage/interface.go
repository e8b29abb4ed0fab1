package storage

import (
	"context"
	"time"

	"github.com/brandpulse/brandpulse/internal/models"
)

// TrendStore is an append-only history of sentiment snapshots per subject.
type TrendStore interface {
	AppendTrendPoint(ctx context.Context, point *models.TrendPoint) error
	ListTrendPoints(ctx context.Context, subject string, limit int) ([]models.TrendPoint, error)
}

// SummaryStore persists analysis results.
type SummaryStore interface {
	SaveSummary(ctx context.Context, owner string, summary *models.SentimentSummary) error
	GetSummary(ctx context.Context, owner, id string) (*models.SentimentSummary, error)
	ListSummaries(ctx context.Context, owner, subject string, limit int) ([]models.SentimentSummary, error)
}

// SubscriptionStore persists monitor subscriptions. Owner scoping is
// enforced at this layer: a row is only visible to and mutable by its owner.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, sub *models.MonitorSubscription) error
	GetSubscription(ctx context.Context, owner, id string) (*models.MonitorSubscription, error)
	ListSubscriptions(ctx context.Context, owner string) ([]models.MonitorSubscription, error)
	ListActiveSubscriptions(ctx context.Context) ([]models.MonitorSubscription, error)
	UpdateSubscription(ctx context.Context, sub *models.MonitorSubscription) error
	UpdateSubscriptionRun(ctx context.Context, id string, lastRunAt time.Time, lastScore int) error
	DeleteSubscription(ctx context.Context, owner, id string) error
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	SaveNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, owner string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, owner, id string) error
}

// Archiver stores raw summary documents outside the row stores, for
// long-term retention. Archive failures are never fatal to a run.
type Archiver interface {
	Archive(ctx context.Context, summary *models.SentimentSummary) error
}
