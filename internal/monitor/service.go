// Package monitor owns the per-subscription scheduling logic: deciding when
// a subscription is due, running its analysis pipeline, and raising change
// notifications.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/notifications"
	"github.com/brandpulse/brandpulse/internal/storage"
	"github.com/brandpulse/brandpulse/internal/trend"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// cadenceHours is the minimum elapsed time before a subscription is due
// again.
var cadenceHours = map[models.Cadence]float64{
	models.CadenceDaily:   24,
	models.CadenceWeekly:  168,
	models.CadenceMonthly: 720,
}

const (
	minThresholdPercent = 5
	maxThresholdPercent = 100
)

// Analyzer is the slice of the analysis service the monitor needs.
type Analyzer interface {
	Analyze(ctx context.Context, subject string) (*models.SentimentSummary, error)
	ValidateSubject(subject string) error
}

// Service runs monitor subscriptions through the analysis pipeline.
type Service struct {
	analyzer Analyzer
	tracker  *trend.Tracker
	subs     storage.SubscriptionStore
	notifier notifications.Notifier
}

// NewService creates a new monitor service
func NewService(analyzer Analyzer, tracker *trend.Tracker, subs storage.SubscriptionStore, notifier notifications.Notifier) *Service {
	return &Service{
		analyzer: analyzer,
		tracker:  tracker,
		subs:     subs,
		notifier: notifier,
	}
}

// IsDue reports whether a subscription should run now. A subscription that
// has never run is due immediately.
func IsDue(cadence models.Cadence, lastRunAt *time.Time, now time.Time) bool {
	if lastRunAt == nil {
		return true
	}

	hours, ok := cadenceHours[cadence]
	if !ok {
		return false
	}

	return now.Sub(*lastRunAt).Hours() >= hours
}

// RunAll runs every active, due subscription and returns one outcome per
// subscription. A failure in one run never aborts the remaining ones.
func (s *Service) RunAll(ctx context.Context) ([]models.RunOutcome, error) {
	active, err := s.subs.ListActiveSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}

	logrus.Infof("Monitoring sweep over %d active subscriptions", len(active))
	now := time.Now().UTC()

	outcomes := make([]models.RunOutcome, 0, len(active))
	for i := range active {
		sub := &active[i]

		if !IsDue(sub.Cadence, sub.LastRunAt, now) {
			outcomes = append(outcomes, models.RunOutcome{
				SubscriptionID: sub.ID,
				Subject:        sub.Subject,
				Status:         models.RunSkipped,
			})
			continue
		}

		outcome := s.RunOne(ctx, sub)
		if outcome.Status == models.RunFailed {
			logrus.Errorf("Subscription %s (%q) failed: %s", sub.ID, sub.Subject, outcome.Err)
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// RunOne executes one subscription's pipeline: analyze, record a snapshot,
// compare against the previous score, update run bookkeeping, and notify on
// a significant change. A zero-result retrieval is a benign no-op: nothing
// recorded, nothing updated, nothing emitted.
func (s *Service) RunOne(ctx context.Context, sub *models.MonitorSubscription) models.RunOutcome {
	outcome := models.RunOutcome{
		SubscriptionID: sub.ID,
		Subject:        sub.Subject,
	}

	summary, err := s.analyzer.Analyze(ctx, sub.Subject)
	if errors.Is(err, models.ErrNoData) {
		logrus.Infof("No data for %q, skipping run", sub.Subject)
		outcome.Status = models.RunNoData
		return outcome
	}
	if err != nil {
		outcome.Status = models.RunFailed
		outcome.Err = err.Error()
		return outcome
	}

	point, err := s.tracker.RecordSnapshot(ctx, summary)
	if err != nil {
		outcome.Status = models.RunFailed
		outcome.Err = err.Error()
		return outcome
	}

	change := trend.ComputeChange(sub.Subject, sub.LastScore, point.OverallScore, sub.ChangeThresholdPercent)

	// Bookkeeping is updated even when nothing significant happened, so the
	// next run has the right baseline and due time.
	if err := s.subs.UpdateSubscriptionRun(ctx, sub.ID, point.RecordedAt, point.OverallScore); err != nil {
		outcome.Status = models.RunFailed
		outcome.Err = err.Error()
		return outcome
	}
	sub.LastRunAt = &point.RecordedAt
	score := point.OverallScore
	sub.LastScore = &score

	outcome.Status = models.RunCompleted
	outcome.Change = change

	if change != nil && (sub.NotifyInApp || sub.NotifyByEmail) {
		title, body := notifications.ChangeEventContent(change)
		channels := models.Channels{Email: sub.NotifyByEmail, InApp: sub.NotifyInApp}
		if err := s.notifier.Send(ctx, sub.Owner, title, body, channels); err != nil {
			// Delivery is fire-and-forget; a notification failure does not
			// fail the run.
			logrus.Errorf("Failed to notify %s about %q: %v", sub.Owner, sub.Subject, err)
		}
	}

	return outcome
}

// CreateSubscription validates and stores a new subscription for an owner.
func (s *Service) CreateSubscription(ctx context.Context, sub *models.MonitorSubscription) error {
	if err := s.validateSubscription(sub); err != nil {
		return err
	}

	sub.ID = uuid.NewString()
	sub.Subject = strings.TrimSpace(sub.Subject)
	sub.CreatedAt = time.Now().UTC()
	sub.LastRunAt = nil
	sub.LastScore = nil

	if err := s.subs.CreateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}

	logrus.Infof("Created subscription %s for %q (owner %s, %s)", sub.ID, sub.Subject, sub.Owner, sub.Cadence)
	return nil
}

// UpdateSubscription applies owner edits after validation. The store scopes
// the update to the owner, so a non-owner gets ErrNotFound.
func (s *Service) UpdateSubscription(ctx context.Context, sub *models.MonitorSubscription) error {
	if err := s.validateSubscription(sub); err != nil {
		return err
	}
	sub.Subject = strings.TrimSpace(sub.Subject)
	return s.subs.UpdateSubscription(ctx, sub)
}

// DeleteSubscription removes an owner's subscription.
func (s *Service) DeleteSubscription(ctx context.Context, owner, id string) error {
	return s.subs.DeleteSubscription(ctx, owner, id)
}

func (s *Service) validateSubscription(sub *models.MonitorSubscription) error {
	if sub.Owner == "" {
		return fmt.Errorf("%w: owner is required", models.ErrValidation)
	}
	if err := s.analyzer.ValidateSubject(sub.Subject); err != nil {
		return err
	}
	if !models.ValidCadence(sub.Cadence) {
		return fmt.Errorf("%w: unknown cadence %q", models.ErrValidation, sub.Cadence)
	}
	if sub.ChangeThresholdPercent < minThresholdPercent || sub.ChangeThresholdPercent > maxThresholdPercent {
		return fmt.Errorf("%w: change threshold must be between %d and %d",
			models.ErrValidation, minThresholdPercent, maxThresholdPercent)
	}
	return nil
}
