// Package trend tracks how a subject's sentiment evolves across analysis
// runs and decides when a swing is large enough to matter.
package trend

import (
	"context"
	"fmt"
	"time"

	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/storage"
	"github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 30

// Tracker persists sentiment snapshots and computes score changes between
// runs. History lives in an injected append-only store, never in package
// state.
type Tracker struct {
	store storage.TrendStore
}

// NewTracker creates a tracker over the given store
func NewTracker(store storage.TrendStore) *Tracker {
	return &Tracker{store: store}
}

// RecordSnapshot appends a trend point derived from a summary. The overall
// score is the positive ratio: the single scalar compared between runs.
func (t *Tracker) RecordSnapshot(ctx context.Context, summary *models.SentimentSummary) (*models.TrendPoint, error) {
	point := &models.TrendPoint{
		Subject:        summary.Subject,
		PositiveRatio:  summary.PositiveRatio,
		NegativeRatio:  summary.NegativeRatio,
		NeutralRatio:   summary.NeutralRatio,
		OverallScore:   summary.PositiveRatio,
		PlatformCounts: summary.SourceBreakdown,
		TotalCount:     summary.TotalAnalyzed,
		RecordedAt:     time.Now().UTC(),
	}

	if err := t.store.AppendTrendPoint(ctx, point); err != nil {
		return nil, fmt.Errorf("record snapshot: %w", err)
	}

	logrus.Debugf("Recorded trend point for %q: score=%d total=%d",
		point.Subject, point.OverallScore, point.TotalCount)
	return point, nil
}

// History returns up to limit snapshots for a subject, most recent first.
// A non-positive limit means the default of 30.
func (t *Tracker) History(ctx context.Context, subject string, limit int) ([]models.TrendPoint, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return t.store.ListTrendPoints(ctx, subject, limit)
}

// ComputeChange compares the current score against the previous one and
// returns a change event when the move meets the threshold. A nil previous
// score means a first-ever run with no baseline: never an event. Magnitude
// exactly equal to the threshold counts as significant.
func ComputeChange(subject string, previous *int, current, threshold int) *models.ChangeEvent {
	if previous == nil {
		return nil
	}

	magnitude := current - *previous
	direction := models.DirectionUp
	if magnitude < 0 {
		magnitude = -magnitude
		direction = models.DirectionDown
	}

	if magnitude < threshold {
		return nil
	}

	return &models.ChangeEvent{
		Subject:       subject,
		PreviousScore: *previous,
		CurrentScore:  current,
		Direction:     direction,
		Magnitude:     magnitude,
	}
}
