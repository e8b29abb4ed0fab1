package models

import (
	"errors"
	"time"
)

// Sentinel errors shared across the service layers.
var (
	// ErrNoData means retrieval produced zero usable snippets for a subject.
	// It is a benign outcome, not a pipeline failure.
	ErrNoData = errors.New("no data found for subject")

	// ErrValidation covers rejected input: empty or oversized subject names,
	// out-of-range thresholds, unknown cadences.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned by stores when a row does not exist or is not
	// visible to the requesting owner.
	ErrNotFound = errors.New("not found")
)

// Platform is the categorical provenance bucket of a snippet, used only for
// source breakdown counts.
type Platform string

const (
	PlatformReddit     Platform = "reddit"
	PlatformHackerNews Platform = "hackernews"
	PlatformMastodon   Platform = "mastodon"
	PlatformWeb        Platform = "web"
)

// Bucket is one of the three sentiment classes a snippet can land in.
type Bucket string

const (
	BucketPositive Bucket = "positive"
	BucketNegative Bucket = "negative"
	BucketNeutral  Bucket = "neutral"
)

// Label is the overall sentiment verdict for a whole analysis run.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
	LabelMixed    Label = "mixed"
)

// Cadence is how often a monitor subscription wants to run.
type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// Snippet is one raw text observation about a subject, produced by a
// retrieval source for a single run. Snippets are never persisted.
type Snippet struct {
	Text        string   `json:"text"`
	SourceLabel string   `json:"source_label"` // platform name or hostname
	Author      string   `json:"author,omitempty"`
	URL         string   `json:"url,omitempty"`
	Platform    Platform `json:"platform"`
}

// Exemplar is one illustrative comment surfaced for a sentiment bucket.
type Exemplar struct {
	Text        string `json:"text"`
	SourceLabel string `json:"source_label"`
	Author      string `json:"author,omitempty"`
}

// SentimentSummary is one aggregation result for one subject at one point in
// time. Ratios are integer percentages and always sum to exactly 100.
type SentimentSummary struct {
	ID               string                `json:"id"`
	Subject          string                `json:"subject"`
	OverallLabel     Label                 `json:"overall_label"`
	PositiveRatio    int                   `json:"positive_ratio"`
	NegativeRatio    int                   `json:"negative_ratio"`
	NeutralRatio     int                   `json:"neutral_ratio"`
	NarrativeSummary string                `json:"narrative_summary"`
	KeyThemes        []string              `json:"key_themes"`
	Exemplars        map[Bucket][]Exemplar `json:"exemplars"`
	TotalAnalyzed    int                   `json:"total_analyzed"`
	SourceBreakdown  map[Platform]int      `json:"source_breakdown"`
	GeneratedAt      time.Time             `json:"generated_at"`
}

// TrendPoint is one historical snapshot of a subject's sentiment. Points are
// append-only and ordered by RecordedAt. OverallScore is the positive ratio,
// the single scalar used for change detection.
type TrendPoint struct {
	ID             int64            `json:"id"`
	Subject        string           `json:"subject"`
	PositiveRatio  int              `json:"positive_ratio"`
	NegativeRatio  int              `json:"negative_ratio"`
	NeutralRatio   int              `json:"neutral_ratio"`
	OverallScore   int              `json:"overall_score"`
	PlatformCounts map[Platform]int `json:"platform_counts"`
	TotalCount     int              `json:"total_count"`
	RecordedAt     time.Time        `json:"recorded_at"`
}

// MonitorSubscription is a user's standing request to repeatedly analyze one
// subject. Owner never changes after creation; LastScore is updated only by
// a successful run.
type MonitorSubscription struct {
	ID                     string     `json:"id"`
	Owner                  string     `json:"owner"`
	Subject                string     `json:"subject"`
	Active                 bool       `json:"active"`
	Cadence                Cadence    `json:"cadence"`
	ChangeThresholdPercent int        `json:"change_threshold_percent"` // [5,100]
	NotifyByEmail          bool       `json:"notify_by_email"`
	NotifyInApp            bool       `json:"notify_in_app"`
	LastRunAt              *time.Time `json:"last_run_at,omitempty"`
	LastScore              *int       `json:"last_score,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
}

// ChangeDirection says which way a subject's score moved.
type ChangeDirection string

const (
	DirectionUp   ChangeDirection = "up"
	DirectionDown ChangeDirection = "down"
)

// ChangeEvent is the output of a threshold crossing. It is ephemeral:
// computed, handed to the notifier, and discarded.
type ChangeEvent struct {
	Subject       string          `json:"subject"`
	PreviousScore int             `json:"previous_score"`
	CurrentScore  int             `json:"current_score"`
	Direction     ChangeDirection `json:"direction"`
	Magnitude     int             `json:"magnitude"`
}

// RunStatus describes how a single subscription's monitoring run ended.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunNoData    RunStatus = "no_data"
	RunSkipped   RunStatus = "skipped"
	RunFailed    RunStatus = "failed"
)

// RunOutcome is the per-subscription result element of a monitoring sweep.
// Collecting outcomes explicitly keeps partial failures inspectable instead
// of burying them in log lines.
type RunOutcome struct {
	SubscriptionID string       `json:"subscription_id"`
	Subject        string       `json:"subject"`
	Status         RunStatus    `json:"status"`
	Change         *ChangeEvent `json:"change,omitempty"`
	Err            string       `json:"error,omitempty"`
}

// Notification is the persisted artifact of the in-app delivery channel.
type Notification struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Channels selects which delivery channels a notification goes out on.
type Channels struct {
	Email bool
	InApp bool
}

// ValidCadence reports whether c is one of the supported cadences.
func ValidCadence(c Cadence) bool {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceMonthly:
		return true
	}
	return false
}
