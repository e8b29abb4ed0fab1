package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "brandpulse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "brandpulse.db")
	store, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestTrendPoints_AppendAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		point := &models.TrendPoint{
			Subject:       "widget",
			PositiveRatio: 50 + i,
			NegativeRatio: 30,
			NeutralRatio:  20 - i,
			OverallScore:  50 + i,
			PlatformCounts: map[models.Platform]int{
				models.PlatformReddit:     3,
				models.PlatformHackerNews: 2,
			},
			TotalCount: 5,
			RecordedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.AppendTrendPoint(ctx, point))
		assert.NotZero(t, point.ID, "insert assigns the row id")
	}
	// A different subject must never leak into widget's history.
	require.NoError(t, store.AppendTrendPoint(ctx, &models.TrendPoint{
		Subject:        "gadget",
		PositiveRatio:  10,
		NegativeRatio:  80,
		NeutralRatio:   10,
		OverallScore:   10,
		PlatformCounts: map[models.Platform]int{models.PlatformWeb: 1},
		TotalCount:     1,
		RecordedAt:     base,
	}))

	points, err := store.ListTrendPoints(ctx, "widget", 3)
	require.NoError(t, err)
	require.Len(t, points, 3)

	// Most recent first.
	assert.Equal(t, 54, points[0].OverallScore)
	assert.Equal(t, 53, points[1].OverallScore)
	assert.Equal(t, 52, points[2].OverallScore)
	assert.Equal(t, base.Add(4*time.Hour), points[0].RecordedAt)
	assert.Equal(t, map[models.Platform]int{
		models.PlatformReddit:     3,
		models.PlatformHackerNews: 2,
	}, points[0].PlatformCounts)
}

func TestTrendPoints_UnknownSubjectIsEmpty(t *testing.T) {
	store := openTestStore(t)
	points, err := store.ListTrendPoints(context.Background(), "nobody-mentions-this", 10)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestSummaries_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	summary := &models.SentimentSummary{
		ID:               "sum-1",
		Subject:          "widget",
		OverallLabel:     models.LabelPositive,
		PositiveRatio:    70,
		NegativeRatio:    10,
		NeutralRatio:     20,
		NarrativeSummary: "Mostly favorable chatter about widget.",
		KeyThemes:        []string{"reliability", "pricing"},
		Exemplars: map[models.Bucket][]models.Exemplar{
			models.BucketPositive: {
				{Text: "widget works great for us", SourceLabel: "reddit", Author: "u/widgetfan"},
			},
		},
		TotalAnalyzed: 12,
		SourceBreakdown: map[models.Platform]int{
			models.PlatformReddit:   8,
			models.PlatformMastodon: 4,
		},
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.SaveSummary(ctx, "alice", summary))

	got, err := store.GetSummary(ctx, "alice", "sum-1")
	require.NoError(t, err)
	assert.Equal(t, summary, got)

	// Owner scoping.
	_, err = store.GetSummary(ctx, "mallory", "sum-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSummaries_ListIsOwnerAndSubjectScoped(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	save := func(id, owner, subject string, at time.Time) {
		require.NoError(t, store.SaveSummary(ctx, owner, &models.SentimentSummary{
			ID: id, Subject: subject, OverallLabel: models.LabelNeutral,
			NeutralRatio: 100, TotalAnalyzed: 1, GeneratedAt: at,
		}))
	}
	save("a1", "alice", "widget", base)
	save("a2", "alice", "widget", base.Add(time.Hour))
	save("a3", "alice", "gadget", base)
	save("b1", "bob", "widget", base)

	summaries, err := store.ListSummaries(ctx, "alice", "widget", 10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "a2", summaries[0].ID)
	assert.Equal(t, "a1", summaries[1].ID)
}

func TestSubscriptions_CRUD(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sub := &models.MonitorSubscription{
		ID:                     "sub-1",
		Owner:                  "alice",
		Subject:                "widget",
		Active:                 true,
		Cadence:                models.CadenceWeekly,
		ChangeThresholdPercent: 15,
		NotifyByEmail:          true,
		NotifyInApp:            true,
		CreatedAt:              time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateSubscription(ctx, sub))

	got, err := store.GetSubscription(ctx, "alice", "sub-1")
	require.NoError(t, err)
	assert.Equal(t, sub, got)

	// Edits are scoped to the owner.
	got.Cadence = models.CadenceDaily
	got.NotifyByEmail = false
	require.NoError(t, store.UpdateSubscription(ctx, got))

	stranger := *got
	stranger.Owner = "mallory"
	assert.ErrorIs(t, store.UpdateSubscription(ctx, &stranger), models.ErrNotFound)

	updated, err := store.GetSubscription(ctx, "alice", "sub-1")
	require.NoError(t, err)
	assert.Equal(t, models.CadenceDaily, updated.Cadence)
	assert.False(t, updated.NotifyByEmail)

	assert.ErrorIs(t, store.DeleteSubscription(ctx, "mallory", "sub-1"), models.ErrNotFound)
	require.NoError(t, store.DeleteSubscription(ctx, "alice", "sub-1"))
	_, err = store.GetSubscription(ctx, "alice", "sub-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSubscriptions_UpdateRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sub := &models.MonitorSubscription{
		ID: "sub-1", Owner: "alice", Subject: "widget", Active: true,
		Cadence: models.CadenceDaily, ChangeThresholdPercent: 10, NotifyInApp: true,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateSubscription(ctx, sub))

	ranAt := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpdateSubscriptionRun(ctx, "sub-1", ranAt, 64))

	got, err := store.GetSubscription(ctx, "alice", "sub-1")
	require.NoError(t, err)
	require.NotNil(t, got.LastRunAt)
	assert.Equal(t, ranAt, *got.LastRunAt)
	require.NotNil(t, got.LastScore)
	assert.Equal(t, 64, *got.LastScore)

	assert.ErrorIs(t, store.UpdateSubscriptionRun(ctx, "ghost", ranAt, 64), models.ErrNotFound)
}

func TestSubscriptions_ListActive(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	create := func(id, owner string, active bool, at time.Time) {
		require.NoError(t, store.CreateSubscription(ctx, &models.MonitorSubscription{
			ID: id, Owner: owner, Subject: "widget", Active: active,
			Cadence: models.CadenceDaily, ChangeThresholdPercent: 10,
			NotifyInApp: true, CreatedAt: at,
		}))
	}
	create("sub-1", "alice", true, base)
	create("sub-2", "alice", false, base.Add(time.Minute))
	create("sub-3", "bob", true, base.Add(2*time.Minute))

	active, err := store.ListActiveSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "sub-1", active[0].ID)
	assert.Equal(t, "sub-3", active[1].ID)

	mine, err := store.ListSubscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "sub-1", mine[0].ID)
	assert.Equal(t, "sub-2", mine[1].ID)
}

func TestNotifications_SaveListMarkRead(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"n-1", "n-2"} {
		require.NoError(t, store.SaveNotification(ctx, &models.Notification{
			ID:        id,
			Owner:     "alice",
			Title:     "Sentiment shift for widget",
			Body:      "Positive sentiment moved.",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.SaveNotification(ctx, &models.Notification{
		ID: "n-3", Owner: "bob", Title: "t", Body: "b", CreatedAt: base,
	}))

	list, err := store.ListNotifications(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n-2", list[0].ID)
	assert.False(t, list[0].Read)

	require.NoError(t, store.MarkNotificationRead(ctx, "alice", "n-1"))
	assert.ErrorIs(t, store.MarkNotificationRead(ctx, "bob", "n-1"), models.ErrNotFound)

	list, err = store.ListNotifications(ctx, "alice", 10)
	require.NoError(t, err)
	for _, n := range list {
		if n.ID == "n-1" {
			assert.True(t, n.Read)
		} else {
			assert.False(t, n.Read)
		}
	}
}
