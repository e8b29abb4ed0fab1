package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brandpulse/brandpulse/internal/models"
	_ "modernc.org/sqlite"
)

// Schema for all row stores. Applied on Open.
const schema = `
CREATE TABLE IF NOT EXISTS trend_points (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	subject TEXT NOT NULL,
	positive_ratio INTEGER NOT NULL,
	negative_ratio INTEGER NOT NULL,
	neutral_ratio INTEGER NOT NULL,
	overall_score INTEGER NOT NULL,
	platform_counts TEXT NOT NULL,
	total_count INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trend_points_subject ON trend_points(subject, recorded_at DESC);

CREATE TABLE IF NOT EXISTS summaries (
	id TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	subject TEXT NOT NULL,
	payload TEXT NOT NULL,
	generated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_summaries_owner_subject ON summaries(owner, subject, generated_at DESC);

CREATE TABLE IF NOT EXISTS subscriptions (
	id TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	subject TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 1,
	cadence TEXT NOT NULL,
	change_threshold INTEGER NOT NULL,
	notify_by_email INTEGER NOT NULL DEFAULT 0,
	notify_in_app INTEGER NOT NULL DEFAULT 1,
	last_run_at INTEGER,
	last_score INTEGER,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_owner ON subscriptions(owner);
CREATE INDEX IF NOT EXISTS idx_subscriptions_active ON subscriptions(active);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	read INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_owner ON notifications(owner, created_at DESC);
`

// SQLiteStore implements every row-store interface over a single SQLite
// database file.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ TrendStore        = (*SQLiteStore)(nil)
	_ SummaryStore      = (*SQLiteStore)(nil)
	_ SubscriptionStore = (*SQLiteStore)(nil)
	_ NotificationStore = (*SQLiteStore)(nil)
)

// Open opens (or creates) the SQLite database at dbPath and applies the
// schema.
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("open: empty db path")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open: create db dir: %w", err)
		}
	}

	dsn := "file:" + dbPath + "?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: sql open: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: ping: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- TrendStore ---

// AppendTrendPoint appends a snapshot. Rows are never updated or deleted.
func (s *SQLiteStore) AppendTrendPoint(ctx context.Context, point *models.TrendPoint) error {
	counts, err := json.Marshal(point.PlatformCounts)
	if err != nil {
		return fmt.Errorf("marshal platform counts: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO trend_points (subject, positive_ratio, negative_ratio, neutral_ratio, overall_score, platform_counts, total_count, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		point.Subject, point.PositiveRatio, point.NegativeRatio, point.NeutralRatio,
		point.OverallScore, string(counts), point.TotalCount, point.RecordedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("append trend point: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		point.ID = id
	}
	return nil
}

// ListTrendPoints returns up to limit snapshots for a subject, most recent
// first.
func (s *SQLiteStore) ListTrendPoints(ctx context.Context, subject string, limit int) ([]models.TrendPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject, positive_ratio, negative_ratio, neutral_ratio, overall_score, platform_counts, total_count, recorded_at
		 FROM trend_points WHERE subject = ? ORDER BY recorded_at DESC, id DESC LIMIT ?`,
		subject, limit)
	if err != nil {
		return nil, fmt.Errorf("list trend points: %w", err)
	}
	defer rows.Close()

	var points []models.TrendPoint
	for rows.Next() {
		var p models.TrendPoint
		var counts string
		var recordedAt int64
		if err := rows.Scan(&p.ID, &p.Subject, &p.PositiveRatio, &p.NegativeRatio,
			&p.NeutralRatio, &p.OverallScore, &counts, &p.TotalCount, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		if err := json.Unmarshal([]byte(counts), &p.PlatformCounts); err != nil {
			return nil, fmt.Errorf("unmarshal platform counts: %w", err)
		}
		p.RecordedAt = time.UnixMilli(recordedAt).UTC()
		points = append(points, p)
	}
	return points, rows.Err()
}

// --- SummaryStore ---

// SaveSummary stores the full summary document as a JSON payload column
// alongside the queryable key fields.
func (s *SQLiteStore) SaveSummary(ctx context.Context, owner string, summary *models.SentimentSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO summaries (id, owner, subject, payload, generated_at) VALUES (?, ?, ?, ?, ?)`,
		summary.ID, owner, summary.Subject, string(payload), summary.GeneratedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context, owner, id string) (*models.SentimentSummary, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM summaries WHERE id = ? AND owner = ?`, id, owner).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}

	var summary models.SentimentSummary
	if err := json.Unmarshal([]byte(payload), &summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &summary, nil
}

func (s *SQLiteStore) ListSummaries(ctx context.Context, owner, subject string, limit int) ([]models.SentimentSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM summaries WHERE owner = ? AND subject = ? ORDER BY generated_at DESC LIMIT ?`,
		owner, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.SentimentSummary
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		var summary models.SentimentSummary
		if err := json.Unmarshal([]byte(payload), &summary); err != nil {
			return nil, fmt.Errorf("unmarshal summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// --- SubscriptionStore ---

func (s *SQLiteStore) CreateSubscription(ctx context.Context, sub *models.MonitorSubscription) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, owner, subject, active, cadence, change_threshold, notify_by_email, notify_in_app, last_run_at, last_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Owner, sub.Subject, boolToInt(sub.Active), string(sub.Cadence),
		sub.ChangeThresholdPercent, boolToInt(sub.NotifyByEmail), boolToInt(sub.NotifyInApp),
		timePtrToMilli(sub.LastRunAt), sub.LastScore, sub.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSubscription(ctx context.Context, owner, id string) (*models.MonitorSubscription, error) {
	row := s.db.QueryRowContext(ctx,
		subscriptionColumns+` WHERE id = ? AND owner = ?`, id, owner)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (s *SQLiteStore) ListSubscriptions(ctx context.Context, owner string) ([]models.MonitorSubscription, error) {
	return s.querySubscriptions(ctx, subscriptionColumns+` WHERE owner = ? ORDER BY created_at`, owner)
}

// ListActiveSubscriptions returns every active subscription across owners,
// in creation order. Used only by the monitoring sweep.
func (s *SQLiteStore) ListActiveSubscriptions(ctx context.Context) ([]models.MonitorSubscription, error) {
	return s.querySubscriptions(ctx, subscriptionColumns+` WHERE active = 1 ORDER BY created_at`)
}

// UpdateSubscription rewrites owner-editable fields. Owner and creation
// time are immutable; run bookkeeping goes through UpdateSubscriptionRun.
func (s *SQLiteStore) UpdateSubscription(ctx context.Context, sub *models.MonitorSubscription) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET subject = ?, active = ?, cadence = ?, change_threshold = ?, notify_by_email = ?, notify_in_app = ?
		 WHERE id = ? AND owner = ?`,
		sub.Subject, boolToInt(sub.Active), string(sub.Cadence), sub.ChangeThresholdPercent,
		boolToInt(sub.NotifyByEmail), boolToInt(sub.NotifyInApp), sub.ID, sub.Owner)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return requireRow(res)
}

// UpdateSubscriptionRun records run bookkeeping after a successful run.
func (s *SQLiteStore) UpdateSubscriptionRun(ctx context.Context, id string, lastRunAt time.Time, lastScore int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET last_run_at = ?, last_score = ? WHERE id = ?`,
		lastRunAt.UnixMilli(), lastScore, id)
	if err != nil {
		return fmt.Errorf("update subscription run: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteSubscription(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return requireRow(res)
}

const subscriptionColumns = `SELECT id, owner, subject, active, cadence, change_threshold, notify_by_email, notify_in_app, last_run_at, last_score, created_at FROM subscriptions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*models.MonitorSubscription, error) {
	var sub models.MonitorSubscription
	var active, byEmail, inApp int
	var cadence string
	var lastRunAt, lastScore sql.NullInt64
	var createdAt int64

	err := row.Scan(&sub.ID, &sub.Owner, &sub.Subject, &active, &cadence,
		&sub.ChangeThresholdPercent, &byEmail, &inApp, &lastRunAt, &lastScore, &createdAt)
	if err != nil {
		return nil, err
	}

	sub.Active = active != 0
	sub.Cadence = models.Cadence(cadence)
	sub.NotifyByEmail = byEmail != 0
	sub.NotifyInApp = inApp != 0
	sub.CreatedAt = time.UnixMilli(createdAt).UTC()
	if lastRunAt.Valid {
		t := time.UnixMilli(lastRunAt.Int64).UTC()
		sub.LastRunAt = &t
	}
	if lastScore.Valid {
		score := int(lastScore.Int64)
		sub.LastScore = &score
	}
	return &sub, nil
}

func (s *SQLiteStore) querySubscriptions(ctx context.Context, query string, args ...any) ([]models.MonitorSubscription, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.MonitorSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// --- NotificationStore ---

func (s *SQLiteStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, owner, title, body, read, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.Owner, n.Title, n.Body, boolToInt(n.Read), n.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListNotifications(ctx context.Context, owner string, limit int) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, title, body, read, created_at FROM notifications
		 WHERE owner = ? ORDER BY created_at DESC LIMIT ?`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		var read int
		var createdAt int64
		if err := rows.Scan(&n.ID, &n.Owner, &n.Title, &n.Body, &read, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Read = read != 0
		n.CreatedAt = time.UnixMilli(createdAt).UTC()
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRow(res)
}

// --- helpers ---

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timePtrToMilli(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
