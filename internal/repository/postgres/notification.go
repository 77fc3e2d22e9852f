package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shestoi/railbook/internal/repository"
)

// NotificationRepository implements repository.NotificationRepository on the notifications,
// notification_preferences and notification_inbox_events tables.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Insert(ctx context.Context, n repository.Notification) error {
	id, err := uuid.Parse(n.ID)
	if err != nil {
		id = uuid.New()
	}
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if n.Metadata == nil {
		metadata = []byte("{}")
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message, read, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		id, n.UserID, string(n.Type), n.Title, n.Message, n.Read, metadata, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func scanNotification(row pgx.Row) (repository.Notification, error) {
	var (
		n        repository.Notification
		id       uuid.UUID
		typ      string
		metadata []byte
	)
	if err := row.Scan(&id, &n.UserID, &typ, &n.Title, &n.Message, &n.Read, &metadata, &n.CreatedAt); err != nil {
		return repository.Notification{}, err
	}
	n.ID = id.String()
	n.Type = repository.NotificationType(typ)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return repository.Notification{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return n, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]repository.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, type, title, message, read, metadata, created_at
		 FROM notifications
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	out := make([]repository.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) (repository.Notification, error) {
	notificationID, err := uuid.Parse(id)
	if err != nil {
		return repository.Notification{}, repository.ErrNotFound
	}
	n, err := scanNotification(r.pool.QueryRow(ctx,
		`UPDATE notifications SET read = true
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, type, title, message, read, metadata, created_at`,
		notificationID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Notification{}, repository.ErrNotFound
		}
		return repository.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepository) GetOrCreatePreferences(ctx context.Context, userID string) (repository.Preferences, error) {
	d := repository.DefaultPreferences(userID)
	p := repository.Preferences{UserID: userID}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO notification_preferences (user_id, email, in_app, push, journey_reminders, promotional)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING email, in_app, push, journey_reminders, promotional`,
		userID, d.Email, d.InApp, d.Push, d.JourneyReminders, d.Promotional,
	).Scan(&p.Email, &p.InApp, &p.Push, &p.JourneyReminders, &p.Promotional)
	if err != nil {
		return repository.Preferences{}, fmt.Errorf("upsert preferences: %w", err)
	}
	return p, nil
}

func (r *NotificationRepository) UpdatePreferences(ctx context.Context, userID string, patch repository.PreferencesPatch) (repository.Preferences, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return repository.Preferences{}, err
	}
	defer tx.Rollback(ctx)

	d := repository.DefaultPreferences(userID)
	p := repository.Preferences{UserID: userID}
	err = tx.QueryRow(ctx,
		`INSERT INTO notification_preferences (user_id, email, in_app, push, journey_reminders, promotional)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING email, in_app, push, journey_reminders, promotional`,
		userID, d.Email, d.InApp, d.Push, d.JourneyReminders, d.Promotional,
	).Scan(&p.Email, &p.InApp, &p.Push, &p.JourneyReminders, &p.Promotional)
	if err != nil {
		return repository.Preferences{}, fmt.Errorf("lock preferences: %w", err)
	}

	p = patch.Apply(p)
	_, err = tx.Exec(ctx,
		`UPDATE notification_preferences
		 SET email = $2, in_app = $3, push = $4, journey_reminders = $5, promotional = $6, updated_at = now()
		 WHERE user_id = $1`,
		userID, p.Email, p.InApp, p.Push, p.JourneyReminders, p.Promotional)
	if err != nil {
		return repository.Preferences{}, fmt.Errorf("update preferences: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return repository.Preferences{}, err
	}
	return p, nil
}

func (r *NotificationRepository) UpsertInboxPending(ctx context.Context, eventID, eventType, userID string, occurredAt time.Time) (*repository.InboxUpsertResult, error) {
	var status string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO notification_inbox_events (event_id, event_type, user_id, status, attempts, occurred_at)
		 VALUES ($1, $2, $3, 'pending', 1, $4)
		 ON CONFLICT (event_id) DO UPDATE
		   SET attempts = notification_inbox_events.attempts + 1,
		       status = CASE WHEN notification_inbox_events.status = 'sent' THEN 'sent' ELSE 'pending' END
		 RETURNING status`,
		eventID, eventType, userID, occurredAt).Scan(&status)
	if err != nil {
		return nil, fmt.Errorf("upsert inbox event: %w", err)
	}
	if status == "sent" {
		return &repository.InboxUpsertResult{AlreadyProcessed: true}, nil
	}
	return &repository.InboxUpsertResult{CanProcess: true}, nil
}

func (r *NotificationRepository) MarkInboxSent(ctx context.Context, eventID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notification_inbox_events SET status = 'sent', last_error = NULL, processed_at = now()
		 WHERE event_id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("mark inbox sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkInboxFailed(ctx context.Context, eventID, errString string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notification_inbox_events SET status = 'failed', last_error = $2
		 WHERE event_id = $1`, eventID, errString)
	if err != nil {
		return fmt.Errorf("mark inbox failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
