package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shestoi/railbook/internal/repository"
)

type inboxEntry struct {
	status    string
	attempts  int
	lastError string
}

// NotificationRepository keeps the notification log, preferences and inbox in maps.
type NotificationRepository struct {
	mu            sync.RWMutex
	notifications []repository.Notification
	prefs         map[string]repository.Preferences
	inbox         map[string]*inboxEntry
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		prefs: make(map[string]repository.Preferences),
		inbox: make(map[string]*inboxEntry),
	}
}

func (r *NotificationRepository) Insert(ctx context.Context, n repository.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.notifications {
		if n.ID != "" && existing.ID == n.ID {
			return nil
		}
	}
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]repository.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]repository.Notification, 0)
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) (repository.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].UserID == userID {
			r.notifications[i].Read = true
			return r.notifications[i], nil
		}
	}
	return repository.Notification{}, repository.ErrNotFound
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var changed int64
	for i := range r.notifications {
		if r.notifications[i].UserID == userID && !r.notifications[i].Read {
			r.notifications[i].Read = true
			changed++
		}
	}
	return changed, nil
}

func (r *NotificationRepository) GetOrCreatePreferences(ctx context.Context, userID string) (repository.Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.prefs[userID]
	if !ok {
		p = repository.DefaultPreferences(userID)
		r.prefs[userID] = p
	}
	return p, nil
}

func (r *NotificationRepository) UpdatePreferences(ctx context.Context, userID string, patch repository.PreferencesPatch) (repository.Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.prefs[userID]
	if !ok {
		p = repository.DefaultPreferences(userID)
	}
	p = patch.Apply(p)
	r.prefs[userID] = p
	return p, nil
}

func (r *NotificationRepository) UpsertInboxPending(ctx context.Context, eventID, eventType, userID string, occurredAt time.Time) (*repository.InboxUpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.inbox[eventID]
	if !ok {
		r.inbox[eventID] = &inboxEntry{status: "pending", attempts: 1}
		return &repository.InboxUpsertResult{CanProcess: true}, nil
	}
	if e.status == "sent" {
		return &repository.InboxUpsertResult{AlreadyProcessed: true}, nil
	}
	e.status = "pending"
	e.attempts++
	return &repository.InboxUpsertResult{CanProcess: true}, nil
}

func (r *NotificationRepository) MarkInboxSent(ctx context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.inbox[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	e.status = "sent"
	e.lastError = ""
	return nil
}

func (r *NotificationRepository) MarkInboxFailed(ctx context.Context, eventID, errString string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.inbox[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	e.status = "failed"
	e.lastError = errString
	return nil
}
