package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/crucial707/gearbox/internal/kv"
	"github.com/crucial707/gearbox/internal/models"
)

// NotificationRepo stores all notifications as one JSON array, newest first.
// Notifications are never deleted; only the read flag changes.
type NotificationRepo struct {
	store kv.Store
	clock clock.Clock
	mu    sync.Mutex
}

// NewNotificationRepo returns a repo stamping creation dates from clk
// (clock.WallClock when nil).
func NewNotificationRepo(store kv.Store, clk clock.Clock) *NotificationRepo {
	if clk == nil {
		clk = clock.WallClock
	}
	return &NotificationRepo{store: store, clock: clk}
}

func (r *NotificationRepo) load(ctx context.Context) ([]models.Notification, error) {
	items, _, err := loadCollection[models.Notification](ctx, r.store, NotificationsKey)
	return items, err
}

// List returns the notifications visible to the caller, most recent first.
func (r *NotificationRepo) List(ctx context.Context, userID string, role models.Role) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Notification, 0, len(items))
	for _, n := range items {
		if n.Matches(userID, role) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// UnreadCount returns how many visible notifications are still unread.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID string, role models.Role) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, item := range items {
		if !item.Read && item.Matches(userID, role) {
			n++
		}
	}
	return n, nil
}

// Create assigns id and date, marks the notification unread and prepends it.
func (r *NotificationRepo) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return models.Notification{}, err
	}
	n.ID = uuid.NewString()
	n.Date = r.clock.Now().UTC()
	n.Read = false

	items = append([]models.Notification{n}, items...)
	if err := saveCollection(ctx, r.store, NotificationsKey, items); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// MarkRead flags one notification as read. Unknown ids are ignored.
func (r *NotificationRepo) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == id {
			items[i].Read = true
			return saveCollection(ctx, r.store, NotificationsKey, items)
		}
	}
	return nil
}

// MarkReadFor flags one notification read only when it is visible to the
// caller. It reports whether a visible notification with that id exists.
func (r *NotificationRepo) MarkReadFor(ctx context.Context, id, userID string, role models.Role) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range items {
		if items[i].ID != id || !items[i].Matches(userID, role) {
			continue
		}
		if items[i].Read {
			return true, nil
		}
		items[i].Read = true
		return true, saveCollection(ctx, r.store, NotificationsKey, items)
	}
	return false, nil
}

// MarkAllRead flags every notification visible to the caller as read and
// returns how many changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string, role models.Role) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for i := range items {
		if !items[i].Read && items[i].Matches(userID, role) {
			items[i].Read = true
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	return changed, saveCollection(ctx, r.store, NotificationsKey, items)
}
