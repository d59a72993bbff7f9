package repo

import (
	"context"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"github.com/crucial707/gearbox/internal/kv"
	"github.com/crucial707/gearbox/internal/models"
)

func newNotificationRepo(t *testing.T) (*NotificationRepo, *testclock.Clock) {
	t.Helper()
	clk := testclock.NewClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	return NewNotificationRepo(kv.NewMemoryStore(), clk), clk
}

func mustCreate(t *testing.T, r *NotificationRepo, msg string, target models.Target) models.Notification {
	t.Helper()
	n, err := r.Create(context.Background(), models.Notification{
		Message: msg,
		Type:    models.NotificationAlert,
		Target:  target,
	})
	if err != nil {
		t.Fatalf("Create(%q): %v", msg, err)
	}
	return n
}

func TestNotificationRepo_Create(t *testing.T) {
	r, clk := newNotificationRepo(t)

	n, err := r.Create(context.Background(), models.Notification{
		ID:      "caller-chosen",
		Read:    true,
		Message: "mic broken",
		Type:    models.NotificationAlert,
		Target:  models.RoleTarget(models.RoleAdmin),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.ID == "" || n.ID == "caller-chosen" {
		t.Errorf("expected a fresh id, got %q", n.ID)
	}
	if n.Read {
		t.Error("new notifications must be unread")
	}
	if !n.Date.Equal(clk.Now()) {
		t.Errorf("Date = %v, want %v", n.Date, clk.Now())
	}
}

func TestNotificationRepo_Create_Prepends(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	r := NewNotificationRepo(store, testclock.NewClock(time.Now()))

	first := mustCreate(t, r, "first", models.RoleTarget(models.RoleAdmin))
	second := mustCreate(t, r, "second", models.RoleTarget(models.RoleAdmin))

	items, _, err := loadCollection[models.Notification](ctx, store, NotificationsKey)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 2 || items[0].ID != second.ID || items[1].ID != first.ID {
		t.Errorf("stored order = %+v, want newest first", items)
	}
}

func TestNotificationRepo_List_FiltersAndSorts(t *testing.T) {
	r, clk := newNotificationRepo(t)
	ctx := context.Background()

	adminAlert := mustCreate(t, r, "admin alert", models.RoleTarget(models.RoleAdmin))
	clk.Advance(time.Minute)
	forAlice := mustCreate(t, r, "for alice", models.UserTarget("alice"))
	clk.Advance(time.Minute)
	_ = mustCreate(t, r, "for bob", models.UserTarget("bob"))
	clk.Advance(time.Minute)
	userBroadcast := mustCreate(t, r, "all users", models.RoleTarget(models.RoleUser))

	got, err := r.List(ctx, "alice", models.RoleUser)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("alice sees %d notifications, want 2: %+v", len(got), got)
	}
	if got[0].ID != userBroadcast.ID || got[1].ID != forAlice.ID {
		t.Errorf("order = [%s %s], want newest first", got[0].Message, got[1].Message)
	}

	admin, _ := r.List(ctx, "root", models.RoleAdmin)
	if len(admin) != 1 || admin[0].ID != adminAlert.ID {
		t.Errorf("admin sees %+v, want only the admin alert", admin)
	}
}

func TestNotificationRepo_List_EmptyStore(t *testing.T) {
	r, _ := newNotificationRepo(t)
	got, err := r.List(context.Background(), "alice", models.RoleUser)
	if err != nil || len(got) != 0 {
		t.Errorf("List on empty store = %+v, %v", got, err)
	}
}

func TestNotificationRepo_MarkRead(t *testing.T) {
	r, _ := newNotificationRepo(t)
	ctx := context.Background()
	n := mustCreate(t, r, "x", models.UserTarget("alice"))

	if err := r.MarkRead(ctx, n.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	got, _ := r.List(ctx, "alice", models.RoleUser)
	if len(got) != 1 || !got[0].Read {
		t.Errorf("notification not marked read: %+v", got)
	}
	if err := r.MarkRead(ctx, "missing"); err != nil {
		t.Errorf("MarkRead(missing) = %v, want nil", err)
	}
}

func TestNotificationRepo_MarkReadFor_RespectsTarget(t *testing.T) {
	r, _ := newNotificationRepo(t)
	ctx := context.Background()
	alert := mustCreate(t, r, "admins", models.RoleTarget(models.RoleAdmin))

	found, err := r.MarkReadFor(ctx, alert.ID, "alice", models.RoleUser)
	if err != nil || found {
		t.Fatalf("MarkReadFor by non-admin = %v, %v; want false, nil", found, err)
	}
	got, _ := r.List(ctx, "bob", models.RoleAdmin)
	if len(got) != 1 || got[0].Read {
		t.Fatalf("admin alert changed by a user: %+v", got)
	}

	found, err = r.MarkReadFor(ctx, alert.ID, "bob", models.RoleAdmin)
	if err != nil || !found {
		t.Fatalf("MarkReadFor by admin = %v, %v", found, err)
	}
	got, _ = r.List(ctx, "bob", models.RoleAdmin)
	if !got[0].Read {
		t.Error("admin alert not marked read")
	}

	if found, err := r.MarkReadFor(ctx, "missing", "bob", models.RoleAdmin); err != nil || found {
		t.Errorf("MarkReadFor(missing) = %v, %v", found, err)
	}
}

func TestNotificationRepo_MarkAllRead_OnlyVisibleSubset(t *testing.T) {
	r, clk := newNotificationRepo(t)
	ctx := context.Background()

	mustCreate(t, r, "admins", models.RoleTarget(models.RoleAdmin))
	clk.Advance(time.Second)
	mustCreate(t, r, "alice", models.UserTarget("alice"))
	clk.Advance(time.Second)
	mustCreate(t, r, "users", models.RoleTarget(models.RoleUser))
	clk.Advance(time.Second)
	mustCreate(t, r, "bob", models.UserTarget("bob"))

	changed, err := r.MarkAllRead(ctx, "alice", models.RoleUser)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if changed != 2 {
		t.Errorf("changed = %d, want 2", changed)
	}

	for _, n := range mustList(t, r, "alice", models.RoleUser) {
		if !n.Read {
			t.Errorf("%q should be read", n.Message)
		}
	}
	for _, n := range mustList(t, r, "root", models.RoleAdmin) {
		if n.Read {
			t.Errorf("admin notification %q was touched", n.Message)
		}
	}
	for _, n := range mustList(t, r, "bob", "") {
		if n.Read {
			t.Errorf("bob's notification %q was touched", n.Message)
		}
	}

	unread, _ := r.UnreadCount(ctx, "alice", models.RoleUser)
	if unread != 0 {
		t.Errorf("UnreadCount after MarkAllRead = %d", unread)
	}
	unread, _ = r.UnreadCount(ctx, "root", models.RoleAdmin)
	if unread != 1 {
		t.Errorf("admin UnreadCount = %d, want 1", unread)
	}
}

func mustList(t *testing.T, r *NotificationRepo, userID string, role models.Role) []models.Notification {
	t.Helper()
	out, err := r.List(context.Background(), userID, role)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return out
}
