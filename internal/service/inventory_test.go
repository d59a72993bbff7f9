package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/crucial707/gearbox/internal/kv"
	"github.com/crucial707/gearbox/internal/metrics"
	"github.com/crucial707/gearbox/internal/models"
	"github.com/crucial707/gearbox/internal/repo"
)

type fixture struct {
	inv   *Inventory
	clock *testclock.Clock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clk := testclock.NewClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	store := kv.NewMemoryStore()
	inv := NewInventory(repo.NewEquipmentRepo(store), repo.NewNotificationRepo(store, clk), clk)
	return fixture{inv: inv, clock: clk}
}

func (f fixture) adminInbox(t *testing.T) []models.Notification {
	t.Helper()
	out, err := f.inv.Notifications.List(context.Background(), "nobody", models.RoleAdmin)
	if err != nil {
		t.Fatalf("List admin: %v", err)
	}
	return out
}

func TestInventory_SetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.inv.SetStatus(ctx, "1", models.StatusInUse)
	if err != nil || item == nil || item.Status != models.StatusInUse {
		t.Fatalf("SetStatus = %+v, %v", item, err)
	}

	item, err = f.inv.SetStatus(ctx, "missing", models.StatusInUse)
	if err != nil || item != nil {
		t.Errorf("SetStatus(missing) = %+v, %v; want nil, nil", item, err)
	}

	_, err = f.inv.SetStatus(ctx, "1", models.Status("lost"))
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("SetStatus(lost) error = %v, want ErrInvalidStatus", err)
	}
}

func TestInventory_ReportIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reporter := models.NewUser("Sam", models.RoleUser)

	before, _ := f.inv.Equipment.Get(ctx, "3")
	item, err := f.inv.ReportIssue(ctx, "3", models.MaintenanceLog{
		Description:  "crackles at high volume",
		ReportedBy:   reporter.Name,
		ReportedByID: reporter.ID,
	})
	if err != nil {
		t.Fatalf("ReportIssue: %v", err)
	}
	if item.Status != models.StatusMaintenance {
		t.Errorf("status = %q, want maintenance", item.Status)
	}
	if len(item.Logs) != len(before.Logs)+1 {
		t.Fatalf("logs = %d, want %d", len(item.Logs), len(before.Logs)+1)
	}
	last := item.LastLog()
	if last.ID == "" || !last.Date.Equal(f.clock.Now()) || last.Resolved() {
		t.Errorf("unexpected log: %+v", last)
	}

	inbox := f.adminInbox(t)
	if len(inbox) != 1 {
		t.Fatalf("admin notifications = %d, want 1", len(inbox))
	}
	n := inbox[0]
	if n.Type != models.NotificationAlert || n.EquipmentID != "3" || n.Role != models.RoleAdmin || n.UserID != "" {
		t.Errorf("unexpected notification: %+v", n)
	}
	if n.Message != "Sam reported an issue with EON615 Powered Speaker: crackles at high volume" {
		t.Errorf("message = %q", n.Message)
	}
}

func TestInventory_ReportIssue_FromInUse(t *testing.T) {
	f := newFixture(t)
	item, err := f.inv.ReportIssue(context.Background(), "2", models.MaintenanceLog{Description: "fader stuck"})
	if err != nil || item.Status != models.StatusMaintenance {
		t.Errorf("ReportIssue on in_use item = %+v, %v", item, err)
	}
}

func TestInventory_ReportIssue_Unknown(t *testing.T) {
	f := newFixture(t)
	item, err := f.inv.ReportIssue(context.Background(), "missing", models.MaintenanceLog{Description: "x"})
	if err != nil || item != nil {
		t.Fatalf("ReportIssue(missing) = %+v, %v", item, err)
	}
	if inbox := f.adminInbox(t); len(inbox) != 0 {
		t.Errorf("no notification expected, got %+v", inbox)
	}
}

func TestInventory_Resolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reporter := models.NewUser("Sam", models.RoleUser)

	if _, err := f.inv.ReportIssue(ctx, "1", models.MaintenanceLog{
		Description: "dented grille", ReportedBy: reporter.Name, ReportedByID: reporter.ID,
	}); err != nil {
		t.Fatalf("ReportIssue: %v", err)
	}
	f.clock.Advance(2 * time.Hour)

	item, err := f.inv.Resolve(ctx, "1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if item.Status != models.StatusAvailable {
		t.Errorf("status = %q, want available", item.Status)
	}
	last := item.LastLog()
	if last.ResolvedAt == nil || !last.ResolvedAt.Equal(f.clock.Now()) {
		t.Errorf("ResolvedAt = %v, want %v", last.ResolvedAt, f.clock.Now())
	}

	inbox, err := f.inv.Notifications.List(ctx, reporter.ID, reporter.Role)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("reporter notifications = %d, want 1", len(inbox))
	}
	n := inbox[0]
	if n.Type != models.NotificationSuccess || n.UserID != reporter.ID || n.Role != "" {
		t.Errorf("unexpected notification: %+v", n)
	}
	if n.Message != "SM58 Vocal Microphone is back in service" {
		t.Errorf("message = %q", n.Message)
	}
}

func TestInventory_Resolve_StampsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.inv.ReportIssue(ctx, "1", models.MaintenanceLog{Description: "hum", ReportedByID: "u1"})
	first, _ := f.inv.Resolve(ctx, "1")
	stamped := *first.LastLog().ResolvedAt

	f.clock.Advance(time.Hour)
	second, err := f.inv.Resolve(ctx, "1")
	if err != nil {
		t.Fatalf("Resolve again: %v", err)
	}
	if !second.LastLog().ResolvedAt.Equal(stamped) {
		t.Errorf("resolution time moved from %v to %v", stamped, second.LastLog().ResolvedAt)
	}
}

func TestInventory_Resolve_NoLogs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.inv.SetStatus(ctx, "4", models.StatusMaintenance)
	item, err := f.inv.Resolve(ctx, "4")
	if err != nil || item.Status != models.StatusAvailable {
		t.Fatalf("Resolve = %+v, %v", item, err)
	}
	all, _ := f.inv.Notifications.List(ctx, "", models.RoleUser)
	if len(all) != 0 || len(f.adminInbox(t)) != 0 {
		t.Error("no notification expected without a reporter")
	}
}

func TestInventory_Resolve_Unknown(t *testing.T) {
	f := newFixture(t)
	item, err := f.inv.Resolve(context.Background(), "missing")
	if err != nil || item != nil {
		t.Errorf("Resolve(missing) = %+v, %v", item, err)
	}
}

func TestInventory_SetStatus_OpenIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.inv.ReportIssue(ctx, "1", models.MaintenanceLog{Description: "hum"}); err != nil {
		t.Fatalf("ReportIssue: %v", err)
	}

	item, err := f.inv.SetStatus(ctx, "1", models.StatusAvailable)
	if !errors.Is(err, ErrOpenIssue) {
		t.Fatalf("SetStatus error = %v, want ErrOpenIssue", err)
	}
	if item == nil || item.Status != models.StatusMaintenance {
		t.Errorf("item = %+v, want unchanged in maintenance", item)
	}

	if _, err := f.inv.SetStatus(ctx, "1", models.StatusMaintenance); err != nil {
		t.Errorf("SetStatus(maintenance) = %v", err)
	}

	_, _ = f.inv.Resolve(ctx, "1")
	if item, err := f.inv.SetStatus(ctx, "1", models.StatusInUse); err != nil || item.Status != models.StatusInUse {
		t.Errorf("SetStatus after resolve = %+v, %v", item, err)
	}
}

func TestInventory_Save(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, isNew, err := f.inv.Save(ctx, models.Equipment{
		Name: "DI Box", Category: "Accessory",
		Logs: []models.MaintenanceLog{{ID: "forged"}},
	})
	if err != nil || !isNew {
		t.Fatalf("Save new = %v, %v", isNew, err)
	}
	if created.ID == "" || created.Status != models.StatusAvailable || created.Logs == nil || len(created.Logs) != 0 {
		t.Errorf("created = %+v", created)
	}

	_, _ = f.inv.ReportIssue(ctx, created.ID, models.MaintenanceLog{Description: "crackle"})
	replaced, isNew, err := f.inv.Save(ctx, models.Equipment{
		ID: created.ID, Name: "DI Box (passive)", Category: "Accessory",
		Logs: []models.MaintenanceLog{},
	})
	if err != nil || isNew {
		t.Fatalf("Save existing = %v, %v", isNew, err)
	}
	if replaced.Name != "DI Box (passive)" || replaced.Status != models.StatusMaintenance || len(replaced.Logs) != 1 {
		t.Errorf("replaced = %+v", replaced)
	}

	_, _, err = f.inv.Save(ctx, models.Equipment{ID: created.ID, Name: "DI Box", Category: "Accessory", Status: models.StatusAvailable})
	if !errors.Is(err, ErrOpenIssue) {
		t.Errorf("Save leaving maintenance = %v, want ErrOpenIssue", err)
	}

	_, _, err = f.inv.Save(ctx, models.Equipment{Name: "X", Category: "Y", Status: models.Status("lost")})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Save(lost) = %v, want ErrInvalidStatus", err)
	}

	// Unknown id on replace creates with that id.
	fresh, isNew, err := f.inv.Save(ctx, models.Equipment{ID: "99", Name: "Stand", Category: "Hardware"})
	if err != nil || !isNew || fresh.ID != "99" {
		t.Errorf("Save(unknown id) = %+v, %v, %v", fresh, isNew, err)
	}
}

func TestInventory_Resolve_CountsOnlyStampedIssues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := testutil.ToFloat64(metrics.IssuesResolved)

	_, _ = f.inv.ReportIssue(ctx, "2", models.MaintenanceLog{Description: "dead channel"})
	_, _ = f.inv.Resolve(ctx, "2")
	_, _ = f.inv.Resolve(ctx, "2")
	_, _ = f.inv.Resolve(ctx, "4")

	if got := testutil.ToFloat64(metrics.IssuesResolved) - before; got != 1 {
		t.Errorf("resolved counter moved by %v, want 1", got)
	}
}
