// Package service holds the inventory operations that span equipment and
// notifications: status changes, issue reports and resolutions.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/crucial707/gearbox/internal/metrics"
	"github.com/crucial707/gearbox/internal/models"
	"github.com/crucial707/gearbox/internal/repo"
)

var (
	// ErrInvalidStatus is returned for status values outside the known set.
	ErrInvalidStatus = errors.New("invalid equipment status")
	// ErrOpenIssue is returned when a change would take an item with an
	// unresolved issue out of maintenance. Resolve is the only way out.
	ErrOpenIssue = errors.New("equipment has an unresolved issue")
)

func hasOpenIssue(e *models.Equipment) bool {
	last := e.LastLog()
	return last != nil && !last.Resolved()
}

// Inventory coordinates the equipment and notification stores. Operations
// on an unknown equipment id are no-ops and return a nil item.
type Inventory struct {
	Equipment     *repo.EquipmentRepo
	Notifications *repo.NotificationRepo
	clock         clock.Clock
}

func NewInventory(equipment *repo.EquipmentRepo, notifications *repo.NotificationRepo, clk clock.Clock) *Inventory {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Inventory{Equipment: equipment, Notifications: notifications, clock: clk}
}

// SetStatus sets the status of one item. An item whose last log is open
// stays in maintenance and ErrOpenIssue is returned with it unchanged.
func (s *Inventory) SetStatus(ctx context.Context, id string, status models.Status) (*models.Equipment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	var blocked bool
	item, err := s.Equipment.Update(ctx, id, func(e *models.Equipment) {
		if status != models.StatusMaintenance && hasOpenIssue(e) {
			blocked = true
			return
		}
		e.Status = status
	})
	if err != nil {
		return nil, err
	}
	if blocked {
		return item, ErrOpenIssue
	}
	return item, nil
}

// Save creates item, or replaces the descriptive fields of the stored record
// with the same id. Logs are never taken from the caller: a new item starts
// with none and an existing one keeps its history. An empty status means
// "keep" (or available for a new item). created reports which case applied.
func (s *Inventory) Save(ctx context.Context, item models.Equipment) (saved models.Equipment, created bool, err error) {
	if item.Status != "" && !item.Status.Valid() {
		return models.Equipment{}, false, fmt.Errorf("%w: %q", ErrInvalidStatus, item.Status)
	}

	if item.ID != "" {
		var blocked bool
		existing, err := s.Equipment.Update(ctx, item.ID, func(e *models.Equipment) {
			status := item.Status
			if status == "" {
				status = e.Status
			}
			if status != models.StatusMaintenance && hasOpenIssue(e) {
				blocked = true
				return
			}
			e.Name = item.Name
			e.Brand = item.Brand
			e.Category = item.Category
			e.PurchaseDate = item.PurchaseDate
			e.Status = status
		})
		if err != nil {
			return models.Equipment{}, false, err
		}
		if blocked {
			return *existing, false, ErrOpenIssue
		}
		if existing != nil {
			return *existing, false, nil
		}
	}

	item.Logs = []models.MaintenanceLog{}
	if item.Status == "" {
		item.Status = models.StatusAvailable
	}
	saved, err = s.Equipment.Upsert(ctx, item)
	if err != nil {
		return models.Equipment{}, false, err
	}
	return saved, true, nil
}

// ReportIssue appends log to the item, puts it into maintenance and alerts
// every admin. Missing log id and date are filled in.
func (s *Inventory) ReportIssue(ctx context.Context, id string, log models.MaintenanceLog) (*models.Equipment, error) {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Date.IsZero() {
		log.Date = s.clock.Now().UTC()
	}
	log.ResolvedAt = nil

	item, err := s.Equipment.Update(ctx, id, func(e *models.Equipment) {
		e.Logs = append(e.Logs, log)
		e.Status = models.StatusMaintenance
	})
	if err != nil || item == nil {
		return nil, err
	}
	metrics.IncIssuesReported()

	if err := s.notify(ctx, models.Notification{
		Message:     fmt.Sprintf("%s reported an issue with %s: %s", log.ReportedBy, item.Name, log.Description),
		Type:        models.NotificationAlert,
		EquipmentID: item.ID,
		Target:      models.RoleTarget(models.RoleAdmin),
	}); err != nil {
		return item, err
	}
	return item, nil
}

// Resolve puts the item back into service. When it has logs, the most recent
// one is stamped resolved and its reporter is told the item is available.
func (s *Inventory) Resolve(ctx context.Context, id string) (*models.Equipment, error) {
	var (
		reporterID string
		stamped    bool
	)
	now := s.clock.Now().UTC()

	item, err := s.Equipment.Update(ctx, id, func(e *models.Equipment) {
		e.Status = models.StatusAvailable
		last := e.LastLog()
		if last == nil {
			return
		}
		if last.ResolvedAt == nil {
			last.ResolvedAt = &now
			stamped = true
		}
		reporterID = last.ReportedByID
	})
	if err != nil || item == nil {
		return nil, err
	}
	if stamped {
		metrics.IncIssuesResolved()
	}

	if reporterID == "" {
		return item, nil
	}
	if err := s.notify(ctx, models.Notification{
		Message:     fmt.Sprintf("%s is back in service", item.Name),
		Type:        models.NotificationSuccess,
		EquipmentID: item.ID,
		Target:      models.UserTarget(reporterID),
	}); err != nil {
		return item, err
	}
	return item, nil
}

func (s *Inventory) notify(ctx context.Context, n models.Notification) error {
	if _, err := s.Notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	metrics.IncNotificationsCreated(string(n.Type))
	return nil
}
