package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crucial707/gearbox/internal/metrics"
	"github.com/crucial707/gearbox/internal/models"
)

// EquipmentLister is the part of the equipment store the scheduler polls.
type EquipmentLister interface {
	List(ctx context.Context) ([]models.Equipment, error)
}

var allStatuses = []string{
	string(models.StatusAvailable),
	string(models.StatusInUse),
	string(models.StatusMaintenance),
}

// RefreshStatusCounts lists the inventory once and publishes the per-status
// counts to the equipment gauge.
func RefreshStatusCounts(ctx context.Context, lister EquipmentLister) (map[string]int, error) {
	items, err := lister.List(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(allStatuses))
	for _, e := range items {
		counts[string(e.Status)]++
	}
	metrics.SetEquipmentCounts(counts, allStatuses)
	return counts, nil
}

// Start runs RefreshStatusCounts once, then on every tick of spec (a cron
// expression or "@every 30s"). Stop the returned cron to end it.
func Start(spec string, lister EquipmentLister) (*cron.Cron, error) {
	c := cron.New()

	refresh := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := RefreshStatusCounts(ctx, lister); err != nil {
			slog.Error("scheduler: refresh status counts", "err", err)
		}
	}

	if _, err := c.AddFunc(spec, refresh); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", spec, err)
	}
	slog.Info("scheduler: status refresh scheduled", "spec", spec)

	refresh()
	c.Start()
	return c, nil
}
