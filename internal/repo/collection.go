package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/crucial707/gearbox/internal/kv"
)

// Keys the two collections live under. The suffix is the only schema version.
const (
	EquipmentKey     = "gearbox_equipment_v1"
	NotificationsKey = "gearbox_notifications_v1"
)

// loadCollection decodes the JSON array under key. ok is false when the key
// has never been written.
func loadCollection[T any](ctx context.Context, store kv.Store, key string) (items []T, ok bool, err error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, true, fmt.Errorf("decode %s: %w", key, err)
	}
	return items, true, nil
}

// saveCollection rewrites the whole array under key.
func saveCollection[T any](ctx context.Context, store kv.Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Set(ctx, key, raw)
}
