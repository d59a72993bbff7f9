package repo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/crucial707/gearbox/internal/kv"
	"github.com/crucial707/gearbox/internal/models"
)

// ========================
// REPOSITORY STRUCT
// ========================

// EquipmentRepo stores the whole inventory as one JSON array. Every mutation
// reads the array, changes it in memory and writes it back.
type EquipmentRepo struct {
	store kv.Store

	// mu makes each read-modify-write a single step for concurrent callers.
	mu sync.Mutex
}

func NewEquipmentRepo(store kv.Store) *EquipmentRepo {
	return &EquipmentRepo{store: store}
}

// load returns the persisted inventory, seeding the demo records the first
// time the store is empty. Callers hold r.mu.
func (r *EquipmentRepo) load(ctx context.Context) ([]models.Equipment, error) {
	items, ok, err := loadCollection[models.Equipment](ctx, r.store, EquipmentKey)
	if err != nil {
		return nil, err
	}
	if ok {
		return items, nil
	}
	items = seedEquipment()
	if err := saveCollection(ctx, r.store, EquipmentKey, items); err != nil {
		return nil, err
	}
	return items, nil
}

// ========================
// LIST ALL EQUIPMENT
// ========================

func (r *EquipmentRepo) List(ctx context.Context) ([]models.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// ========================
// GET EQUIPMENT BY ID
// ========================

// Get returns nil when no record has the id.
func (r *EquipmentRepo) Get(ctx context.Context, id string) (*models.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(items, id); i >= 0 {
		return &items[i], nil
	}
	return nil, nil
}

// ========================
// UPSERT EQUIPMENT
// ========================

// Upsert replaces the record with the same id or appends a new one. An empty
// id is filled with a fresh UUID.
func (r *EquipmentRepo) Upsert(ctx context.Context, item models.Equipment) (models.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return models.Equipment{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Logs == nil {
		item.Logs = []models.MaintenanceLog{}
	}
	if i := indexOf(items, item.ID); i >= 0 {
		items[i] = item
	} else {
		items = append(items, item)
	}
	if err := saveCollection(ctx, r.store, EquipmentKey, items); err != nil {
		return models.Equipment{}, err
	}
	return item, nil
}

// ========================
// UPDATE EQUIPMENT IN PLACE
// ========================

// Update loads the record, applies fn and writes the collection back. It
// returns nil without writing when the id is unknown.
func (r *EquipmentRepo) Update(ctx context.Context, id string, fn func(*models.Equipment)) (*models.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return nil, nil
	}
	fn(&items[i])
	if err := saveCollection(ctx, r.store, EquipmentKey, items); err != nil {
		return nil, err
	}
	out := items[i]
	return &out, nil
}

// ========================
// DELETE EQUIPMENT BY ID
// ========================

// Delete removes the record and reports whether one was found.
func (r *EquipmentRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return false, nil
	}
	items = append(items[:i], items[i+1:]...)
	if err := saveCollection(ctx, r.store, EquipmentKey, items); err != nil {
		return false, err
	}
	return true, nil
}

func indexOf(items []models.Equipment, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
