package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/gearbox/internal/export"
	"github.com/crucial707/gearbox/internal/middleware"
	"github.com/crucial707/gearbox/internal/models"
	"github.com/crucial707/gearbox/internal/service"
)

type EquipmentHandler struct {
	Inventory *service.Inventory
}

type equipmentInput struct {
	ID           string        `json:"id" validate:"omitempty,max=64"`
	Name         string        `json:"name" validate:"required,min=2,max=255"`
	Brand        string        `json:"brand" validate:"max=255"`
	Category     string        `json:"category" validate:"required,max=100"`
	Status       models.Status `json:"status" validate:"omitempty,oneof=available in_use maintenance"`
	PurchaseDate string        `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
}

//
// ==========================
// List Equipment
// ==========================
//

func (h *EquipmentHandler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	items, err := h.Inventory.Equipment.List(r.Context())
	if err != nil {
		slog.Error("list equipment", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	// Optional filters applied after the whole-collection read.
	status := models.Status(r.URL.Query().Get("status"))
	category := r.URL.Query().Get("category")
	if status != "" || category != "" {
		filtered := make([]models.Equipment, 0, len(items))
		for _, e := range items {
			if (status == "" || e.Status == status) && (category == "" || e.Category == category) {
				filtered = append(filtered, e)
			}
		}
		items = filtered
	}

	writeJSON(w, http.StatusOK, items)
}

//
// ==========================
// Get Equipment By ID
// ==========================
//

func (h *EquipmentHandler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	item, err := h.Inventory.Equipment.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("get equipment", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if item == nil {
		JSONError(w, "equipment not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

//
// ==========================
// Upsert Equipment
// ==========================
//

// UpsertEquipment handles POST /equipment and PUT /equipment/{id}. On PUT the
// path id wins over the body. Maintenance logs are not writable here, and an
// omitted status keeps the stored one.
func (h *EquipmentHandler) UpsertEquipment(w http.ResponseWriter, r *http.Request) {
	var input equipmentInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		input.ID = id
	}

	saved, created, err := h.Inventory.Save(r.Context(), models.Equipment{
		ID:           input.ID,
		Name:         input.Name,
		Brand:        input.Brand,
		Category:     input.Category,
		Status:       input.Status,
		PurchaseDate: input.PurchaseDate,
	})
	if errors.Is(err, service.ErrOpenIssue) {
		JSONError(w, "equipment has an unresolved issue; resolve it first", http.StatusConflict)
		return
	}
	if err != nil {
		slog.Error("upsert equipment", "id", input.ID, "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, saved)
}

//
// ==========================
// Delete Equipment
// ==========================
//

func (h *EquipmentHandler) DeleteEquipment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	found, err := h.Inventory.Equipment.Delete(r.Context(), id)
	if err != nil {
		slog.Error("delete equipment", "id", id, "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !found {
		JSONError(w, "equipment not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

//
// ==========================
// Set Status
// ==========================
//

func (h *EquipmentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status models.Status `json:"status" validate:"required,oneof=available in_use maintenance"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}

	item, err := h.Inventory.SetStatus(r.Context(), chi.URLParam(r, "id"), input.Status)
	if errors.Is(err, service.ErrInvalidStatus) {
		JSONValidationError(w, "validation failed", map[string]string{"status": err.Error()}, http.StatusBadRequest)
		return
	}
	if errors.Is(err, service.ErrOpenIssue) {
		JSONError(w, "equipment has an unresolved issue; resolve it first", http.StatusConflict)
		return
	}
	h.respondItem(w, "set status", item, err)
}

//
// ==========================
// Report Issue
// ==========================
//

func (h *EquipmentHandler) ReportIssue(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Description string `json:"description" validate:"required,min=3,max=1000"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	item, err := h.Inventory.ReportIssue(r.Context(), chi.URLParam(r, "id"), models.MaintenanceLog{
		Description:  input.Description,
		ReportedBy:   user.Name,
		ReportedByID: user.ID,
	})
	if err == nil && item != nil {
		slog.Info("issue reported", "equipment_id", item.ID, "user_id", user.ID)
		writeJSON(w, http.StatusCreated, item)
		return
	}
	h.respondItem(w, "report issue", item, err)
}

//
// ==========================
// Resolve Maintenance
// ==========================
//

func (h *EquipmentHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	item, err := h.Inventory.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err == nil && item != nil {
		slog.Info("maintenance resolved", "equipment_id", item.ID)
	}
	h.respondItem(w, "resolve", item, err)
}

//
// ==========================
// Export Spreadsheet
// ==========================
//

func (h *EquipmentHandler) Export(w http.ResponseWriter, r *http.Request) {
	items, err := h.Inventory.Equipment.List(r.Context())
	if err != nil {
		slog.Error("export equipment", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="equipment.xlsx"`)
	if err := export.WriteEquipment(w, items); err != nil {
		slog.Error("write workbook", "err", err)
	}
}

func (h *EquipmentHandler) respondItem(w http.ResponseWriter, op string, item *models.Equipment, err error) {
	if err != nil {
		slog.Error(op, "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if item == nil {
		JSONError(w, "equipment not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
