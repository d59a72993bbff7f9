package models

import "time"

// Status is the operational state of an equipment item.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusInUse       Status = "in_use"
	StatusMaintenance Status = "maintenance"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance:
		return true
	}
	return false
}

type Equipment struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Brand        string           `json:"brand"`
	Category     string           `json:"category"`
	Status       Status           `json:"status"`
	PurchaseDate string           `json:"purchase_date"`
	Logs         []MaintenanceLog `json:"logs"`
}

// MaintenanceLog is one reported problem. ResolvedAt is set exactly once.
type MaintenanceLog struct {
	ID           string     `json:"id"`
	Date         time.Time  `json:"date"`
	Description  string     `json:"description"`
	ReportedBy   string     `json:"reported_by"`
	ReportedByID string     `json:"reported_by_id"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// Resolved reports whether the log has a resolution timestamp.
func (l MaintenanceLog) Resolved() bool {
	return l.ResolvedAt != nil
}

// LastLog returns the most recent maintenance log, or nil when there is none.
func (e *Equipment) LastLog() *MaintenanceLog {
	if len(e.Logs) == 0 {
		return nil
	}
	return &e.Logs[len(e.Logs)-1]
}
