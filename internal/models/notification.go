package models

import "time"

// NotificationType classifies a notification for display.
type NotificationType string

const (
	NotificationAlert   NotificationType = "alert"
	NotificationSuccess NotificationType = "success"
	NotificationInfo    NotificationType = "info"
)

// Target addresses a notification either to every user holding a role or to
// one user id. Build it with RoleTarget or UserTarget.
type Target struct {
	Role   Role   `json:"recipient_role,omitempty"`
	UserID string `json:"recipient_id,omitempty"`
}

func RoleTarget(r Role) Target {
	return Target{Role: r}
}

func UserTarget(userID string) Target {
	return Target{UserID: userID}
}

// Matches reports whether a caller with the given id and role can see the
// notification. Stored records that carry both fields match on either.
func (t Target) Matches(userID string, role Role) bool {
	if t.Role != "" && t.Role == role {
		return true
	}
	return t.UserID != "" && t.UserID == userID
}

type Notification struct {
	ID          string           `json:"id"`
	Date        time.Time        `json:"date"`
	Read        bool             `json:"read"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	EquipmentID string           `json:"equipment_id,omitempty"`
	Target
}
