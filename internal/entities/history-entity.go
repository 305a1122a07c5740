package entities

import "time"

type HistoryAction string

const (
	ActionCreated HistoryAction = "created"
	ActionUpdated HistoryAction = "updated"
	ActionDeleted HistoryAction = "deleted"
	ActionMoved   HistoryAction = "moved"
)

// HistoryEntry - неизменяемая запись журнала. После вставки не редактируется и не удаляется.
type HistoryEntry struct {
	ID          uint64        `json:"id" db:"id"`
	EquipmentID uint64        `json:"equipment_id" db:"equipment_id"`
	UserID      uint64        `json:"user_id" db:"user_id"`
	Action      HistoryAction `json:"action" db:"action"`
	OldValue    *string       `json:"old_value" db:"old_value"`
	NewValue    *string       `json:"new_value" db:"new_value"`
	Details     string        `json:"details" db:"details"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`

	EquipmentName *string `json:"equipment_name,omitempty" db:"-"`
	UserName      *string `json:"user_name,omitempty" db:"-"`
}

type HistoryFilter struct {
	EquipmentID *uint64
	UserID      *uint64
	Limit       int
}
