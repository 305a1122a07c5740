package entities

import "time"

const DefaultMovementType = "transfer"

type Movement struct {
	ID           uint64    `json:"id" db:"id"`
	EquipmentID  uint64    `json:"equipment_id" db:"equipment_id"`
	FromLocation *string   `json:"from_location" db:"from_location"`
	ToLocation   string    `json:"to_location" db:"to_location"`
	MovementType string    `json:"movement_type" db:"movement_type"`
	UserID       uint64    `json:"user_id" db:"user_id"`
	Reason       *string   `json:"reason" db:"reason"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
