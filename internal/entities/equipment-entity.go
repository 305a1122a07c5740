package entities

import (
	"theater-warehouse/pkg/types"
)

type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

func (c Condition) IsValid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

type Status string

const (
	StatusAvailable   Status = "available"
	StatusInUse       Status = "in_use"
	StatusMaintenance Status = "maintenance"
	StatusBroken      Status = "broken"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance, StatusBroken:
		return true
	}
	return false
}

type Equipment struct {
	ID              uint64    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Description     *string   `json:"description" db:"description"`
	CategoryID      uint64    `json:"category_id" db:"category_id"`
	SubcategoryID   *uint64   `json:"subcategory_id" db:"subcategory_id"`
	InventoryNumber *string   `json:"inventory_number" db:"inventory_number"`
	Condition       Condition `json:"condition" db:"condition"`
	Status          Status    `json:"status" db:"status"`
	StorageLocation string    `json:"storage_location" db:"storage_location"`
	Performance     *string   `json:"performance" db:"performance"`
	Quantity        int       `json:"quantity" db:"quantity"`
	CreatedBy       *uint64   `json:"created_by" db:"created_by"`

	types.BaseEntity

	// Поля из связанных таблиц (не колонки equipment)
	CategoryName    *string `json:"category_name,omitempty" db:"-"`
	SubcategoryName *string `json:"subcategory_name,omitempty" db:"-"`
	CreatedByName   *string `json:"created_by_name,omitempty" db:"-"`
}

// Snapshot - копия записи без присоединённых полей, в таком виде она попадает в историю.
func (e Equipment) Snapshot() Equipment {
	e.CategoryName = nil
	e.SubcategoryName = nil
	e.CreatedByName = nil
	return e
}

type EquipmentFilter struct {
	Search        string
	CategoryID    *uint64
	SubcategoryID *uint64
	Status        *Status
	Condition     *Condition
	Performance   *string
}
