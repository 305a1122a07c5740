package dto

import "github.com/aarondl/null/v8"

type CreateEquipmentDTO struct {
	Name            string  `json:"name" validate:"required,notblank,max=255"`
	Description     *string `json:"description"`
	CategoryID      uint64  `json:"category_id" validate:"required"`
	SubcategoryID   *uint64 `json:"subcategory_id" validate:"omitempty,gt=0"`
	InventoryNumber *string `json:"inventory_number" validate:"omitempty,max=100"`
	Condition       string  `json:"condition" validate:"required,equipment_condition"`
	Status          string  `json:"status" validate:"required,equipment_status"`
	StorageLocation string  `json:"storage_location" validate:"required,notblank,max=255"`
	Performance     *string `json:"performance" validate:"omitempty,max=255"`
	Quantity        *int    `json:"quantity" validate:"omitempty,min=1"`
}

// UpdateEquipmentDTO - частичное обновление: отсутствующие поля не меняются, null очищает необязательные.
type UpdateEquipmentDTO struct {
	Name            Optional[null.String] `json:"name"`
	Description     Optional[null.String] `json:"description"`
	CategoryID      Optional[null.Uint64] `json:"category_id"`
	SubcategoryID   Optional[null.Uint64] `json:"subcategory_id"`
	InventoryNumber Optional[null.String] `json:"inventory_number"`
	Condition       Optional[null.String] `json:"condition"`
	Status          Optional[null.String] `json:"status"`
	StorageLocation Optional[null.String] `json:"storage_location"`
	Performance     Optional[null.String] `json:"performance"`
	Quantity        Optional[null.Int]    `json:"quantity"`
}

type MoveEquipmentDTO struct {
	ToLocation   string `json:"to_location" validate:"required,notblank,max=255"`
	Reason       string `json:"reason" validate:"max=1000"`
	MovementType string `json:"movement_type" validate:"omitempty,max=50"`
}

type ImportResultDTO struct {
	Created int              `json:"created"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}
