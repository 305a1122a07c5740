package dto

import "github.com/aarondl/null/v8"

type CreateCategoryDTO struct {
	Name     string  `json:"name" validate:"required,notblank,max=255"`
	ParentID *uint64 `json:"parent_id" validate:"omitempty,gt=0"`
}

type UpdateCategoryDTO struct {
	Name     Optional[null.String] `json:"name"`
	ParentID Optional[null.Uint64] `json:"parent_id"`
}
