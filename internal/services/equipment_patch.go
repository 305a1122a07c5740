package services

import (
	"strings"

	"github.com/aarondl/null/v8"

	"theater-warehouse/internal/dto"
	"theater-warehouse/internal/entities"
	apperrors "theater-warehouse/pkg/errors"
	"theater-warehouse/pkg/utils"
)

// applyEquipmentPatch накладывает PUT-запрос на текущую запись и возвращает список изменённых полей.
// null допустим только для необязательных полей.
func applyEquipmentPatch(current entities.Equipment, p dto.UpdateEquipmentDTO) (entities.Equipment, []string, error) {
	target := current
	var changed []string
	required := map[string]string{}

	setRequired := func(field string, v dto.Optional[null.String], apply func(string)) {
		if !v.Set {
			return
		}
		if !v.Value.Valid || strings.TrimSpace(v.Value.String) == "" {
			required[field] = "не может быть пустым"
			return
		}
		apply(strings.TrimSpace(v.Value.String))
	}
	setOptional := func(v dto.Optional[null.String], dst **string) {
		if !v.Set {
			return
		}
		if !v.Value.Valid {
			*dst = nil
			return
		}
		*dst = utils.TrimmedOrNil(&v.Value.String)
	}

	setRequired("name", p.Name, func(s string) { target.Name = s })
	setRequired("storage_location", p.StorageLocation, func(s string) { target.StorageLocation = s })
	setRequired("condition", p.Condition, func(s string) { target.Condition = entities.Condition(s) })
	setRequired("status", p.Status, func(s string) { target.Status = entities.Status(s) })

	setOptional(p.Description, &target.Description)
	setOptional(p.InventoryNumber, &target.InventoryNumber)
	setOptional(p.Performance, &target.Performance)

	if p.CategoryID.Set {
		if !p.CategoryID.Value.Valid {
			required["category_id"] = "не может быть пустым"
		} else {
			target.CategoryID = p.CategoryID.Value.Uint64
		}
	}
	if p.SubcategoryID.Set {
		if p.SubcategoryID.Value.Valid {
			target.SubcategoryID = utils.Ptr(p.SubcategoryID.Value.Uint64)
		} else {
			target.SubcategoryID = nil
		}
	}
	if p.Quantity.Set {
		if !p.Quantity.Value.Valid {
			required["quantity"] = "не может быть пустым"
		} else {
			target.Quantity = p.Quantity.Value.Int
		}
	}

	if len(required) > 0 {
		return current, nil, apperrors.NewValidationError("Ошибка валидации оборудования", required)
	}

	if target.Name != current.Name {
		changed = append(changed, "name")
	}
	if !equalStr(target.Description, current.Description) {
		changed = append(changed, "description")
	}
	if target.CategoryID != current.CategoryID {
		changed = append(changed, "category_id")
	}
	if !equalUint(target.SubcategoryID, current.SubcategoryID) {
		changed = append(changed, "subcategory_id")
	}
	if !equalStr(target.InventoryNumber, current.InventoryNumber) {
		changed = append(changed, "inventory_number")
	}
	if target.Condition != current.Condition {
		changed = append(changed, "condition")
	}
	if target.Status != current.Status {
		changed = append(changed, "status")
	}
	if target.StorageLocation != current.StorageLocation {
		changed = append(changed, "storage_location")
	}
	if !equalStr(target.Performance, current.Performance) {
		changed = append(changed, "performance")
	}
	if target.Quantity != current.Quantity {
		changed = append(changed, "quantity")
	}
	return target, changed, nil
}

func equalStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalUint(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
