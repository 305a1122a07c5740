package customvalidator

import (
	"reflect"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/entities"
)

// RegisterCustomValidations регистрирует правила, используемые в тегах DTO.
func RegisterCustomValidations(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"notblank":            isNotBlank,
		"equipment_condition": isEquipmentCondition,
		"equipment_status":    isEquipmentStatus,
		"user_role":           isUserRole,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	registerNullTypes(v)
	return nil
}

func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func isEquipmentCondition(fl validator.FieldLevel) bool {
	return entities.Condition(fl.Field().String()).IsValid()
}

func isEquipmentStatus(fl validator.FieldLevel) bool {
	return entities.Status(fl.Field().String()).IsValid()
}

func isUserRole(fl validator.FieldLevel) bool {
	return authz.Role(fl.Field().String()).IsValid()
}

// registerNullTypes учит валидатор смотреть внутрь null.String и null.Uint64.
func registerNullTypes(v *validator.Validate) {
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(null.String); ok && val.Valid {
			return val.String
		}
		return nil
	}, null.String{})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(null.Uint64); ok && val.Valid {
			return val.Uint64
		}
		return nil
	}, null.Uint64{})
}
