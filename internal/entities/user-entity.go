package entities

import (
	"theater-warehouse/internal/authz"
	"theater-warehouse/pkg/types"
)

type User struct {
	ID       uint64     `json:"id" db:"id"`
	Username string     `json:"username" db:"username"`
	Email    string     `json:"email" db:"email"`
	Password string     `json:"-" db:"password"`
	Role     authz.Role `json:"role" db:"role"`

	types.BaseEntity
}
