package dto

import (
	"time"

	"theater-warehouse/internal/entities"
)

type LoginDTO struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

// RegisterDTO не содержит роли: новые пользователи всегда получают роль "user".
type RegisterDTO struct {
	Username string `json:"username" validate:"required,notblank,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type UpdateRoleDTO struct {
	Role string `json:"role" validate:"required,user_role"`
}

type UserDTO struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponseDTO struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

type MeResponseDTO struct {
	User UserDTO `json:"user"`
}

func UserToDTO(u *entities.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
