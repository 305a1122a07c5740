package authz

import (
	"fmt"
	"net/http"

	apperrors "theater-warehouse/pkg/errors"
)

// Actor - аутентифицированный пользователь, от имени которого выполняется запрос.
// Роль всегда берётся из хранилища, а не из тела запроса.
type Actor struct {
	UserID   uint64
	Username string
	Role     Role
}

type Gatekeeper struct{}

func NewGatekeeper() *Gatekeeper {
	return &Gatekeeper{}
}

func (g *Gatekeeper) Can(actor *Actor, capability Capability) bool {
	if actor == nil {
		return false
	}
	return HasPermission(actor.Role, capability)
}

// Authorize возвращает ErrUnauthorized для анонимного запроса и ErrForbidden при нехватке прав.
func (g *Gatekeeper) Authorize(actor *Actor, capability Capability) error {
	if actor == nil {
		return apperrors.ErrUnauthorized
	}
	if !g.Can(actor, capability) {
		return apperrors.NewHttpError(http.StatusForbidden,
			fmt.Sprintf("Недостаточно прав: требуется %q", capability),
			fmt.Errorf("%w: роль %s", apperrors.ErrForbidden, actor.Role), nil)
	}
	return nil
}
