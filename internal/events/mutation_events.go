package events

import (
	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/entities"
)

const MutationCompleted = "mutation.completed"

// MutationCompletedEvent публикуется после успешной мутации.
// Entry пуст для изменений справочника категорий: они не пишутся в историю.
type MutationCompletedEvent struct {
	Mutation string
	Actor    authz.Actor
	Entry    *entities.HistoryEntry
}

func (e MutationCompletedEvent) Name() string {
	return MutationCompleted
}
