package listeners

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"theater-warehouse/internal/events"
	"theater-warehouse/pkg/eventbus"
	"theater-warehouse/pkg/websocket"
)

// Broadcaster - то, чем лента рассылает сообщения. В приложении это websocket.Hub.
type Broadcaster interface {
	Broadcast(messageType string, payload interface{}) error
}

// FeedListener переводит завершённые мутации в сообщения живой ленты.
type FeedListener struct {
	broadcaster Broadcaster
	logger      *zap.Logger
}

func NewFeedListener(broadcaster Broadcaster, logger *zap.Logger) *FeedListener {
	return &FeedListener{broadcaster: broadcaster, logger: logger}
}

func (l *FeedListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.MutationCompleted, l.Handle)
}

func (l *FeedListener) Handle(_ context.Context, event eventbus.Event) error {
	e, ok := event.(events.MutationCompletedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события %T", event)
	}

	switch {
	case e.Entry != nil:
		return l.broadcaster.Broadcast(websocket.TypeHistoryRecorded, e.Entry)
	case strings.HasPrefix(e.Mutation, "category."):
		return l.broadcaster.Broadcast(websocket.TypeCatalogChanged, websocket.CatalogChangedPayload{
			Mutation: e.Mutation,
			UserID:   e.Actor.UserID,
		})
	default:
		l.logger.Debug("событие не транслируется в ленту", zap.String("mutation", e.Mutation))
		return nil
	}
}
