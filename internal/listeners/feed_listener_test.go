package listeners

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"theater-warehouse/internal/authz"
	"theater-warehouse/internal/entities"
	"theater-warehouse/internal/events"
	"theater-warehouse/pkg/eventbus"
	"theater-warehouse/pkg/websocket"
)

type sent struct {
	messageType string
	payload     interface{}
}

type recordingBroadcaster struct {
	messages []sent
}

func (r *recordingBroadcaster) Broadcast(messageType string, payload interface{}) error {
	r.messages = append(r.messages, sent{messageType: messageType, payload: payload})
	return nil
}

type otherEvent struct{}

func (otherEvent) Name() string { return "other" }

func TestFeedListener_Handle(t *testing.T) {
	rec := &recordingBroadcaster{}
	l := NewFeedListener(rec, zap.NewNop())
	ctx := context.Background()
	actor := authz.Actor{UserID: 3, Username: "manager", Role: authz.RoleManager}

	entry := &entities.HistoryEntry{ID: 10, EquipmentID: 5, Action: entities.ActionMoved}
	require.NoError(t, l.Handle(ctx, events.MutationCompletedEvent{Mutation: "equipment.move", Actor: actor, Entry: entry}))
	require.NoError(t, l.Handle(ctx, events.MutationCompletedEvent{Mutation: "category.delete", Actor: actor}))
	require.NoError(t, l.Handle(ctx, events.MutationCompletedEvent{Mutation: "user.role", Actor: actor}))

	require.Len(t, rec.messages, 2)
	assert.Equal(t, websocket.TypeHistoryRecorded, rec.messages[0].messageType)
	assert.Same(t, entry, rec.messages[0].payload)
	assert.Equal(t, websocket.TypeCatalogChanged, rec.messages[1].messageType)
	assert.Equal(t, websocket.CatalogChangedPayload{Mutation: "category.delete", UserID: 3}, rec.messages[1].payload)

	assert.Error(t, l.Handle(ctx, otherEvent{}))
}

func TestFeedListener_Register(t *testing.T) {
	rec := &recordingBroadcaster{}
	bus := eventbus.New(zap.NewNop())
	NewFeedListener(rec, zap.NewNop()).Register(bus)

	bus.Publish(context.Background(), events.MutationCompletedEvent{Mutation: "category.create"})
	bus.Wait()

	require.Len(t, rec.messages, 1)
	assert.Equal(t, websocket.TypeCatalogChanged, rec.messages[0].messageType)
}
