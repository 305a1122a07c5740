package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(userID uint64, buffer int) *Client {
	return &Client{Send: make(chan []byte, buffer), UserID: userID}
}

func TestHub_BroadcastToClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	first, second := testClient(1, 4), testClient(2, 4)
	require.True(t, hub.Register(first))
	require.True(t, hub.Register(second))
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Broadcast(TypeCatalogChanged, CatalogChangedPayload{Mutation: "category.create", UserID: 1}))

	for _, c := range []*Client{first, second} {
		select {
		case raw := <-c.Send:
			var envelope struct {
				Type    string                `json:"type"`
				Payload CatalogChangedPayload `json:"payload"`
			}
			require.NoError(t, json.Unmarshal(raw, &envelope))
			assert.Equal(t, TypeCatalogChanged, envelope.Type)
			assert.Equal(t, "category.create", envelope.Payload.Mutation)
		case <-time.After(time.Second):
			t.Fatalf("клиент %d не получил сообщение", c.UserID)
		}
	}

	hub.Unregister(first)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	_, open := <-first.Send
	assert.False(t, open, "канал отключённого клиента закрыт")
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := testClient(1, 0)
	require.True(t, hub.Register(slow))
	require.NoError(t, hub.Broadcast(TypeHistoryRecorded, map[string]int{"id": 1}))
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_StopsOnCancel(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := testClient(1, 1)
	require.True(t, hub.Register(client))
	cancel()
	<-stopped

	_, open := <-client.Send
	assert.False(t, open)
	assert.False(t, hub.Register(testClient(2, 1)), "после остановки регистрация не проходит")
	hub.Unregister(client)
}
