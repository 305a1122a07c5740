package websocket

import "time"

const (
	TypeHistoryRecorded = "history.recorded"
	TypeCatalogChanged  = "catalog.changed"
)

// Envelope - конверт сообщения: по Type фронтенд решает, что обновить.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type CatalogChangedPayload struct {
	Mutation string `json:"mutation"`
	UserID   uint64 `json:"user_id"`
}
