package domain

import "encoding/json"

// Event is one audit record in a chat turn's lifecycle.
type Event struct {
	EventID string          `json:"event_id"`
	TurnID  string          `json:"turn_id"`
	Ts      int64           `json:"ts"` // unix millis
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
