package contracts

import "encoding/json"

// Client to server websocket control frame.
type RealtimeControl struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Server to client websocket frame.
type RealtimeFrame struct {
	Topic     string          `json:"topic"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp string          `json:"timestamp"`
}
