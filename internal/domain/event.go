package domain

import "time"

// Event is an analytics record sharing the persistent store with leads
// and orders. Events are append-only.
type Event struct {
	ID        int64          `json:"id,omitempty"`
	SessionID string         `json:"sessionId"`
	Type      string         `json:"type"`
	PagePath  string         `json:"pagePath"`
	Timestamp time.Time      `json:"timestamp,omitzero"`
	Payload   map[string]any `json:"payload,omitempty"`
}
