package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Source tags where a notification came from so clear/restore/delete can be routed back.
type Source string

const (
	SourceLegacy     Source = "legacy"
	SourceStructured Source = "ctx"
)

func (s Source) Valid() bool {
	return s == SourceLegacy || s == SourceStructured
}

// Timestamp holds a point in time exactly as delivered by a store. JSON strings are kept
// verbatim and JSON numbers (epoch milliseconds) are kept as their decimal text.
type Timestamp string

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Timestamp(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("timestamp must be a string or number: %w", err)
	}
	*t = Timestamp(n.String())
	return nil
}

// LegacyNotification is the flat shape kept by the legacy store.
type LegacyNotification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp Timestamp `json:"timestamp"`
	Cleared   bool      `json:"cleared"`
}

// StructuredNotification is the shape served by the notification service. Active and
// cleared items arrive as separate lists, so there is no cleared flag.
type StructuredNotification struct {
	DocumentID string                 `json:"_id,omitempty"`
	ID         string                 `json:"id,omitempty"`
	Type       string                 `json:"type,omitempty"`
	Message    string                 `json:"message"`
	Data       map[string]interface{} `json:"data,omitempty"`
	CreatedAt  Timestamp              `json:"createdAt"`
}

// Key returns _id when present, id otherwise.
func (n StructuredNotification) Key() string {
	if n.DocumentID != "" {
		return n.DocumentID
	}
	return n.ID
}

// Notification is the normalized record produced by a merge.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp Timestamp `json:"timestamp"`
	Cleared   bool      `json:"cleared"`
	Source    Source    `json:"source"`
}

// Merged is the display view: two disjoint, newest-first lists.
type Merged struct {
	Active  []Notification `json:"active"`
	Cleared []Notification `json:"cleared"`
}

// Viewer identifies who is looking at the notifications.
type Viewer struct {
	UserID   string
	Username string
	Role     string
}
