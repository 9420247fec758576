package amqp

import (
	"encoding/json"
	"time"
)

const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// RecordChange announces that one record in a store collection changed.
// Consumers re-read whatever they need from the store; the message is
// deliberately lightweight.
type RecordChange struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	ID         int64     `json:"id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewRecordChange(collection, op string, id int64) *RecordChange {
	return &RecordChange{
		Collection: collection,
		Op:         op,
		ID:         id,
		Timestamp:  time.Now(),
	}
}

func (m *RecordChange) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordChangeFromJSON(data []byte) (*RecordChange, error) {
	var msg RecordChange
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
