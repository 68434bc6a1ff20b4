package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TableSavedMessage announces that a record table was written to disk.
// It carries no row data: the consumer reloads the file and compares
// revisions.
type TableSavedMessage struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	Revision  string    `json:"revision"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTableSavedMessage creates a message with a fresh id.
func NewTableSavedMessage(kind, path, revision string, rows int) *TableSavedMessage {
	return &TableSavedMessage{
		ID:        uuid.NewString(),
		Kind:      kind,
		Path:      path,
		Revision:  revision,
		Rows:      rows,
		Timestamp: time.Now(),
	}
}

// Validate rejects messages the worker cannot act on.
func (m *TableSavedMessage) Validate() error {
	if m.Kind == "" {
		return errors.New("message has no kind")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *TableSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TableSavedMessageFromJSON creates a message from JSON bytes
func TableSavedMessageFromJSON(data []byte) (*TableSavedMessage, error) {
	var msg TableSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
