package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"budgettracker/internal/core"
	"budgettracker/internal/store"
)

// ChangeMessage is the body published for every committed mutation.
type ChangeMessage struct {
	Kind        store.ChangeKind  `json:"kind"`
	ID          string            `json:"id"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Budget      *core.Budget      `json:"budget,omitempty"`
	Replaced    string            `json:"replaced,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewChangeMessage builds the message for c, stamped with the current time.
func NewChangeMessage(c store.Change) *ChangeMessage {
	return &ChangeMessage{
		Kind:        c.Kind,
		ID:          c.ID,
		Transaction: c.Transaction,
		Budget:      c.Budget,
		Replaced:    c.Replaced,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and checks a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case store.TransactionCreated, store.TransactionDeleted, store.BudgetSet, store.BudgetRemoved:
	default:
		return nil, fmt.Errorf("unknown change kind %q", msg.Kind)
	}
	if msg.ID == "" {
		return nil, errors.New("change message without id")
	}
	if msg.Kind == store.TransactionCreated && msg.Transaction == nil {
		return nil, errors.New("transaction.created message without transaction")
	}
	return &msg, nil
}
