// Package events publishes a record of every categorization so downstream
// consumers can audit which path produced each category.
package events

import (
	"categorizer-server/src/models"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CategorizationEvent struct {
	ID          string                      `json:"id"`
	Timestamp   time.Time                   `json:"timestamp"`
	Transaction models.Transaction          `json:"transaction"`
	Result      models.CategorizationResult `json:"result"`
}

func NewCategorizationEvent(txn models.Transaction, result models.CategorizationResult) *CategorizationEvent {
	return &CategorizationEvent{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Transaction: txn,
		Result:      result,
	}
}

func (e *CategorizationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func CategorizationEventFromJSON(data []byte) (*CategorizationEvent, error) {
	var event CategorizationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

type Publisher interface {
	Publish(ctx context.Context, event *CategorizationEvent) error
	Close() error
}

// Noop discards events. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, *CategorizationEvent) error {
	return nil
}

func (Noop) Close() error {
	return nil
}
