package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
)

// Event represents a domain event raised by a committed workflow transition
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	Kind          entity.Kind            `json:"kind"`
	EntityID      int64                  `json:"entity_id"`
	Actor         entity.Actor           `json:"actor"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEventWithCorrelation creates an event linked to a correlation chain,
// typically the request id of the HTTP call that caused it
func NewEventWithCorrelation(eventType Type, kind entity.Kind, entityID int64, actor entity.Actor, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Kind:          kind,
		EntityID:      entityID,
		Actor:         actor,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}
