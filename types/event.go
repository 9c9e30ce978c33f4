package types

import "time"

// ChargerEventType identifies what happened to a charger.
type ChargerEventType string

const (
	ChargerCreated ChargerEventType = "charger.created"
	ChargerUpdated ChargerEventType = "charger.updated"
	ChargerDeleted ChargerEventType = "charger.deleted"
)

// ChargerEvent is published to the message broker after a charger changes.
type ChargerEvent struct {
	Type       ChargerEventType `json:"type"`
	ChargerID  int              `json:"charger_id"`
	ActorID    int              `json:"actor_id,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`

	// Charger holds the state after the change. It is nil for deletes.
	Charger *Charger `json:"charger,omitempty"`
}
