package services

import (
	"context"

	"github.com/nexcharge/apiserver/types"
)

// EventPublisher delivers charger change events.
type EventPublisher interface {
	PublishChargerEvent(ctx context.Context, event types.ChargerEvent) error
}

// JSONPublisher is the subset of the message queue used for events.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, channel string, value any, attrs map[string]string) (string, error)
}

// ChargerEvents publishes charger events as JSON on a single channel.
type ChargerEvents struct {
	queue   JSONPublisher
	channel string
}

func NewChargerEvents(queue JSONPublisher, channel string) *ChargerEvents {
	return &ChargerEvents{queue: queue, channel: channel}
}

func (e *ChargerEvents) PublishChargerEvent(ctx context.Context, event types.ChargerEvent) error {
	_, err := e.queue.PublishJSON(ctx, e.channel, event, map[string]string{
		"type": string(event.Type),
	})
	return err
}

type nopEvents struct{}

func (nopEvents) PublishChargerEvent(context.Context, types.ChargerEvent) error { return nil }
