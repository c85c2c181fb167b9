// internal/handler/event_bus.go
package handler

import (
	"encoding/json"

	"go.uber.org/zap"

	"serial-terminal/internal/service"
)

// EventBus buffers terminal events between the pipeline and the
// WebSocket clients. Publish never blocks the pipeline: when the queue
// is full the event is dropped, clients resynchronize from the snapshot
// endpoints.
type EventBus struct {
	events      chan service.Event
	connections *ConnectionManager
	logger      *zap.Logger
}

// NewEventBus creates an event bus feeding the given connection manager
func NewEventBus(connections *ConnectionManager, logger *zap.Logger) *EventBus {
	return &EventBus{
		events:      make(chan service.Event, 1000),
		connections: connections,
		logger:      logger,
	}
}

// Start drains the queue and broadcasts events to connected clients.
// Runs until the process exits.
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distribute(event)
	}
}

// Publish enqueues an event for broadcast; implements service.EventSink
func (eb *EventBus) Publish(event service.Event) {
	select {
	case eb.events <- event:
	default:
		if eb.logger != nil {
			eb.logger.Warn("Event bus full, dropping event",
				zap.String("event_type", string(event.Type)),
			)
		}
	}
}

func (eb *EventBus) distribute(event service.Event) {
	if eb.connections.Count() == 0 {
		return
	}

	message := WebSocketMessage{
		Type:      string(event.Type),
		Data:      event.Data,
		Timestamp: event.Timestamp,
	}
	payload, err := json.Marshal(message)
	if err != nil {
		eb.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	eb.connections.Broadcast(payload)
}
