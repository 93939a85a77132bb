package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/yungbote/escrow-backend/internal/pkg/logger"
	"github.com/yungbote/escrow-backend/internal/types"
)

// MessagePublisher is the outbound side of the SSE bus.
type MessagePublisher interface {
	Publish(ctx context.Context, msg SSEMessage) error
}

// EventPublisher pushes committed audit events onto the bus, falling back to
// a direct hub broadcast when no bus is configured (single-node deployments
// and tests).
type EventPublisher struct {
	log *logger.Logger
	bus MessagePublisher
	hub *SSEHub
}

func NewEventPublisher(log *logger.Logger, bus MessagePublisher, hub *SSEHub) *EventPublisher {
	return &EventPublisher{log: log.With("component", "EventPublisher"), bus: bus, hub: hub}
}

func (p *EventPublisher) PublishProjectEvents(ctx context.Context, projectID uuid.UUID, events []*types.EscrowEvent) {
	channel := ProjectChannel(projectID)
	for _, event := range events {
		var data map[string]any
		if len(event.Data) > 0 {
			if err := json.Unmarshal(event.Data, &data); err != nil {
				p.log.Warn("Failed to decode event payload for fanout", "event_id", event.ID, "error", err)
				data = nil
			}
		}
		msg := SSEMessage{
			Channel: channel,
			Event:   event.Type,
			Data: map[string]any{
				"seq":      event.Seq,
				"actor_id": event.ActorID,
				"payload":  data,
			},
		}
		if p.bus != nil {
			if err := p.bus.Publish(ctx, msg); err != nil {
				p.log.Warn("Failed to publish SSE message", "channel", channel, "error", err)
			}
			continue
		}
		if p.hub != nil {
			p.hub.Broadcast(msg)
		}
	}
}
