package events

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/rednote/internal/interfaces"
)

// NewLoggerSubscriber creates an event handler that logs all events
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		var url, status, noteID, job string
		if payload, ok := event.Payload.(map[string]interface{}); ok {
			if v, ok := payload["url"].(string); ok {
				url = v
			}
			if v, ok := payload["status"].(string); ok {
				status = v
			}
			if v, ok := payload["note_id"].(string); ok {
				noteID = v
			}
			if v, ok := payload["job"].(string); ok {
				job = v
			}
		}

		logEvent := logger.Debug().
			Str("event_type", string(event.Type))

		if url != "" {
			logEvent = logEvent.Str("url", url)
		}
		if status != "" {
			logEvent = logEvent.Str("status", status)
		}
		if noteID != "" {
			logEvent = logEvent.Str("note_id", noteID)
		}
		if job != "" {
			logEvent = logEvent.Str("job", job)
		}

		logEvent.Msg("Event published")

		return nil
	}
}

// SubscribeLoggerToAllEvents subscribes the logger to all known event types
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)

	eventTypes := []interfaces.EventType{
		interfaces.EventLoginStatus,
		interfaces.EventScrapeStarted,
		interfaces.EventScrapeCompleted,
		interfaces.EventSchedulerJob,
	}

	for _, eventType := range eventTypes {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to event type %s: %w", eventType, err)
		}
	}

	logger.Debug().
		Int("event_type_count", len(eventTypes)).
		Msg("Logger subscribed to all event types")

	return nil
}
