// Package events fans out committed job events to in-process subscribers
package events

import (
	"context"
	"sync"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/logger"
)

// EventChannelSize is the buffer size for the event channel
const EventChannelSize = 100

// Event is a job event that has been committed to the log.
// (JobID, Index) identifies it uniquely, so handlers can drop repeats.
type Event struct {
	models.JobEvent
	// Phase is the job phase right after the event was applied
	Phase models.JobPhase
}

// Handler is a function that handles an event. Handlers run on the dispatch loop and should not block.
type Handler func(context.Context, Event) error

// Bus delivers events to the handlers subscribed to their type
type Bus struct {
	handlersMu sync.RWMutex
	handlers   map[models.JobEventType][]Handler
	all        []Handler
	eventChan  chan Event
	startOnce  sync.Once
}

// NewBus creates a bus with a buffer of size events
func NewBus(size int) *Bus {
	if size <= 0 {
		size = EventChannelSize
	}
	return &Bus{
		handlers:  make(map[models.JobEventType][]Handler),
		eventChan: make(chan Event, size),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType models.JobEventType, handler Handler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	logger.Debugf("📝 Registered handler for event type: %s", eventType)
}

// SubscribeAll registers a handler for every event type
func (b *Bus) SubscribeAll(handler Handler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.all = append(b.all, handler)
	logger.Debug("📝 Registered handler for all event types")
}

// Publish queues an event for delivery. It never blocks: when the buffer is
// full the event is dropped and subscribers catch up from the event log.
func (b *Bus) Publish(event Event) bool {
	select {
	case b.eventChan <- event:
		logger.Debugf("📢 Published event: %s (Job: %d, Index: %d)", event.Type, event.JobID, event.Index)
		return true
	default:
		logger.WarnWithFields("event bus full, dropping event", map[string]interface{}{
			"job_id": event.JobID,
			"index":  event.Index,
			"type":   event.Type.String(),
		})
		return false
	}
}

// Start starts the event processing loop
func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.processEvents(ctx)
		logger.Info("🎯 Started event processing loop")
	})
}

// processEvents handles events in the background
func (b *Bus) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("🛑 Stopping event processing loop")
			return
		case event := <-b.eventChan:
			logger.Debugf("📥 Received event %s for job %d", event.Type, event.JobID)
			b.handlersMu.RLock()
			eventHandlers := append(append([]Handler(nil), b.handlers[event.Type]...), b.all...)
			b.handlersMu.RUnlock()

			// Handlers run in turn so every subscriber sees events in commit order
			for _, handler := range eventHandlers {
				if err := handler(ctx, event); err != nil {
					logger.Errorf("❌ Failed to handle event %s for job %d: %v", event.Type, event.JobID, err)
				}
			}
		}
	}
}

// LogHandler writes every event to the structured log
func LogHandler(_ context.Context, e Event) error {
	logger.InfoWithFields("job event", map[string]interface{}{
		"job_id": e.JobID,
		"index":  e.Index,
		"type":   e.Type.String(),
		"actor":  e.Actor,
		"phase":  string(e.Phase),
	})
	return nil
}
