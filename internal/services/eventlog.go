package services

import (
	"context"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/db/repos"
)

// EventLog is the read side of the per-job event log. Appends only happen inside JobRegistry operations.
type EventLog struct {
	registry *JobRegistry
	events   *repos.EventRepository
}

// EventLog returns the read view of the registry's event log
func (r *JobRegistry) EventLog() *EventLog {
	return &EventLog{registry: r, events: r.events}
}

// revisionAt is the revision of a job with count events: the events recorded after Created.
// A freshly posted job is at revision 0.
func revisionAt(count uint64) uint64 {
	if count == 0 {
		return 0
	}
	return count - 1
}

// Count returns the number of events of a job
func (l *EventLog) Count(ctx context.Context, jobID uint) (uint64, error) {
	if _, err := l.registry.GetJob(ctx, jobID); err != nil {
		return 0, err
	}
	return l.events.Count(ctx, jobID)
}

// Revision returns the revision a worker signs to take or apply for a job
func (l *EventLog) Revision(ctx context.Context, jobID uint) (uint64, error) {
	count, err := l.Count(ctx, jobID)
	if err != nil {
		return 0, err
	}
	return revisionAt(count), nil
}

// EventsInRange returns the events with start <= index < end.
// end is clamped to the event count; an empty or inverted range yields no events.
func (l *EventLog) EventsInRange(ctx context.Context, jobID uint, start, end uint64) ([]models.JobEvent, error) {
	count, err := l.Count(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if end > count {
		end = count
	}
	if start >= end {
		return []models.JobEvent{}, nil
	}
	return l.events.Range(ctx, jobID, start, end)
}
