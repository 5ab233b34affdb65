package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
)

// EventRepository stores the append-only job event log
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository instance
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append stores event. The (job, index) pair is unique, so a second writer at the same index fails.
func (r *EventRepository) Append(ctx context.Context, event *models.JobEvent) error {
	if len(event.Payload) == 0 {
		event.Payload = []byte("{}")
	}
	if err := db.Conn(ctx, r.db).Create(event).Error; err != nil {
		if db.IsDuplicateKeyError(err) {
			return fmt.Errorf("event %d of job %d: %w", event.Index, event.JobID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Count returns the number of events recorded for a job
func (r *EventRepository) Count(ctx context.Context, jobID uint) (uint64, error) {
	var count int64
	err := db.Conn(ctx, r.db).Model(&models.JobEvent{}).
		Where("job_id = ?", jobID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return uint64(count), nil
}

// Range returns the events with from <= index < to, ordered by index
func (r *EventRepository) Range(ctx context.Context, jobID uint, from, to uint64) ([]models.JobEvent, error) {
	events := []models.JobEvent{}
	if from >= to {
		return events, nil
	}
	err := db.Conn(ctx, r.db).
		Where("job_id = ? AND event_index >= ? AND event_index < ?", jobID, from, to).
		Order("event_index ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Exists reports whether actor produced an event of the given type on the job
func (r *EventRepository) Exists(ctx context.Context, jobID uint, eventType models.JobEventType, actor string) (bool, error) {
	var count int64
	err := db.Conn(ctx, r.db).Model(&models.JobEvent{}).
		Where("job_id = ? AND type = ? AND actor = ?", jobID, eventType, actor).
		Count(&count).Error
	return count > 0, err
}
