package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobEventType identifies what happened to a job
type JobEventType int

// Job event types. The numeric values are part of the event log format.
const (
	JobEventCreated JobEventType = iota
	JobEventTaken
	JobEventPaid
	JobEventUpdated
	JobEventSigned
	JobEventCompleted
	JobEventDelivered
	JobEventClosed
	JobEventReopened
	JobEventRated
	JobEventRefunded
	JobEventDisputed
	JobEventArbitrated
	JobEventArbitrationRefused
	JobEventWhitelistedWorkerAdded
	JobEventWhitelistedWorkerRemoved
	JobEventCollateralWithdrawn
	JobEventOwnerMessage
	JobEventWorkerMessage
)

var jobEventTypeNames = []string{
	"created",
	"taken",
	"paid",
	"updated",
	"signed",
	"completed",
	"delivered",
	"closed",
	"reopened",
	"rated",
	"refunded",
	"disputed",
	"arbitrated",
	"arbitration_refused",
	"whitelisted_worker_added",
	"whitelisted_worker_removed",
	"collateral_withdrawn",
	"owner_message",
	"worker_message",
}

func (t JobEventType) String() string {
	if int(t) < 0 || int(t) >= len(jobEventTypeNames) {
		return "unknown"
	}
	return jobEventTypeNames[t]
}

// ParseJobEventType converts a string representation of an event type to JobEventType type
func ParseJobEventType(str string) (JobEventType, error) {
	for i, name := range jobEventTypeNames {
		if name == str {
			return JobEventType(i), nil
		}
	}
	return JobEventType(0), fmt.Errorf("invalid job event type: %s", str)
}

// MarshalJSON implements the json.Marshaler interface for JobEventType
func (t JobEventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for JobEventType
func (t *JobEventType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseJobEventType(str)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// JobEvent is one entry of a job's append-only history.
// Index is zero based and dense per job, so the number of events equals the job revision.
type JobEvent struct {
	ID        uint            `json:"-" gorm:"primaryKey"`
	JobID     uint            `json:"job_id" gorm:"not null;uniqueIndex:idx_job_events_job_index,priority:1"`
	Index     uint64          `json:"index" gorm:"column:event_index;not null;uniqueIndex:idx_job_events_job_index,priority:2"`
	Type      JobEventType    `json:"type" gorm:"not null;index"`
	Actor     string          `json:"actor" gorm:"not null;index"`
	Timestamp time.Time       `json:"timestamp" gorm:"not null"`
	Payload   json.RawMessage `json:"payload,omitempty" gorm:"type:jsonb"`
}

// DecodePayload unmarshals the event payload into v
func (e *JobEvent) DecodePayload(v interface{}) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}
